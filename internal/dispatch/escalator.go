package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Fantasim/looter/internal/config"
)

// EscalationState is the position of an offer in the confirmation flow.
type EscalationState int

const (
	PendingConfirmation EscalationState = iota
	Escalating
	Confirmed
	ConfirmationFailed
)

func (s EscalationState) String() string {
	switch s {
	case PendingConfirmation:
		return "pending_confirmation"
	case Escalating:
		return "escalating"
	case Confirmed:
		return "confirmed"
	case ConfirmationFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Escalator confirms an offer, falling back to a single acknowledge-and-retry
// when the platform reports the confirmation is not applicable yet.
type Escalator struct {
	confirmer Confirmer
}

// NewEscalator creates an escalator over confirmer.
func NewEscalator(confirmer Confirmer) *Escalator {
	return &Escalator{confirmer: confirmer}
}

// Confirm drives offerID to Confirmed or returns an error wrapping
// config.ErrConfirmationFailed.
func (e *Escalator) Confirm(ctx context.Context, group, offerID string) error {
	log := slog.With("group", group, "offerID", offerID)

	err := e.confirmer.AcceptConfirmation(ctx, offerID)
	if err == nil {
		log.Info("offer confirmed", "state", Confirmed.String())
		return nil
	}
	if !notApplicable(err) {
		log.Error("confirmation failed", "state", ConfirmationFailed.String(), "error", err)
		return fmt.Errorf("%w: %s: %v", config.ErrConfirmationFailed, group, err)
	}

	log.Warn("confirmation not applicable, acknowledging new offer", "state", Escalating.String(), "error", err)

	status, ackErr := e.confirmer.AcknowledgeNewOffer(ctx)
	if ackErr != nil {
		log.Error("acknowledge failed", "state", ConfirmationFailed.String(), "error", ackErr)
		return fmt.Errorf("%w: %s: acknowledge: %v", config.ErrConfirmationFailed, group, ackErr)
	}
	if status != http.StatusOK {
		log.Error("acknowledge rejected", "state", ConfirmationFailed.String(), "status", status)
		return fmt.Errorf("%w: %s: acknowledge returned HTTP %d: %v", config.ErrConfirmationFailed, group, status, err)
	}

	if err := e.confirmer.AcceptConfirmation(ctx, offerID); err != nil {
		log.Error("confirmation retry failed", "state", ConfirmationFailed.String(), "error", err)
		return fmt.Errorf("%w: %s: retry: %v", config.ErrConfirmationFailed, group, err)
	}

	log.Info("offer confirmed after acknowledge", "state", Confirmed.String())
	return nil
}

func notApplicable(err error) bool {
	return errors.Is(err, config.ErrConfirmationNotApplicable) ||
		strings.Contains(err.Error(), config.ConfirmationNotActMsg)
}
