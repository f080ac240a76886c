// Package dispatch moves every tradable item of the configured inventories
// to one recipient. Pairs are fetched concurrently within a group, groups run
// concurrently, and the ledger is updated once every group has finished.
package dispatch

import (
	"context"

	"github.com/Fantasim/looter/internal/models"
)

// InventoryFetcher lists the tradable items of one inventory.
type InventoryFetcher interface {
	Fetch(ctx context.Context, pair models.InventoryPair) ([]models.Item, error)
}

// OfferSender submits a one-sided offer of items to the owner of a trade link.
type OfferSender interface {
	Send(ctx context.Context, link string, items []models.Item) (models.OfferResult, error)
}

// Confirmer approves pending offers on the platform.
type Confirmer interface {
	AcceptConfirmation(ctx context.Context, offerID string) error
	AcknowledgeNewOffer(ctx context.Context) (int, error)
}

// Aggregator folds the transferred items into the report ledger.
type Aggregator interface {
	Aggregate(ctx context.Context, account string, items []models.Item) error
}

// Journal records runs and their groups. Journal errors never fail a run.
type Journal interface {
	CreateRun(ctx context.Context, run models.Run) error
	RecordGroup(ctx context.Context, runID string, snap models.GroupSnapshot) error
	FinishRun(ctx context.Context, runID string, exitCode, itemCount int, errMsg string) error
}

// TransferGroup is the state of one offer being assembled. It is owned by
// the goroutine running it.
type TransferGroup struct {
	Name               string
	Pairs              []models.InventoryPair
	Items              []models.Item
	OutstandingFetches int
	ValidInventories   int
	OfferID            string
	Status             models.GroupStatus
	Err                error
}

func newTransferGroup(name string, pairs []models.InventoryPair) *TransferGroup {
	return &TransferGroup{
		Name:               name,
		Pairs:              pairs,
		OutstandingFetches: len(pairs),
		Status:             models.GroupCollecting,
	}
}

// Snapshot returns the journal view of the group.
func (g *TransferGroup) Snapshot() models.GroupSnapshot {
	pairs := make([]string, len(g.Pairs))
	for i, p := range g.Pairs {
		pairs[i] = p.String()
	}

	snap := models.GroupSnapshot{
		Name:      g.Name,
		Pairs:     pairs,
		ItemCount: len(g.Items),
		OfferID:   g.OfferID,
		Status:    g.Status,
	}
	if g.Err != nil {
		snap.Error = g.Err.Error()
	}
	return snap
}
