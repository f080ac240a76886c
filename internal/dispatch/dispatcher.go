package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Fantasim/looter/internal/config"
	"github.com/Fantasim/looter/internal/inventory"
	"github.com/Fantasim/looter/internal/models"
)

// Outcome is the end state of a run.
type Outcome int

const (
	// OutcomeSent means at least one offer went through.
	OutcomeSent Outcome = iota
	// OutcomeNothingToSend means every group was empty.
	OutcomeNothingToSend
	// OutcomeFailed means no group sent and none was empty.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeNothingToSend:
		return "nothing_to_send"
	default:
		return "failed"
	}
}

// ExitCode maps the outcome to the process exit code.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeSent:
		return config.ExitSent
	case OutcomeNothingToSend:
		return config.ExitNothingToSend
	default:
		return config.ExitFatal
	}
}

// Result summarises a finished run.
type Result struct {
	RunID     string
	Outcome   Outcome
	ItemsSent int
	Groups    []models.GroupSnapshot
}

// Dispatcher runs the transfer pipeline for one account.
type Dispatcher struct {
	fetcher    InventoryFetcher
	sender     OfferSender
	escalator  *Escalator
	aggregator Aggregator
	journal    Journal

	account   string
	tradeLink string
}

// Options wires a Dispatcher. Aggregator and Journal may be nil.
type Options struct {
	Account    string
	TradeLink  string
	Fetcher    InventoryFetcher
	Sender     OfferSender
	Confirmer  Confirmer
	Aggregator Aggregator
	Journal    Journal
}

// New creates a dispatcher.
func New(opts Options) *Dispatcher {
	return &Dispatcher{
		fetcher:    opts.Fetcher,
		sender:     opts.Sender,
		escalator:  NewEscalator(opts.Confirmer),
		aggregator: opts.Aggregator,
		journal:    opts.Journal,
		account:    opts.Account,
		tradeLink:  opts.TradeLink,
	}
}

// Run sends every tradable item of pairs to the trade link. It returns
// config.ErrNoValidInventories when pairs is empty, and any fatal error
// (login, transport, confirmation) as soon as a group hits it, cancelling
// the other groups. Report errors are logged and never returned.
func (d *Dispatcher) Run(ctx context.Context, pairs []models.InventoryPair) (Result, error) {
	groups := inventory.Partition(pairs)
	if len(groups) == 0 {
		return Result{}, config.ErrNoValidInventories
	}

	runID := uuid.New().String()
	log := slog.With("runID", runID, "account", d.account)
	log.Info("dispatch started",
		"inventories", inventory.Format(pairs),
		"groups", len(groups),
	)
	d.journalCreate(ctx, runID, pairs)

	coord := newCoordinator(len(groups))
	eg, egCtx := errgroup.WithContext(ctx)

	for _, grp := range groups {
		grp := grp
		eg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = panicError("group "+grp.Name, r)
				}
			}()

			tg := d.runGroup(egCtx, grp)
			d.journalGroup(ctx, runID, tg.Snapshot())
			if tg.Err != nil {
				return tg.Err
			}
			coord.complete(tg)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		log.Error("dispatch aborted", "error", err)
		d.journalFinish(ctx, runID, config.ExitFatal, 0, err.Error())
		return Result{RunID: runID, Outcome: OutcomeFailed}, err
	}

	// Cancelled fetches are absorbed per pair, so an interrupted run would
	// otherwise look like an empty one.
	if ctx.Err() != nil {
		err := fmt.Errorf("%w: %w", config.ErrInterrupted, ctx.Err())
		log.Error("dispatch aborted", "error", err)
		d.journalFinish(ctx, runID, config.ExitFatal, 0, err.Error())
		return Result{RunID: runID, Outcome: OutcomeFailed}, err
	}

	<-coord.Done()

	res := d.finalize(ctx, log, runID, coord)
	d.journalFinish(ctx, runID, res.Outcome.ExitCode(), res.ItemsSent, "")
	return res, nil
}

func (d *Dispatcher) finalize(ctx context.Context, log *slog.Logger, runID string, coord *coordinator) Result {
	sent, empty, items, snapshots := coord.result()
	res := Result{RunID: runID, Groups: snapshots}

	switch {
	case sent > 0:
		res.Outcome = OutcomeSent
		res.ItemsSent = len(items)
		log.Info(fmt.Sprintf("SENT_ITEMS_COUNT:%d", len(items)), "offers", sent)
		d.aggregate(ctx, log, items)
	case empty > 0:
		res.Outcome = OutcomeNothingToSend
		log.Info("nothing to send, all inventories empty")
	default:
		res.Outcome = OutcomeFailed
		log.Warn("no group sent an offer")
	}
	return res
}

func (d *Dispatcher) aggregate(ctx context.Context, log *slog.Logger, items []models.Item) {
	if d.aggregator == nil {
		return
	}
	start := time.Now()
	if err := d.aggregator.Aggregate(ctx, d.account, items); err != nil {
		log.Error("report update failed", "error", err)
		return
	}
	log.Debug("report updated", "elapsed", time.Since(start).Round(time.Millisecond))
}

// runGroup fetches every pair of grp concurrently, then sends and confirms
// one offer. A fatal error is stored in the returned group's Err.
func (d *Dispatcher) runGroup(ctx context.Context, grp inventory.Group) *TransferGroup {
	tg := newTransferGroup(grp.Name, grp.Pairs)
	log := slog.With("group", tg.Name)

	if err := d.collect(ctx, tg); err != nil {
		tg.Status = models.GroupFailed
		tg.Err = err
		return tg
	}

	if tg.ValidInventories == 0 || len(tg.Items) == 0 {
		tg.Status = models.GroupEmpty
		log.Info("no items to send (empty inventories)")
		return tg
	}
	log.Info("items collected",
		"items", len(tg.Items),
		"validInventories", tg.ValidInventories,
	)

	tg.Status = models.GroupSending
	res, err := d.sender.Send(ctx, d.tradeLink, tg.Items)
	if err != nil {
		tg.Status = models.GroupFailed
		tg.Err = fmt.Errorf("%s: %w", tg.Name, err)
		return tg
	}
	tg.OfferID = res.OfferID

	if res.NeedsConfirmation {
		tg.Status = models.GroupConfirming
		log.Info("offer sent, requires confirmation", "offerID", tg.OfferID)
		if err := d.escalator.Confirm(ctx, tg.Name, tg.OfferID); err != nil {
			tg.Status = models.GroupFailed
			tg.Err = err
			return tg
		}
	} else {
		log.Info("offer sent", "offerID", tg.OfferID)
	}

	tg.Status = models.GroupDone
	return tg
}

// collect fetches all pairs of tg and waits for every fetch to finish.
// Fetch errors are logged and absorbed; only a panicking fetch is returned.
func (d *Dispatcher) collect(ctx context.Context, tg *TransferGroup) error {
	perPair := make([][]models.Item, len(tg.Pairs))

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		fault error
	)
	for i, pair := range tg.Pairs {
		wg.Add(1)
		go func(i int, pair models.InventoryPair) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					defer mu.Unlock()
					if fault == nil {
						fault = panicError("fetch "+pair.String(), r)
					}
				}
			}()

			items, err := d.fetcher.Fetch(ctx, pair)

			mu.Lock()
			defer mu.Unlock()
			tg.OutstandingFetches--
			if err != nil {
				slog.Warn("inventory invalid or inaccessible",
					"group", tg.Name,
					"pair", pair.String(),
					"error", err,
				)
				return
			}
			perPair[i] = items
			tg.ValidInventories++
		}(i, pair)
	}
	wg.Wait()
	if fault != nil {
		return fmt.Errorf("%s: %w", tg.Name, fault)
	}

	// Keep pair order regardless of which fetch finished first.
	for _, items := range perPair {
		tg.Items = append(tg.Items, items...)
	}
	return nil
}

// panicError turns a recovered panic into a fatal error carrying the stack.
func panicError(where string, r any) error {
	slog.Error("recovered panic", "where", where, "panic", r, "stack", string(debug.Stack()))
	return fmt.Errorf("%w: %s: %v", config.ErrUnexpectedFault, where, r)
}

func (d *Dispatcher) journalCreate(ctx context.Context, runID string, pairs []models.InventoryPair) {
	if d.journal == nil {
		return
	}
	run := models.Run{
		ID:      runID,
		Account: d.account,
		Pairs:   inventory.Format(pairs),
	}
	if err := d.journal.CreateRun(ctx, run); err != nil {
		slog.Warn("journal create run failed", "runID", runID, "error", err)
	}
}

func (d *Dispatcher) journalGroup(ctx context.Context, runID string, snap models.GroupSnapshot) {
	if d.journal == nil {
		return
	}
	if err := d.journal.RecordGroup(ctx, runID, snap); err != nil {
		slog.Warn("journal record group failed", "runID", runID, "group", snap.Name, "error", err)
	}
}

func (d *Dispatcher) journalFinish(ctx context.Context, runID string, exitCode, itemCount int, errMsg string) {
	if d.journal == nil {
		return
	}
	if err := d.journal.FinishRun(context.WithoutCancel(ctx), runID, exitCode, itemCount, errMsg); err != nil {
		slog.Warn("journal finish run failed", "runID", runID, "error", err)
	}
}
