package dispatch

import (
	"context"
	"strings"
	"sync"

	"github.com/Fantasim/looter/internal/models"
)

// fakeFetcher serves items per pair. Pairs listed in panics blow up the
// way a nil-map write would; honorCtx makes every fetch fail once ctx is done.
type fakeFetcher struct {
	items    map[string][]models.Item
	errs     map[string]error
	panics   map[string]bool
	honorCtx bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, pair models.InventoryPair) ([]models.Item, error) {
	if f.panics[pair.String()] {
		var counts map[string]int
		counts[pair.String()]++
	}
	if f.honorCtx && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err := f.errs[pair.String()]; err != nil {
		return nil, err
	}
	return f.items[pair.String()], nil
}

type fakeSender struct {
	mu     sync.Mutex
	calls  [][]models.Item
	result models.OfferResult
	err    error
}

func (s *fakeSender) Send(_ context.Context, _ string, items []models.Item) (models.OfferResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, items)
	if s.err != nil {
		return models.OfferResult{}, s.err
	}
	return s.result, nil
}

// fakeConfirmer returns acceptErrs in order, then nil.
type fakeConfirmer struct {
	mu         sync.Mutex
	acceptErrs []error
	accepts    int
	ackStatus  int
	ackErr     error
	acks       int
}

func (c *fakeConfirmer) AcceptConfirmation(_ context.Context, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accepts++
	if len(c.acceptErrs) == 0 {
		return nil
	}
	err := c.acceptErrs[0]
	c.acceptErrs = c.acceptErrs[1:]
	return err
}

func (c *fakeConfirmer) AcknowledgeNewOffer(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acks++
	return c.ackStatus, c.ackErr
}

type fakeAggregator struct {
	mu      sync.Mutex
	calls   int
	account string
	items   []models.Item
	err     error
}

func (a *fakeAggregator) Aggregate(_ context.Context, account string, items []models.Item) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	a.account = account
	a.items = items
	return a.err
}

type fakeJournal struct {
	mu       sync.Mutex
	runs     []models.Run
	groups   []models.GroupSnapshot
	exitCode *int
	items    int
}

func (j *fakeJournal) CreateRun(_ context.Context, run models.Run) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs = append(j.runs, run)
	return nil
}

func (j *fakeJournal) RecordGroup(_ context.Context, _ string, snap models.GroupSnapshot) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.groups = append(j.groups, snap)
	return nil
}

func (j *fakeJournal) FinishRun(_ context.Context, _ string, exitCode, itemCount int, _ string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.exitCode = &exitCode
	j.items = itemCount
	return nil
}

func item(pair, asset, name string) models.Item {
	appID, contextID, _ := strings.Cut(pair, "/")
	return models.Item{AppID: appID, ContextID: contextID, AssetID: asset, Amount: "1", MarketHashName: name}
}
