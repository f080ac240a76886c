package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Fantasim/looter/internal/models"
)

// PriceOracle resolves the market price of an item. It never fails; an
// unknown price is returned as an invalid models.Price.
type PriceOracle interface {
	Lookup(ctx context.Context, appID, marketName string) models.Price
}

// Aggregator folds transferred items into the weekly ledger.
type Aggregator struct {
	store  *Store
	oracle PriceOracle
	now    func() time.Time
}

// NewAggregator creates an aggregator persisting through store.
func NewAggregator(store *Store, oracle PriceOracle) *Aggregator {
	return &Aggregator{
		store:  store,
		oracle: oracle,
		now:    time.Now,
	}
}

// Aggregate prices and classifies items sent by account, then saves the
// ledger and its rendering. Nothing is written when items is empty.
func (a *Aggregator) Aggregate(ctx context.Context, account string, items []models.Item) error {
	if len(items) == 0 {
		return nil
	}

	st := a.store.Load(a.now())
	st.Accounts[account] = true

	counts := make(map[Bucket]int)
	for _, item := range items {
		price := a.oracle.Lookup(ctx, item.AppID, item.MarketLookupName())
		counts[st.Apply(item, price)]++
	}

	if err := a.store.Save(st); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	slog.Info("report updated",
		"account", account,
		"items", len(items),
		"cases", counts[BucketCase],
		"skins", counts[BucketSkin],
		"common", counts[BucketCommon],
		"anotherDrops", counts[BucketAnotherDrop],
	)
	return nil
}
