package report

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/Fantasim/looter/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// ItemStat accumulates transfers of one item name.
type ItemStat struct {
	Amount        int     `json:"amount"`
	TotalPrice    float64 `json:"totalPrice"`
	PricedCount   int     `json:"pricedCount"`
	LastPriceText string  `json:"lastPriceText"`
}

// Average returns the mean resolved price, false when no price ever resolved.
func (s *ItemStat) Average() (float64, bool) {
	if s.PricedCount == 0 {
		return 0, false
	}
	return s.TotalPrice / float64(s.PricedCount), true
}

// State is the persisted ledger for one reporting week.
type State struct {
	SchemaVersion int                  `json:"schemaVersion"`
	PeriodStart   time.Time            `json:"periodStart"`
	PeriodEnd     time.Time            `json:"periodEnd"`
	Accounts      map[string]bool      `json:"accounts"`
	Cases         map[string]*ItemStat `json:"cases"`
	Skins         map[string]*ItemStat `json:"skins"`
	AnotherDrops  map[string]*ItemStat `json:"anotherDrops"`

	TotalCs2Drops         int     `json:"totalCs2Drops"`
	TotalCs2DropValue     float64 `json:"totalCs2DropValue"`
	TotalCases            int     `json:"totalCases"`
	TotalCaseValue        float64 `json:"totalCaseValue"`
	TotalSkins            int     `json:"totalSkins"`
	TotalSkinValue        float64 `json:"totalSkinValue"`
	TotalAllSkins         int     `json:"totalAllSkins"`
	TotalAllSkinValue     float64 `json:"totalAllSkinValue"`
	TotalAnotherDrops     int     `json:"totalAnotherDrops"`
	TotalAnotherDropValue float64 `json:"totalAnotherDropValue"`
}

// NewState returns an empty ledger for the given period.
func NewState(start, end time.Time) *State {
	return &State{
		SchemaVersion: config.ReportSchemaVersion,
		PeriodStart:   start,
		PeriodEnd:     end,
		Accounts:      map[string]bool{},
		Cases:         map[string]*ItemStat{},
		Skins:         map[string]*ItemStat{},
		AnotherDrops:  map[string]*ItemStat{},
	}
}

// Contains reports whether now falls inside [PeriodStart, PeriodEnd).
func (s *State) Contains(now time.Time) bool {
	return !now.Before(s.PeriodStart) && now.Before(s.PeriodEnd)
}

// storedState mirrors the file layout of any schema version. Pointer fields
// distinguish "absent" from zero where older versions need a backfill.
type storedState struct {
	SchemaVersion int                  `json:"schemaVersion"`
	PeriodStart   string               `json:"periodStart"`
	PeriodEnd     string               `json:"periodEnd"`
	Accounts      map[string]bool      `json:"accounts"`
	Cases         map[string]*ItemStat `json:"cases"`
	Skins         map[string]*ItemStat `json:"skins"`
	AnotherDrops  map[string]*ItemStat `json:"anotherDrops"`

	TotalCs2Drops         int      `json:"totalCs2Drops"`
	TotalCs2DropValue     float64  `json:"totalCs2DropValue"`
	TotalCases            int      `json:"totalCases"`
	TotalCaseValue        float64  `json:"totalCaseValue"`
	TotalSkins            int      `json:"totalSkins"`
	TotalSkinValue        float64  `json:"totalSkinValue"`
	TotalAllSkins         *int     `json:"totalAllSkins"`
	TotalAllSkinValue     *float64 `json:"totalAllSkinValue"`
	TotalAnotherDrops     int      `json:"totalAnotherDrops"`
	TotalAnotherDropValue float64  `json:"totalAnotherDropValue"`
}

// decodeState parses a ledger file and migrates it to the current schema.
// A file without a parseable period is reported as corrupt.
func decodeState(data []byte) (*State, error) {
	var stored storedState
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrReportCorrupt, err)
	}
	if stored.PeriodStart == "" || stored.PeriodEnd == "" {
		return nil, fmt.Errorf("%w: missing period bounds", config.ErrReportCorrupt)
	}

	start, err := time.Parse(time.RFC3339Nano, stored.PeriodStart)
	if err != nil {
		return nil, fmt.Errorf("%w: period start: %v", config.ErrReportCorrupt, err)
	}
	end, err := time.Parse(time.RFC3339Nano, stored.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: period end: %v", config.ErrReportCorrupt, err)
	}

	return migrate(&stored, start, end), nil
}

// migrate upgrades a stored ledger of any schema version to the current one.
// Missing maps become empty, missing counters are zero, and ledgers written
// before the all-skins counters existed inherit them from the skin counters.
func migrate(stored *storedState, start, end time.Time) *State {
	st := NewState(start, end)

	st.Accounts = orEmpty(stored.Accounts)
	st.Cases = statsOrEmpty(stored.Cases)
	st.Skins = statsOrEmpty(stored.Skins)
	st.AnotherDrops = statsOrEmpty(stored.AnotherDrops)

	st.TotalCs2Drops = stored.TotalCs2Drops
	st.TotalCs2DropValue = stored.TotalCs2DropValue
	st.TotalCases = stored.TotalCases
	st.TotalCaseValue = stored.TotalCaseValue
	st.TotalSkins = stored.TotalSkins
	st.TotalSkinValue = stored.TotalSkinValue
	st.TotalAnotherDrops = stored.TotalAnotherDrops
	st.TotalAnotherDropValue = stored.TotalAnotherDropValue

	st.TotalAllSkins = stored.TotalSkins
	if stored.TotalAllSkins != nil && *stored.TotalAllSkins != 0 {
		st.TotalAllSkins = *stored.TotalAllSkins
	}
	st.TotalAllSkinValue = stored.TotalSkinValue
	if stored.TotalAllSkinValue != nil && *stored.TotalAllSkinValue != 0 {
		st.TotalAllSkinValue = *stored.TotalAllSkinValue
	}

	st.SchemaVersion = config.ReportSchemaVersion
	return st
}

func orEmpty(m map[string]bool) map[string]bool {
	if m == nil {
		return map[string]bool{}
	}
	return m
}

func statsOrEmpty(m map[string]*ItemStat) map[string]*ItemStat {
	out := make(map[string]*ItemStat, len(m))
	for name, stat := range m {
		if stat == nil {
			continue
		}
		if stat.LastPriceText == "" {
			stat.LastPriceText = config.PriceUnavailable
		}
		out[name] = stat
	}
	return out
}
