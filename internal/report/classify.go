package report

import (
	"regexp"
	"strings"

	"github.com/Fantasim/looter/internal/config"
	"github.com/Fantasim/looter/internal/inventory"
	"github.com/Fantasim/looter/internal/models"
)

// Bucket is the ledger category an item was counted under.
type Bucket int

const (
	// BucketAnotherDrop holds items outside the primary inventory.
	BucketAnotherDrop Bucket = iota
	// BucketCase holds primary items named like a case or sealed container.
	BucketCase
	// BucketSkin holds priced primary items with a "Family | Finish" name.
	BucketSkin
	// BucketCommon holds primary items counted only in the drop totals.
	BucketCommon
)

func (b Bucket) String() string {
	switch b {
	case BucketAnotherDrop:
		return "another_drop"
	case BucketCase:
		return "case"
	case BucketSkin:
		return "skin"
	case BucketCommon:
		return "common"
	default:
		return "unknown"
	}
}

var casePattern = regexp.MustCompile(`(?i)case|sealed`)

const skinSeparator = " | "

// Classify returns the bucket an item belongs to given its resolved price.
func Classify(item models.Item, p models.Price) Bucket {
	name := item.DisplayName()
	switch {
	case !inventory.IsPrimary(item.Pair()):
		return BucketAnotherDrop
	case casePattern.MatchString(name):
		return BucketCase
	case p.Valid && strings.Contains(name, skinSeparator):
		return BucketSkin
	default:
		return BucketCommon
	}
}

// Apply classifies one transferred item and accumulates it into the ledger.
// Every item lands in exactly one bucket.
func (s *State) Apply(item models.Item, p models.Price) Bucket {
	name := item.DisplayName()
	bucket := Classify(item, p)

	if bucket == BucketAnotherDrop {
		s.TotalAnotherDrops++
		if p.Valid {
			s.TotalAnotherDropValue += p.Value
		}
		statFor(s.AnotherDrops, name).add(p)
		return bucket
	}

	s.TotalCs2Drops++
	if p.Valid {
		s.TotalCs2DropValue += p.Value
	}

	switch bucket {
	case BucketCase:
		s.TotalCases++
		if p.Valid {
			s.TotalCaseValue += p.Value
		}
		statFor(s.Cases, name).add(p)
	case BucketSkin:
		s.TotalAllSkins++
		s.TotalAllSkinValue += p.Value
		// Only skins above the threshold make it into the table.
		if p.Value > config.SkinPriceThreshold {
			s.TotalSkins++
			s.TotalSkinValue += p.Value
			statFor(s.Skins, name).add(p)
		}
	}
	return bucket
}

func statFor(stats map[string]*ItemStat, name string) *ItemStat {
	stat, ok := stats[name]
	if !ok {
		stat = &ItemStat{LastPriceText: config.PriceUnavailable}
		stats[name] = stat
	}
	return stat
}

func (s *ItemStat) add(p models.Price) {
	s.Amount++
	if p.Valid {
		s.TotalPrice += p.Value
		s.PricedCount++
	}
	if p.Text != "" && p.Text != config.PriceUnavailable {
		s.LastPriceText = p.Text
	}
}
