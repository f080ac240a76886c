package report

import (
	"math"
	"testing"
	"time"

	"github.com/Fantasim/looter/internal/models"
)

func primaryItem(name string) models.Item {
	return models.Item{AppID: "730", ContextID: "2", AssetID: "1", MarketHashName: name}
}

func priced(v float64) models.Price {
	return models.Price{Text: "$" + formatMoney(v, true), Value: v, Valid: true}
}

func newTestState() *State {
	return NewState(WeeklyPeriod(time.Date(2024, 1, 4, 12, 0, 0, 0, time.UTC)))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		item  models.Item
		price models.Price
		want  Bucket
	}{
		{"other inventory", models.Item{AppID: "440", ContextID: "2", MarketHashName: "Mann Co. Supply Crate Key"}, priced(2.1), BucketAnotherDrop},
		{"other context same app", models.Item{AppID: "730", ContextID: "6", MarketHashName: "Recoil Case"}, priced(0.5), BucketAnotherDrop},
		{"case", primaryItem("Recoil Case"), priced(0.4), BucketCase},
		{"case lowercase", primaryItem("kilowatt case"), models.Price{Text: "N/A"}, BucketCase},
		{"sealed", primaryItem("Sealed Graffiti | Lambda (Blood Red)"), priced(0.03), BucketCase},
		{"skin", primaryItem("AK-47 | Redline (Field-Tested)"), priced(1.25), BucketSkin},
		{"cheap skin", primaryItem("P250 | Sand Dune (Field-Tested)"), priced(0.03), BucketSkin},
		{"unpriced skin", primaryItem("AK-47 | Redline (Field-Tested)"), models.Price{Text: "N/A"}, BucketCommon},
		{"no separator", primaryItem("Music Kit"), priced(3), BucketCommon},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.item, tc.price); got != tc.want {
				t.Errorf("Classify = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestApply_SkinScenario(t *testing.T) {
	st := newTestState()
	name := "AK-47 | Redline (Field-Tested)"

	if got := st.Apply(primaryItem(name), models.Price{Text: "$1.25", Value: 1.25, Valid: true}); got != BucketSkin {
		t.Fatalf("bucket = %v, want skin", got)
	}

	stat, ok := st.Skins[name]
	if !ok {
		t.Fatalf("skins[%q] missing", name)
	}
	if stat.Amount != 1 || stat.TotalPrice != 1.25 || stat.PricedCount != 1 {
		t.Errorf("stat = %+v", stat)
	}
	if stat.LastPriceText != "$1.25" {
		t.Errorf("LastPriceText = %q", stat.LastPriceText)
	}
	if st.TotalSkins != 1 || st.TotalAllSkins != 1 || st.TotalCs2Drops != 1 {
		t.Errorf("totals skins=%d allSkins=%d cs2=%d", st.TotalSkins, st.TotalAllSkins, st.TotalCs2Drops)
	}
	if st.TotalCases != 0 || st.TotalAnotherDrops != 0 {
		t.Errorf("unexpected case/another counts %d/%d", st.TotalCases, st.TotalAnotherDrops)
	}
}

func TestApply_ThresholdExcludesCheapSkins(t *testing.T) {
	st := newTestState()
	st.Apply(primaryItem("P250 | Sand Dune (Field-Tested)"), priced(0.6))
	st.Apply(primaryItem("Glock-18 | Candy Apple (Minimal Wear)"), priced(0.61))

	if _, ok := st.Skins["P250 | Sand Dune (Field-Tested)"]; ok {
		t.Error("skin priced at the threshold must not be listed")
	}
	if _, ok := st.Skins["Glock-18 | Candy Apple (Minimal Wear)"]; !ok {
		t.Error("skin above the threshold must be listed")
	}
	if st.TotalSkins != 1 || st.TotalAllSkins != 2 {
		t.Errorf("skins=%d allSkins=%d, want 1/2", st.TotalSkins, st.TotalAllSkins)
	}
	if math.Abs(st.TotalAllSkinValue-1.21) > 1e-9 {
		t.Errorf("TotalAllSkinValue = %v", st.TotalAllSkinValue)
	}
}

func TestApply_ExactlyOneBucket(t *testing.T) {
	items := []struct {
		item  models.Item
		price models.Price
	}{
		{models.Item{AppID: "440", ContextID: "2", MarketHashName: "Refined Metal"}, priced(0.05)},
		{primaryItem("Dreams & Nightmares Case"), priced(1.1)},
		{primaryItem("M4A1-S | Printstream (Field-Tested)"), priced(80)},
		{primaryItem("Sticker Capsule"), priced(0.2)},
		{models.Item{AppID: "730", ContextID: "2", AssetID: "9"}, models.Price{Text: "N/A"}},
	}

	for _, tc := range items {
		st := newTestState()
		bucket := st.Apply(tc.item, tc.price)

		another := st.TotalAnotherDrops
		cases := st.TotalCases
		skinEligible := st.TotalAllSkins
		cs2Only := st.TotalCs2Drops - cases - skinEligible

		hits := another + cases + skinEligible + cs2Only
		if hits != 1 {
			t.Errorf("%s: %d buckets incremented, want 1", tc.item.DisplayName(), hits)
		}
		if another == 1 && st.TotalCs2Drops != 0 {
			t.Errorf("%s: another drop must not count as primary", tc.item.DisplayName())
		}
		if bucket == BucketCommon && cs2Only != 1 {
			t.Errorf("%s: common bucket did not count as primary drop", tc.item.DisplayName())
		}
	}
}

func TestItemStat_LastPriceText(t *testing.T) {
	st := newTestState()
	name := "Recoil Case"

	st.Apply(primaryItem(name), models.Price{Text: "N/A"})
	if got := st.Cases[name].LastPriceText; got != "N/A" {
		t.Fatalf("initial LastPriceText = %q, want N/A", got)
	}

	st.Apply(primaryItem(name), models.Price{Text: "$0.45", Value: 0.45, Valid: true})
	st.Apply(primaryItem(name), models.Price{Text: "N/A"})

	stat := st.Cases[name]
	if stat.LastPriceText != "$0.45" {
		t.Errorf("LastPriceText = %q, want $0.45", stat.LastPriceText)
	}
	if stat.Amount != 3 || stat.PricedCount != 1 {
		t.Errorf("amount=%d priced=%d", stat.Amount, stat.PricedCount)
	}
	avg, ok := stat.Average()
	if !ok || avg != 0.45 {
		t.Errorf("Average = %v, %v", avg, ok)
	}
}
