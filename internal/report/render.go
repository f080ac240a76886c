package report

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/Fantasim/looter/internal/config"
)

const (
	nameWidth   = 34
	amountWidth = 6
	tableRule   = "-----------------------------------+--------+-----------"
	skinRule    = "-----------------------------------+--------+--------"
)

// Render formats the ledger as a monospaced table wrapped in a code fence so
// it can be pasted into chat unchanged.
func Render(s *State) string {
	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("```")
	line("💎 Drop Report 💎")
	line("")
	line("🗓 PERIOD: %s - %s", formatDate(s.PeriodStart), formatDate(s.PeriodEnd))
	line("")
	line("Accounts: %d", len(s.Accounts))
	line("")

	line("Case                               | Amount | %% of drops")
	line(tableRule)
	cases := sortedByAmount(s.Cases)
	if len(cases) == 0 {
		line("No case drops                     | 0      | 0.0")
	} else {
		total := s.TotalCases
		if total == 0 {
			total = 1
		}
		for _, e := range cases {
			percent := float64(e.Value.Amount) / float64(total) * 100
			line("%s | %-*d | %.1f", padName(e.Key), amountWidth, e.Value.Amount, percent)
		}
	}
	line(tableRule)
	line("")

	line("(Top 10 skins)                     | Amount | Price $")
	line(skinRule)
	skins := topByAverage(s.Skins, config.TopSkinsLimit)
	if len(skins) == 0 {
		line("No skins above threshold          | 0      | N/A")
	} else {
		for _, e := range skins {
			avg, ok := e.Value.Average()
			line("%s | %-*d | %s", padName(e.Key), amountWidth, e.Value.Amount, formatMoney(avg, ok))
		}
	}
	line(skinRule)
	line("")

	avgCase := average(s.TotalCaseValue, s.TotalCases)
	avgSkin := average(s.TotalAllSkinValue, s.TotalAllSkins)
	// The drop average is the sum of the two averages, not a weighted mean.
	avgDrop := avgCase + avgSkin

	line("➙ Price of all drop: ~ %s$.", formatMoney(s.TotalCs2DropValue, true))
	line("➙ Total cases: %d pcs.", s.TotalCases)
	line("➙ AVG price of cases/all drop: %s$/%s$.", formatMoney(avgCase, true), formatMoney(avgDrop, true))

	others := sortedByAmount(s.AnotherDrops)
	if len(others) > 0 {
		line("")
		line("another drop:")
		for _, e := range others {
			avg, ok := e.Value.Average()
			line("- %s | %d | %s$", e.Key, e.Value.Amount, formatMoney(avg, ok))
		}
		line("➙ Price of another drop: ~ %s$.", formatMoney(s.TotalAnotherDropValue, true))
	}

	b.WriteString("```")
	return b.String()
}

// sortedByAmount orders stats by amount descending, then name ascending.
func sortedByAmount(stats map[string]*ItemStat) []lo.Entry[string, *ItemStat] {
	entries := lo.Entries(stats)
	slices.SortFunc(entries, func(a, b lo.Entry[string, *ItemStat]) int {
		if c := cmp.Compare(b.Value.Amount, a.Value.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return entries
}

// topByAverage returns at most limit stats ordered by average price descending.
func topByAverage(stats map[string]*ItemStat, limit int) []lo.Entry[string, *ItemStat] {
	entries := lo.Entries(stats)
	slices.SortFunc(entries, func(a, b lo.Entry[string, *ItemStat]) int {
		avgA, _ := a.Value.Average()
		avgB, _ := b.Value.Average()
		if c := cmp.Compare(avgB, avgA); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func padName(name string) string {
	runes := []rune(name)
	if len(runes) > nameWidth {
		name = string(runes[:nameWidth-3]) + "..."
	}
	return fmt.Sprintf("%-*s", nameWidth, name)
}

func average(total float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func formatMoney(v float64, ok bool) string {
	if !ok {
		return config.PriceUnavailable
	}
	return fmt.Sprintf("%.2f", v)
}
