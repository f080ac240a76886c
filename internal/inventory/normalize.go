// Package inventory turns the raw inventory list from the command line into
// validated pairs and splits them into transfer groups.
package inventory

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/Fantasim/looter/internal/config"
	"github.com/Fantasim/looter/internal/models"
)

var (
	separators = regexp.MustCompile(`[\s,;]+`)
	numeric    = regexp.MustCompile(`^\d+$`)
)

// Normalize parses "app/context" tokens separated by whitespace, commas or
// semicolons. Malformed tokens are dropped with a warning, 400/2 is corrected
// to 440/2 and duplicates collapse onto their first occurrence.
func Normalize(raw string) []models.InventoryPair {
	tokens := lo.Filter(separators.Split(raw, -1), func(tok string, _ int) bool {
		return strings.TrimSpace(tok) != ""
	})

	pairs := make([]models.InventoryPair, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)

		parts := strings.Split(tok, "/")
		if len(parts) != 2 {
			slog.Warn("skip invalid inventory pair format", "pair", tok)
			continue
		}

		appID := strings.TrimSpace(parts[0])
		contextID := strings.TrimSpace(parts[1])

		// 400 is a common typo for 440 (TF2).
		if appID == "400" && contextID == "2" {
			slog.Info("detected likely typo 400/2, correcting to 440/2")
			appID = "440"
		}

		if !numeric.MatchString(appID) || !numeric.MatchString(contextID) {
			slog.Warn("skip invalid numeric inventory pair", "pair", tok)
			continue
		}

		pairs = append(pairs, models.InventoryPair{AppID: appID, ContextID: contextID})
	}

	return lo.Uniq(pairs)
}

// Format joins pairs back into the command-line form.
func Format(pairs []models.InventoryPair) string {
	return strings.Join(lo.Map(pairs, func(p models.InventoryPair, _ int) string {
		return p.String()
	}), ",")
}

// IsPrimary reports whether the pair is the primary inventory (730/2).
func IsPrimary(p models.InventoryPair) bool {
	return p.AppID == config.PrimaryAppID && p.ContextID == config.PrimaryContextID
}

// Group is a named, non-empty set of pairs sent together as one offer.
type Group struct {
	Name  string
	Pairs []models.InventoryPair
}

// Partition splits pairs into the primary group and everything else,
// keeping input order inside each group. Empty groups are omitted.
func Partition(pairs []models.InventoryPair) []Group {
	primary, other := lo.FilterReject(pairs, func(p models.InventoryPair, _ int) bool {
		return IsPrimary(p)
	})

	var groups []Group
	if len(primary) > 0 {
		groups = append(groups, Group{Name: config.PrimaryGroupName, Pairs: primary})
	}
	if len(other) > 0 {
		groups = append(groups, Group{Name: config.OtherGroupName, Pairs: other})
	}
	return groups
}
