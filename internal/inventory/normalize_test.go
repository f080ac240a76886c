package inventory

import (
	"reflect"
	"testing"

	"github.com/Fantasim/looter/internal/config"
	"github.com/Fantasim/looter/internal/models"
)

func pair(app, ctx string) models.InventoryPair {
	return models.InventoryPair{AppID: app, ContextID: ctx}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []models.InventoryPair
	}{
		{"duplicates and typo", "730/2, 730/2, 400/2", []models.InventoryPair{pair("730", "2"), pair("440", "2")}},
		{"typo collapses onto existing", "440/2;400/2", []models.InventoryPair{pair("440", "2")}},
		{"mixed separators", "730/2\n753/6\t440/2 ;, 570/2", []models.InventoryPair{pair("730", "2"), pair("753", "6"), pair("440", "2"), pair("570", "2")}},
		{"first occurrence order", "753/6 730/2 753/6", []models.InventoryPair{pair("753", "6"), pair("730", "2")}},
		{"bad format dropped", "730 730/2/1 /2 730/2", []models.InventoryPair{pair("730", "2")}},
		{"non numeric dropped", "abc/2 730/x -1/2 730/2", []models.InventoryPair{pair("730", "2")}},
		{"400 with other context kept", "400/3", []models.InventoryPair{pair("400", "3")}},
		{"empty", "", []models.InventoryPair{}},
		{"only separators", " ,; ", []models.InventoryPair{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"730/2, 730/2, 400/2",
		"753/6;440/2 730/2",
		"bogus 1/1 1/1 2/2",
	}

	for _, in := range inputs {
		first := Normalize(in)
		second := Normalize(Format(first))
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Normalize not idempotent for %q: %v then %v", in, first, second)
		}
	}
}

func TestNormalize_DefaultPairs(t *testing.T) {
	got := Normalize(config.DefaultInventoryPairs)
	want := []models.InventoryPair{pair("730", "2")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize(default) = %v, want %v", got, want)
	}
}

func TestFormat(t *testing.T) {
	got := Format([]models.InventoryPair{pair("730", "2"), pair("440", "2")})
	if got != "730/2,440/2" {
		t.Errorf("Format() = %q, want %q", got, "730/2,440/2")
	}
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name       string
		pairs      []models.InventoryPair
		wantNames  []string
		wantCounts []int
	}{
		{"primary only", []models.InventoryPair{pair("730", "2")}, []string{config.PrimaryGroupName}, []int{1}},
		{"other only", []models.InventoryPair{pair("440", "2"), pair("753", "6")}, []string{config.OtherGroupName}, []int{2}},
		{"both", []models.InventoryPair{pair("440", "2"), pair("730", "2"), pair("753", "6")}, []string{config.PrimaryGroupName, config.OtherGroupName}, []int{1, 2}},
		{"730 other context is not primary", []models.InventoryPair{pair("730", "16")}, []string{config.OtherGroupName}, []int{1}},
		{"none", nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := Partition(tt.pairs)
			if len(groups) != len(tt.wantNames) {
				t.Fatalf("Partition() returned %d groups, want %d", len(groups), len(tt.wantNames))
			}
			for i, g := range groups {
				if g.Name != tt.wantNames[i] {
					t.Errorf("group[%d].Name = %q, want %q", i, g.Name, tt.wantNames[i])
				}
				if len(g.Pairs) != tt.wantCounts[i] {
					t.Errorf("group[%d] has %d pairs, want %d", i, len(g.Pairs), tt.wantCounts[i])
				}
			}
		})
	}
}
