package models

import "testing"

func TestItemDisplayName(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want string
	}{
		{"market hash name wins", Item{MarketHashName: "Kilowatt Case", MarketName: "Kilowatt", Name: "k"}, "Kilowatt Case"},
		{"market name second", Item{MarketName: "Sticker | Foo", Name: "Foo"}, "Sticker | Foo"},
		{"plain name third", Item{Name: "Mann Co. Key"}, "Mann Co. Key"},
		{"asset placeholder", Item{AssetID: "12345"}, "Item 12345"},
		{"unknown placeholder", Item{}, "Item unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestItemMarketLookupName_NoPlaceholder(t *testing.T) {
	it := Item{AssetID: "9"}
	if got := it.MarketLookupName(); got != "" {
		t.Errorf("MarketLookupName() = %q, want empty", got)
	}
}
