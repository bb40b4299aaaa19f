package controller

import "testing"

func TestSeedItem_FilterValue(t *testing.T) {
	item := seedItem{path: "seeds/a.c", candidates: 3}
	if got := item.FilterValue(); got != "seeds/a.c" {
		t.Fatalf("FilterValue() = %q, want %q", got, "seeds/a.c")
	}
}
