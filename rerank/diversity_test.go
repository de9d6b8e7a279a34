package rerank

import (
	"context"
	"testing"

	"github.com/carfin/carreco/core"
)

func brandItem(id, brand string, score float64) *core.Item {
	it := core.NewItem(id)
	it.Score = score
	it.Meta["brand"] = brand
	return it
}

func ids(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.VehicleID)
	}
	return out
}

func TestDiversityHeadSlotsUnconditional(t *testing.T) {
	items := []*core.Item{
		brandItem("a1", "현대", 0.9),
		brandItem("a2", "현대", 0.8),
		brandItem("a3", "현대", 0.7),
		brandItem("b1", "기아", 0.6),
		brandItem("a4", "현대", 0.5),
		brandItem("c1", "BMW", 0.4),
	}

	n := &Diversity{FreeSlots: 3, Limit: 6}
	out, err := n.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	want := []string{"a1", "a2", "a3", "b1", "c1", "a4"}
	got := ids(out)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	// the deferred duplicate-brand candidate is marked
	if out[5].Labels["diversity_deferred"].Value != "true" {
		t.Error("backfilled candidate not labeled as deferred")
	}
}

func TestDiversityRespectsLimit(t *testing.T) {
	items := []*core.Item{
		brandItem("a1", "현대", 0.9),
		brandItem("a2", "현대", 0.8),
		brandItem("a3", "현대", 0.7),
		brandItem("a4", "현대", 0.6),
		brandItem("b1", "기아", 0.5),
	}

	n := &Diversity{FreeSlots: 3, Limit: 4}
	out, err := n.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("got %d items, want 4", len(out))
	}
	// slot 4 prefers the unseen brand over the fourth 현대
	if out[3].VehicleID != "b1" {
		t.Errorf("slot 4 = %s, want b1", out[3].VehicleID)
	}
}

func TestDiversityBrandlessAlwaysAccepted(t *testing.T) {
	items := []*core.Item{
		brandItem("a1", "현대", 0.9),
		brandItem("a2", "현대", 0.8),
		brandItem("a3", "현대", 0.7),
		brandItem("a4", "현대", 0.6),
		core.NewItem("x1"),
	}

	n := &Diversity{FreeSlots: 3, Limit: 5}
	out, err := n.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if out[3].VehicleID != "x1" {
		t.Errorf("slot 4 = %s, want the brandless candidate", out[3].VehicleID)
	}
}
