package recall

import (
	"context"
	"testing"

	"github.com/carfin/carreco/config"
	"github.com/carfin/carreco/core"
)

func contentCatalog() *core.Catalog {
	vehicles := []*core.Vehicle{
		{ID: "mid", Brand: "현대", Category: "suv", Price: 4000},
		{ID: "low", Brand: "기아", Category: "suv", Price: 3000},
		{ID: "high", Brand: "기아", Category: "suv", Price: 5000},
		{ID: "stretch", Brand: "기아", Category: "suv", Price: 5900},
		{ID: "out", Brand: "기아", Category: "suv", Price: 9000},
	}
	return core.NewCatalog(vehicles, nil, nil)
}

func familyUser() *core.UserProfile {
	return &core.UserProfile{
		UserID:          "u1",
		Age:             38,
		Purpose:         "family",
		PreferredBrands: []string{"현대"},
		BudgetMin:       3000,
		BudgetMax:       5000,
	}
}

func scoresByID(items []*core.Item) map[string]float64 {
	out := make(map[string]float64, len(items))
	for _, it := range items {
		out[it.VehicleID] = it.Score
	}
	return out
}

func TestContentMatchBudgetWindow(t *testing.T) {
	r := &ContentMatch{Catalog: contentCatalog()}
	items, err := r.Recall(context.Background(), &core.RecommendContext{UserID: "u1", User: familyUser()})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}

	scores := scoresByID(items)
	if _, ok := scores["out"]; ok {
		t.Error("vehicle far outside the stretched budget window was recalled")
	}
	if _, ok := scores["stretch"]; !ok {
		t.Error("vehicle inside the stretched window was dropped")
	}

	// in-range vehicles get full budget credit, outside decays toward the midpoint
	if scores["low"] != scores["high"] {
		t.Errorf("boundary vehicles differ: low=%v high=%v", scores["low"], scores["high"])
	}
	if scores["mid"] < scores["stretch"] {
		t.Errorf("in-budget vehicle scored below stretched one: mid=%v stretch=%v", scores["mid"], scores["stretch"])
	}

	for i := 1; i < len(items); i++ {
		if items[i].Score > items[i-1].Score {
			t.Errorf("results not sorted at %d", i)
		}
	}
}

func TestContentMatchPreferredBrandWins(t *testing.T) {
	r := &ContentMatch{Catalog: contentCatalog()}
	items, err := r.Recall(context.Background(), &core.RecommendContext{UserID: "u1", User: familyUser()})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(items) == 0 || items[0].VehicleID != "mid" {
		t.Fatalf("top item = %+v, want the preferred-brand suv", items)
	}

	reasons := items[0].Labels["reason"]
	if reasons.Value != "one of your preferred brands" {
		t.Errorf("reason = %q", reasons.Value)
	}
}

func TestContentMatchCutoff(t *testing.T) {
	cfg := config.Default().Content
	cfg.Cutoff = 0.9 // only near-perfect matches survive

	r := &ContentMatch{Catalog: contentCatalog(), Config: &cfg}
	items, err := r.Recall(context.Background(), &core.RecommendContext{UserID: "u1", User: familyUser()})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	for _, it := range items {
		if it.Score <= 0.9 {
			t.Errorf("item %s below cutoff: %v", it.VehicleID, it.Score)
		}
	}
}

func TestContentMatchWithoutProfile(t *testing.T) {
	r := &ContentMatch{Catalog: contentCatalog()}
	items, err := r.Recall(context.Background(), &core.RecommendContext{UserID: "u1"})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no candidates without a profile, got %d", len(items))
	}
}
