package feature

import (
	"context"
	"testing"
	"time"

	"github.com/carfin/carreco/core"
)

func TestCatalogSourceDerivedScores(t *testing.T) {
	vehicles := []*core.Vehicle{
		{ID: "v1", Brand: "현대", Category: "suv", FuelType: "hybrid", Price: 4000, Year: 2023, Mileage: 20000},
		{ID: "v2", Brand: "기아", Category: "sedan", FuelType: "gasoline", Price: 3000, Year: 2010, Mileage: 150000},
	}
	history := []*core.Interaction{
		{UserID: "u1", VehicleID: "v1", Type: core.InteractionLike},       // weight 5
		{UserID: "u2", VehicleID: "v1", Type: core.InteractionSave},       // weight 8
		{UserID: "u1", VehicleID: "v2", Type: core.InteractionSkip},       // weight -1
		{UserID: "u3", VehicleID: "v1", Type: core.InteractionTestDrive},  // unweighted
	}
	catalog := core.NewCatalog(vehicles, nil, history)

	src := &CatalogSource{Now: func() time.Time {
		return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	}}
	vectors, err := src.Vectors(context.Background(), catalog)
	if err != nil {
		t.Fatalf("vectors: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got vectors for %d vehicles", len(vectors))
	}

	v1 := catalog.Vehicle("v1")
	if v1.Popularity != 0.13 {
		t.Errorf("v1 popularity = %v, want 0.13", v1.Popularity)
	}
	if v1.Recency != 0.8 {
		t.Errorf("v1 recency = %v, want 0.8", v1.Recency)
	}

	// negative weighted counts clamp to zero
	v2 := catalog.Vehicle("v2")
	if v2.Popularity != 0 {
		t.Errorf("v2 popularity = %v, want 0", v2.Popularity)
	}
	// a 15 year old vehicle is past the recency window
	if v2.Recency != 0 {
		t.Errorf("v2 recency = %v, want 0", v2.Recency)
	}

	vec := vectors["v1"]
	if vec["popularity"] != 0.13 || vec["recency"] != 0.8 {
		t.Errorf("derived features = %v", vec)
	}
	if vec["brand:현대"] != 1 || vec["category:suv"] != 1 || vec["fuel:hybrid"] != 1 {
		t.Errorf("one-hot features = %v", vec)
	}
}
