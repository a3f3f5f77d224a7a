package services_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"pumarket/internal/domain"
	"pumarket/internal/services"
)

func ids(ps []domain.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func sample(now time.Time) []domain.Product {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return []domain.Product{
		{ID: "a", Title: "Physics Notes", Description: "sem 3", Price: 150, Category: "Study Material", Available: true, CreatedAt: midnight.Add(time.Minute)},
		{ID: "b", Title: "Cycle", Description: "hero sprint, NOTES included", Price: 3200, Category: "Vehicle", Available: true, CreatedAt: midnight.Add(-time.Minute)},
		{ID: "c", Title: "Kettle", Description: "1.5L", Price: 450, Category: "Kitchen Accessories", Available: false, CreatedAt: now.Add(-10 * 24 * time.Hour)},
		{ID: "d", Title: "Chem notes", Description: "", Price: 150, Category: "Study Material", Available: false, CreatedAt: now.Add(-6 * 24 * time.Hour)},
	}
}

func TestApplyFilter(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	in := sample(now)

	cases := []struct {
		name string
		spec services.FilterSpec
		want []string
	}{
		{"no filter", services.FilterSpec{}, []string{"a", "b", "c", "d"}},
		{"text in title or description", services.FilterSpec{Search: "notes"}, []string{"a", "b", "d"}},
		{"text trims and ignores case", services.FilterSpec{Search: "  KETTLE "}, []string{"c"}},
		{"category", services.FilterSpec{Category: "Study Material"}, []string{"a", "d"}},
		{"category all", services.FilterSpec{Category: "all"}, []string{"a", "b", "c", "d"}},
		{"available", services.FilterSpec{Mode: services.ModeAvailable}, []string{"a", "b"}},
		{"sold", services.FilterSpec{Mode: services.ModeSold}, []string{"c", "d"}},
		{"today from local midnight", services.FilterSpec{Mode: services.ModeToday}, []string{"a"}},
		{"this week", services.FilterSpec{Mode: services.ModeThisWeek}, []string{"a", "b", "d"}},
		{"price high to low is stable", services.FilterSpec{Mode: services.ModePriceHighLow}, []string{"b", "c", "a", "d"}},
		{"price low to high is stable", services.FilterSpec{Mode: services.ModePriceLowHigh}, []string{"a", "d", "c", "b"}},
		{"text then category then mode", services.FilterSpec{Search: "notes", Category: "Study Material", Mode: services.ModeSold}, []string{"d"}},
		{"no match", services.FilterSpec{Search: "sofa"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(services.ApplyFilter(in, tc.spec, now))
			if !slices.Equal(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestApplyFilterDateBoundaries(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	midnight := time.Date(2025, 3, 14, 0, 0, 0, 0, now.Location())
	week := now.Add(-7 * 24 * time.Hour)
	in := []domain.Product{
		{ID: "midnight", CreatedAt: midnight},
		{ID: "yesterday-235959", CreatedAt: midnight.Add(-time.Second)},
		{ID: "week-edge", CreatedAt: week},
		{ID: "week-edge-1s", CreatedAt: week.Add(-time.Second)},
	}

	if got := ids(services.ApplyFilter(in, services.FilterSpec{Mode: services.ModeToday}, now)); !slices.Equal(got, []string{"midnight"}) {
		t.Fatalf("today = %v", got)
	}
	if got := ids(services.ApplyFilter(in, services.FilterSpec{Mode: services.ModeThisWeek}, now)); !slices.Equal(got, []string{"midnight", "yesterday-235959", "week-edge"}) {
		t.Fatalf("this-week = %v", got)
	}

	// Stored timestamps are UTC; midnight is still taken in now's zone.
	utc := []domain.Product{{ID: "midnight-utc", CreatedAt: midnight.UTC()}}
	if got := ids(services.ApplyFilter(utc, services.FilterSpec{Mode: services.ModeToday}, now)); !slices.Equal(got, []string{"midnight-utc"}) {
		t.Fatalf("today with UTC timestamps = %v", got)
	}
}

func TestApplyFilterLeavesInputUntouched(t *testing.T) {
	now := time.Now()
	in := sample(now)
	before := ids(in)
	_ = services.ApplyFilter(in, services.FilterSpec{Mode: services.ModePriceLowHigh}, now)
	_ = services.ApplyFilter(in, services.FilterSpec{Mode: services.ModeSold}, now)
	if got := ids(in); !slices.Equal(got, before) {
		t.Fatalf("input reordered: %v", got)
	}
}

func TestParseModeAndCategory(t *testing.T) {
	if m, err := services.ParseMode(""); err != nil || m != services.ModeAll {
		t.Fatalf("empty mode: %q %v", m, err)
	}
	if m, err := services.ParseMode("this-week"); err != nil || m != services.ModeThisWeek {
		t.Fatalf("this-week: %q %v", m, err)
	}
	if _, err := services.ParseMode("cheapest"); !errors.Is(err, services.ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
	if c, err := services.ParseCategory("all"); err != nil || c != "" {
		t.Fatalf("all: %q %v", c, err)
	}
	if c, err := services.ParseCategory("Rooms"); err != nil || c != "Rooms" {
		t.Fatalf("Rooms: %q %v", c, err)
	}
	if _, err := services.ParseCategory("rooms"); !errors.Is(err, services.ErrInvalid) {
		t.Fatalf("want ErrInvalid for wrong case, got %v", err)
	}
}
