package services

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"pumarket/internal/domain"
	"pumarket/internal/validate"
)

// Mode is the single availability, recency or ordering rule applied after
// the text and category filters.
type Mode string

const (
	ModeAll          Mode = "all"
	ModeAvailable    Mode = "available"
	ModeSold         Mode = "sold"
	ModeToday        Mode = "today"
	ModeThisWeek     Mode = "this-week"
	ModePriceHighLow Mode = "price-high-low"
	ModePriceLowHigh Mode = "price-low-high"
)

var Modes = []Mode{ModeAll, ModeAvailable, ModeSold, ModeToday, ModeThisWeek, ModePriceHighLow, ModePriceLowHigh}

// ParseMode maps a query value to a Mode. Empty means ModeAll.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeAll, nil
	}
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown filter %q", ErrInvalid, s)
}

// ParseCategory accepts one of domain.Categories, "all" or empty. The
// returned value is empty when no category filter applies.
func ParseCategory(s string) (string, error) {
	c, ok := validate.Category(s)
	if !ok {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalid, s)
	}
	return c, nil
}

type FilterSpec struct {
	Search   string
	Category string
	Mode     Mode
}

// ApplyFilter narrows products by text, then category, then mode. The input
// slice is never modified.
func ApplyFilter(products []domain.Product, spec FilterSpec, now time.Time) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	needle := strings.ToLower(strings.TrimSpace(spec.Search))
	for _, p := range products {
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			continue
		}
		if spec.Category != "" && spec.Category != "all" && p.Category != spec.Category {
			continue
		}
		out = append(out, p)
	}

	switch spec.Mode {
	case ModeAvailable:
		out = slices.DeleteFunc(out, func(p domain.Product) bool { return !p.Available })
	case ModeSold:
		out = slices.DeleteFunc(out, func(p domain.Product) bool { return p.Available })
	case ModeToday:
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		out = slices.DeleteFunc(out, func(p domain.Product) bool { return p.CreatedAt.Before(midnight) })
	case ModeThisWeek:
		cutoff := now.Add(-7 * 24 * time.Hour)
		out = slices.DeleteFunc(out, func(p domain.Product) bool { return p.CreatedAt.Before(cutoff) })
	case ModePriceHighLow:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return cmp.Compare(b.Price, a.Price) })
	case ModePriceLowHigh:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return cmp.Compare(a.Price, b.Price) })
	}
	return out
}
