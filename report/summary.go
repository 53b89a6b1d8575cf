// Package report builds spend summaries on top of the renewal projector.
package report

import (
	"sort"
	"time"

	"github.com/kovrhq/kovr/renewal"
	"github.com/kovrhq/kovr/subscription"
	"github.com/kovrhq/kovr/types"
)

// Summary is the projected spend for one calendar month.
type Summary struct {
	Year        int                    `json:"year"`
	Month       time.Month             `json:"month"`
	Occurrences []renewal.Occurrence   `json:"occurrences"`
	PerCurrency map[string]types.Money `json:"per_currency"`
	PerCategory map[string]types.Money `json:"per_category"`
	// NaiveTotal adds all amounts regardless of currency, matching the
	// historical dashboard total. Prefer PerCurrency for anything that must
	// be correct across currencies.
	NaiveTotal types.Money `json:"naive_total"`
}

// Row is one flattened summary line for export consumers. The file format
// (CSV, XLSX, ...) is the caller's concern.
type Row struct {
	Date     types.Date  `json:"date"`
	Name     string      `json:"name"`
	Category string      `json:"category"`
	Amount   types.Money `json:"amount"`
}

// BuildMonthly projects subs onto the month and aggregates the result.
// Projection options (status filters, logger) pass through to the projector.
func BuildMonthly(subs []*subscription.Subscription, year int, month time.Month, opts ...renewal.Option) *Summary {
	occs := renewal.Project(subs, year, month, opts...)

	s := &Summary{
		Year:        year,
		Month:       month,
		Occurrences: occs,
		PerCurrency: make(map[string]types.Money),
		PerCategory: make(map[string]types.Money),
		NaiveTotal:  renewal.MonthTotal(occs),
	}

	for _, occ := range occs {
		amt := occ.Subscription.Amount

		if cur, ok := s.PerCurrency[amt.Currency]; ok {
			s.PerCurrency[amt.Currency] = cur.Add(amt)
		} else {
			s.PerCurrency[amt.Currency] = amt
		}

		cat := occ.Subscription.Category
		if cat == "" {
			cat = "uncategorized"
		}
		// Category buckets use the naive sum: one bucket may mix currencies.
		if cur, ok := s.PerCategory[cat]; ok {
			s.PerCategory[cat] = types.NaiveSum(cur, amt)
		} else {
			s.PerCategory[cat] = amt
		}
	}

	return s
}

// Rows flattens the summary into export rows sorted by date, then name.
func (s *Summary) Rows() []Row {
	rows := make([]Row, 0, len(s.Occurrences))
	for _, occ := range s.Occurrences {
		rows = append(rows, Row{
			Date:     occ.Date,
			Name:     occ.Subscription.Name,
			Category: occ.Subscription.Category,
			Amount:   occ.Subscription.Amount,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].Name < rows[j].Name
	})

	return rows
}
