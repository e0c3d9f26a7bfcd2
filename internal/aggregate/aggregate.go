// Package aggregate computes income/outgoings totals from category mappings
// using exact decimal arithmetic. Totals supplied by the model are never used.
package aggregate

import (
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/statement-insights/internal/entity"
)

// Sum adds every amount in the mapping. An empty or nil mapping sums to zero.
func Sum(amounts entity.CategoryAmounts) decimal.Decimal {
	total := decimal.Zero
	for _, v := range amounts {
		total = total.Add(v.Decimal)
	}
	return total
}

// Compute returns totalIncome, totalOutgoings and netBalance.
func Compute(income, outgoings entity.CategoryAmounts) entity.Totals {
	in := Sum(income)
	out := Sum(outgoings)
	return entity.Totals{
		TotalIncome:    entity.NewMoney(in),
		TotalOutgoings: entity.NewMoney(out),
		NetBalance:     entity.NewMoney(in.Sub(out)),
	}
}

// ForSummary is Compute over a decoded statement summary.
func ForSummary(s *entity.StatementSummary) entity.Totals {
	if s == nil {
		return Compute(nil, nil)
	}
	return Compute(s.IncomeByCategory(), s.OutgoingsByCategory())
}
