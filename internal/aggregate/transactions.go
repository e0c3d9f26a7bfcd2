package aggregate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/statement-insights/constants"
	"github.com/joseph-ayodele/statement-insights/internal/entity"
)

// Direction of a statement transaction.
type Direction string

const (
	DirectionIn      Direction = "in"
	DirectionOut     Direction = "out"
	DirectionUnknown Direction = ""
)

// Transaction is one row of the model's transaction CSV:
// Date,Description,Amount,Direction,Balance,Category
type Transaction struct {
	Date        string
	Description string
	Amount      decimal.Decimal
	Direction   Direction
	Balance     *decimal.Decimal
	Category    string
}

// Rollup is the category mapping built from a transaction list.
type Rollup struct {
	Income    entity.CategoryAmounts
	Outgoings entity.CategoryAmounts
	Skipped   []string // rows that could not be attributed, with reasons
}

// Totals runs Compute over the rollup.
func (r Rollup) Totals() entity.Totals {
	return Compute(r.Income, r.Outgoings)
}

// ParseDirection maps the free-text direction column.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "paid in", "paid-in", "deposit", "credit", "cr", "incoming":
		return DirectionIn
	case "out", "withdrawn", "paid out", "payment", "debit", "dr", "outgoing":
		return DirectionOut
	}
	return DirectionUnknown
}

// ParseTransactions reads CSV rows with no header. A header row whose amount column
// is not numeric is skipped. Rows with fewer than four columns are rejected.
func ParseTransactions(r io.Reader) ([]Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []Transaction
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) < 4 {
			return nil, fmt.Errorf("csv line %d: expected at least 4 columns, got %d", line, len(rec))
		}
		amount, err := parseAmount(rec[2])
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		tx := Transaction{
			Date:        strings.TrimSpace(rec[0]),
			Description: strings.TrimSpace(rec[1]),
			Amount:      amount,
			Direction:   ParseDirection(rec[3]),
		}
		if len(rec) > 4 && strings.TrimSpace(rec[4]) != "" {
			if b, err := parseAmount(rec[4]); err == nil {
				tx.Balance = &b
			}
		}
		if len(rec) > 5 {
			tx.Category = strings.TrimSpace(rec[5])
		}
		out = append(out, tx)
	}
	return out, nil
}

// RollupTransactions sums transactions into income and outgoings by category.
// Missing categories become "Unknown"; rows with no recognizable direction are
// attributed by sign when the amount is signed, otherwise skipped.
func RollupTransactions(txs []Transaction) Rollup {
	r := Rollup{Income: entity.CategoryAmounts{}, Outgoings: entity.CategoryAmounts{}}
	for i, tx := range txs {
		cat := tx.Category
		if cat == "" {
			cat = string(constants.Unknown)
		}
		amount := tx.Amount
		dir := tx.Direction
		if dir == DirectionUnknown {
			switch amount.Sign() {
			case 1:
				dir = DirectionIn
			case -1:
				dir = DirectionOut
			default:
				r.Skipped = append(r.Skipped, fmt.Sprintf("row %d: no direction for %q", i+1, tx.Description))
				continue
			}
		}
		if dir == DirectionOut {
			amount = amount.Abs()
		}
		target := r.Income
		if dir == DirectionOut {
			target = r.Outgoings
		}
		target[cat] = entity.NewMoney(target[cat].Add(amount))
	}
	return r
}

// parseAmount accepts "1,250.00", "£12.50", "(40.00)" and "40.00 OD" style values.
func parseAmount(s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		neg = true
		v = strings.TrimSuffix(strings.TrimPrefix(v, "("), ")")
	}
	upper := strings.ToUpper(v)
	for _, suffix := range []string{"OD", "DR"} {
		if strings.HasSuffix(upper, suffix) {
			neg = true
			v = strings.TrimSpace(v[:len(v)-len(suffix)])
			upper = strings.ToUpper(v)
		}
	}
	v = strings.NewReplacer(",", "", "£", "", "$", "", "€", "", " ", "").Replace(v)
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if neg && d.Sign() > 0 {
		d = d.Neg()
	}
	return d, nil
}
