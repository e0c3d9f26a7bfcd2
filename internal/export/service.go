package export

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/statement-insights/internal/aggregate"
	"github.com/joseph-ayodele/statement-insights/internal/entity"
)

// Sheet names in workbook order.
const (
	SheetSummary         = "Summary"
	SheetIncome          = "Income"
	SheetOutgoings       = "Outgoings"
	SheetCommentary      = "Commentary"
	SheetRedFlags        = "Red Flags"
	SheetRecommendations = "Recommendations"
)

// Service produces XLSX bytes for decoded statement summaries.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportStatementXLSX renders a summary into a workbook. Totals are recomputed from
// the category mappings rather than taken from the caller.
func (s *Service) ExportStatementXLSX(summary *entity.StatementSummary) ([]byte, error) {
	if summary == nil {
		return nil, fmt.Errorf("export: nil statement summary")
	}
	start := time.Now()
	totals := aggregate.ForSummary(summary)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetIncome, SheetOutgoings, SheetCommentary, SheetRedFlags, SheetRecommendations} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	pi := summary.PersonalInformation
	rows := [][]any{
		{"Name", pi.Name},
		{"Address", pi.Address},
		{"Account Number", pi.AccountNumber},
		{"Sort Code", pi.SortCode},
		{"Starting Balance", optionalAmount(pi.StatementStartingBalance)},
		{"Finishing Balance", optionalAmount(pi.StatementFinishingBalance)},
		{},
		{"Total Income", totals.TotalIncome.InexactFloat64()},
		{"Total Outgoings", totals.TotalOutgoings.InexactFloat64()},
		{"Net Balance", totals.NetBalance.InexactFloat64()},
	}
	for i, r := range rows {
		if err := writeRow(f, SheetSummary, i+1, r...); err != nil {
			return nil, err
		}
	}
	_ = f.SetCellStyle(SheetSummary, "A1", fmt.Sprintf("A%d", len(rows)), bold)
	_ = f.SetCellStyle(SheetSummary, "B5", "B6", money)
	_ = f.SetCellStyle(SheetSummary, "B8", "B10", money)
	_ = f.SetColWidth(SheetSummary, "A", "A", 20)
	_ = f.SetColWidth(SheetSummary, "B", "B", 40)

	for sheet, amounts := range map[string]entity.CategoryAmounts{
		SheetIncome:    summary.IncomeByCategory(),
		SheetOutgoings: summary.OutgoingsByCategory(),
	} {
		if err := writeCategories(f, sheet, amounts, bold, money); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(summary.Commentary))
	for k := range summary.Commentary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if err := writeRow(f, SheetCommentary, 1, "Topic", "Commentary"); err != nil {
		return nil, err
	}
	for i, k := range keys {
		if err := writeRow(f, SheetCommentary, i+2, k, summary.Commentary[k]); err != nil {
			return nil, err
		}
	}
	_ = f.SetCellStyle(SheetCommentary, "A1", "B1", bold)
	_ = f.SetColWidth(SheetCommentary, "A", "A", 28)
	_ = f.SetColWidth(SheetCommentary, "B", "B", 100)

	if err := writeList(f, SheetRedFlags, "Concern", summary.RedFlags, bold); err != nil {
		return nil, err
	}
	if err := writeList(f, SheetRecommendations, "Recommendation", summary.Recommendations, bold); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"income_categories", len(summary.IncomeByCategory()),
		"outgoing_categories", len(summary.OutgoingsByCategory()),
		"net_balance", totals.NetBalance.String(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// writeCategories lists a mapping largest first, then a total row.
func writeCategories(f *excelize.File, sheet string, amounts entity.CategoryAmounts, bold, money int) error {
	names := make([]string, 0, len(amounts))
	for k := range amounts {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := amounts[names[i]], amounts[names[j]]
		if c := a.Cmp(b.Decimal); c != 0 {
			return c > 0
		}
		return names[i] < names[j]
	})

	if err := writeRow(f, sheet, 1, "Category", "Amount"); err != nil {
		return err
	}
	row := 2
	for _, name := range names {
		if err := writeRow(f, sheet, row, name, amounts[name].InexactFloat64()); err != nil {
			return err
		}
		row++
	}
	if err := writeRow(f, sheet, row, "Total", aggregate.Sum(amounts).InexactFloat64()); err != nil {
		return err
	}
	_ = f.SetCellStyle(sheet, "A1", "B1", bold)
	_ = f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), bold)
	_ = f.SetCellStyle(sheet, "B2", fmt.Sprintf("B%d", row), money)
	_ = f.SetColWidth(sheet, "A", "A", 36)
	_ = f.SetColWidth(sheet, "B", "B", 16)
	return nil
}

func writeList(f *excelize.File, sheet, header string, items []string, bold int) error {
	if err := writeRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, item := range items {
		if err := writeRow(f, sheet, i+2, item); err != nil {
			return err
		}
	}
	_ = f.SetCellStyle(sheet, "A1", "A1", bold)
	_ = f.SetColWidth(sheet, "A", "A", 100)
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func optionalAmount(m *entity.Money) any {
	if m == nil {
		return ""
	}
	return m.InexactFloat64()
}
