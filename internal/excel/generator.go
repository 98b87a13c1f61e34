package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/eforms/internal/model"
	"github.com/nurpe/eforms/internal/report"
)

const (
	summarySheet = "Sumar"
	recordsSheet = "Formulare"
	maxSheetName = 31
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

type styles struct {
	header int
	amount int
}

// Generate builds the report workbook: a summary sheet, one sheet per
// distribution, amount statistics and the record list.
func (g *Generator) Generate(bundle model.ReportBundle) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	st, err := newStyles(file)
	if err != nil {
		return nil, err
	}

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	g.writeSummary(file, summarySheet, bundle, st)

	usedNames := map[string]struct{}{summarySheet: {}, recordsSheet: {}}
	analyses := []struct {
		title  string
		column string
		dist   model.Distribution
	}{
		{"Scopul plății", "Scop", bundle.PurposeAnalysis},
		{"Monedă", "Monedă", bundle.CurrencyAnalysis},
		{"Cota TVA", "Cota TVA", bundle.VATAnalysis},
	}
	for _, a := range analyses {
		sheet := buildSheetName(a.title, usedNames)
		usedNames[sheet] = struct{}{}
		if _, err := file.NewSheet(sheet); err != nil {
			return nil, err
		}
		if err := g.writeDistribution(file, sheet, a.column, a.dist, st); err != nil {
			return nil, err
		}
	}

	if _, err := file.NewSheet(recordsSheet); err != nil {
		return nil, err
	}
	g.writeRecords(file, recordsSheet, bundle.RawData, st)

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newStyles(file *excelize.File) (styles, error) {
	header, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return styles{}, err
	}
	amount, err := file.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return styles{}, err
	}
	return styles{header: header, amount: amount}, nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, bundle model.ReportBundle, st styles) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	stats := bundle.GeneralStats
	amounts := bundle.AmountAnalysis

	set("A1", "Raport formulare ordine de plată")
	_ = file.SetCellStyle(sheet, "A1", "A1", st.header)
	set("A2", "Generat la")
	set("B2", formatDateTime(bundle.GeneratedAt))
	set("A3", "Început perioadă")
	set("B3", formatDatePtr(bundle.PeriodFrom))
	set("A4", "Sfârșit perioadă")
	set("B4", formatDatePtr(bundle.PeriodTo))
	set("A5", "Total formulare")
	set("B5", stats.TotalForms)

	rows := []struct {
		label string
		value string
	}{
		{"Suma totală", stats.TotalAmount},
		{"Suma medie", stats.AverageAmount},
		{"Suma minimă", amounts.Min},
		{"Suma maximă", amounts.Max},
		{"Mediană", amounts.Median},
	}
	for i, r := range rows {
		row := 6 + i
		set(fmt.Sprintf("A%d", row), r.label)
		setAmount(file, sheet, fmt.Sprintf("B%d", row), r.value, st)
	}

	_ = file.SetColWidth(sheet, "A", "A", 30)
	_ = file.SetColWidth(sheet, "B", "B", 22)
}

func (g *Generator) writeDistribution(file *excelize.File, sheet, column string, dist model.Distribution, st styles) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	withAmounts := len(dist.Amounts) == len(dist.Labels) && len(dist.Amounts) > 0
	headers := []string{column, "Număr", "Procent"}
	if withAmounts {
		headers = append(headers, "Sumă")
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = file.SetCellStyle(sheet, "A1", last, st.header)

	for i, label := range dist.Labels {
		row := i + 2
		set(fmt.Sprintf("A%d", row), label)
		set(fmt.Sprintf("B%d", row), dist.Data[i])
		set(fmt.Sprintf("C%d", row), dist.PercentageList[i]+"%")
		if withAmounts {
			setAmount(file, sheet, fmt.Sprintf("D%d", row), dist.Amounts[i], st)
		}
	}
	totalRow := len(dist.Labels) + 2
	set(fmt.Sprintf("A%d", totalRow), "Total")
	set(fmt.Sprintf("B%d", totalRow), dist.Total)

	_ = file.SetColWidth(sheet, "A", "A", 30)
	_ = file.SetColWidth(sheet, "B", "D", 14)

	if len(dist.Labels) == 0 {
		return nil
	}
	ref := quoteSheet(sheet)
	return file.AddChart(sheet, "F2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       ref + "!$B$1",
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", ref, totalRow-1),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", ref, totalRow-1),
		}},
		Title: []excelize.RichTextRun{{Text: sheet}},
	})
}

func (g *Generator) writeRecords(file *excelize.File, sheet string, records []model.PaymentOrder, st styles) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{
		"ID",
		"Referință",
		"Plătitor",
		"CUI plătitor",
		"Beneficiar",
		"CUI beneficiar",
		"IBAN",
		"Data plății",
		"Scop",
		"Monedă",
		"Suma de bază",
		"Cota TVA",
		"TVA",
		"Taxă",
		"Total",
		"Status",
		"Creat la",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = file.SetCellStyle(sheet, "A1", last, st.header)

	for i, r := range records {
		row := i + 2
		values := []interface{}{
			fmt.Sprintf("%d", r.ID),
			r.Reference,
			r.PayerName,
			r.PayerCUI,
			r.BeneficiaryName,
			r.BeneficiaryCUI,
			r.BeneficiaryAccount,
			r.PaymentDate,
			report.PurposeLabel(r.PaymentPurpose),
			r.Currency,
			r.BaseAmount.InexactFloat64(),
			r.VATRate.String() + "%",
			r.VATAmount.InexactFloat64(),
			r.TaxAmount.InexactFloat64(),
			r.TotalAmount.InexactFloat64(),
			string(r.Status),
			formatDateTime(r.CreatedAt),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			set(cell, v)
		}
		_ = file.SetCellStyle(sheet, fmt.Sprintf("K%d", row), fmt.Sprintf("K%d", row), st.amount)
		_ = file.SetCellStyle(sheet, fmt.Sprintf("M%d", row), fmt.Sprintf("O%d", row), st.amount)
	}

	_ = file.SetColWidth(sheet, "A", "A", 16)
	_ = file.SetColWidth(sheet, "B", "C", 30)
	_ = file.SetColWidth(sheet, "D", "G", 20)
	_ = file.SetColWidth(sheet, "H", "Q", 14)
}

func setAmount(file *excelize.File, sheet, cell, value string, st styles) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		_ = file.SetCellValue(sheet, cell, value)
		return
	}
	_ = file.SetCellValue(sheet, cell, d.InexactFloat64())
	_ = file.SetCellStyle(sheet, cell, cell, st.amount)
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func buildSheetName(name string, used map[string]struct{}) string {
	base := truncateRunes(sanitizeSheetName(name), maxSheetName)

	candidate := base
	counter := 2
	for {
		if _, exists := used[candidate]; !exists {
			return candidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		candidate = truncateRunes(base, maxSheetName-len(suffix)) + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Foaie"
	}

	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = strings.TrimSpace(replacer.Replace(value))
	if value == "" {
		return "Foaie"
	}
	return value
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
