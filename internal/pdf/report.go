package pdf

import (
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/eforms/internal/model"
	"github.com/nurpe/eforms/internal/report"
)

const chartWidth = 110.0

var statusLabels = map[model.Status]string{
	model.StatusPending:   "În așteptare",
	model.StatusApproved:  "Aprobat",
	model.StatusRejected:  "Respins",
	model.StatusProcessed: "Procesat",
}

func statusLabel(s model.Status) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// GenerateReport renders the statistical report: general figures, one table
// and bar chart per distribution, amount statistics and the record list.
func (g *Generator) GenerateReport(bundle model.ReportBundle) ([]byte, error) {
	pdf := g.newDocument("P")
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, g.text("Raport formulare ordine de plată"), "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, g.text(fmt.Sprintf("Generat la %s", bundle.GeneratedAt.Format("02.01.2006 15:04"))), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, g.text(periodText(bundle)), "", 1, "C", false, 0, "")

	g.heading(pdf, "Statistici generale")
	stats := bundle.GeneralStats
	g.line(pdf, "Total formulare:", strconv.Itoa(stats.TotalForms))
	g.line(pdf, "Suma totală:", stats.TotalAmount)
	g.line(pdf, "Suma medie:", stats.AverageAmount)
	if stats.DateRange.From != nil && stats.DateRange.To != nil {
		g.line(pdf, "Interval formulare:", fmt.Sprintf("%s - %s", formatDate(*stats.DateRange.From), formatDate(*stats.DateRange.To)))
	}

	g.distribution(pdf, "Distribuție după scopul plății", "Scop", bundle.PurposeAnalysis)
	g.distribution(pdf, "Distribuție după monedă", "Monedă", bundle.CurrencyAnalysis)
	g.distribution(pdf, "Distribuție după cota TVA", "Cota TVA", bundle.VATAnalysis)

	ensureSpace(pdf, 30)
	g.heading(pdf, "Analiza sumelor")
	amounts := bundle.AmountAnalysis
	widths := []float64{30, 30, 30, 30, 30, 30}
	g.drawTableRow(pdf, []string{"Minim", "Maxim", "Medie", "Mediană", "Total", "Număr"}, widths, true, 0)
	g.drawTableRow(pdf, []string{
		amounts.Min, amounts.Max, amounts.Average, amounts.Median, amounts.Total, strconv.Itoa(amounts.Count),
	}, widths, false, 0)

	pdf.AddPage()
	g.heading(pdf, "Formulare incluse")
	g.recordTable(pdf, bundle.RawData)

	return g.output(pdf)
}

func periodText(bundle model.ReportBundle) string {
	if bundle.PeriodFrom == nil && bundle.PeriodTo == nil {
		return "Perioadă: toate formularele"
	}
	from, to := "început", "prezent"
	if bundle.PeriodFrom != nil {
		from = formatDate(*bundle.PeriodFrom)
	}
	if bundle.PeriodTo != nil {
		to = formatDate(*bundle.PeriodTo)
	}
	return fmt.Sprintf("Perioadă: %s - %s", from, to)
}

func (g *Generator) distribution(pdf *gofpdf.Fpdf, title, column string, dist model.Distribution) {
	withAmounts := len(dist.Amounts) == len(dist.Labels) && len(dist.Amounts) > 0
	ensureSpace(pdf, float64(len(dist.Labels))*14+30)
	g.heading(pdf, title)

	headers := []string{column, "Număr", "Procent"}
	widths := []float64{80, 30, 30}
	if withAmounts {
		headers = append(headers, "Sumă")
		widths = append(widths, 40)
	}
	g.drawTableRow(pdf, headers, widths, true, 1)
	for i, label := range dist.Labels {
		row := []string{label, strconv.Itoa(dist.Data[i]), dist.PercentageList[i] + "%"}
		if withAmounts {
			row = append(row, dist.Amounts[i])
		}
		g.drawTableRow(pdf, row, widths, false, 1)
	}
	pdf.Ln(3)
	g.barChart(pdf, dist)
}

// barChart draws one horizontal bar per label, scaled to the largest count.
func (g *Generator) barChart(pdf *gofpdf.Fpdf, dist model.Distribution) {
	peak := 0
	for _, n := range dist.Data {
		if n > peak {
			peak = n
		}
	}
	if peak == 0 {
		return
	}

	left, _, _, _ := pdf.GetMargins()
	pdf.SetFont(g.fontName, "", 8)
	for i, label := range dist.Labels {
		y := pdf.GetY()
		pdf.SetXY(left, y)
		pdf.CellFormat(50, 6, g.text(fit(pdf, label, 50)), "", 0, "R", false, 0, "")

		r, gr, b := barColor(i)
		pdf.SetFillColor(r, gr, b)
		width := chartWidth * float64(dist.Data[i]) / float64(peak)
		pdf.Rect(left+52, y+1, width, 4, "F")
		pdf.SetXY(left+54+width, y)
		pdf.CellFormat(25, 6, fmt.Sprintf("%d (%s%%)", dist.Data[i], dist.PercentageList[i]), "", 1, "L", false, 0, "")
	}
	pdf.SetFillColor(255, 255, 255)
}

var palette = [][3]int{
	{54, 162, 235},
	{255, 99, 132},
	{75, 192, 192},
	{255, 206, 86},
	{153, 102, 255},
	{255, 159, 64},
}

func barColor(i int) (int, int, int) {
	c := palette[i%len(palette)]
	return c[0], c[1], c[2]
}

func (g *Generator) recordTable(pdf *gofpdf.Fpdf, records []model.PaymentOrder) {
	widths := []float64{48, 45, 22, 25, 20, 20}
	headers := []string{"Referință", "Plătitor", "Data", "Scop", "Total", "Status"}
	g.drawTableRow(pdf, headers, widths, true, 4)
	for _, r := range records {
		ensureSpace(pdf, 8)
		g.drawTableRow(pdf, []string{
			r.Reference,
			safeValue(r.PayerName),
			safeValue(r.PaymentDate),
			report.PurposeLabel(r.PaymentPurpose),
			formatAmount(r.TotalAmount),
			statusLabel(r.Status),
		}, widths, false, 4)
	}
}
