package pdf

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/eforms/internal/model"
	"github.com/nurpe/eforms/internal/report"
)

// GenerateOrder renders a single payment order.
func (g *Generator) GenerateOrder(order model.PaymentOrder) ([]byte, error) {
	pdf := g.newDocument("P")
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, g.text("ORDIN DE PLATĂ"), "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, g.text(fmt.Sprintf("Referință: %s", order.Reference)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, g.text(fmt.Sprintf("Data plății: %s", safeValue(order.PaymentDate))), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	g.heading(pdf, "Plătitor")
	g.line(pdf, "Denumire:", order.PayerName)
	g.line(pdf, "CUI:", order.PayerCUI)
	g.line(pdf, "Adresă:", order.PayerAddress)
	g.line(pdf, "Telefon:", order.PayerPhone)

	g.heading(pdf, "Beneficiar")
	g.line(pdf, "Denumire:", order.BeneficiaryName)
	g.line(pdf, "CUI:", order.BeneficiaryCUI)
	g.line(pdf, "Adresă:", order.BeneficiaryAddress)
	g.line(pdf, "IBAN:", order.BeneficiaryAccount)

	g.heading(pdf, "Detalii plată")
	g.line(pdf, "Scop:", report.PurposeLabel(order.PaymentPurpose))
	g.line(pdf, "Status:", statusLabel(order.Status))
	if order.Notes != "" {
		g.line(pdf, "Observații:", order.Notes)
	}
	pdf.Ln(2)

	currency := order.Currency
	if currency == "" {
		currency = model.DefaultCurrency
	}
	widths := []float64{90, 40, 50}
	g.drawTableRow(pdf, []string{"Element", "Cotă", "Sumă (" + currency + ")"}, widths, true, 1)
	g.drawTableRow(pdf, []string{"Suma de bază", "-", formatAmount(order.BaseAmount)}, widths, false, 1)
	g.drawTableRow(pdf, []string{"TVA", order.VATRate.String() + "%", formatAmount(order.VATAmount)}, widths, false, 1)
	g.drawTableRow(pdf, []string{"Taxă", order.TaxRate.String() + "%", formatAmount(order.TaxAmount)}, widths, false, 1)
	g.drawTableRow(pdf, []string{"TOTAL", "", formatAmount(order.TotalAmount)}, widths, true, 1)

	if len(order.Files) > 0 {
		g.heading(pdf, "Documente atașate")
		pdf.SetFont(g.fontName, "", 10)
		for _, f := range order.Files {
			pdf.MultiCell(0, 5, g.text(fmt.Sprintf("%s (%d octeți)", safeValue(f.OriginalName), f.Size)), "", "L", false)
		}
	}

	pdf.Ln(10)
	g.signatureBlock(pdf, "Plătitor", order.PayerName)
	g.signatureBlock(pdf, "Beneficiar", order.BeneficiaryName)
	pdf.SetFont(g.fontName, "", 8)
	pdf.CellFormat(0, 6, g.text(fmt.Sprintf("Înregistrat la %s", formatDate(order.CreatedAt))), "", 1, "L", false, 0, "")

	return g.output(pdf)
}

func (g *Generator) signatureBlock(pdf *gofpdf.Fpdf, label, name string) {
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 8, g.text(fmt.Sprintf("%s: ______________________ /%s/", label, safeValue(name))), "", 1, "L", false, 0, "")
}
