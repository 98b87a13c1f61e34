package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

const fallbackFont = "Helvetica"

// Generator renders reports and payment orders. With a TTF font configured
// text keeps its diacritics; the built-in Helvetica fallback folds them to
// ASCII.
type Generator struct {
	fontName string
	fontData []byte
}

func NewGenerator(fontPath string) (*Generator, error) {
	if strings.TrimSpace(fontPath) == "" {
		return &Generator{fontName: fallbackFont}, nil
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("read pdf font: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("font data is empty")
	}
	return &Generator{fontName: "Document", fontData: data}, nil
}

func (g *Generator) newDocument(orientation string) *gofpdf.Fpdf {
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 18)
	if g.fontData != nil {
		pdf.AddUTF8FontFromBytes(g.fontName, "", g.fontData)
		pdf.AddUTF8FontFromBytes(g.fontName, "B", g.fontData)
	}
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(g.fontName, "", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, fmt.Sprintf("Pagina %d din {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})
	return pdf
}

func (g *Generator) output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var asciiFold = strings.NewReplacer(
	"ă", "a", "Ă", "A",
	"â", "a", "Â", "A",
	"î", "i", "Î", "I",
	"ș", "s", "Ș", "S", "ş", "s", "Ş", "S",
	"ț", "t", "Ț", "T", "ţ", "t", "Ţ", "T",
	"—", "-", "–", "-",
)

func (g *Generator) text(s string) string {
	if g.fontData != nil {
		return s
	}
	return asciiFold.Replace(s)
}

func (g *Generator) heading(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(3)
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, g.text(title), "", 1, "L", false, 0, "")
}

func (g *Generator) line(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont(g.fontName, "B", 10)
	pdf.CellFormat(55, 6, g.text(label), "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.MultiCell(0, 6, g.text(safeValue(value)), "", "L", false)
}

// drawTableRow writes one row; columns from index alignFrom on are right aligned.
func (g *Generator) drawTableRow(pdf *gofpdf.Fpdf, cols []string, widths []float64, header bool, alignFrom int) {
	style := ""
	fill := false
	if header {
		style = "B"
		fill = true
		pdf.SetFillColor(230, 230, 230)
	}
	pdf.SetFont(g.fontName, style, 9)
	for i, col := range cols {
		align := "L"
		if i >= alignFrom {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, g.text(fit(pdf, col, widths[i])), "1", 0, align, fill, 0, "")
	}
	pdf.Ln(-1)
}

// fit shortens s so it fits in a cell of width w.
func fit(pdf *gofpdf.Fpdf, s string, w float64) string {
	limit := w - 2
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func ensureSpace(pdf *gofpdf.Fpdf, height float64) {
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+height > pageHeight-bottom-3 {
		pdf.AddPage()
	}
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatAmount(value decimal.Decimal) string {
	return value.StringFixed(2)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02.01.2006")
}
