// Package orderxml renders a payment order as an OrdinPlata XML document.
package orderxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/nurpe/eforms/internal/model"
)

type Party struct {
	Nume    string `xml:"Nume"`
	CUI     string `xml:"CUI"`
	Adresa  string `xml:"Adresa,omitempty"`
	Telefon string `xml:"Telefon,omitempty"`
	IBAN    string `xml:"IBAN,omitempty"`
}

type Amounts struct {
	Moneda   string `xml:"moneda,attr"`
	Baza     string `xml:"SumaBaza"`
	CotaTVA  string `xml:"CotaTVA"`
	TVA      string `xml:"SumaTVA"`
	CotaTaxa string `xml:"CotaTaxa"`
	Taxa     string `xml:"SumaTaxa"`
	Total    string `xml:"Total"`
}

type Document struct {
	XMLName    xml.Name `xml:"OrdinPlata"`
	Versiune   string   `xml:"versiune,attr"`
	Generat    string   `xml:"generat,attr"`
	ID         int64    `xml:"ID"`
	Referinta  string   `xml:"Referinta"`
	Data       string   `xml:"DataPlata"`
	Scop       string   `xml:"Scop"`
	Status     string   `xml:"Status"`
	Platitor   Party    `xml:"Platitor"`
	Beneficiar Party    `xml:"Beneficiar"`
	Sume       Amounts  `xml:"Sume"`
	Observatii string   `xml:"Observatii,omitempty"`
	Atasamente []string `xml:"Atasamente>Fisier,omitempty"`
}

func FromOrder(o model.PaymentOrder, generatedAt time.Time) Document {
	doc := Document{
		Versiune:  "1.0",
		Generat:   generatedAt.UTC().Format(time.RFC3339),
		ID:        o.ID,
		Referinta: o.Reference,
		Data:      o.PaymentDate,
		Scop:      o.PaymentPurpose,
		Status:    string(o.Status),
		Platitor: Party{
			Nume:    o.PayerName,
			CUI:     o.PayerCUI,
			Adresa:  o.PayerAddress,
			Telefon: o.PayerPhone,
		},
		Beneficiar: Party{
			Nume:   o.BeneficiaryName,
			CUI:    o.BeneficiaryCUI,
			Adresa: o.BeneficiaryAddress,
			IBAN:   o.BeneficiaryAccount,
		},
		Sume: Amounts{
			Moneda:   o.Currency,
			Baza:     o.BaseAmount.StringFixed(2),
			CotaTVA:  o.VATRate.String(),
			TVA:      o.VATAmount.StringFixed(2),
			CotaTaxa: o.TaxRate.String(),
			Taxa:     o.TaxAmount.StringFixed(2),
			Total:    o.TotalAmount.StringFixed(2),
		},
		Observatii: o.Notes,
	}
	if doc.Sume.Moneda == "" {
		doc.Sume.Moneda = model.DefaultCurrency
	}
	for _, f := range o.Files {
		doc.Atasamente = append(doc.Atasamente, f.OriginalName)
	}
	return doc
}

// Marshal returns the indented document with an XML declaration.
func Marshal(o model.PaymentOrder, generatedAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(FromOrder(o, generatedAt)); err != nil {
		return nil, fmt.Errorf("encode order %d: %w", o.ID, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
