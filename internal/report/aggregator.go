package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nurpe/eforms/internal/model"
)

var ErrNoData = errors.New("no data for selected period")

const (
	unknownPurposeLabel = "Necunoscut"
	unknownCurrency     = "necunoscut"
	defaultVATRate      = "0"
)

var purposeLabels = map[string]string{
	model.PurposeTaxes:    "Taxe și impozite",
	model.PurposeFines:    "Amenzi",
	model.PurposeServices: "Servicii publice",
	model.PurposeOther:    "Alte plăți",
}

var hundred = decimal.NewFromInt(100)

// PurposeLabel maps a purpose code to its display label. Free text and
// missing codes share the unknown label.
func PurposeLabel(code string) string {
	if label, ok := purposeLabels[strings.TrimSpace(code)]; ok {
		return label
	}
	return unknownPurposeLabel
}

// Filter bounds records by creation time. Both ends are inclusive.
type Filter struct {
	From *time.Time
	To   *time.Time
}

// ParseFilter turns optional dateFrom/dateTo strings into a Filter. From is
// the start of its day and To the last instant of its day, in loc.
func ParseFilter(dateFrom, dateTo string, loc *time.Location) (Filter, error) {
	if loc == nil {
		loc = time.UTC
	}
	var f Filter
	if strings.TrimSpace(dateFrom) != "" {
		from, err := parseDay(dateFrom, loc)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid dateFrom: %w", err)
		}
		f.From = &from
	}
	if strings.TrimSpace(dateTo) != "" {
		day, err := parseDay(dateTo, loc)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid dateTo: %w", err)
		}
		to := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		f.To = &to
	}
	return f, nil
}

func parseDay(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
}

func (f Filter) Match(createdAt time.Time) bool {
	if f.From != nil && createdAt.Before(*f.From) {
		return false
	}
	if f.To != nil && createdAt.After(*f.To) {
		return false
	}
	return true
}

// FilterRecords keeps the records matching f, preserving input order.
func FilterRecords(records []model.PaymentOrder, f Filter) []model.PaymentOrder {
	result := make([]model.PaymentOrder, 0, len(records))
	for _, r := range records {
		if f.Match(r.CreatedAt) {
			result = append(result, r)
		}
	}
	return result
}

// Aggregate filters records and builds every analysis of the report. Records
// are taken in the given order; group order is first-seen order.
func Aggregate(records []model.PaymentOrder, f Filter, now time.Time) (*model.ReportBundle, error) {
	filtered := FilterRecords(records, f)
	if len(filtered) == 0 {
		return nil, ErrNoData
	}

	return &model.ReportBundle{
		PurposeAnalysis:  ByPurpose(filtered),
		CurrencyAnalysis: ByCurrency(filtered),
		AmountAnalysis:   Amounts(filtered),
		VATAnalysis:      ByVATRate(filtered),
		GeneralStats:     General(filtered),
		RawData:          filtered,
		GeneratedAt:      now,
		PeriodFrom:       f.From,
		PeriodTo:         f.To,
	}, nil
}

type group struct {
	label  string
	count  int
	amount decimal.Decimal
}

type grouper struct {
	index  map[string]int
	groups []group
}

func newGrouper() *grouper {
	return &grouper{index: make(map[string]int)}
}

func (g *grouper) add(label string, amount decimal.Decimal) {
	pos, ok := g.index[label]
	if !ok {
		g.groups = append(g.groups, group{label: label})
		pos = len(g.groups) - 1
		g.index[label] = pos
	}
	g.groups[pos].count++
	g.groups[pos].amount = g.groups[pos].amount.Add(amount)
}

func (g *grouper) distribution(total int, withAmounts bool) model.Distribution {
	dist := model.Distribution{
		Labels:         make([]string, 0, len(g.groups)),
		Data:           make([]int, 0, len(g.groups)),
		Percentages:    make(map[string]string, len(g.groups)),
		PercentageList: make([]string, 0, len(g.groups)),
		Total:          total,
		Details:        make([]model.DistributionItem, 0, len(g.groups)),
	}
	if withAmounts {
		dist.Amounts = make([]string, 0, len(g.groups))
	}

	for _, gr := range g.groups {
		pct := Percentage(gr.count, total)
		dist.Labels = append(dist.Labels, gr.label)
		dist.Data = append(dist.Data, gr.count)
		dist.Percentages[gr.label] = pct
		dist.PercentageList = append(dist.PercentageList, pct)

		item := model.DistributionItem{Label: gr.label, Count: gr.count, Percentage: pct}
		if withAmounts {
			amount := gr.amount.StringFixed(2)
			dist.Amounts = append(dist.Amounts, amount)
			item.TotalAmount = amount
		}
		dist.Details = append(dist.Details, item)
	}
	return dist
}

// Percentage formats count/total*100 with one decimal.
func Percentage(count, total int) string {
	if total == 0 {
		return "0.0"
	}
	return decimal.NewFromInt(int64(count)).Mul(hundred).Div(decimal.NewFromInt(int64(total))).StringFixed(1)
}

func ByPurpose(records []model.PaymentOrder) model.Distribution {
	g := newGrouper()
	for _, r := range records {
		g.add(PurposeLabel(r.PaymentPurpose), r.TotalAmount)
	}
	return g.distribution(len(records), true)
}

func ByCurrency(records []model.PaymentOrder) model.Distribution {
	g := newGrouper()
	for _, r := range records {
		currency := strings.TrimSpace(r.Currency)
		if currency == "" {
			currency = unknownCurrency
		}
		g.add(currency, r.TotalAmount)
	}
	return g.distribution(len(records), true)
}

func ByVATRate(records []model.PaymentOrder) model.Distribution {
	g := newGrouper()
	for _, r := range records {
		rate := defaultVATRate
		if !r.VATRate.IsZero() {
			rate = r.VATRate.String()
		}
		g.add(rate+"%", decimal.Zero)
	}
	return g.distribution(len(records), false)
}

// Amounts computes min, max, average, median and total of TotalAmount.
func Amounts(records []model.PaymentOrder) model.AmountStatistics {
	if len(records) == 0 {
		zero := decimal.Zero.StringFixed(2)
		return model.AmountStatistics{Min: zero, Max: zero, Average: zero, Median: zero, Total: zero}
	}

	values := make([]decimal.Decimal, len(records))
	for i, r := range records {
		values[i] = r.TotalAmount
	}
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	total := decimal.Sum(values[0], values[1:]...)
	count := decimal.NewFromInt(int64(len(values)))

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
	}

	return model.AmountStatistics{
		Min:     sorted[0].StringFixed(2),
		Max:     sorted[len(sorted)-1].StringFixed(2),
		Average: total.Div(count).StringFixed(2),
		Median:  median.StringFixed(2),
		Total:   total.StringFixed(2),
		Count:   len(values),
	}
}

// General returns overall totals and the createdAt of the first and last
// record in the given order.
func General(records []model.PaymentOrder) model.GeneralStats {
	stats := model.GeneralStats{
		TotalForms:    len(records),
		TotalAmount:   decimal.Zero.StringFixed(2),
		AverageAmount: decimal.Zero.StringFixed(2),
	}
	if len(records) == 0 {
		return stats
	}

	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.TotalAmount)
	}
	first := records[0].CreatedAt
	last := records[len(records)-1].CreatedAt

	stats.TotalAmount = total.StringFixed(2)
	stats.AverageAmount = total.Div(decimal.NewFromInt(int64(len(records)))).StringFixed(2)
	stats.DateRange = model.DateRange{From: &first, To: &last}
	return stats
}
