package model

import "time"

// Distribution is one grouping axis of a report. Labels, Data, Amounts and
// PercentageList are index-aligned in first-seen key order.
type Distribution struct {
	Labels         []string           `json:"labels"`
	Data           []int              `json:"data"`
	Amounts        []string           `json:"amounts,omitempty"`
	Percentages    map[string]string  `json:"percentages"`
	PercentageList []string           `json:"percentageList"`
	Total          int                `json:"total"`
	Details        []DistributionItem `json:"details"`
}

type DistributionItem struct {
	Label       string `json:"label"`
	Count       int    `json:"count"`
	Percentage  string `json:"percentage"`
	TotalAmount string `json:"totalAmount,omitempty"`
}

type AmountStatistics struct {
	Min     string `json:"min"`
	Max     string `json:"max"`
	Average string `json:"average"`
	Median  string `json:"median"`
	Total   string `json:"total"`
	Count   int    `json:"count"`
}

type DateRange struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

type GeneralStats struct {
	TotalForms    int       `json:"totalForms"`
	TotalAmount   string    `json:"totalAmount"`
	AverageAmount string    `json:"averageAmount"`
	DateRange     DateRange `json:"dateRange"`
}

type ReportBundle struct {
	PurposeAnalysis  Distribution     `json:"purposeAnalysis"`
	CurrencyAnalysis Distribution     `json:"currencyAnalysis"`
	AmountAnalysis   AmountStatistics `json:"amountAnalysis"`
	VATAnalysis      Distribution     `json:"vatAnalysis"`
	GeneralStats     GeneralStats     `json:"generalStats"`
	RawData          []PaymentOrder   `json:"rawData"`
	GeneratedAt      time.Time        `json:"generatedAt"`
	PeriodFrom       *time.Time       `json:"periodFrom,omitempty"`
	PeriodTo         *time.Time       `json:"periodTo,omitempty"`
}
