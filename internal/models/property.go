package models

// PropertySummary is a single listing as returned by the backend.
type PropertySummary struct {
	ID       string  `json:"id"`
	Price    int64   `json:"price"`
	Beds     int     `json:"beds"`
	Baths    float64 `json:"baths"`
	Sqft     int     `json:"sqft"`
	Address  string  `json:"address"`
	City     string  `json:"city"`
	State    string  `json:"state"`
	Zip      string  `json:"zip"`
	ImageURL *string `json:"image_url,omitempty"`
}

// Confidence grades how much a brief value can be trusted.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// IsValid returns true for one of the three known grades.
func (c Confidence) IsValid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	default:
		return false
	}
}

type BriefKV struct {
	Label      string     `json:"label"`
	Value      string     `json:"value"`
	Confidence Confidence `json:"confidence"`
	Why        []string   `json:"why"`
	Context    *string    `json:"context,omitempty"`
}

type BriefMoneyLine struct {
	Label   string `json:"label"`
	Monthly int64  `json:"monthly"`
}

type BriefMoneyRangeLine struct {
	Label string `json:"label"`
	Low   int64  `json:"low"`
	High  int64  `json:"high"`
}

type BriefRange struct {
	Low  int64 `json:"low"`
	High int64 `json:"high"`
}

type BriefAssumptions struct {
	DownPaymentPercent  float64 `json:"down_payment_percent"`
	InterestRatePercent float64 `json:"interest_rate_percent"`
	LoanTermYears       int     `json:"loan_term_years"`
}

// BriefConflict records a field where data sources disagree.
type BriefConflict struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
	Note   string   `json:"note"`
}

// BriefSource is the provenance of data used in a brief.
type BriefSource struct {
	Name        string     `json:"name"`
	LastUpdated string     `json:"last_updated"`
	Reliability Confidence `json:"reliability"`
}

type BriefVerifyItem struct {
	Item string `json:"item"`
	Why  string `json:"why"`
}

// PropertyBrief is the backend-computed affordability and confidence report for one property.
type PropertyBrief struct {
	PropertyID    string `json:"property_id"`
	Title         string `json:"title"`
	Summary       string `json:"summary"`
	WhatThisMeans string `json:"what_this_means"`

	OverallConfidence    Confidence `json:"overall_confidence"`
	OverallConfidenceWhy string     `json:"overall_confidence_why"`

	QuickFacts                 []BriefKV             `json:"quick_facts"`
	EstimatedMonthlyTotalRange BriefRange            `json:"estimated_monthly_total_range"`
	EstimatedMonthlyFixed      []BriefMoneyLine      `json:"estimated_monthly_fixed"`
	EstimatedMonthlyVariable   []BriefMoneyRangeLine `json:"estimated_monthly_variable"`
	EstimatedMonthlyCosts      []BriefMoneyLine      `json:"estimated_monthly_costs"`
	Assumptions                BriefAssumptions      `json:"assumptions"`
	Highlights                 []string              `json:"highlights"`

	Risks     []string          `json:"risks"`
	Watchouts []BriefVerifyItem `json:"watchouts"`
	Conflicts []BriefConflict   `json:"conflicts"`
	Sources   []BriefSource     `json:"sources"`
}

// MonthlyTotal sums the itemised monthly cost estimates.
func (b *PropertyBrief) MonthlyTotal() int64 {
	var total int64
	for _, line := range b.EstimatedMonthlyCosts {
		total += line.Monthly
	}
	return total
}
