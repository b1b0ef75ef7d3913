package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/wolfeidau/homebrief/internal/client"
	"github.com/wolfeidau/homebrief/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

func formatPrice(amount int64) string {
	return printer.Sprintf("$%d", amount)
}

func formatBaths(baths float64) string {
	return printer.Sprintf("%v", baths)
}

// ListCmd lists every property.
type ListCmd struct{}

func (l *ListCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := setup(ctx, globals)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.svc.Current(ctx)
	if err != nil {
		return noSessionHint(err)
	}

	properties, err := a.svc.Properties(ctx)
	if err != nil {
		return err
	}

	out := globals.out()
	if len(properties) == 0 {
		fmt.Fprintln(out, "No properties found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRICE\tBEDS\tBATHS\tSQFT\tADDRESS\tVIEWED")

	for _, p := range properties {
		viewed := ""
		if sess.HasViewed(p.ID) {
			viewed = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			p.ID, formatPrice(p.Price), p.Beds, formatBaths(p.Baths), printer.Sprintf("%d", p.Sqft), fullAddress(p), viewed)
	}

	return w.Flush()
}

// ViewCmd shows one property with its brief and records it as viewed.
type ViewCmd struct {
	ID string `arg:"" help:"Property ID"`
}

func (v *ViewCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := setup(ctx, globals)
	if err != nil {
		return err
	}
	defer a.Close()

	view, err := a.svc.ViewProperty(ctx, v.ID)
	if err != nil {
		if errors.Is(err, client.ErrPropertyNotFound) {
			return fmt.Errorf("property %s not found", v.ID)
		}
		return noSessionHint(err)
	}

	printProperty(globals.out(), view.Property)
	printBrief(globals.out(), view.Brief)
	return nil
}

// HistoryCmd lists the viewed properties, oldest first.
type HistoryCmd struct {
	IDsOnly bool `name:"ids-only" help:"Print only property IDs without looking them up"`
}

func (h *HistoryCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := setup(ctx, globals)
	if err != nil {
		return err
	}
	defer a.Close()

	ids, err := a.svc.History(ctx)
	if err != nil {
		return noSessionHint(err)
	}

	out := globals.out()
	if len(ids) == 0 {
		fmt.Fprintln(out, "No properties viewed yet.")
		return nil
	}

	if h.IDsOnly {
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	}

	properties, err := a.svc.Properties(ctx)
	if err != nil {
		return err
	}
	byID := make(map[string]models.PropertySummary, len(properties))
	for _, p := range properties {
		byID[p.ID] = p
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRICE\tADDRESS")
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			// Listing has since been withdrawn
			fmt.Fprintf(w, "%s\t-\t(no longer listed)\n", id)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", id, formatPrice(p.Price), fullAddress(p))
	}

	return w.Flush()
}

// formatConfidence shows grades the client doesn't know as "unknown".
func formatConfidence(c models.Confidence) string {
	if !c.IsValid() {
		return "unknown"
	}
	return string(c)
}

func fullAddress(p models.PropertySummary) string {
	return fmt.Sprintf("%s, %s, %s %s", p.Address, p.City, p.State, p.Zip)
}

func printProperty(out io.Writer, p *models.PropertySummary) {
	fmt.Fprintln(out, fullAddress(*p))
	fmt.Fprintf(out, "%s · %d bd · %s ba · %s sqft\n", formatPrice(p.Price), p.Beds, formatBaths(p.Baths), printer.Sprintf("%d", p.Sqft))
	if p.ImageURL != nil {
		fmt.Fprintf(out, "Photo: %s\n", *p.ImageURL)
	}
	fmt.Fprintln(out)
}

func printBrief(out io.Writer, b *models.PropertyBrief) {
	fmt.Fprintln(out, b.Title)
	fmt.Fprintln(out, strings.Repeat("─", len([]rune(b.Title))))
	fmt.Fprintln(out, b.Summary)
	if b.WhatThisMeans != "" {
		fmt.Fprintf(out, "\nWhat this means: %s\n", b.WhatThisMeans)
	}
	fmt.Fprintf(out, "\nConfidence: %s", formatConfidence(b.OverallConfidence))
	if b.OverallConfidenceWhy != "" {
		fmt.Fprintf(out, " (%s)", b.OverallConfidenceWhy)
	}
	fmt.Fprintln(out)

	if len(b.QuickFacts) > 0 {
		fmt.Fprintln(out, "\nQuick facts")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, kv := range b.QuickFacts {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", kv.Label, kv.Value, formatConfidence(kv.Confidence))
		}
		_ = w.Flush()
	}

	fmt.Fprintln(out, "\nMonthly costs")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, line := range b.EstimatedMonthlyCosts {
		fmt.Fprintf(w, "  %s\t%s\n", line.Label, formatPrice(line.Monthly))
	}
	fmt.Fprintf(w, "  Total (est.)\t%s\n", formatPrice(b.MonthlyTotal()))
	for _, line := range b.EstimatedMonthlyVariable {
		fmt.Fprintf(w, "  %s (varies)\t%s - %s\n", line.Label, formatPrice(line.Low), formatPrice(line.High))
	}
	_ = w.Flush()

	r := b.EstimatedMonthlyTotalRange
	if r.Low > 0 || r.High > 0 {
		fmt.Fprintf(out, "  Likely range: %s - %s\n", formatPrice(r.Low), formatPrice(r.High))
	}

	as := b.Assumptions
	fmt.Fprintf(out, "  Assumes %s%% down, %s%% rate, %d year loan\n",
		printer.Sprintf("%v", as.DownPaymentPercent), printer.Sprintf("%v", as.InterestRatePercent), as.LoanTermYears)

	printList(out, "Highlights", b.Highlights)
	printList(out, "Risks", b.Risks)

	if len(b.Watchouts) > 0 {
		fmt.Fprintln(out, "\nVerify before offering")
		for _, item := range b.Watchouts {
			fmt.Fprintf(out, "  - %s: %s\n", item.Item, item.Why)
		}
	}

	if len(b.Conflicts) > 0 {
		fmt.Fprintln(out, "\nConflicting data")
		for _, c := range b.Conflicts {
			fmt.Fprintf(out, "  - %s: %s (%s)\n", c.Field, strings.Join(c.Values, " vs "), c.Note)
		}
	}

	if len(b.Sources) > 0 {
		fmt.Fprintln(out, "\nSources")
		for _, s := range b.Sources {
			fmt.Fprintf(out, "  - %s, updated %s, reliability %s\n", s.Name, s.LastUpdated, formatConfidence(s.Reliability))
		}
	}
}

func printList(out io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s\n", title)
	for _, item := range items {
		fmt.Fprintf(out, "  - %s\n", item)
	}
}
