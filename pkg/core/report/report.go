// Package report renders engine output for people. Hidden rows and custom
// labels live here as an Annotation; the projected periods are never modified.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"ledger_analytics/pkg/core/cashflow"
)

// Stable row keys of the cash-flow table.
const (
	RowSalesCollections  = "sales_collections"
	RowOtherInflows      = "other_inflows"
	RowRecurringInflows  = "recurring_inflows"
	RowTotalInflows      = "total_inflows"
	RowSupplierPayments  = "supplier_payments"
	RowPayroll           = "payroll"
	RowRent              = "rent"
	RowUtilities         = "utilities"
	RowTaxes             = "taxes"
	RowOtherOutflows     = "other_outflows"
	RowRecurringOutflows = "recurring_outflows"
	RowTotalOutflows     = "total_outflows"
	RowNetFlow           = "net_flow"
	RowCumulativeFlow    = "cumulative_flow"
)

type rowDef struct {
	key   string
	label string
	value func(cashflow.CashFlowPeriod) float64
}

var cashFlowRows = []rowDef{
	{RowSalesCollections, "Sales collections", func(p cashflow.CashFlowPeriod) float64 { return p.SalesCollections }},
	{RowOtherInflows, "Other inflows", func(p cashflow.CashFlowPeriod) float64 { return p.OtherInflows }},
	{RowRecurringInflows, "Recurring inflows", func(p cashflow.CashFlowPeriod) float64 { return p.RecurringInflows }},
	{RowTotalInflows, "Total inflows", func(p cashflow.CashFlowPeriod) float64 { return p.TotalInflows }},
	{RowSupplierPayments, "Supplier payments", func(p cashflow.CashFlowPeriod) float64 { return p.SupplierPayments }},
	{RowPayroll, "Payroll", func(p cashflow.CashFlowPeriod) float64 { return p.Payroll }},
	{RowRent, "Rent", func(p cashflow.CashFlowPeriod) float64 { return p.Rent }},
	{RowUtilities, "Utilities", func(p cashflow.CashFlowPeriod) float64 { return p.Utilities }},
	{RowTaxes, "Taxes", func(p cashflow.CashFlowPeriod) float64 { return p.Taxes }},
	{RowOtherOutflows, "Other outflows", func(p cashflow.CashFlowPeriod) float64 { return p.OtherOutflows }},
	{RowRecurringOutflows, "Recurring outflows", func(p cashflow.CashFlowPeriod) float64 { return p.RecurringOutflows }},
	{RowTotalOutflows, "Total outflows", func(p cashflow.CashFlowPeriod) float64 { return p.TotalOutflows }},
	{RowNetFlow, "Net flow", func(p cashflow.CashFlowPeriod) float64 { return p.NetFlow }},
	{RowCumulativeFlow, "Cumulative flow", func(p cashflow.CashFlowPeriod) float64 { return p.CumulativeFlow }},
}

// RowKeys lists every cash-flow row key in display order.
func RowKeys() []string {
	out := make([]string, len(cashFlowRows))
	for i, r := range cashFlowRows {
		out[i] = r.key
	}
	return out
}

// Annotation customizes how a table is displayed.
type Annotation struct {
	HiddenRows   []string          `json:"hidden_rows,omitempty"`
	CustomLabels map[string]string `json:"custom_labels,omitempty"`
}

func (a Annotation) hidden(key string) bool {
	for _, h := range a.HiddenRows {
		if h == key {
			return true
		}
	}
	return false
}

func (a Annotation) label(key, fallback string) string {
	if l, ok := a.CustomLabels[key]; ok && strings.TrimSpace(l) != "" {
		return l
	}
	return fallback
}

// Row is one labelled line of a table.
type Row struct {
	Key    string    `json:"key"`
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// Table is a display-ready grid.
type Table struct {
	Title   string   `json:"title,omitempty"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// CashFlowTable lays the projected periods out as rows with one column per
// period, applying the annotation.
func CashFlowTable(periods []cashflow.CashFlowPeriod, a Annotation) Table {
	t := Table{Title: "Cash flow", Columns: make([]string, len(periods)), Rows: []Row{}}
	for i, p := range periods {
		t.Columns[i] = fmt.Sprintf("%02d/%d", p.Month, p.Year)
	}

	for _, def := range cashFlowRows {
		if a.hidden(def.key) {
			continue
		}
		values := make([]float64, len(periods))
		for i, p := range periods {
			values[i] = def.value(p)
		}
		t.Rows = append(t.Rows, Row{Key: def.key, Label: a.label(def.key, def.label), Values: values})
	}
	return t
}

// =============================================================================
// RENDERING
// =============================================================================

// Markdown renders t as a GFM table. Amounts use two decimals with no
// thousands separator.
func Markdown(t Table) string {
	var b strings.Builder
	if t.Title != "" {
		fmt.Fprintf(&b, "## %s\n\n", escapeCell(t.Title))
	}

	b.WriteString("| Concept |")
	for _, c := range t.Columns {
		fmt.Fprintf(&b, " %s |", escapeCell(c))
	}
	b.WriteString("\n|---|")
	for range t.Columns {
		b.WriteString("---:|")
	}
	b.WriteString("\n")

	for _, r := range t.Rows {
		fmt.Fprintf(&b, "| %s |", escapeCell(r.Label))
		for _, v := range r.Values {
			fmt.Fprintf(&b, " %.2f |", v)
		}
		b.WriteString("\n")
	}
	return b.String()
}

var renderer = goldmark.New(goldmark.WithExtensions(extension.Table))

// HTML renders t through goldmark.
func HTML(t Table) (string, error) {
	return RenderMarkdown(Markdown(t))
}

// RenderMarkdown converts markdown to HTML with GFM tables enabled.
func RenderMarkdown(md string) (string, error) {
	var buf bytes.Buffer
	if err := renderer.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// HealthMarkdown summarizes a cash-flow analysis.
func HealthMarkdown(a cashflow.Analysis) string {
	var b strings.Builder
	b.WriteString("## Cash-flow health\n\n")
	fmt.Fprintf(&b, "- Health score: %.2f / 100\n", a.HealthScore)
	fmt.Fprintf(&b, "- Average net flow: %.2f\n", a.AverageNetFlow)
	fmt.Fprintf(&b, "- Positive / negative / zero months: %d / %d / %d\n", a.PositiveMonths, a.NegativeMonths, a.ZeroMonths)
	fmt.Fprintf(&b, "- Longest negative streak: %d\n", a.LongestNegativeStreak)
	fmt.Fprintf(&b, "- Final cumulative: %.2f (minimum %.2f, %s)\n", a.FinalCumulative, a.MinimumCumulative, a.CumulativeTrend)

	if len(a.Recommendations) > 0 {
		b.WriteString("\n### Recommendations\n\n")
		for _, r := range a.Recommendations {
			fmt.Fprintf(&b, "- **%s**: %s\n", r.Severity, r.Message)
		}
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
