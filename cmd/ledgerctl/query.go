package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ledger_analytics/pkg/core/cashflow"
	"ledger_analytics/pkg/core/report"
	"ledger_analytics/pkg/core/store"
)

func newOrgsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "orgs",
		Short: "List organizations with stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orgs, err := a.store.ListOrganizations(cmd.Context())
			if err != nil {
				return err
			}
			for _, o := range orgs {
				fmt.Fprintln(cmd.OutOrStdout(), o)
			}
			return nil
		},
	}
}

func newAnalysisCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analysis ORG",
		Short: "Print the latest stored analysis of an organization as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.store.LoadAnalysis(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no analysis stored for %s; run alertd or POST /api/cashflow/project with save_analysis", args[0])
			}
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		out    string
		hide   []string
		labels map[string]string
	)

	cmd := &cobra.Command{
		Use:   "export ORG",
		Short: "Project stored cash-flow periods and export the table",
		Long: `Project the organization's stored periods and recurring items and write the
cash-flow table as markdown, html, xlsx or pdf. Binary formats need --out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			periods, err := a.store.LoadPeriods(ctx, args[0])
			if err != nil {
				return err
			}
			items, err := a.store.LoadRecurringItems(ctx, args[0])
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			projected, err := cashflow.Project(periods, items)
			if err != nil {
				return err
			}

			table := report.CashFlowTable(projected, report.Annotation{HiddenRows: hide, CustomLabels: labels})
			var data []byte
			switch format {
			case "md", "markdown":
				data = []byte(report.Markdown(table))
			case "html":
				html, err := report.HTML(table)
				if err != nil {
					return err
				}
				data = []byte(html)
			case report.FormatXLSX, report.FormatPDF:
				if out == "" {
					return fmt.Errorf("--out is required for %s", format)
				}
				if data, err = report.Export(table, format); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q (want md, html, xlsx or pdf)", format)
			}

			return writeOutput(cmd.OutOrStdout(), out, data)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "Output format: md, html, xlsx, pdf")
	cmd.Flags().StringVar(&out, "out", "", "Write to this file instead of stdout")
	cmd.Flags().StringSliceVar(&hide, "hide", nil, "Row keys to hide, e.g. rent,taxes")
	cmd.Flags().StringToStringVar(&labels, "label", nil, "Custom row labels, e.g. payroll=Salaries")
	return cmd
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "wrote %d bytes to %s\n", len(data), path)
	return nil
}
