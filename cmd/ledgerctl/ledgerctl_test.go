package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ledger_analytics/pkg/core/store"
)

// run executes ledgerctl against a file store in dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	base := []string{"--config", filepath.Join(dir, "missing.yaml"), "--store-dir", filepath.Join(dir, "store")}
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportAndExport(t *testing.T) {
	dir := t.TempDir()

	// Hjson-style input with comments and trailing commas is accepted
	periods := writeDoc(t, dir, "periods.hjson", `[
		// first quarter
		{"month": 2, "year": 2026, "sales_collections": 500, "payroll": 800},
		{"month": 1, "year": 2026, "sales_collections": 1000, "payroll": 400},
	]`)
	items := writeDoc(t, dir, "items.json", `[
		{"name": "Retainer", "kind": "inflow", "per_period_base_amount": 50,
		 "recurrence": {"frequency": "monthly", "start_column": 1}}
	]`)

	out, err := run(t, dir, "import", "periods", periods, "--org", "org-1")
	if err != nil {
		t.Fatalf("import periods failed: %v", err)
	}
	if !strings.Contains(out, "stored 2 periods record(s) for org-1") {
		t.Errorf("unexpected output %q", out)
	}
	if _, err := run(t, dir, "import", "items", items, "-o", "org-1"); err != nil {
		t.Fatalf("import items failed: %v", err)
	}

	out, err = run(t, dir, "export", "org-1", "--hide", "rent,taxes", "--label", "payroll=Salaries")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(out, "| Concept | 01/2026 | 02/2026 |") {
		t.Errorf("periods should be exported in chronological order:\n%s", out)
	}
	if !strings.Contains(out, "| Cumulative flow | 650.00 | 400.00 |") || !strings.Contains(out, "| Salaries |") {
		t.Errorf("unexpected table:\n%s", out)
	}
	if strings.Contains(out, "| Rent |") {
		t.Errorf("hidden row exported:\n%s", out)
	}

	xlsx := filepath.Join(dir, "cf.xlsx")
	if _, err := run(t, dir, "export", "org-1", "-f", "xlsx", "--out", xlsx); err != nil {
		t.Fatalf("xlsx export failed: %v", err)
	}
	if data, err := os.ReadFile(xlsx); err != nil || !bytes.HasPrefix(data, []byte("PK")) {
		t.Errorf("xlsx not written: %v", err)
	}
	if _, err := run(t, dir, "export", "org-1", "-f", "pdf"); err == nil {
		t.Error("binary export without --out should fail")
	}

	out, err = run(t, dir, "orgs")
	if err != nil || strings.TrimSpace(out) != "org-1" {
		t.Errorf("orgs = %q, %v", out, err)
	}
}

func TestImportSnapshot(t *testing.T) {
	dir := t.TempDir()
	snap := writeDoc(t, dir, "snap.json", `{
		"period_year": 2026, "period_month": 3,
		"accounts": [
			{"code": "1105", "name": "Caja", "amount": 1000},
			{"code": "2205", "name": "Proveedores", "amount": 400},
			{"code": "3105", "name": "Capital", "amount": 600}
		]
	}`)

	if _, err := run(t, dir, "import", "snapshot", snap, "--org", "org-9", "--classify"); err != nil {
		t.Fatalf("import snapshot failed: %v", err)
	}

	s := store.NewLedgerStore(nil, filepath.Join(dir, "store"), nil)
	got, err := s.LoadSnapshot(context.Background(), "org-9", 2026, 3)
	if err != nil {
		t.Fatalf("snapshot not stored: %v", err)
	}
	if got.Status != "draft" || got.Accounts[0].Category != "asset" || got.Accounts[2].Category != "equity" {
		t.Errorf("unexpected snapshot: %+v", got)
	}
}

func TestImport_Rejects(t *testing.T) {
	dir := t.TempDir()
	badItems := writeDoc(t, dir, "items.json", `[{"name": "Rent", "kind": "sideways", "recurrence": {"frequency": "monthly", "start_column": 1}}]`)
	badMonth := writeDoc(t, dir, "periods.json", `[{"month": 13, "year": 2026}]`)
	snap := writeDoc(t, dir, "snap.json", `{"organization_id": "org-a", "period_year": 2026, "period_month": 1, "accounts": []}`)
	noPeriod := writeDoc(t, dir, "nop.json", `{"organization_id": "org-a", "accounts": []}`)

	tests := []struct {
		name string
		args []string
	}{
		{"Unknown kind", []string{"import", "receipts", badItems, "--org", "o"}},
		{"Missing org", []string{"import", "items", badItems}},
		{"Invalid item", []string{"import", "items", badItems, "--org", "o"}},
		{"Month out of range", []string{"import", "periods", badMonth, "--org", "o"}},
		{"Org mismatch", []string{"import", "snapshot", snap, "--org", "org-b"}},
		{"Missing period", []string{"import", "snapshot", noPeriod}},
		{"Missing file", []string{"import", "items", filepath.Join(dir, "nope.json"), "--org", "o"}},
		{"Path-like org", []string{"import", "periods", writeDoc(t, dir, "ok.json", `[]`), "--org", "../x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, dir, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestAnalysis(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, dir, "analysis", "org-1"); err == nil || !strings.Contains(err.Error(), "no analysis stored") {
		t.Errorf("expected a not-found hint, got %v", err)
	}

	s := store.NewLedgerStore(nil, filepath.Join(dir, "store"), nil)
	if err := s.SaveAnalysis(context.Background(), store.AnalysisRecord{OrganizationID: "org-1"}); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, dir, "analysis", "org-1")
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	var rec store.AnalysisRecord
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if rec.OrganizationID != "org-1" || rec.GeneratedAt.IsZero() {
		t.Errorf("unexpected record %+v", rec)
	}
}
