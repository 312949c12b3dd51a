package ledger

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"
)

// =============================================================================
// ACCOUNT CODE CLASSIFICATION
// Maps code prefixes to categories. The table is validated once when it is
// built; Classify never guesses from the shape of a code.
// =============================================================================

// ClassificationRule assigns a category and subcategory to every code that
// starts with Prefix.
type ClassificationRule struct {
	Prefix      string   `yaml:"prefix" json:"prefix"`
	Category    Category `yaml:"category" json:"category"`
	Subcategory string   `yaml:"subcategory" json:"subcategory"`
}

// ClassificationTable resolves account codes by longest matching prefix.
type ClassificationTable struct {
	rules []ClassificationRule // sorted by prefix length, longest first
}

type classificationFile struct {
	Rules []ClassificationRule `yaml:"rules"`
}

// NewClassificationTable validates rules and builds a table.
func NewClassificationTable(rules []ClassificationRule) (*ClassificationTable, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("classification table is empty")
	}

	seen := make(map[string]bool, len(rules))
	sorted := make([]ClassificationRule, 0, len(rules))
	for i, r := range rules {
		r.Prefix = strings.TrimSpace(r.Prefix)
		if r.Prefix == "" {
			return nil, fmt.Errorf("rule %d: prefix is required", i)
		}
		if !isDigits(r.Prefix) {
			return nil, fmt.Errorf("rule %d: prefix %q must contain only digits", i, r.Prefix)
		}
		if !r.Category.Valid() {
			return nil, fmt.Errorf("rule %d (prefix %s): %w: %q", i, r.Prefix, ErrUnknownCategory, r.Category)
		}
		if seen[r.Prefix] {
			return nil, fmt.Errorf("rule %d: duplicate prefix %s", i, r.Prefix)
		}
		seen[r.Prefix] = true
		sorted = append(sorted, r)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i].Prefix) != len(sorted[j].Prefix) {
			return len(sorted[i].Prefix) > len(sorted[j].Prefix)
		}
		return sorted[i].Prefix < sorted[j].Prefix
	})

	return &ClassificationTable{rules: sorted}, nil
}

// LoadClassificationTable reads a YAML file of the form:
//
//	rules:
//	  - prefix: "11"
//	    category: asset
//	    subcategory: current
func LoadClassificationTable(path string) (*ClassificationTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classification table %s: %w", path, err)
	}
	return ParseClassificationTable(data)
}

// ParseClassificationTable builds a table from YAML bytes.
func ParseClassificationTable(data []byte) (*ClassificationTable, error) {
	var f classificationFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse classification table: %w", err)
	}
	return NewClassificationTable(f.Rules)
}

// DefaultClassificationTable is a PUC-style chart of accounts: class 1 assets,
// class 2 liabilities, class 3 equity. Groups 21 to 25 (financial obligations,
// suppliers, payables, taxes, labor) are current liabilities. It matches
// resources/classification.yaml.
func DefaultClassificationTable() *ClassificationTable {
	t, err := NewClassificationTable([]ClassificationRule{
		{Prefix: "1", Category: CategoryAsset, Subcategory: SubcategoryNonCurrent},
		{Prefix: "11", Category: CategoryAsset, Subcategory: SubcategoryCurrent},
		{Prefix: "12", Category: CategoryAsset, Subcategory: SubcategoryCurrent},
		{Prefix: "13", Category: CategoryAsset, Subcategory: SubcategoryCurrent},
		{Prefix: "14", Category: CategoryAsset, Subcategory: SubcategoryInventory},
		{Prefix: "2", Category: CategoryLiability, Subcategory: SubcategoryNonCurrent},
		{Prefix: "21", Category: CategoryLiability, Subcategory: SubcategoryCurrent},
		{Prefix: "22", Category: CategoryLiability, Subcategory: SubcategoryCurrent},
		{Prefix: "23", Category: CategoryLiability, Subcategory: SubcategoryCurrent},
		{Prefix: "24", Category: CategoryLiability, Subcategory: SubcategoryCurrent},
		{Prefix: "25", Category: CategoryLiability, Subcategory: SubcategoryCurrent},
		{Prefix: "3", Category: CategoryEquity, Subcategory: "capital"},
		{Prefix: "36", Category: CategoryEquity, Subcategory: "results"},
	})
	if err != nil {
		panic(fmt.Sprintf("default classification table is invalid: %v", err))
	}
	return t
}

// Rules returns a copy of the table rules, longest prefix first.
func (t *ClassificationTable) Rules() []ClassificationRule {
	out := make([]ClassificationRule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Classify returns the rule covering code.
func (t *ClassificationTable) Classify(code string) (ClassificationRule, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return ClassificationRule{}, ErrMissingCode
	}
	for _, r := range t.rules {
		if strings.HasPrefix(code, r.Prefix) {
			return r, nil
		}
	}
	return ClassificationRule{}, fmt.Errorf("%w: %s", ErrUnclassified, code)
}

// ClassifyAll returns a copy of accounts with missing categories and
// subcategories filled from the table. Explicit values on an account win.
func (t *ClassificationTable) ClassifyAll(accounts []LedgerAccount) ([]LedgerAccount, error) {
	out := make([]LedgerAccount, len(accounts))
	for i, a := range accounts {
		if a.Category != "" && !a.Category.Valid() {
			return nil, fmt.Errorf("account %s: %w: %q", a.Code, ErrUnknownCategory, a.Category)
		}
		if a.Category == "" || a.Subcategory == "" {
			rule, err := t.Classify(a.Code)
			if err != nil {
				return nil, fmt.Errorf("account %q: %w", a.Name, err)
			}
			if a.Category == "" {
				a.Category = rule.Category
			}
			if a.Subcategory == "" && a.Category == rule.Category {
				a.Subcategory = rule.Subcategory
			}
		}
		out[i] = a
	}
	return out, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
