package utils

import (
	"errors"
	"strings"
	"testing"
)

type loanRequest struct {
	OrganizationID string  `json:"organization_id" required:"true"`
	Principal      float64 `json:"principal"`
	Items          []item  `json:"items"`
}

type item struct {
	Name   string  `json:"name" required:"true"`
	Amount float64 `json:"amount"`
}

func TestDecodeLenient(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantMode DecodeMode
	}{
		{"Standard JSON", `{"organization_id": "org-1", "principal": 1500.5}`, ModeJSON},
		{"Trailing comma", `{"organization_id": "org-1", "principal": 1500.5,}`, ""},
		{"Single quotes", `{'organization_id': 'org-1', 'principal': 1500.5}`, ""},
		{"Comments", "{\n  // request\n  \"organization_id\": \"org-1\",\n  \"principal\": 1500.5\n}", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req loanRequest
			mode, err := DecodeLenient([]byte(tt.input), &req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantMode != "" && mode != tt.wantMode {
				t.Errorf("expected mode %s, got %s", tt.wantMode, mode)
			}
			if mode == "" {
				t.Error("mode should always be reported on success")
			}
			if req.OrganizationID != "org-1" || req.Principal != 1500.5 {
				t.Errorf("unexpected decode result: %+v", req)
			}
		})
	}
}

func TestDecodeLenient_TypeMismatchIsNotRepaired(t *testing.T) {
	req := loanRequest{OrganizationID: "keep"}
	_, err := DecodeLenient([]byte(`{"organization_id": "org-1", "principal": "lots"}`), &req)
	if err == nil || !strings.Contains(err.Error(), "JSON_STRUCTURAL_ERROR") {
		t.Fatalf("expected structural error, got %v", err)
	}
	if req.OrganizationID != "keep" {
		t.Errorf("failed decode modified target: %+v", req)
	}
}

func TestDecodeLenient_Errors(t *testing.T) {
	var req loanRequest
	if _, err := DecodeLenient([]byte(`{}`), req); err == nil {
		t.Error("non-pointer target should fail")
	}
	if _, err := DecodeLenient([]byte(`[1, 2, 3]`), &req); err == nil {
		t.Error("array body into struct should fail")
	}
	if _, err := DecodeLenient([]byte(`{"principal": [1, 2`), &req); err != nil && !errors.Is(err, ErrUndecodable) {
		t.Errorf("expected ErrUndecodable or a repaired decode, got %v", err)
	}
}

func TestRequireFields(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		wantErr string
	}{
		{"All present", &loanRequest{OrganizationID: "org", Items: []item{{Name: "rent"}}}, ""},
		{"Missing top level", loanRequest{}, "organization_id"},
		{"Missing nested", loanRequest{OrganizationID: "org", Items: []item{{Name: "rent"}, {Amount: 4}}}, "items[1].name"},
		{"Nil pointer", (*loanRequest)(nil), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireFields(tt.value)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}
