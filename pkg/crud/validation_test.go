package crud

import (
	"strings"
	"testing"
)

func TestValidateListParamsPasses(t *testing.T) {
	params := map[string][]string{
		"where[name]":      {"alice"},
		"where[tenant_id]": {"7"},
		"with":             {"roles,addresses"},
		"withCount":        {"roles"},
		"sort":             {"-name"},
	}
	errs := ValidateListParams(params, stubModel{}, true)
	if !errs.Empty() {
		t.Errorf("expected no validation errors, got %v", errs)
	}
}

func TestValidateListParamsRejectsUnknownWhere(t *testing.T) {
	params := map[string][]string{
		"where[password]":  {"x"},
		"where[tenant_id]": {"7"},
	}
	errs := ValidateListParams(params, stubModel{}, true)
	if _, ok := errs["where.password"]; !ok {
		t.Errorf("expected where.password error, got %v", errs)
	}
}

func TestValidateListParamsRejectsUnknownRelation(t *testing.T) {
	params := map[string][]string{
		"where[tenant_id]": {"7"},
		"with":             {"roles,secrets"},
		"withCount":        {"addresses"},
	}
	errs := ValidateListParams(params, stubModel{}, true)
	if _, ok := errs["with"]; !ok {
		t.Errorf("expected with error, got %v", errs)
	}
	// addresses is eager-loadable but not countable
	if _, ok := errs["withCount"]; !ok {
		t.Errorf("expected withCount error, got %v", errs)
	}
}

func TestValidateListParamsRejectsUnknownSort(t *testing.T) {
	params := map[string][]string{
		"where[tenant_id]": {"7"},
		"sort":             {"-nonexistent_field"},
	}
	errs := ValidateListParams(params, stubModel{}, true)
	if _, ok := errs["sort"]; !ok {
		t.Errorf("expected sort error, got %v", errs)
	}
}

func TestValidateListParamsMandatoryFields(t *testing.T) {
	errs := ValidateListParams(map[string][]string{"where[name]": {"alice"}}, stubModel{}, true)
	msgs, ok := errs["mandatory_fields"]
	if !ok {
		t.Fatalf("expected mandatory_fields error, got %v", errs)
	}
	if !strings.Contains(msgs[0], "tenant_id") {
		t.Errorf("development message should name the missing field: %q", msgs[0])
	}

	// any value satisfies the mandatory check
	errs = ValidateListParams(map[string][]string{"where[tenant_id]": {""}}, stubModel{}, true)
	if _, ok := errs["mandatory_fields"]; ok {
		t.Errorf("mandatory field present should pass, got %v", errs)
	}
}

func TestValidateListParamsMandatoryMessageInProduction(t *testing.T) {
	errs := ValidateListParams(map[string][]string{}, stubModel{}, false)
	msgs, ok := errs["mandatory_fields"]
	if !ok {
		t.Fatalf("expected mandatory_fields error, got %v", errs)
	}
	if strings.Contains(msgs[0], "tenant_id") {
		t.Errorf("production message must not name fields: %q", msgs[0])
	}
}

func TestValidateShowParams(t *testing.T) {
	errs := ValidateShowParams(map[string][]string{"with": {"roles"}}, stubModel{})
	if !errs.Empty() {
		t.Errorf("expected no errors, got %v", errs)
	}
	errs = ValidateShowParams(map[string][]string{"with": {"secrets"}}, stubModel{})
	if _, ok := errs["with"]; !ok {
		t.Errorf("expected with error, got %v", errs)
	}
}
