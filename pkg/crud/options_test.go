package crud

import (
	"fmt"
	"reflect"
	"testing"
)

type stubModel struct {
	Base
}

func (stubModel) TableName() string            { return "stubs" }
func (stubModel) Fillable() []string           { return []string{"name", "email"} }
func (stubModel) Whereable() []string          { return []string{"name", "email"} }
func (stubModel) MandatoryWhereable() []string { return []string{"tenant_id"} }
func (stubModel) Sortable() []string           { return []string{"name", "roles_count"} }
func (stubModel) Withable() []string           { return []string{"roles", "addresses"} }
func (stubModel) WithCountable() []string      { return []string{"roles"} }
func (stubModel) Aggregates() []string         { return []string{"roles_count"} }

func TestParseOptionsWhere(t *testing.T) {
	params := map[string][]string{
		"where[name]":      {"alice"},
		"where[tenant_id]": {"7"},
		"where[secret]":    {"x"},
		"where[]":          {"y"},
		"unrelated":        {"z"},
	}
	opts := ParseOptions(params, stubModel{})

	want := map[string]string{"name": "alice", "tenant_id": "7"}
	if !reflect.DeepEqual(opts.Where, want) {
		t.Errorf("Where = %v, want %v", opts.Where, want)
	}
}

func TestParseOptionsRelations(t *testing.T) {
	params := map[string][]string{
		"with":      {"roles, addresses,roles,bogus"},
		"withCount": {"roles,addresses"},
	}
	opts := ParseOptions(params, stubModel{})

	if !reflect.DeepEqual(opts.With, []string{"roles", "addresses"}) {
		t.Errorf("With = %v", opts.With)
	}
	// addresses is withable but not countable
	if !reflect.DeepEqual(opts.WithCount, []string{"roles"}) {
		t.Errorf("WithCount = %v", opts.WithCount)
	}
}

func TestParseOptionsSort(t *testing.T) {
	opts := ParseOptions(map[string][]string{"sort": {"-name,+roles_count,bogus"}}, stubModel{})

	want := []SortField{
		{Column: "name", Descending: true},
		{Column: "roles_count", Descending: false},
	}
	if !reflect.DeepEqual(opts.Sort, want) {
		t.Errorf("Sort = %v, want %v", opts.Sort, want)
	}
}

func TestParseOptionsInvalidSortDegradesGracefully(t *testing.T) {
	opts := ParseOptions(map[string][]string{"sort": {"nonexistent_field"}}, stubModel{})
	if len(opts.Sort) != 0 {
		t.Errorf("expected invalid sort token to be dropped, got %v", opts.Sort)
	}
}

// Random keys outside the whitelists must never survive extraction.
func TestParseOptionsWhitelistContainment(t *testing.T) {
	model := stubModel{}
	params := map[string][]string{}
	for i := 0; i < 50; i++ {
		params[fmt.Sprintf("where[junk_%d]", i)] = []string{"v"}
	}
	params["with"] = []string{"junk_a,junk_b,roles"}
	params["withCount"] = []string{"junk_c"}
	params["sort"] = []string{"junk_d,-junk_e,name"}

	opts := ParseOptions(params, model)

	allowedWhere := append(model.Whereable(), model.MandatoryWhereable()...)
	for field := range opts.Where {
		if !contains(allowedWhere, field) {
			t.Errorf("where field %q escaped the whitelist", field)
		}
	}
	for _, rel := range opts.With {
		if !contains(model.Withable(), rel) {
			t.Errorf("with relation %q escaped the whitelist", rel)
		}
	}
	for _, rel := range opts.WithCount {
		if !contains(model.WithCountable(), rel) {
			t.Errorf("withCount relation %q escaped the whitelist", rel)
		}
	}
	for _, sf := range opts.Sort {
		if !contains(model.Sortable(), sf.Column) {
			t.Errorf("sort column %q escaped the whitelist", sf.Column)
		}
	}
}

func TestDefaultSort(t *testing.T) {
	sf := DefaultSort(stubModel{})
	if sf.Column != "name" || sf.Descending {
		t.Errorf("DefaultSort = %+v, want name ascending", sf)
	}
}

type bareModel struct{ Base }

func (bareModel) TableName() string { return "bares" }

func TestDefaultSortFallsBackToPrimaryKey(t *testing.T) {
	sf := DefaultSort(bareModel{})
	if sf.Column != "id" || sf.Descending {
		t.Errorf("DefaultSort = %+v, want id ascending", sf)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" a, b ,a,,c ")
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("SplitList = %v", got)
	}
	if SplitList("  ") != nil {
		t.Error("expected nil for blank input")
	}
}
