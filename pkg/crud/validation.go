package crud

import (
	"fmt"
	"strings"
)

// ValidationErrors collects field-indexed failure messages in the
// shape the error envelope serializes them.
type ValidationErrors map[string][]string

func (v ValidationErrors) Add(field, message string) {
	v[field] = append(v[field], message)
}

func (v ValidationErrors) Empty() bool { return len(v) == 0 }

// ValidateListParams runs the whitelist rules against a raw list
// request. It is the actual security boundary; the extractor's
// silent-drop behavior is only a fallback. The development flag
// controls how much the mandatory-fields message reveals.
func ValidateListParams(params map[string][]string, model Model, development bool) ValidationErrors {
	errs := ValidationErrors{}
	validateWhereFields(params, model, errs)
	validateRelationList(firstParam(params, "with"), "with", model.Withable(), errs)
	validateRelationList(firstParam(params, "withCount"), "withCount", model.WithCountable(), errs)
	validateSort(firstParam(params, "sort"), model, errs)
	validateMandatoryFields(params, model, development, errs)
	return errs
}

// ValidateShowParams checks the eager-load parameters of a
// single-record fetch. Filters and sorting do not apply there.
func ValidateShowParams(params map[string][]string, model Model) ValidationErrors {
	errs := ValidationErrors{}
	validateRelationList(firstParam(params, "with"), "with", model.Withable(), errs)
	validateRelationList(firstParam(params, "withCount"), "withCount", model.WithCountable(), errs)
	return errs
}

func validateWhereFields(params map[string][]string, model Model, errs ValidationErrors) {
	allowed := append(append([]string{}, model.Whereable()...), model.MandatoryWhereable()...)
	for key := range params {
		field, ok := whereKey(key)
		if !ok {
			continue
		}
		if !contains(allowed, field) {
			errs.Add("where."+field, fmt.Sprintf("Filtering by '%s' is not allowed.", field))
		}
	}
}

func validateRelationList(raw, param string, allowed []string, errs ValidationErrors) {
	for _, token := range SplitList(raw) {
		if !contains(allowed, token) {
			errs.Add(param, fmt.Sprintf("The relation '%s' is not allowed in %s.", token, param))
		}
	}
}

func validateSort(raw string, model Model, errs ValidationErrors) {
	for _, token := range SplitList(raw) {
		column, _ := stripSortSign(token)
		if !contains(model.Sortable(), column) {
			errs.Add("sort", fmt.Sprintf("Sorting by '%s' is not allowed.", column))
		}
	}
}

func validateMandatoryFields(params map[string][]string, model Model, development bool, errs ValidationErrors) {
	mandatory := model.MandatoryWhereable()
	if len(mandatory) == 0 {
		return
	}
	var missing []string
	for _, field := range mandatory {
		if _, ok := params["where["+field+"]"]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) == 0 {
		return
	}
	if development {
		errs.Add("mandatory_fields", fmt.Sprintf("Missing mandatory filter fields: %s.", strings.Join(missing, ", ")))
	} else {
		errs.Add("mandatory_fields", "The request is missing required filters.")
	}
}
