package crud

import (
	"strings"

	"github.com/bitechdev/AdminSpec/pkg/reflection"
)

// SortField is one ORDER BY term.
type SortField struct {
	Column     string
	Descending bool
}

// Options is the sanitized option set a single request resolves to.
// Everything in it has already passed the entity's whitelists; the
// repository consumes it without further checks.
type Options struct {
	Where     map[string]string
	With      []string
	WithCount []string
	Sort      []SortField
}

// ParseOptions filters raw query parameters against the model's
// metadata. Unknown keys, relations and sort columns are silently
// dropped; the validation layer is responsible for rejecting them
// before this runs.
func ParseOptions(params map[string][]string, model Model) Options {
	opts := Options{
		Where:     extractWhere(params, model),
		With:      intersect(SplitList(firstParam(params, "with")), model.Withable()),
		WithCount: intersect(SplitList(firstParam(params, "withCount")), model.WithCountable()),
	}
	for _, token := range SplitList(firstParam(params, "sort")) {
		column, desc := stripSortSign(token)
		if contains(model.Sortable(), column) {
			opts.Sort = append(opts.Sort, SortField{Column: column, Descending: desc})
		}
	}
	return opts
}

// DefaultSort is the fallback ordering when a request carries no valid
// sort token: the first declared sortable column, or the primary key.
func DefaultSort(model Model) SortField {
	if sortable := model.Sortable(); len(sortable) > 0 {
		column, desc := stripSortSign(sortable[0])
		return SortField{Column: column, Descending: desc}
	}
	return SortField{Column: reflection.PrimaryKeyDBName(model)}
}

func extractWhere(params map[string][]string, model Model) map[string]string {
	allowed := append(append([]string{}, model.Whereable()...), model.MandatoryWhereable()...)
	where := make(map[string]string)
	for key, values := range params {
		field, ok := whereKey(key)
		if !ok || len(values) == 0 {
			continue
		}
		if contains(allowed, field) {
			where[field] = values[0]
		}
	}
	return where
}

// whereKey unpacks a "where[field]" parameter name.
func whereKey(key string) (string, bool) {
	if !strings.HasPrefix(key, "where[") || !strings.HasSuffix(key, "]") {
		return "", false
	}
	field := key[len("where[") : len(key)-1]
	if field == "" || strings.ContainsAny(field, "[]") {
		return "", false
	}
	return field, true
}

// SplitList splits a comma-separated parameter into trimmed,
// de-duplicated tokens.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func stripSortSign(token string) (string, bool) {
	switch {
	case strings.HasPrefix(token, "-"):
		return token[1:], true
	case strings.HasPrefix(token, "+"):
		return token[1:], false
	default:
		return token, false
	}
}

func firstParam(params map[string][]string, key string) string {
	if values, ok := params[key]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}
