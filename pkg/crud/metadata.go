package crud

// Model is the capability interface every managed entity implements.
// The accessors are pure declaration; consumers treat a nil or empty
// return as "nothing allowed".
type Model interface {
	// TableName returns the database table backing the entity.
	TableName() string

	// Fillable lists the columns that may be mass-assigned from
	// request payloads.
	Fillable() []string

	// Whereable lists the columns that may appear as exact-match
	// filters in a list request.
	Whereable() []string

	// MandatoryWhereable lists the subset of filterable columns that
	// MUST be present in every list request.
	MandatoryWhereable() []string

	// Sortable lists the columns eligible for ordering. An entry may
	// carry a leading "-" to make it descending when used as the
	// default sort.
	Sortable() []string

	// Withable lists the relations eligible for eager loading.
	Withable() []string

	// WithCountable lists the relations eligible for count
	// aggregation.
	WithCountable() []string

	// SyncableRelations maps a payload key (e.g. "role_ids") to the
	// many-to-many relation it synchronizes (e.g. "roles").
	SyncableRelations() map[string]string

	// CreatableRelations maps a payload key (e.g. "addresses") to the
	// one-to-many relation whose children it creates.
	CreatableRelations() map[string]string

	// Aggregates lists computed columns (e.g. "roles_count") that must
	// not be table-qualified when used in an ORDER BY.
	Aggregates() []string
}

// Base provides empty defaults for the optional metadata accessors so
// entities only declare what they actually use.
type Base struct{}

func (Base) Fillable() []string                     { return nil }
func (Base) Whereable() []string                    { return nil }
func (Base) MandatoryWhereable() []string           { return nil }
func (Base) Sortable() []string                     { return nil }
func (Base) Withable() []string                     { return nil }
func (Base) WithCountable() []string                { return nil }
func (Base) SyncableRelations() map[string]string   { return nil }
func (Base) CreatableRelations() map[string]string  { return nil }
func (Base) Aggregates() []string                   { return nil }

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

// intersect keeps the values present in the whitelist, preserving the
// input order and dropping duplicates.
func intersect(values, whitelist []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if contains(whitelist, v) {
			out = append(out, v)
		}
	}
	return out
}
