package reflection

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"gorm.io/gorm/schema"
)

var (
	schemaCache = &sync.Map{}
	namer       = schema.NamingStrategy{}
)

// ModelSchema parses and caches the GORM schema for a model.
// The model may be a struct, a pointer to a struct, or a slice of either.
func ModelSchema(model any) (*schema.Schema, error) {
	if model == nil {
		return nil, fmt.Errorf("model cannot be nil")
	}
	return schema.Parse(model, schemaCache, namer)
}

// BaseModelName returns the bare struct type name of a model (e.g. "User").
// Used for error messages so they name the entity, not the Go path.
func BaseModelName(model any) string {
	t := reflect.TypeOf(model)
	for t != nil && (t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice || t.Kind() == reflect.Array) {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}

// NewOf returns a pointer to a fresh zero value of the model's struct type.
func NewOf(model any) any {
	t := reflect.TypeOf(model)
	for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	return reflect.New(t).Interface()
}

// NewSliceOf returns a pointer to an empty slice of pointers to the
// model's struct type, suitable as a Find destination.
func NewSliceOf(model any) any {
	t := reflect.TypeOf(model)
	for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	return reflect.New(reflect.SliceOf(reflect.PointerTo(t))).Interface()
}

// PrimaryKeyDBName returns the database column name of the model's
// primary key, or "id" when the schema cannot be parsed.
func PrimaryKeyDBName(model any) string {
	s, err := ModelSchema(model)
	if err != nil || len(s.PrimaryFields) == 0 {
		return "id"
	}
	return s.PrimaryFields[0].DBName
}

// PrimaryKeyValue reads the primary key of a record as int64.
func PrimaryKeyValue(rec any) (int64, bool) {
	s, err := ModelSchema(rec)
	if err != nil || len(s.PrimaryFields) == 0 {
		return 0, false
	}
	v, zero := s.PrimaryFields[0].ValueOf(context.Background(), reflect.ValueOf(rec))
	if zero {
		return 0, false
	}
	switch id := v.(type) {
	case int64:
		return id, true
	case int:
		return int64(id), true
	case uint:
		return int64(id), true
	case uint64:
		return int64(id), true
	case int32:
		return int64(id), true
	case uint32:
		return int64(id), true
	default:
		return 0, false
	}
}

// SetFields assigns the given column -> value map onto a record,
// converting values to the field types (JSON numbers arrive as float64).
// Unknown columns are ignored.
func SetFields(ctx context.Context, rec any, fields map[string]any) error {
	s, err := ModelSchema(rec)
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(rec)
	for column, value := range fields {
		field, ok := s.FieldsByDBName[column]
		if !ok {
			continue
		}
		if err := field.Set(ctx, rv, value); err != nil {
			return fmt.Errorf("cannot assign %q: %w", column, err)
		}
	}
	return nil
}

// FieldValue reads a record field by database column name.
func FieldValue(ctx context.Context, rec any, column string) (any, bool) {
	s, err := ModelSchema(rec)
	if err != nil {
		return nil, false
	}
	field, ok := s.FieldsByDBName[column]
	if !ok {
		return nil, false
	}
	v, _ := field.ValueOf(ctx, reflect.ValueOf(rec))
	return v, true
}

// SetColumnValue assigns a single column on a record.
func SetColumnValue(ctx context.Context, rec any, column string, value any) error {
	s, err := ModelSchema(rec)
	if err != nil {
		return err
	}
	field, ok := s.FieldsByDBName[column]
	if !ok {
		return fmt.Errorf("unknown column %q on %s", column, s.Name)
	}
	return field.Set(ctx, reflect.ValueOf(rec), value)
}

// FieldChanged reports whether assigning newValue to the given column
// would change the record. Values are compared after normalization so
// a JSON float64(30) equals a stored uint(30).
func FieldChanged(ctx context.Context, rec any, column string, newValue any) bool {
	current, ok := FieldValue(ctx, rec, column)
	if !ok {
		return false
	}
	return NormalizeValue(current) != NormalizeValue(newValue)
}

// HasDeletedAt reports whether the model supports soft deletes.
func HasDeletedAt(model any) bool {
	s, err := ModelSchema(model)
	if err != nil {
		return false
	}
	_, ok := s.FieldsByDBName["deleted_at"]
	return ok
}

// NormalizeValue renders a scalar to a canonical string for dirty
// checking. Integers and whole floats collapse to the same form.
func NormalizeValue(v any) string {
	if v == nil {
		return ""
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", rv.Interface())
	}
}

// ToInt64Slice coerces a decoded JSON array into a slice of positive
// integers, silently dropping anything that is not one.
func ToInt64Slice(value any) []int64 {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil
	}
	out := make([]int64, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		var id int64
		switch x := rv.Index(i).Interface().(type) {
		case float64:
			id = int64(x)
		case int:
			id = int64(x)
		case int64:
			id = x
		case json.Number:
			parsed, err := x.Int64()
			if err != nil {
				continue
			}
			id = parsed
		case string:
			parsed, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
			if err != nil {
				continue
			}
			id = parsed
		default:
			continue
		}
		if id > 0 {
			out = append(out, id)
		}
	}
	return out
}
