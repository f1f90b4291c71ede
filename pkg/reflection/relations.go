package reflection

import (
	"reflect"
	"strings"

	"gorm.io/gorm/schema"
)

// Relation describes a loadable association in database terms. Join
// metadata is only populated for the relationship kinds that need it.
type Relation struct {
	// Name is the JSON name the API exposes (e.g. "roles").
	Name string
	// FieldName is the Go struct field holding the association.
	FieldName string
	Kind      schema.RelationshipType

	// many2many join table details.
	JoinTable      string
	JoinParentKey  string
	JoinRelatedKey string

	// has-many child details.
	ChildTable      string
	ChildForeignKey string

	// RelatedModel is a zero value of the associated struct type.
	RelatedModel any
}

// RelationByName resolves an association by its exposed name. The name
// matches the field's json tag first, then the lowercased field name.
func RelationByName(model any, name string) (*Relation, bool) {
	s, err := ModelSchema(model)
	if err != nil {
		return nil, false
	}
	for fieldName, rel := range s.Relationships.Relations {
		if rel.Field == nil {
			continue
		}
		if !relationNameMatches(rel.Field, fieldName, name) {
			continue
		}
		out := &Relation{
			Name:         name,
			FieldName:    fieldName,
			Kind:         rel.Type,
			RelatedModel: reflect.New(rel.FieldSchema.ModelType).Interface(),
		}
		switch rel.Type {
		case schema.Many2Many:
			out.JoinTable = rel.JoinTable.Table
			for _, ref := range rel.References {
				if ref.OwnPrimaryKey {
					out.JoinParentKey = ref.ForeignKey.DBName
				} else {
					out.JoinRelatedKey = ref.ForeignKey.DBName
				}
			}
		case schema.HasMany, schema.HasOne:
			out.ChildTable = rel.FieldSchema.Table
			for _, ref := range rel.References {
				if ref.OwnPrimaryKey {
					out.ChildForeignKey = ref.ForeignKey.DBName
				}
			}
		}
		return out, true
	}
	return nil, false
}

func relationNameMatches(field *schema.Field, fieldName, want string) bool {
	tag := field.Tag.Get("json")
	if tag != "" {
		if idx := strings.Index(tag, ","); idx >= 0 {
			tag = tag[:idx]
		}
		if tag == want {
			return true
		}
	}
	return strings.EqualFold(fieldName, want)
}
