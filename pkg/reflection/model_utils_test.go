package reflection

import (
	"context"
	"reflect"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type testAuthor struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:255" json:"name"`
	Age       int    `json:"age"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty"`

	Books []*testBook `gorm:"foreignKey:AuthorID" json:"books,omitempty"`
	Tags  []*testTag  `gorm:"many2many:author_tags" json:"tags,omitempty"`
}

type testBook struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	AuthorID int64  `json:"author_id"`
	Title    string `json:"title"`
}

type testTag struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `json:"name"`
}

func TestBaseModelName(t *testing.T) {
	if got := BaseModelName(&testAuthor{}); got != "testAuthor" {
		t.Errorf("BaseModelName = %q", got)
	}
	if got := BaseModelName([]*testAuthor{}); got != "testAuthor" {
		t.Errorf("BaseModelName slice = %q", got)
	}
}

func TestNewOfAndNewSliceOf(t *testing.T) {
	rec := NewOf(&testAuthor{})
	if _, ok := rec.(*testAuthor); !ok {
		t.Fatalf("NewOf returned %T", rec)
	}
	slice := NewSliceOf(&testAuthor{})
	if _, ok := slice.(*[]*testAuthor); !ok {
		t.Fatalf("NewSliceOf returned %T", slice)
	}
}

func TestPrimaryKey(t *testing.T) {
	if got := PrimaryKeyDBName(&testAuthor{}); got != "id" {
		t.Errorf("PrimaryKeyDBName = %q", got)
	}
	id, ok := PrimaryKeyValue(&testAuthor{ID: 42})
	if !ok || id != 42 {
		t.Errorf("PrimaryKeyValue = %d, %v", id, ok)
	}
	if _, ok := PrimaryKeyValue(&testAuthor{}); ok {
		t.Error("zero primary key should not report ok")
	}
}

func TestSetFieldsIgnoresUnknownColumns(t *testing.T) {
	rec := &testAuthor{}
	err := SetFields(context.Background(), rec, map[string]any{
		"name":    "Ursula",
		"age":     float64(30),
		"unknown": "dropped",
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "Ursula" || rec.Age != 30 {
		t.Errorf("got %+v", rec)
	}
}

func TestFieldChanged(t *testing.T) {
	rec := &testAuthor{Name: "Ursula", Age: 30}
	if FieldChanged(context.Background(), rec, "name", "Ursula") {
		t.Error("same string should not be a change")
	}
	// JSON numbers arrive as float64; whole floats match ints.
	if FieldChanged(context.Background(), rec, "age", float64(30)) {
		t.Error("float64(30) should equal int 30")
	}
	if !FieldChanged(context.Background(), rec, "age", float64(31)) {
		t.Error("different value should be a change")
	}
}

func TestHasDeletedAt(t *testing.T) {
	if !HasDeletedAt(&testAuthor{}) {
		t.Error("testAuthor has deleted_at")
	}
	if HasDeletedAt(&testBook{}) {
		t.Error("testBook has no deleted_at")
	}
}

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{int(30), "30"},
		{int64(30), "30"},
		{float64(30), "30"},
		{float64(30.5), "30.5"},
		{true, "true"},
		{(*string)(nil), ""},
	}
	for _, tt := range tests {
		if got := NormalizeValue(tt.in); got != tt.want {
			t.Errorf("NormalizeValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToInt64Slice(t *testing.T) {
	got := ToInt64Slice([]any{float64(1), int(2), int64(3), "4", " 5 ", "junk", float64(-1), float64(0)})
	want := []int64{1, 2, 3, 4, 5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToInt64Slice = %v, want %v", got, want)
	}
	if got := ToInt64Slice("not a slice"); got != nil {
		t.Errorf("non-slice input should return nil, got %v", got)
	}
	if got := ToInt64Slice(nil); got != nil {
		t.Errorf("nil input should return nil, got %v", got)
	}
}

func TestRelationByNameManyToMany(t *testing.T) {
	rel, ok := RelationByName(&testAuthor{}, "tags")
	if !ok {
		t.Fatal("tags relation not found")
	}
	if rel.Kind != schema.Many2Many {
		t.Errorf("Kind = %v", rel.Kind)
	}
	if rel.JoinTable != "author_tags" {
		t.Errorf("JoinTable = %q", rel.JoinTable)
	}
	if rel.JoinParentKey != "test_author_id" || rel.JoinRelatedKey != "test_tag_id" {
		t.Errorf("join keys = %q, %q", rel.JoinParentKey, rel.JoinRelatedKey)
	}
	if _, ok := rel.RelatedModel.(*testTag); !ok {
		t.Errorf("RelatedModel = %T", rel.RelatedModel)
	}
}

func TestRelationByNameHasMany(t *testing.T) {
	rel, ok := RelationByName(&testAuthor{}, "books")
	if !ok {
		t.Fatal("books relation not found")
	}
	if rel.Kind != schema.HasMany {
		t.Errorf("Kind = %v", rel.Kind)
	}
	if rel.ChildTable != "test_books" {
		t.Errorf("ChildTable = %q", rel.ChildTable)
	}
	if rel.ChildForeignKey != "author_id" {
		t.Errorf("ChildForeignKey = %q", rel.ChildForeignKey)
	}
}

func TestRelationByNameMisses(t *testing.T) {
	if _, ok := RelationByName(&testAuthor{}, "publisher"); ok {
		t.Error("unknown relation should not resolve")
	}
	if _, ok := RelationByName(&testAuthor{}, "name"); ok {
		t.Error("plain column is not a relation")
	}
}
