package crud

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/bitechdev/AdminSpec/pkg/reflection"
)

// SyncResult is the delta a many-to-many sync produced.
type SyncResult struct {
	Attached  []int64 `json:"attached"`
	Detached  []int64 `json:"detached"`
	Unchanged []int64 `json:"unchanged"`
}

// Changed reports whether the sync altered the stored membership.
func (s *SyncResult) Changed() bool {
	return len(s.Attached) > 0 || len(s.Detached) > 0
}

// Repository executes sanitized query options and write operations for
// one entity type against a gorm connection. It carries no request
// state; bind it to a transaction with WithTx for atomic work.
type Repository struct {
	db    *gorm.DB
	model Model
	name  string
	pk    string
}

func NewRepository(db *gorm.DB, model Model) *Repository {
	return &Repository{
		db:    db,
		model: model,
		name:  reflection.BaseModelName(model),
		pk:    reflection.PrimaryKeyDBName(model),
	}
}

// WithTx returns a copy of the repository bound to the given
// transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx, model: r.model, name: r.name, pk: r.pk}
}

// Find loads a single record by primary key.
func (r *Repository) Find(ctx context.Context, id int64) (any, error) {
	return r.FindWithOptions(ctx, id, Options{})
}

// FindWithOptions loads a single record with the sanitized eager-load
// and count options applied.
func (r *Repository) FindWithOptions(ctx context.Context, id int64, opts Options) (any, error) {
	rec := reflection.NewOf(r.model)
	q := r.applyLoads(r.db.WithContext(ctx), opts.With, opts.WithCount)
	err := q.First(rec, fmt.Sprintf("%s.%s = ?", r.model.TableName(), r.pk), id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound(r.name)
		}
		return nil, err
	}
	return rec, nil
}

// List returns every record matching the sanitized options, ordered by
// the requested sort or the entity's default sort.
func (r *Repository) List(ctx context.Context, opts Options) (any, error) {
	dest := reflection.NewSliceOf(r.model)
	q := r.applyLoads(r.db.WithContext(ctx).Model(reflection.NewOf(r.model)), opts.With, r.countsForList(opts))
	table := r.model.TableName()
	for field, value := range opts.Where {
		q = q.Where(fmt.Sprintf("%s.%s = ?", table, field), value)
	}
	q = r.applySort(q, opts.Sort)
	if err := q.Find(dest).Error; err != nil {
		return nil, err
	}
	return dest, nil
}

// Create inserts one row from an already-whitelisted field map.
func (r *Repository) Create(ctx context.Context, fields map[string]any) (any, error) {
	rec := reflection.NewOf(r.model)
	if err := reflection.SetFields(ctx, rec, fields); err != nil {
		return nil, NewCreateFailed(r.name, err)
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, NewCreateFailed(r.name, err)
	}
	return rec, nil
}

// FirstOrCreate finds a row matching matchFields or creates one from
// the union of matchFields and insertFields. The second return value
// reports whether a row was created.
func (r *Repository) FirstOrCreate(ctx context.Context, matchFields, insertFields map[string]any) (any, bool, error) {
	rec := reflection.NewOf(r.model)
	err := r.db.WithContext(ctx).Where(map[string]any(matchFields)).First(rec).Error
	if err == nil {
		return rec, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, NewCreateFailed(r.name, err)
	}
	created, err := r.Create(ctx, mergeFields(matchFields, insertFields))
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// Insert creates multiple rows one at a time so every created row's
// identifier is populated. A mid-batch failure aborts the batch;
// atomicity is the caller's transaction's job.
func (r *Repository) Insert(ctx context.Context, fieldSets []map[string]any) ([]any, error) {
	out := make([]any, 0, len(fieldSets))
	for _, fields := range fieldSets {
		rec, err := r.Create(ctx, fields)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Update applies a partial field set to an existing row after a dirty
// check. When no field actually changes it returns the loaded record
// together with a NotModified error so callers can still run relation
// processing against it.
func (r *Repository) Update(ctx context.Context, id int64, fields map[string]any) (any, error) {
	rec, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	changed := make(map[string]any, len(fields))
	for column, value := range fields {
		if reflection.FieldChanged(ctx, rec, column, value) {
			changed[column] = value
		}
	}
	if len(changed) == 0 {
		return rec, NewNotModified(r.name)
	}
	if err := reflection.SetFields(ctx, rec, changed); err != nil {
		return nil, NewUpdateFailed(r.name, err)
	}
	columns := make([]string, 0, len(changed))
	for column := range changed {
		columns = append(columns, column)
	}
	if err := r.db.WithContext(ctx).Model(rec).Select(columns).Updates(rec).Error; err != nil {
		return nil, NewUpdateFailed(r.name, err)
	}
	return rec, nil
}

// UpdateOrCreate updates the row matching matchFields or creates one
// from the union of both maps. The second return value reports whether
// a row was created. The update branch keeps Update's dirty-check
// behavior, NotModified included.
func (r *Repository) UpdateOrCreate(ctx context.Context, matchFields, fields map[string]any) (any, bool, error) {
	existing := reflection.NewOf(r.model)
	err := r.db.WithContext(ctx).Where(map[string]any(matchFields)).First(existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, NewUpdateFailed(r.name, err)
		}
		rec, createErr := r.Create(ctx, mergeFields(matchFields, fields))
		if createErr != nil {
			return nil, false, createErr
		}
		return rec, true, nil
	}
	id, ok := reflection.PrimaryKeyValue(existing)
	if !ok {
		return nil, false, NewUpdateFailed(r.name, fmt.Errorf("matched %s row has no primary key", r.name))
	}
	rec, err := r.Update(ctx, id, fields)
	return rec, false, err
}

// Sync replaces the full membership of a many-to-many relation with
// exactly the given id set and returns the attach/detach delta. An
// undeclared relation name is a programmer error and fails loudly.
func (r *Repository) Sync(ctx context.Context, parentID int64, relationName string, ids []int64) (*SyncResult, error) {
	rel, ok := reflection.RelationByName(r.model, relationName)
	if !ok || rel.Kind != schema.Many2Many {
		return nil, fmt.Errorf("relation %q is not a syncable many-to-many relation on %s", relationName, r.name)
	}

	var current []int64
	err := r.db.WithContext(ctx).
		Table(rel.JoinTable).
		Where(fmt.Sprintf("%s = ?", rel.JoinParentKey), parentID).
		Pluck(rel.JoinRelatedKey, &current).Error
	if err != nil {
		return nil, err
	}

	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	have := make(map[int64]struct{}, len(current))
	for _, id := range current {
		have[id] = struct{}{}
	}

	result := &SyncResult{Attached: []int64{}, Detached: []int64{}, Unchanged: []int64{}}
	for _, id := range current {
		if _, keep := want[id]; keep {
			result.Unchanged = append(result.Unchanged, id)
		} else {
			result.Detached = append(result.Detached, id)
		}
	}
	for _, id := range ids {
		if _, exists := have[id]; !exists {
			result.Attached = append(result.Attached, id)
		}
	}

	if len(result.Detached) > 0 {
		del := fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND %s IN ?", rel.JoinTable, rel.JoinParentKey, rel.JoinRelatedKey)
		if err := r.db.WithContext(ctx).Exec(del, parentID, result.Detached).Error; err != nil {
			return nil, err
		}
	}
	if len(result.Attached) > 0 {
		rows := make([]map[string]any, 0, len(result.Attached))
		for _, id := range result.Attached {
			rows = append(rows, map[string]any{rel.JoinParentKey: parentID, rel.JoinRelatedKey: id})
		}
		if err := r.db.WithContext(ctx).Table(rel.JoinTable).Create(&rows).Error; err != nil {
			return nil, err
		}
	}
	return result, nil
}

// CreateChildren bulk-creates one-to-many child rows linked to the
// parent, filtering each payload through the child's own fillable
// list. Returns how many children were created.
func (r *Repository) CreateChildren(ctx context.Context, parentID int64, relationName string, items []map[string]any) (int, error) {
	rel, ok := reflection.RelationByName(r.model, relationName)
	if !ok || (rel.Kind != schema.HasMany && rel.Kind != schema.HasOne) {
		return 0, fmt.Errorf("relation %q is not a creatable child relation on %s", relationName, r.name)
	}
	created := 0
	for _, item := range items {
		child := reflection.NewOf(rel.RelatedModel)
		fields := item
		if childModel, ok := child.(Model); ok {
			fields = filterFillable(item, childModel.Fillable())
		}
		if err := reflection.SetFields(ctx, child, fields); err != nil {
			return created, err
		}
		if err := reflection.SetColumnValue(ctx, child, rel.ChildForeignKey, parentID); err != nil {
			return created, err
		}
		if err := r.db.WithContext(ctx).Create(child).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// Reload refreshes a record in place with the given eager loads and
// counts applied.
func (r *Repository) Reload(ctx context.Context, rec any, with, withCount []string) error {
	id, ok := reflection.PrimaryKeyValue(rec)
	if !ok {
		return fmt.Errorf("cannot reload %s without a primary key", r.name)
	}
	q := r.applyLoads(r.db.WithContext(ctx), with, withCount)
	return q.First(rec, fmt.Sprintf("%s.%s = ?", r.model.TableName(), r.pk), id).Error
}

// Delete removes a row. A referential-integrity failure becomes the
// DeleteBlockedByReference outcome instead of a generic failure.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	rec, err := r.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(rec).Error; err != nil {
		if IsForeignKeyViolation(err) {
			return NewDeleteBlockedByReference(r.name, err)
		}
		return NewDeleteFailed(r.name, err)
	}
	return nil
}

// DeleteMultiple bulk-deletes by primary key and returns how many rows
// went away. An empty id set is a no-op.
func (r *Repository) DeleteMultiple(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where(fmt.Sprintf("%s IN ?", r.pk), ids).
		Delete(reflection.NewOf(r.model))
	if res.Error != nil {
		return 0, NewDeleteFailed(r.name, res.Error)
	}
	return res.RowsAffected, nil
}

// Restore clears the soft-delete marker on a row.
func (r *Repository) Restore(ctx context.Context, id int64) error {
	if !reflection.HasDeletedAt(r.model) {
		return NewRestoreFailed(r.name, fmt.Errorf("%s does not support soft deletes", r.name))
	}
	rec := reflection.NewOf(r.model)
	err := r.db.WithContext(ctx).Unscoped().
		First(rec, fmt.Sprintf("%s.%s = ?", r.model.TableName(), r.pk), id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewNotFound(r.name)
		}
		return NewRestoreFailed(r.name, err)
	}
	if err := r.db.WithContext(ctx).Unscoped().Model(rec).Update("deleted_at", nil).Error; err != nil {
		return NewRestoreFailed(r.name, err)
	}
	return nil
}

// applyLoads attaches the eager-load preloads and count subqueries for
// already-whitelisted relation names.
func (r *Repository) applyLoads(q *gorm.DB, with, withCount []string) *gorm.DB {
	for _, name := range with {
		if rel, ok := reflection.RelationByName(r.model, name); ok {
			q = q.Preload(rel.FieldName)
		}
	}
	if len(withCount) > 0 {
		table := r.model.TableName()
		selects := []string{table + ".*"}
		for _, name := range withCount {
			if sub := r.countSelect(name); sub != "" {
				selects = append(selects, sub)
			}
		}
		q = q.Select(strings.Join(selects, ", "))
	}
	return q
}

// countSelect builds a correlated COUNT subquery aliased to the
// aggregate column (e.g. roles_count). Soft-deleted related rows are
// excluded, matching what a direct eager load would return.
func (r *Repository) countSelect(relationName string) string {
	rel, ok := reflection.RelationByName(r.model, relationName)
	if !ok {
		return ""
	}
	table := r.model.TableName()
	var from, match string
	switch rel.Kind {
	case schema.Many2Many:
		from = rel.JoinTable
		match = fmt.Sprintf("%s.%s = %s.%s", rel.JoinTable, rel.JoinParentKey, table, r.pk)
	case schema.HasMany, schema.HasOne:
		from = rel.ChildTable
		match = fmt.Sprintf("%s.%s = %s.%s", rel.ChildTable, rel.ChildForeignKey, table, r.pk)
		if reflection.HasDeletedAt(rel.RelatedModel) {
			match += fmt.Sprintf(" AND %s.deleted_at IS NULL", rel.ChildTable)
		}
	default:
		return ""
	}
	return fmt.Sprintf("(SELECT COUNT(*) FROM %s WHERE %s) AS %s_count", from, match, relationName)
}

// countsForList adds the count subquery an aggregate sort depends on
// when the caller sorted by e.g. roles_count without requesting it.
func (r *Repository) countsForList(opts Options) []string {
	counts := append([]string{}, opts.WithCount...)
	for _, sf := range opts.Sort {
		if !contains(r.model.Aggregates(), sf.Column) {
			continue
		}
		relation := strings.TrimSuffix(sf.Column, "_count")
		if !contains(counts, relation) && contains(r.model.WithCountable(), relation) {
			counts = append(counts, relation)
		}
	}
	return counts
}

// applySort orders the query by the sanitized sort list, falling back
// to the entity's default sort. Aggregate aliases are never
// table-qualified.
func (r *Repository) applySort(q *gorm.DB, sort []SortField) *gorm.DB {
	if len(sort) == 0 {
		sort = []SortField{DefaultSort(r.model)}
	}
	table := r.model.TableName()
	for _, sf := range sort {
		column := sf.Column
		if !contains(r.model.Aggregates(), column) {
			column = table + "." + column
		}
		direction := "ASC"
		if sf.Descending {
			direction = "DESC"
		}
		q = q.Order(fmt.Sprintf("%s %s", column, direction))
	}
	return q
}

func filterFillable(payload map[string]any, fillable []string) map[string]any {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		if contains(fillable, key) {
			out[key] = value
		}
	}
	return out
}

func mergeFields(base, extra map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
