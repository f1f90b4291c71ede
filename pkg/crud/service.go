package crud

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/bitechdev/AdminSpec/pkg/logger"
	"github.com/bitechdev/AdminSpec/pkg/reflection"
)

// Service composes the repository, relation synchronization and the
// metadata-driven reload into one atomic unit of work per write. Every
// write runs inside a single transaction spanning the primary row, the
// relation sync, child creation and the eager reload; any failure
// rolls the whole unit back.
type Service struct {
	db    *gorm.DB
	model Model
	name  string
}

func NewService(db *gorm.DB, model Model) *Service {
	return &Service{db: db, model: model, name: reflection.BaseModelName(model)}
}

// Model exposes the entity metadata the service operates on.
func (s *Service) Model() Model { return s.model }

// Index lists entities using the sanitized options extracted from an
// already-validated request.
func (s *Service) Index(ctx context.Context, params map[string][]string) (any, error) {
	opts := ParseOptions(params, s.model)
	return NewRepository(s.db, s.model).List(ctx, opts)
}

// Find loads one entity with the requested eager loads and counts.
func (s *Service) Find(ctx context.Context, id int64, params map[string][]string) (any, error) {
	opts := ParseOptions(params, s.model)
	return NewRepository(s.db, s.model).FindWithOptions(ctx, id, opts)
}

// Create inserts an entity from the fillable subset of the payload,
// then runs relation processing and reloads the requested relations.
func (s *Service) Create(ctx context.Context, payload map[string]any, opts Options) (any, error) {
	fields := filterFillable(payload, s.model.Fillable())
	if len(fields) == 0 {
		return nil, ErrNoWritableFields
	}
	var result any
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewRepository(tx, s.model)
		rec, err := repo.Create(ctx, fields)
		if err != nil {
			return err
		}
		if _, err := s.processRelations(ctx, repo, rec, payload, opts, false); err != nil {
			return s.wrapWrite(KindCreateFailed, err)
		}
		result = rec
		return nil
	})
	if err != nil {
		logger.Debug("create %s failed: %v", s.name, err)
		return nil, err
	}
	return result, nil
}

// Update applies the fillable subset of the payload to an entity. A
// scalar no-op is only surfaced as NotModified when relation
// processing changed nothing either; either kind of change suffices.
func (s *Service) Update(ctx context.Context, id int64, payload map[string]any, opts Options) (any, error) {
	fields := filterFillable(payload, s.model.Fillable())
	if len(fields) == 0 && !s.hasRelationKeys(payload) {
		return nil, ErrNoWritableFields
	}
	var result any
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewRepository(tx, s.model)

		var notModified *OperationError
		var rec any
		var err error
		if len(fields) > 0 {
			rec, err = repo.Update(ctx, id, fields)
			if err != nil && !IsKind(err, KindNotModified) {
				return err
			}
			if err != nil {
				errors.As(err, &notModified)
			}
		} else {
			rec, err = repo.Find(ctx, id)
			if err != nil {
				return err
			}
			notModified = NewNotModified(s.name)
		}

		changed, err := s.processRelations(ctx, repo, rec, payload, opts, true)
		if err != nil {
			return s.wrapWrite(KindUpdateFailed, err)
		}
		if notModified != nil && !changed {
			return notModified
		}
		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FirstOrCreate returns the entity matching the match fields, creating
// it from match plus payload when absent. Child creation only runs on
// the create branch; a matched entity only gets its syncs applied.
func (s *Service) FirstOrCreate(ctx context.Context, match, payload map[string]any, opts Options) (any, error) {
	matchFields := filterFillable(match, s.model.Fillable())
	if len(matchFields) == 0 {
		return nil, ErrNoWritableFields
	}
	var result any
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewRepository(tx, s.model)
		rec, created, err := repo.FirstOrCreate(ctx, matchFields, filterFillable(payload, s.model.Fillable()))
		if err != nil {
			return err
		}
		if _, err := s.processRelations(ctx, repo, rec, payload, opts, !created); err != nil {
			return s.wrapWrite(KindCreateFailed, err)
		}
		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateOrCreate updates the entity matching the match fields or
// creates it. The update branch keeps Update's compound NotModified
// contract and never creates one-to-many children, so repeated matches
// cannot duplicate child rows.
func (s *Service) UpdateOrCreate(ctx context.Context, match, payload map[string]any, opts Options) (any, error) {
	matchFields := filterFillable(match, s.model.Fillable())
	if len(matchFields) == 0 {
		return nil, ErrNoWritableFields
	}
	var result any
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewRepository(tx, s.model)
		rec, created, err := repo.UpdateOrCreate(ctx, matchFields, filterFillable(payload, s.model.Fillable()))

		var notModified *OperationError
		if err != nil {
			if !IsKind(err, KindNotModified) {
				return err
			}
			errors.As(err, &notModified)
		}

		changed, err := s.processRelations(ctx, repo, rec, payload, opts, !created)
		if err != nil {
			return s.wrapWrite(KindUpdateFailed, err)
		}
		if notModified != nil && !changed {
			return notModified
		}
		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Insert creates multiple entities in one transaction, running
// relation processing for each element of the batch.
func (s *Service) Insert(ctx context.Context, payloads []map[string]any, opts Options) (any, error) {
	if len(payloads) == 0 {
		return nil, ErrNoWritableFields
	}
	fieldSets := make([]map[string]any, 0, len(payloads))
	for _, payload := range payloads {
		fields := filterFillable(payload, s.model.Fillable())
		if len(fields) == 0 {
			return nil, ErrNoWritableFields
		}
		fieldSets = append(fieldSets, fields)
	}
	var result []any
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewRepository(tx, s.model)
		recs, err := repo.Insert(ctx, fieldSets)
		if err != nil {
			return err
		}
		for i, rec := range recs {
			if _, err := s.processRelations(ctx, repo, rec, payloads[i], opts, false); err != nil {
				return s.wrapWrite(KindCreateFailed, err)
			}
		}
		result = recs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes one entity.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return NewRepository(tx, s.model).Delete(ctx, id)
	})
}

// DeleteMultiple sanitizes the raw id list to positive integers and
// bulk-deletes them. An empty or entirely invalid list is a no-op.
func (s *Service) DeleteMultiple(ctx context.Context, rawIDs any) (int64, error) {
	ids := reflection.ToInt64Slice(rawIDs)
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := NewRepository(tx, s.model).DeleteMultiple(ctx, ids)
		deleted = n
		return err
	})
	return deleted, err
}

// Restore un-soft-deletes an entity and returns it with the requested
// eager loads applied.
func (s *Service) Restore(ctx context.Context, id int64, params map[string][]string) (any, error) {
	repo := NewRepository(s.db, s.model)
	if err := repo.Restore(ctx, id); err != nil {
		return nil, err
	}
	return repo.FindWithOptions(ctx, id, ParseOptions(params, s.model))
}

// processRelations runs the declared relation work for one entity:
// sync every syncable key present in the payload (presence with an
// empty list means detach all), create children for creatable keys
// unless skipCreate, then reload the entity with the synced relations
// plus whatever the caller asked for. Reports whether anything was
// attached, detached or created.
func (s *Service) processRelations(ctx context.Context, repo *Repository, rec any, payload map[string]any, opts Options, skipCreate bool) (bool, error) {
	id, ok := reflection.PrimaryKeyValue(rec)
	if !ok {
		return false, errors.New("entity has no primary key after write")
	}

	changed := false
	var synced []string
	for inputKey, relationName := range s.model.SyncableRelations() {
		raw, present := payload[inputKey]
		if !present {
			continue
		}
		res, err := repo.Sync(ctx, id, relationName, reflection.ToInt64Slice(raw))
		if err != nil {
			return false, err
		}
		if res.Changed() {
			changed = true
		}
		synced = append(synced, relationName)
	}

	if !skipCreate {
		for inputKey, relationName := range s.model.CreatableRelations() {
			raw, present := payload[inputKey]
			if !present {
				continue
			}
			items := toMapSlice(raw)
			if len(items) == 0 {
				continue
			}
			n, err := repo.CreateChildren(ctx, id, relationName, items)
			if err != nil {
				return false, err
			}
			if n > 0 {
				changed = true
			}
		}
	}

	with := unionStrings(synced, opts.With)
	if err := repo.Reload(ctx, rec, with, opts.WithCount); err != nil {
		return changed, err
	}
	return changed, nil
}

func (s *Service) hasRelationKeys(payload map[string]any) bool {
	for key := range s.model.SyncableRelations() {
		if _, ok := payload[key]; ok {
			return true
		}
	}
	for key := range s.model.CreatableRelations() {
		if _, ok := payload[key]; ok {
			return true
		}
	}
	return false
}

// wrapWrite types a raw relation-processing failure without
// double-wrapping errors that already carry a kind and status.
func (s *Service) wrapWrite(kind Kind, err error) error {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return err
	}
	if kind == KindCreateFailed {
		return NewCreateFailed(s.name, err)
	}
	return NewUpdateFailed(s.name, err)
}

func toMapSlice(raw any) []map[string]any {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func unionStrings(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
