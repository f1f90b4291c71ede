package adminspec

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/bitechdev/AdminSpec/pkg/common"
	"github.com/bitechdev/AdminSpec/pkg/crud"
	"github.com/bitechdev/AdminSpec/pkg/logger"
)

// Handler serves the generic CRUD endpoints for every resource in the
// registry. It owns no per-request state; a fresh service is built per
// call from the registered model.
type Handler struct {
	db          *gorm.DB
	registry    *crud.Registry
	development bool
}

func NewHandler(db *gorm.DB, registry *crud.Registry, development bool) *Handler {
	return &Handler{db: db, registry: registry, development: development}
}

func (h *Handler) service(vars map[string]string) (*crud.Service, bool) {
	model, ok := h.registry.Get(vars["resource"])
	if !ok {
		return nil, false
	}
	return crud.NewService(h.db, model), true
}

// HandleList serves GET /{resource}.
func (h *Handler) HandleList(w common.ResponseWriter, r common.Request, vars map[string]string) {
	svc, ok := h.service(vars)
	if !ok {
		writeJSON(w, http.StatusNotFound, common.NewErrorResponse("Resource not found."))
		return
	}
	params := r.AllQueryParams()
	if errs := crud.ValidateListParams(params, svc.Model(), h.development); !errs.Empty() {
		writeJSON(w, http.StatusUnprocessableEntity, common.NewValidationErrorResponse(errs))
		return
	}
	result, err := svc.Index(r.UnderlyingRequest().Context(), params)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.Response{Data: result})
}

// HandleGet serves GET /{resource}/{id}.
func (h *Handler) HandleGet(w common.ResponseWriter, r common.Request, vars map[string]string) {
	svc, ok := h.service(vars)
	if !ok {
		writeJSON(w, http.StatusNotFound, common.NewErrorResponse("Resource not found."))
		return
	}
	id, ok := parseID(vars)
	if !ok {
		writeJSON(w, http.StatusNotFound, common.NewErrorResponse("Record not found."))
		return
	}
	params := r.AllQueryParams()
	if errs := crud.ValidateShowParams(params, svc.Model()); !errs.Empty() {
		writeJSON(w, http.StatusUnprocessableEntity, common.NewValidationErrorResponse(errs))
		return
	}
	rec, err := svc.Find(r.UnderlyingRequest().Context(), id, params)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.Response{Data: rec})
}

// HandleCreate serves POST /{resource}.
func (h *Handler) HandleCreate(w common.ResponseWriter, r common.Request, vars map[string]string) {
	svc, ok := h.service(vars)
	if !ok {
		writeJSON(w, http.StatusNotFound, common.NewErrorResponse("Resource not found."))
		return
	}
	payload, ok := decodeObject(w, r)
	if !ok {
		return
	}
	params := r.AllQueryParams()
	if errs := crud.ValidateShowParams(params, svc.Model()); !errs.Empty() {
		writeJSON(w, http.StatusUnprocessableEntity, common.NewValidationErrorResponse(errs))
		return
	}
	opts := crud.ParseOptions(params, svc.Model())
	rec, err := svc.Create(r.UnderlyingRequest().Context(), payload, opts)
	if err != nil {
		if errors.Is(err, crud.ErrNoWritableFields) {
			writeJSON(w, http.StatusUnprocessableEntity,
				common.NewErrorResponse("No valid fields were submitted for create."))
			return
		}
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, common.Response{Data: rec})
}

// HandleUpdate serves PUT /{resource}/{id}.
func (h *Handler) HandleUpdate(w common.ResponseWriter, r common.Request, vars map[string]string) {
	svc, ok := h.service(vars)
	if !ok {
		writeJSON(w, http.StatusNotFound, common.NewErrorResponse("Resource not found."))
		return
	}
	id, ok := parseID(vars)
	if !ok {
		writeJSON(w, http.StatusNotFound, common.NewErrorResponse("Record not found."))
		return
	}
	payload, ok := decodeObject(w, r)
	if !ok {
		return
	}
	params := r.AllQueryParams()
	if errs := crud.ValidateShowParams(params, svc.Model()); !errs.Empty() {
		writeJSON(w, http.StatusUnprocessableEntity, common.NewValidationErrorResponse(errs))
		return
	}
	opts := crud.ParseOptions(params, svc.Model())
	rec, err := svc.Update(r.UnderlyingRequest().Context(), id, payload, opts)
	if err != nil {
		if errors.Is(err, crud.ErrNoWritableFields) {
			writeJSON(w, http.StatusUnprocessableEntity,
				common.NewErrorResponse("No valid fields were submitted for update."))
			return
		}
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.Response{Data: rec})
}

// HandleDelete serves DELETE /{resource}/{id}.
func (h *Handler) HandleDelete(w common.ResponseWriter, r common.Request, vars map[string]string) {
	svc, ok := h.service(vars)
	if !ok {
		writeJSON(w, http.StatusNotFound, common.NewErrorResponse("Resource not found."))
		return
	}
	id, ok := parseID(vars)
	if !ok {
		writeJSON(w, http.StatusNotFound, common.NewErrorResponse("Record not found."))
		return
	}
	if err := svc.Delete(r.UnderlyingRequest().Context(), id); err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.Response{Data: true})
}

// HandleRestore serves POST /{resource}/{id}/restore.
func (h *Handler) HandleRestore(w common.ResponseWriter, r common.Request, vars map[string]string) {
	svc, ok := h.service(vars)
	if !ok {
		writeJSON(w, http.StatusNotFound, common.NewErrorResponse("Resource not found."))
		return
	}
	id, ok := parseID(vars)
	if !ok {
		writeJSON(w, http.StatusNotFound, common.NewErrorResponse("Record not found."))
		return
	}
	rec, err := svc.Restore(r.UnderlyingRequest().Context(), id, r.AllQueryParams())
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.Response{Data: rec})
}

// HandleBulkInsert serves POST /{resource}/bulk with a JSON array body.
func (h *Handler) HandleBulkInsert(w common.ResponseWriter, r common.Request, vars map[string]string) {
	svc, ok := h.service(vars)
	if !ok {
		writeJSON(w, http.StatusNotFound, common.NewErrorResponse("Resource not found."))
		return
	}
	body, err := r.Body()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, common.NewErrorResponse("Unable to read request body."))
		return
	}
	var payloads []map[string]any
	if err := json.Unmarshal(body, &payloads); err != nil {
		writeJSON(w, http.StatusBadRequest, common.NewErrorResponse("Invalid JSON payload."))
		return
	}
	opts := crud.ParseOptions(r.AllQueryParams(), svc.Model())
	recs, err := svc.Insert(r.UnderlyingRequest().Context(), payloads, opts)
	if err != nil {
		if errors.Is(err, crud.ErrNoWritableFields) {
			writeJSON(w, http.StatusUnprocessableEntity,
				common.NewErrorResponse("No valid fields were submitted for create."))
			return
		}
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, common.Response{Data: recs})
}

// HandleFirstOrCreate serves POST /{resource}/first-or-create with a
// {"match": {...}, "fields": {...}} body.
func (h *Handler) HandleFirstOrCreate(w common.ResponseWriter, r common.Request, vars map[string]string) {
	h.handleMatchWrite(w, r, vars, func(svc *crud.Service, match, fields map[string]any, opts crud.Options) (any, error) {
		return svc.FirstOrCreate(r.UnderlyingRequest().Context(), match, fields, opts)
	})
}

// HandleUpdateOrCreate serves POST /{resource}/update-or-create with
// the same body shape as first-or-create.
func (h *Handler) HandleUpdateOrCreate(w common.ResponseWriter, r common.Request, vars map[string]string) {
	h.handleMatchWrite(w, r, vars, func(svc *crud.Service, match, fields map[string]any, opts crud.Options) (any, error) {
		return svc.UpdateOrCreate(r.UnderlyingRequest().Context(), match, fields, opts)
	})
}

func (h *Handler) handleMatchWrite(w common.ResponseWriter, r common.Request, vars map[string]string,
	op func(*crud.Service, map[string]any, map[string]any, crud.Options) (any, error)) {
	svc, ok := h.service(vars)
	if !ok {
		writeJSON(w, http.StatusNotFound, common.NewErrorResponse("Resource not found."))
		return
	}
	body, err := r.Body()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, common.NewErrorResponse("Unable to read request body."))
		return
	}
	var req struct {
		Match  map[string]any `json:"match"`
		Fields map[string]any `json:"fields"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, common.NewErrorResponse("Invalid JSON payload."))
		return
	}
	opts := crud.ParseOptions(r.AllQueryParams(), svc.Model())
	rec, err := op(svc, req.Match, req.Fields, opts)
	if err != nil {
		if errors.Is(err, crud.ErrNoWritableFields) {
			writeJSON(w, http.StatusUnprocessableEntity,
				common.NewErrorResponse("No valid match fields were submitted."))
			return
		}
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.Response{Data: rec})
}

// HandleDeleteMultiple serves POST /{resource}/delete-multiple with a
// {"ids": [...]} body.
func (h *Handler) HandleDeleteMultiple(w common.ResponseWriter, r common.Request, vars map[string]string) {
	svc, ok := h.service(vars)
	if !ok {
		writeJSON(w, http.StatusNotFound, common.NewErrorResponse("Resource not found."))
		return
	}
	body, err := r.Body()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, common.NewErrorResponse("Unable to read request body."))
		return
	}
	var req struct {
		IDs []any `json:"ids"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, common.NewErrorResponse("Invalid JSON payload."))
		return
	}
	deleted, err := svc.DeleteMultiple(r.UnderlyingRequest().Context(), req.IDs)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.Response{Data: map[string]int64{"deleted": deleted}})
}

func decodeObject(w common.ResponseWriter, r common.Request) (map[string]any, bool) {
	body, err := r.Body()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, common.NewErrorResponse("Unable to read request body."))
		return nil, false
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, common.NewErrorResponse("Invalid JSON payload."))
		return nil, false
	}
	return payload, true
}

func parseID(vars map[string]string) (int64, bool) {
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeJSON(w common.ResponseWriter, status int, body any) {
	w.SetHeader("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := w.WriteJSON(body); err != nil {
		logger.Error("Failed to write response: %v", err)
	}
}

// writeOperationError maps a typed operation failure to its derived
// status and client message. Server-class failures keep the cause in
// the log, never in the response body.
func writeOperationError(w common.ResponseWriter, err error) {
	var opErr *crud.OperationError
	if errors.As(err, &opErr) {
		status := opErr.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		if status >= http.StatusInternalServerError {
			logger.Error("Operation failed: %v", err)
		}
		writeJSON(w, status, common.NewErrorResponse(opErr.Message()))
		return
	}
	logger.Error("Unexpected error: %v", err)
	writeJSON(w, http.StatusInternalServerError, common.NewErrorResponse("Internal server error."))
}
