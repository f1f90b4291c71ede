package adminspec

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bitechdev/AdminSpec/pkg/common"
	"github.com/bitechdev/AdminSpec/pkg/logger"
)

// SetupMuxRoutes registers the CRUD endpoints on a gorilla/mux router.
// The fixed-path operations are declared before the numeric id routes
// so the router never mistakes them for an id.
func SetupMuxRoutes(router *mux.Router, handler *Handler) {
	router.HandleFunc("/{resource}", handler.wrap(handler.HandleList)).Methods(http.MethodGet)
	router.HandleFunc("/{resource}", handler.wrap(handler.HandleCreate)).Methods(http.MethodPost)
	router.HandleFunc("/{resource}/bulk", handler.wrap(handler.HandleBulkInsert)).Methods(http.MethodPost)
	router.HandleFunc("/{resource}/first-or-create", handler.wrap(handler.HandleFirstOrCreate)).Methods(http.MethodPost)
	router.HandleFunc("/{resource}/update-or-create", handler.wrap(handler.HandleUpdateOrCreate)).Methods(http.MethodPost)
	router.HandleFunc("/{resource}/delete-multiple", handler.wrap(handler.HandleDeleteMultiple)).Methods(http.MethodPost)
	router.HandleFunc("/{resource}/{id:[0-9]+}", handler.wrap(handler.HandleGet)).Methods(http.MethodGet)
	router.HandleFunc("/{resource}/{id:[0-9]+}", handler.wrap(handler.HandleUpdate)).Methods(http.MethodPut)
	router.HandleFunc("/{resource}/{id:[0-9]+}", handler.wrap(handler.HandleDelete)).Methods(http.MethodDelete)
	router.HandleFunc("/{resource}/{id:[0-9]+}/restore", handler.wrap(handler.HandleRestore)).Methods(http.MethodPost)
}

// wrap adapts a handler method to net/http, adding panic recovery so a
// misbehaving model can never take the server down.
func (h *Handler) wrap(fn func(common.ResponseWriter, common.Request, map[string]string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rw, req := common.WrapHTTPRequest(w, r)
		defer func() {
			if rcv := recover(); rcv != nil {
				_ = logger.HandlePanic("adminspec.Handler", rcv)
				writeJSON(rw, http.StatusInternalServerError, common.NewErrorResponse("Internal server error."))
			}
		}()
		fn(rw, req, mux.Vars(r))
	}
}
