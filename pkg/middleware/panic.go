package middleware

import (
	"net/http"

	"github.com/bitechdev/AdminSpec/pkg/logger"
	"github.com/bitechdev/AdminSpec/pkg/metrics"
)

const panicMiddlewareMethodName = "PanicMiddleware"

// PanicRecovery recovers from panics anywhere below it in the chain,
// logs the panic, records a metric, and returns a 500.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rcv := recover(); rcv != nil {
				metrics.GetProvider().RecordPanic(panicMiddlewareMethodName)
				err := logger.HandlePanic(panicMiddlewareMethodName, rcv)
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
