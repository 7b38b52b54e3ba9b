package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// NewRelicMiddleware starts one transaction per request, named after the chi
// route pattern so /offers/{id} is grouped instead of split per id
func NewRelicMiddleware(app *newrelic.Application) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if app == nil {
				next.ServeHTTP(w, r)
				return
			}

			txn := app.StartTransaction(r.Method + " " + r.URL.Path)
			defer txn.End()

			txn.SetWebRequestHTTP(r)
			w = txn.SetWebResponse(w)
			if reqID := middleware.GetReqID(r.Context()); reqID != "" {
				txn.AddAttribute("request_id", reqID)
			}

			r = newrelic.RequestWithTransactionContext(r, txn)
			next.ServeHTTP(w, r)

			// the pattern is only complete once chi has routed the request
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					txn.SetName(r.Method + " " + pattern)
				}
			}
		})
	}
}

// tagTransaction records the authenticated user on the current transaction
func tagTransaction(r *http.Request, id Identity) {
	if txn := newrelic.FromContext(r.Context()); txn != nil {
		txn.AddAttribute("user_id", id.UserID)
		txn.AddAttribute("user_role", id.Role)
	}
}
