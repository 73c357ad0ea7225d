package main

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

const corsMaxAge = 86400

// allowOrigins rejects cross-origin requests from origins outside allowed
// before they reach a handler. Requests without an Origin header pass
// through untouched. Allowed origins get credentialed CORS headers and
// preflights are answered with 204.
func allowOrigins(allowed []string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = normalizeOrigin(o)
		if o != "" {
			set[o] = struct{}{}
		}
	}
	isAllowed := func(origin string) bool {
		_, ok := set[normalizeOrigin(origin)]
		return ok
	}

	headers := cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return isAllowed(origin)
		},
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials:   true,
		MaxAge:             corsMaxAge,
		OptionsPassthrough: true,
	})

	return func(next http.Handler) http.Handler {
		withHeaders := headers(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPreflight(r) {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		}))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && !isAllowed(origin) {
				w.Header().Add("Vary", "Origin")
				writeJSON(w, http.StatusForbidden, errorResponse{Error: "origin not allowed by CORS"})
				return
			}
			withHeaders.ServeHTTP(w, r)
		})
	}
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions &&
		r.Header.Get("Origin") != "" &&
		r.Header.Get("Access-Control-Request-Method") != ""
}

func normalizeOrigin(o string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(o), "/"))
}
