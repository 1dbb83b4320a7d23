package httpx

import "net/http"

// RequireAnyRole lets the request through when the caller holds at least one
// of the listed roles. Must run after AuthnMiddleware.
func RequireAnyRole(required ...string) Middleware {
	want := make(map[string]struct{}, len(required))
	for _, role := range required {
		want[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, role := range RolesFromContext(r.Context()) {
				if _, ok := want[role]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			WriteError(w, http.StatusForbidden, "access_denied", "insufficient role")
		})
	}
}

// RequireAllRoles lets the request through only when the caller holds every
// listed role. Must run after AuthnMiddleware.
func RequireAllRoles(required ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			have := make(map[string]struct{})
			for _, role := range RolesFromContext(r.Context()) {
				have[role] = struct{}{}
			}

			for _, role := range required {
				if _, ok := have[role]; !ok {
					WriteError(w, http.StatusForbidden, "access_denied", "insufficient role")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
