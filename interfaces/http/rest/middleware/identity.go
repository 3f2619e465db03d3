package middleware

import (
	"net/http"

	"github.com/TPCMinistries/insight-engine/pkg/common"
)

// Identity reads the caller's identity from trusted headers. The engine sits
// behind the product's API gateway, which authenticates the user and injects
// these headers; requests without them are rejected, not defaulted.
func Identity() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-ID")
			organizationID := r.Header.Get("X-Org-ID")

			if userID == "" || organizationID == "" {
				common.RespondError(w, http.StatusUnauthorized, "MISSING_IDENTITY", "X-User-ID and X-Org-ID headers are required")
				return
			}

			ctx := common.WithUserID(r.Context(), userID)
			ctx = common.WithOrganizationID(ctx, organizationID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
