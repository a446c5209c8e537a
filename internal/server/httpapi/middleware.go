package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/keydir/internal/keydir"
)

type ctxKey string

const signerKey ctxKey = "signer"

// signerFromContext returns the authenticated signer placed by
// requireSigner.
func signerFromContext(ctx context.Context) (keydir.Owner, bool) {
	signer, ok := ctx.Value(signerKey).(keydir.Owner)
	return signer, ok
}

// requireSigner verifies the bearer token and injects the signer identity
// into the request context.
func (s *Server) requireSigner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeErrorCode(w, http.StatusUnauthorized, "missing_token", "missing bearer token")
			return
		}

		signer, err := s.auth.SignerFromToken(token)
		if err != nil {
			writeErrorCode(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), signerKey, signer)
		next(w, r.WithContext(ctx))
	}
}

// requireAdmin allows only configured admin signers through. It must run
// inside requireSigner.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		signer, ok := signerFromContext(r.Context())
		if !ok {
			writeErrorCode(w, http.StatusUnauthorized, "missing_token", "missing bearer token")
			return
		}

		if _, ok := s.admins[signer.Hex()]; !ok {
			writeErrorCode(w, http.StatusForbidden, "not_admin", "signer is not an admin")
			return
		}

		next(w, r)
	}
}
