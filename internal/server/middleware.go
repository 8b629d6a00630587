package server

import (
	"crypto/subtle"
	"net/http"
)

const secretHeader = "X-Secret-Key"

// requireSecret guards the prompt administration routes: the request
// must carry the shared secret in the X-Secret-Key header.
func (s *Server) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(secretHeader)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.SecretKey)) != 1 {
			writeDetail(w, http.StatusForbidden, "Invalid or missing secret key.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
