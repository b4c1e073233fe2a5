package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/p-n-ai/pai-literacy/internal/audit"
)

// UserHeader carries the caller's user ID, set by the identity provider in
// front of the service.
const UserHeader = "X-User-ID"

type caller struct {
	userID string
	admin  bool
}

// identify resolves the caller. A valid admin bearer key wins over the
// user header; otherwise admin comes from the role store.
func (s *Server) identify(r *http.Request) (caller, error) {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		if s.adminKeyHash != nil && bcrypt.CompareHashAndPassword(s.adminKeyHash, []byte(token)) == nil {
			return caller{userID: r.Header.Get(UserHeader), admin: true}, nil
		}
		return caller{}, fmt.Errorf("%w: invalid bearer key", errUnauthorized)
	}

	id := strings.TrimSpace(r.Header.Get(UserHeader))
	if id == "" {
		return caller{}, errUnauthorized
	}
	return caller{userID: id}, nil
}

func (s *Server) isAdmin(r *http.Request, c caller) bool {
	if c.admin {
		return true
	}
	if s.roles == nil || c.userID == "" {
		return false
	}
	ok, err := s.roles.HasRole(r.Context(), c.userID, audit.RoleAdmin)
	if err != nil {
		slog.Warn("role lookup failed", "user_id", c.userID, "error", err)
		return false
	}
	return ok
}

// userHandler serves routes scoped to the path's {userID}. Callers may only
// reach their own data unless they are admins.
type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

func (s *Server) requireUser(h userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.identify(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		target := r.PathValue("userID")
		if target != c.userID && !s.isAdmin(r, c) {
			writeError(w, r, fmt.Errorf("%w: cannot access another user's data", errForbidden))
			return
		}
		h(w, r, target)
	}
}

// requireIdentity serves routes that act as the caller, not on a path user.
// The user header is mandatory, even with an admin key.
func (s *Server) requireIdentity(h userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.identify(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if c.userID == "" {
			writeError(w, r, fmt.Errorf("%w: %s header is required", errUnauthorized, UserHeader))
			return
		}
		h(w, r, c.userID)
	}
}

func (s *Server) requireAdmin(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.identify(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !s.isAdmin(r, c) {
			writeError(w, r, fmt.Errorf("%w: admin access required", errForbidden))
			return
		}
		h(w, r)
	}
}
