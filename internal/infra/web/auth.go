package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"consulting-payments/internal/infra/logging"
)

// Session issuance lives in the external auth service; this layer only
// verifies the HMAC of tokens it minted and extracts the member identity.

type memberClaims struct {
	MemberID int64 `json:"member_id"`
	jwt.RegisteredClaims
}

type AuthManager struct {
	secret []byte
}

func NewAuthManager(secret string) *AuthManager {
	return &AuthManager{secret: []byte(secret)}
}

func (a *AuthManager) parseMember(r *http.Request) (int64, error) {
	hdr := r.Header.Get("Authorization")
	if hdr == "" || !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
		return 0, errors.New("missing token")
	}

	claims := &memberClaims{}
	tkn, err := jwt.ParseWithClaims(strings.TrimSpace(hdr[7:]), claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil || !tkn.Valid || claims.MemberID == 0 {
		return 0, errors.New("invalid token")
	}
	return claims.MemberID, nil
}

type ctxKey string

const ctxMemberID ctxKey = "member_id"

// requireMember authenticates the caller and stashes the member ID in ctx.
func (s *Server) requireMember(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID, err := s.auth.parseMember(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxMemberID, memberID)
		ctx = logging.WithMemberID(ctx, memberID)
		next(w, r.WithContext(ctx))
	}
}

// requireOperator guards operator-only routes with a static bearer API key.
func (s *Server) requireOperator(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.operatorKey == "" {
			s.log.Error().Msg("operator API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		hdr := r.Header.Get("Authorization")
		parts := strings.Split(hdr, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if parts[1] != s.operatorKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func memberFromCtx(ctx context.Context) int64 {
	v, _ := ctx.Value(ctxMemberID).(int64)
	return v
}
