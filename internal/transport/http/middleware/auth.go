package httpmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/muhammadhuzaifasarfraz/collab-sphere/pkg/errs"
	"github.com/muhammadhuzaifasarfraz/collab-sphere/pkg/httputil"
)

type ctxKey string

const ctxKeyIdentity ctxKey = "identity_id"

type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Auth requires a Bearer token and resolves it to an identity id. Every
// failure mode gets the same 401 body so callers cannot probe which part of
// the credential was wrong.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				httputil.Error(w, http.StatusUnauthorized, errs.CodeUnauthorized, "unauthorized")
				return
			}

			identityID, err := verifier.Verify(strings.TrimSpace(auth[7:]))
			if err != nil {
				httputil.Error(w, http.StatusUnauthorized, errs.CodeUnauthorized, "unauthorized")
				return
			}

			ctx := WithIdentity(r.Context(), identityID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity stamps an already-verified identity id onto ctx.
func WithIdentity(ctx context.Context, identityID string) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, identityID)
}

func IdentityFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIdentity).(string); ok {
		return v
	}
	return ""
}
