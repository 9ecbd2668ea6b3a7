package middleware

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/httpcontext"
)

const (
	userValueIdentity  = "auth.identity"
	userValueSessionID = "auth.session_id"
	userValueToken     = "auth.token"
)

// Verifier resolves a bearer token into a live credential.
type Verifier interface {
	Verify(ctx context.Context, token string) (*domain.Credential, error)
}

// Auth rejects requests without a valid bearer token and stores the caller's
// identity on the request for handlers.
func Auth(verifier Verifier, adapter *httpcontext.Adapter, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx, domain.ErrUnauthenticated)
				return
			}

			verifyCtx, cancel := adapter.Attach(ctx)
			cred, err := verifier.Verify(verifyCtx, tokenString)
			cancel()
			if err != nil {
				if domain.IsDomainError(err, domain.ErrCodeAuthFailed) {
					logger.Debug("rejected token", zap.Error(err))
					unauthorized(ctx, domain.ErrInvalidToken)
					return
				}
				logger.Error("token verification failed", zap.Error(err))
				writeError(ctx, fasthttp.StatusServiceUnavailable, string(domain.ErrCodeUnavailable), "authentication backend unavailable")
				return
			}

			ctx.SetUserValue(userValueIdentity, cred.Identity)
			ctx.SetUserValue(userValueSessionID, cred.SessionID)
			ctx.SetUserValue(userValueToken, tokenString)
			next(ctx)
		}
	}
}

// IdentityFrom returns the identity placed on the request by Auth.
func IdentityFrom(ctx *fasthttp.RequestCtx) (domain.Identity, bool) {
	identity, ok := ctx.UserValue(userValueIdentity).(domain.Identity)
	if !ok || identity.IsZero() {
		return domain.Identity{}, false
	}
	return identity, true
}

// SessionIDFrom returns the session behind the request's token.
func SessionIDFrom(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue(userValueSessionID).(string)
	return id
}

// TokenFrom returns the verified bearer token.
func TokenFrom(ctx *fasthttp.RequestCtx) string {
	token, _ := ctx.UserValue(userValueToken).(string)
	return token
}

func unauthorized(ctx *fasthttp.RequestCtx, err *domain.Error) {
	ctx.Response.Header.Set("WWW-Authenticate", "Bearer")
	writeError(ctx, fasthttp.StatusUnauthorized, string(err.Code), err.Message)
}

func writeError(ctx *fasthttp.RequestCtx, status int, code, message string) {
	body, _ := json.Marshal(transport.NewError(code, message, nil))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return header
}
