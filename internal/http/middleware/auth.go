package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/magix-backend/internal/http/response"
	"github.com/yungbote/magix-backend/internal/platform/apierr"
	"github.com/yungbote/magix-backend/internal/platform/ctxutil"
	"github.com/yungbote/magix-backend/internal/platform/logger"
	"github.com/yungbote/magix-backend/internal/services"
)

type AuthMiddleware struct {
	log      *logger.Logger
	verifier services.TokenVerifier
	required bool
}

// NewAuthMiddleware attaches the caller identity from a Google ID token. When
// required is false, anonymous requests pass through untouched.
func NewAuthMiddleware(log *logger.Logger, verifier services.TokenVerifier, required bool) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("Middleware", "AuthMiddleware"), verifier: verifier, required: required}
}

func (am *AuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		if token == "" {
			if am.required {
				response.RespondError(c, apierr.Auth(http.StatusUnauthorized, "Missing or invalid token", errors.New("missing bearer token")))
				c.Abort()
				return
			}
			c.Next()
			return
		}
		if am.verifier == nil {
			response.RespondError(c, apierr.Auth(http.StatusInternalServerError, "Token verification is not configured", errors.New("CLIENT_ID not set")))
			c.Abort()
			return
		}
		ident, err := am.verifier.VerifyGoogleIDToken(c.Request.Context(), token)
		if err != nil {
			am.log.Debug("bearer token rejected", "error", err)
			response.RespondError(c, apierr.Auth(http.StatusUnauthorized, "Invalid token", err))
			c.Abort()
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
			Email:   ident.Email,
			Subject: ident.Subject,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
