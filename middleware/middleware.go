package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/authctx"
	"github.com/kbukum/authkit/authz"
	"github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/identity"
)

// DefaultAPIKeyHeader is the header API keys are read from.
const DefaultAPIKeyHeader = "X-API-Key"

// RequireBearer authenticates requests via the Authorization header and a
// bearer-token resolver. On success the outcome is stored in the request
// context; on failure the request is aborted with the error's category.
func RequireBearer(resolver identity.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abort(c, errors.MalformedToken(nil))
			return
		}
		resolve(c, resolver, raw)
	}
}

// RequireAPIKey authenticates requests via an API key header. An empty
// header name selects DefaultAPIKeyHeader.
func RequireAPIKey(resolver identity.Resolver, header string) gin.HandlerFunc {
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	return func(c *gin.Context) {
		key := c.GetHeader(header)
		if key == "" {
			abort(c, errors.InvalidCredentials())
			return
		}
		resolve(c, resolver, key)
	}
}

// RequireAny tries the resolvers in order until one authenticates the
// request: the bearer header first when present, then the API key header.
// Requests carrying neither credential are rejected.
func RequireAny(bearer, apiKey identity.Resolver, apiKeyHeader string) gin.HandlerFunc {
	if apiKeyHeader == "" {
		apiKeyHeader = DefaultAPIKeyHeader
	}
	return func(c *gin.Context) {
		if raw, ok := bearerToken(c.GetHeader("Authorization")); ok {
			resolve(c, bearer, raw)
			return
		}
		if key := c.GetHeader(apiKeyHeader); key != "" {
			resolve(c, apiKey, key)
			return
		}
		abort(c, errors.InvalidCredentials())
	}
}

// RequirePermission authorizes the already-authenticated principal for a
// permission. Must run after RequireBearer / RequireAPIKey.
func RequirePermission(guard *authz.Guard, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth, ok := authctx.Get(c.Request.Context())
		if !ok {
			abort(c, errors.InsufficientScope())
			return
		}
		if err := guard.RequirePermission(auth, permission); err != nil {
			abort(c, err)
			return
		}
		c.Next()
	}
}

// RequireAnyRole authorizes the already-authenticated principal for at least
// one of the given roles. Must run after RequireBearer / RequireAPIKey.
func RequireAnyRole(guard *authz.Guard, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth, ok := authctx.Get(c.Request.Context())
		if !ok {
			abort(c, errors.InsufficientScope())
			return
		}
		if err := guard.RequireAnyRole(auth, roles...); err != nil {
			abort(c, err)
			return
		}
		c.Next()
	}
}

func resolve(c *gin.Context, resolver identity.Resolver, presented string) {
	auth, err := resolver.ResolvePrincipal(c.Request.Context(), presented)
	if err != nil {
		abort(c, err)
		return
	}
	c.Request = c.Request.WithContext(authctx.Set(c.Request.Context(), auth))
	c.Next()
}

// bearerToken extracts the token from an "Authorization: Bearer x" header.
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func abort(c *gin.Context, err error) {
	status, body := errors.ToResponse(err)
	c.AbortWithStatusJSON(status, body)
}
