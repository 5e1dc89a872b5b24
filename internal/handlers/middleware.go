package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userId"

const (
	errMissingAuth = "missing Authorization header"
	errAuthFormat  = "invalid Authorization header format"
	errBadToken    = "invalid or expired token"
)

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// authenticate resolves the operator behind the Authorization header. It
// aborts with 401 and returns false on a malformed or rejected token.
func (h *Handler) authenticate(c *gin.Context, header string) bool {
	token, ok := bearerToken(header)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errAuthFormat})
		return false
	}
	userID, err := h.services.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Debugw("auth_token_rejected", "err", err, "path", c.FullPath())
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errBadToken})
		return false
	}
	c.Set(userIDKey, userID)
	return true
}

// requireOperator guards /api/v1.
func (h *Handler) requireOperator(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMissingAuth})
		return
	}
	if h.authenticate(c, header) {
		c.Next()
	}
}

// identifyOperator lets anonymous requests through but still rejects a bad
// token, so callers can tell an operator from a stranger.
func (h *Handler) identifyOperator(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" || h.authenticate(c, header) {
		c.Next()
	}
}
