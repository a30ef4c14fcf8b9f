package httpserver

import (
	"context"
	"errors"
	"net/http"

	"empress-storefront/internal/auth"
	"empress-storefront/internal/remote"
	"empress-storefront/internal/service/cart"
	"empress-storefront/internal/service/session"
	"github.com/gin-gonic/gin"
)

const sessionHeader = "X-Session-ID"

type ctxKey string

const (
	sessionIDCtxKey ctxKey = "sessionID"
	cartCtxKey      ctxKey = "cart"
)

// sessionMiddleware resolves X-Session-ID to the session's cart container.
func sessionMiddleware(sessions SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(sessionHeader)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing " + sessionHeader + " header"})
			return
		}
		container, err := sessions.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, session.ErrInvalidSession) {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load session"})
			return
		}
		ctx := context.WithValue(c.Request.Context(), sessionIDCtxKey, id)
		ctx = context.WithValue(ctx, cartCtxKey, container)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// sessionTokenMiddleware forwards the session's bearer token to remote calls
// made through clients shared by all sessions.
func sessionTokenMiddleware(sessions SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := sessions.Token(c.Request.Context(), sessionIDFrom(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load session"})
			return
		}
		if token != "" {
			c.Request = c.Request.WithContext(remote.ContextWithToken(c.Request.Context(), token))
		}
		c.Next()
	}
}

func cartFrom(c *gin.Context) *cart.Container {
	container, _ := c.Request.Context().Value(cartCtxKey).(*cart.Container)
	return container
}

func sessionIDFrom(c *gin.Context) string {
	id, _ := c.Request.Context().Value(sessionIDCtxKey).(string)
	return id
}

func issueSessionHandler(sessions SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := sessions.Issue(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}
		c.Header(sessionHeader, id)
		c.JSON(http.StatusCreated, gin.H{"sessionId": id})
	}
}

type loginRequest struct {
	Token  string `json:"token" binding:"required"`
	UserID string `json:"userId"`
}

func loginHandler(sessions SessionService, verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}
		userID, err := verifier.Resolve(req.Token, req.UserID)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUserRequired):
				c.JSON(http.StatusBadRequest, gin.H{"error": "userId required"})
			default:
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			}
			return
		}
		container, err := sessions.SignIn(c.Request.Context(), sessionIDFrom(c), req.Token, userID)
		if errors.Is(err, session.ErrInvalidUser) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign in"})
			return
		}
		c.JSON(http.StatusOK, newCartResponse(container))
	}
}

func logoutHandler(sessions SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		container, err := sessions.SignOut(c.Request.Context(), sessionIDFrom(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign out"})
			return
		}
		c.JSON(http.StatusOK, newCartResponse(container))
	}
}
