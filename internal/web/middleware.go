package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sergeybob123/callboard/internal/core"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	userKey         = "user"

	// content limit plus room for the JSON envelope
	maxBodySize = core.MaxContentBytes + 64<<10
)

// requestID tags every request with an ID, reusing the caller's when sent
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// accessLog writes one line per request
func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)),
		}
		if user := currentUser(c); user != nil {
			fields = append(fields, zap.String("user", user.Username))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("request", fields...)
		case status >= 400:
			logger.Info("request", fields...)
		default:
			logger.Debug("request", fields...)
		}
	}
}

// limitBody caps request bodies
func limitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// authenticate resolves a bearer token into the acting user. Requests
// without a token continue anonymously.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			s.abortUnauthorized(c, "malformed authorization header")
			return
		}

		userID, err := s.tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			s.abortUnauthorized(c, "invalid or expired token")
			return
		}

		user, err := s.accounts.UserByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				s.abortUnauthorized(c, "invalid or expired token")
				return
			}
			s.fail(c, err)
			c.Abort()
			return
		}
		if !user.IsActive {
			s.abortUnauthorized(c, "account disabled")
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func (s *Server) abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="callboard"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": msg})
}

// currentUser returns the authenticated user, or nil for anonymous requests
func currentUser(c *gin.Context) *core.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*core.User)
	return user
}
