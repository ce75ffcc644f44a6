package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Sergeybob123/callboard/internal/core"
)

func (s *Server) handleHome(c *gin.Context) {
	home, err := s.board.Home(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, home)
}

func (s *Server) handleCategories(c *gin.Context) {
	ok(c, http.StatusOK, core.Categories)
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health != nil {
		if err := s.health.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "storage unavailable"})
			return
		}
	}
	ok(c, http.StatusOK, gin.H{"status": "ok"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var form core.RegisterForm
	if !bindJSON(c, &form) {
		return
	}
	user, err := s.accounts.Register(c.Request.Context(), form)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, user)
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := s.accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"access_token": token.Value,
		"token_type":   token.Type,
		"expires_at":   token.ExpiresAt,
		"user":         user,
	})
}

func (s *Server) handleMe(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		s.fail(c, core.ErrUnauthenticated)
		return
	}
	ok(c, http.StatusOK, user)
}

func (s *Server) handleAccount(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		s.fail(c, core.ErrNotFound)
		return
	}
	acct, err := s.board.Account(c.Request.Context(), currentUser(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, acct)
}

// pathID parses the :id parameter; anything but a positive integer is
// treated as an unknown route
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
