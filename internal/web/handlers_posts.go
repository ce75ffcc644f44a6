package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sergeybob123/callboard/internal/core"
)

func (s *Server) handleListPosts(c *gin.Context) {
	page, err := s.board.ListPosts(c.Request.Context(), c.Query("page"), c.Query("category"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": page.Posts, "page": page.Page})
}

func (s *Server) handleGetPost(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		s.fail(c, core.ErrNotFound)
		return
	}
	post, err := s.board.GetPost(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, post)
}

func (s *Server) handleCreatePost(c *gin.Context) {
	var form core.PostForm
	if !bindJSON(c, &form) {
		return
	}
	post, err := s.board.CreatePost(c.Request.Context(), currentUser(c), form)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Location", "/posts/"+itoa(post.ID))
	ok(c, http.StatusCreated, post)
}

func (s *Server) handleUpdatePost(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		s.fail(c, core.ErrNotFound)
		return
	}
	var form core.PostForm
	if !bindJSON(c, &form) {
		return
	}
	post, err := s.board.UpdatePost(c.Request.Context(), currentUser(c), id, form)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, post)
}

func (s *Server) handleDeletePost(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		s.fail(c, core.ErrNotFound)
		return
	}
	if err := s.board.DeletePost(c.Request.Context(), currentUser(c), id); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": id})
}
