package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Sergeybob123/callboard/internal/core"
)

func (s *Server) handleCreateResponse(c *gin.Context) {
	postID, valid := pathID(c)
	if !valid {
		s.fail(c, core.ErrNotFound)
		return
	}
	var form core.ResponseForm
	if !bindJSON(c, &form) {
		return
	}
	resp, err := s.board.CreateResponse(c.Request.Context(), currentUser(c), postID, form)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Location", "/responses/"+itoa(resp.ID))
	ok(c, http.StatusCreated, resp)
}

func (s *Server) handleGetResponse(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		s.fail(c, core.ErrNotFound)
		return
	}
	resp, err := s.board.GetResponse(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

func (s *Server) handleUpdateResponse(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		s.fail(c, core.ErrNotFound)
		return
	}
	var form core.ResponseForm
	if !bindJSON(c, &form) {
		return
	}
	resp, err := s.board.UpdateResponse(c.Request.Context(), currentUser(c), id, form)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

func (s *Server) handleDeleteResponse(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		s.fail(c, core.ErrNotFound)
		return
	}
	if err := s.board.DeleteResponse(c.Request.Context(), currentUser(c), id); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": id})
}

func (s *Server) handleAcceptResponse(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		s.fail(c, core.ErrNotFound)
		return
	}
	resp, err := s.board.AcceptResponse(c.Request.Context(), currentUser(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, resp)
}

func (s *Server) handleReceivedResponses(c *gin.Context) {
	accepted, err := parseAccepted(c.Query("accepted"))
	if err != nil {
		s.fail(c, err)
		return
	}
	var postID int64
	if raw := c.Query("post"); raw != "" {
		postID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || postID < 1 {
			s.fail(c, &core.ValidationError{Fields: map[string]string{"post": "must be a post id"}})
			return
		}
	}

	page, err := s.board.ListReceivedResponses(c.Request.Context(), currentUser(c), c.Query("page"), core.ReceivedFilter{
		PostID:   postID,
		Accepted: accepted,
		Query:    c.Query("q"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": page.Responses, "page": page.Page})
}

func (s *Server) handleSubmittedResponses(c *gin.Context) {
	accepted, err := parseAccepted(c.Query("accepted"))
	if err != nil {
		s.fail(c, err)
		return
	}

	page, err := s.board.ListSubmittedResponses(c.Request.Context(), currentUser(c), c.Query("page"), core.SubmittedFilter{
		PostTitle: c.Query("post_title"),
		Accepted:  accepted,
		Query:     c.Query("q"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": page.Responses, "page": page.Page})
}

// parseAccepted reads the tri-state accepted filter; empty means any
func parseAccepted(raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &core.ValidationError{Fields: map[string]string{"accepted": "must be true or false"}}
	}
	return &v, nil
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
