package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	feedbackdomain "github.com/smallbiznis/pharmapos/internal/feedback/domain"
)

func (s *Server) CreateFeedback(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req feedbackdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UserID = user.ID

	resp, err := s.feedbackSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resp.UserName = user.Name

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListFeedback(c *gin.Context) {
	resp, err := s.feedbackSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
