package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	txdomain "github.com/smallbiznis/pharmapos/internal/transaction/domain"
)

func (s *Server) ListTransactions(c *gin.Context) {
	var req txdomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Date = strings.TrimSpace(c.Query("date"))

	resp, err := s.transactionSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      resp.Transactions,
		"page_info": resp.PageInfo,
	})
}

func (s *Server) GetTransactionByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.transactionSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// NotifyTransaction re-sends the sale summary. Unlike checkout, delivery
// errors are reported to the caller.
func (s *Server) NotifyTransaction(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.checkout.Renotify(c.Request.Context(), id); err != nil {
		if isNotFoundError(err) || isValidationError(err) {
			AbortWithError(c, err)
			return
		}
		AbortWithError(c, fmt.Errorf("%w: %w", ErrNotificationFailed, err))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}
