package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-pos-orderflow/internal/catalog"
	"github.com/imrishuroy/go-pos-orderflow/internal/checkout"
	"github.com/imrishuroy/go-pos-orderflow/internal/posapi"
	"github.com/imrishuroy/go-pos-orderflow/internal/session"
	"github.com/imrishuroy/go-pos-orderflow/internal/submission"
)

// upstreamError is a failed backend call outside checkout.
type upstreamError struct {
	op  string
	err error
}

func (e *upstreamError) Error() string { return e.op + ": " + e.err.Error() }

func (e *upstreamError) Unwrap() error { return e.err }

func upstream(op string, err error) error { return &upstreamError{op: op, err: err} }

func writeError(c *gin.Context, log *zap.Logger, err error) {
	var (
		ve *checkout.ValidationError
		se *checkout.SubmissionError
		te *checkout.TransportError
		ue *upstreamError
		st *posapi.StatusError
	)
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session_not_found"})
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "fields": ve.Fields})
	case errors.As(err, &se):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "order_rejected", "fields": se.Fields})
	case errors.Is(err, submission.ErrInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "checkout_in_progress"})
	case errors.Is(err, catalog.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "item_not_found"})
	case errors.As(err, &st) && st.Status == http.StatusUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "backend_unauthorized"})
	case errors.As(err, &st) && st.Status == http.StatusNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.As(err, &st) && st.Status == http.StatusUnprocessableEntity:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "rejected", "detail": st.Body})
	case errors.As(err, &te), errors.As(err, &ue):
		log.Warn("backend call failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream_failed", "detail": err.Error()})
	default:
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
