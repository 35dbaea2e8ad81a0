package handlers

import (
	"errors"
	"net/http"

	"github.com/pluzgi/chatbot-study-sub001/internal/study"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeError maps the store's typed errors onto HTTP responses. Illegal
// phase transitions are logged as warnings: they usually mean a replayed or
// out-of-order client call, not a user mistake.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	var (
		validationErr *study.ValidationError
		notFoundErr   *study.NotFoundError
		conflictErr   *study.ConflictError
		transitionErr *study.IllegalTransitionError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation_failed",
			"field":  validationErr.Field,
			"reason": validationErr.Reason,
		})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict", "key": conflictErr.Key})
	case errors.As(err, &transitionErr):
		log.Warn("Rejected illegal phase transition",
			zap.String("from", string(transitionErr.From)),
			zap.String("to", string(transitionErr.To)),
			zap.String("path", c.Request.URL.Path),
		)
		c.JSON(http.StatusConflict, gin.H{"error": "illegal_transition"})
	default:
		log.Error("Unhandled error", zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}
