package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/learnhub-client/internal/usecase"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError resolves the provided error against known cases or falls back to a generic response.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, NewErrorResponse(c, cs.Message))
			return
		}
	}

	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}

// RespondWithAuthError surfaces a provider rejection with the provider's own
// message, mapping it onto the supplied status.
func RespondWithAuthError(c *gin.Context, err error, status int, fallbackMessage string) {
	var authErr *usecase.AuthError
	if errors.As(err, &authErr) {
		c.JSON(status, NewErrorResponse(c, authErr.Message))
		return
	}

	c.JSON(http.StatusInternalServerError, NewErrorResponse(c, fallbackMessage))
}
