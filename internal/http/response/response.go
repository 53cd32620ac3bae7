package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/magix-backend/internal/platform/apierr"
)

type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Envelope is the uniform body for errors and simple acknowledgements.
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func errorEnvelope(ae *apierr.Error) Envelope {
	msg := ae.Message
	if msg == "" {
		msg = "Error"
	}
	return Envelope{
		Message: msg,
		Data:    gin.H{"error": APIError{Type: ae.Code, Message: ae.Error()}},
	}
}

// ErrorBody is the envelope for err without writing it, for stream trailers.
func ErrorBody(err error) (int, Envelope) {
	ae := apierr.As(err)
	status := ae.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if ae.Code == apierr.TypeValidation {
		return status, Envelope{Message: ae.Message}
	}
	return status, errorEnvelope(ae)
}

func RespondError(c *gin.Context, err error) {
	status, body := ErrorBody(err)
	c.JSON(status, body)
}

func RespondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Envelope{Message: msg})
}

func RespondMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, Envelope{Message: msg})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
