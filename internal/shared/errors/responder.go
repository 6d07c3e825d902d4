package errors

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// Body is the JSON envelope returned by every failing JSON endpoint.
type Body struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// Responder renders classified errors onto gin contexts.
type Responder struct {
	// ExposeInternal controls whether unclassified error messages reach the client.
	ExposeInternal bool
}

// DefaultResponder hides unclassified error messages.
var DefaultResponder = &Responder{}

// Respond writes the envelope for err with the mapped status.
func (r *Responder) Respond(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status := HTTPStatusFromError(err)
	body := Body{Success: false, Error: "internal server error"}
	var classified *Error
	if errors.As(err, &classified) {
		body.Error = classified.Error()
		body.Details = classified.Details
		if classified.Kind == KindInternal && !r.ExposeInternal {
			body.Error = "internal server error"
		}
	} else if r.ExposeInternal {
		body.Error = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}

// BadRequest responds 400 with the given message.
func (r *Responder) BadRequest(c *gin.Context, message string) {
	r.Respond(c, Validation(message))
}

// Respond is a convenience function using the default responder.
func Respond(c *gin.Context, err error) {
	DefaultResponder.Respond(c, err)
}
