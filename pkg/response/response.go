package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/devscout-auth/pkg/errors"
)

// Fields carries the top-level members of a success body next to "success".
type Fields map[string]interface{}

// Envelope represents the failure contract. Success bodies are flat so that
// clients can read "user" or "token" without unwrapping.
type Envelope struct {
	Success bool             `json:"success"`
	Error   *appErrors.Error `json:"error,omitempty"`
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

// JSON sends a success response merging fields into {"success": true}.
func JSON(c *gin.Context, status int, fields Fields) {
	noStore(c)
	body := gin.H{"success": true}
	for k, v := range fields {
		if k == "success" {
			continue
		}
		body[k] = v
	}
	c.JSON(status, body)
}

// OK responds with HTTP 200.
func OK(c *gin.Context, fields Fields) {
	JSON(c, http.StatusOK, fields)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, fields Fields) {
	JSON(c, http.StatusCreated, fields)
}

// Error sends an error response converting the error to the common structure.
// Causes of 5xx errors are attached to the context so the request log carries
// them; they are never part of the body.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError && appErr.Err != nil {
		_ = c.Error(appErr.Err)
	}
	noStore(c)
	c.JSON(appErr.Status, Envelope{Success: false, Error: appErr})
}

// Abort is Error followed by c.Abort for use inside middleware.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
