package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// Problem is an RFC 9457 problem detail.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func sendProblem(c *gin.Context, status int, detail string) {
	c.Header("Content-Type", "application/problem+json")
	c.AbortWithStatusJSON(status, Problem{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: c.Request.URL.Path,
	})
}

func problemBadRequest(c *gin.Context, detail string) {
	sendProblem(c, http.StatusBadRequest, detail)
}

func problemUnavailable(c *gin.Context, detail string) {
	sendProblem(c, http.StatusServiceUnavailable, detail)
}

func problemInternal(c *gin.Context, detail string) {
	sendProblem(c, http.StatusInternalServerError, detail)
}
