// handlers_sessions.go - Analysis session endpoints
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// HandleRecentAnalyses returns recent analysis sessions, newest first.
func (h *Handler) HandleRecentAnalyses(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessions.Recent(20))
}

// HandleGetAnalysis returns one analysis session by ID.
func (h *Handler) HandleGetAnalysis(c echo.Context) error {
	id := c.Param("id")
	sess, ok := h.sessions.Get(id)
	if !ok {
		return NewNotFoundError("analysis", id)
	}
	return c.JSON(http.StatusOK, sess)
}

// HandleGetAnalysisMsgpack returns one analysis session in MessagePack
// format for clients that prefer the compact encoding.
func (h *Handler) HandleGetAnalysisMsgpack(c echo.Context) error {
	id := c.Param("id")
	sess, ok := h.sessions.Get(id)
	if !ok {
		return NewNotFoundError("analysis", id)
	}

	data, err := msgpack.Marshal(sess)
	if err != nil {
		return NewInternalError("Failed to encode analysis", err)
	}

	return c.Blob(http.StatusOK, "application/x-msgpack", data)
}
