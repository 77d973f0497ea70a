// handlers_analyze.go - Report analysis endpoint
package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/reportlens/backend/internal/analyzer"
	"github.com/reportlens/backend/internal/policy"
)

// HandleAnalyze accepts one report image as multipart form data under the
// "file" field, validates it, spools it to disk and forwards it to the
// analysis service. The response is the service's JSON result unchanged;
// failures use the {"detail": ...} envelope.
func (h *Handler) HandleAnalyze(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("No file provided")
	}

	mediaType := fh.Header.Get("Content-Type")
	pol := h.Policy()

	switch pol.Validate(mediaType, fh.Size) {
	case policy.ErrInvalidType:
		return NewBadRequestError(fmt.Sprintf(
			"Invalid file type. Allowed types: %s", strings.Join(pol.AllowedTypes, ", ")))
	case policy.ErrTooLarge:
		return NewBadRequestError("File too large. Maximum size is 10MB")
	}

	src, err := fh.Open()
	if err != nil {
		return NewInternalError("Failed to open uploaded file", err)
	}
	defer src.Close()

	// Spool the upload so the analyzer client streams from disk, then
	// delete it once the round trip finishes.
	info, err := h.store.Save(fh.Filename, mediaType, src)
	if err != nil {
		return NewInternalError("Failed to save uploaded file", err)
	}
	defer func() {
		if err := h.store.Delete(info.ID); err != nil {
			fmt.Printf("[Analyze] Warning: failed to clean up spooled file %s: %v\n", info.ID, err)
		}
	}()

	sess := h.sessions.Begin(fh.Filename, info.Size)

	path, err := h.store.GetFilePath(info.ID)
	if err != nil {
		h.sessions.Fail(sess.ID, err.Error())
		return NewInternalError("Failed to locate uploaded file", err)
	}

	f, err := os.Open(path)
	if err != nil {
		h.sessions.Fail(sess.ID, err.Error())
		return NewInternalError("Failed to read uploaded file", err)
	}
	defer f.Close()

	result, err := h.analyzer.Analyze(c.Request().Context(), fh.Filename, mediaType, f)
	if err != nil {
		h.sessions.Fail(sess.ID, err.Error())
		return analyzeFailure(err)
	}

	h.sessions.Complete(sess.ID, result)
	return c.JSON(http.StatusOK, result)
}

// analyzeFailure maps analyzer client errors onto API errors. A non-2xx
// answer from the service passes through with its status and detail; every
// other failure is reported the way the original service did.
func analyzeFailure(err error) error {
	var reqErr *analyzer.RequestFailedError
	if errors.As(err, &reqErr) {
		return &APIError{Status: reqErr.Status, Detail: reqErr.Error()}
	}
	if errors.Is(err, analyzer.ErrUnsuccessful) {
		return &APIError{Status: http.StatusBadGateway, Detail: err.Error()}
	}
	return NewInternalError("Failed to process medical report", err)
}
