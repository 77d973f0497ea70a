// handlers_policy.go - Validation policy endpoints
package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/reportlens/backend/internal/policy"
)

// HandleGetValidationRules returns the active upload validation policy.
func (h *Handler) HandleGetValidationRules(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Policy())
}

// HandleUpdateValidationRules replaces the upload validation policy. The
// update is written back to the policy file when one is configured, so it
// survives a restart; everything else in this service is transient.
func (h *Handler) HandleUpdateValidationRules(c echo.Context) error {
	var pol policy.Policy
	if err := c.Bind(&pol); err != nil {
		return NewBadRequestError("invalid request body")
	}

	if len(pol.AllowedTypes) == 0 {
		return NewBadRequestError("allowedTypes must not be empty")
	}
	if pol.MaxBytes <= 0 {
		return NewBadRequestError("maxBytes must be positive")
	}

	h.polMu.Lock()
	h.pol = &pol
	path := h.policyPath
	h.polMu.Unlock()

	if path != "" {
		if err := pol.Save(path); err != nil {
			fmt.Printf("[Policy] Warning: failed to persist validation policy: %v\n", err)
		}
	}

	return c.JSON(http.StatusOK, &pol)
}
