package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/reportlens/backend/internal/models"
	"github.com/reportlens/backend/internal/policy"
	"github.com/reportlens/backend/internal/session"
	"github.com/reportlens/backend/internal/storage"
)

// Analyzer submits one report image to the analysis service.
type Analyzer interface {
	Analyze(ctx context.Context, name, mediaType string, r io.Reader) (*models.AnalysisResult, error)
}

// Handler handles API requests.
type Handler struct {
	store    storage.Store
	sessions *session.Manager
	analyzer Analyzer

	polMu      sync.RWMutex
	pol        *policy.Policy
	policyPath string
}

// NewHandler creates a new API handler with the default validation policy.
func NewHandler(store storage.Store, sessions *session.Manager, analyzer Analyzer) *Handler {
	return &Handler{
		store:    store,
		sessions: sessions,
		analyzer: analyzer,
		pol:      policy.Default(),
	}
}

// LoadDefaultPolicy loads the validation policy yaml at path if it exists
// and remembers the path so policy updates are written back.
func (h *Handler) LoadDefaultPolicy(path string) error {
	h.polMu.Lock()
	defer h.polMu.Unlock()

	h.policyPath = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // Built-in defaults stay in effect
	}

	pol, err := policy.Load(path)
	if err != nil {
		return fmt.Errorf("loading validation policy: %w", err)
	}

	h.pol = pol
	return nil
}

// Policy returns the current validation policy.
func (h *Handler) Policy() *policy.Policy {
	h.polMu.RLock()
	defer h.polMu.RUnlock()
	return h.pol
}

// RegisterRoutes wires all API routes onto the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/health", h.HandleHealth)

	g.POST("/analyze", h.HandleAnalyze)

	g.GET("/analyses/recent", h.HandleRecentAnalyses)
	g.GET("/analyses/:id", h.HandleGetAnalysis)
	g.GET("/analyses/:id/msgpack", h.HandleGetAnalysisMsgpack)

	g.GET("/config/validation-rules", h.HandleGetValidationRules)
	g.PUT("/config/validation-rules", h.HandleUpdateValidationRules)
}

// HandleHealth returns service health status.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "Medical Report Analyzer",
	})
}
