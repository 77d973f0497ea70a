package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/reportlens/backend/internal/analyzer"
	"github.com/reportlens/backend/internal/api"
	"github.com/reportlens/backend/internal/config"
	"github.com/reportlens/backend/internal/session"
	"github.com/reportlens/backend/internal/storage"
	"github.com/reportlens/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// .env carries the analyzer endpoint and API key in development
	_ = godotenv.Load()

	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	configPath := filepath.Join(exeDir, "reportlens.xml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	embeddedMode := web.HasEmbeddedFiles()

	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		fmt.Printf("Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}

	sessionMgr := session.NewManager()

	// Background cleanup of finished analysis sessions
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Advanced.CleanupIntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			sessionMgr.CleanupOldSessions(time.Duration(cfg.Advanced.SessionTimeoutMinutes) * time.Minute)
		}
	}()

	client := analyzer.NewClient(
		cfg.Analyzer.Endpoint,
		cfg.Analyzer.APIKey,
		time.Duration(cfg.Analyzer.TimeoutSeconds)*time.Second,
	)

	h := api.NewHandler(fileStore, sessionMgr, client)

	policyPath := filepath.Join(cfg.GetDataDir(), "validation.yaml")
	if err := h.LoadDefaultPolicy(policyPath); err != nil {
		fmt.Printf("Warning: failed to load validation policy: %v\n", err)
	}

	wsHandler := api.NewWebSocketHandler(sessionMgr)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ErrorHandler

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			return c.Request().URL.Path == "/api/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}

	apiGroup := e.Group("/api")
	h.RegisterRoutes(apiGroup)
	apiGroup.GET("/ws/analyses", wsHandler.HandleWebSocket)

	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			fmt.Printf("Warning: failed to register static routes: %v\n", err)
		} else {
			fmt.Println("Serving embedded upload page from binary")
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	fmt.Printf("Medical Report Analyzer %s (built %s)\n", Version, BuildTime)
	fmt.Printf("Config:   %s\n", configPath)
	fmt.Printf("Analyzer: %s\n", cfg.Analyzer.Endpoint)
	fmt.Printf("Listen:   http://%s\n", cfg.GetServerAddr())
	if embeddedMode {
		fmt.Printf("Open http://localhost:%d in your browser\n", cfg.Server.Port)
	}

	e.Logger.Fatal(e.StartServer(s))
}
