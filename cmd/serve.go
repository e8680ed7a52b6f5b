package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/juraprus2018-boop/jvw-trading-shop/internal/model"
	shopsync "github.com/juraprus2018-boop/jvw-trading-shop/internal/sync"
)

var servePort int

// syncRequest is the payload the admin UI posts.
type syncRequest struct {
	ProfileURL string `json:"profileUrl"`
	AutoSync   bool   `json:"autoSync"`
}

// syncResponse mirrors what the admin UI expects back. The numeric counts
// are present only after an auto-sync run.
type syncResponse struct {
	Success     bool            `json:"success"`
	Listings    []model.Listing `json:"listings,omitempty"`
	Count       int             `json:"count"`
	Imported    *int            `json:"imported,omitempty"`
	Updated     *int            `json:"updated,omitempty"`
	Deactivated *int            `json:"deactivated,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// runner abstracts the pipeline for handler tests.
type runner interface {
	Run(ctx context.Context, profileURL string, autoSync bool) (*shopsync.RunResult, error)
}

// newRouter builds the HTTP surface: CORS-enabled so the storefront admin
// can call it cross-origin, preflight answered with an empty 200.
func newRouter(p runner) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/marktplaats-sync", func(w http.ResponseWriter, r *http.Request) {
		var req syncRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, syncResponse{Error: "invalid request body"})
			return
		}
		if req.ProfileURL == "" {
			writeJSON(w, http.StatusBadRequest, syncResponse{Error: "profileUrl is required"})
			return
		}

		result, err := p.Run(r.Context(), req.ProfileURL, req.AutoSync)
		if err != nil {
			zap.L().Error("sync request failed",
				zap.String("profile_url", req.ProfileURL),
				zap.Bool("auto_sync", req.AutoSync),
				zap.Error(err),
			)
			writeJSON(w, http.StatusInternalServerError, syncResponse{Error: err.Error()})
			return
		}

		resp := syncResponse{
			Success:  true,
			Listings: result.Listings,
			Count:    len(result.Listings),
		}
		if result.Sync != nil {
			resp.Imported = &result.Sync.Imported
			resp.Updated = &result.Sync.Updated
			resp.Deactivated = &result.Sync.Deactivated
			resp.Error = result.Sync.Error
		}
		writeJSON(w, http.StatusOK, resp)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for scrape and sync requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cat, err := initCatalog(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = cat.Close() }()

		if err := cat.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate catalog")
		}

		pipeline := shopsync.New(cfg.Scrape, newFetcher(), cat)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(pipeline),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(context.Background())
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
