package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gavelworks/appraise/internal/model"
	"github.com/gavelworks/appraise/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the valuation HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/api/health", func(w http.ResponseWriter, req *http.Request) {
			breakerStates := env.Breakers.States()
			statuses := env.Registry.Statuses()
			for i := range statuses {
				if st, ok := breakerStates[statuses[i].ID]; ok {
					statuses[i].CircuitState = st.String()
				}
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"status":    "ok",
				"providers": statuses,
			})
		})

		r.Post("/api/valuate", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Images []struct {
					Data     string `json:"data"`
					MimeType string `json:"mime_type"`
				} `json:"images"`
				Name     string `json:"name"`
				Category string `json:"category"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if len(body.Images) == 0 && body.Name == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "at least one image or a name is required"})
				return
			}

			images := make([]model.Image, 0, len(body.Images))
			for _, img := range body.Images {
				data, err := base64.StdEncoding.DecodeString(img.Data)
				if err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image data is not valid base64"})
					return
				}
				mime := img.MimeType
				if mime == "" {
					mime = http.DetectContentType(data)
				}
				images = append(images, model.Image{Data: data, MimeType: mime})
			}

			result, err := env.Engine.Valuate(req.Context(), images, body.Name, body.Category)
			if err != nil {
				zap.L().Error("valuation request failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "valuation failed"})
				return
			}
			writeJSON(w, http.StatusOK, result)
		})

		r.Get("/api/results", func(w http.ResponseWriter, req *http.Request) {
			filter, err := parseResultFilter(req.URL.Query())
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}

			results, err := env.Sink.ListResults(req.Context(), filter)
			if err != nil {
				zap.L().Error("list results failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list failed"})
				return
			}
			if results == nil {
				results = []model.StoredResult{}
			}
			writeJSON(w, http.StatusOK, results)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Error("server shutdown failed", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// parseResultFilter builds a listing filter from query parameters. Bad
// numeric input is a client error, not a silent zero.
func parseResultFilter(q url.Values) (store.ResultFilter, error) {
	filter := store.ResultFilter{Category: q.Get("category")}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return store.ResultFilter{}, eris.New("limit must be a non-negative integer")
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return store.ResultFilter{}, eris.New("offset must be a non-negative integer")
		}
		filter.Offset = n
	}

	return filter, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
