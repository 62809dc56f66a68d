package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lbarbosa/docpipe"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON)")
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := docpipe.DefaultConfig()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			slog.Error("opening config", "error", err)
			os.Exit(1)
		}
		if err := json.NewDecoder(f).Decode(&cfg); err != nil {
			f.Close()
			slog.Error("parsing config", "error", err)
			os.Exit(1)
		}
		f.Close()
	}

	applyEnvOverrides(&cfg)

	apiKey := os.Getenv("DOCPIPE_API_KEY")
	corsOrigins := os.Getenv("DOCPIPE_CORS_ORIGINS")

	pipeline, err := docpipe.New(cfg)
	if err != nil {
		slog.Error("creating pipeline", "error", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	h := newHandler(pipeline)
	mux := http.NewServeMux()

	mux.HandleFunc("POST /process_document", h.handleProcessDocument)
	mux.HandleFunc("GET /history", h.handleHistory)
	mux.HandleFunc("GET /health", h.handleHealth)

	// Middleware chain: recovery -> cors -> auth -> logging -> mux
	var handler http.Handler = mux
	handler = logMiddleware(handler)
	handler = authMiddleware(apiKey, handler)
	handler = corsMiddleware(corsOrigins, handler)
	handler = recoveryMiddleware(handler)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Minute, // uploads can be large
		WriteTimeout: 0,               // extraction jobs can run for minutes
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

// applyEnvOverrides layers environment variables over the file config, then
// falls back to well-known provider env vars for missing credentials.
func applyEnvOverrides(cfg *docpipe.Config) {
	if v := os.Getenv("DOCPIPE_UPLOADS_DIR"); v != "" {
		cfg.UploadsDir = v
	}
	if v := os.Getenv("DOCPIPE_PROCESSING_DIR"); v != "" {
		cfg.ProcessingDir = v
	}
	if v := os.Getenv("DOCPIPE_EXTRACTOR"); v != "" {
		cfg.Extractor = v
	}
	if v := os.Getenv("DOCPIPE_LLAMAPARSE_API_KEY"); v != "" {
		cfg.LlamaParse.APIKey = v
	}
	if v := os.Getenv("DOCPIPE_LLAMAPARSE_BASE_URL"); v != "" {
		cfg.LlamaParse.BaseURL = v
	}
	if v := os.Getenv("DOCPIPE_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("DOCPIPE_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("DOCPIPE_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("DOCPIPE_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("DOCPIPE_HISTORY_DB"); v != "" {
		cfg.HistoryDBPath = v
	}

	if cfg.LlamaParse.APIKey == "" {
		cfg.LlamaParse.APIKey = os.Getenv("LLAMA_CLOUD_API_KEY")
	}
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "groq":
			cfg.LLM.APIKey = os.Getenv("GROQ_API_KEY")
		case "gemini":
			cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		case "openrouter":
			cfg.LLM.APIKey = os.Getenv("OPENROUTER_API_KEY")
		}
	}
}
