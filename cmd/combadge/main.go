// cmd/combadge/main.go
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mklemmingen/ComBadge-sub001/internal/catalog"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/config"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/logger"
	"github.com/mklemmingen/ComBadge-sub001/internal/dispatch"
	"github.com/mklemmingen/ComBadge-sub001/internal/pipeline"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	serve := flag.Bool("serve", false, "run the HTTP API instead of one-shot mode")
	submit := flag.Bool("submit", false, "submit valid payloads to the fleet API")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting combadge...",
		zap.String("environment", cfg.App.Environment),
		zap.String("templateDir", cfg.Catalog.TemplateDir),
	)

	stats := buildStatsStore(cfg, zapLog)

	registry, err := catalog.Load(cfg.Catalog.TemplateDir, stats, log)
	if err != nil {
		zapLog.Fatal("template catalog load failed", zap.Error(err))
	}
	summary := registry.Summarize()
	zapLog.Info("Template catalog loaded",
		zap.Int("templates", summary.TemplateCount),
		zap.Int("categories", len(summary.Categories)),
	)

	p := pipeline.New(cfg, registry, log)

	if *serve {
		runServer(cfg, p, zapLog)
		return
	}

	var d *dispatch.Dispatcher
	if *submit {
		if cfg.API.BaseURL == "" {
			zapLog.Fatal("submit requested but api.base_url is not configured")
		}
		d = dispatch.New(cfg.API, log)
	}

	runOnce(p, d, zapLog, flag.Args())
}

// buildStatsStore picks the usage stats backend from configuration.
func buildStatsStore(cfg *config.Config, zapLog *zap.Logger) catalog.StatsStore {
	if cfg.Catalog.StatsStore != "redis" {
		return catalog.NewMemoryStatsStore()
	}

	store := catalog.NewRedisStatsStore(cfg.Redis)
	err := retryWithBackoff(func() error {
		return store.Ping(context.Background())
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	zapLog.Info("Redis connected successfully")
	return store
}

// runOnce processes one request from the arguments or stdin and prints
// the result JSON, optionally submitting valid payloads.
func runOnce(p *pipeline.Pipeline, d *dispatch.Dispatcher, zapLog *zap.Logger, args []string) {
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		scanner := bufio.NewScanner(os.Stdin)
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		text = strings.Join(lines, " ")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := p.Process(ctx, text)
	if err != nil && result == nil {
		zapLog.Fatal("request processing failed", zap.Error(err))
	}
	if err != nil {
		zapLog.Warn("request partially processed", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		zapLog.Fatal("result encoding failed", zap.Error(err))
	}

	if d == nil || result.Validation == nil || !result.Validation.Valid {
		return
	}

	resp, err := d.Dispatch(ctx, result.Selection.Template, result.Generation.Payload)
	if err != nil {
		zapLog.Fatal("dispatch failed", zap.Error(err))
	}
	zapLog.Info("payload submitted",
		zap.String("endpoint", resp.Endpoint),
		zap.Int("status", resp.StatusCode),
	)
}

// runServer exposes the pipeline over HTTP with health and metrics
// endpoints, shutting down on SIGINT/SIGTERM.
func runServer(cfg *config.Config, p *pipeline.Pipeline, zapLog *zap.Logger) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/process", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		result, err := p.Process(r.Context(), req.Text)
		if err != nil && result == nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}
		json.NewEncoder(w).Encode(result)
	})

	if cfg.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	server := &http.Server{Addr: cfg.Metrics.Address, Handler: mux}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error during shutdown", zap.Error(err))
	}

	zapLog.Info("combadge stopped gracefully")
}
