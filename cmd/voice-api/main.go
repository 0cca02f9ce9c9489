package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpadapter "github.com/BubbaTeePi/brushy-creek-voice/internal/adapters/http"
	"github.com/BubbaTeePi/brushy-creek-voice/internal/adapters/knowledge"
	"github.com/BubbaTeePi/brushy-creek-voice/internal/adapters/llm"
	firestorestore "github.com/BubbaTeePi/brushy-creek-voice/internal/adapters/storage/firestore"
	memstore "github.com/BubbaTeePi/brushy-creek-voice/internal/adapters/storage/memory"
	sqlitestore "github.com/BubbaTeePi/brushy-creek-voice/internal/adapters/storage/sqlite"
	"github.com/BubbaTeePi/brushy-creek-voice/internal/adapters/storage/tiered"
	"github.com/BubbaTeePi/brushy-creek-voice/internal/app/call"
	"github.com/BubbaTeePi/brushy-creek-voice/internal/config"
	"github.com/BubbaTeePi/brushy-creek-voice/internal/domain"
	"github.com/BubbaTeePi/brushy-creek-voice/internal/observability"
)

func main() {
	slog.SetDefault(observability.Logger())

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	persona, err := llm.LoadPersona(os.Getenv("PERSONA_PATH"))
	if err != nil {
		slog.Error("Failed to load persona", "error", err)
		os.Exit(1)
	}

	// LLM: mock locally, Gemini otherwise.
	var llmClient domain.LLMClient
	llmReady := false
	if cfg.UseMockLLM {
		slog.Info("Using mock LLM client")
		llmClient = llm.NewMockLLM()
	} else {
		slog.Info("Using Gemini LLM client", "model", cfg.ModelName)
		llmClient, err = llm.NewGeminiClient(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.ModelName, persona)
		if err != nil {
			slog.Error("Failed to initialize Gemini client", "error", err)
			os.Exit(1)
		}
		llmReady = true
	}

	// Session storage: in-process tier always, durable tier by backend.
	mem := memstore.NewSessionStore()
	var durable domain.SessionStore
	switch cfg.StorageBackend {
	case config.StorageSQLite:
		slog.Info("Using SQLite durable session tier", "path", cfg.DBPath)
		durable, err = sqlitestore.New(cfg.DBPath)
		if err != nil {
			// Degraded mode, not fatal: the in-process tier stays correct.
			slog.Warn("SQLite tier unavailable, running in-memory only", "error", err)
			durable = nil
		}
	case config.StorageFirestore:
		slog.Info("Using Firestore durable session tier", "project", cfg.GCPProjectID)
		durable, err = firestorestore.New(ctx, cfg.GCPProjectID)
		if err != nil {
			slog.Warn("Firestore tier unavailable, running in-memory only", "error", err)
			durable = nil
		}
	default:
		slog.Info("Using in-memory session storage only")
	}
	store := tiered.New(ctx, mem, durable)
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Failed to close session store", "error", err)
		}
	}()

	district := knowledge.NewBrushyCreek()

	turns := call.NewTurnProcessor(llmClient, district, cfg.HistoryWindowSize, cfg.ResponseTimeout)
	policy := call.NewPolicy(cfg.ClosingPhrases, cfg.TerminatingIntents)
	mgr := call.NewManager(store, turns, policy, llmClient, cfg.CallTimeout, cfg.CallHistoryLimit)

	if err := mgr.Initialize(ctx); err != nil {
		slog.Error("Failed to initialize call session manager", "error", err)
		os.Exit(1)
	}

	handler := httpadapter.NewServer(mgr, district, cfg, persona.Name, llmReady)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Voice service listening", "port", cfg.Port, "storage", string(cfg.StorageBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
	if err := mgr.Shutdown(shutdownCtx); err != nil {
		slog.Error("Manager shutdown failed", "error", err)
	}
}
