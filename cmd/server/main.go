/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the stock ledger engine server: configuration,
  dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env and parse flags
  2. Pick the ledger store (in-memory, or SQLite with -db)
  3. Rebuild the stock index by replaying the ledger
  4. Wire catalog, document store, engine, handler, router
  5. Start the server; stop it gracefully on SIGINT/SIGTERM

COMMAND-LINE FLAGS (env fallbacks in parentheses):
  -port   HTTP server port (PORT, default 4000)
  -db     SQLite ledger path, empty for in-memory (DB_PATH)
          Use ":memory:" for throwaway SQLite
  -seed   Load the demo dataset at startup (SEED=true)

NOTE:
  Only the ledger persists with -db; catalog and documents are in-memory
  and start empty after a restart. Opening quantities are still recovered,
  by replay, which is the point of the ledger.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/warp/stock-engine/api"
	"github.com/warp/stock-engine/catalog"
	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/inventory/store"
	"github.com/warp/stock-engine/store/sqlite"
	"github.com/warp/stock-engine/workflow"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found")
	}

	port := flag.Int("port", envInt("PORT", 4000), "HTTP server port")
	dbPath := flag.String("db", os.Getenv("DB_PATH"), "SQLite ledger path (empty = in-memory)")
	seed := flag.Bool("seed", os.Getenv("SEED") == "true", "load demo data at startup")
	rejectNegative := flag.Bool("reject-negative", os.Getenv("REJECT_NEGATIVE") == "true", "reject completions that would drive stock negative")
	flag.Parse()

	log := logrus.New()
	if os.Getenv("LOG_FORMAT") == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	ctx := context.Background()

	// Ledger store selection
	var ledger inventory.Ledger
	if *dbPath != "" {
		sq, err := sqlite.New(*dbPath)
		if err != nil {
			log.WithError(err).Fatal("failed to open ledger database")
		}
		defer sq.Close()
		ledger = sq
		log.WithField("path", *dbPath).Info("using sqlite ledger")
	} else {
		ledger = store.NewMemory()
	}

	index := inventory.NewStockIndex(ledger)
	if err := index.Rebuild(ctx); err != nil {
		log.WithError(err).Fatal("failed to replay ledger")
	}

	engine := workflow.NewEngine(catalog.New(), index, ledger, workflow.NewDocumentStore())
	engine.Log = log
	if *rejectNegative {
		engine.Overdraft = inventory.RejectNegative
	}

	if *seed {
		if err := api.Seed(ctx, engine); err != nil {
			log.WithError(err).Fatal("failed to load seed data")
		}
		log.Info("seed data loaded")
	}

	router := api.NewRouter(api.NewHandler(engine))
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}
	log.Info("server stopped")
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
