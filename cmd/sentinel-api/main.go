package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"go-data-sentinel/internal/api"
	"go-data-sentinel/internal/api/handler"
	"go-data-sentinel/internal/audit"
	"go-data-sentinel/internal/store"
	"go-data-sentinel/pkg/router"
)

// @title Data Sentinel Audit API
// @version 1.0
// @description Audit trail and validation report query API
// @BasePath /api/v1
func main() {
	var (
		dbPath = flag.String("db", "datasentinel.db", "path to the audit SQLite database")
		addr   = flag.String("addr", ":8080", "listen address")
	)
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	st, err := store.Open(*dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: failed to open audit database:", err)
		os.Exit(1)
	}
	defer st.Close()

	recorder := audit.NewRecorder(st, logger, audit.DefaultRetryPolicy())
	h := handler.New(recorder, logger)

	r := router.New(logger)
	api.RegisterRoutes(r, h)

	logger.Info("starting audit API", zap.String("addr", *addr), zap.String("db", *dbPath))
	if err := r.Start(*addr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
