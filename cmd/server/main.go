// cmd/server/main.go
package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"bibliocore/internal/catalog"
	"bibliocore/internal/config"
	"bibliocore/internal/loans"
	"bibliocore/internal/members"
	"bibliocore/internal/reports"
	"bibliocore/internal/telemetry"
	"bibliocore/pkg/clock"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	shutdown, err := telemetry.Setup(ctx, "bibliocore", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("Failed to set up telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	clk := clock.System{}

	loanRepo := buildLoanRepository(cfg, db)
	catalogSvc := catalog.NewService(db)
	membersSvc := members.NewService(db)
	loansSvc := loans.NewService(loanRepo, catalogSvc, clk, loans.PenaltyConfig{DailyFine: cfg.DailyFine})

	reportRepo := reports.NewPostgresRepository(db)
	reportsSvc := reports.NewService(reportRepo, loanRepo, membersSvc, catalogSvc, clk)
	exporter := reports.NewExporter(reportRepo, cfg.ExportDir, clk)

	loanHandler := loans.NewHandler(loansSvc)
	reportHandler := reports.NewHandler(reportsSvc, exporter)
	memberHandler := members.NewHandler(membersSvc)
	catalogHandler := catalog.NewHandler(catalogSvc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/loans", func(r chi.Router) {
		r.Post("/", loanHandler.HandleRegisterLoan)
		r.Post("/{id}/extend", loanHandler.HandleExtendLoan)
		r.Post("/{id}/return", loanHandler.HandleRegisterReturn)
		r.Post("/{id}/cancel", loanHandler.HandleCancelLoan)
		r.Post("/{id}/penalty", loanHandler.HandleAssessPenalty)
		r.Get("/borrower/{borrowerID}/restricted", loanHandler.HandleIsRestricted)
		r.Get("/borrower/{borrowerID}/history", loanHandler.HandleHistory)
	})

	r.Route("/reports", func(r chi.Router) {
		r.Post("/generate", reportHandler.HandleGenerate)
		r.Post("/", reportHandler.HandleCreateManual)
		r.Get("/", reportHandler.HandleList)
		r.Get("/{id}", reportHandler.HandleGet)
		r.Post("/{id}/notes", reportHandler.HandleAppendNote)
		r.Post("/{id}/export", reportHandler.HandleExport)
	})

	r.Route("/members", func(r chi.Router) {
		r.Post("/", memberHandler.HandleRegister)
		r.Post("/login", memberHandler.HandleLogin)
		r.Get("/active", memberHandler.HandleActive)
		r.Get("/{id}", memberHandler.HandleGet)
	})

	r.Get("/books/{id}", catalogHandler.HandleGetBook)
	r.Get("/copies/{id}", catalogHandler.HandleGetCopy)

	log.Printf("Starting bibliocore server on port %s (storage backend: %s)", cfg.Port, cfg.StorageBackend)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}

// buildLoanRepository selects one of the two interchangeable loan
// persistence backends at composition time.
func buildLoanRepository(cfg config.Config, db *sql.DB) loans.Repository {
	switch cfg.StorageBackend {
	case "goqu":
		return loans.NewQueryBuilderRepository(sqlx.NewDb(db, "postgres"))
	default:
		return loans.NewPostgresRepository(db)
	}
}
