// cmd/server/main.go
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"stokvelhub/internal/audit"
	"stokvelhub/internal/config"
	"stokvelhub/internal/interest"
	"stokvelhub/internal/ledger"
	"stokvelhub/internal/member"
	"stokvelhub/internal/notify"
	"stokvelhub/internal/otp"
	"stokvelhub/internal/proof"
	"stokvelhub/internal/reference"
	"stokvelhub/internal/submission"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := setupTracing(ctx, cfg.OTLPEndpoint)
		if err != nil {
			log.Fatalf("Failed to set up tracing: %v", err)
		}
		defer shutdown(ctx)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := ledger.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	dispatcher := notify.NewDispatcher(&notify.ConsoleTransport{Sender: cfg.SMSSender})
	defer dispatcher.Close()

	proofRoot := os.Getenv("PROOF_ARTIFACT_DIR")
	if proofRoot == "" {
		proofRoot = "proofs"
	}
	proofs, err := proof.NewFSStore(proofRoot)
	if err != nil {
		log.Fatalf("Failed to open proof artifact store: %v", err)
	}

	auditLog := audit.NewLog(db)
	members := member.NewStore(db)
	subs := submission.NewStore(db)
	pools := interest.NewStore(db)
	cache := ledger.NewCache(db)

	memberRefs := reference.NewCounterGenerator(reference.MemberPrefix, reference.NewSQLCounter(db))
	submissionRefs := reference.NewRandomGenerator(reference.SubmissionPrefix, 6, subs.ReferenceExists)

	memberSvc := member.NewService(members, memberRefs, cfg, auditLog, dispatcher)
	engine := ledger.NewEngine(db, members, subs, pools, cache, submissionRefs, cfg, auditLog, dispatcher)
	otpSvc := otp.NewService(otp.NewSQLStore(db), dispatcher)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(r chi.Router) {
		member.NewHandler(memberSvc).Routes(r)
		ledger.NewHandler(engine, subs, proofs).Routes(r)
		interest.NewHandler(pools, members, cfg, auditLog).Routes(r)
		otp.NewHandler(otpSvc, memberSvc).Routes(r)
		audit.NewHandler(auditLog).Routes(r)
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		fmt.Printf("🚀 Starting Stokvel Ledger on port %d\n", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

func setupTracing(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}
