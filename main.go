package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	accrualapp "parcelops/internal/accrual/application"
	accrual "parcelops/internal/accrual/domain"
	accrualrepo "parcelops/internal/accrual/infrastructure/postgres"
	agingrepo "parcelops/internal/aging/infrastructure/postgres"
	apihttp "parcelops/internal/api/http"
	"parcelops/internal/audit"
	"parcelops/internal/auth"
	"parcelops/internal/config"
	ledger "parcelops/internal/ledger/domain"
	ledgerrepo "parcelops/internal/ledger/infrastructure/postgres"
	"parcelops/internal/observability/metrics"
	"parcelops/internal/party"
	settlementapp "parcelops/internal/settlement/application"
	settlement "parcelops/internal/settlement/domain"
	settlementrepo "parcelops/internal/settlement/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	partyRepo := ledgerrepo.NewPartyRepository(db)
	txRepo := ledgerrepo.NewTransactionRepository(db)
	bookingRepo := ledgerrepo.NewBookingRepository(db)
	settlementCommitRepo := ledgerrepo.NewSettlementRepository(db)
	requestRepo := settlementrepo.NewRequestRepository(db)
	ruleStore := accrualrepo.NewRuleStore(db)
	receivableRepo := agingrepo.NewReceivableRepository(db)

	resolver, err := party.NewResolver(partyRepo)
	if err != nil {
		logger.Fatalf("resolver error: %v", err)
	}
	engine, err := ledger.NewEngine(txRepo, bookingRepo, resolver, ledger.SystemClock{})
	if err != nil {
		logger.Fatalf("ledger engine error: %v", err)
	}

	routing, err := cfg.Routing()
	if err != nil {
		logger.Fatalf("routing config error: %v", err)
	}
	selector := settlement.NewSelector(cfg.MaterialityThresholds())
	settlementService, err := settlementapp.NewService(engine, selector, routing,
		partyRepo, settlementCommitRepo, requestRepo, auditRepo, ledger.SystemClock{})
	if err != nil {
		logger.Fatalf("settlement service error: %v", err)
	}

	evaluator, err := accrual.NewEvaluator(ruleStore, bookingRepo, resolver)
	if err != nil {
		logger.Fatalf("accrual evaluator error: %v", err)
	}
	accrualService, err := accrualapp.NewService(evaluator, routing, partyRepo, txRepo, auditRepo, ledger.SystemClock{})
	if err != nil {
		logger.Fatalf("accrual service error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	walletHandler := apihttp.NewWalletHandler(engine)
	settlementHandler := apihttp.NewSettlementHandler(settlementService, requestRepo, engine, routing)
	accrualHandler := apihttp.NewAccrualHandler(accrualService)
	agingHandler := apihttp.NewAgingReportHandler(receivableRepo, ledger.SystemClock{})

	mux := http.NewServeMux()
	mux.Handle("/api/v1/wallets", walletHandler)
	mux.Handle("/api/v1/wallets/", walletHandler)
	mux.Handle("/api/v1/settlements", settlementHandler)
	mux.Handle("/api/v1/settlements/", settlementHandler)
	mux.Handle("/api/v1/accruals", accrualHandler)
	mux.Handle("/api/v1/accruals/", accrualHandler)
	mux.Handle("/api/v1/reports/aging.xlsx", agingHandler)
	mux.Handle("/api/v1/reports/aging.pdf", agingHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
