package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	accrualapp "parcelops/internal/accrual/application"
	accrual "parcelops/internal/accrual/domain"
	aging "parcelops/internal/aging/domain"
	aginginterfaces "parcelops/internal/aging/interfaces"
	"parcelops/internal/gl"
	ledger "parcelops/internal/ledger/domain"
	"parcelops/internal/observability/metrics"
	"parcelops/internal/party"
	settlementapp "parcelops/internal/settlement/application"
	settlement "parcelops/internal/settlement/domain"
	settlementinterfaces "parcelops/internal/settlement/interfaces"
)

// WalletHandler serves replayed wallet balances.
type WalletHandler struct {
	engine *ledger.Engine
}

// NewWalletHandler constructs a WalletHandler.
func NewWalletHandler(engine *ledger.Engine) *WalletHandler {
	return &WalletHandler{engine: engine}
}

// ServeHTTP handles GET /api/v1/wallets and
// GET /api/v1/wallets/{partyID}/balance.
func (h *WalletHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.engine == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	if r.URL.Path == "/api/v1/wallets" {
		start := time.Now()
		balances, err := h.engine.WalletBalances(r.Context())
		if err != nil {
			metrics.ObserveReplay(metrics.ResultError, time.Since(start))
			writeError(w, err)
			return
		}
		metrics.ObserveReplay(metrics.ResultSuccess, time.Since(start))
		metrics.SetUnregisteredWallets(countUnregistered(balances))
		writeJSON(w, balances)
		return
	}

	partyID := walletPartyID(r.URL.Path)
	if partyID == "" {
		http.Error(w, "party id is required", http.StatusBadRequest)
		return
	}
	start := time.Now()
	snap, err := h.engine.Replay(r.Context(), partyID)
	if err != nil {
		metrics.ObserveReplay(metrics.ResultError, time.Since(start))
		writeError(w, err)
		return
	}
	metrics.ObserveReplay(metrics.ResultSuccess, time.Since(start))
	writeJSON(w, map[string]any{
		"party_id": snap.PartyID,
		"usd":      snap.Balance.USD,
		"khr":      snap.Balance.KHR,
		"version":  snap.Version.Format(time.RFC3339Nano),
	})
}

func countUnregistered(balances map[string]ledger.Balance) int {
	n := 0
	for key := range balances {
		if party.UnregisteredKey(key) {
			n++
		}
	}
	return n
}

func walletPartyID(path string) string {
	rest := strings.TrimPrefix(path, "/api/v1/wallets/")
	rest = strings.TrimSuffix(rest, "/balance")
	if strings.Contains(rest, "/") {
		return ""
	}
	return rest
}

// SettlementHandler serves the settlement workflow endpoints.
type SettlementHandler struct {
	service *settlementapp.Service
	store   settlementapp.RequestStore
	engine  *ledger.Engine
	routing *gl.Routing
}

// NewSettlementHandler constructs a SettlementHandler.
func NewSettlementHandler(service *settlementapp.Service, store settlementapp.RequestStore, engine *ledger.Engine, routing *gl.Routing) *SettlementHandler {
	return &SettlementHandler{service: service, store: store, engine: engine, routing: routing}
}

// ServeHTTP routes /api/v1/settlements and its propose/commit/discard
// actions plus the voucher download.
func (h *SettlementHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	switch {
	case r.URL.Path == "/api/v1/settlements" && r.Method == http.MethodGet:
		h.listPending(w, r)
	case r.URL.Path == "/api/v1/settlements/propose" && r.Method == http.MethodPost:
		h.propose(w, r)
	case r.URL.Path == "/api/v1/settlements/commit" && r.Method == http.MethodPost:
		h.commit(w, r)
	case r.URL.Path == "/api/v1/settlements/discard" && r.Method == http.MethodPost:
		h.discard(w, r)
	case r.URL.Path == "/api/v1/settlements/voucher.pdf" && r.Method == http.MethodGet:
		h.voucher(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// voucher renders the payout voucher PDF for a pending request. Items are
// matched against the current replay snapshot; a committed request's
// items are already settled and no longer render line amounts.
func (h *SettlementHandler) voucher(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.engine == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	id := r.URL.Query().Get("request_id")
	if id == "" {
		http.Error(w, "request_id is required", http.StatusBadRequest)
		return
	}
	req, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if req == nil {
		http.Error(w, settlement.ErrRequestNotFound.Error(), http.StatusNotFound)
		return
	}

	live, _, err := h.engine.LiveItems(r.Context(), req.PartyID)
	if err != nil {
		writeError(w, err)
		return
	}
	wanted := make(map[ledger.ItemRef]struct{}, len(req.Items))
	for _, ref := range req.Items {
		wanted[ref] = struct{}{}
	}
	var items []ledger.LiveItem
	for _, li := range live {
		if _, ok := wanted[li.Ref]; ok {
			items = append(items, li)
		}
	}

	preview, previewErr := gl.PreviewEntries(ledger.KindSettlement, req.Currency, req.NetAmount, h.routing)
	if previewErr != nil && !errors.Is(previewErr, gl.ErrUnconfiguredRouting) {
		writeError(w, previewErr)
		return
	}

	data, err := settlementinterfaces.BuildVoucherPDF(*req, items, preview)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="voucher-`+req.ID+`.pdf"`)
	_, _ = w.Write(data)
}

func (h *SettlementHandler) listPending(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	pending, err := h.store.ListPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, pending)
}

func (h *SettlementHandler) propose(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PartyID     string `json:"party_id"`
		Currency    string `json:"currency"`
		Mode        string `json:"mode"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	currency, err := ledger.ParseCurrency(body.Currency)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := h.service.Propose(r.Context(), body.PartyID, currency, settlement.Mode(body.Mode), body.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

func (h *SettlementHandler) commit(w http.ResponseWriter, r *http.Request) {
	id, ok := decodeRequestID(w, r)
	if !ok {
		return
	}
	if err := h.service.Commit(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"request_id": id, "status": settlement.RequestStatusCommitted})
}

func (h *SettlementHandler) discard(w http.ResponseWriter, r *http.Request) {
	id, ok := decodeRequestID(w, r)
	if !ok {
		return
	}
	if err := h.service.Discard(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"request_id": id, "status": settlement.RequestStatusDiscarded})
}

func decodeRequestID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body struct {
		RequestID string `json:"request_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return "", false
	}
	if body.RequestID == "" {
		http.Error(w, "request_id is required", http.StatusBadRequest)
		return "", false
	}
	return body.RequestID, true
}

// AccrualHandler serves accrual evaluation and cashback redemption.
type AccrualHandler struct {
	service *accrualapp.Service
}

// NewAccrualHandler constructs an AccrualHandler.
func NewAccrualHandler(service *accrualapp.Service) *AccrualHandler {
	return &AccrualHandler{service: service}
}

// ServeHTTP routes /api/v1/accruals and /api/v1/accruals/redeem.
func (h *AccrualHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	switch {
	case r.URL.Path == "/api/v1/accruals" && r.Method == http.MethodGet:
		h.evaluate(w, r)
	case r.URL.Path == "/api/v1/accruals/redeem" && r.Method == http.MethodPost:
		h.redeem(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *AccrualHandler) evaluate(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	proposals, err := h.service.Evaluate(r.Context(), period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, proposals)
}

func (h *AccrualHandler) redeem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RuleID   string `json:"rule_id"`
		From     string `json:"from"`
		To       string `json:"to"`
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	currency, err := ledger.ParseCurrency(body.Currency)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	period, err := parsePeriodStrings(body.From, body.To)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Re-evaluate against the current state; a stored proposal could be
	// stale by the time the redemption is approved.
	proposals, err := h.service.Evaluate(r.Context(), period)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, p := range proposals {
		if p.RuleID != body.RuleID {
			continue
		}
		result, err := h.service.Redeem(r.Context(), p, currency)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, result)
		return
	}
	http.Error(w, accrual.ErrRuleNotFound.Error(), http.StatusNotFound)
}

func parsePeriod(r *http.Request) (accrual.Period, error) {
	return parsePeriodStrings(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
}

func parsePeriodStrings(from, to string) (accrual.Period, error) {
	if from == "" || to == "" {
		return accrual.Period{}, errors.New("from and to are required")
	}
	start, err := time.Parse(time.RFC3339, from)
	if err != nil {
		return accrual.Period{}, errors.New("from must be RFC3339")
	}
	end, err := time.Parse(time.RFC3339, to)
	if err != nil {
		return accrual.Period{}, errors.New("to must be RFC3339")
	}
	if !end.After(start) {
		return accrual.Period{}, errors.New("to must be after from")
	}
	return accrual.Period{From: start, To: end}, nil
}

// ReceivableSource reads open receivables for aging reports.
type ReceivableSource interface {
	ListOpen(ctx context.Context) ([]aging.Receivable, error)
}

// AgingReportHandler serves the aging report downloads.
type AgingReportHandler struct {
	receivables ReceivableSource
	clock       ledger.Clock
}

// NewAgingReportHandler constructs an AgingReportHandler.
func NewAgingReportHandler(receivables ReceivableSource, clock ledger.Clock) *AgingReportHandler {
	if clock == nil {
		clock = ledger.SystemClock{}
	}
	return &AgingReportHandler{receivables: receivables, clock: clock}
}

// ServeHTTP handles GET /api/v1/reports/aging.xlsx and aging.pdf. An
// as_of query overrides the report date.
func (h *AgingReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.receivables == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	asOf := h.clock.Now().UTC()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "as_of must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		asOf = parsed
	}

	receivables, err := h.receivables.ListOpen(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := aging.ComputeAging(receivables, asOf)
	if err != nil {
		writeError(w, err)
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "aging.xlsx"):
		data, err := aginginterfaces.BuildAgingXLSX(report)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="aging.xlsx"`)
		_, _ = w.Write(data)
	case strings.HasSuffix(r.URL.Path, "aging.pdf"):
		data, err := aginginterfaces.BuildAgingPDF(report)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="aging.pdf"`)
		_, _ = w.Write(data)
	default:
		http.Error(w, "unknown report format", http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels onto HTTP status codes. Everything in
// the taxonomy is operator-recoverable, so nothing maps to 500 except
// genuinely unknown failures.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, party.ErrPartyNotFound),
		errors.Is(err, settlement.ErrRequestNotFound),
		errors.Is(err, ledger.ErrItemNotFound),
		errors.Is(err, accrual.ErrRuleNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, settlement.ErrStaleSnapshot),
		errors.Is(err, ledger.ErrAlreadySettled),
		errors.Is(err, settlement.ErrNotPending):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, settlement.ErrNothingToSettle),
		errors.Is(err, accrual.ErrNotEligible),
		errors.Is(err, party.ErrUnlinked),
		errors.Is(err, settlement.ErrMixedCurrencyItem),
		errors.Is(err, ledger.ErrUnknownCurrency),
		errors.Is(err, aging.ErrInvalidExchangeRate):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
