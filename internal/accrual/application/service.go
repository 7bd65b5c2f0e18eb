package application

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	accrual "parcelops/internal/accrual/domain"
	"parcelops/internal/audit"
	"parcelops/internal/auth"
	"parcelops/internal/gl"
	ledger "parcelops/internal/ledger/domain"
	"parcelops/internal/observability/metrics"
	"parcelops/internal/party"
)

// RedeemResult is the cashback ledger entry with its GL preview.
type RedeemResult struct {
	Transaction       ledger.Transaction
	Preview           []gl.Line
	RoutingConfigured bool
}

// Service evaluates cashback rules and redeems eligible proposals into
// wallet ledger entries.
type Service struct {
	evaluator *accrual.Evaluator
	routing   *gl.Routing
	parties   party.Repository
	writer    ledger.TransactionWriter
	auditor   audit.Logger
	clock     ledger.Clock
}

// NewService constructs the accrual service.
func NewService(evaluator *accrual.Evaluator, routing *gl.Routing, parties party.Repository, writer ledger.TransactionWriter, auditor audit.Logger, clock ledger.Clock) (*Service, error) {
	if evaluator == nil {
		return nil, errors.New("accrual service: nil evaluator")
	}
	if parties == nil {
		return nil, errors.New("accrual service: nil party repository")
	}
	if writer == nil {
		return nil, errors.New("accrual service: nil ledger writer")
	}
	if clock == nil {
		clock = ledger.SystemClock{}
	}
	return &Service{
		evaluator: evaluator,
		routing:   routing,
		parties:   parties,
		writer:    writer,
		auditor:   auditor,
		clock:     clock,
	}, nil
}

// Evaluate runs all active rules against the period.
func (s *Service) Evaluate(ctx context.Context, period accrual.Period) ([]accrual.Proposal, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveAccrualEvaluate(result, time.Since(start))
	}()

	proposals, err := s.evaluator.Evaluate(ctx, period)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return proposals, nil
}

// Redeem turns an eligible proposal into a pending CASHBACK ledger entry
// for the chosen currency. The party must have a linked login identity to
// credit; redeeming without one is refused, not asserted away.
func (s *Service) Redeem(ctx context.Context, proposal accrual.Proposal, currency ledger.Currency) (*RedeemResult, error) {
	amount, err := cashbackFor(proposal, currency)
	if err != nil {
		return nil, err
	}
	if !proposal.Eligible || amount <= 0 {
		return nil, accrual.ErrNotEligible
	}

	p, err := s.parties.GetByID(ctx, proposal.PartyID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, party.ErrPartyNotFound
	}
	if !p.HasLogin() {
		return nil, party.ErrUnlinked
	}

	preview, previewErr := gl.PreviewEntries(ledger.KindCashback, currency, amount, s.routing)
	if previewErr != nil && !errors.Is(previewErr, gl.ErrUnconfiguredRouting) {
		return nil, previewErr
	}

	tx := ledger.Transaction{
		ID:          ledger.NewTransactionID(),
		PartyID:     proposal.PartyID,
		Amount:      amount,
		Currency:    currency,
		Kind:        ledger.KindCashback,
		Status:      ledger.StatusPending,
		Timestamp:   s.clock.Now(),
		Description: "cashback " + proposal.RuleID,
	}
	if err := s.writer.Append(ctx, tx); err != nil {
		return nil, err
	}

	s.logAudit(ctx, tx, proposal)

	return &RedeemResult{
		Transaction:       tx,
		Preview:           preview,
		RoutingConfigured: previewErr == nil,
	}, nil
}

func cashbackFor(proposal accrual.Proposal, currency ledger.Currency) (float64, error) {
	switch currency {
	case ledger.USD:
		return proposal.CashbackUSD, nil
	case ledger.KHR:
		return proposal.CashbackKHR, nil
	default:
		return 0, ledger.ErrUnknownCurrency
	}
}

func (s *Service) logAudit(ctx context.Context, tx ledger.Transaction, proposal accrual.Proposal) {
	if s.auditor == nil {
		return
	}
	payload, err := json.Marshal(proposal)
	if err != nil {
		payload = nil
	}
	_ = s.auditor.Log(ctx, audit.Entry{
		ID:            audit.NewID(),
		Actor:         auth.SubjectFromContext(ctx),
		Role:          string(auth.RoleFromContext(ctx)),
		Action:        "accrual.redeem",
		ResourceType:  "ledger_transaction",
		ResourceID:    tx.ID,
		PartyID:       tx.PartyID,
		Metadata:      payload,
		PayloadDigest: audit.DigestJSON(payload),
		CreatedAt:     s.clock.Now(),
	})
}
