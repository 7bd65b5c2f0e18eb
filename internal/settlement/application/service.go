package application

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"parcelops/internal/audit"
	"parcelops/internal/auth"
	"parcelops/internal/gl"
	ledger "parcelops/internal/ledger/domain"
	"parcelops/internal/observability/metrics"
	"parcelops/internal/party"
	settlement "parcelops/internal/settlement/domain"
)

// RequestStore persists settlement requests across the approval workflow.
type RequestStore interface {
	Save(ctx context.Context, req settlement.Request) error
	GetByID(ctx context.Context, id string) (*settlement.Request, error)
	UpdateStatus(ctx context.Context, id, status string) error
	ListPending(ctx context.Context) ([]settlement.Request, error)
}

// ProposeResult is a settlement request together with its double-entry
// preview. RoutingConfigured is false when the preview fell back to the
// suspense account; the request is still proposed so the operator sees
// the gap before any posting happens.
type ProposeResult struct {
	Request           settlement.Request
	Preview           []gl.Line
	RoutingConfigured bool
}

// Service drives the settlement workflow: propose from a fresh replay
// snapshot, then commit under the conditional-settle contract.
type Service struct {
	engine    *ledger.Engine
	selector  settlement.Selector
	routing   *gl.Routing
	parties   party.Repository
	committer ledger.SettlementCommitter
	requests  RequestStore
	auditor   audit.Logger
	clock     ledger.Clock
}

// NewService constructs the settlement service.
func NewService(
	engine *ledger.Engine,
	selector settlement.Selector,
	routing *gl.Routing,
	parties party.Repository,
	committer ledger.SettlementCommitter,
	requests RequestStore,
	auditor audit.Logger,
	clock ledger.Clock,
) (*Service, error) {
	if engine == nil {
		return nil, errors.New("settlement service: nil engine")
	}
	if parties == nil {
		return nil, errors.New("settlement service: nil party repository")
	}
	if committer == nil {
		return nil, errors.New("settlement service: nil settlement committer")
	}
	if requests == nil {
		return nil, errors.New("settlement service: nil request store")
	}
	if clock == nil {
		clock = ledger.SystemClock{}
	}
	return &Service{
		engine:    engine,
		selector:  selector,
		routing:   routing,
		parties:   parties,
		committer: committer,
		requests:  requests,
		auditor:   auditor,
		clock:     clock,
	}, nil
}

// Propose replays the party, selects the payable items for the target
// currency, and records a pending settlement request with its GL preview.
func (s *Service) Propose(ctx context.Context, partyID string, target ledger.Currency, sessionMode settlement.Mode, description string) (*ProposeResult, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveSettlementPropose(result, time.Since(start))
	}()

	p, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if p == nil {
		result = metrics.ResultError
		return nil, party.ErrPartyNotFound
	}

	items, version, err := s.engine.LiveItems(ctx, partyID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}

	mode := settlement.ResolveMode(p.GrossPayout, sessionMode)
	proposal, err := s.selector.Select(partyID, items, version, target, mode)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}

	preview, previewErr := gl.PreviewEntries(ledger.KindSettlement, target, proposal.NetAmount, s.routing)
	if previewErr != nil && !errors.Is(previewErr, gl.ErrUnconfiguredRouting) {
		result = metrics.ResultError
		return nil, previewErr
	}

	req := settlement.NewRequest(proposal, description, s.clock.Now())
	if err := s.requests.Save(ctx, req); err != nil {
		result = metrics.ResultError
		return nil, err
	}

	s.logAudit(ctx, "settlement.propose", req)

	return &ProposeResult{
		Request:           req,
		Preview:           preview,
		RoutingConfigured: previewErr == nil,
	}, nil
}

// Commit finalizes an approved request: it rejects stale snapshots, then
// settles every referenced item and writes the SETTLEMENT ledger
// transaction in one unit of work. An item claimed by a concurrent commit
// fails the whole call with no partial writes, and a failed commit leaves
// the request pending and retryable.
func (s *Service) Commit(ctx context.Context, requestID string) error {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveSettlementCommit(result, time.Since(start))
	}()

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		result = metrics.ResultError
		return err
	}
	if req == nil {
		result = metrics.ResultError
		return settlement.ErrRequestNotFound
	}
	if req.Status != settlement.RequestStatusPending {
		result = metrics.ResultError
		return settlement.ErrNotPending
	}

	p, err := s.parties.GetByID(ctx, req.PartyID)
	if err != nil {
		result = metrics.ResultError
		return err
	}
	if p == nil {
		result = metrics.ResultError
		return party.ErrPartyNotFound
	}
	if !p.HasLogin() {
		result = metrics.ResultError
		return party.ErrUnlinked
	}

	version, err := s.engine.Version(ctx, req.PartyID)
	if err != nil {
		result = metrics.ResultError
		return err
	}
	if version.After(req.SnapshotVersion) {
		result = metrics.ResultError
		return settlement.ErrStaleSnapshot
	}

	tx := ledger.Transaction{
		ID:           ledger.NewTransactionID(),
		PartyID:      req.PartyID,
		Amount:       req.NetAmount,
		Currency:     req.Currency,
		Kind:         ledger.KindSettlement,
		Status:       ledger.StatusApproved,
		Timestamp:    s.clock.Now(),
		RelatedItems: req.Items,
		Description:  req.Description,
	}
	if err := s.committer.CommitSettlement(ctx, tx); err != nil {
		result = metrics.ResultError
		return err
	}

	if err := s.requests.UpdateStatus(ctx, req.ID, settlement.RequestStatusCommitted); err != nil {
		result = metrics.ResultError
		return err
	}

	s.logAudit(ctx, "settlement.commit", *req)
	return nil
}

// Discard drops a pending request that was not committed within its
// freshness window. A fresh replay is required before re-proposing.
func (s *Service) Discard(ctx context.Context, requestID string) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return settlement.ErrRequestNotFound
	}
	if req.Status != settlement.RequestStatusPending {
		return settlement.ErrNotPending
	}
	if err := s.requests.UpdateStatus(ctx, req.ID, settlement.RequestStatusDiscarded); err != nil {
		return err
	}
	s.logAudit(ctx, "settlement.discard", *req)
	return nil
}

func (s *Service) logAudit(ctx context.Context, action string, req settlement.Request) {
	if s.auditor == nil {
		return
	}
	payload, err := json.Marshal(req)
	if err != nil {
		payload = nil
	}
	_ = s.auditor.Log(ctx, audit.Entry{
		ID:            audit.NewID(),
		Actor:         auth.SubjectFromContext(ctx),
		Role:          string(auth.RoleFromContext(ctx)),
		Action:        action,
		ResourceType:  "settlement_request",
		ResourceID:    req.ID,
		PartyID:       req.PartyID,
		Metadata:      payload,
		PayloadDigest: audit.DigestJSON(payload),
		CreatedAt:     s.clock.Now(),
	})
}
