package memory

import (
	"context"
	"sync"

	settlement "parcelops/internal/settlement/domain"
)

// RequestRepository is an in-memory settlement request store.
type RequestRepository struct {
	mu       sync.RWMutex
	requests map[string]settlement.Request
	order    []string
}

// NewRequestRepository constructs a repository.
func NewRequestRepository() *RequestRepository {
	return &RequestRepository{requests: make(map[string]settlement.Request)}
}

// Save inserts or replaces a request.
func (r *RequestRepository) Save(ctx context.Context, req settlement.Request) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.requests[req.ID]; !exists {
		r.order = append(r.order, req.ID)
	}
	r.requests[req.ID] = req
	return nil
}

// GetByID returns a request or nil when absent.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*settlement.Request, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	found := req
	return &found, nil
}

// UpdateStatus sets the status of a request.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id, status string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return settlement.ErrRequestNotFound
	}
	req.Status = status
	r.requests[id] = req
	return nil
}

// ListPending returns pending requests in insertion order.
func (r *RequestRepository) ListPending(ctx context.Context) ([]settlement.Request, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []settlement.Request
	for _, id := range r.order {
		if req := r.requests[id]; req.Status == settlement.RequestStatusPending {
			out = append(out, req)
		}
	}
	return out, nil
}
