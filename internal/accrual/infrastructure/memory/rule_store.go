package memory

import (
	"context"
	"sync"

	accrual "parcelops/internal/accrual/domain"
)

// RuleStore is an in-memory accrual rule store.
type RuleStore struct {
	mu    sync.RWMutex
	rules map[string]accrual.Rule
	order []string
}

// NewRuleStore constructs a store.
func NewRuleStore() *RuleStore {
	return &RuleStore{rules: make(map[string]accrual.Rule)}
}

// Put inserts or replaces a rule.
func (s *RuleStore) Put(ctx context.Context, rule accrual.Rule) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rules[rule.ID]; !exists {
		s.order = append(s.order, rule.ID)
	}
	s.rules[rule.ID] = rule
	return nil
}

// GetByID returns a rule by identifier.
func (s *RuleStore) GetByID(ctx context.Context, id string) (*accrual.Rule, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[id]
	if !ok {
		return nil, accrual.ErrRuleNotFound
	}
	found := rule
	return &found, nil
}

// ListRules returns all rules in insertion order.
func (s *RuleStore) ListRules(ctx context.Context) ([]accrual.Rule, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]accrual.Rule, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rules[id])
	}
	return out, nil
}
