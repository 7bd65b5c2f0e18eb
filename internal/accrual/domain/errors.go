package accrual

import "errors"

var (
	// ErrNilStore is returned when an evaluator is built without its stores.
	ErrNilStore = errors.New("accrual: nil store")
	// ErrNotEligible is returned when a redemption targets a proposal with
	// no cashback in the chosen currency.
	ErrNotEligible = errors.New("accrual: not eligible")
	// ErrRuleNotFound is returned when a rule lookup misses.
	ErrRuleNotFound = errors.New("accrual: rule not found")
)
