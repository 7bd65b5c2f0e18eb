package party

import (
	"context"
	"strings"
)

// AttributionKind describes how a booking was attributed to a wallet.
type AttributionKind string

const (
	// Matched means the booking resolved to a known party.
	Matched AttributionKind = "matched"
	// Unregistered means no party could be resolved; money is tracked
	// under a synthetic key so operators still see it.
	Unregistered AttributionKind = "unregistered"
)

// Attribution is the typed result of wallet attribution. It is never a
// silent default: an unresolved booking is reported as Unregistered.
type Attribution struct {
	Kind         AttributionKind
	PartyID      string
	SyntheticKey string
}

// WalletKey returns the accumulator key for this attribution.
func (a Attribution) WalletKey() string {
	if a.Kind == Matched {
		return "party:" + a.PartyID
	}
	return "unregistered:" + a.SyntheticKey
}

// UnregisteredKey reports whether a wallet key names a synthetic bucket
// rather than a known party.
func UnregisteredKey(key string) bool {
	return strings.HasPrefix(key, "unregistered:")
}

// Repository lists known parties for attribution and lookups.
type Repository interface {
	List(ctx context.Context) ([]Party, error)
	GetByID(ctx context.Context, id string) (*Party, error)
}

// Resolver attributes a booking counterpart to a party in two stages:
// exact id match first, then a normalized phone-suffix match against all
// known parties.
type Resolver struct {
	repo Repository
}

// NewResolver constructs a resolver.
func NewResolver(repo Repository) (*Resolver, error) {
	if repo == nil {
		return nil, ErrNilRepository
	}
	return &Resolver{repo: repo}, nil
}

// Resolve attributes a counterpart reference (id and/or phone) to a wallet.
func (r *Resolver) Resolve(ctx context.Context, counterpartID, counterpartPhone string) (Attribution, error) {
	if counterpartID != "" {
		p, err := r.repo.GetByID(ctx, counterpartID)
		if err != nil {
			return Attribution{}, err
		}
		if p != nil {
			return Attribution{Kind: Matched, PartyID: p.ID}, nil
		}
	}

	if counterpartPhone != "" {
		parties, err := r.repo.List(ctx)
		if err != nil {
			return Attribution{}, err
		}
		for _, p := range parties {
			if PhoneSuffixMatch(p.Phone, counterpartPhone) {
				return Attribution{Kind: Matched, PartyID: p.ID}, nil
			}
		}
	}

	key := counterpartID
	if key == "" {
		key = NormalizePhone(counterpartPhone)
	}
	if key == "" {
		key = "unknown"
	}
	return Attribution{Kind: Unregistered, SyntheticKey: key}, nil
}
