package party

import "strings"

// Party is a customer or driver identity holding a wallet.
// Its balance is always derived from event replay, never stored.
type Party struct {
	ID      string
	Name    string
	Phone   string
	LoginID string

	// GrossPayout is the profile-level payout flag set by an administrator.
	GrossPayout bool
}

// HasLogin reports whether the party has a linked login identity.
func (p Party) HasLogin() bool { return p.LoginID != "" }

// NormalizePhone strips formatting noise from a phone number, keeping digits only.
// A leading "+" and any spaces, dashes or dots are dropped.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhoneSuffixMatch compares two phone numbers by their trailing digits.
// Both sides must have more than 5 digits after normalization; shorter
// numbers never match to avoid spurious hits.
func PhoneSuffixMatch(a, b string) bool {
	na := NormalizePhone(a)
	nb := NormalizePhone(b)
	if len(na) <= 5 || len(nb) <= 5 {
		return false
	}
	const suffixLen = 6
	sa := na[len(na)-suffixLen:]
	sb := nb[len(nb)-suffixLen:]
	return sa == sb
}
