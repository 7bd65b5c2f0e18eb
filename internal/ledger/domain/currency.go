package ledger

// Currency is one of the two wallet currencies. They are never converted
// or netted against each other.
type Currency string

const (
	USD Currency = "USD"
	KHR Currency = "KHR"
)

// ParseCurrency validates a currency tag. Anything but USD or KHR is
// rejected; malformed tags are an ingestion bug upstream and must not be
// tolerated silently here.
func ParseCurrency(tag string) (Currency, error) {
	switch Currency(tag) {
	case USD:
		return USD, nil
	case KHR:
		return KHR, nil
	default:
		return "", ErrUnknownCurrency
	}
}

// Valid reports whether the currency is one of the supported tags.
func (c Currency) Valid() bool { return c == USD || c == KHR }
