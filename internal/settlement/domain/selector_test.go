package settlement

import (
	"errors"
	"strings"
	"testing"
	"time"

	ledger "parcelops/internal/ledger/domain"
)

func liveItem(bookingID, itemID string, cod float64, codCur ledger.Currency, fee float64, feeCur ledger.Currency) ledger.LiveItem {
	return ledger.LiveItem{
		Ref: ledger.ItemRef{BookingID: bookingID, ItemID: itemID},
		Item: ledger.DeliveryItem{
			ItemID:              itemID,
			Status:              ledger.ItemDelivered,
			CODAmount:           cod,
			CODCurrency:         codCur,
			DeliveryFee:         fee,
			DeliveryFeeCurrency: feeCur,
			SettlementStatus:    ledger.Unsettled,
		},
		FeeApplies: true,
	}
}

func TestSelectNetMode(t *testing.T) {
	items := []ledger.LiveItem{
		liveItem("b1", "i1", 100, ledger.USD, 10, ledger.USD),
		liveItem("b1", "i2", 40000, ledger.KHR, 4000, ledger.KHR),
	}
	selector := NewSelector(DefaultMateriality())
	version := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)

	proposal, err := selector.Select("p1", items, version, ledger.USD, ModeNet)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if proposal.NetAmount != 90 {
		t.Fatalf("expected net 90, got %v", proposal.NetAmount)
	}
	if len(proposal.Items) != 1 || proposal.Items[0].ItemID != "i1" {
		t.Fatalf("expected only the USD item, got %+v", proposal.Items)
	}
	if !proposal.SnapshotVersion.Equal(version) {
		t.Fatalf("expected snapshot version carried through, got %v", proposal.SnapshotVersion)
	}
}

func TestSelectGrossModeAddsBackFees(t *testing.T) {
	items := []ledger.LiveItem{liveItem("b1", "i1", 100, ledger.USD, 10, ledger.USD)}
	selector := NewSelector(DefaultMateriality())

	proposal, err := selector.Select("p1", items, time.Time{}, ledger.USD, ModeGross)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if proposal.NetAmount != 100 {
		t.Fatalf("expected gross 100, got %v", proposal.NetAmount)
	}
}

func TestSelectSplitCurrencyItem(t *testing.T) {
	// COD in USD, taxi surcharge in KHR. A KHR payout selects the item but
	// nets only the KHR component; the USD COD stays for a USD payout.
	item := liveItem("b1", "i1", 100, ledger.USD, 0, ledger.USD)
	item.Item.TaxiFee = 5000
	item.Item.TaxiFeeCurrency = ledger.KHR
	selector := NewSelector(DefaultMateriality())

	khr, err := selector.Select("p1", []ledger.LiveItem{item}, time.Time{}, ledger.KHR, ModeNet)
	if err != nil {
		t.Fatalf("select khr: %v", err)
	}
	if khr.NetAmount != -5000 {
		t.Fatalf("expected khr net -5000, got %v", khr.NetAmount)
	}
	if len(khr.Items) != 1 {
		t.Fatalf("expected the split item selected, got %+v", khr.Items)
	}

	usd, err := selector.Select("p1", []ledger.LiveItem{item}, time.Time{}, ledger.USD, ModeNet)
	if err != nil {
		t.Fatalf("select usd: %v", err)
	}
	if usd.NetAmount != 100 {
		t.Fatalf("expected usd net 100, got %v", usd.NetAmount)
	}
}

func TestSelectBelowMateriality(t *testing.T) {
	items := []ledger.LiveItem{liveItem("b1", "i1", 0.005, ledger.USD, 0, ledger.USD)}
	selector := NewSelector(DefaultMateriality())

	_, err := selector.Select("p1", items, time.Time{}, ledger.USD, ModeNet)
	if !errors.Is(err, ErrNothingToSettle) {
		t.Fatalf("expected ErrNothingToSettle, got %v", err)
	}
}

func TestSelectNoEligibleItems(t *testing.T) {
	items := []ledger.LiveItem{liveItem("b1", "i1", 40000, ledger.KHR, 4000, ledger.KHR)}
	selector := NewSelector(DefaultMateriality())

	_, err := selector.Select("p1", items, time.Time{}, ledger.USD, ModeNet)
	if !errors.Is(err, ErrNothingToSettle) {
		t.Fatalf("expected ErrNothingToSettle for no eligible items, got %v", err)
	}
}

func TestSelectKeepsSnapshotOrder(t *testing.T) {
	items := []ledger.LiveItem{
		liveItem("b1", "i1", 10, ledger.USD, 0, ledger.USD),
		liveItem("b1", "i2", 20, ledger.USD, 0, ledger.USD),
		liveItem("b2", "i1", 30, ledger.USD, 0, ledger.USD),
	}
	selector := NewSelector(DefaultMateriality())

	proposal, err := selector.Select("p1", items, time.Time{}, ledger.USD, ModeNet)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	want := []ledger.ItemRef{
		{BookingID: "b1", ItemID: "i1"},
		{BookingID: "b1", ItemID: "i2"},
		{BookingID: "b2", ItemID: "i1"},
	}
	for i, ref := range want {
		if proposal.Items[i] != ref {
			t.Fatalf("expected stable (booking, item) order, got %+v", proposal.Items)
		}
	}
}

func TestResolveModePrecedence(t *testing.T) {
	cases := []struct {
		name       string
		adminGross bool
		session    Mode
		want       Mode
	}{
		{"admin gross wins over session net", true, ModeNet, ModeGross},
		{"admin gross with gross session", true, ModeGross, ModeGross},
		{"session gross without admin flag", false, ModeGross, ModeGross},
		{"default is net", false, "", ModeNet},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveMode(tc.adminGross, tc.session); got != tc.want {
				t.Fatalf("ResolveMode(%v, %q) = %q, want %q", tc.adminGross, tc.session, got, tc.want)
			}
		})
	}
}

func TestItemNetMixedCurrencySurfaced(t *testing.T) {
	item := liveItem("b1", "i1", 100, ledger.USD, 0, ledger.USD)
	item.Item.TaxiFee = 5000
	item.Item.TaxiFeeCurrency = ledger.KHR

	_, _, err := ItemNet(item)
	if !errors.Is(err, ErrMixedCurrencyItem) {
		t.Fatalf("expected ErrMixedCurrencyItem, got %v", err)
	}

	plain := liveItem("b1", "i2", 100, ledger.USD, 10, ledger.USD)
	currency, net, err := ItemNet(plain)
	if err != nil {
		t.Fatalf("item net: %v", err)
	}
	if currency != ledger.USD || net != 90 {
		t.Fatalf("expected 90 USD, got %v %v", net, currency)
	}
}

func TestNewRequestIDPrefix(t *testing.T) {
	a := NewRequestID()
	b := NewRequestID()
	if !strings.HasPrefix(a, "stl-") || len(a) != len("stl-")+32 {
		t.Fatalf("unexpected request id shape: %q", a)
	}
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
}
