package interfaces

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"parcelops/internal/gl"
	ledger "parcelops/internal/ledger/domain"
	settlement "parcelops/internal/settlement/domain"
)

// BuildVoucherPDF renders a settlement request as a payout voucher for
// the approval workflow: the request header, one line per item, and the
// double-entry preview. Split-currency items cannot be collapsed into a
// single figure; their line reads "split" and the voucher still totals in
// the request currency.
func BuildVoucherPDF(req settlement.Request, items []ledger.LiveItem, preview []gl.Line) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Settlement Voucher")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Request: %s", req.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Party: %s", req.PartyID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Mode: %s", req.Mode))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Payable: %.2f %s", req.NetAmount, req.Currency))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", req.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Created: %s", req.CreatedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Booking", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 6, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(45, 6, "Net", "1", 0, "R", false, 0, "")
	pdf.CellFormat(25, 6, "Currency", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, li := range items {
		net := "split"
		currency := ""
		c, amount, err := settlement.ItemNet(li)
		switch {
		case err == nil:
			net = fmt.Sprintf("%.2f", amount)
			currency = string(c)
		case !errors.Is(err, settlement.ErrMixedCurrencyItem):
			return nil, err
		}
		pdf.CellFormat(50, 6, li.Ref.BookingID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, li.Ref.ItemID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, net, "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, currency, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	if len(preview) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(90, 6, "Account", "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, "Debit", "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, "Credit", "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, line := range preview {
			pdf.CellFormat(90, 6, line.Account, "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", line.Debit), "1", 0, "R", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", line.Credit), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
