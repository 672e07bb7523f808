package reports

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/Beegash/BBWallet/internal/models"
	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
)

const maxStatementRows = 500

// Statement is a user's transaction history for one calendar year.
type Statement struct {
	User         models.UserView
	Year         int
	Transactions []models.TransactionView
	Credits      decimal.Decimal
	Debits       decimal.Decimal
	GeneratedAt  time.Time
}

// Net is completed credits minus completed debits.
func (s *Statement) Net() decimal.Decimal {
	return s.Credits.Sub(s.Debits)
}

// YearRange returns [Jan 1 of year, Jan 1 of year+1) in UTC.
func YearRange(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}

// NewStatement totals completed transactions; other statuses are listed but not counted.
func NewStatement(user models.UserView, year int, txs []models.TransactionView, generatedAt time.Time) *Statement {
	s := &Statement{
		User:         user,
		Year:         year,
		Transactions: txs,
		Credits:      decimal.Zero,
		Debits:       decimal.Zero,
		GeneratedAt:  generatedAt,
	}
	for _, t := range txs {
		if t.Status != models.TxCompleted {
			continue
		}
		switch t.Type.Direction() {
		case models.Credit:
			s.Credits = s.Credits.Add(t.Amount)
		case models.Debit:
			s.Debits = s.Debits.Add(t.Amount)
		}
	}
	return s
}

// Filename is the attachment name used for the PDF download.
func (s *Statement) Filename() string {
	return fmt.Sprintf("bbwallet-statement-%d.pdf", s.Year)
}

var statementColumns = []struct {
	title string
	width float64
	align string
}{
	{"DATE", 24, "C"},
	{"CHILD", 36, "L"},
	{"TYPE", 26, "C"},
	{"STATUS", 24, "C"},
	{"TOKEN", 16, "C"},
	{"AMOUNT", 30, "R"},
	{"ID", 26, "C"},
}

// RenderPDF draws the statement on A4 pages.
func RenderPDF(s *Statement) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.AddPage()

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BBWallet Statement")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, fmt.Sprintf("Year: %d", s.Year))
	pdf.Ln(5)
	holder := strings.TrimSpace(s.User.FirstName + " " + s.User.LastName)
	if holder == "" {
		holder = s.User.Username
	}
	pdf.Cell(0, 6, "Account holder: "+holder)
	pdf.Ln(10)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 11)
	sumW := []float64{60, 60, 62}
	pdf.CellFormat(sumW[0], 10, "Credits", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[1], 10, "Debits", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[2], 10, "Net", "1", 1, "C", true, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(sumW[0], 10, s.Credits.StringFixed(2), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[1], 10, s.Debits.StringFixed(2), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[2], 10, s.Net().StringFixed(2), "1", 1, "C", false, 0, "")
	pdf.Ln(6)

	tableHeader(pdf)
	for i, t := range s.Transactions {
		if i >= maxStatementRows {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(0, 8, "truncated (too many rows)", "1", 1, "C", false, 0, "")
			break
		}
		if pdf.GetY() > 270 {
			pdf.AddPage()
			tableHeader(pdf)
		}
		cells := []string{
			t.CreatedAt.Format("2006-01-02"),
			trimTo(t.ChildName, 20),
			string(t.Type),
			string(t.Status),
			string(t.Token),
			signedAmount(t),
			shortID(t.ID),
		}
		for j, col := range statementColumns {
			ln := 0
			if j == len(statementColumns)-1 {
				ln = 1
			}
			pdf.CellFormat(col.width, 8, cells[j], "1", ln, col.align, false, 0, "")
		}
	}
	if len(s.Transactions) == 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 8, "No transactions in this period", "1", 1, "C", false, 0, "")
	}

	pdf.SetY(-18)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 10, "Generated by BBWallet "+s.GeneratedAt.Format(time.RFC3339), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render statement: %w", err)
	}
	return buf.Bytes(), nil
}

func tableHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(245, 245, 245)
	pdf.SetTextColor(20, 20, 20)
	for i, col := range statementColumns {
		ln := 0
		if i == len(statementColumns)-1 {
			ln = 1
		}
		pdf.CellFormat(col.width, 8, col.title, "1", ln, "C", true, 0, "")
	}
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(30, 30, 30)
}

func signedAmount(t models.TransactionView) string {
	if t.Type.IsDebit() {
		return "-" + t.Amount.StringFixed(2)
	}
	return t.Amount.StringFixed(2)
}

func shortID(id string) string {
	if len(id) <= 14 {
		return id
	}
	return id[:14]
}

func trimTo(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
