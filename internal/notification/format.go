package notification

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders a summary as Slack mrkdwn.
type Formatter struct {
	Symbol   string
	Location *time.Location
}

func (f Formatter) Format(s TransactionSummary) string {
	p := message.NewPrinter(language.English)
	amount := func(d decimal.Decimal) string {
		return f.Symbol + p.Sprintf("%.2f", d.Round(2).InexactFloat64())
	}

	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}

	var b strings.Builder
	b.WriteString("*🧾 New Transaction Made!*\n")
	b.WriteString("*Transaction ID:* #" + s.TransactionID + "\n")
	if s.ReceiptNo != "" {
		b.WriteString("*Receipt:* " + s.ReceiptNo + "\n")
	}
	b.WriteString("*Cashier:* " + s.CashierName + "\n")
	b.WriteString("*Total:* " + amount(s.Total) + "\n")
	b.WriteString("*VAT:* " + amount(s.VAT) + "\n")
	if s.Discount.IsPositive() {
		b.WriteString("*Discount:* " + amount(s.Discount) + " (" + s.DiscountPercent.String() + "%)\n")
	}
	b.WriteString("*Cash:* " + amount(s.Cash) + "\n")
	b.WriteString("*Change:* " + amount(s.Change) + "\n")
	b.WriteString("*Time:* " + s.CreatedAt.In(loc).Format("2006-01-02 03:04 PM") + "\n")
	b.WriteString("\n*🧪 Products Sold:*")
	for _, item := range s.Items {
		b.WriteString("\n- *" + item.Name + "* (Qty: " + p.Sprintf("%d", item.Quantity))
		if item.Stock != nil {
			b.WriteString(", New Stock: " + p.Sprintf("%d", *item.Stock))
		}
		b.WriteString(")")
	}
	return b.String()
}
