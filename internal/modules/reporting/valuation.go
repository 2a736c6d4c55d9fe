package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/stocklab/stocklab/internal/modules/valuation"
)

const panelWidth = 48

// RenderValuation prints the company overview line followed by one panel per model
func RenderValuation(w io.Writer, v *valuation.Valuation) error {
	p := &printer{w: w}

	title := v.Inputs.Company
	if title == "" {
		title = "Valuation"
	}
	p.line("")
	p.line("%s", title)
	p.line("   Share Price: %s   Shares Outstanding: %s   Market Cap: %s",
		FormatUSD(decimal.NewFromFloat(v.Inputs.SharePrice)),
		FormatCount(int(v.Inputs.SharesOutstanding)),
		FormatUSD(v.MarketCap))
	p.line("   Free Cash Flow: %s   Discount Rate: %s   Terminal Growth: %s",
		FormatUSD(decimal.NewFromFloat(v.Inputs.FreeCashFlow)),
		FormatPercent(decimal.NewFromFloat(v.Inputs.DiscountRate)),
		FormatPercent(decimal.NewFromFloat(v.Inputs.GrowthRate)))

	writeValuationPanel(p, "Perpetuity Model", v.Perpetuity)
	writeValuationPanel(p, "Gordon Growth Model", v.GordonGrowth)

	return p.err
}

func writeValuationPanel(p *printer, title string, r valuation.Result) {
	header := "── " + title + " "
	p.line("")
	p.line("%s%s", header, strings.Repeat("─", panelWidth-len([]rune(header))))
	p.line("   %-24s%20s", "Intrinsic Valuation:", FormatUSD(r.EnterpriseValue))
	p.line("   %-24s%20s", "Implied Share Price:", FormatUSD(r.ImpliedPrice))
	p.line("   %-24s%20s", "Potential ROI:", FormatPercent(r.PotentialROI))
	p.line("%s", strings.Repeat("─", panelWidth))
}

// FormatUSD renders an amount as dollars with cents: 1020000 -> "$1,020,000.00"
func FormatUSD(amount decimal.Decimal) string {
	cents := amount.Shift(2).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}

// FormatPercent renders a decimal ratio as a whole percentage: 0.59375 -> "59%"
func FormatPercent(ratio decimal.Decimal) string {
	return fmt.Sprintf("%s%%", ratio.Shift(2).Round(0).String())
}
