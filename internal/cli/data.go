package cli

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/stocklab/stocklab/internal/modules/financials"
	"github.com/stocklab/stocklab/internal/modules/prices"
)

type fetchCmd struct {
	env    *Env
	period string
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "download daily closes into the price store" }
func (*fetchCmd) Usage() string {
	return `stocklab fetch [-period 5y] [TICKER...]

  Downloads price history for the given tickers, or for the configured
  watchlist when none are given.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "period", c.env.Config.Sync.Period, "history length (1mo, 6mo, 1y, 5y, max)")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tickers := f.Args()
	if len(tickers) == 0 {
		tickers = c.env.Config.Sync.Watchlist
	}
	if len(tickers) == 0 {
		return c.env.usage("no tickers given and the watchlist is empty")
	}

	period := c.period
	if period == "" {
		period = prices.DefaultPeriod
	}

	container, err := c.env.wire(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	defer c.env.closeContainer(container)

	result, err := container.PriceService.SyncAll(ctx, tickers, period)
	if err != nil {
		return c.env.fail(err)
	}

	w := tabwriter.NewWriter(c.env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TICKER\tSTATUS")
	for _, t := range sortedKeys(result.Synced) {
		fmt.Fprintf(w, "%s\t%d prices\n", t, result.Synced[t])
	}
	for _, t := range sortedKeys(result.Failed) {
		fmt.Fprintf(w, "%s\tfailed: %s\n", t, result.Failed[t])
	}
	if err := w.Flush(); err != nil {
		return c.env.fail(err)
	}

	if len(result.Synced) == 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type financialsCmd struct {
	env       *Env
	timeframe string
	limit     int
	fetch     bool
}

func (*financialsCmd) Name() string     { return "financials" }
func (*financialsCmd) Synopsis() string { return "show the latest filing summary for a company" }
func (*financialsCmd) Usage() string {
	return `stocklab financials [-fetch] [-timeframe annual|quarterly] [-limit 4] TICKER

  Prints headline figures from the most recent stored filing. With -fetch the
  company profile and filings are downloaded first.
`
}

func (c *financialsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.timeframe, "timeframe", financials.TimeframeAnnual, "filing timeframe: annual or quarterly")
	f.IntVar(&c.limit, "limit", 4, "number of filings to download with -fetch")
	f.BoolVar(&c.fetch, "fetch", false, "download company and filings before printing")
}

func (c *financialsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return c.env.usage("exactly one ticker is required")
	}
	ticker := strings.ToUpper(f.Arg(0))

	container, err := c.env.wire(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	defer c.env.closeContainer(container)
	svc := container.FinancialsService

	if c.fetch {
		if _, err := svc.FetchCompany(ctx, ticker); err != nil {
			return c.env.fail(err)
		}
		n, err := svc.FetchFinancials(ctx, ticker, c.timeframe, c.limit)
		if err != nil {
			return c.env.fail(err)
		}
		fmt.Fprintf(c.env.Stderr, "stored %d filings for %s\n", n, ticker)
	}

	summary, err := svc.Summary(ticker, c.timeframe)
	if err != nil {
		return c.env.fail(err)
	}

	w := tabwriter.NewWriter(c.env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Company\t%s (%s)\n", summary.CompanyName, summary.Ticker)
	fmt.Fprintf(w, "Period\t%s %s\n", summary.FiscalPeriod, summary.FiscalYear)
	fmt.Fprintf(w, "Revenues\t%s\n", amount(summary.Revenues))
	fmt.Fprintf(w, "Net income\t%s\n", amount(summary.NetIncomeLoss))
	fmt.Fprintf(w, "Diluted EPS\t%s\n", amount(summary.EarningsPerShareDiluted))
	fmt.Fprintf(w, "Assets\t%s\n", amount(summary.Assets))
	fmt.Fprintf(w, "Equity\t%s\n", amount(summary.StockholdersEquity))
	fmt.Fprintf(w, "Cash\t%s\n", amount(summary.CashAndCashEquivalentsAtCarryingValue))
	if err := w.Flush(); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

type moversCmd struct {
	env       *Env
	direction string
	limit     int
	refresh   bool
}

func (*moversCmd) Name() string     { return "movers" }
func (*moversCmd) Synopsis() string { return "list the day's top gainers or losers" }
func (*moversCmd) Usage() string {
	return `stocklab movers [-direction gainers|losers] [-limit 10] [-refresh]
`
}

func (c *moversCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.direction, "direction", financials.DirectionGainers, "gainers or losers")
	f.IntVar(&c.limit, "limit", 10, "maximum rows")
	f.BoolVar(&c.refresh, "refresh", false, "download the current snapshot first")
}

func (c *moversCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	container, err := c.env.wire(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	defer c.env.closeContainer(container)
	svc := container.FinancialsService

	if c.refresh {
		if _, err := svc.RefreshMovers(ctx, c.direction); err != nil {
			return c.env.fail(err)
		}
	}

	movers, err := svc.Movers(c.direction, c.limit)
	if err != nil {
		return c.env.fail(err)
	}

	w := tabwriter.NewWriter(c.env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TICKER\tCHANGE\tPRICE")
	for _, m := range movers {
		change := "-"
		if m.TodaysChangePerc != nil {
			change = fmt.Sprintf("%+.2f%%", *m.TodaysChangePerc)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.TickerSymbol, change, amount(m.CurrentPrice))
	}
	if err := w.Flush(); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

func amount(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
