package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/stocklab/stocklab/internal/di"
	"github.com/stocklab/stocklab/internal/modules/analysis"
	"github.com/stocklab/stocklab/internal/modules/reporting"
)

type analyzeCmd struct {
	env *Env

	market string
	align  bool
	format string
	style  string
	charts string
	from   string
	to     string
}

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "compute return statistics for CSV files or stored tickers" }
func (*analyzeCmd) Usage() string {
	return `stocklab analyze [-market SPY] [-align] [-format text|json|markdown] [-charts dir] <file.csv|TICKER>...

  Computes per-asset statistics and pairwise correlation, covariance and beta.
  Arguments ending in .csv (or naming an existing file) are read as Date,Close
  price files; anything else is looked up in the price store.
`
}

func (c *analyzeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.market, "market", c.env.Config.Analysis.MarketTicker, "asset betas are measured against; empty disables beta")
	f.BoolVar(&c.align, "align", false, "trim each pair to its common date range")
	f.StringVar(&c.format, "format", "text", "output format: text, json or markdown")
	f.StringVar(&c.style, "style", "", "glamour style for markdown output (dark, light, notty)")
	f.StringVar(&c.charts, "charts", "", "directory to write PNG charts into")
	f.StringVar(&c.from, "from", "", "first date for stored tickers (YYYY-MM-DD)")
	f.StringVar(&c.to, "to", "", "last date for stored tickers (YYYY-MM-DD)")
}

func (c *analyzeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return c.env.usage("at least one CSV file or ticker is required")
	}

	renderer, err := c.renderer()
	if err != nil {
		return c.env.usage("%v", err)
	}

	req := analysis.Request{Align: c.align}
	if req.From, err = parseDate(c.from); err != nil {
		return c.env.usage("%v", err)
	}
	if req.To, err = parseDate(c.to); err != nil {
		return c.env.usage("%v", err)
	}
	if m := strings.TrimSpace(c.market); m != "" {
		req.Market = &m
	}

	needsStore := false
	for _, arg := range f.Args() {
		source := sourceFor(arg)
		needsStore = needsStore || source.Ticker != ""
		req.Assets = append(req.Assets, source)
	}

	var svc *analysis.Service
	if needsStore {
		container, err := c.env.wire(ctx)
		if err != nil {
			return c.env.fail(err)
		}
		defer c.env.closeContainer(container)
		svc = container.AnalysisService
	} else {
		svc = di.NewAnalysisService(c.env.Config, nil, nil, c.env.Log)
	}

	report, err := svc.Run(ctx, req)
	if err != nil {
		return c.env.fail(err)
	}

	if err := renderer.Render(c.env.Stdout, report); err != nil {
		return c.env.fail(err)
	}

	if c.charts != "" {
		written, err := reporting.NewChartRenderer().WriteAll(c.charts, report)
		if err != nil {
			return c.env.fail(err)
		}
		for _, path := range written {
			fmt.Fprintf(c.env.Stderr, "wrote %s\n", path)
		}
	}
	return subcommands.ExitSuccess
}

func (c *analyzeCmd) renderer() (reporting.Renderer, error) {
	switch c.format {
	case "text":
		return reporting.NewTextRenderer(), nil
	case "json":
		return reporting.NewJSONRenderer(), nil
	case "markdown", "md":
		return reporting.NewMarkdownRenderer(c.style), nil
	default:
		return nil, fmt.Errorf("unknown format %q", c.format)
	}
}

// sourceFor treats CSV names and existing files as paths, anything else as a ticker
func sourceFor(arg string) analysis.AssetSource {
	if strings.HasSuffix(strings.ToLower(arg), ".csv") {
		return analysis.FromPath(arg)
	}
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return analysis.FromPath(arg)
	}
	return analysis.FromTicker(arg)
}
