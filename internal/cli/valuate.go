package cli

import (
	"context"
	"encoding/json"
	"flag"

	"github.com/google/subcommands"

	"github.com/stocklab/stocklab/internal/modules/financials"
	"github.com/stocklab/stocklab/internal/modules/reporting"
	"github.com/stocklab/stocklab/internal/modules/valuation"
)

type valuateCmd struct {
	env *Env

	in     valuation.Inputs
	ticker string
	save   bool
	asJSON bool
}

func (*valuateCmd) Name() string     { return "valuate" }
func (*valuateCmd) Synopsis() string { return "value a company with perpetuity and Gordon growth models" }
func (*valuateCmd) Usage() string {
	return `stocklab valuate -fcf <free cash flow> -r <discount> [-g <growth>] -shares <n> -price <p> [-company name]
stocklab valuate -ticker AAPL -fcf <free cash flow> -r <discount> [-g <growth>] [-save]

  Rates are decimals (0.08 = 8%). With -ticker, missing company name, share
  count and price are taken from the stored company profile.
`
}

func (c *valuateCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.in.FreeCashFlow, "fcf", 0, "current annual free cash flow")
	f.Float64Var(&c.in.DiscountRate, "r", 0, "discount rate")
	f.Float64Var(&c.in.GrowthRate, "g", 0, "perpetual growth rate")
	f.Float64Var(&c.in.SharesOutstanding, "shares", 0, "shares outstanding")
	f.Float64Var(&c.in.SharePrice, "price", 0, "current share price")
	f.StringVar(&c.in.Company, "company", "", "company name")
	f.StringVar(&c.ticker, "ticker", "", "fill missing inputs from the stored company")
	f.BoolVar(&c.save, "save", false, "store the results in the fundamentals database")
	f.BoolVar(&c.asJSON, "json", false, "print JSON instead of a table")
}

func (c *valuateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		return c.env.usage("unexpected arguments %v", f.Args())
	}

	in := c.in
	var repo *financials.Repository
	if c.ticker != "" || c.save {
		container, err := c.env.wire(ctx)
		if err != nil {
			return c.env.fail(err)
		}
		defer c.env.closeContainer(container)
		repo = container.FinancialsRepo

		if c.ticker != "" {
			company, err := repo.GetCompanyByTicker(c.ticker)
			if err != nil {
				return c.env.fail(err)
			}
			in = financials.FillValuationInputs(company, in)
		}
	}

	v, err := valuation.Value(in)
	if err != nil {
		return c.env.fail(err)
	}

	if c.asJSON {
		enc := json.NewEncoder(c.env.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(v)
	} else {
		err = reporting.RenderValuation(c.env.Stdout, v)
	}
	if err != nil {
		return c.env.fail(err)
	}

	if c.save {
		if err := repo.SaveValuation(v); err != nil {
			return c.env.fail(err)
		}
	}
	return subcommands.ExitSuccess
}
