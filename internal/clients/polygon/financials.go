package polygon

import (
	"context"
	"net/url"

	"github.com/stocklab/stocklab/internal/clientdata"
	"github.com/stocklab/stocklab/internal/domain"
	"github.com/stocklab/stocklab/internal/modules/financials"
)

// lineItems is one statement of a vX financials result, keyed by concept name
type lineItems map[string]struct {
	Value *float64 `json:"value"`
	Unit  string   `json:"unit"`
	Label string   `json:"label"`
}

// first returns the value of the first concept present
func (l lineItems) first(concepts ...string) *float64 {
	for _, concept := range concepts {
		if item, ok := l[concept]; ok && item.Value != nil {
			v := *item.Value
			return &v
		}
	}
	return nil
}

type financialsResponse struct {
	Status  string `json:"status"`
	Results []struct {
		CIK                 string   `json:"cik"`
		CompanyName         string   `json:"company_name"`
		SIC                 string   `json:"sic"`
		Tickers             []string `json:"tickers"`
		FilingDate          string   `json:"filing_date"`
		AcceptanceDatetime  string   `json:"acceptance_datetime"`
		StartDate           string   `json:"start_date"`
		EndDate             string   `json:"end_date"`
		FiscalPeriod        string   `json:"fiscal_period"`
		FiscalYear          string   `json:"fiscal_year"`
		Timeframe           string   `json:"timeframe"`
		SourceFilingURL     string   `json:"source_filing_url"`
		SourceFilingFileURL string   `json:"source_filing_file_url"`
		Financials          struct {
			IncomeStatement   lineItems `json:"income_statement"`
			BalanceSheet      lineItems `json:"balance_sheet"`
			CashFlowStatement lineItems `json:"cash_flow_statement"`
		} `json:"financials"`
	} `json:"results"`
}

// ListFinancials fetches the most recent filings for ticker (vX/reference/financials),
// newest first. timeframe defaults to annual.
func (c *Client) ListFinancials(ctx context.Context, ticker, timeframe string, limit int) ([]financials.FilingReport, error) {
	ticker = normalize(ticker)
	if ticker == "" {
		return nil, domain.NewValidationError("ticker", "must not be empty")
	}
	if timeframe == "" {
		timeframe = financials.TimeframeAnnual
	}
	if limit <= 0 {
		limit = 4
	}

	key := cacheKey(ticker, timeframe, itoa(limit))
	return cached(c, clientdata.TablePolygonFinancials, key, clientdata.TTLFinancials,
		func() ([]financials.FilingReport, error) {
			query := url.Values{}
			query.Set("ticker", ticker)
			query.Set("timeframe", timeframe)
			query.Set("limit", itoa(limit))
			query.Set("order", "desc")
			query.Set("sort", "filing_date")

			var resp financialsResponse
			if err := c.getJSON(ctx, "/vX/reference/financials", query, "financials", ticker, &resp); err != nil {
				return nil, err
			}

			reports := make([]financials.FilingReport, 0, len(resp.Results))
			for _, r := range resp.Results {
				report := financials.FilingReport{
					Filing: financials.Filing{
						Ticker:              ticker,
						CIK:                 r.CIK,
						CompanyName:         r.CompanyName,
						SIC:                 r.SIC,
						FilingDate:          r.FilingDate,
						PeriodOfReportDate:  r.EndDate,
						StartDate:           r.StartDate,
						EndDate:             r.EndDate,
						FiscalPeriod:        r.FiscalPeriod,
						FiscalYear:          r.FiscalYear,
						Timeframe:           r.Timeframe,
						AcceptanceDatetime:  r.AcceptanceDatetime,
						SourceFilingURL:     r.SourceFilingURL,
						SourceFilingFileURL: r.SourceFilingFileURL,
					},
				}
				if is := r.Financials.IncomeStatement; len(is) > 0 {
					report.IncomeStatement = toIncomeStatement(is)
				}
				if bs := r.Financials.BalanceSheet; len(bs) > 0 {
					report.BalanceSheet = toBalanceSheet(bs)
				}
				if cf := r.Financials.CashFlowStatement; len(cf) > 0 {
					report.CashFlow = toCashFlow(cf)
				}
				reports = append(reports, report)
			}
			return reports, nil
		})
}

func toIncomeStatement(l lineItems) *financials.IncomeStatement {
	return &financials.IncomeStatement{
		Revenues:                                    l.first("revenues"),
		CostOfRevenue:                               l.first("cost_of_revenue"),
		GrossProfit:                                 l.first("gross_profit"),
		ResearchAndDevelopmentExpenses:              l.first("research_and_development"),
		SellingGeneralAndAdministrativeExpenses:     l.first("selling_general_and_administrative_expenses"),
		OperatingExpenses:                           l.first("operating_expenses"),
		OperatingIncomeLoss:                         l.first("operating_income_loss"),
		InterestExpenseOperating:                    l.first("interest_expense_operating"),
		InterestIncomeExpenseNet:                    l.first("interest_income_expense_operating_net"),
		IncomeLossFromContinuingOperationsBeforeTax: l.first("income_loss_from_continuing_operations_before_tax"),
		IncomeTaxExpenseBenefit:                     l.first("income_tax_expense_benefit"),
		NetIncomeLoss:                               l.first("net_income_loss"),
		NetIncomeLossAttributableToParent:           l.first("net_income_loss_attributable_to_parent"),
		EarningsPerShareBasic:                       l.first("basic_earnings_per_share"),
		EarningsPerShareDiluted:                     l.first("diluted_earnings_per_share"),
		WeightedAverageSharesOutstandingBasic:       l.first("basic_average_shares"),
		WeightedAverageSharesOutstandingDiluted:     l.first("diluted_average_shares"),
	}
}

func toBalanceSheet(l lineItems) *financials.BalanceSheet {
	return &financials.BalanceSheet{
		Assets:                                l.first("assets"),
		CurrentAssets:                         l.first("current_assets"),
		NoncurrentAssets:                      l.first("noncurrent_assets"),
		Liabilities:                           l.first("liabilities"),
		CurrentLiabilities:                    l.first("current_liabilities"),
		NoncurrentLiabilities:                 l.first("noncurrent_liabilities"),
		StockholdersEquity:                    l.first("equity_attributable_to_parent", "equity"),
		LiabilitiesAndEquity:                  l.first("liabilities_and_equity"),
		CashAndCashEquivalentsAtCarryingValue: l.first("cash", "cash_and_cash_equivalents"),
	}
}

func toCashFlow(l lineItems) *financials.CashFlowStatement {
	return &financials.CashFlowStatement{
		NetCashFlow:                        l.first("net_cash_flow"),
		NetCashFlowFromOperatingActivities: l.first("net_cash_flow_from_operating_activities"),
		NetCashFlowFromInvestingActivities: l.first("net_cash_flow_from_investing_activities"),
		NetCashFlowFromFinancingActivities: l.first("net_cash_flow_from_financing_activities"),
	}
}
