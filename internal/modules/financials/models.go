// Package financials stores company fundamentals: profiles, filings, statements and top movers.
package financials

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/stocklab/stocklab/internal/domain"
)

// Timeframes accepted for filings
const (
	TimeframeAnnual    = "annual"
	TimeframeQuarterly = "quarterly"
	TimeframeTTM       = "ttm"
)

// Mover directions
const (
	DirectionGainers = "gainers"
	DirectionLosers  = "losers"
)

// Company is a company profile with its latest market figures
type Company struct {
	ID                   int64    `json:"id"`
	CompanyName          string   `json:"company_name" validate:"required"`
	TickerSymbol         string   `json:"ticker_symbol" validate:"required"`
	Industry             string   `json:"industry,omitempty"`
	Sector               string   `json:"sector,omitempty"`
	MarketCap            *float64 `json:"market_cap"`
	Bid                  *float64 `json:"bid"`
	Ask                  *float64 `json:"ask"`
	FiftyTwoWeekHigh     *float64 `json:"fifty_two_week_high"`
	FiftyTwoWeekLow      *float64 `json:"fifty_two_week_low"`
	Volume               *int64   `json:"volume"`
	AverageVolume        *int64   `json:"average_volume"`
	Beta5YMonthly        *float64 `json:"beta_5y_monthly"`
	PERatioTTM           *float64 `json:"pe_ratio_ttm"`
	EPSTTM               *float64 `json:"eps_ttm"`
	EarningsDate         string   `json:"earnings_date,omitempty"`
	ForwardDividendYield *float64 `json:"forward_dividend_yield"`
	ExDividendDate       string   `json:"ex_dividend_date,omitempty"`
	SharesOutstanding    *int64   `json:"shares_outstanding"`
	CurrentSharePrice    *float64 `json:"current_share_price"`
}

// TickerDetails is the reference data a provider reports for a ticker
type TickerDetails struct {
	Ticker                      string   `json:"ticker" validate:"required"`
	Name                        string   `json:"name"`
	Market                      string   `json:"market"`
	Locale                      string   `json:"locale"`
	PrimaryExchange             string   `json:"primary_exchange"`
	Type                        string   `json:"type"`
	CurrencyName                string   `json:"currency_name"`
	CIK                         string   `json:"cik"`
	MarketCap                   *float64 `json:"market_cap"`
	Description                 string   `json:"description"`
	HomepageURL                 string   `json:"homepage_url"`
	TotalEmployees              *int64   `json:"total_employees"`
	ListDate                    string   `json:"list_date"`
	ShareClassSharesOutstanding *int64   `json:"share_class_shares_outstanding"`
	WeightedSharesOutstanding   *int64   `json:"weighted_shares_outstanding"`
}

// Filing identifies one reported period of a company
type Filing struct {
	ID                  int64  `json:"id"`
	Ticker              string `json:"ticker" validate:"required"`
	CIK                 string `json:"cik" validate:"required"`
	CompanyName         string `json:"company_name"`
	SIC                 string `json:"sic"`
	FilingDate          string `json:"filing_date"`
	PeriodOfReportDate  string `json:"period_of_report_date"`
	StartDate           string `json:"start_date"`
	EndDate             string `json:"end_date"`
	FiscalPeriod        string `json:"fiscal_period" validate:"required"`
	FiscalYear          string `json:"fiscal_year" validate:"required"`
	Timeframe           string `json:"timeframe" validate:"required,oneof=annual quarterly ttm"`
	AcceptanceDatetime  string `json:"acceptance_datetime"`
	SourceFilingURL     string `json:"source_filing_url"`
	SourceFilingFileURL string `json:"source_filing_file_url"`
}

// IncomeStatement line items. Nil means the filing did not report the item.
type IncomeStatement struct {
	Revenues                                    *float64 `json:"revenues"`
	CostOfRevenue                               *float64 `json:"cost_of_revenue"`
	GrossProfit                                 *float64 `json:"gross_profit"`
	ResearchAndDevelopmentExpenses              *float64 `json:"research_and_development_expenses"`
	SellingGeneralAndAdministrativeExpenses     *float64 `json:"selling_general_and_administrative_expenses"`
	OperatingExpenses                           *float64 `json:"operating_expenses"`
	OperatingIncomeLoss                         *float64 `json:"operating_income_loss"`
	InterestExpenseOperating                    *float64 `json:"interest_expense_operating"`
	InterestIncomeExpenseNet                    *float64 `json:"interest_income_expense_net"`
	IncomeLossFromContinuingOperationsBeforeTax *float64 `json:"income_loss_from_continuing_operations_before_tax"`
	IncomeTaxExpenseBenefit                     *float64 `json:"income_tax_expense_benefit"`
	NetIncomeLoss                               *float64 `json:"net_income_loss"`
	NetIncomeLossAttributableToParent           *float64 `json:"net_income_loss_attributable_to_parent"`
	EarningsPerShareBasic                       *float64 `json:"earnings_per_share_basic"`
	EarningsPerShareDiluted                     *float64 `json:"earnings_per_share_diluted"`
	WeightedAverageSharesOutstandingBasic       *float64 `json:"weighted_average_shares_outstanding_basic"`
	WeightedAverageSharesOutstandingDiluted     *float64 `json:"weighted_average_shares_outstanding_diluted"`
}

// BalanceSheet line items
type BalanceSheet struct {
	Assets                                *float64 `json:"assets"`
	CurrentAssets                         *float64 `json:"current_assets"`
	NoncurrentAssets                      *float64 `json:"noncurrent_assets"`
	Liabilities                           *float64 `json:"liabilities"`
	CurrentLiabilities                    *float64 `json:"current_liabilities"`
	NoncurrentLiabilities                 *float64 `json:"noncurrent_liabilities"`
	StockholdersEquity                    *float64 `json:"stockholders_equity"`
	LiabilitiesAndEquity                  *float64 `json:"liabilities_and_equity"`
	CashAndCashEquivalentsAtCarryingValue *float64 `json:"cash_and_cash_equivalents_at_carrying_value"`
}

// CashFlowStatement line items
type CashFlowStatement struct {
	NetCashFlow                        *float64 `json:"net_cash_flow"`
	NetCashFlowFromOperatingActivities *float64 `json:"net_cash_flow_from_operating_activities"`
	NetCashFlowFromInvestingActivities *float64 `json:"net_cash_flow_from_investing_activities"`
	NetCashFlowFromFinancingActivities *float64 `json:"net_cash_flow_from_financing_activities"`
}

// FilingReport is a filing together with whichever statements it carried
type FilingReport struct {
	Filing          Filing             `json:"filing"`
	IncomeStatement *IncomeStatement   `json:"income_statement,omitempty"`
	BalanceSheet    *BalanceSheet      `json:"balance_sheet,omitempty"`
	CashFlow        *CashFlowStatement `json:"cash_flow_statement,omitempty"`
}

// TopMover is one entry of a gainers or losers snapshot
type TopMover struct {
	ID               int64     `json:"id"`
	TickerSymbol     string    `json:"ticker_symbol" validate:"required"`
	Direction        string    `json:"direction" validate:"required,oneof=gainers losers"`
	PositionRank     int       `json:"position_rank" validate:"gte=1"`
	TodaysChange     *float64  `json:"todays_change"`
	TodaysChangePerc *float64  `json:"todays_change_perc"`
	CurrentPrice     *float64  `json:"current_price"`
	Volume           *int64    `json:"volume"`
	FetchedAt        time.Time `json:"fetched_at"`
}

// FinancialSummary is the latest filing's headline figures for a ticker
type FinancialSummary struct {
	Ticker                                string   `json:"ticker"`
	CompanyName                           string   `json:"company_name"`
	FiscalYear                            string   `json:"fiscal_year"`
	FiscalPeriod                          string   `json:"fiscal_period"`
	Revenues                              *float64 `json:"revenues"`
	NetIncomeLoss                         *float64 `json:"net_income_loss"`
	EarningsPerShareDiluted               *float64 `json:"earnings_per_share_diluted"`
	Assets                                *float64 `json:"assets"`
	StockholdersEquity                    *float64 `json:"stockholders_equity"`
	CashAndCashEquivalentsAtCarryingValue *float64 `json:"cash_and_cash_equivalents_at_carrying_value"`
}

var validate = validator.New()

// validateStruct runs tag validation and maps the first failure to a domain ValidationError
func validateStruct(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return domain.NewValidationError(fe.Field(), "failed %s check (value %v)", fe.Tag(), fe.Value())
		}
		return domain.NewValidationError("", "%v", err)
	}
	return nil
}
