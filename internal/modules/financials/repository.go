package financials

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/stocklab/stocklab/internal/database"
	"github.com/stocklab/stocklab/internal/domain"
	"github.com/stocklab/stocklab/internal/modules/valuation"
)

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Repository provides access to the fundamentals tables
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new financials repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "financials").Logger(),
	}
}

const companyColumns = `company_name, ticker_symbol, industry, sector, market_cap,
	bid, ask, fifty_two_week_high, fifty_two_week_low, volume,
	average_volume, beta_5y_monthly, pe_ratio_ttm, eps_ttm,
	earnings_date, forward_dividend_yield, ex_dividend_date,
	shares_outstanding, current_share_price`

func companyArgs(c *Company) []interface{} {
	return []interface{}{
		c.CompanyName, c.TickerSymbol, nullString(c.Industry), nullString(c.Sector), c.MarketCap,
		c.Bid, c.Ask, c.FiftyTwoWeekHigh, c.FiftyTwoWeekLow, c.Volume,
		c.AverageVolume, c.Beta5YMonthly, c.PERatioTTM, c.EPSTTM,
		nullString(c.EarningsDate), c.ForwardDividendYield, nullString(c.ExDividendDate),
		c.SharesOutstanding, c.CurrentSharePrice,
	}
}

// AddCompany inserts a company profile and returns its id.
// A company whose ticker already exists is left untouched and its id is returned.
func (r *Repository) AddCompany(c Company) (int64, error) {
	c.TickerSymbol = strings.ToUpper(strings.TrimSpace(c.TickerSymbol))
	if err := validateStruct(c); err != nil {
		return 0, err
	}

	result, err := r.db.Exec(
		"INSERT INTO companies ("+companyColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT(ticker_symbol) DO NOTHING",
		companyArgs(&c)...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add company %s: %w", c.TickerSymbol, err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		r.log.Warn().
			Err(fmt.Errorf("company %s: %w", c.TickerSymbol, domain.ErrIntegrity)).
			Str("ticker", c.TickerSymbol).
			Msg("Company already exists, returning existing id")
		return r.companyID(c.TickerSymbol)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read company id: %w", err)
	}
	r.log.Info().Str("ticker", c.TickerSymbol).Int64("id", id).Msg("Added company")
	return id, nil
}

// SaveCompany inserts a company or refreshes the figures of an existing one
func (r *Repository) SaveCompany(c Company) (int64, error) {
	c.TickerSymbol = strings.ToUpper(strings.TrimSpace(c.TickerSymbol))
	if err := validateStruct(c); err != nil {
		return 0, err
	}

	args := append(companyArgs(&c), time.Now().Unix())
	_, err := r.db.Exec(
		"INSERT INTO companies ("+companyColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker_symbol) DO UPDATE SET
			company_name = excluded.company_name,
			industry = excluded.industry,
			sector = excluded.sector,
			market_cap = excluded.market_cap,
			bid = excluded.bid,
			ask = excluded.ask,
			fifty_two_week_high = excluded.fifty_two_week_high,
			fifty_two_week_low = excluded.fifty_two_week_low,
			volume = excluded.volume,
			average_volume = excluded.average_volume,
			beta_5y_monthly = excluded.beta_5y_monthly,
			pe_ratio_ttm = excluded.pe_ratio_ttm,
			eps_ttm = excluded.eps_ttm,
			earnings_date = excluded.earnings_date,
			forward_dividend_yield = excluded.forward_dividend_yield,
			ex_dividend_date = excluded.ex_dividend_date,
			shares_outstanding = excluded.shares_outstanding,
			current_share_price = excluded.current_share_price,
			updated_at = excluded.updated_at`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save company %s: %w", c.TickerSymbol, err)
	}
	return r.companyID(c.TickerSymbol)
}

func (r *Repository) companyID(ticker string) (int64, error) {
	var id int64
	if err := r.db.QueryRow("SELECT id FROM companies WHERE ticker_symbol = ?", ticker).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to look up company %s: %w", ticker, err)
	}
	return id, nil
}

// GetCompanyByTicker returns a stored company profile
func (r *Repository) GetCompanyByTicker(ticker string) (*Company, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	var c Company
	err := r.db.QueryRow(`
		SELECT id, company_name, ticker_symbol, COALESCE(industry, ''), COALESCE(sector, ''), market_cap,
			bid, ask, fifty_two_week_high, fifty_two_week_low, volume,
			average_volume, beta_5y_monthly, pe_ratio_ttm, eps_ttm,
			COALESCE(earnings_date, ''), forward_dividend_yield, COALESCE(ex_dividend_date, ''),
			shares_outstanding, current_share_price
		FROM companies WHERE ticker_symbol = ?`, ticker).Scan(
		&c.ID, &c.CompanyName, &c.TickerSymbol, &c.Industry, &c.Sector, &c.MarketCap,
		&c.Bid, &c.Ask, &c.FiftyTwoWeekHigh, &c.FiftyTwoWeekLow, &c.Volume,
		&c.AverageVolume, &c.Beta5YMonthly, &c.PERatioTTM, &c.EPSTTM,
		&c.EarningsDate, &c.ForwardDividendYield, &c.ExDividendDate,
		&c.SharesOutstanding, &c.CurrentSharePrice,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("company", ticker)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company %s: %w", ticker, err)
	}
	return &c, nil
}

// AddRelatedTickers records related tickers for a base ticker, ignoring pairs already stored.
// Returns the number of new pairs.
func (r *Repository) AddRelatedTickers(base string, related []string) (int, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		return 0, domain.NewValidationError("base_ticker", "must not be empty")
	}

	added := 0
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		for _, t := range related {
			t = strings.ToUpper(strings.TrimSpace(t))
			if t == "" || t == base {
				continue
			}
			res, err := tx.Exec("INSERT OR IGNORE INTO related_tickers (base_ticker, related_ticker) VALUES (?, ?)", base, t)
			if err != nil {
				return fmt.Errorf("failed to add related ticker %s: %w", t, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				added++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.log.Debug().Str("ticker", base).Int("added", added).Msg("Added related tickers")
	return added, nil
}

// GetRelatedTickers lists the related tickers stored for a base ticker
func (r *Repository) GetRelatedTickers(base string) ([]string, error) {
	rows, err := r.db.Query(
		"SELECT related_ticker FROM related_tickers WHERE base_ticker = ? ORDER BY id",
		strings.ToUpper(strings.TrimSpace(base)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query related tickers: %w", err)
	}
	defer rows.Close()

	related := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan related ticker: %w", err)
		}
		related = append(related, t)
	}
	return related, rows.Err()
}

// SaveTickerDetails inserts or replaces the reference data of a ticker
func (r *Repository) SaveTickerDetails(d TickerDetails) error {
	d.Ticker = strings.ToUpper(strings.TrimSpace(d.Ticker))
	if err := validateStruct(d); err != nil {
		return err
	}

	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO ticker_details (
			ticker, name, market, locale, primary_exchange, type, currency_name, cik,
			market_cap, description, homepage_url, total_employees, list_date,
			share_class_shares_outstanding, weighted_shares_outstanding, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Ticker, d.Name, d.Market, d.Locale, d.PrimaryExchange, d.Type, d.CurrencyName, d.CIK,
		d.MarketCap, d.Description, d.HomepageURL, d.TotalEmployees, d.ListDate,
		d.ShareClassSharesOutstanding, d.WeightedSharesOutstanding, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save ticker details for %s: %w", d.Ticker, err)
	}
	return nil
}

// GetTickerDetails returns stored reference data for a ticker
func (r *Repository) GetTickerDetails(ticker string) (*TickerDetails, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	var d TickerDetails
	err := r.db.QueryRow(`
		SELECT ticker, COALESCE(name, ''), COALESCE(market, ''), COALESCE(locale, ''),
			COALESCE(primary_exchange, ''), COALESCE(type, ''), COALESCE(currency_name, ''),
			COALESCE(cik, ''), market_cap, COALESCE(description, ''), COALESCE(homepage_url, ''),
			total_employees, COALESCE(list_date, ''), share_class_shares_outstanding,
			weighted_shares_outstanding
		FROM ticker_details WHERE ticker = ?`, ticker).Scan(
		&d.Ticker, &d.Name, &d.Market, &d.Locale, &d.PrimaryExchange, &d.Type, &d.CurrencyName,
		&d.CIK, &d.MarketCap, &d.Description, &d.HomepageURL, &d.TotalEmployees, &d.ListDate,
		&d.ShareClassSharesOutstanding, &d.WeightedSharesOutstanding,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("ticker details", ticker)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticker details for %s: %w", ticker, err)
	}
	return &d, nil
}

// AddFiling inserts a filing and returns its id.
// A filing already stored for the same cik, period, year and timeframe returns the existing id.
func (r *Repository) AddFiling(f Filing) (int64, error) {
	return r.addFiling(r.db, f)
}

func (r *Repository) addFiling(ex execer, f Filing) (int64, error) {
	f.Ticker = strings.ToUpper(strings.TrimSpace(f.Ticker))
	if err := validateStruct(f); err != nil {
		return 0, err
	}

	result, err := ex.Exec(`
		INSERT INTO financial_filings (
			ticker, cik, company_name, sic, filing_date, period_of_report_date,
			start_date, end_date, fiscal_period, fiscal_year, timeframe,
			acceptance_datetime, source_filing_url, source_filing_file_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cik, fiscal_period, fiscal_year, timeframe) DO NOTHING`,
		f.Ticker, f.CIK, nullString(f.CompanyName), nullString(f.SIC), nullString(f.FilingDate),
		nullString(f.PeriodOfReportDate), nullString(f.StartDate), nullString(f.EndDate),
		f.FiscalPeriod, f.FiscalYear, f.Timeframe, nullString(f.AcceptanceDatetime),
		nullString(f.SourceFilingURL), nullString(f.SourceFilingFileURL),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add filing for %s: %w", f.Ticker, err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		r.log.Warn().
			Err(fmt.Errorf("filing %s %s %s: %w", f.CIK, f.FiscalPeriod, f.FiscalYear, domain.ErrIntegrity)).
			Str("ticker", f.Ticker).
			Msg("Filing already exists, returning existing id")

		var id int64
		err := ex.QueryRow(`
			SELECT id FROM financial_filings
			WHERE cik = ? AND fiscal_period = ? AND fiscal_year = ? AND timeframe = ?`,
			f.CIK, f.FiscalPeriod, f.FiscalYear, f.Timeframe,
		).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to look up existing filing: %w", err)
		}
		return id, nil
	}

	return result.LastInsertId()
}

// AddIncomeStatement inserts or replaces the income statement of a filing
func (r *Repository) AddIncomeStatement(filingID int64, s IncomeStatement) error {
	return addIncomeStatement(r.db, filingID, s)
}

func addIncomeStatement(ex execer, filingID int64, s IncomeStatement) error {
	_, err := ex.Exec(`
		INSERT OR REPLACE INTO income_statements (
			filing_id, revenues, cost_of_revenue, gross_profit,
			research_and_development_expenses, selling_general_and_administrative_expenses,
			operating_expenses, operating_income_loss, interest_expense_operating,
			interest_income_expense_net, income_loss_from_continuing_operations_before_tax,
			income_tax_expense_benefit, net_income_loss, net_income_loss_attributable_to_parent,
			earnings_per_share_basic, earnings_per_share_diluted,
			weighted_average_shares_outstanding_basic, weighted_average_shares_outstanding_diluted
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		filingID, s.Revenues, s.CostOfRevenue, s.GrossProfit,
		s.ResearchAndDevelopmentExpenses, s.SellingGeneralAndAdministrativeExpenses,
		s.OperatingExpenses, s.OperatingIncomeLoss, s.InterestExpenseOperating,
		s.InterestIncomeExpenseNet, s.IncomeLossFromContinuingOperationsBeforeTax,
		s.IncomeTaxExpenseBenefit, s.NetIncomeLoss, s.NetIncomeLossAttributableToParent,
		s.EarningsPerShareBasic, s.EarningsPerShareDiluted,
		s.WeightedAverageSharesOutstandingBasic, s.WeightedAverageSharesOutstandingDiluted,
	)
	if err != nil {
		return fmt.Errorf("failed to add income statement for filing %d: %w", filingID, err)
	}
	return nil
}

// AddBalanceSheet inserts or replaces the balance sheet of a filing
func (r *Repository) AddBalanceSheet(filingID int64, b BalanceSheet) error {
	return addBalanceSheet(r.db, filingID, b)
}

func addBalanceSheet(ex execer, filingID int64, b BalanceSheet) error {
	_, err := ex.Exec(`
		INSERT OR REPLACE INTO balance_sheets (
			filing_id, assets, current_assets, noncurrent_assets, liabilities,
			current_liabilities, noncurrent_liabilities, stockholders_equity,
			liabilities_and_equity, cash_and_cash_equivalents_at_carrying_value
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		filingID, b.Assets, b.CurrentAssets, b.NoncurrentAssets, b.Liabilities,
		b.CurrentLiabilities, b.NoncurrentLiabilities, b.StockholdersEquity,
		b.LiabilitiesAndEquity, b.CashAndCashEquivalentsAtCarryingValue,
	)
	if err != nil {
		return fmt.Errorf("failed to add balance sheet for filing %d: %w", filingID, err)
	}
	return nil
}

// AddCashFlowStatement inserts or replaces the cash flow statement of a filing
func (r *Repository) AddCashFlowStatement(filingID int64, c CashFlowStatement) error {
	return addCashFlowStatement(r.db, filingID, c)
}

func addCashFlowStatement(ex execer, filingID int64, c CashFlowStatement) error {
	_, err := ex.Exec(`
		INSERT OR REPLACE INTO cash_flow_statements (
			filing_id, net_cash_flow, net_cash_flow_from_operating_activities,
			net_cash_flow_from_investing_activities, net_cash_flow_from_financing_activities
		) VALUES (?, ?, ?, ?, ?)`,
		filingID, c.NetCashFlow, c.NetCashFlowFromOperatingActivities,
		c.NetCashFlowFromInvestingActivities, c.NetCashFlowFromFinancingActivities,
	)
	if err != nil {
		return fmt.Errorf("failed to add cash flow statement for filing %d: %w", filingID, err)
	}
	return nil
}

// SaveFilingReport stores a filing and all of its statements in one transaction
func (r *Repository) SaveFilingReport(report FilingReport) (int64, error) {
	var filingID int64
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		id, err := r.addFiling(tx, report.Filing)
		if err != nil {
			return err
		}
		filingID = id

		if report.IncomeStatement != nil {
			if err := addIncomeStatement(tx, id, *report.IncomeStatement); err != nil {
				return err
			}
		}
		if report.BalanceSheet != nil {
			if err := addBalanceSheet(tx, id, *report.BalanceSheet); err != nil {
				return err
			}
		}
		if report.CashFlow != nil {
			if err := addCashFlowStatement(tx, id, *report.CashFlow); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return filingID, nil
}

// GetFinancialSummary returns the headline figures of the latest filing for a ticker and timeframe
func (r *Repository) GetFinancialSummary(ticker, timeframe string) (*FinancialSummary, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if timeframe == "" {
		timeframe = TimeframeAnnual
	}

	var s FinancialSummary
	err := r.db.QueryRow(`
		SELECT
			f.ticker, COALESCE(f.company_name, ''), f.fiscal_year, f.fiscal_period,
			i.revenues, i.net_income_loss, i.earnings_per_share_diluted,
			b.assets, b.stockholders_equity, b.cash_and_cash_equivalents_at_carrying_value
		FROM financial_filings f
		LEFT JOIN income_statements i ON f.id = i.filing_id
		LEFT JOIN balance_sheets b ON f.id = b.filing_id
		WHERE f.ticker = ? AND f.timeframe = ?
		ORDER BY f.fiscal_year DESC, f.fiscal_period DESC
		LIMIT 1`, ticker, timeframe).Scan(
		&s.Ticker, &s.CompanyName, &s.FiscalYear, &s.FiscalPeriod,
		&s.Revenues, &s.NetIncomeLoss, &s.EarningsPerShareDiluted,
		&s.Assets, &s.StockholdersEquity, &s.CashAndCashEquivalentsAtCarryingValue,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("financial summary", ticker+" ("+timeframe+")")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get financial summary for %s: %w", ticker, err)
	}
	return &s, nil
}

// AddTopMover inserts one mover entry and returns its id
func (r *Repository) AddTopMover(m TopMover) (int64, error) {
	return addTopMover(r.db, m)
}

func addTopMover(ex execer, m TopMover) (int64, error) {
	m.TickerSymbol = strings.ToUpper(strings.TrimSpace(m.TickerSymbol))
	if err := validateStruct(m); err != nil {
		return 0, err
	}
	if m.FetchedAt.IsZero() {
		m.FetchedAt = time.Now()
	}

	result, err := ex.Exec(`
		INSERT INTO top_movers (
			ticker_symbol, direction, position_rank, todays_change,
			todays_change_perc, current_price, volume, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.TickerSymbol, m.Direction, m.PositionRank, m.TodaysChange,
		m.TodaysChangePerc, m.CurrentPrice, m.Volume, m.FetchedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add top mover %s: %w", m.TickerSymbol, err)
	}
	return result.LastInsertId()
}

// ReplaceTopMovers swaps the stored snapshot of one direction for a new one
func (r *Repository) ReplaceTopMovers(direction string, movers []TopMover) error {
	if direction != DirectionGainers && direction != DirectionLosers {
		return domain.NewValidationError("direction", "must be %s or %s, got %q", DirectionGainers, DirectionLosers, direction)
	}

	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM top_movers WHERE direction = ?", direction); err != nil {
			return fmt.Errorf("failed to clear %s: %w", direction, err)
		}
		for i, m := range movers {
			m.Direction = direction
			if m.PositionRank == 0 {
				m.PositionRank = i + 1
			}
			if _, err := addTopMover(tx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetTopMovers returns the stored movers of one direction ordered by rank
func (r *Repository) GetTopMovers(direction string, limit int) ([]TopMover, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(`
		SELECT id, ticker_symbol, direction, position_rank, todays_change,
			todays_change_perc, current_price, volume, fetched_at
		FROM top_movers
		WHERE direction = ?
		ORDER BY position_rank ASC
		LIMIT ?`, direction, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top movers: %w", err)
	}
	defer rows.Close()

	movers := []TopMover{}
	for rows.Next() {
		var m TopMover
		var fetchedAt int64
		if err := rows.Scan(&m.ID, &m.TickerSymbol, &m.Direction, &m.PositionRank, &m.TodaysChange,
			&m.TodaysChangePerc, &m.CurrentPrice, &m.Volume, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan top mover: %w", err)
		}
		m.FetchedAt = time.Unix(fetchedAt, 0).UTC()
		movers = append(movers, m)
	}
	return movers, rows.Err()
}

// SaveValuation records both model results of a valuation
func (r *Repository) SaveValuation(v *valuation.Valuation) error {
	in := v.Inputs
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		for _, res := range []valuation.Result{v.Perpetuity, v.GordonGrowth} {
			_, err := tx.Exec(`
				INSERT INTO valuation_metrics (
					company, model, free_cash_flow, discount_rate, growth_rate,
					shares_outstanding, share_price, enterprise_value, implied_price, potential_roi
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				in.Company, string(res.Model),
				formatFloat(in.FreeCashFlow), formatFloat(in.DiscountRate), formatFloat(in.GrowthRate),
				formatFloat(in.SharesOutstanding), formatFloat(in.SharePrice),
				res.EnterpriseValue.String(), res.ImpliedPrice.String(), res.PotentialROI.String(),
			)
			if err != nil {
				return fmt.Errorf("failed to save %s valuation for %s: %w", res.Model, in.Company, err)
			}
		}
		return nil
	})
}

// FillValuationInputs completes missing company name, share count and price from a stored company
func FillValuationInputs(c *Company, in valuation.Inputs) valuation.Inputs {
	if in.Company == "" {
		in.Company = c.CompanyName
	}
	if in.SharesOutstanding == 0 && c.SharesOutstanding != nil {
		in.SharesOutstanding = float64(*c.SharesOutstanding)
	}
	if in.SharePrice == 0 && c.CurrentSharePrice != nil {
		in.SharePrice = *c.CurrentSharePrice
	}
	return in
}

// ListTables lists the tables of the fundamentals database
func (r *Repository) ListTables() ([]string, error) {
	rows, err := r.db.Query("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// formatFloat renders an input figure exactly as decimal text
func formatFloat(f float64) string {
	return decimal.NewFromFloat(f).String()
}
