package database

// marketSchema is the single source of truth for market.db. The UNIQUE
// constraints are the upsert keys: re-running the pipeline for the same
// as-of date overwrites rather than duplicates.
const marketSchema = `
CREATE TABLE IF NOT EXISTS prices (
    ticker TEXT NOT NULL,
    date TEXT NOT NULL,
    adj_close REAL NOT NULL,
    volume INTEGER,
    UNIQUE(ticker, date)
);

CREATE INDEX IF NOT EXISTS idx_prices_ticker ON prices(ticker);
CREATE INDEX IF NOT EXISTS idx_prices_date ON prices(date);

CREATE TABLE IF NOT EXISTS metrics (
    ticker TEXT NOT NULL,
    as_of_date TEXT NOT NULL,
    annualized_return REAL,
    volatility REAL,
    max_drawdown REAL,
    downside_deviation REAL,
    momentum REAL,
    trading_days INTEGER,
    UNIQUE(ticker, as_of_date)
);

CREATE INDEX IF NOT EXISTS idx_metrics_ticker ON metrics(ticker);
CREATE INDEX IF NOT EXISTS idx_metrics_date ON metrics(as_of_date);

CREATE TABLE IF NOT EXISTS scores (
    ticker TEXT NOT NULL,
    as_of_date TEXT NOT NULL,
    risk_profile TEXT NOT NULL,
    raw_score REAL,
    normalized_score REAL,
    rank INTEGER,
    UNIQUE(ticker, as_of_date, risk_profile)
);

CREATE INDEX IF NOT EXISTS idx_scores_profile ON scores(risk_profile);
CREATE INDEX IF NOT EXISTS idx_scores_date ON scores(as_of_date);
`
