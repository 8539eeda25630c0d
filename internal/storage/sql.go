package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/karnyvex/dominator/internal/arbitrage"
	"github.com/karnyvex/dominator/internal/domination"
	"github.com/karnyvex/dominator/pkg/types"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const statDateLayout = "2006-01-02"

// Dialect selects placeholder style and connection setup.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// rebind rewrites ? placeholders into $n for postgres.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 16)

	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// SQLStore keeps market statistics, item names and results in a SQL database.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// SQLiteConfig holds SQLite configuration. Path ":memory:" gives a private in-memory database.
type SQLiteConfig struct {
	Path   string
	Logger *zap.Logger
}

// NewPostgresStore connects to PostgreSQL.
func NewPostgresStore(ctx context.Context, cfg *PostgresConfig) (*SQLStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return NewSQLStore(db, DialectPostgres, cfg.Logger), nil
}

// NewSQLiteStore opens (or creates) a SQLite database file.
func NewSQLiteStore(ctx context.Context, cfg *SQLiteConfig) (*SQLStore, error) {
	dsn := cfg.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if cfg.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("sqlite-storage-connected", zap.String("path", cfg.Path))

	return NewSQLStore(db, DialectSQLite, cfg.Logger), nil
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB, dialect Dialect, logger *zap.Logger) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: dialect,
		logger:  logger,
	}
}

//nolint:gochecknoglobals // schema statements
var schema = []string{
	`CREATE TABLE IF NOT EXISTS market_statistics (
		type_id   INTEGER NOT NULL,
		region_id INTEGER NOT NULL,
		stat_date TEXT    NOT NULL,
		payload   TEXT    NOT NULL,
		PRIMARY KEY (type_id, region_id, stat_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_market_statistics_region ON market_statistics (region_id, type_id)`,
	`CREATE TABLE IF NOT EXISTS item_names (
		type_id INTEGER PRIMARY KEY,
		name    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS domination_opportunities (
		id                        TEXT PRIMARY KEY,
		type_id                   INTEGER NOT NULL,
		item_name                 TEXT NOT NULL,
		region_id                 INTEGER NOT NULL,
		location_id               BIGINT NOT NULL,
		orders_cleared            INTEGER NOT NULL,
		items_bought              BIGINT NOT NULL,
		total_investment          DOUBLE PRECISION NOT NULL,
		target_sell_price         DOUBLE PRECISION NOT NULL,
		highest_buy_price_cleared DOUBLE PRECISION NOT NULL,
		profit_per_item           DOUBLE PRECISION NOT NULL,
		total_profit              DOUBLE PRECISION NOT NULL,
		roi_percent               DOUBLE PRECISION NOT NULL,
		detected_at               TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS arbitrage_scans (
		id             TEXT PRIMARY KEY,
		time_window    TEXT NOT NULL,
		candidates     INTEGER NOT NULL,
		total_batches  INTEGER NOT NULL,
		failed_batches INTEGER NOT NULL,
		started_at     TIMESTAMP NOT NULL,
		duration_ms    BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS arbitrage_results (
		scan_id                  TEXT NOT NULL,
		type_id                  INTEGER NOT NULL,
		item_name                TEXT NOT NULL,
		low_region_id            INTEGER NOT NULL,
		low_price                DOUBLE PRECISION NOT NULL,
		low_market_size          DOUBLE PRECISION NOT NULL,
		high_region_id           INTEGER NOT NULL,
		high_price               DOUBLE PRECISION NOT NULL,
		high_market_size         DOUBLE PRECISION NOT NULL,
		price_difference_percent DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (scan_id, type_id)
	)`,
}

// Migrate creates the tables that do not exist yet.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		_, err := s.db.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	s.logger.Debug("storage-migrated", zap.String("dialect", string(s.dialect)))
	return nil
}

// GetLatest returns the newest statistics row of an item in a region, or nil when none exists.
func (s *SQLStore) GetLatest(ctx context.Context, typeID types.TypeID, regionID types.RegionID) (*types.ItemStatistics, error) {
	defer observe("get_latest", time.Now())

	query := s.dialect.rebind(`SELECT payload FROM market_statistics
		WHERE type_id = ? AND region_id = ?
		ORDER BY stat_date DESC LIMIT 1`)

	var payload string
	err := s.db.QueryRowContext(ctx, query, int32(typeID), int32(regionID)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence is not an error
	}
	if err != nil {
		return nil, s.fail("get_latest", fmt.Errorf("query statistics: %w", err))
	}

	var stats types.ItemStatistics
	err = json.Unmarshal([]byte(payload), &stats)
	if err != nil {
		return nil, s.fail("get_latest", fmt.Errorf("decode statistics of type %d: %w", typeID, err))
	}

	return &stats, nil
}

// DistinctTypeIDs lists the type IDs with statistics in a region, ascending.
// A limit of zero or less returns every ID.
func (s *SQLStore) DistinctTypeIDs(ctx context.Context, regionID types.RegionID, limit int) ([]types.TypeID, error) {
	defer observe("distinct_type_ids", time.Now())

	query := `SELECT DISTINCT type_id FROM market_statistics WHERE region_id = ? ORDER BY type_id`
	args := []any{int32(regionID)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, s.fail("distinct_type_ids", fmt.Errorf("query type ids: %w", err))
	}
	defer rows.Close()

	var ids []types.TypeID
	for rows.Next() {
		var id int32
		err = rows.Scan(&id)
		if err != nil {
			return nil, s.fail("distinct_type_ids", fmt.Errorf("scan type id: %w", err))
		}
		ids = append(ids, types.TypeID(id))
	}

	err = rows.Err()
	if err != nil {
		return nil, s.fail("distinct_type_ids", fmt.Errorf("iterate type ids: %w", err))
	}

	return ids, nil
}

// ReplaceRegionStatistics swaps a region's statistics for a fresh import in one transaction.
func (s *SQLStore) ReplaceRegionStatistics(ctx context.Context, regionID types.RegionID, stats []types.ItemStatistics) error {
	defer observe("replace_region_statistics", time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail("replace_region_statistics", fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM market_statistics WHERE region_id = ?`), int32(regionID))
	if err != nil {
		return s.fail("replace_region_statistics", fmt.Errorf("delete region %d: %w", regionID, err))
	}

	insert := s.dialect.rebind(`INSERT INTO market_statistics (type_id, region_id, stat_date, payload)
		VALUES (?, ?, ?, ?)`)

	for i := range stats {
		st := &stats[i]

		payload, err := json.Marshal(st)
		if err != nil {
			return s.fail("replace_region_statistics", fmt.Errorf("encode statistics of type %d: %w", st.TypeID, err))
		}

		_, err = tx.ExecContext(ctx, insert, int32(st.TypeID), int32(regionID), st.Date.Format(statDateLayout), string(payload))
		if err != nil {
			return s.fail("replace_region_statistics", fmt.Errorf("insert statistics of type %d: %w", st.TypeID, err))
		}
	}

	err = tx.Commit()
	if err != nil {
		return s.fail("replace_region_statistics", fmt.Errorf("commit: %w", err))
	}

	s.logger.Debug("statistics-replaced",
		zap.Int32("region-id", int32(regionID)),
		zap.Int("rows", len(stats)))

	return nil
}

// CountByRegion returns the number of statistics rows per region.
func (s *SQLStore) CountByRegion(ctx context.Context) (map[types.RegionID]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT region_id, COUNT(*) FROM market_statistics GROUP BY region_id`)
	if err != nil {
		return nil, s.fail("count_by_region", fmt.Errorf("count statistics: %w", err))
	}
	defer rows.Close()

	counts := make(map[types.RegionID]int)
	for rows.Next() {
		var (
			region int32
			count  int
		)
		err = rows.Scan(&region, &count)
		if err != nil {
			return nil, s.fail("count_by_region", fmt.Errorf("scan count: %w", err))
		}
		counts[types.RegionID(region)] = count
	}

	err = rows.Err()
	if err != nil {
		return nil, s.fail("count_by_region", fmt.Errorf("iterate counts: %w", err))
	}

	return counts, nil
}

// LatestDate returns the newest statistics date of a region, or ErrNotFound.
func (s *SQLStore) LatestDate(ctx context.Context, regionID types.RegionID) (time.Time, error) {
	query := s.dialect.rebind(`SELECT MAX(stat_date) FROM market_statistics WHERE region_id = ?`)

	var latest sql.NullString
	err := s.db.QueryRowContext(ctx, query, int32(regionID)).Scan(&latest)
	if err != nil {
		return time.Time{}, s.fail("latest_date", fmt.Errorf("query latest date: %w", err))
	}

	if !latest.Valid {
		return time.Time{}, fmt.Errorf("latest date of region %d: %w", regionID, ErrNotFound)
	}

	date, err := time.Parse(statDateLayout, latest.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse latest date %q: %w", latest.String, err)
	}

	return date, nil
}

// SaveItemNames inserts or renames items.
func (s *SQLStore) SaveItemNames(ctx context.Context, names []types.ItemName) error {
	defer observe("save_item_names", time.Now())

	if len(names) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail("save_item_names", fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	upsert := s.dialect.rebind(`INSERT INTO item_names (type_id, name) VALUES (?, ?)
		ON CONFLICT (type_id) DO UPDATE SET name = excluded.name`)

	for _, n := range names {
		_, err = tx.ExecContext(ctx, upsert, int32(n.TypeID), n.Name)
		if err != nil {
			return s.fail("save_item_names", fmt.Errorf("upsert name of type %d: %w", n.TypeID, err))
		}
	}

	err = tx.Commit()
	if err != nil {
		return s.fail("save_item_names", fmt.Errorf("commit: %w", err))
	}

	return nil
}

// ItemName returns the stored name of an item, or ErrNotFound.
func (s *SQLStore) ItemName(ctx context.Context, typeID types.TypeID) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT name FROM item_names WHERE type_id = ?`), int32(typeID)).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("name of type %d: %w", typeID, ErrNotFound)
	}
	if err != nil {
		return "", s.fail("item_name", fmt.Errorf("query name: %w", err))
	}

	return name, nil
}

//nolint:gochecknoglobals // LIKE wildcard escaping
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchItemNames finds items whose name contains term, ignoring case, ordered by name.
func (s *SQLStore) SearchItemNames(ctx context.Context, term string, limit int) ([]types.ItemName, error) {
	defer observe("search_item_names", time.Now())

	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
	query := s.dialect.rebind(`SELECT type_id, name FROM item_names
		WHERE LOWER(name) LIKE ? ESCAPE '\'
		ORDER BY name LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, pattern, limit)
	if err != nil {
		return nil, s.fail("search_item_names", fmt.Errorf("search names: %w", err))
	}
	defer rows.Close()

	var found []types.ItemName
	for rows.Next() {
		var (
			id   int32
			name string
		)
		err = rows.Scan(&id, &name)
		if err != nil {
			return nil, s.fail("search_item_names", fmt.Errorf("scan name: %w", err))
		}
		found = append(found, types.ItemName{TypeID: types.TypeID(id), Name: name})
	}

	err = rows.Err()
	if err != nil {
		return nil, s.fail("search_item_names", fmt.Errorf("iterate names: %w", err))
	}

	return found, nil
}

// CountItemNames returns the size of the name table.
func (s *SQLStore) CountItemNames(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM item_names`).Scan(&count)
	if err != nil {
		return 0, s.fail("count_item_names", fmt.Errorf("count names: %w", err))
	}
	return count, nil
}

// StoreOpportunities stores the result of one domination run.
func (s *SQLStore) StoreOpportunities(ctx context.Context, opps []*domination.Opportunity) error {
	defer observe("store_opportunities", time.Now())

	if len(opps) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail("store_opportunities", fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	insert := s.dialect.rebind(`INSERT INTO domination_opportunities (
			id, type_id, item_name, region_id, location_id, orders_cleared, items_bought,
			total_investment, target_sell_price, highest_buy_price_cleared,
			profit_per_item, total_profit, roi_percent, detected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	for _, opp := range opps {
		_, err = tx.ExecContext(ctx, insert,
			opp.ID,
			int32(opp.TypeID),
			opp.ItemName,
			int32(opp.RegionID),
			int64(opp.LocationID),
			opp.OrdersCleared,
			opp.ItemsBought,
			opp.TotalInvestment,
			opp.TargetSellPrice,
			opp.HighestBuyPriceCleared,
			opp.ProfitPerItem,
			opp.TotalProfit,
			opp.ROIPercent,
			opp.DetectedAt,
		)
		if err != nil {
			return s.fail("store_opportunities", fmt.Errorf("insert opportunity %s: %w", opp.ID, err))
		}
	}

	err = tx.Commit()
	if err != nil {
		return s.fail("store_opportunities", fmt.Errorf("commit: %w", err))
	}

	s.logger.Debug("opportunities-stored", zap.Int("count", len(opps)))
	return nil
}

// StoreArbitrage stores a scan and its results.
func (s *SQLStore) StoreArbitrage(ctx context.Context, report *arbitrage.ScanReport) error {
	defer observe("store_arbitrage", time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail("store_arbitrage", fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, s.dialect.rebind(`INSERT INTO arbitrage_scans (
			id, time_window, candidates, total_batches, failed_batches, started_at, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		report.ID,
		string(report.Window),
		report.Candidates,
		report.TotalBatches,
		report.FailedBatches,
		report.StartedAt,
		report.Duration.Milliseconds(),
	)
	if err != nil {
		return s.fail("store_arbitrage", fmt.Errorf("insert scan %s: %w", report.ID, err))
	}

	insert := s.dialect.rebind(`INSERT INTO arbitrage_results (
			scan_id, type_id, item_name, low_region_id, low_price, low_market_size,
			high_region_id, high_price, high_market_size, price_difference_percent
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	for _, r := range report.Results {
		_, err = tx.ExecContext(ctx, insert,
			report.ID,
			int32(r.TypeID),
			r.ItemName,
			int32(r.LowRegion),
			r.LowPrice,
			r.LowMarketSize,
			int32(r.HighRegion),
			r.HighPrice,
			r.HighMarketSize,
			r.PriceDifferencePercent,
		)
		if err != nil {
			return s.fail("store_arbitrage", fmt.Errorf("insert result of type %d: %w", r.TypeID, err))
		}
	}

	err = tx.Commit()
	if err != nil {
		return s.fail("store_arbitrage", fmt.Errorf("commit: %w", err))
	}

	s.logger.Debug("arbitrage-stored",
		zap.String("scan-id", report.ID),
		zap.Int("results", len(report.Results)))

	return nil
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	s.logger.Info("closing-sql-storage", zap.String("dialect", string(s.dialect)))
	return s.db.Close()
}

func (s *SQLStore) fail(operation string, err error) error {
	StoreErrorsTotal.WithLabelValues(operation).Inc()
	s.logger.Debug("storage-operation-failed",
		zap.String("operation", operation),
		zap.Error(err))
	return err
}

func observe(operation string, start time.Time) {
	StoreOperationDurationSeconds.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
