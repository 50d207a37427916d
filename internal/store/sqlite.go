package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"TickerSentinel/internal/common"
	"TickerSentinel/internal/model"
)

// SQLiteStore keeps settings as a key/value table of JSON values and logs
// every fired alert.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *common.Logger
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string, logger *common.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Str("path", dbPath).Msg("sqlite store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS fired_alerts (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			alert_id     TEXT NOT NULL,
			symbol       TEXT NOT NULL,
			direction    TEXT NOT NULL,
			target_price REAL,
			price        REAL,
			currency     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fired_symbol ON fired_alerts(symbol, timestamp)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	settings := model.DefaultSettings()
	fields := settingsFields(settings)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan settings: %w", err)
		}
		dst, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(value), dst); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("ignoring unreadable setting")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	settings.ApplyDefaults()
	return settings, nil
}

func (s *SQLiteStore) Save(ctx context.Context, settings *model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for key, src := range settingsFields(settings) {
		value, err := json.Marshal(src)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO settings (key, value, updated_at)
			VALUES (?,?,?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, string(value), now,
		); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) RecordAlert(ctx context.Context, f model.FiredAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO fired_alerts
		(timestamp, alert_id, symbol, direction, target_price, price, currency)
		VALUES (?,?,?,?,?,?,?)`,
		f.FiredAt.Unix(), f.Alert.ID, f.Alert.Symbol, string(f.Alert.Direction),
		f.Alert.TargetPrice, f.Price, f.Currency,
	)
	return err
}

// AlertHistory returns the most recent fired alerts for symbol, newest
// first. An empty symbol returns every symbol.
func (s *SQLiteStore) AlertHistory(ctx context.Context, symbol string, limit int) ([]model.FiredAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT timestamp, alert_id, symbol, direction, target_price, price, currency
		FROM fired_alerts
		WHERE ? = '' OR symbol = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, symbol, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query alert history: %w", err)
	}
	defer rows.Close()

	var out []model.FiredAlert
	for rows.Next() {
		var (
			ts  int64
			dir string
			f   model.FiredAlert
		)
		if err := rows.Scan(&ts, &f.Alert.ID, &f.Alert.Symbol, &dir, &f.Alert.TargetPrice, &f.Price, &f.Currency); err != nil {
			return nil, fmt.Errorf("scan alert history: %w", err)
		}
		f.Alert.Direction = model.Direction(dir)
		f.Alert.Armed = true
		f.FiredAt = time.Unix(ts, 0)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.logger.Info().Msg("closing sqlite store")
	return s.db.Close()
}
