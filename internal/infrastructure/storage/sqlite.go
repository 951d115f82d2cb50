package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/xaubot/xaubot/internal/domain"
)

// SQLiteStore persists positions in a single sqlite database. Decimals
// are stored as TEXT so no precision is lost on the round trip.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS positions (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			size TEXT NOT NULL,
			entry_price TEXT NOT NULL,
			exit_price TEXT,
			stop_loss TEXT,
			take_profit TEXT,
			status TEXT NOT NULL,
			open_time DATETIME NOT NULL,
			close_time DATETIME,
			notes TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_positions_user ON positions(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status);`,
		`CREATE INDEX IF NOT EXISTS idx_positions_symbol ON positions(symbol);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const positionColumns = `id, user_id, symbol, side, size, entry_price, exit_price, stop_loss, take_profit, status, open_time, close_time, notes`

func (s *SQLiteStore) Create(ctx context.Context, p *domain.Position) error {
	p.ID = uuid.NewString()
	query := `INSERT INTO positions (` + positionColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.UserID, string(p.Symbol), string(p.Side),
		p.Size.String(), p.EntryPrice.String(),
		nullDecimal(p.ExitPrice), nullDecimal(p.StopLoss), nullDecimal(p.TakeProfit),
		string(p.Status), p.OpenTime, nullTime(p.CloseTime), p.Notes)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Position, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+positionColumns+` FROM positions WHERE id = ?`, id)
	p, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: position %s", domain.ErrNotFound, id)
	}
	return p, err
}

func (s *SQLiteStore) List(ctx context.Context) ([]*domain.Position, error) {
	return s.query(ctx, `SELECT `+positionColumns+` FROM positions ORDER BY open_time`)
}

func (s *SQLiteStore) ListByUser(ctx context.Context, userID int64) ([]*domain.Position, error) {
	return s.query(ctx, `SELECT `+positionColumns+` FROM positions WHERE user_id = ? ORDER BY open_time`, userID)
}

func (s *SQLiteStore) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Position, error) {
	return s.query(ctx, `SELECT `+positionColumns+` FROM positions WHERE status = ? ORDER BY open_time`, string(status))
}

func (s *SQLiteStore) ListBySymbol(ctx context.Context, symbol domain.Symbol) ([]*domain.Position, error) {
	return s.query(ctx, `SELECT `+positionColumns+` FROM positions WHERE symbol = ? ORDER BY open_time`, string(symbol))
}

func (s *SQLiteStore) Update(ctx context.Context, p *domain.Position) error {
	query := `UPDATE positions SET user_id = ?, symbol = ?, side = ?, size = ?, entry_price = ?,
			  exit_price = ?, stop_loss = ?, take_profit = ?, status = ?, open_time = ?, close_time = ?, notes = ?
			  WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query,
		p.UserID, string(p.Symbol), string(p.Side),
		p.Size.String(), p.EntryPrice.String(),
		nullDecimal(p.ExitPrice), nullDecimal(p.StopLoss), nullDecimal(p.TakeProfit),
		string(p.Status), p.OpenTime, nullTime(p.CloseTime), p.Notes, p.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: position %s", domain.ErrNotFound, p.ID)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM positions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: position %s", domain.ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]*domain.Position, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*domain.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (*domain.Position, error) {
	var (
		p                      domain.Position
		symbol, side, status   string
		size, entryPrice       string
		exit, stop, take       sql.NullString
		closeTime              sql.NullTime
	)
	err := row.Scan(&p.ID, &p.UserID, &symbol, &side, &size, &entryPrice,
		&exit, &stop, &take, &status, &p.OpenTime, &closeTime, &p.Notes)
	if err != nil {
		return nil, err
	}

	p.Symbol = domain.Symbol(symbol)
	p.Side = domain.Side(side)
	p.Status = domain.Status(status)

	if p.Size, err = decimal.NewFromString(size); err != nil {
		return nil, fmt.Errorf("failed to parse size: %w", err)
	}
	if p.EntryPrice, err = decimal.NewFromString(entryPrice); err != nil {
		return nil, fmt.Errorf("failed to parse entry price: %w", err)
	}
	if p.ExitPrice, err = parseNullDecimal(exit); err != nil {
		return nil, fmt.Errorf("failed to parse exit price: %w", err)
	}
	if p.StopLoss, err = parseNullDecimal(stop); err != nil {
		return nil, fmt.Errorf("failed to parse stop loss: %w", err)
	}
	if p.TakeProfit, err = parseNullDecimal(take); err != nil {
		return nil, fmt.Errorf("failed to parse take profit: %w", err)
	}
	if closeTime.Valid {
		t := closeTime.Time
		p.CloseTime = &t
	}
	return &p, nil
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func parseNullDecimal(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
