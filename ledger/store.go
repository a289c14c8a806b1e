// Package ledger persists users, accounts, and trades, and reconciles local
// state with orders executed on the remote venue.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradebridge/market"
	"github.com/rustyeddy/tradebridge/pkg/id"
)

// Trade lifecycle statuses.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type User struct {
	ID           string
	Email        string
	PasswordHash string
}

// Account belongs to a user. Balance is fixed-point with two decimals and
// only moves through an explicit administrative adjustment; opening a trade
// does not touch it.
type Account struct {
	ID            string
	UserID        string
	Balance       decimal.Decimal
	TerminalLogin string
}

// Trade is a local ledger entry. Ticket is the venue's order identifier and
// is unique across all trades; a row exists only for orders the venue
// confirmed as done.
type Trade struct {
	ID        string
	AccountID string
	Ticket    string
	Symbol    string
	Volume    float64
	Side      market.Side
	OpenPrice float64
	Status    string
	OpenTime  time.Time
}

// Store is the sqlite-backed ledger.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the ledger database at path and applies the
// schema. Foreign keys are enabled so account and trade rows cascade when
// their owner is removed.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (User, error) {
	u := User{ID: id.New(), Email: email, PasswordHash: passwordHash}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash) VALUES (?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash,
	)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("user by email: %w", err)
	}
	return u, nil
}

func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	return err
}

func (s *Store) CreateAccount(ctx context.Context, userID, terminalLogin string) (Account, error) {
	a := Account{
		ID:            id.New(),
		UserID:        userID,
		Balance:       decimal.Zero,
		TerminalLogin: terminalLogin,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, balance, terminal_login) VALUES (?, ?, ?, ?)`,
		a.ID, a.UserID, a.Balance.StringFixed(2), a.TerminalLogin,
	)
	if err != nil {
		return Account{}, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

func (s *Store) AccountByID(ctx context.Context, accountID string) (Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, balance, terminal_login FROM accounts WHERE id = ?`, accountID,
	))
}

// AccountOwnedBy looks up an account only if it belongs to the given user.
// Callers use this as the ownership check before opening trades.
func (s *Store) AccountOwnedBy(ctx context.Context, accountID, userID string) (Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, balance, terminal_login FROM accounts WHERE id = ? AND user_id = ?`,
		accountID, userID,
	))
}

func (s *Store) scanAccount(row *sql.Row) (Account, error) {
	var a Account
	var balance string
	err := row.Scan(&a.ID, &a.UserID, &balance, &a.TerminalLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("scan account: %w", err)
	}
	a.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return Account{}, fmt.Errorf("parse balance %q: %w", balance, err)
	}
	return a, nil
}

// SetBalance overwrites the account balance with the given value, truncated
// to two decimals. Concurrent adjustments are last-writer-wins.
func (s *Store) SetBalance(ctx context.Context, accountID string, balance decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET balance = ? WHERE id = ?`,
		balance.StringFixed(2), accountID,
	)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) InsertTrade(ctx context.Context, t Trade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
		(id, account_id, ticket, symbol, volume, side, open_price, status, open_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, t.Ticket, t.Symbol, t.Volume, string(t.Side),
		t.OpenPrice, t.Status, t.OpenTime,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

func (s *Store) TradesByAccount(ctx context.Context, accountID string) ([]Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, ticket, symbol, volume, side, open_price, status, open_time
		FROM trades WHERE account_id = ? ORDER BY open_time`, accountID)
	if err != nil {
		return nil, fmt.Errorf("trades by account: %w", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var t Trade
		var side string
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Ticket, &t.Symbol, &t.Volume,
			&side, &t.OpenPrice, &t.Status, &t.OpenTime); err != nil {
			return nil, err
		}
		t.Side = market.Side(side)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
