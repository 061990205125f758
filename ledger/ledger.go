// Package ledger persists accounts, per-currency wallets, and balanced
// double-entry transactions in SQLite.
//
// Posting amounts are integer minor currency units (centavos); a transaction
// commits only when its signed postings sum to zero and every referenced
// wallet exists. Balance updates happen inside one database transaction, so
// concurrent posters serialize on the writer lock and never observe partial
// applies.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Sentinel errors callers can match with errors.Is.
var (
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrUnbalanced      = errors.New("transaction not balanced")
	ErrAccountNotFound = errors.New("account not found")
	ErrEmptyPostings   = errors.New("transaction requires at least one posting")
)

// Posting is one signed entry against one wallet. Amount is a positive
// magnitude in minor units; Debit decides the sign (a debit reduces the
// wallet balance).
type Posting struct {
	WalletID int64
	Amount   int64
	Debit    bool
}

// Account owns zero or more wallets, one per currency.
type Account struct {
	ID        int64
	UserID    int64
	Email     string
	Plan      string
	CreatedAt time.Time
	Active    bool
}

// Wallet holds a running balance in one currency for one account.
type Wallet struct {
	ID        int64
	AccountID int64
	Currency  string
	Balance   int64
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id    INTEGER,
  email      TEXT NOT NULL UNIQUE,
  plan       TEXT NOT NULL DEFAULT 'free',
  created_at INTEGER NOT NULL,
  active     INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS wallets (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  account_id INTEGER NOT NULL REFERENCES accounts(id),
  currency   TEXT NOT NULL,
  balance    INTEGER NOT NULL DEFAULT 0,
  UNIQUE (account_id, currency)
);
CREATE TABLE IF NOT EXISTS transactions (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  reference   TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL,
  created_at  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
  id             INTEGER PRIMARY KEY AUTOINCREMENT,
  transaction_id INTEGER NOT NULL REFERENCES transactions(id),
  wallet_id      INTEGER NOT NULL REFERENCES wallets(id),
  amount         INTEGER NOT NULL,
  is_debit       INTEGER NOT NULL,
  created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_wallet ON entries(wallet_id);
`

// Store is a SQLite-backed ledger.
type Store struct {
	db *sql.DB
}

// Open opens the ledger database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ledger path is required")
	}
	// _txlock=immediate makes every posting transaction take the write lock
	// up front; busy_timeout lets concurrent writers queue instead of failing.
	dsn := filepath.Clean(path) +
		"?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping ledger db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateAccount creates an account with a default BRL wallet and returns the
// account ID.
func (s *Store) CreateAccount(ctx context.Context, email string, userID int64) (int64, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return 0, fmt.Errorf("email is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin account tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (user_id, email, created_at, active) VALUES (?, ?, ?, 1)`,
		userID, email, time.Now().UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}
	accountID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("account id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallets (account_id, currency, balance) VALUES (?, 'BRL', 0)`,
		accountID); err != nil {
		return 0, fmt.Errorf("insert default wallet: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit account: %w", err)
	}
	return accountID, nil
}

// AccountByEmail looks up an account.
func (s *Store) AccountByEmail(ctx context.Context, email string) (*Account, error) {
	a := &Account{}
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, COALESCE(user_id, 0), email, plan, created_at, active FROM accounts WHERE email = ?`,
		strings.TrimSpace(email)).
		Scan(&a.ID, &a.UserID, &a.Email, &a.Plan, &createdAt, &a.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}
	a.CreatedAt = time.UnixMilli(createdAt).UTC()
	return a, nil
}

// ActivatePlan sets the plan for the account with the given email, creating
// the account (and its default wallet) when it does not exist yet.
func (s *Store) ActivatePlan(ctx context.Context, email, plan string) error {
	if _, err := s.AccountByEmail(ctx, email); errors.Is(err, ErrAccountNotFound) {
		if _, err := s.CreateAccount(ctx, email, 0); err != nil {
			return fmt.Errorf("create account for plan activation: %w", err)
		}
	} else if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET plan = ? WHERE email = ?`, plan, strings.TrimSpace(email)); err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	return nil
}

// CreateWallet adds a wallet in the given currency to an account.
func (s *Store) CreateWallet(ctx context.Context, accountID int64, currency string) (int64, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return 0, fmt.Errorf("currency is required")
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM accounts WHERE id = ?`, accountID).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check account: %w", err)
	}
	if exists == 0 {
		return 0, fmt.Errorf("account %d: %w", accountID, ErrAccountNotFound)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO wallets (account_id, currency, balance) VALUES (?, ?, 0)`,
		accountID, currency)
	if err != nil {
		return 0, fmt.Errorf("insert wallet: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("wallet id: %w", err)
	}
	return id, nil
}

// WalletByCurrency returns the account's wallet in the given currency.
func (s *Store) WalletByCurrency(ctx context.Context, accountID int64, currency string) (*Wallet, error) {
	w := &Wallet{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, account_id, currency, balance FROM wallets WHERE account_id = ? AND currency = ?`,
		accountID, strings.ToUpper(strings.TrimSpace(currency))).
		Scan(&w.ID, &w.AccountID, &w.Currency, &w.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query wallet: %w", err)
	}
	return w, nil
}

// Balance returns the wallet balance in minor units.
func (s *Store) Balance(ctx context.Context, walletID int64) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx, `SELECT balance FROM wallets WHERE id = ?`, walletID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrWalletNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

// PostTransaction applies the postings as one all-or-nothing balanced
// transaction and returns the transaction reference.
//
// Every referenced wallet must exist and the signed sum of postings must be
// exactly zero; otherwise nothing is written. Wallet rows are read and
// updated inside the same database transaction, which holds the writer lock
// for its duration.
func (s *Store) PostTransaction(ctx context.Context, description string, postings []Posting) (string, error) {
	if len(postings) == 0 {
		return "", ErrEmptyPostings
	}
	for _, p := range postings {
		if p.Amount <= 0 {
			return "", fmt.Errorf("posting amount must be positive, got %d", p.Amount)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	reference := uuid.NewString()
	now := time.Now().UTC().UnixMilli()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (reference, description, created_at) VALUES (?, ?, ?)`,
		reference, description, now)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	txID, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("transaction id: %w", err)
	}

	var total int64
	for _, p := range postings {
		var balance int64
		err := tx.QueryRowContext(ctx, `SELECT balance FROM wallets WHERE id = ?`, p.WalletID).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("wallet %d: %w", p.WalletID, ErrWalletNotFound)
		}
		if err != nil {
			return "", fmt.Errorf("read wallet %d: %w", p.WalletID, err)
		}

		if p.Debit {
			total += p.Amount
			balance -= p.Amount
		} else {
			total -= p.Amount
			balance += p.Amount
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE wallets SET balance = ? WHERE id = ?`, balance, p.WalletID); err != nil {
			return "", fmt.Errorf("update wallet %d: %w", p.WalletID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entries (transaction_id, wallet_id, amount, is_debit, created_at) VALUES (?, ?, ?, ?, ?)`,
			txID, p.WalletID, p.Amount, p.Debit, now); err != nil {
			return "", fmt.Errorf("insert entry: %w", err)
		}
	}

	if total != 0 {
		return "", ErrUnbalanced
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit ledger tx: %w", err)
	}
	return reference, nil
}
