// Package testutil wires the ledger against a real PostgreSQL database for
// integration tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	postgresRepo "github.com/iho/bankledger/internal/adapter/repository/postgres"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/postgres"
	"github.com/iho/bankledger/internal/infrastructure/retry"
	"github.com/iho/bankledger/internal/usecase"
)

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool *pgxpool.Pool
	URL  string
	t    *testing.T
}

// NewTestDB connects to DATABASE_URL and applies the migrations. The test is
// skipped in -short mode or when DATABASE_URL is unset.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	source := "file://" + findMigrations(t)
	if err := postgres.NewMigrator(source, dbURL, zerolog.Nop()).Up(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: dbURL,
		MaxConns:    50,
		Logger:      zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	db := &TestDB{Pool: pool, URL: dbURL, t: t}
	t.Cleanup(db.Cleanup)

	return db
}

// findMigrations walks up from the working directory to the module root.
func findMigrations(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	for {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("migrations directory not found")
		}
		dir = parent
	}
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `TRUNCATE TABLE outbox_events, entries, accounts CASCADE`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// Ledger is the full engine over a TestDB.
type Ledger struct {
	DB       *TestDB
	Accounts *postgresRepo.AccountRepository
	Entries  *postgresRepo.EntryRepository
	Outbox   *postgresRepo.OutboxRepository

	Account  *usecase.AccountUseCase
	Movement *usecase.MovementUseCase
	History  *usecase.HistoryUseCase
	Audit    *usecase.LedgerUseCase
	Identity *usecase.AccountIdentityResolver
}

// NewLedger wires the use cases over db with a fast retry schedule.
func NewLedger(db *TestDB) *Ledger {
	idGen := postgresRepo.NewULIDGenerator()

	l := &Ledger{
		DB:       db,
		Accounts: postgresRepo.NewAccountRepository(db.Pool),
		Entries:  postgresRepo.NewEntryRepository(db.Pool, idGen),
		Outbox:   postgresRepo.NewOutboxRepository(db.Pool),
	}

	retrier := retry.New(retry.Config{
		MaxRetries:      10,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     50 * time.Millisecond,
		MaxElapsedTime:  10 * time.Second,
	}, postgresRepo.IsRetryableError, zerolog.Nop(), nil)

	l.Account = usecase.NewAccountUseCase(l.Accounts, idGen, nil)
	l.Movement = usecase.NewMovementUseCase(
		postgresRepo.NewTxManager(db.Pool),
		l.Accounts,
		l.Entries,
		l.Outbox,
		retrier,
		idGen,
		nil,
		0,
	)
	l.History = usecase.NewHistoryUseCase(l.Entries, l.Accounts, nil, nil)
	l.Audit = usecase.NewLedgerUseCase(postgresRepo.NewLedgerRepository(db.Pool), nil)
	l.Identity = usecase.NewAccountIdentityResolver(l.Accounts)

	return l
}

// OpenAccount registers an account for a fresh owner.
func (l *Ledger) OpenAccount(ctx context.Context) *domain.Account {
	l.DB.t.Helper()

	account, err := l.Account.CreateAccount(ctx, usecase.CreateAccountInput{OwnerID: "owner-" + GenerateID()})
	if err != nil {
		l.DB.t.Fatalf("failed to open account: %v", err)
	}
	return account
}

// OpenFundedAccount registers an account and deposits amount into it.
func (l *Ledger) OpenFundedAccount(ctx context.Context, amount decimal.Decimal) *domain.Account {
	l.DB.t.Helper()

	account := l.OpenAccount(ctx)
	if _, err := l.Movement.Deposit(ctx, usecase.DepositInput{AccountID: account.ID, Amount: amount}); err != nil {
		l.DB.t.Fatalf("failed to fund account: %v", err)
	}
	return l.Reload(ctx, account.ID)
}

// Reload reads the current state of an account.
func (l *Ledger) Reload(ctx context.Context, id string) *domain.Account {
	l.DB.t.Helper()

	account, err := l.Accounts.GetByID(ctx, id)
	if err != nil {
		l.DB.t.Fatalf("failed to reload account %s: %v", id, err)
	}
	return account
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return ulid.Make().String()
}
