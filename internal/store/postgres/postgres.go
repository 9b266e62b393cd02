// Package postgres implements store.Store on PostgreSQL. Check-and-post
// sections run as serializable transactions; serialization failures surface
// as store.ErrConflict so the caller can retry the whole operation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgerline-dev/ledgerline/internal/model"
	"github.com/ledgerline-dev/ledgerline/internal/store"
)

// querier is the subset of pgxpool.Pool and pgx.Tx the store needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists ledger state in PostgreSQL.
type Store struct {
	q    querier
	pool *pgxpool.Pool // nil inside a transaction
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Store{q: pool, pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS journal_entries (
	id            BIGSERIAL PRIMARY KEY,
	journal_date  DATE NOT NULL,
	account_id    BIGINT NOT NULL,
	currency_id   BIGINT NOT NULL,
	debit         NUMERIC(18,2) NOT NULL DEFAULT 0,
	credit        NUMERIC(18,2) NOT NULL DEFAULT 0,
	reference_type TEXT NOT NULL,
	reference_id  TEXT NOT NULL,
	notes         TEXT NOT NULL DEFAULT '',
	branch_id     BIGINT NOT NULL DEFAULT 0,
	created_by    TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_journal_entries_account_date
	ON journal_entries (account_id, journal_date, id);
CREATE INDEX IF NOT EXISTS idx_journal_entries_reference
	ON journal_entries (reference_id);

CREATE TABLE IF NOT EXISTS account_ceilings (
	id          BIGSERIAL PRIMARY KEY,
	scope       TEXT NOT NULL,
	target_id   BIGINT NOT NULL,
	currency_id BIGINT NOT NULL,
	amount      NUMERIC(18,2) NOT NULL,
	nature      TEXT NOT NULL,
	action      TEXT NOT NULL,
	UNIQUE (scope, target_id, currency_id)
);
`

// Migrate creates the ledger tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.q.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// AppendLegs inserts every leg in order. Callers run it inside Atomically, so
// either all legs commit or none do.
func (s *Store) AppendLegs(ctx context.Context, legs []model.JournalEntry) ([]model.JournalEntry, error) {
	out := make([]model.JournalEntry, len(legs))
	for i, leg := range legs {
		row := s.q.QueryRow(ctx, `
			INSERT INTO journal_entries
				(journal_date, account_id, currency_id, debit, credit,
				 reference_type, reference_id, notes, branch_id, created_by)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			RETURNING id, created_at
		`, leg.Date, leg.AccountID, leg.CurrencyID,
			leg.Debit.String(), leg.Credit.String(),
			string(leg.ReferenceType), leg.ReferenceID, leg.Notes, leg.BranchID, leg.CreatedBy)
		if err := row.Scan(&leg.ID, &leg.CreatedAt); err != nil {
			return nil, mapError(fmt.Errorf("inserting leg %d: %w", i, err))
		}
		out[i] = leg
	}
	return out, nil
}

// LegsByReference returns legs sharing a reference id in insertion order.
func (s *Store) LegsByReference(ctx context.Context, referenceID string) ([]model.JournalEntry, error) {
	rows, err := s.q.Query(ctx, selectLegs+` WHERE reference_id = $1 ORDER BY id`, referenceID)
	if err != nil {
		return nil, mapError(fmt.Errorf("querying legs by reference: %w", err))
	}
	defer rows.Close()
	return scanLegs(rows)
}

// LegsForAccounts returns legs for the accounts ordered by date then id.
func (s *Store) LegsForAccounts(ctx context.Context, accountIDs []int64, from, to time.Time) ([]model.JournalEntry, error) {
	sql := selectLegs + ` WHERE account_id = ANY($1)`
	args := []any{accountIDs}
	if !from.IsZero() {
		args = append(args, from)
		sql += ` AND journal_date >= $` + strconv.Itoa(len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		sql += ` AND journal_date <= $` + strconv.Itoa(len(args))
	}
	sql += ` ORDER BY journal_date, id`

	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(fmt.Errorf("querying legs for accounts: %w", err))
	}
	defer rows.Close()
	return scanLegs(rows)
}

// TotalsForAccounts sums debit/credit in one currency strictly before until.
func (s *Store) TotalsForAccounts(ctx context.Context, accountIDs []int64, currencyID int64, until time.Time) (store.Totals, error) {
	sql := `
		SELECT COALESCE(SUM(debit),0)::text, COALESCE(SUM(credit),0)::text
		FROM journal_entries
		WHERE account_id = ANY($1) AND currency_id = $2`
	args := []any{accountIDs, currencyID}
	if !until.IsZero() {
		args = append(args, until)
		sql += ` AND journal_date < $` + strconv.Itoa(len(args))
	}

	var debitStr, creditStr string
	if err := s.q.QueryRow(ctx, sql, args...).Scan(&debitStr, &creditStr); err != nil {
		return store.Totals{}, mapError(fmt.Errorf("summing legs: %w", err))
	}

	debit, err := decimal.NewFromString(debitStr)
	if err != nil {
		return store.Totals{}, fmt.Errorf("parsing debit total %q: %w", debitStr, err)
	}
	credit, err := decimal.NewFromString(creditStr)
	if err != nil {
		return store.Totals{}, fmt.Errorf("parsing credit total %q: %w", creditStr, err)
	}
	return store.Totals{Debit: debit, Credit: credit}, nil
}

// PutCeiling inserts or replaces the ceiling for a scope/target/currency.
func (s *Store) PutCeiling(ctx context.Context, c model.AccountCeiling) (model.AccountCeiling, error) {
	row := s.q.QueryRow(ctx, `
		INSERT INTO account_ceilings (scope, target_id, currency_id, amount, nature, action)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (scope, target_id, currency_id)
		DO UPDATE SET amount = EXCLUDED.amount, nature = EXCLUDED.nature, action = EXCLUDED.action
		RETURNING id
	`, string(c.Scope), c.TargetID, c.CurrencyID, c.Amount.String(), string(c.Nature), string(c.Action))
	if err := row.Scan(&c.ID); err != nil {
		return model.AccountCeiling{}, mapError(fmt.Errorf("upserting ceiling: %w", err))
	}
	return c, nil
}

// FindCeiling returns the ceiling for a scope/target/currency, if configured.
func (s *Store) FindCeiling(ctx context.Context, scope model.CeilingScope, targetID, currencyID int64) (model.AccountCeiling, bool, error) {
	var (
		c         model.AccountCeiling
		amountStr string
		scopeStr  string
		nature    string
		action    string
	)
	err := s.q.QueryRow(ctx, `
		SELECT id, scope, target_id, currency_id, amount::text, nature, action
		FROM account_ceilings
		WHERE scope = $1 AND target_id = $2 AND currency_id = $3
	`, string(scope), targetID, currencyID).Scan(
		&c.ID, &scopeStr, &c.TargetID, &c.CurrencyID, &amountStr, &nature, &action)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.AccountCeiling{}, false, nil
	}
	if err != nil {
		return model.AccountCeiling{}, false, mapError(fmt.Errorf("querying ceiling: %w", err))
	}

	c.Scope = model.CeilingScope(scopeStr)
	c.Nature = model.AccountNature(nature)
	c.Action = model.ExceedAction(action)
	c.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return model.AccountCeiling{}, false, fmt.Errorf("parsing ceiling amount %q: %w", amountStr, err)
	}
	return c, true, nil
}

// Atomically runs fn inside a serializable transaction. A serialization
// failure rolls everything back and returns store.ErrConflict.
func (s *Store) Atomically(ctx context.Context, fn func(store.Store) error) error {
	if s.pool == nil {
		// Already inside a transaction; run against it directly.
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return mapError(fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(&Store{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

const selectLegs = `
	SELECT id, journal_date, account_id, currency_id, debit::text, credit::text,
	       reference_type, reference_id, notes, branch_id, created_by, created_at
	FROM journal_entries`

func scanLegs(rows pgx.Rows) ([]model.JournalEntry, error) {
	var out []model.JournalEntry
	for rows.Next() {
		var (
			e         model.JournalEntry
			debitStr  string
			creditStr string
			refType   string
		)
		if err := rows.Scan(&e.ID, &e.Date, &e.AccountID, &e.CurrencyID,
			&debitStr, &creditStr, &refType, &e.ReferenceID,
			&e.Notes, &e.BranchID, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning leg: %w", err)
		}

		var err error
		e.Debit, err = decimal.NewFromString(debitStr)
		if err != nil {
			return nil, fmt.Errorf("parsing debit %q: %w", debitStr, err)
		}
		e.Credit, err = decimal.NewFromString(creditStr)
		if err != nil {
			return nil, fmt.Errorf("parsing credit %q: %w", creditStr, err)
		}
		e.ReferenceType = model.ReferenceType(refType)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating legs: %w", err)
	}
	return out, nil
}

// mapError converts serialization and deadlock failures into store.ErrConflict.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%w: %s", store.ErrConflict, pgErr.Message)
		}
	}
	return err
}

var _ store.Store = (*Store)(nil)
