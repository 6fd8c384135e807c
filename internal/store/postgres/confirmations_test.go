package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"pesagate/internal/domain/payment"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeRow satisfies pgx.Row for a single int64 id column.
type fakeRow struct {
	err error
	id  int64
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.id
	return nil
}

// fakeTx embeds pgx.Tx so only the methods InsertConfirmation touches need
// real implementations; anything else panics on use.
type fakeTx struct {
	pgx.Tx
	rows       []fakeRow // consumed per QueryRow call
	calls      []string
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	t.calls = append(t.calls, sql)
	row := t.rows[0]
	if len(t.rows) > 1 {
		t.rows = t.rows[1:]
	}
	return row
}

func (t *fakeTx) Commit(context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeDB struct {
	beginErr error
	tx       *fakeTx
}

func (d *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	return d.tx, nil
}

func (d *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("unused")
}
func (d *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row { panic("unused") }
func (d *fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("unused")
}

func record(transID string) *payment.Record {
	amt := payment.Money(1000)
	ms := "254712345678"
	return &payment.Record{TransID: transID, Amount: &amt, MSISDN: &ms}
}

func TestInsertConfirmationCommits(t *testing.T) {
	tx := &fakeTx{rows: []fakeRow{{id: 42}}}
	repo := newRepoWithDB(&fakeDB{tx: tx})

	id, err := repo.InsertConfirmation(context.Background(), record("ABC123"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 42 {
		t.Fatalf("id = %d, want 42", id)
	}
	if !tx.committed {
		t.Fatal("transaction was not committed")
	}
}

func TestInsertConfirmationDuplicateResolvesExistingRow(t *testing.T) {
	tx := &fakeTx{rows: []fakeRow{{err: pgx.ErrNoRows}, {id: 7}}}
	repo := newRepoWithDB(&fakeDB{tx: tx})

	id, err := repo.InsertConfirmation(context.Background(), record("ABC123"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 7 {
		t.Fatalf("id = %d, want existing row id 7", id)
	}
	if len(tx.calls) != 2 || !strings.Contains(tx.calls[1], "SELECT id") {
		t.Fatalf("expected lookup of existing row, calls: %v", tx.calls)
	}
	if !tx.committed {
		t.Fatal("transaction was not committed")
	}
}

func TestInsertConfirmationRollsBackOnWriteError(t *testing.T) {
	boom := errors.New("connection reset")
	tx := &fakeTx{rows: []fakeRow{{err: boom}}}
	repo := newRepoWithDB(&fakeDB{tx: tx})

	_, err := repo.InsertConfirmation(context.Background(), record("ABC123"))
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want cause preserved", err)
	}
	if tx.committed {
		t.Fatal("transaction must not commit after a write error")
	}
	if !tx.rolledBack {
		t.Fatal("transaction was not rolled back")
	}
}

func TestInsertConfirmationReturnsCommitFailure(t *testing.T) {
	boom := errors.New("commit lost")
	tx := &fakeTx{rows: []fakeRow{{id: 1}}, commitErr: boom}
	repo := newRepoWithDB(&fakeDB{tx: tx})

	_, err := repo.InsertConfirmation(context.Background(), record("ABC123"))
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want commit failure surfaced", err)
	}
	if tx.committed {
		t.Fatal("commit must not be reported as successful")
	}
}

// confRow plays back one persisted row: TransID and amount and MSISDN set,
// everything else NULL.
type confRow struct{ created time.Time }

func (r confRow) Scan(dest ...any) error {
	*(dest[0].(*int64)) = 5
	*(dest[2].(*string)) = "ABC123"
	*(dest[4].(*sql.NullInt64)) = sql.NullInt64{Int64: 1000, Valid: true}
	*(dest[10].(*sql.NullString)) = sql.NullString{String: "254712345678", Valid: true}
	*(dest[14].(*time.Time)) = r.created
	return nil
}

func TestScanConfirmationPreservesAbsentFields(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec, err := scanConfirmation(confRow{created: created})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != 5 || rec.TransID != "ABC123" {
		t.Fatalf("rec = %+v", rec)
	}
	if rec.Amount == nil || *rec.Amount != 1000 {
		t.Fatalf("Amount = %v, want 1000 cents", rec.Amount)
	}
	if rec.MSISDN == nil || *rec.MSISDN != "254712345678" {
		t.Fatalf("MSISDN = %v", rec.MSISDN)
	}
	if !rec.CreatedAt.Equal(created) {
		t.Fatalf("CreatedAt = %v", rec.CreatedAt)
	}
	// NULL columns come back as nil pointers, never empty strings or zeros
	if rec.TransactionType != nil || rec.TransTime != nil || rec.ShortCode != nil ||
		rec.BillRef != nil || rec.InvoiceNo != nil || rec.OrgBalance != nil ||
		rec.ThirdPartyID != nil || rec.FirstName != nil || rec.MiddleName != nil ||
		rec.LastName != nil {
		t.Fatalf("NULL columns leaked values: %+v", rec)
	}
}

func TestInsertConfirmationBeginFailure(t *testing.T) {
	boom := errors.New("pool exhausted")
	repo := newRepoWithDB(&fakeDB{beginErr: boom})

	_, err := repo.InsertConfirmation(context.Background(), record("ABC123"))
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want begin failure surfaced", err)
	}
}
