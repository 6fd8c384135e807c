package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pesagate/internal/domain/payment"

	"github.com/jackc/pgx/v5"
)

const confirmationColumns = `id, transaction_type, trans_id, trans_time, trans_amount,
	business_short_code, bill_ref_number, invoice_number, org_account_balance,
	third_party_trans_id, msisdn, first_name, middle_name, last_name, created_at`

// InsertConfirmation writes one confirmation row inside its own transaction.
// trans_id is unique: Daraja replays confirmations on timeout, and a replay
// must resolve to the already-persisted row instead of creating a duplicate.
// Either the row is durably committed and its id returned, or the
// transaction rolls back and the error surfaces; no partial state survives.
func (r *Repo) InsertConfirmation(ctx context.Context, rec *payment.Record) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO payment_confirmations (
			transaction_type, trans_id, trans_time, trans_amount,
			business_short_code, bill_ref_number, invoice_number,
			org_account_balance, third_party_trans_id, msisdn,
			first_name, middle_name, last_name
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (trans_id) DO NOTHING
		RETURNING id`,
		rec.TransactionType, rec.TransID, rec.TransTime, moneyArg(rec.Amount),
		rec.ShortCode, rec.BillRef, rec.InvoiceNo,
		moneyArg(rec.OrgBalance), rec.ThirdPartyID, rec.MSISDN,
		rec.FirstName, rec.MiddleName, rec.LastName,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		// Replayed callback: the row already exists, hand back its id.
		err = tx.QueryRow(ctx,
			`SELECT id FROM payment_confirmations WHERE trans_id=$1`,
			rec.TransID,
		).Scan(&id)
	}
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// GetConfirmation reads one row by id. Absent provider fields come back as
// nil pointers, never as empty strings.
func (r *Repo) GetConfirmation(ctx context.Context, id int64) (*payment.Record, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+confirmationColumns+`
		  FROM payment_confirmations
		 WHERE id=$1`, id)
	return scanConfirmation(row)
}

func (r *Repo) ListConfirmations(ctx context.Context, limit, offset int) ([]payment.Record, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+confirmationColumns+`
		  FROM payment_confirmations
		 ORDER BY id DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payment.Record
	for rows.Next() {
		rec, err := scanConfirmation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanConfirmation(row pgx.Row) (*payment.Record, error) {
	var rec payment.Record
	var (
		txType, transTime, shortCode, billRef, invoiceNo sql.NullString
		thirdParty, msisdn, first, middle, last          sql.NullString
		amount, balance                                  sql.NullInt64
		createdAt                                        time.Time
	)
	if err := row.Scan(
		&rec.ID, &txType, &rec.TransID, &transTime, &amount,
		&shortCode, &billRef, &invoiceNo, &balance,
		&thirdParty, &msisdn, &first, &middle, &last, &createdAt,
	); err != nil {
		return nil, err
	}
	rec.TransactionType = strPtr(txType)
	rec.TransTime = strPtr(transTime)
	rec.Amount = moneyPtr(amount)
	rec.ShortCode = strPtr(shortCode)
	rec.BillRef = strPtr(billRef)
	rec.InvoiceNo = strPtr(invoiceNo)
	rec.OrgBalance = moneyPtr(balance)
	rec.ThirdPartyID = strPtr(thirdParty)
	rec.MSISDN = strPtr(msisdn)
	rec.FirstName = strPtr(first)
	rec.MiddleName = strPtr(middle)
	rec.LastName = strPtr(last)
	rec.CreatedAt = createdAt
	return &rec, nil
}

func strPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func moneyPtr(n sql.NullInt64) *payment.Money {
	if !n.Valid {
		return nil
	}
	m := payment.Money(n.Int64)
	return &m
}

func moneyArg(m *payment.Money) *int64 {
	if m == nil {
		return nil
	}
	v := int64(*m)
	return &v
}
