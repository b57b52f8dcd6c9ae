package repository

import (
	"context"

	"github.com/karwehn/lapidary/internal/domain"
)

// CreatePayment appends a ledger entry and fills in the generated ID.
func (p *Postgres) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	row := p.db.QueryRow(ctx, `
		INSERT INTO payments (invoice_id, amount, method, date, reference, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		payment.InvoiceID, payment.Amount, payment.Method, payment.Date, payment.Reference, payment.Notes,
	)
	if err := row.Scan(&payment.ID, &payment.CreatedAt); err != nil {
		return domain.Internal(err, "repository.create_payment", "failed to insert payment")
	}
	return nil
}

// ListPaymentsByInvoice returns the invoice's ledger entries oldest first.
func (p *Postgres) ListPaymentsByInvoice(ctx context.Context, invoiceID int64) ([]domain.Payment, error) {
	rows, err := p.db.Query(ctx, `
		SELECT id, invoice_id, amount, method, date, reference, notes, created_at
		FROM payments
		WHERE invoice_id = $1
		ORDER BY date, id`,
		invoiceID,
	)
	if err != nil {
		return nil, domain.Internal(err, "repository.list_payments", "failed to list payments")
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var pm domain.Payment
		if err := rows.Scan(&pm.ID, &pm.InvoiceID, &pm.Amount, &pm.Method, &pm.Date, &pm.Reference, &pm.Notes, &pm.CreatedAt); err != nil {
			return nil, domain.Internal(err, "repository.list_payments", "failed to scan payment")
		}
		payments = append(payments, pm)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "repository.list_payments", "failed to read payments")
	}
	return payments, nil
}

// DeletePaymentsByInvoice removes every ledger entry for the invoice and
// returns how many rows went away. Only the reset-to-unpaid path uses this.
func (p *Postgres) DeletePaymentsByInvoice(ctx context.Context, invoiceID int64) (int64, error) {
	tag, err := p.db.Exec(ctx, `DELETE FROM payments WHERE invoice_id = $1`, invoiceID)
	if err != nil {
		return 0, domain.Internal(err, "repository.delete_payments", "failed to delete payments")
	}
	return tag.RowsAffected(), nil
}
