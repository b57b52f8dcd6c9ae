package repository

import (
	"context"
	"encoding/json"

	"github.com/karwehn/lapidary/internal/domain"
)

const invoiceColumns = `id, number, token, subtotal, discount_total, total_amount, paid_amount,
	payment_status, status, active, display_options, created_at, updated_at`

func scanInvoice(row interface{ Scan(dest ...any) error }) (*domain.Invoice, error) {
	var (
		inv     domain.Invoice
		display []byte
	)
	err := row.Scan(
		&inv.ID,
		&inv.Number,
		&inv.Token,
		&inv.Subtotal,
		&inv.DiscountTotal,
		&inv.TotalAmount,
		&inv.PaidAmount,
		&inv.PaymentStatus,
		&inv.Status,
		&inv.Active,
		&display,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Display options live as JSON only at this boundary.
	if len(display) > 0 {
		if err := json.Unmarshal(display, &inv.Display); err != nil {
			return nil, err
		}
	}
	return &inv, nil
}

// CreateInvoice inserts a new invoice and fills in the generated ID and
// timestamps.
func (p *Postgres) CreateInvoice(ctx context.Context, inv *domain.Invoice) error {
	display, err := json.Marshal(inv.Display)
	if err != nil {
		return domain.Internal(err, "repository.create_invoice", "failed to encode display options")
	}

	row := p.db.QueryRow(ctx, `
		INSERT INTO invoices (number, token, subtotal, discount_total, total_amount, paid_amount,
			payment_status, status, active, display_options)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		inv.Number, inv.Token, inv.Subtotal, inv.DiscountTotal, inv.TotalAmount, inv.PaidAmount,
		inv.PaymentStatus, inv.Status, inv.Active, display,
	)
	if err := row.Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return domain.Internal(err, "repository.create_invoice", "failed to insert invoice")
	}
	return nil
}

// GetInvoice fetches an invoice by ID.
func (p *Postgres) GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error) {
	row := p.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, domain.Internal(err, "repository.get_invoice", "failed to fetch invoice")
	}
	return inv, nil
}

// GetInvoiceByToken fetches an invoice by its public token.
func (p *Postgres) GetInvoiceByToken(ctx context.Context, token string) (*domain.Invoice, error) {
	row := p.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE token = $1`, token)
	inv, err := scanInvoice(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, domain.Internal(err, "repository.get_invoice_by_token", "failed to fetch invoice")
	}
	return inv, nil
}

// UpdateInvoiceDisplayOptions replaces the display configuration only.
func (p *Postgres) UpdateInvoiceDisplayOptions(ctx context.Context, id int64, opts domain.DisplayOptions) error {
	display, err := json.Marshal(opts)
	if err != nil {
		return domain.Internal(err, "repository.update_display", "failed to encode display options")
	}

	tag, err := p.db.Exec(ctx,
		`UPDATE invoices SET display_options = $2, updated_at = now() WHERE id = $1`,
		id, display,
	)
	if err != nil {
		return domain.Internal(err, "repository.update_display", "failed to update display options")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

// UpdateInvoicePaymentState writes the ledger-derived paid amount and
// statuses. Only the Payment Ledger calls this.
func (p *Postgres) UpdateInvoicePaymentState(ctx context.Context, id int64, paid float64, payment domain.PaymentStatus, lifecycle domain.InvoiceStatus) error {
	tag, err := p.db.Exec(ctx, `
		UPDATE invoices
		SET paid_amount = $2, payment_status = $3, status = $4, updated_at = now()
		WHERE id = $1`,
		id, paid, payment, lifecycle,
	)
	if err != nil {
		return domain.Internal(err, "repository.update_invoice_payment", "failed to update invoice payment state")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

// NextInvoiceSequence atomically allocates the next invoice sequence for the
// year via an upsert-returning counter, so concurrent creations can never
// observe the same value.
func (p *Postgres) NextInvoiceSequence(ctx context.Context, year int) (int64, error) {
	var seq int64
	err := p.db.QueryRow(ctx, `
		INSERT INTO invoice_counters (year, value)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET value = invoice_counters.value + 1
		RETURNING value`,
		year,
	).Scan(&seq)
	if err != nil {
		return 0, domain.Internal(err, "repository.next_sequence", "failed to allocate invoice sequence")
	}
	return seq, nil
}

// CreateInvoiceVersion appends an immutable snapshot row.
func (p *Postgres) CreateInvoiceVersion(ctx context.Context, v *domain.InvoiceVersion) error {
	row := p.db.QueryRow(ctx, `
		INSERT INTO invoice_versions (invoice_id, reason, snapshot)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		v.InvoiceID, v.Reason, v.Snapshot,
	)
	if err := row.Scan(&v.ID, &v.CreatedAt); err != nil {
		return domain.Internal(err, "repository.create_version", "failed to insert invoice version")
	}
	return nil
}
