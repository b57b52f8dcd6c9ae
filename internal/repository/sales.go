package repository

import (
	"context"
	"fmt"

	"github.com/karwehn/lapidary/internal/domain"
)

const saleColumns = `id, inventory_item_id, net_amount, discount_amount, payment_status, invoice_id, created_at, updated_at`

func scanSale(row interface{ Scan(dest ...any) error }) (*domain.Sale, error) {
	var s domain.Sale
	err := row.Scan(
		&s.ID,
		&s.InventoryItemID,
		&s.NetAmount,
		&s.DiscountAmount,
		&s.PaymentStatus,
		&s.InvoiceID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSale fetches a sale by ID. Returns domain.ErrSaleNotFound when missing.
func (p *Postgres) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	row := p.db.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
	s, err := scanSale(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrSaleNotFound
		}
		return nil, domain.Internal(err, "repository.get_sale", "failed to fetch sale")
	}
	return s, nil
}

// GetSalesByIDs fetches the given sales. Returns domain.ErrSaleNotFound when
// any requested ID does not exist.
func (p *Postgres) GetSalesByIDs(ctx context.Context, ids []int64) ([]domain.Sale, error) {
	rows, err := p.db.Query(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, domain.Internal(err, "repository.get_sales", "failed to fetch sales")
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, domain.Internal(err, "repository.get_sales", "failed to scan sale")
		}
		sales = append(sales, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "repository.get_sales", "failed to read sales")
	}

	if len(sales) != len(ids) {
		return nil, domain.ErrSaleNotFound
	}
	return sales, nil
}

// ListSalesByInvoice returns every sale linked to the invoice.
func (p *Postgres) ListSalesByInvoice(ctx context.Context, invoiceID int64) ([]domain.Sale, error) {
	rows, err := p.db.Query(ctx, `SELECT `+saleColumns+` FROM sales WHERE invoice_id = $1 ORDER BY id`, invoiceID)
	if err != nil {
		return nil, domain.Internal(err, "repository.list_sales", "failed to list sales")
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, domain.Internal(err, "repository.list_sales", "failed to scan sale")
		}
		sales = append(sales, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "repository.list_sales", "failed to read sales")
	}
	return sales, nil
}

// LinkSaleToInvoice attaches a sale to an invoice.
func (p *Postgres) LinkSaleToInvoice(ctx context.Context, saleID, invoiceID int64) error {
	tag, err := p.db.Exec(ctx,
		`UPDATE sales SET invoice_id = $2, updated_at = now() WHERE id = $1`,
		saleID, invoiceID,
	)
	if err != nil {
		return domain.Internal(err, "repository.link_sale", "failed to link sale to invoice")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSaleNotFound
	}
	return nil
}

// UpdateSalePaymentStatus writes the fanned-out payment status for one sale.
func (p *Postgres) UpdateSalePaymentStatus(ctx context.Context, saleID int64, status domain.PaymentStatus) error {
	if !status.Valid() {
		return domain.Errorf(domain.EINVALID, "repository.update_sale_status", "invalid payment status %q", status)
	}

	tag, err := p.db.Exec(ctx,
		`UPDATE sales SET payment_status = $2, updated_at = now() WHERE id = $1`,
		saleID, status,
	)
	if err != nil {
		return domain.Internal(err, "repository.update_sale_status", fmt.Sprintf("failed to update sale %d", saleID))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSaleNotFound
	}
	return nil
}
