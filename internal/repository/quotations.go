package repository

import (
	"context"

	"github.com/karwehn/lapidary/internal/domain"
)

// GetQuotation fetches a quotation with its items.
func (p *Postgres) GetQuotation(ctx context.Context, id int64) (*domain.Quotation, error) {
	row := p.db.QueryRow(ctx, `
		SELECT id, number, customer_name, customer_email, total_amount, expires_at, status, token, created_at, updated_at
		FROM quotations WHERE id = $1`,
		id,
	)

	var q domain.Quotation
	err := row.Scan(&q.ID, &q.Number, &q.CustomerName, &q.CustomerEmail, &q.TotalAmount,
		&q.ExpiresAt, &q.Status, &q.Token, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrQuotationNotFound
		}
		return nil, domain.Internal(err, "repository.get_quotation", "failed to fetch quotation")
	}

	rows, err := p.db.Query(ctx, `
		SELECT id, quotation_id, inventory_item_id, base_price, override_type, override_value, unit_price, subtotal
		FROM quotation_items
		WHERE quotation_id = $1
		ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, domain.Internal(err, "repository.get_quotation", "failed to fetch quotation items")
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.QuotationItem
		if err := rows.Scan(&it.ID, &it.QuotationID, &it.InventoryItemID, &it.BasePrice,
			&it.OverrideType, &it.OverrideValue, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, domain.Internal(err, "repository.get_quotation", "failed to scan quotation item")
		}
		q.Items = append(q.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "repository.get_quotation", "failed to read quotation items")
	}

	return &q, nil
}

// UpdateQuotationStatus persists a status transition.
func (p *Postgres) UpdateQuotationStatus(ctx context.Context, id int64, status domain.QuotationStatus) error {
	if !status.Valid() {
		return domain.Errorf(domain.EINVALID, "repository.update_quotation_status", "invalid quotation status %q", status)
	}

	tag, err := p.db.Exec(ctx,
		`UPDATE quotations SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return domain.Internal(err, "repository.update_quotation_status", "failed to update quotation status")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuotationNotFound
	}
	return nil
}

// GetInventoryItems fetches the purchase-side pricing for the given items,
// keyed by ID. Missing IDs are simply absent from the map; quotation lines
// without inventory backing cost nothing.
func (p *Postgres) GetInventoryItems(ctx context.Context, ids []int64) (map[int64]domain.InventoryItem, error) {
	items := make(map[int64]domain.InventoryItem, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	rows, err := p.db.Query(ctx, `
		SELECT id, sku, name, priced_per_carat, purchase_cost, purchase_rate_per_carat, carat_weight
		FROM inventory_items
		WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, domain.Internal(err, "repository.get_inventory", "failed to fetch inventory items")
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.InventoryItem
		if err := rows.Scan(&it.ID, &it.Sku, &it.Name, &it.PricedPerCarat,
			&it.PurchaseCost, &it.PurchaseRatePerCarat, &it.CaratWeight); err != nil {
			return nil, domain.Internal(err, "repository.get_inventory", "failed to scan inventory item")
		}
		items[it.ID] = it
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "repository.get_inventory", "failed to read inventory items")
	}
	return items, nil
}

// ListActiveApprovalRules returns active rules in evaluation order
// (ascending priority, then ID for a stable tie-break).
func (p *Postgres) ListActiveApprovalRules(ctx context.Context) ([]domain.ApprovalRule, error) {
	rows, err := p.db.Query(ctx, `
		SELECT id, name, kind, threshold, priority, active
		FROM approval_rules
		WHERE active
		ORDER BY priority, id`,
	)
	if err != nil {
		return nil, domain.Internal(err, "repository.list_rules", "failed to list approval rules")
	}
	defer rows.Close()

	var rules []domain.ApprovalRule
	for rows.Next() {
		var r domain.ApprovalRule
		if err := rows.Scan(&r.ID, &r.Name, &r.Kind, &r.Threshold, &r.Priority, &r.Active); err != nil {
			return nil, domain.Internal(err, "repository.list_rules", "failed to scan approval rule")
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "repository.list_rules", "failed to read approval rules")
	}
	return rules, nil
}
