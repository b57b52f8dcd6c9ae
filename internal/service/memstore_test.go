package service

import (
	"context"
	"sort"
	"sync"

	"github.com/karwehn/lapidary/internal/domain"
	"github.com/karwehn/lapidary/internal/repository"
)

// memStore is an in-memory Store for service tests. InTx runs the function
// directly against the same store; atomicity is covered by integration tests
// against a real database.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	sales      map[int64]*domain.Sale
	invoices   map[int64]*domain.Invoice
	payments   map[int64]*domain.Payment
	versions   []domain.InvoiceVersion
	quotations map[int64]*domain.Quotation
	inventory  map[int64]domain.InventoryItem
	rules      []domain.ApprovalRule
	counters   map[int]int64
}

var _ repository.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		sales:      make(map[int64]*domain.Sale),
		invoices:   make(map[int64]*domain.Invoice),
		payments:   make(map[int64]*domain.Payment),
		quotations: make(map[int64]*domain.Quotation),
		inventory:  make(map[int64]domain.InventoryItem),
		counters:   make(map[int]int64),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) InTx(_ context.Context, fn func(repository.Store) error) error {
	return fn(m)
}

func (m *memStore) GetSale(_ context.Context, id int64) (*domain.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sale, ok := m.sales[id]
	if !ok {
		return nil, domain.ErrSaleNotFound
	}
	cp := *sale
	return &cp, nil
}

func (m *memStore) GetSalesByIDs(_ context.Context, ids []int64) ([]domain.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Sale
	for _, id := range ids {
		if sale, ok := m.sales[id]; ok {
			out = append(out, *sale)
		}
	}
	return out, nil
}

func (m *memStore) ListSalesByInvoice(_ context.Context, invoiceID int64) ([]domain.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Sale
	for _, sale := range m.sales {
		if sale.InvoiceID != nil && *sale.InvoiceID == invoiceID {
			out = append(out, *sale)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) LinkSaleToInvoice(_ context.Context, saleID, invoiceID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sale, ok := m.sales[saleID]
	if !ok {
		return domain.ErrSaleNotFound
	}
	sale.InvoiceID = &invoiceID
	return nil
}

func (m *memStore) UpdateSalePaymentStatus(_ context.Context, saleID int64, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sale, ok := m.sales[saleID]
	if !ok {
		return domain.ErrSaleNotFound
	}
	sale.PaymentStatus = status
	return nil
}

func (m *memStore) CreateInvoice(_ context.Context, inv *domain.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv.ID = m.id()
	cp := *inv
	m.invoices[inv.ID] = &cp
	return nil
}

func (m *memStore) GetInvoice(_ context.Context, id int64) (*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *memStore) GetInvoiceByToken(_ context.Context, token string) (*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invoices {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrInvoiceNotFound
}

func (m *memStore) UpdateInvoiceDisplayOptions(_ context.Context, id int64, opts domain.DisplayOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return domain.ErrInvoiceNotFound
	}
	inv.Display = opts
	return nil
}

func (m *memStore) UpdateInvoicePaymentState(_ context.Context, id int64, paid float64, payment domain.PaymentStatus, lifecycle domain.InvoiceStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return domain.ErrInvoiceNotFound
	}
	inv.PaidAmount = paid
	inv.PaymentStatus = payment
	inv.Status = lifecycle
	return nil
}

func (m *memStore) NextInvoiceSequence(_ context.Context, year int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[year]++
	return m.counters[year], nil
}

func (m *memStore) CreatePayment(_ context.Context, p *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *memStore) ListPaymentsByInvoice(_ context.Context, invoiceID int64) ([]domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Payment
	for _, p := range m.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) DeletePaymentsByInvoice(_ context.Context, invoiceID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, p := range m.payments {
		if p.InvoiceID == invoiceID {
			delete(m.payments, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) CreateInvoiceVersion(_ context.Context, v *domain.InvoiceVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = m.id()
	m.versions = append(m.versions, *v)
	return nil
}

func (m *memStore) GetQuotation(_ context.Context, id int64) (*domain.Quotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotations[id]
	if !ok {
		return nil, domain.ErrQuotationNotFound
	}
	cp := *q
	return &cp, nil
}

func (m *memStore) UpdateQuotationStatus(_ context.Context, id int64, status domain.QuotationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotations[id]
	if !ok {
		return domain.ErrQuotationNotFound
	}
	q.Status = status
	return nil
}

func (m *memStore) GetInventoryItems(_ context.Context, ids []int64) (map[int64]domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]domain.InventoryItem, len(ids))
	for _, id := range ids {
		if item, ok := m.inventory[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

func (m *memStore) ListActiveApprovalRules(_ context.Context) ([]domain.ApprovalRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ApprovalRule
	for _, r := range m.rules {
		if r.Active {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

// Test fixture helpers.

func (m *memStore) addSale(net, discount float64) *domain.Sale {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &domain.Sale{
		ID:             m.id(),
		NetAmount:      net,
		DiscountAmount: discount,
		PaymentStatus:  domain.PaymentStatusUnpaid,
	}
	m.sales[s.ID] = s
	return s
}

func (m *memStore) addInvoice(inv domain.Invoice) *domain.Invoice {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv.ID = m.id()
	m.invoices[inv.ID] = &inv
	return &inv
}

func (m *memStore) addQuotation(q domain.Quotation) *domain.Quotation {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = m.id()
	m.quotations[q.ID] = &q
	return &q
}

// recordingAuditor captures audit events for assertions.
type recordingAuditor struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (a *recordingAuditor) Record(_ context.Context, ev domain.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
}

func (a *recordingAuditor) last() *domain.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.events) == 0 {
		return nil
	}
	return &a.events[len(a.events)-1]
}
