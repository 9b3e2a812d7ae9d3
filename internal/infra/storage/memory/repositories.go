package memory

import (
	"context"
	"sync"

	domainbilling "gearshare/internal/domain/billing"
	domainproduct "gearshare/internal/domain/product"
	domainrental "gearshare/internal/domain/rental"
)

// ProductRepository is an in-memory implementation for tests and local runs.
type ProductRepository struct {
	mu    sync.RWMutex
	items map[domainproduct.ProductID]*domainproduct.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{items: make(map[domainproduct.ProductID]*domainproduct.Product)}
}

func (r *ProductRepository) ByID(ctx context.Context, id domainproduct.ProductID) (*domainproduct.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domainproduct.ErrNotFound
	}
	return p, nil
}

func (r *ProductRepository) Save(ctx context.Context, p *domainproduct.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = p
	return nil
}

// RentalRepository keeps rental requests in memory with a per-product index.
type RentalRepository struct {
	mu    sync.RWMutex
	items map[domainrental.RentalID]*domainrental.RentalRequest
}

func NewRentalRepository() *RentalRepository {
	return &RentalRepository{items: make(map[domainrental.RentalID]*domainrental.RentalRequest)}
}

func (r *RentalRepository) ByID(ctx context.Context, id domainrental.RentalID) (*domainrental.RentalRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.items[id]
	if !ok {
		return nil, domainrental.ErrNotFound
	}
	return req, nil
}

func (r *RentalRepository) Save(ctx context.Context, req *domainrental.RentalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[req.ID] = req
	return nil
}

func (r *RentalRepository) ListByProduct(ctx context.Context, id domainproduct.ProductID, statuses ...domainrental.Status) ([]*domainrental.RentalRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainrental.RentalRequest
	for _, req := range r.items {
		if req.ProductID != id {
			continue
		}
		if len(statuses) > 0 && !statusIncluded(req.Status, statuses) {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *RentalRepository) Delete(ctx context.Context, id domainrental.RentalID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainrental.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func statusIncluded(s domainrental.Status, list []domainrental.Status) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}

// PaymentRepository indexes payments by rental and by gateway transaction reference.
type PaymentRepository struct {
	mu       sync.RWMutex
	byRental map[domainrental.RentalID]*domainbilling.Payment
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{byRental: make(map[domainrental.RentalID]*domainbilling.Payment)}
}

func (r *PaymentRepository) ByTransactionRef(ctx context.Context, ref string) (*domainbilling.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.byRental {
		if p.TransactionRef == ref {
			return p, nil
		}
	}
	return nil, domainbilling.ErrPaymentNotFound
}

func (r *PaymentRepository) ByRentalID(ctx context.Context, id domainrental.RentalID) (*domainbilling.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byRental[id]
	if !ok {
		return nil, domainbilling.ErrPaymentNotFound
	}
	return p, nil
}

func (r *PaymentRepository) Save(ctx context.Context, p *domainbilling.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byRental[p.RentalID] = p
	return nil
}

func (r *PaymentRepository) DeleteByRental(ctx context.Context, id domainrental.RentalID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byRental, id)
	return nil
}

// AttemptRepository stores the transient payment-attempt holds.
type AttemptRepository struct {
	mu       sync.RWMutex
	byRental map[domainrental.RentalID]*domainbilling.PaymentAttempt
}

func NewAttemptRepository() *AttemptRepository {
	return &AttemptRepository{byRental: make(map[domainrental.RentalID]*domainbilling.PaymentAttempt)}
}

func (r *AttemptRepository) ByRentalID(ctx context.Context, id domainrental.RentalID) (*domainbilling.PaymentAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byRental[id]
	if !ok {
		return nil, domainbilling.ErrAttemptNotFound
	}
	return a, nil
}

func (r *AttemptRepository) Save(ctx context.Context, a *domainbilling.PaymentAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byRental[a.RentalID] = a
	return nil
}

func (r *AttemptRepository) DeleteByRental(ctx context.Context, id domainrental.RentalID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byRental, id)
	return nil
}

// InvoiceRepository stores the single invoice per rental.
type InvoiceRepository struct {
	mu       sync.RWMutex
	byRental map[domainrental.RentalID]*domainbilling.Invoice
}

func NewInvoiceRepository() *InvoiceRepository {
	return &InvoiceRepository{byRental: make(map[domainrental.RentalID]*domainbilling.Invoice)}
}

func (r *InvoiceRepository) ByRentalID(ctx context.Context, id domainrental.RentalID) (*domainbilling.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.byRental[id]
	if !ok {
		return nil, domainbilling.ErrInvoiceNotFound
	}
	return inv, nil
}

func (r *InvoiceRepository) Save(ctx context.Context, inv *domainbilling.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byRental[inv.RentalID] = inv
	return nil
}

func (r *InvoiceRepository) DeleteByRental(ctx context.Context, id domainrental.RentalID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byRental, id)
	return nil
}

// ReturnRepository stores product returns and their damage assessments.
type ReturnRepository struct {
	mu          sync.RWMutex
	byID        map[domainbilling.ReturnID]*domainbilling.ProductReturn
	byRental    map[domainrental.RentalID]domainbilling.ReturnID
	assessments map[domainbilling.ReturnID]*domainbilling.DamageAssessment
}

func NewReturnRepository() *ReturnRepository {
	return &ReturnRepository{
		byID:        make(map[domainbilling.ReturnID]*domainbilling.ProductReturn),
		byRental:    make(map[domainrental.RentalID]domainbilling.ReturnID),
		assessments: make(map[domainbilling.ReturnID]*domainbilling.DamageAssessment),
	}
}

func (r *ReturnRepository) ByID(ctx context.Context, id domainbilling.ReturnID) (*domainbilling.ProductReturn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret, ok := r.byID[id]
	if !ok {
		return nil, domainbilling.ErrReturnNotFound
	}
	return ret, nil
}

func (r *ReturnRepository) ByRentalID(ctx context.Context, id domainrental.RentalID) (*domainbilling.ProductReturn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	retID, ok := r.byRental[id]
	if !ok {
		return nil, domainbilling.ErrReturnNotFound
	}
	return r.byID[retID], nil
}

func (r *ReturnRepository) Save(ctx context.Context, ret *domainbilling.ProductReturn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[ret.ID] = ret
	r.byRental[ret.RentalID] = ret.ID
	return nil
}

func (r *ReturnRepository) AssessmentByReturn(ctx context.Context, id domainbilling.ReturnID) (*domainbilling.DamageAssessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assessments[id]
	if !ok {
		return nil, domainbilling.ErrAssessmentNotFound
	}
	return a, nil
}

func (r *ReturnRepository) SaveAssessment(ctx context.Context, a *domainbilling.DamageAssessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assessments[a.ReturnID] = a
	return nil
}
