package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gearshare/internal/domain/billing"
	domainrental "gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/money"
)

type InvoiceRepository struct {
	col *mongo.Collection
}

func NewInvoiceRepository(db *mongo.Database) *InvoiceRepository {
	col := db.Collection("agg_invoice")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "rental_id", Value: 1}}, Options: options.Index().SetUnique(true)}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &InvoiceRepository{col: col}
}

func (r *InvoiceRepository) ByRentalID(ctx context.Context, id domainrental.RentalID) (*billing.Invoice, error) {
	var doc invoiceDocument
	if err := r.col.FindOne(ctx, bson.M{"rental_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, billing.ErrInvoiceNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *InvoiceRepository) Save(ctx context.Context, inv *billing.Invoice) error {
	doc := newInvoiceDocument(inv)
	filter := bson.M{"_id": doc.ID, "version": inv.Version}
	doc.Version = inv.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	inv.Version = doc.Version
	return nil
}

func (r *InvoiceRepository) DeleteByRental(ctx context.Context, id domainrental.RentalID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"rental_id": string(id)})
	return err
}

type invoiceDocument struct {
	ID               string                `bson:"_id"`
	RentalID         string                `bson:"rental_id"`
	SubtotalCents    int64                 `bson:"subtotal_cents"`
	TaxRatePercent   int64                 `bson:"tax_rate_percent"`
	TaxCents         int64                 `bson:"tax_cents"`
	LateFeeCents     int64                 `bson:"late_fee_cents"`
	DamageFeeCents   int64                 `bson:"damage_fee_cents"`
	AdditionalCents  int64                 `bson:"additional_cents"`
	AmountCents      int64                 `bson:"amount_cents"`
	Currency         string                `bson:"currency"`
	Status           string                `bson:"status"`
	DueDate          int64                 `bson:"due_date"`
	PaidDate         *int64                `bson:"paid_date,omitempty"`
	Items            []invoiceItemDocument `bson:"items"`
	CreatedAt        int64                 `bson:"created_at"`
	UpdatedAt        int64                 `bson:"updated_at"`
	Version          int64                 `bson:"version"`
	DamageCurrency   string                `bson:"damage_currency,omitempty"`
	LateFeeCurrency  string                `bson:"late_fee_currency,omitempty"`
	AdditionalCcy    string                `bson:"additional_currency,omitempty"`
}

type invoiceItemDocument struct {
	Description string `bson:"description"`
	Quantity    int64  `bson:"quantity"`
	UnitCents   int64  `bson:"unit_cents"`
	TotalCents  int64  `bson:"total_cents"`
	Currency    string `bson:"currency"`
	Type        string `bson:"type"`
}

func newInvoiceDocument(inv *billing.Invoice) invoiceDocument {
	doc := invoiceDocument{
		ID:              string(inv.ID),
		RentalID:        string(inv.RentalID),
		SubtotalCents:   inv.Subtotal.Amount,
		TaxRatePercent:  inv.TaxRatePercent,
		TaxCents:        inv.TaxAmount.Amount,
		LateFeeCents:    inv.LateFee.Amount,
		DamageFeeCents:  inv.DamageFee.Amount,
		AdditionalCents: inv.AdditionalCharges.Amount,
		AmountCents:     inv.Amount.Amount,
		Currency:        inv.Subtotal.Currency,
		Status:          string(inv.Status),
		DueDate:         inv.DueDate.UnixMilli(),
		CreatedAt:       inv.CreatedAt.UnixMilli(),
		UpdatedAt:       inv.UpdatedAt.UnixMilli(),
		Version:         inv.Version,
		DamageCurrency:  inv.DamageFee.Currency,
		LateFeeCurrency: inv.LateFee.Currency,
		AdditionalCcy:   inv.AdditionalCharges.Currency,
	}
	if inv.PaidDate != nil {
		ms := inv.PaidDate.UnixMilli()
		doc.PaidDate = &ms
	}
	doc.Items = make([]invoiceItemDocument, 0, len(inv.Items))
	for _, item := range inv.Items {
		doc.Items = append(doc.Items, invoiceItemDocument{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitCents:   item.UnitPrice.Amount,
			TotalCents:  item.TotalPrice.Amount,
			Currency:    item.TotalPrice.Currency,
			Type:        string(item.Type),
		})
	}
	return doc
}

func (d invoiceDocument) toAggregate() *billing.Invoice {
	inv := &billing.Invoice{
		ID:                billing.InvoiceID(d.ID),
		RentalID:          domainrental.RentalID(d.RentalID),
		Subtotal:          money.Money{Amount: d.SubtotalCents, Currency: d.Currency},
		TaxRatePercent:    d.TaxRatePercent,
		TaxAmount:         money.Money{Amount: d.TaxCents, Currency: d.Currency},
		LateFee:           money.Money{Amount: d.LateFeeCents, Currency: d.LateFeeCurrency},
		DamageFee:         money.Money{Amount: d.DamageFeeCents, Currency: d.DamageCurrency},
		AdditionalCharges: money.Money{Amount: d.AdditionalCents, Currency: d.AdditionalCcy},
		Amount:            money.Money{Amount: d.AmountCents, Currency: d.Currency},
		Status:            billing.InvoiceStatus(d.Status),
		DueDate:           timestampToTime(d.DueDate),
		CreatedAt:         timestampToTime(d.CreatedAt),
		UpdatedAt:         timestampToTime(d.UpdatedAt),
		Version:           d.Version,
	}
	if d.PaidDate != nil {
		t := timestampToTime(*d.PaidDate)
		inv.PaidDate = &t
	}
	inv.Items = make([]billing.InvoiceItem, 0, len(d.Items))
	for _, item := range d.Items {
		inv.Items = append(inv.Items, billing.InvoiceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   money.Money{Amount: item.UnitCents, Currency: item.Currency},
			TotalPrice:  money.Money{Amount: item.TotalCents, Currency: item.Currency},
			Type:        billing.ItemType(item.Type),
		})
	}
	return inv
}
