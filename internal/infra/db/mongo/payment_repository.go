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

type PaymentRepository struct {
	col *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	col := db.Collection("agg_payment")
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "transaction_ref", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "rental_id", Value: 1}}},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), indexes)
	return &PaymentRepository{col: col}
}

func (r *PaymentRepository) ByTransactionRef(ctx context.Context, ref string) (*billing.Payment, error) {
	return r.findOne(ctx, bson.M{"transaction_ref": ref})
}

func (r *PaymentRepository) ByRentalID(ctx context.Context, id domainrental.RentalID) (*billing.Payment, error) {
	return r.findOne(ctx, bson.M{"rental_id": string(id)})
}

func (r *PaymentRepository) findOne(ctx context.Context, filter bson.M) (*billing.Payment, error) {
	var doc paymentDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, billing.ErrPaymentNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PaymentRepository) Save(ctx context.Context, p *billing.Payment) error {
	doc := newPaymentDocument(p)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return ErrConcurrentUpdate
	}
	return err
}

func (r *PaymentRepository) DeleteByRental(ctx context.Context, id domainrental.RentalID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"rental_id": string(id)})
	return err
}

type paymentDocument struct {
	ID             string `bson:"_id"`
	RentalID       string `bson:"rental_id"`
	TransactionRef string `bson:"transaction_ref"`
	AmountCents    int64  `bson:"amount_cents"`
	Currency       string `bson:"currency"`
	Status         string `bson:"status"`
	CreatedAt      int64  `bson:"created_at"`
	UpdatedAt      int64  `bson:"updated_at"`
}

func newPaymentDocument(p *billing.Payment) paymentDocument {
	return paymentDocument{
		ID:             string(p.ID),
		RentalID:       string(p.RentalID),
		TransactionRef: p.TransactionRef,
		AmountCents:    p.Amount.Amount,
		Currency:       p.Amount.Currency,
		Status:         string(p.Status),
		CreatedAt:      p.CreatedAt.UnixMilli(),
		UpdatedAt:      p.UpdatedAt.UnixMilli(),
	}
}

func (d paymentDocument) toAggregate() *billing.Payment {
	return &billing.Payment{
		ID:             billing.PaymentID(d.ID),
		RentalID:       domainrental.RentalID(d.RentalID),
		TransactionRef: d.TransactionRef,
		Amount:         money.Money{Amount: d.AmountCents, Currency: d.Currency},
		Status:         billing.PaymentStatus(d.Status),
		CreatedAt:      timestampToTime(d.CreatedAt),
		UpdatedAt:      timestampToTime(d.UpdatedAt),
	}
}

// AttemptRepository stores payment holds keyed by rental, at most one live
// hold per rental at a time.
type AttemptRepository struct {
	col *mongo.Collection
}

func NewAttemptRepository(db *mongo.Database) *AttemptRepository {
	return &AttemptRepository{col: db.Collection("payment_attempt")}
}

func (r *AttemptRepository) ByRentalID(ctx context.Context, id domainrental.RentalID) (*billing.PaymentAttempt, error) {
	var doc attemptDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, billing.ErrAttemptNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *AttemptRepository) Save(ctx context.Context, a *billing.PaymentAttempt) error {
	doc := attemptDocument{
		ID:             string(a.RentalID),
		TransactionRef: a.TransactionRef,
		ExpiresAt:      a.ExpiresAt.UnixMilli(),
		CreatedAt:      a.CreatedAt.UnixMilli(),
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

func (r *AttemptRepository) DeleteByRental(ctx context.Context, id domainrental.RentalID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	return err
}

type attemptDocument struct {
	ID             string `bson:"_id"`
	TransactionRef string `bson:"transaction_ref"`
	ExpiresAt      int64  `bson:"expires_at"`
	CreatedAt      int64  `bson:"created_at"`
}

func (d attemptDocument) toAggregate() *billing.PaymentAttempt {
	return &billing.PaymentAttempt{
		RentalID:       domainrental.RentalID(d.ID),
		TransactionRef: d.TransactionRef,
		ExpiresAt:      timestampToTime(d.ExpiresAt),
		CreatedAt:      timestampToTime(d.CreatedAt),
	}
}
