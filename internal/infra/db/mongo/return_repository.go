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

type ReturnRepository struct {
	returns     *mongo.Collection
	assessments *mongo.Collection
}

func NewReturnRepository(db *mongo.Database) *ReturnRepository {
	returns := db.Collection("product_return")
	assessments := db.Collection("damage_assessment")
	_, _ = returns.Indexes().CreateOne(context.Background(),
		mongo.IndexModel{Keys: bson.D{{Key: "rental_id", Value: 1}}, Options: options.Index().SetUnique(true)})
	_, _ = assessments.Indexes().CreateOne(context.Background(),
		mongo.IndexModel{Keys: bson.D{{Key: "return_id", Value: 1}}, Options: options.Index().SetUnique(true)})
	return &ReturnRepository{returns: returns, assessments: assessments}
}

func (r *ReturnRepository) ByID(ctx context.Context, id billing.ReturnID) (*billing.ProductReturn, error) {
	return r.findReturn(ctx, bson.M{"_id": string(id)})
}

func (r *ReturnRepository) ByRentalID(ctx context.Context, id domainrental.RentalID) (*billing.ProductReturn, error) {
	return r.findReturn(ctx, bson.M{"rental_id": string(id)})
}

func (r *ReturnRepository) findReturn(ctx context.Context, filter bson.M) (*billing.ProductReturn, error) {
	var doc returnDocument
	if err := r.returns.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, billing.ErrReturnNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReturnRepository) Save(ctx context.Context, pr *billing.ProductReturn) error {
	doc := returnDocument{
		ID:         string(pr.ID),
		RentalID:   string(pr.RentalID),
		ReturnDate: pr.ReturnDate.UnixMilli(),
		Status:     string(pr.Status),
		CreatedAt:  pr.CreatedAt.UnixMilli(),
		UpdatedAt:  pr.UpdatedAt.UnixMilli(),
	}
	_, err := r.returns.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return ErrConcurrentUpdate
	}
	return err
}

func (r *ReturnRepository) AssessmentByReturn(ctx context.Context, id billing.ReturnID) (*billing.DamageAssessment, error) {
	var doc assessmentDocument
	if err := r.assessments.FindOne(ctx, bson.M{"return_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, billing.ErrAssessmentNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReturnRepository) SaveAssessment(ctx context.Context, a *billing.DamageAssessment) error {
	doc := assessmentDocument{
		ID:        a.ID,
		ReturnID:  string(a.ReturnID),
		Severity:  string(a.Severity),
		CostCents: a.EstimatedCost.Amount,
		Currency:  a.EstimatedCost.Currency,
		Approved:  a.Approved,
		CreatedAt: a.CreatedAt.UnixMilli(),
		UpdatedAt: a.UpdatedAt.UnixMilli(),
	}
	_, err := r.assessments.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return ErrConcurrentUpdate
	}
	return err
}

type returnDocument struct {
	ID         string `bson:"_id"`
	RentalID   string `bson:"rental_id"`
	ReturnDate int64  `bson:"return_date"`
	Status     string `bson:"status"`
	CreatedAt  int64  `bson:"created_at"`
	UpdatedAt  int64  `bson:"updated_at"`
}

func (d returnDocument) toAggregate() *billing.ProductReturn {
	return &billing.ProductReturn{
		ID:         billing.ReturnID(d.ID),
		RentalID:   domainrental.RentalID(d.RentalID),
		ReturnDate: timestampToTime(d.ReturnDate),
		Status:     billing.ReturnStatus(d.Status),
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
	}
}

type assessmentDocument struct {
	ID        string `bson:"_id"`
	ReturnID  string `bson:"return_id"`
	Severity  string `bson:"severity"`
	CostCents int64  `bson:"cost_cents"`
	Currency  string `bson:"currency"`
	Approved  bool   `bson:"approved"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (d assessmentDocument) toAggregate() *billing.DamageAssessment {
	return &billing.DamageAssessment{
		ID:            d.ID,
		ReturnID:      billing.ReturnID(d.ReturnID),
		Severity:      billing.Severity(d.Severity),
		EstimatedCost: money.Money{Amount: d.CostCents, Currency: d.Currency},
		Approved:      d.Approved,
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
	}
}
