package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpricing "gearshare/internal/domain/pricing"
	domainproduct "gearshare/internal/domain/product"
	domainrental "gearshare/internal/domain/rental"
	domainrange "gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
)

type RentalRepository struct {
	col *mongo.Collection
}

func NewRentalRepository(db *mongo.Database) *RentalRepository {
	col := db.Collection("agg_rental")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "status", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &RentalRepository{col: col}
}

func (r *RentalRepository) ByID(ctx context.Context, id domainrental.RentalID) (*domainrental.RentalRequest, error) {
	var doc rentalDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrental.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *RentalRepository) Save(ctx context.Context, req *domainrental.RentalRequest) error {
	doc := newRentalDocument(req)
	filter := bson.M{"_id": doc.ID, "version": req.Version}
	doc.Version = req.Version + 1
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
	req.Version = doc.Version
	return nil
}

func (r *RentalRepository) ListByProduct(ctx context.Context, id domainproduct.ProductID, statuses ...domainrental.Status) ([]*domainrental.RentalRequest, error) {
	filter := bson.M{"product_id": string(id)}
	if len(statuses) > 0 {
		vals := make([]string, 0, len(statuses))
		for _, s := range statuses {
			vals = append(vals, string(s))
		}
		filter["status"] = bson.M{"$in": vals}
	}
	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*domainrental.RentalRequest
	for cursor.Next(ctx) {
		var doc rentalDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

func (r *RentalRepository) Delete(ctx context.Context, id domainrental.RentalID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainrental.ErrNotFound
	}
	return nil
}

type rentalDocument struct {
	ID             string        `bson:"_id"`
	ProductID      string        `bson:"product_id"`
	CustomerID     string        `bson:"customer_id"`
	Range          rangeDocument `bson:"range"`
	Unit           string        `bson:"unit"`
	Periods        int64         `bson:"periods"`
	PriceCents     int64         `bson:"price_cents"`
	Currency       string        `bson:"currency"`
	PickupLocation string        `bson:"pickup_location"`
	ReturnLocation string        `bson:"return_location"`
	Status         string        `bson:"status"`
	CancelReason   string        `bson:"cancel_reason"`
	CreatedAt      int64         `bson:"created_at"`
	UpdatedAt      int64         `bson:"updated_at"`
	Version        int64         `bson:"version"`
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

func newRentalDocument(req *domainrental.RentalRequest) rentalDocument {
	return rentalDocument{
		ID:             string(req.ID),
		ProductID:      string(req.ProductID),
		CustomerID:     string(req.CustomerID),
		Range:          rangeDocument{Start: req.Range.Start.UnixMilli(), End: req.Range.End.UnixMilli()},
		Unit:           string(req.Unit),
		Periods:        req.Periods,
		PriceCents:     req.Price.Amount,
		Currency:       req.Price.Currency,
		PickupLocation: req.PickupLocation,
		ReturnLocation: req.ReturnLocation,
		Status:         string(req.Status),
		CancelReason:   req.CancelReason,
		CreatedAt:      req.CreatedAt.UnixMilli(),
		UpdatedAt:      req.UpdatedAt.UnixMilli(),
		Version:        req.Version,
	}
}

func (d rentalDocument) toAggregate() *domainrental.RentalRequest {
	return &domainrental.RentalRequest{
		ID:             domainrental.RentalID(d.ID),
		ProductID:      domainproduct.ProductID(d.ProductID),
		CustomerID:     domainrental.CustomerID(d.CustomerID),
		Range:          domainrange.DateRange{Start: timestampToTime(d.Range.Start), End: timestampToTime(d.Range.End)},
		Unit:           domainpricing.PeriodUnit(d.Unit),
		Periods:        d.Periods,
		Price:          money.Money{Amount: d.PriceCents, Currency: d.Currency},
		PickupLocation: d.PickupLocation,
		ReturnLocation: d.ReturnLocation,
		Status:         domainrental.Status(d.Status),
		CancelReason:   d.CancelReason,
		CreatedAt:      timestampToTime(d.CreatedAt),
		UpdatedAt:      timestampToTime(d.UpdatedAt),
		Version:        d.Version,
	}
}
