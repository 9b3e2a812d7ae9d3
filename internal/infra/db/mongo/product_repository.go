package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpricing "gearshare/internal/domain/pricing"
	domainproduct "gearshare/internal/domain/product"
	"gearshare/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{col: db.Collection("agg_product")}
}

func (r *ProductRepository) ByID(ctx context.Context, id domainproduct.ProductID) (*domainproduct.Product, error) {
	var doc productDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainproduct.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ProductRepository) Save(ctx context.Context, p *domainproduct.Product) error {
	doc := newProductDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
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
	p.Version = doc.Version
	return nil
}

type productDocument struct {
	ID         string `bson:"_id"`
	Owner      string `bson:"owner_id"`
	Title      string `bson:"title"`
	BaseUnit   string `bson:"base_unit"`
	PriceCents int64  `bson:"price_cents"`
	Currency   string `bson:"currency"`
	Status     string `bson:"status"`
	CreatedAt  int64  `bson:"created_at"`
	UpdatedAt  int64  `bson:"updated_at"`
	Version    int64  `bson:"version"`
}

func newProductDocument(p *domainproduct.Product) productDocument {
	return productDocument{
		ID:         string(p.ID),
		Owner:      string(p.Owner),
		Title:      p.Title,
		BaseUnit:   string(p.BaseUnit),
		PriceCents: p.PricePerUnit.Amount,
		Currency:   p.PricePerUnit.Currency,
		Status:     string(p.Status),
		CreatedAt:  p.CreatedAt.UnixMilli(),
		UpdatedAt:  p.UpdatedAt.UnixMilli(),
		Version:    p.Version,
	}
}

func (d productDocument) toAggregate() *domainproduct.Product {
	return &domainproduct.Product{
		ID:           domainproduct.ProductID(d.ID),
		Owner:        domainproduct.OwnerID(d.Owner),
		Title:        d.Title,
		BaseUnit:     domainpricing.PeriodUnit(d.BaseUnit),
		PricePerUnit: money.Money{Amount: d.PriceCents, Currency: d.Currency},
		Status:       domainproduct.Status(d.Status),
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
