package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pizzanova/backend/app/models"
	"github.com/pizzanova/backend/pkg/database"
	"github.com/pizzanova/backend/pkg/paginate"
)

// ProductFilter narrows the catalog listing.
type ProductFilter struct {
	Category      string
	OnlyAvailable bool
	Search        string
}

// ProductRepository handles database operations for Product.
type ProductRepository struct{}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{}
}

func (r *ProductRepository) col() *mongo.Collection {
	return database.Collection("products")
}

// EnsureIndexes creates the category listing index.
func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}, {Key: "is_available", Value: 1}},
	})
	return err
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	res, err := r.col().InsertOne(ctx, p)
	if err != nil {
		return err
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return p, ErrNotFound
	}
	err = r.col().FindOne(ctx, bson.M{"_id": oid}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return p, ErrNotFound
	}
	return p, err
}

// FindByIDs fetches a batch of products keyed by hex id. Unknown or
// malformed ids are simply absent from the result map.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Product, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}

	out := make(map[string]models.Product, len(oids))
	if len(oids) == 0 {
		return out, nil
	}

	cur, err := r.col().Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var p models.Product
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out[p.ID.Hex()] = p
	}
	return out, cur.Err()
}

// List returns catalog products matching filter, newest first.
func (r *ProductRepository) List(ctx context.Context, filter ProductFilter, page, limit int) ([]models.Product, paginate.Pagination, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.OnlyAvailable {
		query["is_available"] = true
	}
	if filter.Search != "" {
		query["name"] = searchRegex(filter.Search)
	}

	total, err := r.col().CountDocuments(ctx, query)
	if err != nil {
		return nil, paginate.Pagination{}, err
	}

	page, limit = paginate.Normalize(page, limit)
	opts := options.Find().
		SetSkip(paginate.Skip(page, limit)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cur, err := r.col().Find(ctx, query, opts)
	if err != nil {
		return nil, paginate.Pagination{}, err
	}
	defer cur.Close(ctx)

	var products []models.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, paginate.Pagination{}, err
	}

	return products, paginate.New(page, limit, total), nil
}

// Categories returns the distinct category names in the catalog.
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	raw, err := r.col().Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, err
	}
	cats := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			cats = append(cats, s)
		}
	}
	return cats, nil
}

// UpdateFields applies a partial update and bumps updated_at.
func (r *ProductRepository) UpdateFields(ctx context.Context, id string, fields bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	fields["updated_at"] = time.Now().UTC()

	res, err := r.col().UpdateByID(ctx, oid, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.col().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
