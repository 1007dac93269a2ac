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

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status     string
	CustomerID string
	From       *time.Time
	To         *time.Time
}

// OrderStats is the aggregated back-office dashboard payload.
type OrderStats struct {
	TotalOrders    int64              `json:"total_orders"`
	TotalRevenue   float64            `json:"total_revenue"`
	AverageOrder   float64            `json:"average_order"`
	CountsByStatus map[string]int64   `json:"counts_by_status"`
	RevenueByDay   []DailyRevenue     `json:"revenue_by_day"`
	TopProducts    []ProductSaleCount `json:"top_products"`
}

// DailyRevenue is one day's revenue from delivered orders.
type DailyRevenue struct {
	Date    string  `bson:"_id"     json:"date"`
	Revenue float64 `bson:"revenue" json:"revenue"`
	Orders  int64   `bson:"orders"  json:"orders"`
}

// ProductSaleCount is a product's cumulative ordered quantity.
type ProductSaleCount struct {
	Name     string `bson:"_id"      json:"name"`
	Quantity int64  `bson:"quantity" json:"quantity"`
}

// OrderRepository handles database operations for Order.
type OrderRepository struct{}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

func (r *OrderRepository) col() *mongo.Collection {
	return database.Collection("orders")
}

// EnsureIndexes creates the unique order-number index plus the customer
// listing index.
func (r *OrderRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "order_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	})
	return err
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	res, err := r.col().InsertOne(ctx, o)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	o.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (models.Order, error) {
	var o models.Order
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return o, ErrNotFound
	}
	err = r.col().FindOne(ctx, bson.M{"_id": oid}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return o, ErrNotFound
	}
	return o, err
}

// CountActiveByCustomer counts the customer's orders in a non-terminal
// status. Used for the active-order cap before insert.
func (r *OrderRepository) CountActiveByCustomer(ctx context.Context, customerID primitive.ObjectID) (int64, error) {
	return r.col().CountDocuments(ctx, bson.M{
		"customer_id": customerID,
		"status":      bson.M{"$in": models.ActiveStatuses()},
	})
}

// ListByCustomer returns the customer's own orders, newest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID primitive.ObjectID, page, limit int) ([]models.Order, paginate.Pagination, error) {
	return r.list(ctx, bson.M{"customer_id": customerID}, page, limit)
}

// List returns orders matching the admin filter, newest first.
func (r *OrderRepository) List(ctx context.Context, filter OrderFilter, page, limit int) ([]models.Order, paginate.Pagination, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.CustomerID != "" {
		if oid, err := primitive.ObjectIDFromHex(filter.CustomerID); err == nil {
			query["customer_id"] = oid
		}
	}
	if filter.From != nil || filter.To != nil {
		rangeQ := bson.M{}
		if filter.From != nil {
			rangeQ["$gte"] = *filter.From
		}
		if filter.To != nil {
			rangeQ["$lte"] = *filter.To
		}
		query["created_at"] = rangeQ
	}
	return r.list(ctx, query, page, limit)
}

func (r *OrderRepository) list(ctx context.Context, query bson.M, page, limit int) ([]models.Order, paginate.Pagination, error) {
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

	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, paginate.Pagination{}, err
	}

	return orders, paginate.New(page, limit, total), nil
}

// UpdateStatus sets the new status and appends the history entry in one
// update. The filter includes the expected current status so concurrent
// transitions cannot both win; a zero match means the document moved on.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from string, entry models.StatusEntry) error {
	res, err := r.col().UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{
			"$set":  bson.M{"status": entry.Status, "updated_at": time.Now().UTC()},
			"$push": bson.M{"status_history": entry},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates the dashboard numbers in three pipelines.
func (r *OrderRepository) Stats(ctx context.Context) (OrderStats, error) {
	stats := OrderStats{CountsByStatus: make(map[string]int64)}

	// Counts and revenue by status.
	cur, err := r.col().Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{
			"_id":     "$status",
			"count":   bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": "$total"},
		}}},
	})
	if err != nil {
		return stats, err
	}
	var byStatus []struct {
		Status  string  `bson:"_id"`
		Count   int64   `bson:"count"`
		Revenue float64 `bson:"revenue"`
	}
	if err := cur.All(ctx, &byStatus); err != nil {
		return stats, err
	}
	for _, row := range byStatus {
		stats.CountsByStatus[row.Status] = row.Count
		stats.TotalOrders += row.Count
		if row.Status == models.StatusDelivered {
			stats.TotalRevenue += row.Revenue
		}
	}
	if n := stats.CountsByStatus[models.StatusDelivered]; n > 0 {
		stats.AverageOrder = stats.TotalRevenue / float64(n)
	}

	// Last 30 days of delivered revenue.
	since := time.Now().UTC().AddDate(0, 0, -30)
	cur, err = r.col().Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"status":     models.StatusDelivered,
			"created_at": bson.M{"$gte": since},
		}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":     bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$created_at"}},
			"revenue": bson.M{"$sum": "$total"},
			"orders":  bson.M{"$sum": 1},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return stats, err
	}
	if err := cur.All(ctx, &stats.RevenueByDay); err != nil {
		return stats, err
	}

	// Top ten products by ordered quantity.
	cur, err = r.col().Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$unwind", Value: "$items"}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":      "$items.name",
			"quantity": bson.M{"$sum": "$items.quantity"},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"quantity": -1}}},
		bson.D{{Key: "$limit", Value: 10}},
	})
	if err != nil {
		return stats, err
	}
	if err := cur.All(ctx, &stats.TopProducts); err != nil {
		return stats, err
	}

	return stats, nil
}
