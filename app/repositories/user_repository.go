package repositories

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pizzanova/backend/app/models"
	"github.com/pizzanova/backend/pkg/database"
	"github.com/pizzanova/backend/pkg/paginate"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("repositories: not found")

// ErrDuplicate is returned on unique-index violations (email, order number).
var ErrDuplicate = errors.New("repositories: duplicate key")

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Role    string // "" = any
	Blocked *bool  // nil = any
	Search  string // case-insensitive substring over email/name
}

// UserRepository handles database operations for User.
type UserRepository struct{}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

func (r *UserRepository) col() *mongo.Collection {
	return database.Collection("users")
}

// EnsureIndexes creates the unique email index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Create persists a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.col().InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByEmail looks up a user by their email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.col().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return user, ErrNotFound
	}
	return user, err
}

// FindByID looks up a user by hex ObjectID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return user, ErrNotFound
	}
	err = r.col().FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return user, ErrNotFound
	}
	return user, err
}

// List returns users matching filter with page/limit/skip semantics and a
// computed total-page count.
func (r *UserRepository) List(ctx context.Context, filter UserFilter, page, limit int) ([]models.User, paginate.Pagination, error) {
	query := bson.M{}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	if filter.Blocked != nil {
		query["is_blocked"] = *filter.Blocked
	}
	if filter.Search != "" {
		re := searchRegex(filter.Search)
		query["$or"] = bson.A{
			bson.M{"email": re},
			bson.M{"name": re},
		}
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

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, paginate.Pagination{}, err
	}

	return users, paginate.New(page, limit, total), nil
}

// UpdateFields applies a partial update and bumps updated_at.
func (r *UserRepository) UpdateFields(ctx context.Context, id string, fields bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	fields["updated_at"] = time.Now().UTC()

	res, err := r.col().UpdateByID(ctx, oid, bson.M{"$set": fields})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Block sets the blocked flag together with reason/at/by.
func (r *UserRepository) Block(ctx context.Context, id, reason, byAdminID string) error {
	now := time.Now().UTC()
	return r.UpdateFields(ctx, id, bson.M{
		"is_blocked":     true,
		"blocked_reason": reason,
		"blocked_at":     now,
		"blocked_by":     byAdminID,
	})
}

// Unblock clears the blocked flag and every block field with it.
func (r *UserRepository) Unblock(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.col().UpdateByID(ctx, oid, bson.M{
		"$set":   bson.M{"is_blocked": false, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"blocked_reason": "", "blocked_at": "", "blocked_by": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user document.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
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

// AddSavedCard appends a masked card unless one with the same last-four
// digits exists. The filter makes the de-duplication a single atomic update.
func (r *UserRepository) AddSavedCard(ctx context.Context, id string, card models.SavedCard) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	_, err = r.col().UpdateOne(ctx,
		bson.M{"_id": oid, "saved_cards.last_four": bson.M{"$ne": card.LastFour}},
		bson.M{"$push": bson.M{"saved_cards": card}},
	)
	return err
}

// MarkPromoRedeemed records a one-time promo code against the user.
func (r *UserRepository) MarkPromoRedeemed(ctx context.Context, id, code string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	_, err = r.col().UpdateByID(ctx, oid, bson.M{"$addToSet": bson.M{"redeemed_promos": code}})
	return err
}

// searchRegex matches user-supplied search text literally, case-insensitive.
func searchRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
