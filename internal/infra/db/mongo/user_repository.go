package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainhouse "weekstay/internal/domain/house"
	domainuser "weekstay/internal/domain/user"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	col := db.Collection("users")
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), indexes)
	return &UserRepository{col: col}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *UserRepository) ByLogin(ctx context.Context, usernameOrEmail string) (*domainuser.User, error) {
	login := strings.TrimSpace(usernameOrEmail)
	filter := bson.M{"$or": bson.A{
		bson.M{"username": login},
		bson.M{"email": strings.ToLower(login)},
	}}
	return r.findOne(ctx, filter)
}

// Save upserts profile fields. The credit balance is written only on first
// insert; later balance changes go through DebitCredits/AddCredits so a
// profile save cannot clobber a concurrent debit.
func (r *UserRepository) Save(ctx context.Context, u *domainuser.User) error {
	houses := make([]string, 0, len(u.AssignedHouses))
	for _, id := range u.AssignedHouses {
		houses = append(houses, string(id))
	}
	update := bson.M{
		"$set": bson.M{
			"username":        u.Username,
			"email":           u.Email,
			"password_hash":   u.PasswordHash,
			"role":            string(u.Role),
			"assigned_houses": houses,
			"created_at":      u.CreatedAt.UnixMilli(),
			"updated_at":      u.UpdatedAt.UnixMilli(),
		},
		"$setOnInsert": bson.M{"credits": u.Credits},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": string(u.ID)}, update, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainuser.ErrAlreadyExists
		}
		return fmt.Errorf("mongo: save user: %w", err)
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domainuser.User, error) {
	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list users: %w", err)
	}
	defer cursor.Close(ctx)
	var out []*domainuser.User
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decode user: %w", err)
		}
		out = append(out, doc.toAggregate())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo: user cursor: %w", err)
	}
	return out, nil
}

func (r *UserRepository) Delete(ctx context.Context, id domainuser.ID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return fmt.Errorf("mongo: delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domainuser.ErrNotFound
	}
	return nil
}

func (r *UserRepository) CountAdmins(ctx context.Context) (int, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"role": string(domainuser.RoleAdmin)})
	if err != nil {
		return 0, fmt.Errorf("mongo: count admins: %w", err)
	}
	return int(n), nil
}

// DebitCredits decrements only when the balance covers the amount, in one
// findAndModify, so concurrent bookings cannot both pass the balance check.
func (r *UserRepository) DebitCredits(ctx context.Context, id domainuser.ID, amount int) error {
	if amount <= 0 {
		return nil
	}
	filter := bson.M{"_id": string(id), "credits": bson.M{"$gte": amount}}
	update := bson.M{"$inc": bson.M{"credits": -amount}}
	err := r.col.FindOneAndUpdate(ctx, filter, update).Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the user is gone or the balance is short; disambiguate.
		if findErr := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Err(); errors.Is(findErr, mongo.ErrNoDocuments) {
			return domainuser.ErrNotFound
		}
		return domainuser.ErrInsufficientCredits
	}
	return fmt.Errorf("mongo: debit credits: %w", err)
}

func (r *UserRepository) AddCredits(ctx context.Context, id domainuser.ID, amount int) error {
	if amount <= 0 {
		return nil
	}
	update := bson.M{"$inc": bson.M{"credits": amount}}
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": string(id)}, update).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domainuser.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("mongo: add credits: %w", err)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domainuser.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainuser.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: find user: %w", err)
	}
	return doc.toAggregate(), nil
}

type userDocument struct {
	ID             string   `bson:"_id"`
	Username       string   `bson:"username"`
	Email          string   `bson:"email"`
	PasswordHash   string   `bson:"password_hash"`
	Role           string   `bson:"role"`
	Credits        int      `bson:"credits"`
	AssignedHouses []string `bson:"assigned_houses,omitempty"`
	CreatedAt      int64    `bson:"created_at"`
	UpdatedAt      int64    `bson:"updated_at"`
}

func (d userDocument) toAggregate() *domainuser.User {
	houses := make([]domainhouse.HouseID, 0, len(d.AssignedHouses))
	for _, id := range d.AssignedHouses {
		houses = append(houses, domainhouse.HouseID(id))
	}
	return &domainuser.User{
		ID:             domainuser.ID(d.ID),
		Username:       d.Username,
		Email:          d.Email,
		PasswordHash:   d.PasswordHash,
		Role:           domainuser.Role(d.Role),
		Credits:        d.Credits,
		AssignedHouses: houses,
		CreatedAt:      timestampToTime(d.CreatedAt),
		UpdatedAt:      timestampToTime(d.UpdatedAt),
	}
}
