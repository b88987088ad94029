package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainhouse "weekstay/internal/domain/house"
)

type HouseRepository struct {
	col *mongo.Collection
}

func NewHouseRepository(db *mongo.Database) *HouseRepository {
	return &HouseRepository{col: db.Collection("houses")}
}

func (r *HouseRepository) ByID(ctx context.Context, id domainhouse.HouseID) (*domainhouse.House, error) {
	var doc houseDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainhouse.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: find house: %w", err)
	}
	return doc.toAggregate(), nil
}

func (r *HouseRepository) ByIDs(ctx context.Context, ids []domainhouse.HouseID) ([]*domainhouse.House, error) {
	if len(ids) == 0 {
		return []*domainhouse.House{}, nil
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, string(id))
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": raw}})
}

func (r *HouseRepository) Save(ctx context.Context, h *domainhouse.House) error {
	doc := newHouseDocument(h)
	opts := options.Replace().SetUpsert(true)
	if _, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return fmt.Errorf("mongo: save house: %w", err)
	}
	return nil
}

func (r *HouseRepository) List(ctx context.Context) ([]*domainhouse.House, error) {
	return r.find(ctx, bson.M{})
}

func (r *HouseRepository) Delete(ctx context.Context, id domainhouse.HouseID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return fmt.Errorf("mongo: delete house: %w", err)
	}
	if res.DeletedCount == 0 {
		return domainhouse.ErrNotFound
	}
	return nil
}

func (r *HouseRepository) find(ctx context.Context, filter bson.M) ([]*domainhouse.House, error) {
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list houses: %w", err)
	}
	defer cursor.Close(ctx)
	var out []*domainhouse.House
	for cursor.Next(ctx) {
		var doc houseDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decode house: %w", err)
		}
		out = append(out, doc.toAggregate())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo: house cursor: %w", err)
	}
	return out, nil
}

type houseDocument struct {
	ID          string   `bson:"_id"`
	Name        string   `bson:"name"`
	Description string   `bson:"description"`
	PhotoURLs   []string `bson:"photo_urls,omitempty"`
	CreatedAt   int64    `bson:"created_at"`
	UpdatedAt   int64    `bson:"updated_at"`
}

func newHouseDocument(h *domainhouse.House) houseDocument {
	return houseDocument{
		ID:          string(h.ID),
		Name:        h.Name,
		Description: h.Description,
		PhotoURLs:   append([]string(nil), h.PhotoURLs...),
		CreatedAt:   h.CreatedAt.UnixMilli(),
		UpdatedAt:   h.UpdatedAt.UnixMilli(),
	}
}

func (d houseDocument) toAggregate() *domainhouse.House {
	return &domainhouse.House{
		ID:          domainhouse.HouseID(d.ID),
		Name:        d.Name,
		Description: d.Description,
		PhotoURLs:   append([]string(nil), d.PhotoURLs...),
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
	}
}
