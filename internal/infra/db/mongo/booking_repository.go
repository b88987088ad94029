package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "weekstay/internal/domain/booking"
	domainhouse "weekstay/internal/domain/house"
	domainuser "weekstay/internal/domain/user"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("bookings")
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "house_id", Value: 1}, {Key: "check_in", Value: 1}, {Key: "check_out", Value: 1}}},
		{Keys: bson.D{{Key: "renter_id", Value: 1}, {Key: "check_in", Value: 1}}},
		// Every policy-valid window starts on the designated weekday and
		// spans exactly one week, so two active bookings overlap iff they
		// share a check-in. conflict_key is present only while a booking is
		// active; the unique sparse index turns the check-then-insert race
		// into a duplicate-key error.
		{
			Keys:    bson.D{{Key: "conflict_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), indexes)
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *BookingRepository) ByIDForRenter(ctx context.Context, id domainbooking.BookingID, renterID domainuser.ID) (*domainbooking.Booking, error) {
	return r.findOne(ctx, bson.M{"_id": string(id), "renter_id": string(renterID)})
}

func (r *BookingRepository) AnyActiveOverlap(ctx context.Context, houseID domainhouse.HouseID, w domainbooking.Window) (bool, error) {
	filter := bson.M{
		"house_id":  string(houseID),
		"status":    bson.M{"$ne": string(domainbooking.StatusCancelled)},
		"check_in":  bson.M{"$lt": w.CheckOut.UnixMilli()},
		"check_out": bson.M{"$gt": w.CheckIn.UnixMilli()},
	}
	err := r.col.FindOne(ctx, filter).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, fmt.Errorf("mongo: overlap query: %w", err)
}

func (r *BookingRepository) Insert(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrDateConflict
		}
		return fmt.Errorf("mongo: insert booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	update := bson.M{"$set": doc}
	if doc.ConflictKey == "" {
		update["$unset"] = bson.M{"conflict_key": ""}
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, update)
	if err != nil {
		return fmt.Errorf("mongo: save booking: %w", err)
	}
	if res.MatchedCount == 0 {
		return domainbooking.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) ListByHouseActive(ctx context.Context, houseID domainhouse.HouseID) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"house_id": string(houseID),
		"status":   bson.M{"$ne": string(domainbooking.StatusCancelled)},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "check_in", Value: 1}}))
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID domainuser.ID) ([]*domainbooking.Booking, error) {
	filter := bson.M{"renter_id": string(renterID)}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "check_in", Value: 1}}))
}

func (r *BookingRepository) ListAll(ctx context.Context) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "check_in", Value: 1}}))
}

func (r *BookingRepository) Delete(ctx context.Context, id domainbooking.BookingID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return fmt.Errorf("mongo: delete booking: %w", err)
	}
	if res.DeletedCount == 0 {
		return domainbooking.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) DeleteByHouse(ctx context.Context, houseID domainhouse.HouseID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"house_id": string(houseID)})
	if err != nil {
		return fmt.Errorf("mongo: delete house bookings: %w", err)
	}
	return nil
}

func (r *BookingRepository) AnyEndingAfter(ctx context.Context, houseID domainhouse.HouseID, t time.Time) (bool, error) {
	filter := bson.M{
		"house_id":  string(houseID),
		"status":    bson.M{"$ne": string(domainbooking.StatusCancelled)},
		"check_out": bson.M{"$gt": t.UTC().UnixMilli()},
	}
	err := r.col.FindOne(ctx, filter).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, fmt.Errorf("mongo: ending-after query: %w", err)
}

func (r *BookingRepository) findOne(ctx context.Context, filter bson.M) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("mongo: find booking: %w", err)
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainbooking.Booking, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: list bookings: %w", err)
	}
	defer cursor.Close(ctx)
	var out []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decode booking: %w", err)
		}
		out = append(out, doc.toAggregate())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo: booking cursor: %w", err)
	}
	return out, nil
}

type bookingDocument struct {
	ID          string `bson:"_id"`
	HouseID     string `bson:"house_id"`
	RenterID    string `bson:"renter_id"`
	CheckIn     int64  `bson:"check_in"`
	CheckOut    int64  `bson:"check_out"`
	Status      string `bson:"status"`
	ConflictKey string `bson:"conflict_key,omitempty"`
	CreatedAt   int64  `bson:"created_at"`
	UpdatedAt   int64  `bson:"updated_at"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:        string(b.ID),
		HouseID:   string(b.HouseID),
		RenterID:  string(b.RenterID),
		CheckIn:   b.Window.CheckIn.UnixMilli(),
		CheckOut:  b.Window.CheckOut.UnixMilli(),
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt.UnixMilli(),
		UpdatedAt: b.UpdatedAt.UnixMilli(),
	}
	if b.Active() {
		doc.ConflictKey = fmt.Sprintf("%s/%s", b.HouseID, b.Window.CheckIn.Format("2006-01-02"))
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:       domainbooking.BookingID(d.ID),
		HouseID:  domainhouse.HouseID(d.HouseID),
		RenterID: domainuser.ID(d.RenterID),
		Window: domainbooking.Window{
			CheckIn:  timestampToTime(d.CheckIn),
			CheckOut: timestampToTime(d.CheckOut),
		},
		Status:    domainbooking.Status(d.Status),
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
