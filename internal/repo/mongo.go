package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pkordes/trip-planner/internal/domain"
)

const (
	tripsCollection = "trips"
	usersCollection = "users"
)

// ConnectMongo opens a client whose registry stores uuid.UUID values as
// canonical strings, so trip ids read the same in Mongo as over the API.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri).SetRegistry(newRegistry())
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("repo.ConnectMongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("repo.ConnectMongo: ping: %w", err)
	}
	return client, nil
}

var uuidType = reflect.TypeOf(uuid.UUID{})

func newRegistry() *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeEncoder(uuidType, bsoncodec.ValueEncoderFunc(encodeUUID))
	reg.RegisterTypeDecoder(uuidType, bsoncodec.ValueDecoderFunc(decodeUUID))
	return reg
}

func encodeUUID(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != uuidType {
		return bsoncodec.ValueEncoderError{Name: "encodeUUID", Types: []reflect.Type{uuidType}, Received: val}
	}
	return vw.WriteString(val.Interface().(uuid.UUID).String())
}

func decodeUUID(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != uuidType {
		return bsoncodec.ValueDecoderError{Name: "decodeUUID", Types: []reflect.Type{uuidType}, Received: val}
	}
	switch vr.Type() {
	case bsontype.Null:
		val.Set(reflect.ValueOf(uuid.Nil))
		return vr.ReadNull()
	case bsontype.String:
		s, err := vr.ReadString()
		if err != nil {
			return err
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("decodeUUID: %w", err)
		}
		val.Set(reflect.ValueOf(id))
		return nil
	default:
		return fmt.Errorf("decodeUUID: cannot decode %v into uuid.UUID", vr.Type())
	}
}

// EnsureMongoIndexes creates the indexes the Mongo stores rely on.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_users_email"),
	})
	if err != nil {
		return fmt.Errorf("repo.EnsureMongoIndexes: users: %w", err)
	}
	_, err = db.Collection(tripsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "allowed_users", Value: 1}},
			Options: options.Index().SetName("idx_trips_allowed_users"),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_trips_updated_at"),
		},
	})
	if err != nil {
		return fmt.Errorf("repo.EnsureMongoIndexes: trips: %w", err)
	}
	return nil
}

// MongoTripStore stores each trip as one document in the trips collection.
// It also implements ChangeFeed on top of collection change streams, which
// requires the server to run as a replica set.
type MongoTripStore struct {
	c       *mongo.Collection
	logger  *slog.Logger
	backoff time.Duration
}

var (
	_ TripStore  = (*MongoTripStore)(nil)
	_ ChangeFeed = (*MongoTripStore)(nil)
	_ UserStore  = (*MongoUserStore)(nil)
)

// NewMongoTripStore creates a trip store on db.
func NewMongoTripStore(db *mongo.Database, logger *slog.Logger) *MongoTripStore {
	return &MongoTripStore{c: db.Collection(tripsCollection), logger: logger, backoff: time.Second}
}

func (s *MongoTripStore) Get(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	var t domain.Trip
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Trip{}, fmt.Errorf("repo.MongoTripStore.Get: %w", domain.ErrNotFound)
	}
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.MongoTripStore.Get: %w", err)
	}
	t.Normalize()
	return t, nil
}

// Put replaces the document wholesale, inserting it if missing.
func (s *MongoTripStore) Put(ctx context.Context, trip domain.Trip) error {
	trip.Normalize()
	opts := options.Replace().SetUpsert(true)
	if _, err := s.c.ReplaceOne(ctx, bson.M{"_id": trip.ID}, trip, opts); err != nil {
		return fmt.Errorf("repo.MongoTripStore.Put: %w", err)
	}
	return nil
}

func (s *MongoTripStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("repo.MongoTripStore.Delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("repo.MongoTripStore.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (s *MongoTripStore) ListForUser(ctx context.Context, uid string) ([]domain.Trip, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"allowed_users": uid}, opts)
	if err != nil {
		return nil, fmt.Errorf("repo.MongoTripStore.ListForUser: %w", err)
	}
	defer cur.Close(ctx)

	trips := []domain.Trip{}
	if err := cur.All(ctx, &trips); err != nil {
		return nil, fmt.Errorf("repo.MongoTripStore.ListForUser: decode: %w", err)
	}
	for i := range trips {
		trips[i].Normalize()
	}
	return trips, nil
}

// changeEvent is the subset of a change stream event the feed reads.
type changeEvent struct {
	DocumentKey struct {
		ID uuid.UUID `bson:"_id"`
	} `bson:"documentKey"`
}

// Run watches the trips collection until ctx is cancelled. A reconnect
// resumes after the last event seen when the server still has it, and
// reports AllTrips either way.
func (s *MongoTripStore) Run(ctx context.Context, handler ChangeHandler) error {
	var token bson.Raw
	for attempt := 0; ; attempt++ {
		err := s.watch(ctx, handler, &token, attempt > 0)
		if ctx.Err() != nil {
			return nil
		}
		s.logger.Warn("trip change stream interrupted; reconnecting",
			slog.String("collection", tripsCollection),
			slog.Bool("resumable", token != nil),
			slog.Any("error", err),
			slog.Duration("backoff", s.backoff),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.backoff):
		}
	}
}

func (s *MongoTripStore) watch(ctx context.Context, handler ChangeHandler, token *bson.Raw, reconnect bool) error {
	opts := options.ChangeStream()
	if *token != nil {
		opts.SetResumeAfter(*token)
	}
	stream, err := s.c.Watch(ctx, mongo.Pipeline{}, opts)
	if err != nil {
		// The token may have aged out of the oplog; start fresh next time.
		*token = nil
		return fmt.Errorf("repo.MongoTripStore.watch: %w", err)
	}
	defer stream.Close(context.WithoutCancel(ctx))

	if reconnect {
		handler(ctx, AllTrips)
	}
	for stream.Next(ctx) {
		*token = stream.ResumeToken()
		var ev changeEvent
		if err := stream.Decode(&ev); err != nil {
			s.logger.Warn("ignoring undecodable change event", slog.Any("error", err))
			continue
		}
		handler(ctx, ev.DocumentKey.ID)
	}
	return stream.Err()
}

// MongoUserStore stores accounts in the users collection keyed by uid.
type MongoUserStore struct {
	c *mongo.Collection
}

// NewMongoUserStore creates a user directory on db.
func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{c: db.Collection(usersCollection)}
}

func (s *MongoUserStore) Create(ctx context.Context, user domain.User) (domain.User, error) {
	user.Email = normalizeEmail(user.Email)
	if _, err := s.c.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.User{}, fmt.Errorf("repo.MongoUserStore.Create: %w: email already registered", domain.ErrConflict)
		}
		return domain.User{}, fmt.Errorf("repo.MongoUserStore.Create: %w", err)
	}
	return user, nil
}

func (s *MongoUserStore) GetByID(ctx context.Context, uid string) (domain.User, error) {
	return s.findOne(ctx, "repo.MongoUserStore.GetByID", bson.M{"_id": uid})
}

func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.findOne(ctx, "repo.MongoUserStore.FindByEmail", bson.M{"email": normalizeEmail(email)})
}

func (s *MongoUserStore) findOne(ctx context.Context, op string, filter bson.M) (domain.User, error) {
	var u domain.User
	err := s.c.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
