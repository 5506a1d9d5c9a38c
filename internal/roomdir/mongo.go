package roomdir

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	roomsCollection = "rooms"
	connectRetries  = 3
)

// roomDocument is the persisted shape of a directory entry.
type roomDocument struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Name string             `bson:"roomName"`
}

// MongoDirectory is a Directory backed by a MongoDB collection.
type MongoDirectory struct {
	collection *mongo.Collection
	client     *mongo.Client
}

// NewMongoDirectory connects to MongoDB with the given URI and returns a
// directory over the rooms collection of the named database. Transient
// connection failures are retried a few times before giving up.
func NewMongoDirectory(ctx context.Context, uri, database string) (*MongoDirectory, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}

	opts := options.Client().ApplyURI(uri)

	var (
		client *mongo.Client
		err    error
	)
	for i := 0; i < connectRetries; i++ {
		client, err = connectMongo(ctx, opts)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second / 2):
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to MongoDB at %q", uri)
	}

	return &MongoDirectory{
		collection: client.Database(database).Collection(roomsCollection),
		client:     client,
	}, nil
}

func connectMongo(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// Close disconnects the underlying client.
func (d *MongoDirectory) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// List returns all rooms in creation order. ObjectIDs embed their creation
// time, so sorting by _id preserves insertion order.
func (d *MongoDirectory) List(ctx context.Context) ([]Room, error) {
	cursor, err := d.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, errors.Wrap(err, "listing rooms")
	}

	var docs []roomDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding rooms")
	}

	rooms := make([]Room, 0, len(docs))
	for _, doc := range docs {
		rooms = append(rooms, Room{ID: doc.ID.Hex(), Name: doc.Name})
	}
	return rooms, nil
}

// Create adds a room with the given name and returns it.
func (d *MongoDirectory) Create(ctx context.Context, name string) (Room, error) {
	doc := roomDocument{ID: primitive.NewObjectID(), Name: name}
	if _, err := d.collection.InsertOne(ctx, doc); err != nil {
		return Room{}, errors.Wrapf(err, "creating room %q", name)
	}
	return Room{ID: doc.ID.Hex(), Name: doc.Name}, nil
}

// DeleteOne removes the room with the given id.
func (d *MongoDirectory) DeleteOne(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrRoomNotFound
	}

	result, err := d.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrapf(err, "deleting room %s", id)
	}
	if result.DeletedCount == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// DeleteAll removes every room.
func (d *MongoDirectory) DeleteAll(ctx context.Context) error {
	if _, err := d.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return errors.Wrap(err, "deleting all rooms")
	}
	return nil
}
