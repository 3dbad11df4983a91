package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/talgya/castaway/internal/engine"
)

const savesCollection = "saves"

// MongoStore keeps one document per slot.
type MongoStore struct {
	client *mongo.Client
	saves  *mongo.Collection
}

type saveDocument struct {
	Slot     string          `bson:"_id"`
	SavedAt  time.Time       `bson:"saved_at"`
	Day      int             `bson:"day"`
	Snapshot engine.Snapshot `bson:"snapshot"`
}

// OpenMongo connects to uri and verifies the connection.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongo uri not set")
	}
	if database == "" {
		database = "castaway"
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	slog.Info("connected to mongo", "database", database)
	return &MongoStore{
		client: client,
		saves:  client.Database(database).Collection(savesCollection),
	}, nil
}

// Save upserts the slot document.
func (m *MongoStore) Save(ctx context.Context, slot string, snap *engine.Snapshot) error {
	doc := saveDocument{Slot: slot, SavedAt: time.Now().UTC(), Day: snap.Day, Snapshot: *snap}
	_, err := m.saves.ReplaceOne(ctx, bson.M{"_id": slot}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save slot %q: %w", slot, err)
	}
	slog.Info("game saved", "slot", slot, "day", snap.Day, "backend", "mongo")
	return nil
}

// Load reads the slot document.
func (m *MongoStore) Load(ctx context.Context, slot string) (*engine.Snapshot, error) {
	var doc saveDocument
	err := m.saves.FindOne(ctx, bson.M{"_id": slot}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("slot %q: %w", slot, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %q: %w", slot, err)
	}
	return &doc.Snapshot, nil
}

// Close disconnects the client.
func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
