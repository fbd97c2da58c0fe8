package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"deckeditor/internal/domain"
)

// mongoDeck is the stored shape of a deck. The document is kept as JSON text
// so the element variants round-trip exactly as the editor wrote them.
type mongoDeck struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	OwnerID   string    `bson:"ownerId"`
	Document  string    `bson:"document"`
	Version   int64     `bson:"version"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoStore keeps one document per deck in a collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// OpenMongo connects to uri and uses the decks collection of database.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	if database == "" {
		database = "deckeditor"
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection("decks"),
		now:    time.Now,
	}, nil
}

func (s *MongoStore) LoadDeck(ctx context.Context, id string) (*domain.Deck, error) {
	var row mongoDeck
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrDeckNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load deck: %w", err)
	}
	var deck domain.Deck
	if err := json.Unmarshal([]byte(row.Document), &deck); err != nil {
		return nil, fmt.Errorf("decode deck %s: %w", id, err)
	}
	deck.Meta.UpdatedAt = row.UpdatedAt.UTC()
	return &deck, nil
}

// SaveDeck upserts deck by id and increments its version.
func (s *MongoStore) SaveDeck(ctx context.Context, deck *domain.Deck) (*domain.SaveAck, error) {
	now := s.now().UTC().Truncate(time.Millisecond)
	c := *deck
	c.Meta.UpdatedAt = now
	doc, err := json.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("encode deck: %w", err)
	}

	update := bson.M{
		"$set": bson.M{
			"title":     c.Meta.Title,
			"ownerId":   c.Meta.OwnerID,
			"document":  string(doc),
			"updatedAt": now,
		},
		"$inc": bson.M{"version": int64(1)},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var row mongoDeck
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": c.Meta.ID}, update, opts).Decode(&row); err != nil {
		return nil, fmt.Errorf("upsert deck: %w", err)
	}
	return &domain.SaveAck{DeckID: row.ID, Version: row.Version, UpdatedAt: now}, nil
}

// ListDecks returns every stored deck, most recently updated first.
func (s *MongoStore) ListDecks(ctx context.Context) ([]DeckSummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetProjection(bson.M{"document": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	var rows []mongoDeck
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode decks: %w", err)
	}
	out := make([]DeckSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, DeckSummary{ID: r.ID, Title: r.Title, Version: r.Version, UpdatedAt: r.UpdatedAt.UTC()})
	}
	return out, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
