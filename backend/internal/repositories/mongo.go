package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ps-vitor/immo-sys/backend/internal/domain"
)

const (
	propertiesCollection = "properties"
	articlesCollection   = "articles"
	pagesCollection      = "pages"
)

// Connect opens a client and checks the server answers.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

type MongoPropertyRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoPropertyRepository(client *mongo.Client, db *mongo.Database) *MongoPropertyRepository {
	return &MongoPropertyRepository{client: client, coll: db.Collection(propertiesCollection)}
}

// EnsureIndexes creates the lookup index on reference. It is not unique: the importer
// does not guarantee unique generated references.
func (r *MongoPropertyRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "reference", Value: 1}}},
		{Keys: bson.D{{Key: "hidden", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func (r *MongoPropertyRepository) Create(ctx context.Context, doc domain.PropertyDocument) (string, error) {
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert property %s: %w", doc.Reference, err)
	}
	return doc.ID, nil
}

func (r *MongoPropertyRepository) FindAll(ctx context.Context) ([]domain.PropertyDocument, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find properties: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []domain.PropertyDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}
	return docs, nil
}

func (r *MongoPropertyRepository) FindByReference(ctx context.Context, refOrID string) (domain.PropertyDocument, error) {
	var doc domain.PropertyDocument
	err := r.coll.FindOne(ctx, targetFilter(refOrID)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, fmt.Errorf("property %q: %w", refOrID, ErrNotFound)
	}
	if err != nil {
		return doc, fmt.Errorf("find property %q: %w", refOrID, err)
	}
	return doc, nil
}

// Apply needs a replica set: transactions are not available on standalone servers.
func (r *MongoPropertyRepository) Apply(ctx context.Context, mutations []Mutation) (int, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return 0, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	applied, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		n := 0
		for _, m := range mutations {
			switch m.Op {
			case OpPatch:
				res, err := r.coll.UpdateOne(sc, targetFilter(m.Target), bson.M{"$set": patchFields(m.Patch)})
				if err != nil {
					return nil, fmt.Errorf("patch %q: %w", m.Target, err)
				}
				if res.MatchedCount == 0 {
					return nil, fmt.Errorf("property %q: %w", m.Target, ErrNotFound)
				}
			case OpDelete:
				res, err := r.coll.DeleteOne(sc, targetFilter(m.Target))
				if err != nil {
					return nil, fmt.Errorf("delete %q: %w", m.Target, err)
				}
				if res.DeletedCount == 0 {
					return nil, fmt.Errorf("property %q: %w", m.Target, ErrNotFound)
				}
			default:
				return nil, fmt.Errorf("unknown mutation op %d", m.Op)
			}
			n++
		}
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return applied.(int), nil
}

func targetFilter(target string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"_id": target},
		bson.M{"reference": target},
	}}
}

func patchFields(p Patch) bson.M {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Hidden != nil {
		set["hidden"] = *p.Hidden
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	return set
}

type MongoContentRepository struct {
	db *mongo.Database
}

func NewMongoContentRepository(db *mongo.Database) *MongoContentRepository {
	return &MongoContentRepository{db: db}
}

func (r *MongoContentRepository) Articles(ctx context.Context) ([]domain.ContentEntry, error) {
	return r.entries(ctx, articlesCollection)
}

func (r *MongoContentRepository) Pages(ctx context.Context) ([]domain.ContentEntry, error) {
	return r.entries(ctx, pagesCollection)
}

func (r *MongoContentRepository) entries(ctx context.Context, collection string) ([]domain.ContentEntry, error) {
	opts := options.Find().
		SetProjection(bson.M{"slug": 1, "title": 1, "updated_at": 1}).
		SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.db.Collection(collection).Find(ctx, bson.M{"slug": bson.M{"$ne": ""}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var entries []domain.ContentEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return entries, nil
}
