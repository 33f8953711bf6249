package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/newsharvest/internal/quality"
	"github.com/IshaanNene/newsharvest/internal/types"
)

// Collection names used by MongoStorage.
const (
	ArticlesCollection = "articles"
	FactorsCollection  = "quality_factors"
)

// articleDocument is the persisted shape of an article. Content is not stored.
type articleDocument struct {
	Date             string    `bson:"date"`
	Headline         string    `bson:"headline"`
	ArticleURL       string    `bson:"article_url"`
	SourceURL        string    `bson:"source_url"`
	Backend          string    `bson:"backend,omitempty"`
	ContentHash      string    `bson:"content_hash,omitempty"`
	QualityScore     int       `bson:"quality_score"`
	ContentLength    int       `bson:"content_length"`
	SentenceCount    int       `bson:"sentence_count"`
	TechKeywordCount int       `bson:"tech_keyword_count"`
	Sentiment        string    `bson:"sentiment"`
	Summary          string    `bson:"summary"`
	Relevant         string    `bson:"relevant"`
	ProcessingStatus string    `bson:"processing_status"`
	RunID            string    `bson:"run_id,omitempty"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

type factorDocument struct {
	ArticleID  primitive.ObjectID `bson:"article_id"`
	FactorName string             `bson:"factor_name"`
}

func toDocument(a *types.Article, runID string, now time.Time) articleDocument {
	return articleDocument{
		Date:             a.Date,
		Headline:         a.Headline,
		ArticleURL:       a.ArticleURL,
		SourceURL:        a.SourceURL,
		Backend:          a.Backend,
		ContentHash:      a.ContentHash,
		QualityScore:     a.QualityScore,
		ContentLength:    a.ContentLength,
		SentenceCount:    a.SentenceCount,
		TechKeywordCount: a.TechKeywordCount,
		Sentiment:        a.Sentiment,
		Summary:          a.Summary,
		Relevant:         a.Relevant,
		ProcessingStatus: string(a.ProcessingStatus),
		RunID:            runID,
		UpdatedAt:        now.UTC(),
	}
}

// upsertFilter selects the stored row for an article. Rows are keyed by
// content hash. Articles without content fall back to their URL.
func upsertFilter(a *types.Article) (bson.D, bool) {
	hash := a.ContentHash
	if hash == "" && strings.TrimSpace(a.Content) != "" {
		hash = quality.ContentHash(a.Content)
		a.ContentHash = hash
	}
	if hash != "" {
		return bson.D{{Key: "content_hash", Value: hash}}, true
	}
	if a.ArticleURL != "" {
		return bson.D{{Key: "article_url", Value: a.ArticleURL}}, true
	}
	return nil, false
}

// --- MongoDB Storage ---

// MongoStorage upserts articles and their quality factors into MongoDB.
type MongoStorage struct {
	client   *mongo.Client
	articles *mongo.Collection
	factors  *mongo.Collection
	runID    string
	timeout  time.Duration
	mu       sync.Mutex
	count    int
	logger   *slog.Logger
}

// NewMongoStorage connects, pings and ensures the collection indexes.
func NewMongoStorage(ctx context.Context, uri, database, runID string, logger *slog.Logger) (*MongoStorage, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("connect: %w", err)}
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("ping: %w", err)}
	}

	db := client.Database(database)
	s := &MongoStorage{
		client:   client,
		articles: db.Collection(ArticlesCollection),
		factors:  db.Collection(FactorsCollection),
		runID:    runID,
		timeout:  30 * time.Second,
		logger:   logger.With("component", "mongo_storage"),
	}

	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStorage) ensureIndexes(ctx context.Context) error {
	_, err := s.articles.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "content_hash", Value: 1}},
			Options: options.Index().
				SetName("content_hash_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"content_hash": bson.M{"$type": "string"}}),
		},
		{
			Keys:    bson.D{{Key: "article_url", Value: 1}},
			Options: options.Index().SetName("article_url"),
		},
	})
	if err != nil {
		return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("create article indexes: %w", err)}
	}

	_, err = s.factors.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "article_id", Value: 1}},
		Options: options.Index().SetName("article_id"),
	})
	if err != nil {
		return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("create factor indexes: %w", err)}
	}
	return nil
}

func (s *MongoStorage) Name() string { return "mongodb" }

// Store upserts each article by content hash and replaces its quality factors.
func (s *MongoStorage) Store(articles []*types.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	now := time.Now()
	for _, a := range articles {
		if a == nil {
			continue
		}
		filter, ok := upsertFilter(a)
		if !ok {
			s.logger.Warn("article has no hash or url, not stored", "headline", a.Headline)
			continue
		}

		id, err := s.upsertArticle(ctx, filter, toDocument(a, s.runID, now), now)
		if err != nil {
			return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("upsert %s: %w", a.ArticleURL, err)}
		}
		if err := s.replaceFactors(ctx, id, a.QualityFactors); err != nil {
			return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("quality factors %s: %w", a.ArticleURL, err)}
		}
		s.count++
	}

	s.logger.Debug("articles stored in mongodb", "count", len(articles), "total", s.count)
	return nil
}

func (s *MongoStorage) upsertArticle(ctx context.Context, filter bson.D, doc articleDocument, now time.Time) (primitive.ObjectID, error) {
	update := bson.D{
		{Key: "$set", Value: doc},
		{Key: "$setOnInsert", Value: bson.D{{Key: "created_at", Value: now.UTC()}}},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "_id", Value: 1}})

	var stored struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := s.articles.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return primitive.NilObjectID, err
	}
	return stored.ID, nil
}

func (s *MongoStorage) replaceFactors(ctx context.Context, id primitive.ObjectID, factors []string) error {
	if _, err := s.factors.DeleteMany(ctx, bson.D{{Key: "article_id", Value: id}}); err != nil {
		return err
	}
	if len(factors) == 0 {
		return nil
	}
	docs := make([]any, len(factors))
	for i, f := range factors {
		docs[i] = factorDocument{ArticleID: id, FactorName: f}
	}
	_, err := s.factors.InsertMany(ctx, docs)
	return err
}

func (s *MongoStorage) Close() error {
	s.logger.Info("mongodb storage closing", "total_articles", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
