package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/satriahrh/marcus/domain/entities"
	"github.com/satriahrh/marcus/domain/repositories"
)

// profileDocumentID is the key of the single profile document
const profileDocumentID = "business_profile"

// MongoClient wraps the MongoDB client and database
type MongoClient struct {
	*mongo.Client
	Database *mongo.Database
	logger   *zap.Logger
}

// NewMongoClient creates a new MongoDB client connection
func NewMongoClient(ctx context.Context, uri, dbName string, logger *zap.Logger) (*MongoClient, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(4).
		SetMinPoolSize(1).
		SetMaxConnIdleTime(30 * time.Minute).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("Successfully connected to MongoDB", zap.String("database", dbName))

	return &MongoClient{
		Client:   client,
		Database: client.Database(dbName),
		logger:   logger,
	}, nil
}

// Close closes the MongoDB connection
func (c *MongoClient) Close(ctx context.Context) error {
	if err := c.Client.Disconnect(ctx); err != nil {
		c.logger.Error("Failed to disconnect from MongoDB", zap.Error(err))
		return err
	}
	c.logger.Info("Disconnected from MongoDB")
	return nil
}

// MongoRepository stores the business profile as one document
type MongoRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

var _ repositories.ProfileRepository = (*MongoRepository)(nil)

// NewMongoRepository creates a MongoDB profile repository
func NewMongoRepository(db *mongo.Database, logger *zap.Logger) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection("business_profiles"),
		logger:     logger,
	}
}

// Load implements repositories.ProfileRepository
func (r *MongoRepository) Load(ctx context.Context) (*entities.BusinessProfile, error) {
	var profile entities.BusinessProfile
	err := r.collection.FindOne(ctx, bson.M{"_id": profileDocumentID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load business profile: %w", err)
	}
	return &profile, nil
}

// Save implements repositories.ProfileRepository
func (r *MongoRepository) Save(ctx context.Context, profile *entities.BusinessProfile) error {
	if profile == nil {
		return errors.New("profile cannot be nil")
	}

	update := bson.M{"$set": profile}
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": profileDocumentID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		r.logger.Error("Failed to save business profile", zap.Error(err))
		return fmt.Errorf("failed to save business profile: %w", err)
	}

	r.logger.Info("Business profile saved", zap.String("collection", r.collection.Name()))
	return nil
}
