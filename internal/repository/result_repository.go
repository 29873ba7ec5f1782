package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"quizflow-service/internal/models"
	"quizflow-service/internal/quizerr"
)

// ResultRepository is the append-only store for finalized quiz results.
// Results are never updated after creation.
type ResultRepository struct {
	Col *mongo.Collection
}

func NewResultRepository(db *mongo.Database) *ResultRepository {
	return &ResultRepository{Col: db.Collection("results")}
}

func (r *ResultRepository) Create(ctx context.Context, result *models.QuizResult) error {
	if result.ID == "" {
		result.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.Col.InsertOne(ctx, result); err != nil {
		return quizerr.Wrap(quizerr.Persistence, "insert result", err)
	}
	return nil
}

func (r *ResultRepository) FindByID(ctx context.Context, id string) (*models.QuizResult, error) {
	var result models.QuizResult
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, quizerr.Newf(quizerr.NotFound, "result %s not found", id)
	}
	if err != nil {
		return nil, quizerr.Wrap(quizerr.Persistence, "fetch result", err)
	}
	return &result, nil
}
