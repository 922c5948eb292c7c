package gateway

import (
	"context"
	"errors"
	"time"

	"learnhub/apperrors"
	"learnhub/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IntentRegistry remembers which student and course an intent was issued for
type IntentRegistry interface {
	Save(ctx context.Context, intent models.PaymentIntent) error
	Find(ctx context.Context, intentID string) (*models.PaymentIntent, error)
}

// GormIntentRegistry stores intents in the payment_intents table
type GormIntentRegistry struct {
	db *gorm.DB
}

func NewGormIntentRegistry(db *gorm.DB) *GormIntentRegistry {
	return &GormIntentRegistry{db: db}
}

func (r *GormIntentRegistry) Save(ctx context.Context, intent models.PaymentIntent) error {
	// Re-issuing the same gateway id keeps the first record
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "intent_id"}}, DoNothing: true}).
		Create(&intent).Error
}

func (r *GormIntentRegistry) Find(ctx context.Context, intentID string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("intent_id = ? AND expires_at > ?", intentID, time.Now()).
		First(&intent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("gateway.FindIntent", "Payment intent not found or expired!")
	}
	if err != nil {
		return nil, apperrors.Classify("gateway.FindIntent", err)
	}
	return &intent, nil
}
