package repository

import (
	"gorm.io/gorm"

	"github.com/quotefox/quotefox/app/models"
)

// counterRepository implements the CounterRepository interface
type counterRepository struct {
	db *gorm.DB
}

// NewCounterRepository creates a new counter repository instance
func NewCounterRepository(db *gorm.DB) CounterRepository {
	return &counterRepository{db: db}
}

// Next advances the quote counter by exactly one and returns the new value.
// The atomicity guarantee lives in models.NextQuoteNumber (row lock).
func (r *counterRepository) Next(start int64) (int64, error) {
	return models.NextQuoteNumber(r.db, start)
}
