package models

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuoteCounter is the single counter row backing quote-number allocation.
// Value is the last number handed out; allocation increments it by exactly
// one under a row lock so no two callers ever observe the same value.
type QuoteCounter struct {
	ID    uint  `gorm:"primaryKey"`
	Value int64 `gorm:"not null"`
}

const quoteCounterID = 1

// NextQuoteNumber atomically increments the counter and returns the new
// value. The first allocation seeds the row with start and returns start+1.
func NextQuoteNumber(db *gorm.DB, start int64) (int64, error) {
	var next int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var counter QuoteCounter
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&counter, quoteCounterID).Error
		if err == gorm.ErrRecordNotFound {
			counter = QuoteCounter{ID: quoteCounterID, Value: start}
			if err := tx.Create(&counter).Error; err != nil {
				return fmt.Errorf("failed to seed quote counter: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to lock quote counter: %w", err)
		}

		counter.Value++
		if err := tx.Save(&counter).Error; err != nil {
			return fmt.Errorf("failed to advance quote counter: %w", err)
		}
		next = counter.Value
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}
