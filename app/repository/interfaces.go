package repository

import (
	"gorm.io/gorm"

	"github.com/quotefox/quotefox/app/models"
)

// QuotationRepository defines the interface for quotation-related database operations
type QuotationRepository interface {
	Create(q *models.Quotation) error
	GetByExternalID(externalID string) (*models.Quotation, error)
	GetByGmailMessageID(messageID string) (*models.Quotation, error)
	Update(q *models.Quotation) error
	List(offset, limit int) ([]models.Quotation, error)
	Count() (int64, error)
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	Get() (*models.AppSettings, error)
	Save(settings *models.AppSettings) error
}

// CounterRepository defines the interface for the quote-number counter
type CounterRepository interface {
	Next(start int64) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Quotation QuotationRepository
	Setting   SettingRepository
	Counter   CounterRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Quotation: NewQuotationRepository(db),
		Setting:   NewSettingRepository(db),
		Counter:   NewCounterRepository(db),
	}
}
