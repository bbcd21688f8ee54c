package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/quotefox/quotefox/app/models"
)

// quotationRepository implements the QuotationRepository interface
type quotationRepository struct {
	db *gorm.DB
}

// NewQuotationRepository creates a new quotation repository instance
func NewQuotationRepository(db *gorm.DB) QuotationRepository {
	return &quotationRepository{db: db}
}

func (r *quotationRepository) Create(q *models.Quotation) error {
	return r.db.Create(q).Error
}

func (r *quotationRepository) GetByExternalID(externalID string) (*models.Quotation, error) {
	var q models.Quotation
	err := r.db.Where("external_id = ?", externalID).First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

// GetByGmailMessageID is the ingestion dedup lookup. Returns (nil, nil) when
// no quotation was imported from that message yet.
func (r *quotationRepository) GetByGmailMessageID(messageID string) (*models.Quotation, error) {
	var q models.Quotation
	err := r.db.Where("gmail_message_id = ?", messageID).First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (r *quotationRepository) Update(q *models.Quotation) error {
	return r.db.Save(q).Error
}

func (r *quotationRepository) List(offset, limit int) ([]models.Quotation, error) {
	var quotations []models.Quotation
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&quotations).Error
	return quotations, err
}

func (r *quotationRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Quotation{}).Count(&count).Error
	return count, err
}
