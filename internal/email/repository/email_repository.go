package repository

import (
	"time"

	"gorm.io/gorm"

	"aikb-backend/internal/email/domain"
)

// insertChunkSize bounds each transaction so a crash mid-batch
// preserves completed chunks.
const insertChunkSize = 50

// EmailRepository defines storage operations for the message corpus.
type EmailRepository interface {
	// CreateBatch inserts emails with their links and categories,
	// committing in chunks.
	CreateBatch(emails []*domain.Email) error
	// SubjectDatePairs returns the raw (subject, date) pairs of every
	// stored email, for fingerprint-set construction.
	SubjectDatePairs() ([][2]string, error)
	GetByID(id uint) (*domain.Email, error)
	Recent(limit int) ([]*domain.Email, error)
	All() ([]*domain.Email, error)
	ByCategory(category string, limit, offset int) ([]*domain.Email, error)
	ByDateRange(from, to time.Time) ([]*domain.Email, error)
	KeywordSearch(query string, limit int) ([]*domain.Email, error)
	// MissingSummary returns emails whose summary is absent or empty:
	// the gap-fill signal for the next enrichment pass.
	MissingSummary() ([]*domain.Email, error)
	MissingEmbedding() ([]*domain.Email, error)
	WithEmbeddings() ([]*domain.Email, error)
	UpdateSummary(id uint, summary string) error
	UpdateEmbedding(id uint, embedding []byte) error
	// ReplaceCategories swaps an email's category set atomically.
	ReplaceCategories(emailID uint, categories []string) error
	Count() (int64, error)
	MaxDateParsed() (*time.Time, error)
}

type emailRepository struct {
	db *gorm.DB
}

func NewEmailRepository(db *gorm.DB) EmailRepository {
	return &emailRepository{db: db}
}

func (r *emailRepository) CreateBatch(emails []*domain.Email) error {
	for start := 0; start < len(emails); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(emails) {
			end = len(emails)
		}
		chunk := emails[start:end]

		err := r.db.Transaction(func(tx *gorm.DB) error {
			for _, email := range chunk {
				if err := tx.Create(email).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *emailRepository) SubjectDatePairs() ([][2]string, error) {
	var rows []struct {
		Subject string
		Date    string
	}
	if err := r.db.Model(&domain.Email{}).Select("subject", "date").Find(&rows).Error; err != nil {
		return nil, err
	}

	pairs := make([][2]string, len(rows))
	for i, row := range rows {
		pairs[i] = [2]string{row.Subject, row.Date}
	}
	return pairs, nil
}

func (r *emailRepository) GetByID(id uint) (*domain.Email, error) {
	var email domain.Email
	err := r.db.Preload("Links").Preload("Categories").First(&email, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &email, nil
}

func (r *emailRepository) Recent(limit int) ([]*domain.Email, error) {
	var emails []*domain.Email
	err := r.db.Preload("Categories").
		Where("date_parsed IS NOT NULL").
		Order("date_parsed DESC").
		Limit(limit).
		Find(&emails).Error
	return emails, err
}

func (r *emailRepository) All() ([]*domain.Email, error) {
	var emails []*domain.Email
	err := r.db.Preload("Links").Preload("Categories").Order("id ASC").Find(&emails).Error
	return emails, err
}

func (r *emailRepository) ByCategory(category string, limit, offset int) ([]*domain.Email, error) {
	var emails []*domain.Email
	err := r.db.Preload("Categories").
		Joins("JOIN email_categories ec ON ec.email_id = emails.id").
		Where("ec.category = ?", category).
		Order("emails.date_parsed DESC").
		Limit(limit).Offset(offset).
		Find(&emails).Error
	return emails, err
}

func (r *emailRepository) ByDateRange(from, to time.Time) ([]*domain.Email, error) {
	var emails []*domain.Email
	err := r.db.Preload("Categories").
		Where("date_parsed >= ? AND date_parsed <= ?", from, to).
		Order("date_parsed DESC").
		Find(&emails).Error
	return emails, err
}

func (r *emailRepository) KeywordSearch(query string, limit int) ([]*domain.Email, error) {
	var emails []*domain.Email
	pattern := "%" + query + "%"
	// SQLite LIKE is case-insensitive for ASCII by default.
	err := r.db.Preload("Links").
		Where("subject LIKE ? OR body LIKE ? OR summary LIKE ?", pattern, pattern, pattern).
		Order("date_parsed DESC").
		Limit(limit).
		Find(&emails).Error
	return emails, err
}

func (r *emailRepository) MissingSummary() ([]*domain.Email, error) {
	var emails []*domain.Email
	err := r.db.Preload("Links").
		Where("summary IS NULL OR summary = ''").
		Order("id ASC").
		Find(&emails).Error
	return emails, err
}

func (r *emailRepository) MissingEmbedding() ([]*domain.Email, error) {
	var emails []*domain.Email
	err := r.db.Where("embedding IS NULL OR length(embedding) = 0").
		Order("id ASC").
		Find(&emails).Error
	return emails, err
}

func (r *emailRepository) WithEmbeddings() ([]*domain.Email, error) {
	var emails []*domain.Email
	err := r.db.Where("embedding IS NOT NULL AND length(embedding) > 0").
		Order("id ASC").
		Find(&emails).Error
	return emails, err
}

func (r *emailRepository) UpdateSummary(id uint, summary string) error {
	return r.db.Model(&domain.Email{}).Where("id = ?", id).
		Update("summary", summary).Error
}

func (r *emailRepository) UpdateEmbedding(id uint, embedding []byte) error {
	return r.db.Model(&domain.Email{}).Where("id = ?", id).
		Update("embedding", embedding).Error
}

func (r *emailRepository) ReplaceCategories(emailID uint, categories []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email_id = ?", emailID).Delete(&domain.EmailCategory{}).Error; err != nil {
			return err
		}
		for _, category := range categories {
			assoc := domain.EmailCategory{EmailID: emailID, Category: category}
			if err := tx.Create(&assoc).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *emailRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&domain.Email{}).Count(&count).Error
	return count, err
}

func (r *emailRepository) MaxDateParsed() (*time.Time, error) {
	var email domain.Email
	err := r.db.Where("date_parsed IS NOT NULL").
		Order("date_parsed DESC").
		First(&email).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return email.DateParsed, nil
}
