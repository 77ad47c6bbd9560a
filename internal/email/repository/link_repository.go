package repository

import (
	"gorm.io/gorm"

	"aikb-backend/internal/email/domain"
)

// LinkRepository manages extracted link rows and their fetched
// metadata.
type LinkRepository interface {
	// Pending returns links never fetched, oldest first, up to limit.
	// limit <= 0 means no cap.
	Pending(limit int) ([]*domain.EmailLink, error)
	Update(link *domain.EmailLink) error
	CountByStatus() (map[string]int64, error)
	// TopDomains counts links per domain, most common first.
	TopDomains(limit int) ([]DomainCount, error)
}

type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

type linkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Pending(limit int) ([]*domain.EmailLink, error) {
	var links []*domain.EmailLink
	query := r.db.Where("fetch_status = ?", domain.LinkStatusPending).Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&links).Error
	return links, err
}

func (r *linkRepository) Update(link *domain.EmailLink) error {
	return r.db.Save(link).Error
}

func (r *linkRepository) CountByStatus() (map[string]int64, error) {
	var rows []struct {
		FetchStatus string
		Count       int64
	}
	err := r.db.Model(&domain.EmailLink{}).
		Select("fetch_status, count(*) as count").
		Group("fetch_status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.FetchStatus] = row.Count
	}
	return counts, nil
}

func (r *linkRepository) TopDomains(limit int) ([]DomainCount, error) {
	var rows []DomainCount
	err := r.db.Model(&domain.EmailLink{}).
		Select("domain, count(*) as count").
		Where("domain != ''").
		Group("domain").
		Order("count DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
