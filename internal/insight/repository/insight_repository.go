package repository

import (
	"gorm.io/gorm"

	"aikb-backend/internal/insight/domain"
)

// EntityAggregate is one entity plus the IDs of the emails that
// mention it, ready for a rebuild pass.
type EntityAggregate struct {
	Entity   domain.Entity
	EmailIDs []uint
}

// ToolAggregate is one tool plus the IDs of the emails that mention
// it.
type ToolAggregate struct {
	Tool     domain.Tool
	EmailIDs []uint
}

// InsightRepository stores extracted entities and tools. Both tables
// are derived; rebuilds replace them wholesale inside a transaction so
// readers never see a half-built state.
type InsightRepository interface {
	RebuildEntities(aggregates []EntityAggregate) error
	RebuildTools(aggregates []ToolAggregate) error
	Entities(entityType string, limit int) ([]*domain.Entity, error)
	ToolRankings(limit int) ([]*domain.Tool, error)
	ToolsByCategory() (map[string][]*domain.Tool, error)
	ToolNamesForEmail(emailID uint) ([]string, error)
	EntityCount() (int64, error)
	ToolCount() (int64, error)
}

type insightRepository struct {
	db *gorm.DB
}

func NewInsightRepository(db *gorm.DB) InsightRepository {
	return &insightRepository{db: db}
}

func (r *insightRepository) RebuildEntities(aggregates []EntityAggregate) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.EmailEntity{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&domain.Entity{}).Error; err != nil {
			return err
		}
		for i := range aggregates {
			agg := &aggregates[i]
			if err := tx.Create(&agg.Entity).Error; err != nil {
				return err
			}
			for _, emailID := range agg.EmailIDs {
				assoc := domain.EmailEntity{EmailID: emailID, EntityID: agg.Entity.ID}
				if err := tx.Create(&assoc).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (r *insightRepository) RebuildTools(aggregates []ToolAggregate) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.ToolMention{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&domain.Tool{}).Error; err != nil {
			return err
		}
		for i := range aggregates {
			agg := &aggregates[i]
			if err := tx.Create(&agg.Tool).Error; err != nil {
				return err
			}
			for _, emailID := range agg.EmailIDs {
				mention := domain.ToolMention{EmailID: emailID, ToolID: agg.Tool.ID}
				if err := tx.Create(&mention).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (r *insightRepository) Entities(entityType string, limit int) ([]*domain.Entity, error) {
	var entities []*domain.Entity
	query := r.db.Order("mention_count DESC").Limit(limit)
	if entityType != "" {
		query = query.Where("type = ?", entityType)
	}
	err := query.Find(&entities).Error
	return entities, err
}

func (r *insightRepository) ToolRankings(limit int) ([]*domain.Tool, error) {
	var tools []*domain.Tool
	err := r.db.Order("mention_count DESC").Limit(limit).Find(&tools).Error
	return tools, err
}

func (r *insightRepository) ToolsByCategory() (map[string][]*domain.Tool, error) {
	var tools []*domain.Tool
	err := r.db.Order("category, mention_count DESC").Find(&tools).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]*domain.Tool)
	for _, tool := range tools {
		grouped[tool.Category] = append(grouped[tool.Category], tool)
	}
	return grouped, nil
}

func (r *insightRepository) ToolNamesForEmail(emailID uint) ([]string, error) {
	var names []string
	err := r.db.Model(&domain.Tool{}).
		Joins("JOIN tool_mentions tm ON tm.tool_id = tools.id").
		Where("tm.email_id = ?", emailID).
		Pluck("tools.name", &names).Error
	return names, err
}

func (r *insightRepository) EntityCount() (int64, error) {
	var count int64
	err := r.db.Model(&domain.Entity{}).Count(&count).Error
	return count, err
}

func (r *insightRepository) ToolCount() (int64, error) {
	var count int64
	err := r.db.Model(&domain.Tool{}).Count(&count).Error
	return count, err
}
