package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	emaildomain "aikb-backend/internal/email/domain"
	emailrepo "aikb-backend/internal/email/repository"
	"aikb-backend/internal/insight/domain"
	"aikb-backend/internal/insight/repository"
	"aikb-backend/pkg/ai"
)

// Extractor scans the corpus for entity and tool mentions and rebuilds
// the derived tables. Extraction is pattern-based by default; with an
// AI service it upgrades a bounded prefix of emails to LLM extraction,
// falling back to patterns per email on failure.
type Extractor struct {
	emails   emailrepo.EmailRepository
	insights repository.InsightRepository
	ai       ai.Service
	logger   *zap.Logger
	llmLimit int
	timeout  time.Duration
}

func NewExtractor(emails emailrepo.EmailRepository, insights repository.InsightRepository, aiService ai.Service, logger *zap.Logger, llmLimit int, timeout time.Duration) *Extractor {
	return &Extractor{
		emails:   emails,
		insights: insights,
		ai:       aiService,
		logger:   logger,
		llmLimit: llmLimit,
		timeout:  timeout,
	}
}

type entityAccumulator struct {
	entityType string
	firstSeen  *time.Time
	lastSeen   *time.Time
	count      int
	emailIDs   []uint
	seen       map[uint]bool
}

type toolAccumulator struct {
	category string
	company  string
	first    *time.Time
	last     *time.Time
	count    int
	emailIDs []uint
	seen     map[uint]bool
}

// Run re-derives entities, tools and their email associations from
// the full corpus. Email rows are never modified.
func (x *Extractor) Run(ctx context.Context, useLLM bool) error {
	emails, err := x.emails.All()
	if err != nil {
		return err
	}
	x.logger.Info("extracting entities and tools",
		zap.Int("emails", len(emails)), zap.Bool("llm", useLLM && x.ai != nil))

	entityStats := make(map[string]*entityAccumulator)
	toolStats := make(map[string]*toolAccumulator)

	for i, email := range emails {
		if err := ctx.Err(); err != nil {
			return err
		}
		text := email.Subject + "\n" + email.Body

		var extracted []ai.ExtractedEntity
		if useLLM && x.ai != nil && i < x.llmLimit {
			extracted = x.extractWithLLM(ctx, text)
		} else {
			extracted = extractKnownEntities(text)
		}
		for _, entity := range extracted {
			accumulateEntity(entityStats, entity, email)
		}

		for _, spec := range matchTools(text) {
			accumulateTool(toolStats, spec, email)
		}

		if (i+1)%100 == 0 {
			x.logger.Info("extraction progress", zap.Int("done", i+1), zap.Int("total", len(emails)))
		}
	}

	entityAggs := make([]repository.EntityAggregate, 0, len(entityStats))
	for name, acc := range entityStats {
		entityAggs = append(entityAggs, repository.EntityAggregate{
			Entity: domain.Entity{
				Name:         name,
				Type:         acc.entityType,
				FirstSeen:    acc.firstSeen,
				LastSeen:     acc.lastSeen,
				MentionCount: acc.count,
			},
			EmailIDs: acc.emailIDs,
		})
	}
	if err := x.insights.RebuildEntities(entityAggs); err != nil {
		return err
	}

	toolAggs := make([]repository.ToolAggregate, 0, len(toolStats))
	for name, acc := range toolStats {
		toolAggs = append(toolAggs, repository.ToolAggregate{
			Tool: domain.Tool{
				Name:           name,
				NormalizedName: strings.ReplaceAll(strings.ToLower(name), " ", "_"),
				Category:       acc.category,
				Company:        acc.company,
				FirstMention:   acc.first,
				LastMention:    acc.last,
				MentionCount:   acc.count,
			},
			EmailIDs: acc.emailIDs,
		})
	}
	if err := x.insights.RebuildTools(toolAggs); err != nil {
		return err
	}

	x.logger.Info("extraction complete",
		zap.Int("entities", len(entityAggs)), zap.Int("tools", len(toolAggs)))
	return nil
}

func (x *Extractor) extractWithLLM(ctx context.Context, text string) []ai.ExtractedEntity {
	callCtx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	entities, err := x.ai.ExtractEntities(callCtx, text)
	if err != nil {
		x.logger.Warn("llm extraction failed, using patterns", zap.Error(err))
		return extractKnownEntities(text)
	}

	valid := entities[:0]
	for _, entity := range entities {
		switch entity.Type {
		case domain.EntityTypeTool, domain.EntityTypeCompany,
			domain.EntityTypeConcept, domain.EntityTypePerson:
			if entity.Name != "" {
				valid = append(valid, entity)
			}
		}
	}
	return valid
}

// extractKnownEntities matches the known-entity dictionary against the
// lowercased text, whole words only.
func extractKnownEntities(text string) []ai.ExtractedEntity {
	lower := strings.ToLower(text)

	var found []ai.ExtractedEntity
	for _, known := range knownEntityPatterns {
		if known.pattern.MatchString(lower) {
			found = append(found, ai.ExtractedEntity{Name: known.name, Type: known.entityType})
		}
	}
	return found
}

// matchTools returns the dictionary tools mentioned in text, at most
// once each. Exclusion phrases are removed before matching so "cursor
// position" alone never counts as a Cursor mention.
func matchTools(text string) []*toolSpec {
	lower := strings.ToLower(text)

	var matched []*toolSpec
	for i := range toolDictionary {
		spec := &toolDictionary[i]
		haystack := lower
		if spec.exclude != nil {
			haystack = spec.exclude.ReplaceAllString(haystack, " ")
		}
		for _, pattern := range spec.patterns {
			if pattern.MatchString(haystack) {
				matched = append(matched, spec)
				break
			}
		}
	}
	return matched
}

func accumulateEntity(stats map[string]*entityAccumulator, entity ai.ExtractedEntity, email *emaildomain.Email) {
	acc, ok := stats[entity.Name]
	if !ok {
		acc = &entityAccumulator{entityType: entity.Type, seen: make(map[uint]bool)}
		stats[entity.Name] = acc
	}
	acc.count++
	if !acc.seen[email.ID] {
		acc.seen[email.ID] = true
		acc.emailIDs = append(acc.emailIDs, email.ID)
	}
	widenRange(&acc.firstSeen, &acc.lastSeen, email.DateParsed)
}

func accumulateTool(stats map[string]*toolAccumulator, spec *toolSpec, email *emaildomain.Email) {
	acc, ok := stats[spec.name]
	if !ok {
		acc = &toolAccumulator{category: spec.category, company: spec.company, seen: make(map[uint]bool)}
		stats[spec.name] = acc
	}
	acc.count++
	if !acc.seen[email.ID] {
		acc.seen[email.ID] = true
		acc.emailIDs = append(acc.emailIDs, email.ID)
	}
	widenRange(&acc.first, &acc.last, email.DateParsed)
}

func widenRange(first, last **time.Time, date *time.Time) {
	if date == nil {
		return
	}
	if *first == nil || date.Before(**first) {
		*first = date
	}
	if *last == nil || date.After(**last) {
		*last = date
	}
}
