package ingest

import (
	"time"

	"go.uber.org/zap"

	"aikb-backend/internal/classify"
	"aikb-backend/internal/email/domain"
	"aikb-backend/internal/email/repository"
	"aikb-backend/pkg/mbox"
)

// Pipeline runs one ingestion pass: dedupe incoming records against
// the store, classify the survivors and insert them in chunks. Emails
// already stored are never touched, so enrichment output survives
// re-ingesting the same source.
type Pipeline struct {
	emails repository.EmailRepository
	runs   RunRepository
	logger *zap.Logger
}

func NewPipeline(emails repository.EmailRepository, runs RunRepository, logger *zap.Logger) *Pipeline {
	return &Pipeline{emails: emails, runs: runs, logger: logger}
}

// FromRaw converts a parsed message into an ingest record.
func FromRaw(raw mbox.RawEmail) Record {
	return Record{
		Subject:    raw.Subject,
		Date:       raw.Date,
		From:       raw.From,
		Content:    raw.Body,
		Links:      raw.Links,
		DateParsed: raw.DateParsed,
	}
}

// Ingest merges records into the store under a recorded run. Records
// without categories get rule-based ones; records without a parsed
// date get one from the raw date header when possible.
func (p *Pipeline) Ingest(source string, records []Record) (*Run, error) {
	run, err := p.runs.Start(source)
	if err != nil {
		return nil, err
	}
	run.Parsed = len(records)

	result, err := p.ingest(records, run)
	if err != nil {
		run.Status = RunStatusFailed
		run.Error = err.Error()
		if finishErr := p.runs.Finish(run); finishErr != nil {
			p.logger.Error("failed to record ingest failure", zap.Error(finishErr))
		}
		return run, err
	}

	run.Added = len(result.Added)
	run.Duplicates = result.Duplicates
	if err := p.runs.Finish(run); err != nil {
		return run, err
	}
	return run, nil
}

func (p *Pipeline) ingest(records []Record, run *Run) (*MergeResult, error) {
	existing, err := p.emails.SubjectDatePairs()
	if err != nil {
		return nil, err
	}

	merger := NewMerger(existing, p.logger)
	result := merger.Merge(records)
	if len(result.Added) == 0 {
		return &result, nil
	}

	emails := make([]*domain.Email, len(result.Added))
	for i, record := range result.Added {
		emails[i] = recordToEmail(record)
	}
	if err := p.emails.CreateBatch(emails); err != nil {
		return nil, err
	}

	p.logger.Info("ingest stored new emails",
		zap.String("run_id", run.ID), zap.Int("added", len(emails)))
	return &result, nil
}

func recordToEmail(record Record) *domain.Email {
	dateParsed := record.DateParsed
	if dateParsed == nil {
		dateParsed = mbox.ParseDate(record.Date)
	}

	categories := record.Categories
	if len(categories) == 0 {
		categories = classify.Categorize(record.Subject, record.Content)
	}

	email := &domain.Email{
		Subject:    record.Subject,
		Sender:     record.From,
		Date:       record.Date,
		DateParsed: dateParsed,
		Body:       record.Content,
		Summary:    record.Summary,
		CreatedAt:  time.Now().UTC(),
	}
	for _, category := range categories {
		email.Categories = append(email.Categories, domain.EmailCategory{Category: category})
	}
	for _, rawURL := range record.Links {
		email.Links = append(email.Links, domain.EmailLink{
			URL:         rawURL,
			Domain:      domain.DomainOf(rawURL),
			FetchStatus: domain.LinkStatusPending,
		})
	}
	return email
}

// ExportRecords converts the stored corpus back into portable records.
func (p *Pipeline) ExportRecords() ([]Record, error) {
	emails, err := p.emails.All()
	if err != nil {
		return nil, err
	}

	records := make([]Record, len(emails))
	for i, email := range emails {
		records[i] = Record{
			Subject:    email.Subject,
			Date:       email.Date,
			From:       email.Sender,
			Content:    email.Body,
			Links:      email.LinkURLs(),
			Categories: email.CategoryNames(),
			Summary:    email.Summary,
		}
	}
	return records, nil
}
