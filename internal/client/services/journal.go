package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/client/repositories/entities"
)

// JournalFilter selects journal entries for List. Zero fields match
// everything; From and To bound the entry date inclusively.
type JournalFilter struct {
	Search      string
	Tag         string
	From, To    *time.Time
	OldestFirst bool
}

type JournalService interface {
	Add(ctx context.Context, entry models.JournalEntry) (models.Entity[models.JournalEntry], error)
	AddTemplate(ctx context.Context, entry models.JournalEntry) (models.Entity[models.JournalEntry], error)
	FromTemplate(ctx context.Context, templateID models.ID) (models.Entity[models.JournalEntry], error)
	List(ctx context.Context, f JournalFilter) ([]models.Entity[models.JournalEntry], error)
	Templates(ctx context.Context) ([]models.Entity[models.JournalEntry], error)
	Edit(ctx context.Context, id models.ID, patch map[string]any) (models.Entity[models.JournalEntry], error)
	Delete(ctx context.Context, id models.ID) error
}

type journalService struct {
	repo *entities.Repository[models.JournalEntry]
	now  func() time.Time
}

func NewJournalService(repo *entities.Repository[models.JournalEntry]) JournalService {
	return &journalService{repo: repo, now: time.Now}
}

func (s *journalService) Add(ctx context.Context, entry models.JournalEntry) (models.Entity[models.JournalEntry], error) {
	if entry.EntryDate.IsZero() {
		entry.EntryDate = s.now().UTC()
	}
	e, err := s.repo.Create(ctx, entry)
	if err != nil {
		return e, fmt.Errorf("add journal entry: %w", err)
	}
	return e, nil
}

// AddTemplate stores a template. Templates stay on this device.
func (s *journalService) AddTemplate(ctx context.Context, entry models.JournalEntry) (models.Entity[models.JournalEntry], error) {
	e, err := s.repo.CreateTemplate(ctx, entry)
	if err != nil {
		return e, fmt.Errorf("add template: %w", err)
	}
	return e, nil
}

// FromTemplate creates a regular, syncable entry dated today from a template.
func (s *journalService) FromTemplate(ctx context.Context, templateID models.ID) (models.Entity[models.JournalEntry], error) {
	tpl, err := s.repo.Get(ctx, templateID)
	if err != nil {
		return tpl, err
	}
	if !tpl.IsTemplate {
		return models.Entity[models.JournalEntry]{}, fmt.Errorf("%s is not a template", templateID)
	}
	entry := tpl.Payload
	entry.Tags = append([]string(nil), tpl.Payload.Tags...)
	entry.EntryDate = s.now().UTC()
	return s.Add(ctx, entry)
}

func (s *journalService) Templates(ctx context.Context) ([]models.Entity[models.JournalEntry], error) {
	return s.repo.List(ctx, entities.Query[models.JournalEntry]{
		TemplatesOnly: true,
		Less: func(a, b models.Entity[models.JournalEntry]) bool {
			return strings.ToLower(a.Payload.Title) < strings.ToLower(b.Payload.Title)
		},
	})
}

func (s *journalService) Edit(ctx context.Context, id models.ID, patch map[string]any) (models.Entity[models.JournalEntry], error) {
	e, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return e, fmt.Errorf("edit journal entry: %w", err)
	}
	return e, nil
}

func (s *journalService) Delete(ctx context.Context, id models.ID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete journal entry: %w", err)
	}
	return nil
}

func (s *journalService) List(ctx context.Context, f JournalFilter) ([]models.Entity[models.JournalEntry], error) {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	q := entities.Query[models.JournalEntry]{
		Match: func(e models.JournalEntry) bool {
			if f.Tag != "" && !e.HasTag(f.Tag) {
				return false
			}
			if f.From != nil && e.EntryDate.Before(*f.From) {
				return false
			}
			if f.To != nil && e.EntryDate.After(*f.To) {
				return false
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(e.Title), search) &&
				!strings.Contains(strings.ToLower(e.Content), search) {
				return false
			}
			return true
		},
		Less: func(a, b models.Entity[models.JournalEntry]) bool {
			if f.OldestFirst {
				return a.Payload.EntryDate.Before(b.Payload.EntryDate)
			}
			return a.Payload.EntryDate.After(b.Payload.EntryDate)
		},
	}
	return s.repo.List(ctx, q)
}
