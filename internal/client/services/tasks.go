// Package services contains the application services of the daybook client.
// They translate user intents (add a task, complete it, filter the journal)
// into repository calls and never talk to the network themselves.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/client/repositories/entities"
)

type TaskSort string

const (
	SortCreated  TaskSort = "created"
	SortDue      TaskSort = "due"
	SortPriority TaskSort = "priority"
	SortTitle    TaskSort = "title"
)

// TaskFilter selects tasks for List. Zero fields match everything.
type TaskFilter struct {
	Status   models.TaskStatus
	Priority models.TaskPriority
	Search   string
	SortBy   TaskSort
}

type TaskService interface {
	Add(ctx context.Context, task models.Task) (models.Entity[models.Task], error)
	List(ctx context.Context, f TaskFilter) ([]models.Entity[models.Task], error)
	Get(ctx context.Context, id models.ID) (models.Entity[models.Task], error)
	Edit(ctx context.Context, id models.ID, patch map[string]any) (models.Entity[models.Task], error)
	Complete(ctx context.Context, id models.ID) (models.Entity[models.Task], error)
	Delete(ctx context.Context, id models.ID) error
}

type taskService struct {
	repo *entities.Repository[models.Task]
	now  func() time.Time
}

func NewTaskService(repo *entities.Repository[models.Task]) TaskService {
	return &taskService{repo: repo, now: time.Now}
}

// Add fills in status todo and priority medium when they are left empty.
func (s *taskService) Add(ctx context.Context, task models.Task) (models.Entity[models.Task], error) {
	if task.Status == "" {
		task.Status = models.TaskTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	e, err := s.repo.Create(ctx, task)
	if err != nil {
		return e, fmt.Errorf("add task: %w", err)
	}
	return e, nil
}

func (s *taskService) Get(ctx context.Context, id models.ID) (models.Entity[models.Task], error) {
	return s.repo.Get(ctx, id)
}

func (s *taskService) Edit(ctx context.Context, id models.ID, patch map[string]any) (models.Entity[models.Task], error) {
	e, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return e, fmt.Errorf("edit task: %w", err)
	}
	return e, nil
}

// Complete marks the task done and stamps completedAt.
func (s *taskService) Complete(ctx context.Context, id models.ID) (models.Entity[models.Task], error) {
	return s.Edit(ctx, id, map[string]any{
		"status":      string(models.TaskDone),
		"completedAt": s.now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *taskService) Delete(ctx context.Context, id models.ID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (s *taskService) List(ctx context.Context, f TaskFilter) ([]models.Entity[models.Task], error) {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	q := entities.Query[models.Task]{
		Match: func(t models.Task) bool {
			if f.Status != "" && t.Status != f.Status {
				return false
			}
			if f.Priority != "" && t.Priority != f.Priority {
				return false
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(t.Title), search) &&
				!strings.Contains(strings.ToLower(t.Description), search) {
				return false
			}
			return true
		},
		Less: taskLess(f.SortBy),
	}
	return s.repo.List(ctx, q)
}

func taskLess(by TaskSort) func(a, b models.Entity[models.Task]) bool {
	switch by {
	case SortDue:
		// tasks without a due date go last
		return func(a, b models.Entity[models.Task]) bool {
			ad, bd := a.Payload.DueDate, b.Payload.DueDate
			switch {
			case ad == nil:
				return false
			case bd == nil:
				return true
			default:
				return ad.Before(*bd)
			}
		}
	case SortPriority:
		return func(a, b models.Entity[models.Task]) bool {
			return a.Payload.Priority.Rank() > b.Payload.Priority.Rank()
		}
	case SortTitle:
		return func(a, b models.Entity[models.Task]) bool {
			return strings.ToLower(a.Payload.Title) < strings.ToLower(b.Payload.Title)
		}
	default:
		// newest first
		return func(a, b models.Entity[models.Task]) bool { return a.LocalID > b.LocalID }
	}
}
