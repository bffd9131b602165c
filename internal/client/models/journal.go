package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/daybook/internal/common"
)

// JournalEntry is the payload of the journal kind. Mood is 1..5, zero means
// not set.
type JournalEntry struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Mood      int       `json:"mood,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	EntryDate time.Time `json:"entryDate"`
}

func (e JournalEntry) Validate() error {
	if strings.TrimSpace(e.Title) == "" && strings.TrimSpace(e.Content) == "" {
		return fmt.Errorf("%w: journal entry needs a title or content", common.ErrInvalidPayload)
	}
	if e.Mood < 0 || e.Mood > 5 {
		return fmt.Errorf("%w: mood must be between 1 and 5", common.ErrInvalidPayload)
	}
	return nil
}

// HasTag reports whether the entry carries tag, ignoring case.
func (e JournalEntry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
