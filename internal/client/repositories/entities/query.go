package entities

import (
	"sort"

	"github.com/dmitrijs2005/daybook/internal/client/models"
)

// Query filters and orders a List call. A nil Match keeps everything and a
// nil Less keeps creation order.
type Query[P any] struct {
	Match            func(P) bool
	Less             func(a, b models.Entity[P]) bool
	IncludeTemplates bool
	TemplatesOnly    bool
}

func (q Query[P]) apply(list []models.Entity[P]) []models.Entity[P] {
	out := make([]models.Entity[P], 0, len(list))
	for _, e := range list {
		switch {
		case q.TemplatesOnly && !e.IsTemplate:
			continue
		case e.IsTemplate && !q.IncludeTemplates && !q.TemplatesOnly:
			continue
		}
		if q.Match != nil && !q.Match(e.Payload) {
			continue
		}
		out = append(out, e)
	}

	if q.Less != nil {
		sort.SliceStable(out, func(i, j int) bool { return q.Less(out[i], out[j]) })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].LocalID < out[j].LocalID })
	}
	return out
}
