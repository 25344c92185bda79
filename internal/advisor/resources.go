package advisor

import (
	"fmt"
	"strings"

	"github.com/Bultut-yegon/Vocalearn-lms/internal/content"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/planner"
)

// ContentResources serves planner resources from the content catalog by
// matching topic words against item titles and tags.
type ContentResources struct {
	Index *content.Index
	// Limit caps the number of catalog items returned per topic.
	Limit int
}

// Resources implements planner.ResourceProvider.
func (c ContentResources) Resources(topic string) ([]planner.Resource, error) {
	if c.Index == nil {
		return nil, nil
	}
	limit := c.Limit
	if limit <= 0 {
		limit = 3
	}

	words := strings.Fields(strings.ToLower(topic))
	keywords := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) >= 4 {
			keywords = append(keywords, w)
		}
	}
	if len(keywords) == 0 {
		keywords = words
	}

	items := c.Index.Search(keywords...)
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]planner.Resource, 0, len(items))
	for _, it := range items {
		desc := it.Tags
		if it.Difficulty != "" {
			desc = fmt.Sprintf("%s (%s)", it.Tags, it.Difficulty)
		}
		out = append(out, planner.Resource{
			Type:        "Course",
			Title:       it.Title,
			Description: desc,
			URL:         fmt.Sprintf("/api/content/%d", it.ID),
		})
	}
	return out, nil
}
