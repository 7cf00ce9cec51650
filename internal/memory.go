package internal

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Memory is a single stored record. ID is assigned by the store and never
// reused. Vector always holds the embedding of the current Content.
type Memory struct {
	ID        int64
	Content   string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
	Vector    []float32
}

func NewMemory(content string, tags []string) (*Memory, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty content", ErrValidation)
	}

	now := time.Now().UTC()
	return &Memory{
		Content:   content,
		Tags:      NormalizeTags(tags),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NormalizeTags trims, lowercases, drops empties and deduplicates while
// keeping a stable sorted order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))

	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}

	sort.Strings(out)
	return out
}

// HasAnyTag reports whether the memory carries at least one of the given
// normalized tags.
func HasAnyTag(mem *Memory, tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, want := range tags {
		for _, have := range mem.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}
