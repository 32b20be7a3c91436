package llm

import (
	"strings"
	"unicode/utf8"

	"mediatag/internal/model"
)

const (
	maxTags = 10
	// Pieces this short or shorter are noise ("y", "de", list markers).
	maxDiscardedTagRunes = 2
	// Lines this long are prose, not a tag list.
	maxTagLineRunes = 300
)

var defaultTags = map[model.DocumentType][]string{
	model.Photograph:   {"fotografía", "imagen", "visual"},
	model.Video:        {"video", "multimedia", "audiovisual"},
	model.Illustration: {"ilustración", "diseño", "arte digital"},
	model.ThreeD:       {"3D", "modelado", "render"},
}

// DefaultTags returns the fixed fallback tags for t. The slice is a fresh copy.
func DefaultTags(t model.DocumentType) []string {
	return append([]string{}, defaultTags[t]...)
}

// ParseTags pulls at most ten tags out of a free-form model answer.
//
// The first short line holding a comma is taken as the tag list. When no such
// line exists the whole text is split on commas, periods and newlines instead.
func ParseTags(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.Contains(line, ",") && utf8.RuneCountInString(line) < maxTagLineRunes {
			return collectTags(strings.Split(line, ","))
		}
	}

	return collectTags(strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '.' || r == '\n'
	}))
}

func collectTags(pieces []string) []string {
	tags := make([]string, 0, maxTags)
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if utf8.RuneCountInString(p) <= maxDiscardedTagRunes {
			continue
		}
		tags = append(tags, p)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}
