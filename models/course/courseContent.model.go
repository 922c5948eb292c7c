package course

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMalformedLessonKey = errors.New("lesson key must look like \"<module>-<lesson>\"")

// LessonKey addresses a lesson by position. Legacy chapters live in module 0.
type LessonKey struct {
	Module int
	Lesson int
}

func (k LessonKey) String() string {
	return fmt.Sprintf("%d-%d", k.Module, k.Lesson)
}

// ParseLessonKey parses "<moduleIndex>-<lessonIndex>"
func ParseLessonKey(raw string) (LessonKey, error) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	if len(parts) != 2 {
		return LessonKey{}, ErrMalformedLessonKey
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil || m < 0 {
		return LessonKey{}, ErrMalformedLessonKey
	}
	l, err := strconv.Atoi(parts[1])
	if err != nil || l < 0 {
		return LessonKey{}, ErrMalformedLessonKey
	}
	return LessonKey{Module: m, Lesson: l}, nil
}

// LessonSource is the authoritative lesson structure of a course: either
// ModuleSource or LegacyChapterSource.
type LessonSource interface {
	TotalLessonCount() int
	LessonExists(key LessonKey) bool
	Keys() []LessonKey
}

type ModuleSource []Module

func (s ModuleSource) TotalLessonCount() int {
	total := 0
	for _, m := range s {
		total += len(m.Lessons)
	}
	return total
}

func (s ModuleSource) LessonExists(key LessonKey) bool {
	if key.Module < 0 || key.Module >= len(s) {
		return false
	}
	return key.Lesson >= 0 && key.Lesson < len(s[key.Module].Lessons)
}

func (s ModuleSource) Keys() []LessonKey {
	keys := make([]LessonKey, 0, s.TotalLessonCount())
	for mi, m := range s {
		for li := range m.Lessons {
			keys = append(keys, LessonKey{Module: mi, Lesson: li})
		}
	}
	return keys
}

type LegacyChapterSource []Chapter

func (s LegacyChapterSource) TotalLessonCount() int { return len(s) }

func (s LegacyChapterSource) LessonExists(key LessonKey) bool {
	return key.Module == 0 && key.Lesson >= 0 && key.Lesson < len(s)
}

func (s LegacyChapterSource) Keys() []LessonKey {
	keys := make([]LessonKey, len(s))
	for i := range s {
		keys[i] = LessonKey{Module: 0, Lesson: i}
	}
	return keys
}

// CompletionPercentage counts only completed keys that still exist in src, so
// the value self-corrects when lessons are removed. Zero lessons yields 0.
func CompletionPercentage(src LessonSource, completed []string) int {
	total := src.TotalLessonCount()
	if total == 0 {
		return 0
	}
	seen := make(map[LessonKey]struct{}, len(completed))
	for _, raw := range completed {
		key, err := ParseLessonKey(raw)
		if err != nil || !src.LessonExists(key) {
			continue
		}
		seen[key] = struct{}{}
	}
	pct := (200*len(seen) + total) / (2 * total) // round half up
	if pct > 100 {
		pct = 100
	}
	return pct
}
