package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lessons(n int) []Lesson {
	out := make([]Lesson, n)
	for i := range out {
		out[i] = Lesson{Title: "lesson", Type: LessonVideo}
	}
	return out
}

func TestParseLessonKey(t *testing.T) {
	key, err := ParseLessonKey(" 2-13 ")
	require.NoError(t, err)
	assert.Equal(t, LessonKey{Module: 2, Lesson: 13}, key)
	assert.Equal(t, "2-13", key.String())

	for _, raw := range []string{"", "3", "a-1", "1-b", "1-2-3", "-1-2", "1--2"} {
		_, err := ParseLessonKey(raw)
		assert.ErrorIs(t, err, ErrMalformedLessonKey, raw)
	}
}

func TestLessonSource_PrefersModules(t *testing.T) {
	c := Course{
		Modules:  []Module{{Lessons: lessons(3)}, {Lessons: lessons(2)}},
		Chapters: []Chapter{{Title: "old"}},
	}
	src := c.LessonSource()
	_, ok := src.(ModuleSource)
	require.True(t, ok)
	assert.Equal(t, 5, src.TotalLessonCount())
	assert.True(t, src.LessonExists(LessonKey{1, 1}))
	assert.False(t, src.LessonExists(LessonKey{1, 2}))
	assert.False(t, src.LessonExists(LessonKey{2, 0}))
	assert.Len(t, src.Keys(), 5)
}

func TestLessonSource_LegacyChapters(t *testing.T) {
	c := Course{Chapters: []Chapter{{Title: "a"}, {Title: "b"}}}
	src := c.LessonSource()
	_, ok := src.(LegacyChapterSource)
	require.True(t, ok)
	assert.Equal(t, 2, src.TotalLessonCount())
	assert.True(t, src.LessonExists(LessonKey{0, 1}))
	assert.False(t, src.LessonExists(LessonKey{1, 0}))
	assert.Equal(t, []LessonKey{{0, 0}, {0, 1}}, src.Keys())
}

func TestCompletionPercentage(t *testing.T) {
	src := ModuleSource{{Lessons: lessons(4)}}

	assert.Equal(t, 0, CompletionPercentage(src, nil))
	assert.Equal(t, 50, CompletionPercentage(src, []string{"0-0", "0-1"}))
	assert.Equal(t, 50, CompletionPercentage(src, []string{"0-0", "0-1", "0-1"}))
	assert.Equal(t, 100, CompletionPercentage(src, []string{"0-0", "0-1", "0-2", "0-3"}))
	// stale keys from a removed lesson do not count
	assert.Equal(t, 25, CompletionPercentage(src, []string{"0-0", "0-9", "junk"}))

	three := ModuleSource{{Lessons: lessons(3)}}
	assert.Equal(t, 33, CompletionPercentage(three, []string{"0-0"}))
	assert.Equal(t, 67, CompletionPercentage(three, []string{"0-0", "0-2"}))
}

func TestCompletionPercentage_NoLessons(t *testing.T) {
	assert.Equal(t, 0, CompletionPercentage(ModuleSource{}, []string{"0-0"}))
	assert.Equal(t, 0, CompletionPercentage(LegacyChapterSource(nil), nil))
	empty := Course{}
	assert.Equal(t, 0, CompletionPercentage(empty.LessonSource(), []string{"0-0"}))
}
