package services

import (
	"context"
	"sync"
	"testing"

	"learnhub/apperrors"
	"learnhub/models"
	"learnhub/models/course"
	"learnhub/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestMarkLessonCompleteHalfway(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{})
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.db, f.instructor.ID, 100, 4)
	f.enroll(t, f.student.ID, c.ID)

	p, err := f.progress.MarkLessonComplete(ctx, f.student.ID, c.ID, "0-0")
	require.NoError(t, err)
	assert.Equal(t, 25, p.ProgressPercentage)

	p, err = f.progress.MarkLessonComplete(ctx, f.student.ID, c.ID, "0-1")
	require.NoError(t, err)
	assert.Equal(t, 50, p.ProgressPercentage)
	assert.ElementsMatch(t, []string{"0-0", "0-1"}, []string(p.CompletedLessons))
	require.NotNil(t, p.LastAccessedLesson)
	assert.Equal(t, "0-1", *p.LastAccessedLesson)

	got, err := f.progress.GetProgress(ctx, f.student.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, 50, got.ProgressPercentage)
}

func TestRepeatedKeysAreMonotonic(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{})
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.db, f.instructor.ID, 0, 3)
	f.enroll(t, f.student.ID, c.ID)

	last := 0
	for _, key := range []string{"0-0", "0-0", "0-2", "0-0", "0-2", "0-1", "0-1", "0-1"} {
		p, err := f.progress.MarkLessonComplete(ctx, f.student.ID, c.ID, key)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p.ProgressPercentage, last)
		assert.LessOrEqual(t, p.ProgressPercentage, 100)
		last = p.ProgressPercentage
	}
	assert.Equal(t, 100, last)

	got, err := f.progress.GetProgress(ctx, f.student.ID, c.ID)
	require.NoError(t, err)
	assert.Len(t, got.CompletedLessons, 3)
}

func TestProgressRequiresEnrollment(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{})
	c := testutil.CreateCourse(t, f.db, f.instructor.ID, 100, 2)

	_, err := f.progress.MarkLessonComplete(context.Background(), f.student.ID, c.ID, "0-0")
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	assert.Equal(t, "You must be enrolled to track progress!", apperrors.MessageOf(err))
}

func TestProgressRejectsBadKeys(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{})
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.db, f.instructor.ID, 0, 2)
	f.enroll(t, f.student.ID, c.ID)

	for _, key := range []string{"", "lesson-1", "0", "0-1-2", "-1-0", "1-0", "0-2"} {
		_, err := f.progress.MarkLessonComplete(ctx, f.student.ID, c.ID, key)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err), key)
	}

	_, err := f.progress.MarkLessonComplete(ctx, f.student.ID, 9999, "0-0")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestGetProgressWithoutRecord(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{})
	c := testutil.CreateCourse(t, f.db, f.instructor.ID, 0, 2)

	p, err := f.progress.GetProgress(context.Background(), f.student.ID, c.ID)
	require.NoError(t, err)
	assert.Zero(t, p.ID)
	assert.Equal(t, 0, p.ProgressPercentage)
	assert.Empty(t, p.CompletedLessons)
	assert.Equal(t, int64(0), countRows(t, f.db, &models.Progress{}, "1 = 1"))
}

func TestLegacyChapterCourse(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{})
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.db, f.instructor.ID, 0, 0)
	chapters := datatypes.JSONSlice[course.Chapter]{
		{Title: "Intro", VideoURL: "https://cdn.example.com/1.mp4", Order: 1},
		{Title: "Setup", VideoURL: "https://cdn.example.com/2.mp4", Order: 2},
		{Title: "Deploy", VideoURL: "https://cdn.example.com/3.mp4", Order: 3},
	}
	require.NoError(t, f.db.Model(&c).Update("chapters", chapters).Error)
	f.enroll(t, f.student.ID, c.ID)

	p, err := f.progress.MarkLessonComplete(ctx, f.student.ID, c.ID, "0-2")
	require.NoError(t, err)
	assert.Equal(t, 33, p.ProgressPercentage)

	_, err = f.progress.MarkLessonComplete(ctx, f.student.ID, c.ID, "1-0")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestProgressSelfHealsWhenLessonsChange(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{})
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.db, f.instructor.ID, 0, 4)
	f.enroll(t, f.student.ID, c.ID)

	for _, key := range []string{"0-0", "0-3"} {
		_, err := f.progress.MarkLessonComplete(ctx, f.student.ID, c.ID, key)
		require.NoError(t, err)
	}

	// instructor drops the last two lessons
	trimmed := c.Modules
	trimmed[0].Lessons = trimmed[0].Lessons[:2]
	require.NoError(t, f.db.Model(&c).Update("modules", trimmed).Error)

	p, err := f.progress.MarkLessonComplete(ctx, f.student.ID, c.ID, "0-1")
	require.NoError(t, err)
	// "0-3" no longer exists, so 2 of 2
	assert.Equal(t, 100, p.ProgressPercentage)
}

func TestConcurrentLessonCompletion(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		c := testutil.CreateCourse(t, f.db, f.instructor.ID, 0, 6)
		f.enroll(t, f.student.ID, c.ID)

		keys := []string{"0-0", "0-1", "0-2", "0-3", "0-4", "0-5", "0-0", "0-3"}
		var wg sync.WaitGroup
		for _, key := range keys {
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				_, err := f.progress.MarkLessonComplete(ctx, f.student.ID, c.ID, key)
				assert.NoError(t, err)
			}(key)
		}
		wg.Wait()

		p, err := f.progress.GetProgress(ctx, f.student.ID, c.ID)
		require.NoError(t, err)
		assert.Len(t, p.CompletedLessons, 6)
		assert.Equal(t, 100, p.ProgressPercentage)
	})
}
