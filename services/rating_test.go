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
)

func TestSecondReviewReplacesFirst(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{})
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.db, f.instructor.ID, 0, 1)

	first, created, err := f.rating.SubmitReview(ctx, c.ID, f.student.ID, 2, "too fast")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, f.student.Name, first.User.Name)

	second, created, err := f.rating.SubmitReview(ctx, c.ID, f.student.ID, 5, "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Rating)
	assert.Equal(t, "too fast", second.Comment, "an empty comment keeps the previous one")

	var got course.Course
	require.NoError(t, f.db.First(&got, c.ID).Error)
	assert.Equal(t, int64(1), got.TotalRatings)
	assert.InDelta(t, 5.0, got.AverageRating, 1e-9)
	assert.Equal(t, got.TotalRatings, got.NumReviews)
	assert.InDelta(t, got.AverageRating, got.Rating, 1e-9)
}

func TestReviewValidation(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{})
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.db, f.instructor.ID, 0, 1)

	for _, r := range []int{0, 6, -1} {
		_, _, err := f.rating.SubmitReview(ctx, c.ID, f.student.ID, r, "")
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	}
	_, _, err := f.rating.SubmitReview(ctx, 777, f.student.ID, 3, "")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	_, err = f.rating.ListReviews(ctx, 777)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestConcurrentReviewsKeepAggregatesExact(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		c := testutil.CreateCourse(t, f.db, f.instructor.ID, 0, 1)

		ratings := []int{1, 2, 3, 4, 5, 5, 4, 3, 2, 1}
		users := make([]models.User, len(ratings))
		for i := range ratings {
			users[i] = testutil.CreateUser(t, f.db, "reviewer", models.RoleStudent)
		}

		var wg sync.WaitGroup
		for i, r := range ratings {
			wg.Add(1)
			go func(u models.User, r int) {
				defer wg.Done()
				_, _, err := f.rating.SubmitReview(ctx, c.ID, u.ID, r, "ok")
				assert.NoError(t, err)
			}(users[i], r)
		}
		wg.Wait()

		var got course.Course
		require.NoError(t, f.db.First(&got, c.ID).Error)
		assert.Equal(t, int64(10), got.TotalRatings)
		assert.InDelta(t, 3.0, got.AverageRating, 1e-9)

		reviews, err := f.rating.ListReviews(ctx, c.ID)
		require.NoError(t, err)
		assert.Len(t, reviews, 10)
		for i := 1; i < len(reviews); i++ {
			assert.False(t, reviews[i].CreatedAt.After(reviews[i-1].CreatedAt))
		}
	})
}
