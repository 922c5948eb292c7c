package services

import (
	"context"
	"errors"

	"learnhub/apperrors"
	"learnhub/logger"
	"learnhub/models"
	"learnhub/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RatingService keeps a course's rating aggregates equal to its reviews
type RatingService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRatingService(db *gorm.DB, log *logger.Logger) *RatingService {
	if log == nil {
		log = logger.Nop()
	}
	return &RatingService{db: db, log: log.With("component", "RatingService")}
}

// SubmitReview upserts the user's review and recomputes the course aggregates
// while holding the course row lock, which serializes writers per course.
func (s *RatingService) SubmitReview(ctx context.Context, courseID, userID uint, rating int, comment string) (*models.Review, bool, error) {
	const op = "rating.SubmitReview"
	if rating < 1 || rating > 5 {
		return nil, false, apperrors.Validation(op, "Rating must be between 1 and 5!")
	}

	var review models.Review
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c course.Course
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&c, courseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound(op, "Course not found!")
			}
			return err
		}

		err := tx.Where("course_id = ? AND user_id = ?", courseID, userID).First(&review).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			review = models.Review{CourseID: courseID, UserID: userID, Rating: rating, Comment: comment}
			if err := tx.Omit(clause.Associations).Create(&review).Error; err != nil {
				return err
			}
			created = true
		case err != nil:
			return err
		default:
			review.Rating = rating
			if comment != "" {
				review.Comment = comment
			}
			if err := tx.Omit(clause.Associations).Save(&review).Error; err != nil {
				return err
			}
		}
		_, err = recomputeRatings(tx, courseID)
		return err
	})
	if err != nil {
		return nil, false, apperrors.Classify(op, err)
	}

	if err := s.db.WithContext(ctx).Preload("User").First(&review, review.ID).Error; err != nil {
		s.log.Warn("could not load reviewer", "review_id", review.ID, "error", err)
	}
	s.log.Info("review saved", "course_id", courseID, "user_id", userID, "rating", rating, "created", created)
	return &review, created, nil
}

// ListReviews returns a course's reviews newest first with the reviewer loaded
func (s *RatingService) ListReviews(ctx context.Context, courseID uint) ([]models.Review, error) {
	const op = "rating.ListReviews"
	if _, err := findCourse(ctx, s.db, op, courseID); err != nil {
		return nil, err
	}
	var reviews []models.Review
	err := s.db.WithContext(ctx).Where("course_id = ?", courseID).
		Preload("User").Order("created_at desc, id desc").Find(&reviews).Error
	if err != nil {
		return nil, apperrors.Classify(op, err)
	}
	return reviews, nil
}

type ratingStats struct {
	Average float64
	Count   int64
}

// recomputeRatings rescans all reviews of the course and writes the aggregate
// and legacy mirror columns. The caller must hold the course row lock.
func recomputeRatings(tx *gorm.DB, courseID uint) (ratingStats, error) {
	var st ratingStats
	err := tx.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("course_id = ?", courseID).
		Scan(&st).Error
	if err != nil {
		return st, err
	}
	err = tx.Model(&course.Course{}).Where("id = ?", courseID).UpdateColumns(map[string]interface{}{
		"average_rating": st.Average,
		"total_ratings":  st.Count,
		"rating":         st.Average,
		"num_reviews":    st.Count,
	}).Error
	return st, err
}
