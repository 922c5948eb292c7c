package services

import (
	"context"
	"errors"

	"learnhub/apperrors"
	"learnhub/logger"
	"learnhub/models"
	"learnhub/models/course"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressService records lesson completions for enrolled students
type ProgressService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressService(db *gorm.DB, log *logger.Logger) *ProgressService {
	if log == nil {
		log = logger.Nop()
	}
	return &ProgressService{db: db, log: log.With("component", "ProgressService")}
}

// MarkLessonComplete adds lessonKey to the student's completed set and
// recomputes the percentage from the course's current structure. Re-marking a
// lesson is a no-op apart from the last-accessed pointer.
func (s *ProgressService) MarkLessonComplete(ctx context.Context, studentID, courseID uint, lessonKey string) (*models.Progress, error) {
	const op = "progress.MarkLessonComplete"

	key, err := course.ParseLessonKey(lessonKey)
	if err != nil {
		return nil, apperrors.Validation(op, "Invalid lesson key!")
	}
	c, err := findCourse(ctx, s.db, op, courseID)
	if err != nil {
		return nil, err
	}
	enrolled, err := isEnrolled(ctx, s.db, studentID, courseID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, apperrors.Forbidden(op, "You must be enrolled to track progress!")
	}
	src := c.LessonSource()
	if !src.LessonExists(key) {
		return nil, apperrors.Validation(op, "Lesson not found in this course!")
	}
	canonical := key.String()

	var p models.Progress
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.Progress{UserID: studentID, CourseID: courseID, CompletedLessons: datatypes.JSONSlice[string]{}}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND course_id = ?", studentID, courseID).
			First(&p).Error; err != nil {
			return err
		}

		if !p.HasLesson(canonical) {
			p.CompletedLessons = append(p.CompletedLessons, canonical)
		}
		p.LastAccessedLesson = &canonical
		p.ProgressPercentage = course.CompletionPercentage(src, p.CompletedLessons)
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, apperrors.Classify(op, err)
	}

	s.log.Debug("lesson completed", "student_id", studentID, "course_id", courseID, "lesson", canonical, "progress", p.ProgressPercentage)
	return &p, nil
}

// GetProgress returns the stored record or an unsaved empty one. Absence is
// not an error.
func (s *ProgressService) GetProgress(ctx context.Context, studentID, courseID uint) (*models.Progress, error) {
	var p models.Progress
	err := s.db.WithContext(ctx).Where("user_id = ? AND course_id = ?", studentID, courseID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Progress{UserID: studentID, CourseID: courseID, CompletedLessons: datatypes.JSONSlice[string]{}}, nil
	}
	if err != nil {
		return nil, apperrors.Classify("progress.GetProgress", err)
	}
	return &p, nil
}
