package services

import (
	"context"
	"errors"
	"fmt"

	"learnhub/logger"
	"learnhub/models"
	"learnhub/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reconciler retries stuck side effects and recomputes course aggregates from
// the rows they summarize.
type Reconciler struct {
	db        *gorm.DB
	outbox    *OutboxDispatcher
	log       *logger.Logger
	batchSize int
}

func NewReconciler(db *gorm.DB, outbox *OutboxDispatcher, log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.Nop()
	}
	return &Reconciler{db: db, outbox: outbox, log: log.With("component", "Reconciler"), batchSize: 200}
}

// ReconcileReport summarizes one reconciliation pass
type ReconcileReport struct {
	Retried         int `json:"retried"`
	CoursesScanned  int `json:"courses_scanned"`
	CoursesRepaired int `json:"courses_repaired"`
}

// Run retries pending side effects, then repairs aggregates
func (r *Reconciler) Run(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	retried, retryErr := r.RetryPending(ctx)
	report.Retried = retried

	scanned, repaired, aggErr := r.ReconcileAggregates(ctx)
	report.CoursesScanned, report.CoursesRepaired = scanned, repaired

	return report, errors.Join(retryErr, aggErr)
}

// RetryPending re-dispatches due outbox rows
func (r *Reconciler) RetryPending(ctx context.Context) (int, error) {
	if r.outbox == nil {
		return 0, nil
	}
	n, err := r.outbox.DispatchDue(ctx, r.batchSize)
	if err != nil {
		r.log.Warn("outbox retry finished with errors", "attempted", n, "error", err)
	}
	return n, err
}

// ReconcileAggregates walks every course and rewrites studentsEnrolled and
// the rating columns when they drift from the underlying rows.
func (r *Reconciler) ReconcileAggregates(ctx context.Context) (scanned, repaired int, err error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&course.Course{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return 0, 0, fmt.Errorf("list courses: %w", err)
	}

	var errs []error
	for _, id := range ids {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		fixed, err := r.reconcileCourse(ctx, id)
		scanned++
		if err != nil {
			errs = append(errs, fmt.Errorf("course %d: %w", id, err))
			continue
		}
		if fixed {
			repaired++
		}
	}
	if repaired > 0 {
		r.log.Info("course aggregates repaired", "scanned", scanned, "repaired", repaired)
	}
	return scanned, repaired, errors.Join(errs...)
}

func (r *Reconciler) reconcileCourse(ctx context.Context, courseID uint) (bool, error) {
	fixed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c course.Course
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, courseID).Error; err != nil {
			return err
		}

		var enrolled int64
		if err := tx.Model(&models.Enrollment{}).
			Where("course_id = ? AND status = ?", courseID, models.EnrollmentCompleted).
			Count(&enrolled).Error; err != nil {
			return err
		}
		// The exact count already includes these rows, so their increments
		// must never be applied on top of it.
		if err := tx.Model(&models.SideEffect{}).
			Where("course_id = ? AND kind = ? AND status = ?", courseID, models.SideEffectIncrementStudents, models.SideEffectPending).
			Update("status", models.SideEffectDone).Error; err != nil {
			return err
		}
		if c.StudentsEnrolled != enrolled {
			r.log.Warn("students_enrolled drift", "course_id", courseID, "stored", c.StudentsEnrolled, "actual", enrolled)
			if err := tx.Model(&course.Course{}).Where("id = ?", courseID).
				UpdateColumn("students_enrolled", enrolled).Error; err != nil {
				return err
			}
			fixed = true
		}

		restored, err := restoreEnrolledSet(tx, courseID)
		if err != nil {
			return err
		}
		if restored > 0 {
			r.log.Warn("enrolled-course set drift", "course_id", courseID, "restored", restored)
			fixed = true
		}

		before := ratingStats{Average: c.AverageRating, Count: c.TotalRatings}
		after, err := recomputeRatings(tx, courseID)
		if err != nil {
			return err
		}
		if before != after || c.Rating != after.Average || c.NumReviews != after.Count {
			fixed = true
		}
		return nil
	})
	return fixed, err
}

// restoreEnrolledSet adds the user_courses pairs missing for completed
// enrollments, covering appends whose side effect gave up.
func restoreEnrolledSet(tx *gorm.DB, courseID uint) (int, error) {
	var missing []uint
	err := tx.Model(&models.Enrollment{}).
		Where("course_id = ? AND status = ?", courseID, models.EnrollmentCompleted).
		Where("NOT EXISTS (SELECT 1 FROM user_courses uc WHERE uc.user_id = enrollments.student_id AND uc.course_id = enrollments.course_id)").
		Pluck("student_id", &missing).Error
	if err != nil || len(missing) == 0 {
		return 0, err
	}

	rows := make([]models.UserCourse, 0, len(missing))
	for _, userID := range missing {
		rows = append(rows, models.UserCourse{UserID: userID, CourseID: courseID})
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return 0, err
	}
	err = tx.Model(&models.SideEffect{}).
		Where("course_id = ? AND kind = ? AND status = ? AND user_id IN ?", courseID, models.SideEffectAddEnrolledCourse, models.SideEffectFailed, missing).
		Update("status", models.SideEffectDone).Error
	return len(missing), err
}
