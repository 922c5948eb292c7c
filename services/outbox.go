package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learnhub/logger"
	"learnhub/models"
	"learnhub/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Mailer sends the enrollment confirmation
type Mailer interface {
	SendEnrollmentConfirmation(ctx context.Context, to, name, courseTitle string) error
}

var errAlreadyApplied = errors.New("side effect already applied")

// OutboxDispatcher applies the side effects of committed enrollments. Counter
// and enrolled-set effects are claimed with a compare-and-set in the same
// transaction that applies them, so they land exactly once. The email is sent
// before the claim and may repeat if the claim fails.
type OutboxDispatcher struct {
	db          *gorm.DB
	mailer      Mailer
	log         *logger.Logger
	maxAttempts int
	backoff     time.Duration
}

func NewOutboxDispatcher(db *gorm.DB, mailer Mailer, log *logger.Logger) *OutboxDispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &OutboxDispatcher{
		db:          db,
		mailer:      mailer,
		log:         log.With("component", "OutboxDispatcher"),
		maxAttempts: 8,
		backoff:     30 * time.Second,
	}
}

// Dispatch applies every pending side effect of one enrollment
func (d *OutboxDispatcher) Dispatch(ctx context.Context, enrollmentID uint) error {
	var pending []models.SideEffect
	err := d.db.WithContext(ctx).
		Where("enrollment_id = ? AND status = ?", enrollmentID, models.SideEffectPending).
		Order("id").Find(&pending).Error
	if err != nil {
		return fmt.Errorf("load side effects: %w", err)
	}
	return d.applyAll(ctx, pending)
}

// DispatchDue applies up to limit pending side effects whose retry time has
// passed and returns how many were attempted.
func (d *OutboxDispatcher) DispatchDue(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	var due []models.SideEffect
	err := d.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", models.SideEffectPending, time.Now()).
		Order("id").Limit(limit).Find(&due).Error
	if err != nil {
		return 0, fmt.Errorf("load due side effects: %w", err)
	}
	return len(due), d.applyAll(ctx, due)
}

func (d *OutboxDispatcher) applyAll(ctx context.Context, effects []models.SideEffect) error {
	var errs []error
	for _, se := range effects {
		if err := d.apply(ctx, se); err != nil {
			errs = append(errs, fmt.Errorf("%s #%d: %w", se.Kind, se.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (d *OutboxDispatcher) apply(ctx context.Context, se models.SideEffect) error {
	var err error
	switch se.Kind {
	case models.SideEffectIncrementStudents, models.SideEffectAddEnrolledCourse:
		err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return applyInTx(tx, se)
		})
	case models.SideEffectEnrollmentEmail:
		err = d.sendEmail(ctx, se)
	default:
		err = fmt.Errorf("unknown side effect kind %q", se.Kind)
	}

	if errors.Is(err, errAlreadyApplied) {
		return nil
	}
	if err != nil {
		d.recordFailure(ctx, se, err)
		return err
	}
	d.log.Debug("side effect applied", "kind", se.Kind, "enrollment_id", se.EnrollmentID)
	return nil
}

// applyInTx locks the course row before claiming the outbox row so it takes
// locks in the same order as the reconciler.
func applyInTx(tx *gorm.DB, se models.SideEffect) error {
	if se.Kind == models.SideEffectIncrementStudents {
		var locked []course.Course
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").
			Where("id = ?", se.CourseID).Find(&locked).Error; err != nil {
			return err
		}
	}

	if err := claim(tx, se.ID); err != nil {
		return err
	}

	switch se.Kind {
	case models.SideEffectIncrementStudents:
		return tx.Model(&course.Course{}).Where("id = ?", se.CourseID).
			UpdateColumn("students_enrolled", gorm.Expr("students_enrolled + ?", 1)).Error
	case models.SideEffectAddEnrolledCourse:
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.UserCourse{UserID: se.UserID, CourseID: se.CourseID}).Error
	}
	return nil
}

// claim flips a pending row to done; zero rows means someone else got there first
func claim(tx *gorm.DB, id uint) error {
	res := tx.Model(&models.SideEffect{}).
		Where("id = ? AND status = ?", id, models.SideEffectPending).
		Updates(map[string]interface{}{
			"status":     models.SideEffectDone,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": "",
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errAlreadyApplied
	}
	return nil
}

func (d *OutboxDispatcher) sendEmail(ctx context.Context, se models.SideEffect) error {
	var current models.SideEffect
	if err := d.db.WithContext(ctx).Select("status").First(&current, se.ID).Error; err != nil {
		return err
	}
	if current.Status != models.SideEffectPending {
		return errAlreadyApplied
	}

	if d.mailer != nil {
		var user models.User
		if err := d.db.WithContext(ctx).First(&user, se.UserID).Error; err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		var c course.Course
		if err := d.db.WithContext(ctx).Select("id", "title").First(&c, se.CourseID).Error; err != nil {
			return fmt.Errorf("load course: %w", err)
		}
		if err := d.mailer.SendEnrollmentConfirmation(ctx, user.Email, user.Name, c.Title); err != nil {
			return err
		}
	}
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return claim(tx, se.ID)
	})
}

func (d *OutboxDispatcher) recordFailure(ctx context.Context, se models.SideEffect, cause error) {
	attempts := se.Attempts + 1
	status := models.SideEffectPending
	if attempts >= d.maxAttempts {
		status = models.SideEffectFailed
	}
	// linear backoff keeps the retry horizon short
	next := time.Now().Add(time.Duration(attempts) * d.backoff)

	err := d.db.WithContext(ctx).Model(&models.SideEffect{}).
		Where("id = ? AND status = ?", se.ID, models.SideEffectPending).
		Updates(map[string]interface{}{
			"status":          status,
			"attempts":        attempts,
			"last_error":      cause.Error(),
			"next_attempt_at": next,
		}).Error
	if err != nil {
		d.log.Error("could not record side effect failure", "side_effect_id", se.ID, "error", err)
	}
	d.log.Warn("side effect failed",
		"kind", se.Kind,
		"enrollment_id", se.EnrollmentID,
		"attempts", attempts,
		"status", status,
		"error", cause,
	)
}
