package services

import (
	"context"
	"errors"
	"time"

	"learnhub/apperrors"
	"learnhub/gateway"
	"learnhub/logger"
	"learnhub/models"
	"learnhub/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnrollmentOptions tunes EnrollmentService
type EnrollmentOptions struct {
	Currency       string
	IntentTTL      time.Duration
	GatewayTimeout time.Duration
	// AllowMock is only ever true outside production
	AllowMock bool
}

// EnrollmentService turns payment intents into ledger rows
type EnrollmentService struct {
	db      *gorm.DB
	gw      gateway.Gateway
	intents gateway.IntentRegistry
	outbox  *OutboxDispatcher
	log     *logger.Logger
	opts    EnrollmentOptions
}

func NewEnrollmentService(db *gorm.DB, gw gateway.Gateway, intents gateway.IntentRegistry, outbox *OutboxDispatcher, log *logger.Logger, opts EnrollmentOptions) *EnrollmentService {
	if log == nil {
		log = logger.Nop()
	}
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	if opts.IntentTTL <= 0 {
		opts.IntentTTL = 24 * time.Hour
	}
	if opts.GatewayTimeout <= 0 {
		opts.GatewayTimeout = 10 * time.Second
	}
	return &EnrollmentService{
		db:      db,
		gw:      gw,
		intents: intents,
		outbox:  outbox,
		log:     log.With("component", "EnrollmentService"),
		opts:    opts,
	}
}

// CreatePaymentIntent requests an intent for the course price. It never writes
// to the ledger, so callers may retry it freely.
func (s *EnrollmentService) CreatePaymentIntent(ctx context.Context, studentID, courseID uint) (gateway.Intent, error) {
	const op = "enrollment.CreatePaymentIntent"

	c, err := findCourse(ctx, s.db, op, courseID)
	if err != nil {
		return gateway.Intent{}, err
	}
	enrolled, err := s.IsEnrolled(ctx, studentID, courseID)
	if err != nil {
		return gateway.Intent{}, err
	}
	if enrolled {
		return gateway.Intent{}, apperrors.Conflict(op, "Already enrolled in this course!")
	}

	receipt := gateway.ReceiptFor(courseID, studentID)
	if c.IsFree() {
		return gateway.Intent{ID: FreeOrderID(courseID, studentID), Amount: 0, Currency: s.opts.Currency, Receipt: receipt}, nil
	}

	amount := MinorUnits(c.Price)
	intent, err := s.requestIntent(ctx, amount, receipt)
	if err != nil {
		if !s.opts.AllowMock {
			if errors.Is(err, gateway.ErrNotConfigured) {
				return gateway.Intent{}, apperrors.Upstream(op, "Payment gateway is not configured!", err)
			}
			return gateway.Intent{}, apperrors.Classify(op, err)
		}
		intent = gateway.NewMockIntent(amount, s.opts.Currency, receipt)
		s.log.Warn("payment gateway unavailable, issued mock intent",
			"course_id", courseID,
			"student_id", studentID,
			"intent_id", intent.ID,
			"error", err,
		)
	}

	record := models.PaymentIntent{
		IntentID:  intent.ID,
		StudentID: studentID,
		CourseID:  courseID,
		Amount:    intent.Amount,
		Currency:  intent.Currency,
		Receipt:   receipt,
		Mock:      intent.Mock,
		ExpiresAt: time.Now().Add(s.opts.IntentTTL),
	}
	if err := s.intents.Save(ctx, record); err != nil {
		return gateway.Intent{}, apperrors.Classify(op, err)
	}

	s.log.Info("payment intent created", "intent_id", intent.ID, "course_id", courseID, "student_id", studentID, "amount", intent.Amount)
	return intent, nil
}

func (s *EnrollmentService) requestIntent(ctx context.Context, amount int64, receipt string) (gateway.Intent, error) {
	if s.gw == nil {
		return gateway.Intent{}, gateway.ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.GatewayTimeout)
	defer cancel()
	return s.gw.CreateIntent(ctx, amount, s.opts.Currency, receipt)
}

// Confirmation is the client-forwarded proof of payment
type Confirmation struct {
	StudentID uint
	CourseID  uint
	OrderID   string
	PaymentID string
	Signature string
}

// VerifyAndCommit checks the confirmation and records a completed enrollment.
// created is false when the same order was already committed.
func (s *EnrollmentService) VerifyAndCommit(ctx context.Context, in Confirmation) (enrollment *models.Enrollment, created bool, err error) {
	const op = "enrollment.VerifyAndCommit"

	c, err := findCourse(ctx, s.db, op, in.CourseID)
	if err != nil {
		return nil, false, err
	}

	row := models.Enrollment{
		StudentID:  in.StudentID,
		CourseID:   in.CourseID,
		Currency:   s.opts.Currency,
		Status:     models.EnrollmentCompleted,
		EnrolledAt: time.Now(),
	}
	if c.IsFree() {
		row.OrderID = FreeOrderID(in.CourseID, in.StudentID)
	} else {
		existing, err := s.committedOrder(ctx, op, in)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			s.log.Info("duplicate confirmation ignored", "enrollment_id", existing.ID, "order_id", existing.OrderID)
			return existing, false, nil
		}
		amount, err := s.verify(ctx, op, in)
		if err != nil {
			s.log.Warn("payment verification rejected",
				"course_id", in.CourseID,
				"student_id", in.StudentID,
				"order_id", in.OrderID,
				"error", err,
			)
			return nil, false, err
		}
		paymentID := in.PaymentID
		row.OrderID = in.OrderID
		row.PaymentID = &paymentID
		row.Amount = amount
	}
	key := models.CompletionKeyFor(in.StudentID, in.CourseID)
	row.CompletionKey = &key

	enrollment, created, err = s.commit(ctx, op, row)
	if err != nil {
		return nil, false, err
	}

	if created {
		s.log.Info("enrollment committed", "enrollment_id", enrollment.ID, "order_id", enrollment.OrderID, "course_id", in.CourseID, "student_id", in.StudentID)
		if s.outbox != nil {
			if err := s.outbox.Dispatch(ctx, enrollment.ID); err != nil {
				// committed enrollment stands; the reconciler retries
				s.log.Error("enrollment side effects failed", "enrollment_id", enrollment.ID, "error", err)
			}
		}
	} else {
		s.log.Info("duplicate confirmation ignored", "enrollment_id", enrollment.ID, "order_id", enrollment.OrderID)
	}
	return enrollment, created, nil
}

// committedOrder returns the ledger row already holding in.OrderID when the
// confirmation repeats it. Replays must succeed after the intent expires.
func (s *EnrollmentService) committedOrder(ctx context.Context, op string, in Confirmation) (*models.Enrollment, error) {
	if in.OrderID == "" {
		return nil, nil
	}
	var existing models.Enrollment
	err := s.db.WithContext(ctx).Where("order_id = ?", in.OrderID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Classify(op, err)
	}
	if existing.StudentID != in.StudentID || existing.CourseID != in.CourseID {
		return nil, apperrors.Conflict(op, "Order already used for another enrollment!")
	}
	if existing.PaymentID == nil || *existing.PaymentID != in.PaymentID {
		return nil, apperrors.PaymentVerification(op, "Payment verification failed!")
	}
	return &existing, nil
}

// verify matches the confirmation to a registered intent and checks the
// gateway signature. It returns the amount charged.
func (s *EnrollmentService) verify(ctx context.Context, op string, in Confirmation) (int64, error) {
	if in.OrderID == "" || in.PaymentID == "" {
		return 0, apperrors.Validation(op, "Order ID and payment ID are required!")
	}
	intent, err := s.intents.Find(ctx, in.OrderID)
	if err != nil {
		return 0, err
	}
	if intent.StudentID != in.StudentID || intent.CourseID != in.CourseID {
		return 0, apperrors.Forbidden(op, "Payment intent does not belong to this enrollment!")
	}

	if intent.Mock {
		if !s.opts.AllowMock {
			return 0, apperrors.PaymentVerification(op, "Mock payments are disabled!")
		}
		return intent.Amount, nil
	}
	if s.gw == nil || !s.gw.VerifySignature(in.OrderID, in.PaymentID, in.Signature) {
		return 0, apperrors.PaymentVerification(op, "Payment verification failed!")
	}
	return intent.Amount, nil
}

func (s *EnrollmentService) commit(ctx context.Context, op string, row models.Enrollment) (*models.Enrollment, bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var existing models.Enrollment
			err := tx.Where("order_id = ?", row.OrderID).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// completion key taken by another order
				return apperrors.Conflict(op, "Already enrolled in this course!")
			}
			if err != nil {
				return err
			}
			if existing.StudentID != row.StudentID || existing.CourseID != row.CourseID {
				return apperrors.Conflict(op, "Order already used for another enrollment!")
			}
			row = existing
			return nil
		}

		created = true
		effects := make([]models.SideEffect, 0, 3)
		for _, kind := range []models.SideEffectKind{
			models.SideEffectIncrementStudents,
			models.SideEffectAddEnrolledCourse,
			models.SideEffectEnrollmentEmail,
		} {
			effects = append(effects, models.SideEffect{
				Kind:          kind,
				EnrollmentID:  row.ID,
				CourseID:      row.CourseID,
				UserID:        row.StudentID,
				Status:        models.SideEffectPending,
				NextAttemptAt: row.EnrolledAt,
			})
		}
		return tx.Create(&effects).Error
	})
	if err != nil {
		return nil, false, apperrors.Classify(op, err)
	}
	return &row, created, nil
}

// IsEnrolled reports whether the student holds a completed enrollment
func (s *EnrollmentService) IsEnrolled(ctx context.Context, studentID, courseID uint) (bool, error) {
	return isEnrolled(ctx, s.db, studentID, courseID)
}

func isEnrolled(ctx context.Context, db *gorm.DB, studentID, courseID uint) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ? AND status = ?", studentID, courseID, models.EnrollmentCompleted).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Classify("enrollment.IsEnrolled", err)
	}
	return count > 0, nil
}

// ListEnrollments returns the student's enrollments newest first
func (s *EnrollmentService) ListEnrollments(ctx context.Context, studentID uint) ([]models.EnrollmentView, error) {
	var rows []models.Enrollment
	err := s.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Preload("Course").
		Order("created_at desc, id desc").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Classify("enrollment.ListEnrollments", err)
	}

	out := make([]models.EnrollmentView, 0, len(rows))
	for i := range rows {
		out = append(out, models.EnrollmentView{Enrollment: rows[i], Course: rows[i].Course.Summary()})
	}
	return out, nil
}

// EnrolledCourses lists courses in the student's enrolled set
func (s *EnrollmentService) EnrolledCourses(ctx context.Context, studentID uint) ([]course.Course, error) {
	var courses []course.Course
	err := s.db.WithContext(ctx).
		Joins("JOIN user_courses ON user_courses.course_id = courses.id").
		Where("user_courses.user_id = ?", studentID).
		Order("user_courses.created_at desc").
		Find(&courses).Error
	if err != nil {
		return nil, apperrors.Classify("enrollment.EnrolledCourses", err)
	}
	return courses, nil
}
