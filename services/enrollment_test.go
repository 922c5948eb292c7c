package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"learnhub/apperrors"
	"learnhub/gateway"
	"learnhub/models"
	"learnhub/models/course"
	"learnhub/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeCourseEnrollsWithoutGateway(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{})
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.db, f.instructor.ID, 0, 3)

	intent, err := f.enrollment.CreatePaymentIntent(ctx, f.student.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, FreeOrderID(c.ID, f.student.ID), intent.ID)
	assert.Equal(t, int64(0), intent.Amount)

	e, created, err := f.enrollment.VerifyAndCommit(ctx, Confirmation{StudentID: f.student.ID, CourseID: c.ID, OrderID: "free"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.EnrollmentCompleted, e.Status)
	assert.Equal(t, FreeOrderID(c.ID, f.student.ID), e.OrderID)
	assert.Nil(t, e.PaymentID)

	// replaying the free confirmation is a no-op
	_, created, err = f.enrollment.VerifyAndCommit(ctx, Confirmation{StudentID: f.student.ID, CourseID: c.ID})
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, int32(0), f.gw.calls.Load())
	assert.Equal(t, int64(1), countRows(t, f.db, &models.Enrollment{}, "student_id = ? AND course_id = ?", f.student.ID, c.ID))

	var got course.Course
	require.NoError(t, f.db.First(&got, c.ID).Error)
	assert.Equal(t, int64(1), got.StudentsEnrolled)
}

func TestPaidEnrollmentScenario(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{})
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.db, f.instructor.ID, 2999, 4)

	intent, err := f.enrollment.CreatePaymentIntent(ctx, f.student.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(299900), intent.Amount)
	assert.Equal(t, "INR", intent.Currency)
	assert.Equal(t, gateway.ReceiptFor(c.ID, f.student.ID), intent.Receipt)
	assert.Equal(t, int64(0), countRows(t, f.db, &models.Enrollment{}, "1 = 1"), "intent creation must not touch the ledger")

	e, created, err := f.enrollment.VerifyAndCommit(ctx, Confirmation{
		StudentID: f.student.ID,
		CourseID:  c.ID,
		OrderID:   intent.ID,
		PaymentID: "pay_1",
		Signature: gateway.Sign(testSecret, intent.ID, "pay_1"),
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(299900), e.Amount)
	require.NotNil(t, e.PaymentID)
	assert.Equal(t, "pay_1", *e.PaymentID)

	list, err := f.enrollment.ListEnrollments(ctx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.EnrollmentCompleted, list[0].Status)
	assert.Equal(t, c.ID, list[0].Course.ID)
	assert.Equal(t, c.Title, list[0].Course.Title)

	enrolled, err := f.enrollment.IsEnrolled(ctx, f.student.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)

	courses, err := f.enrollment.EnrolledCourses(ctx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, c.ID, courses[0].ID)
	assert.Equal(t, 1, f.mailer.count())
}

func TestTamperedSignatureLeavesNoTrace(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{})
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.db, f.instructor.ID, 499, 2)

	intent, err := f.enrollment.CreatePaymentIntent(ctx, f.student.ID, c.ID)
	require.NoError(t, err)

	good := gateway.Sign(testSecret, intent.ID, "pay_1")
	for _, sig := range []string{
		"",
		good[:len(good)-1] + "0",
		gateway.Sign("wrong_secret", intent.ID, "pay_1"),
		gateway.Sign(testSecret, intent.ID, "pay_2"),
	} {
		if sig == good {
			continue
		}
		_, _, err := f.enrollment.VerifyAndCommit(ctx, Confirmation{
			StudentID: f.student.ID, CourseID: c.ID, OrderID: intent.ID, PaymentID: "pay_1", Signature: sig,
		})
		assert.Equal(t, apperrors.KindPaymentVerification, apperrors.KindOf(err))
	}

	assert.Equal(t, int64(0), countRows(t, f.db, &models.Enrollment{}, "1 = 1"))
	assert.Equal(t, int64(0), countRows(t, f.db, &models.SideEffect{}, "1 = 1"))
}

func TestVerifyTwiceCommitsOnce(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{})
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.db, f.instructor.ID, 999, 2)

	intent, err := f.enrollment.CreatePaymentIntent(ctx, f.student.ID, c.ID)
	require.NoError(t, err)
	conf := Confirmation{
		StudentID: f.student.ID, CourseID: c.ID, OrderID: intent.ID, PaymentID: "pay_9",
		Signature: gateway.Sign(testSecret, intent.ID, "pay_9"),
	}

	first, created, err := f.enrollment.VerifyAndCommit(ctx, conf)
	require.NoError(t, err)
	assert.True(t, created)
	second, created, err := f.enrollment.VerifyAndCommit(ctx, conf)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var got course.Course
	require.NoError(t, f.db.First(&got, c.ID).Error)
	assert.Equal(t, int64(1), got.StudentsEnrolled)
	assert.Equal(t, int64(1), countRows(t, f.db, &models.Enrollment{}, "status = ?", models.EnrollmentCompleted))
	assert.Equal(t, int64(3), countRows(t, f.db, &models.SideEffect{}, "enrollment_id = ?", first.ID))
}

func TestReplayAfterIntentExpires(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{})
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.db, f.instructor.ID, 499, 1)
	rival := testutil.CreateUser(t, f.db, "rival", models.RoleStudent)

	intent, err := f.enrollment.CreatePaymentIntent(ctx, f.student.ID, c.ID)
	require.NoError(t, err)
	conf := Confirmation{
		StudentID: f.student.ID, CourseID: c.ID, OrderID: intent.ID, PaymentID: "pay_late",
		Signature: gateway.Sign(testSecret, intent.ID, "pay_late"),
	}
	first, created, err := f.enrollment.VerifyAndCommit(ctx, conf)
	require.NoError(t, err)
	require.True(t, created)

	require.NoError(t, f.db.Model(&models.PaymentIntent{}).
		Where("intent_id = ?", intent.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	again, created, err := f.enrollment.VerifyAndCommit(ctx, conf)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	forged := conf
	forged.PaymentID = "pay_other"
	forged.Signature = gateway.Sign(testSecret, intent.ID, "pay_other")
	_, _, err = f.enrollment.VerifyAndCommit(ctx, forged)
	assert.Equal(t, apperrors.KindPaymentVerification, apperrors.KindOf(err))

	stolen := conf
	stolen.StudentID = rival.ID
	_, _, err = f.enrollment.VerifyAndCommit(ctx, stolen)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	var got course.Course
	require.NoError(t, f.db.First(&got, c.ID).Error)
	assert.Equal(t, int64(1), got.StudentsEnrolled)
	assert.Equal(t, int64(1), countRows(t, f.db, &models.Enrollment{}, "course_id = ?", c.ID))
}

func TestConcurrentVerifyCommitsOnce(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		c := testutil.CreateCourse(t, f.db, f.instructor.ID, 999, 2)

		intent, err := f.enrollment.CreatePaymentIntent(ctx, f.student.ID, c.ID)
		require.NoError(t, err)
		conf := Confirmation{
			StudentID: f.student.ID, CourseID: c.ID, OrderID: intent.ID, PaymentID: "pay_c",
			Signature: gateway.Sign(testSecret, intent.ID, "pay_c"),
		}

		const workers = 8
		var wg sync.WaitGroup
		createdCount := make(chan bool, workers)
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, created, err := f.enrollment.VerifyAndCommit(ctx, conf)
				errs <- err
				createdCount <- created
			}()
		}
		wg.Wait()
		close(errs)
		close(createdCount)

		for err := range errs {
			require.NoError(t, err)
		}
		n := 0
		for created := range createdCount {
			if created {
				n++
			}
		}
		assert.Equal(t, 1, n)

		var got course.Course
		require.NoError(t, f.db.First(&got, c.ID).Error)
		assert.Equal(t, int64(1), got.StudentsEnrolled)
		assert.Equal(t, int64(1), countRows(t, f.db, &models.Enrollment{}, "course_id = ?", c.ID))
	})
}

func TestSecondOrderForEnrolledStudentConflicts(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{})
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.db, f.instructor.ID, 100, 1)

	first, err := f.enrollment.CreatePaymentIntent(ctx, f.student.ID, c.ID)
	require.NoError(t, err)
	second, err := f.enrollment.CreatePaymentIntent(ctx, f.student.ID, c.ID)
	require.NoError(t, err)

	_, _, err = f.enrollment.VerifyAndCommit(ctx, Confirmation{
		StudentID: f.student.ID, CourseID: c.ID, OrderID: first.ID, PaymentID: "pay_a",
		Signature: gateway.Sign(testSecret, first.ID, "pay_a"),
	})
	require.NoError(t, err)

	_, _, err = f.enrollment.VerifyAndCommit(ctx, Confirmation{
		StudentID: f.student.ID, CourseID: c.ID, OrderID: second.ID, PaymentID: "pay_b",
		Signature: gateway.Sign(testSecret, second.ID, "pay_b"),
	})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	_, err = f.enrollment.CreatePaymentIntent(ctx, f.student.ID, c.ID)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Equal(t, int64(1), countRows(t, f.db, &models.Enrollment{}, "course_id = ?", c.ID))
}

func TestIntentOwnership(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{})
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.db, f.instructor.ID, 100, 1)
	other := testutil.CreateCourse(t, f.db, f.instructor.ID, 100, 1)
	intruder := testutil.CreateUser(t, f.db, "intruder", models.RoleStudent)

	intent, err := f.enrollment.CreatePaymentIntent(ctx, f.student.ID, c.ID)
	require.NoError(t, err)
	sig := gateway.Sign(testSecret, intent.ID, "pay_x")

	_, _, err = f.enrollment.VerifyAndCommit(ctx, Confirmation{StudentID: intruder.ID, CourseID: c.ID, OrderID: intent.ID, PaymentID: "pay_x", Signature: sig})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, _, err = f.enrollment.VerifyAndCommit(ctx, Confirmation{StudentID: f.student.ID, CourseID: other.ID, OrderID: intent.ID, PaymentID: "pay_x", Signature: sig})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, _, err = f.enrollment.VerifyAndCommit(ctx, Confirmation{
		StudentID: f.student.ID, CourseID: c.ID, OrderID: "order_unknown", PaymentID: "pay_x",
		Signature: gateway.Sign(testSecret, "order_unknown", "pay_x"),
	})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	assert.Equal(t, int64(0), countRows(t, f.db, &models.Enrollment{}, "1 = 1"))
}

func TestUnknownCourse(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{})
	ctx := context.Background()

	_, err := f.enrollment.CreatePaymentIntent(ctx, f.student.ID, 4242)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	_, _, err = f.enrollment.VerifyAndCommit(ctx, Confirmation{StudentID: f.student.ID, CourseID: 4242})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestGatewayFailureFailsClosed(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{})
	f.gw.err = apperrors.Upstream("gateway.CreateIntent", "payment gateway unavailable", nil)
	c := testutil.CreateCourse(t, f.db, f.instructor.ID, 100, 1)

	_, err := f.enrollment.CreatePaymentIntent(context.Background(), f.student.ID, c.ID)
	assert.Equal(t, apperrors.KindUpstreamUnavailable, apperrors.KindOf(err))
	assert.Equal(t, int64(0), countRows(t, f.db, &models.PaymentIntent{}, "1 = 1"))

	f.gw.err = gateway.ErrNotConfigured
	_, err = f.enrollment.CreatePaymentIntent(context.Background(), f.student.ID, c.ID)
	assert.Equal(t, apperrors.KindUpstreamUnavailable, apperrors.KindOf(err))
}

func TestGatewayTimeoutIsBounded(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{GatewayTimeout: 30 * time.Millisecond})
	f.gw.block = true
	c := testutil.CreateCourse(t, f.db, f.instructor.ID, 100, 1)

	start := time.Now()
	_, err := f.enrollment.CreatePaymentIntent(context.Background(), f.student.ID, c.ID)
	assert.Equal(t, apperrors.KindUpstreamUnavailable, apperrors.KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, int64(0), countRows(t, f.db, &models.Enrollment{}, "1 = 1"))
}

func TestMockIntentsOnlyWhenAllowed(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{AllowMock: true})
	f.gw.err = gateway.ErrNotConfigured
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.db, f.instructor.ID, 250, 1)

	intent, err := f.enrollment.CreatePaymentIntent(ctx, f.student.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, intent.Mock)
	assert.Contains(t, intent.ID, "order_mock_")
	assert.Equal(t, int64(25000), intent.Amount)

	// a deployment with mocks switched off must refuse the same intent
	strict := NewEnrollmentService(f.db, f.gw, gateway.NewGormIntentRegistry(f.db), f.outbox, nil, EnrollmentOptions{})
	_, _, err = strict.VerifyAndCommit(ctx, Confirmation{StudentID: f.student.ID, CourseID: c.ID, OrderID: intent.ID, PaymentID: "pay_mock"})
	assert.Equal(t, apperrors.KindPaymentVerification, apperrors.KindOf(err))

	e, created, err := f.enrollment.VerifyAndCommit(ctx, Confirmation{StudentID: f.student.ID, CourseID: c.ID, OrderID: intent.ID, PaymentID: "pay_mock"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, intent.ID, e.OrderID)
}

func TestListEnrollmentsNewestFirst(t *testing.T) {
	f := newFixture(t, EnrollmentOptions{})
	a := testutil.CreateCourse(t, f.db, f.instructor.ID, 10, 1)
	b := testutil.CreateCourse(t, f.db, f.instructor.ID, 20, 1)

	f.enroll(t, f.student.ID, a.ID)
	f.enroll(t, f.student.ID, b.ID)

	list, err := f.enrollment.ListEnrollments(context.Background(), f.student.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].CourseID)
	assert.Equal(t, a.ID, list[1].CourseID)

	empty, err := f.enrollment.ListEnrollments(context.Background(), f.instructor.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(299900), MinorUnits(2999))
	assert.Equal(t, int64(1999), MinorUnits(19.99))
	assert.Equal(t, int64(0), MinorUnits(0))
}
