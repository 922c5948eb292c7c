package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"learnhub/gateway"
	"learnhub/models"
	"learnhub/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "rzp_test_secret"

type fakeGateway struct {
	calls  atomic.Int32
	err    error
	block  bool
	nextID atomic.Int32
}

func (g *fakeGateway) CreateIntent(ctx context.Context, amount int64, currency, receipt string) (gateway.Intent, error) {
	g.calls.Add(1)
	if g.block {
		<-ctx.Done()
		return gateway.Intent{}, ctx.Err()
	}
	if g.err != nil {
		return gateway.Intent{}, g.err
	}
	n := g.nextID.Add(1)
	return gateway.Intent{ID: fmt.Sprintf("order_test_%d", n), Amount: amount, Currency: currency, Receipt: receipt}, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return gateway.VerifySignature(testSecret, orderID, paymentID, signature)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	fail error
}

func (m *recordingMailer) SendEnrollmentConfirmation(ctx context.Context, to, name, courseTitle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, to+"|"+courseTitle)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fixture struct {
	db         *gorm.DB
	gw         *fakeGateway
	mailer     *recordingMailer
	outbox     *OutboxDispatcher
	enrollment *EnrollmentService
	progress   *ProgressService
	rating     *RatingService
	student    models.User
	instructor models.User
}

func newFixture(t *testing.T, opts EnrollmentOptions) *fixture {
	t.Helper()
	return newFixtureOn(t, testutil.NewDB(t), opts)
}

// eachBackend runs fn on sqlite and, when TEST_POSTGRES_DSN is set, on
// Postgres where row locks and ON CONFLICT actually contend.
func eachBackend(t *testing.T, fn func(t *testing.T, f *fixture)) {
	t.Run("sqlite", func(t *testing.T) {
		fn(t, newFixture(t, EnrollmentOptions{}))
	})
	t.Run("postgres", func(t *testing.T) {
		fn(t, newFixtureOn(t, testutil.NewPostgresDB(t), EnrollmentOptions{}))
	})
}

func newFixtureOn(t *testing.T, db *gorm.DB, opts EnrollmentOptions) *fixture {
	t.Helper()
	f := &fixture{db: db, gw: &fakeGateway{}, mailer: &recordingMailer{}}
	f.outbox = NewOutboxDispatcher(db, f.mailer, nil)
	f.enrollment = NewEnrollmentService(db, f.gw, gateway.NewGormIntentRegistry(db), f.outbox, nil, opts)
	f.progress = NewProgressService(db, nil)
	f.rating = NewRatingService(db, nil)
	f.student = testutil.CreateUser(t, db, "student", models.RoleStudent)
	f.instructor = testutil.CreateUser(t, db, "instructor", models.RoleInstructor)
	return f
}

// enroll runs the paid flow end to end and returns the enrollment
func (f *fixture) enroll(t *testing.T, studentID, courseID uint) *models.Enrollment {
	t.Helper()
	ctx := context.Background()
	intent, err := f.enrollment.CreatePaymentIntent(ctx, studentID, courseID)
	require.NoError(t, err)
	e, _, err := f.enrollment.VerifyAndCommit(ctx, Confirmation{
		StudentID: studentID,
		CourseID:  courseID,
		OrderID:   intent.ID,
		PaymentID: "pay_" + intent.ID,
		Signature: gateway.Sign(testSecret, intent.ID, "pay_"+intent.ID),
	})
	require.NoError(t, err)
	return e
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

var errMailDown = errors.New("smtp relay down")

func signFor(orderID, paymentID string) string {
	return gateway.Sign(testSecret, orderID, paymentID)
}
