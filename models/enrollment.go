package models

import (
	"fmt"
	"time"

	"learnhub/models/course"

	"gorm.io/gorm"
)

// EnrollmentStatus is the ledger state of an enrollment
type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentFailed    EnrollmentStatus = "failed"
)

// Enrollment is the ledger row proving a student paid for (or was granted) a course.
//
// OrderID is unique, so replaying a confirmation can never create a second row.
// CompletionKey is only set on completed rows and is unique, so a student holds
// at most one completed enrollment per course.
type Enrollment struct {
	gorm.Model
	StudentID     uint             `json:"student_id" gorm:"index;not null"`
	CourseID      uint             `json:"course_id" gorm:"index;not null"`
	OrderID       string           `json:"order_id" gorm:"type:varchar(100);uniqueIndex;not null"`
	PaymentID     *string          `json:"payment_id" gorm:"type:varchar(100)"`
	Amount        int64            `json:"amount" gorm:"default:0"` // minor currency units
	Currency      string           `json:"currency" gorm:"type:varchar(10)"`
	Status        EnrollmentStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	CompletionKey *string          `json:"-" gorm:"type:varchar(64);uniqueIndex"`
	EnrolledAt    time.Time        `json:"enrolled_at"`

	Course course.Course `json:"-" gorm:"foreignKey:CourseID"`
}

// CompletionKeyFor builds the uniqueness key for a completed enrollment
func CompletionKeyFor(studentID, courseID uint) string {
	return fmt.Sprintf("%d:%d", studentID, courseID)
}

// EnrollmentView is an enrollment with its course summary embedded
type EnrollmentView struct {
	Enrollment
	Course course.Summary `json:"course"`
}
