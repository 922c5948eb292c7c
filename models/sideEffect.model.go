package models

import (
	"time"

	"gorm.io/gorm"
)

// SideEffectKind names a follow-up action of a committed enrollment
type SideEffectKind string

const (
	SideEffectIncrementStudents SideEffectKind = "increment_students"
	SideEffectAddEnrolledCourse SideEffectKind = "add_enrolled_course"
	SideEffectEnrollmentEmail   SideEffectKind = "send_enrollment_email"
)

// SideEffectStatus defines the state of an outbox row
type SideEffectStatus string

const (
	SideEffectPending SideEffectStatus = "pending"
	SideEffectDone    SideEffectStatus = "done"
	SideEffectFailed  SideEffectStatus = "failed" // gave up after max attempts
)

// SideEffect is an outbox row written in the same transaction as the
// enrollment it belongs to.
type SideEffect struct {
	gorm.Model
	Kind          SideEffectKind   `json:"kind" gorm:"type:varchar(40);not null;uniqueIndex:idx_side_effect_enrollment_kind"`
	EnrollmentID  uint             `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_side_effect_enrollment_kind"`
	CourseID      uint             `json:"course_id" gorm:"not null"`
	UserID        uint             `json:"user_id" gorm:"not null"`
	Status        SideEffectStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Attempts      int              `json:"attempts" gorm:"default:0"`
	LastError     string           `json:"last_error" gorm:"type:text"`
	NextAttemptAt time.Time        `json:"next_attempt_at" gorm:"index"`
}

func (SideEffect) TableName() string {
	return "side_effects"
}
