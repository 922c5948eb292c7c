package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentIntent records an intent issued to a student so the confirmation can
// be matched back to the same student and course.
type PaymentIntent struct {
	gorm.Model
	IntentID  string    `json:"intent_id" gorm:"type:varchar(100);uniqueIndex;not null"`
	StudentID uint      `json:"student_id" gorm:"index;not null"`
	CourseID  uint      `json:"course_id" gorm:"index;not null"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency" gorm:"type:varchar(10)"`
	Receipt   string    `json:"receipt" gorm:"type:varchar(64)"`
	Mock      bool      `json:"mock" gorm:"default:false"`
	ExpiresAt time.Time `json:"expires_at"`
}
