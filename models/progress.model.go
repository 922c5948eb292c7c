package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Progress tracks which lessons a student completed in a course. The
// percentage is recomputed from scratch on every completion.
type Progress struct {
	gorm.Model
	UserID             uint                        `json:"user_id" gorm:"not null;uniqueIndex:idx_progress_user_course"`
	CourseID           uint                        `json:"course_id" gorm:"not null;uniqueIndex:idx_progress_user_course"`
	CompletedLessons   datatypes.JSONSlice[string] `json:"completed_lessons"`
	LastAccessedLesson *string                     `json:"last_accessed_lesson" gorm:"type:varchar(32)"`
	ProgressPercentage int                         `json:"progress_percentage" gorm:"default:0;check:progress_percentage >= 0 AND progress_percentage <= 100"`
}

func (Progress) TableName() string {
	return "user_progress"
}

// HasLesson reports whether key is already in the completed set
func (p *Progress) HasLesson(key string) bool {
	for _, k := range p.CompletedLessons {
		if k == key {
			return true
		}
	}
	return false
}
