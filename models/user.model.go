package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles carried in the identity token
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

type User struct {
	gorm.Model
	Name         string     `json:"name" gorm:"default:''"`
	Email        string     `json:"email" gorm:"unique;not null"`
	Password     string     `json:"-" gorm:"not null"`
	Role         string     `json:"role" gorm:"type:varchar(20);default:'student'"`
	ProfileImage string     `json:"profile_image" gorm:"default:''"`
	LastLogin    *time.Time `json:"last_login"`
	IsBlocked    bool       `json:"is_blocked" gorm:"default:false"`
}

// UserCourse is the student's enrolled-course set; the pair is unique so
// appends are idempotent.
type UserCourse struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_course"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_user_course"`
	CreatedAt time.Time `json:"created_at"`
}
