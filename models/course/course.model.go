package course

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Status values for Course.Status
const (
	StatusDraft    = "draft"
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Course represents a learning course owned by an instructor
type Course struct {
	gorm.Model
	Title        string  `json:"title"`
	Description  string  `json:"description" gorm:"type:text"`
	InstructorID uint    `json:"instructor_id" gorm:"index;not null"`
	Category     string  `json:"category" gorm:"index"`
	Level        string  `json:"level" gorm:"default:'Beginner'"`
	Language     string  `json:"language" gorm:"default:'English'"`
	ThumbnailURL string  `json:"thumbnail_url"`
	Price        float64 `json:"price" gorm:"not null;default:0;check:price >= 0"` // major currency units, 0 = free
	Status       string  `json:"status" gorm:"type:varchar(20);default:'draft';index"`

	// Aggregates maintained by enrollment and rating writes only
	StudentsEnrolled int64   `json:"students_enrolled" gorm:"default:0"`
	AverageRating    float64 `json:"average_rating" gorm:"default:0"`
	TotalRatings     int64   `json:"total_ratings" gorm:"default:0"`
	// Legacy mirrors of AverageRating/TotalRatings for older clients
	Rating     float64 `json:"rating" gorm:"default:0"`
	NumReviews int64   `json:"num_reviews" gorm:"default:0"`

	Modules  datatypes.JSONSlice[Module]  `json:"modules"`
	Chapters datatypes.JSONSlice[Chapter] `json:"chapters,omitempty"` // deprecated flat layout
}

// IsFree reports whether enrollment bypasses the payment gateway
func (c *Course) IsFree() bool {
	return c.Price == 0
}

// LessonSource returns whichever content layout is authoritative for this course
func (c *Course) LessonSource() LessonSource {
	if len(c.Modules) > 0 {
		return ModuleSource(c.Modules)
	}
	return LegacyChapterSource(c.Chapters)
}

// Summary is the trimmed course embedded in enrollment listings
type Summary struct {
	ID           uint    `json:"id"`
	Title        string  `json:"title"`
	ThumbnailURL string  `json:"thumbnail_url"`
	Price        float64 `json:"price"`
	InstructorID uint    `json:"instructor_id"`
}

func (c *Course) Summary() Summary {
	return Summary{
		ID:           c.ID,
		Title:        c.Title,
		ThumbnailURL: c.ThumbnailURL,
		Price:        c.Price,
		InstructorID: c.InstructorID,
	}
}
