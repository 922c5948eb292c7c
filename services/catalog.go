package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"learnhub/apperrors"
	"learnhub/models"
	"learnhub/models/course"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MinorUnits converts a major-unit price to the gateway's minor unit
func MinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// FreeOrderID is the deterministic ledger order id of a free enrollment
func FreeOrderID(courseID, studentID uint) string {
	return fmt.Sprintf("free_%d_%d", courseID, studentID)
}

func findCourse(ctx context.Context, db *gorm.DB, op string, courseID uint) (*course.Course, error) {
	var c course.Course
	err := db.WithContext(ctx).First(&c, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(op, "Course not found!")
	}
	if err != nil {
		return nil, apperrors.Classify(op, err)
	}
	return &c, nil
}

// Catalog is the thin course store the core depends on
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) FindByID(ctx context.Context, courseID uint) (*course.Course, error) {
	return findCourse(ctx, c.db, "catalog.FindByID", courseID)
}

// ListFilter narrows ListApproved; Search matches title or category
type ListFilter struct {
	Search   string
	Category string
	Page     int
	Limit    int
}

// ListApproved returns approved courses newest first plus the unpaged total
func (c *Catalog) ListApproved(ctx context.Context, f ListFilter) ([]course.Course, int64, error) {
	q := c.db.WithContext(ctx).Model(&course.Course{}).Where("status = ?", course.StatusApproved)
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(category) LIKE ?", like, like)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Classify("catalog.ListApproved", err)
	}

	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	var courses []course.Course
	err := q.Order("created_at desc").Offset((f.Page - 1) * f.Limit).Limit(f.Limit).Find(&courses).Error
	if err != nil {
		return nil, 0, apperrors.Classify("catalog.ListApproved", err)
	}
	return courses, total, nil
}

// ListAll returns every course for moderation, newest first
func (c *Catalog) ListAll(ctx context.Context) ([]course.Course, error) {
	var courses []course.Course
	if err := c.db.WithContext(ctx).Order("created_at desc").Find(&courses).Error; err != nil {
		return nil, apperrors.Classify("catalog.ListAll", err)
	}
	return courses, nil
}

func (c *Catalog) ListByInstructor(ctx context.Context, instructorID uint) ([]course.Course, error) {
	var courses []course.Course
	err := c.db.WithContext(ctx).Where("instructor_id = ?", instructorID).Order("created_at desc").Find(&courses).Error
	if err != nil {
		return nil, apperrors.Classify("catalog.ListByInstructor", err)
	}
	return courses, nil
}

// Create stores a new course owned by instructorID. Aggregates always start at zero.
func (c *Catalog) Create(ctx context.Context, instructorID uint, in course.Course) (*course.Course, error) {
	in.ID = 0
	in.InstructorID = instructorID
	in.Status = course.StatusDraft
	in.StudentsEnrolled, in.AverageRating, in.TotalRatings, in.Rating, in.NumReviews = 0, 0, 0, 0, 0
	if err := c.db.WithContext(ctx).Create(&in).Error; err != nil {
		return nil, apperrors.Classify("catalog.Create", err)
	}
	return &in, nil
}

// ContentUpdate carries the instructor-editable fields of a course
type ContentUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Level       *string
	Price       *float64
	Modules     []course.Module
	Chapters    []course.Chapter
}

// UpdateContent edits a course the caller owns (admins may edit any). The
// aggregate columns are never touched here.
func (c *Catalog) UpdateContent(ctx context.Context, userID uint, role string, courseID uint, in ContentUpdate) (*course.Course, error) {
	const op = "catalog.UpdateContent"
	var out course.Course
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwnedCourse(tx, op, userID, role, courseID, &out); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.Title != nil {
			updates["title"] = *in.Title
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.Category != nil {
			updates["category"] = *in.Category
		}
		if in.Level != nil {
			updates["level"] = *in.Level
		}
		if in.Price != nil {
			updates["price"] = *in.Price
		}
		if in.Modules != nil {
			updates["modules"] = datatypes.JSONSlice[course.Module](in.Modules)
		}
		if in.Chapters != nil {
			updates["chapters"] = datatypes.JSONSlice[course.Chapter](in.Chapters)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&out).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&out, courseID).Error
	})
	if err != nil {
		return nil, apperrors.Classify(op, err)
	}
	return &out, nil
}

// lockOwnedCourse loads courseID FOR UPDATE and checks the caller owns it or is an admin
func lockOwnedCourse(tx *gorm.DB, op string, userID uint, role string, courseID uint, out *course.Course) error {
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(out, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound(op, "Course not found!")
		}
		return err
	}
	if out.InstructorID != userID && role != models.RoleAdmin {
		return apperrors.Forbidden(op, "You can only manage your own courses!")
	}
	return nil
}

// Delete soft-deletes a course the caller owns (admins may delete any).
// Ledger rows stay; the course just stops resolving.
func (c *Catalog) Delete(ctx context.Context, userID uint, role string, courseID uint) error {
	const op = "catalog.Delete"
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target course.Course
		if err := lockOwnedCourse(tx, op, userID, role, courseID, &target); err != nil {
			return err
		}
		return tx.Delete(&target).Error
	})
	if err != nil {
		return apperrors.Classify(op, err)
	}
	return nil
}

// SetStatus moves a course through moderation
func (c *Catalog) SetStatus(ctx context.Context, courseID uint, status string) (*course.Course, error) {
	const op = "catalog.SetStatus"
	switch status {
	case course.StatusDraft, course.StatusPending, course.StatusApproved, course.StatusRejected:
	default:
		return nil, apperrors.Validation(op, "Invalid status!")
	}
	res := c.db.WithContext(ctx).Model(&course.Course{}).Where("id = ?", courseID).Update("status", status)
	if res.Error != nil {
		return nil, apperrors.Classify(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound(op, "Course not found!")
	}
	return findCourse(ctx, c.db, op, courseID)
}
