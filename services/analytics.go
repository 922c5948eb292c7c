package services

import (
	"context"
	"math"
	"time"

	"learnhub/apperrors"
	"learnhub/models"
	"learnhub/models/course"

	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// CourseEnrollments is one row of the per-course breakdown
type CourseEnrollments struct {
	CourseID uint   `json:"course_id"`
	Title    string `json:"title"`
	Count    int64  `json:"count"`
}

// InstructorAnalytics is the instructor dashboard summary. Revenue is in
// major currency units.
type InstructorAnalytics struct {
	TotalCourses         int                 `json:"total_courses"`
	TotalStudents        int64               `json:"total_students"`
	TotalEnrollments     int64               `json:"total_enrollments"`
	EnrollmentsThisMonth int64               `json:"enrollments_this_month"`
	TotalRevenue         float64             `json:"total_revenue"`
	AverageRating        float64             `json:"average_rating"`
	EnrollmentsByCourse  []CourseEnrollments `json:"enrollments_by_course"`
}

// AnalyticsService answers instructor dashboard queries
type AnalyticsService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db, now: time.Now}
}

func (s *AnalyticsService) Instructor(ctx context.Context, instructorID uint) (*InstructorAnalytics, error) {
	const op = "analytics.Instructor"
	db := s.db.WithContext(ctx)

	var courses []course.Course
	if err := db.Select("id", "title", "price").Where("instructor_id = ?", instructorID).Order("id").Find(&courses).Error; err != nil {
		return nil, apperrors.Classify(op, err)
	}
	out := &InstructorAnalytics{TotalCourses: len(courses), EnrollmentsByCourse: []CourseEnrollments{}}
	if len(courses) == 0 {
		return out, nil
	}

	ids := make([]uint, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}
	completed := db.Model(&models.Enrollment{}).Where("course_id IN ? AND status = ?", ids, models.EnrollmentCompleted)

	if err := completed.Session(&gorm.Session{}).Distinct("student_id").Count(&out.TotalStudents).Error; err != nil {
		return nil, apperrors.Classify(op, err)
	}

	var counts []struct {
		CourseID uint
		Count    int64
	}
	if err := completed.Session(&gorm.Session{}).Select("course_id, COUNT(*) AS count").Group("course_id").Scan(&counts).Error; err != nil {
		return nil, apperrors.Classify(op, err)
	}
	byCourse := make(map[uint]int64, len(counts))
	for _, row := range counts {
		byCourse[row.CourseID] = row.Count
	}
	for _, c := range courses {
		n := byCourse[c.ID]
		out.TotalEnrollments += n
		out.TotalRevenue += float64(n) * c.Price
		if n > 0 {
			out.EnrollmentsByCourse = append(out.EnrollmentsByCourse, CourseEnrollments{CourseID: c.ID, Title: c.Title, Count: n})
		}
	}

	monthStart := now.With(s.now()).BeginningOfMonth()
	if err := completed.Session(&gorm.Session{}).Where("enrolled_at >= ?", monthStart).Count(&out.EnrollmentsThisMonth).Error; err != nil {
		return nil, apperrors.Classify(op, err)
	}

	var avg float64
	if err := db.Model(&models.Review{}).Select("COALESCE(AVG(rating), 0)").Where("course_id IN ?", ids).Scan(&avg).Error; err != nil {
		return nil, apperrors.Classify(op, err)
	}
	out.AverageRating = math.Round(avg*10) / 10
	return out, nil
}
