package testutil

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"learnhub/database"
	"learnhub/models"
	"learnhub/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB returns a migrated in-memory sqlite database private to the test.
// The pool holds one connection, so concurrent callers are serialized and
// row locks are never contended; use NewPostgresDB for that.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := database.Open("sqlite", dsn, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// NewPostgresDB returns a migrated Postgres database in a schema private to
// the test, with a multi-connection pool. Skips unless TEST_POSTGRES_DSN is set.
func NewPostgresDB(t testing.TB) *gorm.DB {
	t.Helper()
	base := os.Getenv("TEST_POSTGRES_DSN")
	if base == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	schema := fmt.Sprintf("learnhub_test_%d_%d", os.Getpid(), dbSeq.Add(1))

	admin, err := database.Open("postgres", base, gormCfg)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	if err := admin.Exec("CREATE SCHEMA " + schema).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}

	db, err := database.Open("postgres", withSearchPath(base, schema), gormCfg)
	if err != nil {
		t.Fatalf("open postgres schema: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(16)
	t.Cleanup(func() {
		_ = sqlDB.Close()
		_ = admin.Exec("DROP SCHEMA " + schema + " CASCADE").Error
		if adminDB, err := admin.DB(); err == nil {
			_ = adminDB.Close()
		}
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func withSearchPath(dsn, schema string) string {
	if strings.Contains(dsn, "://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + "search_path=" + schema
	}
	return dsn + " search_path=" + schema
}

// CreateUser inserts a user with the given role
func CreateUser(t testing.TB, db *gorm.DB, name, role string) models.User {
	t.Helper()
	u := models.User{Name: name, Email: fmt.Sprintf("%s_%d@example.com", name, dbSeq.Add(1)), Password: "x", Role: role}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreateCourse inserts an approved course with one module of n lessons
func CreateCourse(t testing.TB, db *gorm.DB, instructorID uint, price float64, lessons int) course.Course {
	t.Helper()
	mod := course.Module{Title: "Module 1"}
	for i := 0; i < lessons; i++ {
		mod.Lessons = append(mod.Lessons, course.Lesson{
			Title: fmt.Sprintf("Lesson %d", i+1), Type: course.LessonVideo, Content: "https://cdn.example.com/v.mp4", Duration: 300, Order: i,
		})
	}
	c := course.Course{
		Title:        "Go for Backends",
		Description:  "Services, storage and concurrency",
		InstructorID: instructorID,
		Category:     "Programming",
		Price:        price,
		Status:       course.StatusApproved,
	}
	if lessons > 0 {
		c.Modules = []course.Module{mod}
	}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("create course: %v", err)
	}
	return c
}
