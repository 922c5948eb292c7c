package services

import (
	"context"
	"errors"
	"time"

	"learnhub/apperrors"
	"learnhub/logger"
	"learnhub/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService owns registration, login and admin role changes
type UserService struct {
	db   *gorm.DB
	log  *logger.Logger
	cost int
}

func NewUserService(db *gorm.DB, log *logger.Logger) *UserService {
	if log == nil {
		log = logger.Nop()
	}
	return &UserService{db: db, log: log.With("component", "UserService"), cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost
func (s *UserService) WithHashCost(cost int) *UserService {
	s.cost = cost
	return s
}

func (s *UserService) Register(ctx context.Context, name, email, password, role string) (*models.User, error) {
	const op = "users.Register"
	if role == "" {
		role = models.RoleStudent
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, apperrors.Classify(op, err)
	}
	if existing > 0 {
		return nil, apperrors.Conflict(op, "Email is already registered!")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, apperrors.Internal(op, err)
	}

	user := models.User{Name: name, Email: email, Password: string(hashed), Role: role}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict(op, "Email is already registered!")
		}
		return nil, apperrors.Classify(op, err)
	}

	s.log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return &user, nil
}

// Authenticate checks credentials and stamps LastLogin. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	const op = "users.Authenticate"
	invalid := apperrors.Validation(op, "Invalid credentials!")

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid
		}
		return nil, apperrors.Classify(op, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.log.Warn("failed login", "user_id", user.ID)
		return nil, invalid
	}
	if user.IsBlocked {
		return nil, apperrors.Forbidden(op, "Your account is blocked!")
	}

	loginAt := time.Now()
	user.LastLogin = &loginAt
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login", loginAt).Error; err != nil {
		s.log.Warn("could not stamp last login", "user_id", user.ID, "error", err)
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&users).Error; err != nil {
		return nil, apperrors.Classify("users.List", err)
	}
	return users, nil
}

func (s *UserService) SetRole(ctx context.Context, userID uint, role string) (*models.User, error) {
	const op = "users.SetRole"
	switch role {
	case models.RoleStudent, models.RoleInstructor, models.RoleAdmin:
	default:
		return nil, apperrors.Validation(op, "Invalid role!")
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("role", role)
	if res.Error != nil {
		return nil, apperrors.Classify(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound(op, "User not found!")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, apperrors.Classify(op, err)
	}
	s.log.Info("user role changed", "user_id", userID, "role", role)
	return &user, nil
}

func (s *UserService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("users.Profile", "User not found!")
		}
		return nil, apperrors.Classify("users.Profile", err)
	}
	return &user, nil
}
