//go:generate mockery --name UserRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"schedulr/internal/middleware"
	"schedulr/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *model.User) error
	FindByID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*model.User, error)
	FindByUsername(ctx context.Context, db *gorm.DB, username string) (*model.User, error)
	FindMentorByCode(ctx context.Context, db *gorm.DB, code string) (*model.User, error)
	ListStudentsByMentor(ctx context.Context, db *gorm.DB, mentorID uuid.UUID) ([]*model.User, error)
}

type gormUserRepository struct{}

func NewGormUserRepository() UserRepository {
	return &gormUserRepository{}
}

func (r *gormUserRepository) Create(ctx context.Context, tx *gorm.DB, user *model.User) error {
	logger := middleware.GetLogger(ctx)
	if err := tx.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("gormUserRepository.Create: %w", model.ErrConflict)
		}
		logger.Error("Error creating user in DB", "error", err, "username", user.Username)
		return fmt.Errorf("gormUserRepository.Create: %w", err)
	}
	return nil
}

func (r *gormUserRepository) FindByID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*model.User, error) {
	return r.findOne(ctx, db, "FindByID", "user_id = ?", userID)
}

func (r *gormUserRepository) FindByUsername(ctx context.Context, db *gorm.DB, username string) (*model.User, error) {
	return r.findOne(ctx, db, "FindByUsername", "username = ?", username)
}

func (r *gormUserRepository) FindMentorByCode(ctx context.Context, db *gorm.DB, code string) (*model.User, error) {
	return r.findOne(ctx, db, "FindMentorByCode", "mentor_code = ? AND role = ?", code, model.RoleMentor)
}

func (r *gormUserRepository) findOne(ctx context.Context, db *gorm.DB, op string, query string, args ...interface{}) (*model.User, error) {
	logger := middleware.GetLogger(ctx)
	var user model.User
	if err := db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding user in DB", "error", err, "op", op)
		return nil, fmt.Errorf("gormUserRepository.%s: %w", op, err)
	}
	return &user, nil
}

func (r *gormUserRepository) ListStudentsByMentor(ctx context.Context, db *gorm.DB, mentorID uuid.UUID) ([]*model.User, error) {
	logger := middleware.GetLogger(ctx)
	var users []*model.User
	err := db.WithContext(ctx).
		Where("mentor_id = ? AND role = ?", mentorID, model.RoleStudent).
		Order("username ASC").
		Find(&users).Error
	if err != nil {
		logger.Error("Error listing students in DB", "error", err, "mentor_id", mentorID.String())
		return nil, fmt.Errorf("gormUserRepository.ListStudentsByMentor: %w", err)
	}
	return users, nil
}
