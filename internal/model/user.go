package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleMentor  Role = "mentor"
)

func (r Role) IsValid() bool {
	return r == RoleStudent || r == RoleMentor
}

// User は学生・メンター共通のアカウント
type User struct {
	UserID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	Username     string     `gorm:"not null;uniqueIndex" json:"username"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         Role       `gorm:"type:varchar(16);not null;index" json:"role"`
	Email        *string    `json:"email,omitempty"`
	MentorCode   *string    `gorm:"uniqueIndex" json:"mentor_code,omitempty"` // メンターのみ
	MentorID     *uuid.UUID `gorm:"type:uuid;index" json:"mentor_id,omitempty"` // 学生のみ
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

type ContextKey string

const (
	UserIDKey ContextKey = "userID"
	RoleKey   ContextKey = "role"
)

// SignupRequest は新規登録APIのリクエストボディ
type SignupRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=50"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Role       Role   `json:"role" validate:"required,oneof=student mentor"`
	MentorCode string `json:"mentor_code" validate:"omitempty,max=32"`
	Email      string `json:"email" validate:"omitempty,email"`
}

// LoginRequest はログインAPIのリクエストボディ
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse はログイン成功時のレスポンス
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Role        Role   `json:"role"`
}

// UserResponse はクライアントに返すユーザー情報
type UserResponse struct {
	UserID     uuid.UUID  `json:"user_id"`
	Username   string     `json:"username"`
	Role       Role       `json:"role"`
	Email      *string    `json:"email,omitempty"`
	MentorCode *string    `json:"mentor_code,omitempty"`
	MentorID   *uuid.UUID `json:"mentor_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func NewUserResponse(u *User) *UserResponse {
	return &UserResponse{
		UserID:     u.UserID,
		Username:   u.Username,
		Role:       u.Role,
		Email:      u.Email,
		MentorCode: u.MentorCode,
		MentorID:   u.MentorID,
		CreatedAt:  u.CreatedAt,
	}
}
