//go:generate mockery --name AuthService --output ./mocks --outpkg mocks --case=underscore
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"schedulr/internal/cache"
	"schedulr/internal/config"
	"schedulr/internal/middleware"
	"schedulr/internal/model"
	"schedulr/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// mentorCodeAttempts はメンターコードが衝突したときの再生成回数の上限
const mentorCodeAttempts = 5

type AuthService interface {
	Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	// Logout はトークンの jti を有効期限まで失効リストに載せる
	Logout(ctx context.Context, token middleware.TokenInfo) error
	GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

type authService struct {
	db       *gorm.DB
	userRepo repository.UserRepository
	denylist cache.TokenDenylist
	mailer   Mailer
	cfg      *config.Config
}

func NewAuthService(db *gorm.DB, userRepo repository.UserRepository, denylist cache.TokenDenylist, mailer Mailer, cfg *config.Config) AuthService {
	return &authService{
		db:       db,
		userRepo: userRepo,
		denylist: denylist,
		mailer:   mailer,
		cfg:      cfg,
	}
}

// Signup は学生・メンターを登録します。
// メンターには一意のメンターコードを発行し、学生はメンターコードでメンターに紐づく。
func (s *authService) Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error) {
	logger := middleware.GetLogger(ctx)
	username := strings.TrimSpace(req.Username)
	mentorCode := strings.TrimSpace(req.MentorCode)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Failed to hash password", "error", err)
		return nil, model.NewInternalError("Failed to process the password.", err)
	}

	user := &model.User{
		UserID:       uuid.New(),
		Username:     username,
		PasswordHash: string(hashedPassword),
		Role:         req.Role,
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		user.Email = &email
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.userRepo.FindByUsername(ctx, tx, username)
		if err == nil {
			logger.Warn("Username already exists", "username", username)
			return model.NewAppError("DUPLICATE_USERNAME", "Username already exists.", "username", model.ErrConflict)
		}
		if !errors.Is(err, model.ErrNotFound) {
			return model.NewInternalError("", err)
		}

		switch req.Role {
		case model.RoleStudent:
			if mentorCode == "" {
				return model.NewAppError("MENTOR_CODE_REQUIRED", "Mentor code is required for student signup.", "mentor_code", model.ErrInvalidInput)
			}
			mentor, err := s.userRepo.FindMentorByCode(ctx, tx, mentorCode)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					logger.Warn("Signup with unknown mentor code", "username", username)
					return model.NewAppError("INVALID_MENTOR_CODE", "Invalid mentor code. Please check with your mentor.", "mentor_code", model.ErrInvalidInput)
				}
				return model.NewInternalError("", err)
			}
			user.MentorID = &mentor.UserID
			return s.create(ctx, tx, user)

		case model.RoleMentor:
			for attempt := 0; attempt < mentorCodeAttempts; attempt++ {
				code, err := generateMentorCode()
				if err != nil {
					return model.NewInternalError("Failed to generate a mentor code.", err)
				}
				_, err = s.userRepo.FindMentorByCode(ctx, tx, code)
				if err == nil {
					logger.Debug("Mentor code collision, retrying", "attempt", attempt)
					continue
				}
				if !errors.Is(err, model.ErrNotFound) {
					return model.NewInternalError("", err)
				}
				user.MentorCode = &code
				return s.create(ctx, tx, user)
			}
			return model.NewInternalError("Failed to generate a unique mentor code.", errors.New("mentor code attempts exhausted"))

		default:
			return model.NewAppError("INVALID_ROLE", "Invalid role.", "role", model.ErrInvalidInput)
		}
	})
	if err != nil {
		return nil, err
	}

	logger.Info("User signed up", "user_id", user.UserID, "role", user.Role)

	// コードはレスポンスにも含まれるため、送信失敗で登録は取り消さない
	if user.Role == model.RoleMentor && user.Email != nil {
		if err := s.sendMentorCodeEmail(ctx, *user.Email, *user.MentorCode); err != nil {
			logger.Warn("Failed to send mentor code email", "error", err, "user_id", user.UserID)
		}
	}
	return user, nil
}

func (s *authService) create(ctx context.Context, tx *gorm.DB, user *model.User) error {
	if err := s.userRepo.Create(ctx, tx, user); err != nil {
		if errors.Is(err, model.ErrConflict) {
			middleware.GetLogger(ctx).Warn("Conflict during user creation (race condition)", "error", err)
			return model.NewAppError("DUPLICATE_USERNAME", "Username already exists.", "username", model.ErrConflict)
		}
		return model.NewInternalError("Failed to create the user.", err)
	}
	return nil
}

func (s *authService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	logger := middleware.GetLogger(ctx).With("username", req.Username)

	user, err := s.userRepo.FindByUsername(ctx, s.db, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Login failed: user not found")
			return nil, model.NewAppError("AUTHENTICATION_FAILED", "Invalid username or password.", "", model.ErrInvalidInput)
		}
		logger.Error("Login failed: db error on FindByUsername", "error", err)
		return nil, model.NewInternalError("", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logger.Warn("Login failed: password mismatch", "user_id", user.UserID)
		return nil, model.NewAppError("AUTHENTICATION_FAILED", "Invalid username or password.", "", model.ErrInvalidInput)
	}

	now := time.Now()
	claims := &model.JWTCustomClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.cfg.App.Name,
			Subject:   user.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWT.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		logger.Error("Failed to sign JWT", "error", err, "user_id", user.UserID)
		return nil, model.NewInternalError("Failed to issue a token.", err)
	}

	logger.Info("Login successful", "user_id", user.UserID)
	return &model.LoginResponse{
		AccessToken: signedToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.cfg.JWT.AccessTokenTTL.Seconds()),
		Role:        user.Role,
	}, nil
}

func (s *authService) Logout(ctx context.Context, token middleware.TokenInfo) error {
	logger := middleware.GetLogger(ctx)
	if token.ID == "" {
		// jti の無いトークンは失効させようがない
		logger.Warn("Logout with a token without jti")
		return nil
	}
	if err := s.denylist.Revoke(ctx, token.ID, token.ExpiresAt); err != nil {
		logger.Error("Failed to revoke token", "error", err)
		return model.NewInternalError("Failed to log out.", err)
	}
	logger.Info("Token revoked", "jti", token.ID)
	return nil
}

func (s *authService) GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	logger := middleware.GetLogger(ctx)
	user, err := s.userRepo.FindByID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("User not found", "user_id", userID.String())
			return nil, model.NewAppError("USER_NOT_FOUND", "User not found.", "", model.ErrNotFound)
		}
		logger.Error("Error finding user by ID", "error", err)
		return nil, model.NewInternalError("", err)
	}
	return user, nil
}

// --- ヘルパー関数 ---

// generateMentorCode は16進8文字のコードを返す
func generateMentorCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *authService) sendMentorCodeEmail(ctx context.Context, email, code string) error {
	return s.mailer.Send(ctx, MentorCodeMessage(s.cfg.App.Name, email, code))
}
