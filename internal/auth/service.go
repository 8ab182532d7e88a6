package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	userModel "terminal-terrace/video-lead/internal/model/user"
	"terminal-terrace/video-lead/internal/user"
	"terminal-terrace/video-lead/pkg/authsdk"
	"terminal-terrace/video-lead/pkg/response"
)

// UserStore 认证所需的用户存取
type UserStore interface {
	Create(ctx context.Context, u *userModel.User) error
	FindByEmail(ctx context.Context, email string) (*userModel.User, error)
	FindByID(ctx context.Context, id uint) (*userModel.User, error)
}

type AuthService struct {
	users      UserStore
	secret     string
	ttl        time.Duration
	bcryptCost int
	log        zerolog.Logger
}

func NewAuthService(users UserStore, secret string, ttl time.Duration, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, secret: secret, ttl: ttl, bcryptCost: bcrypt.DefaultCost, log: log}
}

// Register 账号密码注册，成功后直接签发令牌
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, *response.BusinessError) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || req.Password == "" {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.InvalidParameter),
			response.WithErrorMessage("Missing required fields"),
		)
	}
	if name == "" {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.InvalidParameter),
			response.WithErrorMessage("Name is required for registration"),
		)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.Fail),
			response.WithErrorMessage("密码加密失败"),
			response.WithError(err),
		)
	}

	newUser := &userModel.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hashed),
		Role:         userModel.RoleUser,
	}
	if err := s.users.Create(ctx, newUser); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return nil, response.NewBusinessError(
				response.WithErrorCode(response.Conflict),
				response.WithErrorMessage("User with this email already exists"),
			)
		}
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.StorageFailed),
			response.WithErrorMessage("用户创建失败"),
			response.WithError(err),
		)
	}

	s.log.Info().Uint("user_id", newUser.ID).Msg("user registered")
	return s.issue(newUser)
}

// Login 邮箱密码登录
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, *response.BusinessError) {
	invalid := response.NewBusinessError(
		response.WithErrorCode(response.Unauthorized),
		response.WithErrorMessage("Invalid email or password"),
	)

	u, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.StorageFailed),
			response.WithErrorMessage("查询用户失败"),
			response.WithError(err),
		)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, invalid
	}

	return s.issue(u)
}

// Me 返回令牌对应用户的最新信息
func (s *AuthService) Me(ctx context.Context, userID uint) (*MeResponse, *response.BusinessError) {
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.Unauthorized),
			response.WithErrorMessage("用户不存在"),
		)
	}
	if err != nil {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.StorageFailed),
			response.WithErrorMessage("查询用户失败"),
			response.WithError(err),
		)
	}
	return &MeResponse{Success: true, User: toUserInfo(u)}, nil
}

func (s *AuthService) issue(u *userModel.User) (*AuthResponse, *response.BusinessError) {
	token, err := authsdk.GenerateToken(authsdk.UserContext{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
	}, s.secret, s.ttl)
	if err != nil {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.Fail),
			response.WithErrorMessage("生成令牌失败"),
			response.WithError(err),
		)
	}
	return &AuthResponse{Success: true, Token: token, User: toUserInfo(u)}, nil
}

func toUserInfo(u *userModel.User) UserInfo {
	return UserInfo{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
