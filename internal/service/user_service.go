package service

import (
	"cms-go/internal/model"
	"cms-go/internal/repository"
	"cms-go/pkg/hash"
	"cms-go/pkg/log"
	"cms-go/pkg/token"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// LoginResult 是登录和刷新 token 成功后返回给前端的数据。
type LoginResult struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	User         *model.User `json:"user"`
}

// UserService 接口定义了所有与认证相关的业务操作。
type UserService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	// Authenticate 校验 access token 并加载对应用户，已登出的 token 视为无效。
	Authenticate(ctx context.Context, tokenString string) (*model.User, *token.CustomClaims, error)
	RefreshToken(ctx context.Context, refreshTokenString string) (*LoginResult, error)
	Logout(ctx context.Context, tokenString string) error
	// EnsureAdmin 在用户表为空时创建初始管理员。
	EnsureAdmin(username, password string) error
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	blacklist  repository.TokenBlacklist
	jwtManager *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。blacklist 为 nil 时登出不会吊销 token。
func NewUserService(userRepo repository.UserRepository, blacklist repository.TokenBlacklist, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:   userRepo,
		blacklist:  blacklist,
		jwtManager: jwtManager,
	}
}

// Login 处理用户登录的业务逻辑。
func (s *userService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, invalidf("username and password are required")
	}

	// 1. 查找用户
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. 验证密码
	if !hash.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 access token 和 refresh token
	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	log.Infof("[UserService] 用户登录成功, username=%s", user.Username)
	return result, nil
}

func (s *userService) Authenticate(ctx context.Context, tokenString string) (*model.User, *token.CustomClaims, error) {
	if tokenString == "" {
		return nil, nil, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsRevoked(ctx, tokenString)
		if err != nil {
			return nil, nil, err
		}
		if revoked {
			return nil, nil, fmt.Errorf("%w: token revoked", ErrUnauthorized)
		}
	}

	// 角色以数据库为准，token 签发后被降级的管理员立即失去权限
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, nil, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
		}
		return nil, nil, err
	}
	return user, claims, nil
}

// RefreshToken 验证 refresh token 并签发新的 access token 和 refresh token。
func (s *userService) RefreshToken(ctx context.Context, refreshTokenString string) (*LoginResult, error) {
	if refreshTokenString == "" {
		return nil, invalidf("refreshToken is required")
	}
	claims, err := s.jwtManager.VerifyRefreshToken(refreshTokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
		}
		return nil, err
	}
	return s.issue(user)
}

// Logout 将 access token 加入 Redis 黑名单，过期时间为 token 的剩余有效期。
func (s *userService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if s.blacklist == nil {
		return nil
	}
	return s.blacklist.Revoke(ctx, tokenString, time.Until(claims.ExpiresAt.Time))
}

func (s *userService) EnsureAdmin(username, password string) error {
	total, err := s.userRepo.Count()
	if err != nil {
		return err
	}
	if total > 0 {
		return nil
	}
	if username == "" || password == "" {
		return errors.New("用户表为空，但未配置初始管理员账号 (bootstrap.admin_username / bootstrap.admin_password)")
	}

	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &model.User{
		Username: username,
		Password: hashedPassword,
		Nickname: username,
		Role:     model.RoleAdmin,
	}
	if err := s.userRepo.Create(admin); err != nil {
		return err
	}
	log.Infof("[UserService] 已创建初始管理员账号: %s", username)
	return nil
}

func (s *userService) issue(user *model.User) (*LoginResult, error) {
	accessToken, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: accessToken, RefreshToken: refreshToken, User: user}, nil
}
