package service

import (
	"cms-go/internal/model"
	"cms-go/internal/repository"
	"cms-go/pkg/hash"
	"cms-go/pkg/log"
	"fmt"
	"strings"
)

// UserListResponse 定义了用户列表 API 的响应结构。
type UserListResponse struct {
	Content       []UserDetailResponse `json:"content"`
	TotalElements int64                `json:"totalElements"`
	TotalPages    int                  `json:"totalPages"`
	Size          int                  `json:"size"`
	Number        int                  `json:"number"`
}

// UserDetailResponse 定义了用户列表项的详细结构。
type UserDetailResponse struct {
	UserID    uint            `json:"userId"`
	Username  string          `json:"username"`
	Nickname  string          `json:"nickname"`
	Role      string          `json:"role"`
	CreatedAt model.LocalTime `json:"createdAt"`
}

// CreateUserRequest 是管理员创建用户时提交的数据。
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}

// UpdateUserRequest 中为 nil 的字段保持不变。
type UpdateUserRequest struct {
	Nickname *string `json:"nickname"`
	Role     *string `json:"role"`
	Password *string `json:"password"`
}

// AdminService 接口定义了所有管理员相关的用户管理操作。
type AdminService interface {
	ListUsers(page, size int) (*UserListResponse, error)
	CreateUser(req CreateUserRequest) (*model.User, error)
	UpdateUser(userID uint, req UpdateUserRequest) (*model.User, error)
	DeleteUser(userID uint) error
}

// adminService 是 AdminService 接口的实现。
type adminService struct {
	userRepo repository.UserRepository
}

// NewAdminService 创建一个新的 AdminService 实例。
func NewAdminService(userRepo repository.UserRepository) AdminService {
	return &adminService{userRepo: userRepo}
}

// ListUsers 以分页的形式返回用户列表
func (s *adminService) ListUsers(page, size int) (*UserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	offset := (page - 1) * size
	users, total, err := s.userRepo.FindWithPagination(offset, size)
	if err != nil {
		return nil, err
	}

	userResponses := make([]UserDetailResponse, 0, len(users))
	for _, u := range users {
		userResponses = append(userResponses, UserDetailResponse{
			UserID:    u.ID,
			Username:  u.Username,
			Nickname:  u.Nickname,
			Role:      u.Role,
			CreatedAt: model.LocalTime(u.CreatedAt),
		})
	}

	totalPages := 0
	if total > 0 {
		totalPages = (int(total) + size - 1) / size
	}

	return &UserListResponse{
		Content:       userResponses,
		TotalElements: total,
		TotalPages:    totalPages,
		Size:          size,
		Number:        page,
	}, nil
}

func (s *adminService) CreateUser(req CreateUserRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, invalidf("username and password are required")
	}
	role, err := normalizeRole(req.Role)
	if err != nil {
		return nil, err
	}

	// 检查用户名是否已存在
	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !isRecordNotFound(err) {
		return nil, err
	}

	hashedPassword, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username: username,
		Password: hashedPassword,
		Nickname: req.Nickname,
		Role:     role,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	log.Infof("[AdminService] 用户已创建, id=%d, username=%s, role=%s", user.ID, user.Username, user.Role)
	return user, nil
}

func (s *adminService) UpdateUser(userID uint, req UpdateUserRequest) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	if req.Role != nil {
		role, err := normalizeRole(*req.Role)
		if err != nil {
			return nil, err
		}
		if user.IsAdmin() && role != model.RoleAdmin {
			if err := s.ensureNotLastAdmin(); err != nil {
				return nil, err
			}
		}
		user.Role = role
	}
	if req.Nickname != nil {
		user.Nickname = *req.Nickname
	}
	if req.Password != nil {
		if *req.Password == "" {
			return nil, invalidf("password cannot be empty")
		}
		hashedPassword, err := hash.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashedPassword
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *adminService) DeleteUser(userID uint) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}
	if user.IsAdmin() {
		if err := s.ensureNotLastAdmin(); err != nil {
			return err
		}
	}
	if err := s.userRepo.Delete(userID); err != nil {
		return err
	}
	log.Infof("[AdminService] 用户已删除, id=%d, username=%s", user.ID, user.Username)
	return nil
}

func (s *adminService) ensureNotLastAdmin() error {
	admins, err := s.userRepo.CountByRole(model.RoleAdmin)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}

// normalizeRole 空值默认为 USER。
func normalizeRole(role string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(role)) {
	case "", model.RoleUser:
		return model.RoleUser, nil
	case model.RoleAdmin:
		return model.RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
}
