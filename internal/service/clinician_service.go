package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"readmission-risk-go/internal/model"
	"readmission-risk-go/internal/repository"
	"readmission-risk-go/pkg/hash"
	"readmission-risk-go/pkg/log"
	"readmission-risk-go/pkg/token"
)

var (
	// ErrInvalidCredentials 表示用户名或密码错误。
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUsernameTaken 表示用户名已存在。
	ErrUsernameTaken = errors.New("用户名已存在")
)

// ClinicianListResponse 定义了临床用户列表 API 的响应结构。
type ClinicianListResponse struct {
	Content       []model.Clinician `json:"content"`
	TotalElements int64             `json:"totalElements"`
	TotalPages    int               `json:"totalPages"`
	Size          int               `json:"size"`
	Number        int               `json:"number"`
}

// ClinicianService 接口定义了所有与临床用户相关的业务操作。
type ClinicianService interface {
	Register(username, password, fullName, role string) (*model.Clinician, error)
	Login(username, password string) (accessToken, refreshToken string, err error)
	RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error)
	GetProfile(username string) (*model.Clinician, error)
	ListClinicians(page, size int) (*ClinicianListResponse, error)
	EnsureAdmin(username, password string) error
}

// clinicianService 是 ClinicianService 接口的实现。
type clinicianService struct {
	repo       repository.ClinicianRepository
	jwtManager *token.JWTManager
}

// NewClinicianService 创建一个新的 ClinicianService 实例。
func NewClinicianService(repo repository.ClinicianRepository, jwtManager *token.JWTManager) ClinicianService {
	return &clinicianService{repo: repo, jwtManager: jwtManager}
}

// Register 创建一个新的临床用户，只有管理员可以调用。
func (s *clinicianService) Register(username, password, fullName, role string) (*model.Clinician, error) {
	// 1. 检查用户名是否已存在
	_, err := s.repo.FindByUsername(username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	if role == "" {
		role = model.RoleClinician
	}
	clinician := &model.Clinician{
		Username: username,
		Password: hashedPassword,
		FullName: fullName,
		Role:     role,
	}
	// 3. 存入数据库
	if err := s.repo.Create(clinician); err != nil {
		return nil, fmt.Errorf("创建临床用户失败: %w", err)
	}
	return clinician, nil
}

// Login 校验密码并签发 access token 和 refresh token。
func (s *clinicianService) Login(username, password string) (accessToken, refreshToken string, err error) {
	// 1. 查找用户
	clinician, err := s.repo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}

	// 2. 验证密码
	if !hash.CheckPasswordHash(password, clinician.Password) {
		return "", "", ErrInvalidCredentials
	}

	// 3. 生成 token
	return s.issueTokens(clinician)
}

func (s *clinicianService) issueTokens(c *model.Clinician) (string, string, error) {
	accessToken, err := s.jwtManager.GenerateToken(c.ID, c.Username, c.Role)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(c.ID, c.Username, c.Role)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// RefreshToken 使用 refresh token 换取新的一对 token。用户被删除后 refresh token 随之失效。
func (s *clinicianService) RefreshToken(refreshTokenString string) (string, string, error) {
	claims, err := s.jwtManager.VerifyToken(refreshTokenString, token.TypeRefresh)
	if err != nil {
		return "", "", err
	}
	clinician, err := s.repo.FindByUsername(claims.Username)
	if err != nil {
		return "", "", err
	}
	return s.issueTokens(clinician)
}

// GetProfile 根据用户名获取临床用户信息。
func (s *clinicianService) GetProfile(username string) (*model.Clinician, error) {
	return s.repo.FindByUsername(username)
}

// ListClinicians 分页返回临床用户，page 从 1 开始。
func (s *clinicianService) ListClinicians(page, size int) (*ClinicianListResponse, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	clinicians, total, err := s.repo.FindWithPagination((page-1)*size, size)
	if err != nil {
		return nil, err
	}
	return &ClinicianListResponse{
		Content:       clinicians,
		TotalElements: total,
		TotalPages:    int((total + int64(size) - 1) / int64(size)),
		Size:          size,
		Number:        page,
	}, nil
}

// EnsureAdmin 在没有任何管理员时用配置中的账号创建一个。
func (s *clinicianService) EnsureAdmin(username, password string) error {
	if username == "" || password == "" {
		log.Warnf("[ClinicianService] 未配置初始管理员账号, 跳过")
		return nil
	}
	count, err := s.repo.CountByRole(model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("统计管理员数量失败: %w", err)
	}
	if count > 0 {
		return nil
	}
	if _, err := s.Register(username, password, "Administrator", model.RoleAdmin); err != nil {
		return fmt.Errorf("创建初始管理员失败: %w", err)
	}
	log.Infof("[ClinicianService] 已创建初始管理员 '%s'", username)
	return nil
}
