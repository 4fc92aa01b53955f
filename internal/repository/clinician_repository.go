package repository

import (
	"gorm.io/gorm"

	"readmission-risk-go/internal/model"
)

// ClinicianRepository 接口定义了临床用户数据的持久化操作。
type ClinicianRepository interface {
	Create(clinician *model.Clinician) error
	FindByUsername(username string) (*model.Clinician, error)
	FindByID(id uint) (*model.Clinician, error)
	FindWithPagination(offset, limit int) ([]model.Clinician, int64, error)
	CountByRole(role string) (int64, error)
}

// clinicianRepository 是 ClinicianRepository 接口的 GORM 实现。
type clinicianRepository struct {
	db *gorm.DB
}

// NewClinicianRepository 创建一个新的 ClinicianRepository 实例。
func NewClinicianRepository(db *gorm.DB) ClinicianRepository {
	return &clinicianRepository{db: db}
}

// Create 在数据库中创建一个新的临床用户记录。
func (r *clinicianRepository) Create(clinician *model.Clinician) error {
	return r.db.Create(clinician).Error
}

// FindByUsername 根据用户名从数据库中查找一个临床用户。
func (r *clinicianRepository) FindByUsername(username string) (*model.Clinician, error) {
	var clinician model.Clinician
	err := r.db.Where("username = ?", username).First(&clinician).Error
	if err != nil {
		return nil, err
	}
	return &clinician, nil
}

// FindByID 根据 ID 从数据库中查找一个临床用户。
func (r *clinicianRepository) FindByID(id uint) (*model.Clinician, error) {
	var clinician model.Clinician
	err := r.db.First(&clinician, id).Error
	if err != nil {
		return nil, err
	}
	return &clinician, nil
}

// FindWithPagination 分页检索临床用户，返回当前页数据和总记录数。
func (r *clinicianRepository) FindWithPagination(offset, limit int) ([]model.Clinician, int64, error) {
	var clinicians []model.Clinician
	var total int64

	db := r.db.Model(&model.Clinician{})

	// 首先计算总记录数
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 然后根据偏移量和限制获取当前页的数据
	if err := db.Order("id").Offset(offset).Limit(limit).Find(&clinicians).Error; err != nil {
		return nil, 0, err
	}

	return clinicians, total, nil
}

// CountByRole 统计指定角色的用户数，用于首次启动时判断是否需要创建管理员。
func (r *clinicianRepository) CountByRole(role string) (int64, error) {
	var total int64
	err := r.db.Model(&model.Clinician{}).Where("role = ?", role).Count(&total).Error
	return total, err
}
