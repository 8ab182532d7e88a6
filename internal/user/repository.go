package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	userModel "terminal-terrace/video-lead/internal/model/user"
)

// ErrEmailTaken 邮箱已被注册
var ErrEmailTaken = errors.New("email already registered")

// UserRepository 用户数据访问层
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库实例
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 创建用户；邮箱重复返回 ErrEmailTaken
func (r *UserRepository) Create(ctx context.Context, u *userModel.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}

// FindByEmail 按邮箱查找
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*userModel.User, error) {
	var u userModel.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByID 按 ID 查找
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*userModel.User, error) {
	var u userModel.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// List 全部用户，新注册的在前
func (r *UserRepository) List(ctx context.Context) ([]userModel.User, error) {
	var users []userModel.User
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&users).Error
	return users, err
}

// Count 用户总数
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userModel.User{}).Count(&count).Error
	return count, err
}

// Delete 删除用户，返回受影响行数
func (r *UserRepository) Delete(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&userModel.User{}, id)
	return result.RowsAffected, result.Error
}
