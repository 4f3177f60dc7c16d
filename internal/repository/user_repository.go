package repository

import (
	"context"
	"microtrade/internal/model"
	"microtrade/pkg/utils"

	"gorm.io/gorm"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.User, error)
	Create(ctx context.Context, user *model.User, opts ...utils.DBOption) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) GetByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.User, error) {
	var user model.User
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)

	result := tx.First(&user, id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}

		return nil, result.Error
	}

	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User, opts ...utils.DBOption) error {
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	return tx.Create(user).Error
}
