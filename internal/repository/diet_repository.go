package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"dailydiet/internal/model"
)

type DietRepository struct {
	db *gorm.DB
}

func NewDietRepository(db *gorm.DB) *DietRepository {
	return &DietRepository{db: db}
}

func (r *DietRepository) Create(diet *model.Diet) error {
	if err := r.db.Create(diet).Error; err != nil {
		return fmt.Errorf("create diet failed: %w", err)
	}
	return nil
}

func (r *DietRepository) GetByID(id uint) (*model.Diet, error) {
	var diet model.Diet
	if err := r.db.First(&diet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query diet by id failed: %w", err)
	}
	return &diet, nil
}

func (r *DietRepository) Update(diet *model.Diet) error {
	if err := r.db.Save(diet).Error; err != nil {
		return fmt.Errorf("update diet failed: %w", err)
	}
	return nil
}

func (r *DietRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Diet{}, id).Error; err != nil {
		return fmt.Errorf("delete diet failed: %w", err)
	}
	return nil
}

func (r *DietRepository) ListByUserID(userID uint) ([]model.Diet, error) {
	var diets []model.Diet
	if err := r.db.Where("user_id = ?", userID).Order("date_time ASC").Find(&diets).Error; err != nil {
		return nil, fmt.Errorf("list diets failed: %w", err)
	}
	return diets, nil
}
