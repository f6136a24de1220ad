package model

import "time"

type Diet struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	Title          string    `gorm:"size:128;not null" json:"title"`
	Description    string    `gorm:"type:text;not null" json:"description"`
	DateTime       time.Time `gorm:"not null" json:"date_time"`
	ConsistentDiet bool      `gorm:"not null;default:true" json:"consistent_diet"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
