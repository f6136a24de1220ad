package model

import "time"

// AuditEvent records a mutating operation. Events are published to RabbitMQ
// by the services and persisted asynchronously by the audit worker.
type AuditEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Action    string    `gorm:"size:32;not null" json:"action"`
	Entity    string    `gorm:"size:32;not null" json:"entity"`
	EntityID  uint      `gorm:"not null" json:"entity_id"`
	CreatedAt time.Time `json:"created_at"`
}
