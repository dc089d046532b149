package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ActorID     uint      `json:"actorId" gorm:"index"`
	EntityType  string    `json:"entityType" gorm:"type:varchar(32);not null"`
	EntityID    uint      `json:"entityId" gorm:"index"`
	Action      string    `json:"action" gorm:"type:varchar(32);not null"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewAuditLog(actorID uint, entityType string, entityID uint, action, description string) *AuditLog {
	return &AuditLog{
		ID:          uuid.New(),
		ActorID:     actorID,
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		Description: description,
	}
}
