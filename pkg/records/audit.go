package records

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/synaptica-ai/hospital/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 500
)

type AuditLogs struct {
	db *gorm.DB
}

func NewAuditLogs(db *gorm.DB) *AuditLogs {
	return &AuditLogs{db: db}
}

func (r *AuditLogs) Append(ctx context.Context, entry models.AuditLog) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("encode audit payload: %w", err)
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	row := &auditLogModel{
		Entity:    entry.Entity,
		EntityID:  entry.EntityID,
		Action:    entry.Action,
		Actor:     entry.Actor,
		Payload:   datatypes.JSON(payload),
		CreatedAt: createdAt,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

// List returns the newest entries first, optionally restricted to one entity.
func (r *AuditLogs) List(ctx context.Context, entity string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	tx := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit)
	if entity != "" {
		tx = tx.Where("entity = ?", entity)
	}
	var rows []auditLogModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	logs := make([]models.AuditLog, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, models.AuditLog{
			ID:        row.ID,
			Entity:    row.Entity,
			EntityID:  row.EntityID,
			Action:    row.Action,
			Actor:     row.Actor,
			Payload:   jsonMap(row.Payload),
			CreatedAt: row.CreatedAt,
		})
	}
	return logs, nil
}

func jsonMap(data datatypes.JSON) map[string]interface{} {
	if len(data) == 0 {
		return nil
	}
	var result map[string]interface{}
	_ = json.Unmarshal(data, &result)
	return result
}
