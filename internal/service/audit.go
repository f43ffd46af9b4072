package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/institute-portal-api/internal/models"
)

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// newAuditLog builds an audit record, encoding old and new snapshots as JSON when present.
func newAuditLog(actorID, action, resource, resourceID string, oldValues, newValues interface{}) *models.AuditLog {
	log := &models.AuditLog{Action: action, Resource: resource}
	if actorID != "" {
		log.UserID = &actorID
	}
	if resourceID != "" {
		log.ResourceID = &resourceID
	}
	if oldValues != nil {
		log.OldValues, _ = json.Marshal(oldValues)
	}
	if newValues != nil {
		log.NewValues, _ = json.Marshal(newValues)
	}
	return log
}

// emitAudit persists log on behalf of source. Failures are logged and swallowed.
func emitAudit(ctx context.Context, audit auditLogger, logger *zap.Logger, source string, log *models.AuditLog) {
	if audit == nil || log == nil {
		return
	}
	if log.IPAddress == "" {
		log.IPAddress = "system"
	}
	if log.UserAgent == "" {
		log.UserAgent = source
	}
	if err := audit.CreateAuditLog(ctx, log); err != nil {
		logger.Warn("failed to persist audit log",
			zap.String("action", log.Action),
			zap.String("resource", log.Resource),
			zap.Error(err))
	}
}
