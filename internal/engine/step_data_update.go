package engine

import (
	"context"
	"fmt"
)

// Entity types DATA_UPDATE may target. The allow-list is deliberate: a step
// configuration must not be able to rewrite arbitrary rows.
var updatableEntities = map[string]bool{
	"task": true,
	"user": true,
}

// DataUpdateHandler applies a configuration-declared update (entity type,
// filter, field values, all variable-substituted) to an allow-listed entity.
type DataUpdateHandler struct {
	updater DataUpdater
}

func NewDataUpdateHandler(updater DataUpdater) *DataUpdateHandler {
	return &DataUpdateHandler{updater: updater}
}

func (h *DataUpdateHandler) Execute(ctx context.Context, req *Request) (*Result, error) {
	cfg := req.Config()
	contextData := req.ContextData()

	entityType := configString(cfg, "entityType")
	if !updatableEntities[entityType] {
		return nil, fmt.Errorf("data update step %q: entity type %q not allowed", req.Step.Name, entityType)
	}

	fields := configStringMap(cfg, "fields")
	if len(fields) == 0 {
		return nil, fmt.Errorf("data update step %q: no fields configured", req.Step.Name)
	}

	filter := make(map[string]string)
	for k, v := range configStringMap(cfg, "filter") {
		filter[k] = ReplaceVariables(v, contextData)
	}
	substituted := make(map[string]string, len(fields))
	for k, v := range fields {
		substituted[k] = ReplaceVariables(v, contextData)
	}

	updated, err := h.updater.ApplyUpdate(ctx, req.Instance.TenantID, entityType, filter, substituted)
	if err != nil {
		return nil, fmt.Errorf("apply %s update: %w", entityType, err)
	}

	return &Result{Output: map[string]any{"updated": updated}}, nil
}
