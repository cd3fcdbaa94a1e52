package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Column whitelists for DATA_UPDATE steps. Filters and field values come from
// step configuration, so only named columns are ever interpolated — values
// always travel as bind parameters.
var updatableColumns = map[string]map[string]bool{
	"tasks": {
		"title":       true,
		"description": true,
		"category":    true,
		"priority":    true,
		"status":      true,
		"assigned_to": true,
	},
	"users": {
		"department": true,
		"is_active":  true,
	},
}

var entityTables = map[string]string{
	"task": "tasks",
	"user": "users",
}

// DataUpdateService implements engine.DataUpdater.
type DataUpdateService struct {
	db DB
}

func NewDataUpdateService(db DB) *DataUpdateService {
	return &DataUpdateService{db: db}
}

func (s *DataUpdateService) ApplyUpdate(ctx context.Context, tenantID, entityType string, filter, fields map[string]string) (int64, error) {
	table, ok := entityTables[entityType]
	if !ok {
		return 0, fmt.Errorf("entity type %q not allowed", entityType)
	}
	columns := updatableColumns[table]

	var sets []string
	args := []any{}
	argIdx := 1
	for _, column := range sortedKeys(fields) {
		if !columns[column] {
			return 0, fmt.Errorf("field %q not updatable on %s", column, entityType)
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, fields[column])
		argIdx++
	}
	if len(sets) == 0 {
		return 0, fmt.Errorf("no updatable fields for %s", entityType)
	}

	where := []string{fmt.Sprintf("tenant_id = $%d", argIdx)}
	args = append(args, tenantID)
	argIdx++
	for _, column := range sortedKeys(filter) {
		if column != "id" && !columns[column] {
			return 0, fmt.Errorf("filter column %q not allowed on %s", column, entityType)
		}
		where = append(where, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, filter[column])
		argIdx++
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table,
		strings.Join(sets, ", "), strings.Join(where, " AND "))
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", entityType, err)
	}
	return tag.RowsAffected(), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
