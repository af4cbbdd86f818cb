// AngelaMos | 2026
// repository.go

package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/northstarhq/northstar/internal/core"
)

// Repository is append-only by contract: rows are inserted and read, never
// updated or deleted.
type Repository interface {
	InsertBatch(ctx context.Context, logs []Log) error
	List(ctx context.Context, params ListParams) ([]Log, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) InsertBatch(ctx context.Context, logs []Log) error {
	if len(logs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO audit_logs
			(id, tenant_id, actor_user_id, action, entity_type, entity_id,
			 details, recorded_at)
		VALUES `)

	args := make([]any, 0, len(logs)*8)
	for i, l := range logs {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 8
		sb.WriteString(fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
		))
		args = append(args,
			l.ID,
			l.TenantID,
			l.ActorUserID,
			l.Action,
			l.EntityType,
			l.EntityID,
			l.Details,
			l.RecordedAt,
		)
	}

	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert audit logs: %w", err)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Log, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	if params.TenantID != nil {
		conditions = append(conditions, fmt.Sprintf("tenant_id = $%d", argIdx))
		args = append(args, *params.TenantID)
		argIdx++
	}

	if params.Action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", argIdx))
		args = append(args, params.Action)
		argIdx++
	}

	if params.EntityType != "" {
		conditions = append(conditions, fmt.Sprintf("entity_type = $%d", argIdx))
		args = append(args, params.EntityType)
		argIdx++
	}

	if params.EntityID != "" {
		conditions = append(conditions, fmt.Sprintf("entity_id = $%d", argIdx))
		args = append(args, params.EntityID)
		argIdx++
	}

	if params.ActorUserID != "" {
		conditions = append(conditions, fmt.Sprintf("actor_user_id = $%d", argIdx))
		args = append(args, params.ActorUserID)
		argIdx++
	}

	whereClause := "TRUE"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM audit_logs WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, tenant_id, actor_user_id, action, entity_type, entity_id,
		       details, recorded_at
		FROM audit_logs
		WHERE %s
		ORDER BY recorded_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var logs []Log
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}

	return logs, total, nil
}
