package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/graflow/graflow/internal/domain"
)

// PostgresJournal is the durable Execution Journal backing (spec §4.3),
// grounded on the teacher's BunStore. Execution.Result and
// NodeExecution.Output — arbitrary JSON-ish trees per spec §9 — are
// snapshotted as msgpack-encoded bytea rather than re-marshaled JSON,
// cheaper for large intermediate outputs carried across a long
// traversal.
type PostgresJournal struct {
	db *bun.DB
}

// NewPostgresJournal opens a Postgres connection via pgdriver/pgdialect.
func NewPostgresJournal(dsn string) *PostgresJournal {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &PostgresJournal{db: db}
}

// InitSchema creates the execution/node_execution tables if absent.
func (s *PostgresJournal) InitSchema(ctx context.Context) error {
	models := []any{
		(*executionModel)(nil),
		(*nodeExecutionModel)(nil),
	}
	for _, m := range models {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Ping verifies connectivity.
func (s *PostgresJournal) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close releases the underlying connection pool.
func (s *PostgresJournal) Close() error { return s.db.Close() }

type executionModel struct {
	bun.BaseModel `bun:"table:executions,alias:x"`

	ID                 string    `bun:"id,pk"`
	WorkflowID         string    `bun:"workflow_id"`
	Status             string    `bun:"status"`
	Parameters         map[string]any `bun:"parameters,type:jsonb"`
	Config             map[string]any `bun:"config,type:jsonb"`
	ConfigID           string    `bun:"config_id"`
	ResultSnapshot     []byte    `bun:"result_snapshot"`
	Error              string    `bun:"error_message"`
	CreatedAt          time.Time `bun:"created_at"`
	CompletedAt        *time.Time `bun:"completed_at"`
	ParentExecutionID  string    `bun:"parent_execution_id"`
	InvokingNodeID     string    `bun:"invoking_node_id"`
}

func newExecutionModel(e *domain.Execution) (*executionModel, error) {
	snapshot, err := encodeSnapshot(e.Result)
	if err != nil {
		return nil, err
	}
	return &executionModel{
		ID:                e.ID,
		WorkflowID:        e.WorkflowID,
		Status:            string(e.Status),
		Parameters:        e.Parameters,
		Config:            e.Config,
		ConfigID:          e.ConfigID,
		ResultSnapshot:    snapshot,
		Error:             e.Error,
		CreatedAt:         e.CreatedAt,
		CompletedAt:       e.CompletedAt,
		ParentExecutionID: e.ParentExecutionID,
		InvokingNodeID:    e.InvokingNodeID,
	}, nil
}

func (m *executionModel) toDomain() (*domain.Execution, error) {
	result, err := decodeSnapshot(m.ResultSnapshot)
	if err != nil {
		return nil, err
	}
	return &domain.Execution{
		ID:                m.ID,
		WorkflowID:        m.WorkflowID,
		Status:            domain.ExecutionStatus(m.Status),
		Parameters:        m.Parameters,
		Config:            m.Config,
		ConfigID:          m.ConfigID,
		Result:            result,
		Error:             m.Error,
		CreatedAt:         m.CreatedAt,
		CompletedAt:       m.CompletedAt,
		ParentExecutionID: m.ParentExecutionID,
		InvokingNodeID:    m.InvokingNodeID,
	}, nil
}

type nodeExecutionModel struct {
	bun.BaseModel `bun:"table:node_executions,alias:nx"`

	ID             string    `bun:"id,pk"`
	ExecutionID    string    `bun:"execution_id"`
	NodeID         string    `bun:"node_id"`
	Status         string    `bun:"status"`
	OutputSnapshot []byte    `bun:"output_snapshot"`
	Error          string    `bun:"error_message"`
	CreatedAt      time.Time `bun:"created_at"`
	CompletedAt    *time.Time `bun:"completed_at"`
}

func newNodeExecutionModel(ne *domain.NodeExecution) (*nodeExecutionModel, error) {
	snapshot, err := encodeSnapshot(ne.Output)
	if err != nil {
		return nil, err
	}
	return &nodeExecutionModel{
		ID:             ne.ID,
		ExecutionID:    ne.ExecutionID,
		NodeID:         ne.NodeID,
		Status:         string(ne.Status),
		OutputSnapshot: snapshot,
		Error:          ne.Error,
		CreatedAt:      ne.CreatedAt,
		CompletedAt:    ne.CompletedAt,
	}, nil
}

func (m *nodeExecutionModel) toDomain() (*domain.NodeExecution, error) {
	output, err := decodeSnapshot(m.OutputSnapshot)
	if err != nil {
		return nil, err
	}
	return &domain.NodeExecution{
		ID:          m.ID,
		ExecutionID: m.ExecutionID,
		NodeID:      m.NodeID,
		Status:      domain.ExecutionStatus(m.Status),
		Output:      output,
		Error:       m.Error,
		CreatedAt:   m.CreatedAt,
		CompletedAt: m.CompletedAt,
	}, nil
}

func encodeSnapshot(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

func decodeSnapshot(b []byte) (any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var v any
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return v, nil
}

func (s *PostgresJournal) SaveExecution(ctx context.Context, execution *domain.Execution) error {
	m, err := newExecutionModel(execution)
	if err != nil {
		return err
	}
	_, err = s.db.NewInsert().Model(m).
		On("CONFLICT (id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("result_snapshot = EXCLUDED.result_snapshot").
		Set("error_message = EXCLUDED.error_message").
		Set("completed_at = EXCLUDED.completed_at").
		Exec(ctx)
	return err
}

func (s *PostgresJournal) GetExecution(ctx context.Context, id string) (*domain.Execution, error) {
	m := new(executionModel)
	if err := s.db.NewSelect().Model(m).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, fmt.Errorf("execution '%s' not found: %w", id, err)
	}
	return m.toDomain()
}

func (s *PostgresJournal) SaveNodeExecution(ctx context.Context, ne *domain.NodeExecution) error {
	m, err := newNodeExecutionModel(ne)
	if err != nil {
		return err
	}
	_, err = s.db.NewInsert().Model(m).
		On("CONFLICT (id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("output_snapshot = EXCLUDED.output_snapshot").
		Set("error_message = EXCLUDED.error_message").
		Set("completed_at = EXCLUDED.completed_at").
		Exec(ctx)
	return err
}

func (s *PostgresJournal) ListNodeExecutions(ctx context.Context, executionID string) ([]*domain.NodeExecution, error) {
	var rows []*nodeExecutionModel
	if err := s.db.NewSelect().Model(&rows).Where("execution_id = ?", executionID).Order("created_at ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*domain.NodeExecution, 0, len(rows))
	for _, r := range rows {
		d, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
