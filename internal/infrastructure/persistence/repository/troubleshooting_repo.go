package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/jeremygz0607/Customer-RMA-Portal/internal/application/port"
	"github.com/jeremygz0607/Customer-RMA-Portal/internal/domain/entity"
)

// TroubleshootingRepository implements port.TroubleshootingRepository.
// Completed steps and evidence records are stored as JSON columns; the
// record is always read and written whole.
type TroubleshootingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTroubleshootingRepository creates a new troubleshooting repository
func NewTroubleshootingRepository(db *sql.DB, logger *zap.Logger) port.TroubleshootingRepository {
	return &TroubleshootingRepository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves the troubleshooting record for an RMA
func (r *TroubleshootingRepository) Get(ctx context.Context, rmaID string) (*entity.TroubleshootingData, error) {
	query := `
		SELECT rma_id, symptoms, completed_steps, evidence, opted_out,
			ai_summary, ai_recommendation, ai_confidence, updated_at
		FROM troubleshooting_data
		WHERE rma_id = ?
	`

	var data entity.TroubleshootingData
	var symptoms, completedSteps, evidence sql.NullString

	err := r.db.QueryRowContext(ctx, query, rmaID).Scan(
		&data.RmaID,
		&symptoms,
		&completedSteps,
		&evidence,
		&data.OptedOut,
		&data.AISummary,
		&data.AIRecommendation,
		&data.AIConfidence,
		&data.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get troubleshooting data", zap.String("rma_id", rmaID), zap.Error(err))
		return nil, fmt.Errorf("failed to get troubleshooting data: %w", err)
	}

	if symptoms.Valid && symptoms.String != "" {
		data.Symptoms = json.RawMessage(symptoms.String)
	}
	if completedSteps.Valid && completedSteps.String != "" {
		if err := json.Unmarshal([]byte(completedSteps.String), &data.CompletedSteps); err != nil {
			return nil, fmt.Errorf("failed to decode completed steps: %w", err)
		}
	}
	if evidence.Valid && evidence.String != "" {
		if err := json.Unmarshal([]byte(evidence.String), &data.Evidence); err != nil {
			return nil, fmt.Errorf("failed to decode evidence: %w", err)
		}
	}

	return &data, nil
}

// Save upserts the whole record keyed by rma_id
func (r *TroubleshootingRepository) Save(ctx context.Context, data *entity.TroubleshootingData) error {
	completedSteps, err := json.Marshal(data.CompletedSteps)
	if err != nil {
		return fmt.Errorf("failed to encode completed steps: %w", err)
	}
	evidence, err := json.Marshal(data.Evidence)
	if err != nil {
		return fmt.Errorf("failed to encode evidence: %w", err)
	}

	query := `
		INSERT INTO troubleshooting_data (
			rma_id, symptoms, completed_steps, evidence, opted_out,
			ai_summary, ai_recommendation, ai_confidence, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(rma_id) DO UPDATE SET
			symptoms = excluded.symptoms,
			completed_steps = excluded.completed_steps,
			evidence = excluded.evidence,
			opted_out = excluded.opted_out,
			ai_summary = excluded.ai_summary,
			ai_recommendation = excluded.ai_recommendation,
			ai_confidence = excluded.ai_confidence,
			updated_at = excluded.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		data.RmaID,
		string(data.Symptoms),
		string(completedSteps),
		string(evidence),
		data.OptedOut,
		data.AISummary,
		data.AIRecommendation,
		data.AIConfidence,
		data.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save troubleshooting data", zap.String("rma_id", data.RmaID), zap.Error(err))
		return fmt.Errorf("failed to save troubleshooting data: %w", err)
	}

	return nil
}

// Verify interface compliance
var _ port.TroubleshootingRepository = (*TroubleshootingRepository)(nil)
