package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"conductor/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const opportunityColumns = `
    o.id, o.title, o.description, o.planned_deadline, o.publish_at, o.is_public, o.created_at`

// GetOpportunity возвращает models.ErrNotFound для неизвестного id
func (s *Storage) GetOpportunity(ctx context.Context, id int) (*models.Opportunity, error) {
	o := &models.Opportunity{}
	err := s.db.GetContext(ctx, o, `SELECT`+opportunityColumns+` FROM opportunity o WHERE o.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get opportunity %d: %w", id, err)
	}
	return o, nil
}

// GetOpportunitiesByIDs возвращает только существующие возможности из ids
func (s *Storage) GetOpportunitiesByIDs(ctx context.Context, ids []int) ([]models.Opportunity, error) {
	opps := []models.Opportunity{}
	if len(ids) == 0 {
		return opps, nil
	}
	query := `SELECT` + opportunityColumns + ` FROM opportunity o WHERE o.id = ANY($1) ORDER BY o.id ASC`
	if err := s.db.SelectContext(ctx, &opps, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("select opportunities by id: %w", err)
	}
	return opps, nil
}

// ListOpportunitiesOpenSince возможности со сроком не раньше day
func (s *Storage) ListOpportunitiesOpenSince(ctx context.Context, day time.Time) ([]models.Opportunity, error) {
	opps := []models.Opportunity{}
	query := `SELECT` + opportunityColumns + `
        FROM opportunity o
        WHERE o.planned_deadline >= $1
        ORDER BY o.planned_deadline ASC, o.id ASC`
	if err := s.db.SelectContext(ctx, &opps, query, day); err != nil {
		return nil, fmt.Errorf("select open opportunities: %w", err)
	}
	return opps, nil
}

// AttachOpportunities подписывает поставщика на все ids в одной транзакции
func (s *Storage) AttachOpportunities(ctx context.Context, vendorID int, opportunityIDs []int) error {
	if len(opportunityIDs) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO opportunity_vendor (opportunity_id, vendor_id)
            SELECT unnest($1::int[]), $2
            ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, query, pq.Array(opportunityIDs), vendorID); err != nil {
			return fmt.Errorf("attach vendor opportunities: %w", err)
		}
		return nil
	})
}

func (s *Storage) VendorOpportunities(ctx context.Context, vendorID int) ([]models.Opportunity, error) {
	opps := []models.Opportunity{}
	query := `SELECT` + opportunityColumns + `
        FROM opportunity o
        JOIN opportunity_vendor ov ON ov.opportunity_id = o.id
        WHERE ov.vendor_id = $1
        ORDER BY o.title ASC`
	if err := s.db.SelectContext(ctx, &opps, query, vendorID); err != nil {
		return nil, fmt.Errorf("select vendor opportunities: %w", err)
	}
	return opps, nil
}
