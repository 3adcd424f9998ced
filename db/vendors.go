package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"conductor/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const vendorColumns = `
    id, business_name, email,
    COALESCE(first_name, '') AS first_name,
    COALESCE(last_name, '') AS last_name,
    COALESCE(phone_number, '') AS phone_number,
    COALESCE(fax_number, '') AS fax_number,
    minority_owned, woman_owned, veteran_owned, disadvantaged_owned, created_at`

func (s *Storage) getVendor(ctx context.Context, where string, args ...any) (*models.Vendor, error) {
	v := &models.Vendor{}
	err := s.db.GetContext(ctx, v, `SELECT`+vendorColumns+` FROM vendor WHERE `+where, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vendor: %w", err)
	}
	return v, nil
}

// GetVendorByEmail возвращает models.ErrNotFound, если email не найден
func (s *Storage) GetVendorByEmail(ctx context.Context, email string) (*models.Vendor, error) {
	return s.getVendor(ctx, `email = $1`, email)
}

// FindVendor ищет по email и названию компании одновременно
func (s *Storage) FindVendor(ctx context.Context, email, businessName string) (*models.Vendor, error) {
	return s.getVendor(ctx, `email = $1 AND business_name = $2`, email, businessName)
}

// CreateVendor создает поставщика и его категории в одной транзакции.
// Занятый email дает models.ErrDuplicate
func (s *Storage) CreateVendor(ctx context.Context, v *models.Vendor, categoryIDs []int) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO vendor
                (business_name, email, first_name, last_name, phone_number, fax_number,
                 minority_owned, woman_owned, veteran_owned, disadvantaged_owned)
            VALUES
                ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
            RETURNING id, created_at`
		err := tx.QueryRowxContext(ctx, query,
			v.BusinessName, v.Email, v.FirstName, v.LastName, v.PhoneNumber, v.FaxNumber,
			v.MinorityOwned, v.WomanOwned, v.VeteranOwned, v.DisadvantagedOwned).
			Scan(&v.ID, &v.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return models.ErrDuplicate
			}
			return fmt.Errorf("insert vendor: %w", err)
		}
		return linkCategories(ctx, tx, v.ID, categoryIDs)
	})
}

// UpdateVendor перезаписывает профиль и заменяет категории
func (s *Storage) UpdateVendor(ctx context.Context, v *models.Vendor, categoryIDs []int) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            UPDATE vendor
            SET business_name=$1, email=$2, first_name=$3, last_name=$4, phone_number=$5,
                fax_number=$6, minority_owned=$7, woman_owned=$8, veteran_owned=$9,
                disadvantaged_owned=$10
            WHERE id=$11`
		_, err := tx.ExecContext(ctx, query,
			v.BusinessName, v.Email, v.FirstName, v.LastName, v.PhoneNumber, v.FaxNumber,
			v.MinorityOwned, v.WomanOwned, v.VeteranOwned, v.DisadvantagedOwned, v.ID)
		if err != nil {
			return fmt.Errorf("update vendor %d: %w", v.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM category_vendor WHERE vendor_id = $1`, v.ID); err != nil {
			return fmt.Errorf("clear vendor categories: %w", err)
		}
		return linkCategories(ctx, tx, v.ID, categoryIDs)
	})
}

func linkCategories(ctx context.Context, tx *sqlx.Tx, vendorID int, categoryIDs []int) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	query := `
        INSERT INTO category_vendor (category_id, vendor_id)
        SELECT unnest($1::int[]), $2
        ON CONFLICT DO NOTHING`
	if _, err := tx.ExecContext(ctx, query, pq.Array(categoryIDs), vendorID); err != nil {
		return fmt.Errorf("link vendor categories: %w", err)
	}
	return nil
}

// RemoveVendorSubscriptions удаляет подписки на категории и возможности
func (s *Storage) RemoveVendorSubscriptions(ctx context.Context, vendorID int, categoryIDs, opportunityIDs []int) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if len(categoryIDs) > 0 {
			_, err := tx.ExecContext(ctx,
				`DELETE FROM category_vendor WHERE vendor_id = $1 AND category_id = ANY($2)`,
				vendorID, pq.Array(categoryIDs))
			if err != nil {
				return fmt.Errorf("remove vendor categories: %w", err)
			}
		}
		if len(opportunityIDs) > 0 {
			_, err := tx.ExecContext(ctx,
				`DELETE FROM opportunity_vendor WHERE vendor_id = $1 AND opportunity_id = ANY($2)`,
				vendorID, pq.Array(opportunityIDs))
			if err != nil {
				return fmt.Errorf("remove vendor opportunities: %w", err)
			}
		}
		return nil
	})
}

func (s *Storage) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	query := `SELECT id, category, subcategory FROM category ORDER BY category ASC, subcategory ASC`
	if err := s.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	return categories, nil
}

// GetCategoriesByIDs возвращает только существующие категории из ids
func (s *Storage) GetCategoriesByIDs(ctx context.Context, ids []int) ([]models.Category, error) {
	categories := []models.Category{}
	if len(ids) == 0 {
		return categories, nil
	}
	query := `SELECT id, category, subcategory FROM category WHERE id = ANY($1) ORDER BY id ASC`
	if err := s.db.SelectContext(ctx, &categories, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("select categories by id: %w", err)
	}
	return categories, nil
}

func (s *Storage) VendorCategories(ctx context.Context, vendorID int) ([]models.Category, error) {
	categories := []models.Category{}
	query := `
        SELECT c.id, c.category, c.subcategory
        FROM category c
        JOIN category_vendor cv ON cv.category_id = c.id
        WHERE cv.vendor_id = $1
        ORDER BY c.category ASC, c.subcategory ASC`
	if err := s.db.SelectContext(ctx, &categories, query, vendorID); err != nil {
		return nil, fmt.Errorf("select vendor categories: %w", err)
	}
	return categories, nil
}
