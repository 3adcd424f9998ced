package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"conductor/models"
)

const userColumns = `
    u.id, u.email, COALESCE(u.first_name, '') AS first_name,
    u.role_id, r.name AS role_name, u.department_id`

// GetUser загружает сотрудника вместе с названием роли
func (s *Storage) GetUser(ctx context.Context, id int) (*models.User, error) {
	u := &models.User{}
	query := `SELECT` + userColumns + `
        FROM users u
        JOIN role r ON r.id = u.role_id
        WHERE u.id = $1`
	err := s.db.GetContext(ctx, u, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// ConductorsExcept возвращает всех кондукторов, кроме пользователя с email
func (s *Storage) ConductorsExcept(ctx context.Context, email string) ([]models.User, error) {
	query := `SELECT` + userColumns + `
        FROM users u
        JOIN role r ON r.id = u.role_id
        WHERE r.name = $1 AND u.email <> $2
        ORDER BY u.email ASC`
	users := []models.User{}
	if err := s.db.SelectContext(ctx, &users, query, models.RoleConductor, email); err != nil {
		return nil, fmt.Errorf("select conductors: %w", err)
	}
	return users, nil
}
