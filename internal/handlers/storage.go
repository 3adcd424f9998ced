package handlers

import (
	"context"

	"conductor/internal/opportunities"
	"conductor/models"
)

// StorageInterface всё, что HTTP-слой читает из базы. Реализуется *db.Storage
type StorageInterface interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
	ConductorsExcept(ctx context.Context, email string) ([]models.User, error)

	InProgressContracts(ctx context.Context) ([]models.InProgressContract, error)
	AllContracts(ctx context.Context) ([]models.ContractSummary, error)

	opportunities.Store
}
