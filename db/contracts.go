package db

import (
	"context"
	"fmt"
	"time"

	"conductor/models"

	"github.com/lib/pq"
)

type inProgressRow struct {
	ID                 int            `db:"id"`
	SpecNumber         string         `db:"spec_number"`
	ParentSpec         string         `db:"parent_spec"`
	ParentExpiration   *time.Time     `db:"parent_expiration"`
	ParentContractHref string         `db:"parent_contract_href"`
	Description        string         `db:"description"`
	FlowName           string         `db:"flow_name"`
	StageName          string         `db:"stage_name"`
	Entered            time.Time      `db:"entered"`
	FirstName          string         `db:"first_name"`
	Email              string         `db:"email"`
	Department         string         `db:"department"`
	Companies          pq.StringArray `db:"companies"`
}

// parent_specs: для дочернего контракта номер спецификации, срок, ссылка и компании родителя.
// Компании приходят из внешнего джойна и могут быть NULL
const inProgressQuery = `
    WITH parent_specs AS (
        SELECT child.id AS id,
               pp.value AS spec_number,
               parent.expiration_date,
               parent.contract_href,
               co.company_name
        FROM contract child
        JOIN contract_property pp
            ON pp.contract_id = child.parent_id AND lower(pp.key) = 'spec number'
        JOIN contract parent ON parent.id = child.parent_id
        LEFT JOIN contract_company cc ON cc.contract_id = parent.id
        LEFT JOIN company co ON co.id = cc.company_id
    )
    SELECT c.id,
           COALESCE(cp.value, '') AS spec_number,
           COALESCE(ps.spec_number, '') AS parent_spec,
           ps.expiration_date AS parent_expiration,
           COALESCE(ps.contract_href, '') AS parent_contract_href,
           COALESCE(c.description, '') AS description,
           f.flow_name,
           s.name AS stage_name,
           cs.entered,
           COALESCE(u.first_name, '') AS first_name,
           u.email,
           COALESCE(d.name, '') AS department,
           array_remove(array_agg(DISTINCT ps.company_name), NULL) AS companies
    FROM contract c
    LEFT JOIN department d ON d.id = c.department_id
    JOIN contract_stage cs
        ON cs.stage_id = c.current_stage_id
        AND cs.contract_id = c.id
        AND cs.flow_id = c.flow_id
    JOIN stage s ON s.id = c.current_stage_id
    JOIN flow f ON f.id = c.flow_id
    LEFT JOIN contract_property cp
        ON cp.contract_id = c.id AND lower(cp.key) = 'spec number'
    LEFT JOIN parent_specs ps ON ps.id = c.id
    JOIN users u ON u.id = c.assigned_to
    WHERE c.parent_id IS NOT NULL
      AND c.current_stage_id IS NOT NULL
      AND cs.entered IS NOT NULL
      AND c.assigned_to IS NOT NULL
      AND c.is_visible = FALSE
      AND c.is_archived = FALSE
    GROUP BY c.id, cp.value, ps.spec_number, ps.expiration_date, ps.contract_href,
             c.description, f.flow_name, s.name, cs.entered, u.first_name, u.email, d.name
    ORDER BY c.id ASC
`

// InProgressContracts дочерние контракты в работе: этап начат, есть исполнитель,
// контракт не опубликован и не в архиве
func (s *Storage) InProgressContracts(ctx context.Context) ([]models.InProgressContract, error) {
	rows := []inProgressRow{}
	if err := s.db.SelectContext(ctx, &rows, inProgressQuery); err != nil {
		return nil, fmt.Errorf("select in progress contracts: %w", err)
	}

	contracts := make([]models.InProgressContract, 0, len(rows))
	for _, r := range rows {
		contracts = append(contracts, models.InProgressContract{
			ID:                 r.ID,
			SpecNumber:         r.SpecNumber,
			ParentSpec:         r.ParentSpec,
			ParentExpiration:   r.ParentExpiration,
			ParentContractHref: r.ParentContractHref,
			Description:        r.Description,
			FlowName:           r.FlowName,
			StageName:          r.StageName,
			Entered:            r.Entered,
			FirstName:          r.FirstName,
			Email:              r.Email,
			Department:         r.Department,
			Companies:          cleanNames(r.Companies),
		})
	}
	return contracts, nil
}

type contractSummaryRow struct {
	ID             int            `db:"id"`
	Description    string         `db:"description"`
	FinancialID    string         `db:"financial_id"`
	ExpirationDate *time.Time     `db:"expiration_date"`
	SpecNumber     string         `db:"spec_number"`
	ContractHref   string         `db:"contract_href"`
	Department     string         `db:"department"`
	FirstName      string         `db:"first_name"`
	Email          string         `db:"email"`
	Companies      pq.StringArray `db:"companies"`
}

const allContractsQuery = `
    SELECT c.id,
           COALESCE(c.description, '') AS description,
           COALESCE(c.financial_id, '') AS financial_id,
           c.expiration_date,
           COALESCE(cp.value, '') AS spec_number,
           COALESCE(c.contract_href, '') AS contract_href,
           COALESCE(d.name, '') AS department,
           COALESCE(u.first_name, '') AS first_name,
           COALESCE(u.email, '') AS email,
           array_remove(array_agg(DISTINCT co.company_name), NULL) AS companies
    FROM contract c
    JOIN contract_type ct ON ct.id = c.contract_type_id
    JOIN contract_property cp
        ON cp.contract_id = c.id AND lower(cp.key) = 'spec number'
    LEFT JOIN users u ON u.id = c.assigned_to
    LEFT JOIN contract_company cc ON cc.contract_id = c.id
    LEFT JOIN company co ON co.id = cc.company_id
    LEFT JOIN department d ON d.id = c.department_id
    WHERE ct.managed_by_conductor = TRUE
      AND c.is_visible = TRUE
      AND NOT EXISTS (SELECT 1 FROM contract child WHERE child.parent_id = c.id)
    GROUP BY c.id, c.description, c.financial_id, c.expiration_date, cp.value,
             c.contract_href, d.name, u.first_name, u.email
    ORDER BY c.expiration_date ASC NULLS LAST, c.id ASC
`

// AllContracts опубликованные контракты кондуктора с номером спецификации и без продлений.
// Сначала ближайший срок, контракты без срока в конце
func (s *Storage) AllContracts(ctx context.Context) ([]models.ContractSummary, error) {
	rows := []contractSummaryRow{}
	if err := s.db.SelectContext(ctx, &rows, allContractsQuery); err != nil {
		return nil, fmt.Errorf("select all contracts: %w", err)
	}

	contracts := make([]models.ContractSummary, 0, len(rows))
	for _, r := range rows {
		contracts = append(contracts, models.ContractSummary{
			ID:             r.ID,
			Description:    r.Description,
			FinancialID:    r.FinancialID,
			ExpirationDate: r.ExpirationDate,
			SpecNumber:     r.SpecNumber,
			ContractHref:   r.ContractHref,
			Department:     r.Department,
			FirstName:      r.FirstName,
			Email:          r.Email,
			Companies:      cleanNames(r.Companies),
		})
	}
	return contracts, nil
}
