package models

import (
	"errors"
	"time"
)

// Названия ролей. У анонимных пользователей роли нет
const (
	RoleConductor  = "conductor"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrVendorNotFound  = errors.New("vendor not found")
	ErrInvalidCategory = errors.New("invalid category")
	ErrDuplicate       = errors.New("duplicate record")
)

type Role struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Сущность Отдела
type Department struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Сущность Пользователя (RoleName через join)
type User struct {
	ID           int    `db:"id" json:"id"`
	Email        string `db:"email" json:"email"`
	FirstName    string `db:"first_name" json:"firstName"`
	RoleID       int    `db:"role_id" json:"roleId"`
	RoleName     string `db:"role_name" json:"role"`
	DepartmentID *int   `db:"department_id" json:"departmentId,omitempty"`
}

// HasRole есть ли у пользователя одна из ролей
func (u *User) HasRole(roles ...string) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.RoleName == r {
			return true
		}
	}
	return false
}

// DisplayName имя, если есть, иначе email
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Email
}

// Контракт в работе у кондуктора
type InProgressContract struct {
	ID                 int        `json:"id"`
	SpecNumber         string     `json:"specNumber"`
	ParentSpec         string     `json:"parentSpec"`
	ParentExpiration   *time.Time `json:"parentExpiration,omitempty"`
	ParentContractHref string     `json:"parentContractHref"`
	Description        string     `json:"description"`
	FlowName           string     `json:"flowName"`
	StageName          string     `json:"stageName"`
	Entered            time.Time  `json:"entered"`
	FirstName          string     `json:"firstName"`
	Email              string     `json:"email"`
	Department         string     `json:"department"`
	Companies          []string   `json:"companies"`
}

// Контракт кондуктора, который можно запустить
type ContractSummary struct {
	ID             int        `json:"id"`
	Description    string     `json:"description"`
	FinancialID    string     `json:"financialId"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
	SpecNumber     string     `json:"specNumber"`
	ContractHref   string     `json:"contractHref"`
	Department     string     `json:"department"`
	FirstName      string     `json:"firstName"`
	Email          string     `json:"email"`
	Companies      []string   `json:"companies"`
}

// Сущность Поставщика, email уникален
type Vendor struct {
	ID                 int       `db:"id" json:"id"`
	BusinessName       string    `db:"business_name" json:"businessName"`
	Email              string    `db:"email" json:"email"`
	FirstName          string    `db:"first_name" json:"firstName"`
	LastName           string    `db:"last_name" json:"lastName"`
	PhoneNumber        string    `db:"phone_number" json:"phoneNumber"`
	FaxNumber          string    `db:"fax_number" json:"faxNumber"`
	MinorityOwned      bool      `db:"minority_owned" json:"minorityOwned"`
	WomanOwned         bool      `db:"woman_owned" json:"womanOwned"`
	VeteranOwned       bool      `db:"veteran_owned" json:"veteranOwned"`
	DisadvantagedOwned bool      `db:"disadvantaged_owned" json:"disadvantagedOwned"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
}

// Сущность Категории (категория, подкатегория)
type Category struct {
	ID          int    `db:"id" json:"id"`
	Category    string `db:"category" json:"category"`
	Subcategory string `db:"subcategory" json:"subcategory"`
}

func (c Category) String() string {
	return c.Category + " - " + c.Subcategory
}

// Сущность Возможности для закупки
type Opportunity struct {
	ID              int        `db:"id" json:"id"`
	Title           string     `db:"title" json:"title"`
	Description     string     `db:"description" json:"description"`
	PlannedDeadline time.Time  `db:"planned_deadline" json:"plannedDeadline"`
	PublishAt       *time.Time `db:"publish_at" json:"publishAt,omitempty"`
	IsPublic        bool       `db:"is_public" json:"isPublic"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
}

// IsPublished публична и дата публикации наступила
func (o Opportunity) IsPublished(now time.Time) bool {
	if !o.IsPublic || o.PublishAt == nil {
		return false
	}
	return !o.PublishAt.After(now)
}
