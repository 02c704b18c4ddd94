package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// StakeholderRole is a free-form role label, e.g. "Admin", "FM Manager",
// "Technician". It is always present and non-empty so it can be embedded in
// access-token claims.
type StakeholderRole = string

const (
	// RoleAdmin administers the system and other stakeholders
	RoleAdmin StakeholderRole = "Admin"
	// RoleFMManager manages facilities, work orders, and SLAs
	RoleFMManager StakeholderRole = "FM Manager"
	// RoleTechnician executes work orders
	RoleTechnician StakeholderRole = "Technician"
)

// Stakeholder is the authenticatable identity record.
type Stakeholder struct {
	bun.BaseModel `bun:"table:stakeholders,alias:stk"`
	ID            uuid.UUID       `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string          `bun:"name,notnull" json:"name,omitempty"`
	Role          StakeholderRole `bun:"role,notnull" json:"role,omitempty"`
	Email         string          `bun:"contact_email,notnull,unique" json:"contact_email,omitempty"`
	Phone         string          `bun:"contact_phone" json:"contact_phone,omitempty"`
	SchoolID      *uuid.UUID      `bun:"school_id,nullzero,type:uuid" json:"school_id,omitempty"`
	PasswordHash  string          `bun:"password_hash" json:"-"`
	Active        bool            `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedAt     *time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time      `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// StakeholderView is the sanitized representation returned to callers. It
// never includes the password hash.
type StakeholderView struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Role     string     `json:"role"`
	Email    string     `json:"contact_email"`
	Phone    string     `json:"contact_phone,omitempty"`
	SchoolID *uuid.UUID `json:"school_id,omitempty"`
	Active   bool       `json:"is_active"`
}

// Sanitized returns the caller-safe view of the stakeholder.
func (s *Stakeholder) Sanitized() *StakeholderView {
	if s == nil {
		return nil
	}
	return &StakeholderView{
		ID:       s.ID,
		Name:     s.Name,
		Role:     s.Role,
		Email:    s.Email,
		Phone:    s.Phone,
		SchoolID: s.SchoolID,
		Active:   s.Active,
	}
}

// HasPassword reports whether the stakeholder can authenticate by password
// at all. A nil or empty hash must always fail verification, never error.
func (s *Stakeholder) HasPassword() bool {
	return s != nil && s.PasswordHash != ""
}

// NormalizeEmail applies the canonical email comparison policy: trimmed and
// lower-cased. Provisioning stores emails through the same function so
// lookups and uniqueness agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Identity adapts a Stakeholder into the claims contract the token service
// consumes.
type Identity interface {
	ID() string
	Name() string
	Email() string
	Role() string
}

type stakeholderIdentity struct {
	stakeholder *Stakeholder
}

// NewIdentityFromStakeholder returns an Identity adapter for the record.
func NewIdentityFromStakeholder(s *Stakeholder) Identity {
	if s == nil {
		return nil
	}
	return stakeholderIdentity{stakeholder: s}
}

func (i stakeholderIdentity) ID() string {
	return i.stakeholder.ID.String()
}

func (i stakeholderIdentity) Name() string {
	return i.stakeholder.Name
}

func (i stakeholderIdentity) Email() string {
	return i.stakeholder.Email
}

func (i stakeholderIdentity) Role() string {
	return i.stakeholder.Role
}

var _ Identity = stakeholderIdentity{}
