package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SetStakeholderPasswordSQL updates only the credential field so a password
// change never races with profile edits.
var SetStakeholderPasswordSQL = `UPDATE "stakeholders" AS "stk"
SET
	"password_hash" = ?,
	"updated_at" = ?
WHERE
	"stk"."deleted_at" IS NULL
AND (
	"stk"."id" = ?
) RETURNING *;`

// Stakeholders is the persistence contract for stakeholder records. The
// FindBy* lookups double as the credential-store reads the authenticator
// consumes; the rest are administrative mutations.
type Stakeholders interface {
	repository.Repository[*Stakeholder]

	FindByEmail(ctx context.Context, email string) (*Stakeholder, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Stakeholder, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Stakeholder, error)
	FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Stakeholder, error)

	SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
	UpdateRole(ctx context.Context, id uuid.UUID, role StakeholderRole) (*Stakeholder, error)
	UpdateRoleTx(ctx context.Context, tx bun.IDB, id uuid.UUID, role StakeholderRole) (*Stakeholder, error)

	// Deactivate and Reinstate flip the active flag. Records referenced by
	// historical work orders are never hard-deleted.
	Deactivate(ctx context.Context, id uuid.UUID) (*Stakeholder, error)
	Reinstate(ctx context.Context, id uuid.UUID) (*Stakeholder, error)
}

type stakeholders struct {
	repository.Repository[*Stakeholder]
	db *bun.DB
}

var (
	_ Stakeholders                        = (*stakeholders)(nil)
	_ repository.Repository[*Stakeholder] = (*stakeholders)(nil)
	_ StakeholderStore                    = (*stakeholders)(nil)
)

// NewStakeholdersRepository builds the bun-backed repository.
func NewStakeholdersRepository(db *bun.DB) Stakeholders {
	repo := repository.NewRepository[*Stakeholder](db, repository.ModelHandlers[*Stakeholder]{
		NewRecord: func() *Stakeholder { return &Stakeholder{} },
		GetID: func(s *Stakeholder) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Stakeholder, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		GetIdentifier: func() string {
			return "contact_email"
		},
	})

	return &stakeholders{
		Repository: repo,
		db:         db,
	}
}

func (r *stakeholders) FindByEmail(ctx context.Context, email string) (*Stakeholder, error) {
	return r.FindByEmailTx(ctx, r.db, email)
}

func (r *stakeholders) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Stakeholder, error) {
	record := &Stakeholder{}
	err := tx.NewSelect().
		Model(record).
		Where("LOWER(?TableAlias.contact_email) = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"contact_email": NormalizeEmail(email)})
		}
		return nil, err
	}

	return record, nil
}

func (r *stakeholders) FindByID(ctx context.Context, id uuid.UUID) (*Stakeholder, error) {
	return r.FindByIDTx(ctx, r.db, id)
}

func (r *stakeholders) FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Stakeholder, error) {
	record := &Stakeholder{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

func (r *stakeholders) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.SetPasswordTx(ctx, r.db, id, passwordHash)
}

func (r *stakeholders) SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := tx.ExecContext(ctx, SetStakeholderPasswordSQL, passwordHash, time.Now(), id)
	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func (r *stakeholders) UpdateRole(ctx context.Context, id uuid.UUID, role StakeholderRole) (*Stakeholder, error) {
	return r.UpdateRoleTx(ctx, r.db, id, role)
}

func (r *stakeholders) UpdateRoleTx(ctx context.Context, tx bun.IDB, id uuid.UUID, role StakeholderRole) (*Stakeholder, error) {
	return r.setColumn(ctx, tx, id, "role", role)
}

func (r *stakeholders) Deactivate(ctx context.Context, id uuid.UUID) (*Stakeholder, error) {
	return r.setColumn(ctx, r.db, id, "is_active", false)
}

func (r *stakeholders) Reinstate(ctx context.Context, id uuid.UUID) (*Stakeholder, error) {
	return r.setColumn(ctx, r.db, id, "is_active", true)
}

func (r *stakeholders) setColumn(ctx context.Context, tx bun.IDB, id uuid.UUID, column string, value any) (*Stakeholder, error) {
	record := &Stakeholder{}
	res, err := tx.NewUpdate().
		Model(record).
		Set("? = ?", bun.Ident(column), value).
		Set("updated_at = ?", time.Now()).
		Where("?TableAlias.id = ?", id).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return record, nil
}
