package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ChangeRoleMessage reassigns a stakeholder's role. Admin actors only. The
// new role lands in freshly issued tokens on the next login or refresh;
// outstanding access tokens keep the old snapshot until they expire.
type ChangeRoleMessage struct {
	StakeholderID uuid.UUID `json:"stakeholder_id"`
	Role          string    `json:"role"`
	Actor         ActorRef  `json:"actor"`
}

func (e ChangeRoleMessage) Type() string { return "stakeholder.change_role" }

// Validate will run validation rules
func (e ChangeRoleMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.StakeholderID, validation.Required),
		validation.Field(&e.Role, validation.Required, validation.Length(1, 50)),
	)
}

type ChangeRoleHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewChangeRoleHandler(repo RepositoryManager) *ChangeRoleHandler {
	return &ChangeRoleHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *ChangeRoleHandler) WithLogger(logger Logger) *ChangeRoleHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ChangeRoleHandler) Execute(ctx context.Context, event ChangeRoleMessage) (*Stakeholder, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during role change",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ChangeRoleHandler) execute(ctx context.Context, event ChangeRoleMessage) (*Stakeholder, error) {
	if err := event.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid role change payload")
	}

	if !event.Actor.IsAdmin() {
		return nil, goerrors.New("actor may not change roles", goerrors.CategoryAuthz).
			WithTextCode("AUTH_FORBIDDEN_ROLE_CHANGE").
			WithCode(goerrors.CodeForbidden)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var record *Stakeholder
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		record, err = h.repo.Stakeholders().UpdateRoleTx(ctx, tx, event.StakeholderID, event.Role)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrStakeholderNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update role")
		}

		h.logger.Info("Role changed",
			"stakeholder_id", event.StakeholderID.String(),
			"role", event.Role,
			"actor", event.Actor.ID,
		)
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "role change transaction failed")
	}

	return record, nil
}
