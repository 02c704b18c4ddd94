package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ChangePasswordMessage mutates a stakeholder's credential. The actor must
// be the account itself (proving the current password) or an admin.
type ChangePasswordMessage struct {
	StakeholderID   uuid.UUID `json:"stakeholder_id"`
	CurrentPassword string    `json:"current_password"`
	NewPassword     string    `json:"new_password"`
	Actor           ActorRef  `json:"actor"`
}

func (e ChangePasswordMessage) Type() string { return "stakeholder.change_password" }

// Validate will run validation rules
func (e ChangePasswordMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.StakeholderID, validation.Required),
		validation.Field(&e.NewPassword, validation.Required, validation.Length(10, 100)),
	)
}

type ChangePasswordHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewChangePasswordHandler(repo RepositoryManager) *ChangePasswordHandler {
	return &ChangePasswordHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *ChangePasswordHandler) WithLogger(logger Logger) *ChangePasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ChangePasswordHandler) Execute(ctx context.Context, event ChangePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password change",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ChangePasswordHandler) execute(ctx context.Context, event ChangePasswordMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password change payload")
	}

	selfChange := event.Actor.ID == event.StakeholderID.String()
	if !selfChange && !event.Actor.IsAdmin() {
		return goerrors.New("actor may not change this password", goerrors.CategoryAuthz).
			WithTextCode("AUTH_FORBIDDEN_PASSWORD_CHANGE").
			WithCode(goerrors.CodeForbidden)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := h.repo.Stakeholders().FindByIDTx(ctx, tx, event.StakeholderID)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrStakeholderNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up stakeholder")
		}

		// Self-service changes re-prove the current credential; admins can
		// reset without it.
		if selfChange && !event.Actor.IsAdmin() {
			if !VerifyPassword(event.CurrentPassword, record.PasswordHash) {
				return ErrInvalidCredentials
			}
		}

		hash, err := HashPassword(event.NewPassword)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		if err := h.repo.Stakeholders().SetPasswordTx(ctx, tx, record.ID, hash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store password")
		}

		h.logger.Info("Password changed", "stakeholder_id", record.ID.String(), "actor", event.Actor.ID)
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "password change transaction failed")
	}

	return nil
}
