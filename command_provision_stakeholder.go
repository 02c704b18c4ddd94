package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// ProvisionStakeholderMessage is the administrative provisioning path.
// There is no public self-registration: seeds and admin tooling go through
// this handler, which is idempotent per email. Re-provisioning an existing
// record updates its password and role instead of failing.
type ProvisionStakeholderMessage struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	PhoneRegion string `json:"phone_region"`
	Password    string `json:"password"`
	// UseHashid derives the record id deterministically from the email so
	// repeated seeds across environments agree on ids.
	UseHashid bool
}

func (e ProvisionStakeholderMessage) Type() string { return "stakeholder.provision" }

// Validate will run validation rules
func (e ProvisionStakeholderMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Role, validation.Required, validation.Length(1, 50)),
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(10, 100)),
	)
}

type ProvisionStakeholderHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewProvisionStakeholderHandler creates a handler with sane defaults.
func NewProvisionStakeholderHandler(repo RepositoryManager) *ProvisionStakeholderHandler {
	return &ProvisionStakeholderHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *ProvisionStakeholderHandler) WithLogger(logger Logger) *ProvisionStakeholderHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ProvisionStakeholderHandler) Execute(ctx context.Context, event ProvisionStakeholderMessage) (*Stakeholder, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during stakeholder provisioning",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ProvisionStakeholderHandler) execute(ctx context.Context, event ProvisionStakeholderMessage) (*Stakeholder, error) {
	if err := event.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid provisioning payload")
	}

	record := &Stakeholder{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		email := NormalizeEmail(event.Email)

		existing, err := h.repo.Stakeholders().FindByEmailTx(ctx, tx, email)
		if err != nil && !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up stakeholder")
		}

		if existing != nil {
			h.logger.Info("Stakeholder exists, updating credentials", "email", email)

			if err := h.repo.Stakeholders().SetPasswordTx(ctx, tx, existing.ID, hash); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password")
			}

			if existing.Role != event.Role {
				if existing, err = h.repo.Stakeholders().UpdateRoleTx(ctx, tx, existing.ID, event.Role); err != nil {
					return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update role")
				}
			}

			record = existing
			return nil
		}

		record.Name = event.Name
		record.Role = event.Role
		record.Email = email
		record.Phone = normalizePhone(event.Phone, event.PhoneRegion)
		record.PasswordHash = hash
		record.Active = true

		if event.UseHashid {
			if id, err := hashid.NewUUID(email); err == nil {
				record.ID = id
			}
		}

		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}

		if record, err = h.repo.Stakeholders().CreateTx(ctx, tx, record); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create stakeholder")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "stakeholder provisioning transaction failed")
	}

	return record, nil
}

// normalizePhone formats the number as E.164 when it parses; free-text
// values from legacy imports are kept verbatim.
func normalizePhone(phone, region string) string {
	if phone == "" {
		return ""
	}

	if region == "" {
		region = "US"
	}

	parsed, err := phonenumbers.Parse(phone, region)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return phone
	}

	return phonenumbers.Format(parsed, phonenumbers.E164)
}
