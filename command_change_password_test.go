package auth_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	auth "github.com/goliatone/go-fms-auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangePasswordHandler(t *testing.T) {
	repo, cleanup := setupRepoManager(t)
	defer cleanup()

	ctx := context.Background()
	handler := auth.NewChangePasswordHandler(repo)
	provision := auth.NewProvisionStakeholderHandler(repo)

	record, err := provision.Execute(ctx, auth.ProvisionStakeholderMessage{
		Name:     "Jordan Technician",
		Role:     auth.RoleTechnician,
		Email:    "tech@example.org",
		Password: "originalPass1",
	})
	require.NoError(t, err)

	t.Run("self change with correct current password", func(t *testing.T) {
		err := handler.Execute(ctx, auth.ChangePasswordMessage{
			StakeholderID:   record.ID,
			CurrentPassword: "originalPass1",
			NewPassword:     "replacementPass2",
			Actor:           auth.ActorRef{ID: record.ID.String(), Role: auth.RoleTechnician},
		})
		require.NoError(t, err)

		found, err := repo.Stakeholders().FindByID(ctx, record.ID)
		require.NoError(t, err)
		assert.True(t, auth.VerifyPassword("replacementPass2", found.PasswordHash))
	})

	t.Run("self change with wrong current password", func(t *testing.T) {
		err := handler.Execute(ctx, auth.ChangePasswordMessage{
			StakeholderID:   record.ID,
			CurrentPassword: "not-the-password",
			NewPassword:     "replacementPass3",
			Actor:           auth.ActorRef{ID: record.ID.String(), Role: auth.RoleTechnician},
		})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("admin resets without the current password", func(t *testing.T) {
		err := handler.Execute(ctx, auth.ChangePasswordMessage{
			StakeholderID: record.ID,
			NewPassword:   "adminResetPass4",
			Actor:         auth.ActorRef{ID: uuid.NewString(), Role: auth.RoleAdmin},
		})
		require.NoError(t, err)

		found, err := repo.Stakeholders().FindByID(ctx, record.ID)
		require.NoError(t, err)
		assert.True(t, auth.VerifyPassword("adminResetPass4", found.PasswordHash))
	})

	t.Run("non-admin cannot change someone else's password", func(t *testing.T) {
		err := handler.Execute(ctx, auth.ChangePasswordMessage{
			StakeholderID: record.ID,
			NewPassword:   "sneakyPassword5",
			Actor:         auth.ActorRef{ID: uuid.NewString(), Role: auth.RoleTechnician},
		})
		require.Error(t, err)

		var richErr *goerrors.Error
		require.ErrorAs(t, err, &richErr)
		assert.Equal(t, goerrors.CodeForbidden, richErr.Code)
	})

	t.Run("unknown stakeholder", func(t *testing.T) {
		err := handler.Execute(ctx, auth.ChangePasswordMessage{
			StakeholderID: uuid.New(),
			NewPassword:   "whateverPass66",
			Actor:         auth.ActorRef{ID: uuid.NewString(), Role: auth.RoleAdmin},
		})
		assert.ErrorIs(t, err, auth.ErrStakeholderNotFound)
	})

	t.Run("rejects short new passwords", func(t *testing.T) {
		err := handler.Execute(ctx, auth.ChangePasswordMessage{
			StakeholderID: record.ID,
			NewPassword:   "short",
			Actor:         auth.ActorRef{ID: record.ID.String()},
		})
		assert.Error(t, err)
	})
}
