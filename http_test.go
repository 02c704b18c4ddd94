package auth_test

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	auth "github.com/goliatone/go-fms-auth"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRouteAuthenticator(t *testing.T) (*auth.RouteAuthenticator, *auth.TokenService) {
	t.Helper()

	cfg := newTestConfig(t)
	issuer := auth.NewTokenService(cfg, nil)

	route, err := auth.NewHTTPAuthenticator(new(MockAuthenticator), issuer, cfg)
	require.NoError(t, err)

	return route, issuer
}

func passNext(ctx router.Context) error {
	return ctx.Next()
}

func TestNewHTTPAuthenticator(t *testing.T) {
	route, _ := newRouteAuthenticator(t)
	assert.NotNil(t, route)
	assert.NotNil(t, route.ErrorHandler)
}

func TestRouteAuthenticatorBearerToken(t *testing.T) {
	route, _ := newRouteAuthenticator(t)

	t.Run("extracts the bearer credential", func(t *testing.T) {
		ctx := new(MockContext)
		ctx.On("GetString", "Authorization", "").Return("Bearer raw.jwt.value")

		token, err := route.BearerToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "raw.jwt.value", token)
	})

	t.Run("missing header", func(t *testing.T) {
		ctx := new(MockContext)
		ctx.On("GetString", "Authorization", "").Return("")

		_, err := route.BearerToken(ctx)
		assert.Error(t, err)
	})
}

func TestRouteAuthenticatorErrorHandler(t *testing.T) {
	route, _ := newRouteAuthenticator(t)

	t.Run("missing credentials pass through as 400", func(t *testing.T) {
		ctx := new(MockContext)
		ctx.On("JSON", router.StatusBadRequest,
			map[string]string{"error": auth.ErrMissingCredentials.Message}).Return(nil)

		require.NoError(t, route.ErrorHandler(ctx, auth.ErrMissingCredentials))
		ctx.AssertExpectations(t)
	})

	t.Run("invalid credentials pass through as 401", func(t *testing.T) {
		ctx := new(MockContext)
		ctx.On("JSON", router.StatusUnauthorized,
			map[string]string{"error": auth.ErrInvalidCredentials.Message}).Return(nil)

		require.NoError(t, route.ErrorHandler(ctx, auth.ErrInvalidCredentials))
		ctx.AssertExpectations(t)
	})

	t.Run("inactive account passes through as 401", func(t *testing.T) {
		ctx := new(MockContext)
		ctx.On("JSON", router.StatusUnauthorized,
			map[string]string{"error": auth.ErrStakeholderInactive.Message}).Return(nil)

		require.NoError(t, route.ErrorHandler(ctx, auth.ErrStakeholderInactive))
		ctx.AssertExpectations(t)
	})

	t.Run("token sub-cases collapse to the invalid token response", func(t *testing.T) {
		for _, err := range []error{
			auth.ErrTokenExpired,
			auth.ErrTokenMalformed,
			auth.ErrWrongTokenKind,
		} {
			ctx := new(MockContext)
			ctx.On("OriginalURL").Return("/auth/me")
			ctx.On("JSON", router.StatusUnauthorized,
				map[string]string{"error": auth.ErrInvalidToken.Message}).Return(nil)

			require.NoError(t, route.ErrorHandler(ctx, err))
			ctx.AssertExpectations(t)
		}
	})

	t.Run("not found passes through as 404", func(t *testing.T) {
		ctx := new(MockContext)
		ctx.On("JSON", router.StatusNotFound,
			map[string]string{"error": auth.ErrStakeholderNotFound.Message}).Return(nil)

		require.NoError(t, route.ErrorHandler(ctx, auth.ErrStakeholderNotFound))
		ctx.AssertExpectations(t)
	})

	t.Run("internal errors return a generic 500", func(t *testing.T) {
		ctx := new(MockContext)
		ctx.On("OriginalURL").Return("/auth/login")
		ctx.On("JSON", router.StatusInternalServerError,
			map[string]string{"error": "An internal server error occurred"}).Return(nil)

		richErr := goerrors.New("database has gone away", goerrors.CategoryInternal)
		require.NoError(t, route.ErrorHandler(ctx, richErr))
		ctx.AssertExpectations(t)
	})

	t.Run("plain errors are treated as internal", func(t *testing.T) {
		ctx := new(MockContext)
		ctx.On("OriginalURL").Return("/auth/login")
		ctx.On("JSON", router.StatusInternalServerError, mock.Anything).Return(nil)

		require.NoError(t, route.ErrorHandler(ctx, errors.New("boom")))
		ctx.AssertExpectations(t)
	})
}

func TestRouteAuthenticatorProtectedRoute(t *testing.T) {
	route, issuer := newRouteAuthenticator(t)

	identity := auth.NewIdentityFromStakeholder(&auth.Stakeholder{
		ID:   uuid.New(),
		Name: "Jordan Technician",
		Role: auth.RoleTechnician,
	})

	t.Run("valid access token reaches the handler", func(t *testing.T) {
		token, err := issuer.IssueAccessToken(identity)
		require.NoError(t, err)

		ctx := new(MockContext)
		ctx.On("GetString", "Authorization", "").Return("Bearer " + token)
		ctx.On("Locals", "stakeholder", mock.Anything).Return(nil)
		ctx.On("Context").Return(context.Background())
		ctx.On("SetContext", mock.Anything).Return()

		handler := route.ProtectedRoute(nil)(passNext)
		require.NoError(t, handler(ctx))
		assert.True(t, ctx.NextCalled)
	})

	t.Run("refresh token is rejected", func(t *testing.T) {
		token, err := issuer.IssueRefreshToken(uuid.NewString())
		require.NoError(t, err)

		ctx := new(MockContext)
		ctx.On("GetString", "Authorization", "").Return("Bearer " + token)
		ctx.On("OriginalURL").Return("/protected")
		ctx.On("JSON", router.StatusUnauthorized,
			map[string]string{"error": auth.ErrInvalidToken.Message}).Return(nil)

		handler := route.ProtectedRoute(nil)(passNext)
		require.NoError(t, handler(ctx))
		assert.False(t, ctx.NextCalled)
	})

	t.Run("admin route enforces the role", func(t *testing.T) {
		token, err := issuer.IssueAccessToken(identity)
		require.NoError(t, err)

		var handled error
		handler := route.AdminRoute(func(c router.Context, err error) error {
			handled = err
			return nil
		})(passNext)

		ctx := new(MockContext)
		ctx.On("GetString", "Authorization", "").Return("Bearer " + token)

		require.NoError(t, handler(ctx))
		require.Error(t, handled)
		assert.False(t, ctx.NextCalled)
	})
}
