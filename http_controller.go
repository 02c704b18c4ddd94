package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RegisterAuthRoutes mounts the three auth endpoints on the given router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login.post")

	app.
		Post(controller.Routes.Refresh, controller.RefreshPost).
		SetName("auth.refresh.post")

	app.
		Get(controller.Routes.Me, controller.MeGet).
		SetName("auth.me.get")
}

type AuthControllerRoutes struct {
	Login   string
	Refresh string
	Me      string
}

type AuthController struct {
	Debug  bool
	Logger Logger
	Auther Authenticator
	Routes *AuthControllerRoutes
	Route  *RouteAuthenticator
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Login:   "/auth/login",
			Refresh: "/auth/refresh",
			Me:      "/auth/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Route == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	return c
}

// WithControllerAuthenticator wires the service and route helpers.
func WithControllerAuthenticator(auther Authenticator, route *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		c.Route = route
		return c
	}
}

// WithControllerLogger overrides the controller logger.
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerRoutes overrides the default mount points.
func WithControllerRoutes(routes *AuthControllerRoutes) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

// WithControllerDebug enables payload dumps on login.
func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// LoginPost authenticates a stakeholder and returns both tokens plus the
// sanitized record.
func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Warn("Login attempt with unparseable body", "error", err)
		return ctx.JSON(router.StatusBadRequest, errorBody("Request body must be JSON"))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Warn("Login attempt with missing credentials", "email", payload.Email)
		return ctx.JSON(router.StatusBadRequest, errorBody("Email and password are required"))
	}

	if a.Debug {
		a.Logger.Debug("auth login payload", "payload", print.MaybePrettyJSON(payload))
	}

	result, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.Route.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, result)
}

// RefreshPost mints a new access token from a bearer refresh token.
func (a *AuthController) RefreshPost(ctx router.Context) error {
	token, err := a.Route.BearerToken(ctx)
	if err != nil {
		return a.Route.ErrorHandler(ctx, ErrInvalidToken)
	}

	accessToken, err := a.Auther.Refresh(ctx.Context(), token)
	if err != nil {
		return a.Route.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"access_token": accessToken,
	})
}

// MeGet resolves the bearer access token to the current stakeholder.
func (a *AuthController) MeGet(ctx router.Context) error {
	token, err := a.Route.BearerToken(ctx)
	if err != nil {
		return a.Route.ErrorHandler(ctx, ErrInvalidToken)
	}

	view, err := a.Auther.Identify(ctx.Context(), token)
	if err != nil {
		return a.Route.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": view,
	})
}
