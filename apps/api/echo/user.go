package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/medatlas/medatlas/core"
	"github.com/medatlas/medatlas/core/schoollist"
	"github.com/medatlas/medatlas/core/user"
)

type userApi struct {
	svc           *user.Service
	schoolListSvc *schoollist.Service
	tokens        *tokenIssuer
	validate      *validator.Validate
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, tokens *tokenIssuer, deps Deps) {
	api := userApi{
		svc:           deps.UserSvc,
		schoolListSvc: deps.SchoolListSvc,
		tokens:        tokens,
		validate:      deps.Validate,
	}
	limiter := newIPRateLimiter(deps.Conf.Server.LoginRateLimit, deps.Conf.Server.LoginRateBurst)

	// un-authed endpoints
	ag := g.Group("/auth")
	ag.POST("/register", api.register)
	ag.POST("/login", api.login, rateLimitMiddleware(limiter))
	ag.POST("/token-refresh", api.refreshToken, jwt)
	ag.POST("/password-reset", api.resetPassword, rateLimitMiddleware(limiter))
	ag.POST("/password-reset-confirm", api.confirmPasswordReset, rateLimitMiddleware(limiter))

	// authed endpoints
	ug := g.Group("/user", jwt)
	ug.GET("/me", api.me)
	ug.GET("/stats", api.stats)
	ug.PUT("/stats", api.updateStats)
	ug.POST("/school-list/refresh-odds", api.refreshOdds)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	data.Roles = nil // roles are granted by admins only
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	token, err := api.tokens.generate(api.tokens.claims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return created(ctx, LoginResponse{Token: token})
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := api.tokens.authenticate(ctx.Request().Context(), data.Username, data.Password, api.svc)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.tokens.generate(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ok(ctx, LoginResponse{Token: token})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := api.tokens.refresh(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ok(ctx, LoginResponse{Token: token})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data user.PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ok(ctx, MessageResponse{Message: passwordResetSentMsg})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ConfirmPasswordReset(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ok(ctx, MessageResponse{Message: passwordResetDoneMsg})
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ok(ctx, usr)
}

func (api *userApi) stats(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ok(ctx, usr.Stats)
}

func (api *userApi) updateStats(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.Stats
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Stats")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	usr, err = api.svc.UpdateStats(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating stats")
	}
	return ok(ctx, usr.Stats)
}

func (api *userApi) refreshOdds(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	entries, err := api.schoolListSvc.RefreshOdds(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "refreshing odds")
	}
	return ok(ctx, entries)
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"` // username or email
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}
)

const (
	passwordResetSentMsg = "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."
	passwordResetDoneMsg = "Password has been reset with the new password."
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}

