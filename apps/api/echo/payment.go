package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/medatlas/medatlas/core/payment"
	"github.com/medatlas/medatlas/core/user"
)

type paymentApi struct {
	svc      *payment.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := paymentApi{
		svc:      deps.PaymentSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
	}

	g.GET("/user/premium", api.premium, jwt)
	g.POST("/admin/payments", api.create, jwt, adminMiddleware(deps.UserSvc))
}

// Handlers

func (api *paymentApi) premium(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	prem, err := api.svc.GetPremium(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "getting premium")
	}
	return ok(ctx, prem)
}

func (api *paymentApi) create(ctx echo.Context) error {
	var data payment.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Record(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording payment")
	}
	return created(ctx, p)
}
