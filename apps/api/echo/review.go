package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/medatlas/medatlas/core/review"
	"github.com/medatlas/medatlas/core/user"
)

type reviewApi struct {
	svc      *review.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

func registerReviewAPI(g *echo.Group, jwt, optionalJWT echo.MiddlewareFunc, deps Deps) {
	api := reviewApi{
		svc:      deps.ReviewSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
	}

	g.GET("/places/:id/reviews", api.query, optionalJWT)
	g.POST("/places/:id/reviews", api.create, jwt)
	g.DELETE("/reviews/:id", api.destroy, jwt)
}

// Handlers

func (api *reviewApi) query(ctx echo.Context) error {
	usr, err := getOptionalContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	page, err := api.svc.Query(ctx.Request().Context(), ctx.Param("id"), usr)
	if err != nil {
		return errors.Wrap(err, "querying reviews")
	}
	return ok(ctx, page)
}

func (api *reviewApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data review.NewReview
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReview")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	r, err := api.svc.Create(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating review")
	}
	return created(ctx, r)
}

func (api *reviewApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.Delete(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting review")
	}
	return ok(ctx, nil)
}
