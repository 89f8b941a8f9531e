package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/medatlas/medatlas/core"
	"github.com/medatlas/medatlas/core/place"
)

type placeApi struct {
	svc      *place.Service
	validate *validator.Validate
}

func registerPlaceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := placeApi{
		svc:      deps.PlaceSvc,
		validate: deps.Validate,
	}
	admin := adminMiddleware(deps.UserSvc)

	pg := g.Group("/places")
	pg.GET("", api.query)
	pg.GET("/:id", api.retrieve)
	pg.POST("", api.create, jwt, admin)
	pg.PUT("/:id", api.update, jwt, admin)
}

// Handlers

func (api *placeApi) query(ctx echo.Context) error {
	var filter place.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	var pagination core.Pagination
	if err := ctx.Bind(&pagination); err != nil {
		return errors.Wrap(err, "binding to Pagination")
	}
	pagination.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	places, total, err := api.svc.Query(ctx.Request().Context(), filter, pagination, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying places")
	}
	if places == nil {
		places = []place.Place{}
	}
	return ok(ctx, Page{Items: places, Total: total, Page: pagination.Page, PageSize: pagination.PageSize})
}

func (api *placeApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting place")
	}
	return ok(ctx, p)
}

func (api *placeApi) create(ctx echo.Context) error {
	var data place.NewPlace
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPlace")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating place")
	}
	return created(ctx, p)
}

func (api *placeApi) update(ctx echo.Context) error {
	var data place.UpdatePlace
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePlace")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating place")
	}
	return ok(ctx, p)
}
