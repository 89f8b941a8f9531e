package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/medatlas/medatlas/core"
	"github.com/medatlas/medatlas/core/schoollist"
	"github.com/medatlas/medatlas/core/user"
)

var errMissingEntryID = core.NewValidationError(nil, core.FieldError{Field: "id", Error: "this field is required"})

type schoolListApi struct {
	svc      *schoollist.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

func registerSchoolListAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := schoolListApi{
		svc:      deps.SchoolListSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
	}

	sg := g.Group("/user/school-list", jwt)
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.PUT("", api.update)
	sg.DELETE("", api.destroy)
}

// Handlers

func (api *schoolListApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	entries, err := api.svc.List(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing entries")
	}
	return ok(ctx, entries)
}

func (api *schoolListApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data schoollist.NewEntry
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	entry, err := api.svc.Add(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "adding entry")
	}
	return created(ctx, entry)
}

func (api *schoolListApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data schoollist.UpdateEntry
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEntry")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	entry, err := api.svc.Update(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating entry")
	}
	return ok(ctx, entry)
}

func (api *schoolListApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	id := ctx.QueryParam("id")
	if id == "" {
		return errMissingEntryID
	}
	if err = api.svc.Remove(ctx.Request().Context(), usr, id); err != nil {
		return errors.Wrap(err, "removing entry")
	}
	return ok(ctx, nil)
}
