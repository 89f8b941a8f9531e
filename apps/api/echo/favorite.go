package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/medatlas/medatlas/core/favorite"
	"github.com/medatlas/medatlas/core/user"
)

type favoriteApi struct {
	svc      *favorite.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

func registerFavoriteAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := favoriteApi{
		svc:      deps.FavoriteSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
	}

	fg := g.Group("/user/favorites", jwt)
	fg.GET("", api.query)
	fg.POST("", api.create)
	fg.DELETE("", api.destroy)
}

// Handlers

func (api *favoriteApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	favs, err := api.svc.List(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing favorites")
	}
	return ok(ctx, favs)
}

func (api *favoriteApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data favorite.NewFavorite
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFavorite")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	fav, err := api.svc.Add(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "adding favorite")
	}
	return created(ctx, fav)
}

func (api *favoriteApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	// DELETE binds query params
	var data favorite.NewFavorite
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFavorite")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = api.svc.Remove(ctx.Request().Context(), usr, data.PlaceID); err != nil {
		return errors.Wrap(err, "removing favorite")
	}
	return ok(ctx, nil)
}
