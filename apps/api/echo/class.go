package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/schedule"
)

type classApi struct {
	svc      *schedule.Service
	validate *validator.Validate
}

func registerClassAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := classApi{svc: opts.ScheduleSvc, validate: opts.Validate}

	cg := g.Group("/classes", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, principalMiddleware())

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, principalMiddleware())
	dg.DELETE("", api.destroy, principalMiddleware())
}

// Handlers

func (api *classApi) query(ctx echo.Context) error {
	classes, err := api.svc.QueryAllClasses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "fetching classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *classApi) create(ctx echo.Context) error {
	var data schedule.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cs, err := api.svc.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cs)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	cs, err := api.svc.GetClass(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "fetching class")
	}
	return ctx.JSON(http.StatusOK, cs)
}

func (api *classApi) update(ctx echo.Context) error {
	var data schedule.ClassSection
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassSection")
	}
	data.ID = ctx.Param("id")

	cs, err := api.svc.UpdateClass(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, cs)
}

// destroy removes the class and cascades into its base cells and overrides.
func (api *classApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteClass(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}
