package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/staff"
)

type teacherApi struct {
	svc      *staff.Service
	validate *validator.Validate
}

func registerTeacherAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := teacherApi{svc: opts.StaffSvc, validate: opts.Validate}

	tg := g.Group("/teachers", jwt)
	tg.GET("", api.query)
	tg.POST("", api.create, principalMiddleware())

	dg := tg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, principalMiddleware())
	dg.DELETE("", api.destroy, principalMiddleware())

	// attendance rides on the teacher registry
	ag := g.Group("/attendance", jwt)
	ag.GET("", api.attendance)
	ag.POST("", api.mark)
}

// Handlers

func (api *teacherApi) query(ctx echo.Context) error {
	teachers, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "fetching teachers")
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *teacherApi) create(ctx echo.Context) error {
	var data staff.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *teacherApi) retrieve(ctx echo.Context) error {
	t, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "fetching teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) update(ctx echo.Context) error {
	var data staff.Teacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Teacher")
	}
	data.ID = ctx.Param("id")

	t, err := api.svc.Update(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// attendance lists a date's marks; teachers without a record are present.
func (api *teacherApi) attendance(ctx echo.Context) error {
	dateStr := ctx.QueryParam("date")
	if err := api.validate.Var(dateStr, "required,datestr"); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "date must be in YYYY-MM-DD format"})
	}

	marks, err := api.svc.Attendance(ctx.Request().Context(), dateStr)
	if err != nil {
		return errors.Wrapf(err, "fetching attendance for %s", dateStr)
	}
	return ctx.JSON(http.StatusOK, marks)
}

func (api *teacherApi) mark(ctx echo.Context) error {
	var data staff.AttendanceEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AttendanceEntry")
	}
	if err := data.Validate(api.validate, nil); err != nil {
		return err
	}

	if err := api.svc.Mark(ctx.Request().Context(), data.Date, data.TeacherID, data.Status); err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.NoContent(http.StatusNoContent)
}
