package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/schedule"
	"github.com/darasahq/darasa/core/staff"
)

type scheduleApi struct {
	svc       *schedule.Service
	resolver  *schedule.Resolver
	suggester schedule.Suggester
	staffSvc  *staff.Service
	validate  *validator.Validate
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := scheduleApi{
		svc:       opts.ScheduleSvc,
		resolver:  opts.Resolver,
		suggester: opts.Suggester,
		staffSvc:  opts.StaffSvc,
		validate:  opts.Validate,
	}

	sg := g.Group("/schedule", jwt)
	sg.GET("/effective", api.effective)
	sg.GET("/base", api.base)
	sg.PUT("/base", api.saveBase, principalMiddleware())
	sg.GET("/overrides", api.overrides)
	sg.PUT("/overrides", api.saveOverride, principalMiddleware())
	sg.POST("/suggest", api.suggest, principalMiddleware())
}

// Handlers

// effective resolves one date's merged view, keyed "classID_period". The
// weekday derives from the date; an explicit day param overrides it for
// callers that already computed one.
func (api *scheduleApi) effective(ctx echo.Context) error {
	dateStr := ctx.QueryParam("date")
	if err := api.validate.Var(dateStr, "required,datestr"); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "date must be in YYYY-MM-DD format"})
	}

	var (
		effective map[string]schedule.EffectiveEntry
		err       error
	)
	if day := schedule.Weekday(ctx.QueryParam("day")); day != "" {
		if vErr := api.validate.Var(string(day), "daycode"); vErr != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "day", Error: "day must be Monday through Saturday"})
		}
		effective, err = api.resolver.Resolve(ctx.Request().Context(), dateStr, day)
	} else {
		effective, err = api.resolver.ResolveDate(ctx.Request().Context(), dateStr)
	}
	if err != nil {
		return errors.Wrapf(err, "resolving schedule for %s", dateStr)
	}
	return ctx.JSON(http.StatusOK, effective)
}

func (api *scheduleApi) base(ctx echo.Context) error {
	day := schedule.Weekday(ctx.QueryParam("day"))
	if err := api.validate.Var(string(day), "required,daycode"); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "day", Error: "day must be Monday through Saturday"})
	}

	base, err := api.svc.BaseSchedule(ctx.Request().Context(), day)
	if err != nil {
		return errors.Wrapf(err, "fetching base schedule for %s", day)
	}
	return ctx.JSON(http.StatusOK, base)
}

func (api *scheduleApi) saveBase(ctx echo.Context) error {
	var data schedule.SaveBaseRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveBaseRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.SaveBaseEntry(ctx.Request().Context(), data.Day, data.ClassID, data.Period, data.Entry); err != nil {
		return errors.Wrap(err, "saving base entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scheduleApi) overrides(ctx echo.Context) error {
	dateStr := ctx.QueryParam("date")
	if err := api.validate.Var(dateStr, "required,datestr"); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "date must be in YYYY-MM-DD format"})
	}

	overrides, err := api.svc.Overrides(ctx.Request().Context(), dateStr)
	if err != nil {
		return errors.Wrapf(err, "fetching overrides for %s", dateStr)
	}
	return ctx.JSON(http.StatusOK, overrides)
}

func (api *scheduleApi) saveOverride(ctx echo.Context) error {
	var data schedule.SaveOverrideRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveOverrideRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.SaveOverride(ctx.Request().Context(), data.Date, data.ClassID, data.Period, data.Override); err != nil {
		return errors.Wrap(err, "saving override")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// suggest returns an advisory base schedule built from the registries. Nothing
// is persisted; the operator saves accepted cells through PUT /schedule/base.
func (api *scheduleApi) suggest(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	teachers, err := api.staffSvc.QueryAll(rctx)
	if err != nil {
		return errors.Wrap(err, "fetching teachers")
	}
	classes, err := api.svc.QueryAllClasses(rctx)
	if err != nil {
		return errors.Wrap(err, "fetching classes")
	}

	proposed, err := api.suggester.SuggestBaseSchedule(rctx, teachers, classes)
	if err != nil {
		return errors.Wrap(err, "suggesting base schedule")
	}
	return ctx.JSON(http.StatusOK, proposed)
}
