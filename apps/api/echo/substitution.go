package echoapi

import (
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/schedule"
)

type (
	// substitutionApi keeps live workflows in memory, one per (teacher, date)
	// leave event. Workflows are rebuilt from attendance and the schedule on
	// demand, so losing them on restart only costs the operator a re-start
	// call; the override writes they emitted are already persisted.
	substitutionApi struct {
		opts     *Options
		validate *validator.Validate

		mu    sync.Mutex
		flows map[string]*schedule.Workflow // "date_teacherID" -> workflow
	}

	workflowResponse struct {
		TeacherID string                 `json:"teacher_id"`
		Date      string                 `json:"date"`
		State     schedule.WorkflowState `json:"state"`
		Pending   []schedule.PendingSlot `json:"pending"`
	}
)

func registerSubstitutionAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := &substitutionApi{
		opts:     opts,
		validate: opts.Validate,
		flows:    make(map[string]*schedule.Workflow),
	}

	sg := g.Group("/substitutions", jwt, principalMiddleware())
	sg.POST("", api.start)
	sg.GET("", api.retrieve)
	sg.GET("/proposals", api.proposals)
	sg.POST("/apply", api.apply)
	sg.POST("/dismiss", api.dismiss)
}

func flowKey(dateStr, teacherID string) string {
	return dateStr + "_" + teacherID
}

func (api *substitutionApi) deps() schedule.WorkflowDeps {
	return schedule.WorkflowDeps{
		Repo:      api.opts.ScheduleSvc.Repo(),
		StaffRepo: api.opts.StaffSvc.Repo(),
		Checker:   api.opts.Checker,
		Merge:     api.opts.mergePolicy(),
		Mailer:    api.opts.Mailer,
	}
}

func (api *substitutionApi) get(dateStr, teacherID string) (*schedule.Workflow, error) {
	api.mu.Lock()
	defer api.mu.Unlock()
	w, ok := api.flows[flowKey(dateStr, teacherID)]
	if !ok {
		return nil, errHttpNotFound
	}
	return w, nil
}

func response(w *schedule.Workflow) workflowResponse {
	return workflowResponse{
		TeacherID: w.TeacherID,
		Date:      w.Date,
		State:     w.State(),
		Pending:   w.Pending(),
	}
}

// Handlers

// start builds (or rebuilds) the workflow for a marked leave. Restarting an
// existing workflow re-identifies periods from current data.
func (api *substitutionApi) start(ctx echo.Context) error {
	var data StartSubstitutionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StartSubstitutionRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	w, err := schedule.StartWorkflow(ctx.Request().Context(), data.Date, data.TeacherID, api.deps())
	if err != nil {
		return errors.Wrap(err, "starting workflow")
	}

	api.mu.Lock()
	api.flows[flowKey(data.Date, data.TeacherID)] = w
	api.mu.Unlock()

	return ctx.JSON(http.StatusCreated, response(w))
}

func (api *substitutionApi) retrieve(ctx echo.Context) error {
	w, err := api.get(ctx.QueryParam("date"), ctx.QueryParam("teacher_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, response(w))
}

func (api *substitutionApi) proposals(ctx echo.Context) error {
	w, err := api.get(ctx.QueryParam("date"), ctx.QueryParam("teacher_id"))
	if err != nil {
		return err
	}

	proposals, err := w.Propose(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "proposing substitutes")
	}
	return ctx.JSON(http.StatusOK, proposals)
}

// apply resolves one pending period. Periods are independent; a failed write
// leaves only that period pending.
func (api *substitutionApi) apply(ctx echo.Context) error {
	var data ApplyActionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ApplyActionRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	w, err := api.get(data.Date, data.TeacherID)
	if err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	switch data.Action {
	case "substitute":
		err = w.AssignSubstitute(rctx, data.ClassID, data.Period, data.SubTeacherID)
	case "vacant":
		err = w.MarkVacant(rctx, data.ClassID, data.Period, data.Note)
	case "merge":
		err = w.MergeClass(rctx, data.ClassID, data.Period)
	}
	if err != nil {
		return errors.Wrapf(err, "applying %s", data.Action)
	}

	return ctx.JSON(http.StatusOK, response(w))
}

// dismiss closes the workflow without touching its remaining periods.
func (api *substitutionApi) dismiss(ctx echo.Context) error {
	var data DismissSubstitutionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DismissSubstitutionRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	w, err := api.get(data.Date, data.TeacherID)
	if err != nil {
		return err
	}
	w.Dismiss()

	api.mu.Lock()
	delete(api.flows, flowKey(data.Date, data.TeacherID))
	api.mu.Unlock()

	return ctx.JSON(http.StatusOK, response(w))
}
