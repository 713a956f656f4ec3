package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/staff"
)

const monthFormat = "2006-01"

type reportApi struct {
	staffSvc *staff.Service
	validate *validator.Validate
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := reportApi{staffSvc: opts.StaffSvc, validate: opts.Validate}

	rg := g.Group("/reports", jwt)
	rg.GET("/attendance", api.attendance)
}

// attendance streams an xlsx with one row per teacher and one column per day
// of the month. Days without a mark render as "P"; leave marks render as
// "A", "HB" or "HA".
func (api *reportApi) attendance(ctx echo.Context) error {
	month, err := time.Parse(monthFormat, ctx.QueryParam("month"))
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "month", Error: "month must be in YYYY-MM format"})
	}
	rctx := ctx.Request().Context()

	teachers, err := api.staffSvc.QueryAll(rctx)
	if err != nil {
		return errors.Wrap(err, "fetching teachers")
	}

	daysInMonth := month.AddDate(0, 1, -1).Day()
	marks := make([]map[string]staff.AttendanceStatus, daysInMonth)
	for d := 0; d < daysInMonth; d++ {
		dateStr := month.AddDate(0, 0, d).Format(core.DateFormat)
		dayMarks, err := api.staffSvc.Attendance(rctx, dateStr)
		if err != nil {
			return errors.Wrapf(err, "fetching attendance for %s", dateStr)
		}
		marks[d] = dayMarks
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	_ = f.SetCellValue(sheet, "A1", "Teacher")
	for d := 0; d < daysInMonth; d++ {
		cell, _ := excelize.CoordinatesToCellName(d+2, 1)
		_ = f.SetCellValue(sheet, cell, d+1)
	}

	for i, t := range teachers {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheet, cell, t.Name)
		for d := 0; d < daysInMonth; d++ {
			cell, _ = excelize.CoordinatesToCellName(d+2, row)
			_ = f.SetCellValue(sheet, cell, statusCode(marks[d][t.ID]))
		}
	}

	filename := fmt.Sprintf("attendance-%s.xlsx", month.Format(monthFormat))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().WriteHeader(http.StatusOK)

	if err := f.Write(ctx.Response()); err != nil {
		return errors.Wrap(err, "writing attendance report")
	}
	return nil
}

func statusCode(s staff.AttendanceStatus) string {
	switch s {
	case staff.StatusAbsent:
		return "A"
	case staff.StatusHalfDayBefore:
		return "HB"
	case staff.StatusHalfDayAfter:
		return "HA"
	default:
		return "P"
	}
}
