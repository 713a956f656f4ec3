package schedule

import (
	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
)

// NewClass contains information needed to create a ClassSection.
type NewClass struct {
	Name    string  `json:"name" validate:"required"`
	Section Section `json:"section" validate:"required"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

// SaveBaseRequest is the wire shape for editing one weekly cell.
// A nil Entry deletes the cell.
type SaveBaseRequest struct {
	Day     Weekday    `json:"day" validate:"required,daycode"`
	ClassID string     `json:"class_id" validate:"required"`
	Period  int        `json:"period" validate:"min=0,max=6"`
	Entry   *BaseEntry `json:"entry"`
}

func (r *SaveBaseRequest) Validate(validate *validator.Validate) error {
	r.ClassID = core.CleanString(r.ClassID)
	return validate.Struct(r)
}

// SaveOverrideRequest is the wire shape for editing one date-scoped override.
// A nil Override deletes it.
type SaveOverrideRequest struct {
	Date     string    `json:"date" validate:"required,datestr"`
	ClassID  string    `json:"class_id" validate:"required"`
	Period   int       `json:"period" validate:"min=0,max=6"`
	Override *Override `json:"override"`
}

func (r *SaveOverrideRequest) Validate(validate *validator.Validate) error {
	r.ClassID = core.CleanString(r.ClassID)
	return validate.Struct(r)
}
