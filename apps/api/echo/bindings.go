package echoapi

import (
	"github.com/go-playground/validator/v10"
)

type LoginRequest struct {
	Role     string `json:"role" validate:"required,oneof=principal staff"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

type LoginResponse struct {
	Token string `json:"token"`
}

type StartSubstitutionRequest struct {
	Date      string `json:"date" validate:"required,datestr"`
	TeacherID string `json:"teacher_id" validate:"required"`
}

func (r *StartSubstitutionRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

// ApplyActionRequest resolves one pending period of a workflow. Action is one
// of "substitute" (SubTeacherID required), "vacant" or "merge".
type ApplyActionRequest struct {
	Date         string `json:"date" validate:"required,datestr"`
	TeacherID    string `json:"teacher_id" validate:"required"`
	ClassID      string `json:"class_id" validate:"required"`
	Period       int    `json:"period" validate:"min=0,max=6"`
	Action       string `json:"action" validate:"required,oneof=substitute vacant merge"`
	SubTeacherID string `json:"sub_teacher_id" validate:"required_if=Action substitute"`
	Note         string `json:"note"`
}

func (r *ApplyActionRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

type DismissSubstitutionRequest struct {
	Date      string `json:"date" validate:"required,datestr"`
	TeacherID string `json:"teacher_id" validate:"required"`
}

func (r *DismissSubstitutionRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}
