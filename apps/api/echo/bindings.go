package echoapi

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/hogandenver05/Norse-Interview/core"
)

var orderingParam = "ordering"

// Ordering binds the `ordering` query param: a comma separated list of fields,
// each prefixed with "-" for descending order (e.g. `?ordering=-created_at,title`).
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	TokenInfoResponse struct {
		Email   string `json:"email"`
		IsAdmin bool   `json:"is_admin"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	EnrollRequest struct {
		Email    string `json:"email"`
		CourseID string `json:"courseId" validate:"required"`
	}

	// ProgressRequest records either a Topic reached (preferred) or a raw Completion.
	ProgressRequest struct {
		Email      string `json:"email"`
		CourseID   string `json:"courseId" validate:"required"`
		Topic      *int   `json:"topic" validate:"required_without=Completion"`
		Completion *int   `json:"completion" validate:"required_without=Topic"`
	}

	EnrollmentResponse struct {
		Email      string `json:"email"`
		CourseID   string `json:"courseId"`
		Completion int    `json:"completion"`
	}

	NavigateRequest struct {
		Move string `json:"move" validate:"required,oneof=next prev quiz"`
	}

	QuizRequest struct {
		Answers map[int]int `json:"answers"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
