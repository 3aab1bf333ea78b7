package echoapi

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/arnalearn/arna/core"
	"github.com/arnalearn/arna/core/user"
)

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}

	RegisterResponse struct {
		Message string    `json:"message"`
		User    user.User `json:"user"`
	}

	AssignManagerRequest struct {
		ManagerID int `json:"managerId" validate:"required,min=1"`
	}

	SubmitQuizRequest struct {
		AssignmentID int            `json:"assignmentId" validate:"required,min=1"`
		Answers      map[int]string `json:"answers"`
	}

	SubmissionStatusResponse struct {
		HasSubmitted bool `json:"hasSubmitted"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}
)

func (r *LoginRequest) Validate(validate *validator.Validate) error {
	r.Username = core.CleanString(r.Username)
	return validate.Struct(r)
}

func (r *AssignManagerRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

func (r *SubmitQuizRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

// pathID parses the integer path param `name`; non integers are unknown resources.
func pathID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}
