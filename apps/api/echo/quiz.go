package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/arnalearn/arna/core"
	"github.com/arnalearn/arna/core/progress"
	"github.com/arnalearn/arna/core/quiz"
)

type quizApi struct {
	svc      *quiz.Service
	validate *validator.Validate
}

func registerQuizAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *quiz.Service, validate *validator.Validate) {
	api := quizApi{
		svc:      svc,
		validate: validate,
	}

	qg := g.Group("/quiz", jwt)
	qg.POST("/submit", api.submit)
	qg.GET("/:assignmentId/status", api.status)
	qg.GET("/:assignmentId/answers", api.answers)
}

// Handlers

func (api *quizApi) submit(ctx echo.Context) error {
	principal, err := getPrincipal(ctx)
	if err != nil {
		return err
	}

	var data SubmitQuizRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitQuizRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	done, err := api.svc.HasSubmitted(ctx.Request().Context(), principal.ID, data.AssignmentID)
	if err != nil {
		return errors.Wrap(err, "checking submission")
	}
	if done {
		return core.NewValidationError(progress.ErrAlreadySubmitted)
	}

	res, err := api.svc.Submit(ctx.Request().Context(), principal.ID, data.AssignmentID, data.Answers)
	if err != nil {
		return errors.Wrap(err, "submitting quiz")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *quizApi) status(ctx echo.Context) error {
	principal, err := getPrincipal(ctx)
	if err != nil {
		return err
	}
	assignmentID, err := pathID(ctx, "assignmentId")
	if err != nil {
		return err
	}
	done, err := api.svc.HasSubmitted(ctx.Request().Context(), principal.ID, assignmentID)
	if err != nil {
		return errors.Wrap(err, "checking submission")
	}
	return ctx.JSON(http.StatusOK, SubmissionStatusResponse{HasSubmitted: done})
}

func (api *quizApi) answers(ctx echo.Context) error {
	principal, err := getPrincipal(ctx)
	if err != nil {
		return err
	}
	assignmentID, err := pathID(ctx, "assignmentId")
	if err != nil {
		return err
	}
	answers, err := api.svc.Answers(ctx.Request().Context(), principal.ID, assignmentID)
	if err != nil {
		return errors.Wrap(err, "finding answers")
	}
	return ctx.JSON(http.StatusOK, answers)
}
