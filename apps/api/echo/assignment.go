package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/arnalearn/arna/core"
	"github.com/arnalearn/arna/core/assignment"
)

var errAssignmentIDMismatch = errors.New("Assignment ID mismatch")

type assignmentApi struct {
	svc      *assignment.Service
	validate *validator.Validate
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *assignment.Service, validate *validator.Validate) {
	api := assignmentApi{
		svc:      svc,
		validate: validate,
	}

	ag := g.Group("/assignment", jwt)
	ag.GET("", api.list)
	ag.POST("", api.create, managerMiddleware)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update, managerMiddleware)
	ag.DELETE("/:id", api.destroy, managerMiddleware)
	ag.GET("/:id/questions", api.questions)
}

// showAnswers reports whether the caller may see correct answers.
func showAnswers(ctx echo.Context) bool {
	principal, err := getPrincipal(ctx)
	return err == nil && principal.IsManager()
}

// Handlers

func (api *assignmentApi) list(ctx echo.Context) error {
	asgs, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if !showAnswers(ctx) {
		for i := range asgs {
			asgs[i] = asgs[i].WithoutAnswers()
		}
	}
	return ctx.JSON(http.StatusOK, asgs)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	asg, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding assignment")
	}
	if !showAnswers(ctx) {
		asg = asg.WithoutAnswers()
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	asg, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return newStoreError("Failed to create assignment", err)
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var data assignment.UpdateAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if data.ID != 0 && data.ID != id {
		return core.NewValidationError(errAssignmentIDMismatch)
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	asg, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return err
		}
		return newStoreError("Failed to update assignment", err)
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		switch errors.Cause(err) {
		case assignment.ErrNotFound, assignment.ErrInUse:
			return err
		}
		return newStoreError("Failed to delete assignment", err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) questions(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	questions, err := api.svc.Questions(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	if !showAnswers(ctx) {
		questions = assignment.HideAnswers(questions)
	}
	return ctx.JSON(http.StatusOK, questions)
}
