package echoapi

import (
	"bytes"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/arnalearn/arna/core/progress"
	"github.com/arnalearn/arna/core/user"
)

// TeamReportRenderer renders the team reports of a manager as a PDF document.
type TeamReportRenderer interface {
	TeamReport(w io.Writer, manager string, reports []progress.UserReport) error
}

type progressApi struct {
	svc     *progress.Service
	usrSvc  *user.Service
	reports TeamReportRenderer
}

func registerProgressAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *progress.Service,
	usrSvc *user.Service,
	reports TeamReportRenderer,
) {
	api := progressApi{
		svc:     svc,
		usrSvc:  usrSvc,
		reports: reports,
	}

	pg := g.Group("/progress", jwt)
	pg.GET("/team", api.team, managerMiddleware)
	pg.GET("/team/report.pdf", api.teamPDF, managerMiddleware)
	pg.GET("/learners", api.learners, managerMiddleware)
	pg.GET("/user", api.ownReport)
	pg.GET("/user/detail", api.ownDetail)
	pg.GET("/user/:userId", api.userReport, managerMiddleware)
	pg.GET("/user/:userId/detail", api.userDetail, managerMiddleware)
	pg.GET("/assignments", api.ownProgresses)
	pg.GET("/assignment/:assignmentId", api.ownAssignmentProgress)
}

// subordinate returns the id of the user at `:userId` once it is known to be on the caller's team.
func (api *progressApi) subordinate(ctx echo.Context) (int, error) {
	principal, err := getPrincipal(ctx)
	if err != nil {
		return 0, err
	}
	id, err := pathID(ctx, "userId")
	if err != nil {
		return 0, err
	}
	usr, err := api.usrSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return 0, errors.Wrap(err, "finding user by ID")
	}
	if usr.ManagerID == nil || *usr.ManagerID != principal.ID {
		return 0, errHttpForbidden
	}
	return id, nil
}

// Handlers

func (api *progressApi) team(ctx echo.Context) error {
	principal, err := getPrincipal(ctx)
	if err != nil {
		return err
	}
	reports, err := api.svc.TeamReport(ctx.Request().Context(), principal.ID)
	if err != nil {
		return errors.Wrap(err, "building team report")
	}
	return ctx.JSON(http.StatusOK, reports)
}

func (api *progressApi) teamPDF(ctx echo.Context) error {
	principal, err := getPrincipal(ctx)
	if err != nil {
		return err
	}
	reports, err := api.svc.TeamReport(ctx.Request().Context(), principal.ID)
	if err != nil {
		return errors.Wrap(err, "building team report")
	}

	var buf bytes.Buffer
	if err = api.reports.TeamReport(&buf, principal.Username, reports); err != nil {
		return errors.Wrap(err, "rendering team report")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="team-report.pdf"`)
	return ctx.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}

func (api *progressApi) learners(ctx echo.Context) error {
	principal, err := getPrincipal(ctx)
	if err != nil {
		return err
	}
	summaries, err := api.svc.Learners(ctx.Request().Context(), principal.ID)
	if err != nil {
		return errors.Wrap(err, "summarizing learners")
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *progressApi) ownReport(ctx echo.Context) error {
	principal, err := getPrincipal(ctx)
	if err != nil {
		return err
	}
	report, err := api.svc.UserReport(ctx.Request().Context(), principal.ID)
	if err != nil {
		return errors.Wrap(err, "building user report")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *progressApi) ownDetail(ctx echo.Context) error {
	principal, err := getPrincipal(ctx)
	if err != nil {
		return err
	}
	detail, err := api.svc.LearnerDetail(ctx.Request().Context(), principal.ID)
	if err != nil {
		return errors.Wrap(err, "building learner detail")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *progressApi) userReport(ctx echo.Context) error {
	id, err := api.subordinate(ctx)
	if err != nil {
		return err
	}
	report, err := api.svc.UserReport(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "building user report")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *progressApi) userDetail(ctx echo.Context) error {
	id, err := api.subordinate(ctx)
	if err != nil {
		return err
	}
	detail, err := api.svc.LearnerDetail(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "building learner detail")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *progressApi) ownProgresses(ctx echo.Context) error {
	principal, err := getPrincipal(ctx)
	if err != nil {
		return err
	}
	progresses, err := api.svc.UserProgresses(ctx.Request().Context(), principal.ID)
	if err != nil {
		return errors.Wrap(err, "querying progress")
	}
	return ctx.JSON(http.StatusOK, progresses)
}

func (api *progressApi) ownAssignmentProgress(ctx echo.Context) error {
	principal, err := getPrincipal(ctx)
	if err != nil {
		return err
	}
	assignmentID, err := pathID(ctx, "assignmentId")
	if err != nil {
		return err
	}
	p, err := api.svc.AssignmentProgress(ctx.Request().Context(), principal.ID, assignmentID)
	if err != nil {
		return errors.Wrap(err, "finding progress")
	}
	return ctx.JSON(http.StatusOK, p)
}
