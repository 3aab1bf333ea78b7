package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/arnalearn/arna/core"
	"github.com/arnalearn/arna/core/user"
)

const msgRegistered = "Registration successful"

type userApi struct {
	conf     *core.Config
	svc      *user.Service
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, conf *core.Config, svc *user.Service, validate *validator.Validate) {
	api := userApi{
		conf:     conf,
		svc:      svc,
		validate: validate,
	}

	// un-authed endpoints
	ag := g.Group("/auth")
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)

	// authed endpoints
	ug := g.Group("/users", jwt)
	ug.GET("/me", api.me)
	ug.GET("/learners", api.learners, managerMiddleware)
	ug.GET("/learners/unassigned", api.unassignedLearners, managerMiddleware)
	ug.GET("/managers", api.managers, managerMiddleware)
	ug.PUT("/:id/manager", api.assignManager, managerMiddleware)
	ug.DELETE("/:id/manager", api.removeManager, managerMiddleware)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return ctx.JSON(http.StatusOK, RegisterResponse{Message: msgRegistered, User: usr})
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	token, usr, err := authenticate(ctx, api.svc, api.conf, data.Username, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr})
}

func (api *userApi) me(ctx echo.Context) error {
	principal, err := getPrincipal(ctx)
	if err != nil {
		return err
	}
	usr, err := api.svc.GetByID(ctx.Request().Context(), principal.ID)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) learners(ctx echo.Context) error {
	users, err := api.svc.Learners(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying learners")
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) unassignedLearners(ctx echo.Context) error {
	users, err := api.svc.UnassignedLearners(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying unassigned learners")
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) managers(ctx echo.Context) error {
	users, err := api.svc.Managers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying managers")
	}
	return ctx.JSON(http.StatusOK, users)
}

// teamMember loads the learner at path `:id`; managers may only act on unassigned learners and their own team.
func (api *userApi) teamMember(ctx echo.Context) (user.User, error) {
	principal, err := getPrincipal(ctx)
	if err != nil {
		return user.User{}, err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return user.User{}, err
	}
	usr, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	if usr.ManagerID != nil && *usr.ManagerID != principal.ID {
		return user.User{}, errHttpForbidden
	}
	return usr, nil
}

func (api *userApi) assignManager(ctx echo.Context) error {
	usr, err := api.teamMember(ctx)
	if err != nil {
		return err
	}

	var data AssignManagerRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignManagerRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	usr, err = api.svc.AssignManager(ctx.Request().Context(), usr.ID, data.ManagerID)
	if err != nil {
		return errors.Wrap(err, "assigning manager")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) removeManager(ctx echo.Context) error {
	usr, err := api.teamMember(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.RemoveManager(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "removing manager")
	}
	return ctx.NoContent(http.StatusNoContent)
}
