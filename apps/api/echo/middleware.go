package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/arnalearn/arna/core/user"
)

// roleMiddleware only lets through principals holding one of roles.
func roleMiddleware(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			principal, err := getPrincipal(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context principal")
			}
			for _, role := range roles {
				if principal.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

var managerMiddleware = roleMiddleware(user.RoleManager)
