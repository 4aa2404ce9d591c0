package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hogandenver05/Norse-Interview/core/user"
)

// authorizeMiddleware lets the request through if the stored context User holds the capability.
func authorizeMiddleware(svc *user.Service, capability user.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if err = user.Authorize(&ctxUsr, capability); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

// enrolleeMiddleware lets an authenticated User through to the enrollment routes,
// where a token whose user is gone is a missing user rather than an anonymous one.
func enrolleeMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := loadContextUser(ctx, svc)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return user.ErrNotFound
				}
				return errors.Wrap(err, "getting context user")
			}
			if err = user.Authorize(&ctxUsr, user.CapAuthenticated); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

func adminMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return authorizeMiddleware(svc, user.CapAdmin)
}

// ctxUserOrAdminMiddleware loads the User of the `:email` path param into the context "object",
// if the context User is that User or an admin.
func ctxUserOrAdminMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			email := ctx.Param("email")
			if err = user.AuthorizeSelfOrAdmin(&ctxUsr, email); err != nil {
				return errHttpNotFound
			}
			usr, err := svc.GetByEmail(ctx.Request().Context(), email)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding user by email")
			}
			ctx.Set("object", usr)
			return next(ctx)
		}
	}
}
