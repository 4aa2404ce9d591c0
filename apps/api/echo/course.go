package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hogandenver05/Norse-Interview/core/course"
	"github.com/hogandenver05/Norse-Interview/core/user"
)

type courseApi struct {
	svc      *course.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, usrSvc *user.Service, svc *course.Service, validate *validator.Validate) {
	api := courseApi{
		svc:      svc,
		validate: validate,
	}

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)

	// admin endpoints
	admin := adminMiddleware(usrSvc)
	cg.POST("", api.create, admin)
	cg.PUT("/:id", api.update, admin)
	cg.DELETE("/:id", api.destroy, admin)
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Course deleted successfully."})
}
