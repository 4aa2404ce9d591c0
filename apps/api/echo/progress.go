package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hogandenver05/Norse-Interview/core/progress"
	"github.com/hogandenver05/Norse-Interview/core/user"
)

type progressApi struct {
	usrSvc   *user.Service
	engine   *progress.Engine
	validate *validator.Validate
}

func registerProgressAPI(g *echo.Group, jwt echo.MiddlewareFunc, usrSvc *user.Service, engine *progress.Engine, validate *validator.Validate) {
	api := progressApi{
		usrSvc:   usrSvc,
		engine:   engine,
		validate: validate,
	}

	// no sub-groups: their catch-all routes would shadow the course detail endpoints
	authed := []echo.MiddlewareFunc{jwt, enrolleeMiddleware(usrSvc)}
	g.POST("/enroll", api.enroll, authed...)
	g.PUT("/progress", api.updateProgress, authed...)
	g.GET("/courses/:id/session", api.session, authed...)
	g.POST("/courses/:id/navigate", api.navigate, authed...)
	g.POST("/courses/:id/quiz", api.submitQuiz, authed...)
}

// self returns the context User if it is the User identified by email (the context User if empty).
func (api *progressApi) self(ctx echo.Context, email string) (user.User, error) {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting context user")
	}
	if email == "" {
		return ctxUsr, nil
	}
	if err = user.AuthorizeSelf(&ctxUsr, email); err != nil {
		return user.User{}, err
	}
	return ctxUsr, nil
}

// Handlers

func (api *progressApi) enroll(ctx echo.Context) error {
	var data EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}
	usr, err := api.self(ctx, data.Email)
	if err != nil {
		return err
	}

	enr, _, err := api.engine.Enroll(ctx.Request().Context(), usr.Email, data.CourseID)
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusOK, EnrollmentResponse{Email: usr.Email, CourseID: enr.CourseID, Completion: enr.Completion})
}

func (api *progressApi) updateProgress(ctx echo.Context) error {
	var data ProgressRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProgressRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}
	usr, err := api.self(ctx, data.Email)
	if err != nil {
		return err
	}

	var enr user.Enrollment
	if data.Topic != nil {
		enr, err = api.engine.AdvanceTopic(ctx.Request().Context(), usr.Email, data.CourseID, *data.Topic)
	} else {
		enr, err = api.engine.RecordCompletion(ctx.Request().Context(), usr.Email, data.CourseID, *data.Completion)
	}
	if err != nil {
		return errors.Wrap(err, "recording progress")
	}
	return ctx.JSON(http.StatusOK, EnrollmentResponse{Email: usr.Email, CourseID: enr.CourseID, Completion: enr.Completion})
}

func (api *progressApi) session(ctx echo.Context) error {
	usr, err := api.self(ctx, "")
	if err != nil {
		return err
	}
	sess, err := api.engine.Resume(ctx.Request().Context(), usr.Email, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "resuming session")
	}
	return ctx.JSON(http.StatusOK, sess.View())
}

func (api *progressApi) navigate(ctx echo.Context) error {
	var data NavigateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NavigateRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}
	usr, err := api.self(ctx, "")
	if err != nil {
		return err
	}

	sess, err := api.engine.Resume(ctx.Request().Context(), usr.Email, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "resuming session")
	}
	if sess.State == progress.StateNotEnrolled {
		return progress.ErrNotEnrolled
	}
	if err = api.engine.Navigate(ctx.Request().Context(), usr.Email, &sess, progress.Move(data.Move)); err != nil {
		return errors.Wrap(err, "navigating")
	}
	return ctx.JSON(http.StatusOK, sess.View())
}

func (api *progressApi) submitQuiz(ctx echo.Context) error {
	var data QuizRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QuizRequest")
	}
	usr, err := api.self(ctx, "")
	if err != nil {
		return err
	}

	grade, err := api.engine.SubmitQuiz(ctx.Request().Context(), usr.Email, ctx.Param("id"), progress.Answers(data.Answers))
	if err != nil {
		return errors.Wrap(err, "submitting quiz")
	}
	return ctx.JSON(http.StatusOK, grade)
}
