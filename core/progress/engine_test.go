package progress_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hogandenver05/Norse-Interview/core"
	"github.com/hogandenver05/Norse-Interview/core/course"
	"github.com/hogandenver05/Norse-Interview/core/progress"
	"github.com/hogandenver05/Norse-Interview/core/user"
	emailsvc "github.com/hogandenver05/Norse-Interview/services/email"
	inmemdb "github.com/hogandenver05/Norse-Interview/storage/database/inmem"
	"github.com/hogandenver05/Norse-Interview/testutil"
)

type fixture struct {
	engine     *progress.Engine
	usrRepo    user.Repository
	courseRepo course.Repository
	mailSvc    *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) fixture {
	t.Helper()
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(conf)
	require.NoError(t, core.ParseEmailTemplates(conf))

	db := inmemdb.Open()
	fx := fixture{
		usrRepo:    inmemdb.NewUserRepository(db),
		courseRepo: inmemdb.NewCourseRepository(db),
		mailSvc:    emailsvc.NewConsoleServiceMock(conf, logger),
	}
	usrSvc := user.NewService(fx.usrRepo, fx.mailSvc, conf)
	courseSvc := course.NewService(fx.courseRepo, usrSvc, logger)
	fx.engine = progress.NewEngine(usrSvc, courseSvc, fx.mailSvc, logger)
	return fx
}

func (fx fixture) completion(t *testing.T, email, courseID string) int {
	t.Helper()
	usr, err := fx.usrRepo.GetUserByEmail(context.Background(), email)
	require.NoError(t, err)
	enr, ok := usr.Enrollment(courseID)
	require.True(t, ok, "%s is not enrolled in %s", email, courseID)
	return enr.Completion
}

func correctAnswers() progress.Answers {
	answers := make(progress.Answers)
	for q := 1; q <= course.NumQuizzes; q++ {
		answers[q] = testutil.CorrectOption
	}
	return answers
}

func TestEngine_fullCourse(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, fx.usrRepo, "Ragnar", "ragnar@nku.edu", "", false)
	c := testutil.CreateCourse(t, fx.courseRepo, "Runes")

	enr, created, err := fx.engine.Enroll(ctx, usr.Email, c.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, user.Enrollment{CourseID: c.ID, Completion: 0}, enr)

	// opening the first topic
	enr, err = fx.engine.AdvanceTopic(ctx, usr.Email, c.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 15, enr.Completion)

	sess, err := fx.engine.Resume(ctx, usr.Email, c.ID)
	require.NoError(t, err)
	assert.Equal(t, progress.StateEnrolled, sess.State)
	assert.Equal(t, 1, sess.Topic)

	for _, want := range []int{30, 45, 60, 75} {
		require.NoError(t, fx.engine.Navigate(ctx, usr.Email, &sess, progress.MoveNext))
		assert.Equal(t, want, sess.Completion)
		assert.Equal(t, want, fx.completion(t, usr.Email, c.ID))
	}

	require.NoError(t, fx.engine.Navigate(ctx, usr.Email, &sess, progress.MoveToQuiz))
	assert.Equal(t, progress.StateAtQuiz, sess.State)
	assert.Equal(t, 75, fx.completion(t, usr.Email, c.ID), "the quiz does not raise completion")

	for q := 1; q <= course.NumQuizzes; q++ {
		require.NoError(t, sess.Select(q, testutil.CorrectOption))
	}
	grade, err := fx.engine.SubmitSession(ctx, usr.Email, &sess)
	require.NoError(t, err)
	assert.True(t, grade.AllCorrect)
	assert.Equal(t, progress.CompletionDone, grade.Completion)
	assert.Equal(t, progress.NextCourse, grade.Next)
	assert.Equal(t, progress.StateCompleted, sess.State)
	assert.Equal(t, 100, fx.completion(t, usr.Email, c.ID))

	sent := fx.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "course_completed", sent[0].TemplateName)
	assert.Equal(t, usr.Email, sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "Runes")

	// passing again keeps the course completed without another mail
	grade, err = fx.engine.SubmitQuiz(ctx, usr.Email, c.ID, correctAnswers())
	require.NoError(t, err)
	assert.Equal(t, 100, grade.Completion)
	assert.Len(t, fx.mailSvc.SentMessages(), 1)
}

func TestEngine_Enroll(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, fx.usrRepo, "Lagertha", "lagertha@nku.edu", "", false)
	c := testutil.CreateCourse(t, fx.courseRepo, "Sagas")

	_, created, err := fx.engine.Enroll(ctx, usr.Email, c.ID)
	require.NoError(t, err)
	require.True(t, created)
	_, err = fx.engine.RecordCompletion(ctx, usr.Email, c.ID, 45)
	require.NoError(t, err)

	before, err := fx.usrRepo.GetUserByEmail(ctx, usr.Email)
	require.NoError(t, err)

	// enrolling again is a no-op
	enr, created, err := fx.engine.Enroll(ctx, usr.Email, c.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 45, enr.Completion)

	after, err := fx.usrRepo.GetUserByEmail(ctx, usr.Email)
	require.NoError(t, err)
	assert.Len(t, after.EnrolledCourses, 1)
	assert.Equal(t, before.Revision, after.Revision, "nothing was saved")

	_, _, err = fx.engine.Enroll(ctx, usr.Email, "unknown")
	assert.Equal(t, course.ErrNotFound, err)

	_, _, err = fx.engine.Enroll(ctx, "nobody@nku.edu", c.ID)
	assert.Equal(t, user.ErrNotFound, err)
}

func TestEngine_AdvanceTopic(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	c := testutil.CreateCourse(t, fx.courseRepo, "Longships")
	usr := testutil.CreateUser(t, fx.usrRepo, "Bjorn", "bjorn@nku.edu", "", false, user.Enrollment{CourseID: c.ID})
	stranger := testutil.CreateUser(t, fx.usrRepo, "Floki", "floki@nku.edu", "", false)

	tests := []struct {
		name       string
		email      string
		topic      int
		wantErr    error
		wantField  string
		completion int
	}{
		{name: "topic 0", email: usr.Email, topic: 0, wantField: "topic"},
		{name: "topic 8", email: usr.Email, topic: 8, wantField: "topic"},
		{name: "not enrolled", email: stranger.Email, topic: 1, wantErr: progress.ErrNotEnrolled},
		{name: "unknown user", email: "nobody@nku.edu", topic: 1, wantErr: user.ErrNotFound},
		{name: "topic 2", email: usr.Email, topic: 2, completion: 30},
		{name: "topic 5", email: usr.Email, topic: 5, completion: 75},
		{name: "quiz is capped", email: usr.Email, topic: progress.QuizTopic, completion: 75},
		{name: "going back", email: usr.Email, topic: 1, completion: 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enr, err := fx.engine.AdvanceTopic(ctx, tt.email, c.ID, tt.topic)
			switch {
			case tt.wantField != "":
				require.Error(t, err)
				verr, ok := err.(*core.ValidationError)
				require.True(t, ok, "want a validation error, got %T", err)
				assert.Equal(t, tt.wantField, verr.Fields[0].Field)
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.completion, enr.Completion)
				assert.Equal(t, tt.completion, fx.completion(t, tt.email, c.ID))
			}
		})
	}
}

func TestEngine_RecordCompletion(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	c := testutil.CreateCourse(t, fx.courseRepo, "Runes")
	usr := testutil.CreateUser(t, fx.usrRepo, "Ivar", "ivar@nku.edu", "", false, user.Enrollment{CourseID: c.ID})

	for _, completion := range []int{-15, 20, 90, 100} {
		_, err := fx.engine.RecordCompletion(ctx, usr.Email, c.ID, completion)
		_, ok := err.(*core.ValidationError)
		assert.True(t, ok, "completion %d: want a validation error, got %v", completion, err)
	}
	assert.Equal(t, 0, fx.completion(t, usr.Email, c.ID))

	enr, err := fx.engine.RecordCompletion(ctx, usr.Email, c.ID, 60)
	require.NoError(t, err)
	assert.Equal(t, 60, enr.Completion)

	enr, err = fx.engine.RecordCompletion(ctx, usr.Email, c.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, enr.Completion)
}

func TestEngine_completedIsNotLowered(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	c := testutil.CreateCourse(t, fx.courseRepo, "Runes")
	usr := testutil.CreateUser(t, fx.usrRepo, "Ubbe", "ubbe@nku.edu", "", false, user.Enrollment{CourseID: c.ID, Completion: 100})

	enr, err := fx.engine.AdvanceTopic(ctx, usr.Email, c.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 100, enr.Completion)

	_, err = fx.engine.RecordCompletion(ctx, usr.Email, c.ID, 15)
	require.NoError(t, err)
	assert.Equal(t, 100, fx.completion(t, usr.Email, c.ID))

	sess, err := fx.engine.Resume(ctx, usr.Email, c.ID)
	require.NoError(t, err)
	assert.Equal(t, progress.StateCompleted, sess.State)
}

func TestEngine_SubmitQuiz_failed(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	c := testutil.CreateCourse(t, fx.courseRepo, "Runes")
	usr := testutil.CreateUser(t, fx.usrRepo, "Hvitserk", "hvitserk@nku.edu", "", false, user.Enrollment{CourseID: c.ID, Completion: 75})
	before, err := fx.usrRepo.GetUserByEmail(ctx, usr.Email)
	require.NoError(t, err)

	answers := correctAnswers()
	answers[3] = 0
	delete(answers, 5)

	grade, err := fx.engine.SubmitQuiz(ctx, usr.Email, c.ID, answers)
	require.NoError(t, err)
	assert.False(t, grade.AllCorrect)
	assert.Equal(t, progress.NextRetake, grade.Next)
	assert.Equal(t, 75, grade.Completion)
	assert.False(t, grade.Results[2].Correct)
	assert.Equal(t, "right 3", grade.Results[2].Answer)
	assert.False(t, grade.Results[4].Answered)

	after, err := fx.usrRepo.GetUserByEmail(ctx, usr.Email)
	require.NoError(t, err)
	assert.Equal(t, before.Revision, after.Revision, "nothing was saved")
	assert.Empty(t, fx.mailSvc.SentMessages())

	// the session stays at the quiz, ready for a retake
	sess, err := fx.engine.Resume(ctx, usr.Email, c.ID)
	require.NoError(t, err)
	require.NoError(t, sess.GoToQuiz())
	require.NoError(t, sess.Select(1, 0))
	grade, err = fx.engine.SubmitSession(ctx, usr.Email, &sess)
	require.NoError(t, err)
	assert.False(t, grade.AllCorrect)
	assert.Equal(t, progress.StateAtQuiz, sess.State)
	assert.Empty(t, sess.Selected)
}

func TestEngine_SubmitQuiz_errors(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	c := testutil.CreateCourse(t, fx.courseRepo, "Runes")
	usr := testutil.CreateUser(t, fx.usrRepo, "Aslaug", "aslaug@nku.edu", "", false)

	_, err := fx.engine.SubmitQuiz(ctx, usr.Email, c.ID, correctAnswers())
	assert.Equal(t, progress.ErrNotEnrolled, err)

	_, err = fx.engine.SubmitQuiz(ctx, usr.Email, "unknown", correctAnswers())
	assert.Equal(t, course.ErrNotFound, err)

	sess := progress.NewSession(c.ID, &user.Enrollment{CourseID: c.ID})
	_, err = fx.engine.SubmitSession(ctx, usr.Email, &sess)
	assert.Equal(t, progress.ErrInvalidMove, err)

	// the quiz opens at the last topic
	_, _, err = fx.engine.Enroll(ctx, usr.Email, c.ID)
	require.NoError(t, err)
	for _, completion := range []int{0, 15, 60} {
		_, err = fx.engine.RecordCompletion(ctx, usr.Email, c.ID, completion)
		require.NoError(t, err)
		_, err = fx.engine.SubmitQuiz(ctx, usr.Email, c.ID, correctAnswers())
		assert.Equal(t, progress.ErrInvalidMove, err, "completion %d", completion)
	}
	assert.Equal(t, 60, fx.completion(t, usr.Email, c.ID))
	assert.Empty(t, fx.mailSvc.SentMessages())
}

func TestEngine_Navigate(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	c := testutil.CreateCourse(t, fx.courseRepo, "Runes")
	usr := testutil.CreateUser(t, fx.usrRepo, "Rollo", "rollo@nku.edu", "", false, user.Enrollment{CourseID: c.ID, Completion: 30})

	sess, err := fx.engine.Resume(ctx, usr.Email, c.ID)
	require.NoError(t, err)
	require.Equal(t, 2, sess.Topic)

	require.NoError(t, fx.engine.Navigate(ctx, usr.Email, &sess, progress.MovePrev))
	assert.Equal(t, 1, sess.Topic)
	assert.Equal(t, 15, fx.completion(t, usr.Email, c.ID))

	// refused moves leave the session untouched
	before := sess
	assert.Equal(t, progress.ErrInvalidMove, fx.engine.Navigate(ctx, usr.Email, &sess, progress.MovePrev))
	assert.Equal(t, before, sess)

	// not enrolled
	other := testutil.CreateUser(t, fx.usrRepo, "Sigurd", "sigurd@nku.edu", "", false)
	sess, err = fx.engine.Resume(ctx, other.Email, c.ID)
	require.NoError(t, err)
	assert.Equal(t, progress.StateNotEnrolled, sess.State)
	assert.Equal(t, progress.ErrInvalidMove, fx.engine.Navigate(ctx, other.Email, &sess, progress.MoveNext))

	_, err = fx.engine.Resume(ctx, usr.Email, "unknown")
	assert.Equal(t, course.ErrNotFound, err)
}

func TestEngine_concurrentWrites(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	var courses []course.Course
	var enrollments []user.Enrollment
	for _, title := range []string{"Runes", "Sagas", "Longships", "Raids", "Gods"} {
		c := testutil.CreateCourse(t, fx.courseRepo, title)
		courses = append(courses, c)
		enrollments = append(enrollments, user.Enrollment{CourseID: c.ID})
	}
	usr := testutil.CreateUser(t, fx.usrRepo, "Harald", "harald@nku.edu", "", false, enrollments...)

	var wg sync.WaitGroup
	errs := make([]error, len(courses))
	for i, c := range courses {
		wg.Add(1)
		go func(i int, courseID string) {
			defer wg.Done()
			_, errs[i] = fx.engine.AdvanceTopic(ctx, usr.Email, courseID, i+1)
		}(i, c.ID)
	}
	wg.Wait()

	// no update is lost
	for i, c := range courses {
		require.NoError(t, errs[i])
		assert.Equal(t, (i+1)*progress.TopicStep, fx.completion(t, usr.Email, c.ID))
	}
}
