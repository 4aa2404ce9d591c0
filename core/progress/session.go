package progress

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/hogandenver05/Norse-Interview/core"
	"github.com/hogandenver05/Norse-Interview/core/course"
	"github.com/hogandenver05/Norse-Interview/core/user"
)

const (
	// TopicStep is the completion earned by each topic reached.
	TopicStep = 15
	// NavigationCap is the highest completion reachable through topic navigation.
	NavigationCap = 75
	// CompletionDone is the completion of a passed course.
	CompletionDone = 100

	// QuizTopic is the topic index denoting "quiz reached".
	QuizTopic = course.NumTopics + 1
	// CompletedTopic is the topic index derived from a completion of 100.
	CompletedTopic = QuizTopic + 1
)

type State string

const (
	StateNotEnrolled State = "not_enrolled"
	StateEnrolled    State = "enrolled"
	StateAtQuiz      State = "at_quiz"
	StateCompleted   State = "completed"
)

type Move string

const (
	MoveNext   Move = "next"
	MovePrev   Move = "prev"
	MoveToQuiz Move = "quiz"
)

var ErrInvalidMove = errors.New("move not allowed from the current state")

// TopicFromCompletion derives the topic index from a stored completion: ceil(completion/15),
// never below 1. A completion of 100 yields CompletedTopic.
func TopicFromCompletion(completion int) int {
	topic := int(math.Ceil(float64(completion) / TopicStep))
	if topic < 1 {
		topic = 1
	}
	return topic
}

// CompletionForTopic is the completion recorded when reaching topic: min(topic*15, 75).
func CompletionForTopic(topic int) int {
	completion := topic * TopicStep
	if completion > NavigationCap {
		completion = NavigationCap
	}
	return completion
}

func stateForTopic(topic int) State {
	switch {
	case topic <= course.NumTopics:
		return StateEnrolled
	case topic == QuizTopic:
		return StateAtQuiz
	default:
		return StateCompleted
	}
}

// Session is the position of one user within one course, along with the quiz answers
// selected so far. It is a plain value: callers keep it and pass it back to the Engine.
type Session struct {
	CourseID   string  `json:"course_id"`
	State      State   `json:"state"`
	Topic      int     `json:"topic"`
	Completion int     `json:"completion"`
	Selected   Answers `json:"selected"`
}

// NewSession reconstructs a Session from the user's enrollment in the course (nil if none).
func NewSession(courseID string, enr *user.Enrollment) Session {
	sess := Session{CourseID: courseID, State: StateNotEnrolled, Selected: Answers{}}
	if enr == nil {
		return sess
	}
	sess.Completion = enr.Completion
	sess.Topic = TopicFromCompletion(enr.Completion)
	sess.State = stateForTopic(sess.Topic)
	return sess
}

func (s Session) CanPrev() bool { return s.State == StateEnrolled && s.Topic > 1 }
func (s Session) CanNext() bool { return s.State == StateEnrolled && s.Topic < course.NumTopics }
func (s Session) CanGoToQuiz() bool {
	return s.State == StateEnrolled && s.Topic == course.NumTopics
}

func (s *Session) moveTo(topic int) {
	s.Topic = topic
	s.State = stateForTopic(topic)
	s.Completion = CompletionForTopic(topic)
}

func (s *Session) Next() error {
	if !s.CanNext() {
		return ErrInvalidMove
	}
	s.moveTo(s.Topic + 1)
	return nil
}

func (s *Session) Prev() error {
	if !s.CanPrev() {
		return ErrInvalidMove
	}
	s.moveTo(s.Topic - 1)
	return nil
}

func (s *Session) GoToQuiz() error {
	if !s.CanGoToQuiz() {
		return ErrInvalidMove
	}
	s.moveTo(QuizTopic)
	s.Selected = Answers{}
	return nil
}

// Apply performs the navigation move.
func (s *Session) Apply(move Move) error {
	switch move {
	case MoveNext:
		return s.Next()
	case MovePrev:
		return s.Prev()
	case MoveToQuiz:
		return s.GoToQuiz()
	default:
		msg := fmt.Sprintf("unknown move %q", move)
		return core.NewValidationError(errors.New(msg), core.FieldError{Field: "move", Error: msg})
	}
}

// Select records option (0-based) as the answer to quiz question (1-based).
func (s *Session) Select(question, option int) error {
	if s.State != StateAtQuiz || question < 1 || question > course.NumQuizzes {
		return ErrInvalidMove
	}
	if s.Selected == nil {
		s.Selected = Answers{}
	}
	s.Selected[question] = option
	return nil
}

// Retake clears the selected answers; the quiz is shown again unanswered.
func (s *Session) Retake() {
	s.Selected = Answers{}
}

func (s *Session) complete() {
	s.Topic = CompletedTopic
	s.State = StateCompleted
	s.Completion = CompletionDone
	s.Selected = Answers{}
}

// View is the UI state derived from a Session.
type View struct {
	Session
	CanPrev     bool `json:"can_prev"`
	CanNext     bool `json:"can_next"`
	CanGoToQuiz bool `json:"can_go_to_quiz"`
}

func (s Session) View() View {
	return View{
		Session:     s,
		CanPrev:     s.CanPrev(),
		CanNext:     s.CanNext(),
		CanGoToQuiz: s.CanGoToQuiz(),
	}
}
