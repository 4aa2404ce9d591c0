package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/hogandenver05/Norse-Interview/core"
)

// Enrollment links a User to a Course with a completion percentage in [0, 100].
type Enrollment struct {
	CourseID   string `json:"courseId"`
	Completion int    `json:"completion"`
}

type User struct {
	Email           string       `json:"email"`
	Name            string       `json:"name"`
	IsAdmin         bool         `json:"isAdmin"`
	PasswordHash    []byte       `json:"-"`
	EnrolledCourses []Enrollment `json:"enrolledCourses"`
	Revision        int          `json:"-"`
	CreatedAt       time.Time    `json:"created_at"` // UTC
	UpdatedAt       time.Time    `json:"updated_at"` // UTC
	LastLogin       time.Time    `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// Enrollment returns the user's enrollment in the course, if any.
func (u User) Enrollment(courseID string) (Enrollment, bool) {
	for _, enr := range u.EnrolledCourses {
		if enr.CourseID == courseID {
			return enr, true
		}
	}
	return Enrollment{}, false
}

// Enroll appends a zero-completion enrollment unless one already exists for the course.
// It reports whether the enrollment was added.
func (u *User) Enroll(courseID string) (Enrollment, bool) {
	if enr, ok := u.Enrollment(courseID); ok {
		return enr, false
	}
	enr := Enrollment{CourseID: courseID}
	u.EnrolledCourses = append(u.EnrolledCourses, enr)
	return enr, true
}

// SetCompletion updates the completion of an existing enrollment.
func (u *User) SetCompletion(courseID string, completion int) (Enrollment, bool) {
	for i := range u.EnrolledCourses {
		if u.EnrolledCourses[i].CourseID == courseID {
			u.EnrolledCourses[i].Completion = completion
			return u.EnrolledCourses[i], true
		}
	}
	return Enrollment{}, false
}

// Unenroll removes the enrollment for the course and reports whether one was removed.
func (u *User) Unenroll(courseID string) bool {
	kept := make([]Enrollment, 0, len(u.EnrolledCourses))
	var removed bool
	for _, enr := range u.EnrolledCourses {
		if enr.CourseID == courseID {
			removed = true
			continue
		}
		kept = append(kept, enr)
	}
	u.EnrolledCourses = kept
	return removed
}

// NewUser contains information needed to sign up a new User.
type NewUser struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Name = core.CleanString(nu.Name)
	if nu.Name == "" {
		nu.Name = strings.SplitN(nu.Email, "@", 2)[0]
	}

	if err := validate.Struct(nu); err != nil {
		return err
	}
	if err := svc.checkEmailDomain(nu.Email); err != nil {
		return err
	}
	return svc.checkUniqueness(nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name     string `json:"name"`
	Password string `json:"password" validate:"omitempty"`
	// IsAdmin can only be set by admins.
	IsAdmin *bool `json:"isAdmin"`

	email string // set on Validate; used by the password policy
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}
	uu.email = origUsr.Email
	return validate.Struct(uu)
}

type QueryFilter struct {
	// CourseID selects users enrolled in the course.
	CourseID string
	Search   string `query:"search"`
	IsAdmin  *bool  `query:"is_admin"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
