package user

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/pkg/errors"

	"github.com/hogandenver05/Norse-Interview/core"
)

var (
	// errors
	ErrNotFound      = errors.New("user not found")
	ErrEmailExists   = errors.New("a user with this email already exists")
	ErrStaleRevision = errors.New("user was modified concurrently")

	// maxMutateAttempts bounds the optimistic read-modify-write retries of Service.Mutate.
	maxMutateAttempts = 5
)

type (
	Repository interface {
		// CreateUser fails with ErrEmailExists if the email is taken.
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name or User.Email.
		QueryUsers(ctx context.Context, filter *QueryFilter) ([]User, error)
		// UpdateUser saves usr only if usr.Revision matches the stored revision (ErrStaleRevision
		// otherwise) and returns the saved User with its revision bumped.
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, conf: conf}
}

func (svc *Service) checkUniqueness(email string) error {
	_, err := svc.repo.GetUserByEmail(context.Background(), email)
	switch errors.Cause(err) {
	case nil:
		return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	case ErrNotFound:
		return nil
	default:
		return errors.Wrap(err, "checking email uniqueness")
	}
}

func (svc *Service) checkEmailDomain(email string) error {
	domain := svc.conf.SignupEmailDomain
	if domain == "" || strings.HasSuffix(email, "@"+domain) {
		return nil
	}
	msg := fmt.Sprintf("please use an @%s email", domain)
	return core.NewValidationError(errors.New(msg), core.FieldError{Field: "email", Error: msg})
}

// Signup creates a regular (non admin) User with no enrollments.
func (svc *Service) Signup(ctx context.Context, nu NewUser) (User, error) {
	now := core.NowFunc()
	usr := User{
		Email:           nu.Email,
		Name:            nu.Name,
		EnrolledCourses: []Enrollment{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *Service) sendWelcomeMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome!",
		TemplateName: "welcome",
		TemplateData: usr,
	})
}

// AddUser creates a User, or updates the password and admin flag of an existing one.
func (svc *Service) AddUser(ctx context.Context, email, name, pwd string, isAdmin bool) (User, error) {
	email = core.CleanString(email, true /* lower */)
	usr, err := svc.Mutate(ctx, email, func(u *User) error {
		u.IsAdmin = isAdmin
		return u.SetPassword(pwd)
	})
	if errors.Cause(err) != ErrNotFound {
		return usr, err
	}

	name = core.CleanString(name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	now := core.NowFunc()
	usr = User{
		Email:           email,
		Name:            name,
		IsAdmin:         isAdmin,
		EnrolledCourses: []Enrollment{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]User, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	return svc.repo.QueryUsers(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, email string, uu UpdateUser) (User, error) {
	return svc.Mutate(ctx, email, func(u *User) error {
		u.Name = uu.Name
		if uu.IsAdmin != nil {
			u.IsAdmin = *uu.IsAdmin
		}
		if uu.Password != "" {
			return u.SetPassword(uu.Password)
		}
		return nil
	})
}

func (svc *Service) SetLastLogin(ctx context.Context, email string) (User, error) {
	return svc.Mutate(ctx, email, func(u *User) error {
		u.LastLogin = core.NowFunc()
		return nil
	})
}

func (svc *Service) ResetPassword(ctx context.Context, email, pwd string) error {
	_, err := svc.Mutate(ctx, email, func(u *User) error {
		return u.SetPassword(pwd)
	})
	return err
}

// Mutate performs an optimistic read-modify-write of the User record: it loads the User,
// applies fn and saves it with a compare-and-swap on its revision, reloading and re-applying
// fn when a concurrent writer won the race.
// If fn returns an error, nothing is saved.
func (svc *Service) Mutate(ctx context.Context, email string, fn func(*User) error) (User, error) {
	email = core.CleanString(email, true /* lower */)
	var err error
	for attempt := 1; attempt <= maxMutateAttempts; attempt++ {
		var usr User
		if usr, err = svc.repo.GetUserByEmail(ctx, email); err != nil {
			return User{}, err
		}
		if err = fn(&usr); err != nil {
			return User{}, err
		}
		usr.UpdatedAt = core.NowFunc()

		var saved User
		saved, err = svc.repo.UpdateUser(ctx, usr)
		if err == nil {
			return saved, nil
		}
		if errors.Cause(err) != ErrStaleRevision {
			return User{}, errors.Wrap(err, "updating user")
		}
	}
	return User{}, err
}

// PurgeEnrollments removes the course's enrollment from every User holding one.
// Users are updated one after the other; it is safe to call again after a partial failure.
func (svc *Service) PurgeEnrollments(ctx context.Context, courseID string) error {
	holders, err := svc.repo.QueryUsers(ctx, &QueryFilter{CourseID: courseID})
	if err != nil {
		return errors.Wrap(err, "querying enrolled users")
	}
	for _, holder := range holders {
		_, err = svc.Mutate(ctx, holder.Email, func(u *User) error {
			u.Unenroll(courseID)
			return nil
		})
		if err != nil && errors.Cause(err) != ErrNotFound {
			return errors.Wrapf(err, "unenrolling %s", holder.Email)
		}
	}
	return nil
}
