package user

import "github.com/hogandenver05/Norse-Interview/core"

// Capability is a set of operations an acting User may perform.
type Capability int

const (
	// CapAuthenticated covers enrollment, progress and profile operations on one's own record.
	CapAuthenticated Capability = iota
	// CapAdmin covers course creation, edition and deletion.
	CapAdmin
)

// Authorize checks that actor holds the capability. Admin rights are read from the
// stored User record, never from the token.
func Authorize(actor *User, capability Capability) error {
	if actor == nil || actor.Email == "" {
		return core.ErrUnauthorized
	}
	if capability == CapAdmin && !actor.IsAdmin {
		return core.ErrForbidden
	}
	return nil
}

// AuthorizeSelf checks that actor is the User identified by email.
func AuthorizeSelf(actor *User, email string) error {
	if err := Authorize(actor, CapAuthenticated); err != nil {
		return err
	}
	if core.CleanString(email, true /* lower */) != actor.Email {
		return core.ErrForbidden
	}
	return nil
}

// AuthorizeSelfOrAdmin checks that actor is the User identified by email, or an admin.
func AuthorizeSelfOrAdmin(actor *User, email string) error {
	err := AuthorizeSelf(actor, email)
	if err == core.ErrForbidden && actor.IsAdmin {
		return nil
	}
	return err
}
