package main

import (
	"context"
	"fmt"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(email, name, pwd string, isAdmin bool) error {
	usr, err := cli.usrSvc.AddUser(context.Background(), email, name, pwd, isAdmin)
	if err != nil {
		return err
	}
	fmt.Printf("user %s saved (admin: %t)\n", usr.Email, usr.IsAdmin)
	return nil
}
