package main

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/arnalearn/arna/core/user"
)

// addUser registers a new user.User, under the password policy of the API.
func (cli *commandLine) addUser(uname, email, pwd string, role user.Role, manager string) error {
	nu := user.NewUser{
		Username: uname,
		Password: pwd,
		Email:    email,
		RoleID:   role,
	}
	if manager != "" {
		mgr, err := cli.usrSvc.GetByUsernameOrEmail(cli.ctx(), manager)
		if err != nil {
			return errors.Wrap(err, "finding manager")
		}
		nu.ManagerID = &mgr.ID
	}
	if err := nu.Validate(cli.validate); err != nil {
		return err
	}

	usr, err := cli.usrSvc.Register(cli.ctx(), nu)
	if err != nil {
		return err
	}
	fmt.Printf("%s %q created (id %d)\n", usr.RoleID, usr.Username, usr.ID)
	return nil
}

// assignLearner puts a learner on a manager's team.
func (cli *commandLine) assignLearner(learner, manager string) error {
	lrn, err := cli.usrSvc.GetByUsernameOrEmail(cli.ctx(), learner)
	if err != nil {
		return errors.Wrap(err, "finding learner")
	}
	mgr, err := cli.usrSvc.GetByUsernameOrEmail(cli.ctx(), manager)
	if err != nil {
		return errors.Wrap(err, "finding manager")
	}
	if _, err = cli.usrSvc.AssignManager(cli.ctx(), lrn.ID, mgr.ID); err != nil {
		return err
	}
	fmt.Printf("%q now reports to %q\n", lrn.Username, mgr.Username)
	return nil
}
