package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/arnalearn/arna/core/assignment"
	"github.com/arnalearn/arna/core/user"
	"github.com/arnalearn/arna/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword       // mockable
	gooseRunFunc     = database.RunMigrations // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sql.DB
	usrSvc   *user.Service
	asgSvc   *assignment.Service
	validate *validator.Validate
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...)")
	fmt.Println("  adduser -username USERNAME -email EMAIL [-role learner|manager] [-manager USERNAME|EMAIL] - create a user")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Println("  assignlearner -learner USERNAME|EMAIL -manager USERNAME|EMAIL - put a learner on a manager's team")
	fmt.Println("  import -file FILE - create the assignments of a YAML file")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserRole := addUserCmd.String("role", "learner", "learner or manager.")
	addUserManager := addUserCmd.String("manager", "", "The username or email of the learner's manager.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	assignCmd := flag.NewFlagSet("assignlearner", flag.ContinueOnError)
	assignLearner := assignCmd.String("learner", "", "The learner's username or email.")
	assignManager := assignCmd.String("manager", "", "The manager's username or email.")

	importCmd := flag.NewFlagSet("import", flag.ContinueOnError)
	importFile := importCmd.String("file", "", "Path of the YAML file.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		role, ok := parseRole(*addUserRole)
		if *addUserUname == "" || *addUserEmail == "" || !ok {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserUname, *addUserEmail, pwd, role, *addUserManager)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	case "assignlearner":
		if err := assignCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *assignLearner == "" || *assignManager == "" {
			assignCmd.Usage()
			return errHelp
		}
		return cli.assignLearner(*assignLearner, *assignManager)
	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importAssignments(*importFile)
	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// parseRole accepts role names in any case.
func parseRole(name string) (user.Role, bool) {
	for _, r := range user.Roles {
		if strings.EqualFold(r.String(), name) {
			return r, true
		}
	}
	return 0, false
}

func (cli *commandLine) ctx() context.Context {
	return context.Background()
}
