package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/arnalearn/arna/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrUsernameExists     = errors.New("Username already exists")
	ErrEmailExists        = errors.New("Email already exists")
	ErrInvalidCredentials = errors.New("Invalid username or password")
	ErrManagerNotFound    = errors.New("manager not found")
	ErrNotAManager        = errors.New("user is not a manager")
	ErrNotALearner        = errors.New("user is not a learner")
)

// Repository is the data access needed by Service.
// Create returns ErrUsernameExists or ErrEmailExists when a unique column clashes.
type Repository interface {
	CreateUser(ctx context.Context, usr User) (User, error)
	GetUserByID(ctx context.Context, id int) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByUsernameOrEmail(ctx context.Context, username string) (User, error)
	QueryUsers(ctx context.Context, filter QueryFilter) ([]User, error) // ordered by username
	SetUserManager(ctx context.Context, id int, managerID *int) error
	SetUserPassword(ctx context.Context, id int, hash []byte) error
}

type Service struct {
	repo    Repository
	mailSvc core.EmailService
}

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

// Register creates a new user bound to the given role and optional manager.
// nu must have been validated.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	if _, err := svc.repo.GetUserByUsername(ctx, nu.Username); err == nil {
		return User{}, core.NewFieldValidationError("username", ErrUsernameExists)
	} else if errors.Cause(err) != ErrNotFound {
		return User{}, errors.Wrap(err, "checking username")
	}
	if _, err := svc.repo.GetUserByEmail(ctx, nu.Email); err == nil {
		return User{}, core.NewFieldValidationError("email", ErrEmailExists)
	} else if errors.Cause(err) != ErrNotFound {
		return User{}, errors.Wrap(err, "checking email")
	}
	if nu.ManagerID != nil {
		if err := svc.checkManager(ctx, *nu.ManagerID); err != nil {
			return User{}, err
		}
	}

	usr := User{
		Username:  nu.Username,
		Email:     nu.Email,
		RoleID:    nu.RoleID,
		ManagerID: nu.ManagerID,
		CreatedAt: time.Now().UTC(),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		// lost a race against a concurrent registration
		if cause := errors.Cause(err); cause == ErrUsernameExists {
			return User{}, core.NewFieldValidationError("username", cause)
		} else if cause == ErrEmailExists {
			return User{}, core.NewFieldValidationError("email", cause)
		}
		return User{}, errors.Wrap(err, "creating user")
	}

	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *Service) checkManager(ctx context.Context, managerID int) error {
	mgr, err := svc.repo.GetUserByID(ctx, managerID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewFieldValidationError("managerId", ErrManagerNotFound)
		}
		return errors.Wrap(err, "finding manager")
	}
	if !mgr.IsManager() {
		return core.NewFieldValidationError("managerId", ErrNotAManager)
	}
	return nil
}

func (svc *Service) sendWelcomeMail(usr User) {
	if svc.mailSvc == nil || usr.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Username, Address: usr.Email}},
		Subject:      "Welcome to Arna",
		TemplateName: "welcome",
		TemplateData: map[string]interface{}{
			"Username": usr.Username,
			"Role":     usr.RoleID.String(),
		},
	})
}

// Authenticate returns ErrInvalidCredentials whether the username is unknown or the password is wrong.
func (svc *Service) Authenticate(ctx context.Context, username, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByUsername(ctx, core.CleanString(username))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by username")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname))
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname))
}

// Team returns the users whose manager is managerID.
func (svc *Service) Team(ctx context.Context, managerID int) ([]User, error) {
	return svc.repo.QueryUsers(ctx, QueryFilter{ManagerID: managerID})
}

func (svc *Service) Learners(ctx context.Context) ([]User, error) {
	return svc.repo.QueryUsers(ctx, QueryFilter{Role: RoleLearner})
}

func (svc *Service) UnassignedLearners(ctx context.Context) ([]User, error) {
	return svc.repo.QueryUsers(ctx, QueryFilter{Role: RoleLearner, NoManager: true})
}

func (svc *Service) Managers(ctx context.Context) ([]User, error) {
	return svc.repo.QueryUsers(ctx, QueryFilter{Role: RoleManager})
}

// AssignManager puts a learner on a manager's team.
func (svc *Service) AssignManager(ctx context.Context, learnerID, managerID int) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, learnerID)
	if err != nil {
		return User{}, err
	}
	if !usr.IsLearner() {
		return User{}, core.NewValidationError(ErrNotALearner)
	}
	if err = svc.checkManager(ctx, managerID); err != nil {
		return User{}, err
	}
	if err = svc.repo.SetUserManager(ctx, learnerID, &managerID); err != nil {
		return User{}, errors.Wrap(err, "setting manager")
	}
	usr.ManagerID = &managerID
	return usr, nil
}

// RemoveManager takes a user off their manager's team.
func (svc *Service) RemoveManager(ctx context.Context, learnerID int) error {
	if _, err := svc.repo.GetUserByID(ctx, learnerID); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.SetUserManager(ctx, learnerID, nil), "removing manager")
}

// ResetPassword sets a new password, bypassing the password policy. It is meant for operators.
func (svc *Service) ResetPassword(ctx context.Context, usernameOrEmail, pwd string) error {
	usr, err := svc.GetByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return errors.Wrap(svc.repo.SetUserPassword(ctx, usr.ID, usr.PasswordHash), "saving password")
}
