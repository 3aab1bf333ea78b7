package user

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/arnalearn/arna/core"
)

// Role IDs, as seeded in the user_role table.
const (
	RoleLearner Role = 1
	RoleManager Role = 2
)

var Roles = []Role{RoleLearner, RoleManager}

type Role int

func (r Role) String() string {
	switch r {
	case RoleLearner:
		return "Learner"
	case RoleManager:
		return "Manager"
	}
	return ""
}

func (r Role) IsValid() bool {
	return r == RoleLearner || r == RoleManager
}

// RoleFromName is the inverse of Role.String; it returns 0 for unknown names.
func RoleFromName(name string) Role {
	for _, r := range Roles {
		if r.String() == name {
			return r
		}
	}
	return 0
}

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	RoleID       Role      `json:"roleId"`
	ManagerID    *int      `json:"managerId"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
}

func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	return json.Marshal(struct {
		alias
		Role string `json:"role"`
	}{alias(u), u.RoleID.String()})
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

func (u User) IsManager() bool { return u.RoleID == RoleManager }
func (u User) IsLearner() bool { return u.RoleID == RoleLearner }

// Manages reports whether `other` is on u's team.
func (u User) Manages(other User) bool {
	return u.IsManager() && other.ManagerID != nil && *other.ManagerID == u.ID
}

// Principal is the verified identity of the caller of a single request.
type Principal struct {
	ID        int
	Username  string
	Role      Role
	ManagerID int // 0 if none
}

func (p Principal) IsManager() bool { return p.Role == RoleManager }

// NewUser contains information needed to register a new User.
type NewUser struct {
	Username  string `json:"username" validate:"required,min=3,max=50,alphanum_"`
	Password  string `json:"password" validate:"required"`
	Email     string `json:"email" validate:"required,email,max=254"`
	RoleID    Role   `json:"roleId" validate:"required,oneof=1 2"`
	ManagerID *int   `json:"managerId" validate:"omitempty,min=1"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Username = core.CleanString(nu.Username)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	return validate.Struct(nu)
}

// QueryFilter applies AND operation on the set fields.
type QueryFilter struct {
	Role      Role
	ManagerID int
	NoManager bool
}

func (qf QueryFilter) IsEmpty() bool {
	return qf.Role == 0 && qf.ManagerID == 0 && !qf.NoManager
}

// Match reports whether usr passes the filter.
func (qf QueryFilter) Match(usr User) bool {
	if qf.Role != 0 && usr.RoleID != qf.Role {
		return false
	}
	if qf.ManagerID != 0 && (usr.ManagerID == nil || *usr.ManagerID != qf.ManagerID) {
		return false
	}
	if qf.NoManager && usr.ManagerID != nil {
		return false
	}
	return true
}
