package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/STPREETHI/learning-portal/core"
)

// Roles
const (
	RoleTutor = "tutor"
	RoleWard  = "ward"
)

var AllRoles = []string{RoleTutor, RoleWard}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Role         string    `json:"role"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
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

func (u *User) IsTutor() bool { return u.Role == RoleTutor }
func (u *User) IsWard() bool  { return u.Role == RoleWard }

// Ward is the public view of a ward shared with tutors and classmates.
type Ward struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

func (u User) AsWard() Ward {
	return Ward{ID: u.ID, Name: u.Name, Role: u.Role}
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Name     string `json:"name" validate:"required,max=150"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,role"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Name)
}

type GetFilter struct {
	ID   string
	Name string
}

type QueryFilter struct {
	Role string
	IDs  []string
}

func (qf *QueryFilter) Match(usr User) bool {
	if qf == nil {
		return true
	}
	if qf.Role != "" && usr.Role != qf.Role {
		return false
	}
	if qf.IDs != nil {
		for _, id := range qf.IDs {
			if usr.ID == id {
				return true
			}
		}
		return false
	}
	return true
}
