package user

import (
	"context"
	"errors"
	"time"

	"github.com/STPREETHI/learning-portal/core"
)

var (
	// errors
	ErrNotFound   = errors.New("user not found")
	ErrNameExists = errors.New("a user with this name already exists")
)

type (
	Repository interface {
		CheckNameUniqueness(ctx context.Context, name string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields, ordered by name.
		QueryUsers(ctx context.Context, filter *QueryFilter) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service interface {
		CheckUniqueness(name string, exclUsers ...User) error
		Create(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByName(ctx context.Context, name string) (User, error)
		QueryWards(ctx context.Context, ids ...string) ([]User, error)
		SetPassword(ctx context.Context, usr User, pwd string) (User, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(name string, exclUsers ...User) error {
	if err := svc.repo.CheckNameUniqueness(context.Background(), name, exclUsers...); err != nil {
		if err == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByName(ctx context.Context, name string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Name: core.CleanString(name)})
}

// QueryWards returns all wards, or only the wards with the given ids when provided.
func (svc *service) QueryWards(ctx context.Context, ids ...string) ([]User, error) {
	filter := &QueryFilter{Role: RoleWard}
	if len(ids) > 0 {
		filter.IDs = ids
	}
	return svc.repo.QueryUsers(ctx, filter)
}

func (svc *service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}
