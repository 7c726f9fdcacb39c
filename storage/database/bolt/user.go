package boltrepos

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/STPREETHI/learning-portal/core/user"
)

// userDoc keeps the password hash, which user.User hides from JSON.
type userDoc struct {
	user.User
	PasswordHash []byte `json:"passwordHash"`
}

func newUserDoc(usr user.User) userDoc {
	return userDoc{User: usr, PasswordHash: usr.PasswordHash}
}

func (d userDoc) toUser() user.User {
	usr := d.User
	usr.PasswordHash = d.PasswordHash
	return usr
}

type userRepository struct {
	db *bbolt.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *bbolt.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckNameUniqueness(_ context.Context, name string, excludedUsers ...user.User) error {
	return repo.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(userNamesBucket).Get([]byte(name))
		if id == nil {
			return nil
		}
		for _, u := range excludedUsers {
			if u.ID == string(id) {
				return nil
			}
		}
		return user.ErrNameExists
	})
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	err := repo.db.Update(func(tx *bbolt.Tx) error {
		names := tx.Bucket(userNamesBucket)
		if names.Get([]byte(usr.Name)) != nil {
			return user.ErrNameExists
		}
		if err := names.Put([]byte(usr.Name), []byte(usr.ID)); err != nil {
			return err
		}
		return put(tx.Bucket(usersBucket), usr.ID, newUserDoc(usr))
	})
	if err != nil {
		if err == user.ErrNameExists {
			return user.User{}, err
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	var doc userDoc
	err := repo.db.View(func(tx *bbolt.Tx) error {
		id := filter.ID
		if id == "" && filter.Name != "" {
			id = string(tx.Bucket(userNamesBucket).Get([]byte(filter.Name)))
		}
		if id == "" {
			return user.ErrNotFound
		}
		found, err := get(tx.Bucket(usersBucket), id, &doc)
		if err != nil {
			return err
		}
		if !found || (filter.Name != "" && doc.Name != filter.Name) {
			return user.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if err == user.ErrNotFound {
			return user.User{}, err
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return doc.toUser(), nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter) ([]user.User, error) {
	users := make([]user.User, 0)
	err := repo.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(usersBucket).ForEach(func(_, v []byte) error {
			var doc userDoc
			if err := json.Unmarshal(v, &doc); err != nil {
				return err
			}
			if usr := doc.toUser(); filter.Match(usr) {
				users = append(users, usr)
			}
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	var updated user.User
	err := repo.db.Update(func(tx *bbolt.Tx) error {
		var doc userDoc
		found, err := get(tx.Bucket(usersBucket), usr.ID, &doc)
		if err != nil {
			return err
		}
		if !found {
			return user.ErrNotFound
		}

		names := tx.Bucket(userNamesBucket)
		if usr.Name != doc.Name {
			if names.Get([]byte(usr.Name)) != nil {
				return user.ErrNameExists
			}
			if err = names.Delete([]byte(doc.Name)); err != nil {
				return err
			}
			if err = names.Put([]byte(usr.Name), []byte(usr.ID)); err != nil {
				return err
			}
		}

		// role is immutable
		orig := doc.toUser()
		orig.Name = usr.Name
		orig.Email = usr.Email
		orig.UpdatedAt = usr.UpdatedAt
		if usr.PasswordHash != nil {
			orig.PasswordHash = usr.PasswordHash
		}
		updated = orig
		return put(tx.Bucket(usersBucket), orig.ID, newUserDoc(orig))
	})
	if err != nil {
		if err == user.ErrNotFound || err == user.ErrNameExists {
			return user.User{}, err
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return updated, nil
}
