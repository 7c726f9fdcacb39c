package boltrepos

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/STPREETHI/learning-portal/core/classroom"
)

type classroomRepository struct {
	db *bbolt.DB
}

var _ classroom.Repository = (*classroomRepository)(nil)

func NewClassroomRepository(db *bbolt.DB) classroom.Repository {
	return &classroomRepository{db: db}
}

func (repo *classroomRepository) FindByID(_ context.Context, id string) (classroom.Classroom, error) {
	var c classroom.Classroom
	err := repo.db.View(func(tx *bbolt.Tx) error {
		found, err := get(tx.Bucket(classroomsBucket), id, &c)
		if err != nil {
			return errors.Wrap(err, "decoding classroom")
		}
		if !found {
			return classroom.ErrNotFound
		}
		return nil
	})
	return c, err
}

func (repo *classroomRepository) FindByCode(ctx context.Context, code string) (classroom.Classroom, error) {
	var id []byte
	err := repo.db.View(func(tx *bbolt.Tx) error {
		// copy: the value is only valid during the transaction
		id = append(id, tx.Bucket(codesBucket).Get([]byte(code))...)
		return nil
	})
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "looking up code")
	}
	if len(id) == 0 {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	return repo.FindByID(ctx, string(id))
}

func (repo *classroomRepository) filter(match func(c classroom.Classroom) bool) ([]classroom.Classroom, error) {
	classrooms := make([]classroom.Classroom, 0)
	err := repo.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(classroomsBucket).ForEach(func(_, v []byte) error {
			var c classroom.Classroom
			if err := json.Unmarshal(v, &c); err != nil {
				return err
			}
			if match(c) {
				classrooms = append(classrooms, c)
			}
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying classrooms")
	}
	sort.SliceStable(classrooms, func(i, j int) bool { return classrooms[i].CreatedAt.After(classrooms[j].CreatedAt) })
	return classrooms, nil
}

func (repo *classroomRepository) FindByTutor(_ context.Context, tutorID string) ([]classroom.Classroom, error) {
	return repo.filter(func(c classroom.Classroom) bool { return c.TutorID == tutorID })
}

func (repo *classroomRepository) FindByWard(_ context.Context, wardID string) ([]classroom.Classroom, error) {
	return repo.filter(func(c classroom.Classroom) bool { return c.IsEnrolled(wardID) })
}

func (repo *classroomRepository) CodeExists(_ context.Context, code string) (bool, error) {
	var exists bool
	err := repo.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket(codesBucket).Get([]byte(code)) != nil
		return nil
	})
	return exists, err
}

func (repo *classroomRepository) Insert(ctx context.Context, c classroom.Classroom) (classroom.Classroom, error) {
	err := repo.db.Update(func(tx *bbolt.Tx) error {
		codes := tx.Bucket(codesBucket)
		if codes.Get([]byte(c.Code)) != nil {
			return classroom.ErrCodeExists
		}
		if err := codes.Put([]byte(c.Code), []byte(c.ID)); err != nil {
			return err
		}
		return put(tx.Bucket(classroomsBucket), c.ID, c)
	})
	if err != nil {
		if err == classroom.ErrCodeExists {
			return classroom.Classroom{}, err
		}
		return classroom.Classroom{}, errors.Wrap(err, "inserting classroom")
	}
	return repo.FindByID(ctx, c.ID)
}

// Save replaces the stored document. The join code never changes after creation.
func (repo *classroomRepository) Save(ctx context.Context, c classroom.Classroom) (classroom.Classroom, error) {
	err := repo.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(classroomsBucket)
		if b.Get([]byte(c.ID)) == nil {
			return classroom.ErrNotFound
		}
		return put(b, c.ID, c)
	})
	if err != nil {
		if err == classroom.ErrNotFound {
			return classroom.Classroom{}, err
		}
		return classroom.Classroom{}, errors.Wrap(err, "saving classroom")
	}
	return repo.FindByID(ctx, c.ID)
}
