package inmemdb

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/STPREETHI/learning-portal/core/classroom"
)

type classroomRepository struct {
	db *classroomTable
}

var _ classroom.Repository = (*classroomRepository)(nil)

func NewClassroomRepository(db *DB) classroom.Repository {
	return &classroomRepository{db: db.classroom}
}

func (repo *classroomRepository) decodeAll() ([]classroom.Classroom, error) {
	classrooms := make([]classroom.Classroom, 0, len(repo.db.table))
	for _, doc := range repo.db.table {
		var c classroom.Classroom
		if err := json.Unmarshal(doc, &c); err != nil {
			return nil, errors.Wrap(err, "decoding classroom")
		}
		classrooms = append(classrooms, c)
	}
	return classrooms, nil
}

func (repo *classroomRepository) find(match func(c classroom.Classroom) bool) ([]classroom.Classroom, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	all, err := repo.decodeAll()
	if err != nil {
		return nil, err
	}
	classrooms := make([]classroom.Classroom, 0)
	for _, c := range all {
		if match(c) {
			classrooms = append(classrooms, c)
		}
	}
	sort.SliceStable(classrooms, func(i, j int) bool { return classrooms[i].CreatedAt.After(classrooms[j].CreatedAt) })
	return classrooms, nil
}

func (repo *classroomRepository) FindByID(_ context.Context, id string) (classroom.Classroom, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	doc, ok := repo.db.table[id]
	if !ok {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	var c classroom.Classroom
	if err := json.Unmarshal(doc, &c); err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "decoding classroom")
	}
	return c, nil
}

func (repo *classroomRepository) FindByCode(_ context.Context, code string) (classroom.Classroom, error) {
	found, err := repo.find(func(c classroom.Classroom) bool { return c.Code == code })
	if err != nil {
		return classroom.Classroom{}, err
	}
	if len(found) == 0 {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	return found[0], nil
}

func (repo *classroomRepository) FindByTutor(_ context.Context, tutorID string) ([]classroom.Classroom, error) {
	return repo.find(func(c classroom.Classroom) bool { return c.TutorID == tutorID })
}

func (repo *classroomRepository) FindByWard(_ context.Context, wardID string) ([]classroom.Classroom, error) {
	return repo.find(func(c classroom.Classroom) bool { return c.IsEnrolled(wardID) })
}

func (repo *classroomRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	_, err := repo.FindByCode(ctx, code)
	switch err {
	case nil:
		return true, nil
	case classroom.ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}

func (repo *classroomRepository) Insert(_ context.Context, c classroom.Classroom) (classroom.Classroom, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	all, err := repo.decodeAll()
	if err != nil {
		return classroom.Classroom{}, err
	}
	for _, existing := range all {
		if existing.Code == c.Code {
			return classroom.Classroom{}, classroom.ErrCodeExists
		}
	}
	return repo.put(c)
}

func (repo *classroomRepository) Save(_ context.Context, c classroom.Classroom) (classroom.Classroom, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[c.ID]; !ok {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	return repo.put(c)
}

func (repo *classroomRepository) put(c classroom.Classroom) (classroom.Classroom, error) {
	doc, err := json.Marshal(c)
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "encoding classroom")
	}
	repo.db.table[c.ID] = doc

	var saved classroom.Classroom
	if err = json.Unmarshal(doc, &saved); err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "decoding classroom")
	}
	return saved, nil
}
