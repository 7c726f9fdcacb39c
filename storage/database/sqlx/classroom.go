package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/STPREETHI/learning-portal/core/classroom"
)

// classroomRow stores the aggregate as a JSONB document next to its indexed columns.
type classroomRow struct {
	ID        string    `db:"id"`
	Code      string    `db:"code"`
	TutorID   string    `db:"tutor_id"`
	Doc       string    `db:"doc"` // text, lib/pq would send []byte as bytea
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toClassroomRow(c classroom.Classroom) (classroomRow, error) {
	doc, err := json.Marshal(c)
	if err != nil {
		return classroomRow{}, errors.Wrap(err, "encoding classroom")
	}
	return classroomRow{
		ID:        c.ID,
		Code:      c.Code,
		TutorID:   c.TutorID,
		Doc:       string(doc),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}, nil
}

func (r classroomRow) toClassroom() (classroom.Classroom, error) {
	var c classroom.Classroom
	if err := json.Unmarshal([]byte(r.Doc), &c); err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "decoding classroom")
	}
	return c, nil
}

type classroomRepository struct {
	db *sqlx.DB
}

var _ classroom.Repository = (*classroomRepository)(nil)

func NewClassroomRepository(db *sqlx.DB) classroom.Repository {
	return &classroomRepository{db: db}
}

func (repo *classroomRepository) get(ctx context.Context, where string, arg interface{}) (classroom.Classroom, error) {
	var row classroomRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM classroom WHERE `+where+` LIMIT 1`, arg); err != nil {
		if err == sql.ErrNoRows {
			return classroom.Classroom{}, classroom.ErrNotFound
		}
		return classroom.Classroom{}, errors.Wrap(err, "getting classroom")
	}
	return row.toClassroom()
}

func (repo *classroomRepository) selectMany(ctx context.Context, where string, arg interface{}) ([]classroom.Classroom, error) {
	rows := make([]classroomRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM classroom WHERE `+where+` ORDER BY created_at DESC`, arg); err != nil {
		return nil, errors.Wrap(err, "querying classrooms")
	}
	classrooms := make([]classroom.Classroom, 0, len(rows))
	for _, r := range rows {
		c, err := r.toClassroom()
		if err != nil {
			return nil, err
		}
		classrooms = append(classrooms, c)
	}
	return classrooms, nil
}

func (repo *classroomRepository) FindByID(ctx context.Context, id string) (classroom.Classroom, error) {
	return repo.get(ctx, `id = $1`, id)
}

func (repo *classroomRepository) FindByCode(ctx context.Context, code string) (classroom.Classroom, error) {
	return repo.get(ctx, `code = $1`, code)
}

func (repo *classroomRepository) FindByTutor(ctx context.Context, tutorID string) ([]classroom.Classroom, error) {
	return repo.selectMany(ctx, `tutor_id = $1`, tutorID)
}

func (repo *classroomRepository) FindByWard(ctx context.Context, wardID string) ([]classroom.Classroom, error) {
	wardIDs, err := json.Marshal([]string{wardID})
	if err != nil {
		return nil, errors.Wrap(err, "encoding ward id")
	}
	return repo.selectMany(ctx, `doc -> 'wardIds' @> $1::jsonb`, string(wardIDs))
}

func (repo *classroomRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var found bool
	if err := repo.db.GetContext(ctx, &found, `SELECT EXISTS (SELECT 1 FROM classroom WHERE code = $1)`, code); err != nil {
		return false, errors.Wrap(err, "checking classroom code")
	}
	return found, nil
}

func (repo *classroomRepository) Insert(ctx context.Context, c classroom.Classroom) (classroom.Classroom, error) {
	row, err := toClassroomRow(c)
	if err != nil {
		return classroom.Classroom{}, err
	}
	q := `INSERT INTO classroom (id, code, tutor_id, doc, created_at, updated_at)
		VALUES (:id, :code, :tutor_id, :doc, :created_at, :updated_at)`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return classroom.Classroom{}, classroom.ErrCodeExists
		}
		return classroom.Classroom{}, errors.Wrap(err, "inserting classroom")
	}
	return row.toClassroom()
}

func (repo *classroomRepository) Save(ctx context.Context, c classroom.Classroom) (classroom.Classroom, error) {
	row, err := toClassroomRow(c)
	if err != nil {
		return classroom.Classroom{}, err
	}
	q := `UPDATE classroom SET doc = :doc, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "saving classroom")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	return row.toClassroom()
}
