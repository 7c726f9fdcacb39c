package mongorepos

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/STPREETHI/learning-portal/core/classroom"
)

type classroomRepository struct {
	coll *mongo.Collection
}

var _ classroom.Repository = (*classroomRepository)(nil)

func NewClassroomRepository(db *mongo.Database) classroom.Repository {
	return &classroomRepository{coll: db.Collection(classroomsCollection)}
}

func (repo *classroomRepository) findOne(ctx context.Context, filter bson.M) (classroom.Classroom, error) {
	var c classroom.Classroom
	if err := repo.coll.FindOne(ctx, filter).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return classroom.Classroom{}, classroom.ErrNotFound
		}
		return classroom.Classroom{}, errors.Wrap(err, "getting classroom")
	}
	return c, nil
}

func (repo *classroomRepository) find(ctx context.Context, filter bson.M) ([]classroom.Classroom, error) {
	cur, err := repo.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying classrooms")
	}
	classrooms := make([]classroom.Classroom, 0)
	if err = cur.All(ctx, &classrooms); err != nil {
		return nil, errors.Wrap(err, "decoding classrooms")
	}
	return classrooms, nil
}

func (repo *classroomRepository) FindByID(ctx context.Context, id string) (classroom.Classroom, error) {
	return repo.findOne(ctx, bson.M{"_id": id})
}

func (repo *classroomRepository) FindByCode(ctx context.Context, code string) (classroom.Classroom, error) {
	return repo.findOne(ctx, bson.M{"code": code})
}

func (repo *classroomRepository) FindByTutor(ctx context.Context, tutorID string) ([]classroom.Classroom, error) {
	return repo.find(ctx, bson.M{"tutorId": tutorID})
}

func (repo *classroomRepository) FindByWard(ctx context.Context, wardID string) ([]classroom.Classroom, error) {
	return repo.find(ctx, bson.M{"wardIds": wardID})
}

func (repo *classroomRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	count, err := repo.coll.CountDocuments(ctx, bson.M{"code": code}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrap(err, "checking classroom code")
	}
	return count > 0, nil
}

func (repo *classroomRepository) Insert(ctx context.Context, c classroom.Classroom) (classroom.Classroom, error) {
	if _, err := repo.coll.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return classroom.Classroom{}, classroom.ErrCodeExists
		}
		return classroom.Classroom{}, errors.Wrap(err, "inserting classroom")
	}
	return repo.FindByID(ctx, c.ID)
}

func (repo *classroomRepository) Save(ctx context.Context, c classroom.Classroom) (classroom.Classroom, error) {
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "saving classroom")
	}
	if res.MatchedCount == 0 {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	return repo.FindByID(ctx, c.ID)
}
