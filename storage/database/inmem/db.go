package inmemdb

import (
	"sync"

	"github.com/STPREETHI/learning-portal/core/user"
)

type (
	DB struct {
		user      *userTable
		classroom *classroomTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	// classrooms are kept as encoded documents so callers never share nested slices.
	classroomTable struct {
		sync.RWMutex
		table map[string][]byte
	}
)

func Open() *DB {
	return &DB{
		user:      &userTable{table: make(map[string]*user.User)},
		classroom: &classroomTable{table: make(map[string][]byte)},
	}
}
