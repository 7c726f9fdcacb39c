package boltrepos

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

var (
	usersBucket      = []byte("users")
	userNamesBucket  = []byte("user_names") // name -> id
	classroomsBucket = []byte("classrooms")
	codesBucket      = []byte("classroom_codes") // code -> id
)

// Open opens (or creates) the bolt file at path and ensures the buckets exist.
func Open(path string) (*bbolt.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "creating bolt directory")
		}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "opening bolt database")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{usersBucket, userNamesBucket, classroomsBucket, codesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating bolt buckets")
	}
	return db, nil
}

func put(b *bbolt.Bucket, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}

// get decodes the value stored at key into out; it reports false when the key is missing.
func get(b *bbolt.Bucket, key string, out interface{}) (bool, error) {
	v := b.Get([]byte(key))
	if v == nil {
		return false, nil
	}
	return true, json.Unmarshal(v, out)
}
