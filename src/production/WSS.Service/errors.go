package service

import (
	"fmt"

	"github.com/pkg/errors"
	database "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Database"
)

// StorageError reports a failed storage operation. Unavailable is set when
// the database could not be reached at all.
type StorageError struct {
	Op          string
	Collection  string
	WallID      string
	Unavailable bool
	Err         error
}

func (e *StorageError) Error() string {
	msg := fmt.Sprintf("%s on %s", e.Op, e.Collection)
	if e.WallID != "" {
		msg += fmt.Sprintf(" (wall_id=%s)", e.WallID)
	}
	return msg + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsNotInitialized reports whether err stems from storage never having been
// connected.
func IsNotInitialized(err error) bool {
	return errors.Is(err, database.ErrNotInitialized)
}

// AsStorageError extracts a StorageError from err.
func AsStorageError(err error) (*StorageError, bool) {
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return storageErr, true
	}
	return nil, false
}

func newStorageError(op, collection, wallID string, err error) *StorageError {
	return &StorageError{
		Op:          op,
		Collection:  collection,
		WallID:      wallID,
		Unavailable: database.IsUnavailable(err),
		Err:         errors.Wrap(err, op),
	}
}
