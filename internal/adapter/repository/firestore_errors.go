package repository

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"souqbalady/pkg/errors"
)

// storeError maps a Firestore failure onto the application error set.
// Application errors raised inside a transaction pass through unchanged.
func storeError(resource string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.As(err); ok {
		return err
	}
	switch status.Code(err) {
	case codes.NotFound:
		return errors.NotFound(resource, err)
	case codes.AlreadyExists:
		return errors.Conflict(resource + " already exists")
	}
	return errors.StoreUnavailable("The data store is unavailable, please try again", err)
}
