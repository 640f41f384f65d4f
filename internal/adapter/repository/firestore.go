package repository

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"foodshare/pkg/errors"
)

const (
	usersCollection         = "users"
	chatsCollection         = "chats"
	notificationsCollection = "notifications"
	listingsCollection      = "listings"
	ordersCollection        = "orders"
	reviewsCollection       = "reviews"
)

// Chat transactions are retried by the client when another writer commits first.
const chatTransactionAttempts = 10

func mapGetError(resource string, err error) error {
	if status.Code(err) == codes.NotFound {
		return errors.NotFound(resource, err)
	}
	return errors.Internal("Failed to get "+resource, err)
}

func mapWriteError(resource string, err error) error {
	if _, ok := err.(*errors.AppError); ok {
		return err
	}
	switch status.Code(err) {
	case codes.NotFound:
		return errors.NotFound(resource, err)
	case codes.AlreadyExists:
		return errors.Conflict(resource + " already exists")
	}
	return errors.Internal("Failed to update "+resource, err)
}
