package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/99minutos/auth-service/internal/core/domain"
)

func newMockT(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func accountDoc(id primitive.ObjectID, username string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "username", Value: username},
		{Key: "password_salt", Value: []byte("0123456789abcdef")},
		{Key: "password_digest", Value: []byte("digest-bytes")},
		{Key: "created_at", Value: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
}

func TestCredentialStore_Create(t *testing.T) {
	mt := newMockT(t)

	mt.Run("success", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		acc, err := store.Create(context.Background(), "alice", []byte("salt"), []byte("digest"))
		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if acc.Username != "alice" || len(acc.ID) != 24 {
			mt.Fatalf("unexpected account: %+v", acc)
		}
		if string(acc.PasswordDigest) != "digest" {
			mt.Fatalf("digest not carried through")
		}
	})

	mt.Run("duplicate key", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: auth.accounts index: username_unique",
		}))

		_, err := store.Create(context.Background(), "alice", []byte("salt"), []byte("digest"))
		if !errors.Is(err, domain.ErrDuplicateUsername) {
			mt.Fatalf("expected ErrDuplicateUsername, got %v", err)
		}
	})

	mt.Run("other failure", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    91,
			Message: "shutdown in progress",
			Name:    "ShutdownInProgress",
		}))

		_, err := store.Create(context.Background(), "alice", []byte("salt"), []byte("digest"))
		if err == nil || errors.Is(err, domain.ErrDuplicateUsername) {
			mt.Fatalf("expected a plain storage error, got %v", err)
		}
	})
}

func TestCredentialStore_FindByUsername(t *testing.T) {
	mt := newMockT(t)
	ns := "auth.accounts"

	mt.Run("found", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, accountDoc(id, "alice")))

		acc, err := store.FindByUsername(context.Background(), "alice")
		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if acc.ID != id.Hex() || acc.Username != "alice" {
			mt.Fatalf("unexpected account: %+v", acc)
		}
		if string(acc.PasswordSalt) != "0123456789abcdef" {
			mt.Fatalf("unexpected salt %q", acc.PasswordSalt)
		}
	})

	mt.Run("not found", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		if _, err := store.FindByUsername(context.Background(), "ghost"); !errors.Is(err, domain.ErrAccountNotFound) {
			mt.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})
}

func TestCredentialStore_Exists(t *testing.T) {
	mt := newMockT(t)
	ns := "auth.accounts"

	mt.Run("present", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}}))

		ok, err := store.Exists(context.Background(), "alice")
		if err != nil || !ok {
			mt.Fatalf("expected true, got %v (err %v)", ok, err)
		}
	})

	mt.Run("absent", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		ok, err := store.Exists(context.Background(), "alice")
		if err != nil || ok {
			mt.Fatalf("expected false, got %v (err %v)", ok, err)
		}
	})
}

func TestCredentialStore_EnsureIndexes(t *testing.T) {
	mt := newMockT(t)

	mt.Run("creates index", func(mt *mtest.T) {
		store := NewCredentialStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := store.EnsureIndexes(context.Background()); err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
	})
}
