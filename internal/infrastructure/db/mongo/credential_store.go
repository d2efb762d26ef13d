package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/auth-service/internal/core/domain"
)

const accountsCollection = "accounts"

// CredentialStore persists accounts in MongoDB. Username uniqueness is
// enforced by the unique index created in EnsureIndexes.
type CredentialStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewCredentialStore(db *mongo.Database) *CredentialStore {
	return &CredentialStore{coll: db.Collection(accountsCollection), now: time.Now}
}

type mongoAccount struct {
	ID             primitive.ObjectID `bson:"_id"`
	Username       string             `bson:"username"`
	PasswordSalt   []byte             `bson:"password_salt"`
	PasswordDigest []byte             `bson:"password_digest"`
	CreatedAt      time.Time          `bson:"created_at"`
}

// EnsureIndexes creates the unique username index. It is idempotent.
func (s *CredentialStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("create username index: %w", err)
	}
	return nil
}

func (s *CredentialStore) Exists(ctx context.Context, username string) (bool, error) {
	opts := options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})
	err := s.coll.FindOne(ctx, bson.M{"username": username}, opts).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return false, nil
	default:
		return false, fmt.Errorf("check username: %w", err)
	}
}

// Create inserts the account. The id is generated client-side so no read-back
// is needed after the insert.
func (s *CredentialStore) Create(ctx context.Context, username string, salt, digest []byte) (*domain.Account, error) {
	doc := mongoAccount{
		ID:             primitive.NewObjectID(),
		Username:       username,
		PasswordSalt:   salt,
		PasswordDigest: digest,
		CreatedAt:      s.now().UTC().Truncate(time.Millisecond),
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *CredentialStore) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var doc mongoAccount
	if err := s.coll.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *CredentialStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

func (d mongoAccount) toDomain() *domain.Account {
	return &domain.Account{
		ID:             d.ID.Hex(),
		Username:       d.Username,
		PasswordSalt:   append([]byte(nil), d.PasswordSalt...),
		PasswordDigest: append([]byte(nil), d.PasswordDigest...),
		CreatedAt:      d.CreatedAt.UTC(),
	}
}
