package auth

import (
	"context"
	"testing"

	"github.com/form3tech-oss/jwt-go"
	"github.com/leandrocarocca/habit-circle-demo/backend/models"
	storage "github.com/leandrocarocca/habit-circle-demo/backend/storage/persistent"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// userStore implements the handful of StorageInterface methods the auth
// functions touch. The embedded interface covers the rest.
type userStore struct {
	storage.StorageInterface
	users []*models.User
}

func (s *userStore) AddUser(ctx context.Context, user *models.User) (*models.User, error) {
	s.users = append(s.users, user)
	return user, nil
}

func (s *userStore) FindUser(ctx context.Context, filter interface{}) (*models.User, error) {
	f := filter.(bson.M)
	for _, user := range s.users {
		if email, ok := f["email"].(string); ok && user.Email == email {
			return user, nil
		}
		if username, ok := f["username"].(string); ok && user.Username == username {
			return user, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func initTestAuth() *userStore {
	store := &userStore{}
	InitAuth(store, "test-signing-key")
	return store
}

func TestSignUpValidation(t *testing.T) {
	initTestAuth()

	_, _, err := SignUp("a", "ana@example.com", "sturdy-pass-123")
	assert.EqualError(t, err, "invalid username")

	_, _, err = SignUp("ana", "not-an-email", "sturdy-pass-123")
	assert.EqualError(t, err, "invalid email format")

	_, _, err = SignUp("ana", "ana@example.com", "letters-only")
	assert.Error(t, err, "password without digits")

	_, _, err = SignUp("ana", "ana@example.com", "short1")
	assert.Error(t, err, "password too short")
}

func TestSignUpStoresHashedPassword(t *testing.T) {
	store := initTestAuth()

	authToken, refreshToken, err := SignUp("ana", "ana@example.com", "sturdy-pass-123")
	assert.NoError(t, err)
	assert.NotEmpty(t, authToken)
	assert.NotEmpty(t, refreshToken)

	assert.Len(t, store.users, 1)
	user := store.users[0]
	assert.NotEqual(t, "sturdy-pass-123", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("sturdy-pass-123")))
}

func TestSignUpRejectsDuplicates(t *testing.T) {
	initTestAuth()

	_, _, err := SignUp("ana", "ana@example.com", "sturdy-pass-123")
	assert.NoError(t, err)

	_, _, err = SignUp("other", "ana@example.com", "sturdy-pass-123")
	assert.EqualError(t, err, "an account with this email already exists")

	_, _, err = SignUp("ana", "other@example.com", "sturdy-pass-123")
	assert.EqualError(t, err, "username is taken")
}

func TestSignInReportsFailuresUniformly(t *testing.T) {
	initTestAuth()

	_, _, err := SignUp("ana", "ana@example.com", "sturdy-pass-123")
	assert.NoError(t, err)

	_, _, err = SignIn("ana", "sturdy-pass-123")
	assert.NoError(t, err)

	_, _, err = SignIn("ana", "wrong-pass-123")
	assert.EqualError(t, err, "authentication failed")

	_, _, err = SignIn("nobody", "sturdy-pass-123")
	assert.EqualError(t, err, "authentication failed")
}

func TestAuthTokenCarriesUserID(t *testing.T) {
	initTestAuth()

	signed, err := CreateAuthToken("user-123")
	assert.NoError(t, err)

	token, err := jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-signing-key"), nil
	})
	assert.NoError(t, err)
	assert.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "user-123", claims["id"])
}

func TestRefreshToken(t *testing.T) {
	initTestAuth()

	refreshToken, err := CreateRefreshToken("user-123")
	assert.NoError(t, err)

	authToken, newRefresh, err := RefreshToken("user-123", refreshToken)
	assert.NoError(t, err)
	assert.NotEmpty(t, authToken)
	assert.NotEmpty(t, newRefresh)

	// A refresh token belongs to exactly one user.
	_, _, err = RefreshToken("someone-else", refreshToken)
	assert.EqualError(t, err, "invalid refresh token")

	_, _, err = RefreshToken("user-123", "garbage")
	assert.Error(t, err)
}
