package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/leandrocarocca/habit-circle-demo/backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeleteResult reports how many documents a delete removed.
type DeleteResult struct {
	DeletedCount int64
}

// UpdateResult reports how many documents an update matched and modified.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
}

// StorageInterface defines the set of methods that any persistent storage
// backend needs to implement. The scoring engine never touches this layer:
// callers fetch snapshots here and hand them to the engine as plain slices.
type StorageInterface interface {
	// Establishes a connection to the storage backend.
	Connect(dbName, uri string) error
	// Disconnects from the storage backend.
	Disconnect() error

	// Adds a new user to the storage backend.
	AddUser(ctx context.Context, user *models.User) (*models.User, error)
	// Finds a user in the storage backend using a filter.
	FindUser(ctx context.Context, filter interface{}) (*models.User, error)
	// Updates an existing user using a filter and update instructions.
	UpdateUser(ctx context.Context, filter interface{}, update interface{}) (*models.User, error)
	// Sets the date from which a user's logs count toward totals.
	SetTrackingStartDate(ctx context.Context, userID primitive.ObjectID, start time.Time) error

	// Adds a new checkbox definition.
	AddCheckboxDefinition(ctx context.Context, def *models.CheckboxDefinition) (*models.CheckboxDefinition, error)
	// Returns the active checkbox definitions ordered by display order.
	FindActiveCheckboxDefinitions(ctx context.Context) ([]models.CheckboxDefinition, error)
	// Finds a single checkbox definition using a filter.
	FindCheckboxDefinition(ctx context.Context, filter interface{}) (*models.CheckboxDefinition, error)
	// Applies a partial update to a checkbox definition.
	UpdateCheckboxDefinition(ctx context.Context, id primitive.ObjectID, update interface{}) (*UpdateResult, error)
	// Flags a checkbox definition inactive. Definitions are never hard-deleted
	// so historical logs keep their meaning.
	DeactivateCheckboxDefinition(ctx context.Context, id primitive.ObjectID) (*UpdateResult, error)

	// Inserts or replaces the single log for (user, date).
	UpsertDailyLog(ctx context.Context, log *models.DailyLog) error
	// Finds the log for one user and calendar day, nil when absent.
	FindDailyLog(ctx context.Context, userID primitive.ObjectID, date time.Time) (*models.DailyLog, error)
	// Returns a user's logs sorted ascending by date, optionally bounded below.
	FindDailyLogs(ctx context.Context, userID primitive.ObjectID, from *time.Time) ([]models.DailyLog, error)

	// Adds a new group with the creator as its first member.
	AddGroup(ctx context.Context, group *models.Group) (*models.Group, error)
	// Finds a group using a filter.
	FindGroup(ctx context.Context, filter interface{}) (*models.Group, error)
	// Adds a user to a group's member list and the group to the user's list.
	AddGroupMember(ctx context.Context, groupID, userID primitive.ObjectID) error
	// Reports whether both users belong to the given group.
	ShareGroup(ctx context.Context, groupID, userA, userB primitive.ObjectID) (bool, error)

	// Adds a new invitation.
	AddInvitation(ctx context.Context, inv *models.Invitation) (*models.Invitation, error)
	// Finds an invitation using a filter.
	FindInvitation(ctx context.Context, filter interface{}) (*models.Invitation, error)
	// Moves an invitation to a new status.
	UpdateInvitationStatus(ctx context.Context, id primitive.ObjectID, status string) (*UpdateResult, error)
}

// NewStorage creates a new StorageInterface with a MongoDB backend,
// using the provided URI to connect to the MongoDB server.
func NewStorage(dbName, uri string) (StorageInterface, error) {
	storage := NewMongoStorage()
	err := storage.Connect(dbName, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return storage, nil
}
