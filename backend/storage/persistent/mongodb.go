package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leandrocarocca/habit-circle-demo/backend/calendar"
	"github.com/leandrocarocca/habit-circle-demo/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStorage is a MongoDB-backed implementation of StorageInterface.
type MongoStorage struct {
	client *mongo.Client
	dbName string
}

// NewMongoStorage creates a new instance of MongoStorage.
// This function doesn't establish a connection to the MongoDB server.
// To connect to the server, use the Connect method of the returned instance.
func NewMongoStorage() *MongoStorage {
	return &MongoStorage{}
}

// Connect establishes a connection to the MongoDB server at the given URI and
// database name, and sets up indexes and unique constraints.
//
// The unique compound index on dailyLogs (user_id, log_date) is load-bearing:
// it is what guarantees at most one log per user per calendar day, the
// precondition the scoring engine documents but does not check.
func (m *MongoStorage) Connect(dbName, uri string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("error connecting to MongoDB: %v", err)
	}

	m.client = client
	m.dbName = dbName

	usersCollection := m.client.Database(m.dbName).Collection("users")

	// Unique email and username, same reasoning as every user store: fast
	// lookups and no duplicate accounts.
	emailIndexModel := mongo.IndexModel{
		Keys:    bson.M{"email": 1},
		Options: options.Index().SetUnique(true),
	}
	_, err = usersCollection.Indexes().CreateOne(ctx, emailIndexModel)
	if err != nil {
		return fmt.Errorf("error creating email index: %v", err)
	}

	usernameIndexModel := mongo.IndexModel{
		Keys:    bson.M{"username": 1},
		Options: options.Index().SetUnique(true),
	}
	_, err = usersCollection.Indexes().CreateOne(ctx, usernameIndexModel)
	if err != nil {
		return fmt.Errorf("error creating username index: %v", err)
	}

	logsCollection := m.client.Database(m.dbName).Collection("dailyLogs")

	userDateIndexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "log_date", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	_, err = logsCollection.Indexes().CreateOne(ctx, userDateIndexModel)
	if err != nil {
		return fmt.Errorf("error creating user_id and log_date index: %v", err)
	}

	defsCollection := m.client.Database(m.dbName).Collection("checkboxDefinitions")

	// Checkbox names key the per-log state maps, so they must be unique.
	nameIndexModel := mongo.IndexModel{
		Keys:    bson.M{"name": 1},
		Options: options.Index().SetUnique(true),
	}
	_, err = defsCollection.Indexes().CreateOne(ctx, nameIndexModel)
	if err != nil {
		return fmt.Errorf("error creating checkbox name index: %v", err)
	}

	groupsCollection := m.client.Database(m.dbName).Collection("groups")

	membersIndexModel := mongo.IndexModel{
		Keys:    bson.M{"members": 1},
		Options: options.Index(),
	}
	_, err = groupsCollection.Indexes().CreateOne(ctx, membersIndexModel)
	if err != nil {
		return fmt.Errorf("error creating group members index: %v", err)
	}

	invitationsCollection := m.client.Database(m.dbName).Collection("invitations")

	inviteeIndexModel := mongo.IndexModel{
		Keys:    bson.M{"invitee_email": 1},
		Options: options.Index(),
	}
	_, err = invitationsCollection.Indexes().CreateOne(ctx, inviteeIndexModel)
	if err != nil {
		return fmt.Errorf("error creating invitee_email index: %v", err)
	}

	return nil
}

// Disconnect closes the connection to the MongoDB server.
func (m *MongoStorage) Disconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := m.client.Disconnect(ctx)
	if err != nil {
		return fmt.Errorf("error disconnecting from MongoDB: %v", err)
	}

	return nil
}

// AddUser adds a new user document to the 'users' collection.
func (m *MongoStorage) AddUser(ctx context.Context, user *models.User) (*models.User, error) {
	collection := m.client.Database(m.dbName).Collection("users")
	result, err := collection.InsertOne(ctx, user)
	if err != nil {
		return nil, err
	}

	user.ID = result.InsertedID.(primitive.ObjectID)
	return user, nil
}

// FindUser finds a user document matching the given filter.
func (m *MongoStorage) FindUser(ctx context.Context, filter interface{}) (*models.User, error) {
	collection := m.client.Database(m.dbName).Collection("users")
	result := collection.FindOne(ctx, filter)
	user := &models.User{}
	err := result.Decode(user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser updates a user document matching the given filter and returns
// the updated user.
func (m *MongoStorage) UpdateUser(ctx context.Context, filter interface{}, update interface{}) (*models.User, error) {
	collection := m.client.Database(m.dbName).Collection("users")
	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, errors.New("no user found to update")
	}
	updatedUser, err := m.FindUser(ctx, filter)
	if err != nil {
		return nil, err
	}
	return updatedUser, nil
}

// SetTrackingStartDate sets the date from which a user's logs count toward
// point totals. The stored value is day-truncated.
func (m *MongoStorage) SetTrackingStartDate(ctx context.Context, userID primitive.ObjectID, start time.Time) error {
	collection := m.client.Database(m.dbName).Collection("users")
	update := bson.M{"$set": bson.M{"tracking_start_date": calendar.DayStart(start)}}
	result, err := collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return errors.New("no user found to update")
	}
	return nil
}

// AddCheckboxDefinition adds a new checkbox definition. Duplicate names are
// rejected through the unique index.
func (m *MongoStorage) AddCheckboxDefinition(ctx context.Context, def *models.CheckboxDefinition) (*models.CheckboxDefinition, error) {
	collection := m.client.Database(m.dbName).Collection("checkboxDefinitions")
	result, err := collection.InsertOne(ctx, def)
	if err != nil {
		if writeException, ok := err.(mongo.WriteException); ok {
			for _, writeError := range writeException.WriteErrors {
				if writeError.Code == 11000 {
					return nil, fmt.Errorf("a checkbox named '%s' already exists", def.Name)
				}
			}
		}
		return nil, err
	}

	def.ID = result.InsertedID.(primitive.ObjectID)
	return def, nil
}

// FindActiveCheckboxDefinitions returns the active definitions sorted by
// display order. These are the only definitions the scoring engine ever sees.
func (m *MongoStorage) FindActiveCheckboxDefinitions(ctx context.Context) ([]models.CheckboxDefinition, error) {
	collection := m.client.Database(m.dbName).Collection("checkboxDefinitions")
	opts := options.Find().SetSort(bson.D{{Key: "display_order", Value: 1}})
	cursor, err := collection.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var defs []models.CheckboxDefinition
	for cursor.Next(ctx) {
		var def models.CheckboxDefinition
		if err := cursor.Decode(&def); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, cursor.Err()
}

// FindCheckboxDefinition finds a single definition matching the given filter.
func (m *MongoStorage) FindCheckboxDefinition(ctx context.Context, filter interface{}) (*models.CheckboxDefinition, error) {
	collection := m.client.Database(m.dbName).Collection("checkboxDefinitions")
	def := &models.CheckboxDefinition{}
	if err := collection.FindOne(ctx, filter).Decode(def); err != nil {
		return nil, err
	}
	return def, nil
}

// UpdateCheckboxDefinition applies a partial $set update to a definition.
// Edits take effect on the next recompute of any total; past logs are not
// re-scored under the old values.
func (m *MongoStorage) UpdateCheckboxDefinition(ctx context.Context, id primitive.ObjectID, update interface{}) (*UpdateResult, error) {
	collection := m.client.Database(m.dbName).Collection("checkboxDefinitions")
	result, err := collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, errors.New("checkbox definition does not exist")
	}
	return &UpdateResult{MatchedCount: result.MatchedCount, ModifiedCount: result.ModifiedCount}, nil
}

// DeactivateCheckboxDefinition flags a definition inactive instead of
// deleting it, preserving the meaning of historical logs that reference it.
func (m *MongoStorage) DeactivateCheckboxDefinition(ctx context.Context, id primitive.ObjectID) (*UpdateResult, error) {
	return m.UpdateCheckboxDefinition(ctx, id, bson.M{"$set": bson.M{"is_active": false}})
}

// UpsertDailyLog inserts or replaces the single log for (user, date). The
// date key is day-truncated before writing so time of day can never split
// one calendar day into two documents.
func (m *MongoStorage) UpsertDailyLog(ctx context.Context, log *models.DailyLog) error {
	collection := m.client.Database(m.dbName).Collection("dailyLogs")

	logDate := calendar.DayStart(log.LogDate)
	filter := bson.M{"user_id": log.UserID, "log_date": logDate}
	update := bson.M{"$set": bson.M{
		"checkbox_states": log.CheckboxStates,
		"is_completed":    log.IsCompleted,
		"updated_at":      time.Now(),
	}}

	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// FindDailyLog finds the log for one user and calendar day. A missing log is
// returned as (nil, nil): an unlogged day is a normal state, not an error.
func (m *MongoStorage) FindDailyLog(ctx context.Context, userID primitive.ObjectID, date time.Time) (*models.DailyLog, error) {
	collection := m.client.Database(m.dbName).Collection("dailyLogs")
	filter := bson.M{"user_id": userID, "log_date": calendar.DayStart(date)}

	log := &models.DailyLog{}
	err := collection.FindOne(ctx, filter).Decode(log)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return log, nil
}

// FindDailyLogs returns a user's logs sorted ascending by date. When from is
// given, only logs on or after that calendar day are returned.
func (m *MongoStorage) FindDailyLogs(ctx context.Context, userID primitive.ObjectID, from *time.Time) ([]models.DailyLog, error) {
	collection := m.client.Database(m.dbName).Collection("dailyLogs")

	filter := bson.M{"user_id": userID}
	if from != nil {
		filter["log_date"] = bson.M{"$gte": calendar.DayStart(*from)}
	}

	opts := options.Find().SetSort(bson.D{{Key: "log_date", Value: 1}})
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []models.DailyLog
	for cursor.Next(ctx) {
		var log models.DailyLog
		if err := cursor.Decode(&log); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, cursor.Err()
}

// AddGroup adds a new group document to the 'groups' collection.
func (m *MongoStorage) AddGroup(ctx context.Context, group *models.Group) (*models.Group, error) {
	collection := m.client.Database(m.dbName).Collection("groups")
	result, err := collection.InsertOne(ctx, group)
	if err != nil {
		return nil, err
	}

	group.ID = result.InsertedID.(primitive.ObjectID)
	return group, nil
}

// FindGroup finds a group document matching the given filter.
func (m *MongoStorage) FindGroup(ctx context.Context, filter interface{}) (*models.Group, error) {
	collection := m.client.Database(m.dbName).Collection("groups")
	group := &models.Group{}
	if err := collection.FindOne(ctx, filter).Decode(group); err != nil {
		return nil, err
	}
	return group, nil
}

// AddGroupMember adds a user to a group's member list and mirrors the group
// onto the user's group list.
func (m *MongoStorage) AddGroupMember(ctx context.Context, groupID, userID primitive.ObjectID) error {
	groups := m.client.Database(m.dbName).Collection("groups")
	result, err := groups.UpdateOne(ctx,
		bson.M{"_id": groupID},
		bson.M{"$addToSet": bson.M{"members": userID}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return errors.New("group not found")
	}

	users := m.client.Database(m.dbName).Collection("users")
	_, err = users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"group_ids": groupID}},
	)
	return err
}

// ShareGroup reports whether both users belong to the given group.
func (m *MongoStorage) ShareGroup(ctx context.Context, groupID, userA, userB primitive.ObjectID) (bool, error) {
	collection := m.client.Database(m.dbName).Collection("groups")
	filter := bson.M{
		"_id":     groupID,
		"members": bson.M{"$all": []primitive.ObjectID{userA, userB}},
	}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddInvitation adds a new invitation document.
func (m *MongoStorage) AddInvitation(ctx context.Context, inv *models.Invitation) (*models.Invitation, error) {
	collection := m.client.Database(m.dbName).Collection("invitations")
	result, err := collection.InsertOne(ctx, inv)
	if err != nil {
		return nil, err
	}

	inv.ID = result.InsertedID.(primitive.ObjectID)
	return inv, nil
}

// FindInvitation finds an invitation document matching the given filter.
func (m *MongoStorage) FindInvitation(ctx context.Context, filter interface{}) (*models.Invitation, error) {
	collection := m.client.Database(m.dbName).Collection("invitations")
	inv := &models.Invitation{}
	if err := collection.FindOne(ctx, filter).Decode(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// UpdateInvitationStatus moves an invitation to a new status.
func (m *MongoStorage) UpdateInvitationStatus(ctx context.Context, id primitive.ObjectID, status string) (*UpdateResult, error) {
	collection := m.client.Database(m.dbName).Collection("invitations")
	result, err := collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, errors.New("invitation not found")
	}
	return &UpdateResult{MatchedCount: result.MatchedCount, ModifiedCount: result.ModifiedCount}, nil
}
