package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Checkbox kinds. A daily checkbox scores independently each calendar day;
// a weekly checkbox scores once per Monday-start week when its threshold is met.
const (
	KindDaily  = "daily"
	KindWeekly = "weekly"
)

// Invitation statuses.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
)

type User struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username          string               `bson:"username" json:"username"`
	PasswordHash      string               `bson:"password_hash" json:"-"`
	Email             string               `bson:"email" json:"email"`
	TrackingStartDate *time.Time           `bson:"tracking_start_date,omitempty" json:"tracking_start_date,omitempty"`
	GroupIDs          []primitive.ObjectID `bson:"group_ids" json:"group_ids"`
}

// Group is a challenge group. When stats are viewed in the context of a group,
// the group's tracking start date overrides each member's own.
type Group struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name              string               `bson:"name" json:"name"`
	Members           []primitive.ObjectID `bson:"members" json:"members"`
	TrackingStartDate *time.Time           `bson:"tracking_start_date,omitempty" json:"tracking_start_date,omitempty"`
}

type Invitation struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID      primitive.ObjectID `bson:"group_id" json:"group_id"`
	InviterID    primitive.ObjectID `bson:"inviter_id" json:"inviter_id"`
	InviteeEmail string             `bson:"invitee_email" json:"invitee_email"`
	Status       string             `bson:"status" json:"status"`
}

// CheckboxDefinition is a named habit rule. Definitions are never hard-deleted,
// only flagged inactive, so historical logs stay interpretable. Edits to
// Points, Kind or WeeklyThreshold change how all past logs are scored on the
// next recompute; there is no per-log snapshot of the definition.
type CheckboxDefinition struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Label           string             `bson:"label" json:"label"`
	Points          int                `bson:"points" json:"points"`
	Kind            string             `bson:"kind" json:"type"`
	WeeklyThreshold int                `bson:"weekly_threshold,omitempty" json:"weekly_threshold,omitempty"`
	DisplayOrder    int                `bson:"display_order" json:"display_order"`
	IsActive        bool               `bson:"is_active" json:"is_active"`
}

// DailyLog is one user's checkbox state for one calendar day. LogDate carries
// no meaningful time of day; all scoring compares it as a pure date. There is
// at most one log per (user, date), enforced by a unique index in storage.
// CheckboxStates may hold stale keys for retired checkboxes (ignored when
// scoring) and may lack keys for checkboxes added later (read as false).
// Only logs with IsCompleted set contribute to any point or streak total.
type DailyLog struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"user_id" json:"user_id"`
	LogDate        time.Time          `bson:"log_date" json:"log_date"`
	CheckboxStates map[string]bool    `bson:"checkbox_states" json:"checkbox_states"`
	IsCompleted    bool               `bson:"is_completed" json:"is_completed"`
}
