package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/leandrocarocca/habit-circle-demo/backend/calendar"
	"github.com/leandrocarocca/habit-circle-demo/backend/models"
	"github.com/leandrocarocca/habit-circle-demo/backend/queue"
	"github.com/leandrocarocca/habit-circle-demo/backend/server/auth"
	contextKey "github.com/leandrocarocca/habit-circle-demo/backend/server/context_key"
	"github.com/leandrocarocca/habit-circle-demo/backend/stats"
	storage "github.com/leandrocarocca/habit-circle-demo/backend/storage/persistent"
	"github.com/leandrocarocca/habit-circle-demo/lib/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// API bundles the dependencies the HTTP handlers work against. SummaryQueue
// may be nil, in which case completing a day publishes no summary message.
type API struct {
	Store        storage.StorageInterface
	Stats        *stats.Service
	SummaryQueue *queue.Queue
}

type errorResponse struct {
	Error string `json:"error"`
}

type tokenResponse struct {
	AuthToken    string `json:"auth_token"`
	RefreshToken string `json:"refresh_token"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("failed to encode response:", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// currentUserID extracts the authenticated user's id from the request
// context. requireAuth guarantees the value is present on /api routes.
func currentUserID(r *http.Request) (primitive.ObjectID, error) {
	hex, _ := r.Context().Value(contextKey.UserIDKey).(string)
	return primitive.ObjectIDFromHex(hex)
}

func (a *API) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	authToken, refreshToken, err := auth.SignUp(req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{AuthToken: authToken, RefreshToken: refreshToken})
}

func (a *API) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	authToken, refreshToken, err := auth.SignIn(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AuthToken: authToken, RefreshToken: refreshToken})
}

func (a *API) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID       string `json:"user_id"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	authToken, refreshToken, err := auth.RefreshToken(req.UserID, req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AuthToken: authToken, RefreshToken: refreshToken})
}

// handleGetDailyLog returns the log for one calendar day, today by default.
// An unlogged day is served as an empty, uncompleted log so the client can
// render the day's checkboxes without a special case.
func (a *API) handleGetDailyLog(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid user id in token")
		return
	}

	date := time.Now()
	if s := r.URL.Query().Get("date"); s != "" {
		date, err = utils.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
			return
		}
	}

	logEntry, err := a.Store.FindDailyLog(r.Context(), userID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load log")
		return
	}
	if logEntry == nil {
		logEntry = &models.DailyLog{
			UserID:         userID,
			LogDate:        calendar.DayStart(date),
			CheckboxStates: map[string]bool{},
			IsCompleted:    false,
		}
	}
	writeJSON(w, http.StatusOK, logEntry)
}

// handleUpsertDailyLog writes the single log for (user, date), invalidates
// the user's cached stats and, when the day is marked completed, publishes a
// weekly summary message for the week the day falls in.
func (a *API) handleUpsertDailyLog(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid user id in token")
		return
	}

	var req struct {
		LogDate        string          `json:"log_date"`
		CheckboxStates map[string]bool `json:"checkbox_states"`
		IsCompleted    bool            `json:"is_completed"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	logDate, err := utils.ParseDate(req.LogDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "log_date must be formatted as YYYY-MM-DD")
		return
	}
	if req.CheckboxStates == nil {
		req.CheckboxStates = map[string]bool{}
	}

	logEntry := &models.DailyLog{
		UserID:         userID,
		LogDate:        calendar.DayStart(logDate),
		CheckboxStates: req.CheckboxStates,
		IsCompleted:    req.IsCompleted,
	}
	if err := a.Store.UpsertDailyLog(r.Context(), logEntry); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save log")
		return
	}

	a.Stats.InvalidateUserStats(r.Context(), userID)

	if req.IsCompleted {
		a.publishWeeklySummary(r, userID, logEntry.LogDate)
	}

	writeJSON(w, http.StatusOK, logEntry)
}

// publishWeeklySummary queues a summary mail for the week containing logDate.
// The message id is the (user, week) pair, so completing several days in the
// same week publishes duplicates the consumer drops. Failures are logged and
// never fail the log write.
func (a *API) publishWeeklySummary(r *http.Request, userID primitive.ObjectID, logDate time.Time) {
	if a.SummaryQueue == nil {
		return
	}

	user, err := a.Store.FindUser(r.Context(), bson.M{"_id": userID})
	if err != nil {
		log.Println("failed to load user for weekly summary:", err)
		return
	}

	userStats, err := a.Stats.UserStats(r.Context(), userID)
	if err != nil {
		log.Println("failed to compute stats for weekly summary:", err)
		return
	}

	weekStart, _ := calendar.WeekRange(logDate)
	weekKey := calendar.FormatLocalDate(weekStart)
	msg := &queue.SummaryMessage{
		Id:           userID.Hex() + "_" + weekKey,
		To:           user.Email,
		WeekStart:    weekKey,
		TotalPoints:  userStats.TotalPoints,
		DailyPoints:  userStats.DailyPoints,
		WeeklyPoints: userStats.WeeklyPoints,
	}
	if err := queue.ProcessSummary(msg, a.SummaryQueue); err != nil {
		log.Println("failed to publish weekly summary:", err)
	}
}

func (a *API) handleListCheckboxes(w http.ResponseWriter, r *http.Request) {
	defs, err := a.Store.FindActiveCheckboxDefinitions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load checkbox definitions")
		return
	}
	if defs == nil {
		defs = []models.CheckboxDefinition{}
	}
	writeJSON(w, http.StatusOK, defs)
}

func (a *API) handleCreateCheckbox(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string `json:"name"`
		Label           string `json:"label"`
		Points          int    `json:"points"`
		Kind            string `json:"type"`
		WeeklyThreshold int    `json:"weekly_threshold"`
		DisplayOrder    int    `json:"display_order"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Kind != models.KindDaily && req.Kind != models.KindWeekly {
		writeError(w, http.StatusBadRequest, "type must be 'daily' or 'weekly'")
		return
	}
	if req.Points < 0 {
		writeError(w, http.StatusBadRequest, "points must not be negative")
		return
	}
	if req.Kind == models.KindWeekly && req.WeeklyThreshold <= 0 {
		writeError(w, http.StatusBadRequest, "weekly checkboxes need a positive weekly_threshold")
		return
	}

	def := &models.CheckboxDefinition{
		Name:            req.Name,
		Label:           req.Label,
		Points:          req.Points,
		Kind:            req.Kind,
		WeeklyThreshold: req.WeeklyThreshold,
		DisplayOrder:    req.DisplayOrder,
		IsActive:        true,
	}
	created, err := a.Store.AddCheckboxDefinition(r.Context(), def)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleUpdateCheckbox(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid checkbox id")
		return
	}

	var req struct {
		Label           *string `json:"label"`
		Points          *int    `json:"points"`
		WeeklyThreshold *int    `json:"weekly_threshold"`
		DisplayOrder    *int    `json:"display_order"`
		IsActive        *bool   `json:"is_active"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields := bson.M{}
	if req.Label != nil {
		fields["label"] = *req.Label
	}
	if req.Points != nil {
		if *req.Points < 0 {
			writeError(w, http.StatusBadRequest, "points must not be negative")
			return
		}
		fields["points"] = *req.Points
	}
	if req.WeeklyThreshold != nil {
		if *req.WeeklyThreshold <= 0 {
			writeError(w, http.StatusBadRequest, "weekly_threshold must be positive")
			return
		}
		fields["weekly_threshold"] = *req.WeeklyThreshold
	}
	if req.DisplayOrder != nil {
		fields["display_order"] = *req.DisplayOrder
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if len(fields) == 0 {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	result, err := a.Store.UpdateCheckboxDefinition(r.Context(), id, bson.M{"$set": fields})
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleDeleteCheckbox retires a checkbox. The definition is flagged inactive
// rather than removed so old logs keep their meaning.
func (a *API) handleDeleteCheckbox(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid checkbox id")
		return
	}

	result, err := a.Store.DeactivateCheckboxDefinition(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleStats serves one user's statistics. Without parameters it serves the
// caller's own stats. With user_id and group_id it serves another member of a
// shared group, bounded by the group's tracking start date.
func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid user id in token")
		return
	}

	targetID := userID
	if s := r.URL.Query().Get("user_id"); s != "" {
		targetID, err = primitive.ObjectIDFromHex(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
	}

	groupParam := r.URL.Query().Get("group_id")
	if targetID != userID && groupParam == "" {
		writeError(w, http.StatusForbidden, "viewing another user's stats requires a shared group_id")
		return
	}

	if groupParam == "" {
		userStats, err := a.Stats.UserStats(r.Context(), targetID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to compute stats")
			return
		}
		writeJSON(w, http.StatusOK, userStats)
		return
	}

	groupID, err := primitive.ObjectIDFromHex(groupParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group_id")
		return
	}
	if targetID != userID {
		shared, err := a.Store.ShareGroup(r.Context(), groupID, userID, targetID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check group membership")
			return
		}
		if !shared {
			writeError(w, http.StatusForbidden, "you do not share this group with that user")
			return
		}
	}

	group, err := a.Store.FindGroup(r.Context(), bson.M{"_id": groupID})
	if err != nil {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}

	userStats, err := a.Stats.UserStatsWithStart(r.Context(), targetID, group.TrackingStartDate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, userStats)
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid user id in token")
		return
	}

	groupID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("group_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group_id")
		return
	}

	group, err := a.Store.FindGroup(r.Context(), bson.M{"_id": groupID})
	if err != nil {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	if !containsID(group.Members, userID) {
		writeError(w, http.StatusForbidden, "you are not a member of this group")
		return
	}

	entries, err := a.Stats.GroupLeaderboard(r.Context(), groupID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *API) handleCalendar(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid user id in token")
		return
	}

	now := time.Now()
	year, month := now.Year(), now.Month()
	if s := r.URL.Query().Get("year"); s != "" {
		year, err = strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
	}
	if s := r.URL.Query().Get("month"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m < 1 || m > 12 {
			writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
			return
		}
		month = time.Month(m)
	}

	days, err := a.Stats.MonthCalendar(r.Context(), userID, year, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build calendar")
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (a *API) handleSetTrackingStart(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid user id in token")
		return
	}

	var req struct {
		TrackingStartDate string `json:"tracking_start_date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start, err := utils.ParseDate(req.TrackingStartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "tracking_start_date must be formatted as YYYY-MM-DD")
		return
	}

	if err := a.Store.SetTrackingStartDate(r.Context(), userID, calendar.DayStart(start)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to set tracking start date")
		return
	}
	a.Stats.InvalidateUserStats(r.Context(), userID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid user id in token")
		return
	}

	var req struct {
		Name              string `json:"name"`
		TrackingStartDate string `json:"tracking_start_date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	group := &models.Group{Name: req.Name, Members: []primitive.ObjectID{}}
	if req.TrackingStartDate != "" {
		start, err := utils.ParseDate(req.TrackingStartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "tracking_start_date must be formatted as YYYY-MM-DD")
			return
		}
		dayStart := calendar.DayStart(start)
		group.TrackingStartDate = &dayStart
	}

	created, err := a.Store.AddGroup(r.Context(), group)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create group")
		return
	}
	if err := a.Store.AddGroupMember(r.Context(), created.ID, userID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to join created group")
		return
	}
	created.Members = append(created.Members, userID)
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleListGroups(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid user id in token")
		return
	}

	user, err := a.Store.FindUser(r.Context(), bson.M{"_id": userID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	groups := []models.Group{}
	for _, groupID := range user.GroupIDs {
		group, err := a.Store.FindGroup(r.Context(), bson.M{"_id": groupID})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load group")
			return
		}
		groups = append(groups, *group)
	}
	writeJSON(w, http.StatusOK, groups)
}

func (a *API) handleCreateInvitation(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid user id in token")
		return
	}

	var req struct {
		GroupID      string `json:"group_id"`
		InviteeEmail string `json:"invitee_email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	groupID, err := primitive.ObjectIDFromHex(req.GroupID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group_id")
		return
	}
	if !utils.ValidateEmail(req.InviteeEmail) {
		writeError(w, http.StatusBadRequest, "invalid invitee_email")
		return
	}

	group, err := a.Store.FindGroup(r.Context(), bson.M{"_id": groupID})
	if err != nil {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	if !containsID(group.Members, userID) {
		writeError(w, http.StatusForbidden, "only group members can invite")
		return
	}

	inv := &models.Invitation{
		GroupID:      groupID,
		InviterID:    userID,
		InviteeEmail: req.InviteeEmail,
		Status:       models.InvitationPending,
	}
	created, err := a.Store.AddInvitation(r.Context(), inv)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create invitation")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleRespondInvitation accepts or declines a pending invitation. Only the
// invited user, matched by email, may respond; accepting joins the group.
func (a *API) handleRespondInvitation(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid user id in token")
		return
	}

	invID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invitation id")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != models.InvitationAccepted && req.Status != models.InvitationDeclined {
		writeError(w, http.StatusBadRequest, "status must be 'accepted' or 'declined'")
		return
	}

	inv, err := a.Store.FindInvitation(r.Context(), bson.M{"_id": invID})
	if err != nil {
		writeError(w, http.StatusNotFound, "invitation not found")
		return
	}
	if inv.Status != models.InvitationPending {
		writeError(w, http.StatusConflict, "invitation has already been answered")
		return
	}

	user, err := a.Store.FindUser(r.Context(), bson.M{"_id": userID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if user.Email != inv.InviteeEmail {
		writeError(w, http.StatusForbidden, "this invitation was not addressed to you")
		return
	}

	if _, err := a.Store.UpdateInvitationStatus(r.Context(), invID, req.Status); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update invitation")
		return
	}
	if req.Status == models.InvitationAccepted {
		if err := a.Store.AddGroupMember(r.Context(), inv.GroupID, userID); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to join group")
			return
		}
	}

	inv.Status = req.Status
	writeJSON(w, http.StatusOK, inv)
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
