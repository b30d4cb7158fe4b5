package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	cache "github.com/leandrocarocca/habit-circle-demo/backend/storage/cache"
	storage "github.com/leandrocarocca/habit-circle-demo/backend/storage/persistent"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LeaderboardEntry is one member's standing inside a group.
type LeaderboardEntry struct {
	UserID       primitive.ObjectID `json:"user_id"`
	Username     string             `json:"username"`
	TotalPoints  int                `json:"total_points"`
	DailyPoints  int                `json:"daily_points"`
	WeeklyPoints int                `json:"weekly_points"`
	Rank         int                `json:"rank"`
}

// Service computes statistics from storage snapshots and keeps a short-lived
// cache of the results. Each computation takes its own immutable snapshot, so
// concurrent calls need no locking.
type Service struct {
	store storage.StorageInterface
	cache cache.CacheInterface
}

// NewService builds a stats service over an already-connected store and cache.
func NewService(store storage.StorageInterface, c cache.CacheInterface) *Service {
	return &Service{store: store, cache: c}
}

func statsCacheKey(userID primitive.ObjectID) string {
	return "stats_" + userID.Hex()
}

// UserStats returns the statistics for one user, bounded by the user's own
// tracking start date. Results are served from the cache when present;
// InvalidateUserStats drops the entry whenever a log is written.
func (s *Service) UserStats(ctx context.Context, userID primitive.ObjectID) (*UserStats, error) {
	if cached, err := s.cache.Get(ctx, statsCacheKey(userID)); err == nil {
		if stats := decodeCachedStats(cached); stats != nil {
			return stats, nil
		}
	}

	user, err := s.store.FindUser(ctx, bson.M{"_id": userID})
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}

	stats, err := s.computeForUser(ctx, userID, user.TrackingStartDate)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, statsCacheKey(userID), stats); err != nil {
		// A cold cache only costs a recompute.
		log.Printf("failed to cache stats for %s: %v", userID.Hex(), err)
	}
	return stats, nil
}

// UserStatsWithStart returns one user's statistics bounded by an explicit
// tracking start date, as when viewing a member inside a group whose start
// date overrides the member's own. Bypasses the cache: the cache key is per
// user, not per (user, start).
func (s *Service) UserStatsWithStart(ctx context.Context, userID primitive.ObjectID, trackingStart *time.Time) (*UserStats, error) {
	return s.computeForUser(ctx, userID, trackingStart)
}

// InvalidateUserStats drops the cached snapshot for one user.
func (s *Service) InvalidateUserStats(ctx context.Context, userID primitive.ObjectID) {
	if err := s.cache.Delete(ctx, statsCacheKey(userID)); err != nil {
		log.Printf("failed to invalidate stats for %s: %v", userID.Hex(), err)
	}
}

// MonthCalendar returns the day-by-day summary of one month for a user.
func (s *Service) MonthCalendar(ctx context.Context, userID primitive.ObjectID, year int, month time.Month) ([]DaySummary, error) {
	defs, err := s.store.FindActiveCheckboxDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading checkbox definitions: %w", err)
	}

	logs, err := s.store.FindDailyLogs(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("loading logs: %w", err)
	}

	return ComputeMonthCalendar(logs, defs, year, month), nil
}

// GroupLeaderboard computes every member's stats under the group's tracking
// start date and ranks them by total points. Members are computed
// concurrently; each goroutine works on its own snapshot and the engine is
// read-only over it, so the only shared state is the results slice behind the
// mutex.
func (s *Service) GroupLeaderboard(ctx context.Context, groupID primitive.ObjectID) ([]LeaderboardEntry, error) {
	group, err := s.store.FindGroup(ctx, bson.M{"_id": groupID})
	if err != nil {
		return nil, fmt.Errorf("loading group: %w", err)
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		entries  []LeaderboardEntry
		firstErr error
	)

	for _, memberID := range group.Members {
		wg.Add(1)
		go func(memberID primitive.ObjectID) {
			defer wg.Done()

			user, err := s.store.FindUser(ctx, bson.M{"_id": memberID})
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("loading member %s: %w", memberID.Hex(), err)
				}
				mu.Unlock()
				return
			}

			memberStats, err := s.computeForUser(ctx, memberID, group.TrackingStartDate)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}

			mu.Lock()
			entries = append(entries, LeaderboardEntry{
				UserID:       memberID,
				Username:     user.Username,
				TotalPoints:  memberStats.TotalPoints,
				DailyPoints:  memberStats.DailyPoints,
				WeeklyPoints: memberStats.WeeklyPoints,
			})
			mu.Unlock()
		}(memberID)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		return entries[i].Username < entries[j].Username
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (s *Service) computeForUser(ctx context.Context, userID primitive.ObjectID, trackingStart *time.Time) (*UserStats, error) {
	defs, err := s.store.FindActiveCheckboxDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading checkbox definitions: %w", err)
	}

	logs, err := s.store.FindDailyLogs(ctx, userID, trackingStart)
	if err != nil {
		return nil, fmt.Errorf("loading logs: %w", err)
	}

	return ComputeUserStats(logs, defs, trackingStart, time.Now()), nil
}

// decodeCachedStats turns the cache's generic JSON value back into a typed
// payload. Anything malformed is treated as a miss.
func decodeCachedStats(value interface{}) *UserStats {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	stats := &UserStats{}
	if err := json.Unmarshal(raw, stats); err != nil {
		return nil
	}
	return stats
}
