package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/EduConnectOfficial/educonnect-api/internal/dto"
	"github.com/EduConnectOfficial/educonnect-api/internal/models"
	appErrors "github.com/EduConnectOfficial/educonnect-api/pkg/errors"
)

// Leaderboard scopes and timeframes.
const (
	ScopeClass   = "class"
	ScopeSubject = "subject"

	TimeframeWeek  = "week"
	TimeframeMonth = "month"
	TimeframeAll   = "all"
)

type pointsProvider interface {
	Points(ctx context.Context, userID string, filter PointsFilter) dto.PointsBreakdown
	Badges(ctx context.Context, userID string) []string
}

type courseSearcher interface {
	SearchByTitle(ctx context.Context, term string) ([]models.Course, error)
}

type leaderboardUserStore interface {
	rosterUserResolver
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// LeaderboardRequest selects the peer group and timeframe for a
// leaderboard build. UserID is the requesting student; they are always
// present in the result regardless of rank. Class scope ranks the
// caller's enrolled classes unless ClassID narrows it to one.
type LeaderboardRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	Scope     string `json:"scope" validate:"required,oneof=class subject"`
	ClassID   string `json:"class_id"`
	Subject   string `json:"subject"`
	Timeframe string `json:"timeframe" validate:"omitempty,oneof=week month all"`
}

// LeaderboardService ranks a student's peers by gamification points
// within a class or subject scope. Opted-out students are hidden from
// everyone but themselves; the requesting student always sees their own
// row even below the cut.
type LeaderboardService struct {
	rosters   rosterReader
	mirrors   mirrorLister
	courses   courseSearcher
	users     leaderboardUserStore
	points    pointsProvider
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time

	maxEntries int
}

// NewLeaderboardService constructs a LeaderboardService.
func NewLeaderboardService(rosters rosterReader, mirrors mirrorLister, courses courseSearcher, users leaderboardUserStore, points pointsProvider, cache *CacheService, maxEntries int, validate *validator.Validate, logger *zap.Logger) *LeaderboardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxEntries <= 0 {
		maxEntries = 50
	}
	return &LeaderboardService{
		rosters:    rosters,
		mirrors:    mirrors,
		courses:    courses,
		users:      users,
		points:     points,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
		maxEntries: maxEntries,
	}
}

// Build assembles the ranked leaderboard for the request.
func (s *LeaderboardService) Build(ctx context.Context, req LeaderboardRequest) ([]dto.LeaderboardEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leaderboard request")
	}
	if req.Timeframe == "" {
		req.Timeframe = TimeframeAll
	}
	if req.Scope == ScopeSubject && req.Subject == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject is required for subject scope")
	}

	self, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	cacheKey := s.cacheKey(req)
	if s.cache.Enabled() {
		var cached []dto.LeaderboardEntry
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	peers, filter, err := s.resolveScope(ctx, req)
	if err != nil {
		return nil, err
	}
	filter.StartMs = timeframeStart(s.now().UTC(), req.Timeframe)

	entries := s.rank(ctx, self, peers, filter)

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, entries, 0)
	}
	return entries, nil
}

// resolveScope collects the peer group and, for subject scope, the
// course filter bounding point totals to that subject's courses.
func (s *LeaderboardService) resolveScope(ctx context.Context, req LeaderboardRequest) ([]*models.User, PointsFilter, error) {
	var filter PointsFilter

	var classIDs []string
	switch req.Scope {
	case ScopeClass:
		if req.ClassID != "" {
			classIDs = []string{req.ClassID}
			break
		}
		mirrors, err := s.mirrors.MirrorsByUser(ctx, req.UserID)
		if err != nil {
			return nil, filter, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
		}
		for _, mirror := range mirrors {
			classIDs = append(classIDs, mirror.ClassID)
		}
	case ScopeSubject:
		courses, err := s.courses.SearchByTitle(ctx, req.Subject)
		if err != nil {
			return nil, filter, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search courses")
		}
		seen := make(map[string]struct{})
		for _, course := range courses {
			filter.CourseIDs = append(filter.CourseIDs, course.ID)
			for _, classID := range course.AssignedClasses {
				if _, ok := seen[classID]; ok {
					continue
				}
				seen[classID] = struct{}{}
				classIDs = append(classIDs, classID)
			}
		}
		if len(filter.CourseIDs) == 0 {
			return nil, filter, nil
		}
	}

	var refs []string
	for _, classID := range classIDs {
		entries, err := s.rosters.Roster(ctx, classID)
		if err != nil {
			return nil, filter, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
		}
		for _, entry := range entries {
			refs = append(refs, rosterRef(entry))
		}
	}

	byRef := resolveRosterRefs(ctx, s.users, refs, func(ref string, err error) {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			s.logger.Warn("leaderboard roster lookup failed", zap.String("ref", ref), zap.Error(err))
		}
	})

	resolved := make(map[string]*models.User, len(byRef))
	for _, user := range byRef {
		resolved[user.ID] = user
	}
	peers := make([]*models.User, 0, len(resolved))
	for _, user := range resolved {
		peers = append(peers, user)
	}
	return peers, filter, nil
}

func (s *LeaderboardService) rank(ctx context.Context, self *models.User, peers []*models.User, filter PointsFilter) []dto.LeaderboardEntry {
	includeSelf := true
	var entries []dto.LeaderboardEntry
	for _, peer := range peers {
		if peer.ID == self.ID {
			includeSelf = false
		} else if !peer.OptedIn() {
			// Hidden from everyone but themselves.
			continue
		}
		entries = append(entries, s.entryFor(ctx, peer, filter, peer.ID == self.ID))
	}
	if includeSelf {
		entries = append(entries, s.entryFor(ctx, self, filter, true))
	}

	sort.Slice(entries, func(a, b int) bool {
		if entries[a].Points != entries[b].Points {
			return entries[a].Points > entries[b].Points
		}
		return entries[a].Name < entries[b].Name
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	if len(entries) <= s.maxEntries {
		return entries
	}
	top := entries[:s.maxEntries]
	for _, entry := range entries[s.maxEntries:] {
		if entry.IsSelf {
			// Keep the caller visible below the cut at their true rank.
			top = append(top, entry)
			break
		}
	}
	return top
}

func (s *LeaderboardService) entryFor(ctx context.Context, user *models.User, filter PointsFilter, isSelf bool) dto.LeaderboardEntry {
	entry := dto.LeaderboardEntry{
		UserID: user.ID,
		Name:   user.FullName(),
		Points: s.points.Points(ctx, user.ID, filter).Total,
		IsSelf: isSelf,
	}
	if badges := s.points.Badges(ctx, user.ID); len(badges) > 0 {
		entry.TopBadge = badges[0]
	}
	return entry
}

func (s *LeaderboardService) cacheKey(req LeaderboardRequest) string {
	ref := req.ClassID
	if ref == "" {
		ref = "enrolled"
	}
	if req.Scope == ScopeSubject {
		ref = strings.ToLower(req.Subject)
	}
	// The requesting user shapes privacy filtering and self-marking,
	// so the key is per caller.
	return strings.Join([]string{"leaderboard", req.Scope, ref, req.Timeframe, req.UserID}, ":")
}

// timeframeStart maps a timeframe label to its rolling window floor in
// unix milliseconds; all-time has no floor.
func timeframeStart(now time.Time, timeframe string) int64 {
	switch timeframe {
	case TimeframeWeek:
		return now.AddDate(0, 0, -7).UnixMilli()
	case TimeframeMonth:
		return now.AddDate(0, -1, 0).UnixMilli()
	default:
		return 0
	}
}
