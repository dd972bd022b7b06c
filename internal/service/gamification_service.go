package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/EduConnectOfficial/educonnect-api/internal/dto"
	"github.com/EduConnectOfficial/educonnect-api/internal/models"
	appErrors "github.com/EduConnectOfficial/educonnect-api/pkg/errors"
)

type completionLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.CompletedModule, error)
}

type attemptHistoryReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.Attempt, error)
	SummariesByUser(ctx context.Context, userID string) ([]models.QuizAttemptSummary, error)
}

type submissionLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.Submission, error)
}

type quizMetaReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Quiz, error)
}

type assignmentMetaReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Assignment, error)
}

type mirrorLister interface {
	MirrorsByUser(ctx context.Context, userID string) ([]models.Enrollment, error)
}

type assignedCourseLister interface {
	FindAssignedToClasses(ctx context.Context, classIDs []string) ([]models.Course, error)
}

type courseModuleLister interface {
	ListByCourses(ctx context.Context, courseIDs []string) ([]models.Module, error)
}

type rewardsUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// PointsFilter bounds a points computation. A zero StartMs means
// all-time; an empty CourseIDs set means every course counts.
type PointsFilter struct {
	StartMs   int64
	CourseIDs []string
}

func (f PointsFilter) start() time.Time {
	if f.StartMs <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(f.StartMs).UTC()
}

func (f PointsFilter) courseSet() map[string]struct{} {
	if len(f.CourseIDs) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(f.CourseIDs))
	for _, id := range f.CourseIDs {
		set[id] = struct{}{}
	}
	return set
}

func (f PointsFilter) within(t time.Time) bool {
	start := f.start()
	return start.IsZero() || !t.Before(start)
}

func courseMatches(set map[string]struct{}, courseID string) bool {
	if set == nil {
		return true
	}
	_, ok := set[courseID]
	return ok
}

// Badge thresholds.
const (
	quizWhizPercent     = 90
	onTimeAchieverCount = 3
	moduleMasterRatio   = 0.8
	moduleMasterCount   = 10
)

// GamificationServiceParams groups constructor dependencies.
type GamificationServiceParams struct {
	Completions completionLister
	Attempts    attemptHistoryReader
	Submissions submissionLister
	Quizzes     quizMetaReader
	Assignments assignmentMetaReader
	Mirrors     mirrorLister
	Courses     assignedCourseLister
	Modules     courseModuleLister
	Users       rewardsUserReader
	Metrics     *MetricsService
	Logger      *zap.Logger

	PointsPerModule       int
	PointsPerOnTimeSubmit int
}

// GamificationService derives points, activity streaks and badges from
// a student's completion, attempt and submission history. Every
// sub-computation degrades to zero on failure rather than failing the
// aggregate; each degradation is logged and counted so operators can
// see partial results for what they are.
type GamificationService struct {
	completions completionLister
	attempts    attemptHistoryReader
	submissions submissionLister
	quizzes     quizMetaReader
	assignments assignmentMetaReader
	mirrors     mirrorLister
	courses     assignedCourseLister
	modules     courseModuleLister
	users       rewardsUserReader
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time

	pointsPerModule       int
	pointsPerOnTimeSubmit int
}

// NewGamificationService constructs a GamificationService.
func NewGamificationService(params GamificationServiceParams) *GamificationService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	perModule := params.PointsPerModule
	if perModule <= 0 {
		perModule = 10
	}
	perSubmit := params.PointsPerOnTimeSubmit
	if perSubmit <= 0 {
		perSubmit = 20
	}
	return &GamificationService{
		completions:           params.Completions,
		attempts:              params.Attempts,
		submissions:           params.Submissions,
		quizzes:               params.Quizzes,
		assignments:           params.Assignments,
		mirrors:               params.Mirrors,
		courses:               params.Courses,
		modules:               params.Modules,
		users:                 params.Users,
		metrics:               params.Metrics,
		logger:                logger,
		now:                   time.Now,
		pointsPerModule:       perModule,
		pointsPerOnTimeSubmit: perSubmit,
	}
}

// Points sums module, quiz and on-time submission points for a user,
// optionally bounded by a timeframe floor and a course filter.
func (s *GamificationService) Points(ctx context.Context, userID string, filter PointsFilter) dto.PointsBreakdown {
	breakdown := dto.PointsBreakdown{}
	breakdown.Modules = s.modulePoints(ctx, userID, filter)
	breakdown.Quizzes = s.quizPoints(ctx, userID, filter)
	breakdown.Assignments = s.assignmentPoints(ctx, userID, filter)
	breakdown.Total = breakdown.Modules + breakdown.Quizzes + breakdown.Assignments
	return breakdown
}

// Streak counts consecutive UTC calendar days with at least one
// completion, attempt or submission, ending today. A day without
// activity today means the streak is 0 no matter what came before.
func (s *GamificationService) Streak(ctx context.Context, userID string) int {
	days := make(map[string]struct{})
	addDay := func(t time.Time) {
		days[t.UTC().Format("2006-01-02")] = struct{}{}
	}

	if completions, err := s.completions.ListByUser(ctx, userID); err != nil {
		s.degrade("streak_completions", userID, err)
	} else {
		for _, c := range completions {
			addDay(c.CompletedAt)
		}
	}
	if attempts, err := s.attempts.ListByUser(ctx, userID); err != nil {
		s.degrade("streak_attempts", userID, err)
	} else {
		for _, a := range attempts {
			addDay(a.SubmittedAt)
		}
	}
	if submissions, err := s.submissions.ListByUser(ctx, userID); err != nil {
		s.degrade("streak_submissions", userID, err)
	} else {
		for _, sub := range submissions {
			addDay(sub.SubmittedAt)
		}
	}

	streak := 0
	day := s.now().UTC()
	for {
		if _, ok := days[day.Format("2006-01-02")]; !ok {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// Badges evaluates the user's earned badges in display order.
func (s *GamificationService) Badges(ctx context.Context, userID string) []string {
	var badges []string
	if s.hasQuizWhiz(ctx, userID) {
		badges = append(badges, dto.BadgeQuizWhiz)
	}
	if s.hasOnTimeAchiever(ctx, userID) {
		badges = append(badges, dto.BadgeOnTimeAchiever)
	}
	if s.hasModuleMaster(ctx, userID) {
		badges = append(badges, dto.BadgeModuleMaster)
	}
	return badges
}

// Rewards composes the student rewards panel. The user lookup is the
// one failure that propagates; everything derived degrades gracefully.
func (s *GamificationService) Rewards(ctx context.Context, userID string) (*dto.RewardsSummary, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	points := s.Points(ctx, userID, PointsFilter{})
	return &dto.RewardsSummary{
		TotalPoints:  points.Total,
		StreakDays:   s.Streak(ctx, userID),
		RecentBadges: s.Badges(ctx, userID),
		OptIn:        user.OptedIn(),
	}, nil
}

func (s *GamificationService) modulePoints(ctx context.Context, userID string, filter PointsFilter) int {
	completions, err := s.completions.ListByUser(ctx, userID)
	if err != nil {
		s.degrade("points_modules", userID, err)
		return 0
	}
	courses := filter.courseSet()
	points := 0
	for _, c := range completions {
		if !filter.within(c.CompletedAt) {
			continue
		}
		if !courseMatches(courses, c.CourseID) {
			continue
		}
		points += s.pointsPerModule
	}
	return points
}

// quizPoints awards the best percent achieved per quiz among attempts
// inside the timeframe. The window applies before taking the best, so a
// 95% scored last month does not count toward this week's total.
func (s *GamificationService) quizPoints(ctx context.Context, userID string, filter PointsFilter) int {
	attempts, err := s.attempts.ListByUser(ctx, userID)
	if err != nil {
		s.degrade("points_quizzes", userID, err)
		return 0
	}

	bestByQuiz := make(map[string]int)
	for _, a := range attempts {
		if !filter.within(a.SubmittedAt) {
			continue
		}
		if a.Percent > bestByQuiz[a.QuizID] {
			bestByQuiz[a.QuizID] = a.Percent
		}
	}
	if len(bestByQuiz) == 0 {
		return 0
	}

	courses := filter.courseSet()
	if courses != nil {
		quizIDs := make([]string, 0, len(bestByQuiz))
		for id := range bestByQuiz {
			quizIDs = append(quizIDs, id)
		}
		quizzes, err := s.quizzes.FindByIDs(ctx, quizIDs)
		if err != nil {
			s.degrade("points_quiz_meta", userID, err)
			return 0
		}
		allowed := make(map[string]struct{}, len(quizzes))
		for _, q := range quizzes {
			if courseMatches(courses, q.CourseID) {
				allowed[q.ID] = struct{}{}
			}
		}
		for id := range bestByQuiz {
			if _, ok := allowed[id]; !ok {
				delete(bestByQuiz, id)
			}
		}
	}

	points := 0
	for _, best := range bestByQuiz {
		points += best
	}
	return points
}

func (s *GamificationService) assignmentPoints(ctx context.Context, userID string, filter PointsFilter) int {
	submissions, err := s.submissions.ListByUser(ctx, userID)
	if err != nil {
		s.degrade("points_assignments", userID, err)
		return 0
	}

	inWindow := submissions[:0:0]
	assignmentIDs := make([]string, 0, len(submissions))
	for _, sub := range submissions {
		if !filter.within(sub.SubmittedAt) {
			continue
		}
		inWindow = append(inWindow, sub)
		assignmentIDs = append(assignmentIDs, sub.AssignmentID)
	}
	if len(inWindow) == 0 {
		return 0
	}

	assignments, err := s.assignments.FindByIDs(ctx, assignmentIDs)
	if err != nil {
		s.degrade("points_assignment_meta", userID, err)
		return 0
	}
	byID := make(map[string]models.Assignment, len(assignments))
	for _, a := range assignments {
		byID[a.ID] = a
	}

	courses := filter.courseSet()
	points := 0
	for _, sub := range inWindow {
		assignment, ok := byID[sub.AssignmentID]
		if !ok {
			continue
		}
		if !courseMatches(courses, assignment.CourseID) {
			continue
		}
		if sub.OnTime(assignment.DueAt) {
			points += s.pointsPerOnTimeSubmit
		}
	}
	return points
}

func (s *GamificationService) hasQuizWhiz(ctx context.Context, userID string) bool {
	summaries, err := s.attempts.SummariesByUser(ctx, userID)
	if err != nil {
		s.degrade("badge_quiz_whiz", userID, err)
		return false
	}
	for _, sum := range summaries {
		if sum.BestPercent >= quizWhizPercent {
			return true
		}
	}
	return false
}

func (s *GamificationService) hasOnTimeAchiever(ctx context.Context, userID string) bool {
	submissions, err := s.submissions.ListByUser(ctx, userID)
	if err != nil {
		s.degrade("badge_on_time", userID, err)
		return false
	}
	if len(submissions) < onTimeAchieverCount {
		return false
	}

	assignmentIDs := make([]string, 0, len(submissions))
	for _, sub := range submissions {
		assignmentIDs = append(assignmentIDs, sub.AssignmentID)
	}
	assignments, err := s.assignments.FindByIDs(ctx, assignmentIDs)
	if err != nil {
		s.degrade("badge_on_time_meta", userID, err)
		return false
	}
	dueByID := make(map[string]*time.Time, len(assignments))
	for _, a := range assignments {
		dueByID[a.ID] = a.DueAt
	}

	count := 0
	for _, sub := range submissions {
		if sub.OnTime(dueByID[sub.AssignmentID]) {
			count++
			if count >= onTimeAchieverCount {
				return true
			}
		}
	}
	return false
}

func (s *GamificationService) hasModuleMaster(ctx context.Context, userID string) bool {
	completions, err := s.completions.ListByUser(ctx, userID)
	if err != nil {
		s.degrade("badge_module_master", userID, err)
		return false
	}
	if len(completions) >= moduleMasterCount {
		return true
	}

	mirrors, err := s.mirrors.MirrorsByUser(ctx, userID)
	if err != nil {
		s.degrade("badge_module_master_classes", userID, err)
		return false
	}
	classIDs := make([]string, 0, len(mirrors))
	for _, m := range mirrors {
		classIDs = append(classIDs, m.ClassID)
	}
	if len(classIDs) == 0 {
		return false
	}

	courses, err := s.courses.FindAssignedToClasses(ctx, classIDs)
	if err != nil {
		s.degrade("badge_module_master_courses", userID, err)
		return false
	}
	courseIDs := make([]string, 0, len(courses))
	for _, c := range courses {
		courseIDs = append(courseIDs, c.ID)
	}
	if len(courseIDs) == 0 {
		return false
	}

	modules, err := s.modules.ListByCourses(ctx, courseIDs)
	if err != nil {
		s.degrade("badge_module_master_modules", userID, err)
		return false
	}
	if len(modules) == 0 {
		return false
	}

	courseSet := make(map[string]struct{}, len(courseIDs))
	for _, id := range courseIDs {
		courseSet[id] = struct{}{}
	}
	completed := 0
	for _, c := range completions {
		if _, ok := courseSet[c.CourseID]; ok {
			completed++
		}
	}
	return float64(completed)/float64(len(modules)) >= moduleMasterRatio
}

func (s *GamificationService) degrade(component, userID string, err error) {
	s.logger.Warn("gamification sub-query degraded",
		zap.String("component", component),
		zap.String("user_id", userID),
		zap.Error(err),
	)
	if s.metrics != nil {
		s.metrics.RecordDegradedSubquery("gamification_" + component)
	}
}
