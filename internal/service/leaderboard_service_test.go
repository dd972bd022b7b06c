package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/EduConnectOfficial/educonnect-api/internal/dto"
	"github.com/EduConnectOfficial/educonnect-api/internal/models"
	appErrors "github.com/EduConnectOfficial/educonnect-api/pkg/errors"
)

type mockPointsBook struct {
	points     map[string]int
	badges     map[string][]string
	lastFilter PointsFilter
}

func (m *mockPointsBook) Points(ctx context.Context, userID string, filter PointsFilter) dto.PointsBreakdown {
	m.lastFilter = filter
	total := m.points[userID]
	return dto.PointsBreakdown{Total: total}
}

func (m *mockPointsBook) Badges(ctx context.Context, userID string) []string {
	return m.badges[userID]
}

type mockCourseSearch struct {
	courses []models.Course
}

func (m *mockCourseSearch) SearchByTitle(ctx context.Context, term string) ([]models.Course, error) {
	return m.courses, nil
}

type mockLeaderboardUsers struct {
	users       map[string]*models.User
	anyRefCalls int
}

func (m *mockLeaderboardUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockLeaderboardUsers) FindByStudentIDs(ctx context.Context, refs []string) ([]models.User, error) {
	want := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		want[ref] = struct{}{}
	}
	var out []models.User
	for _, u := range m.users {
		if _, ok := want[u.StudentID]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockLeaderboardUsers) FindByAnyRef(ctx context.Context, ref string) (*models.User, error) {
	m.anyRefCalls++
	if u, ok := m.users[ref]; ok {
		return u, nil
	}
	for _, u := range m.users {
		if u.StudentID == ref || u.Email == ref {
			return u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func optOut() *bool {
	v := false
	return &v
}

func newLeaderboardFixture(maxEntries int) (*LeaderboardService, *mockPointsBook, *mockLeaderboardUsers) {
	rosters := &mockRosterBook{rosters: map[string][]models.RosterEntry{
		"c1": {
			{ClassID: "c1", StudentID: "S1"},
			{ClassID: "c1", StudentID: "S2"},
			{ClassID: "c1", StudentID: "S3"},
			{ClassID: "c1", StudentID: "S4"},
		},
	}}
	mirrors := &mockMirrorFeed{mirrors: []models.Enrollment{
		{UserID: "u1", ClassID: "c1"},
		{UserID: "u2", ClassID: "c1"},
		{UserID: "u3", ClassID: "c1"},
		{UserID: "u4", ClassID: "c1"},
	}}
	users := &mockLeaderboardUsers{users: map[string]*models.User{
		"u1": {ID: "u1", StudentID: "S1", FirstName: "Ana", LastName: "Reyes"},
		"u2": {ID: "u2", StudentID: "S2", FirstName: "Ben", LastName: "Cruz"},
		"u3": {ID: "u3", StudentID: "S3", FirstName: "Cara", LastName: "Lim"},
		"u4": {ID: "u4", StudentID: "S4", FirstName: "Dan", LastName: "Ong", LeaderboardOptIn: optOut()},
	}}
	courses := &mockCourseSearch{courses: []models.Course{
		{ID: "crs1", Title: "Science 7", AssignedClasses: []string{"c1"}},
	}}
	points := &mockPointsBook{
		points: map[string]int{"u1": 50, "u2": 80, "u3": 30, "u4": 90},
		badges: map[string][]string{"u2": {"Quiz Whiz"}},
	}
	svc := NewLeaderboardService(rosters, mirrors, courses, users, points, nil, maxEntries, nil, nil)
	return svc, points, users
}

func TestLeaderboardRanksByPointsDescending(t *testing.T) {
	svc, _, _ := newLeaderboardFixture(50)

	entries, err := svc.Build(context.Background(), LeaderboardRequest{
		UserID: "u1", Scope: ScopeClass, ClassID: "c1",
	})
	require.NoError(t, err)

	require.Len(t, entries, 3, "the opted-out peer stays hidden")
	assert.Equal(t, "u2", entries[0].UserID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "Quiz Whiz", entries[0].TopBadge)
	assert.Equal(t, "u1", entries[1].UserID)
	assert.True(t, entries[1].IsSelf)
	assert.Equal(t, "u3", entries[2].UserID)
	assert.Equal(t, 3, entries[2].Rank)
}

func TestLeaderboardOptedOutSeesThemself(t *testing.T) {
	svc, _, _ := newLeaderboardFixture(50)

	entries, err := svc.Build(context.Background(), LeaderboardRequest{
		UserID: "u4", Scope: ScopeClass, ClassID: "c1",
	})
	require.NoError(t, err)

	require.Len(t, entries, 4)
	assert.Equal(t, "u4", entries[0].UserID, "own row is visible despite opting out")
	assert.True(t, entries[0].IsSelf)
	assert.Equal(t, 1, entries[0].Rank)
}

func TestLeaderboardCapKeepsSelfBelowCut(t *testing.T) {
	svc, _, _ := newLeaderboardFixture(2)

	entries, err := svc.Build(context.Background(), LeaderboardRequest{
		UserID: "u3", Scope: ScopeClass, ClassID: "c1",
	})
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, "u2", entries[0].UserID)
	assert.Equal(t, "u1", entries[1].UserID)
	assert.Equal(t, "u3", entries[2].UserID, "caller rides along below the cut")
	assert.True(t, entries[2].IsSelf)
	assert.Equal(t, 3, entries[2].Rank, "appended row keeps its true rank")
}

func TestLeaderboardWeekTimeframeBoundsPoints(t *testing.T) {
	svc, points, _ := newLeaderboardFixture(50)

	_, err := svc.Build(context.Background(), LeaderboardRequest{
		UserID: "u1", Scope: ScopeClass, ClassID: "c1", Timeframe: TimeframeWeek,
	})
	require.NoError(t, err)
	assert.Positive(t, points.lastFilter.StartMs, "weekly scope must floor the points window")
}

func TestLeaderboardSubjectScopeFiltersCourses(t *testing.T) {
	svc, points, _ := newLeaderboardFixture(50)

	entries, err := svc.Build(context.Background(), LeaderboardRequest{
		UserID: "u1", Scope: ScopeSubject, Subject: "science",
	})
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, []string{"crs1"}, points.lastFilter.CourseIDs)
}

func TestLeaderboardClassScopeDefaultsToEnrolledClasses(t *testing.T) {
	svc, _, _ := newLeaderboardFixture(50)

	entries, err := svc.Build(context.Background(), LeaderboardRequest{UserID: "u1", Scope: ScopeClass})
	require.NoError(t, err)

	require.Len(t, entries, 3, "peers come from the caller's enrolled classes")
	assert.Equal(t, "u2", entries[0].UserID)
	assert.Equal(t, "u1", entries[1].UserID)
	assert.True(t, entries[1].IsSelf)
	assert.Equal(t, "u3", entries[2].UserID)
}

func TestLeaderboardResolvesRostersInBatches(t *testing.T) {
	svc, _, users := newLeaderboardFixture(50)

	_, err := svc.Build(context.Background(), LeaderboardRequest{UserID: "u1", Scope: ScopeClass, ClassID: "c1"})
	require.NoError(t, err)
	assert.Zero(t, users.anyRefCalls, "sequence-id rosters resolve through the batched membership query")
}

func TestLeaderboardValidatesScopeArguments(t *testing.T) {
	svc, _, _ := newLeaderboardFixture(50)

	_, err := svc.Build(context.Background(), LeaderboardRequest{UserID: "u1", Scope: "school"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Build(context.Background(), LeaderboardRequest{UserID: "u1", Scope: ScopeSubject})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestLeaderboardUnknownRequester(t *testing.T) {
	svc, _, _ := newLeaderboardFixture(50)

	_, err := svc.Build(context.Background(), LeaderboardRequest{UserID: "ghost", Scope: ScopeClass, ClassID: "c1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
