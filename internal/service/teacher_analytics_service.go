package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/EduConnectOfficial/educonnect-api/internal/dto"
	"github.com/EduConnectOfficial/educonnect-api/internal/models"
	appErrors "github.com/EduConnectOfficial/educonnect-api/pkg/errors"
	"github.com/EduConnectOfficial/educonnect-api/pkg/export"
)

type analyticsClassStore interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindByTeacher(ctx context.Context, teacherID string) ([]models.Class, error)
}

type analyticsCourseStore interface {
	FindAssignedToClasses(ctx context.Context, classIDs []string) ([]models.Course, error)
}

type analyticsQuizLister interface {
	ListByCourses(ctx context.Context, courseIDs []string) ([]models.Quiz, error)
}

type rosterReader interface {
	Roster(ctx context.Context, classID string) ([]models.RosterEntry, error)
}

type rosterUserResolver interface {
	FindByStudentIDs(ctx context.Context, refs []string) ([]models.User, error)
	FindByAnyRef(ctx context.Context, ref string) (*models.User, error)
}

// rosterRef picks the identifier a roster entry carries for its student.
func rosterRef(entry models.RosterEntry) string {
	if entry.StudentID != "" {
		return entry.StudentID
	}
	return entry.Email
}

// resolveRosterRefs maps roster identifiers to user documents. The bulk
// of a roster references students by sequence id, so one batched
// membership query covers most refs; only the leftovers fall back to
// per-ref resolution. miss is invoked for refs that resolve to nothing.
func resolveRosterRefs(ctx context.Context, users rosterUserResolver, refs []string, miss func(ref string, err error)) map[string]*models.User {
	out := make(map[string]*models.User, len(refs))
	if found, err := users.FindByStudentIDs(ctx, refs); err == nil {
		for i := range found {
			out[found[i].StudentID] = &found[i]
		}
	}
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if _, ok := out[ref]; ok {
			continue
		}
		user, err := users.FindByAnyRef(ctx, ref)
		if err != nil {
			miss(ref, err)
			continue
		}
		out[ref] = user
	}
	return out
}

// TeacherAnalyticsParams groups constructor dependencies.
type TeacherAnalyticsParams struct {
	Classes     analyticsClassStore
	Courses     analyticsCourseStore
	Modules     courseModuleLister
	Quizzes     analyticsQuizLister
	Rosters     rosterReader
	Users       rosterUserResolver
	Completions completionLister
	Attempts    attemptHistoryReader
	Cache       *CacheService
	Metrics     *MetricsService
	Logger      *zap.Logger

	TimeOnTaskQuizCap int
	AtRiskScore       float64
	AtRiskCompletion  float64
	FanOutConcurrency int
}

// TeacherAnalyticsService assembles the teacher dashboard: headline
// counts, grade distribution, per-class completion rates and a
// per-student table. The fan-out over classes and students runs with
// bounded parallelism; per-student sub-queries degrade to zero rather
// than failing the dashboard.
type TeacherAnalyticsService struct {
	classes     analyticsClassStore
	courses     analyticsCourseStore
	modules     courseModuleLister
	quizzes     analyticsQuizLister
	rosters     rosterReader
	users       rosterUserResolver
	completions completionLister
	attempts    attemptHistoryReader
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger

	timeOnTaskQuizCap int
	atRiskScore       float64
	atRiskCompletion  float64
	concurrency       int

	csv *export.CSVExporter
	pdf *export.PDFExporter
}

// NewTeacherAnalyticsService constructs a TeacherAnalyticsService.
func NewTeacherAnalyticsService(params TeacherAnalyticsParams) *TeacherAnalyticsService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	quizCap := params.TimeOnTaskQuizCap
	if quizCap <= 0 {
		quizCap = 12
	}
	score := params.AtRiskScore
	if score <= 0 {
		score = 75
	}
	completion := params.AtRiskCompletion
	if completion <= 0 {
		completion = 50
	}
	concurrency := params.FanOutConcurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	return &TeacherAnalyticsService{
		classes:           params.Classes,
		courses:           params.Courses,
		modules:           params.Modules,
		quizzes:           params.Quizzes,
		rosters:           params.Rosters,
		users:             params.Users,
		completions:       params.Completions,
		attempts:          params.Attempts,
		cache:             params.Cache,
		metrics:           params.Metrics,
		logger:            logger,
		timeOnTaskQuizCap: quizCap,
		atRiskScore:       score,
		atRiskCompletion:  completion,
		concurrency:       concurrency,
		csv:               export.NewCSVExporter(),
		pdf:               export.NewPDFExporter(),
	}
}

// classScope carries the per-class content totals used to score each
// roster member.
type classScope struct {
	class     models.Class
	courseIDs map[string]struct{}
	modules   int
	quizzes   map[string]struct{}
}

// BuildAnalytics computes the dashboard for a teacher, optionally
// narrowed to one class. Results are cached per (teacher, class).
func (s *TeacherAnalyticsService) BuildAnalytics(ctx context.Context, teacherID, classID string) (*dto.TeacherAnalytics, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher_id is required")
	}

	cacheKey := analyticsCacheKey(teacherID, classID)
	if s.cache.Enabled() {
		var cached dto.TeacherAnalytics
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	classes, err := s.scopedClasses(ctx, teacherID, classID)
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		empty := &dto.TeacherAnalytics{
			Charts: dto.AnalyticsCharts{GradeDistribution: emptyGradeBuckets()},
		}
		return empty, nil
	}

	classIDs := make([]string, 0, len(classes))
	for _, c := range classes {
		classIDs = append(classIDs, c.ID)
	}

	courses, err := s.courses.FindAssignedToClasses(ctx, classIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}

	scopes, courseIDs := buildClassScopes(classes, courses)

	var (
		modules []models.Module
		quizzes []models.Quiz
		rosters = make([][]models.RosterEntry, len(classes))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	g.Go(func() error {
		var err error
		modules, err = s.modules.ListByCourses(gctx, courseIDs)
		if err != nil {
			return fmt.Errorf("list modules: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		quizzes, err = s.quizzes.ListByCourses(gctx, courseIDs)
		if err != nil {
			return fmt.Errorf("list quizzes: %w", err)
		}
		return nil
	})
	for i, class := range classes {
		i, class := i, class
		g.Go(func() error {
			entries, err := s.rosters.Roster(gctx, class.ID)
			if err != nil {
				return fmt.Errorf("roster %s: %w", class.ID, err)
			}
			rosters[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load analytics inputs")
	}

	fillScopeContent(scopes, modules, quizzes)

	students := s.buildStudentRows(ctx, classes, rosters, scopes)

	analytics := s.assemble(classes, courses, scopes, students)

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, analytics, 0)
	}
	return analytics, nil
}

// ExportCSV renders the dashboard's student table as CSV.
func (s *TeacherAnalyticsService) ExportCSV(ctx context.Context, teacherID, classID string) ([]byte, error) {
	analytics, err := s.BuildAnalytics(ctx, teacherID, classID)
	if err != nil {
		return nil, err
	}
	data, err := s.csv.Render(studentDataset(analytics.Students))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, nil
}

// ExportPDF renders the dashboard's student table as a paginated PDF.
func (s *TeacherAnalyticsService) ExportPDF(ctx context.Context, teacherID, classID string) ([]byte, error) {
	analytics, err := s.BuildAnalytics(ctx, teacherID, classID)
	if err != nil {
		return nil, err
	}
	data, err := s.pdf.Render(studentDataset(analytics.Students), "Student Analytics")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return data, nil
}

func (s *TeacherAnalyticsService) scopedClasses(ctx context.Context, teacherID, classID string) ([]models.Class, error) {
	if classID == "" {
		classes, err := s.classes.FindByTeacher(ctx, teacherID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
		}
		return classes, nil
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "class belongs to another teacher")
	}
	return []models.Class{*class}, nil
}

// buildStudentRows resolves every roster entry to a user and scores it,
// with bounded parallelism across students. A student that fails to
// resolve is skipped; per-student sub-query failures zero that metric
// only.
func (s *TeacherAnalyticsService) buildStudentRows(ctx context.Context, classes []models.Class, rosters [][]models.RosterEntry, scopes map[string]*classScope) []dto.StudentAnalytics {
	type job struct {
		class models.Class
		entry models.RosterEntry
	}
	var jobs []job
	var refs []string
	for i, class := range classes {
		for _, entry := range rosters[i] {
			jobs = append(jobs, job{class: class, entry: entry})
			refs = append(refs, rosterRef(entry))
		}
	}

	resolved := resolveRosterRefs(ctx, s.users, refs, func(ref string, err error) {
		s.degrade("student_lookup", ref, err)
	})

	rows := make([]*dto.StudentAnalytics, len(jobs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency)
	for i, j := range jobs {
		i, j := i, j
		user := resolved[rosterRef(j.entry)]
		if user == nil {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			rows[i] = s.studentRow(ctx, j.class, user, scopes[j.class.ID])
		}()
	}
	wg.Wait()

	var students []dto.StudentAnalytics
	for _, row := range rows {
		if row != nil {
			students = append(students, *row)
		}
	}
	sort.Slice(students, func(a, b int) bool {
		if students[a].Name != students[b].Name {
			return students[a].Name < students[b].Name
		}
		return students[a].UserID < students[b].UserID
	})
	return students
}

func (s *TeacherAnalyticsService) studentRow(ctx context.Context, class models.Class, user *models.User, scope *classScope) *dto.StudentAnalytics {
	row := &dto.StudentAnalytics{
		UserID:    user.ID,
		StudentID: user.StudentID,
		Name:      user.FullName(),
		Email:     user.Email,
		ClassID:   class.ID,
		ClassName: class.Name,
	}
	if scope != nil {
		row.Courses = len(scope.courseIDs)
		row.ModulesTotal = scope.modules
	}

	if completions, err := s.completions.ListByUser(ctx, user.ID); err != nil {
		s.degrade("student_completions", user.ID, err)
	} else if scope != nil {
		for _, c := range completions {
			if _, ok := scope.courseIDs[c.CourseID]; ok {
				row.ModulesCompleted++
			}
		}
	}
	if row.ModulesTotal > 0 {
		row.CompletionPercent = roundTo1(100 * float64(row.ModulesCompleted) / float64(row.ModulesTotal))
	}

	row.AverageScore = s.averageScore(ctx, user, scope)
	row.AvgTimeOnTaskSeconds = s.timeOnTask(ctx, user.ID, scope)
	row.AtRisk = row.AverageScore < s.atRiskScore || row.CompletionPercent < s.atRiskCompletion
	return row
}

// averageScore averages per-quiz best percents for quizzes in scope,
// falling back to the denormalized assignment grade when the student has
// no attempts there.
func (s *TeacherAnalyticsService) averageScore(ctx context.Context, user *models.User, scope *classScope) float64 {
	summaries, err := s.attempts.SummariesByUser(ctx, user.ID)
	if err != nil {
		s.degrade("student_summaries", user.ID, err)
		return user.AverageQuizScore
	}
	total, count := 0, 0
	for _, sum := range summaries {
		if scope != nil {
			if _, ok := scope.quizzes[sum.QuizID]; !ok {
				continue
			}
		}
		total += sum.BestPercent
		count++
	}
	if count == 0 {
		return user.AverageAssignmentGrade
	}
	return roundTo1(float64(total) / float64(count))
}

// timeOnTask is the mean attempt duration across the student's first
// quizzes in scope, capped so one student grinding a single quiz cannot
// distort the class picture.
func (s *TeacherAnalyticsService) timeOnTask(ctx context.Context, userID string, scope *classScope) float64 {
	attempts, err := s.attempts.ListByUser(ctx, userID)
	if err != nil {
		s.degrade("student_attempts", userID, err)
		return 0
	}

	// ListByUser returns newest first; walk oldest first so the cap
	// keeps the earliest quizzes.
	counted := make(map[string]struct{})
	seconds, n := 0, 0
	for i := len(attempts) - 1; i >= 0; i-- {
		a := attempts[i]
		if scope != nil {
			if _, ok := scope.quizzes[a.QuizID]; !ok {
				continue
			}
		}
		if _, ok := counted[a.QuizID]; !ok {
			if len(counted) >= s.timeOnTaskQuizCap {
				continue
			}
			counted[a.QuizID] = struct{}{}
		}
		seconds += a.TimeTakenSeconds
		n++
	}
	if n == 0 {
		return 0
	}
	return roundTo1(float64(seconds) / float64(n))
}

func (s *TeacherAnalyticsService) assemble(classes []models.Class, courses []models.Course, scopes map[string]*classScope, students []dto.StudentAnalytics) *dto.TeacherAnalytics {
	summary := dto.AnalyticsSummary{
		TotalStudents: len(students),
		TotalClasses:  len(classes),
		TotalCourses:  len(courses),
	}

	buckets := emptyGradeBuckets()
	scoreTotal := 0.0
	completionByClass := make(map[string][]float64)
	for _, st := range students {
		scoreTotal += st.AverageScore
		if st.AtRisk {
			summary.AtRiskCount++
		}
		buckets[gradeBucketIndex(st.AverageScore)].Count++
		completionByClass[st.ClassID] = append(completionByClass[st.ClassID], st.CompletionPercent)
	}
	if len(students) > 0 {
		summary.AverageScore = roundTo1(scoreTotal / float64(len(students)))
	}

	completion := make([]dto.ClassCompletion, 0, len(classes))
	for _, class := range classes {
		point := dto.ClassCompletion{ClassID: class.ID, ClassName: class.Name}
		if rates := completionByClass[class.ID]; len(rates) > 0 {
			total := 0.0
			for _, r := range rates {
				total += r
			}
			point.Students = len(rates)
			point.CompletionPercent = roundTo1(total / float64(len(rates)))
		}
		completion = append(completion, point)
	}

	return &dto.TeacherAnalytics{
		Summary: summary,
		Charts: dto.AnalyticsCharts{
			GradeDistribution: buckets,
			CompletionRate:    completion,
		},
		Students: students,
	}
}

func (s *TeacherAnalyticsService) degrade(component, ref string, err error) {
	s.logger.Warn("analytics sub-query degraded",
		zap.String("component", component),
		zap.String("ref", ref),
		zap.Error(err),
	)
	if s.metrics != nil {
		s.metrics.RecordDegradedSubquery("analytics_" + component)
	}
}

func buildClassScopes(classes []models.Class, courses []models.Course) (map[string]*classScope, []string) {
	scopes := make(map[string]*classScope, len(classes))
	for _, class := range classes {
		scopes[class.ID] = &classScope{
			class:     class,
			courseIDs: make(map[string]struct{}),
			quizzes:   make(map[string]struct{}),
		}
	}
	courseIDs := make([]string, 0, len(courses))
	for _, course := range courses {
		courseIDs = append(courseIDs, course.ID)
		for _, classID := range course.AssignedClasses {
			if scope, ok := scopes[classID]; ok {
				scope.courseIDs[course.ID] = struct{}{}
			}
		}
	}
	return scopes, courseIDs
}

func fillScopeContent(scopes map[string]*classScope, modules []models.Module, quizzes []models.Quiz) {
	for _, scope := range scopes {
		for _, m := range modules {
			if _, ok := scope.courseIDs[m.CourseID]; ok {
				scope.modules++
			}
		}
		for _, q := range quizzes {
			if _, ok := scope.courseIDs[q.CourseID]; ok {
				scope.quizzes[q.ID] = struct{}{}
			}
		}
	}
}

// Grade distribution bucket labels, lowest first.
var gradeBucketLabels = []string{"<60", "60-69", "70-79", "80-89", "90-100"}

func emptyGradeBuckets() []dto.GradeBucket {
	buckets := make([]dto.GradeBucket, len(gradeBucketLabels))
	for i, label := range gradeBucketLabels {
		buckets[i] = dto.GradeBucket{Label: label}
	}
	return buckets
}

func gradeBucketIndex(score float64) int {
	switch {
	case score < 60:
		return 0
	case score < 70:
		return 1
	case score < 80:
		return 2
	case score < 90:
		return 3
	default:
		return 4
	}
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}

func analyticsCacheKey(teacherID, classID string) string {
	if classID == "" {
		classID = "all"
	}
	return "analytics:" + teacherID + ":" + classID
}

func studentDataset(students []dto.StudentAnalytics) export.Dataset {
	headers := []string{"Student ID", "Name", "Class", "Courses", "Modules Done", "Completion %", "Avg Score", "Avg Time On Task (s)", "At Risk"}
	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		rows = append(rows, map[string]string{
			"Student ID":           st.StudentID,
			"Name":                 st.Name,
			"Class":                st.ClassName,
			"Courses":              strconv.Itoa(st.Courses),
			"Modules Done":         fmt.Sprintf("%d/%d", st.ModulesCompleted, st.ModulesTotal),
			"Completion %":         strconv.FormatFloat(st.CompletionPercent, 'f', 1, 64),
			"Avg Score":            strconv.FormatFloat(st.AverageScore, 'f', 1, 64),
			"Avg Time On Task (s)": strconv.FormatFloat(st.AvgTimeOnTaskSeconds, 'f', 1, 64),
			"At Risk":              strconv.FormatBool(st.AtRisk),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
