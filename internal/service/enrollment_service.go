package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/EduConnectOfficial/educonnect-api/internal/dto"
	"github.com/EduConnectOfficial/educonnect-api/internal/models"
	"github.com/EduConnectOfficial/educonnect-api/pkg/chunk"
	appErrors "github.com/EduConnectOfficial/educonnect-api/pkg/errors"
)

type enrollmentStore interface {
	Enroll(ctx context.Context, class *models.Class, user *models.User) (already bool, err error)
	Unenroll(ctx context.Context, classID, studentID, userID string) (found bool, err error)
	Roster(ctx context.Context, classID string) ([]models.RosterEntry, error)
	MirrorsByUser(ctx context.Context, userID string) ([]models.Enrollment, error)
}

type studentResolver interface {
	FindByStudentID(ctx context.Context, studentID string) (*models.User, error)
	FindByAnyRef(ctx context.Context, ref string) (*models.User, error)
}

type classFinder interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// EnrollRequest describes a single enrollment.
type EnrollRequest struct {
	ClassID   string `json:"class_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
}

// EnrollmentService idempotently links students into class rosters and
// keeps the per-student enrollment mirrors in lockstep. Unlike the
// aggregation services it never suppresses a failure; everything
// propagates to the caller.
type EnrollmentService struct {
	store     enrollmentStore
	students  studentResolver
	classes   classFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(store enrollmentStore, students studentResolver, classes classFinder, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{store: store, students: students, classes: classes, validator: validate, logger: logger}
}

// Enroll links one student into one class. Re-invoking with the same
// arguments after success performs no writes and reports
// AlreadyEnrolled; the underlying writes are atomic, so a crash mid-way
// never leaves a partial enrollment.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*dto.EnrollResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	user, err := s.students.FindByStudentID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	already, err := s.store.Enroll(ctx, class, user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to enroll student")
	}

	if !already {
		s.logger.Info("student enrolled",
			zap.String("class_id", class.ID),
			zap.String("student_id", user.StudentID),
		)
	}
	return &dto.EnrollResult{Success: true, AlreadyEnrolled: already}, nil
}

// BulkEnroll enrolls a batch of loosely identified students (sequence
// id, user id or email, as they arrive from spreadsheet imports) into
// one class. Each id gets its own outcome; one failure never aborts the
// rest of the batch.
func (s *EnrollmentService) BulkEnroll(ctx context.Context, classID string, studentRefs []string) (*dto.BulkEnrollReport, error) {
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class_id is required")
	}
	refs := chunk.Deduped(studentRefs)
	if len(refs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no student identifiers supplied")
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	report := &dto.BulkEnrollReport{Total: len(refs)}
	for _, ref := range refs {
		detail := dto.BulkEnrollDetail{StudentID: ref}

		user, err := s.students.FindByAnyRef(ctx, ref)
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			detail.Outcome = dto.BulkOutcomeNotFound
			report.NotFound++
		case err != nil:
			detail.Outcome = dto.BulkOutcomeError
			detail.Message = "lookup failed"
			report.Errors++
			s.logger.Warn("bulk enroll lookup failed", zap.String("ref", ref), zap.Error(err))
		default:
			already, err := s.store.Enroll(ctx, class, user)
			switch {
			case err != nil:
				detail.Outcome = dto.BulkOutcomeError
				detail.Message = "enroll failed"
				report.Errors++
				s.logger.Warn("bulk enroll write failed", zap.String("ref", ref), zap.Error(err))
			case already:
				detail.Outcome = dto.BulkOutcomeAlready
				report.AlreadyEnrolled++
			default:
				detail.Outcome = dto.BulkOutcomeEnrolled
				report.Enrolled++
			}
		}

		report.Details = append(report.Details, detail)
	}

	return report, nil
}

// Unenroll removes a student from a class roster and deletes the
// mirror. Removing an absent enrollment is a successful no-op.
func (s *EnrollmentService) Unenroll(ctx context.Context, classID, studentID string) (removed bool, err error) {
	if classID == "" || studentID == "" {
		return false, appErrors.Clone(appErrors.ErrValidation, "class_id and student_id are required")
	}

	user, err := s.students.FindByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	found, err := s.store.Unenroll(ctx, classID, studentID, user.ID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to unenroll student")
	}
	return found, nil
}

// Roster lists a class roster from the authoritative entries.
func (s *EnrollmentService) Roster(ctx context.Context, classID string) ([]models.RosterEntry, error) {
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class_id is required")
	}
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	entries, err := s.store.Roster(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roster")
	}
	return entries, nil
}

// ListEnrollments returns the student's enrollment mirrors.
func (s *EnrollmentService) ListEnrollments(ctx context.Context, userID string) ([]models.Enrollment, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user_id is required")
	}
	mirrors, err := s.store.MirrorsByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return mirrors, nil
}
