package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/EduConnectOfficial/educonnect-api/internal/models"
	appErrors "github.com/EduConnectOfficial/educonnect-api/pkg/errors"
)

type counterRepository interface {
	Next(ctx context.Context, role string, year int) (int64, error)
}

// Prefixes for generated human-readable ids, keyed by role.
var rolePrefixes = map[string]string{
	models.RoleStudent: "S",
	models.RoleTeacher: "T",
	models.RoleAdmin:   "A",
}

// SequenceService issues monotonically increasing per-(role, year)
// sequence numbers and formats them into human-readable ids such as
// S-2025-00001. Enrollment imports and role grants share it.
type SequenceService struct {
	repo   counterRepository
	logger *zap.Logger
}

// NewSequenceService constructs a SequenceService.
func NewSequenceService(repo counterRepository, logger *zap.Logger) *SequenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SequenceService{repo: repo, logger: logger}
}

// Next returns the next sequence value for (role, year).
func (s *SequenceService) Next(ctx context.Context, role string, year int) (int64, error) {
	if _, ok := rolePrefixes[role]; !ok {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown role %q", role))
	}
	n, err := s.repo.Next(ctx, role, year)
	if err != nil {
		// Counter contention exhausting the store's retries is
		// transient, never the caller's fault.
		return 0, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to advance sequence")
	}
	return n, nil
}

// NextID returns the next formatted id for (role, year).
func (s *SequenceService) NextID(ctx context.Context, role string, year int) (string, error) {
	n, err := s.Next(ctx, role, year)
	if err != nil {
		return "", err
	}
	return FormatSequenceID(role, year, n), nil
}

// FormatSequenceID renders a sequence value as {prefix}-{year}-{00000}.
func FormatSequenceID(role string, year int, n int64) string {
	prefix, ok := rolePrefixes[role]
	if !ok {
		prefix = "U"
	}
	return fmt.Sprintf("%s-%d-%05d", prefix, year, n)
}
