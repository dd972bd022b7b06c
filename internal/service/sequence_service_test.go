package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EduConnectOfficial/educonnect-api/internal/models"
	appErrors "github.com/EduConnectOfficial/educonnect-api/pkg/errors"
)

type mockCounterBook struct {
	values map[string]int64
	err    error
}

func (m *mockCounterBook) Next(ctx context.Context, role string, year int) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	if m.values == nil {
		m.values = make(map[string]int64)
	}
	key := fmt.Sprintf("%s-%d", role, year)
	m.values[key]++
	return m.values[key], nil
}

func TestSequenceNextIDFormat(t *testing.T) {
	svc := NewSequenceService(&mockCounterBook{}, nil)

	id, err := svc.NextID(context.Background(), models.RoleStudent, 2025)
	require.NoError(t, err)
	assert.Equal(t, "S-2025-00001", id)

	id, err = svc.NextID(context.Background(), models.RoleStudent, 2025)
	require.NoError(t, err)
	assert.Equal(t, "S-2025-00002", id)

	id, err = svc.NextID(context.Background(), models.RoleTeacher, 2025)
	require.NoError(t, err)
	assert.Equal(t, "T-2025-00001", id, "roles advance independently")
}

func TestSequenceRejectsUnknownRole(t *testing.T) {
	svc := NewSequenceService(&mockCounterBook{}, nil)

	_, err := svc.Next(context.Background(), "janitor", 2025)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSequenceStoreFailureIsTransient(t *testing.T) {
	svc := NewSequenceService(&mockCounterBook{err: errors.New("write conflict")}, nil)

	_, err := svc.Next(context.Background(), models.RoleStudent, 2025)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrStoreUnavailable)
}
