package dashboard

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makhanda-smiles/portal-api/internal/handler/testutil"
	"github.com/makhanda-smiles/portal-api/internal/model"
	apperrors "github.com/makhanda-smiles/portal-api/pkg/errors"
)

type stubService struct {
	stats *model.DashboardStats
	err   error
}

func (s stubService) Stats(context.Context) (*model.DashboardStats, error) {
	return s.stats, s.err
}

func (s stubService) Patients(context.Context) ([]*model.Patient, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*model.Patient{{FullName: "Thabo Nkosi", Email: "thabo@example.com"}}, nil
}

func TestGetStats(t *testing.T) {
	r, api := testutil.NewRouter()
	NewHandler(stubService{stats: &model.DashboardStats{TotalPatients: 12, RevenueThisMonth: 920}}).RegisterRoutes(api)

	w, resp := testutil.Do(t, r, testutil.Request{Method: http.MethodGet, Path: "/api/v1/stats"})
	require.Equal(t, http.StatusOK, w.Code)
	var stats model.DashboardStats
	resp.Decode(t, &stats)
	assert.Equal(t, 12, stats.TotalPatients)
	assert.Equal(t, 920, stats.RevenueThisMonth)

	w, resp = testutil.Do(t, r, testutil.Request{Method: http.MethodGet, Path: "/api/v1/patients"})
	require.Equal(t, http.StatusOK, w.Code)
	var patients []*model.Patient
	resp.Decode(t, &patients)
	assert.Len(t, patients, 1)
}

func TestStatsUnavailable(t *testing.T) {
	r, api := testutil.NewRouter()
	NewHandler(stubService{err: apperrors.Unavailable("failed to load stats", errors.New("db down"))}).RegisterRoutes(api)

	w, resp := testutil.Do(t, r, testutil.Request{Method: http.MethodGet, Path: "/api/v1/stats"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "failed to load stats", resp.Message)
}
