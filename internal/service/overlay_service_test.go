package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"dailyreport/internal/ai"
	"dailyreport/internal/logger"
	"dailyreport/internal/model"
	"dailyreport/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnhancer struct {
	mu       sync.Mutex
	requests []ai.Request
	fail     bool
}

func (e *fakeEnhancer) Enhance(_ context.Context, req ai.Request) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests = append(e.requests, req)
	if e.fail {
		return "", errors.New("provider unavailable")
	}
	return "polished: " + req.Content, nil
}

type memoryStore struct {
	files map[string][]byte
}

func (m *memoryStore) Put(_ context.Context, name, _ string, body io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	url := "s3://test/" + name
	m.files[url] = data
	return url, nil
}

func (m *memoryStore) Read(_ context.Context, url string, limit int64) ([]byte, error) {
	data, ok := m.files[url]
	if !ok {
		return nil, errors.New("missing")
	}
	if int64(len(data)) > limit {
		data = data[:limit]
	}
	return data, nil
}

func newOverlayFixture(t *testing.T, enhancer ai.Enhancer) (*fixture, *overlayService, ConsolidationService) {
	t.Helper()
	f := newFixture(t)
	store := &memoryStore{files: map[string][]byte{"s3://test/spec.txt": []byte("acceptance criteria")}}
	consolidation := NewConsolidationService(repository.NewRecordRepository(f.db), repository.NewOverlayRepository(f.db), logger.Discard())
	svc := NewOverlayService(consolidation, repository.NewOverlayRepository(f.db), repository.NewReportRepository(f.db), repository.NewProjectRepository(f.db), f.gate, enhancer, store, logger.Discard()).(*overlayService)
	svc.now = func() time.Time { return testNow }
	return f, svc, consolidation
}

func TestEnhance_StoresAIContent(t *testing.T) {
	enhancer := &fakeEnhancer{}
	f, svc, consolidation := newOverlayFixture(t, enhancer)
	ctx := context.Background()

	_, err := f.records.CreateRecord(ctx, f.employee.ID, CreateRecordRequest{
		ProjectID: f.projectA.ID.String(),
		Content:   "fixed login bug",
		Files: []model.FileRef{
			{Name: "spec.txt", MediaType: "text/plain", URL: "s3://test/spec.txt", IsSelectedForAI: true},
			{Name: "photo.png", MediaType: "image/png", URL: "s3://test/photo.png", IsSelectedForAI: true},
		},
	})
	require.NoError(t, err)

	res, err := svc.Enhance(ctx, f.employee.ID, EnhanceRequest{Date: testDate})
	require.NoError(t, err)
	assert.Equal(t, []string{f.projectA.ID.String()}, res.Queued)
	svc.Wait()

	require.Len(t, enhancer.requests, 1)
	require.Len(t, enhancer.requests[0].References, 1)
	assert.Equal(t, "acceptance criteria", enhancer.requests[0].References[0].Text)

	aggs, err := consolidation.GetConsolidated(ctx, f.employee.ID, testDate)
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	require.NotNil(t, aggs[0].AIContent)
	assert.Equal(t, "polished: fixed login bug", *aggs[0].AIContent)
	assert.Equal(t, "fixed login bug", aggs[0].Content)
}

func TestEnhance_FailureLeavesAIContentAbsent(t *testing.T) {
	f, svc, consolidation := newOverlayFixture(t, &fakeEnhancer{fail: true})
	ctx := context.Background()

	_, err := f.records.CreateRecord(ctx, f.employee.ID, CreateRecordRequest{ProjectID: f.projectA.ID.String(), Content: "work"})
	require.NoError(t, err)

	_, err = svc.Enhance(ctx, f.employee.ID, EnhanceRequest{Date: testDate})
	require.NoError(t, err)
	svc.Wait()

	aggs, err := consolidation.GetConsolidated(ctx, f.employee.ID, testDate)
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Nil(t, aggs[0].AIContent)
}

func TestEnhance_Rejections(t *testing.T) {
	f, svc, _ := newOverlayFixture(t, &fakeEnhancer{})
	ctx := context.Background()

	_, err := svc.Enhance(ctx, f.employee.ID, EnhanceRequest{Date: testDate, ProjectID: f.projectA.ID.String()})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Enhance(ctx, f.employee.ID, EnhanceRequest{Date: "2025-08-01"})
	assert.ErrorIs(t, err, ErrEditingClosed)

	disabled := NewOverlayService(nil, nil, nil, nil, f.gate, nil, nil, logger.Discard())
	_, err = disabled.Enhance(ctx, f.employee.ID, EnhanceRequest{Date: testDate})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSetAIContent(t *testing.T) {
	f, svc, consolidation := newOverlayFixture(t, nil)
	ctx := context.Background()

	_, err := f.records.CreateRecord(ctx, f.employee.ID, CreateRecordRequest{ProjectID: f.projectA.ID.String(), Content: "raw"})
	require.NoError(t, err)

	require.NoError(t, svc.SetAIContent(ctx, f.employee.ID, f.projectA.ID, SetAIContentRequest{Date: testDate, Content: "v1"}))
	require.NoError(t, svc.SetAIContent(ctx, f.employee.ID, f.projectA.ID, SetAIContentRequest{Date: testDate, Content: "v2"}))

	aggs, err := consolidation.GetConsolidated(ctx, f.employee.ID, testDate)
	require.NoError(t, err)
	require.NotNil(t, aggs[0].AIContent)
	assert.Equal(t, "v2", *aggs[0].AIContent)

	err = svc.SetAIContent(ctx, f.employee.ID, uuid.New(), SetAIContentRequest{Date: "2025-08-01", Content: "late"})
	assert.ErrorIs(t, err, ErrEditingClosed)
}

func TestIsTextLike(t *testing.T) {
	assert.True(t, IsTextLike(model.FileRef{Name: "a.bin", MediaType: "text/csv"}))
	assert.True(t, IsTextLike(model.FileRef{Name: "a.json", MediaType: "application/json"}))
	assert.True(t, IsTextLike(model.FileRef{Name: "NOTES.MD"}))
	assert.False(t, IsTextLike(model.FileRef{Name: "a.png", MediaType: "image/png"}))
	assert.False(t, IsTextLike(model.FileRef{Name: "report.pdf"}))
}

func TestSetAIContent_UnknownProjectAndClearing(t *testing.T) {
	f, svc, consolidation := newOverlayFixture(t, nil)
	ctx := context.Background()

	_, err := f.records.CreateRecord(ctx, f.employee.ID, CreateRecordRequest{ProjectID: f.projectA.ID.String(), Content: "raw"})
	require.NoError(t, err)

	err = svc.SetAIContent(ctx, f.employee.ID, uuid.New(), SetAIContentRequest{Date: testDate, Content: "orphan"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.SetAIContent(ctx, f.employee.ID, f.projectA.ID, SetAIContentRequest{Date: testDate, Content: "polished"}))
	require.NoError(t, svc.SetAIContent(ctx, f.employee.ID, f.projectA.ID, SetAIContentRequest{Date: testDate, Content: "   "}))

	aggs, err := consolidation.GetConsolidated(ctx, f.employee.ID, testDate)
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Nil(t, aggs[0].AIContent)

	var stored int64
	require.NoError(t, f.db.Model(&model.AIOverlay{}).Count(&stored).Error)
	assert.Zero(t, stored)
}

func TestSetAIContent_FollowsReportLock(t *testing.T) {
	f, svc, _ := newOverlayFixture(t, nil)
	ctx := context.Background()
	reportID := uuid.MustParse(f.submit(t, f.projectA).ID)

	// a pending report still accepts overlay edits
	require.NoError(t, svc.SetAIContent(ctx, f.employee.ID, f.projectA.ID, SetAIContentRequest{Date: testDate, Content: "before review"}))

	for _, sup := range []model.User{f.supervisor, f.second} {
		_, err := f.reports.Review(ctx, reportID, sup.ID, ReviewRequest{Rating: 4, Comment: "ok"})
		require.NoError(t, err)
	}

	err := svc.SetAIContent(ctx, f.employee.ID, f.projectA.ID, SetAIContentRequest{Date: testDate, Content: "after review"})
	assert.ErrorIs(t, err, ErrEditingClosed)

	_, err = f.reports.Reopen(ctx, reportID, f.supervisor.ID)
	require.NoError(t, err)
	assert.NoError(t, svc.SetAIContent(ctx, f.employee.ID, f.projectA.ID, SetAIContentRequest{Date: testDate, Content: "after reopen"}))
}
