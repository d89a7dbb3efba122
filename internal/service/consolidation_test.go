package service

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"dailyreport/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolidate_Empty(t *testing.T) {
	out := Consolidate(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestConsolidate_GroupsByProjectInFirstRecordOrder(t *testing.T) {
	base := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	alpha := &model.Project{ID: uuid.New(), Name: "Alpha"}
	beta := &model.Project{ID: uuid.New(), Name: "Beta"}

	records := []model.WorkRecord{
		{ID: uuid.New(), ProjectID: beta.ID, Project: beta, Content: "b1", CreatedAt: base},
		{ID: uuid.New(), ProjectID: alpha.ID, Project: alpha, Content: " a1 ", CreatedAt: base.Add(time.Minute), ExecutionTimeMinutes: intPtr(20)},
		{ID: uuid.New(), ProjectID: beta.ID, Project: beta, Content: "", CreatedAt: base.Add(2 * time.Minute),
			Files: []model.FileAttachment{{Name: "shot.png", URL: "s3://b/shot.png"}}},
		{ID: uuid.New(), ProjectID: alpha.ID, Project: alpha, Content: "a2", CreatedAt: base.Add(3 * time.Minute), ExecutionTimeMinutes: intPtr(10)},
	}

	out := Consolidate(records)
	require.Len(t, out, 2)

	assert.Equal(t, beta.ID, out[0].ProjectID)
	assert.Equal(t, "Beta", out[0].ProjectName)
	assert.Equal(t, "b1", out[0].Content)
	assert.Equal(t, 2, out[0].RecordCount)
	assert.Nil(t, out[0].TotalExecutionMinutes)
	require.Len(t, out[0].Files, 1)
	assert.Equal(t, "shot.png", out[0].Files[0].Name)

	assert.Equal(t, alpha.ID, out[1].ProjectID)
	assert.Equal(t, "a1\n\na2", out[1].Content)
	require.NotNil(t, out[1].TotalExecutionMinutes)
	assert.Equal(t, 30, *out[1].TotalExecutionMinutes)
	assert.NotNil(t, out[1].Files)
}

func TestConsolidate_IndependentOfInputOrder(t *testing.T) {
	base := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	projects := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	var records []model.WorkRecord
	for i := 0; i < 12; i++ {
		records = append(records, model.WorkRecord{
			ID:        uuid.New(),
			ProjectID: projects[i%3],
			Content:   string(rune('a' + i)),
			// pairs share a timestamp to exercise the id tie-break
			CreatedAt: base.Add(time.Duration(i/2) * time.Minute),
		})
	}
	want := Consolidate(records)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := make([]model.WorkRecord, len(records))
		copy(shuffled, records)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Consolidate(shuffled))
	}
}

func TestConsolidate_SameTimestampGroupsOrderedByProjectID(t *testing.T) {
	at := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("ffffffff-0000-0000-0000-000000000000")

	out := Consolidate([]model.WorkRecord{
		{ID: uuid.MustParse("00000000-0000-0000-0000-0000000000aa"), ProjectID: high, Content: "h", CreatedAt: at},
		{ID: uuid.MustParse("00000000-0000-0000-0000-0000000000bb"), ProjectID: low, Content: "l", CreatedAt: at},
	})
	require.Len(t, out, 2)
	assert.Equal(t, low, out[0].ProjectID)
	assert.Equal(t, high, out[1].ProjectID)
}

func TestConsolidate_KeepsDuplicateFiles(t *testing.T) {
	base := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	project := uuid.New()
	shared := model.FileAttachment{Name: "plan.txt", URL: "s3://b/plan.txt"}

	out := Consolidate([]model.WorkRecord{
		{ID: uuid.New(), ProjectID: project, Content: "draft", CreatedAt: base, Files: []model.FileAttachment{shared}},
		{ID: uuid.New(), ProjectID: project, Content: "final", CreatedAt: base.Add(time.Minute), Files: []model.FileAttachment{shared}},
	})
	require.Len(t, out, 1)
	require.Len(t, out[0].Files, 2)
	assert.Equal(t, out[0].Files[0].URL, out[0].Files[1].URL)
	assert.Equal(t, 2, out[0].RecordCount)
}

func TestGetConsolidated_RepeatableWithOverlay(t *testing.T) {
	f, svc, consolidation := newOverlayFixture(t, nil)
	ctx := context.Background()

	f.records.now = tick(testNow)
	for _, r := range []struct{ project, text string }{
		{f.projectA.ID.String(), "first"},
		{f.projectB.ID.String(), "other"},
		{f.projectA.ID.String(), "second"},
	} {
		_, err := f.records.CreateRecord(ctx, f.employee.ID, CreateRecordRequest{ProjectID: r.project, Content: r.text})
		require.NoError(t, err)
	}
	require.NoError(t, svc.SetAIContent(ctx, f.employee.ID, f.projectA.ID, SetAIContentRequest{Date: testDate, Content: "polished"}))

	first, err := consolidation.GetConsolidated(ctx, f.employee.ID, testDate)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotNil(t, first[0].AIContent)
	assert.Equal(t, "polished", *first[0].AIContent)
	assert.Equal(t, "first\n\nsecond", first[0].Content)
	assert.Nil(t, first[1].AIContent)

	for i := 0; i < 3; i++ {
		again, err := consolidation.GetConsolidated(ctx, f.employee.ID, testDate)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
