package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tick makes successive comments one second apart.
func tick(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Second)
	}
}

func TestPostComment_ThreadsAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reportID := uuid.MustParse(f.submit(t, f.projectA).ID)
	f.comments.now = tick(testNow)

	root, err := f.comments.PostComment(ctx, reportID, f.supervisor.ID, PostCommentRequest{Content: "what about the deploy?"})
	require.NoError(t, err)
	assert.False(t, root.IsReview)
	assert.Nil(t, root.Rating)
	assert.Equal(t, "First Supervisor", root.AuthorName)

	other, err := f.comments.PostComment(ctx, reportID, f.second.ID, PostCommentRequest{Content: "second thread"})
	require.NoError(t, err)

	reply, err := f.comments.PostComment(ctx, reportID, f.employee.ID, PostCommentRequest{Content: "done at 3pm", ParentCommentID: &root.ID})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentCommentID)
	assert.Equal(t, root.ID, *reply.ParentCommentID)

	forest, err := f.comments.ListComments(ctx, reportID, f.employee.ID)
	require.NoError(t, err)
	require.Len(t, forest, 2)
	assert.Equal(t, root.ID, forest[0].ID)
	assert.Equal(t, other.ID, forest[1].ID)
	require.Len(t, forest[0].Replies, 1)
	assert.Equal(t, reply.ID, forest[0].Replies[0].ID)
	assert.Empty(t, forest[1].Replies)

	flat, err := f.comments.ListCommentsFlat(ctx, reportID, f.second.ID)
	require.NoError(t, err)
	require.Len(t, flat, 3)
	assert.Equal(t, []string{root.ID, other.ID, reply.ID}, []string{flat[0].ID, flat[1].ID, flat[2].ID})
	for _, c := range flat {
		assert.Empty(t, c.Replies)
	}

	assert.Contains(t, f.events.types(), EventCommentPosted)
}

func TestPostComment_ReviewCommentsShowInThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reportID := uuid.MustParse(f.submit(t, f.projectA).ID)

	_, err := f.reports.Review(ctx, reportID, f.supervisor.ID, ReviewRequest{Rating: 4, Comment: "solid"})
	require.NoError(t, err)

	forest, err := f.comments.ListComments(ctx, reportID, f.employee.ID)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.True(t, forest[0].IsReview)
	require.NotNil(t, forest[0].Rating)
	assert.Equal(t, 4, *forest[0].Rating)
	assert.NotNil(t, forest[0].ApprovalID)

	// replying to a review is a plain comment
	reply, err := f.comments.PostComment(ctx, reportID, f.employee.ID, PostCommentRequest{Content: "thanks", ParentCommentID: &forest[0].ID})
	require.NoError(t, err)
	assert.False(t, reply.IsReview)
}

func TestPostComment_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reportID := uuid.MustParse(f.submit(t, f.projectA).ID)

	_, err := f.comments.PostComment(ctx, reportID, f.supervisor.ID, PostCommentRequest{Content: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.comments.PostComment(ctx, reportID, f.stranger.ID, PostCommentRequest{Content: "hi"})
	assert.ErrorIs(t, err, ErrAuthorization)

	missing := uuid.NewString()
	_, err = f.comments.PostComment(ctx, reportID, f.supervisor.ID, PostCommentRequest{Content: "hi", ParentCommentID: &missing})
	assert.ErrorIs(t, err, ErrNotFound)

	bad := "not-a-uuid"
	_, err = f.comments.PostComment(ctx, reportID, f.supervisor.ID, PostCommentRequest{Content: "hi", ParentCommentID: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.comments.PostComment(ctx, uuid.New(), f.supervisor.ID, PostCommentRequest{Content: "hi"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.comments.ListComments(ctx, reportID, f.stranger.ID)
	assert.ErrorIs(t, err, ErrAuthorization)
}

func TestPostComment_ParentFromAnotherReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := uuid.MustParse(f.submit(t, f.projectA).ID)

	// the previous day is still open late that evening
	f.reports.now = func() time.Time { return testNow.Add(-12 * time.Hour) }
	otherRes, err := f.reports.Submit(ctx, f.employee.ID, SubmitReportRequest{
		Date:    "2025-08-31",
		Reports: []SubmitProjectDTO{{ProjectID: f.projectA.ID.String(), Content: "yesterday"}},
	})
	require.NoError(t, err)
	other := uuid.MustParse(otherRes.ID)

	parent, err := f.comments.PostComment(ctx, first, f.supervisor.ID, PostCommentRequest{Content: "root"})
	require.NoError(t, err)

	_, err = f.comments.PostComment(ctx, other, f.supervisor.ID, PostCommentRequest{Content: "cross", ParentCommentID: &parent.ID})
	assert.ErrorIs(t, err, ErrValidation)
}
