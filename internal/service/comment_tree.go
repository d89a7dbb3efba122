package service

import (
	"bytes"
	"sort"

	"dailyreport/internal/model"

	"github.com/google/uuid"
)

// BuildForest links comments into reply trees. Siblings are ordered by
// created_at then id. A reply whose parent is not in the list is kept as a root.
func BuildForest(comments []model.ReviewComment) []*model.ReviewComment {
	nodes := make([]*model.ReviewComment, len(comments))
	byID := make(map[uuid.UUID]*model.ReviewComment, len(comments))
	for i := range comments {
		c := comments[i]
		c.Replies = []*model.ReviewComment{}
		nodes[i] = &c
		byID[c.ID] = &c
	}

	roots := []*model.ReviewComment{}
	for _, n := range nodes {
		if n.ParentCommentID != nil {
			if parent, ok := byID[*n.ParentCommentID]; ok && parent != n {
				parent.Replies = append(parent.Replies, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	sortSiblings(roots)
	for _, n := range nodes {
		sortSiblings(n.Replies)
	}
	return roots
}

func sortSiblings(list []*model.ReviewComment) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return bytes.Compare(list[i].ID[:], list[j].ID[:]) < 0
	})
}

// Flatten returns every comment of forest exactly once in chronological
// order. Comments with equal timestamps keep their depth-first order.
func Flatten(forest []*model.ReviewComment) []*model.ReviewComment {
	var out []*model.ReviewComment
	seen := make(map[*model.ReviewComment]bool)
	var walk func(list []*model.ReviewComment)
	walk = func(list []*model.ReviewComment) {
		for _, c := range list {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			walk(c.Replies)
		}
	}
	walk(forest)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
