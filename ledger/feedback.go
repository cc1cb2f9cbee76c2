/*
feedback.go - FeedbackBoard: community suggestions, complaints, and votes
*/
package ledger

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type FeedbackBoard struct {
	store *LedgerStore
}

func NewFeedbackBoard(store *LedgerStore) *FeedbackBoard {
	return &FeedbackBoard{store: store}
}

// NewFeedbackInput is the submission payload.
type NewFeedbackInput struct {
	Type        string // "suggestion", "complaint", "maintenance", ...
	Title       string
	Description string
}

// Submit posts a feedback item. Members and admins may post.
func (b *FeedbackBoard) Submit(ctx context.Context, actor Actor, in NewFeedbackInput) (*FeedbackItem, error) {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Reason: "title is required"}
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, &ValidationError{Field: "description", Reason: "description is required"}
	}
	fType := strings.TrimSpace(in.Type)
	if fType == "" {
		fType = "suggestion"
	}

	item := FeedbackItem{
		ID:          uuid.NewString(),
		Type:        fType,
		Title:       title,
		Description: desc,
		Author:      actor.Name,
		Role:        actor.Role,
		Date:        time.Now().UTC(),
		VotedBy:     []string{},
	}
	s.feedback = append(s.feedback, item)

	if err := s.saveFeedback(ctx); err != nil {
		return nil, err
	}
	return &item, nil
}

// ToggleVote adds the actor's upvote, or removes it if already present.
// One vote per actor per item.
func (b *FeedbackBoard) ToggleVote(ctx context.Context, actor Actor, itemID string) (*FeedbackItem, error) {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var item *FeedbackItem
	for i := range s.feedback {
		if s.feedback[i].ID == itemID {
			item = &s.feedback[i]
			break
		}
	}
	if item == nil {
		return nil, &NotFoundError{Kind: "feedback", ID: itemID}
	}

	voted := -1
	for i, id := range item.VotedBy {
		if id == actor.ID {
			voted = i
			break
		}
	}
	if voted >= 0 {
		item.VotedBy = append(item.VotedBy[:voted], item.VotedBy[voted+1:]...)
		item.Votes--
	} else {
		item.VotedBy = append(item.VotedBy, actor.ID)
		item.Votes++
	}

	if err := s.saveFeedback(ctx); err != nil {
		return nil, err
	}
	out := *item
	return &out, nil
}

// Delete removes a feedback item. Admins can remove anything, members
// only their own posts.
func (b *FeedbackBoard) Delete(ctx context.Context, actor Actor, itemID string) error {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.feedback {
		if s.feedback[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &NotFoundError{Kind: "feedback", ID: itemID}
	}
	if actor.Role != RoleAdmin && s.feedback[idx].Author != actor.Name {
		return &AuthorizationError{ActorID: actor.ID, Action: "delete feedback"}
	}
	s.feedback = append(s.feedback[:idx], s.feedback[idx+1:]...)
	return s.saveFeedback(ctx)
}

// List returns all feedback items, most voted first, ties newest first.
func (b *FeedbackBoard) List() []FeedbackItem {
	s := b.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]FeedbackItem, len(s.feedback))
	copy(out, s.feedback)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Votes != out[j].Votes {
			return out[i].Votes > out[j].Votes
		}
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// ListByDate returns all feedback items, newest first.
func (b *FeedbackBoard) ListByDate() []FeedbackItem {
	s := b.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]FeedbackItem, len(s.feedback))
	copy(out, s.feedback)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}
