package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"excelbot-backend-go/internal/knowledge"
	"excelbot-backend-go/internal/models"
)

func seededKnowledge(t *testing.T) *MemoryKnowledgeStore {
	t.Helper()
	ks := NewMemoryKnowledgeStore()
	require.NoError(t, SeedKnowledge(context.Background(), ks))
	return ks
}

func TestSeedKnowledgeIdempotent(t *testing.T) {
	ks := seededKnowledge(t)
	ctx := context.Background()

	before, err := ks.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, before)

	require.NoError(t, SeedKnowledge(ctx, ks))
	after, err := ks.List(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}

func TestFindFiltersAndPaginates(t *testing.T) {
	ks := seededKnowledge(t)
	ctx := context.Background()

	page1, total, err := ks.Find(ctx, KnowledgeFilter{Kind: knowledge.KindFunction, Limit: 5, Page: 1})
	require.NoError(t, err)
	assert.Len(t, page1, 5)
	assert.Greater(t, total, 5)

	page2, _, err := ks.Find(ctx, KnowledgeFilter{Kind: knowledge.KindFunction, Limit: 5, Page: 2})
	require.NoError(t, err)
	assert.NotEqual(t, page1[0].Name, page2[0].Name)

	matches, total, err := ks.Find(ctx, KnowledgeFilter{Kind: knowledge.KindFunction, Query: "sum"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, matches, 3)
	assert.Equal(t, "SUM", matches[0].Name)

	empty, total, err := ks.Find(ctx, KnowledgeFilter{Kind: knowledge.KindFunction, Query: "sum", Page: 99})
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Equal(t, 3, total)
}

func TestGetByNameIsCaseInsensitive(t *testing.T) {
	ks := seededKnowledge(t)
	ctx := context.Background()

	entry, err := ks.GetByName(ctx, knowledge.KindFunction, "vlookup")
	require.NoError(t, err)
	assert.Equal(t, "VLOOKUP", entry.Name)

	_, err = ks.GetByName(ctx, knowledge.KindFunction, "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertRejectsDuplicates(t *testing.T) {
	ks := seededKnowledge(t)
	ctx := context.Background()

	_, err := ks.Insert(ctx, knowledge.Entry{Kind: knowledge.KindFunction, Name: "sum"})
	assert.ErrorIs(t, err, ErrConflict)

	created, err := ks.Insert(ctx, knowledge.Entry{Kind: knowledge.KindFunction, Name: "LAMBDA"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
}

func TestVoteFloorsAtZero(t *testing.T) {
	ks := seededKnowledge(t)
	ctx := context.Background()

	votes, err := ks.Vote(ctx, "freeze-panes", false)
	require.NoError(t, err)
	assert.Equal(t, 0, votes)

	votes, err = ks.Vote(ctx, "freeze-panes", true)
	require.NoError(t, err)
	assert.Equal(t, 1, votes)

	_, err = ks.Vote(ctx, "no-such-faq", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserStoreConflictsAndClones(t *testing.T) {
	us := NewMemoryUserStore()
	ctx := context.Background()

	user := &models.User{Username: "Alice", Email: "alice@example.com"}
	require.NoError(t, us.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	err := us.Create(ctx, &models.User{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, ErrConflict)
	err = us.Create(ctx, &models.User{Username: "other", Email: "ALICE@example.com"})
	assert.ErrorIs(t, err, ErrConflict)

	got, err := us.GetByID(ctx, user.ID)
	require.NoError(t, err)
	got.Username = "mutated"
	again, err := us.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", again.Username)

	missing := &models.User{ID: "missing"}
	assert.ErrorIs(t, us.Update(ctx, missing), ErrNotFound)
}

func TestChatHistoryWindow(t *testing.T) {
	cs := NewMemoryChatStore()
	ctx := context.Background()

	for i := 0; i < MaxHistoryPerAuthor+5; i++ {
		require.NoError(t, cs.Append(ctx, models.ChatMessage{
			Author: "u1",
			Role:   models.MessageRoleUser,
			Text:   fmt.Sprintf("message %d", i),
		}))
	}

	history, err := cs.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, MaxHistoryPerAuthor)
	assert.Equal(t, "message 5", history[0].Text)
	assert.Equal(t, fmt.Sprintf("message %d", MaxHistoryPerAuthor+4), history[len(history)-1].Text)
}

func TestClearChatIsIdempotent(t *testing.T) {
	cs := NewMemoryChatStore()
	ctx := context.Background()

	require.NoError(t, cs.Append(ctx, models.ChatMessage{Author: "u1", Text: "hi"}))
	require.NoError(t, cs.Clear(ctx, "u1"))

	history, err := cs.History(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NoError(t, cs.Clear(ctx, "u1"))
}
