package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"excelbot-backend-go/internal/knowledge"
	"excelbot-backend-go/internal/models"
)

// MemoryKnowledgeStore keeps entries in a slice guarded by an RWMutex. The
// set is a few dozen records, so linear scans are the whole strategy.
type MemoryKnowledgeStore struct {
	mu      sync.RWMutex
	entries []knowledge.Entry
}

func NewMemoryKnowledgeStore() *MemoryKnowledgeStore {
	return &MemoryKnowledgeStore{}
}

func (s *MemoryKnowledgeStore) Find(ctx context.Context, filter KnowledgeFilter) ([]knowledge.Entry, int, error) {
	filter.normalize()
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	s.mu.RLock()
	matched := make([]knowledge.Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		if filter.Kind != "" && entry.Kind != filter.Kind {
			continue
		}
		if filter.Category != "" && entry.Category != filter.Category {
			continue
		}
		if query != "" && !entryContains(entry, query) {
			continue
		}
		matched = append(matched, entry)
	}
	s.mu.RUnlock()

	sortEntries(matched)
	total := len(matched)
	start := (filter.Page - 1) * filter.Limit
	if start >= total {
		return []knowledge.Entry{}, total, nil
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *MemoryKnowledgeStore) GetByName(ctx context.Context, kind, name string) (knowledge.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.entries {
		if entry.Kind == kind && strings.EqualFold(entry.Name, name) {
			return entry, nil
		}
	}
	return knowledge.Entry{}, ErrNotFound
}

func (s *MemoryKnowledgeStore) List(ctx context.Context, kinds ...string) ([]knowledge.Entry, error) {
	wanted := map[string]bool{}
	for _, kind := range kinds {
		wanted[kind] = true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]knowledge.Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		if len(wanted) == 0 || wanted[entry.Kind] {
			items = append(items, entry)
		}
	}
	return items, nil
}

func (s *MemoryKnowledgeStore) Insert(ctx context.Context, entry knowledge.Entry) (knowledge.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.entries {
		if existing.Kind == entry.Kind && strings.EqualFold(existing.Name, entry.Name) {
			return knowledge.Entry{}, ErrConflict
		}
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *MemoryKnowledgeStore) Vote(ctx context.Context, name string, helpful bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].Kind == knowledge.KindFAQ && strings.EqualFold(s.entries[i].Name, name) {
			if helpful {
				s.entries[i].Votes++
			} else if s.entries[i].Votes > 0 {
				s.entries[i].Votes--
			}
			return s.entries[i].Votes, nil
		}
	}
	return 0, ErrNotFound
}

func entryContains(entry knowledge.Entry, query string) bool {
	if strings.Contains(strings.ToLower(entry.Name), query) {
		return true
	}
	if strings.Contains(strings.ToLower(entry.Description), query) {
		return true
	}
	for _, keyword := range entry.Keywords {
		if strings.Contains(strings.ToLower(keyword), query) {
			return true
		}
	}
	return false
}

func sortEntries(items []knowledge.Entry) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Votes != items[j].Votes {
			return items[i].Votes > items[j].Votes
		}
		return items[i].Name < items[j].Name
	})
}

// MemoryUserStore backs the demo profile and tests.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: map[string]*models.User{}}
}

func (s *MemoryUserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, user.Username) || strings.EqualFold(existing.Email, user.Email) {
			return ErrConflict
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *MemoryUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *MemoryUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Username, username) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) Update(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now().UTC()
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

// MemoryChatStore keeps the bounded per-author history window.
type MemoryChatStore struct {
	mu       sync.RWMutex
	messages map[string][]models.ChatMessage
}

func NewMemoryChatStore() *MemoryChatStore {
	return &MemoryChatStore{messages: map[string][]models.ChatMessage{}}
}

func (s *MemoryChatStore) Append(ctx context.Context, msg models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	window := append(s.messages[msg.Author], msg)
	if len(window) > MaxHistoryPerAuthor {
		window = window[len(window)-MaxHistoryPerAuthor:]
	}
	s.messages[msg.Author] = window
	return nil
}

func (s *MemoryChatStore) History(ctx context.Context, author string) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	window := s.messages[author]
	items := make([]models.ChatMessage, len(window))
	copy(items, window)
	return items, nil
}

func (s *MemoryChatStore) Clear(ctx context.Context, author string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, author)
	return nil
}
