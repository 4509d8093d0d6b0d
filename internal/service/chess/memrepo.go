package chess

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/park285/cheese-chess/internal/domain"
)

// memrepo backs the service when no database is configured, and in tests.
type memrepo struct {
	mu sync.RWMutex

	nextGameID  int64
	nextSavedID int64

	gamesByID    map[int64]*domain.ChessGame
	gamesByUser  map[string][]*domain.ChessGame // playerHash -> games, latest last
	gamesByIndex map[string]*domain.ChessGame   // sessionUUID|playerHash -> game

	profiles map[string]*domain.ChessProfile
	saved    map[int64]*domain.SavedGame
}

func NewMemoryRepository() Repository {
	return &memrepo{
		gamesByID:    make(map[int64]*domain.ChessGame),
		gamesByUser:  make(map[string][]*domain.ChessGame),
		gamesByIndex: make(map[string]*domain.ChessGame),
		profiles:     make(map[string]*domain.ChessProfile),
		saved:        make(map[int64]*domain.SavedGame),
	}
}

func (m *memrepo) InsertGame(ctx context.Context, game *domain.ChessGame) (int64, error) {
	if game == nil {
		return 0, ErrDuplicateGame
	}
	key := sessionIndexKey(game.SessionUUID, game.PlayerHash)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.gamesByIndex[key]; exists {
		return 0, ErrDuplicateGame
	}
	m.nextGameID++
	stored := cloneGame(game)
	stored.ID = m.nextGameID

	m.gamesByID[stored.ID] = stored
	m.gamesByIndex[key] = stored
	m.gamesByUser[game.PlayerHash] = append(m.gamesByUser[game.PlayerHash], stored)
	return stored.ID, nil
}

func (m *memrepo) GetRecentGames(ctx context.Context, playerHash string, limit int) ([]*domain.ChessGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.gamesByUser[playerHash]
	items := make([]*domain.ChessGame, 0, len(list))
	for _, g := range list {
		items = append(items, cloneGame(g))
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memrepo) GetGame(ctx context.Context, id int64, playerHash string) (*domain.ChessGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gamesByID[id]
	if !ok || g.PlayerHash != playerHash {
		return nil, nil
	}
	return cloneGame(g), nil
}

func (m *memrepo) GetGameBySession(ctx context.Context, sessionUUID string, playerHash string) (*domain.ChessGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.gamesByIndex[sessionIndexKey(sessionUUID, playerHash)]; ok {
		return cloneGame(g), nil
	}
	return nil, nil
}

func (m *memrepo) GetProfile(ctx context.Context, playerHash string) (*domain.ChessProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[strings.TrimSpace(playerHash)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *memrepo) UpsertProfile(ctx context.Context, profile *domain.ChessProfile) error {
	if profile == nil {
		return nil
	}
	cp := *profile
	m.mu.Lock()
	m.profiles[strings.TrimSpace(profile.PlayerHash)] = &cp
	m.mu.Unlock()
	return nil
}

func (m *memrepo) SaveGame(ctx context.Context, saved *domain.SavedGame) (int64, error) {
	if saved == nil {
		return 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *saved
	for id, existing := range m.saved {
		if existing.PlayerHash == saved.PlayerHash && existing.Name == saved.Name {
			cp.ID = id
			m.saved[id] = &cp
			return id, nil
		}
	}
	m.nextSavedID++
	cp.ID = m.nextSavedID
	m.saved[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memrepo) ListSavedGames(ctx context.Context, playerHash string, limit int) ([]*domain.SavedGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]*domain.SavedGame, 0)
	for _, s := range m.saved {
		if s.PlayerHash != playerHash {
			continue
		}
		cp := *s
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memrepo) GetSavedGame(ctx context.Context, id int64, playerHash string) (*domain.SavedGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.saved[id]
	if !ok || s.PlayerHash != playerHash {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memrepo) DeleteSavedGame(ctx context.Context, id int64, playerHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.saved[id]
	if !ok || s.PlayerHash != playerHash {
		return false, nil
	}
	delete(m.saved, id)
	return true, nil
}

func sessionIndexKey(sessionUUID, playerHash string) string {
	return strings.TrimSpace(sessionUUID) + "|" + strings.TrimSpace(playerHash)
}

func cloneGame(g *domain.ChessGame) *domain.ChessGame {
	cp := *g
	cp.MovesUCI = append([]string(nil), g.MovesUCI...)
	cp.MovesSAN = append([]string(nil), g.MovesSAN...)
	return &cp
}
