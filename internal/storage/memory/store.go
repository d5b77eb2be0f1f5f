package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"nboxie/backend/internal/domain"
	"nboxie/backend/internal/storage"
)

// Store 内存存储实现，用于开发环境和测试。
// 所有操作在同一把读写锁下完成，CreateDealIfAbsent 天然原子。
type Store struct {
	mu      sync.RWMutex
	deals   map[string]*domain.Deal
	markers map[string]*domain.ScanMarker
	users   map[string]*domain.User
}

// NewStore 创建内存存储实例
func NewStore() *Store {
	return &Store{
		deals:   make(map[string]*domain.Deal),
		markers: make(map[string]*domain.ScanMarker),
		users:   make(map[string]*domain.User),
	}
}

// ========== Deal Repository ==========

// CreateDealIfAbsent 按 (UserID, ContentHash) 原子性去重插入
func (s *Store) CreateDealIfAbsent(deal *domain.Deal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.deals {
		if existing.UserID == deal.UserID && existing.ContentHash == deal.ContentHash {
			return false, nil
		}
	}

	copied := *deal
	s.deals[deal.ID] = &copied
	return true, nil
}

// GetDeal 根据 ID 获取合作记录
func (s *Store) GetDeal(id string) (*domain.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deal, ok := s.deals[id]
	if !ok {
		return nil, storage.ErrDealNotFound
	}
	copied := *deal
	return &copied, nil
}

// ListDeals 按条件查询合作记录，createdAt 降序
func (s *Store) ListDeals(criteria domain.DealListCriteria) ([]domain.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Deal, 0)
	for _, deal := range s.deals {
		if deal.UserID != criteria.UserID {
			continue
		}
		if criteria.Status != "" && deal.Status != criteria.Status {
			continue
		}
		if criteria.Type != "" && deal.Type != criteria.Type {
			continue
		}
		out = append(out, *deal)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	limit := criteria.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpdateDealStatus 更新合作记录状态
func (s *Store) UpdateDealStatus(id string, status domain.DealStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deal, ok := s.deals[id]
	if !ok {
		return storage.ErrDealNotFound
	}
	deal.Status = status
	deal.UpdatedAt = time.Now()
	return nil
}

// DeleteDeal 删除合作记录
func (s *Store) DeleteDeal(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deals[id]; !ok {
		return storage.ErrDealNotFound
	}
	delete(s.deals, id)
	return nil
}

// ========== Scan Marker Repository ==========

// SaveScanMarker 保存扫描标记
func (s *Store) SaveScanMarker(marker *domain.ScanMarker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *marker
	s.markers[marker.MessageID] = &copied
	return nil
}

// HasScanMarker 查询消息是否已被扫描
func (s *Store) HasScanMarker(messageID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.markers[messageID]
	return ok, nil
}

// ========== User Repository ==========

// CreateUser 创建用户
func (s *Store) CreateUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return storage.ErrEmailExists
		}
	}

	copied := *user
	s.users[user.ID] = &copied
	return nil
}

// GetUserByID 根据 ID 获取用户
func (s *Store) GetUserByID(id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

// GetUserByEmail 根据邮箱获取用户
func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

// GetUserByUsername 根据用户名获取用户
func (s *Store) GetUserByUsername(username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Username, username) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

// UpdateUser 更新用户信息
func (s *Store) UpdateUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return storage.ErrUserNotFound
	}
	user.UpdatedAt = time.Now()
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

// UpdateLastLogin 更新最近登录时间
func (s *Store) UpdateLastLogin(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	now := time.Now()
	user.LastLoginAt = &now
	return nil
}

// UpdateLastSync 更新最近同步时间
func (s *Store) UpdateLastSync(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	now := time.Now()
	user.LastSyncAt = &now
	user.UpdatedAt = now
	return nil
}

// Health 健康检查
func (s *Store) Health() error {
	return nil
}

// Close 关闭存储
func (s *Store) Close() error {
	return nil
}
