package storage

import (
	"errors"

	"nboxie/backend/internal/domain"
)

var (
	// ErrDealNotFound 合作记录不存在
	ErrDealNotFound = errors.New("deal not found")
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists 邮箱已被注册
	ErrEmailExists = errors.New("email already exists")
)

// DealRepository 定义合作记录的存取操作。
type DealRepository interface {
	CreateDealIfAbsent(deal *domain.Deal) (bool, error)
	GetDeal(id string) (*domain.Deal, error)
	ListDeals(criteria domain.DealListCriteria) ([]domain.Deal, error)
	UpdateDealStatus(id string, status domain.DealStatus) error
	DeleteDeal(id string) error
}

// ScanMarkerRepository 定义扫描标记的存取操作。
type ScanMarkerRepository interface {
	SaveScanMarker(marker *domain.ScanMarker) error
	HasScanMarker(messageID string) (bool, error)
}

// UserRepository 定义用户数据存取操作。
type UserRepository interface {
	CreateUser(user *domain.User) error
	GetUserByID(id string) (*domain.User, error)
	GetUserByEmail(email string) (*domain.User, error)
	GetUserByUsername(username string) (*domain.User, error)
	UpdateUser(user *domain.User) error
	UpdateLastLogin(userID string) error
	UpdateLastSync(userID string) error
}

// MarkerCache 扫描标记的快速路径缓存（可选，Redis 实现）。
// 缓存未命中时调用方仍需回查持久存储。
type MarkerCache interface {
	HasMarker(messageID string) (bool, error)
	SetMarker(marker *domain.ScanMarker) error
}
