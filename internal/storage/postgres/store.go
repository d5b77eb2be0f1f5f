package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nboxie/backend/internal/config"
	"nboxie/backend/internal/domain"
	"nboxie/backend/internal/storage"
)

// Store PostgreSQL 存储实现
type Store struct {
	db *gorm.DB
}

// NewStore 创建 PostgreSQL 存储实例并自动迁移表结构。
// 连接或迁移失败返回错误，由调用方决定是否终止启动。
func NewStore(cfg *config.DatabaseConfig) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// migrate 自动迁移数据库表结构
func (s *Store) migrate() error {
	return s.db.AutoMigrate(
		&domain.User{},
		&domain.Deal{},
		&domain.ScanMarker{},
	)
}

// ========== Deal Repository ==========

// CreateDealIfAbsent 在事务中以 (user_id, content_hash) 去重插入
func (s *Store) CreateDealIfAbsent(deal *domain.Deal) (bool, error) {
	created := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Deal{}).
			Where("user_id = ? AND content_hash = ?", deal.UserID, deal.ContentHash).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(deal).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// GetDeal 根据 ID 获取合作记录
func (s *Store) GetDeal(id string) (*domain.Deal, error) {
	var deal domain.Deal
	err := s.db.Where("id = ?", id).First(&deal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrDealNotFound
		}
		return nil, err
	}
	return &deal, nil
}

// ListDeals 按条件查询合作记录，createdAt 降序
func (s *Store) ListDeals(criteria domain.DealListCriteria) ([]domain.Deal, error) {
	limit := criteria.Limit
	if limit <= 0 {
		limit = 50
	}

	query := s.db.Where("user_id = ?", criteria.UserID)
	if criteria.Status != "" {
		query = query.Where("status = ?", criteria.Status)
	}
	if criteria.Type != "" {
		query = query.Where("type = ?", criteria.Type)
	}

	var deals []domain.Deal
	err := query.Order("created_at DESC").Limit(limit).Find(&deals).Error
	if err != nil {
		return nil, err
	}
	return deals, nil
}

// UpdateDealStatus 更新合作记录状态
func (s *Store) UpdateDealStatus(id string, status domain.DealStatus) error {
	result := s.db.Model(&domain.Deal{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrDealNotFound
	}
	return nil
}

// DeleteDeal 删除合作记录
func (s *Store) DeleteDeal(id string) error {
	result := s.db.Where("id = ?", id).Delete(&domain.Deal{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrDealNotFound
	}
	return nil
}

// ========== Scan Marker Repository ==========

// SaveScanMarker 保存扫描标记（同键覆盖写）
func (s *Store) SaveScanMarker(marker *domain.ScanMarker) error {
	return s.db.Save(marker).Error
}

// HasScanMarker 查询消息是否已被扫描
func (s *Store) HasScanMarker(messageID string) (bool, error) {
	var count int64
	err := s.db.Model(&domain.ScanMarker{}).
		Where("message_id = ?", messageID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ========== User Repository ==========

// CreateUser 创建用户
func (s *Store) CreateUser(user *domain.User) error {
	var count int64
	if err := s.db.Model(&domain.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return storage.ErrEmailExists
	}
	return s.db.Create(user).Error
}

// GetUserByID 根据 ID 获取用户
func (s *Store) GetUserByID(id string) (*domain.User, error) {
	var user domain.User
	err := s.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail 根据邮箱获取用户
func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	var user domain.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername 根据用户名获取用户
func (s *Store) GetUserByUsername(username string) (*domain.User, error) {
	var user domain.User
	err := s.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateUser 更新用户信息
func (s *Store) UpdateUser(user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()
	return s.db.Save(user).Error
}

// UpdateLastLogin 更新最近登录时间
func (s *Store) UpdateLastLogin(userID string) error {
	return s.db.Model(&domain.User{}).
		Where("id = ?", userID).
		Update("last_login_at", time.Now().UTC()).Error
}

// UpdateLastSync 更新最近同步时间
func (s *Store) UpdateLastSync(userID string) error {
	now := time.Now().UTC()
	return s.db.Model(&domain.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"last_sync_at": now,
			"updated_at":   now,
		}).Error
}

// Health 健康检查
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
