package service

import (
	"errors"

	"go.uber.org/zap"

	"nboxie/backend/internal/domain"
	"nboxie/backend/internal/storage"
)

var (
	// ErrDealNotFound 合作记录不存在
	ErrDealNotFound = errors.New("deal not found")
	// ErrNotDealOwner 访问者不是记录所有者
	ErrNotDealOwner = errors.New("deal belongs to another user")
	// ErrInvalidStatus 非法的状态值
	ErrInvalidStatus = errors.New("invalid deal status")
)

// DealService 封装合作记录的查询与用户驱动的状态流转。
type DealService struct {
	store domain.Store
	log   *zap.Logger
}

// NewDealService 创建合作记录服务
func NewDealService(store domain.Store, log *zap.Logger) *DealService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DealService{store: store, log: log}
}

// List 查询用户的合作记录，createdAt 降序
func (s *DealService) List(userID string, status domain.DealStatus, dealType domain.DealType, limit int) ([]domain.Deal, error) {
	if status != "" && !domain.ValidDealStatus(status) {
		return nil, ErrInvalidStatus
	}

	return s.store.ListDeals(domain.DealListCriteria{
		UserID: userID,
		Status: status,
		Type:   dealType,
		Limit:  limit,
	})
}

// UpdateStatus 用户驱动的状态流转，校验枚举值与所有权
func (s *DealService) UpdateStatus(userID, dealID string, status domain.DealStatus) error {
	if !domain.ValidDealStatus(status) {
		return ErrInvalidStatus
	}

	deal, err := s.ownedDeal(userID, dealID)
	if err != nil {
		return err
	}

	if err := s.store.UpdateDealStatus(deal.ID, status); err != nil {
		if errors.Is(err, storage.ErrDealNotFound) {
			return ErrDealNotFound
		}
		return err
	}

	s.log.Info("deal status updated",
		zap.String("deal_id", dealID),
		zap.String("user_id", userID),
		zap.String("status", string(status)),
	)
	return nil
}

// Delete 删除合作记录，校验所有权
func (s *DealService) Delete(userID, dealID string) error {
	deal, err := s.ownedDeal(userID, dealID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteDeal(deal.ID); err != nil {
		if errors.Is(err, storage.ErrDealNotFound) {
			return ErrDealNotFound
		}
		return err
	}
	return nil
}

// ownedDeal 获取记录并校验所有权
func (s *DealService) ownedDeal(userID, dealID string) (*domain.Deal, error) {
	deal, err := s.store.GetDeal(dealID)
	if err != nil {
		if errors.Is(err, storage.ErrDealNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, err
	}
	if deal.UserID != userID {
		return nil, ErrNotDealOwner
	}
	return deal, nil
}
