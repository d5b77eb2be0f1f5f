package domain

// Store 聚合所有存储接口
type Store interface {
	// ========== Deal Repository ==========
	// CreateDealIfAbsent 以 (UserID, ContentHash) 为键原子性地插入，
	// 已存在时返回 false 且不报错。
	CreateDealIfAbsent(deal *Deal) (bool, error)
	GetDeal(id string) (*Deal, error)
	ListDeals(criteria DealListCriteria) ([]Deal, error)
	UpdateDealStatus(id string, status DealStatus) error
	DeleteDeal(id string) error

	// ========== Scan Marker Repository ==========
	SaveScanMarker(marker *ScanMarker) error
	HasScanMarker(messageID string) (bool, error)

	// ========== User Repository ==========
	CreateUser(user *User) error
	GetUserByID(id string) (*User, error)
	GetUserByEmail(email string) (*User, error)
	GetUserByUsername(username string) (*User, error)
	UpdateUser(user *User) error
	UpdateLastLogin(userID string) error
	UpdateLastSync(userID string) error

	Health() error
	Close() error
}

// DealListCriteria 列表查询条件，按 userId 等值过滤，createdAt 降序
type DealListCriteria struct {
	UserID string
	Status DealStatus // 为空表示不过滤
	Type   DealType   // 为空表示不过滤
	Limit  int        // <=0 时使用默认值 50
}
