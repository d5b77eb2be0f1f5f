package domain

import "time"

// User 系统用户。Gmail 令牌对由令牌接口写入，扫描时按请求读取，
// 不做全局缓存。
type User struct {
	ID                string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email             string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Username          string     `json:"username" gorm:"type:varchar(64);uniqueIndex"`
	PasswordHash      string     `json:"-" gorm:"type:varchar(255);not null"`
	GmailAccessToken  string     `json:"-" gorm:"type:text"`
	GmailRefreshToken string     `json:"-" gorm:"type:text"`
	IsActive          bool       `json:"isActive" gorm:"default:true"`
	LastSyncAt        *time.Time `json:"lastSyncAt,omitempty"`
	LastLoginAt       *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// HasGmailToken 是否已授权 Gmail 访问
func (u *User) HasGmailToken() bool {
	return u.GmailAccessToken != "" || u.GmailRefreshToken != ""
}
