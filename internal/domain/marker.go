package domain

import "time"

// ScanMarker 扫描标记：记录某封邮件已被处理，防止重复扫描。
// 以消息 ID 为键，永久保留（无过期策略），分类器升级后需人工清理才会重扫。
type ScanMarker struct {
	MessageID   string    `json:"messageId" gorm:"primaryKey;type:varchar(64)"`
	UserID      string    `json:"userId" gorm:"type:varchar(36);index;not null"`
	ContentHash string    `json:"contentHash" gorm:"type:varchar(64)"`
	ScannedAt   time.Time `json:"scannedAt"`
}
