package domain

import "time"

// DealType 合作机会类型
type DealType string

const (
	TypeBrandDeal   DealType = "Brand Deal"  // 品牌合作
	TypeUGC         DealType = "UGC"         // 用户生成内容委托
	TypePRGift      DealType = "PR Gift"     // PR 礼品/赠送
	TypeSponsorship DealType = "Sponsorship" // 赞助
	TypeNone        DealType = "None"        // 非合作邮件（LLM 判定）
	TypeUnknown     DealType = "Unknown"     // 无法识别
)

// DealStatus 合作机会的处理状态，由用户手动流转
type DealStatus string

const (
	StatusNew        DealStatus = "New"
	StatusInProgress DealStatus = "In Progress"
	StatusCompleted  DealStatus = "Completed"
	StatusDeclined   DealStatus = "Declined"
	StatusArchived   DealStatus = "Archived"
)

// ValidDealStatus 校验状态是否为合法枚举值
func ValidDealStatus(status DealStatus) bool {
	switch status {
	case StatusNew, StatusInProgress, StatusCompleted, StatusDeclined, StatusArchived:
		return true
	}
	return false
}

// Deal 表示从邮件中识别出的一条品牌合作机会，是系统的核心持久化单元。
//
// 去重约束：同一用户下 (UserID, ContentHash) 至多对应一条记录，
// 由存储层的 CreateDealIfAbsent 保证。
type Deal struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID       string     `json:"userId" gorm:"type:varchar(36);index;not null"`
	MessageID    string     `json:"messageId" gorm:"type:varchar(64);index"`
	ThreadID     string     `json:"threadId" gorm:"type:varchar(64)"`
	Subject      string     `json:"subject" gorm:"type:varchar(500)"`
	From         string     `json:"from" gorm:"column:sender;type:varchar(255)"`
	Brand        string     `json:"brand,omitempty" gorm:"type:varchar(255)"`
	Compensation int        `json:"compensation,omitempty"`
	Deliverables []string   `json:"deliverables" gorm:"serializer:json"`
	Deadline     string     `json:"deadline,omitempty" gorm:"type:varchar(64)"`
	PaymentTerms string     `json:"paymentTerms,omitempty" gorm:"type:varchar(32)"`
	Type         DealType   `json:"type" gorm:"type:varchar(32);index"`
	Confidence   float64    `json:"confidence"`
	Reason       string     `json:"reason,omitempty" gorm:"type:varchar(500)"` // LLM 给出的判定理由
	ContentHash  string     `json:"contentHash" gorm:"type:varchar(64);index"`
	Status       DealStatus `json:"status" gorm:"type:varchar(32);index"`
	Source       string     `json:"source" gorm:"type:varchar(16)"` // 分类来源: heuristic / llm
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ParsedContent 启发式解析器从邮件文本中提取的结构化结果，
// 仅由主题和正文推导，不具有独立身份。
type ParsedContent struct {
	Compensation int      `json:"compensation,omitempty"` // 0 表示未提取到报酬
	Deliverables []string `json:"deliverables"`
	Deadline     string   `json:"deadline,omitempty"`
	PaymentTerms string   `json:"paymentTerms,omitempty"`
	Brand        string   `json:"brand,omitempty"`
	Type         DealType `json:"type"`
	Confidence   float64  `json:"confidence"`
}
