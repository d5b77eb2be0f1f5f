package domain

import "time"

// EmailMessage 表示从邮件服务商拉取的一封完整邮件。
// 构建后不可变，不直接持久化。
type EmailMessage struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"threadId"`
	Subject  string    `json:"subject"`
	From     string    `json:"from"`
	To       []string  `json:"to"`
	Date     time.Time `json:"date"`
	Snippet  string    `json:"snippet"`
	Body     string    `json:"body"`
	Labels   []string  `json:"labels"`
}
