package domain

// ScanSummary 一次扫描的结果汇总，随扫描接口返回给调用方。
type ScanSummary struct {
	TotalMessages     int      `json:"totalMessages"`     // 列表返回的消息数
	ProcessedMessages int      `json:"processedMessages"` // 实际拉取并分类的消息数
	SkippedMessages   int      `json:"skippedMessages"`   // 因扫描标记跳过的消息数
	DealsCreated      int      `json:"dealsCreated"`
	DuplicateDeals    int      `json:"duplicateDeals"` // 因内容哈希重复未落库的数量
	Errors            []string `json:"errors,omitempty"`
}
