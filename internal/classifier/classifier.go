package classifier

import (
	"context"

	"nboxie/backend/internal/domain"
)

// 分类来源标识，写入 Deal.Source
const (
	SourceHeuristic = "heuristic"
	SourceLLM       = "llm"
)

// Result 单封邮件的分类结果。两条流水线（启发式 / LLM）统一产出此结构，
// 编排器只面向该契约编写。
type Result struct {
	IsDeal       bool
	Type         domain.DealType
	Confidence   float64
	Reason       string
	Brand        string
	Compensation int
	Deliverables []string
	Deadline     string
	PaymentTerms string
	Source       string
}

// Classifier 邮件分类器接口。实现方不得因单封邮件的内容问题返回错误，
// 只有外部调用（如 LLM 接口不可达）才允许失败。
type Classifier interface {
	Classify(ctx context.Context, msg *domain.EmailMessage) (*Result, error)
}
