package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"nboxie/backend/internal/domain"
	"nboxie/backend/internal/monitoring"
)

// ErrEmptyCompletion 模型没有返回任何内容
var ErrEmptyCompletion = errors.New("no content received from completion")

// promptTemplate 固定的分析提示词，要求模型只输出符合约定 schema 的 JSON
const promptTemplate = `
You are an intelligent email analyzer for a Gmail tool that helps social media content creators manage potential brand collaborations, UGC deals, and PR/gifting offers.

Your task:
1. Read the email carefully.
2. Decide if it's a brand collaboration, UGC deal, or PR/gifting offer.
3. If yes, extract the structured details.
4. If not, classify it as "None."

Guidelines:
- Base your decision ONLY on the text provided.
- Do not guess missing information.
- If uncertain, set confidence below 0.6.
- Return ONLY valid JSON (no explanations outside the JSON).

Output JSON Format:
{
  "is_deal": true | false,
  "type": "Brand Deal | UGC | PR/Gifting | None",
  "confidence": 0.0-1.0,
  "reason": "short reasoning",
  "fields": {
    "brand": "brand or company name, if mentioned",
    "compensation": "exact pay or gift details, if mentioned",
    "deliverables": "expected social media content or tasks, if mentioned",
    "deadline": "any mentioned deadline or posting date"
  }
}

EMAIL CONTENT:
Subject: %s
From: %s
Body: %s
`

// retryPrefix 首次解析失败后的重试附加指令
const retryPrefix = "The previous response was malformed JSON. Please provide ONLY valid JSON. "

// CompletionClient 对话补全客户端，*openai.Client 满足该接口。
// 抽出接口是为了让分类器脱离真实服务可测。
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// verdict 模型输出的约定 schema
type verdict struct {
	IsDeal     bool    `json:"is_deal"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Fields     struct {
		Brand        string `json:"brand"`
		Compensation string `json:"compensation"`
		Deliverables string `json:"deliverables"`
		Deadline     string `json:"deadline"`
	} `json:"fields"`
}

// LLM 基于语言模型的分类器实现。
//
// 失败策略：解析失败重试一次，仍失败则返回安全的否定结果
// (is_deal=false, type=None, confidence=0, reason=parse_error)，
// 永远不向上层抛出错误。
type LLM struct {
	client  CompletionClient
	model   string
	log     *zap.Logger
	metrics *monitoring.Metrics
}

// NewLLM 创建 LLM 分类器
func NewLLM(client CompletionClient, model string, log *zap.Logger) *LLM {
	if log == nil {
		log = zap.NewNop()
	}
	return &LLM{
		client: client,
		model:  model,
		log:    log,
	}
}

// SetMetrics 注入监控指标（可选）
func (l *LLM) SetMetrics(m *monitoring.Metrics) {
	l.metrics = m
}

// Classify 实现 Classifier 接口
func (l *LLM) Classify(ctx context.Context, msg *domain.EmailMessage) (*Result, error) {
	prompt := fmt.Sprintf(promptTemplate, msg.Subject, msg.From, msg.Body)

	v, err := l.analyze(ctx, prompt)
	if err != nil {
		l.log.Warn("llm response malformed, retrying once",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		if l.metrics != nil {
			l.metrics.LLMRetries.Inc()
		}
		v, err = l.analyze(ctx, retryPrefix+prompt)
	}
	if err != nil {
		if l.metrics != nil {
			l.metrics.LLMParseFailures.Inc()
		}
		l.log.Warn("llm retry failed, falling back to negative classification",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return &Result{
			IsDeal:       false,
			Type:         domain.TypeNone,
			Confidence:   0,
			Reason:       "parse_error",
			Deliverables: []string{},
			Source:       SourceLLM,
		}, nil
	}

	return l.toResult(v), nil
}

// analyze 执行一次补全调用并解析 JSON 输出
func (l *LLM) analyze(ctx context.Context, prompt string) (*verdict, error) {
	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: l.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ErrEmptyCompletion
	}

	var v verdict
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &v); err != nil {
		return nil, fmt.Errorf("invalid completion JSON: %w", err)
	}
	return &v, nil
}

// toResult 将模型输出映射为统一的分类结果
func (l *LLM) toResult(v *verdict) *Result {
	deliverables := []string{}
	if strings.TrimSpace(v.Fields.Deliverables) != "" {
		deliverables = append(deliverables, v.Fields.Deliverables)
	}

	return &Result{
		IsDeal:       v.IsDeal,
		Type:         normalizeType(v.Type),
		Confidence:   v.Confidence,
		Reason:       v.Reason,
		Brand:        v.Fields.Brand,
		Compensation: extractCompensation(strings.ToLower(v.Fields.Compensation)),
		Deliverables: deliverables,
		Deadline:     v.Fields.Deadline,
		Source:       SourceLLM,
	}
}

// normalizeType 将模型使用的类型别名归一到系统枚举
func normalizeType(t string) domain.DealType {
	switch strings.TrimSpace(t) {
	case "Brand Deal":
		return domain.TypeBrandDeal
	case "UGC":
		return domain.TypeUGC
	case "PR/Gifting", "PR Gift":
		return domain.TypePRGift
	case "Sponsorship":
		return domain.TypeSponsorship
	case "None":
		return domain.TypeNone
	}
	return domain.TypeUnknown
}
