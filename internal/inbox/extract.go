package inbox

import (
	"encoding/base64"
	"regexp"
	"strings"

	"go.uber.org/zap"
	gmail "google.golang.org/api/gmail/v1"
)

// DefaultBodyLimit 正文截断长度的默认值
const DefaultBodyLimit = 1500

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// Extractor 从 Gmail 的多层 part 树中抽取纯文本正文。
//
// 深度优先遍历，text/plain 叶子按遍历顺序以换行拼接；
// 完全没有纯文本时退回第一个 text/html 部分并粗暴去除标签。
// 单个部分的解码失败只记日志，不影响其余部分。
type Extractor struct {
	limit int
	log   *zap.Logger
}

// NewExtractor 创建正文提取器，limit<=0 时使用默认截断长度
func NewExtractor(limit int, log *zap.Logger) *Extractor {
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{limit: limit, log: log}
}

// Extract 提取并截断正文文本
func (e *Extractor) Extract(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}

	var plain []string
	e.walkPlain(payload, &plain)

	body := strings.Join(plain, "\n")
	if body == "" {
		body = e.htmlFallback(payload)
	}

	body = strings.TrimSpace(body)
	if len(body) > e.limit {
		body = body[:e.limit]
	}
	return body
}

// walkPlain 深度优先收集 text/plain 部分
func (e *Extractor) walkPlain(node *gmail.MessagePart, out *[]string) {
	if node == nil {
		return
	}
	if node.MimeType == "text/plain" && node.Body != nil && node.Body.Data != "" {
		if text, ok := e.decode(node.Body.Data); ok {
			*out = append(*out, text)
		}
	}
	for _, part := range node.Parts {
		e.walkPlain(part, out)
	}
}

// htmlFallback 查找第一个 text/html 部分并去除标签
func (e *Extractor) htmlFallback(node *gmail.MessagePart) string {
	if node == nil {
		return ""
	}
	if node.MimeType == "text/html" && node.Body != nil && node.Body.Data != "" {
		if html, ok := e.decode(node.Body.Data); ok {
			text := htmlTagPattern.ReplaceAllString(html, "")
			return strings.TrimSpace(strings.ReplaceAll(text, "&nbsp;", " "))
		}
	}
	for _, part := range node.Parts {
		if text := e.htmlFallback(part); text != "" {
			return text
		}
	}
	return ""
}

// decode 解码 Gmail 使用的 URL 安全 base64，失败时记日志并跳过该部分
func (e *Extractor) decode(data string) (string, bool) {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(data)
	}
	if err != nil {
		e.log.Warn("failed to decode message part", zap.Error(err))
		return "", false
	}
	return string(decoded), true
}
