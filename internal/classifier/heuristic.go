package classifier

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"nboxie/backend/internal/domain"
)

// 内容提取用的正则集合。除品牌名外，所有匹配都在小写化文本上进行。
var (
	compensationPattern = regexp.MustCompile(`\$?\d+(?:,\d{3})*(?:\.\d{2})?`)
	deliverablesPattern = regexp.MustCompile(`(?i)\d+\s*(?:reels?|tiktok|stories?|posts?|videos?|photos?)`)
	deadlinePattern     = regexp.MustCompile(`(?i)(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{1,2}(?:st|nd|rd|th)?`)
	paymentPattern      = regexp.MustCompile(`(?i)net\s?(?:15|30|45|60)`)
	// 品牌名需要大写开头的单词，必须在原始大小写文本上匹配
	brandPattern = regexp.MustCompile(`(?:brand|company|from)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)

	prGiftPattern      = regexp.MustCompile(`(?i)pr\s*gift|gift|free\s*product|complimentary|sample`)
	ugcPattern         = regexp.MustCompile(`(?i)ugc|user\s*generated|content\s*creation|organic\s*content`)
	brandDealPattern   = regexp.MustCompile(`(?i)brand\s*deal|partnership|collaboration|sponsor`)
	sponsorshipPattern = regexp.MustCompile(`(?i)sponsor|paid\s*partnership|brand\s*ambassador`)
)

// dealKeywords 合作机会的前置过滤关键词，任一子串命中即进入解析
var dealKeywords = []string{
	"collaboration", "partnership", "sponsor", "brand deal",
	"pr gift", "gift", "free product", "complimentary",
	"ugc", "user generated content", "content creation",
	"influencer", "ambassador", "campaign",
}

// Heuristic 基于正则规则的分类器实现。
type Heuristic struct {
	log *zap.Logger
}

// NewHeuristic 创建启发式分类器
func NewHeuristic(log *zap.Logger) *Heuristic {
	if log == nil {
		log = zap.NewNop()
	}
	return &Heuristic{log: log}
}

// Classify 实现 Classifier 接口。纯文本规则匹配，不会失败。
func (h *Heuristic) Classify(_ context.Context, msg *domain.EmailMessage) (*Result, error) {
	if !IsDealOpportunity(msg.Subject, msg.Body) {
		return &Result{
			IsDeal:       false,
			Type:         domain.TypeUnknown,
			Deliverables: []string{},
			Source:       SourceHeuristic,
		}, nil
	}

	parsed := ParseContent(msg.Subject, msg.Body)

	return &Result{
		IsDeal:       parsed.Type != domain.TypeUnknown,
		Type:         parsed.Type,
		Confidence:   parsed.Confidence,
		Brand:        parsed.Brand,
		Compensation: parsed.Compensation,
		Deliverables: parsed.Deliverables,
		Deadline:     parsed.Deadline,
		PaymentTerms: parsed.PaymentTerms,
		Source:       SourceHeuristic,
	}, nil
}

// IsDealOpportunity 前置过滤：主题+正文的小写文本包含任一关键词才值得解析
func IsDealOpportunity(subject, body string) bool {
	content := strings.ToLower(subject + " " + body)
	for _, keyword := range dealKeywords {
		if strings.Contains(content, keyword) {
			return true
		}
	}
	return false
}

// ParseContent 从主题和正文中提取结构化的合作信息
func ParseContent(subject, body string) domain.ParsedContent {
	raw := subject + " " + body
	content := strings.ToLower(raw)

	compensation := extractCompensation(content)

	deliverables := deliverablesPattern.FindAllString(content, -1)
	if deliverables == nil {
		deliverables = []string{}
	}

	deadline := deadlinePattern.FindString(content)
	paymentTerms := paymentPattern.FindString(content)

	var brand string
	if m := brandPattern.FindStringSubmatch(raw); m != nil {
		brand = m[1]
	}

	dealType, confidence := classifyDeal(content, compensation)

	return domain.ParsedContent{
		Compensation: compensation,
		Deliverables: deliverables,
		Deadline:     deadline,
		PaymentTerms: paymentTerms,
		Brand:        brand,
		Type:         dealType,
		Confidence:   confidence,
	}
}

// extractCompensation 提取首个金额并转为整数，未匹配返回 0。
// "1,500.00" 这类带分位的金额取整数部分。
func extractCompensation(content string) int {
	match := compensationPattern.FindString(content)
	if match == "" {
		return 0
	}
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(match)
	if idx := strings.Index(cleaned, "."); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	value, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return value
}

// classifyDeal 按固定优先级链判定类型并给出置信度。
// 先命中者生效：PR Gift → UGC → Brand Deal → Sponsorship → 仅报酬兜底。
func classifyDeal(content string, compensation int) (domain.DealType, float64) {
	dealType := domain.TypeUnknown
	confidence := 0.0

	switch {
	case prGiftPattern.MatchString(content):
		dealType = domain.TypePRGift
		confidence = 0.9
	case ugcPattern.MatchString(content):
		dealType = domain.TypeUGC
		confidence = 0.6
		if compensation > 0 {
			confidence = 0.8
		}
	case brandDealPattern.MatchString(content):
		dealType = domain.TypeBrandDeal
		confidence = 0.7
		if compensation > 0 {
			confidence = 0.9
		}
	case sponsorshipPattern.MatchString(content):
		dealType = domain.TypeSponsorship
		confidence = 0.8
		if compensation > 0 {
			confidence = 0.95
		}
	case compensation > 0:
		dealType = domain.TypeBrandDeal
		confidence = 0.6
	}

	// 高报酬加成，上限 1.0
	if compensation > 1000 {
		confidence = math.Min(confidence+0.1, 1.0)
	}

	return dealType, confidence
}
