package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nboxie/backend/internal/domain"
)

func TestIsDealOpportunity(t *testing.T) {
	// Keyword hit in subject
	assert.True(t, IsDealOpportunity("Paid collaboration opportunity", "Hello!"))

	// Keyword hit in body only
	assert.True(t, IsDealOpportunity("Quick question", "We would love a brand deal with you"))

	// Matching is case-insensitive
	assert.True(t, IsDealOpportunity("PARTNERSHIP proposal", ""))

	// No keywords at all
	assert.False(t, IsDealOpportunity("Hi, just checking in", "How have you been lately?"))
	assert.False(t, IsDealOpportunity("", ""))
}

func TestHeuristic_Classify_NonDeal(t *testing.T) {
	h := NewHeuristic(nil)

	result, err := h.Classify(context.Background(), &domain.EmailMessage{
		Subject: "Lunch next week?",
		Body:    "Are you free on Tuesday?",
	})
	require.NoError(t, err)

	assert.False(t, result.IsDeal)
	assert.Equal(t, domain.TypeUnknown, result.Type)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, SourceHeuristic, result.Source)
	assert.NotNil(t, result.Deliverables)
}

func TestHeuristic_Classify_BrandDeal(t *testing.T) {
	h := NewHeuristic(nil)

	result, err := h.Classify(context.Background(), &domain.EmailMessage{
		Subject: "Partnership proposal",
		Body:    "We'd like to offer $500 for a dedicated video. Payment terms are Net 30, posting by March 15th.",
	})
	require.NoError(t, err)

	assert.True(t, result.IsDeal)
	assert.Equal(t, domain.TypeBrandDeal, result.Type)
	// Brand Deal keyword plus compensation
	assert.Equal(t, 0.9, result.Confidence)
	assert.Equal(t, 500, result.Compensation)
	assert.Equal(t, "net 30", result.PaymentTerms)
	assert.Equal(t, "march 15th", result.Deadline)
	assert.Equal(t, SourceHeuristic, result.Source)
}

func TestParseContent_PRGiftTakesPriority(t *testing.T) {
	// Gift wording wins over collaboration wording when both appear
	parsed := ParseContent("Collaboration with free product", "We'd love to send you a complimentary sample.")

	assert.Equal(t, domain.TypePRGift, parsed.Type)
	assert.Equal(t, 0.9, parsed.Confidence)
}

func TestParseContent_UGCConfidence(t *testing.T) {
	// UGC without compensation
	parsed := ParseContent("UGC content creation", "Looking for creators.")
	assert.Equal(t, domain.TypeUGC, parsed.Type)
	assert.Equal(t, 0.6, parsed.Confidence)

	// UGC with compensation
	parsed = ParseContent("UGC content creation", "We pay $300 per video.")
	assert.Equal(t, domain.TypeUGC, parsed.Type)
	assert.Equal(t, 0.8, parsed.Confidence)
}

func TestParseContent_HighCompensationBoost(t *testing.T) {
	// Compensation above 1000 adds 0.1, capped at 1.0
	parsed := ParseContent("Brand Ambassador program", "We'd love to have you as a brand ambassador. Budget is $2,000.")

	assert.Equal(t, domain.TypeSponsorship, parsed.Type)
	assert.Equal(t, 2000, parsed.Compensation)
	assert.InDelta(t, 1.0, parsed.Confidence, 1e-9)
}

func TestParseContent_CompensationOnlyFallback(t *testing.T) {
	// No category keyword but an amount present still counts as a brand deal
	parsed := ParseContent("Influencer campaign", "We can offer 250 for one post.")

	assert.Equal(t, domain.TypeBrandDeal, parsed.Type)
	assert.Equal(t, 0.6, parsed.Confidence)
	assert.Equal(t, 250, parsed.Compensation)
}

func TestParseContent_Deliverables(t *testing.T) {
	parsed := ParseContent("Brand deal", "Please post 3 Reels and 2 Stories before the launch.")

	require.Len(t, parsed.Deliverables, 2)
	assert.Equal(t, "3 reels", parsed.Deliverables[0])
	assert.Equal(t, "2 stories", parsed.Deliverables[1])
}

func TestParseContent_Brand(t *testing.T) {
	// Brand names keep their original casing
	parsed := ParseContent("Partnership", "Hi! I'm reaching out from Glow Labs about a collaboration.")
	assert.Equal(t, "Glow Labs", parsed.Brand)

	// Lowercase word after the trigger is not a brand
	parsed = ParseContent("Partnership", "a message from our company about stuff")
	assert.Empty(t, parsed.Brand)
}

func TestExtractCompensation(t *testing.T) {
	assert.Equal(t, 500, extractCompensation("we offer $500 for a post"))
	assert.Equal(t, 1500, extractCompensation("budget: $1,500.00 total"))
	assert.Equal(t, 250, extractCompensation("250 usd flat"))
	assert.Equal(t, 0, extractCompensation("no numbers here"))
	assert.Equal(t, 0, extractCompensation(""))
}
