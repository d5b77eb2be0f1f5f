package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nboxie/backend/internal/domain"
)

// fakeCompletionClient 按预设应答序列响应，并记录收到的请求
type fakeCompletionClient struct {
	responses []string
	errs      []error
	requests  []openai.ChatCompletionRequest
}

func (f *fakeCompletionClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.requests = append(f.requests, req)
	idx := len(f.requests) - 1

	if idx < len(f.errs) && f.errs[idx] != nil {
		return openai.ChatCompletionResponse{}, f.errs[idx]
	}

	content := ""
	if idx < len(f.responses) {
		content = f.responses[idx]
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}, nil
}

func testMessage() *domain.EmailMessage {
	return &domain.EmailMessage{
		ID:      "msg-1",
		Subject: "Paid partnership",
		From:    "brand@example.com",
		Body:    "We'd love to work with you.",
	}
}

func TestLLM_Classify_Success(t *testing.T) {
	client := &fakeCompletionClient{
		responses: []string{`{
			"is_deal": true,
			"type": "Brand Deal",
			"confidence": 0.85,
			"reason": "explicit paid partnership offer",
			"fields": {
				"brand": "Acme",
				"compensation": "$750 flat fee",
				"deliverables": "1 Instagram Reel",
				"deadline": "March 20th"
			}
		}`},
	}
	llm := NewLLM(client, "gpt-4o-mini", nil)

	result, err := llm.Classify(context.Background(), testMessage())
	require.NoError(t, err)
	require.Len(t, client.requests, 1)

	assert.True(t, result.IsDeal)
	assert.Equal(t, domain.TypeBrandDeal, result.Type)
	assert.Equal(t, 0.85, result.Confidence)
	assert.Equal(t, "Acme", result.Brand)
	assert.Equal(t, 750, result.Compensation)
	assert.Equal(t, []string{"1 Instagram Reel"}, result.Deliverables)
	assert.Equal(t, "March 20th", result.Deadline)
	assert.Equal(t, SourceLLM, result.Source)

	// The prompt carries the message fields
	prompt := client.requests[0].Messages[0].Content
	assert.Contains(t, prompt, "Subject: Paid partnership")
	assert.Contains(t, prompt, "From: brand@example.com")
}

func TestLLM_Classify_RetryOnMalformedJSON(t *testing.T) {
	client := &fakeCompletionClient{
		responses: []string{
			`{not json at all`,
			`{"is_deal": false, "type": "None", "confidence": 0.2, "reason": "newsletter", "fields": {}}`,
		},
	}
	llm := NewLLM(client, "gpt-4o-mini", nil)

	result, err := llm.Classify(context.Background(), testMessage())
	require.NoError(t, err)
	require.Len(t, client.requests, 2)

	// Retry prompt carries the malformed-JSON instruction prefix
	assert.True(t, strings.HasPrefix(client.requests[1].Messages[0].Content, retryPrefix))

	assert.False(t, result.IsDeal)
	assert.Equal(t, domain.TypeNone, result.Type)
	assert.Equal(t, "newsletter", result.Reason)
}

func TestLLM_Classify_FallbackAfterRetry(t *testing.T) {
	client := &fakeCompletionClient{
		responses: []string{`{not json`, `still not json`},
	}
	llm := NewLLM(client, "gpt-4o-mini", nil)

	result, err := llm.Classify(context.Background(), testMessage())
	require.NoError(t, err)
	require.Len(t, client.requests, 2)

	// Two failures degrade to the safe negative verdict instead of an error
	assert.False(t, result.IsDeal)
	assert.Equal(t, domain.TypeNone, result.Type)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, "parse_error", result.Reason)
	assert.Empty(t, result.Deliverables)
	assert.Equal(t, SourceLLM, result.Source)
}

func TestLLM_Classify_TransportErrorAlsoFallsBack(t *testing.T) {
	client := &fakeCompletionClient{
		errs: []error{errors.New("connection refused"), errors.New("connection refused")},
	}
	llm := NewLLM(client, "gpt-4o-mini", nil)

	result, err := llm.Classify(context.Background(), testMessage())
	require.NoError(t, err)
	require.Len(t, client.requests, 2)
	assert.Equal(t, "parse_error", result.Reason)
}

func TestNormalizeType(t *testing.T) {
	assert.Equal(t, domain.TypeBrandDeal, normalizeType("Brand Deal"))
	assert.Equal(t, domain.TypeUGC, normalizeType("UGC"))
	assert.Equal(t, domain.TypePRGift, normalizeType("PR/Gifting"))
	assert.Equal(t, domain.TypePRGift, normalizeType("PR Gift"))
	assert.Equal(t, domain.TypeSponsorship, normalizeType("Sponsorship"))
	assert.Equal(t, domain.TypeNone, normalizeType("None"))
	assert.Equal(t, domain.TypeUnknown, normalizeType("something else"))
	assert.Equal(t, domain.TypeNone, normalizeType(" None "))
}
