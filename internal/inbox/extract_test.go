package inbox

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	gmail "google.golang.org/api/gmail/v1"
)

func encodePart(text string) string {
	return base64.URLEncoding.EncodeToString([]byte(text))
}

func TestExtractor_Extract_PlainText(t *testing.T) {
	e := NewExtractor(0, nil)

	payload := &gmail.MessagePart{
		MimeType: "text/plain",
		Body:     &gmail.MessagePartBody{Data: encodePart("Hello creator!")},
	}

	assert.Equal(t, "Hello creator!", e.Extract(payload))
}

func TestExtractor_Extract_NestedParts(t *testing.T) {
	e := NewExtractor(0, nil)

	// multipart/alternative wrapping both variants, plain text wins
	payload := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{
						MimeType: "text/plain",
						Body:     &gmail.MessagePartBody{Data: encodePart("first part")},
					},
					{
						MimeType: "text/html",
						Body:     &gmail.MessagePartBody{Data: encodePart("<p>ignored html</p>")},
					},
				},
			},
			{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: encodePart("second part")},
			},
		},
	}

	assert.Equal(t, "first part\nsecond part", e.Extract(payload))
}

func TestExtractor_Extract_HTMLFallback(t *testing.T) {
	e := NewExtractor(0, nil)

	payload := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "text/html",
				Body:     &gmail.MessagePartBody{Data: encodePart("<div>Hi&nbsp;there, <b>creator</b></div>")},
			},
		},
	}

	assert.Equal(t, "Hi there, creator", e.Extract(payload))
}

func TestExtractor_Extract_RawBase64(t *testing.T) {
	e := NewExtractor(0, nil)

	// Unpadded URL-safe base64 is also accepted
	raw := base64.RawURLEncoding.EncodeToString([]byte("raw encoded"))
	payload := &gmail.MessagePart{
		MimeType: "text/plain",
		Body:     &gmail.MessagePartBody{Data: raw},
	}

	assert.Equal(t, "raw encoded", e.Extract(payload))
}

func TestExtractor_Extract_Truncation(t *testing.T) {
	e := NewExtractor(10, nil)

	payload := &gmail.MessagePart{
		MimeType: "text/plain",
		Body:     &gmail.MessagePartBody{Data: encodePart(strings.Repeat("a", 50))},
	}

	assert.Equal(t, strings.Repeat("a", 10), e.Extract(payload))
}

func TestExtractor_Extract_EmptyAndInvalid(t *testing.T) {
	e := NewExtractor(0, nil)

	assert.Empty(t, e.Extract(nil))
	assert.Empty(t, e.Extract(&gmail.MessagePart{MimeType: "text/plain"}))

	// Undecodable part is skipped, remaining parts still collected
	payload := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: "%%%not-base64%%%"},
			},
			{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: encodePart("survivor")},
			},
		},
	}
	assert.Equal(t, "survivor", e.Extract(payload))
}
