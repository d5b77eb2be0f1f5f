package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nboxie/backend/internal/classifier"
	"nboxie/backend/internal/config"
	"nboxie/backend/internal/domain"
	"nboxie/backend/internal/inbox"
	"nboxie/backend/internal/storage/memory"
)

// fakeSource 内存收件箱，记录每封消息被拉取的次数
type fakeSource struct {
	mu       sync.Mutex
	messages map[string]*domain.EmailMessage
	order    []string
	listErr  error
	getErrs  map[string]error
	getCalls map[string]int
}

func newFakeSource(msgs ...*domain.EmailMessage) *fakeSource {
	src := &fakeSource{
		messages: make(map[string]*domain.EmailMessage),
		getErrs:  make(map[string]error),
		getCalls: make(map[string]int),
	}
	for _, msg := range msgs {
		src.messages[msg.ID] = msg
		src.order = append(src.order, msg.ID)
	}
	return src
}

func (f *fakeSource) ListMessageIDs(_ context.Context, _ string, max int64) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := f.order
	if int64(len(ids)) > max {
		ids = ids[:max]
	}
	return ids, nil
}

func (f *fakeSource) GetMessage(_ context.Context, id string) (*domain.EmailMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getCalls[id]++
	if err, ok := f.getErrs[id]; ok {
		return nil, err
	}
	msg, ok := f.messages[id]
	if !ok {
		return nil, inbox.ErrMessageNotFound
	}
	return msg, nil
}

func (f *fakeSource) calls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls[id]
}

func testScanConfig() config.ScanConfig {
	return config.ScanConfig{
		Query:         "in:inbox",
		MaxResults:    50,
		BatchSize:     2,
		MinConfidence: 0.7,
		Classifier:    config.ClassifierHeuristic,
		BodyLimit:     1500,
	}
}

func dealMessage(id, subject, body string) *domain.EmailMessage {
	return &domain.EmailMessage{
		ID:       id,
		ThreadID: "thread-" + id,
		Subject:  subject,
		From:     "brand@example.com",
		Body:     body,
	}
}

func TestScanService_Scan_CreatesDeals(t *testing.T) {
	store := memory.NewStore()
	svc := NewScanService(store, nil, classifier.NewHeuristic(nil), testScanConfig(), nil, nil)
	defer svc.Close()

	src := newFakeSource(
		dealMessage("m1", "Partnership proposal", "We'd like to offer $500 for a dedicated video."),
		dealMessage("m2", "Lunch next week?", "Are you free on Tuesday?"),
	)

	summary, err := svc.Scan(context.Background(), src, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalMessages)
	assert.Equal(t, 2, summary.ProcessedMessages)
	assert.Equal(t, 0, summary.SkippedMessages)
	assert.Equal(t, 1, summary.DealsCreated)
	assert.Empty(t, summary.Errors)

	deals, err := store.ListDeals(domain.DealListCriteria{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, "m1", deals[0].MessageID)
	assert.Equal(t, domain.TypeBrandDeal, deals[0].Type)
	assert.Equal(t, domain.StatusNew, deals[0].Status)
	assert.Equal(t, classifier.SourceHeuristic, deals[0].Source)
	assert.NotEmpty(t, deals[0].ContentHash)

	// Both messages got a scan marker, deal or not
	for _, id := range []string{"m1", "m2"} {
		found, err := store.HasScanMarker(id)
		require.NoError(t, err)
		assert.True(t, found)
	}
}

func TestScanService_Scan_SecondScanIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	svc := NewScanService(store, nil, classifier.NewHeuristic(nil), testScanConfig(), nil, nil)
	defer svc.Close()

	src := newFakeSource(
		dealMessage("m1", "Partnership proposal", "We'd like to offer $500 for a dedicated video."),
	)

	_, err := svc.Scan(context.Background(), src, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls("m1"))

	summary, err := svc.Scan(context.Background(), src, "user-1")
	require.NoError(t, err)

	// Marked messages are never re-fetched
	assert.Equal(t, 1, src.calls("m1"))
	assert.Equal(t, 1, summary.SkippedMessages)
	assert.Equal(t, 0, summary.DealsCreated)

	deals, err := store.ListDeals(domain.DealListCriteria{UserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, deals, 1)
}

func TestScanService_Scan_DeduplicatesByContentHash(t *testing.T) {
	store := memory.NewStore()
	svc := NewScanService(store, nil, classifier.NewHeuristic(nil), testScanConfig(), nil, nil)
	defer svc.Close()

	// Two different messages with identical subject and body
	src := newFakeSource(
		dealMessage("m1", "Partnership proposal", "We'd like to offer $500 for a dedicated video."),
		dealMessage("m2", "Partnership proposal", "We'd like to offer $500 for a dedicated video."),
	)

	summary, err := svc.Scan(context.Background(), src, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.DealsCreated)
	assert.Equal(t, 1, summary.DuplicateDeals)

	deals, err := store.ListDeals(domain.DealListCriteria{UserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, deals, 1)
}

func TestScanService_Scan_ConfidenceThreshold(t *testing.T) {
	store := memory.NewStore()
	cfg := testScanConfig()
	cfg.MinConfidence = 0.7
	svc := NewScanService(store, nil, classifier.NewHeuristic(nil), cfg, nil, nil)
	defer svc.Close()

	// UGC without compensation scores 0.6, below the threshold
	src := newFakeSource(
		dealMessage("m1", "UGC content creation", "Looking for creators to join."),
	)

	summary, err := svc.Scan(context.Background(), src, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ProcessedMessages)
	assert.Equal(t, 0, summary.DealsCreated)

	// The marker is still written so the message is not re-scanned
	found, err := store.HasScanMarker("m1")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestScanService_Scan_ListErrorPropagates(t *testing.T) {
	store := memory.NewStore()
	svc := NewScanService(store, nil, classifier.NewHeuristic(nil), testScanConfig(), nil, nil)
	defer svc.Close()

	src := newFakeSource()
	src.listErr = inbox.ErrAuthExpired

	_, err := svc.Scan(context.Background(), src, "user-1")
	assert.ErrorIs(t, err, inbox.ErrAuthExpired)
}

func TestScanService_Scan_FetchFailureIsRetryable(t *testing.T) {
	store := memory.NewStore()
	svc := NewScanService(store, nil, classifier.NewHeuristic(nil), testScanConfig(), nil, nil)
	defer svc.Close()

	src := newFakeSource(
		dealMessage("m1", "Partnership proposal", "We'd like to offer $500 for a dedicated video."),
	)
	src.getErrs["m1"] = errors.New("transient fetch failure")

	summary, err := svc.Scan(context.Background(), src, "user-1")
	require.NoError(t, err)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, 0, summary.ProcessedMessages)

	// No marker written on failure, next scan retries the message
	found, err := store.HasScanMarker("m1")
	require.NoError(t, err)
	assert.False(t, found)

	delete(src.getErrs, "m1")
	summary, err = svc.Scan(context.Background(), src, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.DealsCreated)
}
