package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nboxie/backend/internal/domain"
	"nboxie/backend/internal/storage/memory"
)

func seedDeal(t *testing.T, store *memory.Store, id, userID string) {
	t.Helper()
	created, err := store.CreateDealIfAbsent(&domain.Deal{
		ID:          id,
		UserID:      userID,
		Subject:     "Partnership offer",
		ContentHash: "hash-" + id,
		Type:        domain.TypeBrandDeal,
		Status:      domain.StatusNew,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	})
	require.NoError(t, err)
	require.True(t, created)
}

func TestDealService_List(t *testing.T) {
	store := memory.NewStore()
	svc := NewDealService(store, nil)

	seedDeal(t, store, "deal-1", "user-1")
	seedDeal(t, store, "deal-2", "user-2")

	deals, err := svc.List("user-1", "", "", 0)
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, "deal-1", deals[0].ID)

	// Unknown status value is rejected before hitting the store
	_, err = svc.List("user-1", "Done", "", 0)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDealService_UpdateStatus(t *testing.T) {
	store := memory.NewStore()
	svc := NewDealService(store, nil)
	seedDeal(t, store, "deal-1", "user-1")

	require.NoError(t, svc.UpdateStatus("user-1", "deal-1", domain.StatusInProgress))

	deal, err := store.GetDeal("deal-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, deal.Status)

	// Invalid status
	assert.ErrorIs(t, svc.UpdateStatus("user-1", "deal-1", "Shipped"), ErrInvalidStatus)

	// Someone else's deal
	assert.ErrorIs(t, svc.UpdateStatus("user-2", "deal-1", domain.StatusCompleted), ErrNotDealOwner)

	// Missing deal
	assert.ErrorIs(t, svc.UpdateStatus("user-1", "missing", domain.StatusCompleted), ErrDealNotFound)
}

func TestDealService_Delete(t *testing.T) {
	store := memory.NewStore()
	svc := NewDealService(store, nil)
	seedDeal(t, store, "deal-1", "user-1")

	// Ownership enforced before deletion
	assert.ErrorIs(t, svc.Delete("user-2", "deal-1"), ErrNotDealOwner)

	require.NoError(t, svc.Delete("user-1", "deal-1"))

	assert.ErrorIs(t, svc.Delete("user-1", "deal-1"), ErrDealNotFound)
}
