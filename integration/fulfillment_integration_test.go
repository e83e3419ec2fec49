package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Emmyblinks655/taskpay-rewards/internal/fulfillment"
	"github.com/Emmyblinks655/taskpay-rewards/internal/order"
	"github.com/Emmyblinks655/taskpay-rewards/internal/wallet"
)

func TestPurchaseCompletes_Integration(t *testing.T) {
	database := setupTestDB(t)
	s := newStack(t, database, "0")

	serviceID := createService(t, database, "MTN 1GB", "30.00")
	providerID := createProvider(t, database, "primary", 10, `{"success_rate": 1}`)
	userID := createProfile(t, database, false, "1", uuid.NullUUID{})
	s.fund(t, userID, "100")

	ord, err := s.orchestrator.Purchase(context.Background(), userID, serviceID, "08031234567")
	require.NoError(t, err)

	assert.Equal(t, order.StatusCompleted, ord.Status)
	require.NotNil(t, ord.ProviderRef)
	assert.Regexp(t, `^REF_\d+_\d{6}$`, *ord.ProviderRef)
	assert.Equal(t, providerID, ord.ProviderID.UUID)
	assert.True(t, dec("70").Equal(s.balance(t, userID)))

	logs, err := s.providers.ListByOrder(context.Background(), ord.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 200, logs[0].StatusCode)
	s.requireConsistent(t, userID)
}

func TestPurchaseExhaustedIsRefunded_Integration(t *testing.T) {
	database := setupTestDB(t)
	s := newStack(t, database, "0")

	serviceID := createService(t, database, "MTN 1GB", "30.00")
	createProvider(t, database, "broken", 10, `{"success_rate": 0}`)
	createProvider(t, database, "backup", 1, `{"success_rate": 1}`)
	userID := createProfile(t, database, false, "1", uuid.NullUUID{})
	s.fund(t, userID, "100")

	ord, err := s.orchestrator.Purchase(context.Background(), userID, serviceID, "08031234567")
	require.ErrorIs(t, err, fulfillment.ErrFulfillmentFailed)
	require.NotNil(t, ord)

	stored, err := s.orders.GetByID(context.Background(), ord.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusRefunded, stored.Status)
	assert.Equal(t, 3, stored.RetryCount)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "simulated provider failure")

	logs, err := s.providers.ListByOrder(context.Background(), ord.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	for _, l := range logs {
		assert.Equal(t, 502, l.StatusCode)
	}

	assert.True(t, dec("100").Equal(s.balance(t, userID)))
	refund, err := s.wallet.FindByReference(context.Background(), wallet.TxCredit, ord.ID.String())
	require.NoError(t, err)
	assert.True(t, dec("30").Equal(refund.Amount))

	// A second refund is a no-op.
	again, err := s.orchestrator.Reconciler().Refund(context.Background(), stored)
	require.NoError(t, err)
	assert.Equal(t, refund.ID, again.ID)
	assert.True(t, dec("100").Equal(s.balance(t, userID)))
	s.requireConsistent(t, userID)

	_, err = s.orchestrator.Retry(context.Background(), ord.ID)
	assert.ErrorIs(t, err, fulfillment.ErrAlreadyRefunded)
}

func TestPurchaseInsufficientBalance_Integration(t *testing.T) {
	database := setupTestDB(t)
	s := newStack(t, database, "0")

	serviceID := createService(t, database, "DSTV Compact", "500.00")
	createProvider(t, database, "primary", 10, `{}`)
	userID := createProfile(t, database, false, "1", uuid.NullUUID{})
	s.fund(t, userID, "100")

	ord, err := s.orchestrator.Purchase(context.Background(), userID, serviceID, "7012345678")
	assert.ErrorIs(t, err, wallet.ErrInsufficientBalance)
	assert.Nil(t, ord)

	orders, err := s.orders.ListByUser(context.Background(), userID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.True(t, dec("100").Equal(s.balance(t, userID)))
}

func TestPurchaseNoProviders_Integration(t *testing.T) {
	database := setupTestDB(t)
	s := newStack(t, database, "0")

	serviceID := createService(t, database, "MTN 1GB", "30.00")
	userID := createProfile(t, database, false, "1", uuid.NullUUID{})
	s.fund(t, userID, "100")

	ord, err := s.orchestrator.Purchase(context.Background(), userID, serviceID, "08031234567")
	require.Error(t, err)
	require.NotNil(t, ord)

	stored, err := s.orders.GetByID(context.Background(), ord.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusRefunded, stored.Status)
	assert.Equal(t, 0, stored.RetryCount)

	logs, err := s.providers.ListByOrder(context.Background(), ord.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.False(t, logs[0].ProviderID.Valid)
	assert.True(t, dec("100").Equal(s.balance(t, userID)))
}

func TestPurchaseAgentPricingAndCommission_Integration(t *testing.T) {
	database := setupTestDB(t)
	s := newStack(t, database, "5")

	serviceID := createService(t, database, "MTN 1GB", "200.00")
	createProvider(t, database, "primary", 10, `{}`)
	referrer := createProfile(t, database, false, "1", uuid.NullUUID{})
	agent := createProfile(t, database, true, "0.9", uuid.NullUUID{UUID: referrer, Valid: true})
	s.fund(t, agent, "500")

	ord, err := s.orchestrator.Purchase(context.Background(), agent, serviceID, "08031234567")
	require.NoError(t, err)
	assert.True(t, dec("180").Equal(ord.Cost))
	assert.True(t, dec("200").Equal(ord.Amount))
	assert.True(t, dec("320").Equal(s.balance(t, agent)))

	// 5% of the 180 paid.
	assert.True(t, dec("9").Equal(s.balance(t, referrer)))
	commission, err := s.wallet.FindByReference(context.Background(), wallet.TxCommission, ord.ID.String())
	require.NoError(t, err)
	assert.Equal(t, referrer, commission.UserID)

	stored, err := s.orders.GetByID(context.Background(), ord.ID)
	require.NoError(t, err)
	assert.True(t, dec("9").Equal(stored.Commission))
	s.requireConsistent(t, agent)
	s.requireConsistent(t, referrer)
}
