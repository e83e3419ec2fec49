package integration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Emmyblinks655/taskpay-rewards/internal/wallet"
)

func TestWalletConcurrentDebits_Integration(t *testing.T) {
	database := setupTestDB(t)
	s := newStack(t, database, "0")
	userID := uuid.New()
	s.fund(t, userID, "100")

	var succeeded, rejected int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.wallet.Debit(context.Background(), userID, dec("20"), "Purchase", uuid.NewString())
			switch {
			case err == nil:
				atomic.AddInt32(&succeeded, 1)
			case errors.Is(err, wallet.ErrInsufficientBalance):
				atomic.AddInt32(&rejected, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), succeeded)
	assert.Equal(t, int32(5), rejected)
	assert.True(t, s.balance(t, userID).IsZero())
	s.requireConsistent(t, userID)
}

func TestWalletCreditOnce_Integration(t *testing.T) {
	database := setupTestDB(t)
	s := newStack(t, database, "0")
	userID := uuid.New()
	ref := uuid.NewString()

	var created int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := s.wallet.CreditOnce(context.Background(), wallet.Entry{
				UserID:      userID,
				Type:        wallet.TxCredit,
				Amount:      dec("12.50"),
				Reference:   ref,
				Description: "Refund",
			})
			if err != nil {
				t.Errorf("credit once: %v", err)
				return
			}
			if ok {
				atomic.AddInt32(&created, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created)
	assert.True(t, dec("12.50").Equal(s.balance(t, userID)))

	txs, err := s.wallet.Transactions(context.Background(), userID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
	s.requireConsistent(t, userID)
}

func TestWalletDebitNeverGoesNegative_Integration(t *testing.T) {
	database := setupTestDB(t)
	s := newStack(t, database, "0")
	userID := uuid.New()
	s.fund(t, userID, "10")

	_, err := s.wallet.Debit(context.Background(), userID, dec("10.01"), "Purchase", uuid.NewString())
	assert.ErrorIs(t, err, wallet.ErrInsufficientBalance)
	assert.True(t, dec("10").Equal(s.balance(t, userID)))

	txs, err := s.wallet.Transactions(context.Background(), userID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}
