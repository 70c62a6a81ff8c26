package alert

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-pulse/internal/domain/entity"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return n.err
}

func TestSet_ConfirmationMessage(t *testing.T) {
	svc := NewService(nil)

	msg, err := svc.Set(entity.Alert{Ticker: "tcs.ns", TargetPrice: 3500, Condition: entity.ConditionAbove})

	require.NoError(t, err)
	assert.Equal(t, "Alert set for TCS.NS when price goes above ₹3500", msg)
	assert.Equal(t, []entity.Alert{{Ticker: "TCS.NS", TargetPrice: 3500, Condition: entity.ConditionAbove}}, svc.List())
}

func TestSet_UpsertsByTickerAndCondition(t *testing.T) {
	svc := NewService(nil)
	_, _ = svc.Set(entity.Alert{Ticker: "INFY.NS", TargetPrice: 1500, Condition: entity.ConditionAbove})
	_, _ = svc.Set(entity.Alert{Ticker: "INFY.NS", TargetPrice: 1400, Condition: entity.ConditionBelow})
	_, _ = svc.Set(entity.Alert{Ticker: "INFY.NS", TargetPrice: 1550.5, Condition: entity.ConditionAbove})

	got := svc.List()
	require.Len(t, got, 2)
	assert.Equal(t, 1550.5, got[0].TargetPrice, "replacement keeps position")
	assert.Equal(t, entity.ConditionBelow, got[1].Condition)
}

func TestSet_Invalid(t *testing.T) {
	svc := NewService(nil)
	tests := []entity.Alert{
		{Ticker: "", TargetPrice: 10, Condition: entity.ConditionAbove},
		{Ticker: "TCS.NS", TargetPrice: 0, Condition: entity.ConditionAbove},
		{Ticker: "TCS.NS", TargetPrice: 10, Condition: "sideways"},
	}
	for _, a := range tests {
		_, err := svc.Set(a)
		assert.ErrorIs(t, err, entity.ErrInvalidInput, "alert %+v", a)
	}
	assert.Empty(t, svc.List())
}

func TestRemove(t *testing.T) {
	svc := NewService(nil)
	_, _ = svc.Set(entity.Alert{Ticker: "TCS.NS", TargetPrice: 10, Condition: entity.ConditionAbove})
	_, _ = svc.Set(entity.Alert{Ticker: "TCS.NS", TargetPrice: 5, Condition: entity.ConditionBelow})

	require.NoError(t, svc.Remove("tcs.ns", entity.ConditionAbove))
	assert.Equal(t, []entity.Alert{{Ticker: "TCS.NS", TargetPrice: 5, Condition: entity.ConditionBelow}}, svc.List())

	err := svc.Remove("TCS.NS", entity.ConditionAbove)
	assert.True(t, errors.Is(err, ErrAlertNotFound))
}

func TestForTicker(t *testing.T) {
	svc := NewService(nil)
	_, _ = svc.Set(entity.Alert{Ticker: "TCS.NS", TargetPrice: 10, Condition: entity.ConditionAbove})
	_, _ = svc.Set(entity.Alert{Ticker: "INFY.NS", TargetPrice: 10, Condition: entity.ConditionAbove})

	assert.Len(t, svc.ForTicker("TCS.NS"), 1)
	assert.NotNil(t, svc.ForTicker("WIPRO.NS"))
	assert.Empty(t, svc.ForTicker("WIPRO.NS"))
}

func TestEvaluate_StrictComparison(t *testing.T) {
	svc := NewService(nil)
	_, _ = svc.Set(entity.Alert{Ticker: "TCS.NS", TargetPrice: 100, Condition: entity.ConditionAbove})

	assert.Empty(t, svc.Evaluate(context.Background(), entity.Quote{Ticker: "TCS.NS", Price: 100}))

	got := svc.Evaluate(context.Background(), entity.Quote{Ticker: "TCS.NS", Price: 100.25})
	require.Len(t, got, 1)
	assert.Equal(t, "📈 Alert for TCS.NS: Price crossed ₹100 and is now ₹100.25", got[0].Message)
}

func TestEvaluate_NotifiesOnceUntilDifferentAlertFires(t *testing.T) {
	n := &recordingNotifier{}
	svc := NewService(n)
	ctx := context.Background()
	_, _ = svc.Set(entity.Alert{Ticker: "TCS.NS", TargetPrice: 100, Condition: entity.ConditionAbove})
	_, _ = svc.Set(entity.Alert{Ticker: "INFY.NS", TargetPrice: 50, Condition: entity.ConditionBelow})

	svc.Evaluate(ctx, entity.Quote{Ticker: "TCS.NS", Price: 101})
	svc.Evaluate(ctx, entity.Quote{Ticker: "TCS.NS", Price: 102})
	svc.Evaluate(ctx, entity.Quote{Ticker: "INFY.NS", Price: 49})
	svc.Evaluate(ctx, entity.Quote{Ticker: "TCS.NS", Price: 103})

	assert.Equal(t, []string{
		"📈 Alert for TCS.NS: Price crossed ₹100 and is now ₹101",
		"📈 Alert for INFY.NS: Price crossed ₹50 and is now ₹49",
		"📈 Alert for TCS.NS: Price crossed ₹100 and is now ₹103",
	}, n.messages)
}

func TestEvaluate_NotifierErrorStillReturnsTrigger(t *testing.T) {
	svc := NewService(&recordingNotifier{err: errors.New("webhook down")})
	_, _ = svc.Set(entity.Alert{Ticker: "TCS.NS", TargetPrice: 100, Condition: entity.ConditionBelow})

	got := svc.Evaluate(context.Background(), entity.Quote{Ticker: "tcs.ns", Price: 99})

	require.Len(t, got, 1)
	assert.Equal(t, 99.0, got[0].Price)
}

func TestService_ConcurrentAccess(t *testing.T) {
	svc := NewService(nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = svc.Set(entity.Alert{Ticker: "TCS.NS", TargetPrice: float64(100 + i), Condition: entity.ConditionAbove})
		}(i)
		go func(i int) {
			defer wg.Done()
			svc.Evaluate(context.Background(), entity.Quote{Ticker: "TCS.NS", Price: float64(90 + i)})
		}(i)
	}
	wg.Wait()
	assert.Len(t, svc.List(), 1)
}
