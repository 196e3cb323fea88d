package sizing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andriyanb/autotrader/internal/instrument"
	"github.com/andriyanb/autotrader/internal/mode"
	"github.com/andriyanb/autotrader/internal/signal"
)

// referenceMetadata yields a per-lot pip value of 100 money units.
func referenceMetadata() instrument.Metadata {
	return instrument.Metadata{
		Symbol:       "XAUUSDm",
		PipSize:      1,
		ContractSize: 100,
		MinLotStep:   0.01,
		MaxLot:       1.0,
	}
}

func longSignal(price float64) signal.Signal {
	return signal.Signal{
		Symbol:     "XAUUSDm",
		Time:       time.Now().UTC(),
		Direction:  signal.Long,
		Score:      8,
		Confidence: 0.9,
		Price:      price,
	}
}

func TestSizer_BalanceBasedTargets(t *testing.T) {
	// Reference scenario: balance 10,000,000, TP 1%, SL 3%, pip value 100
	// per lot, lot 0.01. Profit target 100,000 and loss target 300,000
	// convert to 100,000 and 300,000 pips respectively.
	cfg, err := mode.Resolve(mode.Normal)
	require.NoError(t, err)

	sizer := Sizer{BaseLot: 0.01, MinBalance: 100}
	price := 2000.0
	req, err := sizer.Build(longSignal(price), 10_000_000, referenceMetadata(), cfg, 1.0)
	require.NoError(t, err)

	assert.Equal(t, 0.01, req.Lots)
	// pipValue(0.01 lots) = 1 money unit per pip, pip size 1.
	assert.InDelta(t, price+100_000, req.TakeProfit, 1e-6)
	assert.InDelta(t, price-300_000, req.StopLoss, 1e-6)
	assert.Equal(t, mode.Normal, req.Mode)
	assert.NotEmpty(t, req.ID)
}

func TestSizer_DeltaScalesLinearlyWithBalance(t *testing.T) {
	cfg, err := mode.Resolve(mode.Normal)
	require.NoError(t, err)
	sizer := Sizer{BaseLot: 0.01, MinBalance: 100}
	price := 2000.0

	small, err := sizer.Build(longSignal(price), 1_000_000, referenceMetadata(), cfg, 1.0)
	require.NoError(t, err)
	big, err := sizer.Build(longSignal(price), 2_000_000, referenceMetadata(), cfg, 1.0)
	require.NoError(t, err)

	assert.InDelta(t, (small.TakeProfit-price)*2, big.TakeProfit-price, 1e-6,
		"doubling balance doubles the TP price delta at fixed lot")
}

func TestSizer_ShortDirectionMirrorsTargets(t *testing.T) {
	cfg, err := mode.Resolve(mode.Normal)
	require.NoError(t, err)
	sizer := Sizer{BaseLot: 0.01, MinBalance: 100}

	sig := longSignal(2000)
	sig.Direction = signal.Short
	req, err := sizer.Build(sig, 10_000_000, referenceMetadata(), cfg, 1.0)
	require.NoError(t, err)

	assert.Less(t, req.TakeProfit, req.EntryPrice)
	assert.Greater(t, req.StopLoss, req.EntryPrice)
}

func TestSizer_SingleTradeLossCappedByDailyLimit(t *testing.T) {
	cfg, err := mode.Resolve(mode.Normal)
	require.NoError(t, err)
	cfg.StopLossPct = 10 // would out-risk the daily budget

	sizer := Sizer{BaseLot: 0.01, MinBalance: 100, DailyLossLimitPct: 5}
	price := 2000.0
	req, err := sizer.Build(longSignal(price), 1_000_000, referenceMetadata(), cfg, 1.0)
	require.NoError(t, err)

	// Loss target clamps to 5% of balance = 50,000 money units = 50,000 pips.
	assert.InDelta(t, price-50_000, req.StopLoss, 1e-6)
}

func TestSizer_Failures(t *testing.T) {
	cfg, err := mode.Resolve(mode.Normal)
	require.NoError(t, err)
	sizer := Sizer{BaseLot: 0.01, MinBalance: 1000}

	t.Run("balance below floor", func(t *testing.T) {
		_, err := sizer.Build(longSignal(2000), 500, referenceMetadata(), cfg, 1.0)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("broken metadata", func(t *testing.T) {
		md := referenceMetadata()
		md.PipSize = 0
		_, err := sizer.Build(longSignal(2000), 10_000, md, cfg, 1.0)
		assert.ErrorIs(t, err, ErrInvalidInstrument)
	})

	t.Run("directionless signal", func(t *testing.T) {
		sig := longSignal(2000)
		sig.Direction = signal.None
		_, err := sizer.Build(sig, 10_000, referenceMetadata(), cfg, 1.0)
		assert.Error(t, err)
	})
}

func TestSizer_LotBounds(t *testing.T) {
	cfg, err := mode.Resolve(mode.Normal)
	require.NoError(t, err)
	md := referenceMetadata()

	t.Run("risk scaling shrinks but never below step", func(t *testing.T) {
		sizer := Sizer{BaseLot: 0.02, MinBalance: 100}
		req, err := sizer.Build(longSignal(2000), 10_000, md, cfg, 0.5)
		require.NoError(t, err)
		assert.Equal(t, 0.01, req.Lots)

		req, err = sizer.Build(longSignal(2000), 10_000, md, cfg, 0.1)
		require.NoError(t, err)
		assert.Equal(t, 0.01, req.Lots, "scaled lot clamps up to the minimum step")
	})

	t.Run("lot cap", func(t *testing.T) {
		sizer := Sizer{BaseLot: 5, MinBalance: 100}
		req, err := sizer.Build(longSignal(2000), 10_000, md, cfg, 1.0)
		require.NoError(t, err)
		assert.Equal(t, md.MaxLot, req.Lots)
	})
}
