package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFinanceRecordsIncomeAndPayout(t *testing.T) {
	var f Finance

	require.NoError(t, f.AddIncome(100))
	require.NoError(t, f.AddPayout(6984))

	assert.Equal(t, Finance{TotalIncome: 100, TotalPayout: 6984, CurrentBalance: -6884}, f)
}

func TestFinanceIncomeOverflowLeavesLedger(t *testing.T) {
	f := Finance{TotalIncome: math.MaxInt64 - 1, CurrentBalance: math.MaxInt64 - 1}

	err := f.AddIncome(2)

	assert.ErrorIs(t, err, ErrLedgerOverflow)
	assert.ErrorIs(t, err, ErrState)
	assert.Equal(t, Finance{TotalIncome: math.MaxInt64 - 1, CurrentBalance: math.MaxInt64 - 1}, f)
}

func TestFinancePayoutOverflowLeavesLedger(t *testing.T) {
	f := Finance{TotalPayout: math.MaxInt64, CurrentBalance: math.MinInt64 + 1}

	err := f.AddPayout(1)

	assert.ErrorIs(t, err, ErrLedgerOverflow)
	assert.Equal(t, int64(math.MaxInt64), f.TotalPayout)
}

func TestFinanceStaysBalanced(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var f Finance
		steps := rapid.SliceOfN(rapid.Int64Range(0, math.MaxInt64), 1, 20).Draw(t, "amounts")
		for i, amount := range steps {
			before := f
			var err error
			if i%2 == 0 {
				err = f.AddIncome(amount)
			} else {
				err = f.AddPayout(amount)
			}
			if err != nil {
				if f != before {
					t.Fatalf("ledger changed on error: %+v -> %+v", before, f)
				}
				continue
			}
			if f.TotalIncome < 0 || f.TotalPayout < 0 {
				t.Fatalf("ledger wrapped: %+v", f)
			}
			if f.CurrentBalance != f.TotalIncome-f.TotalPayout {
				t.Fatalf("unbalanced ledger: %+v", f)
			}
		}
	})
}
