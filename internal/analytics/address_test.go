package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insight-cli/internal/model"
)

func TestDeriveAddressHistory(t *testing.T) {
	customers := []model.Customer{
		{CustomerID: "c1", Address: "12 George St", CreatedDate: d(2022, 1, 1)},
		{CustomerID: "c2", Address: "5 Pitt St", CreatedDate: d(2024, 3, 1)},
	}
	transactions := []model.Transaction{
		datedTx("c1", 100, 2023, 1, 1),
		datedTx("c1", 50, 2023, 6, 1),
	}

	result := DeriveAddressHistory(customers, transactions, 365)
	require.Len(t, result.Records, 2)

	c1 := result.Records[0]
	assert.Equal(t, "12 George St", c1.Address)
	assert.Equal(t, d(2022, 1, 1), c1.EffectiveFrom)
	assert.Equal(t, d(2023, 6, 1), c1.EffectiveTo, "interval ends at the last transaction")
	assert.Equal(t, 516, c1.DaysActive)
	assert.True(t, c1.IsCurrent)
	assert.False(t, c1.ChangeDetected, "no change tracking is performed")

	// No transactions: interval collapses to the creation date.
	c2 := result.Records[1]
	assert.Equal(t, c2.EffectiveFrom, c2.EffectiveTo)
	assert.Equal(t, 0, c2.DaysActive)

	assert.Equal(t, 2, result.TotalTracked)
	require.Len(t, result.LongTermCustomers, 1)
	assert.Equal(t, "c1", result.LongTermCustomers[0].CustomerID)
	assert.Equal(t, 1, result.PotentialChanges)
	assert.InDelta(t, 258.0, result.AvgDaysAtAddress, 1e-9)
}

func TestDeriveAddressHistory_NegativeTenureClamped(t *testing.T) {
	// Last transaction predates account creation (bad source data).
	customers := []model.Customer{
		{CustomerID: "c1", CreatedDate: d(2024, 6, 1)},
	}
	transactions := []model.Transaction{
		datedTx("c1", 10, 2024, 1, 1),
	}

	result := DeriveAddressHistory(customers, transactions, 365)
	assert.Equal(t, 0, result.Records[0].DaysActive)
}

func TestDeriveAddressHistory_TenureThresholdConfigurable(t *testing.T) {
	customers := []model.Customer{
		{CustomerID: "c1", CreatedDate: d(2024, 1, 1)},
	}
	transactions := []model.Transaction{
		datedTx("c1", 10, 2024, 3, 1),
	}

	assert.Empty(t, DeriveAddressHistory(customers, transactions, 365).LongTermCustomers)
	assert.Len(t, DeriveAddressHistory(customers, transactions, 30).LongTermCustomers, 1)
}
