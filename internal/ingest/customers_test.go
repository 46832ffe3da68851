package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCustomers_WellFormedRow(t *testing.T) {
	customers := ParseCustomers([]string{
		"{CUST001_Alice Nguyen_alice@example.com_1985-04-12_12 George St Sydney_44927}",
	})
	require.Len(t, customers, 1)

	c := customers[0]
	assert.Equal(t, "CUST001", c.CustomerID)
	assert.Equal(t, "Alice Nguyen", c.Name)
	assert.Equal(t, "alice@example.com", c.Email)
	require.NotNil(t, c.DOB)
	assert.Equal(t, time.Date(1985, 4, 12, 0, 0, 0, 0, time.UTC), *c.DOB)
	assert.Equal(t, "12 George St Sydney", c.Address)
	require.NotNil(t, c.CreatedDate)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), *c.CreatedDate)
}

func TestParseCustomers_SkipsMalformedRows(t *testing.T) {
	customers := ParseCustomers([]string{
		"",
		"   ",
		"not a customer row",
		"{CUST001_Alice_a@x.com_1985-04-12}",                       // too few parts
		"{CUST002_Bob_b@x.com_1990-01-01_5 Pitt St_not-a-serial}",  // bad serial
		"{CUST003_Carol_c@x.com_1992-08-03_7 Collins St_44927}",    // good
	})
	require.Len(t, customers, 1)
	assert.Equal(t, "CUST003", customers[0].CustomerID)
}

func TestParseCustomers_DeduplicatesByID(t *testing.T) {
	customers := ParseCustomers([]string{
		"{CUST001_Alice_a@x.com_1985-04-12_12 George St_44927}",
		"{CUST001_Alice Again_other@x.com_1985-04-12_99 Other St_45000}",
		"{CUST002_Bob_b@x.com_1990-01-01_5 Pitt St_44930}",
	})
	require.Len(t, customers, 2)
	// First occurrence wins.
	assert.Equal(t, "12 George St", customers[0].Address)
	assert.Equal(t, "CUST002", customers[1].CustomerID)
}

func TestParseCustomers_AllMalformed(t *testing.T) {
	customers := ParseCustomers([]string{"junk", "{a_b}", ""})
	assert.Empty(t, customers)
}

func TestParseCustomers_BracesOptional(t *testing.T) {
	customers := ParseCustomers([]string{
		"CUST001_Alice_a@x.com_1985-04-12_12 George St_44927",
	})
	require.Len(t, customers, 1)
	assert.Equal(t, "CUST001", customers[0].CustomerID)
}
