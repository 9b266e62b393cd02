package statement

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDetailed(t *testing.T) {
	gen, st := newTestGenerator(t)
	seed(t, st,
		entry(2, 1, 1000, 0, "TXN-old"),
		entry(2, 15, 0, 400, "TXN-new"),
	)

	stmt, err := gen.Generate(context.Background(), Filter{
		AccountID: 2, From: day(10), To: day(31), Mode: ModeDetailed,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDetailed(&buf, stmt))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	// Header, opening row, one entry, one total row.
	require.Len(t, records, 4)
	assert.Equal(t, "true", records[1][9], "opening row flagged")
	assert.Equal(t, "1000.00", records[1][7])
	assert.Equal(t, "600.00", records[2][7])
	assert.Equal(t, "total", records[3][2])
	assert.Equal(t, "600.00", records[3][7], "total row carries the closing balance")
}

func TestWriteSummaryVariants(t *testing.T) {
	gen, st := newTestGenerator(t)
	usd := entry(2, 5, 100, 0, "TXN-1")
	usd.CurrencyID = 2
	seed(t, st, usd)

	stmt, err := gen.Generate(context.Background(), Filter{
		GroupID: 1, From: day(1), To: day(31), Mode: ModeSummary,
	})
	require.NoError(t, err)

	widths := map[SummaryType]int{
		SummaryLocalOnly:           2,
		SummaryWithMovement:        5,
		SummaryWithCounter:         4,
		SummaryWithCounterMovement: 6,
		SummaryFinalOnly:           3,
	}
	for variant, want := range widths {
		var buf bytes.Buffer
		require.NoError(t, WriteSummary(&buf, stmt, variant))

		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err, variant)
		require.Len(t, records, 2, variant)
		assert.Len(t, records[0], want, variant)
	}

	// The with_counter variant shows the local equivalent: 100 USD at 250.
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, stmt, SummaryWithCounter))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "25000.00", records[1][3])
}
