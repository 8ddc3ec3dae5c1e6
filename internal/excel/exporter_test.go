package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/arabot/internal/leaderboard"
)

func TestExportLeaderboard(t *testing.T) {
	entries := []leaderboard.Entry{
		{ID: "100", Name: "Aya", Points: 240, Streak: 4},
		{ID: "200", Name: "Omar", Points: 95, Streak: 0},
	}
	at := time.Date(2025, 6, 20, 9, 30, 0, 0, time.UTC)

	data, err := ExportLeaderboard(entries, at)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		v, err := f.GetCellValue("Leaderboard", cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Rank", get("A1"))
	assert.Equal(t, "1", get("A2"))
	assert.Equal(t, "Aya", get("B2"))
	assert.Equal(t, "240", get("D2"))
	assert.Equal(t, "Omar", get("B3"))
	assert.Equal(t, "0", get("E3"))
}

func TestExportLeaderboardEmpty(t *testing.T) {
	data, err := ExportLeaderboard(nil, time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
