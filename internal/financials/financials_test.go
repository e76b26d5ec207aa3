package financials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `{
  "HDFCBANK": {
    "quarterlydata": {
      "Dec2024": {"Revenue": 87460, "NetProfit": 18340},
      "Sep2024": {"Revenue": 85500.5, "NetProfit": 17830},
      "Mar2024": {"Sales": 79434, "NetProfit": 17622}
    },
    "yearlydata": {
      "Mar2024": {"Revenue": 283649, "NetProfit": 65447, "TotalAssets": 3617623, "NetCashFlow": 20952},
      "Mar2023": {"Revenue": 170754, "NetProfit": 45997, "TotalAssets": 2466081}
    },
    "cumulativedata": {
      "CompoundedSalesGrowth": {"3 Years": 32, "10 Years": 18, "TTM": 41, "5 Years": 21},
      "ReturnonEquity": {"Last Year": 15, "10 Years": 16}
    },
    "ttm": {"TTM": {"Revenue": 336367, "NetProfit": 73440}}
  }
}`

func TestReport(t *testing.T) {
	s, err := Parse([]byte(doc))
	require.NoError(t, err)

	want := `Quarterly Performance (Last 4 Quarters):
  - Dec2024: Revenue - 87460 Cr Rupees, Net Profit - 18340 Cr Rupees
  - Sep2024: Revenue - 85500.5 Cr Rupees, Net Profit - 17830 Cr Rupees
  - Mar2024: Revenue - 79434 Cr Rupees, Net Profit - 17622 Cr Rupees

Yearly Performance (Last 2 Years):
  - Mar2024: Revenue - 283649 Cr Rupees, Net Profit - 65447 Cr Rupees, Total Assets - 3617623 Cr Rupees, Net Cash Flow - 20952 Cr Rupees
  - Mar2023: Revenue - 170754 Cr Rupees, Net Profit - 45997 Cr Rupees, Total Assets - 2466081 Cr Rupees, Net Cash Flow - N/A Cr Rupees

Cumulative Performance Over Time:
  - Compounded Sales Growth: 10 Years: 18%, 5 Years: 21%, 3 Years: 32%, TTM: 41%
  - Compounded Profit Growth: 
  - Stock Price CAGR: 
  - Return on Equity: 10 Years: 16%, Last Year: 15%

Trailing Twelve Months (TTM) Performance:
  - Total Revenue: 336367 Cr Rupees, Net Profit: 73440 Cr Rupees`

	assert.Equal(t, want, s.Report("hdfcbank"))
	assert.True(t, s.Has("HDFCBANK"))
}

func TestReportUnknownCompany(t *testing.T) {
	s, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, s.Report("TCS"))
	assert.False(t, s.Has("TCS"))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	s, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, s.Report("HDFCBANK"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Parse([]byte("{not json"))
	assert.Error(t, err)
}
