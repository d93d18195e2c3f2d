package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketSignalBot/internal/domain"
)

func TestParse_ValidSignals(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		pair      string
		direction domain.Direction
		expiry    int
		entryTime string
	}{
		{
			name:      "minutes expiry with BUY",
			text:      "EUR/USD OTC\n5M\nBUY",
			pair:      "EURUSD_otc",
			direction: domain.Call,
			expiry:    300,
		},
		{
			name:      "seconds expiry with PUT and spaced pair",
			text:      "GBP / JPY OTC\n30 seconds\nPUT",
			pair:      "GBPJPY_otc",
			direction: domain.Put,
			expiry:    30,
		},
		{
			name:      "hours expiry with SELL",
			text:      "CAD/CHF OTC\nExpiration: 1H\nSELL",
			pair:      "CADCHF_otc",
			direction: domain.Put,
			expiry:    3600,
		},
		{
			name:      "CALL keyword and entry time",
			text:      "AUD/JPY OTC\n1 minute\nCALL\nEntry Time: 9:05",
			pair:      "AUDJPY_otc",
			direction: domain.Call,
			expiry:    60,
			entryTime: "9:05",
		},
		{
			name:      "emoji noise is stripped before matching",
			text:      "🔥 EUR/USD OTC 🔥\n⏱ 15 min\n🟢 BUY",
			pair:      "EURUSD_otc",
			direction: domain.Call,
			expiry:    900,
		},
		{
			name:      "lowercase pair is normalized",
			text:      "eur/usd otc\n2 min\nbuy",
			pair:      "EURUSD_otc",
			direction: domain.Call,
			expiry:    120,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Parse(tt.text)
			require.NotNil(t, sig)
			assert.Equal(t, tt.pair, sig.Pair)
			assert.Equal(t, tt.direction, sig.Direction)
			assert.Equal(t, tt.expiry, sig.Expiry)
			assert.Equal(t, tt.entryTime, sig.EntryTime)
			assert.Equal(t, tt.text, sig.RawText)
		})
	}
}

func TestParse_PartialMessagesProduceNoSignal(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"missing direction", "EUR/USD OTC\n5M"},
		{"missing expiry", "EUR/USD OTC\nBUY"},
		{"missing pair", "5M\nBUY"},
		{"empty message", ""},
		{"chatter only", "good morning traders, big moves expected today"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, Parse(tt.text))
		})
	}
}

// Messages quoting an earlier signal above the live one must resolve to the
// pair on the last matching line.
func TestParse_LastPairMatchWins(t *testing.T) {
	sig := Parse("previous: EUR/USD OTC won\nGBP/JPY OTC\n1M\nBUY")
	require.NotNil(t, sig)
	assert.Equal(t, "GBPJPY_otc", sig.Pair)
}

// The first line carrying any duration unit decides the expiry, with
// seconds taking precedence within that line.
func TestParse_ExpiryFirstLineWins(t *testing.T) {
	sig := Parse("EUR/USD OTC\n30 seconds\n5 min\nBUY")
	require.NotNil(t, sig)
	assert.Equal(t, 30, sig.Expiry)
}

func TestParse_DirectionFirstMatchWins(t *testing.T) {
	sig := Parse("EUR/USD OTC\n1M\nSELL\nBUY")
	require.NotNil(t, sig)
	assert.Equal(t, domain.Put, sig.Direction)
}

func TestParse_EntryTimeOptional(t *testing.T) {
	sig := Parse("EUR/USD OTC\n1M\nBUY")
	require.NotNil(t, sig)
	assert.False(t, sig.HasEntryTime())

	sig = Parse("EUR/USD OTC\n1M\nBUY\nEntry Time - 14:30")
	require.NotNil(t, sig)
	assert.Equal(t, "14:30", sig.EntryTime)
}
