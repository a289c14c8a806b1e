package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSymbol(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"eurusd", "EURUSD"},
		{"  EurUsd  ", "EURUSD"},
		{"GBPJPY", "GBPJPY"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSymbol(tt.in))
	}
}

func TestParseSide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    Side
		wantErr bool
	}{
		{name: "buy", in: "buy", want: Buy},
		{name: "sell", in: "sell", want: Sell},
		{name: "upper", in: "BUY", want: Buy},
		{name: "padded", in: "  Sell ", want: Sell},
		{name: "hold", in: "hold", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSide(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTickMidAndSpread(t *testing.T) {
	t.Parallel()

	tick := Tick{Symbol: "EURUSD", Bid: 1.1000, Ask: 1.1002}
	assert.InDelta(t, 1.1001, tick.Mid(), 1e-9)
	assert.InDelta(t, 0.0002, tick.Spread(), 1e-9)
}
