package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSecurity_Key(t *testing.T) {
	tests := []struct {
		name     string
		security Security
		want     string
	}{
		{name: "isin wins", security: Security{Name: "Apple", Ticker: "aapl", ISIN: "us0378331005"}, want: "isin:US0378331005"},
		{name: "ticker fallback", security: Security{Name: "Apple", Ticker: "aapl"}, want: "ticker:AAPL"},
		{name: "name fallback", security: Security{Name: "  Apple Inc "}, want: "name:apple inc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.security.Key())
		})
	}
}

func TestSecurity_States(t *testing.T) {
	var s Security
	assert.Equal(t, StateBlank, s.State(PropertyName))

	s.SetState(PropertyName, StateCustom)
	s.SetValue(PropertyTicker, "MSFT")

	assert.Equal(t, StateCustom, s.State(PropertyName))
	assert.Equal(t, StateBlank, s.State(PropertyTicker))
	assert.Equal(t, "MSFT", s.Value(PropertyTicker))
	assert.Equal(t, StateBlank, ParseOnlineState("garbage"))
}

func TestItem_GenerateHash(t *testing.T) {
	base := Item{
		Type:      ItemBuy,
		Date:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		AccountID: "DE123",
		Security:  &Security{ISIN: "US0378331005"},
		Shares:    decimal.NewFromInt(10),
		Amount:    decimal.RequireFromString("1712.40"),
	}
	same := base
	other := base
	other.Shares = decimal.NewFromInt(11)

	assert.Equal(t, base.GenerateHash(), same.GenerateHash())
	assert.NotEqual(t, base.GenerateHash(), other.GenerateHash())
}
