package api

import (
	"testing"
)

func TestNewMarket(t *testing.T) {
	t.Parallel()
	if _, err := NewMarket("kraken", "APIKEY", "SECRETKEY"); err != nil {
		t.Fatal(err)
	}
	if _, err := NewMarket("Kraken", "APIKEY", "SECRETKEY"); err != nil {
		t.Errorf("exchange name should be case insensitive: %v", err)
	}
	if _, err := NewMarket("mtgox", "APIKEY", "SECRETKEY"); err == nil {
		t.Error("unknown exchange should fail")
	}
}
