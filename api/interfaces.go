package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/dwbumstead/openat/api/kraken"
	"github.com/dwbumstead/openat/models"
)

// Market is the capability surface every exchange adapter implements.
//
//go:generate mockery -name=Market
type Market interface {
	Time() (time.Time, error)
	Coins() (map[string]models.Coin, error)
	DepositInfo(currency string) ([]models.DepositInfo, error)
	MarketInfo() ([]models.MarketInfo, error)
	PairInfo(pair models.CurrencyPair) (models.MarketInfo, error)
	Balances() (map[string]float64, error)
	CompleteBalances() (map[string]*models.Balance, error)
	Balance(currency string) (float64, error)
	Ticker(pair models.CurrencyPair) (models.Ticker, error)
	Board(pair models.CurrencyPair) (models.Board, error)
	OpenOrders() ([]*models.Order, error)
	ClosedOrders() ([]*models.Order, error)
	Place(order *models.Order) error
	Cancel(order *models.Order) error
	SetOtp(otp string)
	SetTransport(transport http.RoundTripper)
}

func NewMarket(exchangeName string, apikey string, seckey string) (Market, error) {
	switch strings.ToLower(exchangeName) {
	case "kraken":
		return kraken.NewKrakenApi(apikey, seckey)
	}
	return nil, errors.New("failed to init exchange api")
}
