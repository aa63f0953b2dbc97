package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/dwbumstead/openat/api"
	"github.com/dwbumstead/openat/logger"
	"github.com/dwbumstead/openat/models"
)

type config struct {
	ApiKey    string `envconfig:"API_KEY"`
	ApiSecret string `envconfig:"API_SECRET"`
	Otp       string `envconfig:"OTP"`
}

func main() {
	var c config
	if err := envconfig.Process("openat", &c); err != nil {
		logger.Get().Fatal(err)
	}

	cli, err := api.NewMarket("kraken", c.ApiKey, c.ApiSecret)
	if err != nil {
		logger.Get().Fatal(err)
	}
	if c.Otp != "" {
		cli.SetOtp(c.Otp)
	}

	serverTime, err := cli.Time()
	if err != nil {
		logger.Get().Fatal(err)
	}
	fmt.Printf("server time: %s\n", serverTime)

	pair := models.CurrencyPair{Trading: "BTC", Settlement: "USD"}
	ticker, err := cli.Ticker(pair)
	if err != nil {
		logger.Get().Fatal(err)
	}
	fmt.Printf("%s last %v ask %v bid %v\n", pair, ticker.Last, ticker.Ask, ticker.Bid)

	board, err := cli.Board(pair)
	if err != nil {
		logger.Get().Fatal(err)
	}
	fmt.Printf("%s book: %d asks (best %v), %d bids (best %v)\n",
		pair, len(board.Asks), board.BestAskPrice(), len(board.Bids), board.BestBidPrice())

	if c.ApiKey == "" || c.ApiSecret == "" {
		return
	}
	balances, err := cli.Balances()
	if err != nil {
		logger.Get().Fatal(err)
	}
	for currency, amount := range balances {
		fmt.Printf("%s: %v\n", currency, amount)
	}
}
