package kraken

import (
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwbumstead/openat/models"
)

func TestToInternal(t *testing.T) {
	t.Parallel()
	client := newTestKrakenApi(&FakeRoundTripper{status: http.StatusOK})

	internal, err := client.toInternal(models.CurrencyPair{Trading: "BTC", Settlement: "USD"})
	require.NoError(t, err)
	assert.Equal(t, "XBTUSD", internal)

	internal, err = client.toInternal(models.CurrencyPair{Trading: "ETH", Settlement: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, "ETHEUR", internal)
}

func TestPairRoundTrip(t *testing.T) {
	t.Parallel()
	client := newTestKrakenApi(&FakeRoundTripper{status: http.StatusOK})

	pairs := []models.CurrencyPair{
		{Trading: "BTC", Settlement: "USD"},
		{Trading: "ETH", Settlement: "EUR"},
		{Trading: "XRP", Settlement: "USD"},
		{Trading: "ADA", Settlement: "EUR"},
		{Trading: "USDT", Settlement: "USD"},
	}
	for _, pair := range pairs {
		internal, err := client.toInternal(pair)
		require.NoError(t, err)
		back, err := client.pairFromInternal(internal)
		require.NoError(t, err)
		assert.Equal(t, pair, back)
	}
}

func TestPairFromInternalNameForm(t *testing.T) {
	t.Parallel()
	client := newTestKrakenApi(&FakeRoundTripper{status: http.StatusOK})

	pair, err := client.pairFromInternal("XXBTZUSD")
	require.NoError(t, err)
	assert.Equal(t, models.CurrencyPair{Trading: "BTC", Settlement: "USD"}, pair)
}

func TestPairFromInternalPrefersLongestSymbol(t *testing.T) {
	t.Parallel()
	client := newTestKrakenApi(&FakeRoundTripper{status: http.StatusOK})

	// USD is a prefix of USDT; the longer symbol must win the first leg
	pair, err := client.pairFromInternal("USDTZUSD")
	require.NoError(t, err)
	assert.Equal(t, models.CurrencyPair{Trading: "USDT", Settlement: "USD"}, pair)
}

func TestPairFromInternalUnparseable(t *testing.T) {
	t.Parallel()
	client := newTestKrakenApi(&FakeRoundTripper{status: http.StatusOK})

	_, err := client.pairFromInternal("FOOBARBAZ")
	require.Error(t, err)
	var pairErr *models.UnparseablePairError
	require.True(t, errors.As(err, &pairErr))
	assert.Equal(t, "FOOBARBAZ", pairErr.Input)
}

func TestUnknownSymbolRejected(t *testing.T) {
	t.Parallel()
	client := newTestKrakenApi(&FakeRoundTripper{status: http.StatusOK})

	var symErr *models.UnknownSymbolError

	_, err := client.toInternal(models.CurrencyPair{Trading: "FOO", Settlement: "USD"})
	require.True(t, errors.As(err, &symErr))

	_, err = client.toInternal(models.CurrencyPair{Trading: "BTC", Settlement: "FOO"})
	require.True(t, errors.As(err, &symErr))

	_, err = client.MinTradable("FOO")
	require.True(t, errors.As(err, &symErr))
}

func TestMinTradable(t *testing.T) {
	t.Parallel()
	client := newTestKrakenApi(&FakeRoundTripper{status: http.StatusOK})

	min, err := client.MinTradable("BTC")
	require.NoError(t, err)
	assert.Equal(t, 0.002, min)

	// alias and case insensitive
	min, err = client.MinTradable("xbt")
	require.NoError(t, err)
	assert.Equal(t, 0.002, min)

	min, err = client.MinTradable("DOGE")
	require.NoError(t, err)
	assert.Equal(t, 3000.0, min)
}

func TestAssetsFetchedOnceAndRefreshable(t *testing.T) {
	t.Parallel()
	rt := &FakeRoundTripper{
		message: `{"error":[],"result":{"XXBT":{"aclass":"currency","altname":"XBT","decimals":10},"ZUSD":{"aclass":"currency","altname":"USD","decimals":4}}}`,
		status:  http.StatusOK,
	}
	client, err := NewKrakenApi("APIKEY", "c2VjcmV0a2V5")
	require.NoError(t, err)
	client.BaseURL = "http://localhost:4243"
	client.HttpClient = http.Client{Transport: rt}

	assets, err := client.assets()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"XXBT": "XBT", "ZUSD": "USD"}, assets)
	require.Len(t, rt.requests, 1)

	_, err = client.assets()
	require.NoError(t, err)
	require.Len(t, rt.requests, 1, "second call must be served from cache")

	client.RefreshAssets()
	_, err = client.assets()
	require.NoError(t, err)
	require.Len(t, rt.requests, 2, "refresh must force a new fetch")

	// symbol validation works against the fetched set
	internal, err := client.toInternal(models.CurrencyPair{Trading: "BTC", Settlement: "USD"})
	require.NoError(t, err)
	assert.Equal(t, "XBTUSD", internal)
}

func TestAssetsConcurrentFirstPopulation(t *testing.T) {
	t.Parallel()
	rt := &FakeRoundTripper{
		message: `{"error":[],"result":{"XXBT":{"aclass":"currency","altname":"XBT","decimals":10},"ZUSD":{"aclass":"currency","altname":"USD","decimals":4}}}`,
		status:  http.StatusOK,
	}
	client, err := NewKrakenApi("APIKEY", "c2VjcmV0a2V5")
	require.NoError(t, err)
	client.BaseURL = "http://localhost:4243"
	client.HttpClient = http.Client{Transport: rt}

	const workers = 8
	results := make(chan error, workers)
	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.assets()
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	for err := range results {
		require.NoError(t, err)
	}
	require.Len(t, rt.requests, 1, "racing first callers must share one fetch")
}
