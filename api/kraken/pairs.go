package kraken

import (
	"sort"
	"strings"

	"github.com/Jeffail/gabs"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/dwbumstead/openat/models"
)

const assetsCacheKey = "assets"

// Kraken lists bitcoin as XBT while callers use BTC.
var (
	krakenAliases    = map[string]string{"BTC": "XBT"}
	krakenAliasesRev = map[string]string{"XBT": "BTC"}
)

// Published minimum order sizes, keyed by exchange symbol. A local snapshot
// used only as a pre-flight check; the exchange remains authoritative.
// https://support.kraken.com/hc/en-us/articles/205893708-What-is-the-minimum-order-size-
var krakenMinimums = map[string]float64{
	"REP":  0.3,
	"XBT":  0.002,
	"BCH":  0.002,
	"DASH": 0.03,
	"DOGE": 3000,
	"EOS":  3,
	"ETH":  0.02,
	"ETC":  0.3,
	"GNO":  0.03,
	"ICN":  2,
	"LTC":  0.1,
	"MLN":  0.1,
	"XMR":  0.1,
	"XRP":  30,
	"XLM":  300,
	"ZEC":  0.03,
	"USDT": 5,
}

// assets returns the asset table of the exchange, internal name to altname
// (e.g. XXBT -> XBT, ZUSD -> USD). It is fetched once per process from the
// Assets endpoint and cached until RefreshAssets is called.
func (k *KrakenApi) assets() (map[string]string, error) {
	if v, ok := k.assetCache.Get(assetsCacheKey); ok {
		return v.(map[string]string), nil
	}
	k.assetM.Lock()
	defer k.assetM.Unlock()
	if v, ok := k.assetCache.Get(assetsCacheKey); ok {
		return v.(map[string]string), nil
	}
	bs, err := k.publicApi("Assets", nil)
	if err != nil {
		return nil, err
	}
	parsed, err := gabs.ParseJSON(bs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse asset json")
	}
	children, err := parsed.ChildrenMap()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse asset json")
	}
	m := make(map[string]string, len(children))
	for name, child := range children {
		altname, ok := child.Path("altname").Data().(string)
		if !ok {
			continue
		}
		m[name] = altname
	}
	k.assetCache.Set(assetsCacheKey, m, cache.NoExpiration)
	return m, nil
}

// RefreshAssets drops the cached asset table so that the next call fetches
// a fresh copy from the exchange.
func (k *KrakenApi) RefreshAssets() {
	k.assetCache.Delete(assetsCacheKey)
}

// internalSymbol maps a caller symbol to the form the exchange accepts and
// verifies the exchange actually lists it.
func (k *KrakenApi) internalSymbol(symbol string) (string, error) {
	s := strings.ToUpper(symbol)
	if alias, ok := k.aliases[s]; ok {
		s = alias
	}
	assets, err := k.assets()
	if err != nil {
		return "", err
	}
	for name, altname := range assets {
		if s == altname || s == name {
			return s, nil
		}
	}
	return "", &models.UnknownSymbolError{Symbol: symbol}
}

// toInternal translates a pair into the concatenated symbol string the
// exchange takes as its pair parameter, e.g. BTC/USD -> "XBTUSD".
func (k *KrakenApi) toInternal(pair models.CurrencyPair) (string, error) {
	trading, err := k.internalSymbol(pair.Trading)
	if err != nil {
		return "", err
	}
	settlement, err := k.internalSymbol(pair.Settlement)
	if err != nil {
		return "", err
	}
	return trading + settlement, nil
}

// pairFromInternal splits a concatenated pair string such as "XXBTZUSD" or
// "XBTUSD" into its legs by matching known symbols longest-first, so that a
// symbol sharing a prefix with another cannot shadow it.
func (k *KrakenApi) pairFromInternal(s string) (models.CurrencyPair, error) {
	assets, err := k.assets()
	if err != nil {
		return models.CurrencyPair{}, err
	}
	symbols := make([]string, 0, len(assets)*2)
	for name, altname := range assets {
		symbols = append(symbols, name)
		if altname != name {
			symbols = append(symbols, altname)
		}
	}
	sort.Slice(symbols, func(i, j int) bool {
		if len(symbols[i]) != len(symbols[j]) {
			return len(symbols[i]) > len(symbols[j])
		}
		return symbols[i] < symbols[j]
	})
	for _, trading := range symbols {
		if !strings.HasPrefix(s, trading) {
			continue
		}
		rest := s[len(trading):]
		if rest == "" {
			continue
		}
		for _, settlement := range symbols {
			if rest == settlement {
				return models.CurrencyPair{
					Trading:    k.canonicalSymbol(trading, assets),
					Settlement: k.canonicalSymbol(settlement, assets),
				}, nil
			}
		}
	}
	return models.CurrencyPair{}, &models.UnparseablePairError{Input: s}
}

// canonicalSymbol maps an exchange symbol, in either internal-name or
// altname form, back to the caller-facing symbol.
func (k *KrakenApi) canonicalSymbol(s string, assets map[string]string) string {
	if altname, ok := assets[s]; ok {
		s = altname
	}
	if canonical, ok := k.aliasesRev[s]; ok {
		s = canonical
	}
	return s
}

// canonicalAsset is canonicalSymbol for contexts where the asset table may
// not be loaded, such as balance keys: Kraken prefixes currencies with an
// asset class letter (XXBT, ZUSD) which is dropped locally.
func (k *KrakenApi) canonicalAsset(s string) string {
	if len(s) == 4 && (s[0] == 'X' || s[0] == 'Z') {
		s = s[1:]
	}
	if canonical, ok := k.aliasesRev[s]; ok {
		s = canonical
	}
	return s
}

// MinTradable returns the smallest amount the exchange accepts in an order
// for the given asset. Unknown assets are an error, never zero: treating an
// unknown minimum as unrestricted would let provably invalid orders through.
func (k *KrakenApi) MinTradable(symbol string) (float64, error) {
	min, ok := k.minTradable(symbol)
	if !ok {
		return 0, &models.UnknownSymbolError{Symbol: symbol}
	}
	return min, nil
}

func (k *KrakenApi) minTradable(symbol string) (float64, bool) {
	s := strings.ToUpper(symbol)
	if alias, ok := k.aliases[s]; ok {
		s = alias
	}
	min, ok := k.minimums[s]
	return min, ok
}
