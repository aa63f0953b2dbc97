package kraken

import (
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Jeffail/gabs"
	"github.com/antonholmquist/jason"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/dwbumstead/openat/logger"
	"github.com/dwbumstead/openat/models"
)

const (
	KRAKEN_BASE_URL = "https://api.kraken.com"
	KRAKEN_VERSION  = "0"
)

// Client for the Kraken API.
// API documentation: https://docs.kraken.com/rest/
//
// Every call returns either the mapped result, a models.ResponseError when
// the API handled the request but rejected it, or a models.ServerError when
// the request never got a semantic answer. Margin trading is not supported.
type KrakenApi struct {
	BaseURL    string
	Version    string
	ApiKey     string
	SecretKey  string
	HttpClient http.Client

	// otp is set by the caller when two-factor auth is enabled. Single
	// writer, last write wins; it is relayed verbatim, never cached or
	// derived here.
	otp string

	nonce      *nonceCounter
	assetCache *cache.Cache
	assetM     *sync.Mutex

	aliases    map[string]string
	aliasesRev map[string]string
	minimums   map[string]float64
}

func NewKrakenApi(apikey string, apisecret string) (*KrakenApi, error) {
	return &KrakenApi{
		BaseURL:    KRAKEN_BASE_URL,
		Version:    KRAKEN_VERSION,
		ApiKey:     apikey,
		SecretKey:  apisecret,
		HttpClient: http.Client{Timeout: 10 * time.Second},

		nonce:      &nonceCounter{},
		assetCache: cache.New(cache.NoExpiration, 0),
		assetM:     new(sync.Mutex),

		aliases:    krakenAliases,
		aliasesRev: krakenAliasesRev,
		minimums:   krakenMinimums,
	}, nil
}

func NewKrakenApiWithOtp(apikey string, apisecret string, otp string) (*KrakenApi, error) {
	api, err := NewKrakenApi(apikey, apisecret)
	if err != nil {
		return nil, err
	}
	api.otp = otp
	return api, nil
}

// SetOtp sets or replaces the one-time password sent with private requests.
// Callers must not change it while a request expecting the old value is in
// flight.
func (k *KrakenApi) SetOtp(otp string) {
	k.otp = otp
}

func (k *KrakenApi) SetTransport(transport http.RoundTripper) {
	k.HttpClient.Transport = transport
}

func (k *KrakenApi) publicApiUrl(command string) string {
	return k.BaseURL + "/" + k.Version + "/public/" + command
}

// classifyResult splits the {"error":[],"result":{}} envelope every endpoint
// answers with. A non-empty error list means the API rejected the request;
// the messages are passed through verbatim.
func classifyResult(bs []byte) ([]byte, error) {
	parsed := gjson.ParseBytes(bs)
	if errs := parsed.Get("error").Array(); len(errs) > 0 {
		messages := make([]string, 0, len(errs))
		for _, e := range errs {
			messages = append(messages, e.String())
		}
		return nil, &models.ResponseError{Messages: messages}
	}
	result := parsed.Get("result")
	if !result.Exists() {
		return nil, &models.ResponseError{Messages: []string{"malformed response: no result"}}
	}
	return []byte(result.Raw), nil
}

func (k *KrakenApi) publicApi(command string, params url.Values) ([]byte, error) {
	reqUrl := k.publicApiUrl(command)
	if len(params) > 0 {
		reqUrl += "?" + params.Encode()
	}
	resp, err := k.HttpClient.Get(reqUrl)
	if err != nil {
		return nil, &models.ServerError{Body: err.Error()}
	}
	defer resp.Body.Close()
	bs, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.ServerError{StatusCode: resp.StatusCode, Body: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &models.ServerError{StatusCode: resp.StatusCode, Body: string(bs)}
	}
	return classifyResult(bs)
}

func (k *KrakenApi) privateApi(command string, args map[string]string) ([]byte, error) {
	path := "/" + k.Version + "/private/" + command

	val := url.Values{}
	nonce := k.nonce.next()
	val.Set("nonce", nonce)
	if k.otp != "" {
		val.Set("otp", k.otp)
	}
	for key, v := range args {
		val.Set(key, v)
	}
	body := val.Encode()

	signature, err := sign(path, nonce, body, k.SecretKey)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", k.BaseURL+path, strings.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create request for %s", command)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("API-Key", k.ApiKey)
	req.Header.Set("API-Sign", signature)

	resp, err := k.HttpClient.Do(req)
	if err != nil {
		return nil, &models.ServerError{Body: err.Error()}
	}
	defer resp.Body.Close()
	bs, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.ServerError{StatusCode: resp.StatusCode, Body: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &models.ServerError{StatusCode: resp.StatusCode, Body: string(bs)}
	}
	return classifyResult(bs)
}

// Time returns the server time of the exchange.
func (k *KrakenApi) Time() (time.Time, error) {
	bs, err := k.publicApi("Time", nil)
	if err != nil {
		return time.Time{}, err
	}
	unixtime := gjson.GetBytes(bs, "unixtime")
	if !unixtime.Exists() {
		return time.Time{}, errors.New("no unixtime in time response")
	}
	return time.Unix(unixtime.Int(), 0), nil
}

// Coins lists every currency the exchange currently supports, keyed by the
// caller-facing symbol.
func (k *KrakenApi) Coins() (map[string]models.Coin, error) {
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
	coins := make(map[string]models.Coin, len(children))
	for name, child := range children {
		altname, ok := child.Path("altname").Data().(string)
		if !ok {
			continue
		}
		decimals, _ := child.Path("decimals").Data().(float64)
		symbol := k.canonicalAsset(altname)
		coins[symbol] = models.Coin{
			Name:     name,
			Symbol:   symbol,
			Decimals: int64(decimals),
		}
	}
	return coins, nil
}

// DepositInfo returns the deposit methods the exchange offers for the given
// currency. A zero limit means the method is not limited.
func (k *KrakenApi) DepositInfo(currency string) ([]models.DepositInfo, error) {
	symbol, err := k.internalSymbol(currency)
	if err != nil {
		return nil, err
	}
	bs, err := k.privateApi("DepositMethods", map[string]string{"asset": symbol})
	if err != nil {
		return nil, err
	}
	canonical := k.canonicalAsset(strings.ToUpper(currency))
	infos := make([]models.DepositInfo, 0)
	for _, method := range gjson.ParseBytes(bs).Array() {
		limit := 0.0
		if l := method.Get("limit"); l.Type == gjson.String {
			limit = l.Float()
		}
		infos = append(infos, models.DepositInfo{
			Currency: canonical,
			Method:   method.Get("method").String(),
			Limit:    limit,
			Fee:      method.Get("fee").Float(),
		})
	}
	return infos, nil
}

// MarketInfo lists every tradable pair with its taker fee rate and the
// minimum order size where one is published. Pairs whose symbols cannot be
// decomposed are skipped.
func (k *KrakenApi) MarketInfo() ([]models.MarketInfo, error) {
	bs, err := k.publicApi("AssetPairs", nil)
	if err != nil {
		return nil, err
	}
	parsed, err := gabs.ParseJSON(bs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse asset pair json")
	}
	children, err := parsed.ChildrenMap()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse asset pair json")
	}
	infos := make([]models.MarketInfo, 0, len(children))
	for name, child := range children {
		// dark pool entries duplicate the pair with a ".d" suffix
		if strings.HasSuffix(name, ".d") {
			continue
		}
		info, err := k.marketInfoEntry(name, child)
		if err != nil {
			logger.Get().Warnf("skipping pair %s: %v", name, err)
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (k *KrakenApi) marketInfoEntry(name string, child *gabs.Container) (models.MarketInfo, error) {
	pair, err := k.pairFromInternal(name)
	if err != nil {
		return models.MarketInfo{}, err
	}
	takerFee := 0.0
	if fees, err := child.Path("fees").Children(); err == nil && len(fees) > 0 {
		if tier, err := fees[0].Children(); err == nil && len(tier) == 2 {
			fee, _ := tier[1].Data().(float64)
			takerFee = fee / 100
		}
	}
	min, _ := k.minTradable(pair.Trading)
	return models.MarketInfo{
		Pair:     pair,
		MinLimit: min,
		MinerFee: takerFee,
	}, nil
}

// PairInfo returns the market info for one pair, including its current rate.
func (k *KrakenApi) PairInfo(pair models.CurrencyPair) (models.MarketInfo, error) {
	internal, err := k.toInternal(pair)
	if err != nil {
		return models.MarketInfo{}, err
	}
	bs, err := k.publicApi("AssetPairs", url.Values{"pair": {internal}})
	if err != nil {
		return models.MarketInfo{}, err
	}
	parsed, err := gabs.ParseJSON(bs)
	if err != nil {
		return models.MarketInfo{}, errors.Wrap(err, "failed to parse asset pair json")
	}
	children, err := parsed.ChildrenMap()
	if err != nil {
		return models.MarketInfo{}, errors.Wrap(err, "failed to parse asset pair json")
	}
	for name, child := range children {
		info, err := k.marketInfoEntry(name, child)
		if err != nil {
			return models.MarketInfo{}, err
		}
		ticker, err := k.Ticker(pair)
		if err != nil {
			return models.MarketInfo{}, err
		}
		info.Rate = ticker.Last
		return info, nil
	}
	return models.MarketInfo{}, errors.Errorf("no market info for %s", pair)
}

// Balances returns the held amount of every currency of the account, keyed
// by the caller-facing symbol. Currencies with a zero balance are omitted by
// the exchange.
func (k *KrakenApi) Balances() (map[string]float64, error) {
	bs, err := k.privateApi("Balance", nil)
	if err != nil {
		return nil, err
	}
	obj, err := jason.NewObjectFromBytes(bs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse balance json")
	}
	balances := make(map[string]float64)
	for name, v := range obj.Map() {
		amountStr, err := v.String()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %v as string", v)
		}
		amount, err := strconv.ParseFloat(amountStr, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s as float", amountStr)
		}
		balances[k.canonicalAsset(name)] = amount
	}
	return balances, nil
}

// CompleteBalances splits each balance into the freely available part and
// the part locked in open orders. The exchange reports totals only, so the
// locked part is derived from the open orders: the traded asset for sells,
// the settlement asset for buys.
func (k *KrakenApi) CompleteBalances() (map[string]*models.Balance, error) {
	balances, err := k.Balances()
	if err != nil {
		return nil, err
	}
	orders, err := k.OpenOrders()
	if err != nil {
		return nil, err
	}
	onOrders := make(map[string]float64)
	for _, order := range orders {
		if order.Type == models.Ask {
			onOrders[order.Trading] += order.Amount
		} else {
			onOrders[order.Settlement] += order.Amount * order.Price
		}
	}
	complete := make(map[string]*models.Balance, len(balances))
	for currency, total := range balances {
		held := onOrders[currency]
		complete[currency] = models.NewBalance(total-held, held)
	}
	return complete, nil
}

// Balance returns the held amount of one currency, accepting the exchange
// spelling as well as the canonical one; zero when the exchange does not
// report the currency at all.
func (k *KrakenApi) Balance(currency string) (float64, error) {
	balances, err := k.Balances()
	if err != nil {
		return 0, err
	}
	return balances[k.canonicalAsset(strings.ToUpper(currency))], nil
}

// Ticker returns the current ticker of the pair.
func (k *KrakenApi) Ticker(pair models.CurrencyPair) (models.Ticker, error) {
	internal, err := k.toInternal(pair)
	if err != nil {
		return models.Ticker{}, err
	}
	bs, err := k.publicApi("Ticker", url.Values{"pair": {internal}})
	if err != nil {
		return models.Ticker{}, err
	}
	var ticker models.Ticker
	found := false
	// the result is keyed by the exchange's own spelling of the pair
	gjson.ParseBytes(bs).ForEach(func(_, v gjson.Result) bool {
		ticker = models.Ticker{
			Pair:   pair,
			Ask:    v.Get("a.0").Float(),
			Bid:    v.Get("b.0").Float(),
			Last:   v.Get("c.0").Float(),
			Volume: v.Get("v.1").Float(),
			High:   v.Get("h.1").Float(),
			Low:    v.Get("l.1").Float(),
		}
		found = true
		return false
	})
	if !found {
		return models.Ticker{}, errors.Errorf("no ticker for %s", pair)
	}
	return ticker, nil
}

// Board returns the order book of the pair.
func (k *KrakenApi) Board(pair models.CurrencyPair) (models.Board, error) {
	internal, err := k.toInternal(pair)
	if err != nil {
		return models.Board{}, err
	}
	bs, err := k.publicApi("Depth", url.Values{"pair": {internal}})
	if err != nil {
		return models.Board{}, err
	}
	board := models.Board{}
	found := false
	gjson.ParseBytes(bs).ForEach(func(_, v gjson.Result) bool {
		for _, level := range v.Get("asks").Array() {
			board.Asks = append(board.Asks, models.BoardOrder{
				Type:   models.Ask,
				Price:  level.Get("0").Float(),
				Amount: level.Get("1").Float(),
			})
		}
		for _, level := range v.Get("bids").Array() {
			board.Bids = append(board.Bids, models.BoardOrder{
				Type:   models.Bid,
				Price:  level.Get("0").Float(),
				Amount: level.Get("1").Float(),
			})
		}
		found = true
		return false
	})
	if !found {
		return models.Board{}, errors.Errorf("no order book for %s", pair)
	}
	return board, nil
}

// OpenOrders returns the open orders of the account.
func (k *KrakenApi) OpenOrders() ([]*models.Order, error) {
	bs, err := k.privateApi("OpenOrders", nil)
	if err != nil {
		return nil, err
	}
	return k.parseOrders(bs, "open")
}

// ClosedOrders returns the closed orders of the account.
func (k *KrakenApi) ClosedOrders() ([]*models.Order, error) {
	bs, err := k.privateApi("ClosedOrders", nil)
	if err != nil {
		return nil, err
	}
	return k.parseOrders(bs, "closed")
}

func (k *KrakenApi) parseOrders(bs []byte, field string) ([]*models.Order, error) {
	obj, err := jason.NewObjectFromBytes(bs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse order json")
	}
	entries, err := obj.GetObject(field)
	if err != nil {
		return nil, errors.Wrapf(err, "no %s orders in response", field)
	}
	var orders []*models.Order
	for txid, v := range entries.Map() {
		entry, err := v.Object()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse order %s", txid)
		}
		order, err := k.parseOrder(txid, entry)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (k *KrakenApi) parseOrder(txid string, entry *jason.Object) (*models.Order, error) {
	descr, err := entry.GetObject("descr")
	if err != nil {
		return nil, errors.Wrapf(err, "no description for order %s", txid)
	}
	pairStr, err := descr.GetString("pair")
	if err != nil {
		return nil, errors.Wrapf(err, "no pair for order %s", txid)
	}
	pair, err := k.pairFromInternal(pairStr)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse pair of order %s", txid)
	}

	side, err := descr.GetString("type")
	if err != nil {
		return nil, errors.Wrapf(err, "no type for order %s", txid)
	}
	var orderType models.OrderType
	switch side {
	case "sell":
		orderType = models.Ask
	case "buy":
		orderType = models.Bid
	default:
		return nil, errors.Errorf("unknown order type: %s", side)
	}

	priceStr, err := descr.GetString("price")
	if err != nil {
		return nil, errors.Wrapf(err, "no price for order %s", txid)
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse price: %s", priceStr)
	}

	volStr, err := entry.GetString("vol")
	if err != nil {
		return nil, errors.Wrapf(err, "no volume for order %s", txid)
	}
	amount, err := strconv.ParseFloat(volStr, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse volume: %s", volStr)
	}

	status, _ := entry.GetString("status")
	opentm, _ := entry.GetFloat64("opentm")

	return &models.Order{
		ExchangeOrderID: txid,
		Type:            orderType,
		Trading:         pair.Trading,
		Settlement:      pair.Settlement,
		Price:           price,
		Amount:          amount,
		Status:          models.OrderStatus(status),
		Timestamp:       time.Unix(int64(opentm), 0),
	}, nil
}

// Place submits the order and fills its ExchangeOrderID. Orders below the
// published minimum size for the traded asset fail locally, before any
// request is dispatched. An order with a zero price is placed at market.
func (k *KrakenApi) Place(order *models.Order) error {
	min, err := k.MinTradable(order.Trading)
	if err != nil {
		return err
	}
	if order.Amount < min {
		return &models.OrderSizeError{Symbol: order.Trading, Amount: order.Amount, Minimum: min}
	}

	pair := models.CurrencyPair{Trading: order.Trading, Settlement: order.Settlement}
	internal, err := k.toInternal(pair)
	if err != nil {
		return err
	}

	var side string
	switch order.Type {
	case models.Ask:
		side = "sell"
	case models.Bid:
		side = "buy"
	default:
		return errors.Errorf("unknown order type %d", order.Type)
	}

	args := map[string]string{
		"pair":   internal,
		"type":   side,
		"volume": strconv.FormatFloat(order.Amount, 'f', -1, 64),
	}
	if order.Price == 0 {
		args["ordertype"] = "market"
	} else {
		args["ordertype"] = "limit"
		args["price"] = strconv.FormatFloat(order.Price, 'f', -1, 64)
	}

	bs, err := k.privateApi("AddOrder", args)
	if err != nil {
		return err
	}
	obj, err := jason.NewObjectFromBytes(bs)
	if err != nil {
		return errors.Wrap(err, "failed to parse order response")
	}
	txids, err := obj.GetStringArray("txid")
	if err != nil || len(txids) == 0 {
		return errors.Errorf("no txid in order response %s", string(bs))
	}
	order.ExchangeOrderID = txids[0]
	order.Status = models.OrderStatusOpen
	return nil
}

// Cancel cancels the order identified by its ExchangeOrderID.
func (k *KrakenApi) Cancel(order *models.Order) error {
	if order.ExchangeOrderID == "" {
		return errors.New("order has no exchange order id")
	}
	bs, err := k.privateApi("CancelOrder", map[string]string{"txid": order.ExchangeOrderID})
	if err != nil {
		return err
	}
	obj, err := jason.NewObjectFromBytes(bs)
	if err != nil {
		return errors.Wrap(err, "failed to parse cancel response")
	}
	count, err := obj.GetInt64("count")
	if err != nil {
		return errors.Wrap(err, "no count in cancel response")
	}
	if count < 1 {
		return errors.Errorf("order %s was not canceled", order.ExchangeOrderID)
	}
	order.Status = models.OrderStatusCanceled
	return nil
}
