package kraken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opa-project/opa/encoding/json"
	"github.com/shopspring/decimal"
)

// Default OHLC query values
const (
	DefaultOHLCInterval = 1440
	DefaultOHLCLookback = 7 * 24 * time.Hour

	maxQueryTxIDs = 50
)

var (
	errTxIDRequired    = errors.New("at least one transaction id is required")
	errTooManyTxIDs    = fmt.Errorf("no more than %d transaction ids may be queried at once", maxQueryTxIDs)
	errInvalidInfo     = errors.New("parameter info can only be 'info', 'margin', 'fees' or 'leverage'")
	errInvalidInterval = errors.New("invalid OHLC interval")
	errPairRequired    = errors.New("pair is required")
	errInvalidOHLCData = errors.New("invalid OHLC data returned")
	errNoOrderRequest  = errors.New("add order request is nil")
)

// Response is the envelope every Kraken REST endpoint returns
type Response struct {
	Error  ErrorList       `json:"error"`
	Result json.RawMessage `json:"result"`
}

// ErrorList holds the verbatim entries of a response error field. Kraken
// sends an array but some endpoints return a bare string.
type ErrorList []string

// UnmarshalJSON accepts a string or an array of strings
func (e *ErrorList) UnmarshalJSON(data []byte) error {
	var errInterface any
	if err := json.Unmarshal(data, &errInterface); err != nil {
		return err
	}

	switch d := errInterface.(type) {
	case nil:
		*e = nil
	case string:
		if d != "" {
			*e = ErrorList{d}
		}
	case []any:
		out := make(ErrorList, 0, len(d))
		for x := range d {
			errStr, ok := d[x].(string)
			if !ok {
				return fmt.Errorf("unable to convert %v to string", d[x])
			}
			out = append(out, errStr)
		}
		*e = out
	default:
		return fmt.Errorf("unhandled error response type %T", errInterface)
	}
	return nil
}

// Err returns an *APIError holding every error entry, or nil when the
// response carries none. Entries not prefixed with 'E' are warnings.
func (r *Response) Err() error {
	var msgs []string
	for _, s := range r.Error {
		if isError(s) {
			msgs = append(msgs, s)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return &APIError{Messages: msgs}
}

// Warnings returns a string of warnings
func (r *Response) Warnings() string {
	var w []string
	for _, s := range r.Error {
		if !isError(s) {
			w = append(w, s)
		}
	}
	return strings.Join(w, ", ")
}

func isError(s string) bool {
	return s != "" && s[0] == 'E'
}

// APIError carries the error strings returned by Kraken, unmodified
type APIError struct {
	Messages []string
}

func (e *APIError) Error() string {
	return "kraken API error: " + strings.Join(e.Messages, ", ")
}

// Has reports whether any message starts with prefix, for example
// "EAPI:Invalid nonce"
func (e *APIError) Has(prefix string) bool {
	for _, m := range e.Messages {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}

// TimeResponse represents the server time
type TimeResponse struct {
	Unixtime int64  `json:"unixtime"`
	Rfc1123  string `json:"rfc1123"`
}

// SystemStatusResponse defines the response for the system status endpoint
type SystemStatusResponse struct {
	Status    string `json:"status"` // online, maintenance, cancel_only, post_only
	Timestamp string `json:"timestamp"`
}

// Asset holds asset information
type Asset struct {
	Altname         string          `json:"altname"`
	Aclass          string          `json:"aclass"`
	Decimals        int             `json:"decimals"`
	DisplayDecimals int             `json:"display_decimals"`
	CollateralValue decimal.Decimal `json:"collateral_value"`
	Status          string          `json:"status"`
}

// AssetPair holds asset pair information
type AssetPair struct {
	Altname           string          `json:"altname"`
	Wsname            string          `json:"wsname"`
	AclassBase        string          `json:"aclass_base"`
	Base              string          `json:"base"`
	AclassQuote       string          `json:"aclass_quote"`
	Quote             string          `json:"quote"`
	PairDecimals      int             `json:"pair_decimals"`
	CostDecimals      int             `json:"cost_decimals"`
	LotDecimals       int             `json:"lot_decimals"`
	LotMultiplier     int             `json:"lot_multiplier"`
	LeverageBuy       []int           `json:"leverage_buy"`
	LeverageSell      []int           `json:"leverage_sell"`
	Fees              [][]float64     `json:"fees"`
	FeesMaker         [][]float64     `json:"fees_maker"`
	FeeVolumeCurrency string          `json:"fee_volume_currency"`
	MarginCall        int             `json:"margin_call"`
	MarginStop        int             `json:"margin_stop"`
	OrderMinimum      decimal.Decimal `json:"ordermin"`
	CostMinimum       decimal.Decimal `json:"costmin"`
	TickSize          decimal.Decimal `json:"tick_size"`
	Status            string          `json:"status"`
}

// Candle is one OHLC interval for a pair
type Candle struct {
	Pair   string          `json:"pair"`
	Time   time.Time       `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	VWAP   decimal.Decimal `json:"vwap"`
	Volume decimal.Decimal `json:"volume"`
	Count  int64           `json:"count"`
}

// OHLCResponse holds the candles for a single pair along with the id to pass
// as since when polling for newer data
type OHLCResponse struct {
	Pair    string   `json:"pair"`
	Candles []Candle `json:"candles"`
	Last    int64    `json:"last"`
}

// Balance represents an extended account asset balance
type Balance struct {
	Total      decimal.Decimal `json:"balance"`
	Hold       decimal.Decimal `json:"hold_trade"`
	Credit     decimal.Decimal `json:"credit"`
	CreditUsed decimal.Decimal `json:"credit_used"`
}

// Available returns the balance not held by open orders
func (b Balance) Available() decimal.Decimal {
	return b.Total.Add(b.Credit).Sub(b.CreditUsed).Sub(b.Hold)
}

// TradeBalanceInfo type
type TradeBalanceInfo struct {
	EquivalentBalance decimal.Decimal `json:"eb"` // combined balance of all currencies
	TradeBalance      decimal.Decimal `json:"tb"` // combined balance of all equity currencies
	MarginAmount      decimal.Decimal `json:"m"`
	Net               decimal.Decimal `json:"n"`
	CostBasis         decimal.Decimal `json:"c"`
	FloatingValuation decimal.Decimal `json:"v"`
	Equity            decimal.Decimal `json:"e"`
	FreeMargin        decimal.Decimal `json:"mf"`
	MarginLevel       decimal.Decimal `json:"ml"`
	UnexecutedValue   decimal.Decimal `json:"uv"`
}

// OrderDescription describes an order as Kraken echoes it back
type OrderDescription struct {
	Pair      string          `json:"pair"`
	Type      string          `json:"type"`
	OrderType string          `json:"ordertype"`
	Price     decimal.Decimal `json:"price"`
	Price2    decimal.Decimal `json:"price2"`
	Leverage  string          `json:"leverage"`
	Order     string          `json:"order"`
	Close     string          `json:"close"`
}

// OrderInfo type
type OrderInfo struct {
	RefID          string           `json:"refid"`
	UserRef        int64            `json:"userref"`
	ClientOrderID  string           `json:"cl_ord_id"`
	Status         string           `json:"status"`
	OpenTime       float64          `json:"opentm"`
	CloseTime      float64          `json:"closetm"`
	StartTime      float64          `json:"starttm"`
	ExpireTime     float64          `json:"expiretm"`
	Description    OrderDescription `json:"descr"`
	Volume         decimal.Decimal  `json:"vol"`
	VolumeExecuted decimal.Decimal  `json:"vol_exec"`
	Cost           decimal.Decimal  `json:"cost"`
	Fee            decimal.Decimal  `json:"fee"`
	Price          decimal.Decimal  `json:"price"`
	StopPrice      decimal.Decimal  `json:"stopprice"`
	LimitPrice     decimal.Decimal  `json:"limitprice"`
	Misc           string           `json:"misc"`
	OrderFlags     string           `json:"oflags"`
	Trades         []string         `json:"trades"`
	Reason         string           `json:"reason,omitempty"`
}

// OpenOrders type
type OpenOrders struct {
	Open map[string]OrderInfo `json:"open"`
}

// ClosedOrders type
type ClosedOrders struct {
	Closed map[string]OrderInfo `json:"closed"`
	Count  int64                `json:"count"`
}

// GetClosedOrdersOptions type
type GetClosedOrdersOptions struct {
	Trades    bool
	UserRef   int32
	Start     string
	End       string
	Ofs       int64
	CloseTime string // open, close or both
}

// GetTradesHistoryOptions type
type GetTradesHistoryOptions struct {
	Type             string
	Trades           bool
	Start            string
	End              string
	Ofs              int64
	ConsolidateTaker *bool
}

// TradesHistory type
type TradesHistory struct {
	Trades map[string]TradeInfo `json:"trades"`
	Count  int64                `json:"count"`
}

// TradeInfo type
type TradeInfo struct {
	OrderTxID string          `json:"ordertxid"`
	PosTxID   string          `json:"postxid,omitempty"`
	Pair      string          `json:"pair"`
	Time      float64         `json:"time"`
	Type      string          `json:"type"`
	OrderType string          `json:"ordertype"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	Fee       decimal.Decimal `json:"fee"`
	Volume    decimal.Decimal `json:"vol"`
	Margin    decimal.Decimal `json:"margin"`
	Leverage  string          `json:"leverage,omitempty"`
	Misc      string          `json:"misc"`
	Maker     bool            `json:"maker"`
	Trades    []string        `json:"trades,omitempty"`
	PosStatus string          `json:"posstatus,omitempty"`
}

// Position holds the opened position
type Position struct {
	OrderTxID    string          `json:"ordertxid"`
	PosStatus    string          `json:"posstatus"`
	Pair         string          `json:"pair"`
	Time         float64         `json:"time"`
	Type         string          `json:"type"`
	OrderType    string          `json:"ordertype"`
	Cost         decimal.Decimal `json:"cost"`
	Fee          decimal.Decimal `json:"fee"`
	Volume       decimal.Decimal `json:"vol"`
	VolumeClosed decimal.Decimal `json:"vol_closed"`
	Margin       decimal.Decimal `json:"margin"`
	Value        decimal.Decimal `json:"value,omitempty"`
	Net          decimal.Decimal `json:"net,omitempty"`
	Terms        string          `json:"terms"`
	RolloverTime string          `json:"rollovertm"`
	Misc         string          `json:"misc"`
	OrderFlags   string          `json:"oflags"`
}

// Order sides
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Order types
const (
	OrderTypeMarket = "market"
	OrderTypeLimit  = "limit"
)

// AddOrderRequest holds the AddOrder arguments. Orders are sent with
// validate=true, so Kraken only checks them, unless Execute is set.
type AddOrderRequest struct {
	Pair          string
	Side          string
	OrderType     string
	Volume        decimal.Decimal
	Price         decimal.Decimal
	Price2        decimal.Decimal
	Leverage      string
	OrderFlags    string // maps to 'oflags'
	TimeInForce   string // GTC, IOC or GTD
	StartTm       string
	ExpireTm      string
	UserRef       int32
	ClientOrderID string // maps to 'cl_ord_id'; generated when empty
	ReduceOnly    bool
	Execute       bool
}

// AddOrderResponse type
type AddOrderResponse struct {
	Description    OrderDescription `json:"descr"`
	TransactionIDs []string         `json:"txid"`
	ClientOrderID  string           `json:"cl_ord_id,omitempty"`
	Validated      bool             `json:"validated"`
}

// CancelOrderResponse type
type CancelOrderResponse struct {
	Count   int64 `json:"count"`
	Pending bool  `json:"pending"`
}
