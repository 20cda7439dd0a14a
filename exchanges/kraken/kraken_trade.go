package kraken

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/kat-co/vala"
	"github.com/opa-project/opa/log"
	"github.com/shopspring/decimal"
)

// AddOrder submits an order. Unless req.Execute is set the order is sent with
// validate=true and Kraken only checks it. A client order id is generated
// when req.ClientOrderID is empty and returned in the response.
func (k *Kraken) AddOrder(ctx context.Context, req *AddOrderRequest) (*AddOrderResponse, error) {
	if req == nil {
		return nil, errNoOrderRequest
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	clientOrderID := req.ClientOrderID
	if clientOrderID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return nil, err
		}
		clientOrderID = id.String()
	}

	params := NewParams()
	params.Set("ordertype", strings.ToLower(req.OrderType))
	params.Set("type", strings.ToLower(req.Side))
	params.Set("volume", req.Volume)
	params.Set("pair", req.Pair)
	if !req.Price.IsZero() {
		params.Set("price", req.Price)
	}
	if !req.Price2.IsZero() {
		params.Set("price2", req.Price2)
	}
	if req.Leverage != "" {
		params.Set("leverage", req.Leverage)
	}
	if req.OrderFlags != "" {
		params.Set("oflags", req.OrderFlags)
	}
	if req.TimeInForce != "" {
		params.Set("timeinforce", req.TimeInForce)
	}
	if req.StartTm != "" {
		params.Set("starttm", req.StartTm)
	}
	if req.ExpireTm != "" {
		params.Set("expiretm", req.ExpireTm)
	}
	if req.UserRef != 0 {
		params.Set("userref", req.UserRef)
	}
	if req.ReduceOnly {
		params.Set("reduce_only", true)
	}
	params.Set("cl_ord_id", clientOrderID)
	if !req.Execute {
		params.Set("validate", true)
	}

	var result AddOrderResponse
	if err := k.sendPrivate(ctx, "AddOrder", params, &result); err != nil {
		return nil, err
	}
	result.ClientOrderID = clientOrderID
	result.Validated = !req.Execute
	if req.Execute {
		log.Infof(log.ExchangeSys, "%s: placed %s %s order %s for %s %s", k.Name,
			req.Side, req.OrderType, strings.Join(result.TransactionIDs, ","), req.Volume, req.Pair)
	} else {
		log.Debugf(log.ExchangeSys, "%s: validated %s %s order for %s %s", k.Name,
			req.Side, req.OrderType, req.Volume, req.Pair)
	}
	return &result, nil
}

// PlaceBuyOrder submits a buy order. A zero price places a market order,
// otherwise a limit order at price.
func (k *Kraken) PlaceBuyOrder(ctx context.Context, pair string, volume, price decimal.Decimal, execute bool) (*AddOrderResponse, error) {
	return k.AddOrder(ctx, simpleOrder(pair, SideBuy, volume, price, execute))
}

// PlaceSellOrder submits a sell order. A zero price places a market order,
// otherwise a limit order at price.
func (k *Kraken) PlaceSellOrder(ctx context.Context, pair string, volume, price decimal.Decimal, execute bool) (*AddOrderResponse, error) {
	return k.AddOrder(ctx, simpleOrder(pair, SideSell, volume, price, execute))
}

func simpleOrder(pair, side string, volume, price decimal.Decimal, execute bool) *AddOrderRequest {
	orderType := OrderTypeMarket
	if price.IsPositive() {
		orderType = OrderTypeLimit
	}
	return &AddOrderRequest{
		Pair:      pair,
		Side:      side,
		OrderType: orderType,
		Volume:    volume,
		Price:     price,
		Execute:   execute,
	}
}

// CancelOrder cancels an open order by transaction id or client order id
func (k *Kraken) CancelOrder(ctx context.Context, txid string) (*CancelOrderResponse, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(txid, "txid"),
	).Check(); err != nil {
		return nil, err
	}
	params := NewParams()
	params.Set("txid", txid)

	var result CancelOrderResponse
	if err := k.sendPrivate(ctx, "CancelOrder", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *AddOrderRequest) validate() error {
	side := strings.ToLower(r.Side)
	orderType := strings.ToLower(r.OrderType)
	return vala.BeginValidation().Validate(
		vala.StringNotEmpty(r.Pair, "pair"),
		vala.StringNotEmpty(r.Side, "side"),
		vala.StringNotEmpty(r.OrderType, "ordertype"),
		oneOf(side, "side", SideBuy, SideSell),
		positive(r.Volume, "volume"),
		priceRequired(orderType, r.Price),
	).Check()
}

func oneOf(v, name string, allowed ...string) vala.Checker {
	return func() (bool, string) {
		for _, a := range allowed {
			if v == a {
				return true, ""
			}
		}
		return false, fmt.Sprintf("parameter %s must be one of %s, got %q", name, strings.Join(allowed, ", "), v)
	}
}

func positive(d decimal.Decimal, name string) vala.Checker {
	return func() (bool, string) {
		if d.IsPositive() {
			return true, ""
		}
		return false, fmt.Sprintf("parameter %s must be greater than zero", name)
	}
}

func priceRequired(orderType string, price decimal.Decimal) vala.Checker {
	return func() (bool, string) {
		if orderType == OrderTypeMarket || price.IsPositive() {
			return true, ""
		}
		return false, fmt.Sprintf("parameter price must be greater than zero for %s orders", orderType)
	}
}
