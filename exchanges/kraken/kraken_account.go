package kraken

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// GetAccountBalance retrieves all cash balances, net of pending withdrawals
func (k *Kraken) GetAccountBalance(ctx context.Context) (map[string]decimal.Decimal, error) {
	var result map[string]decimal.Decimal
	if err := k.sendPrivate(ctx, "Balance", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetExtendedBalance returns balances including credit and held amounts
func (k *Kraken) GetExtendedBalance(ctx context.Context) (map[string]Balance, error) {
	var result map[string]Balance
	if err := k.sendPrivate(ctx, "BalanceEx", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetTradeBalance returns a summary of collateral balances, margin position
// valuations, equity and margin level. asset is the base asset used to
// determine balance and defaults to ZUSD when empty.
func (k *Kraken) GetTradeBalance(ctx context.Context, asset string) (*TradeBalanceInfo, error) {
	params := NewParams()
	if asset != "" {
		params.Set("asset", asset)
	}
	var result TradeBalanceInfo
	if err := k.sendPrivate(ctx, "TradeBalance", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetOpenOrders returns all current open orders
func (k *Kraken) GetOpenOrders(ctx context.Context, trades bool) (*OpenOrders, error) {
	params := NewParams()
	if trades {
		params.Set("trades", true)
	}
	var result OpenOrders
	if err := k.sendPrivate(ctx, "OpenOrders", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetClosedOrders returns a list of closed orders
func (k *Kraken) GetClosedOrders(ctx context.Context, args GetClosedOrdersOptions) (*ClosedOrders, error) {
	params := NewParams()
	if args.Trades {
		params.Set("trades", true)
	}
	if args.UserRef != 0 {
		params.Set("userref", args.UserRef)
	}
	if args.Start != "" {
		params.Set("start", args.Start)
	}
	if args.End != "" {
		params.Set("end", args.End)
	}
	if args.Ofs > 0 {
		params.Set("ofs", args.Ofs)
	}
	if args.CloseTime != "" {
		params.Set("closetime", args.CloseTime)
	}

	var result ClosedOrders
	if err := k.sendPrivate(ctx, "ClosedOrders", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// QueryOrdersInfo returns order information for up to 50 transaction or
// client order ids
func (k *Kraken) QueryOrdersInfo(ctx context.Context, trades bool, txids ...string) (map[string]OrderInfo, error) {
	if len(txids) == 0 {
		return nil, errTxIDRequired
	}
	if len(txids) > maxQueryTxIDs {
		return nil, errTooManyTxIDs
	}
	params := NewParams()
	if trades {
		params.Set("trades", true)
	}
	params.Set("txid", strings.Join(txids, ","))

	var result map[string]OrderInfo
	if err := k.sendPrivate(ctx, "QueryOrders", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetTradesHistory returns trade history information, 50 results at a time
// starting with the most recent
func (k *Kraken) GetTradesHistory(ctx context.Context, args GetTradesHistoryOptions) (*TradesHistory, error) {
	params := NewParams()
	if args.Type != "" {
		params.Set("type", args.Type)
	}
	if args.Trades {
		params.Set("trades", true)
	}
	if args.Start != "" {
		params.Set("start", args.Start)
	}
	if args.End != "" {
		params.Set("end", args.End)
	}
	if args.Ofs > 0 {
		params.Set("ofs", args.Ofs)
	}
	if args.ConsolidateTaker != nil {
		params.Set("consolidate_taker", *args.ConsolidateTaker)
	}

	var result TradesHistory
	if err := k.sendPrivate(ctx, "TradesHistory", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetOpenPositions returns open margin positions, optionally restricted to
// txids. docalcs asks Kraken to include profit/loss calculations.
func (k *Kraken) GetOpenPositions(ctx context.Context, docalcs bool, txids ...string) (map[string]Position, error) {
	params := NewParams()
	if len(txids) > 0 {
		params.Set("txid", strings.Join(txids, ","))
	}
	if docalcs {
		params.Set("docalcs", true)
	}

	var result map[string]Position
	if err := k.sendPrivate(ctx, "OpenPositions", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}
