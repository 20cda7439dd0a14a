package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/opa-project/opa/database"
	"github.com/opa-project/opa/database/repository/candle"
	"github.com/opa-project/opa/exchanges/kraken"
	"github.com/opa-project/opa/feeds/sentiment"
	"github.com/opa-project/opa/log"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

const dateLayout = "2006-01-02"

var (
	errNoPairs          = errors.New("no pairs given and none configured")
	errDatabaseDisabled = errors.New("--store requires database.enabled")
)

func (r *runner) commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "balance",
			Usage:  "show the balance of every asset",
			Action: r.balance,
		},
		{
			Name:   "balance-ex",
			Usage:  "show balances including credit and amounts on hold",
			Action: r.balanceEx,
		},
		{
			Name:  "trade-balance",
			Usage: "show margin and equity summary",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "asset", Usage: "base asset for the summary", Value: "ZUSD"},
			},
			Action: r.tradeBalance,
		},
		{
			Name:  "open-orders",
			Usage: "list open orders",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "trades", Usage: "include related trades"},
			},
			Action: r.openOrders,
		},
		{
			Name:  "closed-orders",
			Usage: "list closed orders",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "trades", Usage: "include related trades"},
				&cli.StringFlag{Name: "start", Usage: "unix timestamp or order id to start from"},
				&cli.StringFlag{Name: "end", Usage: "unix timestamp or order id to end at"},
				&cli.Int64Flag{Name: "offset", Usage: "result offset for pagination"},
				&cli.StringFlag{Name: "closetime", Usage: "open, close or both"},
			},
			Action: r.closedOrders,
		},
		{
			Name:  "query-orders",
			Usage: "show up to 50 orders by transaction id",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{Name: "txid", Usage: "transaction id, may be repeated", Required: true},
				&cli.BoolFlag{Name: "trades", Usage: "include related trades"},
			},
			Action: r.queryOrders,
		},
		{
			Name:  "trades-history",
			Usage: "list executed trades",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "type", Usage: "trade type filter", Value: "all"},
				&cli.BoolFlag{Name: "trades", Usage: "include related trades"},
				&cli.StringFlag{Name: "start", Usage: "unix timestamp or trade id to start from"},
				&cli.StringFlag{Name: "end", Usage: "unix timestamp or trade id to end at"},
				&cli.Int64Flag{Name: "offset", Usage: "result offset for pagination"},
			},
			Action: r.tradesHistory,
		},
		{
			Name:  "open-positions",
			Usage: "list open margin positions",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "docalcs", Usage: "include profit and loss calculations"},
				&cli.StringSliceFlag{Name: "txid", Usage: "restrict to these positions"},
			},
			Action: r.openPositions,
		},
		{
			Name:   "buy",
			Usage:  "place a buy order, validated only unless --execute is given",
			Flags:  orderFlags(),
			Action: r.order(kraken.SideBuy),
		},
		{
			Name:   "sell",
			Usage:  "place a sell order, validated only unless --execute is given",
			Flags:  orderFlags(),
			Action: r.order(kraken.SideSell),
		},
		{
			Name:  "cancel",
			Usage: "cancel an open order",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "txid", Usage: "transaction or client order id", Required: true},
			},
			Action: r.cancel,
		},
		{
			Name:  "assets",
			Usage: "list tradable assets",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{Name: "asset", Usage: "restrict to these assets"},
			},
			Action: r.assets,
		},
		{
			Name:  "asset-pairs",
			Usage: "list tradable asset pairs",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{Name: "pair", Usage: "restrict to these pairs"},
				&cli.StringFlag{Name: "info", Usage: "info, leverage, fees or margin"},
			},
			Action: r.assetPairs,
		},
		{
			Name:  "ohlc",
			Usage: "fetch candles for one or more pairs",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{Name: "pair", Usage: "pair to fetch, defaults to market.pairs"},
				&cli.IntFlag{Name: "interval", Usage: "candle width in minutes, defaults to market.interval"},
				&cli.DurationFlag{Name: "lookback", Usage: "how far back to fetch, defaults to market.lookback"},
				&cli.BoolFlag{Name: "store", Usage: "write the candles to the configured database"},
			},
			Action: r.ohlc,
		},
		{
			Name:  "sentiment",
			Usage: "fetch the daily sentiment series",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "start", Usage: "first day to include, " + dateLayout},
				&cli.StringFlag{Name: "end", Usage: "last day to include, " + dateLayout},
			},
			Action: r.sentiment,
		},
		{
			Name:   "time",
			Usage:  "show the exchange server time",
			Action: r.serverTime,
		},
		{
			Name:   "status",
			Usage:  "show the exchange system status",
			Action: r.status,
		},
		{
			Name:   "config",
			Usage:  "print the effective configuration",
			Action: r.showConfig,
		},
	}
}

func orderFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "pair", Usage: "asset pair, e.g. XBTUSD", Required: true},
		&cli.StringFlag{Name: "volume", Usage: "order volume in base currency", Required: true},
		&cli.StringFlag{Name: "price", Usage: "limit price, omit for a market order"},
		&cli.BoolFlag{Name: "execute", Usage: "place the order instead of validating it"},
	}
}

func (r *runner) balance(c *cli.Context) error {
	k, err := r.private(c.Context)
	if err != nil {
		return err
	}
	result, err := k.GetAccountBalance(c.Context)
	if err != nil {
		return err
	}
	return r.print(result)
}

func (r *runner) balanceEx(c *cli.Context) error {
	k, err := r.private(c.Context)
	if err != nil {
		return err
	}
	result, err := k.GetExtendedBalance(c.Context)
	if err != nil {
		return err
	}
	return r.print(result)
}

func (r *runner) tradeBalance(c *cli.Context) error {
	k, err := r.private(c.Context)
	if err != nil {
		return err
	}
	result, err := k.GetTradeBalance(c.Context, c.String("asset"))
	if err != nil {
		return err
	}
	return r.print(result)
}

func (r *runner) openOrders(c *cli.Context) error {
	k, err := r.private(c.Context)
	if err != nil {
		return err
	}
	result, err := k.GetOpenOrders(c.Context, c.Bool("trades"))
	if err != nil {
		return err
	}
	return r.print(result)
}

func (r *runner) closedOrders(c *cli.Context) error {
	k, err := r.private(c.Context)
	if err != nil {
		return err
	}
	result, err := k.GetClosedOrders(c.Context, kraken.GetClosedOrdersOptions{
		Trades:    c.Bool("trades"),
		Start:     c.String("start"),
		End:       c.String("end"),
		Ofs:       c.Int64("offset"),
		CloseTime: c.String("closetime"),
	})
	if err != nil {
		return err
	}
	return r.print(result)
}

func (r *runner) queryOrders(c *cli.Context) error {
	k, err := r.private(c.Context)
	if err != nil {
		return err
	}
	result, err := k.QueryOrdersInfo(c.Context, c.Bool("trades"), c.StringSlice("txid")...)
	if err != nil {
		return err
	}
	return r.print(result)
}

func (r *runner) tradesHistory(c *cli.Context) error {
	k, err := r.private(c.Context)
	if err != nil {
		return err
	}
	result, err := k.GetTradesHistory(c.Context, kraken.GetTradesHistoryOptions{
		Type:   c.String("type"),
		Trades: c.Bool("trades"),
		Start:  c.String("start"),
		End:    c.String("end"),
		Ofs:    c.Int64("offset"),
	})
	if err != nil {
		return err
	}
	return r.print(result)
}

func (r *runner) openPositions(c *cli.Context) error {
	k, err := r.private(c.Context)
	if err != nil {
		return err
	}
	result, err := k.GetOpenPositions(c.Context, c.Bool("docalcs"), c.StringSlice("txid")...)
	if err != nil {
		return err
	}
	return r.print(result)
}

func (r *runner) order(side string) cli.ActionFunc {
	return func(c *cli.Context) error {
		volume, err := decimal.NewFromString(c.String("volume"))
		if err != nil {
			return fmt.Errorf("invalid volume %q: %w", c.String("volume"), err)
		}
		var price decimal.Decimal
		if p := c.String("price"); p != "" {
			if price, err = decimal.NewFromString(p); err != nil {
				return fmt.Errorf("invalid price %q: %w", p, err)
			}
		}
		k, err := r.private(c.Context)
		if err != nil {
			return err
		}
		var result *kraken.AddOrderResponse
		if side == kraken.SideBuy {
			result, err = k.PlaceBuyOrder(c.Context, c.String("pair"), volume, price, c.Bool("execute"))
		} else {
			result, err = k.PlaceSellOrder(c.Context, c.String("pair"), volume, price, c.Bool("execute"))
		}
		if err != nil {
			return err
		}
		return r.print(result)
	}
}

func (r *runner) cancel(c *cli.Context) error {
	k, err := r.private(c.Context)
	if err != nil {
		return err
	}
	result, err := k.CancelOrder(c.Context, c.String("txid"))
	if err != nil {
		return err
	}
	return r.print(result)
}

func (r *runner) assets(c *cli.Context) error {
	k, err := r.public()
	if err != nil {
		return err
	}
	result, err := k.GetAssets(c.Context, c.StringSlice("asset")...)
	if err != nil {
		return err
	}
	return r.print(result)
}

func (r *runner) assetPairs(c *cli.Context) error {
	k, err := r.public()
	if err != nil {
		return err
	}
	result, err := k.GetAssetPairs(c.Context, c.StringSlice("pair"), c.String("info"))
	if err != nil {
		return err
	}
	return r.print(result)
}

func (r *runner) ohlc(c *cli.Context) error {
	pairs := c.StringSlice("pair")
	if len(pairs) == 0 {
		pairs = r.cfg.Market.Pairs
	}
	if len(pairs) == 0 {
		return errNoPairs
	}
	interval := r.cfg.Market.Interval
	if c.IsSet("interval") {
		interval = c.Int("interval")
	}
	lookback := r.cfg.Market.Lookback
	if c.IsSet("lookback") {
		lookback = c.Duration("lookback")
	}
	if c.Bool("store") && !r.cfg.Database.Enabled {
		return errDatabaseDisabled
	}

	k, err := r.public()
	if err != nil {
		return err
	}
	candles, fetchErr := k.GetHistoricalData(c.Context, pairs, interval, time.Now().Add(-lookback))
	if fetchErr != nil {
		if len(candles) == 0 {
			return fetchErr
		}
		log.Warnf(log.ExchangeSys, "Some pairs failed: %v", fetchErr)
	}
	if c.Bool("store") {
		if err := r.store(c, candles, interval); err != nil {
			return err
		}
	}
	if err := r.print(candles); err != nil {
		return err
	}
	return fetchErr
}

func (r *runner) store(c *cli.Context, candles []kraken.Candle, interval int) error {
	db, err := database.Connect(c.Context, &database.Config{
		Enabled: r.cfg.Database.Enabled,
		Verbose: r.cfg.Kraken.Verbose,
		Driver:  r.cfg.Database.Driver,
		DSN:     r.cfg.Database.DSN,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := db.CloseConnection(); err != nil {
			log.Errorf(log.DatabaseSys, "Closing database: %v", err)
		}
	}()
	for _, item := range toItems(candles, interval) {
		n, err := candle.Insert(c.Context, db, item)
		if err != nil {
			return fmt.Errorf("storing %s candles: %w", item.Pair, err)
		}
		log.Infof(log.DatabaseSys, "Stored %d %s candles", n, item.Pair)
	}
	return nil
}

// toItems groups candles by pair, keeping the order pairs first appear in
func toItems(candles []kraken.Candle, interval int) []*candle.Item {
	var items []*candle.Item
	byPair := make(map[string]*candle.Item)
	for i := range candles {
		src := &candles[i]
		item, ok := byPair[src.Pair]
		if !ok {
			item = &candle.Item{Pair: src.Pair, Interval: int64(interval)}
			byPair[src.Pair] = item
			items = append(items, item)
		}
		item.Candles = append(item.Candles, candle.Candle{
			Timestamp: src.Time,
			Open:      src.Open,
			High:      src.High,
			Low:       src.Low,
			Close:     src.Close,
			VWAP:      src.VWAP,
			Volume:    src.Volume,
			Count:     src.Count,
		})
	}
	return items
}

func (r *runner) sentiment(c *cli.Context) error {
	start, err := parseDate(c.String("start"))
	if err != nil {
		return err
	}
	end, err := parseDate(c.String("end"))
	if err != nil {
		return err
	}
	k, err := r.public()
	if err != nil {
		return err
	}
	feed, err := sentiment.New(r.cfg.Sentiment.URL, k)
	if err != nil {
		return err
	}
	entries, err := feed.Fetch(c.Context)
	if err != nil {
		return err
	}
	if !start.IsZero() || !end.IsZero() {
		entries = sentiment.Between(entries, start, end)
	}
	return r.print(entries)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want %s: %w", s, dateLayout, err)
	}
	return t, nil
}

func (r *runner) serverTime(c *cli.Context) error {
	k, err := r.public()
	if err != nil {
		return err
	}
	result, err := k.GetServerTime(c.Context)
	if err != nil {
		return err
	}
	return r.print(result)
}

func (r *runner) status(c *cli.Context) error {
	k, err := r.public()
	if err != nil {
		return err
	}
	result, err := k.GetSystemStatus(c.Context)
	if err != nil {
		return err
	}
	return r.print(result)
}

func (r *runner) showConfig(*cli.Context) error {
	cfg := *r.cfg
	if cfg.Database.DSN != "" {
		cfg.Database.DSN = "<redacted>"
	}
	return r.print(cfg)
}
