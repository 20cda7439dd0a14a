package kraken

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/opa-project/opa/common"
	"github.com/shopspring/decimal"
)

var validIntervals = []int{1, 5, 15, 30, 60, 240, 1440, 10080, 21600}

// GetServerTime returns current server time
func (k *Kraken) GetServerTime(ctx context.Context) (*TimeResponse, error) {
	var result TimeResponse
	if err := k.SendHTTPRequest(ctx, "Time", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSystemStatus returns the current system status or trading mode
func (k *Kraken) GetSystemStatus(ctx context.Context) (*SystemStatusResponse, error) {
	var result SystemStatusResponse
	if err := k.SendHTTPRequest(ctx, "SystemStatus", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetAssets returns asset information, for all assets when none are given
func (k *Kraken) GetAssets(ctx context.Context, assets ...string) (map[string]Asset, error) {
	params := NewParams()
	if len(assets) > 0 {
		params.Set("asset", strings.Join(assets, ","))
	}
	var result map[string]Asset
	if err := k.SendHTTPRequest(ctx, "Assets", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetAssetPairs returns tradable asset pairs, for all pairs when none are
// given. info only supports "info" (default), "leverage", "fees" and "margin".
func (k *Kraken) GetAssetPairs(ctx context.Context, pairs []string, info string) (map[string]AssetPair, error) {
	params := NewParams()
	if len(pairs) > 0 {
		params.Set("pair", strings.Join(pairs, ","))
	}
	if info != "" {
		if info != "margin" && info != "leverage" && info != "fees" && info != "info" {
			return nil, errInvalidInfo
		}
		params.Set("info", info)
	}
	var result map[string]AssetPair
	if err := k.SendHTTPRequest(ctx, "AssetPairs", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetOHLC returns candles for pair. interval is in minutes and defaults to
// 1440; a zero since defaults to one week ago.
func (k *Kraken) GetOHLC(ctx context.Context, pair string, interval int, since time.Time) (*OHLCResponse, error) {
	if pair == "" {
		return nil, errPairRequired
	}
	if interval == 0 {
		interval = DefaultOHLCInterval
	}
	if !slices.Contains(validIntervals, interval) {
		return nil, fmt.Errorf("%w: %d", errInvalidInterval, interval)
	}
	if since.IsZero() {
		since = time.Now().Add(-DefaultOHLCLookback)
	}

	params := NewParams()
	params.Set("pair", pair)
	params.Set("interval", interval)
	params.Set("since", since.Unix())

	path := k.apiURL + "/" + krakenAPIVersion + "/public/OHLC?" + params.Encode()
	resp, err := k.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	out, err := parseOHLC(resp.Result)
	if err != nil {
		return nil, err
	}
	for i := range out.Candles {
		out.Candles[i].Pair = pair
	}
	out.Pair = pair
	return out, nil
}

// GetHistoricalData fetches candles for every pair concurrently and
// concatenates them in the order pairs were given, tagging every candle with
// the pair it was requested for. Errors for individual pairs are collected
// and returned alongside the candles that were fetched.
func (k *Kraken) GetHistoricalData(ctx context.Context, pairs []string, interval int, since time.Time) ([]Candle, error) {
	if len(pairs) == 0 {
		return nil, errPairRequired
	}
	results := make([][]Candle, len(pairs))
	ec := common.CollectErrors(len(pairs))
	for i, pair := range pairs {
		i, pair := i, pair
		go func() {
			defer ec.Wg.Done()
			resp, err := k.GetOHLC(ctx, pair, interval, since)
			if err != nil {
				ec.C <- fmt.Errorf("%s: %w", pair, err)
				return
			}
			results[i] = resp.Candles
		}()
	}
	errs := ec.Collect()

	var candles []Candle
	for _, r := range results {
		candles = append(candles, r...)
	}
	return candles, errs
}

// parseOHLC walks the OHLC result object: one key holding the candle arrays
// and "last" holding the polling cursor
func parseOHLC(data []byte) (*OHLCResponse, error) {
	out := new(OHLCResponse)
	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		if string(key) == "last" {
			last, err := jsonparser.ParseInt(value)
			if err != nil {
				return fmt.Errorf("%w: last: %w", errInvalidOHLCData, err)
			}
			out.Last = last
			return nil
		}
		if dataType != jsonparser.Array {
			return fmt.Errorf("%w: %s is %v, expected array", errInvalidOHLCData, key, dataType)
		}
		var parseErr error
		_, err := jsonparser.ArrayEach(value, func(row []byte, rowType jsonparser.ValueType, _ int, _ error) {
			if parseErr != nil {
				return
			}
			if rowType != jsonparser.Array {
				parseErr = fmt.Errorf("%w: candle is %v, expected array", errInvalidOHLCData, rowType)
				return
			}
			c, err := parseCandle(row)
			if err != nil {
				parseErr = err
				return
			}
			out.Candles = append(out.Candles, c)
		})
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidOHLCData, err)
		}
		return parseErr
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// parseCandle decodes [time, open, high, low, close, vwap, volume, count]
func parseCandle(row []byte) (Candle, error) {
	var (
		c      Candle
		fields [][]byte
	)
	_, err := jsonparser.ArrayEach(row, func(v []byte, _ jsonparser.ValueType, _ int, _ error) {
		fields = append(fields, v)
	})
	if err != nil {
		return c, fmt.Errorf("%w: %w", errInvalidOHLCData, err)
	}
	if len(fields) < 8 {
		return c, fmt.Errorf("%w: unexpected data length %d", errInvalidOHLCData, len(fields))
	}

	ts, err := jsonparser.ParseFloat(fields[0])
	if err != nil {
		return c, fmt.Errorf("%w: time: %w", errInvalidOHLCData, err)
	}
	c.Time = time.Unix(int64(ts), 0).UTC()

	for i, dst := range []*decimal.Decimal{&c.Open, &c.High, &c.Low, &c.Close, &c.VWAP, &c.Volume} {
		if *dst, err = decimal.NewFromString(string(fields[i+1])); err != nil {
			return c, fmt.Errorf("%w: field %d: %w", errInvalidOHLCData, i+1, err)
		}
	}

	count, err := jsonparser.ParseFloat(fields[7])
	if err != nil {
		return c, fmt.Errorf("%w: count: %w", errInvalidOHLCData, err)
	}
	c.Count = int64(count)
	return c, nil
}
