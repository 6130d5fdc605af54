// Package quotefeed fetches current asset prices from an HTTP JSON API.
//
// The API is described by a URL template and, per asset, a JSONPath
// expression locating the price in the response, so any provider returning
// JSON can be used without code changes.
package quotefeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/cryptofolio"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Feed is a price source backed by an HTTP JSON API. Prices are cached for a
// configurable duration.
type Feed struct {
	client   *http.Client
	url      string
	lower    bool
	currency string
	paths    map[string]string
	ttl      time.Duration
	cache    *cache.Cache
	log      *zap.Logger
}

// Option configures a Feed.
type Option func(*Feed)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) Option { return func(f *Feed) { f.client = c } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(f *Feed) { f.log = l } }

// LowerCase lower-cases symbols before substituting them in the URL.
func LowerCase() Option { return func(f *Feed) { f.lower = true } }

// New returns a feed querying url, where {symbol} is replaced by the asset
// symbol. Prices are in currency and cached for ttl, a zero ttl disabling
// the cache.
func New(url, currency string, paths map[string]string, ttl time.Duration, opts ...Option) *Feed {
	f := &Feed{
		client:   &http.Client{Timeout: 30 * time.Second},
		url:      url,
		currency: currency,
		paths:    paths,
		ttl:      ttl,
		cache:    cache.New(ttl, 2*ttl),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Symbols returns the symbols the feed knows how to price, sorted.
func (f *Feed) Symbols() []string {
	symbols := make([]string, 0, len(f.paths))
	for s := range f.paths {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Price returns the current price of symbol.
func (f *Feed) Price(ctx context.Context, symbol string) (cryptofolio.Money, error) {
	if v, ok := f.cache.Get(symbol); ok {
		return v.(cryptofolio.Money), nil
	}
	path, ok := f.paths[symbol]
	if !ok {
		return cryptofolio.Money{}, errors.Errorf("no price path configured for %s", symbol)
	}

	s := symbol
	if f.lower {
		s = strings.ToLower(s)
	}
	addr := strings.ReplaceAll(f.url, "{symbol}", s)
	var jobj any
	if err := f.get(ctx, addr, &jobj); err != nil {
		return cryptofolio.Money{}, errors.Wrapf(err, "fetch %s price", symbol)
	}
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return cryptofolio.Money{}, errors.Wrapf(err, "parse %s price at %q", symbol, path)
	}
	// jsonpath returns a list for filters and wildcards: keep the first answer.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	d, err := toDecimal(jval)
	if err != nil {
		return cryptofolio.Money{}, errors.Wrapf(err, "parse %s price at %q", symbol, path)
	}
	if !d.IsPositive() {
		return cryptofolio.Money{}, errors.Errorf("%s price must be positive, got %s", symbol, d)
	}

	price := cryptofolio.M(d, f.currency)
	if f.ttl > 0 {
		f.cache.SetDefault(symbol, price)
	}
	f.log.Debug("price", zap.String("symbol", symbol), zap.Stringer("price", price))
	return price, nil
}

// Update fetches the price of every symbol (every configured symbol when none
// is given) and stores them in quotes. Prices that could not be fetched are
// reported together; the others are still stored.
func (f *Feed) Update(ctx context.Context, quotes *cryptofolio.Quotes, symbols ...string) error {
	if len(symbols) == 0 {
		symbols = f.Symbols()
	}
	var errs error
	for _, symbol := range symbols {
		price, err := f.Price(ctx, symbol)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		quotes.SetPrice(symbol, price)
	}
	return errs
}

// get retrieves addr and decodes its JSON body into data, keeping numbers
// as json.Number to preserve their decimals.
func (f *Feed) get(ctx context.Context, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	dec := json.NewDecoder(&buf)
	dec.UseNumber()
	return dec.Decode(data)
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case json.Number:
		return decimal.NewFromString(x.String())
	case string:
		return decimal.NewFromString(x)
	case float64:
		return decimal.NewFromFloat(x), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("not a number: %v (%T)", v, v)
	}
}
