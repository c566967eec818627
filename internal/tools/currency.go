package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nidhogg/echoes/internal/provider"
)

// CurrencyToolName is the registered name of the exchange rate tool.
const CurrencyToolName = "currency_price_checker"

const currencyDescription = `Real-time currency exchange rates. Use this tool to get current prices for currency pairs.
Supports: USD, EUR, GBP, JPY, CHF, CAD, AUD, MXN, BRL, CNY

Input should specify the currencies, like:
- "USD to EUR"
- "euro dollar rate"
- "current EUR price"
- "100 USD in GBP"

Output includes exchange rate, timestamp, and conversion example.`

// DefaultRateAPI is the public endpoint rates are fetched from. The source
// currency code is appended to the path.
const DefaultRateAPI = "https://api.exchangerate-api.com/v4/latest/"

const rateCacheTTL = 5 * time.Minute

var supportedCurrencies = []string{"USD", "EUR", "GBP", "JPY", "CHF", "CAD", "AUD", "MXN", "BRL", "CNY"}

// currencyNames maps spoken currency names to codes. Order matters: longer
// spellings are replaced before their substrings.
var currencyNames = []struct {
	name string
	code string
}{
	{"DOLLAR", "USD"},
	{"DOLAR", "USD"},
	{"EURO", "EUR"},
	{"POUND", "GBP"},
	{"STERLING", "GBP"},
	{"YEN", "JPY"},
	{"FRANC", "CHF"},
	{"CANADIAN", "CAD"},
	{"AUSTRALIAN", "AUD"},
	{"AUSSIE", "AUD"},
	{"PESO", "MXN"},
	{"REAL", "BRL"},
	{"YUAN", "CNY"},
	{"RENMINBI", "CNY"},
}

// mockRates is the static fallback table used when the API is unreachable.
// Missing pairs are tried in inverse before giving up.
var mockRates = map[[2]string]float64{
	{"USD", "EUR"}: 0.92,
	{"USD", "GBP"}: 0.79,
	{"USD", "JPY"}: 149.50,
	{"USD", "CHF"}: 0.88,
	{"USD", "CAD"}: 1.35,
	{"USD", "AUD"}: 1.52,
	{"USD", "MXN"}: 17.20,
	{"USD", "BRL"}: 4.98,
	{"USD", "CNY"}: 7.24,
	{"EUR", "USD"}: 1.09,
	{"GBP", "USD"}: 1.27,
}

var amountRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Currency answers exchange rate questions. Rates come from a public API
// with a per-pair cache; any failure falls back to the static mock table
// with the result flagged as fallback data. The tool never errors, every
// outcome renders to a string.
type Currency struct {
	client  *http.Client
	baseURL string
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]rateEntry
}

type rateEntry struct {
	rates map[string]float64
	at    time.Time
}

// NewCurrency creates the exchange rate tool against the default API.
func NewCurrency(logger *zap.Logger) *Currency {
	return &Currency{
		client:  &http.Client{Timeout: 5 * time.Second},
		baseURL: DefaultRateAPI,
		logger:  logger,
		now:     time.Now,
		cache:   make(map[string]rateEntry),
	}
}

// SetBaseURL points the tool at a different rate endpoint.
func (t *Currency) SetBaseURL(url string) { t.baseURL = url }

// Definition returns the tool schema advertised to the model.
func (t *Currency) Definition() provider.Tool {
	return provider.Tool{
		Type: "function",
		Function: provider.ToolFunction{
			Name:        CurrencyToolName,
			Description: currencyDescription,
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Natural language query for an exchange rate",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

// Invoke parses the currency pair and renders the exchange rate.
func (t *Currency) Invoke(ctx context.Context, args string) (string, error) {
	query := queryFromArgs(args)

	from, to, amount := parseCurrencyQuery(query)
	if from == "" || to == "" {
		return currencyError("Could not understand currency query. " +
			"Please specify currencies like 'USD to EUR' or 'dollar to euro'."), nil
	}

	rate, ok := t.rate(ctx, from, to)
	if !ok {
		return t.fallback(from, to, amount), nil
	}
	return t.formatRate(from, to, rate, amount), nil
}

// parseCurrencyQuery extracts the pair and optional amount from free text.
// A single named currency pairs against USD; a lone USD pairs against EUR.
func parseCurrencyQuery(query string) (from, to string, amount float64) {
	amount = 1.0
	if m := amountRe.FindString(query); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			amount = v
		}
	}

	upper := strings.ToUpper(query)
	for _, n := range currencyNames {
		upper = strings.ReplaceAll(upper, n.name, n.code)
	}

	var found []string
	for _, curr := range supportedCurrencies {
		if strings.Contains(upper, curr) {
			found = append(found, curr)
		}
	}

	switch {
	case len(found) >= 2:
		return found[0], found[1], amount
	case len(found) == 1:
		if found[0] == "USD" {
			return "USD", "EUR", amount
		}
		return "USD", found[0], amount
	}
	return "", "", amount
}

func (t *Currency) rate(ctx context.Context, from, to string) (float64, bool) {
	key := from + "_" + to

	t.mu.Lock()
	entry, ok := t.cache[key]
	t.mu.Unlock()
	if ok && t.now().Sub(entry.at) < rateCacheTTL {
		r, ok := entry.rates[to]
		return r, ok
	}

	rates, err := t.fetch(ctx, from)
	if err != nil {
		t.logger.Warn("rate API request failed",
			zap.String("from", from),
			zap.Error(err))
		return 0, false
	}

	t.mu.Lock()
	t.cache[key] = rateEntry{rates: rates, at: t.now()}
	t.mu.Unlock()

	r, ok := rates[to]
	return r, ok
}

func (t *Currency) fetch(ctx context.Context, from string) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+from, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate API status %d", resp.StatusCode)
	}

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	return payload.Rates, nil
}

func (t *Currency) fallback(from, to string, amount float64) string {
	rate, ok := mockRates[[2]string{from, to}]
	if !ok {
		if inverse, invOK := mockRates[[2]string{to, from}]; invOK {
			rate, ok = 1/inverse, true
		}
	}
	if !ok {
		return currencyError(fmt.Sprintf(
			"Unable to fetch exchange rate for %s to %s. "+
				"API unavailable and no mock data for this pair.", from, to))
	}

	return t.formatRate(from, to, rate, amount) +
		"\n\n  Note: Using cached/mock data (API temporarily unavailable)"
}

func (t *Currency) formatRate(from, to string, rate, amount float64) string {
	timestamp := t.now().UTC().Format("2006-01-02 15:04:05 UTC")

	var b strings.Builder
	fmt.Fprintf(&b, "Current exchange rate: 1 %s = %.4f %s\n", from, rate, to)
	fmt.Fprintf(&b, "(as of %s)\n\n", timestamp)
	b.WriteString("This means:\n")
	fmt.Fprintf(&b, "  %.2f %s = %.2f %s\n", amount, from, amount*rate, to)
	if amount == 1 {
		fmt.Fprintf(&b, "  100 %s = %.2f %s\n", from, rate*100, to)
	}
	return b.String()
}

func currencyError(message string) string {
	return fmt.Sprintf("Error: %s\n\n", message) +
		"Supported currencies: USD, EUR, GBP, JPY, CHF, CAD, AUD, MXN, BRL, CNY\n" +
		"Example queries:\n" +
		"  - 'USD to EUR'\n" +
		"  - '100 dollars in euros'\n" +
		"  - 'current pound sterling rate'"
}
