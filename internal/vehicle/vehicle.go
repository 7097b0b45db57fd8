// Package vehicle reads makes and models from the public vehicle reference API
// and defines the Selection collected by the finder.
package vehicle

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/guonaihong/gout"
	"github.com/guonaihong/gout/dataflow"
)

// MinYear is the oldest model year offered by the finder.
const MinYear = 1990

// DefaultBaseURL is the public vPIC endpoint.
const DefaultBaseURL = "https://vpic.nhtsa.dot.gov/api/vehicles"

// Selection is the {year, make, model, trim} tuple built across the finder steps.
type Selection struct {
	Year  string `json:"year" validate:"required,numeric,len=4"`
	Make  string `json:"make" validate:"required,max=50"`
	Model string `json:"model" validate:"required,max=50"`
	Trim  string `json:"trim" validate:"required,max=50"`
}

// YearInt returns the numeric model year, or 0 when Year is not a number.
func (s Selection) YearInt() int {
	y, err := strconv.Atoi(strings.TrimSpace(s.Year))
	if err != nil {
		return 0
	}
	return y
}

// String renders the selection as "2020 Honda Civic EX".
func (s Selection) String() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{s.Year, s.Make, s.Model, s.Trim} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

var trims = []string{
	"Base", "LX", "EX", "EX-L", "Touring", "Sport",
	"Limited", "Premium", "SE", "SL", "SV", "Platinum",
}

// Trims returns the fixed trim catalog.
func Trims() []string {
	out := make([]string, len(trims))
	copy(out, trims)
	return out
}

// Years lists model years from next year down to MinYear.
func Years(now time.Time) []string {
	top := now.Year() + 1
	out := make([]string, 0, top-MinYear+1)
	for y := top; y >= MinYear; y-- {
		out = append(out, strconv.Itoa(y))
	}
	return out
}

// Filter returns the entries of list containing term, case-insensitively.
// An empty term returns list unchanged.
func Filter(list []string, term string) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return list
	}
	var out []string
	for _, v := range list {
		if strings.Contains(strings.ToLower(v), term) {
			out = append(out, v)
		}
	}
	return out
}

// Client queries the vehicle reference API.
type Client struct {
	baseURL string
	http    *dataflow.Gout
}

// ClientOpts holds parameters for creating a Client.
type ClientOpts struct {
	BaseURL string
	Timeout time.Duration
	// For testing: inject a client pointed at a fake server.
	HTTPClient *http.Client
}

// NewClient creates a Client. Zero-valued options fall back to the public API
// and a 10 second timeout.
func NewClient(opts ClientOpts) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: base, http: gout.New(hc)}
}

// resultsResponse is the envelope every vPIC endpoint returns. Results may be
// absent, which decodes to an empty slice.
type resultsResponse struct {
	Results []struct {
		MakeName  string `json:"MakeName"`
		ModelName string `json:"Model_Name"`
	} `json:"Results"`
}

func (c *Client) get(ctx context.Context, path string, query gout.H) (*resultsResponse, error) {
	var (
		resp resultsResponse
		code int
	)
	err := c.http.GET(c.baseURL + path).
		WithContext(ctx).
		SetQuery(query).
		BindJSON(&resp).
		Code(&code).
		Do()
	if err != nil {
		return nil, fmt.Errorf("vehicle: GET %s: %w", path, err)
	}
	if code < 200 || code > 299 {
		return nil, fmt.Errorf("vehicle: GET %s: status %d", path, code)
	}
	return &resp, nil
}

// Makes returns passenger-car makes for year, sorted ascending.
func (c *Client) Makes(ctx context.Context, year string) ([]string, error) {
	if year == "" {
		return nil, fmt.Errorf("vehicle: year is required")
	}
	resp, err := c.get(ctx, "/GetMakesForVehicleType/car", gout.H{"year": year, "format": "json"})
	if err != nil {
		return nil, err
	}
	makes := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.MakeName != "" {
			makes = append(makes, r.MakeName)
		}
	}
	sort.Strings(makes)
	return makes, nil
}

// Models returns the distinct models of makeName for year, sorted ascending.
func (c *Client) Models(ctx context.Context, year, makeName string) ([]string, error) {
	if year == "" {
		return nil, fmt.Errorf("vehicle: year is required")
	}
	if makeName == "" {
		return nil, fmt.Errorf("vehicle: make is required")
	}
	path := fmt.Sprintf("/GetModelsForMakeYear/make/%s/modelyear/%s", url.PathEscape(makeName), url.PathEscape(year))
	resp, err := c.get(ctx, path, gout.H{"format": "json"})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(resp.Results))
	models := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.ModelName == "" || seen[r.ModelName] {
			continue
		}
		seen[r.ModelName] = true
		models = append(models, r.ModelName)
	}
	sort.Strings(models)
	return models, nil
}

// ModelExists reports whether the API lists model for makeName and year.
func (c *Client) ModelExists(ctx context.Context, year, makeName, model string) (bool, error) {
	models, err := c.Models(ctx, year, makeName)
	if err != nil {
		return false, err
	}
	for _, m := range models {
		if m == model {
			return true, nil
		}
	}
	return false, nil
}
