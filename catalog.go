package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

const (
	foodSourceCustom   = "custom"
	foodSourceUSDA     = "usda"
	foodSourceFallback = "fallback"

	minCatalogQuery = 3
	usdaPageSize    = 25
)

// FDC nutrient numbers.
const (
	nutrientEnergy        = 1008
	nutrientEnergyAtwater = 2047
	nutrientProtein       = 1003
	nutrientFat           = 1004
	nutrientCarbs         = 1005
	nutrientFiber         = 1079
)

func foodSource(f food) string {
	switch {
	case f.IsCustom:
		return foodSourceCustom
	case f.USDAFdcID != nil:
		return foodSourceUSDA
	}
	return foodSourceFallback
}

// catalogResult is a remote catalog answer. Degraded is set when the results
// come from the built-in list because the remote catalog failed.
type catalogResult struct {
	Foods    []food `json:"foods"`
	Degraded bool   `json:"degraded"`
	Source   string `json:"source"`
}

// usdaCatalog searches the USDA FoodData Central API and falls back to the
// embedded food list on any upstream failure.
type usdaCatalog struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	fallback []food
	metrics  *apiMetrics
}

func newUSDACatalog(baseURL, apiKey string, m *apiMetrics) *usdaCatalog {
	return &usdaCatalog{
		baseURL:  baseURL,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 10 * time.Second},
		fallback: builtinFoods,
		metrics:  m,
	}
}

// search validates the query and returns remote results, or the filtered
// fallback list with Degraded set. The only error it returns is a validation error.
func (c *usdaCatalog) search(ctx context.Context, query string) (catalogResult, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minCatalogQuery {
		return catalogResult{}, invalid("a busca deve ter pelo menos %d caracteres", minCatalogQuery)
	}

	foods, err := c.searchRemote(ctx, query)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("usda search failed, serving fallback list")
		if c.metrics != nil {
			c.metrics.catalogFallbacks.Inc()
		}
		return catalogResult{Foods: filterFoods(c.fallback, query), Degraded: true, Source: foodSourceFallback}, nil
	}
	return catalogResult{Foods: foods, Source: foodSourceUSDA}, nil
}

// usdaSearchResponse is the subset of /v1/foods/search we read.
type usdaSearchResponse struct {
	Foods []usdaFood `json:"foods"`
}

type usdaFood struct {
	FdcID         int    `json:"fdcId"`
	Description   string `json:"description"`
	BrandOwner    string `json:"brandOwner"`
	BrandName     string `json:"brandName"`
	FoodCategory  string `json:"foodCategory"`
	FoodNutrients []struct {
		NutrientID int     `json:"nutrientId"`
		Value      float64 `json:"value"`
	} `json:"foodNutrients"`
}

func (c *usdaCatalog) searchRemote(ctx context.Context, query string) ([]food, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("pageSize", fmt.Sprint(usdaPageSize))
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/foods/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http request: %v", errUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: usda returned status %d: %s", errUpstream, resp.StatusCode, snippet)
	}

	var body usdaSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", errUpstream, err)
	}

	foods := make([]food, 0, len(body.Foods))
	for _, uf := range body.Foods {
		foods = append(foods, uf.toFood())
	}
	return foods, nil
}

func (uf usdaFood) toFood() food {
	fdcID := uf.FdcID
	f := food{
		Name:      uf.Description,
		USDAFdcID: &fdcID,
		Source:    foodSourceUSDA,
	}
	if brand := firstNonEmpty(uf.BrandName, uf.BrandOwner); brand != "" {
		f.Brand = &brand
	}
	if uf.FoodCategory != "" {
		category := uf.FoodCategory
		f.Category = &category
	}

	var atwater float64
	for _, n := range uf.FoodNutrients {
		switch n.NutrientID {
		case nutrientEnergy:
			f.CaloriesPer100g = n.Value
		case nutrientEnergyAtwater:
			atwater = n.Value
		case nutrientProtein:
			f.ProteinPer100g = n.Value
		case nutrientCarbs:
			f.CarbsPer100g = n.Value
		case nutrientFat:
			f.FatPer100g = n.Value
		case nutrientFiber:
			fiber := n.Value
			f.FiberPer100g = &fiber
		}
	}
	// Foundation foods report energy only under the Atwater number.
	if f.CaloriesPer100g == 0 {
		f.CaloriesPer100g = atwater
	}
	return f
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

/* ─── Built-in fallback list ─────────────────────────────────────────── */

//go:embed data/fallback_foods.yaml
var fallbackFoodsYAML []byte

type fallbackFood struct {
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Calories float64  `yaml:"calories"`
	Protein  float64  `yaml:"protein"`
	Carbs    float64  `yaml:"carbs"`
	Fat      float64  `yaml:"fat"`
	Fiber    *float64 `yaml:"fiber"`
}

var builtinFoods = mustLoadFallbackFoods(fallbackFoodsYAML)

func mustLoadFallbackFoods(data []byte) []food {
	foods, err := loadFallbackFoods(data)
	if err != nil {
		panic(fmt.Sprintf("embedded fallback foods: %v", err))
	}
	return foods
}

func loadFallbackFoods(data []byte) ([]food, error) {
	var entries []fallbackFood
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse fallback foods: %w", err)
	}
	foods := make([]food, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("fallback food without name")
		}
		category := e.Category
		foods = append(foods, food{
			Name:            e.Name,
			Category:        &category,
			CaloriesPer100g: e.Calories,
			ProteinPer100g:  e.Protein,
			CarbsPer100g:    e.Carbs,
			FatPer100g:      e.Fat,
			FiberPer100g:    e.Fiber,
			Source:          foodSourceFallback,
		})
	}
	return foods, nil
}

// filterFoods keeps the foods whose name or category contains query,
// ignoring case and accents.
func filterFoods(foods []food, query string) []food {
	needle := foldText(query)
	out := []food{}
	for _, f := range foods {
		hay := foldText(f.Name)
		if f.Category != nil {
			hay += " " + foldText(*f.Category)
		}
		if strings.Contains(hay, needle) {
			out = append(out, f)
		}
	}
	return out
}

// foldText lowercases s and strips combining marks ("Feijão" → "feijao").
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}
