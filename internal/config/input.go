package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rgehrsitz/savingsim/internal/calculation"
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/rgehrsitz/savingsim/internal/products"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the display section of a configuration
const (
	EnvDisplayCurrency = "SAVINGSIM_DISPLAY_CURRENCY"
	EnvRateEUR         = "SAVINGSIM_RATE_EUR"
	EnvRateUSD         = "SAVINGSIM_RATE_USD"
)

// InputParser handles parsing of input configuration files
type InputParser struct {
	// Getenv looks up environment overrides; nil disables them
	Getenv func(string) string
}

// NewInputParser creates a new input parser reading overrides from the process environment
func NewInputParser() *InputParser {
	return &InputParser{Getenv: os.Getenv}
}

// LoadFromFile loads a configuration from a YAML file
func (ip *InputParser) LoadFromFile(filename string) (*domain.Configuration, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes a YAML document on top of the neutral contract defaults,
// applies environment overrides and validates the result
func (ip *InputParser) Parse(data []byte) (*domain.Configuration, error) {
	config := &domain.Configuration{Contract: domain.NewContractInputs()}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.applyEnvOverrides(config); err != nil {
		return nil, err
	}

	if err := ip.ValidateConfiguration(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func (ip *InputParser) applyEnvOverrides(config *domain.Configuration) error {
	if ip.Getenv == nil {
		return nil
	}
	if v := ip.Getenv(EnvDisplayCurrency); v != "" {
		config.Display.Currency = domain.Currency(strings.ToUpper(strings.TrimSpace(v)))
	}
	if v := ip.Getenv(EnvRateEUR); v != "" {
		rate, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRateEUR, err)
		}
		config.Display.Rates.EUR = rate
	}
	if v := ip.Getenv(EnvRateUSD); v != "" {
		rate, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRateUSD, err)
		}
		config.Display.Rates.USD = rate
	}
	return nil
}

// ValidateConfiguration validates the loaded configuration
func (ip *InputParser) ValidateConfiguration(config *domain.Configuration) error {
	if strings.TrimSpace(config.Name) == "" {
		return fmt.Errorf("name is required")
	}

	if err := calculation.ValidateInputs(config.Contract); err != nil {
		return fmt.Errorf("contract: %w", err)
	}

	if err := ip.validateDisplay(&config.Display, config.Contract.Currency); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	seen := make(map[string]bool)
	for i, code := range config.Products {
		key := strings.ToLower(strings.TrimSpace(code))
		if key == "" {
			return fmt.Errorf("products[%d]: code is required", i)
		}
		if seen[key] {
			return fmt.Errorf("products[%d]: duplicate product %s", i, code)
		}
		seen[key] = true
	}

	return nil
}

// validateDisplay checks that results can be shown in the display currency
func (ip *InputParser) validateDisplay(display *domain.DisplayConfig, contractCurrency domain.Currency) error {
	if display.Rates.EUR.IsNegative() || display.Rates.USD.IsNegative() {
		return fmt.Errorf("exchange rates cannot be negative")
	}
	if display.Currency == "" || display.Currency == contractCurrency {
		return nil
	}
	if !display.Currency.IsValid() {
		return fmt.Errorf("unsupported currency %q", display.Currency)
	}
	if _, err := calculation.ConvertWithRates(decimal.NewFromInt(1), contractCurrency, display.Currency, display.Rates); err != nil {
		return fmt.Errorf("cannot show %s results in %s: %w", contractCurrency, display.Currency, err)
	}
	return nil
}

// productCatalog is the on-disk shape of a product definition file
type productCatalog struct {
	Products []products.Product `yaml:"products"`
}

// LoadProductsFromFile reads additional product definitions from a YAML file
func (ip *InputParser) LoadProductsFromFile(filename string) ([]products.Product, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var catalog productCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	seen := make(map[string]bool)
	for i, p := range catalog.Products {
		key := strings.ToLower(strings.TrimSpace(p.Code))
		if key == "" {
			return nil, fmt.Errorf("products[%d]: code is required", i)
		}
		if seen[key] {
			return nil, fmt.Errorf("products[%d]: duplicate product %s", i, p.Code)
		}
		seen[key] = true
		if p.Name == "" {
			catalog.Products[i].Name = p.Code
		}
	}

	return catalog.Products, nil
}

// LoadRegistry returns the built-in products plus any defined in catalogFile.
// An empty catalogFile yields the built-ins only.
func (ip *InputParser) LoadRegistry(catalogFile string) (*products.Registry, error) {
	registry := products.BuiltInProducts()
	if catalogFile == "" {
		return registry, nil
	}
	extra, err := ip.LoadProductsFromFile(catalogFile)
	if err != nil {
		return nil, err
	}
	for _, p := range extra {
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Candidates resolves the configured product codes, or every registered
// product when none are listed
func Candidates(config *domain.Configuration, registry *products.Registry) ([]products.Product, error) {
	if len(config.Products) == 0 {
		return registry.All(), nil
	}
	out := make([]products.Product, 0, len(config.Products))
	for _, code := range config.Products {
		p, err := registry.MustGet(code)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
