package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/rules"
	"github.com/shopspring/decimal"
)

// TransformRegistry provides a central registry for all available transforms.
// It enables creation of transforms from string parameters, useful for CLI commands.
type TransformRegistry struct {
	factories map[string]TransformFactory
	rules     rules.Provider
}

// TransformFactory is a function that creates a transform from parameters.
type TransformFactory func(params map[string]string) (ReturnTransform, error)

// NewTransformRegistry creates a new registry with all built-in transforms
// registered. Transforms that need rule limits resolve them from provider.
func NewTransformRegistry(provider rules.Provider) *TransformRegistry {
	registry := &TransformRegistry{
		factories: make(map[string]TransformFactory),
		rules:     provider,
	}

	registry.Register("set_deduction", createSetDeduction)
	registry.Register("max_section", registry.createMaxOutSection)
	registry.Register("adjust_income", createAdjustIncome)
	registry.Register("set_regime", createSetRegime)

	return registry
}

// Register adds a transform factory to the registry.
func (r *TransformRegistry) Register(name string, factory TransformFactory) {
	r.factories[name] = factory
}

// Create creates a transform by name with the given parameters.
func (r *TransformRegistry) Create(name string, params map[string]string) (ReturnTransform, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("unknown transform: %s", name)
	}

	return factory(params)
}

// List returns the names of all registered transforms, sorted.
func (r *TransformRegistry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseTransformSpec parses a transform specification string.
// Format: "transform_name:param1=value1,param2=value2"
// Example: "set_deduction:section=80C,amount=150000"
func (r *TransformRegistry) ParseTransformSpec(spec string) (ReturnTransform, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid transform spec format, expected 'name:params', got: %s", spec)
	}

	name := strings.TrimSpace(parts[0])
	paramsStr := strings.TrimSpace(parts[1])

	params := make(map[string]string)
	if paramsStr != "" {
		for _, paramPair := range strings.Split(paramsStr, ",") {
			kv := strings.SplitN(paramPair, "=", 2)
			if len(kv) != 2 {
				return nil, fmt.Errorf("invalid parameter format, expected 'key=value', got: %s", paramPair)
			}
			params[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}

	return r.Create(name, params)
}

func requireParam(params map[string]string, transform, key string) (string, error) {
	v, ok := params[key]
	if !ok || v == "" {
		return "", fmt.Errorf("%s requires '%s' parameter", transform, key)
	}
	return v, nil
}

func createSetDeduction(params map[string]string) (ReturnTransform, error) {
	sectionStr, err := requireParam(params, "set_deduction", "section")
	if err != nil {
		return nil, err
	}
	section, err := domain.ParseSection(sectionStr)
	if err != nil {
		return nil, err
	}

	amountStr, err := requireParam(params, "set_deduction", "amount")
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount value: %w", err)
	}

	return &SetDeduction{Section: section, Amount: amount}, nil
}

func (r *TransformRegistry) createMaxOutSection(params map[string]string) (ReturnTransform, error) {
	sectionStr, err := requireParam(params, "max_section", "section")
	if err != nil {
		return nil, err
	}
	section, err := domain.ParseSection(sectionStr)
	if err != nil {
		return nil, err
	}

	return &MaxOutSection{Section: section, Rules: r.rules}, nil
}

func createAdjustIncome(params map[string]string) (ReturnTransform, error) {
	headStr, err := requireParam(params, "adjust_income", "head")
	if err != nil {
		return nil, err
	}
	head, err := domain.ParseHead(headStr)
	if err != nil {
		return nil, err
	}

	deltaStr, err := requireParam(params, "adjust_income", "delta")
	if err != nil {
		return nil, err
	}
	delta, err := decimal.NewFromString(deltaStr)
	if err != nil {
		return nil, fmt.Errorf("invalid delta value: %w", err)
	}

	return &AdjustIncome{Head: head, Delta: delta}, nil
}

func createSetRegime(params map[string]string) (ReturnTransform, error) {
	regimeStr, err := requireParam(params, "set_regime", "regime")
	if err != nil {
		return nil, err
	}
	election, err := domain.ParseElection(regimeStr)
	if err != nil {
		return nil, err
	}

	return &SetRegime{Election: election}, nil
}
