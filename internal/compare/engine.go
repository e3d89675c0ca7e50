package compare

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/taxgo/internal/calculation"
	"github.com/rgehrsitz/taxgo/internal/domain"
	"github.com/rgehrsitz/taxgo/internal/transform"
)

// CompareEngine orchestrates what-if comparison of one return
type CompareEngine struct {
	Engine            *calculation.Engine
	MetricsCalculator *MetricsCalculator
	TemplateRegistry  *transform.TemplateRegistry
	TransformRegistry *transform.TransformRegistry
}

// NewCompareEngine creates a new comparison engine whose templates and
// transforms resolve limits from the engine's rule provider.
func NewCompareEngine(engine *calculation.Engine) *CompareEngine {
	return &CompareEngine{
		Engine:            engine,
		MetricsCalculator: NewMetricsCalculator(),
		TemplateRegistry:  transform.CreateBuiltInTemplates(engine.Rules),
		TransformRegistry: transform.NewTransformRegistry(engine.Rules),
	}
}

// CompareOptions configures comparison behavior
type CompareOptions struct {
	BaseScenarioName string   // Label for the unmodified return
	Templates        []string // Template names to apply, one alternative each
	WhatIf           []string // Transform specs, one alternative each
}

// Compare computes the base return and one alternative per template or
// what-if spec. The base return is never modified.
func (ce *CompareEngine) Compare(
	ctx context.Context,
	rf *domain.ReturnFile,
	options CompareOptions,
) (*ComparisonSet, error) {
	if rf == nil {
		return nil, fmt.Errorf("return file cannot be nil")
	}

	baseName := options.BaseScenarioName
	if baseName == "" {
		baseName = "base"
	}

	baseRes, err := ce.Engine.Compute(rf)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate base return: %w", err)
	}
	baseResult := ce.MetricsCalculator.CalculateMetrics(baseName, baseRes)
	baseResult.Description = "Return as filed"

	alternatives := []ComparisonResult{}

	for _, templateName := range options.Templates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		template, ok := ce.TemplateRegistry.Get(templateName)
		if !ok {
			return nil, fmt.Errorf("template %s not found", templateName)
		}

		modified, err := transform.ApplyTemplate(rf, template)
		if err != nil {
			return nil, fmt.Errorf("failed to apply template %s: %w", templateName, err)
		}

		alt, err := ce.run(template.Name, template.Description, modified, baseResult)
		if err != nil {
			return nil, err
		}
		alternatives = append(alternatives, alt)
	}

	for _, spec := range options.WhatIf {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tr, err := ce.TransformRegistry.ParseTransformSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("what-if %q: %w", spec, err)
		}

		modified, err := transform.ApplyTransforms(rf, []transform.ReturnTransform{tr})
		if err != nil {
			return nil, fmt.Errorf("what-if %q: %w", spec, err)
		}

		alt, err := ce.run(spec, tr.Description(), modified, baseResult)
		if err != nil {
			return nil, err
		}
		alternatives = append(alternatives, alt)
	}

	compSet := &ComparisonSet{
		BaseScenarioName:   baseName,
		BaseResult:         &baseResult,
		AlternativeResults: alternatives,
	}
	compSet.Recommendations = GenerateRecommendations(compSet)

	return compSet, nil
}

func (ce *CompareEngine) run(name, description string, rf *domain.ReturnFile, base ComparisonResult) (ComparisonResult, error) {
	res, err := ce.Engine.Compute(rf)
	if err != nil {
		return ComparisonResult{}, fmt.Errorf("failed to calculate %s: %w", name, err)
	}
	alt := ce.MetricsCalculator.CalculateMetrics(name, res)
	alt.Description = description
	return ce.MetricsCalculator.CalculateComparison(alt, base), nil
}
