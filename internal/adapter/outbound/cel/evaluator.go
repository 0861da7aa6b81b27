// Package cel provides a CEL-based filter expression evaluator for
// vehicle lists. Power users can pass expressions like
//
//	vehicle.remaining > 0 && vehicle.province == 'Baghdad'
//
// to the list and report views instead of the fixed search fields.
package cel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/fleetdesk/fleetdesk/internal/domain/vehicle"
)

// maxExpressionLength caps filter expressions; anything longer is noise
// or abuse, not a filter.
const maxExpressionLength = 1024

// maxCostBudget is the CEL runtime cost limit to prevent cost-exhaustion
// on pathological expressions.
const maxCostBudget = 100_000

// maxNestingDepth is the maximum allowed parenthesis/bracket nesting depth.
const maxNestingDepth = 50

// evalTimeout bounds a single evaluation pass over the list.
const evalTimeout = 5 * time.Second

// interruptCheckFreq is how often (in comprehension iterations) context
// cancellation is checked.
const interruptCheckFreq = 100

// Evaluator compiles and evaluates CEL filter expressions against vehicles.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates an evaluator with the vehicle filter environment.
// The expression sees a single `vehicle` map variable.
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("vehicle", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create filter environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// Compile parses and type-checks a filter expression, returning a
// compiled program.
func (e *Evaluator) Compile(expression string) (cel.Program, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation failed: %w", issues.Err())
	}

	prg, err := e.env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
		cel.InterruptCheckFrequency(interruptCheckFreq),
	)
	if err != nil {
		return nil, fmt.Errorf("program creation failed: %w", err)
	}
	return prg, nil
}

// ValidateExpression checks that a filter expression is syntactically
// valid and within the safety limits (length, nesting depth).
func (e *Evaluator) ValidateExpression(expr string) error {
	if expr == "" {
		return errors.New("expression is empty")
	}
	if len(expr) > maxExpressionLength {
		return fmt.Errorf("expression too long: %d characters (max %d)", len(expr), maxExpressionLength)
	}
	if err := validateNesting(expr); err != nil {
		return err
	}
	if _, err := e.Compile(expr); err != nil {
		return fmt.Errorf("invalid filter expression: %w", err)
	}
	return nil
}

// validateNesting checks that the expression does not exceed the maximum
// allowed nesting depth for parentheses, brackets, and braces.
func validateNesting(expr string) error {
	var depth, maxDepth int
	for _, ch := range expr {
		switch ch {
		case '(', '[', '{':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')', ']', '}':
			depth--
		}
	}
	if maxDepth > maxNestingDepth {
		return fmt.Errorf("expression nesting too deep: %d levels (max %d)", maxDepth, maxNestingDepth)
	}
	return nil
}

// Filter compiles the expression once and returns the vehicles for which
// it evaluates to true. A non-boolean result or evaluation error aborts
// the whole filter; a partial list would silently lie to the operator.
func (e *Evaluator) Filter(expression string, vehicles []vehicle.Vehicle) ([]vehicle.Vehicle, error) {
	if err := e.ValidateExpression(expression); err != nil {
		return nil, err
	}
	prg, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	out := make([]vehicle.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		keep, err := evalOne(ctx, prg, v)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, v)
		}
	}
	return out, nil
}

func evalOne(ctx context.Context, prg cel.Program, v vehicle.Vehicle) (bool, error) {
	result, _, err := prg.ContextEval(ctx, map[string]any{"vehicle": activation(v)})
	if err != nil {
		return false, fmt.Errorf("evaluation failed: %w", err)
	}
	boolResult, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression did not return a boolean, got %T", result.Value())
	}
	return boolResult, nil
}

// activation exposes the vehicle to the expression as a flat map. Money
// fields default to 0 when unset so comparisons don't need null checks.
func activation(v vehicle.Vehicle) map[string]any {
	m := map[string]any{
		"id":             v.ID,
		"number":         v.VehicleNumber,
		"letter":         v.VehicleLetter,
		"province":       v.Province,
		"category":       v.Category,
		"chassis":        v.ChassisNumber,
		"importer":       v.ImporterName,
		"buyer":          v.BuyerName,
		"work_location":  v.WorkLocation,
		"notes":          v.Notes,
		"remaining":      v.RemainingAmount(),
		"active":         v.Active(),
		"amount":         0.0,
		"paid":           0.0,
	}
	if v.Amount != nil {
		m["amount"] = *v.Amount
	}
	if v.PaidAmount != nil {
		m["paid"] = *v.PaidAmount
	}
	return m
}
