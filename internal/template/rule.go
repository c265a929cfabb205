package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/graflow/graflow/internal/domain"
)

// assignment recognizes "name = <expr>" (not "==").
var assignment = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=\s*([^=\s].*)$`)

// EvaluateRule interprets a Rule-DSL program (spec §4.1) against env,
// returning either the value produced by a "return" step or, absent one,
// the final value bound by an implicit output local.
func (e *Evaluator) EvaluateRule(steps []domain.RuleStep, env map[string]any) (any, error) {
	locals := make(map[string]any, len(env)+1)
	for k, v := range env {
		locals[k] = v
	}

	var output any
	var haveOutput bool

	for _, step := range steps {
		if step.HasReturn {
			v, err := e.Eval(step.Return, locals)
			if err != nil {
				return nil, err
			}
			return v, nil
		}

		cond := true
		if step.HasIf {
			cv, err := e.Eval(step.If, locals)
			if err != nil {
				return nil, err
			}
			cond = truthy(cv)
		}

		var branch string
		var hasBranch bool
		if cond && step.HasThen {
			branch, hasBranch = step.Then, true
		} else if !cond && step.HasElse {
			branch, hasBranch = step.Else, true
		}
		if !hasBranch {
			continue
		}

		v, name, err := e.evalBranch(branch, locals)
		if err != nil {
			return nil, err
		}
		if name != "" {
			locals[name] = v
		}
		output = v
		haveOutput = true
	}

	if haveOutput {
		return output, nil
	}
	return nil, nil
}

// evalBranch evaluates a then/else branch, which is either a plain
// expression or an assignment "name = <expr>" that also binds a local.
func (e *Evaluator) evalBranch(branch string, env map[string]any) (value any, boundName string, err error) {
	if m := assignment.FindStringSubmatch(strings.TrimSpace(branch)); m != nil {
		v, evalErr := e.Eval(m[2], env)
		if evalErr != nil {
			return nil, "", evalErr
		}
		return v, m[1], nil
	}
	v, evalErr := e.Eval(branch, env)
	if evalErr != nil {
		return nil, "", evalErr
	}
	return v, "", nil
}

// ResolveDynamicEdge evaluates a dynamic edge's rule or conditions list
// against env and returns the next node id (spec §4.1 "dynamic-edge
// conditions variant" / §4.4 step 5j).
func (e *Evaluator) ResolveDynamicEdge(edge *domain.Edge, env map[string]any) (string, error) {
	if len(edge.Conditions) > 0 {
		for _, c := range edge.Conditions {
			v, err := e.Eval(c.Condition, env)
			if err != nil {
				return "", err
			}
			if truthy(v) {
				return c.Node, nil
			}
		}
		return "", fmt.Errorf("no condition matched for dynamic edge '%s'", edge.ID)
	}

	v, err := e.EvaluateRule(edge.Rule, env)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("dynamic edge '%s' rule did not return a string", edge.ID)
	}
	return s, nil
}
