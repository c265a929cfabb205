package domain

// Context is the mapping exposed to templates and rules during a single
// execution (spec §3). The orchestrator exclusively owns the live
// execution's Context; no cross-execution sharing exists.
type Context struct {
	Parameters map[string]any
	Config     map[string]any
	State      map[string]any
	Parent     map[string]any // nodeId -> that node's most-recent output
}

// NewContext builds an empty Context ready for a fresh execution.
func NewContext(parameters, config, initialState map[string]any) *Context {
	state := map[string]any{}
	for k, v := range initialState {
		state[k] = v
	}
	if parameters == nil {
		parameters = map[string]any{}
	}
	if config == nil {
		config = map[string]any{}
	}
	return &Context{
		Parameters: parameters,
		Config:     config,
		State:      state,
		Parent:     map[string]any{},
	}
}

// Env returns the evaluation environment map for template/rule
// expressions: {parameters, config, state, parent}.
func (c *Context) Env() map[string]any {
	return map[string]any{
		"parameters": c.Parameters,
		"config":     c.Config,
		"state":      c.State,
		"parent":     c.Parent,
	}
}

// EnvWithOutput returns Env() plus an "output" binding, used when
// expanding setState rules (spec §3: "when expanding setState rules
// only: an additional output binding").
func (c *Context) EnvWithOutput(output any) map[string]any {
	env := c.Env()
	env["output"] = output
	return env
}
