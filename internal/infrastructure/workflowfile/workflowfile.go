// Package workflowfile loads a Workflow from a YAML or JSON document on
// disk, supplementing the HTTP-submission path with a form operators can
// hand-author and the CLI runner can consume directly. The document
// shape mirrors the domain model field for field; YAML is decoded with
// gopkg.in/yaml.v3 and re-expressed through the same struct tree JSON
// uses so both formats share one decoder target.
package workflowfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/graflow/graflow/internal/domain"
)

// Document is the on-disk shape of a workflow definition.
type Document struct {
	ID              string              `yaml:"id" json:"id"`
	Name            string              `yaml:"name" json:"name"`
	ParameterSchema map[string]any      `yaml:"parameterSchema" json:"parameterSchema"`
	Nodes           []NodeDocument      `yaml:"nodes" json:"nodes"`
	Edges           []EdgeDocument      `yaml:"edges" json:"edges"`
	StartNode       string              `yaml:"startNode" json:"startNode"`
	EndNode         string              `yaml:"endNode" json:"endNode"`
	InitialState    map[string]any      `yaml:"initialState" json:"initialState"`
	MaxIterations   int                 `yaml:"maxIterations" json:"maxIterations"`
	DefaultConfigID string              `yaml:"defaultConfigId" json:"defaultConfigId"`
}

// NodeDocument is the on-disk shape of a Node.
type NodeDocument struct {
	ID        string             `yaml:"id" json:"id"`
	Type      string             `yaml:"type" json:"type"`
	Name      string             `yaml:"name" json:"name"`
	Config    map[string]any     `yaml:"config" json:"config"`
	SetState  []StateAssignDoc   `yaml:"setState" json:"setState"`
	Streaming *StreamingDoc      `yaml:"streaming" json:"streaming"`
}

// StreamingDoc is the on-disk shape of a StreamingPolicy.
type StreamingDoc struct {
	Enabled        bool `yaml:"enabled" json:"enabled"`
	SendOnComplete *bool `yaml:"sendOnComplete" json:"sendOnComplete"`
}

// StateAssignDoc is the on-disk shape of a StateAssignment; Rule is a
// list of maps matching the Rule-DSL step shape (if/then/else/return;
// the assignment form "name = expr" goes in a then or else value).
type StateAssignDoc struct {
	Key  string          `yaml:"key" json:"key"`
	Rule []RuleStepDoc   `yaml:"rule" json:"rule"`
}

// RuleStepDoc is the on-disk shape of one Rule-DSL step. Exactly the
// fields present are honored; see internal/template for evaluation.
type RuleStepDoc struct {
	If     *string `yaml:"if" json:"if"`
	Then   *string `yaml:"then" json:"then"`
	Else   *string `yaml:"else" json:"else"`
	Return *string `yaml:"return" json:"return"`
}

// EdgeDocument is the on-disk shape of an Edge: To for a static edge,
// Rule or Conditions for a dynamic one.
type EdgeDocument struct {
	ID         string           `yaml:"id" json:"id"`
	From       string           `yaml:"from" json:"from"`
	To         string           `yaml:"to" json:"to"`
	Rule       []RuleStepDoc    `yaml:"rule" json:"rule"`
	Conditions []ConditionDoc   `yaml:"conditions" json:"conditions"`
}

// ConditionDoc is the on-disk shape of one dynamic-edge condition entry.
type ConditionDoc struct {
	Condition string `yaml:"condition" json:"condition"`
	Node      string `yaml:"node" json:"node"`
}

// Load reads path (.yaml/.yml or .json, chosen by extension) and
// converts the decoded Document into a *domain.Workflow.
func Load(path string) (*domain.Workflow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workflowfile: read %s: %w", path, err)
	}

	var doc Document
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("workflowfile: parse yaml %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("workflowfile: parse json %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("workflowfile: unsupported extension %q", ext)
	}

	return Decode(&doc)
}

// Decode converts a decoded Document into a *domain.Workflow, shared by
// Load and the REST workflow-registration handler.
func Decode(d *Document) (*domain.Workflow, error) {
	now := time.Now()
	w := &domain.Workflow{
		ID:              d.ID,
		Name:            d.Name,
		ParameterSchema: d.ParameterSchema,
		StartNode:       d.StartNode,
		EndNode:         d.EndNode,
		InitialState:    d.InitialState,
		MaxIterations:   d.MaxIterations,
		DefaultConfigID: d.DefaultConfigID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if w.InitialState == nil {
		w.InitialState = map[string]any{}
	}

	for _, nd := range d.Nodes {
		n := domain.NewNode(nd.ID, nd.Type, nd.Name, nd.Config)
		for _, sa := range nd.SetState {
			n.SetState = append(n.SetState, domain.StateAssignment{
				Key:  sa.Key,
				Rule: toRuleSteps(sa.Rule),
			})
		}
		if nd.Streaming != nil {
			if nd.Streaming.SendOnComplete != nil {
				n.Streaming = domain.NewStreamingPolicy(nd.Streaming.Enabled, *nd.Streaming.SendOnComplete)
			} else {
				n.Streaming = domain.NewStreamingPolicy(nd.Streaming.Enabled, true)
			}
		}
		if err := w.AddNode(n); err != nil {
			return nil, err
		}
	}

	for _, ed := range d.Edges {
		switch {
		case ed.To != "":
			w.AddEdge(domain.NewStaticEdge(ed.ID, ed.From, ed.To))
		case len(ed.Conditions) > 0:
			conditions := make([]domain.Condition, 0, len(ed.Conditions))
			for _, c := range ed.Conditions {
				conditions = append(conditions, domain.Condition{Condition: c.Condition, Node: c.Node})
			}
			w.AddEdge(domain.NewDynamicConditionsEdge(ed.ID, ed.From, conditions))
		default:
			w.AddEdge(domain.NewDynamicRuleEdge(ed.ID, ed.From, toRuleSteps(ed.Rule)))
		}
	}

	return w, nil
}

func toRuleSteps(docs []RuleStepDoc) []domain.RuleStep {
	steps := make([]domain.RuleStep, 0, len(docs))
	for _, d := range docs {
		s := domain.RuleStep{}
		if d.If != nil {
			s.If, s.HasIf = *d.If, true
		}
		if d.Then != nil {
			s.Then, s.HasThen = *d.Then, true
		}
		if d.Else != nil {
			s.Else, s.HasElse = *d.Else, true
		}
		if d.Return != nil {
			s.Return, s.HasReturn = *d.Return, true
		}
		steps = append(steps, s)
	}
	return steps
}
