package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/identity"
)

// ActionCatalog is the action registry view the generator needs: Get for
// validation, Ordered for enumerating available actions (with their
// effects) into the prompt.
type ActionCatalog interface {
	ActionSource
	Ordered() []*content.Action
}

// Constraints narrows plan generation.
type Constraints struct {
	MaxSteps       int
	PreferredModel content.ExecutionModel
	OptimizeFor    string
}

// Generator prompts the reasoning model with the
// available action catalog and a goal, parses the structured response
// leniently, re-prompts once on a malformed response, and fails with a
// typed GenerationFailed error on a second failure so the caller can fall
// back to single-action mode for the message.
type Generator struct {
	actions ActionCatalog
}

// NewGenerator builds a Generator reading from the given action catalog.
func NewGenerator(actions ActionCatalog) *Generator {
	return &Generator{actions: actions}
}

// Generate asks rt.UseModel for a structured plan, preferring
// content.ModelReasoning and falling back to content.ModelTextLarge.
func (g *Generator) Generate(ctx context.Context, rt content.Runtime, msg *content.Message, state *content.State, goal string, constraints Constraints) (*content.ActionPlan, error) {
	prompt := g.buildPrompt(goal, state, constraints)

	plan, err := g.requestOnce(ctx, rt, prompt)
	if err == nil {
		if verr := Validate(plan, g.actions); verr == nil {
			return plan, nil
		}
	}

	// One re-prompt, asking the model to correct the malformed output.
	retryPrompt := prompt + "\n\nYour previous response was not a valid plan. Return only the JSON object described above."
	plan, err = g.requestOnce(ctx, rt, retryPrompt)
	if err != nil {
		return nil, newError(GenerationFailed, "", "plan generation failed after retry", err)
	}
	if verr := Validate(plan, g.actions); verr != nil {
		return nil, newError(GenerationFailed, plan.ID, "generated plan failed validation after retry", verr)
	}
	return plan, nil
}

func (g *Generator) requestOnce(ctx context.Context, rt content.Runtime, prompt string) (*content.ActionPlan, error) {
	params := content.ModelParams{
		"prompt": prompt,
		"schema": Schema(),
	}

	result, err := rt.UseModel(ctx, content.ModelReasoning, params)
	if err != nil {
		result, err = rt.UseModel(ctx, content.ModelTextLarge, params)
	}
	if err != nil {
		return nil, err
	}

	raw, _ := result["text"].(string)
	if raw == "" {
		if obj, ok := result["object"]; ok {
			return planFromObject(obj)
		}
		return nil, fmt.Errorf("model response carried neither text nor object")
	}
	return parsePlan(raw)
}

// parsePlan leniently extracts a JSON object from raw (tolerating
// surrounding prose or a fenced code block, the way models routinely wrap
// structured output) and unmarshals it into an ActionPlan.
func parsePlan(raw string) (*content.ActionPlan, error) {
	jsonText := extractJSON(raw)
	var p content.ActionPlan
	if err := json.Unmarshal([]byte(jsonText), &p); err != nil {
		return nil, fmt.Errorf("malformed plan JSON: %w", err)
	}
	if p.ID == "" {
		p.ID = identity.New()
	}
	return &p, nil
}

func planFromObject(obj any) (*content.ActionPlan, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return parsePlan(string(data))
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(raw, "```")
		raw = strings.TrimSpace(raw)
	}
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func (g *Generator) buildPrompt(goal string, state *content.State, c Constraints) string {
	var b strings.Builder
	b.WriteString("Goal: ")
	b.WriteString(goal)
	b.WriteString("\n\nAvailable actions:\n")
	for _, a := range g.actions.Ordered() {
		b.WriteString("- ")
		b.WriteString(a.Name)
		if a.Description != "" {
			b.WriteString(": ")
			b.WriteString(a.Description)
		}
		if a.Effects != nil {
			fmt.Fprintf(&b, " (provides=%v requires=%v modifies=%v)", a.Effects.Provides, a.Effects.Requires, a.Effects.Modifies)
		}
		b.WriteString("\n")
	}
	if state != nil && state.Text != "" {
		b.WriteString("\nContext:\n")
		b.WriteString(state.Text)
		b.WriteString("\n")
	}
	if c.MaxSteps > 0 {
		fmt.Fprintf(&b, "\nUse at most %d steps.\n", c.MaxSteps)
	}
	if c.PreferredModel != "" {
		fmt.Fprintf(&b, "Prefer executionModel=%q unless the goal requires otherwise.\n", c.PreferredModel)
	}
	if c.OptimizeFor != "" {
		fmt.Fprintf(&b, "Optimize for: %s\n", c.OptimizeFor)
	}
	b.WriteString("\nRespond with a single JSON object matching the ActionPlan schema: {id, goal, steps:[{id, actionName, params, dependsOn, onError, timeoutMs}], executionModel}.\n")
	return b.String()
}
