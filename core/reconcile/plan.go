package reconcile

import (
	"context"
	"fmt"
)

// BuildPlan reconciles and computes the repair actions. It does not execute
// them; use ApplyPlan for that.
func BuildPlan(ctx context.Context, adapter Adapter) (*Plan, error) {
	results, skipped, err := run(ctx, adapter)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Results: results, Actions: []Action{}}
	plan.Summary.TotalItems = len(results)
	plan.Summary.Skipped = skipped
	for _, r := range results {
		switch {
		case r.InSync():
			plan.Summary.InSync++
		case r.DBPresent:
			plan.Summary.MissingStorage++
			plan.Actions = append(plan.Actions, Action{
				Type:   ActionClearReference,
				Key:    r.Key,
				Reason: "referenced by " + r.Owner + " but missing in storage",
			})
		default:
			plan.Summary.Orphaned++
			plan.Actions = append(plan.Actions, Action{
				Type:   ActionDeleteStorage,
				Key:    r.Key,
				Reason: "not referenced by any row",
			})
		}
	}
	return plan, nil
}

// ApplyPlan executes the planned actions and returns how many ran.
// Nothing runs unless opts.Confirmed is set and opts.DryRun is not.
func ApplyPlan(ctx context.Context, adapter Adapter, plan *Plan, opts Options) (int, error) {
	if !opts.Confirmed || opts.DryRun || len(plan.Actions) == 0 {
		return 0, nil
	}

	mutator, ok := adapter.(Mutator)
	if !ok {
		return 0, fmt.Errorf("adapter %s does not implement Mutator", adapter.Name())
	}

	var deleteKeys, clearKeys []string
	for _, a := range plan.Actions {
		switch a.Type {
		case ActionDeleteStorage:
			deleteKeys = append(deleteKeys, a.Key)
		case ActionClearReference:
			clearKeys = append(clearKeys, a.Key)
		}
	}

	executed := 0
	if len(clearKeys) > 0 {
		if err := mutator.ClearReferences(ctx, clearKeys); err != nil {
			return executed, fmt.Errorf("clear references: %w", err)
		}
		executed += len(clearKeys)
	}
	if len(deleteKeys) > 0 {
		if err := mutator.DeleteStorage(ctx, deleteKeys); err != nil {
			return executed, fmt.Errorf("delete storage objects: %w", err)
		}
		executed += len(deleteKeys)
	}
	return executed, nil
}
