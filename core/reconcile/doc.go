// Package reconcile compares the object keys a database references with the
// objects that actually exist in storage.
//
// An Adapter loads both sides as in-memory indices, concurrently. The engine
// builds the union of keys and reports, per key, which side it was found on.
// BuildPlan turns the drift into actions:
//   - an object nobody references is deleted from storage
//   - a reference to a missing object is cleared in the database
//
// ApplyPlan only runs those actions when the caller confirmed them and the
// adapter implements Mutator.
//
//	plan, err := reconcile.BuildPlan(ctx, adapter)
//	n, err := reconcile.ApplyPlan(ctx, adapter, plan, reconcile.Options{Confirmed: true})
package reconcile
