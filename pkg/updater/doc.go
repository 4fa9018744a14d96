// Package updater owns a live tree and drives it from one snapshot to the
// next.
//
// An Updater holds the current snapshot and the live root that represents
// it. Each call to Update is one render cycle:
//
//	patches := vdom.Diff(current, next)       // pure, completes first
//	root, err := vdom.Apply(target, root, patches)
//	if err == nil { current = next }          // swap only on success
//
// Cycles are serialized, so no two diffs or applies overlap. A failed
// cycle leaves the current snapshot unchanged; because Apply is not
// transactional the live tree may then no longer match it, and the
// Updater refuses further cycles until Reset rebuilds the live tree.
//
// Each cycle is logged with log/slog, counted in Prometheus metrics when
// a Metrics is supplied, and traced as an OpenTelemetry span.
package updater
