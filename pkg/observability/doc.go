/*
Package observability turns workflow lifecycle hooks into Prometheus metrics and
structured log lines.

Both are plain domain.LifecycleHooks values, so they compose with each other and
with caller hooks through LifecycleHooks.Merge:

	m := observability.NewMetrics()
	hooks := m.Hooks().Merge(observability.LogHooks(logger))
	s, err := remodel.New(remodel.WithLifecycleHooks(hooks), ...)
*/
package observability
