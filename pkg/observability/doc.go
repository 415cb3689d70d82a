/*
Package observability exports the activity of a yerf tracker as Prometheus
metrics.

Metrics plugs into the tracker through domain.LifecycleHooks, and into the
reporting scheduler through ObserveFlush. Logging stays with the caller's
slog logger; pass WithLogger to have every hook also logged.
*/
package observability
