/*
Package observability turns workspace lifecycle events into Prometheus metrics and
structured logs.

Metrics.Hooks counts API requests by operation and status, session open and close
results, and translation passes, and keeps a gauge of the descriptors produced by the
last successful pass. LoggingHooks logs the same events through slog. Both return
domain.LifecycleHooks and can be combined with LifecycleHooks.Merge.
*/
package observability
