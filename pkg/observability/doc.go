/*
Package observability turns engine lifecycle hooks into Prometheus metrics and
structured log lines.

	metrics := observability.NewMetrics()
	eng, _ := ratmaze.New(ratmaze.WithLifecycleHooks(observability.Chain(
		metrics.Hooks(),
		observability.LoggingHooks(logger),
	)))
	http.Handle("/metrics", metrics.Handler())
*/
package observability
