// Package health serves liveness and readiness probes for a running shield.
//
// Liveness answers 200 while the process can serve HTTP. Readiness runs the
// registered checks concurrently, each bounded by the check timeout, and
// answers 503 if any of them fails:
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.Register("events", health.StorageCheck(store))
//	checker.Register("profile", health.ProfileCheck(watcher.LastError))
//	health.Mount(mux, checker, &cfg.Telemetry.Health, info)
package health
