// Package logger provides a structured logging facility based on Zap.
//
// Every ledger component receives a *zap.Logger through its constructor;
// tests pass zap.NewNop(). Request handlers attach the RayID of the current
// request with WithRayID so that a reconcile pass or a queued write can be
// traced back to the call that triggered it.
//
// # Configuration
//
//   - Level: debug, info, warn, error
//   - Format: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Reconcile finished", zap.Bool("degraded", view.Degraded))
package logger
