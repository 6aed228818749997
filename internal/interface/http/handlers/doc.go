// Package handlers contains reusable HTTP building blocks for the API server.
//
// # Health Checks
//
// CompositeHealthChecker runs named checks in parallel:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("database", handlers.NewPingCheck(db))
//	checker.AddCheck("cache", handlers.NewPingCheck(cache))
//
// # Admin Authentication
//
// Admin routes accept an X-API-Key (or Bearer token) whose bcrypt hash is configured:
//
//	auth := handlers.NewAPIKeyAuth("X-API-Key", cfg.HTTP.AdminKeyHashes)
//	protected := auth.Middleware(adminHandler)
//
// Keys are never stored in plain text; HashKey produces the configured value.
package handlers
