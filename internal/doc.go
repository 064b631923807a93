// Package internal documents the expotrade server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem responses, and routing
// - domain: business logic for users, registrations, and site content
// - storage: persistence models and the postgres repositories
// - auth, audit, blob, config, email, metrics, otp, sanitize: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
