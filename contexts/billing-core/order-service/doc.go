// Package orderservice implements order and invoice billing inside MemberHub.
//
// Layering:
// - domain: core entities, state machines, invariants, errors
// - application: commands/queries/workers using explicit ports
// - ports: stable boundaries for persistence, locking and events
// - adapters: concrete HTTP, memory and postgres implementations
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - Keep this module self-contained under the billing-core context.
// - Do not import other context adapters into domain/application.
// - Cross-service refunds are orchestrated through the composition root.
package orderservice
