// Package membershipservice manages paid memberships: activation from
// gateway webhooks, admin grants, cancellation in two modes, pro-rated team
// upgrades and the refund flow against the payment provider.
//
// Layering follows the rest of the repo: domain entities own the status
// machines, application use cases own locking and orchestration, adapters
// own persistence and the provider API. The billing reconciler port keeps
// order-ledger updates behind the composition root so this service never
// imports the order service.
package membershipservice
