// Package core contains the canonical payment-event domain contracts,
// entities, and processing logic. Storage and transport adapters must depend
// on this package; core must not depend on provider-specific or
// transport-specific adapters.
package core
