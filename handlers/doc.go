// Package handlers contains the business reactions to payment events. Each
// handler translates provider status vocabulary through the provider mappers
// and applies the result to platform services; no handler talks SQL or HTTP
// directly.
package handlers
