// Package webhooks contains the HTTP ingestion boundary for provider
// webhook deliveries: signature verification over the raw body, envelope
// parsing, idempotent recording into the event store, and enqueueing for
// asynchronous processing.
//
// Signature or parse failures are rejected before any store write. After
// verification, business failures always answer 200 so providers do not
// retry-storm the endpoint; recovery happens in the worker loop instead.
package webhooks
