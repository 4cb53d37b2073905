// Package domain contains the core business entities: documents and
// their chunks, conversation messages, intent classifications, and the
// sentinel errors shared across the service layer. It has no
// dependencies on adapters or infrastructure.
package domain
