// Package observability provides structured logging and Prometheus metrics
// for the chatbot gateway.
//
// Loggers are built from the configured level and format. Chat metrics are
// registered on an injected registry and fed by the chat router as an observer.
package observability
