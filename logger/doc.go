// Package logger provides structured logging for evtsrc using zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers. Fields are passed as plain maps so call sites
// stay free of zerolog types.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("sse")
//	log.Debug("[SSE] Message broadcast", logger.Fields("waiters", 3))
package logger
