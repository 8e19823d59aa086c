// Package log provides a logging abstraction for batcher components.
//
// This package defines a Logger interface that can be implemented by
// any logging library. Adapters are provided for zerolog and zap, plus
// a no-op logger used whenever no logger is configured.
//
// # Usage
//
// Use the provided zerolog adapter:
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//
// Or wrap an existing zap logger:
//
//	logger := log.NewZapAdapter(zap.NewExample())
//
// # Custom Loggers
//
// Implement the Logger interface to integrate with your existing
// logging infrastructure:
//
//	type MyLogger struct { ... }
//
//	func (l *MyLogger) Trace(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Debug(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Info(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Warn(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Error(msg string, fields ...log.Field) { ... }
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.1.0
//
// See version.go for version constants that can be used programmatically.
package log
