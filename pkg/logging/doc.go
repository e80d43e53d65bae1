// Package logging provides structured logging utilities for forgeadm.
//
// # Overview
//
// This package wraps the standard library slog package with project defaults
// and conventions for consistent logging across all provisioning commands. It
// supports environment-based log level configuration, module/version context
// injection, and automatic source location tracking for debug logs.
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: Detailed diagnostic information with source location
//   - INFO: General informational messages (default)
//   - WARN/WARNING: Warning messages for potentially problematic situations
//   - ERROR: Error messages for failures requiring attention
//
// # Usage
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("forgeadm", "v1.0.0")
//
//	    slog.Info("installing component", "component", "nginx")
//	    slog.Error("step failed", "error", err)
//	}
//
// Setting explicit log level:
//
//	logging.SetDefaultStructuredLoggerWithLevel("forgeadm", "v1.0.0", "warn")
//
// # Environment Configuration
//
// The LOG_LEVEL environment variable controls logging verbosity:
//
//	LOG_LEVEL=debug forgeadm nginx install
//
// If LOG_LEVEL is not set, defaults to INFO level.
//
// # Output Format
//
// All logs are written to stderr in JSON format:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "step applied",
//	    "module": "forgeadm",
//	    "version": "v1.0.0",
//	    "step": "file /etc/nginx/nginx.conf"
//	}
//
// Debug logs include source location.
package logging
