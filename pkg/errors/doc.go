// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeCommandFailed,
//	    "failed to install packages",
//	    cmdErr,
//	    map[string]interface{}{
//	        "command": "apt-get install",
//	        "packages": packages,
//	    },
//	)
package errors
