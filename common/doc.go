// Package common provides shared constants, types, utilities, and interfaces
// used throughout mullvad-rotate.
//
// This package serves as the foundation for cross-cutting concerns:
//
//   - Constants: Application-wide constants like timeouts, file names, and endpoints
//   - Errors: Sentinel errors for consistent error handling across packages
//   - Interfaces: Abstractions for logging and notifications
//   - Logger: Leveled logging backed by zap, with optional rotating file output
//   - Utils: Common utility functions for directories and identifiers
//
// # Usage
//
//	// Use constants
//	timeout := common.CommandTimeout
//
//	// Use logger
//	common.LogInfo("Changing server to %s", hostname)
//
//	// Check errors
//	if errors.Is(err, common.ErrEmptyCandidateSet) {
//	    // Report the offending axis
//	}
package common
