// Package common provides shared constants, types, and utilities
// used across mullvad-rotate.
package common

// Notifier defines the interface for sending notifications.
type Notifier interface {
	// Notify sends a notification with the given title and message.
	Notify(title, message string) error
	// NotifyWarning reports something that went wrong without failing the run.
	NotifyWarning(title, message string) error
	// NotifyError reports a failed run.
	NotifyError(title, message string) error
}
