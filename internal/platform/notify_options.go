// Package platform sends desktop notifications through whatever the host
// operating system provides.
package platform

import "time"

// AppName is the application name reported to notification services.
const AppName = "Sketchpad"

// DefaultTimeout is how long a notification stays up when Options.Timeout is
// zero.
const DefaultTimeout = 5 * time.Second

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	// Timeout is a hint; not every platform honours it.
	Timeout time.Duration
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}
