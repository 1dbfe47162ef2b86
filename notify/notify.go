// Package notify shows desktop notifications after a relay switch.
// Notifications go over the session D-Bus, with notify-send as a fallback.
package notify

import (
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/godbus/dbus/v5"
	"go.uber.org/multierr"

	"github.com/yllada/mullvad-rotate/common"
)

// NotificationType represents the type of notification
type NotificationType int

const (
	NotificationInfo NotificationType = iota
	NotificationSuccess
	NotificationWarning
	NotificationError
)

// Notification represents a system notification
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
	Icon    string
}

func (n Notification) icon() string {
	if n.Icon != "" {
		return n.Icon
	}
	switch n.Type {
	case NotificationWarning:
		return "dialog-warning"
	case NotificationError:
		return "dialog-error"
	default:
		return "network-vpn"
	}
}

// urgency maps to the freedesktop urgency levels.
func (n Notification) urgency() byte {
	switch n.Type {
	case NotificationError:
		return 2
	case NotificationWarning:
		return 1
	default:
		return 0
	}
}

func (n Notification) urgencyName() string {
	return [...]string{"low", "normal", "critical"}[n.urgency()]
}

// Backend delivers a notification.
type Backend interface {
	Send(n Notification) error
}

// Notifier tries each backend in order until one succeeds.
type Notifier struct {
	backends []Backend
}

var _ common.Notifier = (*Notifier)(nil)

// New returns a notifier using D-Bus with a notify-send fallback.
func New() *Notifier {
	return NewWithBackends(&DBusBackend{}, &CommandBackend{})
}

// NewWithBackends returns a notifier using the given backends.
func NewWithBackends(backends ...Backend) *Notifier {
	return &Notifier{backends: backends}
}

// Show displays n using the first backend that works.
func (nt *Notifier) Show(n Notification) error {
	if len(nt.backends) == 0 {
		return errors.New("no notification backend configured")
	}
	var errs error
	for _, b := range nt.backends {
		err := b.Send(n)
		if err == nil {
			return nil
		}
		common.LogDebug("Notification backend %T failed: %v", b, err)
		errs = multierr.Append(errs, err)
	}
	return errs
}

// Notify shows an informational notification.
func (nt *Notifier) Notify(title, message string) error {
	return nt.Show(Notification{Title: title, Message: message, Type: NotificationSuccess})
}

// NotifyWarning shows a warning notification.
func (nt *Notifier) NotifyWarning(title, message string) error {
	return nt.Show(Notification{Title: title, Message: message, Type: NotificationWarning})
}

// NotifyError shows a critical notification.
func (nt *Notifier) NotifyError(title, message string) error {
	return nt.Show(Notification{Title: title, Message: message, Type: NotificationError})
}

// DBusBackend calls org.freedesktop.Notifications on the session bus.
type DBusBackend struct{}

const (
	dbusDest   = "org.freedesktop.Notifications"
	dbusPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	dbusMethod = "org.freedesktop.Notifications.Notify"
	// expireTimeout is in milliseconds.
	expireTimeout = int32(5000)
)

// Send implements Backend.
func (DBusBackend) Send(n Notification) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return err
	}
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(n.urgency()),
	}
	obj := conn.Object(dbusDest, dbusPath)
	call := obj.Call(dbusMethod, 0,
		common.AppName, uint32(0), n.icon(), n.Title, n.Message,
		[]string{}, hints, expireTimeout)
	return call.Err
}

// CommandBackend runs notify-send.
type CommandBackend struct{}

// Send implements Backend.
func (CommandBackend) Send(n Notification) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "notify-send",
		"--app-name="+common.AppName,
		"--icon="+n.icon(),
		"--urgency="+n.urgencyName(),
		n.Title,
		n.Message,
	)
	return cmd.Run()
}
