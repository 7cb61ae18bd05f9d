package watcher

import (
	"fmt"
	"io"
	"os"

	"github.com/gen2brain/beeep"
)

// AppName is shown as the sender of desktop notifications.
const AppName = "pitchlab"

// Notify sends a desktop notification for the given alert. Warnings and
// critical alerts also play the system sound. If no notification service is
// available the alert is printed to stderr.
func Notify(alert Alert) error {
	beeep.AppName = AppName

	var err error
	if alert.Level == "info" {
		err = beeep.Notify(alert.Title, alert.Message, "")
	} else {
		err = beeep.Alert(alert.Title, alert.Message, "")
	}
	if err != nil {
		return notifyFallback(os.Stderr, alert)
	}
	return nil
}

// notifyFallback prints the alert when no desktop notification system is
// available.
func notifyFallback(w io.Writer, alert Alert) error {
	_, err := fmt.Fprintf(w, "[%s] %s: %s\n", alert.Level, alert.Title, alert.Message)
	return err
}
