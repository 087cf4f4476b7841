package inbox

import (
	"github.com/rs/zerolog"
)

// EventOpenResource tells the webview to re-read the inbox.
const EventOpenResource = "open-resource"

// Broadcaster delivers events to the webview.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// Intake funnels the three resource sources into the inbox.
type Intake struct {
	inbox  *Inbox
	hub    Broadcaster
	logger zerolog.Logger
}

// NewIntake creates an intake over inbox. hub may be nil until the event
// channel is up; events are then dropped.
func NewIntake(inbox *Inbox, hub Broadcaster, logger zerolog.Logger) *Intake {
	return &Intake{
		inbox:  inbox,
		hub:    hub,
		logger: logger.With().Str("component", "intake").Logger(),
	}
}

// FromLaunchArgs stores URLs found in this process's own argument vector.
// No event is emitted; the webview reads the inbox when it boots.
func (in *Intake) FromLaunchArgs(args []string) {
	in.store(args)
}

// FromSecondInstance handles the argument vector forwarded by a second
// launch. Any payload beyond the program name signals the webview, whether
// or not it contained a URL.
func (in *Intake) FromSecondInstance(args []string) {
	in.logger.Info().Strs("args", args).Msg("single instance intercept")

	emit := len(args) > 1

	in.store(args)

	if emit {
		in.emit()
	}
}

// FromOpened handles URLs delivered by the OS open event. The list is
// already parsed and replaces the inbox as-is.
func (in *Intake) FromOpened(urls []string) {
	in.logger.Info().Strs("urls", urls).Msg("opened resources")

	in.inbox.Set(urls)
	in.emit()
}

func (in *Intake) store(args []string) {
	urls := ParseArgs(args)
	if in.inbox.Replace(urls) {
		in.logger.Debug().Strs("urls", urls).Msg("inbox replaced")
	}
}

func (in *Intake) emit() {
	if in.hub == nil {
		in.logger.Warn().Msg("no event channel, open-resource dropped")
		return
	}
	if err := in.hub.Broadcast(EventOpenResource, nil); err != nil {
		in.logger.Error().Err(err).Msg("failed to emit open-resource")
	}
}
