package config

import "fmt"

// Command line flags. These are bare tokens, not dash options, and they
// are the only arguments the program accepts.
const (
	FlagDisableAudio   = "disable-audio"
	FlagDisableVisuals = "disable-visuals"
)

// Toggles are the pipeline switches fixed at startup. Both default to
// enabled; there is no way to flip them once the supervisor is running.
type Toggles struct {
	AudioEnabled   bool
	VisualsEnabled bool
}

// ParseToggles reads the command line arguments (without the program
// name). Any token other than the two known flags is an error.
func ParseToggles(args []string) (Toggles, error) {
	t := Toggles{AudioEnabled: true, VisualsEnabled: true}
	for _, arg := range args {
		switch arg {
		case FlagDisableAudio:
			t.AudioEnabled = false
		case FlagDisableVisuals:
			t.VisualsEnabled = false
		default:
			return Toggles{}, fmt.Errorf("unrecognized argument %q (valid flags: %s, %s)",
				arg, FlagDisableAudio, FlagDisableVisuals)
		}
	}
	return t, nil
}

// Usage is the one-line invocation summary printed on argument errors.
func Usage() string {
	return fmt.Sprintf("usage: streampi [%s] [%s]", FlagDisableAudio, FlagDisableVisuals)
}
