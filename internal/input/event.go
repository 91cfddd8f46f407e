package input

// Linux input-event constants, from <linux/input-event-codes.h>.
const (
	evKey = 0x01
	evRel = 0x02

	keyMute       = 113
	keyVolumeDown = 114
	keyVolumeUp   = 115
	keyPower      = 116

	relDial  = 0x07
	relWheel = 0x08

	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

// Event represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type Event struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// Action classifies what a translated input event asks the daemon to do.
type Action int

const (
	ActionNone Action = iota

	// ActionRotate adjusts the volume; Command.Steps carries the signed
	// detent count.
	ActionRotate

	// ActionPress is the dial's push button.
	ActionPress

	// ActionPowerPress is the dedicated power key.
	ActionPowerPress
)

// Command is a decoded input event.
type Command struct {
	Action Action
	Steps  int
}

// Translate maps a raw input event to a daemon command. Events that don't
// concern us decode to ActionNone.
//
// Rotary encoders report relative axes (REL_DIAL or REL_WHEEL) whose value is
// the signed detent count since the last event. Volume keys emulate single
// detents, repeating while held.
func Translate(ev Event) Command {
	switch ev.Type {
	case evRel:
		if ev.Code != relDial && ev.Code != relWheel {
			return Command{}
		}
		if ev.Value == 0 {
			return Command{}
		}
		return Command{Action: ActionRotate, Steps: int(ev.Value)}

	case evKey:
		switch ev.Code {
		case keyVolumeUp:
			if ev.Value == evValuePress || ev.Value == evValueRepeat {
				return Command{Action: ActionRotate, Steps: 1}
			}
		case keyVolumeDown:
			if ev.Value == evValuePress || ev.Value == evValueRepeat {
				return Command{Action: ActionRotate, Steps: -1}
			}
		case keyMute:
			if ev.Value == evValuePress {
				return Command{Action: ActionPress}
			}
		case keyPower:
			if ev.Value == evValuePress {
				return Command{Action: ActionPowerPress}
			}
		}
	}

	return Command{}
}
