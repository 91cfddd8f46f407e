package input

import "testing"

func TestTranslate_RotaryAxes(t *testing.T) {
	cases := []struct {
		name string
		ev   Event
		want Command
	}{
		{"dial clockwise", Event{Type: evRel, Code: relDial, Value: 1}, Command{ActionRotate, 1}},
		{"dial counter-clockwise", Event{Type: evRel, Code: relDial, Value: -1}, Command{ActionRotate, -1}},
		{"wheel multi-detent", Event{Type: evRel, Code: relWheel, Value: 3}, Command{ActionRotate, 3}},
		{"zero-value rel", Event{Type: evRel, Code: relDial, Value: 0}, Command{}},
		{"unrelated rel axis", Event{Type: evRel, Code: 0x00, Value: 1}, Command{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Translate(tc.ev); got != tc.want {
				t.Errorf("Translate(%+v) = %+v, want %+v", tc.ev, got, tc.want)
			}
		})
	}
}

func TestTranslate_Keys(t *testing.T) {
	cases := []struct {
		name string
		ev   Event
		want Command
	}{
		{"volume up press", Event{Type: evKey, Code: keyVolumeUp, Value: evValuePress}, Command{ActionRotate, 1}},
		{"volume up repeat", Event{Type: evKey, Code: keyVolumeUp, Value: evValueRepeat}, Command{ActionRotate, 1}},
		{"volume up release", Event{Type: evKey, Code: keyVolumeUp, Value: evValueRelease}, Command{}},
		{"volume down press", Event{Type: evKey, Code: keyVolumeDown, Value: evValuePress}, Command{ActionRotate, -1}},
		{"mute press", Event{Type: evKey, Code: keyMute, Value: evValuePress}, Command{Action: ActionPress}},
		{"mute repeat ignored", Event{Type: evKey, Code: keyMute, Value: evValueRepeat}, Command{}},
		{"power press", Event{Type: evKey, Code: keyPower, Value: evValuePress}, Command{Action: ActionPowerPress}},
		{"power release ignored", Event{Type: evKey, Code: keyPower, Value: evValueRelease}, Command{}},
		{"unknown key", Event{Type: evKey, Code: 999, Value: evValuePress}, Command{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Translate(tc.ev); got != tc.want {
				t.Errorf("Translate(%+v) = %+v, want %+v", tc.ev, got, tc.want)
			}
		})
	}
}

func TestTranslate_IgnoresSynEvents(t *testing.T) {
	// EV_SYN frames (type 0) delimit event batches and must decode to nothing.
	if got := Translate(Event{Type: 0, Code: 0, Value: 0}); got != (Command{}) {
		t.Errorf("EV_SYN decoded to %+v", got)
	}
}
