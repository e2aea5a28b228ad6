package platform

import (
	"errors"
	"testing"
	"time"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/input"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0B"},
		{512, "512B"},
		{1024, "1.0K"},
		{1536, "1.5K"},
		{1 << 20, "1.0M"},
		{1 << 30, "1.0G"},
	}
	for _, c := range cases {
		if got := FormatBytes(c.in); got != c.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFixedServicesPower(t *testing.T) {
	f := &FixedServices{}
	if _, err := f.Power(); !errors.Is(err, &fault.Error{Kind: fault.Unsupported}) {
		t.Errorf("Power without battery = %v, want Unsupported", err)
	}
	f.HasBatt = true
	f.Battery = PowerStatus{Percent: 73, Charging: true}
	p, err := f.Power()
	if err != nil || p.Percent != 73 || !p.Charging {
		t.Errorf("Power = %+v, %v", p, err)
	}
}

func TestFixedServicesClock(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	f := &FixedServices{Time: now, Up: time.Hour}
	if f.Now() != now {
		t.Errorf("Now = %v", f.Now())
	}
	if f.Uptime() != time.Hour {
		t.Errorf("Uptime = %v", f.Uptime())
	}
}

func TestOSKGridEntry(t *testing.T) {
	k := NewOSK()
	k.Open("")
	if !k.Active() {
		t.Fatal("not active after Open")
	}
	// Home position is '1'; confirm twice then commit.
	k.Handle(input.ButtonPress{Button: input.Confirm})
	k.Handle(input.ButtonPress{Button: input.Right})
	k.Handle(input.ButtonPress{Button: input.Confirm})
	k.Handle(input.ButtonPress{Button: input.Start})
	if k.Active() {
		t.Error("still active after Start")
	}
	if !k.Done() {
		t.Error("not done after Start")
	}
	if k.Text() != "12" {
		t.Errorf("Text = %q, want 12", k.Text())
	}
}

func TestOSKBackspaceAndCancelSession(t *testing.T) {
	k := NewOSK()
	k.Open("abc")
	k.Handle(input.ButtonPress{Button: input.Cancel})
	if k.Text() != "ab" {
		t.Errorf("Text after delete = %q, want ab", k.Text())
	}
	k.Handle(input.ButtonPress{Button: input.Select})
	if k.Active() || k.Done() {
		t.Errorf("Select should abandon: active=%v done=%v", k.Active(), k.Done())
	}
}

func TestOSKTextInputBypass(t *testing.T) {
	k := NewOSK()
	k.Open("")
	k.Handle(input.TextInput{Text: "typed"})
	if k.Text() != "typed" {
		t.Errorf("Text = %q", k.Text())
	}
}

func TestOSKWrapNavigation(t *testing.T) {
	k := NewOSK()
	k.Open("")
	k.Handle(input.ButtonPress{Button: input.Left})
	x, _ := k.Cursor()
	if x != len(k.Rows()[0])-1 {
		t.Errorf("Left from origin x = %d, want wrap to row end", x)
	}
	k.Handle(input.ButtonPress{Button: input.Up})
	_, y := k.Cursor()
	if y != len(k.Rows())-1 {
		t.Errorf("Up from origin y = %d, want wrap to last row", y)
	}
}
