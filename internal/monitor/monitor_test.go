package monitor

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"log"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/BeatGlow/st7789/aht10"
	"github.com/BeatGlow/st7789/pixel"
)

type text struct {
	x, y  int
	s     string
	fg    color.Color
	scale int
}

type fakeScreen struct {
	clears int
	texts  []text
	err    error
}

func (s *fakeScreen) Clear() error {
	s.clears++
	return s.err
}

func (s *fakeScreen) DrawText(x, y int, str string, fg, bg color.Color, scale int) error {
	if bg != pixel.Black {
		return errors.New("test: unexpected background")
	}
	s.texts = append(s.texts, text{x, y, str, fg, scale})
	return nil
}

func (s *fakeScreen) strings() []string {
	var out []string
	for _, t := range s.texts {
		out = append(out, t.s)
	}
	return out
}

type fakeSensor struct {
	triggers int
	readings []aht10.Reading
	errs     []error
}

func (s *fakeSensor) Trigger() error {
	s.triggers++
	return nil
}

func (s *fakeSensor) Read() (aht10.Reading, error) {
	i := s.triggers - 1
	if i < len(s.errs) && s.errs[i] != nil {
		return aht10.Reading{}, s.errs[i]
	}
	if i < len(s.readings) {
		return s.readings[i], nil
	}
	return aht10.Reading{Temperature: 20, Humidity: 30}, nil
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		r    aht10.Reading
		want []string
	}{
		{"hot", aht10.Reading{Temperature: 31, Humidity: 43.99}, []string{
			"TEMPERATURA ALTA", "TEMPERATURA: 31.00 C", "UMIDADE: 43.99%",
		}},
		{"hot and humid", aht10.Reading{Temperature: 31, Humidity: 45}, []string{
			"TEMPERATURA ALTA", "UMIDADE BAIXA", "TEMPERATURA: 31.00 C", "UMIDADE: 45.00%",
		}},
		{"humid", aht10.Reading{Temperature: 25.5, Humidity: 50}, []string{
			"UMIDADE ALTA", "TEMPERATURA: 25.50 C", "UMIDADE: 50.00%",
		}},
		{"at the limits", aht10.Reading{Temperature: 30, Humidity: 44}, []string{
			"TEMPERATURA ALTA", "UMIDADE BAIXA", "TEMPERATURA: 30.00 C", "UMIDADE: 44.00%",
		}},
		{"normal", aht10.Reading{Temperature: -4.25, Humidity: 12.5}, []string{
			"TEMPERATURA: -4.25 C", "UMIDADE: 12.50%",
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := new(fakeScreen)
			if err := Render(s, test.r, DefaultThresholds); err != nil {
				t.Fatal(err)
			}
			if s.clears != 1 {
				t.Errorf("expected the screen to be cleared once, got %d", s.clears)
			}
			if got := s.strings(); !slices.Equal(got, test.want) {
				t.Errorf("expected %q, got %q", test.want, got)
			}
		})
	}
}

func TestRenderHotOnly(t *testing.T) {
	s := new(fakeScreen)
	if err := Render(s, aht10.Reading{Temperature: 31, Humidity: 50}, Thresholds{Temperature: 30, Humidity: 60}); err != nil {
		t.Fatal(err)
	}
	want := []text{
		{20, 205, "TEMPERATURA ALTA", pixel.Red, 2},
		{0, 120, "TEMPERATURA: 31.00 C", pixel.Green, 2},
		{0, 145, "UMIDADE: 50.00%", pixel.Green, 2},
	}
	if !slices.Equal(s.texts, want) {
		t.Errorf("expected %v, got %v", want, s.texts)
	}
}

func TestRenderLayout(t *testing.T) {
	s := new(fakeScreen)
	if err := Render(s, aht10.Reading{Temperature: 31, Humidity: 45}, DefaultThresholds); err != nil {
		t.Fatal(err)
	}
	want := []text{
		{20, 205, "TEMPERATURA ALTA", pixel.Red, 2},
		{40, 180, "UMIDADE BAIXA", pixel.Red, 2},
		{0, 120, "TEMPERATURA: 31.00 C", pixel.Green, 2},
		{0, 145, "UMIDADE: 45.00%", pixel.Green, 2},
	}
	if !slices.Equal(s.texts, want) {
		t.Errorf("expected %v, got %v", want, s.texts)
	}
}

func TestRenderClearError(t *testing.T) {
	s := &fakeScreen{err: errors.New("test: bus")}
	if err := Render(s, aht10.Reading{}, DefaultThresholds); err == nil {
		t.Fatal("expected an error")
	}
	if len(s.texts) > 0 {
		t.Errorf("expected nothing drawn, got %q", s.strings())
	}
}

func newTestMonitor(s *fakeScreen, sensor *fakeSensor, clock clockwork.Clock) (*Monitor, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(s, sensor, &Config{
		Clock:  clock,
		Logger: log.New(&buf, "", 0),
	}), &buf
}

type sleepClock struct {
	clockwork.FakeClock
	slept []time.Duration
}

func (c *sleepClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.Advance(d)
}

func TestPoll(t *testing.T) {
	s := new(fakeScreen)
	sensor := &fakeSensor{readings: []aht10.Reading{{Temperature: 31, Humidity: 50}}}
	clock := &sleepClock{FakeClock: clockwork.NewFakeClock()}
	m, logs := newTestMonitor(s, sensor, clock)

	if err := m.Poll(); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(clock.slept, []time.Duration{aht10.MeasurementDelay}) {
		t.Errorf("expected to wait %s between trigger and read, got %v", aht10.MeasurementDelay, clock.slept)
	}
	if s.clears != 1 || len(s.texts) != 4 {
		t.Errorf("expected a full render, got %d clears and %q", s.clears, s.strings())
	}
	if !strings.Contains(logs.String(), "31.00°C 50.00%RH") {
		t.Errorf("expected the reading to be logged, got %q", logs.String())
	}
}

func TestPollSensorFailure(t *testing.T) {
	s := new(fakeScreen)
	sensor := &fakeSensor{errs: []error{aht10.ErrReadFailure}}
	clock := &sleepClock{FakeClock: clockwork.NewFakeClock()}
	m, logs := newTestMonitor(s, sensor, clock)

	if err := m.Poll(); !errors.Is(err, aht10.ErrReadFailure) {
		t.Fatalf("expected %v, got %v", aht10.ErrReadFailure, err)
	}
	if s.clears != 0 || len(s.texts) != 0 {
		t.Errorf("expected no draw calls, got %d clears and %q", s.clears, s.strings())
	}
	if !strings.Contains(logs.String(), "read failure") {
		t.Errorf("expected the failure to be logged, got %q", logs.String())
	}
}

func TestPollDisplayFailure(t *testing.T) {
	s := &fakeScreen{err: errors.New("test: bus")}
	clock := &sleepClock{FakeClock: clockwork.NewFakeClock()}
	m, logs := newTestMonitor(s, new(fakeSensor), clock)

	if err := m.Poll(); err != nil {
		t.Fatalf("expected a display failure not to fail the poll, got %v", err)
	}
	if !strings.Contains(logs.String(), "display: test: bus") {
		t.Errorf("expected the failure to be logged, got %q", logs.String())
	}
}

func TestBackoff(t *testing.T) {
	errs := make([]error, 8)
	for i := range errs {
		errs[i] = aht10.ErrReadFailure
	}
	sensor := &fakeSensor{errs: append(errs, nil)}
	clock := &sleepClock{FakeClock: clockwork.NewFakeClock()}
	m, _ := newTestMonitor(new(fakeScreen), sensor, clock)

	if got := m.wait(); got != time.Second {
		t.Errorf("expected %s before any failure, got %s", time.Second, got)
	}
	want := []time.Duration{2, 4, 8, 16, 30, 30, 30, 30}
	for i, w := range want {
		_ = m.Poll()
		if got := m.wait(); got != w*time.Second {
			t.Errorf("expected %s after %d failures, got %s", w*time.Second, i+1, got)
		}
	}
	if err := m.Poll(); err != nil {
		t.Fatal(err)
	}
	if got := m.wait(); got != time.Second {
		t.Errorf("expected %s after a success, got %s", time.Second, got)
	}
}

func TestRun(t *testing.T) {
	s := new(fakeScreen)
	sensor := new(fakeSensor)
	clock := clockwork.NewFakeClock()
	m, _ := newTestMonitor(s, sensor, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx)
	}()

	for i := 0; i < 2; i++ {
		clock.BlockUntil(1) // measurement delay
		clock.Advance(aht10.MeasurementDelay)
		clock.BlockUntil(1) // interval
		if i == 0 {
			clock.Advance(DefaultInterval)
		}
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected %v, got %v", context.Canceled, err)
	}
	if sensor.triggers != 2 {
		t.Errorf("expected 2 polls, got %d", sensor.triggers)
	}
	if s.clears != 2 {
		t.Errorf("expected 2 renders, got %d", s.clears)
	}
}

func TestRunCancelled(t *testing.T) {
	sensor := new(fakeSensor)
	m, _ := newTestMonitor(new(fakeScreen), sensor, clockwork.NewFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected %v, got %v", context.Canceled, err)
	}
	if sensor.triggers != 0 {
		t.Errorf("expected no poll, got %d", sensor.triggers)
	}
}
