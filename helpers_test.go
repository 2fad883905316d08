package st7789

import (
	"encoding/binary"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// event is a pin change, a word size change or a bus write.
type event struct {
	what string
	w    []byte
}

func (e event) String() string {
	if e.w != nil {
		return fmt.Sprintf("tx %x", e.w)
	}
	return e.what
}

// trace records pins and link in a single ordered log.
type trace struct {
	events []event
}

func (tr *trace) add(format string, args ...any) {
	tr.events = append(tr.events, event{what: fmt.Sprintf(format, args...)})
}

func (tr *trace) reset() {
	tr.events = nil
}

func (tr *trace) strings() []string {
	s := make([]string, len(tr.events))
	for i, e := range tr.events {
		s[i] = e.String()
	}
	return s
}

// writes returns the bus writes, outside of pixel data.
func (tr *trace) writes() []string {
	var (
		s         []string
		streaming bool
	)
	for _, e := range tr.events {
		switch {
		case e.what == "DC low":
			streaming = false
		case e.w == nil:
		case streaming:
		default:
			s = append(s, e.String())
			streaming = len(e.w) == 1 && e.w[0] == st7789RAMWR
		}
	}
	return s
}

// pixels returns the pixel data written after memory writes.
func (tr *trace) pixels(order binary.ByteOrder) []uint16 {
	var (
		words     []uint16
		streaming bool
	)
	for _, e := range tr.events {
		switch {
		case e.what == "DC low":
			streaming = false
		case e.w == nil:
		case streaming:
			for i := 0; i+1 < len(e.w); i += 2 {
				words = append(words, order.Uint16(e.w[i:]))
			}
		default:
			streaming = len(e.w) == 1 && e.w[0] == st7789RAMWR
		}
	}
	return words
}

// traceLink is a byte oriented link.
type traceLink struct {
	log    *trace
	err    error
	closed bool
}

func (l *traceLink) String() string {
	return "trace"
}

func (l *traceLink) Tx(w, r []byte) error {
	if l.err != nil {
		return l.err
	}
	l.log.events = append(l.log.events, event{w: append([]byte(nil), w...)})
	return nil
}

func (l *traceLink) Close() error {
	l.closed = true
	return nil
}

// wordLink can shift 16-bit words, like spidev.
type wordLink struct {
	*traceLink
	bits uint8
}

func (l *wordLink) SetBitsPerWord(bits uint8) error {
	l.bits = bits
	l.log.add("bits %d", bits)
	return nil
}

// blockingLink never completes a write until released.
type blockingLink struct {
	release chan struct{}
}

func (l *blockingLink) String() string {
	return "blocking"
}

func (l *blockingLink) Tx(w, r []byte) error {
	<-l.release
	return nil
}

type tracePin struct {
	*gpiotest.Pin
	log *trace
}

func (p *tracePin) Out(l gpio.Level) error {
	if l {
		p.log.add("%s high", p.N)
	} else {
		p.log.add("%s low", p.N)
	}
	return p.Pin.Out(l)
}

// stepClock is a fake clock on which sleeping moves time forward immediately.
type stepClock struct {
	clockwork.FakeClock
	slept []time.Duration
}

func (c *stepClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.Advance(d)
}

// delays returns the sleeps of a millisecond or more.
func (c *stepClock) delays() []time.Duration {
	var ds []time.Duration
	for _, d := range c.slept {
		if d >= time.Millisecond {
			ds = append(ds, d)
		}
	}
	return ds
}

type rig struct {
	log             *trace
	clock           *stepClock
	link            *traceLink
	dc, cs, rst, bl *tracePin
	dev             *Device
	r               *Rasterizer
}

func newRig() *rig {
	tr := new(trace)
	return &rig{
		log:   tr,
		clock: &stepClock{FakeClock: clockwork.NewFakeClock()},
		link:  &traceLink{log: tr},
		dc:    &tracePin{Pin: &gpiotest.Pin{N: "DC"}, log: tr},
		cs:    &tracePin{Pin: &gpiotest.Pin{N: "CS"}, log: tr},
		rst:   &tracePin{Pin: &gpiotest.Pin{N: "RST"}, log: tr},
		bl:    &tracePin{Pin: &gpiotest.Pin{N: "BL"}, log: tr},
	}
}

func (r *rig) config() *Config {
	return &Config{
		Reset:     r.rst,
		DC:        r.dc,
		CS:        r.cs,
		Backlight: r.bl,
		Clock:     r.clock,
	}
}

func (r *rig) open(t *testing.T, link Link) {
	t.Helper()
	dev, err := New(link, r.config())
	if err != nil {
		t.Fatal(err)
	}
	r.dev = dev
	r.r = NewRasterizer(dev)
	r.log.reset()
	r.clock.slept = nil
}

// newByteRig returns an initialized display on a byte oriented link.
func newByteRig(t *testing.T) *rig {
	t.Helper()
	r := newRig()
	r.open(t, r.link)
	return r
}

// newWordRig returns an initialized display on a link that can shift 16-bit words.
func newWordRig(t *testing.T) (*rig, *wordLink) {
	t.Helper()
	r := newRig()
	link := &wordLink{traceLink: r.link}
	r.open(t, link)
	return r, link
}
