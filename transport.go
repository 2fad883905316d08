package st7789

import (
	"encoding/binary"
	"fmt"
	"log"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio"
)

// settleDelay surrounds every DC/CS transition, as required by the controller timing.
const settleDelay = time.Microsecond

// mode of the link.
type mode uint8

const (
	commandMode mode = iota
	streamMode
)

func (m mode) String() string {
	if m == streamMode {
		return "stream"
	}
	return "command"
}

// transport frames commands and pixel data on the link.
//
// In command mode bytes are shifted 8 bits at a time and the DC line tells the controller
// whether a byte is an opcode or a parameter. In stream mode the controller has received a
// memory write and interprets everything that follows as 16-bit pixels.
type transport struct {
	link      Link
	words     WordSizer // nil if the link only shifts bytes
	dc        gpio.PinOut
	cs        gpio.PinOut // nil if the display has no chip select
	clock     clockwork.Clock
	timeout   time.Duration
	batchSize int
	mode      mode
	order     binary.ByteOrder
	buf       []byte
	pending   chan error // transaction abandoned after a timeout
	err       error      // set while the pending transaction runs
}

// phase of a transaction, named in bus errors.
type phase struct {
	op   byte
	kind uint8
}

const (
	phaseCommand uint8 = iota
	phaseParameters
	phaseMemoryWrite
	phasePixels
)

func (p phase) String() string {
	switch p.kind {
	case phaseParameters:
		return fmt.Sprintf("command 0x%02x parameters", p.op)
	case phaseMemoryWrite:
		return "memory write"
	case phasePixels:
		return "pixel data"
	default:
		return fmt.Sprintf("command 0x%02x", p.op)
	}
}

func newTransport(link Link, config *Config) *transport {
	t := &transport{
		link:      link,
		dc:        config.DC,
		clock:     config.Clock,
		timeout:   config.Timeout,
		batchSize: config.BatchSize,
		order:     binary.BigEndian,
		buf:       make([]byte, config.BatchSize),
	}
	if valid(config.CS) {
		t.cs = config.CS
	}
	if words, ok := link.(WordSizer); ok {
		t.words = words
	}
	return t
}

func (t *transport) settle() {
	t.clock.Sleep(settleDelay)
}

func (t *transport) selectChip(level gpio.Level) error {
	if t.cs == nil {
		return nil
	}
	return t.cs.Out(level)
}

// command sends an opcode with optional parameters, leaving stream mode first.
func (t *transport) command(op byte, params ...byte) (err error) {
	if err = t.resume(); err != nil {
		return
	}
	if err = t.leaveStream(); err != nil {
		return
	}

	t.settle()
	if err = t.selectChip(gpio.Low); err != nil {
		return
	}
	if err = t.dc.Out(gpio.Low); err != nil {
		return
	}
	t.settle()

	if err = t.write([]byte{op}, phase{op, phaseCommand}); err != nil {
		return
	}

	if len(params) > 0 {
		t.settle()
		if err = t.dc.Out(gpio.High); err != nil {
			return
		}
		t.settle()
		if err = t.writeChunked(params, phase{op, phaseParameters}); err != nil {
			return
		}
	}

	t.settle()
	if err = t.selectChip(gpio.High); err != nil {
		return
	}
	if err = t.dc.Out(gpio.High); err != nil {
		return
	}
	t.settle()
	return
}

// leaveStream returns to command mode, restoring 8-bit words. The mode is command
// afterwards even if the link refused the word size change.
func (t *transport) leaveStream() error {
	if t.mode == commandMode {
		return nil
	}
	t.mode = commandMode
	t.order = binary.BigEndian
	if t.words != nil {
		if err := t.words.SetBitsPerWord(8); err != nil {
			return &BusError{Op: "word size", Err: err}
		}
	}
	return nil
}

// enterStream issues a memory write and switches to 16-bit pixel words, unless the link is
// already streaming.
func (t *transport) enterStream() (err error) {
	if t.mode == streamMode {
		return nil
	}

	// The chip stays selected with DC high: the pixels that follow are the parameters of RAMWR.
	t.settle()
	if err = t.selectChip(gpio.Low); err != nil {
		return
	}
	if err = t.dc.Out(gpio.Low); err != nil {
		return
	}
	t.settle()
	if err = t.write([]byte{st7789RAMWR}, phase{st7789RAMWR, phaseMemoryWrite}); err != nil {
		return
	}
	t.settle()
	if err = t.dc.Out(gpio.High); err != nil {
		return
	}
	t.settle()

	if t.words != nil {
		if err = t.words.SetBitsPerWord(16); err != nil {
			return &BusError{Op: "word size", Err: err}
		}
		// The link shifts each 16-bit word from memory MSB first.
		t.order = binary.NativeEndian
	}
	t.mode = streamMode
	return
}

// writePixels shifts out RGB565 words in order, entering stream mode if needed.
func (t *transport) writePixels(words []uint16) error {
	if err := t.resume(); err != nil {
		return err
	}
	if err := t.enterStream(); err != nil {
		return err
	}
	perBatch := t.batchSize / 2
	for len(words) > 0 {
		n := min(len(words), perBatch)
		for i, word := range words[:n] {
			t.order.PutUint16(t.buf[i*2:], word)
		}
		if err := t.write(t.buf[:n*2], phase{st7789RAMWR, phasePixels}); err != nil {
			return err
		}
		words = words[n:]
	}
	return nil
}

func (t *transport) writeChunked(data []byte, op phase) error {
	if debug && len(data) > t.batchSize {
		log.Printf("st7789: write %d bytes of %s in %d chunks", len(data), op, (len(data)+t.batchSize-1)/t.batchSize)
	}
	for len(data) > 0 {
		n := min(len(data), t.batchSize)
		if err := t.write(data[:n], op); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// resume clears a timeout once the abandoned transaction has finished. What the controller
// received is unknown, so the link returns to command mode and the next pixels start with a new
// memory write.
func (t *transport) resume() error {
	if t.pending == nil {
		return nil
	}
	select {
	case <-t.pending:
	default:
		return t.err
	}
	t.pending = nil
	t.err = nil
	return t.leaveStream()
}

func (t *transport) write(p []byte, op phase) error {
	if t.err != nil {
		return t.err
	}
	if t.timeout <= 0 {
		if err := t.link.Tx(p, nil); err != nil {
			return &BusError{Op: op.String(), Err: err}
		}
		return nil
	}

	// The transaction may outlive this call, so it gets its own copy of the data.
	var (
		link = t.link
		w    = append([]byte(nil), p...)
		done = make(chan error, 1)
	)
	go func() {
		done <- link.Tx(w, nil)
	}()

	timer := t.clock.NewTimer(t.timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		if err != nil {
			return &BusError{Op: op.String(), Err: err}
		}
		return nil
	case <-timer.Chan():
		t.pending = done
		t.err = &BusError{Op: op.String(), Err: ErrBusTimeout}
		return t.err
	}
}
