package gps

import (
	"io"
	"sync"
	"time"

	"github.com/b3nn0/mt3339/sentence"
)

// pipePort stands in for a serial port: the test feeds receiver output through
// feed and sees every frame the device writes on written.
type pipePort struct {
	r       *io.PipeReader
	feed    *io.PipeWriter
	written chan []byte
	closed  chan struct{}
	once    sync.Once
}

func newPipePort() *pipePort {
	r, w := io.Pipe()
	return &pipePort{r: r, feed: w, written: make(chan []byte, 64), closed: make(chan struct{})}
}

func (p *pipePort) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

func (p *pipePort) Write(b []byte) (int, error) {
	select {
	case <-p.closed:
		return 0, io.ErrClosedPipe
	default:
	}
	c := make([]byte, len(b))
	copy(c, b)
	p.written <- c
	return len(b), nil
}

func (p *pipePort) Close() error {
	p.once.Do(func() {
		close(p.closed)
		p.r.Close()
	})
	return nil
}

func (p *pipePort) isClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

// emulate answers PMTK commands the way an MT3339 does until the port closes.
func (p *pipePort) emulate() {
	for {
		select {
		case <-p.closed:
			return
		case raw := <-p.written:
			f := sentence.Decode(string(raw))
			var reply string
			if f.Type == "605" {
				reply = sentence.MustEncode("PMTK", "705", []string{"AXN_2.10_3339_2012072601", "5223", "PA6H", "1.0"})
			} else {
				reply = sentence.MustEncode("PMTK", "001", []string{f.Type, "3"})
			}
			if _, err := p.feed.Write([]byte(reply)); err != nil {
				return
			}
		}
	}
}

// portOpener hands out a fresh pipePort per Start and remembers them.
type portOpener struct {
	mu    sync.Mutex
	ports []*pipePort
	bauds []int
	err   error

	// emulate starts a receiver emulator on every port opened.
	emulate bool
}

func (o *portOpener) open(address string, baud int) (io.ReadWriteCloser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	p := newPipePort()
	o.ports = append(o.ports, p)
	o.bauds = append(o.bauds, baud)
	if o.emulate {
		go p.emulate()
	}
	return p, nil
}

func (o *portOpener) port(i int) *pipePort {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ports[i]
}

func waitLine(ch <-chan string) (string, bool) {
	select {
	case l := <-ch:
		return l, true
	case <-time.After(2 * time.Second):
		return "", false
	}
}
