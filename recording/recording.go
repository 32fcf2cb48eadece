package recording

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/disgoorg/json"
	"github.com/sasha-s/go-deadlock"
	"github.com/swz-git/zero-g-script/internal"
	"github.com/swz-git/zero-g-script/oerror"
	"github.com/zeebo/xxh3"
)

// CurrentVersion is written on the first line of every recording. Readers refuse other versions.
const CurrentVersion = "1"

// FileExtension is the extension of recording files created by Create.
const FileExtension = ".zgrec"

// maxPayloadLen bounds the payload of a single event so that a corrupted length cannot make the
// reader allocate arbitrary amounts of memory.
const maxPayloadLen = 16 << 20

// recordHeaderLen is the size of the ID, time and length fields preceding every payload.
const recordHeaderLen = 1 + 8 + 4

// ErrClosed is returned by Record after the recorder was closed.
var ErrClosed = errors.New("recorder closed")

// Header describes the session a recording was made in.
type Header struct {
	AgentID   string    `json:"agent_id"`
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
	Codec     string    `json:"codec"`
}

// Recorder writes events to a recording. Events are encoded by the caller of Record and written by a
// background goroutine, in the order they were recorded.
type Recorder struct {
	w     io.WriteCloser
	queue chan []byte
	done  chan struct{}
	err   error

	mu     deadlock.Mutex
	closed bool
}

// Create creates a new recording file in dir, named after the start time and session of the header.
// The path of the file is returned along with the recorder writing to it.
func Create(dir string, h Header) (*Recorder, string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, "", oerror.New("unable to create recording directory: %v", err)
	}
	name := fmt.Sprintf("%s-%s%s", h.StartedAt.Format("20060102-150405"), h.SessionID, FileExtension)
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, "", oerror.New("unable to open recording file: %v", err)
	}
	r, err := NewRecorder(f, h)
	if err != nil {
		_ = f.Close()
		return nil, "", err
	}
	return r, path, nil
}

// NewRecorder writes the recording header to w and returns a recorder writing events to it. Closing
// the recorder closes w.
func NewRecorder(w io.WriteCloser, h Header) (*Recorder, error) {
	enc, err := json.Marshal(h)
	if err != nil {
		return nil, oerror.New("unable to encode recording header: %v", err)
	}
	buf := internal.GetBuffer()
	defer internal.PutBuffer(buf)

	buf.WriteString(CurrentVersion + "\n")
	buf.Write(enc)
	buf.WriteString("\n")
	if _, err := w.Write(buf.Bytes()); err != nil {
		return nil, oerror.New("unable to write recording header: %v", err)
	}

	r := &Recorder{
		w:     w,
		queue: make(chan []byte, 256),
		done:  make(chan struct{}),
	}
	go r.handleRecording()
	return r, nil
}

// Record encodes the event and queues it to be written. It blocks if the queue is full.
func (r *Recorder) Record(ev Event) error {
	record, err := encodeRecord(ev)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.queue <- record
	return nil
}

// Close writes the events still queued and closes the underlying writer. The first error met while
// writing is returned.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done
	if err := r.w.Close(); err != nil && r.err == nil {
		r.err = oerror.New("unable to close recording: %v", err)
	}
	return r.err
}

func (r *Recorder) handleRecording() {
	defer close(r.done)

	w := bufio.NewWriter(r.w)
	for record := range r.queue {
		if r.err != nil {
			continue
		}
		if _, err := w.Write(record); err != nil {
			r.err = oerror.New("unable to write event: %v", err)
		}
	}
	if err := w.Flush(); err != nil && r.err == nil {
		r.err = oerror.New("unable to write event: %v", err)
	}
}

// encodeRecord encodes an event as [id u8][time i64][len u32][payload][xxh3 u64], all little endian.
// The checksum covers everything before it.
func encodeRecord(ev Event) ([]byte, error) {
	payload := internal.GetBuffer()
	defer internal.PutBuffer(payload)
	if err := ev.Encode(payload); err != nil {
		return nil, oerror.New("unable to encode event %d: %v", ev.ID(), err)
	}
	if payload.Len() > maxPayloadLen {
		return nil, oerror.New("event %d too large: %d bytes", ev.ID(), payload.Len())
	}

	record := make([]byte, 0, recordHeaderLen+payload.Len()+8)
	record = append(record, ev.ID())
	record = binary.LittleEndian.AppendUint64(record, uint64(ev.Time()))
	record = binary.LittleEndian.AppendUint32(record, uint32(payload.Len()))
	record = append(record, payload.Bytes()...)
	return binary.LittleEndian.AppendUint64(record, xxh3.Hash(record)), nil
}

// Reader reads the events of a recording in the order they were recorded.
type Reader struct {
	r      *bufio.Reader
	header Header
}

// NewReader reads the recording header from r. It returns an error if the version of the recording
// is not supported.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)

	version, err := br.ReadString('\n')
	if err != nil {
		return nil, oerror.New("unable to read recording version: %v", err)
	}
	if version = version[:len(version)-1]; version != CurrentVersion {
		return nil, oerror.New("unsupported recording version: %q", version)
	}

	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, oerror.New("unable to read recording header: %v", err)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return nil, oerror.New("unable to decode recording header: %v", err)
	}
	return &Reader{r: br, header: h}, nil
}

// Header returns the header of the recording.
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next event of the recording. io.EOF is returned once all events were read, and
// io.ErrUnexpectedEOF if the recording ends in the middle of an event.
func (r *Reader) Next() (Event, error) {
	head := make([]byte, recordHeaderLen)
	if _, err := io.ReadFull(r.r, head); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("unable to read event: %w", io.ErrUnexpectedEOF)
	}
	id := head[0]
	t := int64(binary.LittleEndian.Uint64(head[1:9]))
	n := binary.LittleEndian.Uint32(head[9:13])
	if n > maxPayloadLen {
		return nil, oerror.New("event %d claims a payload of %d bytes", id, n)
	}

	rest := make([]byte, int(n)+8)
	if _, err := io.ReadFull(r.r, rest); err != nil {
		return nil, fmt.Errorf("unable to read event %d: %w", id, io.ErrUnexpectedEOF)
	}
	payload, sum := rest[:n], binary.LittleEndian.Uint64(rest[n:])

	h := xxh3.New()
	_, _ = h.Write(head)
	_, _ = h.Write(payload)
	if h.Sum64() != sum {
		return nil, oerror.New("checksum mismatch for event %d recorded at %d", id, t)
	}
	return decodeEvent(id, t, payload)
}
