// Package present hands frames, click markers and errors from request
// goroutines to the game loop, which drains them once per draw.
package present

import (
	"image"
	"sync"
	"time"

	"github.com/olivierh59500/physarum-viewport/internal/logging"
	"github.com/olivierh59500/physarum-viewport/internal/model"
)

// StatusTTL is how long a reported error stays visible.
const StatusTTL = 5 * time.Second

// Batch is what one draw has to apply.
type Batch struct {
	// Frame is nil when nothing new arrived since the last drain.
	Frame  *model.Frame
	FPS    float64
	Marks  []image.Point
	Status string
}

// Resize reports whether a backing raster of curW x curH must be
// reallocated before the batch's frame is drawn.
func (b Batch) Resize(curW, curH int) bool {
	return b.Frame != nil && (b.Frame.Width != curW || b.Frame.Height != curH)
}

// Inbox is safe for concurrent use. Only the newest undrawn frame is
// kept; markers accumulate until drained.
type Inbox struct {
	mu       sync.Mutex
	frame    *model.Frame
	fps      float64
	marks    []image.Point
	status   string
	statusAt time.Time

	repaint chan struct{}
	now     func() time.Time
}

func NewInbox() *Inbox {
	return &Inbox{repaint: make(chan struct{}, 1), now: time.Now}
}

// Present queues a frame. Frames without pixels are dropped.
func (in *Inbox) Present(frame *model.Frame, fps float64) {
	if frame == nil || frame.Width <= 0 || frame.Height <= 0 {
		logging.Get().Warnf("dropping empty frame")
		return
	}
	in.mu.Lock()
	in.frame = frame
	in.fps = fps
	in.mu.Unlock()
}

// Mark queues a click marker at raster pixel (x, y).
func (in *Inbox) Mark(x, y int) {
	in.mu.Lock()
	in.marks = append(in.marks, image.Pt(x, y))
	in.mu.Unlock()
}

// Report sets the status line.
func (in *Inbox) Report(msg string) {
	in.mu.Lock()
	in.status = msg
	in.statusAt = in.now()
	in.mu.Unlock()
}

// Drain takes the pending frame and markers. The status line is
// returned until it expires.
func (in *Inbox) Drain() Batch {
	in.mu.Lock()
	defer in.mu.Unlock()
	b := Batch{Frame: in.frame, FPS: in.fps, Marks: in.marks}
	if in.status != "" && in.now().Sub(in.statusAt) <= StatusTTL {
		b.Status = in.status
	}
	in.frame, in.marks = nil, nil
	return b
}

// Repaint is the channel a scheduler waits on between ticks.
func (in *Inbox) Repaint() <-chan struct{} { return in.repaint }

// Signal marks a display refresh without blocking.
func (in *Inbox) Signal() {
	select {
	case in.repaint <- struct{}{}:
	default:
	}
}
