package notify

import "sync"

// Recorder is a Notifier that keeps everything it receives in memory.
type Recorder struct {
	mu      sync.Mutex
	lines   []string
	status  string
	updates int
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

func (r *Recorder) SetStatusDisplay(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = text
	r.updates++
}

// Lines returns a copy of the recorded lines in arrival order.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Status returns the last status display text and how many updates arrived.
func (r *Recorder) Status() (string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status, r.updates
}
