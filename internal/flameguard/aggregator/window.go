package aggregator

// flameWindow is a fixed-capacity ring of flame readings that keeps a
// running count of positive entries. Not safe for concurrent use.
type flameWindow struct {
	buf       []bool
	head      int // next write position
	count     int
	positives int
}

func newFlameWindow(capacity int) *flameWindow {
	return &flameWindow{buf: make([]bool, capacity)}
}

// push appends v, evicting the oldest reading once the window is full.
func (w *flameWindow) push(v bool) {
	if w.count == len(w.buf) {
		if w.buf[w.head] {
			w.positives--
		}
	} else {
		w.count++
	}

	w.buf[w.head] = v
	if v {
		w.positives++
	}
	w.head = (w.head + 1) % len(w.buf)
}

func (w *flameWindow) full() bool {
	return w.count == len(w.buf)
}

func (w *flameWindow) reset() {
	clear(w.buf)
	w.head, w.count, w.positives = 0, 0, 0
}
