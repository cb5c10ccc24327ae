package card

// Gallery is the modal image viewer's state machine. It owns exactly one
// shared resource: the keyboard binding, acquired when the gallery opens and
// always released when it closes.

// Key identifies a keyboard event the gallery responds to.
type Key string

const (
	KeyArrowRight Key = "ArrowRight"
	KeyArrowLeft  Key = "ArrowLeft"
	KeyEscape     Key = "Escape"
)

// KeyBinder registers a key handler and returns the matching release
// function. Implementations wrap whatever global listener mechanism the
// presentation layer uses.
type KeyBinder interface {
	Bind(handler func(Key)) (unbind func())
}

// Gallery tracks which image set and index is active in the modal viewer.
// The zero value is a closed gallery.
type Gallery struct {
	images []string
	index  int
	open   bool
	unbind func()
}

// Open reports whether the modal is showing.
func (g *Gallery) Open() bool { return g.open }

// Images returns the active image list, nil while closed.
func (g *Gallery) Images() []string {
	if !g.open {
		return nil
	}
	return g.images
}

// Index returns the active image index; only meaningful while open.
func (g *Gallery) Index() int { return g.index }

// OpenAt opens the viewer over the given list at the given index and
// acquires the keyboard binding. Opening an empty list is a no-op: the
// wraparound arithmetic assumes a non-empty list, and the entry points
// never offer a gallery for zero images.
func (g *Gallery) OpenAt(images []string, index int, binder KeyBinder) {
	if len(images) == 0 {
		return
	}
	g.Close()
	g.images = images
	g.index = index
	g.open = true
	if binder != nil {
		g.unbind = binder.Bind(g.HandleKey)
	}
}

// Next advances to the following image, wrapping past the end.
func (g *Gallery) Next() {
	if !g.open {
		return
	}
	g.index = (g.index + 1) % len(g.images)
}

// Previous steps back one image, wrapping before the start.
func (g *Gallery) Previous() {
	if !g.open {
		return
	}
	g.index = (g.index - 1 + len(g.images)) % len(g.images)
}

// SelectThumbnail jumps straight to index i. Thumbnails enumerate the active
// list, so i is always in range.
func (g *Gallery) SelectThumbnail(i int) {
	if !g.open {
		return
	}
	g.index = i
}

// Close leaves the open state and releases the keyboard binding. Safe to
// call in any state.
func (g *Gallery) Close() {
	if g.unbind != nil {
		g.unbind()
		g.unbind = nil
	}
	g.open = false
	g.images = nil
	g.index = 0
}

// HandleKey dispatches the keyboard bindings active while the modal is open.
func (g *Gallery) HandleKey(k Key) {
	if !g.open {
		return
	}
	switch k {
	case KeyArrowRight:
		g.Next()
	case KeyArrowLeft:
		g.Previous()
	case KeyEscape:
		g.Close()
	}
}
