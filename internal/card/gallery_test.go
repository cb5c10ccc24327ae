package card

import "testing"

// fakeKeyBinder tracks binding acquisition and release so tests can assert
// the gallery never leaks the keyboard listener.
type fakeKeyBinder struct {
	handler  func(Key)
	bound    int
	released int
}

func (b *fakeKeyBinder) Bind(handler func(Key)) func() {
	b.handler = handler
	b.bound++
	return func() { b.released++ }
}

func TestGallery_ZeroValueIsClosed(t *testing.T) {
	var g Gallery
	if g.Open() {
		t.Fatal("zero-value gallery should be closed")
	}
	if g.Images() != nil {
		t.Errorf("closed gallery should expose no images")
	}
	// Navigation on a closed gallery must not panic or change state.
	g.Next()
	g.Previous()
	g.Close()
}

func TestGallery_OpenEmptyListIsNoOp(t *testing.T) {
	var g Gallery
	binder := &fakeKeyBinder{}
	g.OpenAt(nil, 0, binder)
	if g.Open() {
		t.Fatal("opening an empty list should be a no-op")
	}
	if binder.bound != 0 {
		t.Errorf("no-op open should not acquire the key binding")
	}
}

func TestGallery_NextWrapsAround(t *testing.T) {
	images := []string{"a.jpg", "b.jpg", "c.jpg"}
	var g Gallery
	g.OpenAt(images, 1, &fakeKeyBinder{})

	for i := 0; i < len(images); i++ {
		g.Next()
	}
	if g.Index() != 1 {
		t.Errorf("after %d Next calls index = %d, want back at 1", len(images), g.Index())
	}
}

func TestGallery_PreviousWrapsBeforeStart(t *testing.T) {
	var g Gallery
	g.OpenAt([]string{"a.jpg", "b.jpg", "c.jpg"}, 0, &fakeKeyBinder{})

	g.Previous()
	if g.Index() != 2 {
		t.Errorf("Previous from 0 should wrap to 2, got %d", g.Index())
	}
}

func TestGallery_KeyDispatch(t *testing.T) {
	binder := &fakeKeyBinder{}
	var g Gallery
	g.OpenAt([]string{"a.jpg", "b.jpg"}, 0, binder)

	binder.handler(KeyArrowRight)
	if g.Index() != 1 {
		t.Errorf("ArrowRight should advance, index = %d", g.Index())
	}
	binder.handler(KeyArrowLeft)
	if g.Index() != 0 {
		t.Errorf("ArrowLeft should step back, index = %d", g.Index())
	}
	binder.handler(KeyEscape)
	if g.Open() {
		t.Fatal("Escape should close the gallery")
	}
	if binder.released != 1 {
		t.Errorf("closing should release the binding once, released %d times", binder.released)
	}
}

func TestGallery_ReopenReleasesPreviousBinding(t *testing.T) {
	first := &fakeKeyBinder{}
	second := &fakeKeyBinder{}
	var g Gallery
	g.OpenAt([]string{"a.jpg"}, 0, first)
	g.OpenAt([]string{"b.jpg", "c.jpg"}, 1, second)

	if first.released != 1 {
		t.Errorf("reopening should release the prior binding, released %d times", first.released)
	}
	if !g.Open() || g.Index() != 1 {
		t.Errorf("reopened gallery should be at index 1, open=%v index=%d", g.Open(), g.Index())
	}

	g.Close()
	g.Close()
	if second.released != 1 {
		t.Errorf("double Close should release exactly once, released %d times", second.released)
	}
}

func TestGallery_SelectThumbnail(t *testing.T) {
	var g Gallery
	g.OpenAt([]string{"a.jpg", "b.jpg", "c.jpg"}, 0, &fakeKeyBinder{})
	g.SelectThumbnail(2)
	if g.Index() != 2 {
		t.Errorf("SelectThumbnail(2) index = %d", g.Index())
	}
}
