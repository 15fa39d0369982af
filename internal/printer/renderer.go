package printer

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	"github.com/printrelay/printrelay/internal/message"
)

const ruleWidth = 30

// Renderer translates one message (plus its assigned ordinal) into physical
// output. It holds no state between calls; the device is acquired and released
// inside each Render.
type Renderer struct {
	device Device
}

func NewRenderer(device Device) *Renderer {
	return &Renderer{device: device}
}

// Render builds the command sequence for the message and sends it to the
// device. An ordinal of 0 means the message was never numbered and the title
// prints as-is.
func (r *Renderer) Render(m *message.Message, ordinal int64) error {
	doc, err := BuildDocument(m, ordinal)
	if err != nil {
		return err
	}
	return r.device.Print(doc)
}

// BuildDocument produces the deterministic device command sequence:
// bold centered title, optional centered image, optional left-aligned body,
// separator rule, buzzer.
func BuildDocument(m *message.Message, ordinal int64) ([]byte, error) {
	var b commandBuilder
	b.init()

	title := transliterate(m.Title)
	if ordinal > 0 {
		title = fmt.Sprintf("#%d. %s", ordinal, title)
	}

	b.feed(1)
	b.setBold(true)
	b.setAlign(alignCenter)
	b.text(title)
	b.feed(1)

	if m.HasImage() {
		img, err := png.Decode(bytes.NewReader(m.Image))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image for rendering: %w", err)
		}
		b.feed(2)
		if err := b.raster(ditherMono(img)); err != nil {
			return nil, err
		}
	}

	if body := strings.TrimSpace(m.Body); body != "" {
		b.feed(2)
		b.setBold(false)
		b.setAlign(alignLeft)
		b.text(transliterate(m.Body))
	}

	b.feed(2)
	b.setAlign(alignLeft)
	b.text(strings.Repeat("-", ruleWidth))
	b.feed(2)
	b.buzzer()

	return b.bytes(), nil
}
