package printer

import (
	"bytes"
	"fmt"
	"image"
)

// ESC/POS command builder. Command bytes follow the common subset supported by
// cheap 58mm thermal printers (POS-5890 class hardware).

const (
	alignLeft   = 0x00
	alignCenter = 0x01
)

type commandBuilder struct {
	buf bytes.Buffer
}

func (b *commandBuilder) init() {
	b.buf.Write([]byte{0x1b, 0x40}) // ESC @
}

func (b *commandBuilder) feed(lines int) {
	for i := 0; i < lines; i++ {
		b.buf.WriteByte('\n')
	}
}

func (b *commandBuilder) setBold(on bool) {
	v := byte(0x00)
	if on {
		v = 0x01
	}
	b.buf.Write([]byte{0x1b, 0x45, v}) // ESC E
}

func (b *commandBuilder) setAlign(mode byte) {
	b.buf.Write([]byte{0x1b, 0x61, mode}) // ESC a
}

func (b *commandBuilder) text(s string) {
	b.buf.WriteString(s)
}

func (b *commandBuilder) buzzer() {
	b.buf.Write([]byte{0x1b, 0x42, 0x02, 0x04}) // ESC B times duration
}

// raster emits a GS v 0 raster bit image. The image must already be 1-bit
// (every pixel either black or white); width is padded to a byte boundary.
func (b *commandBuilder) raster(img *image.Gray) error {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return fmt.Errorf("empty raster image")
	}

	bytesPerRow := (width + 7) / 8
	if bytesPerRow > 0xffff || height > 0xffff {
		return fmt.Errorf("raster image too large: %dx%d", width, height)
	}

	b.buf.Write([]byte{
		0x1d, 0x76, 0x30, 0x00, // GS v 0, normal density
		byte(bytesPerRow & 0xff), byte(bytesPerRow >> 8),
		byte(height & 0xff), byte(height >> 8),
	})

	row := make([]byte, bytesPerRow)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for i := range row {
			row[i] = 0
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.GrayAt(x, y).Y < 0x80 { // black dot
				i := x - bounds.Min.X
				row[i/8] |= 0x80 >> uint(i%8)
			}
		}
		b.buf.Write(row)
	}

	return nil
}

func (b *commandBuilder) bytes() []byte {
	return b.buf.Bytes()
}
