package qr

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skip2/go-qrcode"
)

// ErrRender marks failures to encode a payload or persist its image.
var ErrRender = errors.New("qr render failed")

// DefaultSize gives roughly 10px per module for a ticket id at the highest
// recovery level, matching the printed ticket layout.
const DefaultSize = 330

type QRGenerator struct {
	level qrcode.RecoveryLevel
	size  int
}

func NewQRGenerator() *QRGenerator {
	return &QRGenerator{level: qrcode.Highest, size: DefaultSize}
}

// WithSize returns a copy that renders size x size pixel images.
func (q *QRGenerator) WithSize(size int) *QRGenerator {
	return &QRGenerator{level: q.level, size: size}
}

// Render encodes payload as a black-on-white PNG held in memory.
func (q *QRGenerator) Render(payload string) ([]byte, error) {
	code, err := q.encode(payload)
	if err != nil {
		return nil, err
	}
	png, err := code.PNG(q.size)
	if err != nil {
		return nil, fmt.Errorf("%w: encode png for %q: %v", ErrRender, payload, err)
	}
	return png, nil
}

// RenderToFile writes the PNG for payload to path. The parent directory must exist.
func (q *QRGenerator) RenderToFile(payload, path string) error {
	png, err := q.Render(payload)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrRender, filepath.Base(path), err)
	}
	return nil
}

func (q *QRGenerator) encode(payload string) (*qrcode.QRCode, error) {
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrRender)
	}
	code, err := qrcode.New(payload, q.level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return code, nil
}
