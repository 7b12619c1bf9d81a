// Package pix renders the static PIX payment surface: the BR Code
// string the buyer copies into their banking app, and a QR image of it.
// Nothing here verifies payment; checkout trusts the buyer's
// confirmation.
package pix

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/skip2/go-qrcode"
)

// QRCodePNG renders the BR Code as a PNG of size x size pixels.
func QRCodePNG(brCode string, size int) ([]byte, error) {
	const op = "pix.QRCodePNG"

	if size <= 0 {
		size = 256
	}

	qr, err := qrcode.New(brCode, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, qr.Image(size)); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return buf.Bytes(), nil
}
