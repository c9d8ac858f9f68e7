// Package qrcode renders QR codes for authenticator enrollment URIs.
package qrcode

import (
	"encoding/base64"
	"errors"

	skipqrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered image width and height in pixels.
const DefaultSize = 256

var ErrEmptyContent = errors.New("qr content is empty")

// Generate renders content as a PNG image.
func Generate(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}
	return skipqrcode.Encode(content, skipqrcode.Medium, size)
}

// DataURI renders content as a PNG wrapped in a data URI suitable for
// embedding directly in an <img> tag.
func DataURI(content string, size int) (string, error) {
	png, err := Generate(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
