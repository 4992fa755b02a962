// Package qr renders a profile's emergency URL as a scannable QR code.
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const DEFAULT_SIZE = 256

// EmergencyURL builds the public emergency link for a username, e.g.
// https://crisislink.cv/alice.
func EmergencyURL(baseDomain, username string) string {
	return fmt.Sprintf("https://%v/%v", baseDomain, username)
}

// EncodePNG returns the URL encoded as a PNG image. Medium error
// correction keeps the code scannable on a cracked phone screen.
func EncodePNG(url string, size int) ([]byte, error) {
	if size <= 0 {
		size = DEFAULT_SIZE
	}

	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %v", err)
	}

	return png, nil
}
