package services

import (
	"strings"

	"github.com/skip2/go-qrcode"
)

type QRGenerator interface {
	Generate(subdomain string) ([]byte, error)
}

// MenuQRGenerator encodes the public menu URL of a restaurant as a PNG.
type MenuQRGenerator struct {
	BaseURL string
	Size    int
}

func (g MenuQRGenerator) MenuURL(subdomain string) string {
	return strings.TrimRight(g.BaseURL, "/") + "/" + subdomain
}

func (g MenuQRGenerator) Generate(subdomain string) ([]byte, error) {
	size := g.Size
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(g.MenuURL(subdomain), qrcode.Medium, size)
}
