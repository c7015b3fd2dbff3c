package mimetypes

import (
	"testing"
)

func TestBase(t *testing.T) {
	tests := []struct {
		name     string
		detected string
		want     MIME
	}{
		{"Plain text with charset", "text/plain; charset=utf-8", TextPlain},
		{"HTML text", "text/html; charset=utf-8", TextHTML},
		{"JSON", "application/json", ApplicationJSON},
		{"PNG", "image/png", ImagePNG},
		{"Invalid MIME", "not a mime", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Base(tt.detected); got != tt.want {
				t.Errorf("Base(%q) = %v; want %v", tt.detected, got, tt.want)
			}
		})
	}
}

func TestSniff(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	tests := []struct {
		name string
		head []byte
		want MIME
	}{
		{"PNG signature", png, ImagePNG},
		{"PDF signature", []byte("%PDF-1.7\n"), ApplicationPDF},
		{"Plain text", []byte("hello world\n"), TextPlain},
		{"Binary", []byte{0x00, 0x01, 0x02, 0x03, 0x9c}, OctetStream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sniff(tt.head); got != tt.want {
				t.Errorf("Sniff() = %v; want %v", got, tt.want)
			}
		})
	}
}
