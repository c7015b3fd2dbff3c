package mimetypes

import (
	"mime"

	"github.com/gabriel-vasile/mimetype"
)

type MIME string

const (
	Unknown     MIME = "unknown"
	OctetStream MIME = "application/octet-stream"
	TextPlain   MIME = "text/plain"
	TextHTML    MIME = "text/html"

	ApplicationPDF  MIME = "application/pdf"
	ApplicationJSON MIME = "application/json"
	ApplicationZIP  MIME = "application/zip"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	VideoMP4  MIME = "video/mp4"
)

// SniffLen is how many leading bytes of a file are enough to detect its type.
const SniffLen = 3072

// Base drops the parameters of a media type, "text/plain; charset=utf-8" gives text/plain.
func Base(detected string) MIME {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown
	}
	return MIME(mt)
}

// Sniff detects the type of a file from its leading bytes.
func Sniff(head []byte) MIME {
	return Base(mimetype.Detect(head).String())
}
