// Package media resolves image and audio references into bytes a
// classifier backend can analyze.
package media

import (
	"errors"
	"strings"
)

// ErrUnsupported is returned when a backend cannot analyze a media type
var ErrUnsupported = errors.New("media type not supported by classifier")

// Content is downloaded media ready for classification
type Content struct {
	Data     []byte
	MIMEType string
}

func (c Content) IsImage() bool {
	return strings.HasPrefix(c.MIMEType, "image/")
}

func (c Content) IsAudio() bool {
	return strings.HasPrefix(c.MIMEType, "audio/")
}
