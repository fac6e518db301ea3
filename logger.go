package wad

import (
	"io"
	"log"
)

var logger = log.New(io.Discard, "", log.LstdFlags)

// SetLogger sets the logger used to report decoding progress. Passing nil
// silences it again.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", log.LstdFlags)
	}
	logger = l
}
