// Package camera provides frame sources for the attendance loop: an MJPEG
// network camera stream and a folder of still images.
package camera

import (
	"context"
	"errors"
	"time"
)

// Frame is a single captured camera frame.
type Frame struct {
	Data    []byte // encoded image, typically JPEG
	Seq     int    // frame sequence number, starting at 1
	TakenAt time.Time
}

// ErrSourceExhausted is returned by Next when a finite source has no more frames.
var ErrSourceExhausted = errors.New("frame source exhausted")

// Source produces frames for the attendance loop.
type Source interface {
	// Next blocks until the next frame is available. Returns
	// ErrSourceExhausted when a finite source runs out of frames.
	Next(ctx context.Context) (Frame, error)
	// Name identifies the source in records and logs (camera, folder, web).
	Name() string
	// Close releases the source's resources.
	Close() error
}
