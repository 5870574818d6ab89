package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kozaktomas/attendance/internal/constants"
)

// MJPEGSource reads frames from a multipart/x-mixed-replace MJPEG stream,
// the format served by most IP cameras and by mjpg-streamer.
type MJPEGSource struct {
	streamURL string
	interval  time.Duration
	maxBytes  int64

	resp   *http.Response
	reader *multipart.Reader
	seq    int
	last   time.Time
}

// NewMJPEGSource connects to an MJPEG stream URL. interval throttles how
// often Next yields a frame; zero means every frame.
func NewMJPEGSource(ctx context.Context, streamURL string, interval time.Duration) (*MJPEGSource, error) {
	parsed, err := url.Parse(streamURL)
	if err != nil {
		return nil, fmt.Errorf("invalid stream URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid stream URL scheme %q: must be http or https", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not connect to stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("stream request failed with status %d", resp.StatusCode)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("could not parse stream content type: %w", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected stream content type %q: not an MJPEG stream", mediaType)
	}
	boundary, ok := params["boundary"]
	if !ok {
		resp.Body.Close()
		return nil, errors.New("stream content type is missing the multipart boundary")
	}

	return &MJPEGSource{
		streamURL: streamURL,
		interval:  interval,
		maxBytes:  constants.MaxFrameBytes,
		resp:      resp,
		reader:    multipart.NewReader(resp.Body, strings.TrimPrefix(boundary, "--")),
	}, nil
}

// Name identifies the source in records and logs.
func (s *MJPEGSource) Name() string {
	return "camera"
}

// Next reads the next frame from the stream, skipping frames that arrive
// faster than the configured interval.
func (s *MJPEGSource) Next(ctx context.Context) (Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}

		part, err := s.reader.NextPart()
		if errors.Is(err, io.EOF) {
			return Frame{}, ErrSourceExhausted
		}
		if err != nil {
			return Frame{}, fmt.Errorf("reading stream part: %w", err)
		}

		// Read one byte past the limit so a truncated frame is detectable
		// rather than passed on as a corrupt JPEG.
		data, err := io.ReadAll(io.LimitReader(part, s.maxBytes+1))
		part.Close()
		if err != nil {
			return Frame{}, fmt.Errorf("reading frame data: %w", err)
		}
		if int64(len(data)) > s.maxBytes {
			continue // oversized frame, skip it
		}

		now := time.Now()
		if s.interval > 0 && now.Sub(s.last) < s.interval {
			continue // drop the frame, camera is faster than we want to process
		}
		s.last = now

		s.seq++
		return Frame{Data: data, Seq: s.seq, TakenAt: now}, nil
	}
}

// Close terminates the stream connection.
func (s *MJPEGSource) Close() error {
	if s.resp != nil {
		return s.resp.Body.Close()
	}
	return nil
}
