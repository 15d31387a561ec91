// Package video decodes video files and network streams into RGBA frames
// through GStreamer. Source satisfies scene.VideoSource, so a decoded
// stream plugs straight into the panorama projections.
package video

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// Source decodes a URI (file://, rtsp://, http://...) into RGBA frames.
// The latest decoded frame is kept under a mutex; readers never block on
// the decoder and the decoder never blocks on readers.
type Source struct {
	uri string

	pipeline *gst.Pipeline
	appsink  *app.Sink

	mu     sync.Mutex
	frame  []byte
	width  int
	height int
	ready  bool
	paused bool
	closed bool
}

// Open builds and starts the decode pipeline:
//
//	uridecodebin → videoconvert → capsfilter(RGBA) → appsink
//
// uridecodebin has dynamic pads, linked to videoconvert when they appear.
func Open(uri string) (*Source, error) {
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	decodebin, err := gst.NewElement("uridecodebin")
	if err != nil {
		return nil, fmt.Errorf("failed to create uridecodebin: %w", err)
	}
	decodebin.SetProperty("uri", uri)

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("failed to create videoconvert: %w", err)
	}

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("failed to create capsfilter: %w", err)
	}
	capsfilter.SetProperty("caps", gst.NewCapsFromString("video/x-raw,format=RGBA"))

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	appsink.SetProperty("sync", true)
	appsink.SetProperty("max-buffers", 1)
	appsink.SetProperty("drop", true)

	pipeline.AddMany(decodebin, converter, capsfilter, appsink.Element)
	if err := gst.ElementLinkMany(converter, capsfilter, appsink.Element); err != nil {
		return nil, fmt.Errorf("failed to link pipeline elements: %w", err)
	}

	// uridecodebin exposes pads only after stream discovery; link video
	// pads to videoconvert as they show up.
	decodebin.Connect("pad-added", func(self *gst.Element, srcPad *gst.Pad) {
		sinkPad := converter.GetStaticPad("sink")
		if sinkPad == nil || sinkPad.IsLinked() {
			return
		}
		if ret := srcPad.Link(sinkPad); ret != gst.PadLinkOK {
			slog.Error("video: failed to link decode pad",
				"pad", srcPad.GetName(), "ret", ret)
			return
		}
		slog.Debug("video: decode pad linked", "pad", srcPad.GetName())
	})

	s := &Source{uri: uri, pipeline: pipeline, appsink: appsink}

	appsink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(sink *app.Sink) gst.FlowReturn {
			return s.onNewSample(sink)
		},
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return nil, fmt.Errorf("failed to start pipeline: %w", err)
	}
	slog.Info("video: source opened", "uri", uri)
	return s, nil
}

// onNewSample copies the decoded frame out of the GStreamer buffer. A bad
// sample skips the frame rather than killing the stream.
func (s *Source) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		slog.Warn("video: failed to pull sample, skipping frame")
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		slog.Warn("video: sample without buffer, skipping frame")
		return gst.FlowOK
	}

	w, h := frameDimensions(sample)
	if w <= 0 || h <= 0 {
		slog.Warn("video: sample without caps dimensions, skipping frame")
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		slog.Warn("video: empty buffer received")
		return gst.FlowOK
	}
	frame := make([]byte, len(data))
	copy(frame, data)
	buffer.Unmap()

	s.mu.Lock()
	s.frame = frame
	s.width = w
	s.height = h
	s.ready = true
	s.mu.Unlock()
	return gst.FlowOK
}

// frameDimensions reads width/height from the sample caps.
func frameDimensions(sample *gst.Sample) (w, h int) {
	caps := sample.GetCaps()
	if caps == nil || caps.GetSize() == 0 {
		return 0, 0
	}
	st := caps.GetStructureAt(0)
	if st == nil {
		return 0, 0
	}
	if v, err := st.GetValue("width"); err == nil {
		if i, ok := v.(int); ok {
			w = i
		}
	}
	if v, err := st.GetValue("height"); err == nil {
		if i, ok := v.(int); ok {
			h = i
		}
	}
	return w, h
}

// Ready reports whether at least one frame has been decoded.
func (s *Source) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Paused reports whether playback is paused.
func (s *Source) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Size returns the dimensions of the latest frame.
func (s *Source) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Frame returns the latest decoded RGBA frame. The slice is owned by the
// source and replaced on the next frame; callers must not retain it
// across draws.
func (s *Source) Frame() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Play resumes a paused pipeline.
func (s *Source) Play() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("video: source closed")
	}
	s.paused = false
	s.mu.Unlock()
	return s.pipeline.SetState(gst.StatePlaying)
}

// Pause freezes playback; the last frame stays available.
func (s *Source) Pause() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("video: source closed")
	}
	s.paused = true
	s.mu.Unlock()
	return s.pipeline.SetState(gst.StatePaused)
}

// Close stops the pipeline and releases GStreamer resources. Safe to call
// more than once.
func (s *Source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if err := s.pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("failed to stop pipeline: %w", err)
	}
	slog.Info("video: source closed", "uri", s.uri)
	return nil
}
