// Package telemetry assembles housekeeping snapshots and hands them to an
// optional sink. Publishing is best effort: an unready sink is skipped and
// failures are dropped, never retried.
package telemetry

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-hexbug/pkg/robot"
)

// TopicRaw is the topic every snapshot is published under.
const TopicRaw = "raw"

// Payload keys.
const (
	KeyState      = "state"
	KeyTimestamp  = "timestamp_s"
	KeyPower      = "power"
	KeyBattery    = "battery_V"
	KeyMotorLoad  = "motor_load"
	KeySensor     = "sensor"
	KeyDistance   = "distance_cm"
	KeyCompass    = "compass"
	KeyHeading    = "heading_deg"
	KeyPitch      = "pitch_deg"
	KeyRoll       = "roll_deg"
	KeyPhotodiode = "photodiode"
	KeyIntensity  = "intensity"
	KeyCamIR      = "camera_IR"
	KeySize       = "size"
	KeyImage      = "image"
	KeyDebug      = "debug"
)

// ErrNotReady is returned by sinks asked to publish before they can.
var ErrNotReady = errors.New("telemetry: sink not ready")

// Sink receives snapshots.
type Sink interface {
	Publish(topic string, payload map[string]any) error
	Ready() bool
}

// Frame is the data one snapshot is built from. Nil slices mark features
// that are disabled and are left out of the payload.
type Frame struct {
	State       int
	TimestampS  float64
	BatteryV    float64
	MotorLoad   []int // walk, turn
	Distances   []int
	Orientation robot.Orientation
	Light       []int // left, right
	IRImage     []int // 8x8, row major
	Debug       []any
}

// Payload builds the nested snapshot mapping.
func (f Frame) Payload() map[string]any {
	power := map[string]any{KeyBattery: f.BatteryV}
	if f.MotorLoad != nil {
		power[KeyMotorLoad] = f.MotorLoad
	}

	sensor := map[string]any{
		KeyDistance: f.Distances,
		KeyCompass: map[string]any{
			KeyHeading: f.Orientation.Heading,
			KeyPitch:   f.Orientation.Pitch,
			KeyRoll:    f.Orientation.Roll,
		},
	}
	if f.Light != nil {
		sensor[KeyPhotodiode] = map[string]any{KeyIntensity: f.Light}
	}

	p := map[string]any{
		KeyState:     f.State,
		KeyTimestamp: f.TimestampS,
		KeyPower:     power,
		KeySensor:    sensor,
	}
	if f.IRImage != nil {
		p[KeyCamIR] = map[string]any{
			KeySize:  []int{8, 8},
			KeyImage: f.IRImage,
		}
	}
	if len(f.Debug) > 0 {
		p[KeyDebug] = f.Debug
	}
	return p
}

// Reporter publishes frames to a sink. Report is called from the background
// timer; AddDebug may be called from anywhere.
type Reporter struct {
	sink Sink
	log  *slog.Logger

	mu    sync.Mutex
	debug []any

	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewReporter creates a reporter. A nil sink makes every Report a no-op.
func NewReporter(sink Sink, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{sink: sink, log: logger}
}

// AddDebug queues a value for the debug list of the next published snapshot.
func (r *Reporter) AddDebug(v any) {
	r.mu.Lock()
	r.debug = append(r.debug, v)
	r.mu.Unlock()
}

// Report publishes f if the sink is ready and returns whether it went out.
// Queued debug values are attached and cleared only on a publish attempt.
func (r *Reporter) Report(f Frame) bool {
	if r.sink == nil || !r.sink.Ready() {
		return false
	}

	r.mu.Lock()
	if len(r.debug) > 0 {
		f.Debug = append(f.Debug, r.debug...)
		r.debug = nil
	}
	r.mu.Unlock()

	if err := r.sink.Publish(TopicRaw, f.Payload()); err != nil {
		r.dropped.Add(1)
		r.log.Debug("telemetry dropped", "error", err)
		return false
	}
	r.published.Add(1)
	return true
}

// Stats returns how many snapshots were published and dropped.
func (r *Reporter) Stats() (published, dropped uint64) {
	return r.published.Load(), r.dropped.Load()
}

// MultiSink fans snapshots out to several sinks. Only ready sinks receive
// a snapshot; errors are joined.
type MultiSink []Sink

// Publish implements Sink.
func (m MultiSink) Publish(topic string, payload map[string]any) error {
	var errs []error
	for _, s := range m {
		if !s.Ready() {
			continue
		}
		if err := s.Publish(topic, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ready reports whether any sink is ready.
func (m MultiSink) Ready() bool {
	for _, s := range m {
		if s.Ready() {
			return true
		}
	}
	return false
}
