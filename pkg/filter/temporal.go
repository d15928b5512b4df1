// Package filter provides fixed-window smoothing for noisy scalar sensor
// streams (distance, pitch and roll, motor load, light differential).
package filter

import (
	"errors"

	"gonum.org/v1/gonum/stat"
)

// ErrWindowSize is returned when a filter is built with a window below 1.
var ErrWindowSize = errors.New("filter: window size must be at least 1")

// Temporal is a moving-average filter over the last N pushed values.
// The window is allocated once and never resized. Not safe for concurrent
// use; each smoothed quantity owns its own instance.
type Temporal struct {
	window []float64
	next   int // slot the next value is written to
	count  int // values held, <= len(window)
	mean   float64
}

// NewTemporal creates a filter averaging over the last size values.
func NewTemporal(size int) (*Temporal, error) {
	if size < 1 {
		return nil, ErrWindowSize
	}
	return &Temporal{window: make([]float64, size)}, nil
}

// MustTemporal is like NewTemporal but panics on an invalid size.
// Use it only with constant window sizes.
func MustTemporal(size int) *Temporal {
	f, err := NewTemporal(size)
	if err != nil {
		panic(err)
	}
	return f
}

// Push inserts v, evicting the oldest value once the window is full, and
// returns the mean of the values currently held. Before the window fills
// the mean covers only what has been collected so far.
func (f *Temporal) Push(v float64) float64 {
	f.window[f.next] = v
	f.next = (f.next + 1) % len(f.window)
	if f.count < len(f.window) {
		f.count++
	}
	// The first count slots are always the populated ones.
	f.mean = stat.Mean(f.window[:f.count], nil)
	return f.mean
}

// Mean returns the last computed mean (0 before the first Push).
func (f *Temporal) Mean() float64 {
	return f.mean
}

// Len returns how many values are currently held.
func (f *Temporal) Len() int {
	return f.count
}

// Size returns the window length.
func (f *Temporal) Size() int {
	return len(f.window)
}

// Reset drops all held values.
func (f *Temporal) Reset() {
	for i := range f.window {
		f.window[i] = 0
	}
	f.next, f.count, f.mean = 0, 0, 0
}
