package ratio

import "fmt"

// Offset bounds for crop-center adjustments, in integer percent.
const (
	MinOffset = -100
	MaxOffset = 100
)

// Target holds the print-ready pixel dimensions the service produces for one
// aspect ratio.
type Target struct {
	Key    string
	Width  int
	Height int
}

// targets lists the ratios the service generates, in display order.
var targets = []Target{
	{Key: "2x3", Width: 3600, Height: 5400},
	{Key: "3x4", Width: 2700, Height: 3600},
	{Key: "4x5", Width: 3600, Height: 4500},
	{Key: "ISO", Width: 3508, Height: 4967},
	{Key: "11x14", Width: 1650, Height: 2100},
}

// All returns the ratio targets in display order.
func All() []Target {
	out := make([]Target, len(targets))
	copy(out, targets)
	return out
}

// Keys returns the ratio keys in display order.
func Keys() []string {
	keys := make([]string, 0, len(targets))
	for _, t := range targets {
		keys = append(keys, t.Key)
	}
	return keys
}

// Lookup returns the target for a ratio key.
func Lookup(key string) (Target, bool) {
	for _, t := range targets {
		if t.Key == key {
			return t, true
		}
	}
	return Target{}, false
}

// Valid reports whether key names a known ratio.
func Valid(key string) bool {
	_, ok := Lookup(key)
	return ok
}

// ValidOffset reports whether n is a usable crop-center offset.
func ValidOffset(n int) bool {
	return n >= MinOffset && n <= MaxOffset
}

// Dimensions renders the target size the way the service does, e.g. "3600 x 5400 px".
func (t Target) Dimensions() string {
	return fmt.Sprintf("%d x %d px", t.Width, t.Height)
}

// AspectRatio returns width divided by height.
func (t Target) AspectRatio() float64 {
	return float64(t.Width) / float64(t.Height)
}
