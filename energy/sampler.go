package energy

import (
	"math/rand"
	"sync"
)

// Sampler draws one consumption reading in kWh for a device. Deployments with
// metering hardware replace the default with a reader backed by the device's
// power data point.
type Sampler interface {
	Sample(deviceID string) float64
}

// RandomSampler is the illustrative default: a uniform draw between a floor
// and a ceiling, enough to exercise the aggregation pipeline end to end.
type RandomSampler struct {
	Min float64
	Max float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomSampler(min, max float64, seed int64) *RandomSampler {
	if max < min {
		min, max = max, min
	}
	return &RandomSampler{
		Min: min,
		Max: max,
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (s *RandomSampler) Sample(deviceID string) float64 {
	_ = deviceID
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Min + s.rng.Float64()*(s.Max-s.Min)
}
