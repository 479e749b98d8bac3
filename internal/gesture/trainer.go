package gesture

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/hand"
)

// Trainer processes recorded samples into template points.
type Trainer struct{}

// NewTrainer creates a new Trainer instance.
func NewTrainer() *Trainer {
	return &Trainer{}
}

// PoseSample is one recorded hand shape, normalized with hand.Hand.Normalize.
type PoseSample struct {
	Points    []mgl64.Vec3 `json:"points"`
	Timestamp int64        `json:"timestamp"`
}

// PathSample is one recorded fingertip trajectory.
type PathSample struct {
	Points    []mgl64.Vec3 `json:"points"`
	Timestamp int64        `json:"timestamp"`
}

// PoseSampleFromHand captures h as a pose sample.
func PoseSampleFromHand(h *hand.Hand, timestamp int64) (PoseSample, error) {
	points, ok := h.Normalize()
	if !ok {
		return PoseSample{}, fmt.Errorf("hand skeleton is incomplete")
	}
	return PoseSample{Points: points, Timestamp: timestamp}, nil
}

// Train dispatches to TrainPose or TrainPath.
func (t *Trainer) Train(kind TemplateType, samples []json.RawMessage) ([]mgl64.Vec3, error) {
	switch kind {
	case TemplatePose:
		return t.TrainPose(samples)
	case TemplatePath:
		return t.TrainPath(samples)
	}
	return nil, fmt.Errorf("unknown template type %q", kind)
}

// TrainPose averages pose samples point by point.
func (t *Trainer) TrainPose(samples []json.RawMessage) ([]mgl64.Vec3, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}

	var all [][]mgl64.Vec3
	for i, raw := range samples {
		var sample PoseSample
		if err := json.Unmarshal(raw, &sample); err != nil {
			return nil, fmt.Errorf("failed to parse sample %d: %w", i, err)
		}
		if len(sample.Points) == 0 {
			return nil, fmt.Errorf("sample %d has no points", i)
		}
		all = append(all, sample.Points)
	}

	numPoints := len(all[0])
	for i, points := range all {
		if len(points) != numPoints {
			return nil, fmt.Errorf("sample %d has %d points, expected %d", i, len(points), numPoints)
		}
	}

	return average(all, numPoints), nil
}

// TrainPath resamples every path to the first sample's length and averages them.
func (t *Trainer) TrainPath(samples []json.RawMessage) ([]mgl64.Vec3, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}

	var all [][]mgl64.Vec3
	for i, raw := range samples {
		var sample PathSample
		if err := json.Unmarshal(raw, &sample); err != nil {
			return nil, fmt.Errorf("failed to parse sample %d: %w", i, err)
		}
		if len(sample.Points) < 2 {
			return nil, fmt.Errorf("sample %d has insufficient path points", i)
		}
		all = append(all, sample.Points)
	}

	target := len(all[0])
	for i := range all {
		all[i] = ResamplePath(all[i], target)
	}
	return average(all, target), nil
}

func average(all [][]mgl64.Vec3, numPoints int) []mgl64.Vec3 {
	averaged := make([]mgl64.Vec3, numPoints)
	n := float64(len(all))
	for i := 0; i < numPoints; i++ {
		var sum mgl64.Vec3
		for _, points := range all {
			sum = sum.Add(points[i])
		}
		averaged[i] = sum.Mul(1 / n)
	}
	return averaged
}

// ResamplePath returns path linearly interpolated to exactly targetLength points.
func ResamplePath(path []mgl64.Vec3, targetLength int) []mgl64.Vec3 {
	if len(path) == 0 {
		return nil
	}
	if len(path) == 1 || targetLength <= 1 {
		return []mgl64.Vec3{path[0]}
	}

	result := make([]mgl64.Vec3, targetLength)
	for i := 0; i < targetLength; i++ {
		pos := float64(i) / float64(targetLength-1) * float64(len(path)-1)
		idx := int(pos)
		if idx >= len(path)-1 {
			idx = len(path) - 2
		}
		frac := pos - float64(idx)
		p1, p2 := path[idx], path[idx+1]
		result[i] = p1.Add(p2.Sub(p1).Mul(frac))
	}
	return result
}
