// Package mqtt provides MQTT client functionality and data transfer objects.
package mqtt

import (
	"time"

	"github.com/Aanishnithin07/Project-Aura/internal/pulse"
)

// VitalsDTO is the data transfer object published to the vitals topic.
//
// Field names are part of the MQTT API contract, downstream consumers
// key on them. Do not rename existing fields, add new camelCase fields
// instead.
type VitalsDTO struct {
	Timestamp  string  `json:"timestamp"`            // ISO8601 time of publication
	Instance   string  `json:"instance"`             // monitor instance name
	SessionID  string  `json:"sessionId"`            // monitoring session identifier
	BPM        float64 `json:"bpm"`                  // latest estimate, 0 when not valid
	Valid      bool    `json:"valid"`                // true once an estimate exists
	BufferFill float64 `json:"bufferFill"`           // analysis window fill, 0 to 1
	Accepted   uint64  `json:"samplesAccepted"`      // samples accepted this session
	Dropped    uint64  `json:"samplesDropped"`       // non-finite samples rejected
	Generation uint64  `json:"generation,omitempty"` // estimate generation counter
}

// NewVitalsDTO builds the publish payload from the current estimate
// and session counters.
func NewVitalsDTO(instance, sessionID string, est pulse.Estimate, accepted, dropped uint64) *VitalsDTO {
	return &VitalsDTO{
		Timestamp:  time.Now().Format(time.RFC3339),
		Instance:   instance,
		SessionID:  sessionID,
		BPM:        est.BPM,
		Valid:      est.Valid,
		BufferFill: est.BufferFill,
		Accepted:   accepted,
		Dropped:    dropped,
		Generation: est.Generation,
	}
}
