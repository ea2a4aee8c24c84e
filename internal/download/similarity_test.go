// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "Quantum Entanglement in Photon Pairs", "Quantum Entanglement in Photon Pairs", 1.0, 1.0},
		{"case and spacing ignored", "Quantum  Entanglement", "quantum entanglement", 1.0, 1.0},
		{"missing short word still matches", "Quantum Entanglement in Photon Pairs", "Quantum Entanglement Photon Pairs", AcceptThreshold, 1.0},
		{"unrelated titles", "Quantum Entanglement in Photon Pairs", "Unrelated Paper About Cats", 0.0, 0.5},
		{"empty side", "Quantum Entanglement", "", 0.0, 0.0},
		{"both empty", "", "", 0.0, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}
