// ABOUTME: Audio input interface tests
// ABOUTME: Verifies backend selection and interface implementations
package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendsImplementInput(t *testing.T) {
	var _ Input = (*Malgo)(nil)
	var _ Input = (*PortAudio)(nil)
	var _ Input = (*Tone)(nil)
}

func TestNew(t *testing.T) {
	tests := []struct {
		backend string
		want    interface{}
	}{
		{"", &Malgo{}},
		{BackendMalgo, &Malgo{}},
		{BackendPortAudio, &PortAudio{}},
		{BackendTone, &Tone{}},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			in, err := New(tt.backend)
			require.NoError(t, err)
			assert.IsType(t, tt.want, in)
		})
	}
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New("jack")
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
}
