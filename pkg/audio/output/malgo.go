// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Uses miniaudio via malgo with a float32 pull callback
package output

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"github.com/sirupsen/logrus"

	"github.com/fretcoach/fretcoach/pkg/audio"
)

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	mu         sync.Mutex
	malgoCtx   *malgo.AllocatedContext
	device     *malgo.Device
	src        Source
	sampleRate atomic.Int64
	channels   int
	scratch    []float32
	log        logrus.FieldLogger
}

// NewMalgo creates a new Malgo output
func NewMalgo(opts ...Option) Output {
	o := buildOptions(opts)
	return &Malgo{log: o.log}
}

// Open initializes the playback device and starts pulling from src
func (m *Malgo) Open(sampleRate, channels int, src Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		if err := m.closeDevice(); err != nil {
			return fmt.Errorf("failed to close old device: %w", err)
		}
	}

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(max(sampleRate, 0))
	deviceConfig.Alsa.NoMMap = 1

	m.src = src
	m.channels = channels

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			m.dataCallback(pOutputSample, frameCount)
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.device = device
	rate := audio.SampleRateOrDefault(int(device.SampleRate()))
	m.sampleRate.Store(int64(rate))

	m.log.Infof("Audio output initialized: %dHz, %d channels (malgo/F32)", rate, channels)

	return nil
}

// dataCallback is called by malgo to fill the device buffer
func (m *Malgo) dataCallback(pOutput []byte, frameCount uint32) {
	n := int(frameCount) * m.channels
	if cap(m.scratch) < n {
		m.scratch = make([]float32, n)
	}
	samples := m.scratch[:n]

	defer func() {
		if r := recover(); r != nil {
			clear(pOutput)
		}
	}()

	m.src.Read(samples)
	audio.EncodeFloat32LE(pOutput, samples)
}

// SampleRate returns the device-reported sample rate
func (m *Malgo) SampleRate() int {
	return int(m.sampleRate.Load())
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.closeDevice(); err != nil {
		return err
	}

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			m.log.Warnf("Malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}

	return nil
}

// closeDevice stops and uninitializes the device (must hold m.mu)
func (m *Malgo) closeDevice() error {
	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			m.log.Warnf("Device stop error: %v", err)
		}
		m.device.Uninit()
		m.device = nil
	}
	return nil
}
