// ABOUTME: Malgo-based audio capture
// ABOUTME: Records mono float32 from the default input device via miniaudio
package input

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"github.com/sirupsen/logrus"

	"github.com/fretcoach/fretcoach/pkg/audio"
)

// Malgo captures from the default device using malgo/miniaudio
type Malgo struct {
	mu         sync.Mutex
	malgoCtx   *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate atomic.Int64
	scratch    []float32
	log        logrus.FieldLogger
}

// NewMalgo creates a new Malgo input
func NewMalgo(opts ...Option) Input {
	o := buildOptions(opts)
	return &Malgo{log: o.log}
}

// Open initializes the capture device and starts delivering samples
func (m *Malgo) Open(sampleRate int, onSamples func([]float32)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeDevice()

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(max(sampleRate, 0))
	deviceConfig.Alsa.NoMMap = 1

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			m.dataCallback(pInputSamples, frameCount, onSamples)
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	m.device = device
	rate := audio.SampleRateOrDefault(int(device.SampleRate()))
	m.sampleRate.Store(int64(rate))

	m.log.Infof("Audio input initialized: %dHz, mono (malgo/F32)", rate)

	return nil
}

// dataCallback decodes one capture period and hands it on
func (m *Malgo) dataCallback(pInput []byte, frameCount uint32, onSamples func([]float32)) {
	n := int(frameCount)
	if cap(m.scratch) < n {
		m.scratch = make([]float32, n)
	}
	samples := m.scratch[:n]

	defer func() {
		if r := recover(); r != nil {
			m.log.Errorf("Capture callback panicked: %v", r)
		}
	}()

	n = audio.DecodeFloat32LE(samples, pInput)
	onSamples(samples[:n])
}

// SampleRate returns the device-reported sample rate
func (m *Malgo) SampleRate() int {
	return int(m.sampleRate.Load())
}

// Close stops capture and releases the context
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeDevice()

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
func (m *Malgo) closeDevice() {
	if m.device == nil {
		return
	}
	if err := m.device.Stop(); err != nil {
		m.log.Warnf("Capture device stop error: %v", err)
	}
	m.device.Uninit()
	m.device = nil
}
