// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides Output backends, the buffer Queue and the Stream pipeline
// Package output provides pull-model audio playback.
//
// A Stream couples one Output device with one Queue. Callers schedule whole
// buffers with a completion callback; the device callback pulls frames from
// the queue and fires each callback the moment the buffer's last frame has
// been consumed. A callback that schedules the next buffer therefore continues
// without a gap inside the same device period.
//
// Supported backends: malgo (default), oto, portaudio (build with -tags
// portaudio) and null (a clock-driven sink for headless runs and tests).
//
// Example:
//
//	out, _ := output.New(output.BackendMalgo)
//	stream := output.NewStream(out)
//	if err := stream.Start(); err != nil {
//	    return err
//	}
//	stream.Schedule(buf, func() { log.Println("played") })
package output
