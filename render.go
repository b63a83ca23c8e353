package groove

import (
	"errors"
	"fmt"
)

// maxPlayErrors caps the routing errors collected by Play.
const maxPlayErrors = 8

// ErrShortRender is returned by Render when the renderer reaches the end of
// its timeline before the buffer is full.
var ErrShortRender = errors.New("renderer did not fill the buffer")

// Render fills the whole buffer with r.
func Render(r Renderer, buffer AudioBuffer) error {
	n, err := r.Render(buffer)
	if err != nil {
		return fmt.Errorf("Render failed: %w", err)
	}
	if n != buffer.Frames() {
		return fmt.Errorf("%w: %d of %d frames", ErrShortRender, n, buffer.Frames())
	}
	return nil
}

// Play renders r in blocks of blockFrames until the end of its timeline or
// until maxFrames frames have been rendered, whichever comes first. Routing
// errors do not stop the rendering: the audio is returned together with
// the first few errors.
func Play(r Renderer, maxFrames, blockFrames int) (AudioBuffer, error) {
	if blockFrames <= 0 {
		return nil, errors.New("Play: blockFrames should be positive")
	}
	buffer := make(AudioBuffer, 2*maxFrames)
	var errs []error
	frames := 0
	for frames < maxFrames {
		want := min(blockFrames, maxFrames-frames)
		n, err := r.Render(buffer[2*frames : 2*(frames+want)])
		if err != nil && len(errs) < maxPlayErrors {
			errs = append(errs, fmt.Errorf("frame %d: %w", frames, err))
		}
		frames += n
		if n < want {
			break
		}
	}
	return buffer[:2*frames], errors.Join(errs...)
}
