package resize

import (
	"os/exec"

	"github.com/rs/zerolog/log"
)

// GifsicleAvailable reports whether the gifsicle binary is present in the
// runtime image. Used for the startup feature log.
func GifsicleAvailable() bool {
	_, err := exec.LookPath("gifsicle")
	return err == nil
}

// optimizeAnimation runs a lossless size-optimization pass over an encoded
// GIF in place, using the gifsicle binary when it is available in the
// container image. A missing binary or a failed pass leaves the unoptimized
// file in place; the variant is still valid, just larger.
func optimizeAnimation(path string) {
	gifsiclePath, err := exec.LookPath("gifsicle")
	if err != nil {
		log.Debug().Str("path", path).Msg("gifsicle not found, skipping optimization pass")
		return
	}

	cmd := exec.Command(gifsiclePath, "--batch", "-O3", path)
	if output, err := cmd.CombinedOutput(); err != nil {
		log.Warn().Err(err).Str("path", path).Str("output", string(output)).Msg("GIF optimization pass failed")
	}
}
