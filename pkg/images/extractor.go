/*
File: extractor.go
Description: Detector frame extractor. Writes each frame of a multi-frame
detector dataset as a 16-bit grayscale TIFF file, one numbered file per
frame, skipping frames already on disk so repeated runs are idempotent.
*/

package images

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"golang.org/x/image/tiff"

	"github.com/kleascm/nexus2srs/pkg/logging"
	"github.com/kleascm/nexus2srs/pkg/nexus"
)

// Extractor writes detector frames referenced by a classification plan.
type Extractor struct {
	log *logging.Logger
}

// NewExtractor creates a frame extractor.
func NewExtractor(log *logging.Logger) *Extractor {
	return &Extractor{log: log}
}

// Extract writes the frames of every detector reference below outDir,
// following each reference's file template. Extraction is best effort: a
// detector or frame that cannot be written is logged and skipped, and the
// count of files actually written is returned.
func (e *Extractor) Extract(inv *nexus.Inventory, refs []nexus.DetectorRef, outDir string) int {
	written := 0
	for _, ref := range refs {
		n, err := e.extractOne(inv, ref, outDir)
		written += n
		if err != nil {
			e.warnf("detector %s: %v", ref.Name, err)
		}
	}
	return written
}

func (e *Extractor) extractOne(inv *nexus.Inventory, ref nexus.DetectorRef, outDir string) (int, error) {
	entry := inv.DatasetAt(ref.Path)
	if entry == nil {
		return 0, fmt.Errorf("dataset %s not in file", ref.Path)
	}
	shape := entry.Shape
	if len(shape) < 2 {
		return 0, fmt.Errorf("dataset %s has shape %v, not image data", ref.Path, shape)
	}

	height := shape[len(shape)-2]
	width := shape[len(shape)-1]
	frameSize := height * width
	frames := 1
	for _, d := range shape[:len(shape)-2] {
		frames *= d
	}

	template := filepath.Join(outDir, filepath.FromSlash(ref.Template))
	if err := os.MkdirAll(filepath.Dir(template), 0o755); err != nil {
		return 0, fmt.Errorf("creating frame directory: %w", err)
	}

	values, err := entry.Dataset.Floats()
	if err != nil {
		return 0, fmt.Errorf("reading frames: %w", err)
	}
	if len(values) < frames*frameSize {
		return 0, fmt.Errorf("dataset %s holds %d values, %d expected", ref.Path, len(values), frames*frameSize)
	}

	written := 0
	for i := 0; i < frames; i++ {
		// Frame numbering is 1-based to match the acquisition software.
		path := fmt.Sprintf(template, i+1)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		frame := values[i*frameSize : (i+1)*frameSize]
		if err := writeFrame(path, frame, width, height); err != nil {
			e.warnf("frame %d of %s: %v", i+1, ref.Name, err)
			continue
		}
		written++
	}
	e.logf("detector %s: %d of %d frames written", ref.Name, written, frames)
	return written, nil
}

// writeFrame encodes one frame as a deflate-compressed 16-bit grayscale
// TIFF. Values outside the 16-bit range are clamped.
func writeFrame(path string, values []float64, width, height int) error {
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := values[y*width+x]
			if v < 0 {
				v = 0
			} else if v > 65535 {
				v = 65535
			}
			u := uint16(v)
			i := img.PixOffset(x, y)
			img.Pix[i] = uint8(u >> 8)
			img.Pix[i+1] = uint8(u)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (e *Extractor) logf(format string, args ...interface{}) {
	if e.log != nil {
		e.log.Debug(format, args...)
	}
}

func (e *Extractor) warnf(format string, args ...interface{}) {
	if e.log != nil {
		e.log.Warn(format, args...)
	}
}
