package dbg

import (
	"os"

	"github.com/fogleman/gg"
	imgcat "github.com/martinlindhe/imgcat/lib"
	"github.com/pkg/errors"
)

// Where Draw leaves its image.
const DrawPath = "/tmp/wayedit.png"

// Helper to draw something and print it in the terminal (iTerm only) for
// debugging. The callback draws in pixel space on a black background.
func Draw(width, height int, f func(c *gg.Context)) error {
	c := gg.NewContext(width, height)
	c.SetRGB(0, 0, 0)
	c.DrawRectangle(0, 0, float64(width), float64(height))
	c.Fill()

	f(c)

	if err := c.SavePNG(DrawPath); err != nil {
		return errors.Wrap(err, "saving debug image")
	}
	imgcat.CatFile(DrawPath, os.Stdout)
	return nil
}
