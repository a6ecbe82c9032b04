package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/ChicagoDave/ilotplanner/pkg/drawing"
	"github.com/ChicagoDave/ilotplanner/pkg/dxf"
	"github.com/ChicagoDave/ilotplanner/pkg/errors"
)

// LoadDrawing reads a drawing from an ASCII DXF file or a JSON/YAML entity
// stream, choosing by extension.
func LoadDrawing(path string) (*drawing.Drawing, error) {
	var (
		d   *drawing.Drawing
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".dxf") {
		d, err = dxf.ReadFile(path)
	} else {
		d, err = drawing.Load(path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "loading %s", filepath.Base(path))
	}
	return d, nil
}
