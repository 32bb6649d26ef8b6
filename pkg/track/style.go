package track

import (
	"github.com/ssargent/locus/pkg/codec"
	"github.com/ssargent/locus/pkg/stream"
)

// StyleVersion is the layout every Style is written with
const StyleVersion int32 = 1

// Style controls how a track is drawn. Colors are ARGB.
type Style struct {
	Name      string
	LineColor int32
	LineWidth float32
	FillColor int32 // since v1
}

var _ codec.Storable = (*Style)(nil)

// DefaultStyle returns an opaque blue line
func DefaultStyle() *Style {
	return &Style{Name: "default", LineColor: -16776961, LineWidth: 2}
}

func (s *Style) Version() int32 { return StyleVersion }

func (s *Style) WriteObject(w *stream.Writer) error {
	w.WriteString(s.Name)
	w.WriteInt32(s.LineColor)
	w.WriteFloat32(s.LineWidth)
	w.WriteInt32(s.FillColor)
	return nil
}

var styleSteps = codec.Steps[*Style]{
	{Name: "line", Since: 0, Read: func(s *Style, r *stream.Reader) error {
		var err error
		if s.Name, err = r.ReadString(); err != nil {
			return err
		}
		if s.LineColor, err = r.ReadInt32(); err != nil {
			return err
		}
		s.LineWidth, err = r.ReadFloat32()
		return err
	}},
	{Name: "fill", Since: 1, Read: func(s *Style, r *stream.Reader) error {
		var err error
		s.FillColor, err = r.ReadInt32()
		return err
	}},
}

func (s *Style) ReadObject(version int32, r *stream.Reader) error {
	*s = Style{}
	return styleSteps.Apply(version, s, r)
}
