package render

import (
	"fmt"
	"image"
	"image/gif"
	"io"
	"os"

	"github.com/san-kum/fluidlab/internal/fluid"
)

// Recorder collects frames of one field of a simulation. It satisfies the
// runner's observer interface so it can capture every Every-th step.
type Recorder struct {
	sim    *fluid.Simulation
	field  string
	cmap   Colormap
	scale  Scale
	pixels int
	every  int
	delay  int
	frames []*image.Paletted
}

type RecorderOptions struct {
	Field    string
	Colormap string
	Pixels   int
	Every    int
	// Delay between frames in 100ths of a second.
	Delay int
}

func NewRecorder(sim *fluid.Simulation, opts RecorderOptions) (*Recorder, error) {
	if opts.Field == "" {
		opts.Field = "dye"
	}
	if _, ok := sim.Fields().Named()[opts.Field]; !ok {
		return nil, fmt.Errorf("unknown field %q", opts.Field)
	}
	style := StyleFor(opts.Field)
	if opts.Colormap == "" {
		opts.Colormap = style.Colormap
	}
	cm, err := GetColormap(opts.Colormap)
	if err != nil {
		return nil, err
	}
	if opts.Pixels < 1 {
		opts.Pixels = 1
	}
	if opts.Every < 1 {
		opts.Every = 1
	}
	if opts.Delay < 1 {
		opts.Delay = 4
	}
	return &Recorder{
		sim:    sim,
		field:  opts.Field,
		cmap:   cm,
		scale:  style.Scale,
		pixels: opts.Pixels,
		every:  opts.Every,
		delay:  opts.Delay,
	}, nil
}

func (r *Recorder) OnStep(step int, _ fluid.Stats) {
	if step%r.every == 0 {
		r.Capture()
	}
}

// Capture appends a frame of the current state.
func (r *Recorder) Capture() {
	f := r.sim.Fields().Named()[r.field]
	r.frames = append(r.frames, Frame(f, r.cmap, r.scale, r.pixels))
}

func (r *Recorder) Len() int { return len(r.frames) }

func (r *Recorder) Reset() { r.frames = r.frames[:0] }

func (r *Recorder) Encode(w io.Writer) error {
	if len(r.frames) == 0 {
		return fmt.Errorf("no frames recorded")
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, r.delay)
	}
	return gif.EncodeAll(w, &anim)
}

func (r *Recorder) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.Encode(f)
}
