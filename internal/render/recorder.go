package render

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// Op is one recorded Surface call.
type Op struct {
	Name string
	Args []any
	// Transform is the current transform when the call was made.
	Transform Matrix
}

// String renders the op like a canvas call, e.g. "translate(240, 150)".
func (o Op) String() string {
	parts := make([]string, len(o.Args))
	for i, a := range o.Args {
		switch v := a.(type) {
		case string:
			parts[i] = fmt.Sprintf("%q", v)
		case float64:
			parts[i] = fmt.Sprintf("%g", v)
		case color.RGBA:
			parts[i] = ToHex(v)
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return o.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Recorder is a Surface that draws nothing and keeps a log of every call.
// Colors are recorded as color.RGBA and images as their bounds.
type Recorder struct {
	width, height int
	matrix        Matrix
	ops           []Op
}

// NewRecorder returns an empty Recorder with an identity transform.
func NewRecorder() *Recorder {
	return &Recorder{matrix: Identity()}
}

func (r *Recorder) record(name string, args ...any) {
	r.ops = append(r.ops, Op{Name: name, Args: args, Transform: r.matrix})
}

func (r *Recorder) Resize(width, height int) {
	r.width, r.height = width, height
	r.matrix = Identity()
	r.record("resize", width, height)
}

func (r *Recorder) Size() (int, int) { return r.width, r.height }

func (r *Recorder) Clear(x, y, width, height float64) {
	r.record("clearRect", x, y, width, height)
}

func (r *Recorder) FillRect(x, y, width, height float64) {
	r.record("fillRect", x, y, width, height)
}

func (r *Recorder) Translate(tx, ty float64) {
	r.matrix.Translate(tx, ty)
	r.record("translate", tx, ty)
}

func (r *Recorder) Rotate(angle float64) {
	r.matrix.Rotate(angle)
	r.record("rotate", angle)
}

func (r *Recorder) Scale(sx, sy float64) {
	r.matrix.Scale(sx, sy)
	r.record("scale", sx, sy)
}

func (r *Recorder) DrawImage(img image.Image, x, y, width, height float64) {
	r.record("drawImage", img.Bounds(), x, y, width, height)
}

func (r *Recorder) SetTextAlign(align TextAlign) {
	r.record("textAlign", align.String())
}

func (r *Recorder) SetFillColor(c color.Color) {
	r.record("fillStyle", color.RGBAModel.Convert(c).(color.RGBA))
}

func (r *Recorder) SetFont(font FontSpec) {
	r.record("font", font.String())
}

func (r *Recorder) FillText(text string, x, y float64) {
	r.record("fillText", text, x, y)
}

// Ops returns a copy of the log.
func (r *Recorder) Ops() []Op {
	out := make([]Op, len(r.ops))
	copy(out, r.ops)
	return out
}

// Find returns the recorded ops with the given name, in order.
func (r *Recorder) Find(name string) []Op {
	var out []Op
	for _, op := range r.ops {
		if op.Name == name {
			out = append(out, op)
		}
	}
	return out
}

// Reset discards the log.
func (r *Recorder) Reset() {
	r.ops = r.ops[:0]
	r.matrix = Identity()
}

// String returns the log one call per line.
func (r *Recorder) String() string {
	var b strings.Builder
	for _, op := range r.ops {
		b.WriteString(op.String())
		b.WriteByte('\n')
	}
	return b.String()
}
