package chart

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-echarts/go-echarts/v2/components"
)

// Instance is a chart drawn on one canvas. It stays live until destroyed.
type Instance struct {
	canvas string
	spec   Spec

	once      sync.Once
	destroyed chan struct{}
	onDestroy func()
}

// Canvas returns the canvas the instance is drawn on.
func (i *Instance) Canvas() string { return i.canvas }

// Spec returns what the instance draws.
func (i *Instance) Spec() Spec { return i.spec }

// Destroy releases the instance. Calling it more than once has no effect.
func (i *Instance) Destroy() {
	i.once.Do(func() {
		close(i.destroyed)
		if i.onDestroy != nil {
			i.onDestroy()
		}
	})
}

// Destroyed reports whether Destroy has been called.
func (i *Instance) Destroyed() bool {
	select {
	case <-i.destroyed:
		return true
	default:
		return false
	}
}

// Board owns the chart instances of a page, at most one per canvas.
type Board struct {
	title string

	mu        sync.Mutex
	order     []string
	instances map[string]*Instance
	live      int
}

// NewBoard creates an empty Board. title becomes the page title.
func NewBoard(title string) *Board {
	return &Board{
		title:     title,
		instances: map[string]*Instance{},
	}
}

// Draw creates a new instance of spec on canvas, destroying the instance
// previously drawn there.
func (b *Board) Draw(canvas string, spec Spec) *Instance {
	b.mu.Lock()
	prev := b.instances[canvas]
	inst := &Instance{canvas: canvas, spec: spec, destroyed: make(chan struct{})}
	inst.onDestroy = func() { b.release(inst) }
	if prev == nil {
		b.order = append(b.order, canvas)
	}
	b.instances[canvas] = inst
	b.live++
	b.mu.Unlock()

	if prev != nil {
		prev.Destroy()
	}
	return inst
}

func (b *Board) release(inst *Instance) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.live--
	if b.instances[inst.canvas] == inst {
		delete(b.instances, inst.canvas)
		for i, c := range b.order {
			if c == inst.canvas {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

// Instance returns the live instance on canvas, if any.
func (b *Board) Instance(canvas string) (*Instance, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	inst, ok := b.instances[canvas]
	return inst, ok
}

// Live returns the number of instances that have not been destroyed.
func (b *Board) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}

// Close destroys every instance. The Board can be drawn on again afterwards.
func (b *Board) Close() {
	b.mu.Lock()
	all := make([]*Instance, 0, len(b.instances))
	for _, c := range b.order {
		all = append(all, b.instances[c])
	}
	b.mu.Unlock()

	for _, inst := range all {
		inst.Destroy()
	}
}

// RenderPage writes an HTML page holding every live chart, in the order
// their canvases were first drawn. inject is inserted right after <body>.
func (b *Board) RenderPage(w io.Writer, inject string) error {
	b.mu.Lock()
	specs := make([]*Instance, 0, len(b.order))
	for _, c := range b.order {
		specs = append(specs, b.instances[c])
	}
	b.mu.Unlock()

	page := components.NewPage()
	page.SetPageTitle(b.title)
	page.SetLayout(components.PageFlexLayout)
	for _, inst := range specs {
		page.AddCharts(inst.spec.line(inst.canvas))
	}

	var buf strings.Builder
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("rendering charts: %w", err)
	}
	html := buf.String()
	if inject != "" {
		html = strings.Replace(html, "<body>", "<body>\n"+inject, 1)
	}
	_, err := io.WriteString(w, html)
	return err
}
