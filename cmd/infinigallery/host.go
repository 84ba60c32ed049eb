package main

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"
	"time"

	"fortio.org/log"
	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"
	"github.com/taigrr/infinigallery/pkg/gallery"
	"github.com/taigrr/infinigallery/pkg/render"
	"github.com/taigrr/infinigallery/pkg/stage"
)

const (
	// cellPixels converts rows to touch units, about one text line in a
	// browser.
	cellPixels = 16
	// wheelDelta is the DeltaY of one wheel notch.
	wheelDelta = 100
	// wheelRows is how far one notch scrolls the page.
	wheelRows = 3
)

var errDebugLoss = errors.New("context loss requested from keyboard")

// pageCopy is the text of the page around the gallery.
type pageCopy struct {
	Headline   string
	Hints      []string
	AboutTitle string
	About      string
}

var defaultCopy = pageCopy{
	Headline: "I create; therefore I am",
	Hints: []string{
		"Use mouse wheel, arrow keys, or touch to navigate",
		"Auto-play resumes after 3 seconds of inactivity",
	},
	AboutTitle: "Hi, I'm Brandon",
	About: "A creative professional passionate about bringing ideas to life " +
		"through design, photography, and visual storytelling.",
}

// canvas is the part of a uv screen the host draws on.
type canvas interface {
	CellAt(x, y int) *uv.Cell
	SetCell(x, y int, c *uv.Cell)
}

// host is the terminal page: the gallery hero fills the first screen and
// the about section sits below it. Scrolling the page stays locked until
// the gallery fires its completion gate. It implements gallery.Surface.
// A host is driven from a single goroutine.
type host struct {
	stage *stage.Stage
	hud   *HUD
	copy  pageCopy
	bg    render.Color

	listeners map[int]gallery.Listener
	nextID    int

	width, height int // cells
	scroll        float64
	scrollVel     float64
	scrollTarget  float64
	spring        harmonica.Spring

	completed bool
	dragging  bool
	quit      bool
}

func newHost(hud *HUD, bg render.Color, fps int) *host {
	return &host{
		hud:       hud,
		copy:      defaultCopy,
		bg:        bg,
		listeners: make(map[int]gallery.Listener),
		spring:    harmonica.NewSpring(harmonica.FPS(max(fps, 1)), 6.0, 1.0),
	}
}

// Listen implements gallery.Surface.
func (h *host) Listen(l gallery.Listener) (cancel func()) {
	id := h.nextID
	h.nextID++
	h.listeners[id] = l
	return func() { delete(h.listeners, id) }
}

// dispatch offers ev to the gallery listeners and reports whether one
// consumed it.
func (h *host) dispatch(ev gallery.Event) bool {
	consumed := false
	for _, l := range h.listeners {
		if l(ev) {
			consumed = true
		}
	}
	return consumed
}

// locked reports whether the page may not scroll yet.
func (h *host) locked() bool {
	return h.stage.Mode() != stage.ModeFallback && !h.completed
}

func (h *host) maxScroll() float64 { return float64(h.height) }

// complete is the gallery's OnComplete: unlock the page and bring the
// about section into view.
func (h *host) complete() {
	h.completed = true
	h.stage.SetLockScroll(false)
	h.scrollTarget = h.maxScroll()
	log.S(log.Info, "gallery complete, page unlocked", log.Attr("reinits", h.stage.Reinits()))
}

// reset re-arms the gate and locks the page at the top again.
func (h *host) reset() {
	h.stage.ResetProgress()
	h.stage.SetLockScroll(true)
	h.hud.ResetProgress()
	h.completed = false
	h.scrollTarget = 0
	log.Infof("gallery progress reset")
}

func (h *host) resize(width, height int) {
	h.width, h.height = width, height
	h.stage.Resize(width, height*2)
	if h.completed {
		h.scrollTarget = h.maxScroll()
	}
	h.scrollTarget = min(max(h.scrollTarget, 0), h.maxScroll())
	h.scroll = min(h.scroll, h.maxScroll())
}

func (h *host) scrollBy(rows float64) {
	if h.locked() {
		return
	}
	h.scrollTarget = min(max(h.scrollTarget+rows, 0), h.maxScroll())
}

// handle applies one terminal event.
func (h *host) handle(ev uv.Event) {
	switch e := ev.(type) {
	case uv.WindowSizeEvent:
		h.resize(e.Width, e.Height)
	case uv.KeyPressEvent:
		h.key(e)
	case uv.MouseWheelEvent:
		h.wheel(e.Mouse())
	case uv.MouseClickEvent:
		m := e.Mouse()
		if m.Button == uv.MouseLeft && h.inHero(m.Y) {
			h.dragging = true
			h.dispatch(gallery.TouchEvent{Phase: gallery.TouchStart, Y: float64(m.Y * cellPixels)})
		}
	case uv.MouseMotionEvent:
		m := e.Mouse()
		h.hover(m.X, m.Y)
		if h.dragging {
			h.dispatch(gallery.TouchEvent{Phase: gallery.TouchMove, Y: float64(m.Y * cellPixels)})
		}
	case uv.MouseReleaseEvent:
		if h.dragging {
			h.dragging = false
			m := e.Mouse()
			h.dispatch(gallery.TouchEvent{Phase: gallery.TouchEnd, Y: float64(m.Y * cellPixels)})
		}
	}
}

func (h *host) key(e uv.KeyPressEvent) {
	switch {
	case e.MatchString("q", "esc", "ctrl+c"):
		h.quit = true
		return
	case e.MatchString("r"):
		h.reset()
		return
	case e.MatchString("?"):
		h.hud.Shown = !h.hud.Shown
		return
	case e.MatchString("ctrl+x"):
		h.stage.LoseContext(errDebugLoss)
		return
	}

	k := gallery.KeyOther
	switch {
	case e.MatchString("up", "k"):
		k = gallery.KeyUp
	case e.MatchString("down", "j"):
		k = gallery.KeyDown
	case e.MatchString("left", "h"):
		k = gallery.KeyLeft
	case e.MatchString("right", "l"):
		k = gallery.KeyRight
	}
	if h.dispatch(gallery.KeyEvent{Key: k}) {
		return
	}
	switch {
	case e.MatchString("up", "k"):
		h.scrollBy(-1)
	case e.MatchString("down", "j"):
		h.scrollBy(1)
	case e.MatchString("pgup"):
		h.scrollBy(-float64(h.height))
	case e.MatchString("pgdown", "space"):
		h.scrollBy(float64(h.height))
	case e.MatchString("home"):
		h.scrollBy(-h.maxScroll())
	case e.MatchString("end"):
		h.scrollBy(h.maxScroll())
	}
}

func (h *host) wheel(m uv.Mouse) {
	var dir float64
	switch m.Button {
	case uv.MouseWheelUp:
		dir = -1
	case uv.MouseWheelDown:
		dir = 1
	default:
		return
	}
	if h.dispatch(gallery.WheelEvent{DeltaY: dir * wheelDelta}) {
		return
	}
	h.scrollBy(dir * wheelRows)
}

// heroRow maps a screen row to a row of the hero, which may be off screen.
func (h *host) heroRow(y int) int { return y + int(math.Round(h.scroll)) }

func (h *host) inHero(y int) bool { return h.heroRow(y) < h.height }

func (h *host) hover(x, y int) {
	if !h.inHero(y) {
		h.stage.Unhover()
		return
	}
	h.stage.Hover(x, h.heroRow(y)*2)
}

// update advances page animation by one frame.
func (h *host) update(now time.Time) {
	h.scroll, h.scrollVel = h.spring.Update(h.scroll, h.scrollVel, h.scrollTarget)
	h.scroll = min(max(h.scroll, 0), h.maxScroll())
	h.hud.UpdateFPS(now)
	if g := h.stage.Gallery(); g != nil {
		h.hud.UpdateProgress(g.Progress())
	}
}

// draw composes one screen. fb is the last gallery frame, nil when there
// is none.
func (h *host) draw(c canvas, fb *render.Framebuffer) {
	off := int(math.Round(h.scroll))
	for row := range h.height {
		if y := row + off; y < h.height {
			h.drawHeroRow(c, fb, row, y)
		} else {
			h.clearRow(c, row)
		}
	}

	if h.stage.Mode() == stage.ModeFallback {
		h.drawFallback(c, off)
	}
	h.text(c, -1, h.height/3-off, h.copy.Headline, uv.Style{Fg: render.ColorWhite, Attrs: uv.AttrBold})
	if !h.completed {
		for i, hint := range h.copy.Hints {
			h.text(c, -1, h.height-2-len(h.copy.Hints)+i-off, hint, uv.Style{Fg: render.RGB(200, 200, 200)})
		}
		if g := h.stage.Gallery(); g != nil {
			h.drawMeter(c, h.height-1-off)
		}
	}
	if h.hud.Shown {
		h.drawHUD(c, -off)
	}
	h.drawAbout(c, h.height-off)
}

func (h *host) drawHeroRow(c canvas, fb *render.Framebuffer, row, y int) {
	for x := range h.width {
		top, bottom := h.bg, h.bg
		if fb != nil && x < fb.Width && 2*y+1 < fb.Height {
			top, bottom = fb.GetPixel(x, 2*y), fb.GetPixel(x, 2*y+1)
		}
		c.SetCell(x, row, &uv.Cell{Content: "▀", Width: 1, Style: uv.Style{Fg: top, Bg: bottom}})
	}
}

func (h *host) clearRow(c canvas, row int) {
	for x := range h.width {
		c.SetCell(x, row, &uv.Cell{Content: " ", Width: 1, Style: uv.Style{Bg: h.bg}})
	}
}

// text writes s on page row y, centered when x < 0. Rows outside the
// screen are skipped; the cell background is kept so text floats over the
// gallery.
func (h *host) text(c canvas, x, y int, s string, style uv.Style) {
	if y < 0 || y >= h.height {
		return
	}
	if x < 0 {
		x = max((h.width-ansi.StringWidth(s))/2, 0)
	}
	for _, r := range s {
		g := string(r)
		w := ansi.StringWidth(g)
		if w == 0 {
			continue
		}
		if x+w > h.width {
			return
		}
		st := style
		if st.Bg == nil {
			st.Bg = cellBg(c.CellAt(x, y), h.bg)
		}
		c.SetCell(x, y, &uv.Cell{Content: g, Width: w, Style: st})
		x += w
	}
}

func cellBg(cell *uv.Cell, fallback color.Color) color.Color {
	if cell == nil || cell.Style.Bg == nil {
		return fallback
	}
	return cell.Style.Bg
}

func (h *host) drawMeter(c canvas, y int) {
	label := fmt.Sprintf(" %3.0f%%", h.hud.Progress()*100)
	width := min(40, h.width-ansi.StringWidth(label)-2)
	h.text(c, -1, y, "▕"+bar(width, h.hud.Progress())+"▏"+label, uv.Style{Fg: render.RGB(120, 200, 255)})
}

func (h *host) drawHUD(c canvas, y int) {
	h.text(c, 0, y, fmt.Sprintf("%.0f FPS ", h.hud.FPS()), uv.Style{Fg: render.ColorGreen})

	mode := h.stage.Mode().String()
	if slot := h.stage.Hovered(); slot != render.NoSlot {
		if g := h.stage.Gallery(); g != nil && slot < len(g.Planes()) {
			if idx := g.Planes()[slot].ImageIndex; idx < len(h.stage.Images()) {
				mode = h.stage.Images()[idx].AltText
			}
		}
	}
	h.text(c, -1, y, mode, uv.Style{})

	loaded := 0
	if ts := h.stage.Textures(); ts != nil {
		loaded = ts.Loaded()
	}
	right := fmt.Sprintf("%d/%d images", loaded, len(h.stage.Images()))
	h.text(c, max(h.width-ansi.StringWidth(right), 0), y, right, uv.Style{Fg: render.RGB(0, 200, 200)})
}

// drawFallback lists the images when there is no renderer.
func (h *host) drawFallback(c canvas, off int) {
	images := h.stage.Images()
	y := h.height/3 + 2 - off
	for i, img := range images {
		if y+i >= h.height-len(h.copy.Hints)-2-off {
			h.text(c, -1, y+i, fmt.Sprintf("… and %d more", len(images)-i), uv.Style{})
			return
		}
		name := img.AltText
		if name == "" {
			name = img.Source
		}
		h.text(c, -1, y+i, "• "+name, uv.Style{Fg: render.RGB(220, 220, 220)})
	}
}

// drawAbout writes the about section starting at screen row top.
func (h *host) drawAbout(c canvas, top int) {
	y := top + 2
	h.text(c, -1, y, h.copy.AboutTitle, uv.Style{Fg: render.ColorWhite, Attrs: uv.AttrBold})
	y += 2
	for _, line := range wrap(h.copy.About, max(h.width-8, 10)) {
		h.text(c, -1, y, line, uv.Style{Fg: render.RGB(200, 200, 200)})
		y++
	}
	y++
	for i, img := range h.stage.Images() {
		if y >= h.height || y >= top+h.height {
			return
		}
		h.text(c, 4, y, fmt.Sprintf("%2d. %s", i+1, img.AltText), uv.Style{Fg: render.RGB(160, 160, 160)})
		y++
	}
}

// wrap breaks s into lines of at most width cells at spaces.
func wrap(s string, width int) []string {
	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(s) {
		if cur.Len() > 0 && ansi.StringWidth(cur.String())+1+ansi.StringWidth(word) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
