// Package web serves recoloured icons, preview grids, palette transitions
// and export archives over HTTP.
package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/andybons/gogif"
	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/vincent-petithory/dataurl"
	"golang.org/x/net/trace"

	"badc0de.net/pkg/go-vanilla/atlas"
	"badc0de.net/pkg/go-vanilla/compositor"
	"badc0de.net/pkg/go-vanilla/exporter"
	"badc0de.net/pkg/go-vanilla/icons"
	"badc0de.net/pkg/go-vanilla/palette"
	"badc0de.net/pkg/go-vanilla/session"
)

const (
	// MaxResolution bounds the res parameter.
	MaxResolution = 1024
	// MaxPreviewSize bounds the w and h parameters.
	MaxPreviewSize = 4096
	// MaxGIFSize bounds the w and h parameters of a transition GIF, which
	// renders and quantizes every frame.
	MaxGIFSize = 1024

	defaultPreviewWidth  = 640
	defaultPreviewHeight = 480

	// frameInterval is the time between sampled frames of a transition GIF.
	frameInterval = 40 * time.Millisecond

	generation = 1 // bump if the way we generate images changes
)

var errBadRequest = errors.New("bad request")

// Handler serves icons, previews and exports over HTTP.
type Handler struct {
	renderer *compositor.Renderer
	set      palette.Set
	records  []icons.Record
	table    *icons.Table
}

// NewHandler serves icons from r, coloured with the palettes in set. records
// assigns swatches to icons and fixes the order of previews and exports.
func NewHandler(r *compositor.Renderer, set palette.Set, records []icons.Record) *Handler {
	return &Handler{
		renderer: r,
		set:      set,
		records:  append([]icons.Record(nil), records...),
		table:    icons.NewTable(records),
	}
}

type params struct {
	palette  palette.Palette
	style    string
	override string
	res      int
	w, h     int
}

func intParam(r *http.Request, name string, def, max int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 || n > max {
		return 0, errors.Wrapf(errBadRequest, "%s must be a number in [1,%d]", name, max)
	}
	return n, nil
}

func (h *Handler) paletteParam(r *http.Request, name string, def palette.Palette) (palette.Palette, error) {
	id := r.URL.Query().Get(name)
	if id == "" {
		return def, nil
	}
	return h.set.ByID(id)
}

func (h *Handler) parse(r *http.Request) (params, error) {
	var p params
	var err error
	if p.palette, err = h.paletteParam(r, "palette", h.set.Default("light")); err != nil {
		return p, err
	}
	p.style = r.URL.Query().Get("style")
	if p.style == "" {
		p.style = session.StyleColourful
	}
	if p.override, err = session.StyleOverride(p.style); err != nil {
		return p, err
	}
	if p.res, err = intParam(r, "res", session.DefaultResolution, MaxResolution); err != nil {
		return p, err
	}
	if p.w, err = intParam(r, "w", defaultPreviewWidth, MaxPreviewSize); err != nil {
		return p, err
	}
	if p.h, err = intParam(r, "h", defaultPreviewHeight, MaxPreviewSize); err != nil {
		return p, err
	}
	return p, nil
}

// httpError reports err with a status matching its cause.
func httpError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, compositor.ErrNotInitialized):
		status = http.StatusServiceUnavailable
	case errors.Is(err, atlas.ErrInvalidIconID):
		status = http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, palette.ErrUnknownPalette),
		errors.Is(err, palette.ErrUnknownSwatch),
		errors.Is(err, session.ErrUnknownStyle):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		glog.Errorf("web: %v", err)
	}
	http.Error(w, err.Error(), status)
}

// etag returns the entity tag for a resource built from the current atlas,
// or ErrNotInitialized.
func (h *Handler) etag(kind string, parts ...interface{}) (string, error) {
	a, err := h.renderer.Atlas()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`W/"%s:%d:%08x:%s"`, kind, generation, a.Signature(), fmt.Sprint(parts...)), nil
}

func notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	w.Header().Set("Cache-Control", "public; max-age=36000") // 36000 = 10h
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

func writePNG(w http.ResponseWriter, img image.Image) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		httpError(w, errors.Wrap(err, "encoding png"))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) palettesHandler(w http.ResponseWriter, r *http.Request) {
	b, err := json.Marshal(h.set)
	if err != nil {
		httpError(w, errors.Wrap(err, "encoding palettes"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func (h *Handler) iconHandler(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(mux.Vars(r)["idx"])
	if err != nil {
		http.Error(w, "idx not a number", http.StatusBadRequest)
		return
	}
	p, err := h.parse(r)
	if err != nil {
		httpError(w, err)
		return
	}

	key := h.table.Swatch(idx)
	if p.override != "" {
		key = p.override
	}
	c, err := p.palette.Colour(key)
	if err != nil {
		httpError(w, err)
		return
	}

	etag, err := h.etag("icon", idx, ":", p.palette.ID, ":", key, ":", p.res)
	if err != nil {
		httpError(w, err)
		return
	}
	if notModified(w, r, etag) {
		return
	}

	img, err := h.renderer.Icon(idx, p.res, c, 1)
	if err != nil {
		httpError(w, err)
		return
	}
	writePNG(w, img)
}

// newSession returns a session showing p with its palette already settled.
func (h *Handler) newSession(p params, from palette.Palette, now func() time.Time) (*session.Session, error) {
	s, err := session.New(h.renderer, h.set, h.records, from.PageColours, session.WithClock(now))
	if err != nil {
		return nil, err
	}
	if err := s.SetStyle(p.style); err != nil {
		return nil, err
	}
	if err := s.JumpToPalette(from.ID); err != nil {
		return nil, err
	}
	return s, nil
}

func (h *Handler) previewHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.parse(r)
	if err != nil {
		httpError(w, err)
		return
	}
	etag, err := h.etag("preview", p.palette.ID, ":", p.style, ":", p.w, "x", p.h)
	if err != nil {
		httpError(w, err)
		return
	}
	if notModified(w, r, etag) {
		return
	}

	now := time.Now()
	s, err := h.newSession(p, p.palette, func() time.Time { return now })
	if err != nil {
		httpError(w, err)
		return
	}
	img, err := s.PreviewImage(p.w, p.h, now)
	if err != nil {
		httpError(w, err)
		return
	}
	writePNG(w, img)
}

// transitionFrames samples the preview from the start of a palette change
// until it settles.
func transitionFrames(s *session.Session, start time.Time, width, height int) ([]*image.NRGBA, error) {
	var frames []*image.NRGBA
	for t := time.Duration(0); ; t += frameInterval {
		now := start.Add(t)
		img, err := s.PreviewImage(width, height, now)
		if err != nil {
			return nil, err
		}
		frames = append(frames, img)
		if s.Settled(now) {
			return frames, nil
		}
	}
}

func paletted(img image.Image) *image.Paletted {
	quantizer := gogif.MedianCutQuantizer{NumColor: 255} // Up to 255 colors plus 1 space for transparency.
	pal := image.NewPaletted(img.Bounds(), nil)
	quantizer.Quantize(pal, img.Bounds(), img, image.Point{})

	// Quantize copies the image into pal; the palette is all we want from
	// it. Transparent goes first so that undrawn pixels default to it.
	palTransparent := image.NewPaletted(img.Bounds(), append(color.Palette{color.Transparent}, pal.Palette...))
	draw.Draw(palTransparent, img.Bounds(), img, image.Point{}, draw.Over)
	return palTransparent
}

func (h *Handler) previewGIFHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.parse(r)
	if err != nil {
		httpError(w, err)
		return
	}
	if p.w > MaxGIFSize || p.h > MaxGIFSize {
		httpError(w, errors.Wrapf(errBadRequest, "w and h must be at most %d for a transition", MaxGIFSize))
		return
	}
	from, err := h.paletteParam(r, "from", h.set.Default("light"))
	if err != nil {
		httpError(w, err)
		return
	}
	to, err := h.paletteParam(r, "to", h.set.Default("dark"))
	if err != nil {
		httpError(w, err)
		return
	}

	mime := "image/gif"
	etag, err := h.etag("transition", from.ID, ">", to.ID, ":", p.style, ":", p.w, "x", p.h, ":", mime)
	if err != nil {
		httpError(w, err)
		return
	}
	if notModified(w, r, etag) {
		return
	}

	tr := trace.New("web.transition", from.ID+">"+to.ID)
	defer tr.Finish()

	start := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	s, err := h.newSession(p, from, func() time.Time { return start })
	if err != nil {
		httpError(w, err)
		return
	}
	if err := s.SetActivePalette(to.ID); err != nil {
		httpError(w, err)
		return
	}
	frames, err := transitionFrames(s, start, p.w, p.h)
	if err != nil {
		tr.LazyPrintf("rendering frames: %v", err)
		tr.SetError()
		httpError(w, err)
		return
	}
	tr.LazyPrintf("%d frames of %dx%d", len(frames), p.w, p.h)

	g := gif.GIF{}
	for i, frame := range frames {
		delay := int(frameInterval / (10 * time.Millisecond))
		if i == len(frames)-1 {
			delay = 100
		}
		g.Image = append(g.Image, paletted(frame))
		g.Delay = append(g.Delay, delay)
		g.Disposal = append(g.Disposal, gif.DisposalBackground)
	}
	g.BackgroundIndex = 0 // image.Transparent

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, &g); err != nil {
		httpError(w, errors.Wrap(err, "encoding gif"))
		return
	}
	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

type iconEntry struct {
	Icon   int    `json:"icon"`
	Colour string `json:"colour"`
	Hex    string `json:"hex"`
	Image  string `json:"image"`
}

func (h *Handler) iconsHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.parse(r)
	if err != nil {
		httpError(w, err)
		return
	}
	records := icons.Override(h.records, p.override)
	entries := make([]iconEntry, 0, len(records))
	for _, rec := range records {
		c, err := p.palette.Colour(rec.Colour)
		if err != nil {
			httpError(w, err)
			return
		}
		img, err := h.renderer.Icon(rec.Icon, p.res, c, 1)
		if err != nil {
			httpError(w, err)
			return
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			httpError(w, errors.Wrap(err, "encoding png"))
			return
		}
		entries = append(entries, iconEntry{
			Icon:   rec.Icon,
			Colour: rec.Colour,
			Hex:    c.Hex(),
			Image:  dataurl.New(buf.Bytes(), "image/png").String(),
		})
	}
	b, err := json.Marshal(entries)
	if err != nil {
		httpError(w, errors.Wrap(err, "encoding icons"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func (h *Handler) exportHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.parse(r)
	if err != nil {
		httpError(w, err)
		return
	}
	tr := trace.New("web.export", p.palette.ID)
	defer tr.Finish()

	b, err := exporter.Export(r.Context(), h.renderer, exporter.Request{
		Icons:      h.records,
		Palette:    p.palette,
		Override:   p.override,
		Resolution: p.res,
	})
	if err != nil {
		tr.LazyPrintf("export: %v", err)
		tr.SetError()
		httpError(w, err)
		return
	}
	tr.LazyPrintf("%d icons at %dpx, style %s: %d bytes", len(h.records), p.res, p.style, len(b))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporter.ArchiveName))
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/palettes", h.palettesHandler).Methods("GET")
	r.HandleFunc("/icon/{idx:[0-9]+}.png", h.iconHandler).Methods("GET")
	r.HandleFunc("/preview.png", h.previewHandler).Methods("GET")
	r.HandleFunc("/preview.gif", h.previewGIFHandler).Methods("GET")
	r.HandleFunc("/icons.json", h.iconsHandler).Methods("GET")
	r.HandleFunc("/export.zip", h.exportHandler).Methods("GET")
}
