package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"net/http"
	"runtime"

	"badc0de.net/pkg/flagutil/v1"

	"github.com/golang/glog"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	_ "golang.org/x/net/trace"

	"badc0de.net/pkg/go-vanilla/atlas"
	"badc0de.net/pkg/go-vanilla/classify"
	"badc0de.net/pkg/go-vanilla/compositor"
	"badc0de.net/pkg/go-vanilla/icons"
	"badc0de.net/pkg/go-vanilla/palette"
	"badc0de.net/pkg/go-vanilla/web"
)

// glogWriter sends access log lines to glog.
type glogWriter struct{}

func (glogWriter) Write(p []byte) (int, error) {
	glog.Info(string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}

func main() {
	setupFlags()
	flagutil.Parse()

	cfg, err := loadConfig()
	if err != nil {
		glog.Exitf("configuration: %v", err)
	}

	set, err := palette.Open(cfg.PalettesPath)
	if err != nil {
		glog.Exitf("%v", err)
	}

	loader := atlas.NewLoader()
	loader.Load(func() (*atlas.Atlas, error) {
		return atlas.Open(cfg.AtlasPath, cfg.IconSize)
	})
	renderer := compositor.NewRenderer(nil)

	var records []icons.Record
	if cfg.Legacy {
		// Classification needs the pixels, so serving waits for the sheet.
		a, err := loader.Wait(context.Background())
		if err != nil {
			glog.Exitf("%v", err)
		}
		renderer.SetAtlas(a)
		ref, err := set.ByID(cfg.ReferencePalette)
		if err != nil {
			glog.Exitf("reference palette: %v", err)
		}
		table, err := classify.New(a, ref).Table()
		if err != nil {
			glog.Exitf("classifying icons: %v", err)
		}
		records = table.Records()
	} else {
		table, err := icons.Open(cfg.IconDataPath)
		if err != nil {
			glog.Exitf("%v", err)
		}
		records = table.Records()
		go func() {
			a, err := loader.Wait(context.Background())
			if err != nil {
				glog.Fatalf("icon sheet failed to load: %v", err)
			}
			if highest := table.MaxIcon(); highest >= a.IconCount() {
				glog.Warningf("icondata refers to icon %d but the sheet has only %d icons", highest, a.IconCount())
			}
			renderer.SetAtlas(a)
		}()
	}
	glog.Infof("serving %d icons in %d palettes", len(records), len(set.Palettes))

	if cfg.DebugListenAddress != "" {
		http.HandleFunc("/debug/minimetrics", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "runtime.NumGoroutine(): %d\n", runtime.NumGoroutine())
			_, loaded := loader.Loaded()
			fmt.Fprintf(w, "icon sheet loaded: %v\n", loaded)
		})
		go func() {
			glog.Errorf("debug server: %v", http.ListenAndServe(cfg.DebugListenAddress, nil))
		}()
	}

	r := mux.NewRouter()
	web.NewHandler(renderer, set, records).RegisterRoutes(r)

	var h http.Handler = r
	h = handlers.CombinedLoggingHandler(glogWriter{}, h)
	h = handlers.CompressHandler(h)

	glog.Infof("vanillaweb listening on %s", cfg.ListenAddress)
	glog.Fatal(http.ListenAndServe(cfg.ListenAddress, h))
}

func init() {
	flag.Set("logtostderr", "true")
}
