package main

import (
	"flag"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-vanilla/atlas"
	"badc0de.net/pkg/go-vanilla/classify"
	"badc0de.net/pkg/go-vanilla/datafiles"
	"badc0de.net/pkg/go-vanilla/paths"
)

// config is read from flags, then from VANILLA_* environment variables.
// Flags given on the command line win over the environment.
type config struct {
	ListenAddress      string `env:"VANILLA_LISTEN_ADDRESS"`
	DebugListenAddress string `env:"VANILLA_DEBUG_LISTEN_ADDRESS"`
	AtlasPath          string `env:"VANILLA_ATLAS"`
	PalettesPath       string `env:"VANILLA_PALETTES"`
	IconDataPath       string `env:"VANILLA_ICONDATA"`
	IconSize           int    `env:"VANILLA_ICON_SIZE"`
	Legacy             bool   `env:"VANILLA_LEGACY"`
	ReferencePalette   string `env:"VANILLA_REFERENCE_PALETTE"`
}

var flagConfig config

func setupFlags() {
	flag.StringVar(&flagConfig.ListenAddress, "listen_address", ":8080", "http listen address for vanillaweb")
	flag.StringVar(&flagConfig.DebugListenAddress, "debug_web_server_listen_address", "", "where the debug server will listen")
	paths.SetupFilePathFlag(datafiles.Atlas, "atlas_path", &flagConfig.AtlasPath)
	paths.SetupFilePathFlag(datafiles.Palettes, "palettes_path", &flagConfig.PalettesPath)
	paths.SetupFilePathFlag(datafiles.IconData, "icondata_path", &flagConfig.IconDataPath)
	flag.IntVar(&flagConfig.IconSize, "icon_size", atlas.DefaultIconSize, "side of each icon on the sheet, in pixels")
	flag.BoolVar(&flagConfig.Legacy, "legacy", false, "classify icons by their pixels instead of reading icondata")
	flag.StringVar(&flagConfig.ReferencePalette, "reference_palette", classify.ReferencePalette, "in legacy mode, the palette the icon sheet is drawn in")
}

// loadConfig applies the environment over flag defaults. Call after the
// flags are parsed.
func loadConfig() (config, error) {
	cfg := flagConfig
	if err := env.Parse(&cfg); err != nil {
		return config{}, errors.Wrap(err, "parsing environment")
	}

	explicit := flagConfig
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen_address":
			cfg.ListenAddress = explicit.ListenAddress
		case "debug_web_server_listen_address":
			cfg.DebugListenAddress = explicit.DebugListenAddress
		case "atlas_path":
			cfg.AtlasPath = explicit.AtlasPath
		case "palettes_path":
			cfg.PalettesPath = explicit.PalettesPath
		case "icondata_path":
			cfg.IconDataPath = explicit.IconDataPath
		case "icon_size":
			cfg.IconSize = explicit.IconSize
		case "legacy":
			cfg.Legacy = explicit.Legacy
		case "reference_palette":
			cfg.ReferencePalette = explicit.ReferencePalette
		}
	})

	if cfg.IconSize <= 0 {
		return config{}, errors.Errorf("icon size %d is not positive", cfg.IconSize)
	}
	for name, p := range map[string]string{"atlas": cfg.AtlasPath, "palettes": cfg.PalettesPath} {
		if p == "" {
			return config{}, errors.Errorf("no %s file found; pass its path or URL", name)
		}
	}
	if cfg.IconDataPath == "" && !cfg.Legacy {
		return config{}, errors.New("no icondata file found; pass its path or URL, or use legacy mode")
	}
	return cfg, nil
}
