package main

import (
	"flag"
	"testing"

	"badc0de.net/pkg/go-vanilla/ttesting"
)

func TestLoadConfig(t *testing.T) {
	setupFlags()
	if err := flag.CommandLine.Parse([]string{"-listen_address=:9000"}); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VANILLA_LISTEN_ADDRESS", ":7000")
	t.Setenv("VANILLA_ICON_SIZE", "32")
	t.Setenv("VANILLA_ATLAS", "https://example.com/icons.png")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	ttesting.AssertEqualString(t, "flag wins", cfg.ListenAddress, ":9000")
	ttesting.AssertEqualInt(t, "icon size from env", cfg.IconSize, 32)
	ttesting.AssertEqualString(t, "atlas from env", cfg.AtlasPath, "https://example.com/icons.png")
	ttesting.AssertEqualString(t, "reference palette default", cfg.ReferencePalette, "platinum")
	if cfg.PalettesPath == "" || cfg.IconDataPath == "" {
		t.Errorf("embedded defaults not found: %+v", cfg)
	}

	t.Setenv("VANILLA_ICON_SIZE", "zero")
	if _, err := loadConfig(); err == nil {
		t.Errorf("bad VANILLA_ICON_SIZE accepted")
	}
}
