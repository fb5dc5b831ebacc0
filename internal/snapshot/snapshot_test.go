package snapshot

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.Width != 1600 || o.Height != 1200 || o.WaitSelector != "#summary" || o.Quality != 100 {
		t.Fatalf("defaults: %+v", o)
	}
	o = Options{Width: 800, Quality: 150, Settle: time.Second}.withDefaults()
	if o.Width != 800 || o.Quality != 100 || o.Settle != time.Second {
		t.Fatalf("overrides: %+v", o)
	}
}

func TestAllocatorOptions_ExecPath(t *testing.T) {
	base := len(allocatorOptions(Options{}.withDefaults()))
	with := len(allocatorOptions(Options{ChromeBin: "/usr/bin/chromium"}.withDefaults()))
	if with != base+1 {
		t.Fatalf("ExecPath should add one option: %d vs %d", with, base)
	}
}

func TestCapture_RejectsRelativeURL(t *testing.T) {
	for _, u := range []string{"", "/dashboard", "ftp://host/x", "localhost:8080"} {
		_, err := Capture(context.Background(), u, Options{})
		if err == nil || !strings.Contains(err.Error(), "absolute http(s) URL") {
			t.Fatalf("%q: want url error, got %v", u, err)
		}
	}
}

// TestCapture_Live needs a browser and a running dashboard.
func TestCapture_Live(t *testing.T) {
	target := os.Getenv("RENTDASH_TEST_SNAPSHOT_URL")
	if target == "" {
		t.Skip("RENTDASH_TEST_SNAPSHOT_URL not set")
	}
	png, err := Capture(context.Background(), target, Options{ChromeBin: os.Getenv("RENTDASH_CHROME_BIN")})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Fatalf("not a png")
	}
}
