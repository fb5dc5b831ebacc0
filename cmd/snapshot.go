package cmd

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rentdash/internal/snapshot"
	"github.com/KaramelBytes/rentdash/internal/utils"
)

var (
	snapURL     string
	snapOut     string
	snapView    string
	snapWidth   int
	snapHeight  int
	snapWait    string
	snapSettle  time.Duration
	snapTimeout time.Duration
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture a PNG of a running dashboard with headless Chrome",
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := snapshotURL(snapURL, snapView)
		if err != nil {
			return err
		}
		var chromeBin string
		if cfg != nil {
			chromeBin = cfg.ChromeBin
		}
		png, err := snapshot.Capture(cmd.Context(), target, snapshot.Options{
			ChromeBin:    chromeBin,
			Width:        snapWidth,
			Height:       snapHeight,
			WaitSelector: snapWait,
			Settle:       snapSettle,
			Timeout:      snapTimeout,
		})
		if err != nil {
			return err
		}
		if err := utils.SafeWriteFile(snapOut, png); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Snapshot saved: %s (%d bytes)\n", snapOut, len(png))
		return nil
	},
}

// snapshotURL adds ?view=<name> to base when a view is requested.
func snapshotURL(base, viewName string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if viewName != "" {
		q := u.Query()
		q.Set("view", viewName)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	f := snapshotCmd.Flags()
	f.StringVar(&snapURL, "url", "http://localhost:8080/", "dashboard URL")
	f.StringVarP(&snapOut, "out", "o", "dashboard.png", "output file")
	f.StringVar(&snapView, "view", "", "saved view to open")
	f.IntVar(&snapWidth, "width", 1600, "viewport width")
	f.IntVar(&snapHeight, "height", 1200, "viewport height")
	f.StringVar(&snapWait, "wait", "#summary", "CSS selector to wait for")
	f.DurationVar(&snapSettle, "settle", 2*time.Second, "delay after the selector appears")
	f.DurationVar(&snapTimeout, "timeout", 60*time.Second, "overall capture timeout")
}
