package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/openherd/openherd/src/common"
	"github.com/openherd/openherd/src/feed"
	"github.com/openherd/openherd/src/geo"
	"github.com/spf13/cobra"
)

//NewFeedCmd returns the command that loads and prints the merged feed
func NewFeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "feed",
		Short:   "Show posts from every known node, threaded",
		PreRunE: loadConfig,
		RunE:    runFeed,
	}
	AddFeedFlags(cmd)
	return cmd
}

func runFeed(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()

	if scan, _ := cmd.Flags().GetBool("discover"); scan {
		engine.Node.Discover(ctx)
	}

	f, err := engine.Node.LoadFeed(ctx)
	if err != nil {
		if !common.Is(err, common.FeedLoadDegraded) {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "primary node unreachable, showing cached posts")
	}

	lat, _ := cmd.Flags().GetFloat64("lat")
	lon, _ := cmd.Flags().GetFloat64("lon")
	printer := &feedPrinter{
		out:    cmd.OutOrStdout(),
		hasPos: cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon"),
		lat:    lat,
		lon:    lon,
		unit:   _config.OpenHerd.DistanceUnit,
	}

	if thread, _ := cmd.Flags().GetString("thread"); thread != "" {
		items := f.Thread(thread)
		if items == nil {
			return fmt.Errorf("post %s not in feed", thread)
		}
		printer.print(f, items[0], 0)
		return nil
	}

	for _, root := range f.RootPosts() {
		printer.print(f, root, 0)
	}

	return nil
}

type feedPrinter struct {
	out      io.Writer
	hasPos   bool
	lat, lon float64
	unit     string
	seen     map[string]bool
}

func (p *feedPrinter) print(f *feed.Feed, item *feed.Item, depth int) {
	if p.seen == nil {
		p.seen = make(map[string]bool)
	}
	if p.seen[item.ID()] {
		return
	}
	p.seen[item.ID()] = true

	indent := strings.Repeat("  ", depth)

	var flags []string
	if item.Pending {
		flags = append(flags, "pending")
	}
	if !item.Verified {
		flags = append(flags, "unverified")
	}
	if p.hasPos {
		d := geo.Distance(p.lat, p.lon, item.Post.Latitude, item.Post.Longitude, p.unit)
		flags = append(flags, fmt.Sprintf("%.1f %s", d, p.unit))
	}

	fmt.Fprintf(p.out, "%s[%s] %s %s\n", indent, item.Date().Local().Format(time.Stamp), shortID(item.ID()), strings.Join(flags, ", "))
	fmt.Fprintf(p.out, "%s  %s\n", indent, item.Post.Text)

	for _, reply := range f.RepliesOf(item.ID()) {
		p.print(f, reply, depth+1)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

//AddFeedFlags adds flags to the Feed command
func AddFeedFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("discover", false, "Scan the local network before loading")
	cmd.Flags().Float64("lat", 0, "Latitude used to show distances")
	cmd.Flags().Float64("lon", 0, "Longitude used to show distances")
	cmd.Flags().String("thread", "", "Only show the thread rooted at this post id")
}
