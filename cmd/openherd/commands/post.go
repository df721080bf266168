package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/openherd/openherd/src/geo"
	"github.com/openherd/openherd/src/post"
	"github.com/spf13/cobra"
)

//NewPostCmd returns the command that signs and broadcasts a post
func NewPostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "post [text]",
		Short:   "Sign a post and send it to every known node",
		Args:    cobra.MinimumNArgs(1),
		PreRunE: loadConfig,
		RunE:    runPost,
	}
	AddPostFlags(cmd)
	return cmd
}

func runPost(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	req, err := postRequest(cmd, strings.Join(args, " "))
	if err != nil {
		return err
	}

	env, count, err := engine.Node.Post(context.Background(), req)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", env.ID)
	if count == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no node reachable, queued for later delivery (%d pending)\n", engine.Node.Queue().Len())
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "delivered to %d node(s)\n", count)
	}

	return nil
}

func postRequest(cmd *cobra.Command, text string) (post.Request, error) {
	flags := cmd.Flags()

	lat, err := flags.GetFloat64("lat")
	if err != nil {
		return post.Request{}, err
	}
	lon, err := flags.GetFloat64("lon")
	if err != nil {
		return post.Request{}, err
	}
	parent, err := flags.GetString("parent")
	if err != nil {
		return post.Request{}, err
	}
	locality, _ := flags.GetString("locality")
	region, _ := flags.GetString("region")
	country, _ := flags.GetString("country")

	req := post.Request{
		Text:      text,
		Latitude:  lat,
		Longitude: lon,
		Hints: geo.LocalityHints{
			Locality: locality,
			Region:   region,
			Country:  country,
		},
	}
	if parent != "" {
		req.Parent = &parent
	}

	return req, nil
}

//AddPostFlags adds flags to the Post command
func AddPostFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("lat", 0, "Latitude of the author")
	cmd.Flags().Float64("lon", 0, "Longitude of the author")
	cmd.Flags().String("parent", "", "Id of the post this one replies to")
	cmd.Flags().String("locality", "", "Locality hint for the location skew")
	cmd.Flags().String("region", "", "Region hint for the location skew")
	cmd.Flags().String("country", "", "Country hint for the location skew")
}
