package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/xbanchon/image-conversion-service/internal/processor"
	"github.com/xbanchon/image-conversion-service/pkg/converter"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}
}

func newApp() *cli.App {
	// -h is taken by --height.
	cli.HelpFlag = &cli.BoolFlag{
		Name:  "help",
		Usage: "show help",
	}

	return &cli.App{
		Name:    "respicta",
		Usage:   "convert images between gif, png, jpeg, webp and avif",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     "Convert an image, picking the pipeline from the file extensions",
				UsageText: "respicta convert [options] <input> <output>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "width",
						Aliases: []string{"w"},
						Usage:   "maximum output width in pixels",
					},
					&cli.IntFlag{
						Name:    "height",
						Aliases: []string{"h"},
						Usage:   "maximum output height in pixels",
					},
					&cli.IntFlag{
						Name:    "quality",
						Aliases: []string{"q"},
						Usage:   "encoder quality (0-100)",
					},
					&cli.StringFlag{
						Name:    "gifsicle",
						Usage:   "gifsicle binary",
						Value:   processor.DefaultGifsicle,
						EnvVars: []string{"GIFSICLE_BIN"},
					},
					&cli.StringFlag{
						Name:    "gif2webp",
						Usage:   "gif2webp binary",
						Value:   processor.DefaultGif2WebP,
						EnvVars: []string{"GIF2WEBP_BIN"},
					},
					&cli.BoolFlag{
						Name:  "cleanup-on-failure",
						Usage: "remove intermediate files when a later stage fails",
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "log every conversion stage",
					},
				},
				Action: convertCommand,
			},
			{
				Name:      "formats",
				Usage:     "List the supported conversions",
				UsageText: "respicta formats",
				Action:    formatsCommand,
			},
		},
	}
}

func convertCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected <input> <output>, got %d arguments", c.NArg())
	}

	logger := zap.NewNop()
	if c.Bool("verbose") {
		logger = zap.Must(zap.NewDevelopment())
	}
	defer logger.Sync()

	var opts []converter.ConfigOption
	if c.IsSet("width") {
		opts = append(opts, converter.WithWidth(c.Int("width")))
	}
	if c.IsSet("height") {
		opts = append(opts, converter.WithHeight(c.Int("height")))
	}
	if c.IsSet("quality") {
		opts = append(opts, converter.WithQuality(c.Int("quality")))
	}

	conv := converter.New(
		converter.WithLogger(logger.Sugar()),
		converter.WithGifsicle(c.String("gifsicle")),
		converter.WithGif2WebP(c.String("gif2webp")),
		converter.WithCleanupOnFailure(c.Bool("cleanup-on-failure")),
	)

	return conv.Convert(converter.NewConfig(c.Args().Get(0), c.Args().Get(1), opts...))
}

func formatsCommand(c *cli.Context) error {
	for _, id := range converter.Pipelines() {
		fmt.Fprintln(c.App.Writer, id.String())
	}
	return nil
}
