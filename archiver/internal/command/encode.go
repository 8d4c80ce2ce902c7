package command

import (
	"github.com/urfave/cli/v2"

	"github.com/himawarilapse/himawarilapse/archiver/internal/config"
	"github.com/himawarilapse/himawarilapse/archiver/internal/encode"
)

// EncodeCommand returns the encode command, which turns the archive into a video.
func EncodeCommand() *cli.Command {
	return &cli.Command{
		Name:  "encode",
		Usage: "Encode archived frames into a video with the configured encoder",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "frame directory (defaults to archiver.save_dir)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "video file to write",
			},
			&cli.IntFlag{
				Name:  "framerate",
				Usage: "frames per second",
			},
		},
		Action: encodeFrames,
	}
}

func encodeFrames(c *cli.Context) error {
	cfg, err := loadConfig(c, func(cfg *config.Config) {
		if c.IsSet("dir") {
			cfg.Archiver.SaveDir = c.String("dir")
		}
		if c.IsSet("output") {
			cfg.Encoder.Output = c.String("output")
		}
		if c.IsSet("framerate") {
			cfg.Encoder.Framerate = c.Int("framerate")
		}
	})
	if err != nil {
		return err
	}
	return encode.New(cfg.Encoder).Run(c.Context, cfg.Archiver.SaveDir, frameExt(cfg.Archiver.Source.Pattern))
}
