package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/coriolinus/ghost2zola/internal"
	"github.com/coriolinus/ghost2zola/internal/archive"
	"github.com/coriolinus/ghost2zola/internal/extract"
	"github.com/coriolinus/ghost2zola/internal/ghost"
	pkgconfig "github.com/coriolinus/ghost2zola/pkg/config"
)

// setup loads the (optional) config file and builds the logger.
func setup(cmd *cli.Command) (*internal.Config, *slog.Logger, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(log)
	return cfg, log, nil
}

func runExtract(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("expected ARCHIVE and DEST arguments, got %d", cmd.Args().Len())
	}
	archivePath := cmd.Args().Get(0)
	dest := cmd.Args().Get(1)

	e := extract.New(dest,
		extract.WithPrefix(cmd.String("prefix")),
		extract.WithLinkBase(cfg.Site.LinkBase),
		extract.WithLogger(log),
	)
	summary, err := e.Run(ctx, archivePath)
	if err != nil {
		return err
	}
	log.Info("extraction complete",
		slog.Int("posts", summary.Posts),
		slog.Int("images", summary.Images),
		slog.Int("indices", summary.Indices))
	return nil
}

func runFiletype(_ context.Context, cmd *cli.Command) error {
	if _, _, err := setup(cmd); err != nil {
		return err
	}
	for _, path := range cmd.Args().Slice() {
		mtype, err := archive.MediaType(path)
		if err != nil {
			return fmt.Errorf("detect %s: %w", path, err)
		}
		ftype, err := archive.Sniff(path)
		if err != nil {
			return fmt.Errorf("sniff %s: %w", path, err)
		}
		fmt.Printf("%s: %-30s %s\n", path, mtype, ftype)
	}
	return nil
}

func runFindDB(_ context.Context, cmd *cli.Command) error {
	_, log, err := setup(cmd)
	if err != nil {
		return err
	}
	archivePath := cmd.Args().Get(0)
	if archivePath == "" {
		return fmt.Errorf("expected ARCHIVE argument")
	}

	if cmd.Bool("all") {
		r, err := archive.Open(archivePath)
		if err != nil {
			return err
		}
		defer r.Close()
		return archive.FindGhostDBs(r, log, func(path string) error {
			fmt.Println(path)
			return nil
		})
	}

	dbPath, err := archive.FindGhostDB(archivePath, cmd.String("prefix"), log)
	if err != nil {
		return err
	}
	fmt.Printf("found db path: %s\n", dbPath)
	return nil
}

func runCheckParse(_ context.Context, cmd *cli.Command) error {
	if _, _, err := setup(cmd); err != nil {
		return err
	}
	var reader io.Reader = os.Stdin
	if path := cmd.Args().Get(0); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		reader = f
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	var top ghost.Top
	if err := json.Unmarshal(data, &top); err != nil {
		return err
	}
	fmt.Printf("parsed ok! (%d database(s))\n", len(top.DBs()))
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "ghost2zola",
		Usage: "Convert a Ghost blog export archive into a Zola content tree",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "ghost2zola.yaml",
				Value:       "ghost2zola.yaml",
				Sources:     cli.EnvVars("GHOST2ZOLA_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "Extract posts and images from an archive into a destination directory",
				ArgsUsage: "ARCHIVE DEST",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Archive-relative prefix to search for the database within",
					},
				},
				Action: runExtract,
			},
			{
				Name:      "filetype",
				Usage:     "Print the sniffed media type of each path",
				ArgsUsage: "PATH...",
				Action:    runFiletype,
			},
			{
				Name:      "find-db",
				Usage:     "Locate the ghost.db entry within an archive",
				ArgsUsage: "ARCHIVE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Archive-relative prefix to search within",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Print every candidate database path instead of resolving one",
					},
				},
				Action: runFindDB,
			},
			{
				Name:      "check-parse",
				Usage:     "Check that a Ghost JSON export parses (file or stdin)",
				ArgsUsage: "[FILE]",
				Action:    runCheckParse,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
