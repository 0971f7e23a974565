package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"

	"github.com/clothsearch/backend/config"
	"github.com/clothsearch/backend/internal/app"
	"github.com/clothsearch/backend/internal/domain"
)

func main() {
	cliApp := &cli.App{
		Name:    "clothsearch",
		Usage:   "Search clothing listings across shopping sites",
		Version: app.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Query string to search for; positional args are a fallback",
			},
			&cli.StringSliceFlag{
				Name:    "site",
				Aliases: []string{"s"},
				Usage:   "Site id or alias to search; repeatable, default all",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Global deadline for the whole search",
			},
			&cli.Float64Flag{
				Name:  "min-rating",
				Usage: "Minimum rating on the 0-5 scale",
			},
			&cli.Float64Flag{
				Name:  "min-price",
				Usage: "Minimum price",
			},
			&cli.Float64Flag{
				Name:  "max-price",
				Usage: "Maximum price",
			},
			&cli.StringFlag{Name: "size", Usage: "Size substring filter"},
			&cli.StringFlag{Name: "color", Usage: "Color substring filter"},
			&cli.StringFlag{Name: "gender", Usage: "Gender substring filter"},
			&cli.BoolFlag{
				Name:  "mock",
				Usage: "Use synthetic offline listings instead of fetching sites",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Indent the JSON output",
				Value: true,
			},
		},
		Action: runAction,
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "clothsearch: %v\n", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	text := strings.TrimSpace(c.String("query"))
	if text == "" && c.NArg() > 0 {
		text = strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	}
	if text == "" {
		return errors.New("a query is required (--query or positional)")
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}
	if c.Bool("mock") {
		cfg.Sites.Mock = true
	}
	// Keep stdout clean for the JSON result
	cfg.Server.Environment = "cli"

	log := app.NewLogger(cfg, os.Stderr)
	components := app.Build(cfg, log)
	defer components.Close()

	query := domain.Query{
		Text:    text,
		Sites:   c.StringSlice("site"),
		Timeout: c.Duration("timeout"),
		Filter: domain.FilterSpec{
			MinRating: c.Float64("min-rating"),
			Size:      c.String("size"),
			Color:     c.String("color"),
			Gender:    c.String("gender"),
		},
	}
	if c.IsSet("min-price") {
		v := c.Float64("min-price")
		query.Filter.MinPrice = &v
	}
	if c.IsSet("max-price") {
		v := c.Float64("max-price")
		query.Filter.MaxPrice = &v
	}

	start := time.Now()
	result, err := components.Search.Search(c.Context, query)
	if err != nil {
		return errors.Wrap(err, "search")
	}
	log.Debug().Dur("elapsed", time.Since(start)).Str("search_id", result.SearchID).Msg("Search finished")

	enc := json.NewEncoder(c.App.Writer)
	if c.Bool("pretty") {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}
