package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"spotfinder/app"
	"spotfinder/config"
	"spotfinder/models"
	"spotfinder/services/providers"
	"spotfinder/services/search"
	"spotfinder/utils"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	cliApp := &cli.App{
		Name:  "placesctl",
		Usage: "Maintain the local place index and query the search service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:  "index",
				Usage: "Path to the local index database (overrides LOCAL_INDEX_PATH)",
			},
		},
		Before: loadConfig,
		Commands: []*cli.Command{
			{
				Name:   "reindex",
				Usage:  "Rebuild the local index from the place store",
				Action: reindexCommand,
			},
			{
				Name:   "info",
				Usage:  "Show local index statistics",
				Action: infoCommand,
			},
			{
				Name:      "search",
				Usage:     "Run a place search",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "provider",
						Aliases: []string{"p"},
						Usage:   "all, local, mapbox or google",
						Value:   search.ProviderAll,
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   search.DefaultSearchLimit,
					},
					&cli.Float64Flag{Name: "lat", Usage: "Bias latitude"},
					&cli.Float64Flag{Name: "lon", Usage: "Bias longitude"},
				},
			},
			{
				Name:      "nearby",
				Usage:     "List places around a point",
				ArgsUsage: "<lat> <lon>",
				Action:    nearbyCommand,
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: "radius", Usage: "Search radius in meters", Value: 1000},
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum number of results", Value: 20},
					&cli.StringFlag{Name: "type", Usage: "Place type filter"},
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) error {
	config.LoadConfig()
	config.AppConfig.LogLevel = c.String("log-level")
	if path := c.String("index"); path != "" {
		config.AppConfig.LocalIndexPath = path
	}
	utils.InitializeLogger()
	return nil
}

// withApp builds the application with inline persistence, so every write has
// landed when the command returns.
func withApp(c *cli.Context, fn func(ctx context.Context, a *app.App) error) error {
	ctx := c.Context
	a, err := app.Build(ctx, config.AppConfig, app.PersistSync, utils.GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func reindexCommand(c *cli.Context) error {
	return withApp(c, func(ctx context.Context, a *app.App) error {
		n, err := a.Service.RebuildIndex(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("indexed %d places\n", n)
		return nil
	})
}

func infoCommand(c *cli.Context) error {
	return withApp(c, func(ctx context.Context, a *app.App) error {
		info, err := a.Service.IndexInfo(ctx)
		if err != nil {
			return err
		}
		return printJSON(info)
	})
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("a query is required", 2)
	}
	q := search.Query{
		Text:     c.Args().First(),
		Limit:    c.Int("limit"),
		Provider: c.String("provider"),
	}
	if c.IsSet("lat") || c.IsSet("lon") {
		q.Location = &models.LatLng{Latitude: c.Float64("lat"), Longitude: c.Float64("lon")}
	}
	return withApp(c, func(ctx context.Context, a *app.App) error {
		results, err := a.Service.Search(ctx, q)
		if err != nil {
			return err
		}
		utils.GetLogger().Debug("search done", zap.Int("results", len(results)))
		return printJSON(results)
	})
}

func nearbyCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("latitude and longitude are required", 2)
	}
	var lat, lon float64
	if _, err := fmt.Sscanf(c.Args().Get(0)+" "+c.Args().Get(1), "%g %g", &lat, &lon); err != nil {
		return cli.Exit(fmt.Sprintf("invalid coordinates: %v", err), 2)
	}
	return withApp(c, func(ctx context.Context, a *app.App) error {
		results, err := a.Service.Nearby(ctx, providers.NearbyQuery{
			Location:     models.LatLng{Latitude: lat, Longitude: lon},
			RadiusMeters: c.Float64("radius"),
			Limit:        c.Int("limit"),
			Type:         c.String("type"),
		})
		if err != nil {
			return err
		}
		return printJSON(results)
	})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
