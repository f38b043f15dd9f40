package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/WayBetterSolutions/LEAF/internal"
	"github.com/WayBetterSolutions/LEAF/internal/analytics"
	pkgconfig "github.com/WayBetterSolutions/LEAF/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfPresent(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func bootstrap(cmd *cli.Command) (*internal.Runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return internal.Bootstrap(internal.WithConfig(cfg))
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func addNote(ctx context.Context, cmd *cli.Command) error {
	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}

	content := strings.Join(cmd.Args().Slice(), " ")
	if content == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		content = string(data)
	}

	id, err := rt.Store.Create(content)
	if err != nil {
		return err
	}
	note, _ := rt.Store.Get(id)
	fmt.Printf("created note %d: %s\n", id, note.Title)
	return nil
}

func listNotes(ctx context.Context, cmd *cli.Command) error {
	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	if q := cmd.String("search"); q != "" {
		rt.Store.SetQuery(q)
	}
	for _, n := range rt.Store.Filtered() {
		fmt.Printf("%4d  %-50s  %s\n", n.ID, n.Title, n.Modified)
	}
	return nil
}

func searchNotes(ctx context.Context, cmd *cli.Command) error {
	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	rt.Store.SetQuery(strings.Join(cmd.Args().Slice(), " "))
	for _, n := range rt.Store.Filtered() {
		fmt.Printf("%4d  %-50s  %s\n", n.ID, n.Title, n.Modified)
	}
	return nil
}

func showStats(ctx context.Context, cmd *cli.Command) error {
	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	if raw := cmd.String("note"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid note id %q", raw)
		}
		note, ok := rt.Store.Get(id)
		if !ok {
			return fmt.Errorf("unknown note id %d", id)
		}
		return printJSON(analytics.ComputeNoteStats(note))
	}
	return printJSON(analytics.ComputeOverallStats(rt.Registry))
}

func collectionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "collections",
		Usage: "Manage collections",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all collections",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					rt, err := bootstrap(cmd)
					if err != nil {
						return err
					}
					return printJSON(rt.Registry.Info())
				},
			},
			{
				Name:      "create",
				Usage:     "Create a new collection",
				ArgsUsage: "<name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					rt, err := bootstrap(cmd)
					if err != nil {
						return err
					}
					name := cmd.Args().First()
					if err := rt.Registry.Create(name); err != nil {
						return err
					}
					fmt.Printf("created collection %q\n", name)
					return nil
				},
			},
			{
				Name:      "rename",
				Usage:     "Rename a collection",
				ArgsUsage: "<old> <new>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					rt, err := bootstrap(cmd)
					if err != nil {
						return err
					}
					args := cmd.Args().Slice()
					if len(args) != 2 {
						return fmt.Errorf("usage: collections rename <old> <new>")
					}
					if err := rt.Registry.Rename(args[0], args[1]); err != nil {
						return err
					}
					fmt.Printf("renamed %q to %q\n", args[0], args[1])
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a collection (file kept as timestamped backup)",
				ArgsUsage: "<name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					rt, err := bootstrap(cmd)
					if err != nil {
						return err
					}
					name := cmd.Args().First()
					if err := rt.Registry.Delete(name); err != nil {
						return err
					}
					fmt.Printf("deleted collection %q\n", name)
					return nil
				},
			},
			{
				Name:      "switch",
				Usage:     "Make a collection active",
				ArgsUsage: "<name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					rt, err := bootstrap(cmd)
					if err != nil {
						return err
					}
					name := cmd.Args().First()
					rt.Store.Switch(name)
					if rt.Registry.Current() != name {
						return fmt.Errorf("unknown collection %q", name)
					}
					fmt.Printf("active collection: %q\n", name)
					return nil
				},
			},
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "leaf",
		Usage: "Local-first note keeper with collections, live filtering, and text analytics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("LEAF_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the MCP server on stdio with file watching",
				Action: serve,
			},
			{
				Name:      "add",
				Usage:     "Create a note from arguments or stdin",
				ArgsUsage: "[content]",
				Action:    addNote,
			},
			{
				Name:  "list",
				Usage: "List notes in the active collection, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Filter by substring"},
				},
				Action: listNotes,
			},
			{
				Name:      "search",
				Usage:     "Search notes by title or content",
				ArgsUsage: "<query>",
				Action:    searchNotes,
			},
			{
				Name:  "stats",
				Usage: "Show aggregate statistics, or one note's statistics",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "note", Aliases: []string{"n"}, Usage: "Note id"},
				},
				Action: showStats,
			},
			collectionsCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
