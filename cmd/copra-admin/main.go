// ABOUTME: Maintenance CLI for the copra station database
// ABOUTME: Lists operators and receipts, edits defaults, registers, resets

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/niyog/copra-station/internal/access"
	"github.com/niyog/copra-station/internal/config"
	"github.com/niyog/copra-station/internal/receipt"
	"github.com/niyog/copra-station/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

func printUsage() {
	fmt.Println("copra-admin - maintenance tool for the copra station")
	fmt.Println()
	color.New(color.FgYellow).Println("Usage:")
	fmt.Println("  copra-admin <command> [flags]")
	fmt.Println()
	color.New(color.FgYellow).Println("Commands:")
	fmt.Println("  operators                List operators")
	fmt.Println("  register <username>      Register an operator")
	fmt.Println("  defaults                 Show default unit price and transport fee")
	fmt.Println("  defaults set <p> <f>     Save new defaults")
	fmt.Println("  receipts                 List receipts")
	fmt.Println("  show <number>            Print one receipt as it would be printed")
	fmt.Println("  reset                    Wipe all records and reseed (needs -force)")
	fmt.Println("  version                  Print the version")
	fmt.Println()
	color.New(color.FgYellow).Println("Flags:")
	fmt.Println("  -db <path>               Database path (default: from config)")
	fmt.Println()
	fmt.Println("The config file is read from COPRA_CONFIG, falling back to")
	fmt.Println("~/.config/copra/station.yaml.")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "operators":
		err = cmdOperators(ctx, os.Args[2:])
	case "register":
		err = cmdRegister(ctx, os.Args[2:])
	case "defaults":
		err = cmdDefaults(ctx, os.Args[2:])
	case "receipts":
		err = cmdReceipts(ctx, os.Args[2:])
	case "show":
		err = cmdShow(ctx, os.Args[2:])
	case "reset":
		err = cmdReset(ctx, os.Args[2:])
	case "version":
		fmt.Println(version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// getConfigPath returns the path to the station config file.
// Priority: COPRA_CONFIG env var > XDG_CONFIG_HOME/copra/station.yaml > ~/.config/copra/station.yaml
func getConfigPath() string {
	if envPath := os.Getenv("COPRA_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "station.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "copra", "station.yaml")
}

// getDataPath returns the path to the copra data directory.
// Priority: XDG_DATA_HOME/copra > ~/.local/share/copra
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "copra")
}

// loadConfig reads the config file if present, falling back to defaults
// with the database under the data directory.
func loadConfig() (*config.Config, error) {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return config.New(filepath.Join(getDataPath(), "station.db")), nil
		}
		return nil, fmt.Errorf("checking config file: %w", err)
	}
	return config.Load(configPath)
}

// openLayer builds an access layer over the database named by the -db
// override, or by config when the override is empty.
func openLayer(ctx context.Context, dbOverride string) (*access.Layer, error) {
	dbPath := dbOverride
	if dbPath == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		dbPath = cfg.Database.Path
	}

	layer := access.New(func() (store.Store, error) {
		return store.NewSQLiteStore(dbPath)
	})
	if err := layer.Initialize(ctx); err != nil {
		layer.Close()
		return nil, fmt.Errorf("initializing storage at %s: %w", dbPath, err)
	}
	return layer, nil
}

func cmdOperators(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("operators", flag.ExitOnError)
	dbPath := fs.String("db", "", "Database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	layer, err := openLayer(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer layer.Close()

	operators, err := layer.Operators(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tID\tCREATED")
	for _, op := range operators {
		fmt.Fprintf(w, "%s\t%s\t%s\n", op.Username, op.ID, op.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func cmdRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	dbPath := fs.String("db", "", "Database path")
	password := fs.String("password", "", "Password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: copra-admin register <username> [-password <pw>]")
	}
	username := fs.Arg(0)

	pw := *password
	if pw == "" {
		fmt.Print("Password: ")
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			return errors.New("no input")
		}
		pw = strings.TrimSpace(scanner.Text())
	}
	if pw == "" {
		return errors.New("password must not be empty")
	}

	layer, err := openLayer(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer layer.Close()

	if err := layer.Register(ctx, username, pw); err != nil {
		return err
	}
	color.Green("Operator %s is registered.", username)
	return nil
}

func cmdDefaults(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("defaults", flag.ExitOnError)
	dbPath := fs.String("db", "", "Database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	layer, err := openLayer(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer layer.Close()

	rest := fs.Args()
	if len(rest) == 0 {
		d, err := layer.Defaults(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Unit price\t%s\n", d.UnitPrice)
		fmt.Fprintf(w, "Transport fee\t%s\n", d.TransportFee)
		return w.Flush()
	}

	if len(rest) != 3 || rest[0] != "set" {
		return errors.New("usage: copra-admin defaults set <unit-price> <transport-fee>")
	}
	if _, err := receipt.ParseAmount(rest[1]); err != nil {
		return err
	}
	if _, err := receipt.ParseAmount(rest[2]); err != nil {
		return err
	}

	if err := layer.SaveDefaults(ctx, rest[1], rest[2]); err != nil {
		return err
	}
	color.Green("Defaults saved.")
	return nil
}

func cmdReceipts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("receipts", flag.ExitOnError)
	dbPath := fs.String("db", "", "Database path")
	limit := fs.Int("limit", 0, "Show at most this many receipts (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	layer, err := openLayer(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer layer.Close()

	receipts, err := layer.Receipts(ctx)
	if err != nil {
		return err
	}
	if *limit > 0 && len(receipts) > *limit {
		receipts = receipts[:*limit]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tDATE\tCUSTOMER\tGROSS\tDEDUCT\tPRICE\tFEE\tTOTAL")
	for _, r := range receipts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Number,
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.CustomerName,
			receipt.FormatAmount(r.GrossWeight),
			receipt.FormatAmount(r.DeductionWeight),
			receipt.FormatAmount(r.UnitPrice),
			receipt.FormatAmount(r.TransportFee),
			receipt.FormatAmount(r.Total),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d receipts\n", len(receipts))
	return nil
}

func cmdShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	dbPath := fs.String("db", "", "Database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: copra-admin show <number>")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	layer, err := openLayer(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer layer.Close()

	r, err := layer.Receipt(ctx, fs.Arg(0))
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no receipt %s", fs.Arg(0))
	}
	if err != nil {
		return err
	}

	station := receipt.Station{Name: cfg.Station.Name, Address: cfg.Station.Address}
	fmt.Print(receipt.Render(*r, station))
	return nil
}

func cmdReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	dbPath := fs.String("db", "", "Database path")
	force := fs.Bool("force", false, "Actually reset, no prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*force {
		return errors.New("reset deletes every operator, setting, and receipt; re-run with -force")
	}

	layer, err := openLayer(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer layer.Close()

	if err := layer.ResetAll(ctx); err != nil {
		return err
	}
	color.Green("Store reset to seeded defaults.")
	return nil
}
