// ABOUTME: Entry point for the copra-station operator app
// ABOUTME: Interactive receipt desk over the access layer, with thermal printing

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/niyog/copra-station/internal/access"
	"github.com/niyog/copra-station/internal/config"
	"github.com/niyog/copra-station/internal/printer"
	"github.com/niyog/copra-station/internal/receipt"
	"github.com/niyog/copra-station/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  ___ ___  _ __  _ __ __ _     ___| |_ __ _| |_(_) ___  _ __
 / __/ _ \| '_ \| '__/ _' |___/ __| __/ _' | __| |/ _ \| '_ \
| (_| (_) | |_) | | | (_| |___\__ \ || (_| | |_| | (_) | | | |
 \___\___/| .__/|_|  \__,_|   |___/\__\__,_|\__|_|\___/|_| |_|
          |_|
`

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

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: copra-station <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  run      Start the operator desk")
		fmt.Println("  init     Create a config file with defaults")
		fmt.Println("  version  Print the version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "run":
		err = runStation(ctx)
	case "init":
		err = runInit()
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, or falls back to development defaults
// with the database under the data directory.
func loadConfig() (*config.Config, string, error) {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return config.New(filepath.Join(getDataPath(), "station.db")), "(defaults)", nil
		}
		return nil, "", fmt.Errorf("checking config file: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, configPath, nil
}

func runStation(ctx context.Context) error {
	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}

	// Components pick up slog.Default at construction, so set it first.
	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Printer:  %s\n", cfg.Printer.Mode)
	fmt.Println()

	layer := access.New(func() (store.Store, error) {
		return store.NewSQLiteStore(cfg.Database.Path)
	})
	defer layer.Close()

	gateway, err := cfg.PrinterGateway()
	if err != nil {
		return fmt.Errorf("building printer gateway: %w", err)
	}
	defer gateway.Disconnect()

	// Warm the storage up front so the first prompt isn't the one that
	// pays for initialization.
	if err := layer.Initialize(ctx); err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	scanner := bufio.NewScanner(os.Stdin)

	if err := loginPrompt(ctx, layer, scanner); err != nil {
		return err
	}

	station := receipt.Station{Name: cfg.Station.Name, Address: cfg.Station.Address}
	return repl(ctx, layer, gateway, station, scanner)
}

// loginPrompt asks for credentials until a login succeeds, up to three
// attempts.
func loginPrompt(ctx context.Context, layer *access.Layer, scanner *bufio.Scanner) error {
	yellow := color.New(color.FgYellow)

	for attempt := 1; attempt <= 3; attempt++ {
		fmt.Print("Username: ")
		if !scanner.Scan() {
			return errors.New("no input")
		}
		username := strings.TrimSpace(scanner.Text())

		fmt.Print("Password: ")
		password, err := readPassword(scanner)
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}

		ok, err := layer.Login(ctx, username, password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		if ok {
			color.Green("\nWelcome, %s.\n\n", username)
			return nil
		}

		yellow.Println("Invalid username or password.")
	}

	return errors.New("too many failed login attempts")
}

// readPassword reads a password without echo when stdin is a terminal, and
// falls back to a plain line read otherwise (pipes, tests).
var readPassword = func(scanner *bufio.Scanner) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	if !scanner.Scan() {
		return "", errors.New("no input")
	}
	return scanner.Text(), nil
}

func repl(ctx context.Context, layer *access.Layer, gateway printer.Gateway, station receipt.Station, scanner *bufio.Scanner) error {
	green := color.New(color.FgGreen)
	printHelp()

	for {
		if err := ctx.Err(); err != nil {
			fmt.Println()
			return nil
		}

		green.Print("copra> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "new":
			err = cmdNewReceipt(ctx, layer, gateway, station, scanner)
		case "receipts":
			err = cmdReceipts(ctx, layer)
		case "print":
			err = cmdPrint(ctx, layer, gateway, station, fields[1:])
		case "defaults":
			err = cmdDefaults(ctx, layer, fields[1:])
		case "operators":
			err = cmdOperators(ctx, layer)
		case "register":
			err = cmdRegister(ctx, layer, scanner, fields[1:])
		case "printers":
			err = cmdPrinters(ctx, gateway)
		case "connect":
			err = cmdConnect(ctx, gateway, fields[1:])
		case "disconnect":
			err = gateway.Disconnect()
		case "reset":
			err = cmdReset(ctx, layer, scanner)
		case "help":
			printHelp()
		case "exit", "quit":
			return nil
		default:
			fmt.Printf("Unknown command: %s (try 'help')\n", fields[0])
		}

		if err != nil {
			color.Red("Error: %v", err)
		}
	}
}

func printHelp() {
	yellow := color.New(color.FgYellow)
	yellow.Println("Commands:")
	fmt.Println("  new                     Record a new purchase and print the receipt")
	fmt.Println("  receipts                List saved receipts")
	fmt.Println("  print <number>          Reprint a receipt, e.g. print RCT-0001")
	fmt.Println("  defaults                Show default unit price and transport fee")
	fmt.Println("  defaults set <p> <f>    Save new defaults")
	fmt.Println("  operators               List operators")
	fmt.Println("  register <username>     Register a new operator")
	fmt.Println("  printers                List paired printers")
	fmt.Println("  connect <address>       Connect to a printer")
	fmt.Println("  disconnect              Disconnect the printer")
	fmt.Println("  reset                   Wipe all records and reseed defaults")
	fmt.Println("  exit                    Leave")
	fmt.Println()
}

// promptValue reads one line, returning fallback on empty input.
func promptValue(scanner *bufio.Scanner, label, fallback string) (string, error) {
	if fallback != "" {
		fmt.Printf("%s [%s]: ", label, fallback)
	} else {
		fmt.Printf("%s: ", label)
	}
	if !scanner.Scan() {
		return "", errors.New("no input")
	}
	value := strings.TrimSpace(scanner.Text())
	if value == "" {
		return fallback, nil
	}
	return value, nil
}

func promptAmount(scanner *bufio.Scanner, label, fallback string) (float64, error) {
	raw, err := promptValue(scanner, label, fallback)
	if err != nil {
		return 0, err
	}
	return receipt.ParseAmount(raw)
}

func cmdNewReceipt(ctx context.Context, layer *access.Layer, gateway printer.Gateway, station receipt.Station, scanner *bufio.Scanner) error {
	number, err := layer.NextReceiptNumber(ctx)
	if err != nil {
		return err
	}
	color.New(color.FgCyan).Printf("Receipt %s\n", number)

	defaults, err := layer.Defaults(ctx)
	if err != nil {
		return err
	}

	customer, err := promptValue(scanner, "Customer name", "")
	if err != nil {
		return err
	}
	address, err := promptValue(scanner, "Customer address", "")
	if err != nil {
		return err
	}
	gross, err := promptAmount(scanner, "Gross weight (kg)", "")
	if err != nil {
		return err
	}
	deduction, err := promptAmount(scanner, "Deduction (kg)", "0")
	if err != nil {
		return err
	}
	unitPrice, err := promptAmount(scanner, "Unit price", defaults.UnitPrice)
	if err != nil {
		return err
	}
	fee, err := promptAmount(scanner, "Transport fee", defaults.TransportFee)
	if err != nil {
		return err
	}

	if err := receipt.Validate(customer, gross, deduction, unitPrice, fee); err != nil {
		return err
	}

	total := receipt.Total(gross, deduction, unitPrice, fee)
	fmt.Printf("\nNet weight: %s kg\n", receipt.FormatAmount(gross-deduction))
	color.New(color.FgGreen, color.Bold).Printf("Total:      %s\n\n", receipt.FormatAmount(total))

	confirm, err := promptValue(scanner, "Save receipt? [y/N]", "n")
	if err != nil {
		return err
	}
	if !strings.EqualFold(confirm, "y") {
		fmt.Println("Discarded.")
		return nil
	}

	r := &store.Receipt{
		Number:          number,
		CustomerName:    customer,
		CustomerAddress: address,
		UnitPrice:       unitPrice,
		GrossWeight:     gross,
		DeductionWeight: deduction,
		TransportFee:    fee,
		Total:           total,
	}
	if err := layer.SaveReceipt(ctx, r); err != nil {
		return err
	}
	fmt.Printf("Saved %s.\n", r.Number)

	doPrint, err := promptValue(scanner, "Print receipt? [y/N]", "n")
	if err != nil {
		return err
	}
	if strings.EqualFold(doPrint, "y") {
		return printReceipt(ctx, gateway, r, station)
	}
	return nil
}

func printReceipt(ctx context.Context, gateway printer.Gateway, r *store.Receipt, station receipt.Station) error {
	err := gateway.PrintText(ctx, receipt.Render(*r, station))
	if errors.Is(err, printer.ErrNotConnected) {
		return errors.New("no printer connected (use 'printers' and 'connect <address>')")
	}
	if err != nil {
		return err
	}
	fmt.Println("Printed.")
	return nil
}

func cmdReceipts(ctx context.Context, layer *access.Layer) error {
	receipts, err := layer.Receipts(ctx)
	if err != nil {
		return err
	}
	if len(receipts) == 0 {
		fmt.Println("No receipts yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tDATE\tCUSTOMER\tNET KG\tTOTAL")
	for _, r := range receipts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.Number,
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.CustomerName,
			receipt.FormatAmount(r.GrossWeight-r.DeductionWeight),
			receipt.FormatAmount(r.Total),
		)
	}
	return w.Flush()
}

func cmdPrint(ctx context.Context, layer *access.Layer, gateway printer.Gateway, station receipt.Station, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: print <number>")
	}

	r, err := layer.Receipt(ctx, args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no receipt %s", args[0])
	}
	if err != nil {
		return err
	}
	return printReceipt(ctx, gateway, r, station)
}

func cmdDefaults(ctx context.Context, layer *access.Layer, args []string) error {
	if len(args) == 0 {
		d, err := layer.Defaults(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Unit price:    %s\n", d.UnitPrice)
		fmt.Printf("Transport fee: %s\n", d.TransportFee)
		return nil
	}

	if len(args) != 3 || args[0] != "set" {
		return errors.New("usage: defaults set <unit-price> <transport-fee>")
	}

	// Parse to reject garbage, but store the strings as typed.
	if _, err := receipt.ParseAmount(args[1]); err != nil {
		return err
	}
	if _, err := receipt.ParseAmount(args[2]); err != nil {
		return err
	}

	if err := layer.SaveDefaults(ctx, args[1], args[2]); err != nil {
		return err
	}
	fmt.Println("Defaults saved.")
	return nil
}

func cmdOperators(ctx context.Context, layer *access.Layer) error {
	operators, err := layer.Operators(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tCREATED")
	for _, op := range operators {
		fmt.Fprintf(w, "%s\t%s\n", op.Username, op.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func cmdRegister(ctx context.Context, layer *access.Layer, scanner *bufio.Scanner, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: register <username>")
	}
	username := args[0]

	fmt.Print("Password: ")
	password, err := readPassword(scanner)
	if err != nil {
		return err
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password must not be empty")
	}

	fmt.Print("Confirm password: ")
	confirm, err := readPassword(scanner)
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	if err := layer.Register(ctx, username, password); err != nil {
		return err
	}
	fmt.Printf("Operator %s is registered.\n", username)
	return nil
}

func cmdPrinters(ctx context.Context, gateway printer.Gateway) error {
	devices, err := gateway.ListPairedDevices(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("No paired printers.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS")
	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s\n", d.Name, d.Address)
	}
	return w.Flush()
}

func cmdConnect(ctx context.Context, gateway printer.Gateway, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: connect <address>")
	}
	if err := gateway.Connect(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Connected to %s.\n", args[0])
	return nil
}

func cmdReset(ctx context.Context, layer *access.Layer, scanner *bufio.Scanner) error {
	color.New(color.FgRed, color.Bold).Println("This deletes every operator, setting, and receipt.")
	confirm, err := promptValue(scanner, "Type RESET to confirm", "")
	if err != nil {
		return err
	}
	if confirm != "RESET" {
		fmt.Println("Aborted.")
		return nil
	}

	if err := layer.ResetAll(ctx); err != nil {
		return err
	}
	fmt.Println("Store reset to seeded defaults.")
	return nil
}

// runInit writes a commented starter config to the default location.
func runInit() error {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists at %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	template := fmt.Sprintf(`# copra-station configuration

database:
  path: %q

station:
  name: "COPRA STATION"
  address: ""

printer:
  # "serial" for a real thermal printer, "mock" to log instead.
  # COPRA_PRINTER overrides this at startup.
  mode: "mock"
  baud_rate: 9600
  devices: []
  #  - name: "POS58 Thermal"
  #    address: "/dev/rfcomm0"

logging:
  level: "info"
  format: "text"
`, filepath.Join(getDataPath(), "station.db"))

	if err := os.WriteFile(configPath, []byte(template), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	color.Green("Wrote %s", configPath)
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
