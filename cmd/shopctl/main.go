// Command shopctl is a terminal client for the storefront API.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"go.uber.org/zap"

	"github.com/ecomt/storefront/internal/client/address"
	"github.com/ecomt/storefront/internal/client/apiclient"
	"github.com/ecomt/storefront/internal/client/cart"
	"github.com/ecomt/storefront/internal/client/catalog"
	"github.com/ecomt/storefront/internal/client/session"
	"github.com/ecomt/storefront/internal/infrastructure/logger"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app wires the client providers for one invocation.
type app struct {
	cfg     *cliConfig
	log     *zap.Logger
	api     *apiclient.Client
	session *session.Manager
	cart    *cart.Mirror
	catalog *catalog.Service
	address *address.Client

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func newApp(cfg *cliConfig, in io.Reader, out, errOut io.Writer) (*app, error) {
	log := logger.New(&logger.Config{Level: cfg.LogLevel, Format: "console", Output: "stderr"})

	a := &app{cfg: cfg, log: log, in: in, out: out, errOut: errOut}

	api, err := apiclient.New(
		apiclient.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout, UserAgent: "shopctl/" + version},
		apiclient.WithLogger(log),
		apiclient.WithNotifier(apiclient.NotifierFunc(func(_ apiclient.Kind, message string) {
			fmt.Fprintln(a.errOut, "!", message)
		})),
	)
	if err != nil {
		return nil, err
	}

	a.api = api
	a.session = session.NewManager(api, session.NewFileStore(cfg.SessionPath), session.WithLogger(log))
	a.cart = cart.NewMirror(api, a.session, log)
	a.catalog = catalog.NewService(api)
	a.address = address.NewClient(
		address.Config{BaseURL: cfg.AddressBaseURL, CacheTTL: cfg.AddressCacheTTL},
		address.WithLogger(log),
	)
	return a, nil
}

func (a *app) close() {
	a.cart.Close()
	_ = a.log.Sync()
}

// command is one shopctl subcommand.
type command struct {
	usage string
	auth  bool
	run   func(ctx context.Context, a *app, args []string) error
}

var version = "dev"

var commands = map[string]command{
	"login":     {usage: "login -email <email> [-password <pw>]", run: cmdLogin},
	"register":  {usage: "register -name <name> -email <email> [-password <pw>]", run: cmdRegister},
	"logout":    {usage: "logout", run: cmdLogout},
	"whoami":    {usage: "whoami", auth: true, run: cmdWhoami},
	"products":  {usage: "products [-category id] [-brand id] [-min n] [-max n] [-name s] [-sort name|price|createdAt] [-order asc|desc] [-page n] [-limit n]", run: cmdProducts},
	"search":    {usage: "search <query> | search -i (read queries from stdin)", run: cmdSearch},
	"cart":      {usage: "cart [add <product> [qty] | update <item> <qty> | remove <item> | clear]", auth: true, run: cmdCart},
	"checkout":  {usage: "checkout -address <street> -province <code> -ward <code> -phone <phone> [-payment COD|VNPAY|SEPAY] [-fee n] [-notes s]", auth: true, run: cmdCheckout},
	"orders":    {usage: "orders [order-id]", auth: true, run: cmdOrders},
	"provinces": {usage: "provinces", run: cmdProvinces},
	"wards":     {usage: "wards <province-code>", run: cmdWards},
	"chat":      {usage: "chat [-conversation id] <message>", run: cmdChat},
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	fs := flag.NewFlagSet("shopctl", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configPath := fs.String("config", "", "Config file (default: ~/.config/shopctl/config.toml)")
	apiURL := fs.String("api", "", "API base URL, overrides api.base_url")
	logLevel := fs.String("log-level", "", "Log level, overrides log.level")
	fs.Usage = func() { printUsage(errOut) }
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(errOut)
		return errUsage
	}
	if rest[0] == "version" {
		fmt.Fprintln(out, version)
		return nil
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(errOut, "unknown command %q\n\n", rest[0])
		printUsage(errOut)
		return errUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *apiURL != "" {
		cfg.APIBaseURL = *apiURL
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	a, err := newApp(cfg, in, out, errOut)
	if err != nil {
		return err
	}
	defer a.close()

	if cmd.auth {
		if err := a.requireSession(ctx); err != nil {
			return err
		}
	}
	if err := cmd.run(ctx, a, rest[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(errOut, "usage: shopctl", cmd.usage)
		}
		return err
	}
	return nil
}

// requireSession restores the stored session or fails with a hint.
func (a *app) requireSession(ctx context.Context) error {
	ok, err := a.session.Rehydrate(ctx)
	if err != nil {
		a.log.Debug("Session rehydration failed", zap.Error(err))
	}
	if !ok {
		return errors.New("not signed in; run `shopctl login` first")
	}
	return nil
}

func (a *app) readLine(prompt string) (string, error) {
	fmt.Fprint(a.errOut, prompt)
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return trimNewline(line), nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "shopctl - storefront command line client")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  shopctl [-config file] [-api url] [-log-level level] <command> [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(w, "  "+commands[name].usage)
	}
	fmt.Fprintln(w, "  version")
}
