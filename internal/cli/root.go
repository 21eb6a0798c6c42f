// Package cli exposes the client flows as digicon subcommands.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cyberwithaman/digicon/internal/api"
	"github.com/cyberwithaman/digicon/internal/config"
	"github.com/cyberwithaman/digicon/internal/gallery"
	"github.com/cyberwithaman/digicon/internal/log"
	"github.com/cyberwithaman/digicon/internal/models"
	"github.com/cyberwithaman/digicon/internal/session"
)

type app struct {
	cfgFile string
	yes     bool

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	cfg    *config.AppConfig
	log    zerolog.Logger
	client *api.Client
	store  session.Store
}

// Execute runs one command line and returns the process exit code.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	a := &app{
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
		log:    zerolog.Nop(),
	}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if a.store != nil {
		if cerr := a.store.Close(); cerr != nil {
			a.log.Warn().Err(cerr).Msg("close session store")
		}
	}
	if err != nil {
		fmt.Fprintln(errOut, Message(err))
		return 1
	}
	return 0
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "digicon",
		Short:             "Browse, upload and report on media batches",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default digicon.yaml in ., ./config or the user config dir)")
	root.PersistentFlags().BoolVarP(&a.yes, "yes", "y", false, "answer yes to every confirmation")

	root.AddCommand(
		a.loginCommand(),
		a.logoutCommand(),
		a.batchesCommand(),
		a.uploadCommand(),
		a.imagesCommand(),
		a.reportCommand(),
		a.profileCommand(),
		a.usersCommand(),
		a.shareCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := log.New(cfg.Environment, cfg.Log.Level, a.errOut)
	if err != nil {
		return err
	}
	a.log = logger
	a.client = api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, a.log)

	store, err := session.Open(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	a.store = store
	return nil
}

func (a *app) session(ctx context.Context) (models.Session, error) {
	return session.Require(ctx, a.store)
}

func (a *app) browser(ctx context.Context, refresh bool) (*gallery.Browser, error) {
	sess, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	b := gallery.NewBrowser(a.client, sess, nil, a.log)
	if refresh {
		if err := b.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// Confirm implements admin.Confirmer against the command's stdin.
func (a *app) Confirm(ctx context.Context, prompt string) (bool, error) {
	if a.yes {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(a.out, "%s [y/N]: ", prompt)
	line, err := a.readLine()
	if err != nil {
		return false, nil
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprintf(a.out, "%s: ", label)
	return a.readLine()
}

func (a *app) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, arg)
	}
	return id, nil
}
