// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the wpdb command-line interface using Cobra. It resolves
// the database settings, boots a connection registry for the network and
// hands it to the subcommands.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/toeirei/wpdatabase/buildvars"
	"github.com/toeirei/wpdatabase/database"
	"github.com/toeirei/wpdatabase/internal/config"
	"github.com/toeirei/wpdatabase/internal/i18n"
	"github.com/toeirei/wpdatabase/internal/logging"
	"github.com/toeirei/wpdatabase/wpdb"
	"golang.org/x/term"
)

// skipRegistry marks commands that run without a database.
const skipRegistry = "skip-registry"

// app is the state shared by the commands of one invocation.
type app struct {
	cfgFile     string
	lang        string
	blogID      int64
	askPassword bool

	cfg      config.Database
	registry *wpdb.Registry
	manager  *database.Manager
}

// cliRuntime reports the blog chosen with --blog as the current one.
type cliRuntime struct {
	prefix string
	blogID int64
}

func (r cliRuntime) BasePrefix() string { return r.prefix }
func (r cliRuntime) IsMultisite() bool { return r.blogID > 0 }
func (r cliRuntime) CurrentBlogID() int64 { return r.blogID }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Cobra already printed the error.
		os.Exit(1)
	}
}

// newRootCmd builds a fresh command tree. Tests call it once per run.
func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "wpdb",
		Short: "Inspect the database of a WordPress multisite network.",
		Long: `wpdb reads a WordPress network straight from its database.
It registers one connection per blog, all sharing a single pool, and
queries posts, users, options and metadata through them.

Settings come from flags, DB_* environment variables and wpdb.yaml,
in that order.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	cmd.Version = buildvars.VersionOrDefault("dev")

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is wpdb.yaml in the user or system config directory)")
	pf.String("driver", "", `database driver ("mysql", "pgsql", "sqlite")`)
	pf.String("host", "", "database host")
	pf.String("database", "", "database name")
	pf.String("username", "", "database user")
	pf.String("password", "", "database password")
	pf.String("prefix", "", `base table prefix (default "wp_")`)
	pf.String("dsn", "", "data source name, used instead of the fields above")
	pf.Bool("debug", false, "log every query")
	pf.BoolVar(&a.askPassword, "ask-password", false, "prompt for the database password")
	pf.Int64Var(&a.blogID, "blog", 0, "blog to use as the default connection")
	pf.StringVar(&a.lang, "lang", "en", `message language ("en", "de")`)

	cmd.AddCommand(
		newConnectionsCmd(a),
		newBlogsCmd(a),
		newPostsCmd(a),
		newUsersCmd(a),
		newMetaCmd(a),
		newOptionCmd(a),
		newConfigCmd(a),
		newDebugCmd(a),
	)
	return cmd
}

// loadConfig resolves the settings for cmd without opening anything.
func (a *app) loadConfig(cmd *cobra.Command) error {
	i18n.Init(a.lang)
	explicit := map[string]any{}
	if a.askPassword {
		pw, err := readPassword(cmd)
		if err != nil {
			return err
		}
		explicit["password"] = pw
	}
	cfg, err := config.LoadConfig[config.Database](cmd, config.Defaults(), explicit, &a.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	if cfg.Debug {
		database.SetDebug(true)
	}
	return nil
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := a.loadConfig(cmd); err != nil {
		return err
	}
	if cmd.Annotations[skipRegistry] != "" {
		return nil
	}

	a.manager = database.NewManager()
	opts := []wpdb.Option{wpdb.WithManager(a.manager)}
	if a.blogID > 0 {
		opts = append(opts, wpdb.WithRuntime(cliRuntime{prefix: a.cfg.Prefix, blogID: a.blogID}))
	}
	reg, err := wpdb.New(a.ctx(cmd), a.cfg, opts...)
	if err != nil {
		_ = a.manager.Close()
		a.manager = nil
		if errors.Is(err, database.ErrMissingDatabaseName) {
			return fmt.Errorf("%w (%s)", err, i18n.T("cli.missing_database"))
		}
		return err
	}
	a.registry = reg
	logging.Debugf("wpdb: connections %s", strings.Join(a.manager.Names(), ", "))
	return nil
}

func (a *app) close() error {
	if a.manager == nil {
		return nil
	}
	err := a.manager.Close()
	a.manager = nil
	a.registry = nil
	return err
}

func (a *app) ctx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// readPassword prompts on stderr and reads a password from stdin without
// echo when stdin is a terminal.
func readPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), i18n.T("cli.password_prompt"))
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	var pw string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &pw); err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}
