// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/toeirei/wpdatabase/internal/config"
	"github.com/toeirei/wpdatabase/internal/i18n"
	"github.com/toeirei/wpdatabase/model"
)

const listTimeLayout = "2006-01-02 15:04"

// newConnectionsCmd lists the registered connections with their prefixes.
func newConnectionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "connections",
		Short: "List the registered connections and their table prefixes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows [][]string
			for _, name := range a.manager.Names() {
				conn, err := a.manager.Connection(name)
				if err != nil {
					return err
				}
				rows = append(rows, []string{name, conn.TablePrefix(), conn.Config().Driver})
			}
			renderTable(cmd.OutOrStdout(), []string{"NAME", "PREFIX", "DRIVER"}, rows)
			return nil
		},
	}
}

// newBlogsCmd lists the blogs of the network.
func newBlogsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "blogs",
		Short: "List the blogs of the network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			blogs, err := model.Blogs(a.registry).OrderExpr("?TableAlias.blog_id ASC").All(a.ctx(cmd))
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(blogs))
			for _, b := range blogs {
				rows = append(rows, []string{
					strconv.FormatInt(b.ID, 10),
					b.Domain + b.Path,
					a.registry.BlogPrefix(b.ID),
					yesNo(b.Public),
					yesNo(b.Archived),
					yesNo(b.Spam),
					yesNo(b.Deleted),
				})
			}
			renderTable(cmd.OutOrStdout(), []string{"ID", "URL", "PREFIX", "PUBLIC", "ARCHIVED", "SPAM", "DELETED"}, rows)
			return nil
		},
	}
}

// newPostsCmd lists posts of the default blog.
func newPostsCmd(a *app) *cobra.Command {
	var (
		types     []string
		statuses  []string
		published bool
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List posts of the current blog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := model.Posts(a.registry, model.WithPostType(types...))
			if len(statuses) > 0 {
				q.Apply(model.Status(statuses))
			}
			if published {
				q.Apply(model.Published(time.Now()))
			}
			if limit > 0 {
				q.Limit(limit)
			}
			posts, err := q.OrderExpr("?TableAlias.ID ASC").All(a.ctx(cmd))
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(posts))
			for _, p := range posts {
				rows = append(rows, []string{
					strconv.FormatInt(p.ID, 10),
					p.Type,
					p.Status,
					p.Date.Format(listTimeLayout),
					p.Title,
				})
			}
			renderTable(cmd.OutOrStdout(), []string{"ID", "TYPE", "STATUS", "DATE", "TITLE"}, rows)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&types, "type", nil, "only these post types")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "only these statuses")
	cmd.Flags().BoolVar(&published, "published", false, "only published posts, including due scheduled ones")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of posts")
	return cmd
}

// newUsersCmd lists users of the network.
func newUsersCmd(a *app) *cobra.Command {
	var (
		roles   []string
		members bool
	)
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users of the network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []model.QueryOption{model.WithRoleScope(roles...)}
			if members {
				id := a.blogID
				if id == 0 {
					id = 1
				}
				opts = append(opts, model.WithBlogScope(id))
			}
			users, err := model.Users(a.registry, opts...).OrderExpr("?TableAlias.ID ASC").All(a.ctx(cmd))
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{strconv.FormatInt(u.ID, 10), u.Login, u.Email, u.DisplayName})
			}
			renderTable(cmd.OutOrStdout(), []string{"ID", "LOGIN", "EMAIL", "NAME"}, rows)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&roles, "role", nil, "only users with any of these roles")
	cmd.Flags().BoolVar(&members, "members", false, "only users with capabilities on the current blog")
	return cmd
}

// metaLookup loads the owner of kind with id and reads key from its
// metadata.
func metaLookup(ctx context.Context, a *app, kind string, id int64, key string, single bool) (any, error) {
	switch kind {
	case "post":
		p, err := model.Posts(a.registry).Find(ctx, id)
		if err != nil {
			return nil, err
		}
		return model.GetMeta[*model.PostMeta](ctx, p, key, nil, single)
	case "user":
		u, err := model.Users(a.registry).Find(ctx, id)
		if err != nil {
			return nil, err
		}
		return model.GetMeta[*model.UserMeta](ctx, u, key, nil, single)
	case "comment":
		c, err := model.Comments(a.registry).Find(ctx, id)
		if err != nil {
			return nil, err
		}
		return model.GetMeta[*model.CommentMeta](ctx, c, key, nil, single)
	case "term":
		t, err := model.Terms(a.registry).Find(ctx, id)
		if err != nil {
			return nil, err
		}
		return model.GetMeta[*model.TermMeta](ctx, t, key, nil, single)
	case "blog":
		b, err := model.Blogs(a.registry).Find(ctx, id)
		if err != nil {
			return nil, err
		}
		return model.GetMeta[*model.BlogMeta](ctx, b, key, nil, single)
	}
	return nil, errors.New(i18n.T("cli.meta_unknown_kind", kind))
}

// newMetaCmd prints one metadata value, or every value with --multi.
func newMetaCmd(a *app) *cobra.Command {
	var multi bool
	cmd := &cobra.Command{
		Use:   "meta <post|user|comment|term|blog> <id> <key>",
		Short: "Print a metadata value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", i18n.T("cli.invalid_id", args[1]), err)
			}
			v, err := metaLookup(a.ctx(cmd), a, args[0], id, args[2], !multi)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatValue(v))
			return nil
		},
	}
	cmd.Flags().BoolVar(&multi, "multi", false, "print every value keyed by meta id")
	return cmd
}

// newOptionCmd prints one option of the current blog.
func newOptionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "option <name>",
		Short: "Print an option of the current blog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := model.GetOption(a.ctx(cmd), a.registry, args[0], nil)
			if err != nil {
				return err
			}
			if v == nil {
				return errors.New(i18n.T("cli.option_not_found", args[0]))
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatValue(v))
			return nil
		},
	}
}

// newConfigCmd groups configuration helpers.
func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Manage the wpdb configuration file",
		Annotations: map[string]string{skipRegistry: "true"},
	}

	var system, withPassword bool
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the resolved settings to wpdb.yaml",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipRegistry: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg
			if !withPassword {
				c.Password = ""
			}
			if err := config.WriteConfigFile(&c, system); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			path, err := config.GetConfigPath(system)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.config_written", path))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&system, "system", false, "write the system-wide file instead of the user one")
	initCmd.Flags().BoolVar(&withPassword, "with-password", false, "include the database password")
	cmd.AddCommand(initCmd)
	return cmd
}
