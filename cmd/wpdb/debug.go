// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	log "github.com/charmbracelet/log"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const masked = "********"

func newDebugCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "debug",
		Short:       "Dump the resolved settings, flags and DB_* environment",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipRegistry: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "--- WPDB DEBUG ---")

			c := a.cfg
			if c.Password != "" {
				c.Password = masked
			}
			b, err := yaml.Marshal(c)
			if err != nil {
				log.Errorf("could not marshal settings: %v", err)
			} else {
				fmt.Fprintln(out, "-- settings --")
				fmt.Fprint(out, string(b))
			}

			fmt.Fprintln(out, "-- flags --")
			cmd.Flags().VisitAll(func(f *pflag.Flag) {
				val := f.Value.String()
				if f.Name == "password" && val != "" {
					val = masked
				}
				fmt.Fprintf(out, "%s = %s\n", f.Name, val)
			})

			fmt.Fprintln(out, "-- environment (DB_*) --")
			var env []string
			for _, e := range os.Environ() {
				if !strings.HasPrefix(e, "DB_") {
					continue
				}
				if strings.HasPrefix(e, "DB_PASSWORD=") {
					e = "DB_PASSWORD=" + masked
				}
				env = append(env, e)
			}
			sort.Strings(env)
			for _, e := range env {
				fmt.Fprintln(out, e)
			}
			fmt.Fprintln(out, "--- END DEBUG ---")
		},
	}
}
