package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/darkan/pkg/actions"
	"github.com/haasonsaas/darkan/pkg/admin"
)

var Version = "dev"

type options struct {
	socket  string
	timeout time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "darkanctl",
		Short:         "darkanctl - administer a Darkan monitoring server",
		Long:          "Approve hosts, inspect their latest values and manage alert triggers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.socket, "socket", "s", "/tmp/darkan.sck", "Admin socket path")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		hostsCmd(opts),
		autohostsCmd(opts),
		valuesCmd(opts),
		triggersCmd(opts),
		actionsCmd(opts),
		versionCmd(),
	)
	return rootCmd
}

func (o *options) call(cmd *cobra.Command, command string, args []any, out any) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return newClient(o.socket, o.timeout).call(ctx, command, args, out)
}

func table(out io.Writer, header string) *tabwriter.Writer {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, header)
	return w
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func hostsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hosts",
		Short: "Inspect accepted hosts",
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List accepted hosts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var reply struct {
				Hosts []admin.HostView `json:"hosts"`
			}
			if err := opts.call(cmd, "hosts.list", nil, &reply); err != nil {
				return err
			}

			w := table(cmd.OutOrStdout(), "ID\tHOSTNAME\tINTERVAL\tADDED\tLAST REPORT")
			for _, h := range reply.Hosts {
				fmt.Fprintf(w, "%d\t%s\t%ds\t%s\t%s\n", h.ID, h.Hostname, h.Interval, h.Added, orDash(h.LastReport))
			}
			return w.Flush()
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show details for a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reply struct {
				Host admin.HostView `json:"host"`
			}
			if err := opts.call(cmd, "hosts.details", []any{args[0]}, &reply); err != nil {
				return err
			}

			h := reply.Host
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Host: %s\n", h.Hostname)
			fmt.Fprintf(out, "========================================\n\n")
			fmt.Fprintf(out, "ID:           %d\n", h.ID)
			fmt.Fprintf(out, "Status:       %s\n", h.Status)
			fmt.Fprintf(out, "Interval:     %ds\n", h.Interval)
			fmt.Fprintf(out, "Key:          %s\n", orDash(h.Key))
			fmt.Fprintf(out, "Added:        %s\n", h.Added)
			fmt.Fprintf(out, "Last Report:  %s\n", orDash(h.LastReport))
			return nil
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func autohostsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autohosts",
		Short: "Review hosts waiting for approval",
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List hosts pending approval",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var reply struct {
				Hosts []admin.HostView `json:"hosts"`
			}
			if err := opts.call(cmd, "autohosts.list", nil, &reply); err != nil {
				return err
			}

			w := table(cmd.OutOrStdout(), "ID\tHOSTNAME\tSTATUS\tADDED\tLAST REPORT")
			for _, h := range reply.Hosts {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", h.ID, h.Hostname, h.Status, h.Added, orDash(h.LastReport))
			}
			return w.Flush()
		},
	}

	add := &cobra.Command{
		Use:   "add <id>",
		Short: "Approve a pending host and issue its key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reply struct {
				Key string `json:"key"`
			}
			if err := opts.call(cmd, "autohosts.add", []any{args[0]}, &reply); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Host %s accepted\n", args[0])
			fmt.Fprintf(out, "Key: %s\n\n", reply.Key)
			fmt.Fprintf(out, "Install it on the host with:\n  darkan-agent -set-key %s\n", reply.Key)
			return nil
		},
	}

	decline := &cobra.Command{
		Use:   "decline <id>",
		Short: "Decline a pending host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.call(cmd, "autohosts.decline", []any{args[0]}, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Host %s declined\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, add, decline)
	return cmd
}

func valuesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "values",
		Short: "Inspect reported values",
	}

	latest := &cobra.Command{
		Use:   "latest <host-id>",
		Short: "Show the values of a host's latest report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reply struct {
				Values []admin.ValueView `json:"values"`
			}
			if err := opts.call(cmd, "values.latest", []any{args[0]}, &reply); err != nil {
				return err
			}
			if len(reply.Values) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No reports yet")
				return nil
			}

			w := table(cmd.OutOrStdout(), "KEY\tARG\tTYPE\tVALUE")
			for _, v := range reply.Values {
				fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", v.Key, v.Arg, v.Type, v.Value)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(latest)
	return cmd
}

func triggersCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "triggers",
		Short: "Manage alert triggers",
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List triggers",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var reply struct {
				Triggers []admin.TriggerView `json:"triggers"`
			}
			if err := opts.call(cmd, "triggers.list", nil, &reply); err != nil {
				return err
			}

			w := table(cmd.OutOrStdout(), "ID\tHOST\tNAME\tEXPRESSION\tACTION\tADDED")
			for _, t := range reply.Triggers {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n", t.ID, t.HostID, t.Name, t.Expression, t.Action, t.Added)
			}
			return w.Flush()
		},
	}

	var spec struct {
		host        uint
		name        string
		description string
		expression  string
		action      string
	}
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a trigger",
		Example: `  darkanctl triggers add --host 1 --name "high load" \
    --expression "cpu.load > 0.9" --action E-Mail`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var reply struct {
				ID uint `json:"id"`
			}
			err := opts.call(cmd, "triggers.add", []any{map[string]any{
				"host":        spec.host,
				"name":        spec.name,
				"description": spec.description,
				"expression":  spec.expression,
				"action":      spec.action,
			}}, &reply)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Trigger %d added\n", reply.ID)
			return nil
		},
	}
	add.Flags().UintVar(&spec.host, "host", 0, "Host id the trigger watches")
	add.Flags().StringVar(&spec.name, "name", "", "Trigger name")
	add.Flags().StringVar(&spec.description, "description", "", "Free-form description")
	add.Flags().StringVar(&spec.expression, "expression", "", "Condition over the latest report")
	add.Flags().StringVar(&spec.action, "action", "", "Action to fire (see: darkanctl actions list)")
	for _, name := range []string{"host", "name", "expression", "action"} {
		_ = add.MarkFlagRequired(name)
	}

	cmd.AddCommand(list, add)
	return cmd
}

func actionsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "Inspect alert actions",
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the actions triggers can fire",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var reply struct {
				Actions []actions.Info `json:"actions"`
			}
			if err := opts.call(cmd, "actions.list", nil, &reply); err != nil {
				return err
			}

			w := table(cmd.OutOrStdout(), "NAME\tDESCRIPTION")
			for _, a := range reply.Actions {
				fmt.Fprintf(w, "%s\t%s\n", a.Name, a.Description)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(list)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "darkanctl version %s\n", Version)
		},
	}
}
