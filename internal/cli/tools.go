package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/trustnocode/auditdash/internal/artifacts"
	"github.com/trustnocode/auditdash/internal/fserr"
	"github.com/trustnocode/auditdash/internal/paths"
	"github.com/trustnocode/auditdash/internal/volumes"
)

func newCleanupCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired bootstrap artifacts once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, gf)
			if err != nil {
				return err
			}
			store, err := artifacts.New(cfg.StorageDir, cfg.ArtifactTTL)
			if err != nil {
				return err
			}
			n, err := store.Cleanup(time.Now())
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired artifact(s) from %s\n", n, store.Root())
			return err
		},
	}
}

func newDrivesCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "drives",
		Short: "List the volumes offered as browse shortcuts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, gf)
			if err != nil {
				return err
			}
			for _, v := range volumes.Detect(cfg.VolumeTimeout).ListVolumes(cmd.Context()) {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
}

func newValidateCmd(gf *globalFlags) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "validate PATH",
		Short: "Check a path for reading, or for writing with --write",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd, gf); err != nil {
				return err
			}
			mode := paths.ModeRead
			if write {
				mode = paths.ModeWrite
			}

			res, err := paths.Resolve(args[0], mode)
			if err != nil {
				if reason := fserr.ReasonOf(err); reason != "" {
					return fmt.Errorf("%s: %s", reason.Message(), args[0])
				}
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "path\t%s\n", res.Normalized)
			fmt.Fprintf(tw, "mode\t%s\n", mode)
			fmt.Fprintf(tw, "exists\t%t\n", res.Exists)
			fmt.Fprintf(tw, "kind\t%s\n", res.Kind)
			fmt.Fprintf(tw, "will create\t%t\n", res.WillCreate)
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "validate for writing")
	return cmd
}

func newListCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored bootstrap artifacts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, gf)
			if err != nil {
				return err
			}
			store, err := artifacts.New(cfg.StorageDir, cfg.ArtifactTTL)
			if err != nil {
				return err
			}
			recs, err := store.List()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tCREATED\tEXPIRES")
			for _, r := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					r.Name,
					humanize.Bytes(uint64(r.Size)),
					humanize.Time(r.Created),
					humanize.Time(r.Created.Add(store.TTL())))
			}
			return tw.Flush()
		},
	}
}

func newShowCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Print a stored bootstrap artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, gf)
			if err != nil {
				return err
			}
			store, err := artifacts.Open(cfg.StorageDir, cfg.ArtifactTTL)
			if err != nil {
				return err
			}
			content, err := store.Read(args[0])
			if err != nil {
				if reason := fserr.ReasonOf(err); reason != "" {
					return fmt.Errorf("%s: %s", reason.Message(), args[0])
				}
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), content)
			return err
		},
	}
}
