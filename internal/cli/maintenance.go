package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/stocklab/stocklab/internal/di"
	"github.com/stocklab/stocklab/internal/reliability"
)

type initDBCmd struct {
	env *Env
}

func (*initDBCmd) Name() string     { return "initdb" }
func (*initDBCmd) Synopsis() string { return "create the databases and apply schemas" }
func (*initDBCmd) Usage() string {
	return `stocklab initdb

  Creates stocklab.db and cache.db in the data directory if needed and lists
  the resulting tables.
`
}

func (*initDBCmd) SetFlags(*flag.FlagSet) {}

func (c *initDBCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	container, err := di.InitializeDatabases(c.env.Config, c.env.Log)
	if err != nil {
		return c.env.fail(err)
	}
	defer c.env.closeContainer(container)

	for _, db := range container.Databases() {
		tables, err := db.Tables(ctx)
		if err != nil {
			return c.env.fail(err)
		}
		fmt.Fprintf(c.env.Stdout, "%s (%s): %s\n", db.Name(), db.Path(), strings.Join(tables, ", "))
	}
	return subcommands.ExitSuccess
}

type backupCmd struct {
	env *Env

	local  string
	list   bool
	verify string
}

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "snapshot the databases to a local archive or object storage" }
func (*backupCmd) Usage() string {
	return `stocklab backup [-local dir | -list | -verify archive.tar.gz]

  Without flags, uploads a new archive to the configured bucket and removes
  archives older than the retention period.
`
}

func (c *backupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.local, "local", "", "write the archive into this directory instead of uploading")
	f.BoolVar(&c.list, "list", false, "list remote archives")
	f.StringVar(&c.verify, "verify", "", "check the checksums of a local archive")
}

func (c *backupCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.verify != "" {
		meta, err := reliability.VerifyArchive(c.verify)
		if err != nil {
			return c.env.fail(err)
		}
		fmt.Fprintf(c.env.Stdout, "%s: %d databases verified (created %s)\n",
			c.verify, len(meta.Databases), meta.Timestamp.Format("2006-01-02 15:04:05"))
		return subcommands.ExitSuccess
	}

	container, err := c.env.wire(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	defer c.env.closeContainer(container)

	svc := container.BackupService
	if c.local != "" {
		path, meta, err := svc.CreateArchive(ctx, c.local)
		if err != nil {
			return c.env.fail(err)
		}
		fmt.Fprintf(c.env.Stdout, "%s (%d databases)\n", path, len(meta.Databases))
		return subcommands.ExitSuccess
	}

	if !c.env.Config.Backup.Enabled {
		return c.env.usage("backups are not enabled, set BACKUP_ENABLED or use -local")
	}

	if c.list {
		backups, err := svc.ListBackups(ctx)
		if err != nil {
			return c.env.fail(err)
		}
		if err := writeBackupList(c.env.Stdout, backups); err != nil {
			return c.env.fail(err)
		}
		return subcommands.ExitSuccess
	}

	info, err := svc.CreateAndUploadBackup(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.Stdout, "uploaded %s (%d bytes)\n", info.Key, info.SizeBytes)

	deleted, err := svc.RotateOldBackups(ctx, c.env.Config.Backup.RetentionDays)
	if err != nil {
		return c.env.fail(err)
	}
	if deleted > 0 {
		fmt.Fprintf(c.env.Stdout, "removed %d expired archives\n", deleted)
	}
	return subcommands.ExitSuccess
}

func writeBackupList(w io.Writer, backups []reliability.BackupInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ARCHIVE\tSIZE\tAGE")
	for _, b := range backups {
		fmt.Fprintf(tw, "%s\t%d bytes\t%dh\n", b.Filename, b.SizeBytes, b.AgeHours)
	}
	return tw.Flush()
}
