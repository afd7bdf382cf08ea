package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/pullup/internal/snapshot"
)

// snapshotManager opens the same snapshot area Commit writes to: the
// common root of the configured source trees.
func snapshotManager(c *cli.Context) (*snapshot.Manager, error) {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return nil, err
	}
	root := snapshot.CommonRoot(cfg.SourceRoots())
	return snapshot.New(root, cfg.Output.SnapshotDir, cfg.Output.KeepSnapshots), nil
}

func snapshotListCommand(c *cli.Context) error {
	mgr, err := snapshotManager(c)
	if err != nil {
		return err
	}
	infos, err := mgr.List()
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(infos)
	}
	if len(infos) == 0 {
		fmt.Printf("no snapshots under %s\n", mgr.Dir())
		return nil
	}
	fmt.Printf("%d snapshots under %s\n", len(infos), mgr.Dir())
	for _, info := range infos {
		fmt.Printf("  %s  %s  %d files\n",
			info.Stamp, info.Created.Local().Format("2006-01-02 15:04:05"), info.Files)
	}
	return nil
}

func snapshotRestoreCommand(c *cli.Context) error {
	mgr, err := snapshotManager(c)
	if err != nil {
		return err
	}
	restored, err := mgr.Restore(c.Args().First())
	if err != nil {
		return cli.Exit("✗ "+err.Error(), 1)
	}
	fmt.Printf("✓ Restored %d files\n", len(restored))
	for _, path := range restored {
		fmt.Println("  " + path)
	}
	return nil
}
