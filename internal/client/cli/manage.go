package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

func (a *App) move(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mv", flag.ContinueOnError)
	pos, err := parse(fs, args, 2, 2)
	if err != nil {
		return err
	}

	f, err := a.api.MoveFile(ctx, pos[0], pos[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s moved to %s\n", f.ID, f.DirectoryID)
	return nil
}

func (a *App) rename(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rename", flag.ContinueOnError)
	pos, err := parse(fs, args, 2, 2)
	if err != nil {
		return err
	}

	f, err := a.api.RenameFile(ctx, pos[0], pos[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s renamed to %s\n", f.ID, f.Name)
	return nil
}

// remove reports success once the metadata is gone, even when some objects
// are left behind; those keys are listed for manual reconciliation.
func (a *App) remove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	pos, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}

	res, err := a.api.DeleteFile(ctx, pos[0])
	if err != nil {
		return err
	}

	c := res.Cleanup
	fmt.Fprintf(a.out, "%s deleted, objects %d/%d removed\n", res.FileID, c.Deleted, c.Attempted)
	if c.Status != models.CleanupComplete {
		fmt.Fprintf(a.out, "cleanup %s, objects left:\n  %s\n", c.Status, quote(c.PendingKeys))
	}
	return nil
}
