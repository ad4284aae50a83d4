package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/filevault/internal/client/api"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
)

func (a *App) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	pos, err := parse(fs, args, 0, 1)
	if err != nil {
		return err
	}

	var q string
	if len(pos) == 1 {
		q = pos[0]
	}

	files, err := a.api.FindFiles(ctx, q)
	if err != nil {
		return err
	}

	table := newTable("ID", "NAME", "DIRECTORY", "VERSIONS", "SIZE", "UPDATED")
	for _, f := range files {
		size := "-"
		if n := len(f.Versions); n > 0 {
			size = humanize.IBytes(uint64(f.Versions[n-1].Size))
		}
		table.AddRow(f.ID, f.Name, f.DirectoryID, len(f.Versions), size, ago(f.UpdatedAt))
	}
	fmt.Fprintln(a.out, table)
	return nil
}

func (a *App) info(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	pos, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}

	f, err := a.api.GetFile(ctx, pos[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "id:        %s\nname:      %s\ndirectory: %s\ncreated:   %s\nupdated:   %s\n",
		f.ID, f.Name, f.DirectoryID, f.CreatedAt.Format(time.RFC3339), f.UpdatedAt.Format(time.RFC3339))
	fmt.Fprintln(a.out, versionTable(f.Versions))
	return nil
}

// versions lists one file's versions, or every version when no file id is
// given. One page per call; the next cursor is printed when there is more.
func (a *App) versions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("versions", flag.ContinueOnError)
	limit := fs.Int("limit", 0, "page size, server default when 0")
	cursor := fs.String("cursor", "", "cursor printed by the previous page")

	pos, err := parse(fs, args, 0, 1)
	if err != nil {
		return err
	}

	opts := api.ListOptions{Cursor: *cursor, Limit: *limit}

	var page *models.Page
	if len(pos) == 1 {
		page, err = a.api.GetFileVersions(ctx, pos[0], opts)
	} else {
		page, err = a.api.ListAllFileVersions(ctx, opts)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, versionTable(page.Items))
	if page.NextCursor != "" {
		fmt.Fprintf(a.out, "next: -cursor %s\n", page.NextCursor)
	}
	return nil
}

func versionTable(vs []models.FileVersion) *uitable.Table {
	table := newTable("VERSION", "FILE", "NAME", "TYPE", "SIZE", "KEY", "CREATED")
	for _, v := range vs {
		table.AddRow(v.ID, v.FileID, v.Name, v.MimeType, humanize.IBytes(uint64(v.Size)), v.Key, ago(v.CreatedAt))
	}
	return table
}

func newTable(header ...any) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow(header...)
	return table
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func quote(keys []string) string {
	return strings.Join(keys, "\n  ")
}
