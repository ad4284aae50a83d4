package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/filevault/internal/client/api"
	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/filex"
	"github.com/dmitrijs2005/filevault/internal/netx"
	"github.com/dustin/go-humanize"
)

type localFile struct {
	path string
	name string
	mime string
	size int64
}

func stat(path, name, mimeType string) (*localFile, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	if name == "" {
		name = filepath.Base(path)
	}
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(path))
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &localFile{path: path, name: name, mime: mimeType, size: fi.Size()}, nil
}

func (a *App) upload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	dir := fs.String("dir", "", "directory id")
	name := fs.String("name", "", "file name, defaults to the base name of path")
	mimeType := fs.String("mime", "", "mime type, guessed from the extension by default")

	pos, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	if *dir == "" {
		return fmt.Errorf("%w: upload requires -dir", ErrUsage)
	}

	lf, err := stat(pos[0], *name, *mimeType)
	if err != nil {
		return err
	}

	res, err := a.api.CreateFile(ctx, api.CreateFileRequest{
		Name:        lf.name,
		DirectoryID: *dir,
		MimeType:    lf.mime,
		Size:        lf.size,
	})
	if err != nil {
		return a.explain(err)
	}

	v := res.File.Versions[0]
	if err := a.send(ctx, res.UploadURL, lf); err != nil {
		return fmt.Errorf("file %s created but upload failed, retry with: reupload %s %s: %w", res.File.ID, v.ID, lf.path, err)
	}

	fmt.Fprintf(a.out, "file %s version %s key %s (%s)\n", res.File.ID, v.ID, v.Key, humanize.IBytes(uint64(lf.size)))
	return nil
}

func (a *App) push(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("push", flag.ContinueOnError)
	name := fs.String("name", "", "version name, defaults to the base name of path")
	mimeType := fs.String("mime", "", "mime type, guessed from the extension by default")

	pos, err := parse(fs, args, 2, 2)
	if err != nil {
		return err
	}

	lf, err := stat(pos[1], *name, *mimeType)
	if err != nil {
		return err
	}

	res, err := a.api.CreateFileVersion(ctx, pos[0], api.CreateVersionRequest{
		Name:     lf.name,
		MimeType: lf.mime,
		Size:     lf.size,
	})
	if err != nil {
		return a.explain(err)
	}

	if err := a.send(ctx, res.UploadURL, lf); err != nil {
		return fmt.Errorf("version %s created but upload failed, retry with: reupload %s %s: %w", res.Version.ID, res.Version.ID, lf.path, err)
	}

	fmt.Fprintf(a.out, "version %s key %s (%s)\n", res.Version.ID, res.Version.Key, humanize.IBytes(uint64(lf.size)))
	return nil
}

// reupload asks for a fresh upload URL for an existing version.
func (a *App) reupload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reupload", flag.ContinueOnError)
	pos, err := parse(fs, args, 2, 2)
	if err != nil {
		return err
	}

	res, err := a.api.RequestFileUpload(ctx, pos[0])
	if err != nil {
		return err
	}

	lf, err := stat(pos[1], res.Version.Name, res.Version.MimeType)
	if err != nil {
		return err
	}
	if err := a.send(ctx, res.UploadURL, lf); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "version %s key %s (%s)\n", res.Version.ID, res.Version.Key, humanize.IBytes(uint64(lf.size)))
	return nil
}

func (a *App) download(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	pos, err := parse(fs, args, 2, 2)
	if err != nil {
		return err
	}
	key, out := pos[0], pos[1]

	u, err := a.api.RequestFileDownload(ctx, key)
	if err != nil {
		return err
	}

	if out == "-" {
		_, err := netx.Download(ctx, a.http, u.URL, a.out)
		return err
	}

	dir, err := filex.EnsureParentDir(out)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".filevault-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	n, err := netx.Download(ctx, a.http, u.URL, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s -> %s (%s)\n", key, out, humanize.IBytes(uint64(n)))
	return nil
}

func (a *App) send(ctx context.Context, u api.SignedURL, lf *localFile) error {
	f, err := os.Open(lf.path)
	if err != nil {
		return err
	}
	defer f.Close()

	return netx.Upload(ctx, a.http, u.Method, u.URL, f, lf.size, lf.mime)
}

// explain adds the recovery hint to an upload capability failure.
func (a *App) explain(err error) error {
	var apiErr *api.Error
	if errors.Is(err, common.ErrUploadCapability) && errors.As(err, &apiErr) && apiErr.Version != nil {
		return fmt.Errorf("%w; metadata was saved, retry with: reupload %s <path>", err, apiErr.Version.ID)
	}
	return err
}
