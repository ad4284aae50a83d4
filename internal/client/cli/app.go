package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/filevault/internal/client/api"
	"github.com/dmitrijs2005/filevault/internal/client/config"
	"github.com/dmitrijs2005/filevault/internal/flagx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// API is the part of *api.Client the commands use.
type API interface {
	CreateFile(ctx context.Context, in api.CreateFileRequest) (*api.FileUpload, error)
	FindFiles(ctx context.Context, q string) ([]models.File, error)
	GetFile(ctx context.Context, id string) (*models.File, error)
	MoveFile(ctx context.Context, id, directoryID string) (*models.File, error)
	RenameFile(ctx context.Context, id, name string) (*models.File, error)
	DeleteFile(ctx context.Context, id string) (*api.DeleteResult, error)
	CreateFileVersion(ctx context.Context, fileID string, in api.CreateVersionRequest) (*api.VersionUpload, error)
	GetFileVersions(ctx context.Context, fileID string, opts api.ListOptions) (*models.Page, error)
	ListAllFileVersions(ctx context.Context, opts api.ListOptions) (*models.Page, error)
	GetFileVersion(ctx context.Context, id string) (*models.FileVersion, error)
	RequestFileUpload(ctx context.Context, versionID string) (*api.VersionUpload, error)
	RequestFileDownload(ctx context.Context, key string) (*api.SignedURL, error)
}

// ErrUsage is returned for unknown commands and malformed arguments.
var ErrUsage = errors.New("usage error")

type App struct {
	api  API
	http *http.Client
	out  io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	hc := &http.Client{Timeout: c.Timeout}

	client, err := api.New(c.ServerURL, hc)
	if err != nil {
		return nil, err
	}

	return &App{api: client, http: hc, out: os.Stdout}, nil
}

const usage = `usage: filevault [-s url] [-t timeout] [-c file] <command> [args]

commands:
  upload <path> -dir <directory> [-name name] [-mime type]
  push <fileID> <path> [-name name] [-mime type]
  reupload <versionID> <path>
  download <key> <out|->
  ls [query]
  info <fileID>
  versions [fileID] [-limit n] [-cursor c]
  mv <fileID> <directory>
  rename <fileID> <name>
  rm <fileID>
`

// Run executes the command found in args (os.Args[1:] with or without the
// global flags).
func (a *App) Run(ctx context.Context, args []string) error {
	args = flagx.StripArgs(args, config.GlobalFlags)
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	case "upload":
		return a.upload(ctx, rest)
	case "push":
		return a.push(ctx, rest)
	case "reupload":
		return a.reupload(ctx, rest)
	case "download":
		return a.download(ctx, rest)
	case "ls":
		return a.list(ctx, rest)
	case "info":
		return a.info(ctx, rest)
	case "versions":
		return a.versions(ctx, rest)
	case "mv":
		return a.move(ctx, rest)
	case "rename":
		return a.rename(ctx, rest)
	case "rm":
		return a.remove(ctx, rest)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}
