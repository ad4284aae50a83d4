// Package services implements the file and version operations on top of the
// metadata repositories and the object store. The metadata transaction is
// always the durability boundary: signed URLs are requested only after a
// commit and objects are deleted only after a delete has committed.
package services

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/cache"
	"github.com/dmitrijs2005/filevault/internal/server/keygen"
	"github.com/dmitrijs2005/filevault/internal/server/metrics"
	"github.com/dmitrijs2005/filevault/internal/server/objectstore"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/dmitrijs2005/filevault/internal/server/services")

// Deps are the collaborators both services are built from. DB, Repos,
// Objects and Keys are required; the rest fall back to no-ops.
type Deps struct {
	DB       dbx.Database
	Repos    repomanager.RepositoryManager
	Objects  objectstore.Store
	Keys     keygen.Generator
	URLCache cache.URLCache
	Metrics  metrics.Recorder
	Log      logging.Logger
}

func (d Deps) withDefaults(module string) Deps {
	if d.URLCache == nil {
		d.URLCache = cache.Nop{}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Nop{}
	}
	if d.Log == nil {
		d.Log = logging.Nop()
	}
	d.Log = d.Log.With("module", module)
	return d
}

// sign requests a URL from the object store and records the attempt.
func (d Deps) sign(ctx context.Context, mode objectstore.Mode, key string) (objectstore.SignedURL, error) {
	u, err := d.Objects.SignURL(ctx, mode, key)
	d.Metrics.URLIssued(mode.String(), err)
	return u, err
}

// fail marks the span as failed and classifies err: domain errors pass
// through, anything else becomes a transient store failure.
func fail(span trace.Span, err error) error {
	err = common.Transient(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
