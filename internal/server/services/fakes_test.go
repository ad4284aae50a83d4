package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/objectstore"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/files"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/fileversions"
)

// memStore is a transactional in-memory metadata store. A transaction holds
// mu for its whole duration, which stands in for row locks, and restores a
// snapshot when it fails.
type memStore struct {
	mu       sync.Mutex
	files    map[string]models.File
	versions map[string]models.FileVersion
	seq      int
	clock    time.Time

	// failOn makes the named repository method return the error.
	failOn map[string]error
	calls  map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		files:    map[string]models.File{},
		versions: map[string]models.FileVersion{},
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		failOn:   map[string]error{},
		calls:    map[string]int{},
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%03d", prefix, s.seq)
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) hit(op string) error {
	s.calls[op]++
	return s.failOn[op]
}

func (s *memStore) snapshot() (map[string]models.File, map[string]models.FileVersion) {
	f := make(map[string]models.File, len(s.files))
	for k, v := range s.files {
		f[k] = v
	}
	v := make(map[string]models.FileVersion, len(s.versions))
	for k, x := range s.versions {
		v[k] = x
	}
	return f, v
}

func (s *memStore) versionsOf(fileID string) []models.FileVersion {
	out := []models.FileVersion{}
	for _, v := range s.versions {
		if v.FileID == fileID {
			out = append(out, v)
		}
	}
	sortVersions(out)
	return out
}

func sortVersions(vs []models.FileVersion) {
	sort.Slice(vs, func(i, j int) bool {
		if !vs[i].CreatedAt.Equal(vs[j].CreatedAt) {
			return vs[i].CreatedAt.Before(vs[j].CreatedAt)
		}
		return vs[i].ID < vs[j].ID
	})
}

// fakeDB implements dbx.Database. Only RunInTx is used by the services; the
// embedded DBTX is nil.
type fakeDB struct {
	dbx.DBTX
	store *memStore
	begun int
}

type fakeTx struct{ dbx.DBTX }

func (d *fakeDB) RunInTx(ctx context.Context, fn dbx.TxFunc) error {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()

	d.begun++
	files, versions := d.store.snapshot()
	if err := fn(ctx, fakeTx{}); err != nil {
		d.store.files, d.store.versions = files, versions
		return err
	}
	return nil
}

type fakeRepoManager struct {
	store *memStore
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Files(db dbx.DBTX) files.Repository {
	_, inTx := db.(fakeTx)
	return &memFiles{s: m.store, inTx: inTx}
}

func (m *fakeRepoManager) FileVersions(db dbx.DBTX) fileversions.Repository {
	_, inTx := db.(fakeTx)
	return &memVersions{s: m.store, inTx: inTx}
}

type memFiles struct {
	s    *memStore
	inTx bool
}

func (r *memFiles) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *memFiles) Create(_ context.Context, f *models.File) error {
	defer r.lock()()
	if err := r.s.hit("files.Create"); err != nil {
		return err
	}
	now := r.s.tick()
	f.ID, f.CreatedAt, f.UpdatedAt = r.s.nextID("file"), now, now
	r.s.files[f.ID] = *f
	return nil
}

func (r *memFiles) GetByID(_ context.Context, id string) (*models.File, error) {
	defer r.lock()()
	if err := r.s.hit("files.GetByID"); err != nil {
		return nil, err
	}
	f, ok := r.s.files[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &f, nil
}

func (r *memFiles) Lock(_ context.Context, id string) error {
	defer r.lock()()
	if err := r.s.hit("files.Lock"); err != nil {
		return err
	}
	if _, ok := r.s.files[id]; !ok {
		return common.ErrNotFound
	}
	return nil
}

func (r *memFiles) update(id string, fn func(*models.File)) (*models.File, error) {
	f, ok := r.s.files[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	fn(&f)
	f.UpdatedAt = r.s.tick()
	r.s.files[id] = f
	return &f, nil
}

func (r *memFiles) UpdateDirectory(_ context.Context, id, dir string) (*models.File, error) {
	defer r.lock()()
	if err := r.s.hit("files.UpdateDirectory"); err != nil {
		return nil, err
	}
	return r.update(id, func(f *models.File) { f.DirectoryID = dir })
}

func (r *memFiles) UpdateName(_ context.Context, id, name string) (*models.File, error) {
	defer r.lock()()
	if err := r.s.hit("files.UpdateName"); err != nil {
		return nil, err
	}
	return r.update(id, func(f *models.File) { f.Name = name })
}

func (r *memFiles) Delete(_ context.Context, id string) error {
	defer r.lock()()
	if err := r.s.hit("files.Delete"); err != nil {
		return err
	}
	if _, ok := r.s.files[id]; !ok {
		return common.ErrNotFound
	}
	if len(r.s.versionsOf(id)) > 0 {
		return common.ErrReferentialViolation
	}
	delete(r.s.files, id)
	return nil
}

func (r *memFiles) Find(_ context.Context, query string) ([]*models.File, error) {
	defer r.lock()()
	if err := r.s.hit("files.Find"); err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []*models.File
	for _, f := range r.s.files {
		if strings.Contains(strings.ToLower(f.Name), q) {
			f := f
			out = append(out, &f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type memVersions struct {
	s    *memStore
	inTx bool
}

func (r *memVersions) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *memVersions) Create(_ context.Context, v *models.FileVersion) error {
	defer r.lock()()
	if err := r.s.hit("versions.Create"); err != nil {
		return err
	}
	if _, ok := r.s.files[v.FileID]; !ok {
		return common.ErrReferentialViolation
	}
	for _, other := range r.s.versions {
		if other.Key == v.Key {
			return common.ErrAlreadyExists
		}
	}
	now := r.s.tick()
	v.ID, v.CreatedAt, v.UpdatedAt = r.s.nextID("ver"), now, now
	r.s.versions[v.ID] = *v
	return nil
}

func (r *memVersions) GetByID(_ context.Context, id string) (*models.FileVersion, error) {
	defer r.lock()()
	if err := r.s.hit("versions.GetByID"); err != nil {
		return nil, err
	}
	v, ok := r.s.versions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &v, nil
}

func (r *memVersions) ListByFile(_ context.Context, fileID string) ([]models.FileVersion, error) {
	defer r.lock()()
	if err := r.s.hit("versions.ListByFile"); err != nil {
		return nil, err
	}
	return r.s.versionsOf(fileID), nil
}

func (r *memVersions) ListByFileIDs(_ context.Context, ids []string) (map[string][]models.FileVersion, error) {
	defer r.lock()()
	if err := r.s.hit("versions.ListByFileIDs"); err != nil {
		return nil, err
	}
	out := map[string][]models.FileVersion{}
	for _, id := range ids {
		if vs := r.s.versionsOf(id); len(vs) > 0 {
			out[id] = vs
		}
	}
	return out, nil
}

func (r *memVersions) ListKeysByFile(_ context.Context, fileID string) ([]string, error) {
	defer r.lock()()
	if err := r.s.hit("versions.ListKeysByFile"); err != nil {
		return nil, err
	}
	keys := []string{}
	for _, v := range r.s.versionsOf(fileID) {
		keys = append(keys, v.Key)
	}
	return keys, nil
}

func (r *memVersions) Page(_ context.Context, fileID string, after *models.Cursor, limit int) ([]models.FileVersion, error) {
	defer r.lock()()
	if err := r.s.hit("versions.Page"); err != nil {
		return nil, err
	}
	var all []models.FileVersion
	for _, v := range r.s.versions {
		if fileID == "" || v.FileID == fileID {
			all = append(all, v)
		}
	}
	sortVersions(all)

	out := []models.FileVersion{}
	for _, v := range all {
		if after != nil {
			if v.CreatedAt.Before(after.CreatedAt) || (v.CreatedAt.Equal(after.CreatedAt) && v.ID <= after.ID) {
				continue
			}
		}
		if len(out) == limit {
			break
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *memVersions) DeleteByFile(_ context.Context, fileID string) (int64, error) {
	defer r.lock()()
	if err := r.s.hit("versions.DeleteByFile"); err != nil {
		return 0, err
	}
	var n int64
	for id, v := range r.s.versions {
		if v.FileID == fileID {
			delete(r.s.versions, id)
			n++
		}
	}
	return n, nil
}

func (r *memVersions) ExistsByKey(_ context.Context, key string) (bool, error) {
	defer r.lock()()
	if err := r.s.hit("versions.ExistsByKey"); err != nil {
		return false, err
	}
	for _, v := range r.s.versions {
		if v.Key == key {
			return true, nil
		}
	}
	return false, nil
}

// fakeObjects records every call and fails the keys in failDelete.
type fakeObjects struct {
	mu         sync.Mutex
	signed     []signCall
	deleted    []string
	signErr    error
	failDelete map[string]error
}

type signCall struct {
	mode objectstore.Mode
	key  string
}

func (o *fakeObjects) SignURL(_ context.Context, mode objectstore.Mode, key string) (objectstore.SignedURL, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.signed = append(o.signed, signCall{mode, key})
	if o.signErr != nil {
		return objectstore.SignedURL{}, o.signErr
	}
	if err := mode.Validate(); err != nil {
		return objectstore.SignedURL{}, err
	}
	return objectstore.SignedURL{
		URL:       "https://bucket.test/" + key + "?sig=" + mode.String(),
		Method:    mode.Method(),
		ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (o *fakeObjects) DeleteObject(ctx context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deleted = append(o.deleted, key)
	if err := ctx.Err(); err != nil {
		return err
	}
	return o.failDelete[key]
}

func (o *fakeObjects) deleteCalls() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.deleted...)
}

type seqKeys struct{ n int }

func (g *seqKeys) Generate() string {
	g.n++
	return fmt.Sprintf("files/2024/01/01/key-%d", g.n)
}

// fakeCache is a map-backed URLCache.
type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]objectstore.SignedURL
	invalidated []string
	err         error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]objectstore.SignedURL{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (objectstore.SignedURL, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return objectstore.SignedURL{}, false, c.err
	}
	u, ok := c.entries[key]
	return u, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, u objectstore.SignedURL) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.entries[key] = u
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, keys...)
	for _, k := range keys {
		delete(c.entries, k)
	}
	return c.err
}

// fixture wires both services to the fakes.
type fixture struct {
	store    *memStore
	db       *fakeDB
	objects  *fakeObjects
	cache    *fakeCache
	files    *FileService
	versions *FileVersionService
}

func newFixture(policy DownloadPolicy) *fixture {
	store := newMemStore()
	f := &fixture{
		store:   store,
		db:      &fakeDB{store: store},
		objects: &fakeObjects{failDelete: map[string]error{}},
		cache:   newFakeCache(),
	}
	deps := Deps{
		DB:       f.db,
		Repos:    &fakeRepoManager{store: store},
		Objects:  f.objects,
		Keys:     &seqKeys{},
		URLCache: f.cache,
	}
	f.files = NewFileService(deps)
	f.versions = NewFileVersionService(deps, policy, PageLimits{Default: 3, Max: 4})
	return f
}
