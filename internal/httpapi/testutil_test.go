package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"pricelink.org/internal/auth"
	"pricelink.org/internal/catalog"
	"pricelink.org/internal/config"
	"pricelink.org/internal/link"
	"pricelink.org/internal/mail"
	"pricelink.org/internal/storage"
)

// memStore is an in-memory catalog.Store for handler tests.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	dealers map[int64]*catalog.Dealer
	admins  map[int64]*catalog.Admin
	vendors map[int64]*catalog.Vendor
	aliases []catalog.DealerVendor
	files   map[int64]*catalog.PriceFile
}

func newMemStore() *memStore {
	return &memStore{
		dealers: map[int64]*catalog.Dealer{},
		admins:  map[int64]*catalog.Admin{},
		vendors: map[int64]*catalog.Vendor{},
		files:   map[int64]*catalog.PriceFile{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) Dealers() catalog.DealerStore { return (*memDealers)(m) }
func (m *memStore) Admins() catalog.AdminStore   { return (*memAdmins)(m) }
func (m *memStore) Vendors() catalog.VendorStore { return (*memVendors)(m) }
func (m *memStore) Files() catalog.FileStore     { return (*memFiles)(m) }

type memDealers memStore

func (m *memDealers) Create(ctx context.Context, d *catalog.Dealer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.dealers {
		if other.Email == d.Email || other.CustomerNumber == d.CustomerNumber {
			return catalog.ErrConflict
		}
	}
	d.ID = (*memStore)(m).id()
	d.CreatedAt = time.Now()
	m.dealers[d.ID] = d
	return nil
}

func (m *memDealers) Find(ctx context.Context, id int64) (*catalog.Dealer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.dealers[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, catalog.ErrNotFound
}

func (m *memDealers) FindByEmail(ctx context.Context, email string) (*catalog.Dealer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.dealers {
		if d.Email == email {
			copied := *d
			return &copied, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (m *memDealers) FindByCustomerNumber(ctx context.Context, customerNumber string) (*catalog.Dealer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.dealers {
		if d.CustomerNumber == customerNumber {
			copied := *d
			return &copied, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (m *memDealers) List(ctx context.Context) ([]*catalog.Dealer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*catalog.Dealer
	for _, d := range m.dealers {
		copied := *d
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memDealers) Update(ctx context.Context, d *catalog.Dealer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.dealers[d.ID]; !ok {
		return catalog.ErrNotFound
	}
	copied := *d
	copied.UpdatedAt = sql.NullTime{Time: time.Now(), Valid: true}
	m.dealers[d.ID] = &copied
	return nil
}

func (m *memDealers) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.dealers[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(m.dealers, id)
	return nil
}

func (m *memDealers) AssignVendor(ctx context.Context, dv *catalog.DealerVendor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dv.ID = (*memStore)(m).id()
	m.aliases = append(m.aliases, *dv)
	return nil
}

func (m *memDealers) RemoveVendor(ctx context.Context, dealerID, vendorID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, dv := range m.aliases {
		if dv.DealerID == dealerID && dv.VendorID == vendorID {
			m.aliases = append(m.aliases[:i], m.aliases[i+1:]...)
			return nil
		}
	}
	return catalog.ErrNotFound
}

func (m *memDealers) VendorAssignments(ctx context.Context, dealerID int64) ([]catalog.DealerVendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []catalog.DealerVendor
	for _, dv := range m.aliases {
		if dv.DealerID == dealerID {
			out = append(out, dv)
		}
	}
	return out, nil
}

type memAdmins memStore

func (m *memAdmins) Create(ctx context.Context, a *catalog.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = (*memStore)(m).id()
	a.CreatedAt = time.Now()
	m.admins[a.ID] = a
	return nil
}

func (m *memAdmins) Find(ctx context.Context, id int64) (*catalog.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.admins[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, catalog.ErrNotFound
}

func (m *memAdmins) FindByEmail(ctx context.Context, email string) (*catalog.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if a.Email == email {
			copied := *a
			return &copied, nil
		}
	}
	return nil, catalog.ErrNotFound
}

type memVendors memStore

func (m *memVendors) Create(ctx context.Context, v *catalog.Vendor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.vendors {
		if other.Code == v.Code {
			return catalog.ErrConflict
		}
	}
	v.ID = (*memStore)(m).id()
	v.CreatedAt = time.Now()
	m.vendors[v.ID] = v
	return nil
}

func (m *memVendors) Find(ctx context.Context, id int64) (*catalog.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.vendors[id]; ok {
		copied := *v
		return &copied, nil
	}
	return nil, catalog.ErrNotFound
}

func (m *memVendors) FindByCode(ctx context.Context, code string) (*catalog.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vendors {
		if v.Code == code {
			copied := *v
			return &copied, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (m *memVendors) FindByAlias(ctx context.Context, dealerID int64, folderName string) (*catalog.Vendor, error) {
	m.mu.Lock()
	var vendorID int64
	for _, dv := range m.aliases {
		if dv.DealerID == dealerID && dv.FolderName.Valid && dv.FolderName.String == folderName {
			vendorID = dv.VendorID
			break
		}
	}
	m.mu.Unlock()
	if vendorID == 0 {
		return nil, catalog.ErrNotFound
	}
	return m.Find(context.Background(), vendorID)
}

func (m *memVendors) List(ctx context.Context) ([]*catalog.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*catalog.Vendor
	for _, v := range m.vendors {
		copied := *v
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *memVendors) Update(ctx context.Context, v *catalog.Vendor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vendors[v.ID]; !ok {
		return catalog.ErrNotFound
	}
	copied := *v
	m.vendors[v.ID] = &copied
	return nil
}

func (m *memVendors) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vendors[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(m.vendors, id)
	return nil
}

type memFiles memStore

func (m *memFiles) Create(ctx context.Context, f *catalog.PriceFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.ID = (*memStore)(m).id()
	if f.UploadedAt.IsZero() {
		f.UploadedAt = time.Now()
	}
	m.files[f.ID] = f
	return nil
}

func (m *memFiles) Find(ctx context.Context, id int64) (*catalog.PriceFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.files[id]; ok {
		copied := *f
		return &copied, nil
	}
	return nil, catalog.ErrNotFound
}

func (m *memFiles) List(ctx context.Context) ([]*catalog.PriceFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*catalog.PriceFile
	for _, f := range m.files {
		copied := *f
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memFiles) ListForDealer(ctx context.Context, dealerID int64) ([]*catalog.PriceFile, error) {
	all, _ := m.List(ctx)
	var out []*catalog.PriceFile
	for _, f := range all {
		if !f.DealerID.Valid || f.DealerID.Int64 == dealerID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memFiles) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(m.files, id)
	return nil
}

func (m *memFiles) latest(match func(*catalog.PriceFile) bool) (*catalog.PriceFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *catalog.PriceFile
	for _, f := range m.files {
		if !match(f) {
			continue
		}
		if best == nil || f.UploadedAt.After(best.UploadedAt) ||
			(f.UploadedAt.Equal(best.UploadedAt) && f.ID > best.ID) {
			best = f
		}
	}
	if best == nil {
		return nil, catalog.ErrNotFound
	}
	copied := *best
	return &copied, nil
}

func (m *memFiles) LatestForVendorAndDealer(ctx context.Context, vendorID, dealerID int64) (*catalog.PriceFile, error) {
	return m.latest(func(f *catalog.PriceFile) bool {
		return f.VendorID == vendorID && f.DealerID.Valid && f.DealerID.Int64 == dealerID
	})
}

func (m *memFiles) LatestSharedForVendor(ctx context.Context, vendorID int64) (*catalog.PriceFile, error) {
	return m.latest(func(f *catalog.PriceFile) bool {
		return f.VendorID == vendorID && !f.DealerID.Valid
	})
}

func (m *memFiles) LatestForVendor(ctx context.Context, vendorID int64) (*catalog.PriceFile, error) {
	return m.latest(func(f *catalog.PriceFile) bool { return f.VendorID == vendorID })
}

// memLinks is an in-memory link.Store.
type memLinks struct {
	mu     sync.Mutex
	nextID int64
	byTok  map[string]*link.DownloadLink
}

func newMemLinks() *memLinks { return &memLinks{byTok: map[string]*link.DownloadLink{}} }

func (m *memLinks) Create(ctx context.Context, l *link.DownloadLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	l.ID = m.nextID
	l.CreatedAt = time.Now()
	m.byTok[l.Token] = l
	return nil
}

func (m *memLinks) FindByToken(ctx context.Context, token string) (*link.DownloadLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.byTok[token]; ok {
		copied := *l
		return &copied, nil
	}
	return nil, link.ErrLinkNotFound
}

func (m *memLinks) ListForDealer(ctx context.Context, dealerID int64) ([]*link.DownloadLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*link.DownloadLink
	for _, l := range m.byTok {
		if l.DealerID == dealerID {
			copied := *l
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memLinks) ListAll(ctx context.Context) ([]*link.DownloadLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*link.DownloadLink
	for _, l := range m.byTok {
		copied := *l
		out = append(out, &copied)
	}
	return out, nil
}

func (m *memLinks) MarkDownloaded(ctx context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.byTok {
		if l.ID == id && !l.DownloadedAt.Valid {
			l.DownloadedAt = sql.NullTime{Time: at, Valid: true}
		}
	}
	return nil
}

func (m *memLinks) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for tok, l := range m.byTok {
		if l.ExpiresAt.Before(before) {
			delete(m.byTok, tok)
			n++
		}
	}
	return n, nil
}

// memBlobs maps relative paths to payloads.
type memBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemBlobs() *memBlobs { return &memBlobs{blobs: map[string][]byte{}} }

func (m *memBlobs) Save(vendorCode string, dealerID int64, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	rel := vendorCode + "/" + filename
	if dealerID != 0 {
		rel = fmt.Sprintf("%s/%d/%s", vendorCode, dealerID, filename)
	}
	m.mu.Lock()
	m.blobs[rel] = data
	m.mu.Unlock()
	return rel, nil
}

func (m *memBlobs) Open(relPath string) (io.ReadCloser, int64, error) {
	m.mu.Lock()
	data, ok := m.blobs[relPath]
	m.mu.Unlock()
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", storage.ErrNotFound, relPath)
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (m *memBlobs) Delete(relPath string) error {
	m.mu.Lock()
	delete(m.blobs, relPath)
	m.mu.Unlock()
	return nil
}

// recordingMailer captures sends instead of delivering.
type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	fail bool
}

func (m *recordingMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("mailer down")
	}
	m.sent = append(m.sent, msg)
	return nil
}

// testEnv bundles a fully wired API over in-memory backends.
type testEnv struct {
	api      *API
	store    *memStore
	links    *memLinks
	blobs    *memBlobs
	mailer   *recordingMailer
	sessions *auth.Sessions
}

const testJWTSecret = "test-secret-test-secret-test-secret"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Config{
		PublicBaseURL:  "http://portal.test",
		JWTSecret:      testJWTSecret,
		MaxUploadBytes: 8 << 20,
		CORSOrigins:    []string{"http://app.test"},
		PartnerAPIKey:  "partner-key",
	}

	store := newMemStore()
	codec, err := auth.NewCodec(cfg.JWTSecret)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	sessions := auth.NewSessions(codec, catalog.NewDirectory(store))

	blobs := newMemBlobs()
	links := newMemLinks()
	mailer := &recordingMailer{}

	api := New(cfg, sessions,
		catalog.NewService(store, blobs),
		link.NewService(links, store),
		blobs, mailer)
	api.SetReady(true)
	return &testEnv{
		api:      api,
		store:    store,
		links:    links,
		blobs:    blobs,
		mailer:   mailer,
		sessions: sessions,
	}
}

// seedAdmin creates an admin account and returns a valid access token.
func (e *testEnv) seedAdmin(t *testing.T, email, password string) string {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin := &catalog.Admin{Email: email, PasswordHash: hash}
	if err := e.store.Admins().Create(context.Background(), admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	pair, _, err := e.sessions.Login(context.Background(), email, password)
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	return pair.AccessToken
}

// seedDealer creates an active dealer and returns the record plus a valid
// access token.
func (e *testEnv) seedDealer(t *testing.T, email, password, customerNumber string) (*catalog.Dealer, string) {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	dealer := &catalog.Dealer{
		Name:           "Dealer " + customerNumber,
		Email:          email,
		PasswordHash:   hash,
		CustomerNumber: customerNumber,
		Active:         true,
	}
	if err := e.store.Dealers().Create(context.Background(), dealer); err != nil {
		t.Fatalf("create dealer: %v", err)
	}
	pair, _, err := e.sessions.Login(context.Background(), email, password)
	if err != nil {
		t.Fatalf("dealer login: %v", err)
	}
	return dealer, pair.AccessToken
}

func (e *testEnv) seedVendor(t *testing.T, code string) *catalog.Vendor {
	t.Helper()
	v := &catalog.Vendor{Code: code, Name: code + " Corp"}
	if err := e.store.Vendors().Create(context.Background(), v); err != nil {
		t.Fatalf("create vendor: %v", err)
	}
	return v
}

func (e *testEnv) seedFile(t *testing.T, vendorID, dealerID int64, filename, content string) *catalog.PriceFile {
	t.Helper()
	rel, err := e.blobs.Save("V", dealerID, filename, strings.NewReader(content))
	if err != nil {
		t.Fatalf("save blob: %v", err)
	}
	f := &catalog.PriceFile{VendorID: vendorID, Filename: filename, FilePath: rel}
	if dealerID != 0 {
		f.DealerID = sql.NullInt64{Int64: dealerID, Valid: true}
	}
	if err := e.store.Files().Create(context.Background(), f); err != nil {
		t.Fatalf("create file: %v", err)
	}
	return f
}
