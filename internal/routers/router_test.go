package routers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/haierkeys/bento-note-sync/internal/app"
	"github.com/haierkeys/bento-note-sync/internal/dao"
	"github.com/haierkeys/bento-note-sync/internal/domain"
	pkgapp "github.com/haierkeys/bento-note-sync/pkg/app"
	"github.com/haierkeys/bento-note-sync/pkg/code"
	"github.com/haierkeys/bento-note-sync/pkg/webdav"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeDAV keeps PUT bodies in memory.
type fakeDAV struct {
	mu    sync.Mutex
	files map[string]string
}

func newFakeDAV(t *testing.T) (*fakeDAV, *httptest.Server) {
	d := &fakeDAV{files: map[string]string{}}
	srv := httptest.NewServer(d)
	t.Cleanup(srv.Close)
	return d, srv
}

func (d *fakeDAV) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()
	name := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/dav"), "/")
	switch r.Method {
	case webdav.MethodPropfind:
		if name == "" {
			w.WriteHeader(http.StatusMultiStatus)
			return
		}
		if _, ok := d.files[name]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusMultiStatus)
		fmt.Fprintf(w, `<d:multistatus xmlns:d="DAV:"><d:response><d:propstat><d:prop><d:getlastmodified>%s</d:getlastmodified></d:prop></d:propstat></d:response></d:multistatus>`,
			time.Unix(0, 0).UTC().Format(http.TimeFormat))
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		d.files[name] = string(body)
		w.WriteHeader(http.StatusCreated)
	case http.MethodGet:
		body, ok := d.files[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (d *fakeDAV) has(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.files[name]
	return ok
}

func newTestApp(t *testing.T, content string) *app.App {
	t.Helper()
	cfg, err := app.ParseConfig([]byte(content))
	require.NoError(t, err)
	cfg.Database.Path = filepath.Join(t.TempDir(), "api.db")

	db, err := dao.NewDBEngine(cfg.Database)
	require.NoError(t, err)
	a, err := app.NewApp(cfg, zap.NewNop(), db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func call(r http.Handler, method, path, body string) (*httptest.ResponseRecorder, pkgapp.Res) {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var res pkgapp.Res
	_ = sonic.Unmarshal(w.Body.Bytes(), &res)
	return w, res
}

func dataMap(t *testing.T, res pkgapp.Res) map[string]interface{} {
	t.Helper()
	m, ok := res.Data.(map[string]interface{})
	require.True(t, ok, "data is an object: %#v", res.Data)
	return m
}

func TestRouter_Health(t *testing.T) {
	r := NewRouter(newTestApp(t, ""))
	_, res := call(r, http.MethodGet, "/api/health", "")
	assert.True(t, res.Status)
	assert.Equal(t, "healthy", dataMap(t, res)["status"])
}

func TestRouter_SettingsRoundTrip(t *testing.T) {
	a := newTestApp(t, "")
	r := NewRouter(a)

	_, res := call(r, http.MethodGet, "/api/backup/settings", "")
	require.True(t, res.Status)
	assert.Equal(t, "off", dataMap(t, res)["interval"])
	assert.Equal(t, "idle", dataMap(t, res)["state"])

	body := `{"interval":"1h","location":"webdav","webdav":{"url":"https://dav.example.com/notes/","username":"u","password":"secret"}}`
	_, res = call(r, http.MethodPost, "/api/backup/settings", body)
	require.True(t, res.Status, "%v", res.Message)
	assert.Equal(t, code.SuccessSettingsSaved.Code(), res.Code)
	assert.Equal(t, "armed", dataMap(t, res)["state"])
	webdavOut := dataMap(t, res)["webdav"].(map[string]interface{})
	assert.Equal(t, "******", webdavOut["password"], "password is never echoed")

	// the redacted placeholder keeps the stored password
	body = `{"interval":"6h","location":"webdav","webdav":{"url":"https://dav.example.com/notes/","username":"u","password":"******"}}`
	_, res = call(r, http.MethodPost, "/api/backup/settings", body)
	require.True(t, res.Status)
	stored, err := a.SettingService.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "secret", stored.Remote.Password)
	assert.Equal(t, domain.Interval6h, stored.Interval)
}

func TestRouter_SettingsRejectsInvalid(t *testing.T) {
	r := NewRouter(newTestApp(t, ""))
	_, res := call(r, http.MethodPost, "/api/backup/settings", `{"interval":"2h","location":"webdav"}`)
	assert.False(t, res.Status)
	assert.Equal(t, code.ErrorInvalidParams.Code(), res.Code)
}

func TestRouter_UploadRestore(t *testing.T) {
	dav, srv := newFakeDAV(t)
	a := newTestApp(t, "")
	r := NewRouter(a)

	_, res := call(r, http.MethodPost, "/api/backup/upload", "")
	assert.Equal(t, code.ErrorRemoteNotConfigured.Code(), res.Code)

	_, err := a.SettingService.Update(context.Background(), domain.BackupSettings{
		Interval: domain.IntervalOff,
		Location: domain.LocationWebDAV,
		Remote:   webdav.Config{URL: srv.URL + "/dav/"},
	})
	require.NoError(t, err)

	_, res = call(r, http.MethodPost, "/api/backup/connection", `{"url":"`+srv.URL+`/dav/"}`)
	assert.Equal(t, code.SuccessConnected.Code(), res.Code)

	_, res = call(r, http.MethodPost, "/api/backup/upload", `{}`)
	require.True(t, res.Status, "%v %v", res.Message, res.Details)
	assert.Equal(t, code.SuccessUploaded.Code(), res.Code)
	assert.True(t, dav.has("bento_note_backup_default.json"))

	_, res = call(r, http.MethodPost, "/api/backup/restore", `{"confirm":false}`)
	assert.Equal(t, code.SuccessRestoreCancelled.Code(), res.Code)

	_, res = call(r, http.MethodPost, "/api/backup/restore", `{"confirm":true}`)
	require.True(t, res.Status, "%v %v", res.Message, res.Details)
	assert.Equal(t, code.SuccessRestored.Code(), res.Code)

	_, res = call(r, http.MethodPost, "/api/backup/restore", `{"confirm":true,"source":"auto"}`)
	assert.Equal(t, code.ErrorRemoteFileNotFound.Code(), res.Code)

	_, res = call(r, http.MethodPost, "/api/backup/restore", `{"confirm":true,"source":"other"}`)
	assert.Equal(t, code.ErrorInvalidParams.Code(), res.Code)
}

func TestRouter_ExportImport(t *testing.T) {
	r := NewRouter(newTestApp(t, ""))

	w, _ := call(r, http.MethodGet, "/api/backup/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "bento_note_backup_default_")
	exported := w.Body.String()
	assert.Contains(t, exported, `"folders"`)

	_, res := call(r, http.MethodPost, "/api/backup/import", `{"notes":[{"id":"n1","title":"t"}],"folders":[]}`)
	require.True(t, res.Status, "%v %v", res.Message, res.Details)
	assert.EqualValues(t, 1, dataMap(t, res)["notes"])

	_, res = call(r, http.MethodPost, "/api/backup/import", `{"notes":{}}`)
	assert.Equal(t, code.ErrorMalformedSnapshot.Code(), res.Code)

	_, res = call(r, http.MethodGet, "/api/library", "")
	require.True(t, res.Status)
	assert.Len(t, dataMap(t, res)["notes"], 1)
}

func TestRouter_DownloadOffer(t *testing.T) {
	a := newTestApp(t, "app:\n  platform: browser\n")
	r := NewRouter(a)

	_, res := call(r, http.MethodGet, "/api/backup/download", "")
	assert.Equal(t, code.ErrorNoDownloadOffer.Code(), res.Code)

	_, err := a.SettingService.Update(context.Background(), domain.BackupSettings{
		Interval: domain.Interval15m,
		Location: domain.LocationLocal,
	})
	require.NoError(t, err)
	recorded, err := a.BackupService.RunScheduledBackup(context.Background(), a.UID())
	require.NoError(t, err)
	require.True(t, recorded)

	w, _ := call(r, http.MethodGet, "/api/backup/download", "")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "bento_note_auto_backup_default.json")

	// served once
	_, res = call(r, http.MethodGet, "/api/backup/download", "")
	assert.Equal(t, code.ErrorNoDownloadOffer.Code(), res.Code)

	_, res = call(r, http.MethodGet, "/api/notifications", "")
	require.True(t, res.Status)
	assert.NotZero(t, dataMap(t, res)["total"])
}

func TestRouter_MetricsAndNotFound(t *testing.T) {
	r := NewRouter(newTestApp(t, ""))

	w, _ := call(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")

	_, res := call(r, http.MethodGet, "/api/nothing", "")
	assert.Equal(t, code.ErrorNotFound.Code(), res.Code)
}
