package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/haierkeys/bento-note-sync/internal/domain"
	"github.com/haierkeys/bento-note-sync/internal/platform"
	"github.com/haierkeys/bento-note-sync/internal/snapshot"
	"github.com/haierkeys/bento-note-sync/internal/ui"
	"github.com/haierkeys/bento-note-sync/pkg/clock"
	"github.com/haierkeys/bento-note-sync/pkg/code"
	"github.com/haierkeys/bento-note-sync/pkg/metrics"
	"github.com/haierkeys/bento-note-sync/pkg/webdav"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ---- mocks ----

type backupMockSettings struct {
	SettingService
	mu       sync.Mutex
	settings domain.BackupSettings
	recorded []time.Time
}

func (m *backupMockSettings) Get(ctx context.Context) (domain.BackupSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

func (m *backupMockSettings) RecordBackup(ctx context.Context, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, t)
	m.settings.LastBackupTime = t.UnixMilli()
	return nil
}

type backupMockLibrary struct {
	LibraryService
	reloads int
}

func (m *backupMockLibrary) Reload(ctx context.Context, uid string) error {
	m.reloads++
	return nil
}

type backupMockDataset struct {
	domain.DatasetRepository
	notes    []domain.Note
	folders  []domain.Folder
	replaced bool
	merged   bool
}

func (m *backupMockDataset) Load(ctx context.Context, uid string) ([]domain.Note, []domain.Folder, error) {
	return m.notes, m.folders, nil
}

func (m *backupMockDataset) ReplaceAll(ctx context.Context, uid string, notes []domain.Note, folders []domain.Folder) error {
	m.replaced = true
	m.notes, m.folders = notes, folders
	return nil
}

func (m *backupMockDataset) Merge(ctx context.Context, uid string, notes []domain.Note, folders []domain.Folder) error {
	m.merged = true
	m.notes = append(m.notes, notes...)
	m.folders = append(m.folders, folders...)
	return nil
}

type backupMockRemote struct {
	RemoteStore
	lastMod   *time.Time
	putErr    error
	puts      map[string][]byte
	getData   []byte
	getErr    error
	gets      []string
	connected bool
	uploadOK  bool
}

func newMockRemote() *backupMockRemote {
	return &backupMockRemote{puts: map[string][]byte{}, connected: true, uploadOK: true}
}

func (m *backupMockRemote) GetFileLastModified(ctx context.Context, name string) *time.Time {
	return m.lastMod
}

func (m *backupMockRemote) Put(ctx context.Context, name string, content []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.puts[name] = content
	return nil
}

func (m *backupMockRemote) Get(ctx context.Context, name string) ([]byte, error) {
	m.gets = append(m.gets, name)
	return m.getData, m.getErr
}

func (m *backupMockRemote) CheckConnection(ctx context.Context) bool {
	return m.connected
}

func (m *backupMockRemote) UploadFile(ctx context.Context, name string, content []byte) bool {
	if !m.uploadOK {
		return false
	}
	m.puts[name] = content
	return true
}

func (m *backupMockRemote) Probe(ctx context.Context) error {
	if !m.connected {
		return &webdav.TransportError{Method: webdav.MethodPropfind, URL: "https://dav.example.com", Err: errors.New("dial tcp: refused")}
	}
	return nil
}

type backupMockFS struct {
	platform.FileSystem
	written map[string][]byte
	err     error
}

func (m *backupMockFS) WriteFile(dir, name string, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.written[dir+"/"+name] = data
	return dir + "/" + name, nil
}

func (m *backupMockFS) SelectDirectory(dir string) (string, error) {
	return dir, nil
}

// askConfirmer records how often it was asked.
type askConfirmer struct {
	answer  bool
	asked   int
	hook    func()
	title   string
	message string
}

func (c *askConfirmer) Confirm(ctx context.Context, title, message string) bool {
	c.asked++
	c.title, c.message = title, message
	if c.hook != nil {
		c.hook()
	}
	return c.answer
}

// ---- fixture ----

type backupFixture struct {
	svc      BackupService
	settings *backupMockSettings
	library  *backupMockLibrary
	dataset  *backupMockDataset
	remote   *backupMockRemote
	fs       *backupMockFS
	download *platform.DownloadOffer
	notes    *ui.Recent
	clock    *clock.Mock
}

func newBackupFixture(t *testing.T, withFS bool) *backupFixture {
	t.Helper()
	f := &backupFixture{
		settings: &backupMockSettings{settings: domain.BackupSettings{
			Interval: domain.Interval1h,
			Location: domain.LocationWebDAV,
			Remote:   webdav.Config{URL: "https://dav.example.com/notes", Username: "alice", Password: "pw"},
		}},
		library: &backupMockLibrary{},
		dataset: &backupMockDataset{
			notes: []domain.Note{
				{ID: "n1", Title: "one", Tags: []string{}, FolderID: "personal"},
				{ID: "n2", Title: "two", Tags: []string{"x"}, FolderID: "personal"},
			},
			folders: []domain.Folder{{ID: "personal", Name: "个人生活", Icon: "User", Order: 1}},
		},
		remote:   newMockRemote(),
		download: platform.NewDownloadOffer(),
		notes:    ui.NewRecent(20),
		clock:    clock.NewMock(),
	}
	f.clock.SetMillis(1000)

	var fs platform.FileSystem
	if withFS {
		f.fs = &backupMockFS{written: map[string][]byte{}}
		fs = f.fs
	}
	factory := func(cfg webdav.Config) RemoteStore { return f.remote }
	f.svc = NewBackupService(f.settings, f.library, f.dataset, snapshot.NewCodec(f.clock), factory,
		fs, f.download, f.notes, metrics.NewSync(nil), f.clock, zap.NewNop())
	return f
}

func (f *backupFixture) kinds() []ui.Kind {
	var kinds []ui.Kind
	for _, m := range f.notes.Drain() {
		kinds = append(kinds, m.Kind)
	}
	return kinds
}

// ---- upload ----

func TestUploadToRemote_NoRemoteFileUploadsWithoutAsking(t *testing.T) {
	f := newBackupFixture(t, false)
	confirm := &askConfirmer{answer: false}

	res, err := f.svc.UploadToRemote(context.Background(), "u1", confirm)
	require.NoError(t, err)
	assert.True(t, res.Uploaded)
	assert.False(t, res.Conflict)
	assert.Zero(t, confirm.asked)

	body, ok := f.remote.puts["bento_note_backup_u1.json"]
	require.True(t, ok)
	snap, err := snapshot.NewCodec(f.clock).Deserialize(body)
	require.NoError(t, err)
	assert.Len(t, snap.Notes, 2)
	assert.Len(t, snap.Folders, 1)
	assert.Equal(t, int64(1000), snap.Timestamp)
	assert.Equal(t, []ui.Kind{ui.KindSuccess}, f.kinds())
}

func TestUploadToRemote_NewerRemoteNeedsConfirmation(t *testing.T) {
	f := newBackupFixture(t, false)
	remote := time.UnixMilli(2000)
	f.remote.lastMod = &remote
	confirm := &askConfirmer{answer: false}

	res, err := f.svc.UploadToRemote(context.Background(), "u1", confirm)
	require.NoError(t, err, "a declined conflict is not an error")
	assert.Equal(t, 1, confirm.asked)
	assert.True(t, res.Conflict)
	assert.False(t, res.Uploaded)
	assert.Empty(t, f.remote.puts)
	assert.Equal(t, code.PromptConflictTitle.GetMessage(), confirm.title)
	assert.Contains(t, confirm.message, remote.Local().Format(time.DateTime))
	assert.NotContains(t, confirm.message, "Continue?", "the confirmer asks the question")

	// no confirmer at all means no
	res, err = f.svc.UploadToRemote(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.False(t, res.Uploaded)
	assert.Empty(t, f.remote.puts)
}

func TestUploadToRemote_ConfirmedConflictUploads(t *testing.T) {
	f := newBackupFixture(t, false)
	remote := time.UnixMilli(2000)
	f.remote.lastMod = &remote
	confirm := &askConfirmer{answer: true}

	res, err := f.svc.UploadToRemote(context.Background(), "u1", confirm)
	require.NoError(t, err)
	assert.Equal(t, 1, confirm.asked)
	assert.True(t, res.Conflict)
	assert.True(t, res.Uploaded)
	assert.Contains(t, f.remote.puts, "bento_note_backup_u1.json")
}

func TestUploadToRemote_OlderOrEqualRemoteIsNotGated(t *testing.T) {
	for _, ms := range []int64{1000, 999, 0} {
		f := newBackupFixture(t, false)
		remote := time.UnixMilli(ms)
		f.remote.lastMod = &remote
		confirm := &askConfirmer{answer: false}

		res, err := f.svc.UploadToRemote(context.Background(), "u1", confirm)
		require.NoError(t, err)
		assert.Zero(t, confirm.asked, "remote at %d", ms)
		assert.True(t, res.Uploaded)
		assert.Equal(t, remote, res.RemoteModified)
	}
}

func TestUploadToRemote_NotConfigured(t *testing.T) {
	f := newBackupFixture(t, false)
	f.settings.settings.Remote = webdav.Config{}

	_, err := f.svc.UploadToRemote(context.Background(), "u1", ui.Static(true))
	assert.ErrorIs(t, err, code.ErrorRemoteNotConfigured)
	assert.Equal(t, []ui.Kind{ui.KindError}, f.kinds())
}

func TestUploadToRemote_ErrorsAreDistinct(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want *code.Code
	}{
		{"rejected", &webdav.StatusError{Method: "PUT", Status: 403, StatusText: "Forbidden"}, code.ErrorRemoteRejected},
		{"unreachable", &webdav.TransportError{Method: "PUT", Err: errors.New("timeout")}, code.ErrorRemoteUnavailable},
		{"other", errors.New("boom"), code.ErrorRemoteUploadFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBackupFixture(t, false)
			f.remote.putErr = tt.err

			res, err := f.svc.UploadToRemote(context.Background(), "u1", ui.Static(true))
			assert.ErrorIs(t, err, tt.want)
			require.NotNil(t, res)
			assert.False(t, res.Uploaded)
		})
	}
}

func TestManualSync_RejectsConcurrentTrigger(t *testing.T) {
	f := newBackupFixture(t, false)
	remote := time.UnixMilli(5000)
	f.remote.lastMod = &remote

	var nested error
	confirm := &askConfirmer{answer: false, hook: func() {
		_, nested = f.svc.Import(context.Background(), "u1", []byte(`{"notes":[],"folders":[]}`))
	}}
	_, err := f.svc.UploadToRemote(context.Background(), "u1", confirm)
	require.NoError(t, err)
	assert.ErrorIs(t, nested, code.ErrorSyncInProgress)

	// released afterwards
	_, err = f.svc.Import(context.Background(), "u1", []byte(`{"notes":[],"folders":[]}`))
	assert.NoError(t, err)
}

// ---- restore ----

const remoteSnapshot = `{
  "notes": [{"id":"r1","title":"remote","content":"c","tags":["a"],"folderId":"work","isCompleted":false,"isImportant":true,"color":"bg-white","createdAt":1,"updatedAt":2},
            {"id":"","title":"no id","content":"","tags":[],"folderId":"work","isCompleted":false,"isImportant":false,"color":"","createdAt":3,"updatedAt":3}],
  "folders": [{"id":"work","name":"工作任务","icon":"Briefcase","order":2}],
  "timestamp": 1700000000000,
  "version": "1.1.0",
  "extra": "ignored"
}`

func TestRestoreFromRemote_DeclinedTouchesNothing(t *testing.T) {
	f := newBackupFixture(t, false)
	f.remote.getData = []byte(remoteSnapshot)
	confirm := &askConfirmer{answer: false}

	res, err := f.svc.RestoreFromRemote(context.Background(), "u1", RestoreOptions{}, confirm)
	require.NoError(t, err)
	assert.False(t, res.Restored)
	assert.Equal(t, 1, confirm.asked)
	assert.Equal(t, code.PromptRestoreTitle.GetMessage(), confirm.title)
	assert.Equal(t, code.PromptRestoreMessage.GetMessage(), confirm.message)
	assert.NotContains(t, confirm.message, "Continue?")
	assert.Empty(t, f.remote.gets, "confirmation comes before download")
	assert.False(t, f.dataset.replaced)
}

func TestRestoreFromRemote_ReplacesAndReloads(t *testing.T) {
	f := newBackupFixture(t, false)
	f.remote.getData = []byte(remoteSnapshot)

	res, err := f.svc.RestoreFromRemote(context.Background(), "u1", RestoreOptions{}, ui.Static(true))
	require.NoError(t, err)
	assert.True(t, res.Restored)
	assert.Equal(t, 2, res.Notes)
	assert.Equal(t, 1, res.Folders)
	assert.Equal(t, int64(1700000000000), res.SnapshotTime.UnixMilli())

	assert.Equal(t, []string{"bento_note_backup_u1.json"}, f.remote.gets)
	require.True(t, f.dataset.replaced)
	require.Len(t, f.dataset.notes, 2)
	assert.Equal(t, "r1", f.dataset.notes[0].ID)
	assert.NotEmpty(t, f.dataset.notes[1].ID, "blank ids get a generated one")
	assert.Equal(t, "work", f.dataset.folders[0].ID)
	assert.Equal(t, 1, f.library.reloads)
}

func TestRestoreFromRemote_AutoBackupFile(t *testing.T) {
	f := newBackupFixture(t, false)
	f.remote.getData = []byte(remoteSnapshot)

	_, err := f.svc.RestoreFromRemote(context.Background(), "u1", RestoreOptions{AutoBackup: true}, ui.Static(true))
	require.NoError(t, err)
	assert.Equal(t, []string{"bento_note_auto_backup_u1.json"}, f.remote.gets)
}

func TestRestoreFromRemote_MissingFoldersIsMalformed(t *testing.T) {
	f := newBackupFixture(t, false)
	f.remote.getData = []byte(`{"notes":[{"id":"x"}],"timestamp":1}`)
	before := f.dataset.notes

	_, err := f.svc.RestoreFromRemote(context.Background(), "u1", RestoreOptions{}, ui.Static(true))
	assert.ErrorIs(t, err, code.ErrorMalformedSnapshot)
	assert.False(t, f.dataset.replaced)
	assert.Equal(t, before, f.dataset.notes)
	assert.Zero(t, f.library.reloads)
	assert.Equal(t, []ui.Kind{ui.KindError}, f.kinds())
}

func TestRestoreFromRemote_NotFoundAndUnreachableDiffer(t *testing.T) {
	f := newBackupFixture(t, false)
	f.remote.getErr = webdav.ErrNotFound
	_, err := f.svc.RestoreFromRemote(context.Background(), "u1", RestoreOptions{}, ui.Static(true))
	assert.ErrorIs(t, err, code.ErrorRemoteFileNotFound)

	f.remote.getErr = &webdav.TransportError{Method: "GET", Err: errors.New("no such host")}
	_, err = f.svc.RestoreFromRemote(context.Background(), "u1", RestoreOptions{}, ui.Static(true))
	assert.ErrorIs(t, err, code.ErrorRemoteUnavailable)
	assert.False(t, f.dataset.replaced)
}

// ---- scheduled ----

func TestRunScheduledBackup_WebDAVNotConfiguredSkipsSilently(t *testing.T) {
	f := newBackupFixture(t, false)
	f.settings.settings.Remote = webdav.Config{}

	recorded, err := f.svc.RunScheduledBackup(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, recorded)
	assert.Empty(t, f.settings.recorded)
	assert.Empty(t, f.kinds(), "background skip is not shown to the user")
}

func TestRunScheduledBackup_WebDAVUnreachableIsLoggedOnly(t *testing.T) {
	f := newBackupFixture(t, false)
	f.remote.connected = false

	recorded, err := f.svc.RunScheduledBackup(context.Background(), "u1")
	assert.ErrorIs(t, err, code.ErrorRemoteUnavailable)
	assert.False(t, recorded)
	assert.Empty(t, f.remote.puts)
	assert.Empty(t, f.settings.recorded)
	assert.Empty(t, f.kinds())
}

func TestRunScheduledBackup_WebDAVUploadRejected(t *testing.T) {
	f := newBackupFixture(t, false)
	f.remote.uploadOK = false

	recorded, err := f.svc.RunScheduledBackup(context.Background(), "u1")
	assert.ErrorIs(t, err, code.ErrorRemoteUploadFailed)
	assert.False(t, recorded)
	assert.Empty(t, f.settings.recorded)
}

func TestRunScheduledBackup_WebDAVRecordsTime(t *testing.T) {
	f := newBackupFixture(t, false)
	f.clock.SetMillis(90_000)

	recorded, err := f.svc.RunScheduledBackup(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, recorded)
	require.Len(t, f.settings.recorded, 1)
	assert.Equal(t, int64(90_000), f.settings.recorded[0].UnixMilli())

	body, ok := f.remote.puts["bento_note_auto_backup_u1.json"]
	require.True(t, ok, "scheduled backups use the stable auto name")
	assert.True(t, strings.Contains(string(body), "\n  "), "scheduled files are indented")
}

func TestRunScheduledBackup_LocalWritesFile(t *testing.T) {
	f := newBackupFixture(t, true)
	f.settings.settings.Location = domain.LocationLocal
	f.settings.settings.LocalPath = "/backups"

	recorded, err := f.svc.RunScheduledBackup(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, recorded)
	assert.Contains(t, f.fs.written, "/backups/bento_note_auto_backup_u1.json")
	assert.Empty(t, f.remote.puts)
	_, pending := f.download.Pending()
	assert.False(t, pending)
}

func TestRunScheduledBackup_LocalWriteFailureIsShown(t *testing.T) {
	f := newBackupFixture(t, true)
	f.settings.settings.Location = domain.LocationLocal
	f.settings.settings.LocalPath = "/readonly"
	f.fs.err = errors.New("permission denied")

	recorded, err := f.svc.RunScheduledBackup(context.Background(), "u1")
	assert.ErrorIs(t, err, code.ErrorLocalWrite)
	assert.False(t, recorded)
	assert.Empty(t, f.settings.recorded)
	assert.Equal(t, []ui.Kind{ui.KindError}, f.kinds())
}

func TestRunScheduledBackup_BrowserFallsBackToDownload(t *testing.T) {
	f := newBackupFixture(t, false)
	f.settings.settings.Location = domain.LocationLocal

	recorded, err := f.svc.RunScheduledBackup(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, recorded)

	file, ok := f.download.Take()
	require.True(t, ok)
	assert.Equal(t, "bento_note_auto_backup_u1.json", file.Name)
	_, err = snapshot.NewCodec(f.clock).Deserialize(file.Data)
	assert.NoError(t, err)
}

// ---- export / import / connection ----

func TestExport(t *testing.T) {
	f := newBackupFixture(t, false)
	f.clock.SetNow(time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC))

	name, data, err := f.svc.Export(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "bento_note_backup_u1_2024-03-09.json", name)
	snap, err := snapshot.NewCodec(f.clock).Deserialize(data)
	require.NoError(t, err)
	assert.Len(t, snap.Notes, 2)
}

func TestExportToDir(t *testing.T) {
	f := newBackupFixture(t, true)
	path, err := f.svc.ExportToDir(context.Background(), "u1", "/exports")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "/exports/bento_note_backup_u1_"))

	_, err = f.svc.ExportToDir(context.Background(), "u1", "")
	assert.ErrorIs(t, err, code.ErrorLocalPathUnset)

	browser := newBackupFixture(t, false)
	_, err = browser.svc.ExportToDir(context.Background(), "u1", "/exports")
	assert.ErrorIs(t, err, code.ErrorExportFailed)
}

func TestImport_MergesAndReloads(t *testing.T) {
	f := newBackupFixture(t, false)

	res, err := f.svc.Import(context.Background(), "u1", []byte(remoteSnapshot))
	require.NoError(t, err)
	assert.True(t, res.Restored)
	assert.True(t, f.dataset.merged)
	assert.False(t, f.dataset.replaced)
	assert.Len(t, f.dataset.notes, 4, "import keeps existing notes")
	assert.Equal(t, 1, f.library.reloads)

	_, err = f.svc.Import(context.Background(), "u1", []byte(`{"folders":[]}`))
	assert.ErrorIs(t, err, code.ErrorMalformedSnapshot)
}

func TestTestConnection(t *testing.T) {
	f := newBackupFixture(t, false)
	assert.NoError(t, f.svc.TestConnection(context.Background(), webdav.Config{URL: "https://dav.example.com"}))
	assert.ErrorIs(t, f.svc.TestConnection(context.Background(), webdav.Config{}), code.ErrorRemoteNotConfigured)

	f.remote.connected = false
	assert.ErrorIs(t, f.svc.TestConnection(context.Background(), webdav.Config{URL: "https://dav.example.com"}), code.ErrorRemoteUnavailable)
}
