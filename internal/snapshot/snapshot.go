// Package snapshot encodes a user's whole dataset as the single JSON document used
// for export, backup and restore.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/haierkeys/bento-note-sync/internal/domain"
	"github.com/haierkeys/bento-note-sync/pkg/clock"
	"github.com/haierkeys/bento-note-sync/pkg/code"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"golang.org/x/mod/semver"
)

// CurrentVersion is the schema version written into every snapshot.
const CurrentVersion = "1.1.0"

// ErrMalformed is returned when the document is not JSON or lacks the notes/folders arrays.
// It matches code.ErrorMalformedSnapshot with errors.Is.
var ErrMalformed = code.ErrorMalformedSnapshot

// Snapshot 备份文件结构
type Snapshot struct {
	Notes     []domain.Note   `json:"notes"`
	Folders   []domain.Folder `json:"folders"`
	Timestamp int64           `json:"timestamp"`
	Version   string          `json:"version"`

	// Newer is set when the document was written by a newer major schema.
	Newer bool `json:"-"`
}

// CapturedAt returns Timestamp as a time.
func (s *Snapshot) CapturedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Codec 快照编解码器
type Codec struct {
	clock   clock.Clock
	version string
}

func NewCodec(c clock.Clock) *Codec {
	if c == nil {
		c = clock.New()
	}
	return &Codec{clock: c, version: CurrentVersion}
}

// Serialize stamps the capture time and encodes notes and folders in the order given.
// Serialize 生成快照，timestamp 取当前时间
func (c *Codec) Serialize(notes []domain.Note, folders []domain.Folder) ([]byte, *Snapshot, error) {
	snap := c.build(notes, folders)
	data, err := sonic.ConfigStd.Marshal(snap)
	if err != nil {
		return nil, nil, errors.Wrap(err, "snapshot encode")
	}
	return data, snap, nil
}

// SerializeIndent is Serialize with two-space indentation, used for files the user keeps.
func (c *Codec) SerializeIndent(notes []domain.Note, folders []domain.Folder) ([]byte, *Snapshot, error) {
	snap := c.build(notes, folders)
	data, err := sonic.ConfigStd.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, nil, errors.Wrap(err, "snapshot encode")
	}
	return data, snap, nil
}

func (c *Codec) build(notes []domain.Note, folders []domain.Folder) *Snapshot {
	snap := &Snapshot{
		Notes:     make([]domain.Note, len(notes)),
		Folders:   make([]domain.Folder, len(folders)),
		Timestamp: c.clock.Now().UnixMilli(),
		Version:   c.version,
	}
	copy(snap.Notes, notes)
	copy(snap.Folders, folders)
	for i := range snap.Notes {
		if snap.Notes[i].Tags == nil {
			snap.Notes[i].Tags = []string{}
		}
	}
	return snap
}

// envelope keeps the two collections raw so their presence and kind can be checked
// before the records are decoded.
type envelope struct {
	Notes     json.RawMessage `json:"notes"`
	Folders   json.RawMessage `json:"folders"`
	Timestamp int64           `json:"timestamp"`
	Version   string          `json:"version"`
}

// Deserialize parses a snapshot. A missing, null or non-array notes or folders key
// fails with ErrMalformed; unknown keys are ignored.
// Deserialize 解析快照，缺少 notes 或 folders 数组时返回 ErrMalformed
func (c *Codec) Deserialize(data []byte) (*Snapshot, error) {
	var env envelope
	if err := sonic.ConfigStd.Unmarshal(data, &env); err != nil {
		return nil, ErrMalformed.WithDetails("invalid json: " + err.Error())
	}
	if !isArray(env.Notes) {
		return nil, ErrMalformed.WithDetails("notes array missing")
	}
	if !isArray(env.Folders) {
		return nil, ErrMalformed.WithDetails("folders array missing")
	}

	snap := &Snapshot{Timestamp: env.Timestamp, Version: env.Version}
	var err error
	if snap.Notes, err = decodeRecords[domain.Note](env.Notes); err != nil {
		return nil, ErrMalformed.WithDetails(fmt.Sprintf("notes: %v", err))
	}
	if snap.Folders, err = decodeRecords[domain.Folder](env.Folders); err != nil {
		return nil, ErrMalformed.WithDetails(fmt.Sprintf("folders: %v", err))
	}
	snap.Newer = c.newerMajor(env.Version)
	return snap, nil
}

// decodeRecords decodes each record on its own. A field whose value does not fit
// the record type is dropped and keeps its zero value; the record itself is kept.
// Only a record that is not a JSON object fails.
func decodeRecords[T any](raw json.RawMessage) ([]T, error) {
	var items []json.RawMessage
	if err := sonic.ConfigStd.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		var rec T
		if err := sonic.ConfigStd.Unmarshal(item, &rec); err == nil {
			out = append(out, rec)
			continue
		}

		var fields map[string]json.RawMessage
		if err := sonic.ConfigStd.Unmarshal(item, &fields); err != nil {
			return nil, errors.Wrapf(err, "record %d is not an object", i)
		}
		for key, value := range fields {
			var fit T
			single, _ := sonic.ConfigStd.Marshal(map[string]json.RawMessage{key: value})
			if sonic.ConfigStd.Unmarshal(single, &fit) != nil {
				delete(fields, key)
			}
		}
		cleaned, err := sonic.ConfigStd.Marshal(fields)
		if err != nil {
			return nil, errors.Wrapf(err, "record %d", i)
		}
		if err := sonic.ConfigStd.Unmarshal(cleaned, &rec); err != nil {
			return nil, errors.Wrapf(err, "record %d", i)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *Codec) newerMajor(version string) bool {
	v, cur := "v"+version, "v"+c.version
	if !semver.IsValid(v) {
		return false
	}
	return semver.Compare(semver.Major(v), semver.Major(cur)) > 0
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
