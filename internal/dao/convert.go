package dao

import (
	"github.com/haierkeys/bento-note-sync/internal/domain"
	"github.com/haierkeys/bento-note-sync/internal/model"

	"github.com/bytedance/sonic"
	"github.com/jinzhu/copier"
)

func noteToDomain(m *model.Note) (domain.Note, error) {
	var n domain.Note
	if err := copier.Copy(&n, m); err != nil {
		return n, err
	}
	n.CreatedAt, n.UpdatedAt = m.Ctime, m.Mtime
	n.Tags = []string{}
	if m.TagsJSON != "" {
		if err := sonic.UnmarshalString(m.TagsJSON, &n.Tags); err != nil {
			return n, err
		}
	}
	return n, nil
}

func noteToModel(uid string, n *domain.Note) (model.Note, error) {
	var m model.Note
	if err := copier.Copy(&m, n); err != nil {
		return m, err
	}
	m.UserID = uid
	m.Ctime, m.Mtime = n.CreatedAt, n.UpdatedAt
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	s, err := sonic.MarshalString(tags)
	if err != nil {
		return m, err
	}
	m.TagsJSON = s
	return m, nil
}

func folderToDomain(m *model.Folder) (domain.Folder, error) {
	var f domain.Folder
	err := copier.Copy(&f, m)
	return f, err
}

func folderToModel(uid string, f *domain.Folder) (model.Folder, error) {
	var m model.Folder
	if err := copier.Copy(&m, f); err != nil {
		return m, err
	}
	m.UserID = uid
	return m, nil
}
