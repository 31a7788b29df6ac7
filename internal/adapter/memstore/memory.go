package memstore

import "vecdb/internal/domain"

// ContentMap maps document identifiers to their content. It keeps no
// embeddings and gives no ordering guarantee. Callers serialize access.
type ContentMap struct {
	docs map[domain.ID]string
}

func NewContentMap() *ContentMap {
	return &ContentMap{
		docs: make(map[domain.ID]string),
	}
}

// Insert stores content under id, replacing anything stored there.
func (m *ContentMap) Insert(id domain.ID, content string) {
	m.docs[id] = content
}

func (m *ContentMap) Remove(id domain.ID) {
	delete(m.docs, id)
}

func (m *ContentMap) Get(id domain.ID) (string, bool) {
	content, ok := m.docs[id]
	return content, ok
}

// Len returns the number of distinct identifiers present.
func (m *ContentMap) Len() int {
	return len(m.docs)
}

func (m *ContentMap) Reset() {
	m.docs = make(map[domain.ID]string)
}
