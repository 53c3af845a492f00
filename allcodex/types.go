package allcodex

import "encoding/json"

// Attribute is a label or relation attached to a note. Relations hold the
// target note ID in Value.
type Attribute struct {
	AttributeID   string `json:"attributeId"`
	NoteID        string `json:"noteId"`
	Type          string `json:"type"`
	Name          string `json:"name"`
	Value         string `json:"value"`
	IsInheritable bool   `json:"isInheritable"`
}

// Note is the upstream note entity. Identity and attribute semantics are
// owned by AllCodex; this system only passes them through.
type Note struct {
	NoteID          string      `json:"noteId"`
	Title           string      `json:"title"`
	Type            string      `json:"type"`
	Mime            string      `json:"mime"`
	IsProtected     bool        `json:"isProtected"`
	DateCreated     string      `json:"dateCreated"`
	DateModified    string      `json:"dateModified"`
	UtcDateCreated  string      `json:"utcDateCreated"`
	UtcDateModified string      `json:"utcDateModified"`
	ParentNoteIDs   []string    `json:"parentNoteIds"`
	ChildNoteIDs    []string    `json:"childNoteIds"`
	Attributes      []Attribute `json:"attributes"`
}

// CreateNoteParams is the body of POST /create-note. Type defaults to
// "text" when empty.
type CreateNoteParams struct {
	ParentNoteID string `json:"parentNoteId"`
	Title        string `json:"title"`
	Type         string `json:"type,omitempty"`
	Mime         string `json:"mime,omitempty"`
	Content      string `json:"content,omitempty"`
	NotePosition int    `json:"notePosition,omitempty"`
	NoteID       string `json:"noteId,omitempty"`
}

// CreatedNote is the create-note response: the note plus the branch that
// links it to its parent.
type CreatedNote struct {
	Note   Note            `json:"note"`
	Branch json.RawMessage `json:"branch"`
}

// NotePatch updates note metadata.
type NotePatch struct {
	Title string `json:"title,omitempty"`
}

// AttributeParams is the body of POST /attributes.
type AttributeParams struct {
	NoteID        string `json:"noteId"`
	Type          string `json:"type"`
	Name          string `json:"name"`
	Value         string `json:"value"`
	IsInheritable bool   `json:"isInheritable,omitempty"`
}

// AppInfo describes the upstream instance, used by the status probe.
type AppInfo struct {
	AppVersion             string `json:"appVersion"`
	DBVersion              int    `json:"dbVersion"`
	SyncVersion            int    `json:"syncVersion"`
	BuildDate              string `json:"buildDate"`
	BuildRevision          string `json:"buildRevision"`
	DataDirectory          string `json:"dataDirectory"`
	ClipperProtocolVersion string `json:"clipperProtocolVersion"`
}

type searchResponse struct {
	Results []Note `json:"results"`
}

type loginResponse struct {
	AuthToken string `json:"authToken"`
}
