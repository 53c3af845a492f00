package allknower

// BrainDumpEntity is one entity the service extracted from a dump.
type BrainDumpEntity struct {
	Action string `json:"action"`
	NoteID string `json:"noteId"`
	Title  string `json:"title"`
	Type   string `json:"type"`
}

// BrainDumpResult summarizes one ingestion run.
type BrainDumpResult struct {
	NotesCreated int               `json:"notesCreated"`
	NotesUpdated int               `json:"notesUpdated"`
	Summary      string            `json:"summary"`
	Entities     []BrainDumpEntity `json:"entities"`
}

// BrainDumpHistoryEntry is one past ingestion run.
type BrainDumpHistoryEntry struct {
	ID           string `json:"id"`
	RawText      string `json:"rawText"`
	NotesCreated int    `json:"notesCreated"`
	NotesUpdated int    `json:"notesUpdated"`
	Model        string `json:"model"`
	TokensUsed   *int   `json:"tokensUsed"`
	CreatedAt    string `json:"createdAt"`
}

// RagChunk is one ranked result from a semantic query.
type RagChunk struct {
	NoteID    string  `json:"noteId"`
	NoteTitle string  `json:"noteTitle"`
	Content   string  `json:"content"`
	Score     float64 `json:"score"`
}

// ConsistencyIssue is one problem the consistency checker found.
type ConsistencyIssue struct {
	Type            string   `json:"type"`
	Severity        string   `json:"severity"`
	Description     string   `json:"description"`
	AffectedNoteIDs []string `json:"affectedNoteIds"`
}

// ConsistencyResult is the consistency check response.
type ConsistencyResult struct {
	Issues  []ConsistencyIssue `json:"issues"`
	Summary string             `json:"summary"`
}

// RelationshipSuggestion proposes a relation to an existing note.
type RelationshipSuggestion struct {
	TargetNoteID     string `json:"targetNoteId"`
	TargetTitle      string `json:"targetTitle"`
	RelationshipType string `json:"relationshipType"`
	Description      string `json:"description"`
}

// GapArea is one under-developed area of the lore.
type GapArea struct {
	Area        string `json:"area"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

// GapResult is the gap detection response.
type GapResult struct {
	Gaps    []GapArea `json:"gaps"`
	Summary string    `json:"summary"`
}

type ragRequest struct {
	Text string `json:"text"`
	TopK int    `json:"topK"`
}

type ragResponse struct {
	Chunks []RagChunk `json:"chunks"`
}

type relationshipsResponse struct {
	Suggestions []RelationshipSuggestion `json:"suggestions"`
}

type signInResponse struct {
	Token   string `json:"token"`
	Session struct {
		Token string `json:"token"`
	} `json:"session"`
	User map[string]any `json:"user"`
}
