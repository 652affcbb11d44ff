package search

// Document is the unit uploaded to the index: one record per chunk, carrying
// the chunk text, its vector, and the owning document's metadata.
type Document struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	ContentVector []float32 `json:"contentVector"`
	Source        string    `json:"source"`
	Title         string    `json:"title"`
	Topics        []string  `json:"topics"`
	CapturedAt    string    `json:"captured_at"`
	License       string    `json:"license"`
	Attribution   string    `json:"attribution"`
	ChunkIndex    int       `json:"chunk_index"`
	DocType       string    `json:"doc_type"`
}

// Result is one ranked hit from a vector search. Ranking is owned by the
// index; this service only consumes the selected fields.
type Result struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Source     string   `json:"source"`
	Content    string   `json:"content"`
	ChunkIndex int      `json:"chunk_index"`
	Topics     []string `json:"topics"`
	Score      float64  `json:"@search.score"`
}
