package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Metadata keys recognized across the pipeline. Chunks may carry additional
// keys; they are preserved but not interpreted.
const (
	MetaSourceRowID     = "source_row_id"
	MetaCompany         = "company"
	MetaJobRole         = "job_role"
	MetaCareerType      = "career_type"
	MetaCompanyYearsNum = "company_years_num"
	MetaDeadline        = "deadline"
	MetaChunkGroup      = "chunk_group"
)

// Metadata holds the posting fields attached to a chunk at ingest time.
// Values arrive from JSON, so numbers may decode as float64.
type Metadata map[string]any

// String returns the named field as a trimmed string, or "" if absent.
func (m Metadata) String(key string) string {
	if m == nil {
		return ""
	}
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

// SourceRowID returns the originating posting's row ID and whether one is set.
func (m Metadata) SourceRowID() (int64, bool) {
	if m == nil {
		return 0, false
	}
	v, ok := m[MetaSourceRowID]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// Company returns the company field, "" if missing.
func (m Metadata) Company() string { return m.String(MetaCompany) }

// JobRole returns the job role field, "" if missing.
func (m Metadata) JobRole() string { return m.String(MetaJobRole) }

// Chunk is one retrievable passage derived from a job posting. Chunks are
// created during corpus preparation and are read-only here.
type Chunk struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Candidate is a chunk annotated with the vector store's distance and, once
// reranked, a cross-encoder relevance score. Lower distance means more
// similar; higher rerank score means more relevant. RerankScore stays 0 when
// reranking is skipped.
type Candidate struct {
	Chunk
	Distance    float64 `json:"distance"`
	RerankScore float64 `json:"rerank_score,omitempty"`
}

// PostingKey identifies "the same job posting" across chunks. When the source
// row ID is present it participates in the key; otherwise company and job
// role alone have to do.
type PostingKey struct {
	SourceRowID int64
	HasRowID    bool
	Company     string
	JobRole     string
}

// PostingKey derives the dedup key for this chunk's posting.
func (c Chunk) PostingKey() PostingKey {
	key := PostingKey{
		Company: c.Metadata.Company(),
		JobRole: c.Metadata.JobRole(),
	}
	if id, ok := c.Metadata.SourceRowID(); ok {
		key.SourceRowID = id
		key.HasRowID = true
	}
	return key
}

// Filters are optional exact-match constraints applied to posting metadata
// during retrieval. Empty fields impose no constraint.
type Filters struct {
	Company         string
	JobRole         string
	CareerType      string
	CompanyYearsNum string
}

// Fields returns the set constraints as metadata-key/value pairs, in a fixed
// order so queries and cache keys are deterministic.
func (f Filters) Fields() [][2]string {
	var out [][2]string
	if f.Company != "" {
		out = append(out, [2]string{MetaCompany, f.Company})
	}
	if f.JobRole != "" {
		out = append(out, [2]string{MetaJobRole, f.JobRole})
	}
	if f.CareerType != "" {
		out = append(out, [2]string{MetaCareerType, f.CareerType})
	}
	if f.CompanyYearsNum != "" {
		out = append(out, [2]string{MetaCompanyYearsNum, f.CompanyYearsNum})
	}
	return out
}

// Matches reports whether the chunk's metadata satisfies every set constraint.
func (f Filters) Matches(m Metadata) bool {
	for _, fv := range f.Fields() {
		if m.String(fv[0]) != fv[1] {
			return false
		}
	}
	return true
}

// AssembledContext is the packed, attribution-annotated context handed to the
// completion provider, along with the candidates that made it in.
type AssembledContext struct {
	Text     string      `json:"context"`
	Selected []Candidate `json:"selected"`
	Length   int         `json:"context_length"`
}

// Empty reports whether nothing survived assembly.
func (a AssembledContext) Empty() bool {
	return strings.TrimSpace(a.Text) == ""
}

// Answer is the generation result returned to callers. Sources lists the
// candidates whose text backed the answer, in context order.
type Answer struct {
	Answer        string      `json:"answer"`
	Sources       []Candidate `json:"sources"`
	ContextLength int         `json:"context_length"`
}

// EvalRecord pairs a query with the row IDs of the postings a good retriever
// should surface for it.
type EvalRecord struct {
	Query               string  `json:"query"`
	RelevantSourceRowID []int64 `json:"relevant_source_row_ids"`
}

// EvalMetrics aggregates ranking quality over an evaluation run. NQueries
// counts only records that were actually evaluated.
type EvalMetrics struct {
	HitAtK    float64 `json:"hit_at_k"`
	MRR       float64 `json:"mrr"`
	RecallAtK float64 `json:"recall_at_k"`
	NQueries  int     `json:"n_queries"`
}
