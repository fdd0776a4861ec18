package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"

	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// MaxHashBytes caps how much of a document contributes to the hash.
const MaxHashBytes = 1 << 20

// maxFindingText caps the stored length of the first finding.
const maxFindingText = 500

// HashDocument returns the hex-encoded SHA-256 hash of the document
// bytes. Only the leading MaxHashBytes bytes of larger documents are
// hashed. Returns "" for empty input.
func HashDocument(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > MaxHashBytes {
		data = data[:MaxHashBytes]
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NewRecord builds an audit record for one validation run over the given
// document bytes. verr carries the run's result: nil means the document
// is valid, a validation finding or finding list means it is invalid,
// and any other error means the run itself failed.
func NewRecord(moduleSetID, document string, data []byte, started time.Time, verr error) *Record {
	now := time.Now()
	rec := &Record{
		ID:           uuid.New().String(),
		StartedTime:  started,
		RecordedTime: now,
		ModuleSetID:  moduleSetID,
		Document:     document,
		DocumentHash: HashDocument(data),
		Outcome:      OutcomeValid,
		Duration:     now.Sub(started),
	}
	if verr == nil {
		return rec
	}

	var list *yangErrors.ErrorList
	var single *yangErrors.ValidationError
	switch {
	case errors.As(verr, &list):
		rec.summarize(list.Errors)
	case errors.As(verr, &single):
		rec.summarize([]*yangErrors.ValidationError{single})
	default:
		rec.Outcome = OutcomeError
		rec.Error = verr.Error()
	}
	return rec
}

// summarize fills the verdict fields from validation findings.
func (r *Record) summarize(findings []*yangErrors.ValidationError) {
	if len(findings) == 0 {
		return
	}
	r.Outcome = OutcomeInvalid
	r.Violations = len(findings)
	r.ViolationTags = make(map[string]int, len(findings))
	for _, f := range findings {
		r.ViolationTags[f.Tag]++
		switch f.Kind {
		case yangErrors.KindSchema:
			r.SchemaViolations++
		case yangErrors.KindSemantic:
			r.SemanticViolations++
		}
	}
	first := findings[0]
	r.FirstViolation = truncate(first.Path+": "+first.Message, maxFindingText)
}

// truncate shortens s to at most max runes, ending a shortened string
// with "...".
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
