package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urbanmesh/zonegate/internal/classify"
	"github.com/urbanmesh/zonegate/internal/clause"
	"github.com/urbanmesh/zonegate/internal/logger"
	"github.com/urbanmesh/zonegate/internal/store"
)

var log = logger.ForComponent("ingest")

// ErrAlreadyIngested signals that a document with identical content was
// already stored for the jurisdiction.
var ErrAlreadyIngested = errors.New("document already ingested")

// Result summarizes one document ingest.
type Result struct {
	DocumentID   int64          `json:"document_id"`
	Jurisdiction string         `json:"jurisdiction"`
	Filename     string         `json:"filename,omitempty"`
	Encoding     string         `json:"encoding,omitempty"`
	ClauseCount  int            `json:"clause_count"`
	Categories   map[string]int `json:"categories"`
}

// Ingestor runs the segment-classify-persist pass for one document at a
// time. Segmentation and classification are pure; the only side effects are
// the store writes at the end.
type Ingestor struct {
	store *store.Store
}

func NewIngestor(s *store.Store) *Ingestor {
	return &Ingestor{store: s}
}

// IngestFile decodes a regulation text file and ingests it under the given
// jurisdiction key.
func (ing *Ingestor) IngestFile(path, jurisdiction string) (*Result, error) {
	text, enc, err := ReadFileAsUTF8(path)
	if err != nil {
		return nil, err
	}

	res, err := ing.IngestText(text, filepath.Base(path), jurisdiction)
	if err != nil {
		return nil, err
	}

	res.Encoding = enc
	return res, nil
}

// IngestText segments the document, classifies every clause and persists the
// document, its raw rules and the classified rules. A document whose content
// hash already exists for the jurisdiction is rejected with
// ErrAlreadyIngested, giving at-most-once insert semantics per document.
// Zero clauses is a valid outcome, recorded as an empty document.
func (ing *Ingestor) IngestText(text, filename, jurisdiction string) (*Result, error) {
	jurisdiction = strings.TrimSpace(jurisdiction)
	if jurisdiction == "" {
		return nil, fmt.Errorf("jurisdiction is required")
	}

	hash := sha256.Sum256([]byte(text))
	hashStr := hex.EncodeToString(hash[:])

	if existing, err := ing.store.DocumentByHash(jurisdiction, hashStr); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: document %d", ErrAlreadyIngested, existing.ID)
	}

	clauses := clause.Segment(text)
	if len(clauses) == 0 {
		log.Warn("no clauses found in document", "filename", filename, "jurisdiction", jurisdiction)
	}

	docID, err := ing.store.InsertDocument(&store.Document{
		Jurisdiction: jurisdiction,
		Filename:     filename,
		ContentHash:  hashStr,
		ClauseCount:  len(clauses),
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		DocumentID:   docID,
		Jurisdiction: jurisdiction,
		Filename:     filename,
		ClauseCount:  len(clauses),
		Categories:   map[string]int{},
	}

	if len(clauses) == 0 {
		return result, nil
	}

	rules := make([]*store.Rule, len(clauses))
	for i, c := range clauses {
		rules[i] = &store.Rule{
			DocumentID:   docID,
			Jurisdiction: jurisdiction,
			ClauseNo:     c.Number,
			Text:         c.Text,
		}
	}
	if err := ing.store.InsertRules(rules); err != nil {
		return nil, err
	}

	classified := make([]*store.ClassifiedRule, len(rules))
	for i, r := range rules {
		category, details := classify.Classify(r.Text)
		classified[i] = &store.ClassifiedRule{
			RuleID:       r.ID,
			Jurisdiction: jurisdiction,
			ClauseNo:     r.ClauseNo,
			Category:     string(category),
			Details:      details,
			OriginalText: r.Text,
		}
		result.Categories[string(category)]++
	}
	if err := ing.store.InsertClassifiedRules(classified); err != nil {
		return nil, err
	}

	log.Info("document ingested",
		"jurisdiction", jurisdiction,
		"filename", filename,
		"clauses", len(clauses))

	return result, nil
}
