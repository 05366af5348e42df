package service

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"fira-backend/archive"
	"fira-backend/models"

	"github.com/jackc/pgx/v5"
)

var (
	ErrMalformedImport = errors.New("malformed import line")
	ErrEmptyImport     = errors.New("import contains no rows")
	ErrInvalidConfig   = errors.New("invalid annotation config")
	ErrNoArchive       = errors.New("no export archive configured")
)

// AdminService handles bulk import of annotation data, judgement export and
// the config singleton. Imports replace state transactionally so the
// allocator never sees a half-written pool.
type AdminService struct {
	pairs    PairAdminStore
	versions VersionStore
	config   ConfigStore

	judgements JudgementStore
	tx         Transactor
	archive    archive.Archiver
}

// AdminServiceOption is a functional option for AdminService
type AdminServiceOption func(*AdminService)

// AdminWithPairAdminStore sets the pair admin store
func AdminWithPairAdminStore(store PairAdminStore) AdminServiceOption {
	return func(s *AdminService) {
		s.pairs = store
	}
}

// AdminWithVersionStore sets the version store
func AdminWithVersionStore(store VersionStore) AdminServiceOption {
	return func(s *AdminService) {
		s.versions = store
	}
}

// AdminWithConfigStore sets the config store
func AdminWithConfigStore(store ConfigStore) AdminServiceOption {
	return func(s *AdminService) {
		s.config = store
	}
}

// AdminWithJudgementStore sets the judgement store
func AdminWithJudgementStore(store JudgementStore) AdminServiceOption {
	return func(s *AdminService) {
		s.judgements = store
	}
}

// AdminWithTransactor sets the transactor
func AdminWithTransactor(tx Transactor) AdminServiceOption {
	return func(s *AdminService) {
		s.tx = tx
	}
}

// AdminWithArchive sets the export archive
func AdminWithArchive(a archive.Archiver) AdminServiceOption {
	return func(s *AdminService) {
		s.archive = a
	}
}

// NewAdminService creates a new admin service
func NewAdminService(opts ...AdminServiceOption) *AdminService {
	s := &AdminService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImportPairs replaces the entire judgement-pair pool from a TSV body of
// "documentId<TAB>queryId<TAB>priority" lines. The swap runs inside one
// serializable transaction and invalidates the allocator's tier cache.
func (s *AdminService) ImportPairs(ctx context.Context, r io.Reader) (int, error) {
	pairs, err := parsePairsTSV(r)
	if err != nil {
		return 0, err
	}

	err = s.tx.Serializable(ctx, func(ctx context.Context) error {
		return s.pairs.ReplaceAll(ctx, pairs)
	})
	if err != nil {
		return 0, err
	}

	// ReplaceAll drops the tier cache before the transaction commits, so a
	// concurrent read in that window can repopulate it from pre-import rows.
	// Drop it again now that the new pool is visible.
	s.pairs.Invalidate()

	log.Printf("Imported %d judgement pairs", len(pairs))
	return len(pairs), nil
}

// ImportDocuments creates a new immutable version for every document in a
// TSV body of "documentId<TAB>text" lines.
func (s *AdminService) ImportDocuments(ctx context.Context, r io.Reader) (int, error) {
	rows, err := parseTextTSV(r)
	if err != nil {
		return 0, err
	}

	err = s.tx.Serializable(ctx, func(ctx context.Context) error {
		for _, row := range rows {
			if _, err := s.versions.CreateDocumentVersion(ctx, row.id, row.text); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("Imported %d document versions", len(rows))
	return len(rows), nil
}

// ImportQueries creates a new immutable version for every query in a TSV
// body of "queryId<TAB>text" lines.
func (s *AdminService) ImportQueries(ctx context.Context, r io.Reader) (int, error) {
	rows, err := parseTextTSV(r)
	if err != nil {
		return 0, err
	}

	err = s.tx.Serializable(ctx, func(ctx context.Context) error {
		for _, row := range rows {
			if _, err := s.versions.CreateQueryVersion(ctx, row.id, row.text); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("Imported %d query versions", len(rows))
	return len(rows), nil
}

// ExportJudgements renders every completed judgement as TSV. Stored
// positions are already unrotated, so rows go out exactly as persisted.
// With archiveSnapshot set, a timestamped copy is also written to the
// archive backend.
func (s *AdminService) ExportJudgements(ctx context.Context, archiveSnapshot bool) ([]byte, error) {
	judged, err := s.judgements.JudgedForExport(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("queryId\tdocumentId\tuserId\trelevanceLevel\trelevancePositions\tdurationUsedToJudgeMs\tjudgedAt\n")
	for _, j := range judged {
		positions := make([]string, len(j.RelevancePositions))
		for i, pos := range j.RelevancePositions {
			positions[i] = strconv.Itoa(pos)
		}

		level := ""
		if j.RelevanceLevel != nil {
			level = string(*j.RelevanceLevel)
		}
		duration := ""
		if j.DurationUsedMs != nil {
			duration = strconv.FormatInt(*j.DurationUsedMs, 10)
		}
		judgedAt := ""
		if j.JudgedAt != nil {
			judgedAt = j.JudgedAt.UTC().Format(time.RFC3339)
		}

		fmt.Fprintf(&buf, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			j.QueryID, j.DocumentID, j.UserID, level,
			strings.Join(positions, " "), duration, judgedAt)
	}

	if archiveSnapshot && s.archive != nil {
		key := fmt.Sprintf("exports/judgements-%s.tsv", time.Now().UTC().Format("20060102-150405"))
		if err := s.archive.Put(ctx, key, bytes.NewReader(buf.Bytes())); err != nil {
			return nil, fmt.Errorf("failed to archive export snapshot: %w", err)
		}
		log.Printf("Archived export snapshot as %s", key)
	}

	return buf.Bytes(), nil
}

// ArchivedExport streams a previously archived export snapshot by key. The
// caller owns the returned reader.
func (s *AdminService) ArchivedExport(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.archive == nil {
		return nil, ErrNoArchive
	}
	return s.archive.Get(ctx, key)
}

// GetConfig retrieves the config singleton
func (s *AdminService) GetConfig(ctx context.Context) (*models.Config, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return cfg, nil
}

// UpdateConfig validates and updates the config singleton
func (s *AdminService) UpdateConfig(ctx context.Context, cfg *models.Config) error {
	if cfg.AnnotationTargetPerUser < 1 || cfg.AnnotationTargetPerJudgPair < 1 {
		return fmt.Errorf("%w: annotation targets must be positive", ErrInvalidConfig)
	}
	if cfg.JudgementMode != models.ModeScoring && cfg.JudgementMode != models.ModeRanking {
		return fmt.Errorf("%w: unknown judgement mode %q", ErrInvalidConfig, cfg.JudgementMode)
	}
	return s.config.Update(ctx, cfg)
}

func parsePairsTSV(r io.Reader) ([]models.JudgementPair, error) {
	var pairs []models.JudgementPair

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: line %d has %d fields, want 3", ErrMalformedImport, line, len(fields))
		}

		pair := models.JudgementPair{
			DocumentID: fields[0],
			QueryID:    fields[1],
			Priority:   fields[2],
		}
		if _, numeric := pair.NumericPriority(); !numeric && pair.Priority != models.PriorityAll {
			return nil, fmt.Errorf("%w: line %d has priority %q, want a number or %q",
				ErrMalformedImport, line, pair.Priority, models.PriorityAll)
		}
		pairs = append(pairs, pair)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, ErrEmptyImport
	}

	return pairs, nil
}

type textRow struct {
	id   string
	text string
}

func parseTextTSV(r io.Reader) ([]textRow, error) {
	var rows []textRow

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" {
			continue
		}

		// the text itself may contain no tabs, so split once
		id, body, found := strings.Cut(text, "\t")
		if !found || id == "" || body == "" {
			return nil, fmt.Errorf("%w: line %d, want id<TAB>text", ErrMalformedImport, line)
		}
		rows = append(rows, textRow{id: id, text: body})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyImport
	}

	return rows, nil
}
