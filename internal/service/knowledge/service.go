package knowledge

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode"

	"support-chat-backend/internal/apperror"
	"support-chat-backend/internal/database"
	"support-chat-backend/internal/identity"
	"support-chat-backend/internal/model"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/google/uuid"
)

const (
	MimeTypePlain    = "text/plain"
	MimeTypeMarkdown = "text/markdown"
	MimeTypeHTML     = "text/html"

	maxTitleLength   = 200
	maxContentLength = 100_000
	defaultLimit     = 3
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func New(db *database.Database) *Service {
	return NewWithRepository(NewDynamoRepository(db), time.Now)
}

func NewWithRepository(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, now: now}
}

type EntryInput struct {
	Title    string
	Content  string
	MimeType string
}

func (s *Service) AddEntry(ctx context.Context, op identity.Operator, input EntryInput) (model.KnowledgeEntryItem, error) {
	if err := op.Require(); err != nil {
		return model.KnowledgeEntryItem{}, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return model.KnowledgeEntryItem{}, apperror.BadRequest("Title is required")
	}
	if len(title) > maxTitleLength {
		return model.KnowledgeEntryItem{}, apperror.BadRequest("Title is too long")
	}

	mimeType := normalizeMimeType(input.MimeType)
	content, err := toMarkdown(mimeType, input.Content)
	if err != nil {
		return model.KnowledgeEntryItem{}, err
	}
	if content == "" {
		return model.KnowledgeEntryItem{}, apperror.BadRequest("Content is required")
	}
	if len(content) > maxContentLength {
		return model.KnowledgeEntryItem{}, apperror.BadRequest("Content is too long")
	}

	entry := model.KnowledgeEntryItem{
		OrganizationID: op.OrganizationID,
		EntryID:        uuid.NewString(),
		Title:          title,
		Content:        content,
		MimeType:       mimeType,
		CreatedAt:      s.now().UTC().Format(time.RFC3339),
	}
	if err := s.repo.PutEntry(ctx, entry); err != nil {
		return model.KnowledgeEntryItem{}, apperror.Internal("failed to save knowledge entry", err)
	}
	return entry, nil
}

func (s *Service) ListEntries(ctx context.Context, op identity.Operator) ([]model.KnowledgeEntryItem, error) {
	if err := op.Require(); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListEntries(ctx, op.OrganizationID)
	if err != nil {
		return nil, apperror.Internal("failed to list knowledge entries", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt > entries[j].CreatedAt })
	return entries, nil
}

func (s *Service) DeleteEntry(ctx context.Context, op identity.Operator, entryID string) error {
	if err := op.Require(); err != nil {
		return err
	}
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return apperror.BadRequest("Missing entry ID")
	}

	if _, err := s.repo.GetEntry(ctx, op.OrganizationID, entryID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperror.NotFound("Knowledge entry not found")
		}
		return apperror.Internal("failed to load knowledge entry", err)
	}
	if err := s.repo.DeleteEntry(ctx, op.OrganizationID, entryID); err != nil {
		return apperror.Internal("failed to delete knowledge entry", err)
	}
	return nil
}

// Search ranks the organization's entries by how many query terms they contain.
// Title matches count double. Entries without any match are dropped.
func (s *Service) Search(ctx context.Context, organizationID, query string, limit int) ([]model.KnowledgeEntryItem, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	entries, err := s.repo.ListEntries(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	type scored struct {
		entry model.KnowledgeEntryItem
		score int
	}
	var hits []scored
	for _, entry := range entries {
		score := overlap(terms, tokenize(entry.Title))*2 + overlap(terms, tokenize(entry.Content))
		if score > 0 {
			hits = append(hits, scored{entry: entry, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]model.KnowledgeEntryItem, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.entry)
	}
	return out, nil
}

func normalizeMimeType(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" {
		return MimeTypePlain
	}
	return mimeType
}

func toMarkdown(mimeType, content string) (string, error) {
	switch mimeType {
	case MimeTypePlain, MimeTypeMarkdown:
		return strings.TrimSpace(content), nil
	case MimeTypeHTML:
		md, err := htmltomarkdown.ConvertString(content)
		if err != nil {
			return "", apperror.BadRequest("Could not convert HTML content")
		}
		return strings.TrimSpace(md), nil
	}
	return "", apperror.BadRequest("Unsupported content type")
}

func tokenize(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, field := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if len(field) > 2 {
			terms[field] = struct{}{}
		}
	}
	return terms
}

func overlap(query, doc map[string]struct{}) int {
	n := 0
	for term := range query {
		if _, ok := doc[term]; ok {
			n++
		}
	}
	return n
}
