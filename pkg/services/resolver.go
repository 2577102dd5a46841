package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/windrose-energy/windrose-engine/pkg/llm"
	"github.com/windrose-energy/windrose-engine/pkg/models"
	"github.com/windrose-energy/windrose-engine/pkg/prompts"
	"github.com/windrose-energy/windrose-engine/pkg/repositories"
)

// resolverCacheTTL bounds the project name list cache. Lifecycle mutations
// call ClearCache, so this only matters for out-of-band store writes.
const resolverCacheTTL = 30 * time.Second

// currentProjectReferences are the pronouns and phrases that refer to the
// session's active project rather than naming one.
var currentProjectReferences = map[string]bool{
	"it": true, "this": true, "that": true, "current": true,
	"this project": true, "that project": true, "current project": true,
	"the current project": true, "active project": true, "the project": true,
}

// ProjectResolver maps a free-text project reference plus session context to
// a concrete project name, or to an ambiguity result listing the candidates.
type ProjectResolver interface {
	Resolve(ctx context.Context, query string, sessionCtx *models.SessionContext) (*models.Resolution, error)
	// ClearCache drops the cached project name list. Called after any
	// lifecycle mutation so the next resolution sees the new state.
	ClearCache()
}

type projectResolver struct {
	projects repositories.ProjectRepository
	chat     llm.ChatClient // optional; nil keeps resolution fully deterministic
	logger   *zap.Logger

	mu        sync.Mutex
	names     []string
	fetchedAt time.Time
}

// NewProjectResolver creates a resolver. chat may be nil; when set it is used
// as a best-effort ranker for ambiguous references and never a hard
// dependency.
func NewProjectResolver(projects repositories.ProjectRepository, chat llm.ChatClient, logger *zap.Logger) ProjectResolver {
	return &projectResolver{
		projects: projects,
		chat:     chat,
		logger:   logger.Named("resolver"),
	}
}

func (r *projectResolver) Resolve(ctx context.Context, query string, sessionCtx *models.SessionContext) (*models.Resolution, error) {
	reference := strings.ToLower(strings.TrimSpace(query))

	// Pronoun-style references resolve through the session.
	if reference == "" || currentProjectReferences[reference] {
		if sessionCtx != nil && sessionCtx.ActiveProject != "" {
			return &models.Resolution{ProjectName: sessionCtx.ActiveProject}, nil
		}
		return &models.Resolution{}, nil
	}

	names, err := r.projectNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load project names: %w", err)
	}

	// Exact match.
	for _, name := range names {
		if name == reference {
			return &models.Resolution{ProjectName: name}, nil
		}
	}

	// Normalized match ("Amarillo Wind Farm" -> amarillo-wind-farm).
	if normalized := NormalizeName(reference); normalized != "" {
		for _, name := range names {
			if name == normalized {
				return &models.Resolution{ProjectName: name}, nil
			}
		}
	}

	// Substring match. A single hit resolves; several are ambiguous.
	needle := strings.ReplaceAll(NormalizeName(reference), "-wind-farm", "")
	if needle == "" {
		needle = reference
	}
	var matches []string
	for _, name := range names {
		if strings.Contains(name, needle) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 1:
		return &models.Resolution{ProjectName: matches[0]}, nil
	case 0:
		// Session history as a last hint: a recent project mentioned by a
		// fragment of its name.
		if sessionCtx != nil {
			for _, h := range sessionCtx.ProjectHistory {
				if strings.Contains(h, needle) {
					return &models.Resolution{ProjectName: h}, nil
				}
			}
		}
		return &models.Resolution{}, nil
	}

	if picked := r.rankWithLLM(ctx, query, matches, sessionCtx); picked != "" {
		return &models.Resolution{ProjectName: picked}, nil
	}
	return &models.Resolution{IsAmbiguous: true, Matches: matches}, nil
}

// rankWithLLM asks the configured chat client to pick the best candidate.
// Returns "" (falling back to an ambiguity result) on any failure or when no
// client is configured.
func (r *projectResolver) rankWithLLM(ctx context.Context, query string, matches []string, sessionCtx *models.SessionContext) string {
	if r.chat == nil {
		return ""
	}

	var active string
	var history []string
	if sessionCtx != nil {
		active = sessionCtx.ActiveProject
		history = sessionCtx.ProjectHistory
	}
	prompt := prompts.BuildDisambiguationPrompt(query, active, history, matches)

	answer, err := r.chat.Complete(ctx, prompts.DisambiguationSystem, prompt)
	if err != nil {
		r.logger.Warn("LLM ranking failed, returning ambiguity result", zap.Error(err))
		return ""
	}

	answer = strings.TrimSpace(answer)
	for _, m := range matches {
		if answer == m {
			return m
		}
	}
	return ""
}

func (r *projectResolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = nil
	r.fetchedAt = time.Time{}
}

func (r *projectResolver) projectNames(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.names != nil && time.Since(r.fetchedAt) < resolverCacheTTL {
		return r.names, nil
	}

	projects, err := r.projects.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(projects))
	for _, p := range projects {
		names = append(names, p.ProjectName)
	}
	r.names = names
	r.fetchedAt = time.Now()
	return names, nil
}
