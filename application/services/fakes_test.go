package services

import (
	"context"
	"sort"
	"time"

	"github.com/TPCMinistries/insight-engine/application/ports"
	"github.com/TPCMinistries/insight-engine/domain/core/entities"
	"github.com/TPCMinistries/insight-engine/domain/events"
	pkgerrors "github.com/TPCMinistries/insight-engine/pkg/errors"
)

// In-memory port implementations for service tests. None of them are safe for
// concurrent use beyond what the services themselves exercise.

type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time { return c.now }

type fakeCompletion struct {
	relationships    []ports.RelationshipCandidate
	relationshipsErr error
	insights         []ports.InsightCandidate
	insightsErr      error
	suggestions      []ports.SuggestionCandidate
	suggestionsErr   error

	generateCalls  int
	lastGeneration ports.GenerationContext
}

func (f *fakeCompletion) ExtractRelationships(ctx context.Context, transcript string) ([]ports.RelationshipCandidate, error) {
	return f.relationships, f.relationshipsErr
}

func (f *fakeCompletion) ExtractInsights(ctx context.Context, transcript string) ([]ports.InsightCandidate, error) {
	return f.insights, f.insightsErr
}

func (f *fakeCompletion) GenerateSuggestions(ctx context.Context, generation ports.GenerationContext) ([]ports.SuggestionCandidate, error) {
	f.generateCalls++
	f.lastGeneration = generation
	return f.suggestions, f.suggestionsErr
}

type fakeEdgeRepo struct {
	byNaturalKey map[string]*entities.Relationship
	upsertErr    error
}

func newFakeEdgeRepo() *fakeEdgeRepo {
	return &fakeEdgeRepo{byNaturalKey: make(map[string]*entities.Relationship)}
}

func (f *fakeEdgeRepo) Upsert(ctx context.Context, observation ports.EdgeObservation) (*entities.Relationship, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	key := entities.NaturalEdgeKey(observation.OrganizationID, observation.Source, observation.Target, observation.Type)
	if existing, ok := f.byNaturalKey[key]; ok {
		existing.Observe(observation.Strength, observation.Confidence)
		return existing, nil
	}
	edge, err := entities.NewRelationship(observation.OrganizationID, observation.Source, observation.Target, observation.Type, observation.Strength, observation.Confidence)
	if err != nil {
		return nil, err
	}
	f.byNaturalKey[key] = edge
	return edge, nil
}

func (f *fakeEdgeRepo) GetByID(ctx context.Context, organizationID, edgeID string) (*entities.Relationship, error) {
	for _, edge := range f.byNaturalKey {
		if edge.OrganizationID() == organizationID && edge.ID() == edgeID {
			return edge, nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("edge")
}

func (f *fakeEdgeRepo) GetEdges(ctx context.Context, organizationID string, filter ports.EdgeFilter) ([]*entities.Relationship, error) {
	var edges []*entities.Relationship
	for _, edge := range f.byNaturalKey {
		if edge.OrganizationID() != organizationID {
			continue
		}
		if !edge.IsActive() && !filter.IncludeInactive {
			continue
		}
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].NaturalKey() < edges[j].NaturalKey() })
	if filter.Limit > 0 && len(edges) > filter.Limit {
		edges = edges[:filter.Limit]
	}
	return edges, nil
}

func (f *fakeEdgeRepo) Deactivate(ctx context.Context, organizationID, edgeID string) error {
	edge, err := f.GetByID(ctx, organizationID, edgeID)
	if err != nil {
		return err
	}
	edge.Deactivate()
	return nil
}

type fakePreferenceRepo struct {
	byNaturalKey map[string]*entities.Preference
	deltas       []ports.PreferenceDelta
}

func newFakePreferenceRepo() *fakePreferenceRepo {
	return &fakePreferenceRepo{byNaturalKey: make(map[string]*entities.Preference)}
}

func (f *fakePreferenceRepo) ApplyDelta(ctx context.Context, delta ports.PreferenceDelta) (*entities.Preference, error) {
	f.deltas = append(f.deltas, delta)
	key := entities.NaturalPreferenceKey(delta.UserID, delta.Type, delta.Key)
	if existing, ok := f.byNaturalKey[key]; ok {
		existing.ApplyBoost(delta.Value, delta.Boost)
		if delta.IsExplicit {
			existing.MarkExplicit()
		}
		return existing, nil
	}
	pref, err := entities.NewPreference(delta.UserID, delta.OrganizationID, delta.Type, delta.Key, delta.Value, delta.Boost, delta.IsExplicit)
	if err != nil {
		return nil, err
	}
	f.byNaturalKey[key] = pref
	return pref, nil
}

func (f *fakePreferenceRepo) Get(ctx context.Context, userID, preferenceType, preferenceKey string) (*entities.Preference, error) {
	if pref, ok := f.byNaturalKey[entities.NaturalPreferenceKey(userID, preferenceType, preferenceKey)]; ok {
		return pref, nil
	}
	return nil, pkgerrors.NewNotFoundError("preference")
}

func (f *fakePreferenceRepo) GetActive(ctx context.Context, userID string) ([]*entities.Preference, error) {
	var prefs []*entities.Preference
	for _, pref := range f.byNaturalKey {
		if pref.UserID() == userID && pref.IsActive() {
			prefs = append(prefs, pref)
		}
	}
	sort.Slice(prefs, func(i, j int) bool { return prefs[i].NaturalKey() < prefs[j].NaturalKey() })
	return prefs, nil
}

type fakeInsightRepo struct {
	byID        map[string]*entities.Insight
	adjustments map[string][]float64
	topErr      error
}

func newFakeInsightRepo() *fakeInsightRepo {
	return &fakeInsightRepo{
		byID:        make(map[string]*entities.Insight),
		adjustments: make(map[string][]float64),
	}
}

func (f *fakeInsightRepo) Save(ctx context.Context, insight *entities.Insight) error {
	f.byID[insight.ID()] = insight
	return nil
}

func (f *fakeInsightRepo) GetByID(ctx context.Context, organizationID, insightID string) (*entities.Insight, error) {
	if insight, ok := f.byID[insightID]; ok && insight.OrganizationID() == organizationID {
		return insight, nil
	}
	return nil, pkgerrors.NewNotFoundError("insight")
}

func (f *fakeInsightRepo) GetTopByConfidence(ctx context.Context, organizationID, userID string, limit int) ([]*entities.Insight, error) {
	if f.topErr != nil {
		return nil, f.topErr
	}
	var insights []*entities.Insight
	for _, insight := range f.byID {
		if insight.OrganizationID() != organizationID || insight.Status() != entities.RecordStatusActive {
			continue
		}
		if insight.UserID() != "" && insight.UserID() != userID {
			continue
		}
		insights = append(insights, insight)
	}
	sort.Slice(insights, func(i, j int) bool { return insights[i].Confidence() > insights[j].Confidence() })
	if limit > 0 && len(insights) > limit {
		insights = insights[:limit]
	}
	return insights, nil
}

func (f *fakeInsightRepo) AdjustConfidence(ctx context.Context, organizationID, insightID string, delta float64) error {
	insight, err := f.GetByID(ctx, organizationID, insightID)
	if err != nil {
		return err
	}
	insight.Boost(delta)
	f.adjustments[insightID] = append(f.adjustments[insightID], delta)
	return nil
}

type fakePatternRepo struct {
	byID        map[string]*entities.Pattern
	adjustments map[string][]float64
}

func newFakePatternRepo() *fakePatternRepo {
	return &fakePatternRepo{
		byID:        make(map[string]*entities.Pattern),
		adjustments: make(map[string][]float64),
	}
}

func (f *fakePatternRepo) Save(ctx context.Context, pattern *entities.Pattern) error {
	f.byID[pattern.ID()] = pattern
	return nil
}

func (f *fakePatternRepo) GetByID(ctx context.Context, organizationID, patternID string) (*entities.Pattern, error) {
	if pattern, ok := f.byID[patternID]; ok && pattern.OrganizationID() == organizationID {
		return pattern, nil
	}
	return nil, pkgerrors.NewNotFoundError("pattern")
}

func (f *fakePatternRepo) GetTopByOccurrence(ctx context.Context, organizationID, userID string, limit int) ([]*entities.Pattern, error) {
	var patterns []*entities.Pattern
	for _, pattern := range f.byID {
		if pattern.OrganizationID() != organizationID || pattern.Status() != entities.RecordStatusActive {
			continue
		}
		if pattern.UserID() != "" && pattern.UserID() != userID {
			continue
		}
		patterns = append(patterns, pattern)
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].OccurrenceCount() > patterns[j].OccurrenceCount() })
	if limit > 0 && len(patterns) > limit {
		patterns = patterns[:limit]
	}
	return patterns, nil
}

func (f *fakePatternRepo) AdjustConfidence(ctx context.Context, organizationID, patternID string, delta float64) error {
	pattern, err := f.GetByID(ctx, organizationID, patternID)
	if err != nil {
		return err
	}
	if delta >= 0 {
		pattern.Boost(delta)
	} else {
		pattern.Decay(-delta)
	}
	f.adjustments[patternID] = append(f.adjustments[patternID], delta)
	return nil
}

type fakeSuggestionRepo struct {
	byID            map[string]*entities.Suggestion
	dismissedCounts map[string]int

	// conflictsRemaining makes the next N UpdateStatus calls lose their race
	conflictsRemaining int
	updateCalls        int
}

func newFakeSuggestionRepo() *fakeSuggestionRepo {
	return &fakeSuggestionRepo{
		byID:            make(map[string]*entities.Suggestion),
		dismissedCounts: make(map[string]int),
	}
}

func (f *fakeSuggestionRepo) Save(ctx context.Context, suggestion *entities.Suggestion) error {
	f.byID[suggestion.ID()] = suggestion
	return nil
}

// cloneSuggestion hands callers a detached copy, the way a real store would
func cloneSuggestion(s *entities.Suggestion) *entities.Suggestion {
	clone, _ := entities.ReconstructSuggestion(
		s.ID(), s.OrganizationID(), s.UserID(), s.Type(), s.Title(), s.Description(),
		s.RelevanceScore(), s.Confidence(), s.Priority(),
		s.BasedOnInsights(), s.BasedOnPatterns(), s.ContextTags(),
		s.Status(), s.SnoozedUntil(), s.DismissReason(),
		s.CreatedAt(), s.UpdatedAt(),
	)
	return clone
}

func (f *fakeSuggestionRepo) GetByID(ctx context.Context, organizationID, suggestionID string) (*entities.Suggestion, error) {
	if suggestion, ok := f.byID[suggestionID]; ok && suggestion.OrganizationID() == organizationID {
		return cloneSuggestion(suggestion), nil
	}
	return nil, pkgerrors.NewNotFoundError("suggestion")
}

func (f *fakeSuggestionRepo) GetRankable(ctx context.Context, organizationID, userID string, now time.Time) ([]*entities.Suggestion, error) {
	var rankable []*entities.Suggestion
	for _, suggestion := range f.byID {
		if suggestion.OrganizationID() != organizationID || suggestion.UserID() != userID {
			continue
		}
		if suggestion.IsRankable(now) {
			rankable = append(rankable, cloneSuggestion(suggestion))
		}
	}
	sort.Slice(rankable, func(i, j int) bool { return rankable[i].ID() < rankable[j].ID() })
	return rankable, nil
}

func (f *fakeSuggestionRepo) UpdateStatus(ctx context.Context, suggestion *entities.Suggestion, expected entities.SuggestionStatus) error {
	f.updateCalls++
	if f.conflictsRemaining > 0 {
		f.conflictsRemaining--
		return pkgerrors.NewConflictError("suggestion status changed concurrently")
	}
	f.byID[suggestion.ID()] = suggestion
	return nil
}

func (f *fakeSuggestionRepo) CountDismissedByType(ctx context.Context, organizationID, userID, suggestionType string) (int, error) {
	return f.dismissedCounts[suggestionType], nil
}

type fakePublisher struct {
	published []events.DomainEvent
}

func (f *fakePublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	f.published = append(f.published, event)
	return nil
}

func (f *fakePublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	f.published = append(f.published, batch...)
	return nil
}

func (f *fakePublisher) eventTypes() []string {
	types := make([]string, 0, len(f.published))
	for _, event := range f.published {
		types = append(types, event.GetEventType())
	}
	return types
}

type fakeCache struct {
	store   map[string]interface{}
	deleted []string
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string]interface{})}
}

func (f *fakeCache) Get(ctx context.Context, key string) (interface{}, bool) {
	value, ok := f.store[key]
	return value, ok
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttlSeconds int) error {
	f.store[key] = value
	f.sets++
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	delete(f.store, key)
	f.deleted = append(f.deleted, key)
	return nil
}
