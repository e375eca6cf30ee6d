package usecases

import (
	"context"
	"errors"
	"iter"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/djbot/internal/modules/discjockey/application/ports"
	"github.com/sglre6355/djbot/internal/modules/discjockey/domain"
)

// mockJobRepo is an in-memory JobRepository for use case tests.
type mockJobRepo struct {
	mu     sync.Mutex
	jobs   []domain.Job
	nextID domain.JobID
}

func newMockJobRepo() *mockJobRepo {
	return &mockJobRepo{}
}

func (m *mockJobRepo) Insert(_ context.Context, job domain.Job) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	job.ID = m.nextID
	m.jobs = append(m.jobs, job)
	return job, nil
}

func (m *mockJobRepo) ClaimNext(_ context.Context, guildID snowflake.ID) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	best := -1
	for i, job := range m.jobs {
		if job.GuildID != guildID || job.StartTime != nil {
			continue
		}
		if best == -1 || job.CreatedOn.Before(m.jobs[best].CreatedOn) {
			best = i
		}
	}
	if best == -1 {
		return domain.Job{}, domain.ErrQueueEmpty
	}

	now := time.Now().UTC()
	m.jobs[best].StartTime = &now
	return m.jobs[best], nil
}

func (m *mockJobRepo) MarkFinished(_ context.Context, id domain.JobID, errNote string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, job := range m.jobs {
		if job.ID == id && job.EndTime == nil {
			now := time.Now().UTC()
			m.jobs[i].EndTime = &now
			m.jobs[i].ErrorNote = errNote
		}
	}
	return nil
}

func (m *mockJobRepo) matches(job domain.Job, guildID snowflake.ID, f domain.JobFilter) bool {
	if job.GuildID != guildID {
		return false
	}
	if f.PayloadName != "" && job.Payload.Name != f.PayloadName {
		return false
	}
	if f.UnstartedOnly && job.StartTime != nil {
		return false
	}
	return true
}

func (m *mockJobRepo) Remove(
	_ context.Context,
	guildID snowflake.ID,
	filter domain.JobFilter,
) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	m.jobs = slices.DeleteFunc(m.jobs, func(job domain.Job) bool {
		if m.matches(job, guildID, filter) {
			removed++
			return true
		}
		return false
	})
	return removed, nil
}

func (m *mockJobRepo) Count(
	_ context.Context,
	guildID snowflake.ID,
	filter domain.JobFilter,
) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, job := range m.jobs {
		if m.matches(job, guildID, filter) {
			count++
		}
	}
	return count, nil
}

func (m *mockJobRepo) ListOrdered(
	_ context.Context,
	guildID snowflake.ID,
) iter.Seq2[domain.Job, error] {
	return func(yield func(domain.Job, error) bool) {
		m.mu.Lock()
		snapshot := make([]domain.Job, 0, len(m.jobs))
		for _, job := range m.jobs {
			if job.GuildID == guildID {
				snapshot = append(snapshot, job)
			}
		}
		m.mu.Unlock()

		sort.Slice(snapshot, func(i, j int) bool {
			return snapshot[i].CreatedOn.Before(snapshot[j].CreatedOn)
		})
		for _, job := range snapshot {
			if !yield(job, nil) {
				return
			}
		}
	}
}

func (m *mockJobRepo) ResetAll(_ context.Context, guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, job := range m.jobs {
		if job.GuildID == guildID {
			m.jobs[i].StartTime = nil
			m.jobs[i].EndTime = nil
			m.jobs[i].ErrorNote = ""
		}
	}
	return nil
}

func (m *mockJobRepo) IsExhausted(_ context.Context, guildID snowflake.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.GuildID == guildID && job.StartTime == nil {
			return false, nil
		}
	}
	return true, nil
}

func (m *mockJobRepo) SweepOrphaned(_ context.Context, errNote string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var swept int64
	for i, job := range m.jobs {
		if job.StartTime != nil && job.EndTime == nil {
			now := time.Now().UTC()
			m.jobs[i].EndTime = &now
			m.jobs[i].ErrorNote = errNote
			swept++
		}
	}
	return swept, nil
}

func (m *mockJobRepo) get(id domain.JobID) (domain.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.ID == id {
			return job, true
		}
	}
	return domain.Job{}, false
}

// mockCatalogRepo is an in-memory CatalogRepository for use case tests.
type mockCatalogRepo struct {
	mu      sync.Mutex
	entries map[snowflake.ID]map[string]domain.MediaReference
}

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{entries: make(map[snowflake.ID]map[string]domain.MediaReference)}
}

func (m *mockCatalogRepo) guild(guildID snowflake.ID) map[string]domain.MediaReference {
	g, ok := m.entries[guildID]
	if !ok {
		g = make(map[string]domain.MediaReference)
		m.entries[guildID] = g
	}
	return g
}

func (m *mockCatalogRepo) Find(
	_ context.Context,
	guildID snowflake.ID,
	name string,
) (domain.MediaReference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.guild(guildID)[name]
	if !ok {
		return domain.MediaReference{}, domain.ErrNotFound
	}
	return entry, nil
}

func (m *mockCatalogRepo) Insert(
	_ context.Context,
	guildID snowflake.ID,
	entry domain.MediaReference,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.guild(guildID)
	if _, exists := g[entry.Name]; exists {
		return domain.ErrDuplicateName
	}
	g[entry.Name] = entry
	return nil
}

func (m *mockCatalogRepo) Delete(_ context.Context, guildID snowflake.ID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.guild(guildID)
	if _, exists := g[name]; !exists {
		return domain.ErrNotFound
	}
	delete(g, name)
	return nil
}

func (m *mockCatalogRepo) Rename(
	_ context.Context,
	guildID snowflake.ID,
	oldName, newName string,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.guild(guildID)
	if _, exists := g[newName]; exists {
		return domain.ErrDuplicateName
	}
	entry, exists := g[oldName]
	if !exists {
		return domain.ErrNotFound
	}
	delete(g, oldName)
	entry.Name = newName
	g[newName] = entry
	return nil
}

func (m *mockCatalogRepo) ListAll(
	_ context.Context,
	guildID snowflake.ID,
) iter.Seq2[domain.MediaReference, error] {
	return func(yield func(domain.MediaReference, error) bool) {
		m.mu.Lock()
		snapshot := make([]domain.MediaReference, 0, len(m.guild(guildID)))
		for _, entry := range m.guild(guildID) {
			snapshot = append(snapshot, entry)
		}
		m.mu.Unlock()

		sort.Slice(snapshot, func(i, j int) bool {
			return strings.Compare(snapshot[i].Name, snapshot[j].Name) < 0
		})
		for _, entry := range snapshot {
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// mockSessionRegistry is an in-memory SessionRegistry for use case tests.
type mockSessionRegistry struct {
	mu       sync.Mutex
	sessions map[snowflake.ID]*domain.PlaybackSession
}

func newMockSessionRegistry() *mockSessionRegistry {
	return &mockSessionRegistry{sessions: make(map[snowflake.ID]*domain.PlaybackSession)}
}

func (m *mockSessionRegistry) Get(guildID snowflake.ID) *domain.PlaybackSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[guildID]
}

func (m *mockSessionRegistry) GetOrCreate(
	guildID, voiceChannelID snowflake.ID,
) *domain.PlaybackSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[guildID]; ok {
		return sess
	}
	sess := domain.NewPlaybackSession(guildID, voiceChannelID)
	m.sessions[guildID] = sess
	return sess
}

func (m *mockSessionRegistry) Delete(guildID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, guildID)
}

// mockResolver resolves references from a fixed table.
type mockResolver struct {
	results map[string]*ports.ResolvedMedia
	err     error
	calls   int
}

func newMockResolver() *mockResolver {
	return &mockResolver{results: make(map[string]*ports.ResolvedMedia)}
}

func (m *mockResolver) Resolve(_ context.Context, reference string) (*ports.ResolvedMedia, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if result, ok := m.results[reference]; ok {
		return result, nil
	}
	return nil, domain.ErrResolutionFailed
}

// mockVoice records voice session calls.
type mockVoice struct {
	mu        sync.Mutex
	connected map[snowflake.ID]bool

	playCalls    []domain.JobID
	stopCalls    int
	pauseCalls   int
	resumeCalls  int
	volume       int
	joinErr      error
	playErr      error
	playFailures int
}

func newMockVoice() *mockVoice {
	return &mockVoice{connected: make(map[snowflake.ID]bool)}
}

func (m *mockVoice) JoinChannel(_ context.Context, guildID, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.joinErr != nil {
		return m.joinErr
	}
	m.connected[guildID] = true
	return nil
}

func (m *mockVoice) LeaveChannel(_ context.Context, guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.connected, guildID)
	return nil
}

// Play fails while playFailures > 0, consuming one failure per call;
// playErr makes every call fail.
func (m *mockVoice) Play(
	_ context.Context,
	_ snowflake.ID,
	jobID domain.JobID,
	_ string,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playFailures > 0 {
		m.playFailures--
		return errors.New("play request failed")
	}
	if m.playErr != nil {
		return m.playErr
	}
	m.playCalls = append(m.playCalls, jobID)
	return nil
}

func (m *mockVoice) Pause(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCalls++
	return nil
}

func (m *mockVoice) Resume(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumeCalls++
	return nil
}

func (m *mockVoice) Stop(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
	return nil
}

func (m *mockVoice) SetVolume(_ context.Context, _ snowflake.ID, percent int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = percent
	return nil
}

func (m *mockVoice) IsConnected(guildID snowflake.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected[guildID]
}

func (m *mockVoice) lastPlayed() (domain.JobID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.playCalls) == 0 {
		return 0, false
	}
	return m.playCalls[len(m.playCalls)-1], true
}

// newTestController wires a PlaybackController over fresh mocks.
func newTestController() (*PlaybackController, *mockJobRepo, *mockSessionRegistry, *mockResolver, *mockVoice) {
	jobs := newMockJobRepo()
	sessions := newMockSessionRegistry()
	resolver := newMockResolver()
	voice := newMockVoice()
	controller := NewPlaybackController(jobs, sessions, resolver, voice)
	return controller, jobs, sessions, resolver, voice
}

// resolvedMedia builds a resolver result for tests.
func resolvedMedia(title, streamRef string) *ports.ResolvedMedia {
	return &ports.ResolvedMedia{
		Title:           title,
		StreamRef:       streamRef,
		DurationSeconds: 180,
		Source:          "youtube",
	}
}

// queuedJob builds a job whose payload is already resolved.
func queuedJob(guildID snowflake.ID, name string, createdOn time.Time) domain.Job {
	return domain.Job{
		GuildID:   guildID,
		CreatedOn: createdOn,
		Priority:  domain.DefaultPriority,
		Payload: domain.MediaReference{
			Name:        name,
			URL:         "https://example.com/" + name,
			Description: name,
			Metadata:    domain.MediaMetadata{Title: name, StreamRef: "encoded:" + name},
		},
	}
}

// Interface checks for the mocks.
var (
	_ domain.JobRepository     = (*mockJobRepo)(nil)
	_ domain.CatalogRepository = (*mockCatalogRepo)(nil)
	_ domain.SessionRegistry   = (*mockSessionRegistry)(nil)
	_ ports.MediaResolver      = (*mockResolver)(nil)
	_ ports.VoiceSession       = (*mockVoice)(nil)
)
