package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soaringjerry/Solace/internal/assessment"
	"github.com/soaringjerry/Solace/internal/log"
	"github.com/soaringjerry/Solace/internal/metrics"
	"github.com/soaringjerry/Solace/internal/models"
	"github.com/soaringjerry/Solace/internal/utils"
)

const (
	DefaultSessionTTL = 2 * time.Hour
	maxSubjectIDLen   = 64
)

// HistoryStore persists completed assessments and the audit trail.
// GetEntry returns nil, nil when the entry does not exist.
type HistoryStore interface {
	AddEntry(e *models.Entry) error
	ListEntries(subjectID string) ([]*models.Entry, error)
	GetEntry(id string) (*models.Entry, error)
	AddAudit(e models.AuditEntry) error
}

type OptionView struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type QuestionView struct {
	ID         string                    `json:"id"`
	Type       assessment.QuestionType   `json:"type"`
	Prompt     string                    `json:"prompt"`
	Config     assessment.QuestionConfig `json:"config"`
	Options    []OptionView              `json:"options,omitempty"`
	Value      *assessment.Value         `json:"value,omitempty"`
	ValueLabel string                    `json:"value_label,omitempty"`
}

type SessionView struct {
	ID            string                  `json:"id"`
	SubjectID     string                  `json:"subject_id"`
	State         assessment.State        `json:"state"`
	Step          int                     `json:"step"`
	Total         int                     `json:"total"`
	Progress      float64                 `json:"progress"`
	Accepted      *bool                   `json:"accepted,omitempty"`
	Question      *QuestionView           `json:"question,omitempty"`
	Result        *assessment.SolaceScore `json:"result,omitempty"`
	CategoryLabel string                  `json:"category_label,omitempty"`
	EntryID       string                  `json:"entry_id,omitempty"`
}

type StartRequest struct {
	SubjectID string `json:"subject_id"`
	Locale    string `json:"-"`
}

type session struct {
	id        string
	subjectID string
	locale    string
	ctl       *assessment.Controller
	lastSeen  time.Time
	entryID   string
	// pending holds a completed result the store has not accepted yet.
	pending *models.Entry
}

// AssessmentService hosts in-flight assessment sessions. Each session owns a
// flow controller; all controllers are driven under one mutex.
type AssessmentService struct {
	catalog *assessment.Catalog
	engine  *assessment.Engine
	store   HistoryStore
	logger  *log.Logger
	metrics *metrics.Metrics
	ttl     time.Duration

	now         func() time.Time
	idGenerator func() string

	mu       sync.Mutex
	sessions map[string]*session
}

type AssessmentOption func(*AssessmentService)

func WithLogger(l *log.Logger) AssessmentOption {
	return func(s *AssessmentService) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) AssessmentOption {
	return func(s *AssessmentService) { s.metrics = m }
}

func WithSessionTTL(ttl time.Duration) AssessmentOption {
	return func(s *AssessmentService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func NewAssessmentService(catalog *assessment.Catalog, engine *assessment.Engine, store HistoryStore, opts ...AssessmentOption) *AssessmentService {
	s := &AssessmentService{
		catalog:     catalog,
		engine:      engine,
		store:       store,
		logger:      log.Default(),
		ttl:         DefaultSessionTTL,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: uuid.NewString,
		sessions:    map[string]*session{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AssessmentService) Catalog() *assessment.Catalog { return s.catalog }

func (s *AssessmentService) Start(req StartRequest) (*SessionView, error) {
	subject := strings.TrimSpace(req.SubjectID)
	if subject == "" {
		return nil, NewInvalidError("subject_id is required")
	}
	if len(subject) > maxSubjectIDLen {
		return nil, NewInvalidError("subject_id is too long")
	}
	s.Prune()

	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &session{
		id:        s.idGenerator(),
		subjectID: subject,
		locale:    req.Locale,
		ctl:       assessment.NewControllerAt(s.catalog, s.engine, s.now),
		lastSeen:  s.now(),
	}
	s.sessions[sess.id] = sess
	s.audit(sess, "session.started", "")
	if s.metrics != nil {
		s.metrics.SessionsStarted.Inc()
		s.metrics.ActiveSessions.Inc()
	}
	s.logger.Info("assessment started", "session_id", sess.id, "steps", len(sess.ctl.VisibleSteps()))
	return s.view(sess, nil), nil
}

func (s *AssessmentService) View(id string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return s.view(sess, nil), nil
}

// Answer submits raw input for a visible question. Input that fails
// validation is not an error: the view reports accepted=false and the
// previous value stays.
func (s *AssessmentService) Answer(id, questionID string, raw any) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	accepted, err := sess.ctl.Submit(questionID, raw)
	if err != nil {
		return nil, flowError(err)
	}
	if !accepted && s.metrics != nil {
		q, _ := s.catalog.Question(questionID)
		s.metrics.AnswersRejected.WithLabelValues(string(q.Type)).Inc()
	}
	return s.view(sess, &accepted), nil
}

// Nudge moves a numeric or scale answer by steps increments.
func (s *AssessmentService) Nudge(id, questionID string, steps int) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := sess.ctl.Nudge(questionID, steps); err != nil {
		return nil, flowError(err)
	}
	return s.view(sess, nil), nil
}

// Advance moves to the next step. Completing the flow persists the result
// as a history entry. When that save failed, advancing again retries it.
func (s *AssessmentService) Advance(id string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if sess.pending != nil {
		if err := s.persist(sess); err != nil {
			return nil, err
		}
		return s.view(sess, nil), nil
	}
	score, err := sess.ctl.Advance()
	if err != nil {
		return nil, flowError(err)
	}
	if score != nil {
		if err := s.complete(sess, *score); err != nil {
			return nil, err
		}
	}
	return s.view(sess, nil), nil
}

func (s *AssessmentService) Retreat(id string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := sess.ctl.Retreat(); err != nil {
		return nil, flowError(err)
	}
	return s.view(sess, nil), nil
}

// Abandon ends the session without scoring. Nothing is persisted besides the audit record.
func (s *AssessmentService) Abandon(id string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := sess.ctl.Abandon(); err != nil {
		return nil, flowError(err)
	}
	s.finished(sess, "abandoned")
	s.audit(sess, "session.abandoned", fmt.Sprintf("step %d/%d", sess.ctl.Index()+1, len(sess.ctl.VisibleSteps())))
	s.logger.Info("assessment abandoned", "session_id", sess.id)
	return s.view(sess, nil), nil
}

// Prune drops sessions idle for longer than the TTL. In-progress sessions are
// abandoned first. It returns the number of sessions removed.
func (s *AssessmentService) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.sessions {
		if !sess.lastSeen.Before(cutoff) {
			continue
		}
		if sess.pending != nil && s.persist(sess) != nil {
			continue
		}
		if sess.ctl.State() == assessment.StateInProgress {
			_ = sess.ctl.Abandon()
			s.finished(sess, "expired")
			s.audit(sess, "session.expired", "")
		}
		delete(s.sessions, id)
		removed++
	}
	if removed > 0 {
		s.logger.Debug("pruned idle sessions", "count", removed)
	}
	return removed
}

// Run prunes idle sessions every interval until ctx is done.
func (s *AssessmentService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Prune()
		}
	}
}

func (s *AssessmentService) complete(sess *session, score assessment.SolaceScore) error {
	answers := sess.ctl.Answers()
	entry := &models.Entry{
		HistoryEntry: assessment.HistoryEntry{
			ID:        s.idGenerator(),
			SubjectID: sess.subjectID,
			Date:      s.now(),
			Score:     score,
			MoodLabel: moodLabel(s.catalog, answers),
		},
		Locale:    sess.locale,
		StartedAt: sess.ctl.StartedAt(),
		Answers:   answers,
	}
	s.finished(sess, "completed")
	if s.metrics != nil {
		s.metrics.Scores.Observe(float64(score.Value))
		s.metrics.Categories.WithLabelValues(string(score.Category)).Inc()
		s.metrics.SessionDuration.Observe(entry.Date.Sub(entry.StartedAt).Seconds())
	}
	sess.pending = entry
	return s.persist(sess)
}

// persist saves the session's pending entry. On failure the entry stays
// pending so a later Advance or Prune can retry it.
func (s *AssessmentService) persist(sess *session) error {
	entry := sess.pending
	if err := s.store.AddEntry(entry); err != nil {
		if s.metrics != nil {
			s.metrics.PersistenceErrors.WithLabelValues("add_entry").Inc()
		}
		s.logger.WithError(err).Error("save assessment result", "session_id", sess.id)
		return fmt.Errorf("save result: %w", err)
	}
	sess.pending = nil
	sess.entryID = entry.ID
	s.audit(sess, "session.completed", entry.ID)
	s.logger.Info("assessment completed", "session_id", sess.id, "entry_id", entry.ID, "category", entry.Score.Category)
	return nil
}

func (s *AssessmentService) finished(sess *session, state string) {
	if s.metrics == nil {
		return
	}
	s.metrics.SessionsFinished.WithLabelValues(state).Inc()
	s.metrics.ActiveSessions.Dec()
}

func (s *AssessmentService) audit(sess *session, action, note string) {
	err := s.store.AddAudit(models.AuditEntry{
		Time:   s.now(),
		Actor:  sess.subjectID,
		Action: action,
		Target: sess.id,
		Note:   note,
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.PersistenceErrors.WithLabelValues("add_audit").Inc()
		}
		s.logger.WithError(err).Warn("audit write failed", "action", action)
	}
}

func (s *AssessmentService) lookup(id string) (*session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, NewNotFoundError("session not found")
	}
	sess.lastSeen = s.now()
	return sess, nil
}

func (s *AssessmentService) view(sess *session, accepted *bool) *SessionView {
	ctl := sess.ctl
	v := &SessionView{
		ID:        sess.id,
		SubjectID: sess.subjectID,
		State:     ctl.State(),
		Step:      ctl.Index() + 1,
		Total:     len(ctl.VisibleSteps()),
		Progress:  ctl.Progress(),
		Accepted:  accepted,
		EntryID:   sess.entryID,
	}
	if q, ok := ctl.CurrentQuestion(); ok {
		v.Question = questionView(q, ctl, sess.locale)
	}
	if res, ok := ctl.Result(); ok {
		if len(res.Recommendations) == 1 && res.Recommendations[0] == assessment.Affirmation {
			res.Recommendations = []string{utils.T(sess.locale, "affirmation")}
		}
		v.Result = &res
		v.CategoryLabel = utils.T(sess.locale, "category."+string(res.Category))
		v.Step = v.Total
	}
	return v
}

func questionView(q assessment.Question, ctl *assessment.Controller, locale string) *QuestionView {
	qv := &QuestionView{
		ID:     q.ID,
		Type:   q.Type,
		Prompt: q.Prompt(locale),
		Config: q.Config,
	}
	for _, o := range q.Config.Options {
		qv.Options = append(qv.Options, OptionView{ID: o.ID, Label: q.OptionLabel(o.ID, locale)})
	}
	if val, ok := ctl.Value(q.ID); ok {
		qv.Value = &val
		if val.Kind == assessment.KindNumber {
			qv.ValueLabel = q.Label(int(val.Number))
		}
	}
	return qv
}

func moodLabel(c *assessment.Catalog, answers assessment.Answers) string {
	q, ok := c.Question(assessment.QMood)
	if !ok {
		return ""
	}
	n, ok := answers.Number(assessment.QMood)
	if !ok {
		return ""
	}
	return q.Label(int(n))
}
