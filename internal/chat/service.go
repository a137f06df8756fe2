package chat

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	synister "github.com/ChitterSync/SynisterChat"
	"github.com/ChitterSync/SynisterChat/memory"
	"github.com/ChitterSync/SynisterChat/session"
	"github.com/sirupsen/logrus"
)

// FallbackReply is stored when the model cannot be reached.
const FallbackReply = "Sorry, I couldn't get a response."

var (
	// ErrEmptyMessage is returned for blank user messages.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrEmptyTitle is returned when renaming to a blank title.
	ErrEmptyTitle = errors.New("title is empty")
)

// Completer produces the assistant reply for a transcript.
type Completer interface {
	Complete(ctx context.Context, msgs []session.TranscriptEntry) (string, error)
}

// Titler summarizes a first message into a session title.
type Titler interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Reply is the outcome of SendMessage.
type Reply struct {
	Session *session.Record `json:"session"`
	Reply   string          `json:"reply"`
	Delta   memory.Delta    `json:"memory"`
}

// Service runs chat turns against an owner-scoped session store.
type Service struct {
	store        session.Store
	completer    Completer
	titler       Titler
	recall       *memory.Recall
	topK         int
	tokenLimit   int
	titleTimeout time.Duration
	log          logrus.FieldLogger

	wg sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithTitler enables asynchronous title summarization after the first turn.
func WithTitler(t Titler) Option {
	return func(s *Service) { s.titler = t }
}

// WithRecall indexes memory facts and, once a session holds more than topK
// facts, sends only the topK most relevant ones with each prompt.
func WithRecall(r *memory.Recall, topK int) Option {
	return func(s *Service) {
		s.recall = r
		s.topK = topK
	}
}

// WithTokenLimit caps the estimated prompt size.
func WithTokenLimit(n int) Option {
	return func(s *Service) { s.tokenLimit = n }
}

// WithTitleTimeout bounds the background title request.
func WithTitleTimeout(d time.Duration) Option {
	return func(s *Service) { s.titleTimeout = d }
}

// WithLogger sets the service logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

// NewService creates a Service.
func NewService(store session.Store, completer Completer, opts ...Option) *Service {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Service{
		store:        store,
		completer:    completer,
		titleTimeout: 15 * time.Second,
		log:          discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListSessions returns the owner's sessions, newest first. An owner without
// sessions gets one default session, which is persisted.
func (s *Service) ListSessions(ctx context.Context, owner string) ([]*session.Record, error) {
	all, err := s.store.GetAll(ctx, owner)
	if err != nil {
		return nil, err
	}

	if len(all) == 0 {
		rec, err := s.CreateSession(ctx, owner)
		if err != nil {
			return nil, err
		}
		return []*session.Record{rec}, nil
	}

	out := make([]*session.Record, 0, len(all))
	for _, rec := range all {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Created != out[j].Created {
			return out[i].Created > out[j].Created
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetSession returns one session.
func (s *Service) GetSession(ctx context.Context, owner, id string) (*session.Record, error) {
	return s.store.Get(ctx, owner, id)
}

// SaveSession normalizes a client-supplied record and stores it under id.
func (s *Service) SaveSession(ctx context.Context, owner, id string, raw map[string]any) (*session.Record, error) {
	rec := session.Normalize(raw)
	rec.ID = id
	if err := s.store.Set(ctx, owner, id, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// CreateSession stores and returns a fresh default session.
func (s *Service) CreateSession(ctx context.Context, owner string) (*session.Record, error) {
	rec := session.NewRecord("")
	if err := s.store.Set(ctx, owner, rec.ID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Rename sets a session title.
func (s *Service) Rename(ctx context.Context, owner, id, title string) (*session.Record, error) {
	return s.update(ctx, owner, id, func(rec *session.Record) error {
		if !session.Rename(rec, title) {
			return ErrEmptyTitle
		}
		return nil
	})
}

// ClearHistory resets a session's messages and keeps its memory.
func (s *Service) ClearHistory(ctx context.Context, owner, id string) (*session.Record, error) {
	return s.update(ctx, owner, id, func(rec *session.Record) error {
		session.ClearHistory(rec)
		return nil
	})
}

// ResetMemory drops every fact of a session.
func (s *Service) ResetMemory(ctx context.Context, owner, id string) (*session.Record, error) {
	rec, err := s.update(ctx, owner, id, func(rec *session.Record) error {
		session.ResetMemory(rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.forget(ctx, owner, id)
	return rec, nil
}

// DeleteSession removes one session.
func (s *Service) DeleteSession(ctx context.Context, owner, id string) error {
	if err := s.store.Delete(ctx, owner, id); err != nil {
		return err
	}
	s.forget(ctx, owner, id)
	return nil
}

// ClearAll removes every session of owner.
func (s *Service) ClearAll(ctx context.Context, owner string) error {
	if err := s.store.Clear(ctx, owner); err != nil {
		return err
	}
	s.forget(ctx, owner, "")
	return nil
}

// Complete forwards a transcript to the model.
func (s *Service) Complete(ctx context.Context, msgs []session.TranscriptEntry) (string, error) {
	return s.completer.Complete(ctx, msgs)
}

// SendMessage runs one chat turn: the message and its memory delta are
// persisted first, then the model reply is appended and persisted. A failed
// completion stores FallbackReply instead. A missing session is created.
func (s *Service) SendMessage(ctx context.Context, owner, id, text string) (*Reply, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	rec, err := s.store.Get(ctx, owner, id)
	if errors.Is(err, synister.ErrNotFound) {
		rec, err = session.NewRecord(id), nil
	}
	if err != nil {
		return nil, err
	}

	turn := session.ApplyTurn(rec, text)
	if err := s.store.Set(ctx, owner, id, rec); err != nil {
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{"owner": owner, "session_id": id})
	if !turn.Delta.Empty() {
		log.WithFields(logrus.Fields{
			"add":    len(turn.Delta.Add),
			"remove": len(turn.Delta.Remove),
			"update": len(turn.Delta.Update),
		}).Debug("memory updated")
		s.sync(ctx, owner, rec)
	}

	prompt := session.ComposePrompt(rec, session.PromptOptions{
		Facts:       s.relevant(ctx, owner, rec, text),
		TokenBudget: s.tokenLimit,
	})

	reply, err := s.completer.Complete(ctx, prompt)
	if err != nil || reply == "" {
		log.WithError(err).Warn("completion failed")
		reply = FallbackReply
	}

	session.AppendReply(rec, reply)
	if err := s.store.Set(ctx, owner, id, rec); err != nil {
		return nil, err
	}

	if turn.First && s.titler != nil {
		s.wg.Add(1)
		go s.retitle(owner, id, text)
	}

	return &Reply{Session: rec, Reply: reply, Delta: turn.Delta}, nil
}

// Wait blocks until background title jobs finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) update(ctx context.Context, owner, id string, fn func(*session.Record) error) (*session.Record, error) {
	rec, err := s.store.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, owner, id, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// retitle replaces the derived title with a model summary. The record is
// re-read so that a concurrent turn is not overwritten with stale content.
func (s *Service) retitle(owner, id, text string) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.titleTimeout)
	defer cancel()

	log := s.log.WithFields(logrus.Fields{"owner": owner, "session_id": id})
	title, err := s.titler.Summarize(ctx, text)
	if err != nil {
		log.WithError(err).Warn("title summarization failed")
		return
	}

	if _, err := s.Rename(ctx, owner, id, title); err != nil {
		log.WithError(err).Warn("saving summarized title failed")
	}
}

func (s *Service) relevant(ctx context.Context, owner string, rec *session.Record, query string) []string {
	if s.recall == nil || s.topK <= 0 || len(rec.Memory) <= s.topK {
		return nil
	}
	facts, err := s.recall.Relevant(ctx, owner, rec.ID, query, s.topK)
	if err != nil || len(facts) == 0 {
		if err != nil {
			s.log.WithError(err).Warn("memory recall failed")
		}
		return nil
	}
	return facts
}

func (s *Service) sync(ctx context.Context, owner string, rec *session.Record) {
	if s.recall == nil {
		return
	}
	if err := s.recall.Sync(ctx, owner, rec.ID, rec.Memory); err != nil {
		s.log.WithError(err).Warn("memory index sync failed")
	}
}

func (s *Service) forget(ctx context.Context, owner, id string) {
	if s.recall == nil {
		return
	}
	if err := s.recall.Forget(ctx, owner, id); err != nil {
		s.log.WithError(err).Warn("memory index cleanup failed")
	}
}
