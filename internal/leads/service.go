package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/smp-leadform/internal/analytics"
	"github.com/wolfman30/smp-leadform/internal/crm"
	"github.com/wolfman30/smp-leadform/internal/dispatch"
	"github.com/wolfman30/smp-leadform/internal/form"
	"github.com/wolfman30/smp-leadform/internal/notify"
	"github.com/wolfman30/smp-leadform/internal/observability/metrics"
	"github.com/wolfman30/smp-leadform/internal/session"
	"github.com/wolfman30/smp-leadform/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("leadform/leads")

// Dispatcher posts a finished lead.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload []byte) dispatch.Result
}

// Notifier tells the business owner about a new lead.
type Notifier interface {
	NotifyNewLead(ctx context.Context, notice notify.LeadNotice) error
}

// Options are the form behaviour settings.
type Options struct {
	Rules              form.Rules
	Thresholds         form.Thresholds
	Delays             form.Delays
	AutoAdvance        bool
	KeyboardNavigation bool
	ShowProgressBar    bool
	Redirect           string
	// WebsiteURL is offered next to the redirect on the confirmation step.
	WebsiteURL string
	// Variant is stamped on sessions and leads; empty when A/B testing is off.
	Variant string
}

// DefaultOptions mirrors the landing page defaults.
func DefaultOptions() Options {
	return Options{
		Rules:              form.DefaultRules(),
		Thresholds:         form.DefaultThresholds(),
		Delays:             form.DefaultDelays(),
		AutoAdvance:        true,
		KeyboardNavigation: true,
		ShowProgressBar:    true,
		Redirect:           "/thank-you",
	}
}

// Config wires a Service. Store and Dispatcher are required.
type Config struct {
	Store      session.Store
	Progress   session.ProgressCache
	Dispatcher Dispatcher
	Tracker    analytics.Tracker
	Notifier   Notifier
	CRM        crm.Forwarder
	Metrics    *metrics.FormMetrics
	Scheduler  *form.Scheduler
	Options    Options
	Logger     *logging.Logger

	Now   func() time.Time
	NewID func() string
}

// Service owns the form flow of every visitor session.
type Service struct {
	store      session.Store
	progress   session.ProgressCache
	dispatcher Dispatcher
	tracker    analytics.Tracker
	notifier   Notifier
	crm        crm.Forwarder
	metrics    *metrics.FormMetrics
	scheduler  *form.Scheduler
	opts       Options
	logger     *logging.Logger
	now        func() time.Time
	newID      func() string
	locks      keyedMutex
	pending    pendingInput
}

// NewService builds a Service from cfg, filling defaults for optional parts.
func NewService(cfg Config) *Service {
	if cfg.Store == nil {
		panic("leads: session store cannot be nil")
	}
	if cfg.Dispatcher == nil {
		panic("leads: dispatcher cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Progress == nil {
		cfg.Progress = session.NewMemoryProgress()
	}
	if cfg.Tracker == nil {
		cfg.Tracker = analytics.Multi{}
	}
	if cfg.CRM == nil {
		cfg.CRM = crm.Nop{}
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = form.NewScheduler()
	}
	if cfg.Options.Redirect == "" {
		cfg.Options.Redirect = "/thank-you"
	}
	if cfg.Options.Delays == (form.Delays{}) {
		cfg.Options.Delays = form.DefaultDelays()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Service{
		store:      cfg.Store,
		progress:   cfg.Progress,
		dispatcher: cfg.Dispatcher,
		tracker:    cfg.Tracker,
		notifier:   cfg.Notifier,
		crm:        cfg.CRM,
		metrics:    cfg.Metrics,
		scheduler:  cfg.Scheduler,
		opts:       cfg.Options,
		logger:     cfg.Logger,
		now:        cfg.Now,
		newID:      cfg.NewID,
		locks:      keyedMutex{locks: make(map[string]*refLock)},
		pending:    pendingInput{values: make(map[string]url.Values)},
	}
}

// Start opens a session on the first step, capturing the attribution
// parameters of the landing URL.
func (s *Service) Start(ctx context.Context, query url.Values) (*session.Session, error) {
	sess := session.New(s.newID(), s.now())
	sess.Answers.CaptureAttribution(query)
	sess.Variant = s.opts.Variant
	sess.ScrollToTop = true

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("leads: save session: %w", err)
	}
	s.logger.Info("form session started", "session_id", sess.ID, "utm_source", sess.Answers.UTMSource, "variant", sess.Variant)
	return sess, nil
}

// Get returns the session with id.
func (s *Service) Get(ctx context.Context, id string) (*session.Session, error) {
	return s.load(ctx, id)
}

// Advance validates the fields of step and, when they pass, moves to the
// next step. A failing step keeps the session in place with its error set;
// the returned session reflects that state alongside a *ValidationError.
func (s *Service) Advance(ctx context.Context, id string, step int, values url.Values) (*session.Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkStep(sess, step); err != nil {
		return sess, err
	}
	return s.advance(ctx, sess, values)
}

// Back moves one step back. On the first step it is a no-op.
func (s *Service) Back(ctx context.Context, id string) (*session.Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Completed {
		return sess, ErrAlreadySubmitted
	}
	next, _, ok := form.Back(sess.State())
	if !ok {
		return sess, nil
	}
	sess.Step = next.Step
	sess.ScrollToTop = false
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Change handles input on the visible step. It clears the step error. On
// choice steps with auto-advance on it also schedules a validate-and-advance.
// Zip input is kept as a normalized draft.
// The returned duration is the scheduled delay, zero when nothing was
// scheduled.
func (s *Service) Change(ctx context.Context, id string, step int, values url.Values) (*session.Session, time.Duration, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if err := checkStep(sess, step); err != nil {
		return sess, 0, err
	}
	def, _ := form.Lookup(step)
	switch def.Kind {
	case form.KindText:
		// Typed zip input keeps digits only, at most five.
		sess.Answers.ZipCode = form.NormalizeZip(values.Get(def.Field))
		sess.HideError(step)
		if err := s.save(ctx, sess); err != nil {
			return nil, 0, err
		}
		return sess, 0, nil
	case form.KindSingleChoice, form.KindMultiChoice:
	default:
		return sess, 0, nil
	}

	sess.HideError(step)
	if err := s.save(ctx, sess); err != nil {
		return nil, 0, err
	}
	if !s.opts.AutoAdvance {
		return sess, 0, nil
	}

	in := form.Extract(step, values)
	plan := form.AutoAdvanceFor(step, in, s.opts.Delays)
	key := timerKey(id, step)
	if plan.CancelPending {
		s.scheduler.Cancel(key)
	}
	if !plan.Schedule {
		s.pending.drop(key)
		return sess, 0, nil
	}

	// Every timer of the step acts on the latest selection, not the one
	// that scheduled it.
	s.pending.set(key, cloneValues(values))
	fire := func() { s.autoAdvance(id, step) }
	if plan.CancelPending {
		s.scheduler.Debounce(key, plan.Delay, fire)
	} else {
		s.scheduler.After(plan.Delay, fire)
	}
	return sess, plan.Delay, nil
}

// KeyPress advances the visible step on Enter when the key policy allows it.
func (s *Service) KeyPress(ctx context.Context, id, key, targetType string, values url.Values) (*session.Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.opts.KeyboardNavigation || sess.Completed || !form.EnterAdvances(sess.Step, key, targetType) {
		return sess, nil
	}
	return s.advance(ctx, sess, values)
}

// Submit validates the contact step, scores the lead and posts it to the
// webhooks. On success the session lands on the confirmation step.
func (s *Service) Submit(ctx context.Context, id string, values url.Values) (*session.Session, SubmitResult, error) {
	ctx, span := tracer.Start(ctx, "leads.submit")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", id))

	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, SubmitResult{}, err
	}
	if sess.Completed {
		return sess, SubmitResult{}, ErrAlreadySubmitted
	}
	if sess.Step != form.ContactStep {
		return sess, SubmitResult{}, ErrStepMismatch
	}

	res := form.Validate(form.ContactStep, form.Extract(form.ContactStep, values), s.opts.Rules)
	sess.Answers.Record(form.ContactStep, res)
	s.metrics.ObserveStep(form.ContactStep, res.Valid)
	if !res.Valid {
		sess.ShowError(form.ContactStep, res.Message, res.Fields)
		if err := s.save(ctx, sess); err != nil {
			return nil, SubmitResult{}, err
		}
		s.metrics.ObserveSubmission("invalid")
		return sess, SubmitResult{}, &ValidationError{Step: form.ContactStep, Message: res.Message, Fields: res.Fields}
	}
	sess.HideError(form.ContactStep)
	if !sess.Answers.Complete() {
		s.metrics.ObserveSubmission("incomplete")
		return sess, SubmitResult{}, ErrIncompleteAnswers
	}

	lead := NewLead(sess.Answers, s.now(), s.opts.Thresholds, sess.Variant)
	s.metrics.ObserveLeadScore(lead.LeadScore)
	span.SetAttributes(
		attribute.Int("lead.score", lead.LeadScore),
		attribute.String("lead.quality", lead.LeadQuality),
	)
	payload, err := json.Marshal(lead)
	if err != nil {
		return nil, SubmitResult{}, fmt.Errorf("leads: encode lead: %w", err)
	}

	sess.Submitting = true
	if err := s.save(ctx, sess); err != nil {
		return nil, SubmitResult{}, err
	}

	result := s.dispatcher.Dispatch(ctx, payload)
	sess.Submitting = false

	if err := result.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispatch failed")
		s.logger.Error("lead dispatch failed", "session_id", id, "error", err)
		s.metrics.ObserveSubmission("failed")
		sess.ShowError(form.ContactStep, MsgSubmitFailed, nil)
		if saveErr := s.saveSettled(ctx, sess); saveErr != nil {
			s.logger.Error("submitting flag not cleared", "session_id", id, "error", saveErr)
		}
		return sess, SubmitResult{}, fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}

	next, tr, _ := form.Next(sess.State())
	sess.Step = next.Step
	sess.ScrollToTop = tr.ScrollToTop
	sess.Completed = true
	// The lead is already delivered. A failed save is logged, not returned.
	if err := s.saveSettled(ctx, sess); err != nil {
		s.logger.Error("completed session not persisted", "session_id", id, "error", err)
	}
	s.metrics.ObserveSubmission("success")
	s.logger.Info("lead submitted", "session_id", id, "lead_score", lead.LeadScore, "lead_quality", lead.LeadQuality)

	s.afterSubmit(ctx, lead, payload)

	return sess, SubmitResult{
		Redirect:    s.opts.Redirect,
		WebsiteURL:  s.opts.WebsiteURL,
		LeadScore:   lead.LeadScore,
		LeadQuality: lead.LeadQuality,
	}, nil
}

// afterSubmit runs the best-effort side channels of a successful submit.
func (s *Service) afterSubmit(ctx context.Context, lead Lead, payload []byte) {
	s.tracker.TrackEvent(ctx, analytics.EventSubmitted, submittedProps(payload))
	s.tracker.TrackConversion(ctx, analytics.Conversion{
		Score:   lead.LeadScore,
		Quality: lead.LeadQuality,
		Variant: lead.Variant,
	})

	if s.notifier != nil {
		submittedAt, _ := time.Parse(TimestampLayout, lead.Timestamp)
		err := s.notifier.NotifyNewLead(ctx, notify.LeadNotice{
			Answers:     lead.Answers,
			Score:       lead.LeadScore,
			Quality:     lead.LeadQuality,
			Variant:     lead.Variant,
			SubmittedAt: submittedAt,
		})
		if err != nil {
			s.logger.Warn("lead notification failed", "error", err)
		}
	}

	if err := s.crm.Forward(ctx, payload); err != nil {
		s.logger.Warn("crm forward failed", "error", err)
	}
}

// SaveProgress stores the session's answers in the progress cache.
func (s *Service) SaveProgress(ctx context.Context, id string) error {
	sess, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.progress.Save(ctx, id, sess.Answers); err != nil {
		return fmt.Errorf("leads: save progress: %w", err)
	}
	return nil
}

// LoadProgress returns the cached answers, or nil when nothing is cached.
func (s *Service) LoadProgress(ctx context.Context, id string) (*form.Answers, error) {
	answers, err := s.progress.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("leads: load progress: %w", err)
	}
	return answers, nil
}

// ClearProgress drops the cached answers.
func (s *Service) ClearProgress(ctx context.Context, id string) error {
	if err := s.progress.Clear(ctx, id); err != nil {
		return fmt.Errorf("leads: clear progress: %w", err)
	}
	return nil
}

// Stop cancels every pending auto-advance.
func (s *Service) Stop() {
	s.scheduler.Stop()
}

// advance runs validate-and-next on the session's current step. The caller
// holds the session lock.
func (s *Service) advance(ctx context.Context, sess *session.Session, values url.Values) (*session.Session, error) {
	step := sess.Step
	if step == form.ContactStep {
		// The contact step only leaves through Submit.
		return sess, ErrInvalidStep
	}

	res := form.Validate(step, form.Extract(step, values), s.opts.Rules)
	sess.Answers.Record(step, res)
	s.metrics.ObserveStep(step, res.Valid)

	if !res.Valid {
		sess.ShowError(step, res.Message, res.Fields)
		if err := s.save(ctx, sess); err != nil {
			return nil, err
		}
		return sess, &ValidationError{Step: step, Message: res.Message, Fields: res.Fields}
	}

	sess.HideError(step)
	next, tr, _ := form.Next(sess.State())
	sess.Step = next.Step
	sess.ScrollToTop = tr.ScrollToTop
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	s.tracker.TrackEvent(ctx, analytics.EventStepViewed, analytics.StepViewed(next.Step))
	return sess, nil
}

// autoAdvance is the timer callback scheduled by Change. It only acts when
// the session is still on the step that scheduled it.
func (s *Service) autoAdvance(id string, step int) {
	ctx := context.Background()
	log := s.logger.With("session_id", id, "step", step)
	unlock := s.locks.Lock(id)
	defer unlock()

	values, ok := s.pending.take(timerKey(id, step))
	if !ok {
		// An earlier timer of the step already acted on the latest input.
		return
	}
	sess, err := s.load(ctx, id)
	if err != nil {
		log.Warn("auto-advance skipped", "error", err)
		return
	}
	if sess.Completed || sess.Step != step {
		log.Debug("stale auto-advance ignored", "current_step", sess.Step)
		return
	}
	if _, err := s.advance(ctx, sess, values); err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			log.Error("auto-advance failed", "error", err)
		}
	}
}

func (s *Service) load(ctx context.Context, id string) (*session.Session, error) {
	sess, err := s.store.Get(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("leads: load session: %w", err)
	}
	return sess, nil
}

func (s *Service) save(ctx context.Context, sess *session.Session) error {
	sess.UpdatedAt = s.now()
	if err := s.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("leads: save session: %w", err)
	}
	return nil
}

// saveSettled persists a session once its dispatch has settled. A failed
// save is retried once, detached from the request context.
func (s *Service) saveSettled(ctx context.Context, sess *session.Session) error {
	if err := s.save(ctx, sess); err == nil {
		return nil
	}
	retryCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return s.save(retryCtx, sess)
}

// submittedProps carries the full lead record on the form_submitted event.
func submittedProps(payload []byte) analytics.Props {
	props := analytics.Props{}
	_ = json.Unmarshal(payload, &props)
	return props
}

func checkStep(sess *session.Session, step int) error {
	if step < 1 || step > form.TotalSteps {
		return ErrInvalidStep
	}
	if sess.Completed {
		return ErrAlreadySubmitted
	}
	if step != sess.Step {
		return ErrStepMismatch
	}
	return nil
}

func timerKey(id string, step int) string {
	return fmt.Sprintf("%s:%d", id, step)
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// pendingInput holds the latest selection of each step with a scheduled
// auto-advance, keyed like the scheduler.
type pendingInput struct {
	mu     sync.Mutex
	values map[string]url.Values
}

func (p *pendingInput) set(key string, v url.Values) {
	p.mu.Lock()
	p.values[key] = v
	p.mu.Unlock()
}

func (p *pendingInput) take(key string) (url.Values, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[key]
	delete(p.values, key)
	return v, ok
}

func (p *pendingInput) drop(key string) {
	p.mu.Lock()
	delete(p.values, key)
	p.mu.Unlock()
}

// keyedMutex serialises work per session id.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

// Lock blocks until key is free and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
