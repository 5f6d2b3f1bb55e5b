package compliance

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/FairForge/dctip/internal/blob"
	"github.com/FairForge/dctip/internal/metrics"
	"go.uber.org/zap"
)

// Service is the compliance core: control catalog, score, audits, documents and reports.
type Service struct {
	store   Store
	threats ThreatStats
	ledger  Ledger
	blobs   blob.Store
	metrics *metrics.Metrics
	logger  *zap.Logger

	now                func() time.Time
	estimateUnmeasured bool
	auditHistory       int

	rndMu sync.Mutex
	rnd   *rand.Rand
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand sets the source used to estimate unmeasured standard scores.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rnd = r }
}

// WithBlobStore stores uploaded document content. Without one, content is
// decoded and discarded.
func WithBlobStore(b blob.Store) Option {
	return func(s *Service) { s.blobs = b }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithEstimateUnmeasured fills standards that have no controls with a
// jittered copy of the overall score. They are still reported as unmeasured.
func WithEstimateUnmeasured(enabled bool) Option {
	return func(s *Service) { s.estimateUnmeasured = enabled }
}

// WithAuditHistoryLimit caps how many audits one listing may return.
func WithAuditHistoryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.auditHistory = n
		}
	}
}

func NewService(store Store, threats ThreatStats, ledger Ledger, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:        store,
		threats:      threats,
		ledger:       ledger,
		logger:       logger,
		now:          time.Now,
		rnd:          rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x2545f4914f6cdd1d)), // #nosec G404 -- estimate jitter only
		auditHistory: DefaultAuditHistory,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// jitter draws from [-5, 5).
func (s *Service) jitter() float64 {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.rnd.Float64()*10 - 5
}
