package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/securebank-mz/support-agent-go/internal/domain"
	"github.com/securebank-mz/support-agent-go/internal/infra/observability"
	"github.com/securebank-mz/support-agent-go/internal/port"
)

const faqCacheName = "faqs"

// FAQService serves knowledge-base browsing and view counts. Listings
// ride a TTL cache so browse traffic stays off the store.
type FAQService struct {
	store   port.FAQStore
	views   port.ViewCounter
	cache   port.Cache[[]domain.FAQ]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewFAQService creates the FAQ browsing service.
func NewFAQService(store port.FAQStore, views port.ViewCounter, cache port.Cache[[]domain.FAQ], metrics *observability.Metrics, logger *zap.Logger) *FAQService {
	return &FAQService{
		store:   store,
		views:   views,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// FAQFilter narrows a listing. Zero value means no filtering.
type FAQFilter struct {
	Category string
	Search   string
	Language domain.Language
}

// List returns the single-language projection of all FAQs matching the
// filter, with their current view counts.
func (s *FAQService) List(ctx context.Context, filter FAQFilter) (*domain.FAQList, error) {
	ctx, span := tracer.Start(ctx, "service.ListFAQs")
	defer span.End()

	lang := filter.Language
	if !lang.Valid() {
		lang = domain.LanguagePT
	}

	faqs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	// One batched counter lookup per listing; stored totals are the
	// fallback when the counter is unavailable.
	counts, err := s.views.Counts(ctx)
	if err != nil {
		s.logger.Warn("view counts unavailable, using stored totals", zap.Error(err))
		counts = nil
	}

	search := strings.ToLower(filter.Search)
	views := make([]domain.FAQView, 0, len(faqs))
	for i := range faqs {
		faq := &faqs[i]
		if filter.Category != "" && !strings.EqualFold(faq.Category, filter.Category) {
			continue
		}
		question := faq.Question(lang)
		answer := faq.Answer(lang)
		if search != "" &&
			!strings.Contains(strings.ToLower(question), search) &&
			!strings.Contains(strings.ToLower(answer), search) {
			continue
		}

		count := faq.Views
		if n, ok := counts[faq.ID]; ok {
			count = n
		}
		views = append(views, domain.FAQView{
			ID:       faq.ID,
			Question: question,
			Answer:   answer,
			Category: faq.Category,
			Views:    count,
		})
	}

	return &domain.FAQList{FAQs: views, Total: len(views)}, nil
}

// RecordView bumps the view count for faqID and returns the new value.
// Unknown IDs yield ErrNotFound.
func (s *FAQService) RecordView(ctx context.Context, faqID string) (int, error) {
	ctx, span := tracer.Start(ctx, "service.RecordFAQView")
	defer span.End()

	if err := s.exists(ctx, faqID); err != nil {
		return 0, err
	}
	return s.views.Increment(ctx, faqID)
}

// ViewCount returns the current view count for faqID. Unknown IDs yield
// ErrNotFound.
func (s *FAQService) ViewCount(ctx context.Context, faqID string) (int, error) {
	if err := s.exists(ctx, faqID); err != nil {
		return 0, err
	}
	return s.views.Get(ctx, faqID)
}

func (s *FAQService) exists(ctx context.Context, faqID string) error {
	faqs, err := s.load(ctx)
	if err != nil {
		return err
	}
	for i := range faqs {
		if faqs[i].ID == faqID {
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "faq", ID: faqID}
}

// load fetches the raw FAQ list, cache first.
func (s *FAQService) load(ctx context.Context) ([]domain.FAQ, error) {
	if faqs, ok := s.cache.Get(faqCacheName); ok {
		s.metrics.IncrCacheHit(faqCacheName)
		return faqs, nil
	}
	s.metrics.IncrCacheMiss(faqCacheName)

	faqs, err := s.store.ListFAQs(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(faqCacheName, faqs)
	return faqs, nil
}
