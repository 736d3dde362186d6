package service

import (
	"context"

	"threadline/internal/cache"
	"threadline/internal/models"
	"threadline/internal/observability"
	"threadline/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FeedOptions tunes the FeedPaginator.
type FeedOptions struct {
	DefaultPageSize int
	// UseCache serves viewer-independent pages from Redis.
	UseCache bool
}

// FeedPaginator lists root threads newest first.
type FeedPaginator struct {
	threads repository.ThreadRepository
	builder summaryBuilder
	opts    FeedOptions
}

func NewFeedPaginator(threads repository.ThreadRepository, opts FeedOptions) *FeedPaginator {
	return &FeedPaginator{threads: threads, builder: summaryBuilder{threads: threads}, opts: opts}
}

// Page returns one page of the feed annotated for viewerID. Store failures yield an
// empty page.
func (p *FeedPaginator) Page(ctx context.Context, pageNumber, pageSize int, viewerID *uint) models.Page[models.ThreadSummary] {
	pageNumber, pageSize = normalizePage(pageNumber, pageSize, p.opts.DefaultPageSize)

	ctx, span := observability.StartSpan(ctx, "FeedPaginator.Page",
		attribute.Int("page.number", pageNumber), attribute.Int("page.size", pageSize))
	page, err := p.load(ctx, pageNumber, pageSize)
	observability.EndSpan(span, err)
	if err != nil {
		degraded(ctx, "feed", err)
		return models.EmptyPage[models.ThreadSummary]()
	}

	AnnotateSummaries(page.Items, viewerID)
	return page
}

func (p *FeedPaginator) load(ctx context.Context, pageNumber, pageSize int) (models.Page[models.ThreadSummary], error) {
	fetch := func() (models.Page[models.ThreadSummary], error) {
		return p.builder.page(ctx, pageNumber, pageSize, p.threads.ListRoots, p.threads.CountRoots)
	}
	if !p.opts.UseCache {
		return fetch()
	}
	gen, ok := cache.FeedGeneration(ctx)
	if !ok {
		return fetch()
	}

	var page models.Page[models.ThreadSummary]
	err := cache.Aside(ctx, "feed", cache.FeedPageKey(gen, pageNumber, pageSize), &page, cache.FeedPageTTL, func() error {
		fresh, err := fetch()
		page = fresh
		return err
	})
	if page.Items == nil {
		page.Items = []models.ThreadSummary{}
	}
	return page, err
}
