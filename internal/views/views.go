// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package views

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anupam-talentica/bookreview-client/internal/client"
	"github.com/anupam-talentica/bookreview-client/internal/models"
	"github.com/anupam-talentica/bookreview-client/internal/query"
	"github.com/anupam-talentica/bookreview-client/internal/session"
)

// Builder defaults, applied when Config leaves a field zero.
const (
	defaultHomeShelfSize     = 10
	defaultSimilarBooksLimit = 6
	defaultPageSize          = 20
	defaultMaxPageSize       = 100
)

// Config tunes view assembly. Zero values fall back to sensible defaults;
// stale times of zero fall back to the cache-wide default.
type Config struct {
	// RecommendationStaleTime and AIRecommendationStaleTime override the
	// cache default for the two recommendation sources, which are costlier
	// to compute server-side than catalog reads.
	RecommendationStaleTime   time.Duration
	AIRecommendationStaleTime time.Duration

	// DefaultPageSize and MaxPageSize bound catalog and search pagination.
	DefaultPageSize int
	MaxPageSize     int

	// HomeShelfSize is how many books each home shelf requests.
	HomeShelfSize int

	// SimilarBooksLimit is how many similar titles a detail page requests.
	SimilarBooksLimit int
}

// SessionState is the slice of the session manager the builder reads: just
// the current snapshot, to split authenticated from anonymous assembly.
type SessionState interface {
	State() session.State
}

// Builder assembles view models. All reads go through the query cache; the
// session supplies the authenticated/anonymous split that gates the
// personal sections.
type Builder struct {
	backend client.Backend
	cache   *query.Cache
	session SessionState
	cfg     Config

	// refreshSeq salts recommendation cache keys. Bumping it retires every
	// prior recommendation key at once.
	refreshSeq atomic.Int64
}

// NewBuilder wires a view builder over the backend, cache, and session.
func NewBuilder(backend client.Backend, cache *query.Cache, sess SessionState, cfg Config) *Builder {
	if cfg.HomeShelfSize <= 0 {
		cfg.HomeShelfSize = defaultHomeShelfSize
	}
	if cfg.SimilarBooksLimit <= 0 {
		cfg.SimilarBooksLimit = defaultSimilarBooksLimit
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = defaultPageSize
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = defaultMaxPageSize
	}
	return &Builder{
		backend: backend,
		cache:   cache,
		session: sess,
		cfg:     cfg,
	}
}

func (b *Builder) authenticated() bool {
	return b.session != nil && b.session.State().IsAuthenticated
}

// clampPage normalizes pagination input: negative pages become the first
// page, out-of-range sizes snap to the configured bounds.
func (b *Builder) clampPage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = b.cfg.DefaultPageSize
	}
	if size > b.cfg.MaxPageSize {
		size = b.cfg.MaxPageSize
	}
	return page, size
}

// HomeView is the landing screen: three shelves fetched independently so one
// failing source never blanks the whole page.
type HomeView struct {
	TopRated BookSection `json:"topRated"`
	Popular  BookSection `json:"popular"`
	Recent   BookSection `json:"recent"`
}

// Home assembles the landing screen. The three shelves fetch concurrently;
// each resolves its own state.
func (b *Builder) Home(ctx context.Context) HomeView {
	var view HomeView
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		view.TopRated = b.shelf(ctx, resourceTopRated, b.backend.TopRatedBooks,
			"No rated books yet. Reviews feed this shelf.")
	}()
	go func() {
		defer wg.Done()
		view.Popular = b.shelf(ctx, resourcePopular, b.backend.PopularBooks,
			"Nothing trending yet. Check back soon.")
	}()
	go func() {
		defer wg.Done()
		view.Recent = b.shelf(ctx, resourceRecent, b.backend.RecentBooks,
			"No new arrivals yet.")
	}()
	wg.Wait()
	return view
}

func (b *Builder) shelf(ctx context.Context, resource string, fetch func(context.Context, int) ([]models.Book, error), emptyMessage string) BookSection {
	limit := b.cfg.HomeShelfSize
	key := query.Key(resource, limitParams{Limit: limit})
	books, err := query.Fetch(ctx, b.cache, key, func(ctx context.Context) ([]models.Book, error) {
		return fetch(ctx, limit)
	}, query.Options{Enabled: true})
	return bookSection(books, err, emptyMessage)
}

// BooksView is one page of the catalog.
type BooksView struct {
	State     State            `json:"state"`
	Page      *models.BookPage `json:"page,omitempty"`
	Sort      string           `json:"sort,omitempty"`
	Message   string           `json:"message,omitempty"`
	Retryable bool             `json:"retryable,omitempty"`
}

// Books assembles a catalog page. Pagination input is clamped rather than
// rejected; the sort string passes through to the backend untouched.
func (b *Builder) Books(ctx context.Context, page, size int, sort string) BooksView {
	page, size = b.clampPage(page, size)
	key := query.Key(resourceBooks, pageParams{Page: page, Size: size, Sort: sort})
	result, err := query.Fetch(ctx, b.cache, key, func(ctx context.Context) (*models.BookPage, error) {
		return b.backend.Books(ctx, page, size, sort)
	}, query.Options{Enabled: true})
	if err != nil {
		msg, retryable := classify(err, loadFailedMessage)
		return BooksView{State: StateError, Sort: sort, Message: msg, Retryable: retryable}
	}
	if result == nil || len(result.Content) == 0 {
		return BooksView{State: StateEmpty, Sort: sort, Message: "The catalog has no books on this page."}
	}
	return BooksView{State: StateReady, Page: result, Sort: sort}
}

// FavoriteView is the favorite toggle on a detail page. It only exists for
// authenticated sessions.
type FavoriteView struct {
	State     State  `json:"state"`
	Favorited bool   `json:"favorited"`
	Message   string `json:"message,omitempty"`
}

// BookDetailView is one book's page: the record itself plus its reviews,
// similar titles, and (when signed in) the favorite toggle. The sub-sections
// are nil when the book record itself failed to load.
type BookDetailView struct {
	State     State        `json:"state"`
	Book      *models.Book `json:"book,omitempty"`
	Message   string       `json:"message,omitempty"`
	Retryable bool         `json:"retryable,omitempty"`

	Reviews  *ReviewSection `json:"reviews,omitempty"`
	Similar  *BookSection   `json:"similar,omitempty"`
	Favorite *FavoriteView  `json:"favorite,omitempty"`
}

// BookDetail assembles one book's page. The book record loads first; its
// satellite sections fetch concurrently only once the book exists. The
// favorite status is fetched only for authenticated sessions.
func (b *Builder) BookDetail(ctx context.Context, bookID int64) BookDetailView {
	bookKey := query.Key(bookResource(bookID), idParams{ID: bookID})
	book, err := query.Fetch(ctx, b.cache, bookKey, func(ctx context.Context) (*models.Book, error) {
		return b.backend.Book(ctx, bookID)
	}, query.Options{Enabled: true})
	if err != nil {
		if client.IsNotFound(err) {
			return BookDetailView{State: StateError, Message: "Book not found."}
		}
		msg, retryable := classify(err, loadFailedMessage)
		return BookDetailView{State: StateError, Message: msg, Retryable: retryable}
	}

	view := BookDetailView{State: StateReady, Book: book}
	authed := b.authenticated()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		section := b.bookReviews(ctx, bookID)
		view.Reviews = &section
	}()
	go func() {
		defer wg.Done()
		section := b.similarBooks(ctx, bookID)
		view.Similar = &section
	}()
	if authed {
		wg.Add(1)
		go func() {
			defer wg.Done()
			view.Favorite = b.favoriteStatus(ctx, bookID)
		}()
	}
	wg.Wait()
	return view
}

func (b *Builder) bookReviews(ctx context.Context, bookID int64) ReviewSection {
	key := query.Key(bookReviewsResource(bookID), idParams{ID: bookID})
	reviews, err := query.Fetch(ctx, b.cache, key, func(ctx context.Context) ([]models.Review, error) {
		return b.backend.BookReviews(ctx, bookID)
	}, query.Options{Enabled: true})
	return reviewSection(reviews, err, "No reviews yet. Be the first to share your take.")
}

func (b *Builder) similarBooks(ctx context.Context, bookID int64) BookSection {
	limit := b.cfg.SimilarBooksLimit
	key := query.Key(similarBooksResource(bookID), limitParams{Limit: limit})
	books, err := query.Fetch(ctx, b.cache, key, func(ctx context.Context) ([]models.Book, error) {
		return b.backend.SimilarBooks(ctx, bookID, limit)
	}, query.Options{Enabled: true})
	return bookSection(books, err, "No similar titles found.")
}

func (b *Builder) favoriteStatus(ctx context.Context, bookID int64) *FavoriteView {
	key := query.Key(favoriteStatusResource(bookID), idParams{ID: bookID})
	status, err := query.Fetch(ctx, b.cache, key, func(ctx context.Context) (*models.FavoriteStatus, error) {
		return b.backend.FavoriteStatus(ctx, bookID)
	}, query.Options{Enabled: b.authenticated()})
	if err != nil {
		msg, _ := classify(err, loadFailedMessage)
		return &FavoriteView{State: StateError, Message: msg}
	}
	return &FavoriteView{State: StateReady, Favorited: status.Favorited}
}

// SearchView is one page of search results. Query holds the trimmed term
// that was actually searched; a whitespace-only submission stays empty and
// never reaches the backend.
type SearchView struct {
	Query     string           `json:"query"`
	State     State            `json:"state"`
	Page      *models.BookPage `json:"page,omitempty"`
	Message   string           `json:"message,omitempty"`
	Retryable bool             `json:"retryable,omitempty"`
}

// Search assembles a search results page. The raw query is trimmed first; a
// blank result performs no fetch at all and returns guidance instead.
func (b *Builder) Search(ctx context.Context, rawQuery string, page, size int) SearchView {
	q := strings.TrimSpace(rawQuery)
	if q == "" {
		return SearchView{State: StateEmpty, Message: "Enter a title or author to search."}
	}
	page, size = b.clampPage(page, size)
	key := query.Key(resourceSearch, searchParams{Query: q, Page: page, Size: size})
	result, err := query.Fetch(ctx, b.cache, key, func(ctx context.Context) (*models.BookPage, error) {
		return b.backend.SearchBooks(ctx, q, page, size)
	}, query.Options{Enabled: true})
	if err != nil {
		msg, retryable := classify(err, loadFailedMessage)
		return SearchView{Query: q, State: StateError, Message: msg, Retryable: retryable}
	}
	if result == nil || len(result.Content) == 0 {
		return SearchView{Query: q, State: StateEmpty, Message: fmt.Sprintf("No books matched %q.", q)}
	}
	return SearchView{Query: q, State: StateReady, Page: result}
}

// Favorites assembles the signed-in user's favorites shelf.
func (b *Builder) Favorites(ctx context.Context) BookSection {
	key := query.Key(resourceFavorites, nil)
	books, err := query.Fetch(ctx, b.cache, key, func(ctx context.Context) ([]models.Book, error) {
		return b.backend.UserFavorites(ctx)
	}, query.Options{Enabled: b.authenticated()})
	return bookSection(books, err, "You haven't favorited any books yet. Browse the catalog to add some.")
}

// MyReviews assembles the signed-in user's review history.
func (b *Builder) MyReviews(ctx context.Context) ReviewSection {
	key := query.Key(resourceMyReviews, nil)
	reviews, err := query.Fetch(ctx, b.cache, key, func(ctx context.Context) ([]models.Review, error) {
		return b.backend.MyReviews(ctx)
	}, query.Options{Enabled: b.authenticated()})
	return reviewSection(reviews, err, "You haven't written any reviews yet.")
}
