// Package listing coordinates supply and demand writes across the relational
// store and the search index, and serves the listing HTTP surface.
package listing

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"realestate-backend/internal/audit"
	"realestate-backend/internal/cache"
	"realestate-backend/internal/identity"
	"realestate-backend/internal/models"
	"realestate-backend/internal/query"
	"realestate-backend/internal/repository"
	"realestate-backend/internal/search"
)

// Store is the relational system of record.
type Store interface {
	Insert(ctx context.Context, rec models.Record) (models.Record, error)
	Update(ctx context.Context, kind models.Kind, id string, fields map[string]any) (models.Record, error)
	Delete(ctx context.Context, kind models.Kind, id string) (models.Record, error)
	GetByID(ctx context.Context, kind models.Kind, id string) (models.Record, error)
	Count(ctx context.Context, kind models.Kind) (int64, error)
	List(ctx context.Context, kind models.Kind, limit int) ([]models.Record, error)
}

// Index is the search projection.
type Index interface {
	Upsert(ctx context.Context, index, id string, doc models.Document) error
	Delete(ctx context.Context, index, id string) error
	Search(ctx context.Context, index string, req query.Request) (*search.Result, error)
	Count(ctx context.Context, index string) (int64, error)
}

// Journal receives audit entries and sync issues. Failures are logged, never
// returned to the caller.
type Journal interface {
	WriteLog(ctx context.Context, opts audit.LogOptions) error
	ReportIssue(ctx context.Context, issue *models.SyncIssue) error
}

type Deps struct {
	Store   Store
	Index   Index
	IDs     *identity.Allocator
	Journal Journal
	Cache   cache.Cache
	Log     zerolog.Logger
	Names   search.Names

	CrossMatchSize  int
	DefaultListSize int
	MaxListSize     int

	// Now stamps listedDate on create; defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	store   Store
	index   Index
	ids     *identity.Allocator
	journal Journal
	cache   cache.Cache
	log     zerolog.Logger
	names   search.Names

	crossMatchSize  int
	defaultListSize int
	maxListSize     int
	now             func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		store:           d.Store,
		index:           d.Index,
		ids:             d.IDs,
		journal:         d.Journal,
		cache:           d.Cache,
		log:             d.Log.With().Str("component", "listing").Logger(),
		names:           d.Names,
		crossMatchSize:  d.CrossMatchSize,
		defaultListSize: d.DefaultListSize,
		maxListSize:     d.MaxListSize,
		now:             d.Now,
	}
	if s.ids == nil {
		s.ids = identity.NewUUID()
	}
	if s.journal == nil {
		s.journal = nopJournal{}
	}
	if s.cache == nil {
		s.cache = cache.Nop{}
	}
	if s.names == (search.Names{}) {
		s.names = search.DefaultNames()
	}
	if s.crossMatchSize <= 0 {
		s.crossMatchSize = 10
	}
	if s.defaultListSize <= 0 {
		s.defaultListSize = 10
	}
	if s.maxListSize < s.defaultListSize {
		s.maxListSize = max(100, s.defaultListSize)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type CreateResult struct {
	Result     string        `json:"result"`
	DocumentID string        `json:"documentId"`
	Record     models.Record `json:"record"`
	Matches    []search.Hit  `json:"matches"`
	// Warning is set when cross-matching failed; the write still succeeded.
	Warning string `json:"warning,omitempty"`
}

type UpdateResult struct {
	Result     string        `json:"result"`
	DocumentID string        `json:"documentId"`
	Record     models.Record `json:"record"`
}

type DeleteResult struct {
	Result             string `json:"result"`
	DocumentID         string `json:"documentId"`
	IndexDeleteOutcome string `json:"indexDeleteOutcome"`
}

// Create inserts the relational row, mirrors its projection into the index
// and runs the cross-match. An index failure undoes the insert; if the undo
// fails too the row is reported as orphaned.
func (s *Service) Create(ctx context.Context, actor string, p Payload) (*CreateResult, error) {
	const op = "create"
	kind := p.Kind()

	rec := p.Build()
	supplied, _ := p.SuppliedID()
	rec.SetRecordID(s.ids.Allocate(supplied))
	id := rec.RecordID()

	base := rec.Base()
	if base.CustomerID == "" {
		base.CustomerID = actor
	}
	if base.ListedDate == "" {
		base.ListedDate = s.now().UTC().Format(models.DateLayout)
	}
	rec.Normalize()
	if verrs := validate(rec, p.Missing()); len(verrs) > 0 {
		return nil, invalid(op, kind, id, verrs)
	}

	committed, err := s.store.Insert(ctx, rec)
	if err != nil {
		return nil, &Error{
			Kind: ErrRelationalWrite, Op: op, RecordKind: kind, ID: id,
			Relational: StateUnchanged, Index: StateNotAttempted,
			Err: err, Conflict: errors.Is(err, repository.ErrDuplicateID),
		}
	}

	// The projection comes from the committed row, not the request.
	doc := committed.Projection()
	if err := s.index.Upsert(ctx, s.names.For(kind), id, doc); err != nil {
		return nil, s.compensateCreate(ctx, kind, id, err)
	}

	s.log.Info().Str("kind", string(kind)).Str("id", id).Msg("record created")
	s.invalidate(ctx, kind)
	s.record(ctx, audit.LogOptions{Kind: kind, RecordID: id, ActorID: actor, Action: models.AuditActionCreate, After: doc})

	matches, warning := s.crossMatch(ctx, committed)
	return &CreateResult{
		Result:     "created",
		DocumentID: id,
		Record:     committed,
		Matches:    matches,
		Warning:    warning,
	}, nil
}

func (s *Service) compensateCreate(ctx context.Context, kind models.Kind, id string, cause error) error {
	log := s.log.With().Str("kind", string(kind)).Str("id", id).Logger()
	log.Error().Err(cause).Msg("index write failed, rolling back relational insert")

	// The rollback must run even if the request was cancelled.
	ctx = context.WithoutCancel(ctx)

	// A failed write may still have landed; removing it is harmless otherwise.
	if err := s.index.Delete(ctx, s.names.For(kind), id); err != nil {
		log.Warn().Err(err).Msg("could not clear partial index document")
	}

	if _, rbErr := s.store.Delete(ctx, kind, id); rbErr != nil && !errors.Is(rbErr, repository.ErrNotFound) {
		log.Error().Err(rbErr).Bool("orphaned_record", true).Msg("rollback failed")
		s.report(ctx, &models.SyncIssue{
			RecordKind: kind, RecordID: id, Operation: "create",
			Type:   models.SyncIssueOrphanedRecord,
			Detail: "index: " + cause.Error() + "; rollback: " + rbErr.Error(),
		})
		return &Error{
			Kind: ErrOrphanedRecord, Op: "create", RecordKind: kind, ID: id,
			Relational: StateOrphaned, Index: StateMissing,
			Err: cause, RollbackErr: rbErr,
		}
	}
	return &Error{
		Kind: ErrIndexWrite, Op: "create", RecordKind: kind, ID: id,
		Relational: StateRolledBack, Index: StateMissing,
		Err: cause,
	}
}

// Update writes only the supplied fields, then re-indexes the full
// projection. An index failure leaves the relational change in place.
func (s *Service) Update(ctx context.Context, actor string, kind models.Kind, id string, p Payload) (*UpdateResult, error) {
	const op = "update"
	if _, ok := p.SuppliedID(); ok {
		var verrs models.ValidationErrors
		verrs.Add("id", "is immutable")
		return nil, invalid(op, kind, id, verrs)
	}

	existing, err := s.store.GetByID(ctx, kind, id)
	if err != nil {
		return nil, s.readError(op, kind, id, err)
	}
	before := existing.Projection()

	p.Apply(existing)
	coerced := existing.Normalize()
	if verrs := validate(existing, nil); len(verrs) > 0 {
		return nil, invalid(op, kind, id, verrs)
	}

	fields := p.Fields()
	for column, v := range coerced {
		fields[column] = v
	}

	committed, err := s.store.Update(ctx, kind, id, fields)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &Error{Kind: ErrNotFound, Op: op, RecordKind: kind, ID: id, Err: err}
		}
		return nil, &Error{
			Kind: ErrRelationalWrite, Op: op, RecordKind: kind, ID: id,
			Relational: StateUnchanged, Index: StateNotAttempted, Err: err,
		}
	}

	doc := committed.Projection()
	s.record(ctx, audit.LogOptions{Kind: kind, RecordID: id, ActorID: actor, Action: models.AuditActionUpdate, Before: before, After: doc})
	s.invalidate(ctx, kind)

	if err := s.index.Upsert(ctx, s.names.For(kind), id, doc); err != nil {
		s.log.Error().Err(err).Str("kind", string(kind)).Str("id", id).Msg("index write failed after update, projection is stale")
		s.report(ctx, &models.SyncIssue{
			RecordKind: kind, RecordID: id, Operation: op,
			Type: models.SyncIssueStaleProjection, Detail: err.Error(),
		})
		return nil, &Error{
			Kind: ErrIndexWrite, Op: op, RecordKind: kind, ID: id,
			Relational: StateCommitted, Index: StateStale, Err: err,
		}
	}

	s.log.Info().Str("kind", string(kind)).Str("id", id).Msg("record updated")
	return &UpdateResult{Result: "updated", DocumentID: id, Record: committed}, nil
}

// Delete removes the relational row and then the index document. When the
// index delete fails the result is still returned alongside the error: the
// relational delete stands.
func (s *Service) Delete(ctx context.Context, actor string, kind models.Kind, id string) (*DeleteResult, error) {
	const op = "delete"
	deleted, err := s.store.Delete(ctx, kind, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &Error{Kind: ErrNotFound, Op: op, RecordKind: kind, ID: id, Err: err}
		}
		return nil, &Error{
			Kind: ErrRelationalWrite, Op: op, RecordKind: kind, ID: id,
			Relational: StateUnchanged, Index: StateNotAttempted, Err: err,
		}
	}

	s.record(ctx, audit.LogOptions{Kind: kind, RecordID: id, ActorID: actor, Action: models.AuditActionDelete, Before: deleted.Projection()})
	s.invalidate(ctx, kind)

	res := &DeleteResult{Result: "deleted", DocumentID: id, IndexDeleteOutcome: "deleted"}
	if err := s.index.Delete(ctx, s.names.For(kind), id); err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Str("id", id).Msg("index delete failed")
		s.report(ctx, &models.SyncIssue{
			RecordKind: kind, RecordID: id, Operation: op,
			Type: models.SyncIssueIndexDeleteFailed, Detail: err.Error(),
		})
		res.IndexDeleteOutcome = "failed"
		return res, &Error{
			Kind: ErrIndexDelete, Op: op, RecordKind: kind, ID: id,
			Relational: StateDeleted, Index: StateStale, Err: err,
		}
	}

	s.log.Info().Str("kind", string(kind)).Str("id", id).Msg("record deleted")
	return res, nil
}

// Get reads from the relational store, which is always current.
func (s *Service) Get(ctx context.Context, kind models.Kind, id string) (models.Record, error) {
	rec, err := s.store.GetByID(ctx, kind, id)
	if err != nil {
		return nil, s.readError("get", kind, id, err)
	}
	return rec, nil
}

// Rows reads relational rows of kind directly, bypassing the index and the
// cache. A limit <= 0 returns all of them.
func (s *Service) Rows(ctx context.Context, kind models.Kind, limit int) ([]models.Record, error) {
	recs, err := s.store.List(ctx, kind, limit)
	if err != nil {
		return nil, s.readError("export", kind, "", err)
	}
	return recs, nil
}

// List returns index documents of kind, at most size of them.
func (s *Service) List(ctx context.Context, kind models.Kind, size int) (*search.Result, error) {
	return s.query(ctx, "list", kind, query.All(s.boundSize(size)))
}

func (s *Service) Search(ctx context.Context, kind models.Kind, params query.SearchParams) (*search.Result, error) {
	params.Size = s.boundSize(params.Size)
	return s.query(ctx, "search", kind, query.BuildSearch(kind, params))
}

func (s *Service) query(ctx context.Context, op string, kind models.Kind, req query.Request) (*search.Result, error) {
	// The entry is pinned before the index read, so a write landing in
	// between can only strand this result under the superseded version.
	var entry cache.Entry
	if key, err := cache.Key(op, req); err == nil {
		var cached search.Result
		e, hit, cerr := s.cache.Get(ctx, kind, key, &cached)
		switch {
		case cerr != nil:
			s.log.Warn().Err(cerr).Msg("cache read failed")
		case hit:
			return &cached, nil
		default:
			entry = e
		}
	}

	res, err := s.index.Search(ctx, s.names.For(kind), req)
	if err != nil {
		return nil, &Error{Kind: ErrIndexRead, Op: op, RecordKind: kind, Err: err}
	}
	if entry != "" {
		if err := s.cache.Set(ctx, entry, res); err != nil {
			s.log.Warn().Err(err).Msg("cache write failed")
		}
	}
	return res, nil
}

func (s *Service) boundSize(size int) int {
	if size <= 0 {
		return s.defaultListSize
	}
	return min(size, s.maxListSize)
}

type KindStats struct {
	Relational int64  `json:"relational"`
	Index      *int64 `json:"index"`
	InSync     bool   `json:"inSync"`
	IndexError string `json:"indexError,omitempty"`
}

// Stats compares relational and index counts per kind. A mismatch is the
// drift the reconciliation job closes.
func (s *Service) Stats(ctx context.Context) (map[models.Kind]KindStats, error) {
	out := make(map[models.Kind]KindStats, 2)
	for _, kind := range []models.Kind{models.KindSupply, models.KindDemand} {
		n, err := s.store.Count(ctx, kind)
		if err != nil {
			return nil, &Error{Kind: ErrRelationalRead, Op: "stats", RecordKind: kind, Err: err}
		}
		st := KindStats{Relational: n}
		if c, err := s.index.Count(ctx, s.names.For(kind)); err != nil {
			st.IndexError = err.Error()
		} else {
			st.Index = &c
			st.InSync = c == n
		}
		out[kind] = st
	}
	return out, nil
}

// crossMatch never fails the write; errors become a warning.
func (s *Service) crossMatch(ctx context.Context, rec models.Record) ([]search.Hit, string) {
	target := rec.Kind().Opposite()
	res, err := s.index.Search(ctx, s.names.For(target), query.CrossMatch(rec, s.crossMatchSize))
	if err != nil {
		s.log.Warn().Err(err).Str("kind", string(rec.Kind())).Str("id", rec.RecordID()).Msg("cross-match failed")
		return []search.Hit{}, "cross-match against " + string(target) + " failed: " + err.Error()
	}
	if res.Hits == nil {
		return []search.Hit{}, ""
	}
	return res.Hits, ""
}

func (s *Service) readError(op string, kind models.Kind, id string, err error) *Error {
	if errors.Is(err, repository.ErrNotFound) {
		return &Error{Kind: ErrNotFound, Op: op, RecordKind: kind, ID: id, Err: err}
	}
	return &Error{Kind: ErrRelationalRead, Op: op, RecordKind: kind, ID: id, Err: err}
}

func (s *Service) invalidate(ctx context.Context, kind models.Kind) {
	if err := s.cache.Invalidate(context.WithoutCancel(ctx), kind); err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Msg("cache invalidation failed")
	}
}

func (s *Service) record(ctx context.Context, opts audit.LogOptions) {
	if err := s.journal.WriteLog(context.WithoutCancel(ctx), opts); err != nil {
		s.log.Warn().Err(err).Str("id", opts.RecordID).Msg("audit log not written")
	}
}

func (s *Service) report(ctx context.Context, issue *models.SyncIssue) {
	if err := s.journal.ReportIssue(context.WithoutCancel(ctx), issue); err != nil {
		s.log.Error().Err(err).Str("id", issue.RecordID).Str("type", string(issue.Type)).Msg("sync issue not recorded")
	}
}

// validate merges create-time requirements with the record's own checks.
func validate(rec models.Record, missing models.ValidationErrors) models.ValidationErrors {
	verrs := append(models.ValidationErrors(nil), missing...)
	if err := rec.Validate(); err != nil {
		var ve models.ValidationErrors
		if errors.As(err, &ve) {
			verrs = append(verrs, ve...)
		} else {
			verrs.Add("record", err.Error())
		}
	}
	return verrs
}

type nopJournal struct{}

func (nopJournal) WriteLog(context.Context, audit.LogOptions) error     { return nil }
func (nopJournal) ReportIssue(context.Context, *models.SyncIssue) error { return nil }
