package write

import (
	"context"
	"sync"
	"time"

	"github.com/tracmeta/catalog/internal/catalog"
	"github.com/tracmeta/catalog/internal/catalogapi"
	"github.com/tracmeta/catalog/internal/errors"
	"github.com/tracmeta/catalog/internal/metrics"
	"github.com/tracmeta/catalog/internal/objectdef"
	"github.com/tracmeta/catalog/internal/typesys"
	"github.com/tracmeta/catalog/internal/validation"
)

// PreallocateRequest reserves an object id ahead of time with no
// definition (spec §4.4's "preallocate" slot — a JOB's declared result
// object uses this before the job runs).
type PreallocateRequest struct {
	ObjectId   string
	ObjectType catalogapi.ObjectType
}

// CreateRequest creates a brand-new object at v1/t1.
type CreateRequest struct {
	ObjectId   string
	ObjectType catalogapi.ObjectType
	Definition *objectdef.Definition
	Attributes map[string]typesys.Value
}

// UpdateObjectRequest appends a new object version over an existing
// object, keeping its logical identity and tag history.
type UpdateObjectRequest struct {
	ObjectId     string
	ObjectType   catalogapi.ObjectType
	PriorVersion int32
	Definition   *objectdef.Definition
	Attributes   map[string]typesys.Value
}

// UpdateTagRequest appends a new tag version over an existing object
// version — an attribute-only change (the definition is immutable).
type UpdateTagRequest struct {
	ObjectId        string
	ObjectType      catalogapi.ObjectType
	ObjectVersion   int32
	PriorTagVersion int32
	Attributes      map[string]typesys.Value
}

// BatchRequest is the four-slot batch spec §4.4 describes, always
// executed in this order: preallocate, create, update-object, update-tag.
type BatchRequest struct {
	Tenant       string
	Preallocate  []PreallocateRequest
	Create       []CreateRequest
	UpdateObject []UpdateObjectRequest
	UpdateTag    []UpdateTagRequest
}

// BatchResponse returns results positionally in each slot (spec §4.4).
// The preallocate slot has no header of its own (id only), so it is
// returned as the ids that were reserved.
type BatchResponse struct {
	Preallocated  []string
	Created       []catalogapi.TagHeader
	UpdatedObject []catalogapi.TagHeader
	UpdatedTag    []catalogapi.TagHeader
}

// Service orchestrates catalog mutations over a store (spec §4.4).
type Service struct {
	store   *catalog.Store
	metrics *metrics.WriteMetrics
}

// defaultMetrics is shared by every Service built with nil metrics; it is
// registered once, on first use.
var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *metrics.WriteMetrics
)

// NewService builds a write service. metrics may be nil, in which case
// one process-wide set of collectors, registered on first use, is shared
// (grounded on the teacher's HistoryMetrics,
// internal/infrastructure/repository/postgres_history.go).
func NewService(store *catalog.Store, writeMetrics *metrics.WriteMetrics) *Service {
	if writeMetrics == nil {
		defaultMetricsOnce.Do(func() { defaultMetrics = metrics.NewWriteMetrics() })
		writeMetrics = defaultMetrics
	}
	return &Service{store: store, metrics: writeMetrics}
}

// WriteBatch validates and executes one full batch: static and
// attribute-key validation per request, bundle pre-resolution of embedded
// selectors, version/consistency validation against the prior tag where
// one exists, controlled-attribute stamping, then a single store
// transaction covering all four slots.
func (svc *Service) WriteBatch(ctx context.Context, req BatchRequest) (resp *BatchResponse, err error) {
	start := time.Now()
	defer func() {
		svc.observe(start, err)
	}()

	now := svc.store.Now()
	bundle := NewBundle(svc.store, req.Tenant)

	var ops []catalog.BatchOp
	resp = &BatchResponse{}

	for _, p := range req.Preallocate {
		if err := validateIdentity(p.ObjectId, p.ObjectType); err != nil {
			return nil, err
		}
		ops = append(ops, catalog.BatchOp{Kind: catalog.BatchPreallocate, ObjectId: p.ObjectId, ObjectType: p.ObjectType})
		resp.Preallocated = append(resp.Preallocated, p.ObjectId)
	}

	for _, c := range req.Create {
		attrs, err := svc.prepareCreate(ctx, bundle, c, now)
		if err != nil {
			return nil, err
		}
		ops = append(ops, catalog.BatchOp{
			Kind: catalog.BatchCreate, ObjectId: c.ObjectId, ObjectType: c.ObjectType,
			Definition: c.Definition, Attributes: attrs,
		})
		bundle.Record(c.ObjectId, catalogapi.TagHeader{
			ObjectType: c.ObjectType, ObjectId: c.ObjectId,
			ObjectVersion: 1, ObjectTimestamp: now, IsLatestObject: true,
			TagVersion: 1, TagTimestamp: now, IsLatestTag: true,
		})
		resp.Created = append(resp.Created, catalogapi.TagHeader{
			ObjectType: c.ObjectType, ObjectId: c.ObjectId, ObjectVersion: 1, TagVersion: 1,
		})
	}

	for _, u := range req.UpdateObject {
		attrs, err := svc.prepareUpdateObject(ctx, bundle, u, now)
		if err != nil {
			return nil, err
		}
		newVersion := u.PriorVersion + 1
		ops = append(ops, catalog.BatchOp{
			Kind: catalog.BatchUpdateObject, ObjectId: u.ObjectId, ObjectType: u.ObjectType,
			Definition: u.Definition, Attributes: attrs, PriorObjectVersion: u.PriorVersion,
		})
		bundle.Record(u.ObjectId, catalogapi.TagHeader{
			ObjectType: u.ObjectType, ObjectId: u.ObjectId,
			ObjectVersion: newVersion, ObjectTimestamp: now, IsLatestObject: true,
			TagVersion: 1, TagTimestamp: now, IsLatestTag: true,
		})
		resp.UpdatedObject = append(resp.UpdatedObject, catalogapi.TagHeader{
			ObjectType: u.ObjectType, ObjectId: u.ObjectId, ObjectVersion: newVersion, TagVersion: 1,
		})
	}

	for _, u := range req.UpdateTag {
		attrs, err := svc.prepareUpdateTag(ctx, u, now)
		if err != nil {
			return nil, err
		}
		newTagVersion := u.PriorTagVersion + 1
		ops = append(ops, catalog.BatchOp{
			Kind: catalog.BatchUpdateTag, ObjectId: u.ObjectId, ObjectType: u.ObjectType,
			Attributes: attrs, ObjectVersion: u.ObjectVersion, PriorTagVersion: u.PriorTagVersion,
		})
		resp.UpdatedTag = append(resp.UpdatedTag, catalogapi.TagHeader{
			ObjectType: u.ObjectType, ObjectId: u.ObjectId, ObjectVersion: u.ObjectVersion, TagVersion: newTagVersion,
		})
	}

	results, err := svc.store.WriteBatch(ctx, req.Tenant, ops, now)
	if err != nil {
		return nil, err
	}

	// Overwrite the provisional headers built above with the store's
	// authoritative ones (exact timestamps/flags), preserving slot order.
	i := len(req.Preallocate)
	for j := range resp.Created {
		resp.Created[j] = results[i].Header
		i++
	}
	for j := range resp.UpdatedObject {
		resp.UpdatedObject[j] = results[i].Header
		i++
	}
	for j := range resp.UpdatedTag {
		resp.UpdatedTag[j] = results[i].Header
		i++
	}

	svc.metrics.BatchSize.WithLabelValues("preallocate").Observe(float64(len(req.Preallocate)))
	svc.metrics.BatchSize.WithLabelValues("create").Observe(float64(len(req.Create)))
	svc.metrics.BatchSize.WithLabelValues("update_object").Observe(float64(len(req.UpdateObject)))
	svc.metrics.BatchSize.WithLabelValues("update_tag").Observe(float64(len(req.UpdateTag)))

	return resp, nil
}

// observe records a completed writeBatch call. Named return values on
// WriteBatch (not a captured local) carry the true final error into this
// deferred call, so — unlike the teacher's defer-based query timer
// (internal/infrastructure/repository/postgres_history.go) — an
// early-return error path is never misreported as "success".
func (svc *Service) observe(start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		kind := "unknown"
		if ce, ok := errors.Of(err); ok {
			kind = string(ce.Kind)
		}
		svc.metrics.BatchErrors.WithLabelValues(kind).Inc()
		if kind == string(errors.KindInputValidation) || kind == string(errors.KindVersionValidation) || kind == string(errors.KindConsistencyValidation) {
			svc.metrics.ValidationFailures.WithLabelValues(kind).Inc()
		}
	}
	svc.metrics.BatchDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

func validateIdentity(objectId string, objectType catalogapi.ObjectType) error {
	ctx := validation.ForMessage("Identity", objectId)
	ctx.Push("objectId", objectId)
	validation.ApplyTyped(ctx, validation.UUID)
	ctx.Pop()
	ctx.Push("objectType", objectType)
	if !objectType.Valid() {
		ctx.Fail("%q is not a recognized object type", objectType)
	}
	ctx.Pop()
	if err := ctx.Result().ToError(); err != nil {
		return err
	}
	return nil
}

func validateAttributeKeys(attrs map[string]typesys.Value) error {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	ctx := validation.ForMessage("attrs", keys)
	validation.ValidateAttributeKeys(ctx, keys)
	if err := ctx.Result().ToError(); err != nil {
		return err
	}
	return nil
}

func (svc *Service) prepareCreate(ctx context.Context, bundle *Bundle, c CreateRequest, now time.Time) (map[string]typesys.Value, error) {
	if err := validateIdentity(c.ObjectId, c.ObjectType); err != nil {
		return nil, err
	}
	if err := validateAttributeKeys(c.Attributes); err != nil {
		return nil, err
	}
	// Reference integrity (invariant 8) is checked before the selectors are
	// resolved: an unresolvable embedded reference — including an
	// intra-batch cycle (A→B, B→A) neither side of which the store or the
	// rest of the batch can satisfy yet — must surface as
	// ConsistencyValidation (spec §7/§8), not as the store's raw NotFound
	// that resolving it directly would produce.
	refs := objectdef.ExtractSelectors(c.Definition)
	rctx := validation.ForConsistency("references", refs)
	validation.CheckReferenceIntegrity(rctx, refs, bundle.Resolvable(ctx))
	if err := rctx.Result().ToError(); err != nil {
		return nil, err
	}

	if err := bundle.ResolveEmbedded(ctx, c.Definition); err != nil {
		return nil, err
	}

	if c.Definition.Type == objectdef.FLOW && c.Definition.Flow != nil {
		if err := checkFlowGraph(c.Definition.Flow); err != nil {
			return nil, err
		}
	}

	return StampCreate(ctx, c.Attributes, now), nil
}

func (svc *Service) prepareUpdateObject(ctx context.Context, bundle *Bundle, u UpdateObjectRequest, now time.Time) (map[string]typesys.Value, error) {
	if err := validateIdentity(u.ObjectId, u.ObjectType); err != nil {
		return nil, err
	}
	if err := validateAttributeKeys(u.Attributes); err != nil {
		return nil, err
	}

	priorSel := catalogapi.TagSelector{
		ObjectType: u.ObjectType, ObjectId: u.ObjectId,
		ObjectCriterion: catalogapi.ObjectVersion, ObjectVersion: u.PriorVersion,
		TagCriterion: catalogapi.TagLatest,
	}
	priorTag, err := svc.store.ResolveTag(ctx, bundle.tenant, priorSel)
	if err != nil {
		return nil, err
	}

	vctx := validation.ForVersion("Definition", u.Definition, priorTag.Definition)
	CheckVersionCompatibility(vctx, priorTag.Definition, u.Definition)
	if err := vctx.Result().ToError(); err != nil {
		return nil, err
	}

	refs := objectdef.ExtractSelectors(u.Definition)
	rctx := validation.ForConsistency("references", refs)
	validation.CheckReferenceIntegrity(rctx, refs, bundle.Resolvable(ctx))
	if err := rctx.Result().ToError(); err != nil {
		return nil, err
	}

	if err := bundle.ResolveEmbedded(ctx, u.Definition); err != nil {
		return nil, err
	}

	return StampUpdate(ctx, u.Attributes, now), nil
}

func (svc *Service) prepareUpdateTag(ctx context.Context, u UpdateTagRequest, now time.Time) (map[string]typesys.Value, error) {
	if err := validateIdentity(u.ObjectId, u.ObjectType); err != nil {
		return nil, err
	}
	if err := validateAttributeKeys(u.Attributes); err != nil {
		return nil, err
	}
	return StampUpdate(ctx, u.Attributes, now), nil
}

func checkFlowGraph(f *objectdef.FlowDefinition) error {
	issues := objectdef.CheckFlowGraph(f)
	if len(issues) == 0 {
		return nil
	}
	fctx := validation.ForMessage("flow", f)
	for _, issue := range issues {
		fctx.Push(issue.Code, issue.Message)
		fctx.Fail("%s", issue.Message)
		fctx.Pop()
	}
	if err := fctx.Result().ToError(); err != nil {
		return err
	}
	return nil
}
