// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package kinship

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianKin/services/kinship/graph"
	"github.com/AleutianAI/AleutianKin/services/kinship/render"
)

// Handlers serves the kinship HTTP API.
//
// Thread Safety: Handlers is safe for concurrent use.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers backed by svc.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

func requestLogger(c *gin.Context, handler string) *slog.Logger {
	return slog.With(
		"request_id", getOrCreateRequestID(c),
		"handler", handler,
		"account", accountOf(c),
	)
}

// respondError maps err to a status and writes an ErrorResponse. Client
// errors log at warn, everything else at error.
func respondError(c *gin.Context, logger *slog.Logger, msg string, err error) {
	status, code := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, "error", err, "code", code)
	} else {
		logger.Warn(msg, "error", err, "code", code)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// bindJSON decodes the body into req and runs its Validate method.
func bindJSON[T interface{ Validate() error }](c *gin.Context, logger *slog.Logger, req *T) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("Request body too large", "limit", tooLarge.Limit)
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: "request body too large",
				Code:  "BODY_TOO_LARGE",
			})
			return false
		}
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return false
	}
	if err := (*req).Validate(); err != nil {
		respondError(c, logger, "Request validation failed", err)
		return false
	}
	return true
}

// =============================================================================
// Health
// =============================================================================

// HandleHealth handles GET /v1/kinship/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Version: ServiceVersion})
}

// HandleReady handles GET /v1/kinship/ready.
//
// Description:
//
//	Reports ready once the snapshot store can be listed.
//
// Response:
//
//	200 OK: ReadyResponse
//	503 Service Unavailable: ReadyResponse with Error set
func (h *Handlers) HandleReady(c *gin.Context) {
	accounts, err := h.svc.Accounts(c.Request.Context())
	if err != nil {
		slog.Error("Readiness check failed", "request_id", getOrCreateRequestID(c), "error", err)
		c.JSON(http.StatusServiceUnavailable, ReadyResponse{
			Cache: h.svc.CacheStats(),
			Error: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, ReadyResponse{
		Ready:    true,
		Accounts: len(accounts),
		Cache:    h.svc.CacheStats(),
	})
}

// =============================================================================
// Persons
// =============================================================================

// HandleListPersons handles GET /v1/kinship/persons.
func (h *Handlers) HandleListPersons(c *gin.Context) {
	logger := requestLogger(c, "HandleListPersons")

	persons, err := h.svc.Persons(c.Request.Context(), accountOf(c))
	if err != nil {
		respondError(c, logger, "List persons failed", err)
		return
	}
	c.JSON(http.StatusOK, newPersonsResponse(persons))
}

// HandleAddPerson handles POST /v1/kinship/persons.
//
// Description:
//
//	Adds a person to the caller's graph. A missing id is generated.
//
// Request Body:
//
//	PersonRequest
//
// Response:
//
//	201 Created: graph.Person
//	400 Bad Request: Validation error
//	409 Conflict: Duplicate id
func (h *Handlers) HandleAddPerson(c *gin.Context) {
	logger := requestLogger(c, "HandleAddPerson")

	var req PersonRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	p, err := h.svc.AddPerson(c.Request.Context(), accountOf(c), req.Person())
	if err != nil {
		respondError(c, logger, "Add person failed", err)
		return
	}

	logger.Info("Person added", "person_id", p.ID)
	c.JSON(http.StatusCreated, p)
}

// HandleGetPerson handles GET /v1/kinship/persons/:id.
func (h *Handlers) HandleGetPerson(c *gin.Context) {
	logger := requestLogger(c, "HandleGetPerson")

	p, err := h.svc.Person(c.Request.Context(), accountOf(c), c.Param("id"))
	if err != nil {
		respondError(c, logger, "Get person failed", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// HandleEditPerson handles PATCH /v1/kinship/persons/:id.
//
// Request Body:
//
//	PersonPatchRequest
//
// Response:
//
//	200 OK: graph.Person after the edit
//	400 Bad Request: Validation error or empty patch
//	404 Not Found: Unknown person
func (h *Handlers) HandleEditPerson(c *gin.Context) {
	logger := requestLogger(c, "HandleEditPerson")

	var req PersonPatchRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	p, err := h.svc.EditPerson(c.Request.Context(), accountOf(c), c.Param("id"), req.Patch())
	if err != nil {
		respondError(c, logger, "Edit person failed", err)
		return
	}

	logger.Info("Person edited", "person_id", p.ID)
	c.JSON(http.StatusOK, p)
}

// HandleRemovePerson handles DELETE /v1/kinship/persons/:id.
//
// Description:
//
//	Removes the person and every relationship touching them.
//
// Response:
//
//	204 No Content
//	404 Not Found: Unknown person
func (h *Handlers) HandleRemovePerson(c *gin.Context) {
	logger := requestLogger(c, "HandleRemovePerson")
	id := c.Param("id")

	if err := h.svc.RemovePerson(c.Request.Context(), accountOf(c), id); err != nil {
		respondError(c, logger, "Remove person failed", err)
		return
	}

	logger.Info("Person removed", "person_id", id)
	c.Status(http.StatusNoContent)
}

// HandleSearchPersons handles GET /v1/kinship/persons/search?pattern=.
//
// Description:
//
//	Matches person names against a glob pattern, case-insensitively.
//	A pattern without wildcards matches as a substring.
func (h *Handlers) HandleSearchPersons(c *gin.Context) {
	logger := requestLogger(c, "HandleSearchPersons")

	pattern := strings.TrimSpace(c.Query("pattern"))
	if pattern == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "pattern query parameter is required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	persons, err := h.svc.SearchPersons(c.Request.Context(), accountOf(c), pattern)
	if err != nil {
		respondError(c, logger, "Search failed", err)
		return
	}
	c.JSON(http.StatusOK, newPersonsResponse(persons))
}

// HandleImmediateFamily handles GET /v1/kinship/persons/:id/family.
func (h *Handlers) HandleImmediateFamily(c *gin.Context) {
	logger := requestLogger(c, "HandleImmediateFamily")

	fam, err := h.svc.ImmediateFamily(c.Request.Context(), accountOf(c), c.Param("id"))
	if err != nil {
		respondError(c, logger, "Immediate family lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, fam)
}

// HandleAllRelatives handles GET /v1/kinship/persons/:id/relatives.
func (h *Handlers) HandleAllRelatives(c *gin.Context) {
	logger := requestLogger(c, "HandleAllRelatives")

	rel, err := h.svc.AllRelatives(c.Request.Context(), accountOf(c), c.Param("id"))
	if err != nil {
		respondError(c, logger, "Relatives lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, rel)
}

// =============================================================================
// Relationships
// =============================================================================

// HandleAddRelationship handles POST /v1/kinship/relationships.
//
// Description:
//
//	Adds the relationship "From is <relation> of To" together with its
//	complement. Parent relationships propagate sibling links to the
//	child's co-children.
//
// Request Body:
//
//	RelationshipRequest
//
// Response:
//
//	201 Created
//	400 Bad Request: Validation error, self relationship
//	404 Not Found: Unknown endpoint
//	409 Conflict: Existing relationship or ancestry cycle
func (h *Handlers) HandleAddRelationship(c *gin.Context) {
	logger := requestLogger(c, "HandleAddRelationship")

	var req RelationshipRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	rel := req.ParsedRelation()
	if err := h.svc.AddRelationship(c.Request.Context(), accountOf(c), req.From, req.To, rel); err != nil {
		respondError(c, logger, "Add relationship failed", err)
		return
	}

	logger.Info("Relationship added", "from", req.From, "to", req.To, "relation", rel.String())
	c.JSON(http.StatusCreated, graph.Edge{From: req.From, To: req.To, Relation: rel})
}

// HandleEditRelationship handles PUT /v1/kinship/relationships.
//
// Description:
//
//	Replaces the relationship between From and To. The old relationship is
//	restored if the new one is rejected.
func (h *Handlers) HandleEditRelationship(c *gin.Context) {
	logger := requestLogger(c, "HandleEditRelationship")

	var req RelationshipRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	rel := req.ParsedRelation()
	if err := h.svc.EditRelationship(c.Request.Context(), accountOf(c), req.From, req.To, rel); err != nil {
		respondError(c, logger, "Edit relationship failed", err)
		return
	}

	logger.Info("Relationship edited", "from", req.From, "to", req.To, "relation", rel.String())
	c.JSON(http.StatusOK, graph.Edge{From: req.From, To: req.To, Relation: rel})
}

// HandleDeleteRelationship handles DELETE /v1/kinship/relationships?from=&to=.
//
// Response:
//
//	204 No Content
//	400 Bad Request: Missing from or to
//	404 Not Found: No relationship between the two persons
func (h *Handlers) HandleDeleteRelationship(c *gin.Context) {
	logger := requestLogger(c, "HandleDeleteRelationship")

	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "from and to query parameters are required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	if err := h.svc.DeleteRelationship(c.Request.Context(), accountOf(c), from, to); err != nil {
		respondError(c, logger, "Delete relationship failed", err)
		return
	}

	logger.Info("Relationship deleted", "from", from, "to", to)
	c.Status(http.StatusNoContent)
}

// =============================================================================
// Kinship queries
// =============================================================================

// HandleRelationship handles POST /v1/kinship/query/relationship.
//
// Description:
//
//	Names how Person2 is related to Person1 and returns the path used.
//	Unrelated persons are a 200 with is_related false.
func (h *Handlers) HandleRelationship(c *gin.Context) {
	logger := requestLogger(c, "HandleRelationship")

	var req PairRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	res, err := h.svc.Relationship(c.Request.Context(), accountOf(c), req.Person1, req.Person2)
	if err != nil {
		respondError(c, logger, "Relationship query failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandlePath handles POST /v1/kinship/query/path.
func (h *Handlers) HandlePath(c *gin.Context) {
	logger := requestLogger(c, "HandlePath")

	var req PairRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	steps, found, err := h.svc.ShortestPath(c.Request.Context(), accountOf(c), req.Person1, req.Person2)
	if err != nil {
		respondError(c, logger, "Path query failed", err)
		return
	}
	if steps == nil {
		steps = []graph.PathStep{}
	}
	c.JSON(http.StatusOK, PathResponse{Found: found, Length: len(steps), Path: steps})
}

// HandleCommonAncestors handles POST /v1/kinship/query/common_ancestors.
func (h *Handlers) HandleCommonAncestors(c *gin.Context) {
	logger := requestLogger(c, "HandleCommonAncestors")

	var req PairRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	ancestors, err := h.svc.CommonAncestors(c.Request.Context(), accountOf(c), req.Person1, req.Person2)
	if err != nil {
		respondError(c, logger, "Common ancestors query failed", err)
		return
	}
	if ancestors == nil {
		ancestors = []graph.Person{}
	}
	c.JSON(http.StatusOK, CommonAncestorsResponse{Ancestors: ancestors, Count: len(ancestors)})
}

// HandleBidirectional handles POST /v1/kinship/query/bidirectional.
func (h *Handlers) HandleBidirectional(c *gin.Context) {
	logger := requestLogger(c, "HandleBidirectional")

	var req PairRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	res, err := h.svc.Bidirectional(c.Request.Context(), accountOf(c), req.Person1, req.Person2)
	if err != nil {
		respondError(c, logger, "Bidirectional query failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleComprehensive handles POST /v1/kinship/query/comprehensive.
//
// Description:
//
//	Runs every pairwise query at once: relationship, path, narration,
//	both directions, common ancestors, generation gap and cousin check.
func (h *Handlers) HandleComprehensive(c *gin.Context) {
	logger := requestLogger(c, "HandleComprehensive")

	var req PairRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	res, err := h.svc.Comprehensive(c.Request.Context(), accountOf(c), req.Person1, req.Person2)
	if err != nil {
		respondError(c, logger, "Comprehensive analysis failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleGenerationGap handles POST /v1/kinship/query/generation_gap.
func (h *Handlers) HandleGenerationGap(c *gin.Context) {
	logger := requestLogger(c, "HandleGenerationGap")

	var req PairRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	gap, related, err := h.svc.GenerationGap(c.Request.Context(), accountOf(c), req.Person1, req.Person2)
	if err != nil {
		respondError(c, logger, "Generation gap query failed", err)
		return
	}
	resp := GenerationGapResponse{Related: related}
	if related {
		resp.Gap = &gap
	}
	c.JSON(http.StatusOK, resp)
}

// HandleCousins handles POST /v1/kinship/query/cousins.
func (h *Handlers) HandleCousins(c *gin.Context) {
	logger := requestLogger(c, "HandleCousins")

	var req PairRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	ok, err := h.svc.AreCousins(c.Request.Context(), accountOf(c), req.Person1, req.Person2)
	if err != nil {
		respondError(c, logger, "Cousin query failed", err)
		return
	}
	c.JSON(http.StatusOK, CousinsResponse{Cousins: ok})
}

// =============================================================================
// Audit
// =============================================================================

// HandleCycles handles GET /v1/kinship/audit/cycles.
func (h *Handlers) HandleCycles(c *gin.Context) {
	logger := requestLogger(c, "HandleCycles")

	cycles, err := h.svc.DetectCycles(c.Request.Context(), accountOf(c))
	if err != nil {
		respondError(c, logger, "Cycle detection failed", err)
		return
	}
	if cycles == nil {
		cycles = [][]string{}
	}
	c.JSON(http.StatusOK, CyclesResponse{Cycles: cycles, Count: len(cycles)})
}

// HandleValidate handles GET /v1/kinship/audit/validate.
//
// Description:
//
//	Checks the stored graph for structural problems: missing complements,
//	missing sibling closure, dangling endpoints and ancestry cycles. A
//	graph with problems is still a 200; Valid reports the outcome.
func (h *Handlers) HandleValidate(c *gin.Context) {
	logger := requestLogger(c, "HandleValidate")

	found, err := h.svc.Audit(c.Request.Context(), accountOf(c))
	if err != nil {
		respondError(c, logger, "Audit failed", err)
		return
	}
	if found == nil {
		found = []string{}
	}
	if len(found) > 0 {
		logger.Warn("Graph has structural problems", "count", len(found))
	}
	c.JSON(http.StatusOK, ValidateResponse{Valid: len(found) == 0, Problems: found})
}

// =============================================================================
// Transfer
// =============================================================================

// HandleExportJSON handles GET /v1/kinship/export/json.
func (h *Handlers) HandleExportJSON(c *gin.Context) {
	logger := requestLogger(c, "HandleExportJSON")

	snap, err := h.svc.Export(c.Request.Context(), accountOf(c))
	if err != nil {
		respondError(c, logger, "Export failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// HandleExportCSV handles GET /v1/kinship/export/csv.
//
// Response:
//
//	200 OK: CSVPayload with the members and edges tables as text
func (h *Handlers) HandleExportCSV(c *gin.Context) {
	logger := requestLogger(c, "HandleExportCSV")

	snap, err := h.svc.Export(c.Request.Context(), accountOf(c))
	if err != nil {
		respondError(c, logger, "Export failed", err)
		return
	}
	tables, err := render.CSV(snap)
	if err != nil {
		respondError(c, logger, "CSV rendering failed", err)
		return
	}
	c.JSON(http.StatusOK, CSVPayload{Members: string(tables.Members), Edges: string(tables.Edges)})
}

// HandleExportDOT handles GET /v1/kinship/export/dot?start=&depth=.
//
// Description:
//
//	Renders the graph in Graphviz DOT. start limits output to what is
//	reachable from one person; depth bounds the recursion from each root.
//	A negative or missing depth is unlimited.
//
// Response:
//
//	200 OK: text/vnd.graphviz
//	400 Bad Request: depth is not an integer
//	404 Not Found: Unknown start person
func (h *Handlers) HandleExportDOT(c *gin.Context) {
	logger := requestLogger(c, "HandleExportDOT")

	opts := render.DefaultDOTOptions()
	opts.Start = c.Query("start")
	if raw := c.Query("depth"); raw != "" {
		depth, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "depth must be an integer",
				Code:  "INVALID_REQUEST",
			})
			return
		}
		if depth < 0 {
			depth = render.Unlimited
		}
		opts.MaxDepth = depth
	}

	snap, err := h.svc.Export(c.Request.Context(), accountOf(c))
	if err != nil {
		respondError(c, logger, "Export failed", err)
		return
	}
	dot, err := render.DOT(snap, opts)
	if err != nil {
		respondError(c, logger, "DOT rendering failed", err)
		return
	}
	c.Data(http.StatusOK, "text/vnd.graphviz; charset=utf-8", []byte(dot))
}

// HandleImport handles POST /v1/kinship/import[?format=csv].
//
// Description:
//
//	Replaces the caller's graph. The body is a graph.Snapshot, or a
//	CSVPayload when format=csv. Every edge goes through the same checks
//	as an individual add; any failure leaves the stored graph untouched.
//
// Response:
//
//	200 OK: ImportResponse
//	400 Bad Request: Malformed body or rejected edge
//	409 Conflict: Duplicate person, conflicting edge or ancestry cycle
func (h *Handlers) HandleImport(c *gin.Context) {
	logger := requestLogger(c, "HandleImport")

	var snap graph.Snapshot
	switch format := c.DefaultQuery("format", "json"); format {
	case "json":
		if err := c.ShouldBindJSON(&snap); err != nil {
			logger.Warn("Invalid snapshot body", "error", err)
			status, code := StatusFor(err)
			if status == http.StatusInternalServerError {
				status, code = http.StatusBadRequest, "INVALID_REQUEST"
			}
			c.JSON(status, ErrorResponse{Error: "Invalid snapshot body", Code: code, Details: err.Error()})
			return
		}
	case "csv":
		var payload CSVPayload
		if !bindJSON(c, logger, &payload) {
			return
		}
		parsed, err := render.ParseCSV(strings.NewReader(payload.Members), strings.NewReader(payload.Edges))
		if err != nil {
			respondError(c, logger, "CSV parse failed", err)
			return
		}
		snap = parsed
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "format must be json or csv",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	rec, err := h.svc.Import(c.Request.Context(), accountOf(c), snap)
	if err != nil {
		respondError(c, logger, "Import failed", err)
		return
	}

	logger.Info("Graph imported",
		"persons", len(rec.Snapshot.Persons),
		"edges", len(rec.Snapshot.Edges),
		"revision", rec.Revision)
	c.JSON(http.StatusOK, ImportResponse{
		Persons:  len(rec.Snapshot.Persons),
		Edges:    len(rec.Snapshot.Edges),
		Revision: rec.Revision,
	})
}

// HandleMerge handles POST /v1/kinship/merge.
//
// Description:
//
//	Copies another account's persons and relationships into the caller's
//	graph, optionally adding one bridging relationship. The source account
//	is not modified.
//
// Request Body:
//
//	MergeRequest
//
// Response:
//
//	200 OK: MergeResponse
//	400 Bad Request: Validation error or merge into self
//	409 Conflict: Person id present in both graphs
func (h *Handlers) HandleMerge(c *gin.Context) {
	logger := requestLogger(c, "HandleMerge")

	var req MergeRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	rec, err := h.svc.Merge(c.Request.Context(), accountOf(c), req.From, req.GraphLink())
	if err != nil {
		respondError(c, logger, "Merge failed", err)
		return
	}

	logger.Info("Graphs merged", "from", req.From, "revision", rec.Revision)
	c.JSON(http.StatusOK, MergeResponse{
		Persons:  len(rec.Snapshot.Persons),
		Edges:    len(rec.Snapshot.Edges),
		Revision: rec.Revision,
	})
}

// HandleDeleteGraph handles DELETE /v1/kinship/graph.
//
// Description:
//
//	Drops the caller's stored graph. The account starts over empty.
//	Deleting an account that has no graph succeeds.
//
// Response:
//
//	204 No Content
func (h *Handlers) HandleDeleteGraph(c *gin.Context) {
	logger := requestLogger(c, "HandleDeleteGraph")

	if err := h.svc.DeleteAccount(c.Request.Context(), accountOf(c)); err != nil {
		respondError(c, logger, "Delete graph failed", err)
		return
	}

	logger.Info("Graph deleted")
	c.Status(http.StatusNoContent)
}
