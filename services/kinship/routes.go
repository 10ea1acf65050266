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
	"github.com/gin-gonic/gin"
)

// RouteOptions configures the middleware applied to account routes.
type RouteOptions struct {
	Auth         AuthOptions
	RateLimit    RateLimitOptions
	Metrics      *Metrics
	MaxBodyBytes int64
}

// RegisterRoutes registers all kinship routes with the router.
//
// Description:
//
//	Registers all /v1/kinship/* endpoints with the given Gin router group.
//	Every route gets a request ID and request metrics. Routes other than
//	health and ready also resolve the caller's account and are rate
//	limited per account.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//	opts - Auth, rate limit, metrics and body size settings
//
// Health Endpoints:
//
//	GET    /v1/kinship/health - Liveness
//	GET    /v1/kinship/ready - Readiness
//
// Person Endpoints:
//
//	GET    /v1/kinship/persons - List persons
//	POST   /v1/kinship/persons - Add a person
//	GET    /v1/kinship/persons/search - Search names by glob
//	GET    /v1/kinship/persons/:id - Get a person
//	PATCH  /v1/kinship/persons/:id - Edit a person
//	DELETE /v1/kinship/persons/:id - Remove a person and their relationships
//	GET    /v1/kinship/persons/:id/family - Immediate family
//	GET    /v1/kinship/persons/:id/relatives - Extended family
//
// Relationship Endpoints:
//
//	POST   /v1/kinship/relationships - Add a relationship
//	PUT    /v1/kinship/relationships - Replace a relationship
//	DELETE /v1/kinship/relationships - Delete a relationship (?from=&to=)
//
// Query Endpoints:
//
//	POST   /v1/kinship/query/relationship - Kinship term and path
//	POST   /v1/kinship/query/path - Shortest path
//	POST   /v1/kinship/query/common_ancestors - Shared ancestors
//	POST   /v1/kinship/query/bidirectional - Terms in both directions
//	POST   /v1/kinship/query/comprehensive - All of the above
//	POST   /v1/kinship/query/generation_gap - Parent/Child hop count
//	POST   /v1/kinship/query/cousins - Cousin check
//
// Audit Endpoints:
//
//	GET    /v1/kinship/audit/cycles - Ancestry cycles
//	GET    /v1/kinship/audit/validate - Structural problems
//
// Transfer Endpoints:
//
//	GET    /v1/kinship/export/json - Snapshot
//	GET    /v1/kinship/export/csv - Members and edges tables
//	GET    /v1/kinship/export/dot - Graphviz rendering
//	POST   /v1/kinship/import - Replace the graph (?format=json|csv)
//	POST   /v1/kinship/merge - Merge another account's graph
//	DELETE /v1/kinship/graph - Drop the caller's graph
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers, opts RouteOptions) {
	kin := rg.Group("/kinship")
	kin.Use(RequestID(), RequestMetrics(opts.Metrics))
	{
		kin.GET("/health", handlers.HandleHealth)
		kin.GET("/ready", handlers.HandleReady)
	}

	acct := kin.Group("")
	acct.Use(
		BodyLimit(opts.MaxBodyBytes),
		AccountAuth(opts.Auth),
		RateLimit(opts.RateLimit, opts.Metrics),
	)

	persons := acct.Group("/persons")
	{
		persons.GET("", handlers.HandleListPersons)
		persons.POST("", handlers.HandleAddPerson)
		persons.GET("/search", handlers.HandleSearchPersons)
		persons.GET("/:id", handlers.HandleGetPerson)
		persons.PATCH("/:id", handlers.HandleEditPerson)
		persons.DELETE("/:id", handlers.HandleRemovePerson)
		persons.GET("/:id/family", handlers.HandleImmediateFamily)
		persons.GET("/:id/relatives", handlers.HandleAllRelatives)
	}

	rels := acct.Group("/relationships")
	{
		rels.POST("", handlers.HandleAddRelationship)
		rels.PUT("", handlers.HandleEditRelationship)
		rels.DELETE("", handlers.HandleDeleteRelationship)
	}

	query := acct.Group("/query")
	{
		query.POST("/relationship", handlers.HandleRelationship)
		query.POST("/path", handlers.HandlePath)
		query.POST("/common_ancestors", handlers.HandleCommonAncestors)
		query.POST("/bidirectional", handlers.HandleBidirectional)
		query.POST("/comprehensive", handlers.HandleComprehensive)
		query.POST("/generation_gap", handlers.HandleGenerationGap)
		query.POST("/cousins", handlers.HandleCousins)
	}

	audit := acct.Group("/audit")
	{
		audit.GET("/cycles", handlers.HandleCycles)
		audit.GET("/validate", handlers.HandleValidate)
	}

	export := acct.Group("/export")
	{
		export.GET("/json", handlers.HandleExportJSON)
		export.GET("/csv", handlers.HandleExportCSV)
		export.GET("/dot", handlers.HandleExportDOT)
	}

	acct.POST("/import", handlers.HandleImport)
	acct.POST("/merge", handlers.HandleMerge)
	acct.DELETE("/graph", handlers.HandleDeleteGraph)
}
