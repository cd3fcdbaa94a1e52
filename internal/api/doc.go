// Package api provides the workflow orchestration REST API.
//
//	@title			Flowline API
//	@version		1.0
//	@description	Workflow orchestration engine API
//	@BasePath		/api/v1
package api
