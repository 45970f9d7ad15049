// Package handlers provides the HTTP handlers for the render API:
//   - Render job submission and video delivery
//   - Health, liveness, and readiness checks
//   - Build version reporting
package handlers
