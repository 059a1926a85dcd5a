// Package http provides HTTP handlers and middleware for the scheduling API.
//
// The router exposes the following endpoints:
//   - GET /workers/{id}/conflicts?date=YYYY-MM-DD&start=HH:MM&end=HH:MM: checks a
//     candidate booking. Response: {"available","conflicts","warnings"}. Conflicts
//     never fail the request; a caller may still assign after confirmation.
//   - GET /workers/{id}/availability?date=YYYY-MM-DD: the day projection used by
//     calendar views, exchanging the `dayDTO` payload defined in availability_handler.go.
//   - GET /workers/{id}/availability/week?start=YYYY-MM-DD: seven consecutive day
//     projections starting at start.
//   - GET /workers/{id}/absences?from=YYYY-MM-DD&to=YYYY-MM-DD, POST /workers/{id}/absences,
//     DELETE /absences/{id}: absence maintenance exchanging `absenceDTO`.
//   - PUT /workers/{id}/fixed-days-off, PUT /workers/{id}/maintenance-blocks: weekly
//     record maintenance defined in calendar_handler.go.
//   - POST /recurring-tasks: creates a recurring task definition and answers with the
//     stored definition and its upcoming executions.
//   - POST /recurring-tasks/run: runs one batch pass. Requires `Authorization: Bearer`
//     with the configured trigger token, is rate limited, and answers 409 while another
//     pass is running. The route is absent when no token hash is configured.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
