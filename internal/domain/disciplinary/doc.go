// Package disciplinary contains the Disciplinary Request bounded context.
// A request is filed against a worker for an incident, reviewed by HR and
// optionally ends with a sanction imposed by an administrator.
package disciplinary
