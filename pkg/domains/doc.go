// Package domains tracks sending domain verification. The provider owns the
// DNS checks; this service merges its point-in-time snapshots into local
// domain rows so dashboards and the sender allowlist have a durable view.
package domains
