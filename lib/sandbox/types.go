// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import "time"

// AuthSession is the visitor's authenticated identity. It exists only
// while a bearer credential is held; the zero token means the visitor
// is not signed in.
type AuthSession struct {
	// Token is the bearer credential presented on protected calls.
	Token string `json:"token"`
	// Email identifies the visitor to the lease-list query.
	Email string `json:"email"`
	// DisplayName is shown in the portal header.
	DisplayName string `json:"displayName"`
	// Roles are the visitor's provisioning roles, opaque to the portal.
	Roles []string `json:"roles"`
}

// LeaseTemplate describes a requestable sandbox: how long a lease runs
// and how much it may spend. Fetched fresh on every modal open — policy
// and pricing may change between requests, so templates are never
// cached across acceptance flows.
type LeaseTemplate struct {
	TemplateID           string  `json:"templateId"`
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	LeaseDurationInHours float64 `json:"leaseDurationInHours"`
	MaxSpend             float64 `json:"maxSpend"`
}

// Configuration is the portal-wide settings record, including the
// current Acceptable Use Policy text.
type Configuration struct {
	// AUP is the Acceptable Use Policy in markdown.
	AUP string `json:"aup"`
	// MaxLeases is the per-visitor active lease limit.
	MaxLeases int `json:"maxLeases"`
	// LeaseDuration is the default lease duration in hours.
	LeaseDuration float64 `json:"leaseDuration"`
}

// Lease is a provisioned (or requested) sandbox tracked by the remote
// backend. The portal never mutates a lease; it only re-fetches the
// list.
type Lease struct {
	LeaseID           string    `json:"leaseId"`
	AWSAccountID      string    `json:"awsAccountId"`
	LeaseTemplateID   string    `json:"leaseTemplateId"`
	LeaseTemplateName string    `json:"leaseTemplateName"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
	ExpiresAt         time.Time `json:"expiresAt"`
	MaxSpend          float64   `json:"maxSpend"`
	CurrentSpend      float64   `json:"currentSpend"`
	Comments          string    `json:"comments,omitempty"`
}

// Wire values for Lease.Status as the backend reports them.
const (
	StatusActive          = "Active"
	StatusPendingApproval = "PendingApproval"
	StatusApprovalDenied  = "ApprovalDenied"
	StatusExpired         = "Expired"
	StatusBudgetExceeded  = "BudgetExceeded"
)

// StatusClass is the portal's closed classification of lease statuses.
// Every class gets one unambiguous visual treatment in the dashboard,
// always a text label paired with a color, never color alone.
type StatusClass int

const (
	// ClassActive leases are running and expose the launch action.
	ClassActive StatusClass = iota
	// ClassPending leases await approval; no actions available.
	ClassPending
	// ClassCompleted leases have expired normally.
	ClassCompleted
	// ClassDenied leases were refused by an approver.
	ClassDenied
	// ClassBudgetExceeded leases were frozen after spending past
	// their cap.
	ClassBudgetExceeded
	// ClassUnknown covers status values this portal version does not
	// recognize. Rendered faintly with the raw wire value as label.
	ClassUnknown
)

// Classify maps a wire status to its display class.
func Classify(status string) StatusClass {
	switch status {
	case StatusActive:
		return ClassActive
	case StatusPendingApproval:
		return ClassPending
	case StatusExpired:
		return ClassCompleted
	case StatusApprovalDenied:
		return ClassDenied
	case StatusBudgetExceeded:
		return ClassBudgetExceeded
	default:
		return ClassUnknown
	}
}

// Label returns the dashboard text label for the class.
func (class StatusClass) Label() string {
	switch class {
	case ClassActive:
		return "Active"
	case ClassPending:
		return "Pending approval"
	case ClassCompleted:
		return "Expired"
	case ClassDenied:
		return "Denied"
	case ClassBudgetExceeded:
		return "Budget exceeded"
	default:
		return "Unknown"
	}
}

// Launchable reports whether a lease in this class exposes the launch
// and console actions. Only active leases do.
func (class StatusClass) Launchable() bool {
	return class == ClassActive
}

// AuthStatusResponse is the authentication-status payload for a
// signed-in visitor.
type AuthStatusResponse struct {
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName"`
	UserName    string   `json:"userName"`
	Roles       []string `json:"roles"`
}

// CreateLeaseRequest is the body of the lease-creation call. The
// acceptance flag is always true by the time the portal submits: the
// modal's gate does not allow a submit without an accepted AUP.
type CreateLeaseRequest struct {
	LeaseTemplateID string `json:"leaseTemplateId"`
	AcceptedAUP     bool   `json:"acceptedAUP"`
}

// CreateLeaseResponse is the reference to a freshly created lease.
type CreateLeaseResponse struct {
	LeaseID string `json:"leaseId"`
	Status  string `json:"status"`
}
