// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"time"
)

// Role is the per-company role carried by a membership.
type Role string

const (
	RoleSuperadmin     Role = "superadmin"
	RoleCompanyAdmin   Role = "company_admin"
	RoleProjectManager Role = "project_manager"
	RoleSupervisor     Role = "supervisor"
	RoleOperative      Role = "operative"
	RoleReadOnly       Role = "read_only"
	RoleClient         Role = "client"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleCompanyAdmin, RoleProjectManager,
		RoleSupervisor, RoleOperative, RoleReadOnly, RoleClient:
		return true
	}
	return false
}

type MembershipStatus string

const (
	MembershipInvited   MembershipStatus = "invited"
	MembershipActive    MembershipStatus = "active"
	MembershipSuspended MembershipStatus = "suspended"
)

type CompanyStatus string

const (
	CompanyPendingInvite CompanyStatus = "pending_invite"
	CompanyActive        CompanyStatus = "active"
	CompanySuspended     CompanyStatus = "suspended"
)

type Plan string

const (
	PlanFree       Plan = "free"
	PlanStarter    Plan = "starter"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanStarter, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

type UserStatus string

const (
	UserInvited UserStatus = "invited"
	UserActive  UserStatus = "active"
)

// Subscription is the billing sub-record embedded in a company.
type Subscription struct {
	Status string `json:"status"`
	Plan   Plan   `json:"plan"`
}

// Company is the tenant root. Settings is an opaque structured blob owned
// by the tenant; the core never inspects it.
type Company struct {
	ID           string          `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Plan         Plan            `json:"plan" db:"plan"`
	Status       CompanyStatus   `json:"status" db:"status"`
	Settings     json.RawMessage `json:"settings,omitempty" db:"settings"`
	Subscription Subscription    `json:"subscription"`
	Features     []string        `json:"features,omitempty" db:"features"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}

// User is a global identity, not tenant scoped. Email is unique platform
// wide; a user may hold memberships in several companies.
type User struct {
	ID        string     `json:"id" db:"id"`
	Email     string     `json:"email" db:"email"`
	Name      string     `json:"name" db:"name"`
	Status    UserStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// Membership is the authorization edge binding a user to a company.
// Exactly one row exists per (UserID, CompanyID) pair.
type Membership struct {
	ID        string           `json:"id" db:"id"`
	UserID    string           `json:"userId" db:"user_id"`
	CompanyID string           `json:"companyId" db:"company_id"`
	Role      Role             `json:"role" db:"role"`
	Status    MembershipStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time        `json:"updatedAt" db:"updated_at"`
}

// Member is a membership joined with its user, as returned by member
// listing endpoints.
type Member struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Role      Role             `json:"role"`
	Status    MembershipStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
}

// AuditEntry is one append-only audit record. ActorName is denormalized so
// the trail survives user deletion.
type AuditEntry struct {
	ID         string          `json:"id" db:"id"`
	CompanyID  string          `json:"companyId" db:"company_id"`
	ActorID    string          `json:"actorUserId" db:"actor_id"`
	ActorName  string          `json:"actorName" db:"actor_name"`
	Action     string          `json:"action" db:"action"`
	Resource   string          `json:"resource" db:"resource"`
	ResourceID string          `json:"resourceId" db:"resource_id"`
	Changes    json.RawMessage `json:"changes,omitempty" db:"changes"`
	Status     string          `json:"status" db:"status"`
	IPAddress  string          `json:"ipAddress" db:"ip_address"`
	UserAgent  string          `json:"userAgent,omitempty" db:"user_agent"`
	Severity   string          `json:"severity" db:"severity"`
	CreatedAt  time.Time       `json:"timestamp" db:"created_at"`
}

// Audit entry statuses and severities.
const (
	AuditSuccess = "success"
	AuditFailure = "failure"

	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// Invitation describes the accept link handed to an invited admin. It is
// not stored separately; the Invited membership row is the invitation.
type Invitation struct {
	UserID     string `json:"userId"`
	CompanyID  string `json:"companyId"`
	AcceptLink string `json:"acceptLink"`
}
