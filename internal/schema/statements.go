// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package schema

// statements holds the tenant table set in dependency order: parents before
// the tables whose foreign keys cascade from them. Free-form structured
// columns (phases, attachments, line items) are JSONB.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		code TEXT,
		name TEXT NOT NULL,
		description TEXT,
		location TEXT,
		type TEXT,
		status TEXT,
		health TEXT,
		progress DOUBLE PRECISION,
		budget DOUBLE PRECISION,
		spent DOUBLE PRECISION,
		start_date DATE,
		end_date DATE,
		manager TEXT,
		image TEXT,
		team_size INTEGER,
		weather_location TEXT,
		ai_analysis TEXT,
		zones JSONB,
		phases JSONB,
		timeline_optimizations JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS shared_links (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
		company_id TEXT NOT NULL,
		token TEXT UNIQUE NOT NULL,
		password TEXT,
		expires_at TIMESTAMPTZ NOT NULL,
		created_by TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_accessed_at TIMESTAMPTZ,
		access_count INTEGER NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
		company_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL,
		priority TEXT NOT NULL,
		assigned_to TEXT,
		assignee_id TEXT,
		assignee_name TEXT,
		assignee_type TEXT,
		due_date DATE,
		start_date DATE,
		duration INTEGER,
		dependencies JSONB,
		progress INTEGER NOT NULL DEFAULT 0,
		color TEXT,
		created_by TEXT,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS team (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT,
		role TEXT NOT NULL,
		phone TEXT,
		skills JSONB,
		certifications JSONB,
		status TEXT,
		project_id TEXT,
		availability TEXT,
		location TEXT,
		avatar TEXT,
		hourly_rate DOUBLE PRECISION
	)`,

	`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		project_id TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
		project_name TEXT,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		size TEXT,
		date DATE,
		status TEXT,
		url TEXT,
		linked_task_ids JSONB,
		current_version INTEGER
	)`,

	`CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		company TEXT,
		email TEXT,
		phone TEXT,
		projects JSONB,
		total_value DOUBLE PRECISION,
		status TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS inventory (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT,
		quantity INTEGER,
		unit TEXT,
		location TEXT,
		reorder_level INTEGER,
		status TEXT,
		supplier TEXT,
		unit_cost DOUBLE PRECISION,
		total_value DOUBLE PRECISION,
		last_restocked TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS equipment (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT,
		model TEXT,
		serial_number TEXT,
		status TEXT,
		location TEXT,
		assigned_to TEXT,
		purchase_date DATE,
		next_maintenance DATE,
		utilization_rate INTEGER
	)`,

	`CREATE TABLE IF NOT EXISTS rfis (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		project_id TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
		number TEXT NOT NULL,
		subject TEXT NOT NULL,
		description TEXT,
		raised_by TEXT,
		assigned_to TEXT,
		priority TEXT,
		status TEXT,
		due_date DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		response TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS punch_items (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		project_id TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
		location TEXT,
		description TEXT,
		priority TEXT,
		assigned_to TEXT,
		status TEXT,
		due_date DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS daily_logs (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		project_id TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
		date DATE,
		weather TEXT,
		temperature TEXT,
		workforce INTEGER,
		activities JSONB,
		equipment JSONB,
		delays JSONB,
		safety_issues JSONB,
		notes TEXT,
		created_by TEXT,
		status TEXT NOT NULL DEFAULT 'Draft',
		signed_by TEXT,
		signed_at TIMESTAMPTZ,
		attachments JSONB
	)`,

	`CREATE TABLE IF NOT EXISTS dayworks (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		project_id TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
		date DATE,
		description TEXT,
		labor JSONB,
		materials JSONB,
		grand_total DOUBLE PRECISION,
		status TEXT,
		attachments JSONB
	)`,

	`CREATE TABLE IF NOT EXISTS safety_incidents (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		project_id TEXT,
		type TEXT,
		title TEXT,
		severity TEXT,
		date DATE,
		location TEXT,
		description TEXT,
		person_involved TEXT,
		action_taken TEXT,
		status TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS safety_hazards (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		project_id TEXT,
		type TEXT,
		severity TEXT,
		risk_score DOUBLE PRECISION,
		description TEXT,
		recommendation TEXT,
		regulation TEXT,
		box_2d JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS timesheets (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		user_id TEXT,
		user_name TEXT,
		date DATE,
		project_id TEXT,
		project_name TEXT,
		hours_worked DOUBLE PRECISION,
		task TEXT,
		status TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS channels (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		is_private BOOLEAN,
		member_ids JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS team_messages (
		id TEXT PRIMARY KEY,
		channel_id TEXT NOT NULL REFERENCES channels (id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		avatar TEXT,
		attachments JSONB
	)`,

	`CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		project_id TEXT,
		type TEXT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		description TEXT,
		category TEXT,
		date DATE,
		status TEXT,
		cost_code_id TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS purchase_orders (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		project_id TEXT,
		po_number TEXT UNIQUE NOT NULL,
		vendor TEXT NOT NULL,
		items JSONB NOT NULL,
		total DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL,
		requested_by TEXT,
		approvers JSONB,
		date_created DATE,
		date_required DATE,
		notes TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS defects (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		project_id TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT,
		severity TEXT,
		status TEXT,
		reported_by TEXT,
		assigned_to TEXT,
		location TEXT,
		box_2d JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS project_risks (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
		risk_level TEXT,
		predicted_delay_days INTEGER,
		factors JSONB,
		recommendations JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		trend TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS ai_assets (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		project_id TEXT,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		url TEXT,
		prompt TEXT,
		metadata JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS vendors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT,
		contact TEXT,
		email TEXT,
		phone TEXT,
		rating DOUBLE PRECISION,
		status TEXT,
		company_id TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS cost_codes (
		id TEXT PRIMARY KEY,
		project_id TEXT REFERENCES projects (id) ON DELETE CASCADE,
		company_id TEXT,
		code TEXT,
		description TEXT,
		budget DOUBLE PRECISION,
		spent DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		project_id TEXT REFERENCES projects (id) ON DELETE CASCADE,
		number TEXT,
		vendor_id TEXT,
		amount DOUBLE PRECISION,
		date DATE,
		due_date DATE,
		status TEXT,
		cost_code_id TEXT,
		items JSONB,
		files JSONB
	)`,

	`CREATE TABLE IF NOT EXISTS expense_claims (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		project_id TEXT REFERENCES projects (id) ON DELETE CASCADE,
		user_id TEXT,
		description TEXT,
		amount DOUBLE PRECISION,
		date DATE,
		category TEXT,
		status TEXT,
		cost_code_id TEXT,
		receipt_url TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT,
		link TEXT,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		user_name TEXT,
		parent_id TEXT,
		content TEXT NOT NULL,
		mentions JSONB,
		attachments JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS activity_feed (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		project_id TEXT,
		user_id TEXT NOT NULL,
		user_name TEXT,
		action TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		metadata JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS task_assignments (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL REFERENCES tasks (id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		user_name TEXT,
		role TEXT,
		allocated_hours DOUBLE PRECISION,
		actual_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS automations (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		trigger_type TEXT NOT NULL,
		action_type TEXT NOT NULL,
		configuration JSONB,
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS safety_checklists (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		project_id TEXT REFERENCES projects (id) ON DELETE SET NULL,
		name TEXT NOT NULL,
		date DATE NOT NULL,
		inspector TEXT,
		status TEXT NOT NULL DEFAULT 'In Progress',
		score DOUBLE PRECISION,
		signed_by TEXT,
		signed_at TIMESTAMPTZ,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS safety_checklist_items (
		id TEXT PRIMARY KEY,
		checklist_id TEXT NOT NULL REFERENCES safety_checklists (id) ON DELETE CASCADE,
		category TEXT NOT NULL,
		text TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS module_installations (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		module_id TEXT NOT NULL,
		config JSONB,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		installed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (company_id, module_id)
	)`,

	`CREATE TABLE IF NOT EXISTS tenant_audit_logs (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		user_id TEXT,
		user_name TEXT,
		action TEXT NOT NULL,
		resource TEXT NOT NULL,
		resource_id TEXT,
		changes JSONB,
		status TEXT,
		details TEXT,
		ip_address TEXT,
		user_agent TEXT,
		severity TEXT NOT NULL DEFAULT 'info',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}
