package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Workflow graphs
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				user_id BIGINT NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_user_id ON workflows(user_id);
			CREATE INDEX idx_workflows_user_active ON workflows(user_id, is_active);

			CREATE TABLE nodes (
				id VARCHAR(255) PRIMARY KEY,
				workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				name VARCHAR(255) NOT NULL DEFAULT '',
				action_id VARCHAR(255),
				reaction_id VARCHAR(255),
				logic_type VARCHAR(50),
				conf JSONB DEFAULT '{}',
				is_triggered BOOLEAN NOT NULL DEFAULT false,
				position_x INT NOT NULL DEFAULT 0,
				position_y INT NOT NULL DEFAULT 0,
				last_executed TIMESTAMP WITH TIME ZONE,
				execution_count BIGINT NOT NULL DEFAULT 0
			);

			CREATE INDEX idx_nodes_workflow_id ON nodes(workflow_id);
			CREATE INDEX idx_nodes_action_id ON nodes(action_id);

			CREATE TABLE connections (
				id VARCHAR(255) PRIMARY KEY,
				workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				source_node_id VARCHAR(255) NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
				target_node_id VARCHAR(255) NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
				channel VARCHAR(50) NOT NULL DEFAULT 'success',
				condition JSONB,
				CONSTRAINT connections_no_self_loop CHECK (source_node_id <> target_node_id),
				CONSTRAINT connections_unique_edge UNIQUE (source_node_id, target_node_id, channel)
			);

			CREATE INDEX idx_connections_workflow_id ON connections(workflow_id);
			CREATE INDEX idx_connections_source_node_id ON connections(source_node_id);
			CREATE INDEX idx_connections_target_node_id ON connections(target_node_id);

			-- Execution history
			CREATE TABLE workflow_executions (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				triggered_by VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				error_message TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX idx_workflow_executions_workflow_id ON workflow_executions(workflow_id);
			CREATE INDEX idx_workflow_executions_status ON workflow_executions(status);

			CREATE TABLE node_executions (
				id UUID PRIMARY KEY,
				node_id VARCHAR(255) NOT NULL,
				execution_id UUID NOT NULL REFERENCES workflow_executions(id) ON DELETE CASCADE,
				status VARCHAR(50) NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				output JSONB,
				logs TEXT NOT NULL DEFAULT '',
				execution_channel VARCHAR(50) NOT NULL DEFAULT ''
			);

			CREATE INDEX idx_node_executions_execution_id ON node_executions(execution_id);
			CREATE INDEX idx_node_executions_node_started ON node_executions(node_id, started_at DESC);

			-- Service catalog
			CREATE TABLE services (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				base_url VARCHAR(2048) NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT true,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE TABLE actions (
				id VARCHAR(255) PRIMARY KEY,
				service_id UUID NOT NULL REFERENCES services(id) ON DELETE CASCADE,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				config_schema JSONB,
				CONSTRAINT actions_unique_name UNIQUE (service_id, name)
			);

			CREATE TABLE reactions (
				id VARCHAR(255) PRIMARY KEY,
				service_id UUID NOT NULL REFERENCES services(id) ON DELETE CASCADE,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				config_schema JSONB,
				CONSTRAINT reactions_unique_name UNIQUE (service_id, name)
			);
		`,
	}
}
