package store

type dialect struct {
	name          string
	schema        []string
	upsertSetting string
}

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS prompts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date VARCHAR(19) NOT NULL,
			prompt TEXT NOT NULL,
			tags TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_prompts_date ON prompts(date)`,
		`CREATE TABLE IF NOT EXISTS models (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name VARCHAR(255) NOT NULL UNIQUE,
			api_url TEXT NOT NULL,
			api_id VARCHAR(255) NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_models_active ON models(is_active)`,
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			prompt_id INTEGER NOT NULL REFERENCES prompts(id) ON DELETE CASCADE,
			model_id INTEGER NOT NULL REFERENCES models(id) ON DELETE RESTRICT,
			response_text TEXT NOT NULL,
			created_at VARCHAR(19) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_prompt ON results(prompt_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_model ON results(model_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_created ON results(created_at)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name VARCHAR(255) NOT NULL UNIQUE,
			value TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS prompt_versions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			original_prompt_id INTEGER REFERENCES prompts(id) ON DELETE SET NULL,
			improved_prompt TEXT NOT NULL,
			model_used VARCHAR(255),
			created_at VARCHAR(19) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_prompt_versions_prompt ON prompt_versions(original_prompt_id)`,
	},
	upsertSetting: `INSERT INTO settings (name, value) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
}

var mysqlDialect = dialect{
	name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS prompts (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			date VARCHAR(19) NOT NULL,
			prompt TEXT NOT NULL,
			tags TEXT,
			INDEX idx_prompts_date (date)
		)`,
		`CREATE TABLE IF NOT EXISTS models (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			api_url TEXT NOT NULL,
			api_id VARCHAR(255) NOT NULL,
			is_active TINYINT NOT NULL DEFAULT 1,
			INDEX idx_models_active (is_active)
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			prompt_id BIGINT NOT NULL,
			model_id BIGINT NOT NULL,
			response_text MEDIUMTEXT NOT NULL,
			created_at VARCHAR(19) NOT NULL,
			INDEX idx_results_created (created_at),
			FOREIGN KEY (prompt_id) REFERENCES prompts(id) ON DELETE CASCADE,
			FOREIGN KEY (model_id) REFERENCES models(id) ON DELETE RESTRICT
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			value TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS prompt_versions (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			original_prompt_id BIGINT NULL,
			improved_prompt TEXT NOT NULL,
			model_used VARCHAR(255),
			created_at VARCHAR(19) NOT NULL,
			FOREIGN KEY (original_prompt_id) REFERENCES prompts(id) ON DELETE SET NULL
		)`,
	},
	upsertSetting: `INSERT INTO settings (name, value) VALUES (?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value)`,
}
