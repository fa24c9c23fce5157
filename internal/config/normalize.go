package config

import "strings"

func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}

// normalizeDatabaseConfig folds the user/username and name/db_name aliases
// and fills the local development defaults.
func normalizeDatabaseConfig(cfg DatabaseRuntimeConfig) DatabaseRuntimeConfig {
	trimAll(&cfg.DSN, &cfg.URL, &cfg.Host, &cfg.User, &cfg.Username,
		&cfg.Password, &cfg.Name, &cfg.DBName, &cfg.Charset, &cfg.Loc)

	cfg.User = firstNonEmpty(cfg.User, cfg.Username, defaultDBUser)
	cfg.Name = firstNonEmpty(cfg.Name, cfg.DBName, defaultDBName)
	cfg.Host = firstNonEmpty(cfg.Host, defaultDBHost)
	cfg.Password = firstNonEmpty(cfg.Password, defaultDBPassword)
	cfg.Charset = firstNonEmpty(cfg.Charset, defaultDBCharset)
	cfg.Loc = firstNonEmpty(cfg.Loc, defaultDBLoc)
	cfg.Port = orDefault(cfg.Port, defaultDBPort)
	cfg.Params = copyStringMap(cfg.Params)
	return cfg
}

func normalizeRedisConfig(cfg RedisRuntimeConfig) RedisRuntimeConfig {
	trimAll(&cfg.Host, &cfg.Username, &cfg.Password)
	cfg.URL = normalizeRedisRawURL(cfg.URL)
	cfg.Scheme = strings.ToLower(strings.TrimSpace(cfg.Scheme))

	if cfg.URL == "" {
		cfg.Host = firstNonEmpty(cfg.Host, defaultRedisHost)
	}
	cfg.Port = orDefault(cfg.Port, defaultRedisPort)
	if cfg.DB < 0 {
		cfg.DB = defaultRedisDB
	}
	if cfg.Scheme == "" {
		cfg.Scheme = "redis"
		if cfg.TLS {
			cfg.Scheme = "rediss"
		}
	}
	cfg.Params = copyStringMap(cfg.Params)
	return cfg
}

// normalizeRedisRawURL accepts bare host:port/db values.
func normalizeRedisRawURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	switch {
	case trimmed == "":
		return ""
	case strings.HasPrefix(trimmed, "redis://"), strings.HasPrefix(trimmed, "rediss://"):
		return trimmed
	}
	return "redis://" + trimmed
}

func normalizeOrigins(origins []string) []string {
	out := origins[:0:0]
	for _, origin := range origins {
		if o := strings.TrimRight(strings.TrimSpace(origin), "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func normalizeEnv(env string) string {
	switch e := strings.ToLower(strings.TrimSpace(env)); e {
	case "", "dev":
		return defaultEnv
	case "prod":
		return "production"
	default:
		return e
	}
}

func normalizeRuntimePaths(paths RuntimePathsConfig) RuntimePathsConfig {
	trimAll(&paths.Logs, &paths.Static)
	return paths
}

// copyStringMap drops blank keys and values. nil stays nil.
func copyStringMap(input map[string]string) map[string]string {
	if input == nil {
		return nil
	}
	out := make(map[string]string, len(input))
	for key, value := range input {
		if k, v := strings.TrimSpace(key), strings.TrimSpace(value); k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}

func normalizeProviderType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	t = strings.ReplaceAll(t, "_", "-")
	t = strings.ReplaceAll(t, " ", "")
	switch t {
	case "openai-compatible", "openaicompatible":
		return ImageProviderOpenAI
	case "huggingface", "hf", "inference":
		return ImageProviderHTTP
	}
	return t
}

func normalizeImageConfig(cfg ImageProviderConfig) ImageProviderConfig {
	cfg.Type = normalizeProviderType(cfg.Type)
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	cfg.EditEndpoint = strings.TrimRight(cfg.EditEndpoint, "/")
	if cfg.AuthHeader == "" {
		cfg.AuthHeader = "Authorization"
	}
	if cfg.MockDelayMS < 0 {
		cfg.MockDelayMS = 0
	}
	return cfg
}

func normalizeStripeConfig(cfg StripeConfig) StripeConfig {
	cfg.SecretKey = strings.TrimSpace(cfg.SecretKey)
	cfg.WebhookSecret = strings.TrimSpace(cfg.WebhookSecret)
	cfg.SuccessURL = strings.TrimSpace(cfg.SuccessURL)
	cfg.CancelURL = strings.TrimSpace(cfg.CancelURL)
	cfg.Prices = normalizeOrigins(cfg.Prices)
	return cfg
}
