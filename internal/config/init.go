package config

import (
	"os"

	"gopkg.in/yaml.v3"

	ferrors "github.com/KRR-Oxford/docnav/internal/foundation/errors"
)

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}

	example := Config{
		Site: SiteConfig{
			Title:       "DeepOnto Documentation",
			Description: "Ontology engineering with deep learning",
			BaseURL:     "https://krr-oxford.github.io/DeepOnto/",
			Output:      "./site",
		},
		Docs: DocsConfig{
			Dir:     "docs",
			NavFile: "docs/nav.md",
			Git: &GitConfig{
				URL:    "https://github.com/example/docs.git",
				Branch: "main",
				Token:  "${DOCNAV_GIT_TOKEN}",
			},
		},
		Verification: VerificationConfig{
			Enabled:         false,
			NATSURL:         "nats://localhost:4222",
			MaxConcurrent:   10,
			FollowRedirects: true,
		},
		Serve: ServeConfig{
			Listen:  ":8080",
			Metrics: true,
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to marshal example config").Build()
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).Build()
	}
	return nil
}
