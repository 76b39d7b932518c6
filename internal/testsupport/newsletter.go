package testsupport

import (
	"path/filepath"
	"testing"

	"missive/internal/config"
	"missive/internal/newsletter"
)

// WriteNewsletterFolder scaffolds a newsletter folder under the configured
// newsletters directory and returns its path.
func WriteNewsletterFolder(t testing.TB, cfg *config.Config, name string, nlCfg newsletter.Config) string {
	t.Helper()

	folder := filepath.Join(cfg.Paths.NewslettersDir, name)
	if err := newsletter.Scaffold(folder, nlCfg); err != nil {
		t.Fatalf("newsletter.Scaffold: %v", err)
	}
	return folder
}
