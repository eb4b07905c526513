package checkrunner

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// packageManager identifies a detected toolchain and its default command
// mapping for the three well-known checks.
type packageManager struct {
	name    string
	lockGlobs []string
	commands  map[string]string
}

// knownManagers is tried in order; the first whose lock glob matches a file
// directly under workDir wins. go.sum is listed last since Go projects
// without a vendored module cache may not carry one.
var knownManagers = []packageManager{
	{
		name:      "pnpm",
		lockGlobs: []string{"pnpm-lock.yaml"},
		commands: map[string]string{
			"lint":      "pnpm run lint",
			"typecheck": "pnpm run typecheck",
			"test":      "pnpm test",
		},
	},
	{
		name:      "yarn",
		lockGlobs: []string{"yarn.lock"},
		commands: map[string]string{
			"lint":      "yarn lint",
			"typecheck": "yarn typecheck",
			"test":      "yarn test",
		},
	},
	{
		name:      "npm",
		lockGlobs: []string{"package-lock.json"},
		commands: map[string]string{
			"lint":      "npm run lint",
			"typecheck": "npm run typecheck",
			"test":      "npm test",
		},
	},
	{
		name:      "cargo",
		lockGlobs: []string{"Cargo.lock"},
		commands: map[string]string{
			"lint":      "cargo clippy",
			"typecheck": "cargo check",
			"test":      "cargo test",
		},
	},
	{
		name:      "bundler",
		lockGlobs: []string{"Gemfile.lock"},
		commands: map[string]string{
			"lint":      "bundle exec rubocop",
			"typecheck": "bundle exec srb typecheck",
			"test":      "bundle exec rspec",
		},
	},
	{
		name:      "poetry",
		lockGlobs: []string{"poetry.lock"},
		commands: map[string]string{
			"lint":      "poetry run ruff check .",
			"typecheck": "poetry run mypy .",
			"test":      "poetry run pytest",
		},
	},
	{
		name:      "go",
		lockGlobs: []string{"go.sum", "go.mod"},
		commands: map[string]string{
			"lint":      "go vet ./...",
			"typecheck": "go build ./...",
			"test":      "go test ./...",
		},
	},
}

// installCommands maps a manager name to the command that installs its
// dependencies. Go has no distinct install step since `go build`/`go test`
// resolve modules on demand, so it is a no-op.
var installCommands = map[string]string{
	"pnpm":    "pnpm install --frozen-lockfile",
	"yarn":    "yarn install --frozen-lockfile",
	"npm":     "npm ci",
	"cargo":   "cargo fetch",
	"bundler": "bundle install",
	"poetry":  "poetry install",
	"go":      "",
}

// detectManager inspects workDir for a recognised lockfile and returns the
// matching packageManager. When none match, it falls back to the "go"
// mapping, matching the teacher repo's own toolchain.
func detectManager(workDir string) packageManager {
	for _, pm := range knownManagers {
		for _, glob := range pm.lockGlobs {
			matches, err := doublestar.Glob(os.DirFS(workDir), glob)
			if err == nil && len(matches) > 0 {
				return pm
			}
			if _, statErr := os.Stat(filepath.Join(workDir, glob)); statErr == nil {
				return pm
			}
		}
	}
	return knownManagers[len(knownManagers)-1] // go fallback
}

// commandFor returns the concrete shell command for a named check under the
// detected package manager, with a sensible fallback to the "go" mapping
// when a manager's command table omits an entry (e.g. no typecheck concept).
func commandFor(pm packageManager, check string) (string, bool) {
	if cmd, ok := pm.commands[check]; ok && cmd != "" {
		return cmd, true
	}
	if cmd, ok := knownManagers[len(knownManagers)-1].commands[check]; ok {
		return cmd, true
	}
	return "", false
}
