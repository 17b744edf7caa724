package architecture_test

import (
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const modulePath = "admin-dashboard"

type layerRule struct {
	sourcePrefix string
	forbidden    []string
	// testAllowed lists forbidden prefixes that _test.go files may still
	// import, e.g. the SQLite fixtures in internal/db.
	testAllowed []string
	hint        string
}

func internal(names ...string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = modulePath + "/internal/" + n
	}
	return out
}

var outer = []string{modulePath + "/cmd", modulePath + "/pkg"}

var rules = []layerRule{
	{
		sourcePrefix: modulePath + "/internal/domain",
		forbidden: append(internal(
			"api", "app", "auth", "config", "dashboard", "db", "fetch", "identity",
			"metrics", "middleware", "rowstore", "storage", "ui",
		), outer...),
		hint: "domain may only import domain",
	},
	{
		sourcePrefix: modulePath + "/internal/rowstore",
		forbidden:    append(internal("api", "app", "dashboard", "fetch", "identity", "middleware", "ui", "db"), outer...),
		testAllowed:  internal("db"),
		hint:         "rowstore depends on domain only",
	},
	{
		sourcePrefix: modulePath + "/internal/fetch",
		forbidden:    append(internal("api", "app", "dashboard", "identity", "middleware", "ui", "db", "auth"), outer...),
		hint:         "fetch depends on domain, rowstore and metrics",
	},
	{
		sourcePrefix: modulePath + "/internal/identity",
		forbidden:    append(internal("api", "app", "dashboard", "fetch", "middleware", "ui", "db"), outer...),
		hint:         "identity depends on domain, auth, rowstore and metrics",
	},
	{
		sourcePrefix: modulePath + "/internal/auth",
		forbidden:    append(internal("api", "app", "dashboard", "fetch", "identity", "middleware", "rowstore", "ui", "db"), outer...),
		hint:         "auth depends on domain and metrics",
	},
	{
		sourcePrefix: modulePath + "/internal/dashboard",
		forbidden:    append(internal("api", "app", "middleware", "ui", "db", "rowstore"), outer...),
		testAllowed:  internal("db", "rowstore"),
		hint:         "dashboard composes hooks over the domain.RowStore port",
	},
	{
		sourcePrefix: modulePath + "/internal/middleware",
		forbidden:    append(internal("api", "app", "dashboard", "fetch", "identity", "rowstore", "ui", "db"), outer...),
		hint:         "middleware depends on domain, auth and config",
	},
	{
		sourcePrefix: modulePath + "/internal/api",
		forbidden:    append(internal("app", "ui", "db"), outer...),
		testAllowed:  internal("db"),
		hint:         "api depends on dashboard and the hook packages",
	},
	{
		sourcePrefix: modulePath + "/internal/ui",
		forbidden:    append(internal("app", "api", "db"), outer...),
		testAllowed:  internal("db"),
		hint:         "ui depends on dashboard and the hook packages",
	},
	{
		sourcePrefix: modulePath + "/internal/app",
		forbidden:    outer,
		hint:         "app wires internal packages and is imported by cmd only",
	},
	{
		sourcePrefix: modulePath + "/pkg/cli",
		forbidden:    append(internal("app", "api", "ui", "dashboard", "db", "fetch", "identity"), modulePath+"/cmd"),
		hint:         "the CLI is an API client; it may share domain types and auth helpers",
	},
}

func TestImportBoundaries(t *testing.T) {
	root := repoRoot(t)

	var violations []string
	fset := token.NewFileSet()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		sourcePkg := modulePath + "/" + filepath.ToSlash(filepath.Dir(rel))
		rule, ok := findRule(sourcePkg)
		if !ok {
			return nil
		}
		isTest := strings.HasSuffix(path, "_test.go")

		parsed, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		require.NoErrorf(t, err, "parse imports for %s", rel)

		for _, imp := range parsed.Imports {
			importPath, _ := strconv.Unquote(imp.Path.Value)
			if !hasPathPrefix(importPath, modulePath) {
				continue
			}
			if !matchesAny(importPath, rule.forbidden) {
				continue
			}
			if isTest && matchesAny(importPath, rule.testAllowed) {
				continue
			}
			violations = append(violations,
				sourcePkg+" imports "+importPath+" via "+filepath.ToSlash(rel)+"; allowed direction: "+rule.hint)
		}
		return nil
	})
	require.NoError(t, err)

	if len(violations) > 0 {
		sort.Strings(violations)
		t.Fatalf("%s", strings.Join(violations, "\n"))
	}
}

func TestRulesCoverEveryInternalPackage(t *testing.T) {
	root := repoRoot(t)

	entries, err := os.ReadDir(filepath.Join(root, "internal"))
	require.NoError(t, err)

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		switch e.Name() {
		case "architecture", "config", "db", "metrics", "storage":
			// Leaf packages with no admin-dashboard imports beyond config/domain.
			continue
		}
		_, ok := findRule(modulePath + "/internal/" + e.Name())
		require.Truef(t, ok, "no import rule for internal/%s", e.Name())
	}
}

func repoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, dir, parent, "go.mod not found")
		dir = parent
	}
}

func findRule(sourcePkg string) (layerRule, bool) {
	for _, rule := range rules {
		if hasPathPrefix(sourcePkg, rule.sourcePrefix) {
			return rule, true
		}
	}
	return layerRule{}, false
}

func matchesAny(importPath string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if hasPathPrefix(importPath, prefix) {
			return true
		}
	}
	return false
}

func hasPathPrefix(value string, prefix string) bool {
	return value == prefix || strings.HasPrefix(value, prefix+"/")
}
