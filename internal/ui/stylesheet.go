package ui

import (
	"encoding/json"
	"io/fs"
	"path"
	"strings"
	"sync"

	"admin-dashboard/internal/ui/assets"
)

const defaultStylesheetPath = "/ui/static/css/app.css"

var (
	stylesheetPathOnce sync.Once
	stylesheetPath     = defaultStylesheetPath
)

// uiStylesheetHref returns the fingerprinted stylesheet path from the asset
// manifest, falling back to app.css.
func uiStylesheetHref() string {
	stylesheetPathOnce.Do(func() {
		raw, err := fs.ReadFile(assets.StaticFS(), "static/css/manifest.json")
		if err != nil {
			return
		}
		manifest := map[string]string{}
		if err := json.Unmarshal(raw, &manifest); err != nil {
			return
		}
		name := strings.TrimSpace(manifest["app.css"])
		if name == "" || path.Base(name) != name || path.Ext(name) != ".css" {
			return
		}
		stylesheetPath = "/ui/static/css/" + name
	})
	return stylesheetPath
}
