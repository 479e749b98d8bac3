package api

import (
	"net/http"

	"github.com/ayusman/mudra/internal/plugin"
)

// PluginLister lists discovered plugins.
type PluginLister interface {
	List() []*plugin.Plugin
}

type pluginResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
}

type listPluginsResponse struct {
	Plugins []pluginResponse `json:"plugins"`
}

// ListPlugins handles GET /api/plugins.
func ListPlugins(plugins PluginLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		found := plugins.List()
		response := listPluginsResponse{
			Plugins: make([]pluginResponse, 0, len(found)),
		}
		for _, p := range found {
			actions := p.Manifest.Actions
			if actions == nil {
				actions = []string{}
			}
			response.Plugins = append(response.Plugins, pluginResponse{
				Name:        p.Manifest.Name,
				Version:     p.Manifest.Version,
				Description: p.Manifest.Description,
				Actions:     actions,
			})
		}
		writeJSON(w, http.StatusOK, response)
	}
}
