package cli

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routesConfig = `
url_path: /api
store:
  driver: memory
resources:
  - name: user
  - name: hobby
    plural: hobbies
    sort: -date
    enable_xhr: true
    single_view: false
`

func TestRoutes_Golden(t *testing.T) {
	path := writeConfig(t, routesConfig)

	out, err := execute(t, "routes", "--config", path)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "routes", []byte(out))
}

func TestRoutes_JSON(t *testing.T) {
	path := writeConfig(t, routesConfig)

	out, err := execute(t, "--format", "json", "routes", "--config", path)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   RoutesReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "/api/", resp.Data.URLPath)
	require.Len(t, resp.Data.Routes, 6)
	assert.Equal(t, RouteInfo{Method: "POST", Path: "/api/:resource/:id", Action: "override"}, resp.Data.Routes[5])

	require.Len(t, resp.Data.Resources, 2)
	assert.Equal(t, ResourceInfo{
		Singular:       "hobby",
		Plural:         "hobbies",
		EntityView:     "resource_hobby",
		CollectionView: "resource_hobbies",
		Sort:           "-date",
		EnableXHR:      true,
		SingleView:     false,
	}, resp.Data.Resources[1])
}

func TestRoutes_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: memory\nresources:\n  - name: user\n  - name: users\n    plural: people\n")

	out, err := execute(t, "routes", "--config", path)
	require.Error(t, err)
	assert.Contains(t, out, "Error [E101]")
}
