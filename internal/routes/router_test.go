package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/poofware/liszt-service/internal/app"
	"github.com/poofware/liszt-service/internal/config"
	"github.com/poofware/liszt-service/internal/constants"
	"github.com/poofware/liszt-service/internal/dtos"
	"github.com/poofware/liszt-service/internal/models"
	"github.com/poofware/liszt-service/internal/repositories"
	"github.com/poofware/liszt-service/internal/utils"
)

func newTestServer(t *testing.T, repos *repositories.Repositories) *httptest.Server {
	t.Helper()
	cfg := &config.Config{AppName: "liszt-service", Env: "dev", StoreBackend: constants.StoreBackendMemory}
	srv := httptest.NewServer(NewRouter(app.NewAppWithRepositories(cfg, repos)))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, srv.URL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func requireErrorCode(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	require.Equal(t, status, resp.StatusCode)
	body := decode[utils.ErrorResponse](t, resp)
	require.Equal(t, code, body.Code)
}

func TestResidencyWalkthrough(t *testing.T) {
	srv := newTestServer(t, repositories.NewMemoryRepositories())

	resp := do(t, srv, http.MethodPost, BuildingRegister, dtos.RegisterBuildingRequest{Name: "Elm Court"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	building := decode[models.Building](t, resp)
	require.Equal(t, "Elm Court", building.Name)

	resp = do(t, srv, http.MethodPost, UnitRegister, dtos.RegisterUnitRequest{Name: "4B", BuildingID: building.BuildingID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	unit := decode[models.Unit](t, resp)
	require.Equal(t, building.BuildingID, unit.BuildingID)

	resp = do(t, srv, http.MethodPost, ResidentRegister, dtos.RegisterResidentRequest{Name: "A. Smith"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resident := decode[models.Resident](t, resp)

	resp = do(t, srv, http.MethodPost, ResidentMoveIn, dtos.MoveRequest{ResidentID: resident.ResidentID, UnitID: unit.UnitID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, UnitResidents+"?unit_id="+unit.UnitID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []models.Resident{resident}, decode[[]models.Resident](t, resp))

	resp = do(t, srv, http.MethodGet, BuildingUnits+"?building_id="+building.BuildingID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	units := decode[[]models.Unit](t, resp)
	require.Len(t, units, 1)
	require.Equal(t, []string{resident.ResidentID}, units[0].Residents)
	require.NotZero(t, units[0].UpdatedAt)

	resp = do(t, srv, http.MethodPost, ResidentMoveOut, dtos.MoveRequest{ResidentID: resident.ResidentID, UnitID: unit.UnitID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, UnitResidents+"?unit_id="+unit.UnitID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, decode[[]models.Resident](t, resp))
}

func TestBuildingLifecycle(t *testing.T) {
	srv := newTestServer(t, repositories.NewMemoryRepositories())

	resp := do(t, srv, http.MethodGet, Buildings, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw := new(bytes.Buffer)
	_, err := raw.ReadFrom(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "[]", strings.TrimSpace(raw.String()))

	resp = do(t, srv, http.MethodPost, BuildingRegister, dtos.RegisterBuildingRequest{Name: "Elm Court"})
	building := decode[models.Building](t, resp)

	resp = do(t, srv, http.MethodGet, BuildingByID+"?building_id="+building.BuildingID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, building, decode[models.Building](t, resp))

	resp = do(t, srv, http.MethodGet, Buildings, nil)
	require.Equal(t, []models.Building{building}, decode[[]models.Building](t, resp))

	for i := 0; i < 2; i++ {
		resp = do(t, srv, http.MethodDelete, BuildingDeregister+"?building_id="+building.BuildingID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp = do(t, srv, http.MethodGet, BuildingByID+"?building_id="+building.BuildingID, nil)
	requireErrorCode(t, resp, http.StatusNotFound, utils.ErrCodeNotFound)
}

func TestResidentLifecycle(t *testing.T) {
	srv := newTestServer(t, repositories.NewMemoryRepositories())

	resp := do(t, srv, http.MethodPost, ResidentRegister, dtos.RegisterResidentRequest{Name: "A. Smith"})
	resident := decode[models.Resident](t, resp)

	resp = do(t, srv, http.MethodGet, ResidentByID+"?resident_id="+resident.ResidentID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, resident, decode[models.Resident](t, resp))

	resp = do(t, srv, http.MethodDelete, ResidentDeregister+"?resident_id="+resident.ResidentID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, ResidentByID+"?resident_id="+resident.ResidentID, nil)
	requireErrorCode(t, resp, http.StatusNotFound, utils.ErrCodeNotFound)
}

func TestUnitDeregister(t *testing.T) {
	srv := newTestServer(t, repositories.NewMemoryRepositories())

	resp := do(t, srv, http.MethodPost, UnitRegister, dtos.RegisterUnitRequest{Name: "4B", BuildingID: uuid.NewString()})
	unit := decode[models.Unit](t, resp)

	resp = do(t, srv, http.MethodDelete, UnitDeregister+"?unit_id="+unit.UnitID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, UnitResidents+"?unit_id="+unit.UnitID, nil)
	requireErrorCode(t, resp, http.StatusNotFound, utils.ErrCodeNotFound)
}

func TestMoveIntoMissingUnit(t *testing.T) {
	srv := newTestServer(t, repositories.NewMemoryRepositories())

	for _, path := range []string{ResidentMoveIn, ResidentMoveOut} {
		resp := do(t, srv, http.MethodPost, path, dtos.MoveRequest{ResidentID: uuid.NewString(), UnitID: uuid.NewString()})
		requireErrorCode(t, resp, http.StatusNotFound, utils.ErrCodeNotFound)
	}
}

func TestMissingParameters(t *testing.T) {
	repos := repositories.NewMemoryRepositories()
	srv := newTestServer(t, repos)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"building by id", http.MethodGet, BuildingByID, nil},
		{"building by empty id", http.MethodGet, BuildingByID + "?building_id=", nil},
		{"building register", http.MethodPost, BuildingRegister, map[string]string{}},
		{"building register empty body", http.MethodPost, BuildingRegister, nil},
		{"building deregister", http.MethodDelete, BuildingDeregister, nil},
		{"building units", http.MethodGet, BuildingUnits, nil},
		{"unit register without building", http.MethodPost, UnitRegister, map[string]string{"name": "4B"}},
		{"unit register without name", http.MethodPost, UnitRegister, map[string]string{"building_id": uuid.NewString()}},
		{"unit deregister", http.MethodDelete, UnitDeregister, nil},
		{"unit residents", http.MethodGet, UnitResidents, nil},
		{"resident by id", http.MethodGet, ResidentByID, nil},
		{"resident register", http.MethodPost, ResidentRegister, map[string]string{"name": ""}},
		{"resident deregister", http.MethodDelete, ResidentDeregister, nil},
		{"move in without unit", http.MethodPost, ResidentMoveIn, map[string]string{"resident_id": uuid.NewString()}},
		{"move out without resident", http.MethodPost, ResidentMoveOut, map[string]string{"unit_id": uuid.NewString()}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, srv, tc.method, tc.path, tc.body)
			requireErrorCode(t, resp, http.StatusBadRequest, utils.ErrCodeValidation)
		})
	}

	resp := do(t, srv, http.MethodGet, Buildings, nil)
	require.Empty(t, decode[[]models.Building](t, resp))
}

func TestMalformedBody(t *testing.T) {
	srv := newTestServer(t, repositories.NewMemoryRepositories())

	for _, path := range []string{BuildingRegister, UnitRegister, ResidentRegister, ResidentMoveIn, ResidentMoveOut} {
		resp := do(t, srv, http.MethodPost, path, `{"name":`)
		requireErrorCode(t, resp, http.StatusBadRequest, utils.ErrCodeInvalidPayload)
	}
}

func TestTrailingBodyRejected(t *testing.T) {
	srv := newTestServer(t, repositories.NewMemoryRepositories())

	for _, body := range []string{`{"name":"x"} trailing`, `{"name":"x"}{"name":"y"}`, `{}{}`} {
		resp := do(t, srv, http.MethodPost, BuildingRegister, body)
		requireErrorCode(t, resp, http.StatusBadRequest, utils.ErrCodeInvalidPayload)
	}
	resp := do(t, srv, http.MethodPost, ResidentRegister, `{"name":"Ada"} 42`)
	requireErrorCode(t, resp, http.StatusBadRequest, utils.ErrCodeInvalidPayload)

	// trailing whitespace is still a single value
	resp = do(t, srv, http.MethodPost, BuildingRegister, "{\"name\":\"x\"}\n  ")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, Buildings, nil)
	require.Len(t, decode[[]models.Building](t, resp), 1)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, repositories.NewMemoryRepositories())
	resp := do(t, srv, http.MethodGet, Health, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "OK", decode[dtos.HealthCheckResponse](t, resp).Status)
}

func TestHealthUnavailable(t *testing.T) {
	repos, err := repositories.OpenBoltRepositories(filepath.Join(t.TempDir(), "liszt.db"), repositories.Tables{
		Buildings:       "buildings",
		Units:           "units",
		UnitsByBuilding: "units_by_building",
		Residents:       "residents",
	})
	require.NoError(t, err)
	require.NoError(t, repos.Close())

	srv := newTestServer(t, repos)
	resp := do(t, srv, http.MethodGet, Health, nil)
	requireErrorCode(t, resp, http.StatusServiceUnavailable, utils.ErrCodeInternal)
}

func TestWrongMethod(t *testing.T) {
	srv := newTestServer(t, repositories.NewMemoryRepositories())
	resp := do(t, srv, http.MethodGet, BuildingRegister, nil)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
