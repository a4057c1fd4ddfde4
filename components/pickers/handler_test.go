package pickers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	logpkg "github.com/goliatone/go-picker/internal/logger"
	"github.com/goliatone/go-picker/pkg/picker"
	"github.com/goliatone/go-picker/pkg/record"
	"github.com/goliatone/go-picker/pkg/sidechannel"
)

type handlerResponse struct {
	Data []Option `json:"data"`
}

func staffPicker(t *testing.T, name string, strategy sidechannel.Strategy, freeText bool) *picker.Picker {
	t.Helper()
	p, err := picker.New(picker.Config{
		Name:          name,
		Template:      "{{name}} ({{dept}})",
		SideChannel:   strategy,
		AllowFreeText: freeText,
	}, nil)
	if err != nil {
		t.Fatalf("picker.New returned error: %v", err)
	}
	err = p.Load([]record.Record{
		map[string]any{"id": "u1", "name": "Ann", "dept": "Eng"},
		map[string]any{"id": "u2", "name": "Bea", "dept": "Eng"},
		map[string]any{"id": "u3", "name": "Ann", "dept": "Eng"},
		map[string]any{"id": "u4", "name": "Zed", "dept": "Ops"},
	})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return p
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func TestHandler_OptionsSearchPrefixFirst(t *testing.T) {
	t.Parallel()

	h := Handler(WithPicker(staffPicker(t, "staff", sidechannel.HiddenCompanion, false)))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/pickers/staff/options?q=e", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON content-type, got %q", ct)
	}

	payload := decode[handlerResponse](t, rec)
	want := []Option{
		{Value: "Ann (Eng)", Label: "Ann (Eng)", Companion: "u1", CompanionField: "value__id"},
		{Value: "Ann (Eng)", Label: "Ann (Eng)", Companion: "u3", CompanionField: "value__id"},
		{Value: "Bea (Eng)", Label: "Bea (Eng)", Companion: "u2", CompanionField: "value__id"},
		{Value: "Zed (Ops)", Label: "Zed (Ops)", Companion: "u4", CompanionField: "value__id"},
	}
	if diff := cmp.Diff(want, payload.Data); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/pickers/staff/options?q=ze", nil))
	payload = decode[handlerResponse](t, rec)
	if len(payload.Data) != 1 || payload.Data[0].Companion != "u4" {
		t.Fatalf("expected prefix match on Zed, got %#v", payload.Data)
	}
}

func TestHandler_EmptySearchModes(t *testing.T) {
	t.Parallel()

	p := staffPicker(t, "staff", sidechannel.None, false)

	top := serve(Handler(WithPicker(p), WithMaxLimit(2)), httptest.NewRequest(http.MethodGet, "/api/pickers/staff/options?limit=10", nil))
	if got := decode[handlerResponse](t, top).Data; len(got) != 2 {
		t.Fatalf("expected top results clamped to 2, got %#v", got)
	}

	none := serve(Handler(WithPicker(p), WithEmptySearchMode(EmptySearchNone)), httptest.NewRequest(http.MethodGet, "/api/pickers/staff/options", nil))
	if got := decode[handlerResponse](t, none).Data; got == nil || len(got) != 0 {
		t.Fatalf("expected empty data array, got %#v", got)
	}

	negative := serve(Handler(WithPicker(p)), httptest.NewRequest(http.MethodGet, "/api/pickers/staff/options?q=a&limit=-1", nil))
	if got := decode[handlerResponse](t, negative).Data; got == nil || len(got) != 0 {
		t.Fatalf("expected empty data array for negative limit, got %#v", got)
	}
}

func TestHandler_ResolveJSON(t *testing.T) {
	t.Parallel()

	h := Handler(WithPicker(staffPicker(t, "staff", sidechannel.HiddenCompanion, false)))

	body := `{"value":"Ann (Eng)","companion":"u3"}`
	req := httptest.NewRequest(http.MethodPost, "/api/pickers/staff/resolve", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	want := resolveResponse{ID: "u3", Label: "Ann (Eng)", Strategy: "side-channel"}
	if diff := cmp.Diff(want, decode[resolveResponse](t, rec)); diff != "" {
		t.Fatalf("resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestHandler_ResolveForm(t *testing.T) {
	t.Parallel()

	h := Handler(WithPicker(staffPicker(t, "staff", sidechannel.None, false)))

	form := url.Values{"value": {"Zed (Ops)"}}
	req := httptest.NewRequest(http.MethodPost, "/api/pickers/staff/resolve", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[resolveResponse](t, rec); got.ID != "u4" || got.Strategy != "index" {
		t.Fatalf("expected u4 via index, got %+v", got)
	}
}

func TestHandler_ResolveAmbiguousIs422(t *testing.T) {
	t.Parallel()

	h := Handler(WithPicker(staffPicker(t, "staff", sidechannel.None, false)))

	req := httptest.NewRequest(http.MethodPost, "/api/pickers/staff/resolve", strings.NewReader(`{"value":"Ann (Eng)"}`))
	rec := serve(h, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	if got := decode[errorResponse](t, rec); got.Code != "ambiguous_label" || got.Error == "" {
		t.Fatalf("unexpected error payload: %+v", got)
	}
}

func TestHandler_ResolveFreeTextUnchanged(t *testing.T) {
	t.Parallel()

	h := Handler(WithPicker(staffPicker(t, "staff", sidechannel.None, true)))

	tests := []struct {
		value   string
		display string
	}{
		{value: "Tom & Jerry", display: "Tom & Jerry"},
		{value: "a < b", display: "a < b"},
		{value: "<b>Carla</b>", display: "Carla"},
	}
	for _, tc := range tests {
		body, err := json.Marshal(map[string]string{"value": tc.value})
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/pickers/staff/resolve", strings.NewReader(string(body))))
		if rec.Code != http.StatusOK {
			t.Fatalf("%q: expected status 200, got %d", tc.value, rec.Code)
		}
		want := resolveResponse{ID: tc.value, Label: tc.value, Strategy: "free-text", FreeText: true, Display: tc.display}
		if diff := cmp.Diff(want, decode[resolveResponse](t, rec)); diff != "" {
			t.Fatalf("%q: resolve mismatch (-want +got):\n%s", tc.value, diff)
		}
	}
}

func TestHandler_ResolveFormCompanion(t *testing.T) {
	t.Parallel()

	h := Handler(WithPicker(staffPicker(t, "staff", sidechannel.HiddenCompanion, false)), WithFormField("owner"))

	form := url.Values{"owner": {"Ann (Eng)"}, sidechannel.CompanionName("owner"): {"u3"}}
	req := httptest.NewRequest(http.MethodPost, "/api/pickers/staff/resolve", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[resolveResponse](t, rec); got.ID != "u3" || got.Strategy != "side-channel" {
		t.Fatalf("expected u3 via side channel, got %+v", got)
	}

	opts := serve(h, httptest.NewRequest(http.MethodGet, "/api/pickers/staff/options?q=zed", nil))
	data := decode[handlerResponse](t, opts).Data
	if len(data) != 1 || data[0].CompanionField != "owner__id" || data[0].Companion != "u4" {
		t.Fatalf("expected owner__id companion field, got %#v", data)
	}
}

func TestHandler_ResolveLogsToRequestLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	h := Handler(WithPicker(staffPicker(t, "staff", sidechannel.None, false)))

	req := httptest.NewRequest(http.MethodPost, "/api/pickers/staff/resolve", strings.NewReader(`{"value":"Ann (Eng)"}`))
	req = req.WithContext(logpkg.ContextWithLogger(req.Context(), zap.New(core)))
	rec := serve(h, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	entries := logs.FilterMessage("resolve rejected").All()
	if len(entries) != 1 {
		t.Fatalf("expected one rejection logged on the request logger, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["code"]; got != "ambiguous_label" {
		t.Fatalf("unexpected logged code %v", got)
	}
}

func TestHandler_BadBody(t *testing.T) {
	t.Parallel()

	h := Handler(WithPicker(staffPicker(t, "staff", sidechannel.None, false)))

	req := httptest.NewRequest(http.MethodPost, "/api/pickers/staff/resolve", strings.NewReader(`{"value":`))
	rec := serve(h, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandler_RoutingErrors(t *testing.T) {
	t.Parallel()

	h := Handler(WithPicker(staffPicker(t, "staff", sidechannel.None, false)))

	tests := []struct {
		name   string
		method string
		path   string
		status int
		allow  string
	}{
		{name: "unknown picker", method: http.MethodGet, path: "/api/pickers/rooms/options", status: http.StatusNotFound},
		{name: "unknown action", method: http.MethodGet, path: "/api/pickers/staff/export", status: http.StatusNotFound},
		{name: "bare path", method: http.MethodGet, path: "/options", status: http.StatusNotFound},
		{name: "post options", method: http.MethodPost, path: "/api/pickers/staff/options", status: http.StatusMethodNotAllowed, allow: "GET, HEAD"},
		{name: "get resolve", method: http.MethodGet, path: "/api/pickers/staff/resolve", status: http.StatusMethodNotAllowed, allow: "POST"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(h, httptest.NewRequest(tc.method, tc.path, nil))
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
			if tc.allow != "" && rec.Header().Get("Allow") != tc.allow {
				t.Fatalf("expected Allow %q, got %q", tc.allow, rec.Header().Get("Allow"))
			}
		})
	}
}

func TestHandler_GuardRejects(t *testing.T) {
	t.Parallel()

	h := Handler(
		WithPicker(staffPicker(t, "staff", sidechannel.None, false)),
		WithGuard(func(r *http.Request) error {
			return StatusError{Code: http.StatusUnauthorized}
		}),
	)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/pickers/staff/options?q=a", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestHandler_HeadHasNoBody(t *testing.T) {
	t.Parallel()

	h := Handler(WithPicker(staffPicker(t, "staff", sidechannel.None, false)))

	rec := serve(h, httptest.NewRequest(http.MethodHead, "/api/pickers/staff/options", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Fatalf("expected empty 200, got %d with %d bytes", rec.Code, rec.Body.Len())
	}
}
