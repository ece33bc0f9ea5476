package visit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/opdlog/opdlog/internal/platform/notify"
)

func newTestHandler(repo *mockRepo) (*Handler, *echo.Echo, *notify.Center) {
	center := notify.NewCenter()
	h := NewHandler(newTestService(repo), center)
	e := echo.New()
	return h, e, center
}

func TestHandlerCreateVisit(t *testing.T) {
	h, e, center := newTestHandler(&mockRepo{})
	body := `{"patient_id":"12","gender":"Male","age_group":"Under5","diagnosis_nos":[1],"disposition":"Discharged"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateVisit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	msg, ok := center.Current()
	if !ok || msg.Text != "Saved. New entry ready." {
		t.Errorf("expected save confirmation, got %+v", msg)
	}
}

func TestHandlerCreateVisitValidationError(t *testing.T) {
	h, e, center := newTestHandler(&mockRepo{})
	body := `{"patient_id":"12","gender":"Male","age_group":"Under5","diagnosis_nos":[17],"disposition":"Discharged"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateVisit(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	msg, ok := center.Current()
	if !ok || msg.Text != "Select WW or Non-WW for surgical diagnosis." {
		t.Errorf("expected ww validation message, got %+v", msg)
	}
}

func TestHandlerUpdateVisit(t *testing.T) {
	repo := &mockRepo{records: []Record{{UID: "u1", Timestamp: 500}}}
	h, e, _ := newTestHandler(repo)
	body := `{"patient_id":"9","gender":"Female","age_group":"EighteenPlus","diagnosis_nos":[2],"disposition":"Admitted"}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("uid")
	c.SetParamValues("u1")

	if err := h.UpdateVisit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var got Record
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.UID != "u1" || got.Timestamp != 500 {
		t.Errorf("update must keep identity: %+v", got)
	}
}

func TestHandlerUpdateVisitNotFound(t *testing.T) {
	h, e, _ := newTestHandler(&mockRepo{})
	body := `{"patient_id":"9","gender":"Female","age_group":"EighteenPlus","diagnosis_nos":[2],"disposition":"Admitted"}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("uid")
	c.SetParamValues("gone")

	err := h.UpdateVisit(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandlerListVisits(t *testing.T) {
	repo := &mockRepo{records: []Record{{UID: "a", Timestamp: 1}, {UID: "b", Timestamp: 2}}}
	h, e, _ := newTestHandler(repo)
	req := httptest.NewRequest(http.MethodGet, "/?limit=1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListVisits(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data    []Record `json:"data"`
		Total   int      `json:"total"`
		HasMore bool     `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 2 || len(resp.Data) != 1 || !resp.HasMore {
		t.Errorf("unexpected page: %+v", resp)
	}
	if resp.Data[0].UID != "b" {
		t.Errorf("expected newest first, got %+v", resp.Data)
	}
}

func TestHandlerBackupDisposition(t *testing.T) {
	h, e, _ := newTestHandler(&mockRepo{records: []Record{{UID: "a"}}})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Backup(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cd := rec.Header().Get(echo.HeaderContentDisposition)
	if !strings.Contains(cd, "OPD_backup.json") {
		t.Errorf("expected attachment filename, got %q", cd)
	}
}

func TestHandlerRestore(t *testing.T) {
	repo := &mockRepo{records: []Record{{UID: "a", Timestamp: 1}}}
	h, e, center := newTestHandler(repo)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`[{"uid":"b","timestamp":2}]`))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Restore(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["merged"] != 1 {
		t.Errorf("expected merged count 1, got %+v", resp)
	}
	msg, _ := center.Current()
	if msg.Text != "Data restored/merged." {
		t.Errorf("expected restore confirmation, got %+v", msg)
	}
}

func TestHandlerRestoreBadPayload(t *testing.T) {
	h, e, _ := newTestHandler(&mockRepo{})
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"uid":"b"}`))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Restore(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %v", err)
	}
}

func TestHandlerClearAll(t *testing.T) {
	repo := &mockRepo{records: []Record{{UID: "a"}}}
	h, e, center := newTestHandler(repo)
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ClearAll(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if len(repo.records) != 0 {
		t.Error("expected store cleared")
	}
	msg, _ := center.Current()
	if msg.Text != "Cleared." {
		t.Errorf("expected clear confirmation, got %+v", msg)
	}
}

func TestHandlerCurrentMessageEmpty(t *testing.T) {
	h, e, _ := newTestHandler(&mockRepo{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CurrentMessage(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 when no message, got %d", rec.Code)
	}
}

func TestHandlerGetCatalog(t *testing.T) {
	h, e, _ := newTestHandler(&mockRepo{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.GetCatalog(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, key := range []string{"genders", "age_buckets", "diagnoses", "ww_options", "dispositions"} {
		if _, ok := resp[key]; !ok {
			t.Errorf("expected %s in catalog payload", key)
		}
	}
}
