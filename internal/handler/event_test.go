package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutterbloom/booking-api/internal/middleware"
	"github.com/shutterbloom/booking-api/internal/model"
	"github.com/shutterbloom/booking-api/internal/repository"
)

// fakeEventStore keeps events in memory with the same merge-then-validate
// update contract as the SQL repository: a stage-rule violation leaves the
// stored event untouched.
type fakeEventStore struct {
	nextID uint64
	events map[uint64]model.Event
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: map[uint64]model.Event{}}
}

func (s *fakeEventStore) Create(_ context.Context, e *model.Event, userID uint64) error {
	s.nextID++
	e.ID = s.nextID
	e.UserID = &userID
	e.CreatedAt = time.Now().UTC()
	s.events[e.ID] = *e
	return nil
}

func (s *fakeEventStore) GetByIDAndUser(_ context.Context, id, userID uint64) (model.Event, error) {
	e, ok := s.events[id]
	if !ok || e.UserID == nil || *e.UserID != userID {
		return model.Event{}, repository.ErrNotFound
	}
	return e, nil
}

func (s *fakeEventStore) ListByUser(_ context.Context, userID uint64, skip, limit int) ([]model.Event, error) {
	out := []model.Event{}
	for id := uint64(1); id <= s.nextID; id++ {
		e, ok := s.events[id]
		if !ok || e.UserID == nil || *e.UserID != userID {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *fakeEventStore) Update(ctx context.Context, id, userID uint64, patch model.EventPatch) (model.Event, error) {
	e, err := s.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return model.Event{}, err
	}
	e.Apply(patch)
	if err := e.ValidateStatusFields(); err != nil {
		return model.Event{}, err
	}
	now := time.Now().UTC()
	e.UpdatedAt = &now
	s.events[id] = e
	return e, nil
}

func (s *fakeEventStore) Delete(ctx context.Context, id, userID uint64) error {
	if _, err := s.GetByIDAndUser(ctx, id, userID); err != nil {
		return err
	}
	delete(s.events, id)
	return nil
}

func eventRequest(e *echo.Echo, method, target, body string, userID uint64) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set(middleware.ContextUserID, userID)
	}
	return rec, c
}

func futureDate() string {
	return time.Now().UTC().AddDate(1, 0, 0).Format("2006-01-02")
}

func validEventBody() string {
	return `{"nomeCliente":"Maria Silva","tipoEvento":"casamento","dataOrcamento":"2026-01-10","dataEvento":"` + futureDate() + `"}`
}

func createEvent(t *testing.T, h *EventHandler, e *echo.Echo, userID uint64, body string) model.Event {
	t.Helper()
	rec, c := eventRequest(e, http.MethodPost, "/api/events/", body, userID)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ev model.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	return ev
}

func TestEventCreate(t *testing.T) {
	h := NewEventHandler(newFakeEventStore())
	e := echo.New()

	t.Run("defaults to orcamento_recebido", func(t *testing.T) {
		ev := createEvent(t, h, e, 1, validEventBody())
		assert.Equal(t, model.StatusOrcamentoRecebido, ev.Status)
		assert.NotZero(t, ev.ID)
	})

	t.Run("past event date", func(t *testing.T) {
		body := `{"nomeCliente":"Maria","tipoEvento":"aniversario","dataOrcamento":"2026-01-10","dataEvento":"2020-01-01"}`
		rec, c := eventRequest(e, http.MethodPost, "/api/events/", body, 1)
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "dataEvento")
	})

	t.Run("missing base field", func(t *testing.T) {
		body := `{"tipoEvento":"casamento","dataOrcamento":"2026-01-10","dataEvento":"` + futureDate() + `"}`
		rec, c := eventRequest(e, http.MethodPost, "/api/events/", body, 1)
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("status with missing stage field", func(t *testing.T) {
		body := `{"nomeCliente":"Maria","tipoEvento":"casamento","dataOrcamento":"2026-01-10","dataEvento":"` + futureDate() + `","status":"proposta_enviada"}`
		rec, c := eventRequest(e, http.MethodPost, "/api/events/", body, 1)
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "valorEvento")
	})

	t.Run("status with stage field present", func(t *testing.T) {
		body := `{"nomeCliente":"Maria","tipoEvento":"casamento","dataOrcamento":"2026-01-10","dataEvento":"` + futureDate() + `","status":"proposta_enviada","valorEvento":4500}`
		ev := createEvent(t, h, e, 1, body)
		assert.Equal(t, model.StatusPropostaEnviada, ev.Status)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec, c := eventRequest(e, http.MethodPost, "/api/events/", validEventBody(), 0)
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestEventGet_OwnershipScoped(t *testing.T) {
	h := NewEventHandler(newFakeEventStore())
	e := echo.New()
	createEvent(t, h, e, 1, validEventBody())

	get := func(userID uint64) *httptest.ResponseRecorder {
		rec, c := eventRequest(e, http.MethodGet, "/api/events/1", "", userID)
		c.SetParamNames("id")
		c.SetParamValues("1")
		require.NoError(t, h.Get(c))
		return rec
	}

	assert.Equal(t, http.StatusOK, get(1).Code)
	// Another user's event is indistinguishable from a missing one.
	assert.Equal(t, http.StatusNotFound, get(2).Code)
}

func TestEventList_Pagination(t *testing.T) {
	h := NewEventHandler(newFakeEventStore())
	e := echo.New()
	for i := 0; i < 5; i++ {
		createEvent(t, h, e, 1, validEventBody())
	}
	createEvent(t, h, e, 2, validEventBody()) // other owner, never listed for user 1

	list := func(query string) []model.Event {
		rec, c := eventRequest(e, http.MethodGet, "/api/events/"+query, "", 1)
		require.NoError(t, h.List(c))
		require.Equal(t, http.StatusOK, rec.Code)
		var items []model.Event
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
		return items
	}

	assert.Len(t, list(""), 5)
	assert.Len(t, list("?limit=2"), 2)
	assert.Len(t, list("?skip=4"), 1)
	assert.Len(t, list("?skip=2&limit=2"), 2)
	// Out-of-range values fall back to the defaults.
	assert.Len(t, list("?limit=0"), 5)
	assert.Len(t, list("?limit=500"), 5)
	assert.Len(t, list("?skip=-3"), 5)
}

func TestEventUpdate(t *testing.T) {
	h := NewEventHandler(newFakeEventStore())
	e := echo.New()
	createEvent(t, h, e, 1, validEventBody())

	patch := func(userID uint64, body string) *httptest.ResponseRecorder {
		rec, c := eventRequest(e, http.MethodPatch, "/api/events/1", body, userID)
		c.SetParamNames("id")
		c.SetParamValues("1")
		require.NoError(t, h.Update(c))
		return rec
	}

	t.Run("partial update keeps other fields", func(t *testing.T) {
		rec := patch(1, `{"nomeCliente":"Maria Souza"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		var ev model.Event
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
		assert.Equal(t, "Maria Souza", ev.NomeCliente)
		assert.Equal(t, "casamento", ev.TipoEvento)
		assert.NotNil(t, ev.UpdatedAt)
	})

	t.Run("stage violation is 422 with field", func(t *testing.T) {
		rec := patch(1, `{"status":"proposta_recusada"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), `"field":"motivoRecusa"`)

		// Nothing was written.
		get, c := eventRequest(e, http.MethodGet, "/api/events/1", "", 1)
		c.SetParamNames("id")
		c.SetParamValues("1")
		require.NoError(t, h.Get(c))
		var ev model.Event
		require.NoError(t, json.Unmarshal(get.Body.Bytes(), &ev))
		assert.Equal(t, model.StatusOrcamentoRecebido, ev.Status)
	})

	t.Run("transition with stage field passes", func(t *testing.T) {
		rec := patch(1, `{"status":"proposta_enviada","valorEvento":5200}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not owner", func(t *testing.T) {
		rec := patch(2, `{"nomeCliente":"Intruso"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec, c := eventRequest(e, http.MethodPatch, "/api/events/abc", `{}`, 1)
		c.SetParamNames("id")
		c.SetParamValues("abc")
		require.NoError(t, h.Update(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEventDelete(t *testing.T) {
	h := NewEventHandler(newFakeEventStore())
	e := echo.New()
	createEvent(t, h, e, 1, validEventBody())

	del := func(userID uint64, id string) *httptest.ResponseRecorder {
		rec, c := eventRequest(e, http.MethodDelete, "/api/events/"+id, "", userID)
		c.SetParamNames("id")
		c.SetParamValues(id)
		require.NoError(t, h.Delete(c))
		return rec
	}

	assert.Equal(t, http.StatusNotFound, del(2, "1").Code, "not the owner")
	assert.Equal(t, http.StatusNoContent, del(1, "1").Code)
	assert.Equal(t, http.StatusNotFound, del(1, "1").Code, "already gone")
}
