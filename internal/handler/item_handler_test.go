package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackmate-dev/trackmate-api/internal/middleware"
	"github.com/trackmate-dev/trackmate-api/internal/models"
	"github.com/trackmate-dev/trackmate-api/internal/service"
	"github.com/trackmate-dev/trackmate-api/pkg/response"
)

type itemRepoStub struct {
	items      map[string]*models.Item
	listItems  []models.Item
	listTotal  int
	lastFilter models.ItemFilter
	created    *models.Item
}

func newItemRepoStub() *itemRepoStub {
	return &itemRepoStub{items: make(map[string]*models.Item)}
}

func (s *itemRepoStub) List(ctx context.Context, filter models.ItemFilter) ([]models.Item, int, error) {
	s.lastFilter = filter
	return s.listItems, s.listTotal, nil
}

func (s *itemRepoStub) FindByID(ctx context.Context, kind models.ItemKind, id string) (*models.Item, error) {
	item, ok := s.items[id]
	if !ok || item.Kind != kind {
		return nil, sql.ErrNoRows
	}
	return item, nil
}

func (s *itemRepoStub) Create(ctx context.Context, item *models.Item) error {
	item.ID = "item-1"
	s.created = item
	s.items[item.ID] = item
	return nil
}

func (s *itemRepoStub) Update(ctx context.Context, item *models.Item) error {
	s.items[item.ID] = item
	return nil
}

func (s *itemRepoStub) UpdateStatus(ctx context.Context, id string, status models.ItemStatus) error {
	if item, ok := s.items[id]; ok {
		item.Status = status
	}
	return nil
}

func newItemHandler(repo *itemRepoStub, kind models.ItemKind) *ItemHandler {
	svc := service.NewItemService(repo, nil, nil, nil, nil, time.Minute)
	return NewItemHandler(svc, kind)
}

func setClaims(c *gin.Context, userID string, role models.UserRole) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: userID, Role: role})
}

func TestItemHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newItemRepoStub()
	repo.listItems = []models.Item{{ID: "item-1", Kind: models.KindLost, Title: "Blue backpack"}}
	repo.listTotal = 1
	handler := newItemHandler(repo, models.KindLost)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/lost-items?search=backpack&category=bags", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.KindLost, repo.lastFilter.Kind)
	assert.Equal(t, "backpack", repo.lastFilter.Search)
	assert.Equal(t, "bags", repo.lastFilter.Category)

	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.TotalCount)
}

func TestItemHandlerListBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newItemHandler(newItemRepoStub(), models.KindLost)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/lost-items?date_from=yesterday", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestItemHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newItemHandler(newItemRepoStub(), models.KindLost)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/lost-items/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestItemHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newItemRepoStub()
	handler := newItemHandler(repo, models.KindFound)

	payload, _ := json.Marshal(service.CreateItemRequest{
		Title:       "Silver watch",
		Description: "Found near the gym entrance",
		Category:    "accessories",
		Location:    "Sports Center",
		OccurredOn:  time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/found-items", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	setClaims(c, "u1", models.RoleStudent)

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, repo.created)
	assert.Equal(t, models.KindFound, repo.created.Kind)
	assert.Equal(t, "u1", repo.created.OwnerID)
	assert.Equal(t, models.StatusActive, repo.created.Status)
}

func TestItemHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newItemHandler(newItemRepoStub(), models.KindLost)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/lost-items", bytes.NewBufferString(`{"title":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	setClaims(c, "u1", models.RoleStudent)

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestItemHandlerUpdateForbiddenForNonOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newItemRepoStub()
	repo.items["item-1"] = &models.Item{ID: "item-1", Kind: models.KindLost, OwnerID: "owner"}
	handler := newItemHandler(repo, models.KindLost)

	payload := []byte(`{"title":"Hijacked"}`)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/lost-items/item-1", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "item-1"}}
	setClaims(c, "someone-else", models.RoleStudent)

	handler.Update(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestItemHandlerUpdateStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newItemRepoStub()
	repo.items["item-1"] = &models.Item{ID: "item-1", Kind: models.KindLost, OwnerID: "u1", Status: models.StatusActive}
	handler := newItemHandler(repo, models.KindLost)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPatch, "/lost-items/item-1/status", bytes.NewBufferString(`{"status":"resolved"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "item-1"}}
	setClaims(c, "u1", models.RoleStudent)

	handler.UpdateStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusResolved, repo.items["item-1"].Status)
}
