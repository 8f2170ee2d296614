package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridstack/internal/advisor"
	"gridstack/internal/catalog"
	"gridstack/internal/models"
	"gridstack/internal/session"
	"gridstack/internal/usecase"
	"gridstack/logging"
)

// fakeGateway serves products from memory.
type fakeGateway struct {
	mu     sync.Mutex
	byType map[string][]models.Product
	err    error
	calls  int
}

func (g *fakeGateway) Products(ctx context.Context, typeIDs []string, limit int) ([]models.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	var out []models.Product
	for _, id := range typeIDs {
		out = append(out, g.byType[id]...)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (g *fakeGateway) Product(ctx context.Context, id string) (models.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return models.Product{}, g.err
	}
	for _, products := range g.byType {
		for _, p := range products {
			if p.ID == id {
				return p, nil
			}
		}
	}
	return models.Product{}, catalog.ErrNotFound
}

func (g *fakeGateway) Relationships(ctx context.Context, ids []string) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		p, err := g.Product(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

type fakeGenerator struct {
	prompt string
}

func (g *fakeGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	g.prompt = prompt
	return "Solid stack.", nil
}

func testProduct(id, name string, chains, assets []string) models.Product {
	p := models.Product{ID: id, Name: name}
	for _, c := range chains {
		p.ProductDeployments = append(p.ProductDeployments, models.ProductDeployment{
			SmartContractDeployment: models.SmartContractDeployment{
				DeployedOnProduct: models.DeployedOnProduct{ID: c, Name: c},
			},
		})
	}
	for _, a := range assets {
		p.ProductAssetRelationships = append(p.ProductAssetRelationships, models.ProductAssetRelationship{
			Asset: models.Asset{ID: a, Name: a, Ticker: a},
		})
	}
	return p
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{byType: map[string][]models.Product{
		"692": {
			testProduct("wallet-1", "MetaMask", []string{"eth", "polygon"}, []string{"usdc"}),
			testProduct("wallet-2", "Phantom", []string{"solana"}, nil),
		},
		"25": {
			testProduct("dex-1", "Uniswap", []string{"eth", "polygon", "arbitrum"}, []string{"usdc", "dai"}),
		},
		"23": {
			testProduct("bridge-1", "Wormhole", []string{"eth", "solana"}, nil),
		},
	}}
}

func setupServerTest(t *testing.T, withAdvisor bool) (http.Handler, *fakeGateway, *fakeGenerator) {
	t.Helper()
	logging.Silence()

	gw := newFakeGateway()
	var adv *advisor.Advisor
	gen := &fakeGenerator{}
	if withAdvisor {
		adv = advisor.New(gen, 0)
	}
	srv := NewServer(gw, usecase.Builtin(), session.NewRegistry(time.Minute), adv, 0)
	return srv.Routes(""), gw, gen
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthCheck(t *testing.T) {
	h, _, _ := setupServerTest(t, false)
	rec := doRequest(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	h, _, _ := setupServerTest(t, false)
	rec := doRequest(t, h, http.MethodOptions, "/api/stacks", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestListProducts(t *testing.T) {
	h, gw, _ := setupServerTest(t, false)

	rec := doRequest(t, h, http.MethodGet, "/api/products", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/products?productTypeIds=692,25", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	products := decodeBody[[]models.Product](t, rec)
	assert.Len(t, products, 3)

	rec = doRequest(t, h, http.MethodGet, "/api/products?productTypeIds=692&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]models.Product](t, rec), 1)

	gw.err = &catalog.UpstreamUnavailableError{Err: errors.New("connection refused")}
	rec = doRequest(t, h, http.MethodGet, "/api/products?productTypeIds=692", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	errResp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "Catalog unavailable", errResp.Error)
	assert.Contains(t, errResp.Message, "connection refused")

	gw.err = &catalog.UpstreamDataError{Err: errors.New("bad query")}
	rec = doRequest(t, h, http.MethodGet, "/api/products?productTypeIds=692", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Catalog returned an error", decodeBody[ErrorResponse](t, rec).Error)
}

func TestProductDetails(t *testing.T) {
	h, _, _ := setupServerTest(t, false)

	rec := doRequest(t, h, http.MethodGet, "/api/products/dex-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Uniswap", decodeBody[models.Product](t, rec).Name)

	rec = doRequest(t, h, http.MethodGet, "/api/products/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRelationships(t *testing.T) {
	h, _, _ := setupServerTest(t, false)

	rec := doRequest(t, h, http.MethodPost, "/api/products/relationships", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/products/relationships", relationshipsRequest{ProductIDs: []string{"wallet-1", "dex-1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]models.Product](t, rec), 2)
}

func TestUseCases(t *testing.T) {
	h, _, _ := setupServerTest(t, false)
	rec := doRequest(t, h, http.MethodGet, "/api/usecases", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Version  int                      `json:"version"`
		UseCases []models.UseCaseTemplate `json:"useCases"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, usecase.TableVersion, body.Version)
	assert.Len(t, body.UseCases, 5)
}

func TestCreateStackValidation(t *testing.T) {
	h, _, _ := setupServerTest(t, false)

	rec := doRequest(t, h, http.MethodPost, "/api/stacks", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/stacks", createStackRequest{UseCaseID: "mining"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/stacks/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStackWorkflow(t *testing.T) {
	h, _, _ := setupServerTest(t, false)

	rec := doRequest(t, h, http.MethodPost, "/api/stacks", createStackRequest{UseCaseID: "trading"})
	require.Equal(t, http.StatusCreated, rec.Code)
	view := decodeBody[StackView](t, rec)
	require.NotEmpty(t, view.ID)
	require.NotNil(t, view.UseCase)
	assert.Equal(t, "trading", view.UseCase.ID)
	assert.Equal(t, 0, view.CurrentCategoryIndex)
	assert.Equal(t, "Wallet", view.CurrentCategory.Name)
	assert.False(t, view.CanProceed)
	assert.Equal(t, []string{"Wallet", "DEX"}, view.MissingRequired)
	base := "/api/stacks/" + view.ID

	// Wallet is required.
	rec = doRequest(t, h, http.MethodPost, base+"/next", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, h, http.MethodPut, base+"/selections/Game", selectProductRequest{ProductID: "wallet-1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doRequest(t, h, http.MethodPut, base+"/selections/Wallet", selectProductRequest{ProductID: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodPut, base+"/selections/Wallet", selectProductRequest{ProductID: "wallet-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[StackView](t, rec).CanProceed)

	rec = doRequest(t, h, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DEX", decodeBody[StackView](t, rec).CurrentCategory.Name)

	rec = doRequest(t, h, http.MethodPut, base+"/selections/DEX", selectProductRequest{ProductID: "dex-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, h, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Bridge is optional.
	rec = doRequest(t, h, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeBody[StackView](t, rec)
	assert.True(t, view.Complete)
	assert.Nil(t, view.CurrentCategory)
	assert.Empty(t, view.MissingRequired)
	require.Len(t, view.Selections, 2)
	assert.Equal(t, "Wallet", view.Selections[0].Category)

	rec = doRequest(t, h, http.MethodPost, base+"/compatibility", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeBody[models.StackReport](t, rec)
	require.Len(t, report.Pairs, 1)
	// eth+polygon (20) and usdc (10)
	assert.Equal(t, "wallet-1-dex-1", report.Pairs[0].PairID)
	assert.Equal(t, 30, report.Pairs[0].Score)
	assert.True(t, report.Pairs[0].Compatible)
	assert.Equal(t, 30, report.StackScore)
	assert.Equal(t, models.TierCompatible, report.Tier)

	rec = doRequest(t, h, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[StackView](t, rec).Compatibility, 1)

	rec = doRequest(t, h, http.MethodPost, base+"/back", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bridge", decodeBody[StackView](t, rec).CurrentCategory.Name)

	rec = doRequest(t, h, http.MethodDelete, base+"/selections/Wallet", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Wallet"}, decodeBody[StackView](t, rec).MissingRequired)

	rec = doRequest(t, h, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doRequest(t, h, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doRequest(t, h, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBackFromFirstCategoryExits(t *testing.T) {
	h, _, _ := setupServerTest(t, false)
	rec := doRequest(t, h, http.MethodPost, "/api/stacks", createStackRequest{UseCaseID: "nft"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[StackView](t, rec).ID

	rec = doRequest(t, h, http.MethodPost, "/api/stacks/"+id+"/back", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[StackView](t, rec)
	assert.Nil(t, view.UseCase)
	assert.Empty(t, view.Selections)

	rec = doRequest(t, h, http.MethodPut, "/api/stacks/"+id+"/selections/Wallet", selectProductRequest{ProductID: "wallet-1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCursor(t *testing.T) {
	h, _, _ := setupServerTest(t, false)
	rec := doRequest(t, h, http.MethodPost, "/api/stacks", createStackRequest{UseCaseID: "developer"})
	require.Equal(t, http.StatusCreated, rec.Code)
	base := "/api/stacks/" + decodeBody[StackView](t, rec).ID

	rec = doRequest(t, h, http.MethodPut, base+"/cursor", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPut, base+"/cursor", map[string]int{"index": 7})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Jumping ahead skips the required-selection guard.
	rec = doRequest(t, h, http.MethodPut, base+"/cursor", map[string]int{"index": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[StackView](t, rec)
	assert.Equal(t, 2, view.CurrentCategoryIndex)
	assert.Equal(t, "Developer Tools", view.CurrentCategory.Name)
}

func TestSummary(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h, _, _ := setupServerTest(t, false)
		rec := doRequest(t, h, http.MethodPost, "/api/stacks", createStackRequest{UseCaseID: "trading"})
		id := decodeBody[StackView](t, rec).ID
		rec = doRequest(t, h, http.MethodPost, "/api/stacks/"+id+"/summary", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("empty stack", func(t *testing.T) {
		h, _, _ := setupServerTest(t, true)
		rec := doRequest(t, h, http.MethodPost, "/api/stacks", createStackRequest{UseCaseID: "trading"})
		id := decodeBody[StackView](t, rec).ID
		rec = doRequest(t, h, http.MethodPost, "/api/stacks/"+id+"/summary", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("narrative", func(t *testing.T) {
		h, _, gen := setupServerTest(t, true)
		rec := doRequest(t, h, http.MethodPost, "/api/stacks", createStackRequest{UseCaseID: "trading"})
		base := "/api/stacks/" + decodeBody[StackView](t, rec).ID
		doRequest(t, h, http.MethodPut, base+"/selections/Wallet", selectProductRequest{ProductID: "wallet-1"})
		doRequest(t, h, http.MethodPut, base+"/selections/DEX", selectProductRequest{ProductID: "dex-1"})

		rec = doRequest(t, h, http.MethodPost, base+"/summary", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[summaryResponse](t, rec)
		assert.Equal(t, "Solid stack.", resp.Summary)
		assert.Equal(t, 30, resp.Report.StackScore)
		assert.True(t, strings.Contains(gen.prompt, "MetaMask + Uniswap"), gen.prompt)
	})
}

func TestStatusFor(t *testing.T) {
	status, _ := statusFor(context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, status)
	status, _ = statusFor(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
}
