package customs

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lumbung-wms/lumbung-wms/internal/catalog"
	"github.com/lumbung-wms/lumbung-wms/internal/ledger"
	"github.com/lumbung-wms/lumbung-wms/internal/platform/httpx"
	"github.com/lumbung-wms/lumbung-wms/internal/shared"
)

type fakeDocRepo struct {
	docs map[string]Document
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{docs: map[string]Document{}}
}

func (f *fakeDocRepo) Insert(_ context.Context, d Document) (Document, error) {
	d.ID = uuid.NewString()
	d.CreatedAt = time.Now().UTC()
	f.docs[d.ID] = d
	return d, nil
}

func (f *fakeDocRepo) MarkOutcome(_ context.Context, id string, status DocStatus, responseCode *int, responseBody string, sentAt time.Time) error {
	d, ok := f.docs[id]
	if !ok {
		return ErrDocumentNotFound
	}
	d.Status = status
	d.ResponseCode = responseCode
	d.ResponseBody = responseBody
	d.SentAt = &sentAt
	f.docs[id] = d
	return nil
}

func (f *fakeDocRepo) Get(_ context.Context, id string) (Document, error) {
	d, ok := f.docs[id]
	if !ok {
		return Document{}, ErrDocumentNotFound
	}
	return d, nil
}

func (f *fakeDocRepo) ListByMovement(_ context.Context, movementID string) ([]Document, error) {
	var out []Document
	for _, d := range f.docs {
		if d.StockMovementID == movementID {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeMovements struct {
	movements map[string]ledger.StockMovement
}

func (f *fakeMovements) Get(_ context.Context, id string) (ledger.StockMovement, error) {
	m, ok := f.movements[id]
	if !ok {
		return ledger.StockMovement{}, ledger.ErrMovementNotFound
	}
	return m, nil
}

type fakeItems struct {
	items map[string]catalog.Item
}

func (f *fakeItems) GetItem(_ context.Context, id string) (catalog.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return catalog.Item{}, catalog.ErrItemNotFound
	}
	return item, nil
}

func newCustomsFixture(t *testing.T, gatewayURL string) (*Service, *fakeDocRepo, string) {
	t.Helper()
	itemID := uuid.NewString()
	movementID := uuid.NewString()
	movements := &fakeMovements{movements: map[string]ledger.StockMovement{
		movementID: {
			ID:           movementID,
			ItemID:       itemID,
			Lokasi:       ledger.LokasiLini1,
			Quantity:     3,
			TanggalMasuk: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			Status:       ledger.StatusAktif,
		},
	}}
	items := &fakeItems{items: map[string]catalog.Item{
		itemID: {ID: itemID, SKU: "SKU-9", Name: "Generator"},
	}}
	client, err := NewClient(gatewayURL, "secret-token", time.Second)
	require.NoError(t, err)
	repo := newFakeDocRepo()
	svc := NewService(repo, client, movements, items, nil, slog.Default())
	return svc, repo, movementID
}

func TestReportMovementSent(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"result":"accepted"}`))
	}))
	defer server.Close()

	svc, repo, movementID := newCustomsFixture(t, server.URL)
	doc, err := svc.ReportMovement(context.Background(), ReportInput{
		StockMovementID: movementID,
		DocType:         DocBC23,
		DocNumber:       "BC23-2026-0001",
	})
	require.NoError(t, err)
	require.Equal(t, StatusSent, doc.Status)
	require.NotNil(t, doc.ResponseCode)
	require.Equal(t, http.StatusOK, *doc.ResponseCode)
	require.Equal(t, "Bearer secret-token", gotAuth)
	require.Equal(t, "SKU-9", gotPayload["item_sku"])

	stored := repo.docs[doc.ID]
	require.Equal(t, StatusSent, stored.Status)
	require.NotNil(t, stored.SentAt)
}

func TestReportMovementGatewayRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"result":"rejected"}`))
	}))
	defer server.Close()

	svc, repo, movementID := newCustomsFixture(t, server.URL)
	_, err := svc.ReportMovement(context.Background(), ReportInput{
		StockMovementID: movementID,
		DocType:         DocBC40,
	})
	require.ErrorIs(t, err, httpx.ErrUpstream)

	// The failed submission stays on record.
	require.Len(t, repo.docs, 1)
	for _, d := range repo.docs {
		require.Equal(t, StatusFailed, d.Status)
		require.NotNil(t, d.ResponseCode)
		require.Equal(t, http.StatusBadGateway, *d.ResponseCode)
	}
}

func TestReportMovementGatewayUnreachable(t *testing.T) {
	svc, repo, movementID := newCustomsFixture(t, "http://127.0.0.1:1")
	_, err := svc.ReportMovement(context.Background(), ReportInput{
		StockMovementID: movementID,
		DocType:         DocBC23,
	})
	require.ErrorIs(t, err, httpx.ErrUpstream)
	for _, d := range repo.docs {
		require.Equal(t, StatusFailed, d.Status)
		require.Nil(t, d.ResponseCode)
	}
}

func TestSendRetriesFailedDocument(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"result":"accepted"}`))
	}))
	defer server.Close()

	svc, repo, movementID := newCustomsFixture(t, server.URL)
	_, err := svc.ReportMovement(context.Background(), ReportInput{
		StockMovementID: movementID,
		DocType:         DocBC23,
	})
	require.ErrorIs(t, err, httpx.ErrUpstream)

	var docID string
	for id := range repo.docs {
		docID = id
	}
	require.Equal(t, StatusFailed, repo.docs[docID].Status)

	doc, err := svc.Send(context.Background(), docID)
	require.NoError(t, err)
	require.Equal(t, docID, doc.ID)
	require.Equal(t, StatusSent, doc.Status)
	require.NotNil(t, doc.ResponseCode)
	require.Equal(t, http.StatusOK, *doc.ResponseCode)
	require.Equal(t, 2, calls)
	// Re-send reuses the stored document instead of creating a new one.
	require.Len(t, repo.docs, 1)
}

func TestSendUnknownDocument(t *testing.T) {
	svc, _, _ := newCustomsFixture(t, "http://localhost")
	_, err := svc.Send(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReportMovementInvalidDocType(t *testing.T) {
	svc, _, movementID := newCustomsFixture(t, "http://localhost")
	_, err := svc.ReportMovement(context.Background(), ReportInput{
		StockMovementID: movementID,
		DocType:         "BC99",
	})
	require.ErrorIs(t, err, ErrInvalidDocType)
}

func TestReportMovementUnknownMovement(t *testing.T) {
	svc, _, _ := newCustomsFixture(t, "http://localhost")
	_, err := svc.ReportMovement(context.Background(), ReportInput{
		StockMovementID: uuid.NewString(),
		DocType:         DocBC23,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
