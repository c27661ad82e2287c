package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"table-timeline-backend/config"
	"table-timeline-backend/internal/model"
	"table-timeline-backend/internal/parse"
	"table-timeline-backend/internal/store"
)

// mockStore is a mock implementation of the store.Store interface.
type mockStore struct {
	mu       sync.Mutex
	saved    []store.Upload
	datasets map[store.Role]*model.Dataset

	SaveErr error
}

func newMockStore() *mockStore {
	return &mockStore{datasets: make(map[store.Role]*model.Dataset)}
}

func (m *mockStore) SaveDataset(ctx context.Context, upload store.Upload) (*model.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	m.saved = append(m.saved, upload)
	d := &model.Dataset{
		Role:     string(upload.Role),
		Revision: "rev-" + string(upload.Role),
		FileName: upload.FileName,
		Source:   string(upload.Source),
		Content:  upload.Content,
		RowCount: upload.RowCount,
	}
	m.datasets[upload.Role] = d
	return d, nil
}

func (m *mockStore) LatestDataset(ctx context.Context, role store.Role) (*model.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.datasets[role]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d, nil
}

func (m *mockStore) DeleteDataset(ctx context.Context, role store.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.datasets, role)
	return nil
}

func (m *mockStore) History(ctx context.Context, role store.Role, limit int) ([]model.DatasetHistory, error) {
	return nil, nil
}

const reservationsCSV = "date,time,for\n2024-05-10,19:00,4\n2024-05-10,19:30,2\n"

func TestImporter_Import(t *testing.T) {
	st := newMockStore()
	im := NewImporter(st, parse.Options{}, nil)

	var notified []store.Role
	im.OnStored(func(role store.Role) { notified = append(notified, role) })

	dataset, rows, err := im.Import(context.Background(), store.RoleReservations, "r.csv", store.SourceUpload, reservationsCSV)
	require.NoError(t, err)
	assert.Equal(t, 2, dataset.RowCount)
	assert.Len(t, rows, 2)
	assert.Equal(t, "19:30", rows[1]["time"])
	require.Len(t, st.saved, 1)
	assert.Equal(t, "r.csv", st.saved[0].FileName)
	assert.Equal(t, []store.Role{store.RoleReservations}, notified)
}

func TestImporter_RejectsUnusableText(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		expected error
	}{
		{"empty text", "", parse.ErrMalformedInput},
		{"whitespace only", "  \n\n", parse.ErrMalformedInput},
		{"header only", "date,time,for\n", ErrEmptyDataset},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			st := newMockStore()
			im := NewImporter(st, parse.Options{}, nil)
			im.OnStored(func(store.Role) { t.Error("hook must not run for rejected text") })

			_, _, err := im.Import(context.Background(), store.RoleMaps, "m.csv", store.SourceUpload, tc.content)
			assert.ErrorIs(t, err, tc.expected)
			assert.Empty(t, st.saved)
		})
	}
}

func TestImporter_StoreFailure(t *testing.T) {
	st := newMockStore()
	st.SaveErr = errors.New("disk full")
	im := NewImporter(st, parse.Options{}, nil)

	_, _, err := im.Import(context.Background(), store.RoleMaps, "m.csv", store.SourceUpload, reservationsCSV)
	assert.ErrorIs(t, err, st.SaveErr)
}

func TestImporter_LoadAndClear(t *testing.T) {
	ctx := context.Background()
	st := newMockStore()
	im := NewImporter(st, parse.Options{Delimiter: ';'}, nil)

	cleared := 0
	im.OnStored(func(store.Role) { cleared++ })

	_, _, err := im.Load(ctx, store.RoleMaps)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, _, err = im.Import(ctx, store.RoleMaps, "m.csv", store.SourceUpload, "a;b\n1;2\n")
	require.NoError(t, err)

	dataset, rows, err := im.Load(ctx, store.RoleMaps)
	require.NoError(t, err)
	assert.Equal(t, "m.csv", dataset.FileName)
	assert.Equal(t, []parse.Row{{"a": "1", "b": "2"}}, rows)

	require.NoError(t, im.Clear(ctx, store.RoleMaps))
	_, _, err = im.Load(ctx, store.RoleMaps)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 2, cleared)
}

func TestService_FetchOnce(t *testing.T) {
	var mu sync.Mutex
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/exports/reservations.csv":
			mu.Lock()
			gotAuth = r.Header.Get("Authorization")
			mu.Unlock()
			w.Write([]byte(reservationsCSV))
		case "/exports/maps.csv":
			w.WriteHeader(http.StatusBadGateway)
		case "/exports/empty.csv":
			w.Write([]byte("restaurant_name,date,meal,tables\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := &config.IngestConfig{
		Enabled:  true,
		Interval: time.Hour,
		Sources: []config.IngestSource{
			{Role: "reservations", URL: server.URL + "/exports/reservations.csv", Headers: map[string]string{"Authorization": "Bearer token"}},
			{Role: "maps", URL: server.URL + "/exports/maps.csv"},
			{Role: "maps", URL: server.URL + "/exports/empty.csv"},
			{Role: "floors", URL: server.URL + "/exports/floors.csv"},
		},
	}

	st := newMockStore()
	service := NewService(cfg, NewImporter(st, parse.Options{}, nil), nil)

	stored := service.FetchOnce(context.Background())

	assert.Equal(t, 1, stored)
	mu.Lock()
	assert.Equal(t, "Bearer token", gotAuth)
	mu.Unlock()
	require.Len(t, st.saved, 1)
	assert.Equal(t, store.RoleReservations, st.saved[0].Role)
	assert.Equal(t, store.SourceIngest, st.saved[0].Source)
	assert.Equal(t, "reservations.csv", st.saved[0].FileName)
	assert.Equal(t, 2, st.saved[0].RowCount)
}

func TestService_Run(t *testing.T) {
	t.Run("disabled service returns immediately", func(t *testing.T) {
		service := NewService(&config.IngestConfig{Enabled: false}, NewImporter(newMockStore(), parse.Options{}, nil), nil)
		done := make(chan struct{})
		go func() {
			service.Run(context.Background())
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Run did not return for a disabled service")
		}
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		var mu sync.Mutex
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			requests++
			mu.Unlock()
			w.Write([]byte(reservationsCSV))
		}))
		defer server.Close()

		cfg := &config.IngestConfig{
			Enabled:  true,
			Interval: time.Hour,
			Sources:  []config.IngestSource{{Role: "reservations", URL: server.URL + "/r.csv"}},
		}
		st := newMockStore()
		service := NewService(cfg, NewImporter(st, parse.Options{}, nil), nil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			service.Run(ctx)
			close(done)
		}()

		require.Eventually(t, func() bool {
			_, err := st.LatestDataset(context.Background(), store.RoleReservations)
			return err == nil
		}, time.Second, 10*time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Run did not stop after cancellation")
		}

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 1, requests)
	})
}

func TestSourceFileName(t *testing.T) {
	assert.Equal(t, "maps.csv", sourceFileName("https://exports.example.com/a/maps.csv?token=1"))
	assert.Equal(t, "https://exports.example.com", sourceFileName("https://exports.example.com"))
}
