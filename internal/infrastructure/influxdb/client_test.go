package influxdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/device-inventory/internal/infrastructure/config"
)

// fakeInflux is a minimal InfluxDB v2 HTTP endpoint recording line protocol.
type fakeInflux struct {
	mu     sync.Mutex
	writes []string
	status int
}

func (f *fakeInflux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/ping":
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/api/v2/write":
		body, _ := io.ReadAll(r.Body) //nolint:errcheck // test server
		f.mu.Lock()
		f.writes = append(f.writes, string(body))
		status := f.status
		f.mu.Unlock()
		if status == 0 {
			status = http.StatusNoContent
		}
		w.WriteHeader(status)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeInflux) body() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.writes, "\n")
}

func setupFake(t *testing.T) (*fakeInflux, config.InfluxDBConfig) {
	t.Helper()
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	return fake, config.InfluxDBConfig{
		Enabled:       true,
		URL:           srv.URL,
		Token:         "test-token",
		Org:           "inventory",
		Bucket:        "inventory",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// ─── Connection ────────────────────────────────────────────────────

func TestConnect(t *testing.T) {
	_, cfg := setupFake(t)

	client, err := Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestConnect_Disabled(t *testing.T) {
	_, cfg := setupFake(t)
	cfg.Enabled = false

	_, err := Connect(context.Background(), cfg)
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := config.InfluxDBConfig{Enabled: true, URL: url, Token: "t", Org: "o", Bucket: "b"}
	_, err := Connect(context.Background(), cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClose(t *testing.T) {
	_, cfg := setupFake(t)

	client, err := Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() after Close error = %v, want ErrNotConnected", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestClose_Nil(t *testing.T) {
	var client *Client
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}

// ─── Writes ────────────────────────────────────────────────────────

func TestWriteDeviceEvent(t *testing.T) {
	fake, cfg := setupFake(t)

	client, err := Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	err = client.WriteDeviceEvent(DeviceEvent{
		Event:         "updated",
		DeviceID:      42,
		Brand:         "Apple",
		State:         "IN_USE",
		PreviousState: "AVAILABLE",
		Time:          time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("WriteDeviceEvent() error = %v", err)
	}
	client.writeAPI.Flush()

	waitFor(t, func() bool { return strings.Contains(fake.body(), MeasurementDeviceEvents) })

	body := fake.body()
	for _, want := range []string{"brand=Apple", "event=updated", "state=IN_USE", "device_id=42i", `previous_state="AVAILABLE"`} {
		if !strings.Contains(body, want) {
			t.Errorf("line protocol %q missing %q", body, want)
		}
	}
}

func TestWriteDeviceEvent_Closed(t *testing.T) {
	_, cfg := setupFake(t)

	client, err := Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	client.Close()

	if err := client.WriteDeviceEvent(DeviceEvent{Event: "created"}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("WriteDeviceEvent() error = %v, want ErrNotConnected", err)
	}
}

func TestWriteErrorCallback(t *testing.T) {
	fake, cfg := setupFake(t)
	fake.status = http.StatusBadRequest

	client, err := Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	errCh := make(chan error, 4)
	client.SetOnError(func(err error) { errCh <- err })

	if err := client.WriteDeviceEvent(DeviceEvent{Event: "created", DeviceID: 1, Brand: "Apple", State: "AVAILABLE"}); err != nil {
		t.Fatalf("WriteDeviceEvent() error = %v", err)
	}
	client.writeAPI.Flush()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrWriteFailed) {
			t.Errorf("callback error = %v, want ErrWriteFailed", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("write error callback not invoked")
	}
}

func TestNewDeviceEventPoint(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("created has no previous state", func(t *testing.T) {
		p := newDeviceEventPoint(DeviceEvent{Event: "created", DeviceID: 1, Brand: "Apple", State: "AVAILABLE", Time: ts})
		line := strings.TrimSpace(write.PointToLineProtocol(p, time.Second))

		want := "device_events,brand=Apple,event=created,state=AVAILABLE count=1i,device_id=1i 1767323045"
		if line != want {
			t.Errorf("line = %q, want %q", line, want)
		}
	})

	t.Run("zero time defaults to now", func(t *testing.T) {
		before := time.Now()
		p := newDeviceEventPoint(DeviceEvent{Event: "deleted"})
		if p.Time().Before(before) {
			t.Errorf("point time %v before %v", p.Time(), before)
		}
	})
}

func TestWriteOptions(t *testing.T) {
	tests := []struct {
		name      string
		batch     int
		flush     int
		wantBatch uint
		wantFlush uint
	}{
		{name: "configured", batch: 10, flush: 2, wantBatch: 10, wantFlush: 2000},
		{name: "defaults", batch: 0, flush: -1, wantBatch: defaultBatchSize, wantFlush: defaultFlushIntervalMS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := writeOptions(config.InfluxDBConfig{BatchSize: tt.batch, FlushInterval: tt.flush})
			if got := opts.BatchSize(); got != tt.wantBatch {
				t.Errorf("BatchSize() = %d, want %d", got, tt.wantBatch)
			}
			if got := opts.FlushInterval(); got != tt.wantFlush {
				t.Errorf("FlushInterval() = %d, want %d", got, tt.wantFlush)
			}
		})
	}
}
