package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"smarthome-go-api/models"
	"smarthome-go-api/tuya"
)

// fakeCloudState backs a minimal cloud API: one device whose online flag and
// switch value the test mutates between calls.
type fakeCloudState struct {
	mu       sync.Mutex
	online   bool
	switchOn bool

	commands  []bool
	rejectCmd bool
}

func (s *fakeCloudState) set(online, switchOn bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = online
	s.switchOn = switchOn
}

func newFakeCloudServer(t *testing.T, state *fakeCloudState) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1.0/token", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"result":{"access_token":"tok","expire_time":7200}}`)
	})
	mux.HandleFunc("/v1.0/users/devices", func(w http.ResponseWriter, r *http.Request) {
		state.mu.Lock()
		defer state.mu.Unlock()
		fmt.Fprintf(w, `{"success":true,"result":[{"id":"plug-1","name":"Plug","category":"cz","online":%v}]}`, state.online)
	})
	mux.HandleFunc("/v1.0/devices/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		state.mu.Lock()
		defer state.mu.Unlock()
		fmt.Fprintf(w, `{"success":true,"result":[{"code":"switch_1","value":%v}]}`, state.switchOn)
	})
	mux.HandleFunc("/v1.0/devices/{id}/commands", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Commands []tuya.Property `json:"commands"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Commands) != 1 {
			t.Errorf("malformed command body")
		}

		state.mu.Lock()
		defer state.mu.Unlock()
		if state.rejectCmd {
			io.WriteString(w, `{"success":false,"code":2008,"msg":"device offline"}`)
			return
		}
		on, _ := body.Commands[0].Value.(bool)
		state.commands = append(state.commands, on)
		state.switchOn = on
		io.WriteString(w, `{"success":true,"result":true}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type staticCreds struct {
	cred tuya.Credential
	err  error
}

func (c staticCreds) CredentialByUser(context.Context, int64) (tuya.Credential, error) {
	return c.cred, c.err
}

func newTestService(t *testing.T, srv *httptest.Server, store DeviceStore) *Service {
	t.Helper()
	registry := NewRegistry(srv.URL, 5*time.Second, time.Hour)
	creds := staticCreds{cred: tuya.Credential{ClientID: "id", ClientSecret: "secret"}}
	return NewService(registry, NewReconciler(store, 0), creds, store)
}

func TestDeviceLifecycle(t *testing.T) {
	t.Parallel()

	state := &fakeCloudState{online: true, switchOn: true}
	srv := newFakeCloudServer(t, state)
	store := newMemStore()
	svc := newTestService(t, srv, store)
	ctx := context.Background()

	// First sync: the device is online and switched on.
	devices, err := svc.ListAndSyncDevices(ctx, 7)
	if err != nil {
		t.Fatalf("ListAndSyncDevices error: %v", err)
	}
	if len(devices) != 1 || devices[0].Status != models.StatusOn {
		t.Fatalf("devices after first sync = %+v", devices)
	}

	// Switch it off: the cloud acks and the local record follows.
	if err := svc.ControlDevice(ctx, 7, "plug-1", models.StatusOff); err != nil {
		t.Fatalf("ControlDevice error: %v", err)
	}
	if len(state.commands) != 1 || state.commands[0] != false {
		t.Fatalf("cloud commands = %v, want [false]", state.commands)
	}
	if rec, _ := store.get("plug-1"); rec.Status != models.StatusOff {
		t.Fatalf("status after control = %q, want %q", rec.Status, models.StatusOff)
	}

	// A later sync confirms the off state.
	devices, err = svc.ListAndSyncDevices(ctx, 7)
	if err != nil {
		t.Fatalf("resync error: %v", err)
	}
	if devices[0].Status != models.StatusOff {
		t.Fatalf("status after resync = %q, want %q", devices[0].Status, models.StatusOff)
	}

	// The device drops off the network: next sync marks it offline.
	state.set(false, true)
	devices, err = svc.ListAndSyncDevices(ctx, 7)
	if err != nil {
		t.Fatalf("offline sync error: %v", err)
	}
	if devices[0].Status != models.StatusOffline {
		t.Fatalf("status after going offline = %q, want %q", devices[0].Status, models.StatusOffline)
	}
}

func TestControlDeviceRejectedLeavesStatus(t *testing.T) {
	t.Parallel()

	state := &fakeCloudState{online: true, switchOn: true, rejectCmd: true}
	srv := newFakeCloudServer(t, state)
	store := newMemStore()
	store.records["plug-1"] = models.DeviceRecord{
		UserID: 7, DeviceID: "plug-1", Name: "Plug", Status: models.StatusOn,
	}
	svc := newTestService(t, srv, store)

	err := svc.ControlDevice(context.Background(), 7, "plug-1", models.StatusOff)
	if !errors.Is(err, tuya.ErrCommand) {
		t.Fatalf("error = %v, want ErrCommand", err)
	}
	if rec, _ := store.get("plug-1"); rec.Status != models.StatusOn {
		t.Errorf("status = %q, want unchanged %q", rec.Status, models.StatusOn)
	}
}

func TestControlDeviceRejectsUnknownCommand(t *testing.T) {
	t.Parallel()

	state := &fakeCloudState{online: true}
	srv := newFakeCloudServer(t, state)
	svc := newTestService(t, srv, newMemStore())

	if err := svc.ControlDevice(context.Background(), 7, "plug-1", "toggle"); err == nil {
		t.Fatal("expected error for unsupported command")
	}
	if len(state.commands) != 0 {
		t.Errorf("cloud received %d command(s), want none", len(state.commands))
	}
}

func TestListAndSyncDevicesCredentialLoadFailure(t *testing.T) {
	t.Parallel()

	state := &fakeCloudState{online: true}
	srv := newFakeCloudServer(t, state)
	store := newMemStore()
	registry := NewRegistry(srv.URL, 5*time.Second, time.Hour)
	svc := NewService(registry, NewReconciler(store, 0), staticCreds{err: errors.New("no row")}, store)

	if _, err := svc.ListAndSyncDevices(context.Background(), 7); err == nil {
		t.Fatal("expected error when credential lookup fails")
	}
}

func TestValidateCredentialProbesCloud(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1.0/token", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":false,"code":1001,"msg":"secret invalid"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := newMemStore()
	svc := newTestService(t, srv, store)

	err := svc.ValidateCredential(context.Background(), tuya.Credential{ClientID: "bad", ClientSecret: "bad"})
	if !errors.Is(err, tuya.ErrAuth) {
		t.Fatalf("error = %v, want ErrAuth", err)
	}
}
