package main

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordedCommand struct {
	Command string            `json:"command"`
	Args    []json.RawMessage `json:"args"`
}

type fakeAdmin struct {
	mu      sync.Mutex
	seen    []recordedCommand
	replies map[string]string
}

func (f *fakeAdmin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var cmd recordedCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.seen = append(f.seen, cmd)
	reply, ok := f.replies[cmd.Command]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"ERROR","error":"unrecognized command ` + cmd.Command + `","request_id":"r1"}`))
		return
	}
	w.Write([]byte(reply))
}

func (f *fakeAdmin) last() recordedCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[len(f.seen)-1]
}

// startFakeAdmin serves f on a fresh unix socket. The directory is kept short
// because socket paths are length limited.
func startFakeAdmin(t *testing.T, f *fakeAdmin) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "dk")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	socket := filepath.Join(dir, "a.sck")
	ln, err := net.Listen("unix", socket)
	require.NoError(t, err)
	srv := &http.Server{Handler: f}
	go srv.Serve(ln)
	t.Cleanup(func() { srv.Close() })
	return socket
}

func runCLI(t *testing.T, socket string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--socket", socket}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestHostsList(t *testing.T) {
	f := &fakeAdmin{replies: map[string]string{
		"hosts.list": `{"status":"OK","hosts":[{"id":1,"hostname":"web1","interval":60,"key":"k","status":"accepted","added":"2024-05-01 12:00:00","last_report":null}]}`,
	}}
	socket := startFakeAdmin(t, f)

	out, err := runCLI(t, socket, "hosts", "list")
	require.NoError(t, err)
	require.Contains(t, out, "HOSTNAME")
	require.Contains(t, out, "web1")
	require.Contains(t, out, "60s")
	require.Contains(t, out, "-")
	require.Equal(t, "hosts.list", f.last().Command)
	require.Empty(t, f.last().Args)
}

func TestHostsShowPassesID(t *testing.T) {
	f := &fakeAdmin{replies: map[string]string{
		"hosts.details": `{"status":"OK","host":{"id":7,"hostname":"db1","interval":30,"key":null,"status":"new","added":"2024-05-01 12:00:00","last_report":"2024-05-01 12:01:00"}}`,
	}}
	socket := startFakeAdmin(t, f)

	out, err := runCLI(t, socket, "hosts", "show", "7")
	require.NoError(t, err)
	require.Contains(t, out, "Host: db1")
	require.Contains(t, out, "2024-05-01 12:01:00")
	require.Equal(t, []json.RawMessage{json.RawMessage(`"7"`)}, f.last().Args)
}

func TestAutohostsAddPrintsKey(t *testing.T) {
	f := &fakeAdmin{replies: map[string]string{
		"autohosts.add": `{"status":"OK","key":"3f1c"}`,
	}}
	socket := startFakeAdmin(t, f)

	out, err := runCLI(t, socket, "autohosts", "add", "2")
	require.NoError(t, err)
	require.Contains(t, out, "Key: 3f1c")
	require.Contains(t, out, "darkan-agent -set-key 3f1c")
}

func TestValuesLatestEmpty(t *testing.T) {
	f := &fakeAdmin{replies: map[string]string{
		"values.latest": `{"status":"OK","values":[]}`,
	}}
	socket := startFakeAdmin(t, f)

	out, err := runCLI(t, socket, "values", "latest", "1")
	require.NoError(t, err)
	require.Equal(t, "No reports yet\n", out)
}

func TestTriggersAddSendsTriggerObject(t *testing.T) {
	f := &fakeAdmin{replies: map[string]string{
		"triggers.add": `{"status":"OK","id":4}`,
	}}
	socket := startFakeAdmin(t, f)

	out, err := runCLI(t, socket, "triggers", "add",
		"--host", "1", "--name", "high load", "--expression", "cpu.load > 0.9", "--action", "Log")
	require.NoError(t, err)
	require.Equal(t, "Trigger 4 added\n", out)

	args := f.last().Args
	require.Len(t, args, 1)
	require.JSONEq(t, `{"host":1,"name":"high load","description":"","expression":"cpu.load > 0.9","action":"Log"}`, string(args[0]))
}

func TestTriggersAddRequiresFlags(t *testing.T) {
	f := &fakeAdmin{}
	socket := startFakeAdmin(t, f)

	_, err := runCLI(t, socket, "triggers", "add", "--name", "x")
	require.Error(t, err)
	require.Empty(t, f.seen)
}

func TestActionsList(t *testing.T) {
	f := &fakeAdmin{replies: map[string]string{
		"actions.list": `{"status":"OK","actions":[{"name":"Log","description":"Writes alerts to the server log"}]}`,
	}}
	socket := startFakeAdmin(t, f)

	out, err := runCLI(t, socket, "actions", "list")
	require.NoError(t, err)
	require.Contains(t, out, "Writes alerts to the server log")
}

func TestServerErrorIsReturned(t *testing.T) {
	f := &fakeAdmin{replies: map[string]string{}}
	socket := startFakeAdmin(t, f)

	_, err := runCLI(t, socket, "triggers", "list")
	require.EqualError(t, err, "unrecognized command triggers.list")
}

func TestUnreachableSocket(t *testing.T) {
	_, err := runCLI(t, filepath.Join(t.TempDir(), "missing.sck"), "hosts", "list")
	require.ErrorContains(t, err, "failed to connect to server")
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "/nonexistent", "version")
	require.NoError(t, err)
	require.Equal(t, "darkanctl version dev\n", out)
}
