package cli

import (
	"bytes"
	stdcontext "context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	ctx, cancel := stdcontext.WithTimeout(stdcontext.Background(), 30*time.Second)
	defer cancel()
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestRunCommandRequiresWork(t *testing.T) {
	if _, err := executeRoot(t, "run"); err == nil {
		t.Fatal("run without a command or manifest should fail")
	}
}

func TestKillCommandRejectsUnknownSignal(t *testing.T) {
	if _, err := executeRoot(t, "kill", "--signal", "hup", strconv.Itoa(os.Getpid())); err == nil {
		t.Fatal("unknown signal accepted")
	}
}

func TestServeMetricsEndpoint(t *testing.T) {
	addr, stop, err := serveMetrics("127.0.0.1:0")
	if err != nil {
		t.Fatalf("serve metrics: %v", err)
	}
	defer stop()

	resp, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics body: %v", err)
	}
	if !strings.Contains(string(body), "cobalt_") {
		t.Fatalf("metrics body missing cobalt series:\n%s", body)
	}
}

func TestServeMetricsDisabled(t *testing.T) {
	addr, stop, err := serveMetrics("")
	if err != nil || stop != nil || addr != "" {
		t.Fatalf("serveMetrics(\"\") = %q, stop!=nil: %v, %v; want disabled", addr, stop != nil, err)
	}
}

func TestParsePID(t *testing.T) {
	if _, err := parsePID("abc"); err == nil {
		t.Fatal("non-numeric pid accepted")
	}
	if _, err := parsePID("-4"); err == nil {
		t.Fatal("negative pid accepted")
	}
	pid, err := parsePID("1234")
	if err != nil || pid != 1234 {
		t.Fatalf("parsePID(1234) = %d, %v", pid, err)
	}
}
