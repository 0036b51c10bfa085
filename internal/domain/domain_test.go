package domain

import (
	"errors"
	"testing"
)

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "config error",
			err:  NewConfigError("/etc/fia.json", "missing queries", cause),
			want: "configuration /etc/fia.json: missing queries (connection refused)",
		},
		{
			name: "fatal discovery error",
			err:  NewDiscoveryError(KindGraphStore, "root namespace not found", true, cause),
			want: "GRAPH_STORE discovery failed: root namespace not found (connection refused)",
		},
		{
			name: "query error with endpoint",
			err:  NewQueryError("kb", "bad response", cause),
			want: "query failed: endpoint kb: bad response (connection refused)",
		},
		{
			name: "store error",
			err:  NewTimeseriesStoreError("http://example.org/m/1", cause),
			want: "time-series store failed for stream http://example.org/m/1: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.want)
			}
			if !errors.Is(tt.err, cause) {
				t.Errorf("expected %v to unwrap to cause", tt.err)
			}
		})
	}
}

func TestNotConfiguredErrorAs(t *testing.T) {
	var err error = NewNotConfiguredError("Unmapped")

	var nc *NotConfiguredError
	if !errors.As(err, &nc) {
		t.Fatalf("expected NotConfiguredError")
	}
	if nc.Class != "Unmapped" {
		t.Errorf("expected class Unmapped, got %s", nc.Class)
	}
}

func TestPropertyGroupMarshalKeepsOrder(t *testing.T) {
	var g PropertyGroup
	g.Add("Name", "Sensor 1")
	g.Add("Height", "12 m")
	g.Add("Alias", "S1")
	g.Add("Alias", "North sensor")
	g.Add("Alias", "S1")

	data, err := g.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"Name":"Sensor 1","Height":"12 m","Alias":["S1","North sensor"]}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
	if g.Len() != 3 {
		t.Errorf("expected 3 properties, got %d", g.Len())
	}
}

func TestOutcomeCodes(t *testing.T) {
	tests := []struct {
		kind OutcomeKind
		want Code
	}{
		{OutcomeSuccess, CodeOK},
		{OutcomeBadInput, CodeBadInput},
		{OutcomeNoClassFound, CodeNoContent},
		{OutcomeConfigInvalid, CodeInternalError},
		{OutcomeFailed, CodeInternalError},
	}

	for _, tt := range tests {
		if got := (Outcome{Kind: tt.kind}).Code(); got != tt.want {
			t.Errorf("kind %d: got %s, want %s", tt.kind, got, tt.want)
		}
	}
}

func TestNewEndpointCredentials(t *testing.T) {
	ep := NewEndpoint("kb", "http://bg/namespace/kb/sparql", "", "", KindGraphStore)
	if _, _, ok := ep.BasicAuth(); ok {
		t.Errorf("expected no credentials without a user")
	}

	ep = NewEndpoint("kb", "http://bg/namespace/kb/sparql", "admin", "pw", KindGraphStore)
	user, secret, ok := ep.BasicAuth()
	if !ok || user != "admin" || secret != "pw" {
		t.Errorf("unexpected credentials %q %q %v", user, secret, ok)
	}
}
