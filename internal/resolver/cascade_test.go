package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type fakeSource struct {
	name  Source
	data  string
	err   error
	calls int
	got   string
}

func (f *fakeSource) Name() Source { return f.name }

func (f *fakeSource) Lookup(ctx context.Context, name string) (json.RawMessage, error) {
	f.calls++
	f.got = name
	if f.err != nil {
		return nil, f.err
	}
	if f.data == "" {
		return nil, ErrNoResult
	}
	return json.RawMessage(f.data), nil
}

func TestCascade_ShortCircuits(t *testing.T) {
	reg := &fakeSource{name: SourceRegistry, data: `{"id":"tylenol-label"}`}
	enc := &fakeSource{name: SourceEncyclopedia, data: `{"extract":"x"}`}
	nom := &fakeSource{name: SourceNomenclature, data: `{"rxcui":"1"}`}

	info, err := NewCascade(reg, enc, nom).Resolve(context.Background(), "Tylenol")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if info.Source != SourceRegistry {
		t.Errorf("Expected registry source, got %s", info.Source)
	}
	if string(info.Data) != `{"id":"tylenol-label"}` {
		t.Errorf("Expected record verbatim, got %s", info.Data)
	}
	if enc.calls != 0 || nom.calls != 0 {
		t.Errorf("Expected later sources untouched, got encyclopedia=%d nomenclature=%d", enc.calls, nom.calls)
	}
}

func TestCascade_AbsorbsFailures(t *testing.T) {
	tests := []struct {
		name       string
		regErr     error
		encData    string
		encErr     error
		nomData    string
		wantSource Source
	}{
		{"registry error falls to encyclopedia", errors.New("boom"), `{"extract":"Aspirin is"}`, nil, "", SourceEncyclopedia},
		{"encyclopedia error falls to nomenclature", nil, "", errors.New("timeout"), `{"name":"aspirin"}`, SourceNomenclature},
		{"both empty falls to nomenclature", nil, "", nil, `{"name":"aspirin"}`, SourceNomenclature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &fakeSource{name: SourceRegistry, err: tt.regErr}
			enc := &fakeSource{name: SourceEncyclopedia, data: tt.encData, err: tt.encErr}
			nom := &fakeSource{name: SourceNomenclature, data: tt.nomData}

			info, err := NewCascade(reg, enc, nom).Resolve(context.Background(), "aspirin")
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if info.Source != tt.wantSource {
				t.Errorf("Expected %s, got %s", tt.wantSource, info.Source)
			}
		})
	}
}

func TestCascade_NotFound(t *testing.T) {
	sources := []*fakeSource{
		{name: SourceRegistry},
		{name: SourceEncyclopedia, err: errors.New("upstream status 404")},
		{name: SourceNomenclature},
	}
	c := NewCascade(sources[0], sources[1], sources[2])

	_, err := c.Resolve(context.Background(), "  CompletelyFictitiousDrugXyz123 ")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
	if nf.Name != "CompletelyFictitiousDrugXyz123" {
		t.Errorf("Expected trimmed name, got %q", nf.Name)
	}
	if len(nf.Attempts) != 3 {
		t.Fatalf("Expected 3 attempts, got %d", len(nf.Attempts))
	}
	for i, s := range sources {
		if s.calls != 1 {
			t.Errorf("Expected source %d called once, got %d", i, s.calls)
		}
		if s.got != "CompletelyFictitiousDrugXyz123" {
			t.Errorf("Expected trimmed name passed to source, got %q", s.got)
		}
	}
}

func TestCascade_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reg := &fakeSource{name: SourceRegistry, data: `{}`}
	_, err := NewCascade(reg).Resolve(ctx, "x")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if reg.calls != 0 {
		t.Errorf("Expected no calls after cancel, got %d", reg.calls)
	}
}

func TestCascade_Sources(t *testing.T) {
	c := NewCascade(&fakeSource{name: SourceEncyclopedia}, &fakeSource{name: SourceRegistry})
	got := c.Sources()
	if len(got) != 2 || got[0] != SourceEncyclopedia || got[1] != SourceRegistry {
		t.Errorf("Unexpected order %v", got)
	}
}
