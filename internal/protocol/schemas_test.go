package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"meadowgen/internal/gen/daycycle"
	"meadowgen/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	roundtrip := func(msg any) any {
		t.Helper()
		b, err := json.Marshal(msg)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var v any
		if err := json.Unmarshal(b, &v); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return v
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	paramsSchema := compile("params.schema.json")
	assetsSchema := compile("assets.schema.json")

	validate(helloSchema, roundtrip(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      "viewer1",
	}))

	validate(welcomeSchema, roundtrip(protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       "S1",
		WorldParams: protocol.WorldParams{
			Seed:             1337,
			TerrainSize:      200,
			TerrainSegments:  100,
			DayLengthSeconds: 1200,
			TickRateHz:       5,
		},
		Counts: map[string]int{"trees": 60, "grass": 400, "flowers": 140, "rocks": 24},
	}))

	in, err := daycycle.New(daycycle.DefaultKeyframes())
	if err != nil {
		t.Fatalf("daycycle.New: %v", err)
	}
	validate(paramsSchema, roundtrip(protocol.ParamsMsg{
		Type:            protocol.TypeParams,
		ProtocolVersion: protocol.Version,
		Tick:            42,
		Params:          in.ParametersAt(13.5),
	}))

	validate(assetsSchema, roundtrip(protocol.AssetsMsg{
		Type:            protocol.TypeAssets,
		ProtocolVersion: protocol.Version,
		Terrain:         protocol.TerrainSummary{Size: 200, Segments: 100, Vertices: 101 * 101, Triangles: 100 * 100 * 2},
		Instances: []protocol.InstanceRecord{
			{Category: "trees", Variant: "broadleaf", Position: [3]float64{1, 0.5, -3}, Scale: 1.2, RotationY: 0.7},
		},
	}))

}

func TestDecodeBase_RoutesByType(t *testing.T) {
	base, err := protocol.DecodeBase([]byte(`{"type":"HELLO","protocol_version":"1.0","client_name":"x"}`))
	if err != nil {
		t.Fatalf("DecodeBase: %v", err)
	}
	if base.Type != protocol.TypeHello || base.ProtocolVersion != protocol.Version {
		t.Fatalf("unexpected base: %+v", base)
	}
	if _, err := protocol.DecodeBase([]byte(`not json`)); err == nil {
		t.Fatal("invalid JSON accepted")
	}
}
